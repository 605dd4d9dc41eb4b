package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"attache/internal/casefile/models"
	"attache/internal/profile"
	id "attache/pkg/domain"
	"attache/pkg/platform/sentinel"
)

// Postgres persists cases in PostgreSQL. The profile snapshot, document
// list, and embedded actions live in JSONB columns; the case row is the
// transactional unit and the version column keys the optimistic lock.
type Postgres struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed case store.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const caseColumns = `id, reference, org_id, service_id, applicant_id, status, priority,
	profile, documents, actions, submitted_at, assigned_at, completed_at,
	version, created_at, updated_at`

func (s *Postgres) Create(ctx context.Context, c *models.Case) error {
	profileJSON, documentsJSON, actionsJSON, err := encodeEmbedded(c)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO cases (`+caseColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
		uuid.UUID(c.ID), c.Reference, uuid.UUID(c.OrgID), uuid.UUID(c.ServiceID),
		uuid.UUID(c.ApplicantID), string(c.Status), string(c.Priority),
		profileJSON, documentsJSON, actionsJSON,
		c.SubmittedAt, c.AssignedAt, c.CompletedAt,
		c.Version, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create case: %w", err)
	}
	return nil
}

func (s *Postgres) Get(ctx context.Context, caseID id.CaseID) (*models.Case, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+caseColumns+` FROM cases WHERE id = $1`,
		uuid.UUID(caseID),
	)
	c, err := scanCase(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get case: %w", err)
	}
	return c, nil
}

func (s *Postgres) Update(ctx context.Context, c *models.Case) (*models.Case, error) {
	profileJSON, documentsJSON, actionsJSON, err := encodeEmbedded(c)
	if err != nil {
		return nil, err
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE cases
		SET status = $3, priority = $4, profile = $5, documents = $6, actions = $7,
			submitted_at = $8, assigned_at = $9, completed_at = $10,
			version = version + 1, updated_at = $11
		WHERE id = $1 AND version = $2`,
		uuid.UUID(c.ID), c.Version,
		string(c.Status), string(c.Priority), profileJSON, documentsJSON, actionsJSON,
		c.SubmittedAt, c.AssignedAt, c.CompletedAt, c.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("update case: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("update case: %w", err)
	}
	if affected == 0 {
		// Either the case is gone or someone else won the version race.
		var exists bool
		if err := s.db.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM cases WHERE id = $1)`, uuid.UUID(c.ID),
		).Scan(&exists); err != nil {
			return nil, fmt.Errorf("update case: %w", err)
		}
		if !exists {
			return nil, sentinel.ErrNotFound
		}
		return nil, sentinel.ErrVersionMismatch
	}

	updated := c.Clone()
	updated.Version++
	return updated, nil
}

func (s *Postgres) ListByOrgStatus(ctx context.Context, orgID id.OrgID, status models.Status) ([]*models.Case, error) {
	return s.list(ctx, `
		SELECT `+caseColumns+` FROM cases
		WHERE org_id = $1 AND status = $2
		ORDER BY created_at, reference`,
		uuid.UUID(orgID), string(status))
}

func (s *Postgres) ListByApplicant(ctx context.Context, applicantID id.ApplicantID) ([]*models.Case, error) {
	return s.list(ctx, `
		SELECT `+caseColumns+` FROM cases
		WHERE applicant_id = $1
		ORDER BY created_at, reference`,
		uuid.UUID(applicantID))
}

func (s *Postgres) list(ctx context.Context, query string, args ...any) ([]*models.Case, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list cases: %w", err)
	}
	defer rows.Close()

	var out []*models.Case
	for rows.Next() {
		c, err := scanCase(rows)
		if err != nil {
			return nil, fmt.Errorf("scan case: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func encodeEmbedded(c *models.Case) (profileJSON, documentsJSON, actionsJSON []byte, err error) {
	if profileJSON, err = json.Marshal(c.Profile); err != nil {
		return nil, nil, nil, fmt.Errorf("encode profile: %w", err)
	}
	if documentsJSON, err = json.Marshal(c.Documents); err != nil {
		return nil, nil, nil, fmt.Errorf("encode documents: %w", err)
	}
	if actionsJSON, err = json.Marshal(c.Actions); err != nil {
		return nil, nil, nil, fmt.Errorf("encode actions: %w", err)
	}
	return profileJSON, documentsJSON, actionsJSON, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCase(row rowScanner) (*models.Case, error) {
	var c models.Case
	var caseID, orgID, serviceID, applicantID uuid.UUID
	var status, priority string
	var profileJSON, documentsJSON, actionsJSON []byte

	err := row.Scan(&caseID, &c.Reference, &orgID, &serviceID, &applicantID,
		&status, &priority, &profileJSON, &documentsJSON, &actionsJSON,
		&c.SubmittedAt, &c.AssignedAt, &c.CompletedAt,
		&c.Version, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}

	c.ID = id.CaseID(caseID)
	c.OrgID = id.OrgID(orgID)
	c.ServiceID = id.ServiceID(serviceID)
	c.ApplicantID = id.ApplicantID(applicantID)
	c.Status = models.Status(status)
	c.Priority = models.Priority(priority)

	if err := json.Unmarshal(profileJSON, &c.Profile); err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}
	if err := json.Unmarshal(documentsJSON, &c.Documents); err != nil {
		return nil, fmt.Errorf("decode documents: %w", err)
	}
	if err := json.Unmarshal(actionsJSON, &c.Actions); err != nil {
		return nil, fmt.Errorf("decode actions: %w", err)
	}
	if c.Profile == nil {
		c.Profile = profile.Snapshot{}
	}
	return &c, nil
}

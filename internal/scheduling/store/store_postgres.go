package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"attache/internal/scheduling/models"
	id "attache/pkg/domain"
	"attache/pkg/platform/sentinel"
)

// Postgres persists slots and appointments in PostgreSQL.
//
// Book runs as a transaction gated on the slot's version column: the
// increment only lands if nobody else changed the slot since we read it.
// Losing that race surfaces sentinel.ErrVersionMismatch so the allocator
// can retry against fresh state. A transaction-scoped advisory lock on the
// case ID serializes bookings for the same case across different slots.
type Postgres struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed scheduling store.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (s *Postgres) CreateSlot(ctx context.Context, slot *models.AppointmentSlot) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO appointment_slots (id, org_id, slot_date, start_time, end_time, capacity, booked_count, version, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		uuid.UUID(slot.ID), uuid.UUID(slot.OrgID), slot.Date, slot.StartTime, slot.EndTime,
		slot.Capacity, slot.BookedCount, slot.Version, slot.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create slot: %w", err)
	}
	return nil
}

func (s *Postgres) GetSlot(ctx context.Context, slotID id.SlotID) (*models.AppointmentSlot, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, org_id, slot_date, start_time, end_time, capacity, booked_count, version, created_at
		FROM appointment_slots WHERE id = $1`,
		uuid.UUID(slotID),
	)
	slot, err := scanSlot(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get slot: %w", err)
	}
	return slot, nil
}

func (s *Postgres) ListSlots(ctx context.Context, orgID id.OrgID, from, to time.Time) ([]*models.AppointmentSlot, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, org_id, slot_date, start_time, end_time, capacity, booked_count, version, created_at
		FROM appointment_slots
		WHERE org_id = $1 AND slot_date >= $2 AND slot_date < $3
		ORDER BY slot_date, start_time`,
		uuid.UUID(orgID), from, to,
	)
	if err != nil {
		return nil, fmt.Errorf("list slots: %w", err)
	}
	defer rows.Close()

	var out []*models.AppointmentSlot
	for rows.Next() {
		slot, err := scanSlot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan slot: %w", err)
		}
		out = append(out, slot)
	}
	return out, rows.Err()
}

func (s *Postgres) Book(ctx context.Context, slotID id.SlotID, caseID id.CaseID, applicantID id.ApplicantID, at time.Time) (*models.Appointment, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin book tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var bookedCount, capacity int
	var version int64
	err = tx.QueryRowContext(ctx, `
		SELECT booked_count, capacity, version FROM appointment_slots WHERE id = $1`,
		uuid.UUID(slotID),
	).Scan(&bookedCount, &capacity, &version)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read slot: %w", err)
	}
	if bookedCount >= capacity {
		return nil, sentinel.ErrCapacityFull
	}

	// Serialize bookings per case. The version gate below only orders
	// writers of the same slot row; without this lock two transactions
	// booking the same case into different slots would both pass the
	// confirmed-appointment check before either insert commits.
	_, err = tx.ExecContext(ctx, `
		SELECT pg_advisory_xact_lock(hashtextextended($1::text, 0))`,
		uuid.UUID(caseID),
	)
	if err != nil {
		return nil, fmt.Errorf("lock case: %w", err)
	}

	var hasConfirmed bool
	err = tx.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM appointments WHERE case_id = $1 AND status = $2)`,
		uuid.UUID(caseID), string(models.AppointmentStatusConfirmed),
	).Scan(&hasConfirmed)
	if err != nil {
		return nil, fmt.Errorf("check case appointment: %w", err)
	}
	if hasConfirmed {
		return nil, sentinel.ErrConflict
	}

	// Conditional increment gated on the version we read. Zero rows means a
	// concurrent booking landed first; the caller retries with fresh state.
	res, err := tx.ExecContext(ctx, `
		UPDATE appointment_slots
		SET booked_count = booked_count + 1, version = version + 1
		WHERE id = $1 AND version = $2 AND booked_count < capacity`,
		uuid.UUID(slotID), version,
	)
	if err != nil {
		return nil, fmt.Errorf("increment booked count: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("increment booked count: %w", err)
	}
	if affected == 0 {
		return nil, sentinel.ErrVersionMismatch
	}

	appt := &models.Appointment{
		ID:          id.NewAppointmentID(),
		SlotID:      slotID,
		CaseID:      caseID,
		ApplicantID: applicantID,
		Status:      models.AppointmentStatusConfirmed,
		CreatedAt:   at,
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO appointments (id, slot_id, case_id, applicant_id, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		uuid.UUID(appt.ID), uuid.UUID(appt.SlotID), uuid.UUID(appt.CaseID),
		uuid.UUID(appt.ApplicantID), string(appt.Status), appt.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert appointment: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit book tx: %w", err)
	}
	return appt, nil
}

func (s *Postgres) CancelAppointment(ctx context.Context, appointmentID id.AppointmentID, at time.Time) (*models.Appointment, bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, fmt.Errorf("begin cancel tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	row := tx.QueryRowContext(ctx, `
		SELECT id, slot_id, case_id, applicant_id, status, created_at, cancelled_at
		FROM appointments WHERE id = $1 FOR UPDATE`,
		uuid.UUID(appointmentID),
	)
	appt, err := scanAppointment(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, sentinel.ErrNotFound
		}
		return nil, false, fmt.Errorf("read appointment: %w", err)
	}

	if appt.Status == models.AppointmentStatusCancelled {
		// Idempotent: already cancelled, nothing to release.
		return appt, false, tx.Commit()
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE appointments SET status = $2, cancelled_at = $3 WHERE id = $1`,
		uuid.UUID(appointmentID), string(models.AppointmentStatusCancelled), at,
	)
	if err != nil {
		return nil, false, fmt.Errorf("cancel appointment: %w", err)
	}
	_, err = tx.ExecContext(ctx, `
		UPDATE appointment_slots
		SET booked_count = GREATEST(booked_count - 1, 0), version = version + 1
		WHERE id = $1`,
		uuid.UUID(appt.SlotID),
	)
	if err != nil {
		return nil, false, fmt.Errorf("release seat: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, false, fmt.Errorf("commit cancel tx: %w", err)
	}

	appt.Status = models.AppointmentStatusCancelled
	cancelledAt := at
	appt.CancelledAt = &cancelledAt
	return appt, true, nil
}

func (s *Postgres) GetAppointment(ctx context.Context, appointmentID id.AppointmentID) (*models.Appointment, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, slot_id, case_id, applicant_id, status, created_at, cancelled_at
		FROM appointments WHERE id = $1`,
		uuid.UUID(appointmentID),
	)
	appt, err := scanAppointment(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get appointment: %w", err)
	}
	return appt, nil
}

func (s *Postgres) FindConfirmedByCase(ctx context.Context, caseID id.CaseID) (*models.Appointment, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, slot_id, case_id, applicant_id, status, created_at, cancelled_at
		FROM appointments WHERE case_id = $1 AND status = $2`,
		uuid.UUID(caseID), string(models.AppointmentStatusConfirmed),
	)
	appt, err := scanAppointment(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find appointment by case: %w", err)
	}
	return appt, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSlot(row rowScanner) (*models.AppointmentSlot, error) {
	var slot models.AppointmentSlot
	var slotID, orgID uuid.UUID
	err := row.Scan(&slotID, &orgID, &slot.Date, &slot.StartTime, &slot.EndTime,
		&slot.Capacity, &slot.BookedCount, &slot.Version, &slot.CreatedAt)
	if err != nil {
		return nil, err
	}
	slot.ID = id.SlotID(slotID)
	slot.OrgID = id.OrgID(orgID)
	return &slot, nil
}

func scanAppointment(row rowScanner) (*models.Appointment, error) {
	var appt models.Appointment
	var apptID, slotID, caseID, applicantID uuid.UUID
	var status string
	var cancelledAt sql.NullTime
	err := row.Scan(&apptID, &slotID, &caseID, &applicantID, &status, &appt.CreatedAt, &cancelledAt)
	if err != nil {
		return nil, err
	}
	appt.ID = id.AppointmentID(apptID)
	appt.SlotID = id.SlotID(slotID)
	appt.CaseID = id.CaseID(caseID)
	appt.ApplicantID = id.ApplicantID(applicantID)
	appt.Status = models.AppointmentStatus(status)
	if cancelledAt.Valid {
		appt.CancelledAt = &cancelledAt.Time
	}
	return &appt, nil
}

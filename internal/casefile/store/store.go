// Package store persists case records.
package store

import (
	"context"

	"attache/internal/casefile/models"
	id "attache/pkg/domain"
)

// Store is the persistence boundary for cases. Actions and the profile
// snapshot are embedded in the case record and travel with it.
//
// Update is optimistically locked: the write lands only if the stored
// version still equals the version the caller read, and the stored version
// increments on success. A lost race returns sentinel.ErrVersionMismatch;
// services translate that to a concurrent-modification error and never
// retry, because a case is not expected to be mutated by two actors at once.
type Store interface {
	// Create persists a new case. sentinel.ErrConflict if the ID exists.
	Create(ctx context.Context, c *models.Case) error
	// Get returns the case, or sentinel.ErrNotFound.
	Get(ctx context.Context, caseID id.CaseID) (*models.Case, error)
	// Update persists the given state and returns the stored copy with the
	// incremented version.
	Update(ctx context.Context, c *models.Case) (*models.Case, error)
	// ListByOrgStatus returns an organization's cases in one status,
	// oldest first.
	ListByOrgStatus(ctx context.Context, orgID id.OrgID, status models.Status) ([]*models.Case, error)
	// ListByApplicant returns all of one applicant's cases, oldest first.
	ListByApplicant(ctx context.Context, applicantID id.ApplicantID) ([]*models.Case, error)
}

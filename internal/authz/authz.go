// Package authz implements the case authorization port with a fixed role
// matrix. Roles arrive in the request context, set by the auth middleware
// from the actor's token.
package authz

import (
	"context"
	"slices"

	"github.com/google/uuid"

	"attache/internal/casefile/models"
	id "attache/pkg/domain"
	"attache/pkg/requestcontext"
)

const (
	// RoleAdmin bypasses the edge matrix.
	RoleAdmin = "admin"
	// RoleOfficer works cases through the main flow.
	RoleOfficer = "officer"
	// RoleStaff covers front-desk operations: closing cases and issuing
	// applicant actions.
	RoleStaff = "staff"
)

// roleForTarget names the role required to move a case into each status.
// Entering awaiting_applicant is not listed: that edge belongs to the
// action coordinator, never to a direct transition.
var roleForTarget = map[models.Status]string{
	models.StatusUnderReview:    RoleOfficer,
	models.StatusInProduction:   RoleOfficer,
	models.StatusValidated:      RoleOfficer,
	models.StatusReadyForPickup: RoleOfficer,
	models.StatusCompleted:      RoleStaff,
	models.StatusCancelled:      RoleStaff,
	models.StatusRejected:       RoleOfficer,
}

// Matrix is the role-based Authorization implementation.
type Matrix struct{}

// New constructs the role matrix.
func New() *Matrix {
	return &Matrix{}
}

// CanTransition reports whether the actor's roles cover the requested edge.
func (m *Matrix) CanTransition(ctx context.Context, _ id.ActorID, _ *models.Case, _ models.Status, to models.Status) bool {
	required, ok := roleForTarget[to]
	if !ok {
		return false
	}
	roles := requestcontext.Roles(ctx)
	return slices.Contains(roles, required) || slices.Contains(roles, RoleAdmin)
}

// IsApplicant reports whether the actor is the case's applicant.
func (m *Matrix) IsApplicant(_ context.Context, actor id.ActorID, c *models.Case) bool {
	return !actor.IsZero() && uuid.UUID(actor) == uuid.UUID(c.ApplicantID)
}

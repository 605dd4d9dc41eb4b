package authz

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"attache/internal/casefile/models"
	id "attache/pkg/domain"
	"attache/pkg/requestcontext"
)

func ctxWithRoles(roles ...string) context.Context {
	return requestcontext.WithRoles(context.Background(), roles)
}

func TestCanTransition(t *testing.T) {
	m := New()
	actor := id.ActorID(uuid.New())
	c := &models.Case{}

	t.Run("officer moves cases through the main flow", func(t *testing.T) {
		ctx := ctxWithRoles(RoleOfficer)
		assert.True(t, m.CanTransition(ctx, actor, c, models.StatusSubmitted, models.StatusUnderReview))
		assert.True(t, m.CanTransition(ctx, actor, c, models.StatusUnderReview, models.StatusInProduction))
	})

	t.Run("staff closes and completes but does not review", func(t *testing.T) {
		ctx := ctxWithRoles(RoleStaff)
		assert.True(t, m.CanTransition(ctx, actor, c, models.StatusUnderReview, models.StatusCancelled))
		assert.True(t, m.CanTransition(ctx, actor, c, models.StatusReadyForPickup, models.StatusCompleted))
		assert.False(t, m.CanTransition(ctx, actor, c, models.StatusSubmitted, models.StatusUnderReview))
	})

	t.Run("admin bypasses the matrix", func(t *testing.T) {
		ctx := ctxWithRoles(RoleAdmin)
		assert.True(t, m.CanTransition(ctx, actor, c, models.StatusSubmitted, models.StatusUnderReview))
		assert.True(t, m.CanTransition(ctx, actor, c, models.StatusUnderReview, models.StatusRejected))
	})

	t.Run("no roles means no transitions", func(t *testing.T) {
		ctx := context.Background()
		assert.False(t, m.CanTransition(ctx, actor, c, models.StatusSubmitted, models.StatusUnderReview))
	})

	t.Run("awaiting_applicant is never a direct transition target", func(t *testing.T) {
		ctx := ctxWithRoles(RoleAdmin)
		assert.False(t, m.CanTransition(ctx, actor, c, models.StatusUnderReview, models.StatusAwaitingApplicant))
	})
}

func TestIsApplicant(t *testing.T) {
	m := New()
	applicant := id.ApplicantID(uuid.New())
	c := &models.Case{ApplicantID: applicant}

	assert.True(t, m.IsApplicant(context.Background(), id.ActorID(applicant), c))
	assert.False(t, m.IsApplicant(context.Background(), id.ActorID(uuid.New()), c))
	assert.False(t, m.IsApplicant(context.Background(), id.ActorID{}, &models.Case{}))
}

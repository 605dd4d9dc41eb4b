package service

import (
	"context"
	"errors"

	"attache/internal/casefile/models"
	"attache/internal/profile"
	id "attache/pkg/domain"
	dErrors "attache/pkg/domain-errors"
	"attache/pkg/platform/events"
	"attache/pkg/platform/sentinel"
	"attache/pkg/requestcontext"
)

// CreateDraftParams carries the inputs for a new case.
type CreateDraftParams struct {
	OrgID       id.OrgID
	ServiceID   id.ServiceID
	ApplicantID id.ApplicantID
	Priority    models.Priority
	Profile     profile.Snapshot
}

// CreateDraft opens a new case in draft for the applicant.
func (s *Service) CreateDraft(ctx context.Context, params CreateDraftParams) (*models.Case, error) {
	if params.OrgID.IsZero() {
		return nil, dErrors.New(dErrors.CodeValidation, "organization ID is required")
	}
	if params.ApplicantID.IsZero() {
		return nil, dErrors.New(dErrors.CodeValidation, "applicant ID is required")
	}
	if _, err := s.registry.Lookup(params.ServiceID); err != nil {
		return nil, err
	}
	if params.Priority == "" {
		params.Priority = models.PriorityNormal
	}
	if params.Profile == nil {
		params.Profile = profile.Snapshot{}
	}

	now := requestcontext.Now(ctx)
	caseID := id.NewCaseID()
	c := &models.Case{
		ID:          caseID,
		Reference:   models.NewReference(caseID),
		OrgID:       params.OrgID,
		ServiceID:   params.ServiceID,
		ApplicantID: params.ApplicantID,
		Status:      models.StatusDraft,
		Priority:    params.Priority,
		Profile:     params.Profile,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.store.Create(ctx, c); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeStateConflict, "case already exists")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create case")
	}

	if s.metrics != nil {
		s.metrics.IncrementCreated()
	}
	s.logger.InfoContext(ctx, "case draft created",
		"case_id", c.ID, "reference", c.Reference, "org_id", c.OrgID)
	return c, nil
}

// Get returns a case by ID.
func (s *Service) Get(ctx context.Context, caseID id.CaseID) (*models.Case, error) {
	return s.load(ctx, caseID)
}

// ListByOrgStatus returns an organization's cases in one status, oldest first.
func (s *Service) ListByOrgStatus(ctx context.Context, orgID id.OrgID, status models.Status) ([]*models.Case, error) {
	cases, err := s.store.ListByOrgStatus(ctx, orgID, status)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list cases")
	}
	return cases, nil
}

// ListByApplicant returns all of one applicant's cases, oldest first.
func (s *Service) ListByApplicant(ctx context.Context, applicantID id.ApplicantID) ([]*models.Case, error) {
	cases, err := s.store.ListByApplicant(ctx, applicantID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list cases")
	}
	return cases, nil
}

// Submit moves a draft case into the lifecycle proper. The profile snapshot
// must satisfy the service's required sections.
func (s *Service) Submit(ctx context.Context, caseID id.CaseID) (*models.Case, error) {
	c, err := s.load(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if c.Status != models.StatusDraft {
		return nil, dErrors.Newf(dErrors.CodeStateConflict, "only draft cases can be submitted, case is %s", c.Status)
	}

	def, err := s.registry.Lookup(c.ServiceID)
	if err != nil {
		return nil, err
	}
	if missing := profile.MissingSections(c.Profile, def.RequiredSections); len(missing) > 0 {
		return nil, dErrors.Newf(dErrors.CodeValidation, "required sections incomplete: %v", missing)
	}

	now := requestcontext.Now(ctx)
	c.Status = models.StatusSubmitted
	c.SubmittedAt = &now
	c.UpdatedAt = now

	updated, err := s.save(ctx, c)
	if err != nil {
		return nil, err
	}

	s.emit(ctx, events.Event{
		CaseID:  updated.ID,
		Kind:    events.KindCaseSubmitted,
		Payload: map[string]string{"reference": updated.Reference},
	})
	if s.metrics != nil {
		s.metrics.IncrementTransition(string(models.StatusSubmitted))
	}
	s.logger.InfoContext(ctx, "case submitted",
		"case_id", updated.ID, "reference", updated.Reference)
	return updated, nil
}

// Transition moves a case along one main-flow edge. Rejections leave the
// stored case unchanged.
func (s *Service) Transition(ctx context.Context, caseID id.CaseID, target models.Status, actor id.ActorID) (*models.Case, error) {
	c, err := s.load(ctx, caseID)
	if err != nil {
		return nil, err
	}

	if c.Status == models.StatusDraft {
		return nil, s.denyTransition("illegal_edge",
			dErrors.New(dErrors.CodeStateConflict, "draft cases leave draft through submission"))
	}
	if action := c.UnresolvedAction(); action != nil {
		return nil, s.denyTransition("action_pending",
			dErrors.Newf(dErrors.CodeStateConflict, "case is awaiting applicant input (action %s)", action.ID))
	}
	if !models.HasEdge(c.Status, target) {
		return nil, s.denyTransition("illegal_edge",
			dErrors.Newf(dErrors.CodeStateConflict, "no transition from %s to %s", c.Status, target))
	}
	if !s.authz.CanTransition(ctx, actor, c, c.Status, target) {
		return nil, s.denyTransition("unauthorized",
			dErrors.Newf(dErrors.CodeUnauthorized, "actor may not move case from %s to %s", c.Status, target))
	}

	now := requestcontext.Now(ctx)
	from := c.Status
	c.Status = target
	c.UpdatedAt = now
	switch target {
	case models.StatusUnderReview:
		if c.AssignedAt == nil {
			c.AssignedAt = &now
		}
	case models.StatusCompleted:
		c.CompletedAt = &now
	}

	updated, err := s.save(ctx, c)
	if err != nil {
		return nil, err
	}

	s.emit(ctx, events.Event{
		CaseID: updated.ID,
		Kind:   events.KindCaseTransitioned,
		Payload: map[string]string{
			"from": string(from),
			"to":   string(target),
		},
	})
	if s.metrics != nil {
		s.metrics.IncrementTransition(string(target))
	}
	s.logger.InfoContext(ctx, "case transitioned",
		"case_id", updated.ID, "from", from, "to", target, "actor_id", actor)
	return updated, nil
}

// Cancel moves the case to cancelled. Legal from any non-terminal status and
// idempotent when already cancelled.
func (s *Service) Cancel(ctx context.Context, caseID id.CaseID, reason string, actor id.ActorID) (*models.Case, error) {
	return s.terminate(ctx, caseID, models.StatusCancelled, events.KindCaseCancelled, reason, actor)
}

// Reject moves the case to rejected. Legal from any non-terminal status and
// idempotent when already rejected.
func (s *Service) Reject(ctx context.Context, caseID id.CaseID, reason string, actor id.ActorID) (*models.Case, error) {
	return s.terminate(ctx, caseID, models.StatusRejected, events.KindCaseRejected, reason, actor)
}

func (s *Service) terminate(ctx context.Context, caseID id.CaseID, target models.Status, kind events.Kind, reason string, actor id.ActorID) (*models.Case, error) {
	c, err := s.load(ctx, caseID)
	if err != nil {
		return nil, err
	}
	// Authorization runs before the idempotent no-op so a repeated request
	// from an unauthorized actor is still rejected.
	if !s.authz.CanTransition(ctx, actor, c, c.Status, target) {
		return nil, s.denyTransition("unauthorized",
			dErrors.Newf(dErrors.CodeUnauthorized, "actor may not move case from %s to %s", c.Status, target))
	}
	if c.Status == target {
		// Repeating a terminal operation is a no-op, not an error.
		return c, nil
	}
	if c.Status.IsTerminal() {
		return nil, dErrors.Newf(dErrors.CodeStateConflict, "case is already %s", c.Status)
	}

	now := requestcontext.Now(ctx)
	from := c.Status
	// A pending action cannot outlive the case; close it with the case so
	// the awaiting invariant holds.
	if action := c.UnresolvedAction(); action != nil {
		action.CompletedAt = &now
	}
	c.Status = target
	c.UpdatedAt = now

	updated, err := s.save(ctx, c)
	if err != nil {
		return nil, err
	}

	s.emit(ctx, events.Event{
		CaseID: updated.ID,
		Kind:   kind,
		Payload: map[string]string{
			"from":   string(from),
			"reason": reason,
		},
	})
	if s.metrics != nil {
		s.metrics.IncrementTransition(string(target))
	}
	s.logger.InfoContext(ctx, "case closed",
		"case_id", updated.ID, "status", target, "reason", reason, "actor_id", actor)
	return updated, nil
}

func (s *Service) denyTransition(reason string, err error) error {
	if s.metrics != nil {
		s.metrics.IncrementDenied(reason)
	}
	return err
}

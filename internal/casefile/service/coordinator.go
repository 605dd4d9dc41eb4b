package service

import (
	"context"
	"time"

	"attache/internal/casefile/models"
	"attache/internal/profile"
	id "attache/pkg/domain"
	dErrors "attache/pkg/domain-errors"
	"attache/pkg/platform/events"
	"attache/pkg/requestcontext"
)

// IssueParams carries the inputs for a new action-required entry.
type IssueParams struct {
	Kind     models.ActionKind
	Message  string
	Metadata models.ActionMetadata
	Deadline *time.Time
}

// Issue pauses the case and solicits exactly one piece of applicant input.
// At most one action may be outstanding; the case's current status is
// recorded so resolution can restore it.
func (s *Service) Issue(ctx context.Context, caseID id.CaseID, params IssueParams, actor id.ActorID) (*models.Case, error) {
	if params.Message == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "action message is required")
	}
	if params.Metadata == nil {
		return nil, dErrors.New(dErrors.CodeValidation, "action metadata is required")
	}
	if params.Metadata.ActionKind() != params.Kind {
		return nil, dErrors.Newf(dErrors.CodeValidation, "metadata does not match action kind %s", params.Kind)
	}

	c, err := s.load(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if c.Status.IsTerminal() {
		return nil, dErrors.Newf(dErrors.CodeStateConflict, "case is already %s", c.Status)
	}
	if action := c.UnresolvedAction(); action != nil {
		return nil, dErrors.Newf(dErrors.CodeStateConflict, "action %s is already outstanding", action.ID)
	}
	if !c.Status.CanAwait() {
		return nil, dErrors.Newf(dErrors.CodeStateConflict, "cannot request applicant input while case is %s", c.Status)
	}

	now := requestcontext.Now(ctx)
	action := models.ActionRequired{
		ID:           id.NewActionID(),
		Kind:         params.Kind,
		Message:      params.Message,
		Metadata:     params.Metadata,
		ResumeStatus: c.Status,
		Deadline:     params.Deadline,
		CreatedAt:    now,
	}
	c.Actions = append(c.Actions, action)
	c.Status = models.StatusAwaitingApplicant
	c.UpdatedAt = now

	updated, err := s.save(ctx, c)
	if err != nil {
		return nil, err
	}

	s.emit(ctx, events.Event{
		CaseID: updated.ID,
		Kind:   events.KindActionIssued,
		Payload: map[string]string{
			"action_id":   action.ID.String(),
			"action_kind": string(action.Kind),
		},
	})
	if s.metrics != nil {
		s.metrics.IncrementIssued(string(action.Kind))
	}
	s.logger.InfoContext(ctx, "action issued",
		"case_id", updated.ID, "action_id", action.ID, "action_kind", action.Kind, "actor_id", actor)
	return updated, nil
}

// Respond resolves the case's outstanding action with the applicant's
// answer. Resolution is exactly-once: a second response to the same action
// fails with a state conflict and has no side effects. On success the case
// returns to the status it held when the action was issued.
func (s *Service) Respond(ctx context.Context, caseID id.CaseID, actionID id.ActionID, response models.ActionResponse, actor id.ActorID) (*models.Case, error) {
	c, err := s.load(ctx, caseID)
	if err != nil {
		return nil, err
	}

	action := c.Action(actionID)
	if action == nil {
		return nil, dErrors.New(dErrors.CodeNotFound, "action not found on this case")
	}
	if action.Resolved() {
		return nil, dErrors.New(dErrors.CodeStateConflict, "action is already resolved")
	}
	if !s.authz.IsApplicant(ctx, actor, c) {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "only the case's applicant may respond")
	}

	// The kind branch mutates the loaded copy only. Nothing is persisted
	// until the branch succeeds, so a failed response leaves the action
	// pending and the stored case untouched.
	var booked *id.AppointmentID
	switch action.Kind {
	case models.ActionUploadDocument:
		err = s.applyDocuments(ctx, c, response.DocumentRefs)
	case models.ActionCompleteInfo:
		err = s.applyFields(c, response.Fields)
	case models.ActionScheduleAppointment:
		booked, err = s.applyBooking(ctx, c, response.SlotID)
	case models.ActionMakePayment:
		err = s.applyPayment(ctx, response.PaymentToken)
	case models.ActionConfirmInfo:
		if !response.Confirmed {
			err = dErrors.New(dErrors.CodeValidation, "explicit confirmation is required")
		}
	default:
		err = dErrors.Newf(dErrors.CodeInternal, "unhandled action kind %s", action.Kind)
	}
	if err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	action.CompletedAt = &now
	action.AppointmentID = booked
	c.Status = action.ResumeStatus
	c.UpdatedAt = now

	updated, err := s.save(ctx, c)
	if err != nil {
		if booked != nil {
			// The booking landed but the case write lost; release the seat
			// so the applicant can respond again against fresh state.
			if _, cancelErr := s.allocator.Cancel(ctx, *booked); cancelErr != nil {
				s.logger.ErrorContext(ctx, "failed to release booking after lost case write",
					"case_id", c.ID, "appointment_id", booked, "error", cancelErr)
			}
		}
		return nil, err
	}

	s.emit(ctx, events.Event{
		CaseID: updated.ID,
		Kind:   events.KindActionResolved,
		Payload: map[string]string{
			"action_id":   action.ID.String(),
			"action_kind": string(action.Kind),
		},
	})
	if s.metrics != nil {
		s.metrics.IncrementResolved(string(action.Kind))
	}
	s.logger.InfoContext(ctx, "action resolved",
		"case_id", updated.ID, "action_id", action.ID, "action_kind", action.Kind,
		"resumed_status", updated.Status)
	return updated, nil
}

func (s *Service) applyDocuments(ctx context.Context, c *models.Case, refs []models.DocumentRef) error {
	if len(refs) == 0 {
		return dErrors.New(dErrors.CodeValidation, "at least one document reference is required")
	}
	for _, ref := range refs {
		if _, err := s.docs.Get(ctx, ref); err != nil {
			return dErrors.Newf(dErrors.CodeValidation, "unknown document reference %q", ref)
		}
	}
	c.Documents = append(c.Documents, refs...)
	return nil
}

func (s *Service) applyFields(c *models.Case, fields map[string]any) error {
	if len(fields) == 0 {
		return dErrors.New(dErrors.CodeValidation, "at least one field value is required")
	}
	update, err := profile.UpdateFromPaths(fields)
	if err != nil {
		return err
	}
	def, err := s.registry.Lookup(c.ServiceID)
	if err != nil {
		return err
	}
	merged, err := profile.Merge(c.Profile, update, def.Schema)
	if err != nil {
		return err
	}
	c.Profile = merged
	return nil
}

func (s *Service) applyBooking(ctx context.Context, c *models.Case, slotID id.SlotID) (*id.AppointmentID, error) {
	if slotID.IsZero() {
		return nil, dErrors.New(dErrors.CodeValidation, "slot ID is required")
	}
	appt, err := s.allocator.Book(ctx, slotID, c.ID, c.ApplicantID)
	if err != nil {
		// A full slot propagates to the applicant for a different choice;
		// the action stays pending either way.
		return nil, err
	}
	return &appt.ID, nil
}

func (s *Service) applyPayment(ctx context.Context, token string) error {
	if token == "" {
		return dErrors.New(dErrors.CodeValidation, "payment confirmation token is required")
	}
	if err := s.payments.Verify(ctx, token); err != nil {
		if dErrors.CodeOf(err) != dErrors.CodeInternal {
			return err
		}
		return dErrors.Wrap(err, dErrors.CodeValidation, "payment confirmation rejected")
	}
	return nil
}

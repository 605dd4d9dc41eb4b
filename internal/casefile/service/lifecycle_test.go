package service

import (
	"attache/internal/casefile/models"
	"attache/internal/profile"
	id "attache/pkg/domain"
	dErrors "attache/pkg/domain-errors"
	"attache/pkg/platform/events"
)

func (s *CaseServiceSuite) TestCreateDraft() {
	s.Run("creates draft with reference and zero version", func() {
		c := s.newDraft()
		s.Equal(models.StatusDraft, c.Status)
		s.Regexp(`^CS-[0-9A-F]{8}$`, c.Reference)
		s.Equal(int64(0), c.Version)
		s.Equal(models.PriorityNormal, c.Priority)
	})

	s.Run("rejects unknown service", func() {
		_, err := s.service.CreateDraft(s.ctx, CreateDraftParams{
			OrgID:       s.orgID,
			ServiceID:   id.ServiceID{},
			ApplicantID: s.applicant,
		})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("rejects missing applicant", func() {
		_, err := s.service.CreateDraft(s.ctx, CreateDraftParams{
			OrgID:     s.orgID,
			ServiceID: s.serviceID,
		})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func (s *CaseServiceSuite) TestSubmit() {
	s.Run("submits a complete draft", func() {
		c := s.newDraft()
		submitted, err := s.service.Submit(s.ctx, c.ID)
		s.Require().NoError(err)
		s.Equal(models.StatusSubmitted, submitted.Status)
		s.Require().NotNil(submitted.SubmittedAt)
		s.Equal(s.now, *submitted.SubmittedAt)
		s.Equal(events.KindCaseSubmitted, s.lastEventKind())
	})

	s.Run("rejects draft with missing required sections", func() {
		c, err := s.service.CreateDraft(s.ctx, CreateDraftParams{
			OrgID:       s.orgID,
			ServiceID:   s.serviceID,
			ApplicantID: s.applicant,
			Profile:     profile.Snapshot{"contacts": {"email": "ama@example.ga"}},
		})
		s.Require().NoError(err)

		_, err = s.service.Submit(s.ctx, c.ID)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))

		// The rejected submission left the case in draft.
		current, err := s.service.Get(s.ctx, c.ID)
		s.Require().NoError(err)
		s.Equal(models.StatusDraft, current.Status)
		s.Nil(current.SubmittedAt)
	})

	s.Run("rejects double submission", func() {
		c := s.caseAt(models.StatusSubmitted)
		_, err := s.service.Submit(s.ctx, c.ID)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeStateConflict))
	})
}

func (s *CaseServiceSuite) TestTransitionWalksMainFlow() {
	c := s.caseAt(models.StatusSubmitted)

	c, err := s.service.Transition(s.ctx, c.ID, models.StatusUnderReview, s.staff)
	s.Require().NoError(err)
	s.Equal(models.StatusUnderReview, c.Status)
	s.Require().NotNil(c.AssignedAt)

	for _, next := range []models.Status{
		models.StatusInProduction, models.StatusValidated,
		models.StatusReadyForPickup, models.StatusCompleted,
	} {
		c, err = s.service.Transition(s.ctx, c.ID, next, s.staff)
		s.Require().NoError(err)
		s.Equal(next, c.Status)
	}
	s.Require().NotNil(c.CompletedAt)
}

func (s *CaseServiceSuite) TestIllegalTransitionLeavesCaseUnchanged() {
	c := s.caseAt(models.StatusSubmitted)
	before, err := s.service.Get(s.ctx, c.ID)
	s.Require().NoError(err)

	// Skipping review is not an edge in the table.
	_, err = s.service.Transition(s.ctx, c.ID, models.StatusValidated, s.staff)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeStateConflict))

	after, err := s.service.Get(s.ctx, c.ID)
	s.Require().NoError(err)
	s.Equal(before, after)
}

func (s *CaseServiceSuite) TestTransitionGuards() {
	s.Run("draft cannot be moved via transition", func() {
		c := s.newDraft()
		_, err := s.service.Transition(s.ctx, c.ID, models.StatusSubmitted, s.staff)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeStateConflict))
	})

	s.Run("unauthorized actor is rejected without mutation", func() {
		c := s.caseAt(models.StatusSubmitted)
		s.authz.denyTransition = true
		defer func() { s.authz.denyTransition = false }()

		_, err := s.service.Transition(s.ctx, c.ID, models.StatusUnderReview, s.staff)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))

		current, err := s.service.Get(s.ctx, c.ID)
		s.Require().NoError(err)
		s.Equal(models.StatusSubmitted, current.Status)
	})

	s.Run("unknown case", func() {
		_, err := s.service.Transition(s.ctx, id.NewCaseID(), models.StatusUnderReview, s.staff)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *CaseServiceSuite) TestUnresolvedActionBlocksForwardTransitions() {
	c := s.caseAt(models.StatusUnderReview)

	c, err := s.service.Issue(s.ctx, c.ID, IssueParams{
		Kind:     models.ActionConfirmInfo,
		Message:  "please confirm your delivery address",
		Metadata: models.ConfirmInfoMetadata{Text: "Deliver to the consulate front desk."},
	}, s.staff)
	s.Require().NoError(err)
	s.Equal(models.StatusAwaitingApplicant, c.Status)

	// No sequence of transitions can move the case forward while the
	// action is pending.
	for _, target := range []models.Status{
		models.StatusInProduction, models.StatusValidated,
		models.StatusReadyForPickup, models.StatusCompleted, models.StatusUnderReview,
	} {
		_, err := s.service.Transition(s.ctx, c.ID, target, s.staff)
		s.Require().Error(err, "transition to %s must be blocked", target)
		s.True(dErrors.HasCode(err, dErrors.CodeStateConflict))
	}

	action := c.UnresolvedAction()
	s.Require().NotNil(action)
	c, err = s.service.Respond(s.ctx, c.ID, action.ID, models.ActionResponse{Confirmed: true}, id.ActorID(s.applicant))
	s.Require().NoError(err)
	s.Equal(models.StatusUnderReview, c.Status)

	// Resolution unblocks the main flow.
	c, err = s.service.Transition(s.ctx, c.ID, models.StatusInProduction, s.staff)
	s.Require().NoError(err)
	s.Equal(models.StatusInProduction, c.Status)
}

func (s *CaseServiceSuite) TestCancelAndReject() {
	s.Run("cancel is terminal and idempotent", func() {
		c := s.caseAt(models.StatusUnderReview)

		cancelled, err := s.service.Cancel(s.ctx, c.ID, "applicant withdrew", s.staff)
		s.Require().NoError(err)
		s.Equal(models.StatusCancelled, cancelled.Status)

		again, err := s.service.Cancel(s.ctx, c.ID, "applicant withdrew", s.staff)
		s.Require().NoError(err)
		s.Equal(models.StatusCancelled, again.Status)
		s.Equal(cancelled.Version, again.Version)
	})

	s.Run("repeated cancel still requires authorization", func() {
		c := s.caseAt(models.StatusUnderReview)
		_, err := s.service.Cancel(s.ctx, c.ID, "withdrawn", s.staff)
		s.Require().NoError(err)

		s.authz.denyTransition = true
		defer func() { s.authz.denyTransition = false }()

		// The idempotent no-op must not mask the authorization failure.
		_, err = s.service.Cancel(s.ctx, c.ID, "withdrawn", s.staff)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("reject from a different terminal status conflicts", func() {
		c := s.caseAt(models.StatusUnderReview)
		_, err := s.service.Cancel(s.ctx, c.ID, "withdrawn", s.staff)
		s.Require().NoError(err)

		_, err = s.service.Reject(s.ctx, c.ID, "incomplete", s.staff)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeStateConflict))
	})

	s.Run("completed cases cannot be cancelled", func() {
		c := s.caseAt(models.StatusCompleted)
		_, err := s.service.Cancel(s.ctx, c.ID, "too late", s.staff)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeStateConflict))
	})

	s.Run("cancelling an awaiting case closes the pending action", func() {
		c := s.caseAt(models.StatusUnderReview)
		c, err := s.service.Issue(s.ctx, c.ID, IssueParams{
			Kind:     models.ActionConfirmInfo,
			Message:  "please confirm",
			Metadata: models.ConfirmInfoMetadata{Text: "terms"},
		}, s.staff)
		s.Require().NoError(err)

		cancelled, err := s.service.Cancel(s.ctx, c.ID, "withdrawn", s.staff)
		s.Require().NoError(err)
		s.Nil(cancelled.UnresolvedAction())
	})
}

func (s *CaseServiceSuite) TestConcurrentModification() {
	c := s.caseAt(models.StatusSubmitted)

	// Two actors load the same version; the second write loses.
	first, err := s.service.Get(s.ctx, c.ID)
	s.Require().NoError(err)
	second, err := s.service.Get(s.ctx, c.ID)
	s.Require().NoError(err)

	first.Status = models.StatusUnderReview
	_, err = s.store.Update(s.ctx, first)
	s.Require().NoError(err)

	second.Status = models.StatusUnderReview
	_, err = s.store.Update(s.ctx, second)
	s.Require().Error(err)

	// Through the service the same race surfaces as a coded error.
	stale := c.Clone()
	stale.Status = models.StatusUnderReview
	_, err = s.service.save(s.ctx, stale)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeConcurrentModification))
}

func (s *CaseServiceSuite) TestListLookups() {
	s.caseAt(models.StatusSubmitted)
	s.caseAt(models.StatusSubmitted)
	s.newDraft()

	byStatus, err := s.service.ListByOrgStatus(s.ctx, s.orgID, models.StatusSubmitted)
	s.Require().NoError(err)
	s.Len(byStatus, 2)

	byApplicant, err := s.service.ListByApplicant(s.ctx, s.applicant)
	s.Require().NoError(err)
	s.Len(byApplicant, 3)
}

package service

import (
	"attache/internal/casefile/models"
	"attache/internal/profile"
	id "attache/pkg/domain"
	dErrors "attache/pkg/domain-errors"
	"attache/pkg/platform/events"
)

func (s *CaseServiceSuite) issueConfirm(caseID id.CaseID) *models.Case {
	c, err := s.service.Issue(s.ctx, caseID, IssueParams{
		Kind:     models.ActionConfirmInfo,
		Message:  "please confirm the printed name",
		Metadata: models.ConfirmInfoMetadata{Text: "Name as printed: Ama Ondo"},
	}, s.staff)
	s.Require().NoError(err)
	return c
}

func (s *CaseServiceSuite) TestIssueGuards() {
	s.Run("records resume status and pauses the case", func() {
		c := s.caseAt(models.StatusUnderReview)
		c = s.issueConfirm(c.ID)

		s.Equal(models.StatusAwaitingApplicant, c.Status)
		action := c.UnresolvedAction()
		s.Require().NotNil(action)
		s.Equal(models.StatusUnderReview, action.ResumeStatus)
		s.Equal(events.KindActionIssued, s.lastEventKind())
	})

	s.Run("rejects a second outstanding action", func() {
		c := s.caseAt(models.StatusUnderReview)
		s.issueConfirm(c.ID)

		_, err := s.service.Issue(s.ctx, c.ID, IssueParams{
			Kind:     models.ActionConfirmInfo,
			Message:  "one more thing",
			Metadata: models.ConfirmInfoMetadata{Text: "terms"},
		}, s.staff)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeStateConflict))
	})

	s.Run("rejects issue on a draft", func() {
		c := s.newDraft()
		_, err := s.service.Issue(s.ctx, c.ID, IssueParams{
			Kind:     models.ActionConfirmInfo,
			Message:  "confirm",
			Metadata: models.ConfirmInfoMetadata{Text: "terms"},
		}, s.staff)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeStateConflict))
	})

	s.Run("rejects issue on a terminal case", func() {
		c := s.caseAt(models.StatusUnderReview)
		_, err := s.service.Cancel(s.ctx, c.ID, "withdrawn", s.staff)
		s.Require().NoError(err)

		_, err = s.service.Issue(s.ctx, c.ID, IssueParams{
			Kind:     models.ActionConfirmInfo,
			Message:  "confirm",
			Metadata: models.ConfirmInfoMetadata{Text: "terms"},
		}, s.staff)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeStateConflict))
	})

	s.Run("rejects metadata that disagrees with the kind", func() {
		c := s.caseAt(models.StatusUnderReview)
		_, err := s.service.Issue(s.ctx, c.ID, IssueParams{
			Kind:     models.ActionMakePayment,
			Message:  "pay the fee",
			Metadata: models.ConfirmInfoMetadata{Text: "terms"},
		}, s.staff)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func (s *CaseServiceSuite) TestRespondGuards() {
	c := s.caseAt(models.StatusUnderReview)
	c = s.issueConfirm(c.ID)
	actionID := c.UnresolvedAction().ID

	s.Run("unknown action ID", func() {
		_, err := s.service.Respond(s.ctx, c.ID, id.NewActionID(), models.ActionResponse{Confirmed: true}, id.ActorID(s.applicant))
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("only the applicant may respond", func() {
		_, err := s.service.Respond(s.ctx, c.ID, actionID, models.ActionResponse{Confirmed: true}, s.staff)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("second response conflicts and has no side effects", func() {
		resolved, err := s.service.Respond(s.ctx, c.ID, actionID, models.ActionResponse{Confirmed: true}, id.ActorID(s.applicant))
		s.Require().NoError(err)
		s.Equal(models.StatusUnderReview, resolved.Status)

		_, err = s.service.Respond(s.ctx, c.ID, actionID, models.ActionResponse{Confirmed: true}, id.ActorID(s.applicant))
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeStateConflict))

		current, err := s.service.Get(s.ctx, c.ID)
		s.Require().NoError(err)
		s.Equal(resolved.Version, current.Version)
	})
}

func (s *CaseServiceSuite) TestRespondConfirmInfo() {
	c := s.caseAt(models.StatusUnderReview)
	c = s.issueConfirm(c.ID)
	actionID := c.UnresolvedAction().ID

	s.Run("false keeps the action pending", func() {
		_, err := s.service.Respond(s.ctx, c.ID, actionID, models.ActionResponse{Confirmed: false}, id.ActorID(s.applicant))
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))

		current, err := s.service.Get(s.ctx, c.ID)
		s.Require().NoError(err)
		s.Equal(models.StatusAwaitingApplicant, current.Status)
		s.NotNil(current.UnresolvedAction())
	})

	s.Run("true resolves", func() {
		resolved, err := s.service.Respond(s.ctx, c.ID, actionID, models.ActionResponse{Confirmed: true}, id.ActorID(s.applicant))
		s.Require().NoError(err)
		s.Equal(models.StatusUnderReview, resolved.Status)
		s.Nil(resolved.UnresolvedAction())
	})
}

func (s *CaseServiceSuite) TestRespondCompleteInfoRoundTrip() {
	c := s.caseAt(models.StatusUnderReview)

	c, err := s.service.Issue(s.ctx, c.ID, IssueParams{
		Kind:    models.ActionCompleteInfo,
		Message: "we need your place of birth",
		Metadata: models.CompleteInfoMetadata{Fields: []profile.Descriptor{
			{Path: "identity.birthPlace", Type: profile.FieldTypeText},
		}},
	}, s.staff)
	s.Require().NoError(err)
	s.Equal(models.StatusAwaitingApplicant, c.Status)
	actionID := c.UnresolvedAction().ID

	resolved, err := s.service.Respond(s.ctx, c.ID, actionID, models.ActionResponse{
		Fields: map[string]any{"identity.birthPlace": "Libreville"},
	}, id.ActorID(s.applicant))
	s.Require().NoError(err)

	// Only the named leaf changed; siblings survive.
	s.Equal(models.StatusUnderReview, resolved.Status)
	s.Equal("Libreville", resolved.Profile["identity"]["birthPlace"])
	s.Equal("Ama", resolved.Profile["identity"]["firstName"])
	s.Require().NotNil(resolved.Action(actionID).CompletedAt)
	s.Equal(events.KindActionResolved, s.lastEventKind())
}

func (s *CaseServiceSuite) TestRespondCompleteInfoRejectsUndeclaredPath() {
	c := s.caseAt(models.StatusUnderReview)
	c, err := s.service.Issue(s.ctx, c.ID, IssueParams{
		Kind:    models.ActionCompleteInfo,
		Message: "more info",
		Metadata: models.CompleteInfoMetadata{Fields: []profile.Descriptor{
			{Path: "identity.birthPlace", Type: profile.FieldTypeText},
		}},
	}, s.staff)
	s.Require().NoError(err)
	actionID := c.UnresolvedAction().ID

	_, err = s.service.Respond(s.ctx, c.ID, actionID, models.ActionResponse{
		Fields: map[string]any{"identity.shoeSize": 42},
	}, id.ActorID(s.applicant))
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))

	current, err := s.service.Get(s.ctx, c.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusAwaitingApplicant, current.Status)
	s.NotContains(current.Profile["identity"], "shoeSize")
}

func (s *CaseServiceSuite) TestRespondUploadDocument() {
	c := s.caseAt(models.StatusUnderReview)
	c, err := s.service.Issue(s.ctx, c.ID, IssueParams{
		Kind:     models.ActionUploadDocument,
		Message:  "we need your passport scan",
		Metadata: models.UploadDocumentMetadata{DocumentTypes: []string{"passport"}},
	}, s.staff)
	s.Require().NoError(err)
	actionID := c.UnresolvedAction().ID

	s.Run("unknown reference is rejected", func() {
		_, err := s.service.Respond(s.ctx, c.ID, actionID, models.ActionResponse{
			DocumentRefs: []models.DocumentRef{"doc-never-uploaded"},
		}, id.ActorID(s.applicant))
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("valid references are appended", func() {
		resolved, err := s.service.Respond(s.ctx, c.ID, actionID, models.ActionResponse{
			DocumentRefs: []models.DocumentRef{"doc-passport-scan", "doc-birth-certificate"},
		}, id.ActorID(s.applicant))
		s.Require().NoError(err)
		s.Equal(models.StatusUnderReview, resolved.Status)
		s.Equal([]models.DocumentRef{"doc-passport-scan", "doc-birth-certificate"}, resolved.Documents)
	})
}

func (s *CaseServiceSuite) TestRespondMakePayment() {
	issuePayment := func() (*models.Case, id.ActionID) {
		c := s.caseAt(models.StatusUnderReview)
		c, err := s.service.Issue(s.ctx, c.ID, IssueParams{
			Kind:     models.ActionMakePayment,
			Message:  "consular fee due",
			Metadata: models.MakePaymentMetadata{AmountCents: 7500, Currency: "XAF"},
		}, s.staff)
		s.Require().NoError(err)
		return c, c.UnresolvedAction().ID
	}

	s.Run("declined token keeps the action pending", func() {
		c, actionID := issuePayment()
		_, err := s.service.Respond(s.ctx, c.ID, actionID, models.ActionResponse{
			PaymentToken: "tok-declined",
		}, id.ActorID(s.applicant))
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))

		current, err := s.service.Get(s.ctx, c.ID)
		s.Require().NoError(err)
		s.Equal(models.StatusAwaitingApplicant, current.Status)
	})

	s.Run("verified token resolves", func() {
		c, actionID := issuePayment()
		resolved, err := s.service.Respond(s.ctx, c.ID, actionID, models.ActionResponse{
			PaymentToken: "tok-ok",
		}, id.ActorID(s.applicant))
		s.Require().NoError(err)
		s.Equal(models.StatusUnderReview, resolved.Status)
	})
}

func (s *CaseServiceSuite) TestRespondScheduleAppointment() {
	issueScheduling := func() (*models.Case, id.ActionID) {
		c := s.caseAt(models.StatusInProduction)
		c, err := s.service.Issue(s.ctx, c.ID, IssueParams{
			Kind:     models.ActionScheduleAppointment,
			Message:  "book your biometrics appointment",
			Metadata: models.ScheduleAppointmentMetadata{From: s.now, To: s.now.AddDate(0, 2, 0)},
		}, s.staff)
		s.Require().NoError(err)
		return c, c.UnresolvedAction().ID
	}

	s.Run("books the slot and records the appointment", func() {
		slotID := s.newSlot(2)
		c, actionID := issueScheduling()

		resolved, err := s.service.Respond(s.ctx, c.ID, actionID, models.ActionResponse{
			SlotID: slotID,
		}, id.ActorID(s.applicant))
		s.Require().NoError(err)
		s.Equal(models.StatusInProduction, resolved.Status)

		action := resolved.Action(actionID)
		s.Require().NotNil(action.AppointmentID)

		appt, err := s.allocator.GetAppointment(s.ctx, *action.AppointmentID)
		s.Require().NoError(err)
		s.Equal(resolved.ID, appt.CaseID)
	})

	s.Run("full slot propagates and keeps the action pending", func() {
		slotID := s.newSlot(1)
		_, err := s.allocator.Book(s.ctx, slotID, id.NewCaseID(), s.applicant)
		s.Require().NoError(err)

		c, actionID := issueScheduling()
		_, err = s.service.Respond(s.ctx, c.ID, actionID, models.ActionResponse{
			SlotID: slotID,
		}, id.ActorID(s.applicant))
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeCapacityExceeded))

		current, err := s.service.Get(s.ctx, c.ID)
		s.Require().NoError(err)
		s.Equal(models.StatusAwaitingApplicant, current.Status)
		s.Nil(current.Action(actionID).CompletedAt)
	})
}

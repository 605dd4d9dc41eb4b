package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"attache/internal/casefile/models"
	"attache/internal/casefile/store"
	"attache/internal/profile"
	schedmodels "attache/internal/scheduling/models"
	schedservice "attache/internal/scheduling/service"
	schedstore "attache/internal/scheduling/store"
	id "attache/pkg/domain"
	"attache/pkg/platform/events"
	"attache/pkg/requestcontext"
)

// fakeAuthz allows everything unless told otherwise. IsApplicant compares
// the actor against the case's applicant like the real implementation.
type fakeAuthz struct {
	denyTransition bool
	denyApplicant  bool
}

func (f *fakeAuthz) CanTransition(context.Context, id.ActorID, *models.Case, models.Status, models.Status) bool {
	return !f.denyTransition
}

func (f *fakeAuthz) IsApplicant(_ context.Context, actor id.ActorID, c *models.Case) bool {
	if f.denyApplicant {
		return false
	}
	return uuid.UUID(actor) == uuid.UUID(c.ApplicantID)
}

// fakeDocStore knows only the refs seeded into it.
type fakeDocStore struct {
	known map[models.DocumentRef]DocumentMeta
}

func newFakeDocStore(refs ...models.DocumentRef) *fakeDocStore {
	known := make(map[models.DocumentRef]DocumentMeta, len(refs))
	for _, ref := range refs {
		known[ref] = DocumentMeta{Ref: ref, FileName: string(ref) + ".pdf", ContentType: "application/pdf"}
	}
	return &fakeDocStore{known: known}
}

func (f *fakeDocStore) Get(_ context.Context, ref models.DocumentRef) (DocumentMeta, error) {
	meta, ok := f.known[ref]
	if !ok {
		return DocumentMeta{}, errors.New("document not found")
	}
	return meta, nil
}

// fakePayments accepts every token except the one marked bad.
type fakePayments struct {
	badToken string
}

func (f *fakePayments) Verify(_ context.Context, token string) error {
	if token == f.badToken {
		return errors.New("payment declined")
	}
	return nil
}

type CaseServiceSuite struct {
	suite.Suite
	service   *Service
	store     *store.InMemory
	schedules *schedstore.InMemory
	allocator *schedservice.Allocator
	authz     *fakeAuthz
	docs      *fakeDocStore
	payments  *fakePayments
	sink      *events.MemorySink

	ctx       context.Context
	now       time.Time
	orgID     id.OrgID
	serviceID id.ServiceID
	applicant id.ApplicantID
	staff     id.ActorID
}

func (s *CaseServiceSuite) SetupTest() {
	s.store = store.NewInMemory()
	s.schedules = schedstore.NewInMemory()
	s.allocator = schedservice.NewAllocator(s.schedules)
	s.authz = &fakeAuthz{}
	s.docs = newFakeDocStore("doc-passport-scan", "doc-birth-certificate")
	s.payments = &fakePayments{badToken: "tok-declined"}
	s.sink = events.NewMemorySink()

	s.orgID = id.OrgID(uuid.New())
	s.serviceID = id.ServiceID(uuid.New())
	s.applicant = id.ApplicantID(uuid.New())
	s.staff = id.ActorID(uuid.New())

	registry := profile.NewRegistry(profile.Definition{
		ServiceID:        s.serviceID,
		Name:             "passport renewal",
		RequiredSections: []string{"identity"},
		Schema: profile.Schema{
			"identity": {
				"firstName":  {Type: profile.FieldTypeText},
				"lastName":   {Type: profile.FieldTypeText},
				"birthPlace": {Type: profile.FieldTypeText},
			},
			"contacts": {
				"email": {Type: profile.FieldTypeText},
				"phone": {Type: profile.FieldTypeText},
			},
		},
	})

	s.service = New(s.store, registry, s.authz, s.docs, s.payments, s.allocator,
		WithEvents(events.NewPublisher(s.sink)),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)

	s.now = time.Date(2026, time.September, 1, 9, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)
}

func TestCaseServiceSuite(t *testing.T) {
	suite.Run(t, new(CaseServiceSuite))
}

// newDraft creates a draft with enough profile data to pass submission.
func (s *CaseServiceSuite) newDraft() *models.Case {
	c, err := s.service.CreateDraft(s.ctx, CreateDraftParams{
		OrgID:       s.orgID,
		ServiceID:   s.serviceID,
		ApplicantID: s.applicant,
		Profile:     profile.Snapshot{"identity": {"firstName": "Ama", "lastName": "Ondo"}},
	})
	s.Require().NoError(err)
	return c
}

// caseAt drives a fresh case to the given status through the public surface.
func (s *CaseServiceSuite) caseAt(status models.Status) *models.Case {
	c := s.newDraft()
	if status == models.StatusDraft {
		return c
	}

	c, err := s.service.Submit(s.ctx, c.ID)
	s.Require().NoError(err)

	path := []models.Status{
		models.StatusUnderReview, models.StatusInProduction, models.StatusValidated,
		models.StatusReadyForPickup, models.StatusCompleted,
	}
	for _, next := range path {
		if c.Status == status {
			return c
		}
		c, err = s.service.Transition(s.ctx, c.ID, next, s.staff)
		s.Require().NoError(err)
	}
	s.Require().Equal(status, c.Status, "cannot drive case to %s", status)
	return c
}

// newSlot seeds a bookable slot in the scheduling store.
func (s *CaseServiceSuite) newSlot(capacity int) id.SlotID {
	day := time.Date(2026, time.October, 5, 0, 0, 0, 0, time.UTC)
	slot, err := s.allocator.CreateSlot(s.ctx, &schedmodels.AppointmentSlot{
		OrgID:     s.orgID,
		Date:      day,
		StartTime: day.Add(9 * time.Hour),
		EndTime:   day.Add(10 * time.Hour),
		Capacity:  capacity,
	})
	s.Require().NoError(err)
	return slot.ID
}

func (s *CaseServiceSuite) lastEventKind() events.Kind {
	all := s.sink.All()
	s.Require().NotEmpty(all)
	return all[len(all)-1].Kind
}

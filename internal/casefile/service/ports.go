package service

import (
	"context"

	"attache/internal/casefile/models"
	schedmodels "attache/internal/scheduling/models"
	id "attache/pkg/domain"
)

// Authorization answers permission questions. Role material travels in the
// request context; implementations read it from there.
type Authorization interface {
	// CanTransition reports whether the actor may move the case along the
	// given edge.
	CanTransition(ctx context.Context, actor id.ActorID, c *models.Case, from, to models.Status) bool
	// IsApplicant reports whether the actor is the case's applicant.
	IsApplicant(ctx context.Context, actor id.ActorID, c *models.Case) bool
}

// DocumentMeta describes a stored document. The core never sees file bytes.
type DocumentMeta struct {
	Ref         models.DocumentRef
	FileName    string
	ContentType string
	SizeBytes   int64
}

// DocumentStore resolves document references created by the external upload
// path. Get fails for references that were never stored.
type DocumentStore interface {
	Get(ctx context.Context, ref models.DocumentRef) (DocumentMeta, error)
}

// PaymentVerifier checks a payment confirmation token. A nil error means the
// payment is confirmed.
type PaymentVerifier interface {
	Verify(ctx context.Context, token string) error
}

// Allocator is the slice of the scheduling module the coordinator needs for
// schedule_appointment actions.
type Allocator interface {
	Book(ctx context.Context, slotID id.SlotID, caseID id.CaseID, applicantID id.ApplicantID) (*schedmodels.Appointment, error)
	Cancel(ctx context.Context, appointmentID id.AppointmentID) (*schedmodels.Appointment, error)
}

// Package events carries notification events out of the core.
//
// The core does not deliver email/SMS/push itself; on every successful
// transition, issue, respond, book, and cancel it emits an Event that an
// external dispatcher turns into messages. Keep the Event transport-agnostic
// so sinks can fan out.
package events

import (
	"time"

	id "attache/pkg/domain"
)

// Kind names the domain fact an event records.
type Kind string

const (
	KindCaseSubmitted        Kind = "case_submitted"
	KindCaseTransitioned     Kind = "case_transitioned"
	KindCaseCancelled        Kind = "case_cancelled"
	KindCaseRejected         Kind = "case_rejected"
	KindActionIssued         Kind = "action_issued"
	KindActionResolved       Kind = "action_resolved"
	KindAppointmentBooked    Kind = "appointment_booked"
	KindAppointmentCancelled Kind = "appointment_cancelled"
)

// Event is emitted from domain logic to capture key case activity.
type Event struct {
	Timestamp time.Time         `json:"timestamp"`
	CaseID    id.CaseID         `json:"case_id"`
	Kind      Kind              `json:"kind"`
	Payload   map[string]string `json:"payload,omitempty"`
}

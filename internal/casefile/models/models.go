// Package models defines the case record, its lifecycle statuses, and the
// action-required entries embedded in it.
package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"attache/internal/profile"
	id "attache/pkg/domain"
	dErrors "attache/pkg/domain-errors"
)

// Status is a case's position in the lifecycle. The set is closed and known
// at build time.
type Status string

const (
	StatusDraft             Status = "draft"
	StatusSubmitted         Status = "submitted"
	StatusUnderReview       Status = "under_review"
	StatusAwaitingApplicant Status = "awaiting_applicant"
	StatusInProduction      Status = "in_production"
	StatusValidated         Status = "validated"
	StatusReadyForPickup    Status = "ready_for_pickup"
	StatusCompleted         Status = "completed"
	StatusRejected          Status = "rejected"
	StatusCancelled         Status = "cancelled"
)

// forwardEdges is the main-flow transition table. Entering and leaving
// awaiting_applicant is owned by the action coordinator, and the terminal
// statuses are reachable through Cancel/Reject; neither appears here.
var forwardEdges = map[Status]Status{
	StatusDraft:          StatusSubmitted,
	StatusSubmitted:      StatusUnderReview,
	StatusUnderReview:    StatusInProduction,
	StatusInProduction:   StatusValidated,
	StatusValidated:      StatusReadyForPickup,
	StatusReadyForPickup: StatusCompleted,
}

// awaitable statuses may be paused into awaiting_applicant.
var awaitable = map[Status]bool{
	StatusSubmitted:    true,
	StatusUnderReview:  true,
	StatusInProduction: true,
}

// ParseStatus validates external status input.
func ParseStatus(s string) (Status, error) {
	switch st := Status(strings.TrimSpace(s)); st {
	case StatusDraft, StatusSubmitted, StatusUnderReview, StatusAwaitingApplicant,
		StatusInProduction, StatusValidated, StatusReadyForPickup,
		StatusCompleted, StatusRejected, StatusCancelled:
		return st, nil
	default:
		return "", dErrors.Newf(dErrors.CodeValidation, "unknown status %q", s)
	}
}

// IsTerminal reports whether no further transitions exist from this status.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusRejected || s == StatusCancelled
}

// CanAwait reports whether a case in this status may be paused for
// applicant input.
func (s Status) CanAwait() bool {
	return awaitable[s]
}

// HasEdge reports whether the main-flow table contains from → to.
func HasEdge(from, to Status) bool {
	return forwardEdges[from] == to
}

// Priority orders cases for staff queues. Advisory only: nothing in the core
// branches on it.
type Priority string

const (
	PriorityNormal Priority = "normal"
	PriorityUrgent Priority = "urgent"
)

// DocumentRef points at a document held by the external document store. The
// core never inspects file bytes.
type DocumentRef string

// Case is a single applicant's consular service request.
//
// Invariants: at most one ActionRequired entry is unresolved at any time,
// and Status is awaiting_applicant if and only if that entry exists. Version
// keys optimistic concurrency control on every mutation.
type Case struct {
	ID          id.CaseID
	Reference   string
	OrgID       id.OrgID
	ServiceID   id.ServiceID
	ApplicantID id.ApplicantID
	Status      Status
	Priority    Priority
	Profile     profile.Snapshot
	Documents   []DocumentRef
	Actions     []ActionRequired
	SubmittedAt *time.Time
	AssignedAt  *time.Time
	CompletedAt *time.Time
	Version     int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewReference derives the human-readable case reference from the case ID.
func NewReference(caseID id.CaseID) string {
	u := uuid.UUID(caseID)
	return fmt.Sprintf("CS-%08X", uint32(u[0])<<24|uint32(u[1])<<16|uint32(u[2])<<8|uint32(u[3]))
}

// UnresolvedAction returns the case's pending action, or nil.
func (c *Case) UnresolvedAction() *ActionRequired {
	for i := range c.Actions {
		if !c.Actions[i].Resolved() {
			return &c.Actions[i]
		}
	}
	return nil
}

// Action returns the action with the given ID, or nil.
func (c *Case) Action(actionID id.ActionID) *ActionRequired {
	for i := range c.Actions {
		if c.Actions[i].ID == actionID {
			return &c.Actions[i]
		}
	}
	return nil
}

// Clone returns a deep copy. Stores hand out clones so callers can never
// mutate persisted state in place.
func (c *Case) Clone() *Case {
	copied := *c
	if c.Profile != nil {
		copied.Profile = make(profile.Snapshot, len(c.Profile))
		for section, fields := range c.Profile {
			sectionCopy := make(map[string]any, len(fields))
			for field, value := range fields {
				sectionCopy[field] = value
			}
			copied.Profile[section] = sectionCopy
		}
	}
	copied.Documents = append([]DocumentRef(nil), c.Documents...)
	copied.Actions = append([]ActionRequired(nil), c.Actions...)
	return &copied
}

// ActionKind discriminates the action-required variants.
type ActionKind string

const (
	ActionUploadDocument      ActionKind = "upload_document"
	ActionCompleteInfo        ActionKind = "complete_info"
	ActionScheduleAppointment ActionKind = "schedule_appointment"
	ActionMakePayment         ActionKind = "make_payment"
	ActionConfirmInfo         ActionKind = "confirm_info"
)

// ParseActionKind validates external kind input.
func ParseActionKind(s string) (ActionKind, error) {
	switch k := ActionKind(strings.TrimSpace(s)); k {
	case ActionUploadDocument, ActionCompleteInfo, ActionScheduleAppointment,
		ActionMakePayment, ActionConfirmInfo:
		return k, nil
	default:
		return "", dErrors.Newf(dErrors.CodeValidation, "unknown action kind %q", s)
	}
}

// ActionMetadata is the kind-specific payload of an action. Exactly one
// concrete type exists per ActionKind; the discriminant never disagrees with
// the payload type.
type ActionMetadata interface {
	ActionKind() ActionKind
}

// UploadDocumentMetadata lists the document types the applicant must provide.
type UploadDocumentMetadata struct {
	DocumentTypes []string `json:"document_types"`
}

func (UploadDocumentMetadata) ActionKind() ActionKind { return ActionUploadDocument }

// CompleteInfoMetadata describes the profile fields the applicant must fill.
type CompleteInfoMetadata struct {
	Fields []profile.Descriptor `json:"fields"`
}

func (CompleteInfoMetadata) ActionKind() ActionKind { return ActionCompleteInfo }

// ScheduleAppointmentMetadata bounds the window the applicant should book in.
type ScheduleAppointmentMetadata struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

func (ScheduleAppointmentMetadata) ActionKind() ActionKind { return ActionScheduleAppointment }

// MakePaymentMetadata states the amount due.
type MakePaymentMetadata struct {
	AmountCents int64  `json:"amount_cents"`
	Currency    string `json:"currency"`
}

func (MakePaymentMetadata) ActionKind() ActionKind { return ActionMakePayment }

// ConfirmInfoMetadata carries the text the applicant must explicitly agree to.
type ConfirmInfoMetadata struct {
	Text string `json:"text"`
}

func (ConfirmInfoMetadata) ActionKind() ActionKind { return ActionConfirmInfo }

// ActionRequired is one outstanding request from staff to the applicant.
// Immutable once resolved; further requests need a new action.
//
// ResumeStatus records where the case was when the action was issued, so
// resolution restores the correct follow-up status. Deadline is advisory:
// the core never enforces it, expiry policy lives outside.
type ActionRequired struct {
	ID           id.ActionID
	Kind         ActionKind
	Message      string
	Metadata     ActionMetadata
	ResumeStatus Status
	Deadline     *time.Time
	// AppointmentID records the booking a schedule_appointment resolution
	// produced.
	AppointmentID *id.AppointmentID
	CreatedAt     time.Time
	CompletedAt   *time.Time
}

// Resolved reports whether the applicant has answered this action.
func (a *ActionRequired) Resolved() bool {
	return a.CompletedAt != nil
}

type actionEnvelope struct {
	ID            id.ActionID       `json:"id"`
	Kind          ActionKind        `json:"kind"`
	Message       string            `json:"message"`
	Metadata      json.RawMessage   `json:"metadata,omitempty"`
	ResumeStatus  Status            `json:"resume_status"`
	Deadline      *time.Time        `json:"deadline,omitempty"`
	AppointmentID *id.AppointmentID `json:"appointment_id,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
	CompletedAt   *time.Time        `json:"completed_at,omitempty"`
}

// MarshalJSON encodes the metadata union under its kind discriminant.
func (a ActionRequired) MarshalJSON() ([]byte, error) {
	env := actionEnvelope{
		ID:            a.ID,
		Kind:          a.Kind,
		Message:       a.Message,
		ResumeStatus:  a.ResumeStatus,
		Deadline:      a.Deadline,
		AppointmentID: a.AppointmentID,
		CreatedAt:     a.CreatedAt,
		CompletedAt:   a.CompletedAt,
	}
	if a.Metadata != nil {
		raw, err := json.Marshal(a.Metadata)
		if err != nil {
			return nil, err
		}
		env.Metadata = raw
	}
	return json.Marshal(env)
}

// UnmarshalJSON decodes the metadata union by kind.
func (a *ActionRequired) UnmarshalJSON(data []byte) error {
	var env actionEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return err
	}
	a.ID = env.ID
	a.Kind = env.Kind
	a.Message = env.Message
	a.ResumeStatus = env.ResumeStatus
	a.Deadline = env.Deadline
	a.AppointmentID = env.AppointmentID
	a.CreatedAt = env.CreatedAt
	a.CompletedAt = env.CompletedAt

	if len(env.Metadata) == 0 {
		a.Metadata = nil
		return nil
	}
	meta, err := decodeMetadata(env.Kind, env.Metadata)
	if err != nil {
		return err
	}
	a.Metadata = meta
	return nil
}

// DecodeMetadata parses kind-specific metadata from raw JSON, used both for
// persistence and for the issue endpoint's request body.
func DecodeMetadata(kind ActionKind, raw json.RawMessage) (ActionMetadata, error) {
	return decodeMetadata(kind, raw)
}

func decodeMetadata(kind ActionKind, raw json.RawMessage) (ActionMetadata, error) {
	switch kind {
	case ActionUploadDocument:
		var m UploadDocumentMetadata
		if err := json.Unmarshal(raw, &m); err != nil {
			return nil, err
		}
		return m, nil
	case ActionCompleteInfo:
		var m CompleteInfoMetadata
		if err := json.Unmarshal(raw, &m); err != nil {
			return nil, err
		}
		return m, nil
	case ActionScheduleAppointment:
		var m ScheduleAppointmentMetadata
		if err := json.Unmarshal(raw, &m); err != nil {
			return nil, err
		}
		return m, nil
	case ActionMakePayment:
		var m MakePaymentMetadata
		if err := json.Unmarshal(raw, &m); err != nil {
			return nil, err
		}
		return m, nil
	case ActionConfirmInfo:
		var m ConfirmInfoMetadata
		if err := json.Unmarshal(raw, &m); err != nil {
			return nil, err
		}
		return m, nil
	default:
		return nil, fmt.Errorf("unknown action kind %q", kind)
	}
}

// ActionResponse is the applicant's answer to an action. Exactly one group
// of fields is meaningful, selected by the action's kind.
type ActionResponse struct {
	DocumentRefs []DocumentRef  // upload_document
	Fields       map[string]any // complete_info, keyed by section.field path
	SlotID       id.SlotID      // schedule_appointment
	PaymentToken string         // make_payment
	Confirmed    bool           // confirm_info
}

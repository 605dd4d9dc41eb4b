// Package domain defines the typed identifiers shared across modules.
//
// Every entity gets its own UUID-backed type so a CaseID can never be passed
// where a SlotID is expected. Construct them from external input via the
// Parse* helpers, which validate the UUID form at the trust boundary.
package domain

import (
	"github.com/google/uuid"
)

type (
	// CaseID identifies a consular service case.
	CaseID uuid.UUID
	// ApplicantID identifies the person a case belongs to.
	ApplicantID uuid.UUID
	// ActorID identifies whoever performs an operation (staff or applicant).
	ActorID uuid.UUID
	// OrgID identifies the consular post processing cases and owning slots.
	OrgID uuid.UUID
	// ServiceID identifies the consular service a case requests.
	ServiceID uuid.UUID
	// ActionID identifies an action-required entry within a case.
	ActionID uuid.UUID
	// SlotID identifies a bookable appointment slot.
	SlotID uuid.UUID
	// AppointmentID identifies a booking against a slot.
	AppointmentID uuid.UUID
)

func (id CaseID) String() string        { return uuid.UUID(id).String() }
func (id ApplicantID) String() string   { return uuid.UUID(id).String() }
func (id ActorID) String() string       { return uuid.UUID(id).String() }
func (id OrgID) String() string         { return uuid.UUID(id).String() }
func (id ServiceID) String() string     { return uuid.UUID(id).String() }
func (id ActionID) String() string      { return uuid.UUID(id).String() }
func (id SlotID) String() string        { return uuid.UUID(id).String() }
func (id AppointmentID) String() string { return uuid.UUID(id).String() }

// MarshalText renders IDs as canonical UUID strings in JSON and text
// encodings; without it a wrapped uuid.UUID would encode as a byte array.
func (id CaseID) MarshalText() ([]byte, error)        { return []byte(id.String()), nil }
func (id ApplicantID) MarshalText() ([]byte, error)   { return []byte(id.String()), nil }
func (id ActorID) MarshalText() ([]byte, error)       { return []byte(id.String()), nil }
func (id OrgID) MarshalText() ([]byte, error)         { return []byte(id.String()), nil }
func (id ServiceID) MarshalText() ([]byte, error)     { return []byte(id.String()), nil }
func (id ActionID) MarshalText() ([]byte, error)      { return []byte(id.String()), nil }
func (id SlotID) MarshalText() ([]byte, error)        { return []byte(id.String()), nil }
func (id AppointmentID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

func (id *CaseID) UnmarshalText(b []byte) error {
	u, err := uuid.Parse(string(b))
	if err != nil {
		return err
	}
	*id = CaseID(u)
	return nil
}

func (id *ApplicantID) UnmarshalText(b []byte) error {
	u, err := uuid.Parse(string(b))
	if err != nil {
		return err
	}
	*id = ApplicantID(u)
	return nil
}

func (id *ActorID) UnmarshalText(b []byte) error {
	u, err := uuid.Parse(string(b))
	if err != nil {
		return err
	}
	*id = ActorID(u)
	return nil
}

func (id *OrgID) UnmarshalText(b []byte) error {
	u, err := uuid.Parse(string(b))
	if err != nil {
		return err
	}
	*id = OrgID(u)
	return nil
}

func (id *ServiceID) UnmarshalText(b []byte) error {
	u, err := uuid.Parse(string(b))
	if err != nil {
		return err
	}
	*id = ServiceID(u)
	return nil
}

func (id *ActionID) UnmarshalText(b []byte) error {
	u, err := uuid.Parse(string(b))
	if err != nil {
		return err
	}
	*id = ActionID(u)
	return nil
}

func (id *SlotID) UnmarshalText(b []byte) error {
	u, err := uuid.Parse(string(b))
	if err != nil {
		return err
	}
	*id = SlotID(u)
	return nil
}

func (id *AppointmentID) UnmarshalText(b []byte) error {
	u, err := uuid.Parse(string(b))
	if err != nil {
		return err
	}
	*id = AppointmentID(u)
	return nil
}

func (id CaseID) IsZero() bool        { return uuid.UUID(id) == uuid.Nil }
func (id ApplicantID) IsZero() bool   { return uuid.UUID(id) == uuid.Nil }
func (id ActorID) IsZero() bool       { return uuid.UUID(id) == uuid.Nil }
func (id OrgID) IsZero() bool         { return uuid.UUID(id) == uuid.Nil }
func (id ServiceID) IsZero() bool     { return uuid.UUID(id) == uuid.Nil }
func (id ActionID) IsZero() bool      { return uuid.UUID(id) == uuid.Nil }
func (id SlotID) IsZero() bool        { return uuid.UUID(id) == uuid.Nil }
func (id AppointmentID) IsZero() bool { return uuid.UUID(id) == uuid.Nil }

// NewCaseID returns a fresh random case identifier.
func NewCaseID() CaseID { return CaseID(uuid.New()) }

// NewActionID returns a fresh random action identifier.
func NewActionID() ActionID { return ActionID(uuid.New()) }

// NewSlotID returns a fresh random slot identifier.
func NewSlotID() SlotID { return SlotID(uuid.New()) }

// NewAppointmentID returns a fresh random appointment identifier.
func NewAppointmentID() AppointmentID { return AppointmentID(uuid.New()) }

// ParseCaseID constructs a CaseID from external input.
func ParseCaseID(s string) (CaseID, error) {
	u, err := uuid.Parse(s)
	return CaseID(u), err
}

// ParseApplicantID constructs an ApplicantID from external input.
func ParseApplicantID(s string) (ApplicantID, error) {
	u, err := uuid.Parse(s)
	return ApplicantID(u), err
}

// ParseActorID constructs an ActorID from external input.
func ParseActorID(s string) (ActorID, error) {
	u, err := uuid.Parse(s)
	return ActorID(u), err
}

// ParseOrgID constructs an OrgID from external input.
func ParseOrgID(s string) (OrgID, error) {
	u, err := uuid.Parse(s)
	return OrgID(u), err
}

// ParseServiceID constructs a ServiceID from external input.
func ParseServiceID(s string) (ServiceID, error) {
	u, err := uuid.Parse(s)
	return ServiceID(u), err
}

// ParseActionID constructs an ActionID from external input.
func ParseActionID(s string) (ActionID, error) {
	u, err := uuid.Parse(s)
	return ActionID(u), err
}

// ParseSlotID constructs a SlotID from external input.
func ParseSlotID(s string) (SlotID, error) {
	u, err := uuid.Parse(s)
	return SlotID(u), err
}

// ParseAppointmentID constructs an AppointmentID from external input.
func ParseAppointmentID(s string) (AppointmentID, error) {
	u, err := uuid.Parse(s)
	return AppointmentID(u), err
}

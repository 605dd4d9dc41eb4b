package models

import (
	"time"

	id "attache/pkg/domain"
)

// AppointmentStatus is the lifecycle of a booking. There is no pending state:
// a booking is either confirmed at commit time or it does not exist.
type AppointmentStatus string

const (
	AppointmentStatusConfirmed AppointmentStatus = "confirmed"
	AppointmentStatusCancelled AppointmentStatus = "cancelled"
)

// AppointmentSlot is a bookable unit of organizational capacity.
//
// Invariant: 0 <= BookedCount <= Capacity. BookedCount is mutated exclusively
// through the store's atomic Book/CancelAppointment operations; no other code
// path writes it.
type AppointmentSlot struct {
	ID          id.SlotID
	OrgID       id.OrgID
	Date        time.Time // calendar day, midnight UTC
	StartTime   time.Time
	EndTime     time.Time
	Capacity    int
	BookedCount int
	// Version keys the conditional update in SQL stores.
	Version   int64
	CreatedAt time.Time
}

// Remaining returns the number of free seats.
func (s *AppointmentSlot) Remaining() int {
	return s.Capacity - s.BookedCount
}

// Available reports whether at least one seat is free.
func (s *AppointmentSlot) Available() bool {
	return s.BookedCount < s.Capacity
}

// Appointment is one case's confirmed claim on one unit of a slot's capacity.
//
// Invariant: at most one confirmed appointment exists per case, enforced by
// the store at booking time.
type Appointment struct {
	ID          id.AppointmentID
	SlotID      id.SlotID
	CaseID      id.CaseID
	ApplicantID id.ApplicantID
	Status      AppointmentStatus
	CreatedAt   time.Time
	CancelledAt *time.Time
}

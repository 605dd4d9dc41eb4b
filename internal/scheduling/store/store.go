// Package store persists appointment slots and bookings.
//
// Both implementations guarantee the same atomicity contract for Book and
// CancelAppointment; the allocator service treats them interchangeably.
package store

import (
	"context"
	"time"

	"attache/internal/scheduling/models"
	id "attache/pkg/domain"
)

// Store is the persistence boundary for slots and appointments.
//
// Book is the concurrency-critical operation: the capacity check, the
// one-confirmed-appointment-per-case check, and the booked-count increment
// are evaluated as one atomic unit against concurrent callers.
//
// Sentinel errors:
//   - sentinel.ErrNotFound: unknown slot or appointment
//   - sentinel.ErrCapacityFull: no seats left at commit time
//   - sentinel.ErrConflict: case already holds a confirmed appointment
//   - sentinel.ErrVersionMismatch: conditional update lost a race (SQL store
//     only; callers may retry with fresh state)
type Store interface {
	CreateSlot(ctx context.Context, slot *models.AppointmentSlot) error
	GetSlot(ctx context.Context, slotID id.SlotID) (*models.AppointmentSlot, error)
	// ListSlots returns all slots for the organization within [from, to),
	// ordered by date then start time, regardless of remaining capacity.
	ListSlots(ctx context.Context, orgID id.OrgID, from, to time.Time) ([]*models.AppointmentSlot, error)

	Book(ctx context.Context, slotID id.SlotID, caseID id.CaseID, applicantID id.ApplicantID, at time.Time) (*models.Appointment, error)
	// CancelAppointment is idempotent: cancelling an already-cancelled
	// appointment returns it unchanged without touching the slot. The bool
	// reports whether this call released a seat.
	CancelAppointment(ctx context.Context, appointmentID id.AppointmentID, at time.Time) (*models.Appointment, bool, error)
	GetAppointment(ctx context.Context, appointmentID id.AppointmentID) (*models.Appointment, error)
	// FindConfirmedByCase returns the case's confirmed appointment, or
	// sentinel.ErrNotFound when none exists.
	FindConfirmedByCase(ctx context.Context, caseID id.CaseID) (*models.Appointment, error)
}

package store

import (
	"context"
	"slices"
	"sync"
	"time"

	"attache/internal/scheduling/models"
	id "attache/pkg/domain"
	"attache/pkg/platform/sentinel"
)

// InMemory implements Store with a single mutex. The mutex makes Book's
// check-and-increment a single critical section, so the capacity invariant
// holds under concurrent callers without version bookkeeping.
type InMemory struct {
	mu           sync.RWMutex
	slots        map[id.SlotID]*models.AppointmentSlot
	appointments map[id.AppointmentID]*models.Appointment
}

// NewInMemory creates an empty in-memory store.
func NewInMemory() *InMemory {
	return &InMemory{
		slots:        make(map[id.SlotID]*models.AppointmentSlot),
		appointments: make(map[id.AppointmentID]*models.Appointment),
	}
}

func (s *InMemory) CreateSlot(_ context.Context, slot *models.AppointmentSlot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.slots[slot.ID]; exists {
		return sentinel.ErrConflict
	}
	copied := *slot
	s.slots[slot.ID] = &copied
	return nil
}

func (s *InMemory) GetSlot(_ context.Context, slotID id.SlotID) (*models.AppointmentSlot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	slot, ok := s.slots[slotID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := *slot
	return &copied, nil
}

func (s *InMemory) ListSlots(_ context.Context, orgID id.OrgID, from, to time.Time) ([]*models.AppointmentSlot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.AppointmentSlot
	for _, slot := range s.slots {
		if slot.OrgID != orgID {
			continue
		}
		if slot.Date.Before(from) || !slot.Date.Before(to) {
			continue
		}
		copied := *slot
		out = append(out, &copied)
	}
	slices.SortFunc(out, func(a, b *models.AppointmentSlot) int {
		if c := a.Date.Compare(b.Date); c != 0 {
			return c
		}
		return a.StartTime.Compare(b.StartTime)
	})
	return out, nil
}

func (s *InMemory) Book(_ context.Context, slotID id.SlotID, caseID id.CaseID, applicantID id.ApplicantID, at time.Time) (*models.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	slot, ok := s.slots[slotID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if slot.BookedCount >= slot.Capacity {
		return nil, sentinel.ErrCapacityFull
	}
	for _, appt := range s.appointments {
		if appt.CaseID == caseID && appt.Status == models.AppointmentStatusConfirmed {
			return nil, sentinel.ErrConflict
		}
	}

	slot.BookedCount++
	slot.Version++
	appt := &models.Appointment{
		ID:          id.NewAppointmentID(),
		SlotID:      slotID,
		CaseID:      caseID,
		ApplicantID: applicantID,
		Status:      models.AppointmentStatusConfirmed,
		CreatedAt:   at,
	}
	s.appointments[appt.ID] = appt

	copied := *appt
	return &copied, nil
}

func (s *InMemory) CancelAppointment(_ context.Context, appointmentID id.AppointmentID, at time.Time) (*models.Appointment, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	appt, ok := s.appointments[appointmentID]
	if !ok {
		return nil, false, sentinel.ErrNotFound
	}
	if appt.Status == models.AppointmentStatusCancelled {
		copied := *appt
		return &copied, false, nil
	}

	appt.Status = models.AppointmentStatusCancelled
	cancelledAt := at
	appt.CancelledAt = &cancelledAt

	if slot, ok := s.slots[appt.SlotID]; ok && slot.BookedCount > 0 {
		slot.BookedCount--
		slot.Version++
	}

	copied := *appt
	return &copied, true, nil
}

func (s *InMemory) GetAppointment(_ context.Context, appointmentID id.AppointmentID) (*models.Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	appt, ok := s.appointments[appointmentID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := *appt
	return &copied, nil
}

func (s *InMemory) FindConfirmedByCase(_ context.Context, caseID id.CaseID) (*models.Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, appt := range s.appointments {
		if appt.CaseID == caseID && appt.Status == models.AppointmentStatusConfirmed {
			copied := *appt
			return &copied, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

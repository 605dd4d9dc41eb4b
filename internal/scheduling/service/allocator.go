// Package service implements the appointment slot allocator.
//
// The allocator owns the booking policy: it translates store sentinels into
// coded errors, retries lost version races a bounded number of times, keeps
// the availability cache coherent, and emits notification events. The store
// owns atomicity; the allocator never re-checks capacity itself.
package service

import (
	"context"
	"errors"
	"iter"
	"log/slog"
	"time"

	"attache/internal/scheduling/cache"
	"attache/internal/scheduling/metrics"
	"attache/internal/scheduling/models"
	"attache/internal/scheduling/store"
	id "attache/pkg/domain"
	dErrors "attache/pkg/domain-errors"
	"attache/pkg/platform/events"
	"attache/pkg/platform/sentinel"
	"attache/pkg/requestcontext"
)

// bookRetryLimit bounds retries after a lost version race. Capacity-full and
// duplicate-case rejections are terminal and never retried.
const bookRetryLimit = 3

// Allocator coordinates slot publication, availability listings, and
// capacity-bound booking.
type Allocator struct {
	store   store.Store
	cache   *cache.AvailabilityCache
	events  *events.Publisher
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// Option configures an Allocator.
type Option func(*Allocator)

// WithCache attaches an availability cache. A nil cache is accepted and
// disables caching.
func WithCache(c *cache.AvailabilityCache) Option {
	return func(a *Allocator) { a.cache = c }
}

// WithEvents attaches a notification event publisher.
func WithEvents(p *events.Publisher) Option {
	return func(a *Allocator) { a.events = p }
}

// WithMetrics attaches scheduling metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(a *Allocator) { a.metrics = m }
}

// WithLogger overrides the default logger.
func WithLogger(l *slog.Logger) Option {
	return func(a *Allocator) { a.logger = l }
}

// NewAllocator constructs an Allocator over the given store.
func NewAllocator(st store.Store, opts ...Option) *Allocator {
	a := &Allocator{
		store:  st,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// CreateSlot publishes a new bookable slot for an organization.
func (a *Allocator) CreateSlot(ctx context.Context, slot *models.AppointmentSlot) (*models.AppointmentSlot, error) {
	if slot.OrgID.IsZero() {
		return nil, dErrors.New(dErrors.CodeValidation, "organization ID is required")
	}
	if slot.Capacity < 1 {
		return nil, dErrors.New(dErrors.CodeValidation, "capacity must be at least 1")
	}
	if slot.Date.IsZero() {
		return nil, dErrors.New(dErrors.CodeValidation, "slot date is required")
	}
	if !slot.EndTime.After(slot.StartTime) {
		return nil, dErrors.New(dErrors.CodeValidation, "slot end time must be after start time")
	}

	created := *slot
	created.ID = id.NewSlotID()
	created.Date = time.Date(slot.Date.Year(), slot.Date.Month(), slot.Date.Day(), 0, 0, 0, 0, time.UTC)
	created.BookedCount = 0
	created.Version = 0
	created.CreatedAt = requestcontext.Now(ctx)

	if err := a.store.CreateSlot(ctx, &created); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeStateConflict, "slot already exists")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create slot")
	}

	a.cache.Invalidate(ctx, created.OrgID, created.Date)
	return &created, nil
}

// Available yields the organization's slots with at least one free seat in
// the given month, ordered by date then start time. The sequence is
// restartable: each range re-reads the listing, so a consumer that stops
// early and ranges again sees fresh availability.
func (a *Allocator) Available(ctx context.Context, orgID id.OrgID, month time.Time) iter.Seq2[*models.AppointmentSlot, error] {
	from := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)

	return func(yield func(*models.AppointmentSlot, error) bool) {
		start := time.Now()
		slots, hit := a.cache.Get(ctx, orgID, from)
		if !hit {
			var err error
			slots, err = a.store.ListSlots(ctx, orgID, from, to)
			if err != nil {
				yield(nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list slots"))
				return
			}
			a.cache.Set(ctx, orgID, from, slots)
		}
		if a.metrics != nil {
			a.metrics.ObserveAvailable(start)
		}

		for _, slot := range slots {
			if !slot.Available() {
				continue
			}
			if !yield(slot, nil) {
				return
			}
		}
	}
}

// Book atomically claims one seat of the slot for the case. At most one
// confirmed appointment may exist per case; a full slot or a duplicate case
// rejects immediately. Lost version races retry internally against fresh
// state up to bookRetryLimit times.
func (a *Allocator) Book(ctx context.Context, slotID id.SlotID, caseID id.CaseID, applicantID id.ApplicantID) (*models.Appointment, error) {
	if slotID.IsZero() {
		return nil, dErrors.New(dErrors.CodeValidation, "slot ID is required")
	}
	if caseID.IsZero() {
		return nil, dErrors.New(dErrors.CodeValidation, "case ID is required")
	}
	if applicantID.IsZero() {
		return nil, dErrors.New(dErrors.CodeValidation, "applicant ID is required")
	}

	now := requestcontext.Now(ctx)

	var appt *models.Appointment
	var err error
	for attempt := 0; ; attempt++ {
		appt, err = a.store.Book(ctx, slotID, caseID, applicantID, now)
		if err == nil {
			break
		}
		if errors.Is(err, sentinel.ErrVersionMismatch) && attempt < bookRetryLimit {
			if a.metrics != nil {
				a.metrics.IncrementRetries()
			}
			a.logger.WarnContext(ctx, "booking lost version race, retrying",
				"slot_id", slotID, "case_id", caseID, "attempt", attempt+1)
			continue
		}
		return nil, a.rejectBooking(ctx, slotID, caseID, err)
	}

	if slot, slotErr := a.store.GetSlot(ctx, slotID); slotErr == nil {
		a.cache.Invalidate(ctx, slot.OrgID, slot.Date)
	}
	a.emit(ctx, events.Event{
		CaseID: caseID,
		Kind:   events.KindAppointmentBooked,
		Payload: map[string]string{
			"appointment_id": appt.ID.String(),
			"slot_id":        slotID.String(),
		},
	})
	if a.metrics != nil {
		a.metrics.IncrementConfirmed()
	}
	return appt, nil
}

// Cancel releases the appointment's seat. Cancelling an already-cancelled
// appointment succeeds without releasing anything or emitting an event.
func (a *Allocator) Cancel(ctx context.Context, appointmentID id.AppointmentID) (*models.Appointment, error) {
	if appointmentID.IsZero() {
		return nil, dErrors.New(dErrors.CodeValidation, "appointment ID is required")
	}

	appt, released, err := a.store.CancelAppointment(ctx, appointmentID, requestcontext.Now(ctx))
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "appointment not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to cancel appointment")
	}
	if !released {
		return appt, nil
	}

	if slot, slotErr := a.store.GetSlot(ctx, appt.SlotID); slotErr == nil {
		a.cache.Invalidate(ctx, slot.OrgID, slot.Date)
	}
	a.emit(ctx, events.Event{
		CaseID: appt.CaseID,
		Kind:   events.KindAppointmentCancelled,
		Payload: map[string]string{
			"appointment_id": appt.ID.String(),
			"slot_id":        appt.SlotID.String(),
		},
	})
	if a.metrics != nil {
		a.metrics.IncrementCancelled()
	}
	return appt, nil
}

// GetAppointment returns a booking by ID.
func (a *Allocator) GetAppointment(ctx context.Context, appointmentID id.AppointmentID) (*models.Appointment, error) {
	appt, err := a.store.GetAppointment(ctx, appointmentID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "appointment not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load appointment")
	}
	return appt, nil
}

// ConfirmedForCase returns the case's confirmed appointment, or nil when the
// case holds none.
func (a *Allocator) ConfirmedForCase(ctx context.Context, caseID id.CaseID) (*models.Appointment, error) {
	appt, err := a.store.FindConfirmedByCase(ctx, caseID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, nil
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up appointment")
	}
	return appt, nil
}

func (a *Allocator) rejectBooking(ctx context.Context, slotID id.SlotID, caseID id.CaseID, err error) error {
	reason := "internal"
	var coded error
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		reason = "not_found"
		coded = dErrors.New(dErrors.CodeNotFound, "slot not found")
	case errors.Is(err, sentinel.ErrCapacityFull):
		reason = "capacity"
		coded = dErrors.New(dErrors.CodeCapacityExceeded, "slot is fully booked")
	case errors.Is(err, sentinel.ErrConflict):
		reason = "duplicate_case"
		coded = dErrors.New(dErrors.CodeStateConflict, "case already has a confirmed appointment")
	case errors.Is(err, sentinel.ErrVersionMismatch):
		reason = "contention"
		coded = dErrors.New(dErrors.CodeConcurrentModification, "slot is under heavy contention, retry the booking")
	default:
		coded = dErrors.Wrap(err, dErrors.CodeInternal, "failed to book slot")
		a.logger.ErrorContext(ctx, "booking failed",
			"slot_id", slotID, "case_id", caseID, "error", err)
	}
	if a.metrics != nil {
		a.metrics.IncrementRejected(reason)
	}
	return coded
}

func (a *Allocator) emit(ctx context.Context, event events.Event) {
	if a.events == nil {
		return
	}
	if err := a.events.Emit(ctx, event); err != nil {
		a.logger.WarnContext(ctx, "event emit failed",
			"kind", string(event.Kind), "case_id", event.CaseID, "error", err)
	}
}

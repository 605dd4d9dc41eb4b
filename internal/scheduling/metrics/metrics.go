package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the scheduling module.
// Tracks booking outcomes and the availability query critical path.
type Metrics struct {
	BookingsConfirmed prometheus.Counter
	BookingsRejected  *prometheus.CounterVec
	BookingRetries    prometheus.Counter
	Cancellations     prometheus.Counter
	AvailableDuration prometheus.Histogram
}

// New creates a new Metrics instance with all scheduling module metrics registered.
func New() *Metrics {
	return &Metrics{
		BookingsConfirmed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "attache_bookings_confirmed_total",
			Help: "Total number of confirmed slot bookings",
		}),
		BookingsRejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "attache_bookings_rejected_total",
			Help: "Total number of rejected booking attempts by reason",
		}, []string{"reason"}),
		BookingRetries: promauto.NewCounter(prometheus.CounterOpts{
			Name: "attache_booking_retries_total",
			Help: "Total number of internal booking retries after losing a version race",
		}),
		Cancellations: promauto.NewCounter(prometheus.CounterOpts{
			Name: "attache_appointments_cancelled_total",
			Help: "Total number of cancelled appointments",
		}),
		AvailableDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "attache_slot_availability_duration_seconds",
			Help:    "Duration of availability listings (applicant-facing critical path)",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

// IncrementConfirmed records a successful booking.
func (m *Metrics) IncrementConfirmed() {
	m.BookingsConfirmed.Inc()
}

// IncrementRejected records a rejected booking attempt.
func (m *Metrics) IncrementRejected(reason string) {
	m.BookingsRejected.WithLabelValues(reason).Inc()
}

// IncrementRetries records one internal retry of the conditional update.
func (m *Metrics) IncrementRetries() {
	m.BookingRetries.Inc()
}

// IncrementCancelled records a cancelled appointment.
func (m *Metrics) IncrementCancelled() {
	m.Cancellations.Inc()
}

// ObserveAvailable records the duration of an availability listing.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveAvailable(start time.Time) {
	m.AvailableDuration.Observe(time.Since(start).Seconds())
}

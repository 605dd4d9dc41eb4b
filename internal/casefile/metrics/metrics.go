package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the casefile module.
type Metrics struct {
	CasesCreated      prometheus.Counter
	Transitions       *prometheus.CounterVec
	TransitionsDenied *prometheus.CounterVec
	ActionsIssued     *prometheus.CounterVec
	ActionsResolved   *prometheus.CounterVec
}

// New creates a new Metrics instance with all casefile module metrics registered.
func New() *Metrics {
	return &Metrics{
		CasesCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "attache_cases_created_total",
			Help: "Total number of case drafts created",
		}),
		Transitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "attache_case_transitions_total",
			Help: "Total number of successful case status transitions by target status",
		}, []string{"to"}),
		TransitionsDenied: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "attache_case_transitions_denied_total",
			Help: "Total number of rejected case status transitions by reason",
		}, []string{"reason"}),
		ActionsIssued: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "attache_case_actions_issued_total",
			Help: "Total number of action-required entries issued by kind",
		}, []string{"kind"}),
		ActionsResolved: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "attache_case_actions_resolved_total",
			Help: "Total number of action-required entries resolved by kind",
		}, []string{"kind"}),
	}
}

// IncrementCreated records a new case draft.
func (m *Metrics) IncrementCreated() {
	m.CasesCreated.Inc()
}

// IncrementTransition records a successful transition into the target status.
func (m *Metrics) IncrementTransition(to string) {
	m.Transitions.WithLabelValues(to).Inc()
}

// IncrementDenied records a rejected transition.
func (m *Metrics) IncrementDenied(reason string) {
	m.TransitionsDenied.WithLabelValues(reason).Inc()
}

// IncrementIssued records an issued action.
func (m *Metrics) IncrementIssued(kind string) {
	m.ActionsIssued.WithLabelValues(kind).Inc()
}

// IncrementResolved records a resolved action.
func (m *Metrics) IncrementResolved(kind string) {
	m.ActionsResolved.WithLabelValues(kind).Inc()
}

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the moderation lifecycle engine.
type Metrics struct {
	// Transition outcomes by kind, action and outcome (applied, illegal,
	// not_found, conflict, error).
	TransitionOutcome *prometheus.CounterVec

	// End-to-end ApplyTransition latency including the store commit.
	TransitionLatency prometheus.Histogram

	// Resources created through the intake boundary, by kind.
	ResourcesCreated *prometheus.CounterVec
}

// New creates a Metrics instance with all engine metrics registered.
func New() *Metrics {
	return &Metrics{
		TransitionOutcome: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "modgate_transitions_total",
			Help: "Total transition attempts by kind, action and outcome",
		}, []string{"kind", "action", "outcome"}),

		TransitionLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "modgate_transition_duration_seconds",
			Help:    "Duration of ApplyTransition including the atomic commit",
			Buckets: []float64{0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),

		ResourcesCreated: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "modgate_resources_created_total",
			Help: "Total resources created through intake, by kind",
		}, []string{"kind"}),
	}
}

// IncrementOutcome records one transition attempt outcome.
func (m *Metrics) IncrementOutcome(kind, action, outcome string) {
	if m != nil {
		m.TransitionOutcome.WithLabelValues(kind, action, outcome).Inc()
	}
}

// ObserveTransitionLatency records the duration of one ApplyTransition call.
func (m *Metrics) ObserveTransitionLatency(d time.Duration) {
	if m != nil {
		m.TransitionLatency.Observe(d.Seconds())
	}
}

// IncrementResourcesCreated records one intake creation.
func (m *Metrics) IncrementResourcesCreated(kind string) {
	if m != nil {
		m.ResourcesCreated.WithLabelValues(kind).Inc()
	}
}

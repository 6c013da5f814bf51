package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the notification dispatcher.
type Metrics struct {
	// Delivery attempt results by channel and result (sent, retried, exhausted).
	DeliveryResult *prometheus.CounterVec

	// Latency of individual delivery attempts, including failed ones.
	AttemptLatency prometheus.Histogram

	// Tasks currently claimed by workers.
	InFlight prometheus.Gauge
}

// New creates a Metrics instance with all dispatcher metrics registered.
func New() *Metrics {
	return &Metrics{
		DeliveryResult: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "modgate_notify_deliveries_total",
			Help: "Delivery attempt results by channel and result",
		}, []string{"channel", "result"}),

		AttemptLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "modgate_notify_attempt_duration_seconds",
			Help:    "Duration of individual delivery attempts",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),

		InFlight: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "modgate_notify_in_flight",
			Help: "Notification tasks currently claimed by workers",
		}),
	}
}

// IncrementResult records a delivery attempt result.
func (m *Metrics) IncrementResult(channel, result string) {
	if m != nil {
		m.DeliveryResult.WithLabelValues(channel, result).Inc()
	}
}

// ObserveAttemptLatency records the duration of one delivery attempt.
func (m *Metrics) ObserveAttemptLatency(d time.Duration) {
	if m != nil {
		m.AttemptLatency.Observe(d.Seconds())
	}
}

// AddInFlight adjusts the in-flight gauge.
func (m *Metrics) AddInFlight(delta float64) {
	if m != nil {
		m.InFlight.Add(delta)
	}
}

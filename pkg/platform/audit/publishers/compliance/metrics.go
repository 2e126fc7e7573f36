package compliance

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks compliance publisher throughput and failures.
type Metrics struct {
	EventsEmitted   prometheus.Counter
	PersistFailures prometheus.Counter
	PersistDuration prometheus.Histogram
}

// NewMetrics registers compliance publisher metrics against reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		EventsEmitted: factory.NewCounter(prometheus.CounterOpts{
			Name: "sanitrack_audit_compliance_events_total",
			Help: "Compliance events persisted",
		}),
		PersistFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "sanitrack_audit_compliance_failures_total",
			Help: "Compliance events the store rejected",
		}),
		PersistDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "sanitrack_audit_compliance_persist_seconds",
			Help:    "Time to persist one compliance event",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

// IncEventsEmitted records a persisted event.
func (m *Metrics) IncEventsEmitted() { m.EventsEmitted.Inc() }

// IncPersistFailures records a failed write.
func (m *Metrics) IncPersistFailures() { m.PersistFailures.Inc() }

// ObservePersistDuration records write latency in seconds.
func (m *Metrics) ObservePersistDuration(seconds float64) { m.PersistDuration.Observe(seconds) }

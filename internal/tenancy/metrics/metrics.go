package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the tenancy module.
// Tracks guard rejections, role denials, mutation outcomes and audit failures.
type Metrics struct {
	GuardRejections     *prometheus.CounterVec
	AuthorizationDenied *prometheus.CounterVec
	Mutations           *prometheus.CounterVec
	AuditFailures       *prometheus.CounterVec
	MembershipCache     *prometheus.CounterVec
	MutationDuration    *prometheus.HistogramVec
}

// New creates a Metrics instance registered against reg. Pass
// prometheus.DefaultRegisterer in production and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		GuardRejections: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "sanitrack_tenant_guard_rejections_total",
			Help: "Operations rejected because no organization id could be resolved",
		}, []string{"operation"}),
		AuthorizationDenied: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "sanitrack_authorization_denied_total",
			Help: "Mutations rejected by the role gate",
		}, []string{"entity", "action"}),
		Mutations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "sanitrack_tenant_mutations_total",
			Help: "Tenant mutations by entity, action and outcome",
		}, []string{"entity", "action", "outcome"}),
		AuditFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "sanitrack_audit_publish_failures_total",
			Help: "Audit or security events that could not be published",
		}, []string{"stream"}),
		MembershipCache: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "sanitrack_membership_cache_total",
			Help: "Membership cache lookups by result (hit, miss, error)",
		}, []string{"result"}),
		MutationDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "sanitrack_tenant_mutation_duration_seconds",
			Help:    "Duration of role-gated mutations, authorization included",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"entity", "action"}),
	}
}

// IncrementGuardRejection records an operation refused for a missing organization id.
func (m *Metrics) IncrementGuardRejection(operation string) {
	m.GuardRejections.WithLabelValues(operation).Inc()
}

// IncrementAuthorizationDenied records a role gate denial.
func (m *Metrics) IncrementAuthorizationDenied(entity, action string) {
	m.AuthorizationDenied.WithLabelValues(entity, action).Inc()
}

// IncrementMutation records the outcome of a mutation: "succeeded", "failed" or "denied".
func (m *Metrics) IncrementMutation(entity, action, outcome string) {
	m.Mutations.WithLabelValues(entity, action, outcome).Inc()
}

// IncrementAuditFailure records an event that could not be published.
func (m *Metrics) IncrementAuditFailure(stream string) {
	m.AuditFailures.WithLabelValues(stream).Inc()
}

// IncrementMembershipCache records a cache lookup result.
func (m *Metrics) IncrementMembershipCache(result string) {
	m.MembershipCache.WithLabelValues(result).Inc()
}

// ObserveMutation records the duration of a mutation.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveMutation(entity, action string, start time.Time) {
	m.MutationDuration.WithLabelValues(entity, action).Observe(time.Since(start).Seconds())
}

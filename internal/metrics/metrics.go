// Package metrics defines the daemon's Prometheus metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sony/gobreaker/v2"
)

// Metrics owns a private registry so tests and multiple servers don't share
// global state.
type Metrics struct {
	registry *prometheus.Registry

	requests     *prometheus.CounterVec
	ruleMatches  *prometheus.CounterVec
	transitions  *prometheus.CounterVec
	upstreamErrs *prometheus.CounterVec
	createTime   prometheus.Histogram
	breakerState *prometheus.GaugeVec
}

// New registers every metric on a fresh registry, along with the Go runtime
// and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		requests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "reqarr_requests_total",
			Help: "Request creation outcomes by outcome and reason",
		}, []string{"outcome", "reason"}),
		ruleMatches: f.NewCounterVec(prometheus.CounterOpts{
			Name: "reqarr_rule_matches_total",
			Help: "Auto-approvals by the type of the matching rule",
		}, []string{"rule_type"}),
		transitions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "reqarr_transitions_total",
			Help: "Request state transitions",
		}, []string{"from", "to"}),
		upstreamErrs: f.NewCounterVec(prometheus.CounterOpts{
			Name: "reqarr_upstream_errors_total",
			Help: "Failed calls to Radarr, Sonarr or TMDB",
		}, []string{"service"}),
		createTime: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "reqarr_request_create_duration_seconds",
			Help:    "Time to create a request, including submission",
			Buckets: prometheus.DefBuckets,
		}),
		breakerState: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "reqarr_breaker_state",
			Help: "Circuit breaker state per service (0 closed, 1 half-open, 2 open)",
		}, []string{"service"}),
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RequestOutcome counts one creation outcome. reason may be empty.
func (m *Metrics) RequestOutcome(outcome, reason string) {
	m.requests.WithLabelValues(outcome, reason).Inc()
}

// RuleMatched counts an auto-approval by a rule of the given type.
func (m *Metrics) RuleMatched(ruleType string) {
	m.ruleMatches.WithLabelValues(ruleType).Inc()
}

// Transition counts a state change.
func (m *Metrics) Transition(from, to string) {
	m.transitions.WithLabelValues(from, to).Inc()
}

// UpstreamError counts a failed external call.
func (m *Metrics) UpstreamError(service string) {
	m.upstreamErrs.WithLabelValues(service).Inc()
}

// ObserveCreate records how long a creation took.
func (m *Metrics) ObserveCreate(d time.Duration) {
	m.createTime.Observe(d.Seconds())
}

// BreakerChanged records a circuit breaker state change. Its signature fits
// arr.WithBreakerListener.
func (m *Metrics) BreakerChanged(service string, _, to gobreaker.State) {
	var v float64
	switch to {
	case gobreaker.StateHalfOpen:
		v = 1
	case gobreaker.StateOpen:
		v = 2
	}
	m.breakerState.WithLabelValues(service).Set(v)
}

// Package metric provides Prometheus metrics for restkit.
package metric

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "restkit"

// Registry holds all application metrics.
type Registry struct {
	registry *prometheus.Registry

	// Request metrics
	RequestsTotal    *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	RequestsInFlight prometheus.Gauge
	RateLimited      prometheus.Counter

	// Contract metrics
	RejectionsTotal  *prometheus.CounterVec
	ResponsesEmitted *prometheus.CounterVec

	// Negotiate metrics
	NegotiateRounds *prometheus.CounterVec
}

// NewRegistry creates a registry with the restkit collectors and the Go
// runtime and process collectors registered.
func NewRegistry() *Registry {
	r := &Registry{
		registry: prometheus.NewRegistry(),
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Requests handled, by endpoint, method and status.",
		}, []string{"endpoint", "method", "status"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "Request latency by endpoint and method.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"endpoint", "method"}),
		RequestsInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "requests_in_flight",
			Help:      "Requests currently being served.",
		}),
		RateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the per-client rate limit.",
		}),
		RejectionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rejections_total",
			Help:      "Requests rejected before reaching the handler, by error code.",
		}, []string{"code"}),
		ResponsesEmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "responses_total",
			Help:      "Responses emitted, by body kind.",
		}, []string{"body"}),
		NegotiateRounds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "negotiate_rounds_total",
			Help:      "Negotiate handshake rounds, by resulting state.",
		}, []string{"state"}),
	}

	r.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.RequestsTotal,
		r.RequestDuration,
		r.RequestsInFlight,
		r.RateLimited,
		r.RejectionsTotal,
		r.ResponsesEmitted,
		r.NegotiateRounds,
	)
	return r
}

var (
	globalOnce     sync.Once
	globalRegistry *Registry
)

// Global returns the process-wide registry.
func Global() *Registry {
	globalOnce.Do(func() {
		globalRegistry = NewRegistry()
	})
	return globalRegistry
}

// Handler returns the /metrics handler of the global registry.
func Handler() http.Handler {
	return Global().Handler()
}

// Handler returns an HTTP handler exposing r in Prometheus format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// Register adds an extra collector to r.
func (r *Registry) Register(c prometheus.Collector) error {
	return r.registry.Register(c)
}

// RecordRequest counts one completed request.
func (r *Registry) RecordRequest(endpoint, method, status string) {
	r.RequestsTotal.WithLabelValues(endpoint, method, status).Inc()
}

// ObserveRequestDuration records a request latency in seconds.
func (r *Registry) ObserveRequestDuration(endpoint, method string, seconds float64) {
	r.RequestDuration.WithLabelValues(endpoint, method).Observe(seconds)
}

// IncInFlight marks a request as started.
func (r *Registry) IncInFlight() { r.RequestsInFlight.Inc() }

// DecInFlight marks a request as finished.
func (r *Registry) DecInFlight() { r.RequestsInFlight.Dec() }

// IncRateLimited counts a rate-limited request.
func (r *Registry) IncRateLimited() { r.RateLimited.Inc() }

// RecordRejection counts a request rejected with the given error code.
func (r *Registry) RecordRejection(code string) {
	r.RejectionsTotal.WithLabelValues(code).Inc()
}

// RecordResponse counts an emitted response by body kind.
func (r *Registry) RecordResponse(body string) {
	r.ResponsesEmitted.WithLabelValues(body).Inc()
}

// RecordNegotiateRound counts one negotiate round ending in state.
func (r *Registry) RecordNegotiateRound(state string) {
	r.NegotiateRounds.WithLabelValues(state).Inc()
}

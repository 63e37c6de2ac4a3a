// Package observability exposes Prometheus metrics for the pipeline, the
// event bus, the HTTP layer and the circuit breakers.
package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ChoraichiFadwa/ECOLead-Finance/internal/domain/catalog"
	"github.com/ChoraichiFadwa/ECOLead-Finance/pkg/circuitbreaker"
)

const namespace = "ecolead"

// Metrics owns a registry and every collector the service records.
type Metrics struct {
	registry *prometheus.Registry

	submissions   *prometheus.CounterVec
	scoreEarned   *prometheus.HistogramVec
	handlerRuns   *prometheus.CounterVec
	handlerTime   *prometheus.HistogramVec
	httpRequests  *prometheus.CounterVec
	httpDuration  *prometheus.HistogramVec
	breakerState  *prometheus.GaugeVec
	catalogLoaded *prometheus.GaugeVec
}

// NewMetrics registers the collectors on a fresh registry, together with
// the Go runtime and process collectors.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		submissions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mission_submissions_total",
			Help:      "Mission submissions by outcome and level.",
		}, []string{"outcome", "level"}),
		scoreEarned: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "mission_score_earned",
			Help:      "Score earned per committed mission.",
			Buckets:   prometheus.LinearBuckets(0, 5, 6),
		}, []string{"level"}),
		handlerRuns: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "event_handler_runs_total",
			Help:      "Domain event handler executions by event type and result.",
		}, []string{"event_type", "result"}),
		handlerTime: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "event_handler_duration_seconds",
			Help:      "Domain event handler latency.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
		}, []string{"event_type"}),
		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status"}),
		httpDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		breakerState: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "circuit_breaker_state",
			Help:      "Circuit breaker state: 0 closed, 1 open, 2 half-open.",
		}, []string{"name"}),
		catalogLoaded: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "catalog_info",
			Help:      "Loaded catalog fingerprint and sizes.",
		}, []string{"fingerprint", "kind"}),
	}
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveSubmission records one pipeline attempt.
func (m *Metrics) ObserveSubmission(outcome string, level catalog.Level, score int) {
	m.submissions.WithLabelValues(outcome, level.String()).Inc()
	if outcome == "committed" {
		m.scoreEarned.WithLabelValues(level.String()).Observe(float64(score))
	}
}

// ObserveHandler records one event handler execution.
func (m *Metrics) ObserveHandler(eventType string, d time.Duration, ok bool) {
	result := "ok"
	if !ok {
		result = "error"
	}
	m.handlerRuns.WithLabelValues(eventType, result).Inc()
	m.handlerTime.WithLabelValues(eventType).Observe(d.Seconds())
}

// ObserveHTTP records one request. route is the pattern, not the raw path,
// so that ids do not explode cardinality.
func (m *Metrics) ObserveHTTP(method, route string, status int, d time.Duration) {
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// BreakerStateChanged matches the circuitbreaker state callback.
func (m *Metrics) BreakerStateChanged(name string, _, to circuitbreaker.State) {
	m.breakerState.WithLabelValues(name).Set(float64(to))
}

// CatalogLoaded publishes the active catalog.
func (m *Metrics) CatalogLoaded(fingerprint string, s catalog.Stats) {
	m.catalogLoaded.WithLabelValues(fingerprint, "concepts").Set(float64(s.Concepts))
	m.catalogLoaded.WithLabelValues(fingerprint, "missions").Set(float64(s.Missions))
	m.catalogLoaded.WithLabelValues(fingerprint, "events").Set(float64(s.Events))
}

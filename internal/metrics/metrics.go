// Package metrics holds the Prometheus collectors for the feedback service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the service.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	// Feedback metrics
	FeedbackGenerated *prometheus.CounterVec
	FeedbackFallbacks *prometheus.CounterVec

	// Provider metrics
	ProviderRequests *prometheus.CounterVec
	ProviderLatency  *prometheus.HistogramVec
	CompletionCache  *prometheus.CounterVec

	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	gatherer prometheus.Gatherer
}

// New creates and registers all metrics on a fresh registry, together with
// the Go runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return NewWithRegistry(reg, reg)
}

// NewWithRegistry registers the service metrics on reg and serves them from g.
func NewWithRegistry(reg prometheus.Registerer, g prometheus.Gatherer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		FeedbackGenerated: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "feedback_generated_total",
				Help: "Feedback responses produced, by strategy and tone",
			},
			[]string{"strategy", "tone"},
		),
		FeedbackFallbacks: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "feedback_fallback_total",
				Help: "External generations that fell back to the deterministic engine",
			},
			[]string{"reason"},
		),
		ProviderRequests: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "llm_requests_total",
				Help: "Completion provider calls",
			},
			[]string{"provider", "model", "success"},
		),
		ProviderLatency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "llm_request_duration_seconds",
				Help:    "Completion provider call duration in seconds",
				Buckets: prometheus.ExponentialBuckets(0.1, 2, 10), // 100ms to 51s
			},
			[]string{"provider", "model"},
		),
		CompletionCache: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "llm_completion_cache_total",
				Help: "Completion cache lookups by result",
			},
			[]string{"result"},
		),
		HTTPRequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		gatherer: g,
	}
}

// Handler serves the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil || m.gatherer == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// RecordFeedback counts one generated feedback.
func (m *Metrics) RecordFeedback(strategy, tone string) {
	if m == nil {
		return
	}
	m.FeedbackGenerated.WithLabelValues(strategy, tone).Inc()
}

// RecordFallback counts one fallback to the deterministic engine.
func (m *Metrics) RecordFallback(reason string) {
	if m == nil {
		return
	}
	m.FeedbackFallbacks.WithLabelValues(reason).Inc()
}

// RecordProviderRequest records a completion provider call.
func (m *Metrics) RecordProviderRequest(provider, model string, success bool, latency time.Duration) {
	if m == nil {
		return
	}
	m.ProviderRequests.WithLabelValues(provider, model, strconv.FormatBool(success)).Inc()
	m.ProviderLatency.WithLabelValues(provider, model).Observe(latency.Seconds())
}

// RecordCacheLookup records a completion cache hit or miss.
func (m *Metrics) RecordCacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CompletionCache.WithLabelValues(result).Inc()
}

// RecordHTTPRequest records an HTTP request.
func (m *Metrics) RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

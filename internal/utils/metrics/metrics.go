package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all application metrics.
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// Upstream API metrics
	UpstreamRequestsTotal   *prometheus.CounterVec
	UpstreamRequestDuration *prometheus.HistogramVec

	// Image generation metrics
	GenerationsTotal   *prometheus.CounterVec
	GenerationDuration *prometheus.HistogramVec
	PollAttemptsTotal  *prometheus.CounterVec

	// Workflow metrics
	TasksProcessedTotal  *prometheus.CounterVec
	ContentEnhancedTotal prometheus.Counter
	PostsCreatedTotal    prometheus.Counter

	// Memory store metrics
	MemoriesStoredTotal *prometheus.CounterVec
	MemoryRecallsTotal  *prometheus.CounterVec
}

// New creates a new Metrics instance registered with reg.
// A nil reg uses the default registerer.
func New(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "tecflow"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)

	return &Metrics{
		// HTTP metrics
		HTTPRequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 120},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: f.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_in_flight",
				Help:      "Current number of HTTP requests being processed",
			},
		),

		// Upstream API metrics
		UpstreamRequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "upstream",
				Name:      "requests_total",
				Help:      "Total number of requests to third-party APIs",
			},
			[]string{"service", "operation", "status"},
		),
		UpstreamRequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "upstream",
				Name:      "request_duration_seconds",
				Help:      "Third-party API request duration in seconds",
				Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"service", "operation"},
		),

		// Image generation metrics
		GenerationsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "imagegen",
				Name:      "generations_total",
				Help:      "Total number of image generation requests",
			},
			[]string{"family", "variant", "outcome"}, // outcome: success, filtered, error
		),
		GenerationDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "imagegen",
				Name:      "generation_duration_seconds",
				Help:      "End-to-end image generation duration in seconds",
				Buckets:   []float64{1, 2.5, 5, 10, 30, 60, 120, 300, 600},
			},
			[]string{"family", "variant"},
		),
		PollAttemptsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "imagegen",
				Name:      "poll_attempts_total",
				Help:      "Total number of async result polls",
			},
			[]string{"status"}, // pending, done, error
		),

		// Workflow metrics
		TasksProcessedTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "workflow",
				Name:      "tasks_processed_total",
				Help:      "Total number of tracker tasks processed",
			},
			[]string{"workflow"},
		),
		ContentEnhancedTotal: f.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "workflow",
				Name:      "content_enhanced_total",
				Help:      "Total number of task descriptions enhanced",
			},
		),
		PostsCreatedTotal: f.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "workflow",
				Name:      "posts_created_total",
				Help:      "Total number of posts created",
			},
		),

		// Memory store metrics
		MemoriesStoredTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "memory",
				Name:      "stored_total",
				Help:      "Total number of memory chunks stored",
			},
			[]string{"type"},
		),
		MemoryRecallsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "memory",
				Name:      "recalls_total",
				Help:      "Total number of memory recalls",
			},
			[]string{"result"}, // hit, miss
		),
	}
}

// --- Convenience methods ---
// All methods are safe on a nil receiver so components can run without metrics.

// RecordHTTPRequest records an HTTP request.
func (m *Metrics) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	statusStr := statusCodeToString(status)
	m.HTTPRequestsTotal.WithLabelValues(method, path, statusStr).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordUpstream records a call to a third-party API.
func (m *Metrics) RecordUpstream(service, operation string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.UpstreamRequestsTotal.WithLabelValues(service, operation, statusCodeToString(status)).Inc()
	m.UpstreamRequestDuration.WithLabelValues(service, operation).Observe(duration.Seconds())
}

// RecordGeneration records a finished image generation.
func (m *Metrics) RecordGeneration(family, variant, outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.GenerationsTotal.WithLabelValues(family, variant, outcome).Inc()
	m.GenerationDuration.WithLabelValues(family, variant).Observe(duration.Seconds())
}

// RecordPoll records one async result poll.
func (m *Metrics) RecordPoll(status string) {
	if m == nil {
		return
	}
	m.PollAttemptsTotal.WithLabelValues(status).Inc()
}

// RecordTaskProcessed records a tracker task handled by workflow.
func (m *Metrics) RecordTaskProcessed(workflow string) {
	if m == nil {
		return
	}
	m.TasksProcessedTotal.WithLabelValues(workflow).Inc()
}

// RecordContentEnhanced records an enhanced task description.
func (m *Metrics) RecordContentEnhanced() {
	if m == nil {
		return
	}
	m.ContentEnhancedTotal.Inc()
}

// RecordPostCreated records a created post.
func (m *Metrics) RecordPostCreated() {
	if m == nil {
		return
	}
	m.PostsCreatedTotal.Inc()
}

// RecordMemoryStored records a stored memory chunk.
func (m *Metrics) RecordMemoryStored(memoryType string) {
	if m == nil {
		return
	}
	m.MemoriesStoredTotal.WithLabelValues(memoryType).Inc()
}

// RecordMemoryRecall records a recall, hit when at least one memory matched.
func (m *Metrics) RecordMemoryRecall(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.MemoryRecallsTotal.WithLabelValues(result).Inc()
}

// statusCodeToString converts an HTTP status code to a string category.
func statusCodeToString(code int) string {
	switch {
	case code >= 200 && code < 300:
		return "2xx"
	case code >= 300 && code < 400:
		return "3xx"
	case code >= 400 && code < 500:
		return "4xx"
	case code >= 500:
		return "5xx"
	default:
		return "unknown"
	}
}

// Package metrics provides Prometheus metrics instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestDuration tracks HTTP request duration.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chatbot_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"method", "path", "status"},
	)

	// RequestsTotal tracks total HTTP requests.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatbot_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// ModelDuration tracks model subprocess run time.
	ModelDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chatbot_model_duration_seconds",
			Help:    "Model subprocess duration",
			Buckets: []float64{.5, 1, 2, 5, 10, 20, 30, 60, 120, 300},
		},
		[]string{"model", "outcome"},
	)

	// ChatsTotal counts /chat outcomes.
	ChatsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatbot_chats_total",
			Help: "Chat requests by outcome",
		},
		[]string{"outcome"},
	)

	// SideEffectFailures counts swallowed history and activity-log failures.
	SideEffectFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatbot_side_effect_failures_total",
			Help: "Best-effort store and log operations that failed",
		},
		[]string{"operation"},
	)
)

// RecordRequest records metrics for an HTTP request.
func RecordRequest(method, path, status string, duration float64) {
	RequestDuration.WithLabelValues(method, path, status).Observe(duration)
	RequestsTotal.WithLabelValues(method, path, status).Inc()
}

// RecordModel records one model invocation.
func RecordModel(model, outcome string, duration float64) {
	ModelDuration.WithLabelValues(model, outcome).Observe(duration)
}

// RecordChat counts a chat outcome.
func RecordChat(outcome string) {
	ChatsTotal.WithLabelValues(outcome).Inc()
}

// RecordSideEffectFailure counts a swallowed failure for operation.
func RecordSideEffectFailure(operation string) {
	SideEffectFailures.WithLabelValues(operation).Inc()
}

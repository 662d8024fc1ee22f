package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all custom Prometheus metrics for the application
type Metrics struct {
	// Chat metrics
	ChatRequests       prometheus.Counter
	ChatRequestLatency prometheus.Histogram

	// Generation backend errors by type ("unavailable", "malformed")
	GenerationErrors *prometheus.CounterVec

	// Store write metrics
	EntriesCreated    prometheus.Counter
	PreferenceUpserts prometheus.Counter
}

var globalMetrics *Metrics

// InitMetrics initializes the Prometheus metrics
func InitMetrics() *Metrics {
	metrics := &Metrics{
		// Chat requests counter
		ChatRequests: promauto.NewCounter(prometheus.CounterOpts{
			Name: "daybook_chat_requests_total",
			Help: "Total number of chat submissions processed",
		}),

		// Chat request latency histogram
		ChatRequestLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "daybook_chat_request_duration_seconds",
			Help:    "Chat pipeline latency in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120}, // generation calls dominate
		}),

		GenerationErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "daybook_generation_errors_total",
			Help: "Total number of generation backend errors by type",
		}, []string{"error_type"}),

		EntriesCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "daybook_entries_created_total",
			Help: "Total number of diary entries persisted",
		}),

		PreferenceUpserts: promauto.NewCounter(prometheus.CounterOpts{
			Name: "daybook_preference_upserts_total",
			Help: "Total number of preference writes",
		}),
	}

	globalMetrics = metrics
	return metrics
}

// GetMetrics returns the global metrics instance
func GetMetrics() *Metrics {
	return globalMetrics
}

// RecordChatRequest records a chat submission
func (m *Metrics) RecordChatRequest() {
	m.ChatRequests.Inc()
}

// RecordChatLatency records chat pipeline latency
func (m *Metrics) RecordChatLatency(seconds float64) {
	m.ChatRequestLatency.Observe(seconds)
}

// RecordGenerationError records a generation backend error
func (m *Metrics) RecordGenerationError(errorType string) {
	m.GenerationErrors.WithLabelValues(errorType).Inc()
}

// RecordEntryCreated records a persisted diary entry
func (m *Metrics) RecordEntryCreated() {
	m.EntriesCreated.Inc()
}

// RecordPreferenceUpsert records a preference write
func (m *Metrics) RecordPreferenceUpsert() {
	m.PreferenceUpserts.Inc()
}

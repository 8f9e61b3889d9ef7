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
			Name:    "coach_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"method", "route", "status"},
	)

	// RequestsTotal tracks total HTTP requests.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coach_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	// TurnDuration tracks the wall time of a streamed or synchronous chat turn.
	TurnDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "coach_turn_duration_seconds",
			Help:    "Chat turn duration",
			Buckets: []float64{.5, 1, 2, 5, 10, 20, 30, 45, 60, 90, 120},
		},
		[]string{"provider", "mode", "outcome"},
	)

	// DeltasTotal counts delta frames relayed to clients.
	DeltasTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coach_stream_deltas_total",
			Help: "Delta frames relayed to clients",
		},
		[]string{"provider"},
	)

	// UnknownEventsTotal counts upstream stream events that were dropped.
	UnknownEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coach_stream_unknown_events_total",
			Help: "Upstream stream events with an unrecognized kind",
		},
		[]string{"provider"},
	)

	// SSEConnectionsActive tracks active SSE connections.
	SSEConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "coach_sse_connections_active",
			Help: "Number of active SSE connections",
		},
	)

	// KnowledgeLookups tracks knowledge augmentation lookups by result.
	KnowledgeLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coach_knowledge_lookups_total",
			Help: "Knowledge augmentation lookups",
		},
		[]string{"result"},
	)

	// ConversationsTotal tracks conversation lifecycle operations.
	ConversationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coach_conversations_total",
			Help: "Conversation lifecycle operations",
		},
		[]string{"op"},
	)

	// MessagesTotal tracks persisted messages by sender.
	MessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coach_messages_total",
			Help: "Messages persisted",
		},
		[]string{"sender"},
	)
)

// RecordRequest records metrics for an HTTP request.
func RecordRequest(method, route, status string, duration float64) {
	RequestDuration.WithLabelValues(method, route, status).Observe(duration)
	RequestsTotal.WithLabelValues(method, route, status).Inc()
}

// RecordTurn records the outcome of one chat turn.
func RecordTurn(provider, mode, outcome string, duration float64) {
	TurnDuration.WithLabelValues(provider, mode, outcome).Observe(duration)
}

// IncrementSSEConnections increments the active SSE connection count.
func IncrementSSEConnections() {
	SSEConnectionsActive.Inc()
}

// DecrementSSEConnections decrements the active SSE connection count.
func DecrementSSEConnections() {
	SSEConnectionsActive.Dec()
}

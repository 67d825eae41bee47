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
			Name:    "gateway_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	// RequestsTotal tracks total HTTP requests.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// MessagesReconciled tracks incoming message reconciliations by result.
	MessagesReconciled = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "messages_reconciled_total",
			Help: "Incoming messages merged into the conversation store",
		},
		[]string{"result"},
	)

	// OptimisticAppends tracks locally originated messages appended before
	// server confirmation.
	OptimisticAppends = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "messages_optimistic_appends_total",
			Help: "Messages appended optimistically before confirmation",
		},
	)

	// RealtimeEvents tracks push events received per event type.
	RealtimeEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "realtime_events_total",
			Help: "Push events received from the realtime channel",
		},
		[]string{"event"},
	)

	// RealtimeSubscriptionActive is 1 while a conversation channel is held.
	RealtimeSubscriptionActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "realtime_subscription_active",
			Help: "Whether a conversation channel subscription is held",
		},
	)

	// OrdersCreated tracks orders created through the payment handoff.
	OrdersCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orders_created_total",
			Help: "Orders created via the payment handoff",
		},
		[]string{"tier"},
	)

	// CheckoutSessions tracks payment sessions opened.
	CheckoutSessions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "checkout_sessions_total",
			Help: "Checkout sessions created",
		},
	)

	// OffersAccepted tracks offers accepted by the local user.
	OffersAccepted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "offers_accepted_total",
			Help: "Offers accepted",
		},
	)

	// OffersWithdrawn tracks withdrawal markers applied (first delivery only).
	OffersWithdrawn = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "offers_withdrawn_total",
			Help: "Offers flipped to withdrawn",
		},
	)

	// SSEConnectionsActive tracks active browser-facing SSE connections.
	SSEConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sse_connections_active",
			Help: "Number of active SSE connections",
		},
	)
)

// RecordRequest records metrics for an HTTP request.
func RecordRequest(method, path, status string, duration float64) {
	RequestDuration.WithLabelValues(method, path, status).Observe(duration)
	RequestsTotal.WithLabelValues(method, path, status).Inc()
}

// RecordReconcile records a reconciliation outcome: "appended", "merged" or
// "dropped".
func RecordReconcile(result string) {
	MessagesReconciled.WithLabelValues(result).Inc()
}

// IncrementSSEConnections increments the active SSE connection count.
func IncrementSSEConnections() {
	SSEConnectionsActive.Inc()
}

// DecrementSSEConnections decrements the active SSE connection count.
func DecrementSSEConnections() {
	SSEConnectionsActive.Dec()
}

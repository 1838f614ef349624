package chathub

import "github.com/prometheus/client_golang/prometheus"

// Event outcomes recorded on chat_events_total.
const (
	outcomeOK       = "ok"
	outcomeRejected = "rejected"
	outcomeFailed   = "failed"
	outcomeIgnored  = "ignored"
)

var (
	// wsConnections gauges open, registered socket connections.
	wsConnections = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "chat_ws_connections_active",
		Help: "Number of registered WebSocket connections.",
	})

	// registryUsers gauges users with at least one live connection.
	registryUsers = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "chat_registry_users",
		Help: "Number of users with at least one live connection.",
	})

	// events counts inbound events by type and outcome. Unknown types are
	// folded into "unknown" to keep cardinality bounded.
	events = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_events_total",
			Help: "Inbound chat events by type and outcome.",
		},
		[]string{"type", "outcome"},
	)

	// deliveries counts NEW_MESSAGE fan-out attempts per connection.
	deliveries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_fanout_deliveries_total",
			Help: "NEW_MESSAGE deliveries by result (queued|dropped).",
		},
		[]string{"result"},
	)
)

func init() {
	prometheus.MustRegister(wsConnections, registryUsers, events, deliveries)
}

func eventLabel(ev Event) string {
	switch ev.(type) {
	case JoinRoom:
		return TypeJoinRoom
	case SendMessage:
		return TypeSendMessage
	case nil:
		return "malformed"
	default:
		return "unknown"
	}
}

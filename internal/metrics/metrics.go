package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// MessagesSent counts persisted messages by transport (rest, ws).
	MessagesSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "messaging_messages_sent_total",
		Help: "Messages persisted, labelled by transport.",
	}, []string{"transport"})

	// WSConnections tracks currently open live-channel connections.
	WSConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "messaging_ws_connections",
		Help: "Open websocket connections.",
	})

	// WSEvents counts fan-out emissions by event name.
	WSEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "messaging_ws_events_total",
		Help: "Live-channel events emitted, labelled by event.",
	}, []string{"event"})

	// RelayEvents counts cross-instance relay traffic by direction (in, out).
	RelayEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "messaging_relay_events_total",
		Help: "Relay envelopes published and consumed.",
	}, []string{"direction"})
)

// Handler returns an http.Handler for Prometheus scraping.
func Handler() http.Handler {
	return promhttp.Handler()
}

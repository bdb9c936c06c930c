// internal/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles the server's Prometheus instruments.
type Metrics struct {
	PlayersOnline   prometheus.Gauge
	RoomsActive     prometheus.Gauge
	IntentsReceived *prometheus.CounterVec
	GamesCompleted  prometheus.Counter
}

// New registers and returns the instrument set under the given namespace.
func New(namespace string) *Metrics {
	m := &Metrics{
		PlayersOnline: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "players_online",
			Help:      "Number of websocket connections currently open",
		}),
		RoomsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "rooms_active",
			Help:      "Number of registered rooms",
		}),
		IntentsReceived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "intents_received_total",
			Help:      "Player intents received, by intent type",
		}, []string{"type"}),
		GamesCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "games_completed_total",
			Help:      "Games that reached the ended state",
		}),
	}

	prometheus.MustRegister(
		m.PlayersOnline,
		m.RoomsActive,
		m.IntentsReceived,
		m.GamesCompleted,
	)

	return m
}

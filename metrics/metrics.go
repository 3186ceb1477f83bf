// Package metrics holds the Prometheus collectors of the scoreboard service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "scoreboard"

// Metrics is safe to use as a nil pointer; every method is then a no-op.
type Metrics struct {
	commands        *prometheus.CounterVec
	commandDuration *prometheus.HistogramVec
	feedEvents      *prometheus.CounterVec
	viewers         *prometheus.GaugeVec
	imported        *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scoring_commands_total",
			Help:      "Scoring commands by kind and outcome.",
		}, []string{"command", "outcome"}),
		commandDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "scoring_command_duration_seconds",
			Help:      "Latency of scoring commands including the store round trip.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"command"}),
		feedEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feed_events_total",
			Help:      "Change-feed events applied to the server cache, by outcome.",
		}, []string{"outcome"}),
		viewers: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "viewers",
			Help:      "Open websocket connections per presence room.",
		}, []string{"room"}),
		imported: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "imported_players_total",
			Help:      "Rows processed by bulk player import, by result.",
		}, []string{"result"}),
	}
	reg.MustRegister(m.commands, m.commandDuration, m.feedEvents, m.viewers, m.imported)
	return m
}

func (m *Metrics) ObserveCommand(command, outcome string, took time.Duration) {
	if m == nil {
		return
	}
	m.commands.WithLabelValues(command, outcome).Inc()
	m.commandDuration.WithLabelValues(command).Observe(took.Seconds())
}

func (m *Metrics) FeedEvent(outcome string) {
	if m == nil {
		return
	}
	m.feedEvents.WithLabelValues(outcome).Inc()
}

func (m *Metrics) SetViewers(room string, count int) {
	if m == nil {
		return
	}
	m.viewers.WithLabelValues(room).Set(float64(count))
}

func (m *Metrics) AddImported(result string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.imported.WithLabelValues(result).Add(float64(n))
}

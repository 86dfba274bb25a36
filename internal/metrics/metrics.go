package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "planningpoker"

// Metrics groups the service collectors on a private registry. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	registry    *prometheus.Registry
	connections prometheus.Gauge
	events      *prometheus.CounterVec
	reveals     prometheus.Counter
	dropped     prometheus.Counter
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		connections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "ws_connections",
			Help:      "Open websocket connections.",
		}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ws_events_total",
			Help:      "Inbound websocket events by event name and outcome.",
		}, []string{"event", "outcome"}),
		reveals: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rounds_revealed_total",
			Help:      "Vote rounds revealed.",
		}),
		dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ws_dropped_frames_total",
			Help:      "Outbound frames dropped because a connection buffer was full.",
		}),
	}
	reg.MustRegister(
		m.connections, m.events, m.reveals, m.dropped,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// TrackRooms exposes fn as the rooms gauge.
func (m *Metrics) TrackRooms(fn func() int) {
	if m == nil {
		return
	}
	m.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "rooms",
		Help:      "Rooms holding any state.",
	}, func() float64 { return float64(fn()) }))
}

func (m *Metrics) ConnOpened() {
	if m != nil {
		m.connections.Inc()
	}
}

func (m *Metrics) ConnClosed() {
	if m != nil {
		m.connections.Dec()
	}
}

func (m *Metrics) Event(event string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.events.WithLabelValues(event, outcome).Inc()
}

func (m *Metrics) Revealed() {
	if m != nil {
		m.reveals.Inc()
	}
}

func (m *Metrics) Dropped() {
	if m != nil {
		m.dropped.Inc()
	}
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

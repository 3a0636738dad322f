// Package metrics exposes Prometheus collectors for room activity.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mcoot/gameroom/internal/model"
)

const namespace = "gameroom"

// Metrics holds the application's collectors
type Metrics struct {
	registry *prometheus.Registry

	roomsCreated  *prometheus.CounterVec
	roomsJoined   *prometheus.CounterVec
	joinsRejected *prometheus.CounterVec
	moves         *prometheus.CounterVec
	roomsFinished *prometheus.CounterVec
	wsClients     prometheus.Gauge
	requests      *prometheus.HistogramVec
}

// New creates collectors on a fresh registry
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		roomsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rooms_created_total",
			Help:      "Rooms created, by game type.",
		}, []string{"game_type"}),
		roomsJoined: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rooms_joined_total",
			Help:      "Second seats filled, by game type.",
		}, []string{"game_type"}),
		joinsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "joins_rejected_total",
			Help:      "Join attempts refused, by reason.",
		}, []string{"reason"}),
		moves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "moves_total",
			Help:      "Accepted room writes, by game type and payload kind.",
		}, []string{"game_type", "kind"}),
		roomsFinished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rooms_finished_total",
			Help:      "Writes that moved a room to finished, by game type.",
		}, []string{"game_type"}),
		wsClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "websocket_clients",
			Help:      "Connected room websocket clients.",
		}),
		requests: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "API request latency, by method, route template and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
	m.registry.MustRegister(
		m.roomsCreated,
		m.roomsJoined,
		m.joinsRejected,
		m.moves,
		m.roomsFinished,
		m.wsClients,
		m.requests,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) RoomCreated(gt model.GameType) {
	if m != nil {
		m.roomsCreated.WithLabelValues(string(gt)).Inc()
	}
}

func (m *Metrics) RoomJoined(gt model.GameType) {
	if m != nil {
		m.roomsJoined.WithLabelValues(string(gt)).Inc()
	}
}

// JoinRejected counts a refused join; reason is a short code such as "full"
func (m *Metrics) JoinRejected(reason string) {
	if m != nil {
		m.joinsRejected.WithLabelValues(reason).Inc()
	}
}

// MoveAccepted counts a write; kind is "state" or "move"
func (m *Metrics) MoveAccepted(gt model.GameType, kind string) {
	if m != nil {
		m.moves.WithLabelValues(string(gt), kind).Inc()
	}
}

func (m *Metrics) RoomFinished(gt model.GameType) {
	if m != nil {
		m.roomsFinished.WithLabelValues(string(gt)).Inc()
	}
}

func (m *Metrics) ClientConnected() {
	if m != nil {
		m.wsClients.Inc()
	}
}

func (m *Metrics) ClientDisconnected() {
	if m != nil {
		m.wsClients.Dec()
	}
}

// RequestServed observes one API request
func (m *Metrics) RequestServed(method, route, status string, elapsed time.Duration) {
	if m != nil {
		m.requests.WithLabelValues(method, route, status).Observe(elapsed.Seconds())
	}
}

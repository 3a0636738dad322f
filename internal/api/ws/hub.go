package ws

import (
	"log/slog"
	"sync"

	"github.com/mcoot/gameroom/internal/dependencies/clock"
	"github.com/mcoot/gameroom/internal/metrics"
	"github.com/mcoot/gameroom/internal/model"
)

// Hub fans messages out to the websocket clients watching one room
type Hub struct {
	roomCode model.RoomCode
	clients  map[*Client]bool
	mu       sync.RWMutex
	logger   *slog.Logger
	metrics  *metrics.Metrics
	clock    clock.Clock

	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	done       chan struct{}
	closeOnce  sync.Once
}

// NewHub creates a new Hub for a room
func NewHub(roomCode model.RoomCode, logger *slog.Logger, m *metrics.Metrics, clk clock.Clock) *Hub {
	return &Hub{
		roomCode:   roomCode,
		clients:    make(map[*Client]bool),
		logger:     logger.With(slog.String("room_code", string(roomCode))),
		metrics:    m,
		clock:      clk,
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 256),
		done:       make(chan struct{}),
	}
}

// Run starts the hub's event loop
func (h *Hub) Run() {
	h.logger.Debug("ws hub started")
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			clientCount := len(h.clients)
			h.mu.Unlock()
			h.metrics.ClientConnected()
			h.logger.Info("ws client registered",
				slog.String("player_id", string(client.playerID)),
				slog.Int("total_clients", clientCount))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				clientCount := len(h.clients)
				h.mu.Unlock()
				h.metrics.ClientDisconnected()
				h.logger.Info("ws client unregistered",
					slog.String("player_id", string(client.playerID)),
					slog.Duration("connection_duration", h.clock.Now().Sub(client.connectedAt)),
					slog.Int("total_clients", clientCount))
			} else {
				h.mu.Unlock()
			}

		case message := <-h.broadcast:
			h.mu.RLock()
			dropped := 0
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					dropped++
				}
			}
			h.mu.RUnlock()
			if dropped > 0 {
				h.logger.Warn("ws broadcast dropped for slow clients", slog.Int("dropped", dropped))
			}

		case <-h.done:
			h.mu.Lock()
			h.flush()
			clientCount := len(h.clients)
			for client := range h.clients {
				delete(h.clients, client)
				h.metrics.ClientDisconnected()
				close(client.send)
			}
			h.mu.Unlock()
			h.logger.Debug("ws hub stopped", slog.Int("disconnected_clients", clientCount))
			return
		}
	}
}

// flush hands any queued broadcasts to clients. Callers hold h.mu.
func (h *Hub) flush() {
	for {
		select {
		case message := <-h.broadcast:
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
				}
			}
		default:
			return
		}
	}
}

// Register adds a client to the hub. It returns false if the hub has stopped.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Broadcast sends a message to all clients
func (h *Hub) Broadcast(message []byte) {
	select {
	case h.broadcast <- message:
	default:
		h.logger.Warn("ws broadcast dropped - hub buffer full")
	}
}

// Close shuts down the hub
func (h *Hub) Close() {
	h.closeOnce.Do(func() { close(h.done) })
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// HubManager owns one hub per watched room and turns room events into
// snapshot frames. It implements room.Notifier.
type HubManager struct {
	hubs    map[model.RoomCode]*Hub
	mu      sync.RWMutex
	logger  *slog.Logger
	metrics *metrics.Metrics
	clock   clock.Clock
}

// NewHubManager creates a new HubManager
func NewHubManager(logger *slog.Logger, m *metrics.Metrics, clk clock.Clock) *HubManager {
	return &HubManager{
		hubs:    make(map[model.RoomCode]*Hub),
		logger:  logger.With(slog.String("component", "ws")),
		metrics: m,
		clock:   clk,
	}
}

// GetOrCreateHub returns the hub for a room, creating one if it doesn't exist
func (m *HubManager) GetOrCreateHub(code model.RoomCode) *Hub {
	m.mu.Lock()
	defer m.mu.Unlock()

	if hub, ok := m.hubs[code]; ok {
		return hub
	}

	hub := NewHub(code, m.logger, m.metrics, m.clock)
	m.hubs[code] = hub
	go hub.Run()
	return hub
}

// GetHub returns the hub for a room, or nil if it doesn't exist
func (m *HubManager) GetHub(code model.RoomCode) *Hub {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.hubs[code]
}

// RemoveHub removes and closes a hub
func (m *HubManager) RemoveHub(code model.RoomCode) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if hub, ok := m.hubs[code]; ok {
		hub.Close()
		delete(m.hubs, code)
	}
}

// CleanupEmptyHubs removes hubs with no clients
func (m *HubManager) CleanupEmptyHubs() {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for code, hub := range m.hubs {
		if hub.ClientCount() == 0 {
			hub.Close()
			delete(m.hubs, code)
			removed++
		}
	}
	if removed > 0 {
		m.logger.Info("ws empty hubs cleaned up", slog.Int("removed", removed))
	}
}

// Close stops every hub
func (m *HubManager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for code, hub := range m.hubs {
		hub.Close()
		delete(m.hubs, code)
	}
}

// Publish pushes the room snapshot in e to anyone watching that room.
// An abandoned room's hub is closed once the final snapshot is queued.
func (m *HubManager) Publish(e model.RoomEvent) {
	if e.Room == nil {
		return
	}
	hub := m.GetHub(e.Room.Code)
	if hub == nil {
		return
	}
	msg, err := RoomMessage(e.Room)
	if err != nil {
		m.logger.Error("ws failed to encode room",
			slog.String("room_code", string(e.Room.Code)),
			slog.Any("error", err))
		return
	}
	hub.Broadcast(msg)

	if e.Type == model.EventRoomAbandoned {
		m.RemoveHub(e.Room.Code)
	}
}

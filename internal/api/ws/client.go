package ws

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mcoot/gameroom/internal/model"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong from the peer
	pongWait = 60 * time.Second

	// Time between pings; must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Largest frame accepted from the peer
	maxMessageSize = 4096

	// Buffer size for outgoing messages
	sendBufferSize = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Client is one websocket connection watching a room
type Client struct {
	hub         *Hub
	conn        *websocket.Conn
	playerID    model.PlayerID
	displayName string
	send        chan []byte
	connectedAt time.Time
}

// NewClient creates a new client. conn may be nil in tests that only
// exercise the hub.
func NewClient(hub *Hub, conn *websocket.Conn, playerID model.PlayerID, displayName string) *Client {
	return &Client{
		hub:         hub,
		conn:        conn,
		playerID:    playerID,
		displayName: displayName,
		send:        make(chan []byte, sendBufferSize),
		connectedAt: hub.clock.Now(),
	}
}

// ServeWS upgrades the request, sends initial as the first frame and then
// pumps hub messages out and chat messages in until either side closes.
func ServeWS(w http.ResponseWriter, r *http.Request, hub *Hub, player *model.Player, initial []byte) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		hub.logger.Warn("ws upgrade failed", slog.Any("error", err))
		return
	}

	client := NewClient(hub, conn, player.ID, player.DisplayName)
	if initial != nil {
		client.send <- initial
	}
	if !hub.Register(client) {
		_ = conn.Close()
		return
	}

	go client.writePump()
	client.readPump()
}

func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Debug("ws read error",
					slog.String("player_id", string(c.playerID)),
					slog.Any("error", err))
			}
			return
		}
		if msg := chatMessage(raw, c.playerID, c.displayName); msg != nil {
			c.hub.Broadcast(msg)
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub closed the channel
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

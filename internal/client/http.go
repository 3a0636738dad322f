// Package client implements the Room Client contract used by the
// synchronization engine: a REST client for a remote room server and an
// in-process client over the room controller.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mcoot/gameroom/internal/api/request"
	"github.com/mcoot/gameroom/internal/api/response"
	"github.com/mcoot/gameroom/internal/model"
)

// DefaultTimeout bounds every request made by an HTTP client
const DefaultTimeout = 30 * time.Second

// HTTP is a Room Client talking to the REST API
type HTTP struct {
	baseURL    string
	token      string
	playerID   model.PlayerID
	httpClient *http.Client
}

// NewHTTP creates a new API client
func NewHTTP(baseURL, token string) *HTTP {
	return &HTTP{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}
}

// SetToken updates the client's token
func (c *HTTP) SetToken(token string) {
	c.token = token
}

// Token returns the session token in use
func (c *HTTP) Token() string {
	return c.token
}

// BaseURL returns the server address
func (c *HTTP) BaseURL() string {
	return c.baseURL
}

// PlayerID returns the player resolved by Identify
func (c *HTTP) PlayerID() model.PlayerID {
	return c.playerID
}

// Identify looks up the player that owns the token and remembers its ID
func (c *HTTP) Identify(ctx context.Context) (*model.Player, error) {
	var resp response.Player
	if err := c.Get(ctx, "/api/v1/players/me", &resp); err != nil {
		return nil, err
	}
	p := resp.ToModel()
	c.playerID = p.ID
	return &p, nil
}

// Do performs an HTTP request
func (c *HTTP) Do(ctx context.Context, method, path string, body, result any) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var errResp ErrorResponse
		if err := json.Unmarshal(respBody, &errResp); err == nil && errResp.Error.Code != "" {
			errResp.Error.Status = resp.StatusCode
			return &errResp.Error
		}
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(respBody))
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}
	}

	return nil
}

// Get performs a GET request
func (c *HTTP) Get(ctx context.Context, path string, result any) error {
	return c.Do(ctx, http.MethodGet, path, nil, result)
}

// Post performs a POST request
func (c *HTTP) Post(ctx context.Context, path string, body, result any) error {
	return c.Do(ctx, http.MethodPost, path, body, result)
}

func roomPath(code model.RoomCode, suffix string) string {
	return "/api/v1/rooms/" + url.PathEscape(string(code)) + suffix
}

func (c *HTTP) roomCall(ctx context.Context, path string, body any) (*model.Room, error) {
	var resp response.Room
	if err := c.Post(ctx, path, body, &resp); err != nil {
		return nil, err
	}
	return resp.ToModel(), nil
}

// Create opens a new room with this player in seat 0
func (c *HTTP) Create(ctx context.Context, gameType model.GameType) (*model.Room, error) {
	return c.roomCall(ctx, "/api/v1/rooms", request.CreateRoomRequest{GameType: string(gameType)})
}

// Join takes the free seat in a room
func (c *HTTP) Join(ctx context.Context, code model.RoomCode) (*model.Room, error) {
	return c.roomCall(ctx, roomPath(code, "/join"), struct{}{})
}

// Fetch reads the current room
func (c *HTTP) Fetch(ctx context.Context, code model.RoomCode) (*model.Room, error) {
	var resp response.Room
	if err := c.Get(ctx, roomPath(code, ""), &resp); err != nil {
		return nil, err
	}
	return resp.ToModel(), nil
}

// Move writes a state or move payload to the room
func (c *HTTP) Move(ctx context.Context, code model.RoomCode, payload model.MovePayload) (*model.Room, error) {
	return c.roomCall(ctx, roomPath(code, "/move"), request.MoveRequestFromModel(payload))
}

// Abandon marks the room abandoned
func (c *HTTP) Abandon(ctx context.Context, code model.RoomCode) (*model.Room, error) {
	return c.roomCall(ctx, roomPath(code, "/abandon"), struct{}{})
}

// List returns rooms, optionally filtered by status
func (c *HTTP) List(ctx context.Context, status model.RoomStatus) ([]*model.Room, error) {
	path := "/api/v1/rooms"
	if status != "" {
		path += "?status=" + url.QueryEscape(string(status))
	}
	var resp response.RoomList
	if err := c.Get(ctx, path, &resp); err != nil {
		return nil, err
	}
	rooms := make([]*model.Room, len(resp.Rooms))
	for i, r := range resp.Rooms {
		rooms[i] = r.ToModel()
	}
	return rooms, nil
}

// AddBot asks the server to seat a bot in a waiting room
func (c *HTTP) AddBot(ctx context.Context, code model.RoomCode, strategy string) (*model.Player, *model.Room, error) {
	var resp response.BotAdded
	if err := c.Post(ctx, roomPath(code, "/bots"), request.AddBotRequest{Strategy: strategy}, &resp); err != nil {
		return nil, nil, err
	}
	bot := resp.Bot.ToModel()
	return &bot, resp.Room.ToModel(), nil
}

// WatchURL returns the WebSocket address for a room, carrying the token as
// a query parameter
func (c *HTTP) WatchURL(code model.RoomCode) (string, error) {
	u, err := url.Parse(c.baseURL + roomPath(code, "/ws"))
	if err != nil {
		return "", fmt.Errorf("invalid server address: %w", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	if c.token != "" {
		q := u.Query()
		q.Set("token", c.token)
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

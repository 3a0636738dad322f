package response

import (
	"encoding/json"
	"time"

	"github.com/mcoot/gameroom/internal/model"
	"github.com/mcoot/gameroom/internal/services/auth"
)

// Player represents a player in API responses
type Player struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	IsGuest     bool   `json:"is_guest"`
	IsBot       bool   `json:"is_bot,omitempty"`
}

// PlayerFromModel converts a model.Player to a response Player
func PlayerFromModel(p *model.Player) Player {
	return Player{
		ID:          string(p.ID),
		DisplayName: p.DisplayName,
		IsGuest:     p.IsGuest,
		IsBot:       p.IsBot,
	}
}

// ToModel converts back to a model.Player
func (p Player) ToModel() model.Player {
	return model.Player{
		ID:          model.PlayerID(p.ID),
		DisplayName: p.DisplayName,
		IsGuest:     p.IsGuest,
		IsBot:       p.IsBot,
	}
}

// AuthResponse is the response for authentication endpoints
type AuthResponse struct {
	Player       Player `json:"player"`
	SessionToken string `json:"session_token"`
}

// AuthResponseFromSession creates an AuthResponse from a session
func AuthResponseFromSession(s *auth.Session) AuthResponse {
	return AuthResponse{
		Player:       PlayerFromModel(&s.Player),
		SessionToken: s.Token,
	}
}

// RoomPlayer is an occupied seat
type RoomPlayer struct {
	PlayerID    string    `json:"player_id"`
	DisplayName string    `json:"display_name"`
	Seat        int       `json:"seat"`
	Label       string    `json:"label"`
	JoinedAt    time.Time `json:"joined_at"`
}

// Room represents a room in API responses
type Room struct {
	Code      string          `json:"code"`
	GameType  string          `json:"game_type"`
	HostID    string          `json:"host_id"`
	Players   []RoomPlayer    `json:"players"`
	Status    string          `json:"status"`
	State     json.RawMessage `json:"state"`
	Version   int64           `json:"version"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// RoomFromModel converts model.Room
func RoomFromModel(r *model.Room) Room {
	players := make([]RoomPlayer, len(r.Players))
	for i, p := range r.Players {
		players[i] = RoomPlayer{
			PlayerID:    string(p.PlayerID),
			DisplayName: p.DisplayName,
			Seat:        int(p.Seat),
			Label:       p.Label,
			JoinedAt:    p.JoinedAt,
		}
	}
	return Room{
		Code:      string(r.Code),
		GameType:  string(r.GameType),
		HostID:    string(r.HostID),
		Players:   players,
		Status:    string(r.Status),
		State:     r.State,
		Version:   r.Version,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

// ToModel converts back to a model.Room
func (r Room) ToModel() *model.Room {
	players := make([]model.RoomPlayer, len(r.Players))
	for i, p := range r.Players {
		players[i] = model.RoomPlayer{
			PlayerID:    model.PlayerID(p.PlayerID),
			DisplayName: p.DisplayName,
			Seat:        model.Seat(p.Seat),
			Label:       p.Label,
			JoinedAt:    p.JoinedAt,
		}
	}
	return &model.Room{
		Code:      model.RoomCode(r.Code),
		GameType:  model.GameType(r.GameType),
		HostID:    model.PlayerID(r.HostID),
		Players:   players,
		Status:    model.RoomStatus(r.Status),
		State:     r.State,
		Version:   r.Version,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

// RoomList is the response for listing rooms
type RoomList struct {
	Rooms []Room `json:"rooms"`
}

// RoomListFromModel converts a slice of rooms
func RoomListFromModel(rooms []*model.Room) RoomList {
	out := RoomList{Rooms: make([]Room, len(rooms))}
	for i, r := range rooms {
		out.Rooms[i] = RoomFromModel(r)
	}
	return out
}

// BotAdded is the response after a bot takes a seat
type BotAdded struct {
	Bot  Player `json:"bot"`
	Room Room   `json:"room"`
}

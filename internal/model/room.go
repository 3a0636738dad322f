package model

import (
	"encoding/json"
	"time"
)

// RoomCode is the short code players share to join a room
type RoomCode string

// GameType selects the rule module a room is played under
type GameType string

const (
	GameTicTacToe         GameType = "tic-tac-toe"
	GameConnectFour       GameType = "connect-four"
	GameRockPaperScissors GameType = "rock-paper-scissors"
	GameMemoryMatch       GameType = "memory-match"
)

// GameTypes lists every supported game type
var GameTypes = []GameType{
	GameTicTacToe,
	GameConnectFour,
	GameRockPaperScissors,
	GameMemoryMatch,
}

// Valid reports whether g is a supported game type
func (g GameType) Valid() bool {
	for _, t := range GameTypes {
		if t == g {
			return true
		}
	}
	return false
}

// RoomStatus is the lifecycle status of a room
type RoomStatus string

const (
	RoomWaiting    RoomStatus = "waiting"
	RoomInProgress RoomStatus = "in-progress"
	RoomFinished   RoomStatus = "finished"
	RoomAbandoned  RoomStatus = "abandoned"
)

// RoomCapacity is the number of seats in every room
const RoomCapacity = 2

// Seat is a player slot in a room, assigned in join order
type Seat int

const (
	SeatHost  Seat = 0
	SeatGuest Seat = 1
)

// Other returns the opposing seat
func (s Seat) Other() Seat {
	return 1 - s
}

// Valid reports whether s is one of the two seats
func (s Seat) Valid() bool {
	return s == SeatHost || s == SeatGuest
}

// RoomPlayer is an occupied seat
type RoomPlayer struct {
	PlayerID    PlayerID
	DisplayName string
	Seat        Seat
	Label       string // rule module label for the seat, e.g. "X" or "red"
	JoinedAt    time.Time
}

// Room is one match between two players. State is opaque outside the
// room's rule module and is always replaced as a whole.
type Room struct {
	Code      RoomCode
	GameType  GameType
	HostID    PlayerID
	Players   []RoomPlayer
	Status    RoomStatus
	State     json.RawMessage
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// GetPlayer returns the seated player with the given ID, or nil
func (r *Room) GetPlayer(id PlayerID) *RoomPlayer {
	for i := range r.Players {
		if r.Players[i].PlayerID == id {
			return &r.Players[i]
		}
	}
	return nil
}

// SeatOf returns the seat occupied by the given player
func (r *Room) SeatOf(id PlayerID) (Seat, bool) {
	if p := r.GetPlayer(id); p != nil {
		return p.Seat, true
	}
	return 0, false
}

// IsFull reports whether both seats are taken
func (r *Room) IsFull() bool {
	return len(r.Players) >= RoomCapacity
}

// Clone returns a deep copy of the room
func (r *Room) Clone() *Room {
	c := *r
	c.Players = append([]RoomPlayer(nil), r.Players...)
	if r.State != nil {
		c.State = append(json.RawMessage(nil), r.State...)
	}
	return &c
}

// Move is a single game action. Position is a cell, column or card index
// depending on the game; Choice is used by rock-paper-scissors.
type Move struct {
	Position int    `json:"position"`
	Choice   string `json:"choice,omitempty"`
}

// MovePayload is a write against a room. Exactly one of State or Move is set.
// State replaces the stored state outright; Move is interpreted by the server.
type MovePayload struct {
	State           json.RawMessage
	Move            *Move
	ExpectedVersion *int64
}

package model

import "time"

// EventType identifies the type of room event
type EventType string

const (
	EventRoomCreated   EventType = "room_created"
	EventPlayerJoined  EventType = "player_joined"
	EventStateChanged  EventType = "state_changed"
	EventRoomAbandoned EventType = "room_abandoned"
)

// RoomEvent is published after every successful write to a room
type RoomEvent struct {
	Type      EventType
	Timestamp time.Time
	PlayerID  PlayerID // The player who made the change
	Room      *Room    // Snapshot after the change
}

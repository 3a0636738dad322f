package model

import "time"

// PlayerID uniquely identifies a player across the system
type PlayerID string

// Player is anyone who can sit in a room
type Player struct {
	ID          PlayerID
	DisplayName string
	IsGuest     bool
	IsBot       bool
	BotStrategy string // strategy name, bots only
	CreatedAt   time.Time
}

// RegisteredPlayer holds the login credentials for a non-guest player.
// It is stored apart from Player so password hashes never travel with room data.
type RegisteredPlayer struct {
	PlayerID     PlayerID
	Username     string
	PasswordHash string // bcrypt
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

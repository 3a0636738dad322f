package model

import "errors"

// Common errors used across the application
var (
	// Player errors
	ErrPlayerNotFound     = errors.New("player not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidSession     = errors.New("invalid or expired session")
	ErrUsernameExists     = errors.New("username already exists")

	// Room errors
	ErrRoomNotFound    = errors.New("room not found")
	ErrRoomFull        = errors.New("room is full")
	ErrAlreadyJoined   = errors.New("player has already joined this room")
	ErrNotInRoom       = errors.New("player is not in this room")
	ErrNotHost         = errors.New("only the room host can do this")
	ErrRoomNotStarted  = errors.New("room is still waiting for an opponent")
	ErrRoomAbandoned   = errors.New("room has been abandoned")
	ErrVersionConflict = errors.New("room has changed since it was last read")

	// Game errors
	ErrUnknownGameType = errors.New("unknown game type")
	ErrInvalidState    = errors.New("invalid game state")
	ErrIllegalMove     = errors.New("illegal move")
	ErrInvalidPayload  = errors.New("move payload must carry exactly one of state or move")

	// Bot errors
	ErrUnknownStrategy = errors.New("unknown bot strategy")
)

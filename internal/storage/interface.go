package storage

import (
	"context"

	"github.com/mcoot/gameroom/internal/model"
)

// RoomUpdateFunc mutates a room in place. Returning an error aborts the
// update and leaves the stored room untouched.
type RoomUpdateFunc func(room *model.Room) error

// Storage defines the interface for data persistence
type Storage interface {
	// Player operations
	SavePlayer(ctx context.Context, player *model.Player) error
	GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error)
	DeletePlayer(ctx context.Context, id model.PlayerID) error

	// Registered player operations
	SaveRegisteredPlayer(ctx context.Context, rp *model.RegisteredPlayer) error
	GetRegisteredPlayer(ctx context.Context, playerID model.PlayerID) (*model.RegisteredPlayer, error)
	GetRegisteredPlayerByUsername(ctx context.Context, username string) (*model.RegisteredPlayer, error)

	// Room operations
	SaveRoom(ctx context.Context, room *model.Room) error
	GetRoom(ctx context.Context, code model.RoomCode) (*model.Room, error)
	DeleteRoom(ctx context.Context, code model.RoomCode) error
	RoomExists(ctx context.Context, code model.RoomCode) (bool, error)
	ListRooms(ctx context.Context) ([]*model.Room, error)

	// UpdateRoom applies fn to the current room atomically with respect to
	// other UpdateRoom calls on the same code and returns the stored result
	UpdateRoom(ctx context.Context, code model.RoomCode, fn RoomUpdateFunc) (*model.Room, error)
}

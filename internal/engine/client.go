package engine

import (
	"context"

	"github.com/mcoot/gameroom/internal/model"
)

// RoomClient is how the engine reaches the room store. Errors for domain
// rejections must match the model sentinels under errors.Is; anything else
// is treated as a transport failure.
type RoomClient interface {
	PlayerID() model.PlayerID
	Create(ctx context.Context, gameType model.GameType) (*model.Room, error)
	Join(ctx context.Context, code model.RoomCode) (*model.Room, error)
	Fetch(ctx context.Context, code model.RoomCode) (*model.Room, error)
	Move(ctx context.Context, code model.RoomCode, payload model.MovePayload) (*model.Room, error)
}

// Abandoner is implemented by clients that can abandon a room
type Abandoner interface {
	Abandon(ctx context.Context, code model.RoomCode) (*model.Room, error)
}

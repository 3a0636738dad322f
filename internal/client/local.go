package client

import (
	"context"

	"github.com/mcoot/gameroom/internal/model"
	"github.com/mcoot/gameroom/internal/services/room"
)

// Local is a Room Client that calls a room controller in the same process
type Local struct {
	rooms  room.ControllerInterface
	player model.Player
}

// NewLocal creates a client acting as player
func NewLocal(rooms room.ControllerInterface, player model.Player) *Local {
	return &Local{
		rooms:  rooms,
		player: player,
	}
}

func (c *Local) PlayerID() model.PlayerID {
	return c.player.ID
}

func (c *Local) Create(ctx context.Context, gameType model.GameType) (*model.Room, error) {
	return c.rooms.CreateRoom(ctx, c.player, gameType)
}

func (c *Local) Join(ctx context.Context, code model.RoomCode) (*model.Room, error) {
	return c.rooms.JoinRoom(ctx, code, c.player)
}

func (c *Local) Fetch(ctx context.Context, code model.RoomCode) (*model.Room, error) {
	return c.rooms.GetRoom(ctx, code)
}

func (c *Local) Move(ctx context.Context, code model.RoomCode, payload model.MovePayload) (*model.Room, error) {
	return c.rooms.Move(ctx, code, c.player.ID, payload)
}

// Abandon marks the room abandoned
func (c *Local) Abandon(ctx context.Context, code model.RoomCode) (*model.Room, error) {
	return c.rooms.AbandonRoom(ctx, code, c.player.ID)
}

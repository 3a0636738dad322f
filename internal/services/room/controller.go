package room

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mcoot/gameroom/internal/dependencies/clock"
	"github.com/mcoot/gameroom/internal/dependencies/random"
	"github.com/mcoot/gameroom/internal/metrics"
	"github.com/mcoot/gameroom/internal/model"
	"github.com/mcoot/gameroom/internal/rules"
	"github.com/mcoot/gameroom/internal/storage"
)

const (
	// RoomCodeLength is the length of generated room codes
	RoomCodeLength = 6
	// RoomCodeAlphabet is the characters used in room codes (avoid confusing chars)
	RoomCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

	maxCodeAttempts = 32
)

// ErrCodeSpaceExhausted is returned when no free room code could be drawn
var ErrCodeSpaceExhausted = errors.New("could not allocate a free room code")

// Notifier receives every room change after it is stored
type Notifier interface {
	Publish(event model.RoomEvent)
}

// Controller is the authoritative room store: it owns seat assignment,
// status transitions and the version counter
type Controller struct {
	storage  storage.Storage
	rules    *rules.Registry
	notifier Notifier
	metrics  *metrics.Metrics
	clock    clock.Clock
	random   random.Random
	logger   *slog.Logger
}

// NewController creates a new room Controller. notifier and m may be nil.
func NewController(
	storage storage.Storage,
	registry *rules.Registry,
	notifier Notifier,
	m *metrics.Metrics,
	clock clock.Clock,
	random random.Random,
	logger *slog.Logger,
) *Controller {
	return &Controller{
		storage:  storage,
		rules:    registry,
		notifier: notifier,
		metrics:  m,
		clock:    clock,
		random:   random,
		logger:   logger.With(slog.String("component", "room-controller")),
	}
}

// CreateRoom allocates a room with host in seat 0 and the game's initial state
func (c *Controller) CreateRoom(ctx context.Context, host model.Player, gameType model.GameType) (*model.Room, error) {
	module, err := c.rules.Get(gameType)
	if err != nil {
		return nil, err
	}
	state, err := module.Encode(module.InitialState(c.random))
	if err != nil {
		return nil, err
	}

	code, err := c.newCode(ctx)
	if err != nil {
		return nil, err
	}

	now := c.clock.Now()
	room := &model.Room{
		Code:     code,
		GameType: gameType,
		HostID:   host.ID,
		Players: []model.RoomPlayer{
			{
				PlayerID:    host.ID,
				DisplayName: host.DisplayName,
				Seat:        model.SeatHost,
				Label:       rules.Label(module, model.SeatHost),
				JoinedAt:    now,
			},
		},
		Status:    model.RoomWaiting,
		State:     state,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := c.storage.SaveRoom(ctx, room); err != nil {
		return nil, err
	}

	c.metrics.RoomCreated(gameType)
	c.logger.Info("room created",
		slog.String("room_code", string(code)),
		slog.String("game_type", string(gameType)),
		slog.String("host_id", string(host.ID)),
	)
	c.publish(model.EventRoomCreated, host.ID, room)
	return room, nil
}

func (c *Controller) newCode(ctx context.Context) (model.RoomCode, error) {
	for i := 0; i < maxCodeAttempts; i++ {
		code := model.RoomCode(c.random.String(RoomCodeLength, RoomCodeAlphabet))
		if code == "" {
			continue
		}
		exists, err := c.storage.RoomExists(ctx, code)
		if err != nil {
			return "", err
		}
		if !exists {
			return code, nil
		}
	}
	return "", ErrCodeSpaceExhausted
}

// GetRoom retrieves a room by code. It never mutates.
func (c *Controller) GetRoom(ctx context.Context, code model.RoomCode) (*model.Room, error) {
	return c.storage.GetRoom(ctx, code)
}

// ListRooms returns rooms newest first, optionally filtered by status
func (c *Controller) ListRooms(ctx context.Context, status model.RoomStatus) ([]*model.Room, error) {
	rooms, err := c.storage.ListRooms(ctx)
	if err != nil {
		return nil, err
	}
	if status == "" {
		return rooms, nil
	}
	filtered := rooms[:0]
	for _, r := range rooms {
		if r.Status == status {
			filtered = append(filtered, r)
		}
	}
	return filtered, nil
}

// JoinRoom seats player in seat 1 and starts the game. Joining a room the
// player already sits in fails with ErrAlreadyJoined and changes nothing.
func (c *Controller) JoinRoom(ctx context.Context, code model.RoomCode, player model.Player) (*model.Room, error) {
	room, err := c.storage.UpdateRoom(ctx, code, func(r *model.Room) error {
		if r.GetPlayer(player.ID) != nil {
			return model.ErrAlreadyJoined
		}
		if r.Status == model.RoomAbandoned {
			return model.ErrRoomAbandoned
		}
		if r.IsFull() {
			return model.ErrRoomFull
		}
		module, err := c.rules.Get(r.GameType)
		if err != nil {
			return err
		}

		now := c.clock.Now()
		seat := model.Seat(len(r.Players))
		r.Players = append(r.Players, model.RoomPlayer{
			PlayerID:    player.ID,
			DisplayName: player.DisplayName,
			Seat:        seat,
			Label:       rules.Label(module, seat),
			JoinedAt:    now,
		})
		if r.IsFull() {
			r.Status = model.RoomInProgress
		}
		r.Version++
		r.UpdatedAt = now
		return nil
	})
	if err != nil {
		c.metrics.JoinRejected(joinRejectReason(err))
		return nil, err
	}

	c.metrics.RoomJoined(room.GameType)
	c.logger.Info("player joined room",
		slog.String("room_code", string(code)),
		slog.String("player_id", string(player.ID)),
		slog.String("status", string(room.Status)),
	)
	c.publish(model.EventPlayerJoined, player.ID, room)
	return room, nil
}

func joinRejectReason(err error) string {
	switch {
	case errors.Is(err, model.ErrRoomNotFound):
		return "not_found"
	case errors.Is(err, model.ErrAlreadyJoined):
		return "already_joined"
	case errors.Is(err, model.ErrRoomFull):
		return "full"
	case errors.Is(err, model.ErrRoomAbandoned):
		return "abandoned"
	default:
		return "error"
	}
}

// Move writes to a room on behalf of a seated player.
//
// A State payload replaces the stored state wholesale after it decodes
// cleanly; no legality check is made and the last write wins. A Move payload
// is checked and applied against the stored state. Status is recomputed from
// the new state on every write and Version always advances.
func (c *Controller) Move(ctx context.Context, code model.RoomCode, playerID model.PlayerID, payload model.MovePayload) (*model.Room, error) {
	if (payload.State == nil) == (payload.Move == nil) {
		return nil, model.ErrInvalidPayload
	}
	kind := "state"
	if payload.Move != nil {
		kind = "move"
	}

	room, err := c.storage.UpdateRoom(ctx, code, func(r *model.Room) error {
		seat, ok := r.SeatOf(playerID)
		if !ok {
			return model.ErrNotInRoom
		}
		if r.Status == model.RoomAbandoned {
			return model.ErrRoomAbandoned
		}
		if !r.IsFull() {
			return model.ErrRoomNotStarted
		}
		if v := payload.ExpectedVersion; v != nil && *v != r.Version {
			return fmt.Errorf("%w: expected version %d, room is at %d", model.ErrVersionConflict, *v, r.Version)
		}

		module, err := c.rules.Get(r.GameType)
		if err != nil {
			return err
		}
		next, err := c.nextState(module, r, seat, payload)
		if err != nil {
			return err
		}
		raw, err := module.Encode(next)
		if err != nil {
			return err
		}

		r.State = raw
		r.Status = model.RoomInProgress
		if module.CheckTerminal(next) != nil {
			r.Status = model.RoomFinished
		}
		r.Version++
		r.UpdatedAt = c.clock.Now()
		return nil
	})
	if err != nil {
		c.logger.Debug("move rejected",
			slog.String("room_code", string(code)),
			slog.String("player_id", string(playerID)),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	c.metrics.MoveAccepted(room.GameType, kind)
	if room.Status == model.RoomFinished {
		c.metrics.RoomFinished(room.GameType)
	}
	c.logger.Info("room state written",
		slog.String("room_code", string(code)),
		slog.String("player_id", string(playerID)),
		slog.String("kind", kind),
		slog.Int64("version", room.Version),
		slog.String("status", string(room.Status)),
	)
	c.publish(model.EventStateChanged, playerID, room)
	return room, nil
}

func (c *Controller) nextState(module rules.Module, r *model.Room, seat model.Seat, payload model.MovePayload) (rules.State, error) {
	if payload.State != nil {
		return module.Decode(payload.State)
	}
	current, err := module.Decode(r.State)
	if err != nil {
		return nil, err
	}
	if !module.IsLegalMove(current, seat, *payload.Move) {
		return nil, model.ErrIllegalMove
	}
	return module.ApplyMove(current, seat, *payload.Move), nil
}

// AbandonRoom marks a room abandoned. Only seated players may do so.
func (c *Controller) AbandonRoom(ctx context.Context, code model.RoomCode, playerID model.PlayerID) (*model.Room, error) {
	room, err := c.storage.UpdateRoom(ctx, code, func(r *model.Room) error {
		if r.GetPlayer(playerID) == nil {
			return model.ErrNotInRoom
		}
		if r.Status == model.RoomAbandoned {
			return nil
		}
		r.Status = model.RoomAbandoned
		r.Version++
		r.UpdatedAt = c.clock.Now()
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.logger.Info("room abandoned",
		slog.String("room_code", string(code)),
		slog.String("player_id", string(playerID)),
	)
	c.publish(model.EventRoomAbandoned, playerID, room)
	return room, nil
}

// Module returns the rule module for a room's game type
func (c *Controller) Module(gameType model.GameType) (rules.Module, error) {
	return c.rules.Get(gameType)
}

func (c *Controller) publish(t model.EventType, playerID model.PlayerID, room *model.Room) {
	if c.notifier == nil {
		return
	}
	c.notifier.Publish(model.RoomEvent{
		Type:      t,
		Timestamp: c.clock.Now(),
		PlayerID:  playerID,
		Room:      room.Clone(),
	})
}

// Interface for dependency injection
type ControllerInterface interface {
	CreateRoom(ctx context.Context, host model.Player, gameType model.GameType) (*model.Room, error)
	GetRoom(ctx context.Context, code model.RoomCode) (*model.Room, error)
	ListRooms(ctx context.Context, status model.RoomStatus) ([]*model.Room, error)
	JoinRoom(ctx context.Context, code model.RoomCode, player model.Player) (*model.Room, error)
	Move(ctx context.Context, code model.RoomCode, playerID model.PlayerID, payload model.MovePayload) (*model.Room, error)
	AbandonRoom(ctx context.Context, code model.RoomCode, playerID model.PlayerID) (*model.Room, error)
	Module(gameType model.GameType) (rules.Module, error)
}

var _ ControllerInterface = (*Controller)(nil)

package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mcoot/gameroom/internal/dependencies/clock"
	"github.com/mcoot/gameroom/internal/dependencies/random"
	"github.com/mcoot/gameroom/internal/model"
	"github.com/mcoot/gameroom/internal/services/room"
	"github.com/mcoot/gameroom/internal/storage"
)

const (
	// PlayerIDAlphabet is the character set for generating bot player IDs
	PlayerIDAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
	// PlayerIDLength is the length of generated bot player IDs
	PlayerIDLength = 16
	// MaxBotIterations is a safety limit for the ProcessBotActions loop
	MaxBotIterations = 1000
)

// ErrUnknownStrategy is returned when a bot is requested with a strategy that is not registered
var ErrUnknownStrategy = model.ErrUnknownStrategy

// BotAction is a single move a bot made during ProcessBotActions
type BotAction struct {
	PlayerID model.PlayerID
	Seat     model.Seat
	Move     model.Move
	Version  int64
}

// Service seats bot players in rooms and plays their moves server side
type Service struct {
	storage    storage.Storage
	rooms      *room.Controller
	strategies map[string]Strategy
	clock      clock.Clock
	random     random.Random
	logger     *slog.Logger
}

// NewService creates a new bot Service
func NewService(
	store storage.Storage,
	rooms *room.Controller,
	strategies map[string]Strategy,
	clk clock.Clock,
	rnd random.Random,
	logger *slog.Logger,
) *Service {
	return &Service{
		storage:    store,
		rooms:      rooms,
		strategies: strategies,
		clock:      clk,
		random:     rnd,
		logger:     logger.With(slog.String("component", "bot-service")),
	}
}

// Strategy returns the named strategy
func (s *Service) Strategy(name string) (Strategy, error) {
	st, ok := s.strategies[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownStrategy, name)
	}
	return st, nil
}

// CreateBotPlayer creates a new bot player and saves it to storage
func (s *Service) CreateBotPlayer(ctx context.Context, displayName string, strategy string) (*model.Player, error) {
	player := &model.Player{
		ID:          model.PlayerID("bot-" + s.random.String(PlayerIDLength, PlayerIDAlphabet)),
		DisplayName: displayName,
		IsGuest:     true,
		IsBot:       true,
		BotStrategy: strategy,
		CreatedAt:   s.clock.Now(),
	}

	if err := s.storage.SavePlayer(ctx, player); err != nil {
		return nil, err
	}

	return player, nil
}

// AddBotToRoom creates a bot player and seats it in the room.
// Only the room host can add a bot, and only while the room is waiting.
func (s *Service) AddBotToRoom(ctx context.Context, code model.RoomCode, requestingPlayerID model.PlayerID, strategy string) (*model.Player, *model.Room, error) {
	if strategy == "" {
		strategy = StrategyRandom
	}
	if _, err := s.Strategy(strategy); err != nil {
		return nil, nil, err
	}

	r, err := s.rooms.GetRoom(ctx, code)
	if err != nil {
		return nil, nil, err
	}
	if r.HostID != requestingPlayerID {
		return nil, nil, model.ErrNotHost
	}
	switch {
	case r.Status == model.RoomAbandoned:
		return nil, nil, model.ErrRoomAbandoned
	case r.IsFull():
		return nil, nil, model.ErrRoomFull
	}

	bot, err := s.CreateBotPlayer(ctx, fmt.Sprintf("Bot (%s)", strategy), strategy)
	if err != nil {
		return nil, nil, err
	}

	r, err = s.rooms.JoinRoom(ctx, code, *bot)
	if err != nil {
		return nil, nil, err
	}

	s.logger.Info("bot added to room",
		slog.String("room_code", string(code)),
		slog.String("bot_id", string(bot.ID)),
		slog.String("strategy", strategy),
	)

	return bot, r, nil
}

// ProcessBotActions lets seated bots move until a human is to act or the
// room is no longer in progress. It returns every move made.
func (s *Service) ProcessBotActions(ctx context.Context, code model.RoomCode) ([]BotAction, error) {
	var actions []BotAction

	for i := 0; i < MaxBotIterations; i++ {
		r, err := s.rooms.GetRoom(ctx, code)
		if err != nil {
			return actions, err
		}
		if r.Status != model.RoomInProgress {
			break
		}

		acted, err := s.actOnce(ctx, r)
		if errors.Is(err, model.ErrVersionConflict) {
			continue // Room moved under us; re-read
		}
		if err != nil {
			return actions, err
		}
		if acted == nil {
			break // No bot has a legal move
		}
		actions = append(actions, *acted)
	}

	return actions, nil
}

// actOnce makes at most one bot move against r
func (s *Service) actOnce(ctx context.Context, r *model.Room) (*BotAction, error) {
	module, err := s.rooms.Module(r.GameType)
	if err != nil {
		return nil, err
	}
	state, err := module.Decode(r.State)
	if err != nil {
		return nil, err
	}

	for _, seated := range r.Players {
		player, err := s.storage.GetPlayer(ctx, seated.PlayerID)
		if err != nil {
			if errors.Is(err, model.ErrPlayerNotFound) {
				continue
			}
			return nil, err
		}
		if !player.IsBot {
			continue
		}

		move, ok := s.strategyForPlayer(player).ChooseMove(module, state, seated.Seat)
		if !ok {
			continue
		}

		// Only valid against the snapshot the move was chosen from
		expected := r.Version
		updated, err := s.rooms.Move(ctx, r.Code, player.ID, model.MovePayload{
			Move:            &move,
			ExpectedVersion: &expected,
		})
		if err != nil {
			return nil, err
		}

		s.logger.Debug("bot moved",
			slog.String("room_code", string(r.Code)),
			slog.String("bot_id", string(player.ID)),
			slog.Int("position", move.Position),
			slog.String("choice", move.Choice),
		)
		return &BotAction{
			PlayerID: player.ID,
			Seat:     seated.Seat,
			Move:     move,
			Version:  updated.Version,
		}, nil
	}
	return nil, nil
}

// strategyForPlayer returns the strategy for a bot player, falling back to
// random if the player's strategy is not found
func (s *Service) strategyForPlayer(player *model.Player) Strategy {
	if st, ok := s.strategies[player.BotStrategy]; ok {
		return st
	}
	if st, ok := s.strategies[StrategyRandom]; ok {
		return st
	}
	return NewRandomStrategy(s.random)
}

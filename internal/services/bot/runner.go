package bot

import (
	"context"
	"log/slog"

	"github.com/mcoot/gameroom/internal/engine"
)

// Runner plays one seat through a synchronization engine, the same way a
// human client would
type Runner struct {
	engine    *engine.Engine
	strategy  Strategy
	maxRounds int
	logger    *slog.Logger
}

// NewRunner creates a runner for an engine that has already entered a room.
// maxRounds bounds round-based games; zero means no bound.
func NewRunner(e *engine.Engine, strategy Strategy, maxRounds int, logger *slog.Logger) *Runner {
	return &Runner{
		engine:    e,
		strategy:  strategy,
		maxRounds: maxRounds,
		logger:    logger.With(slog.String("component", "bot-runner")),
	}
}

// Run reacts to engine updates until the room finishes or is abandoned, the
// round limit is reached, the engine closes or ctx is cancelled. It returns
// the number of moves played.
func (r *Runner) Run(ctx context.Context) (int, error) {
	played := 0
	rounds := 0
	inResult := false

	for {
		var v engine.View
		select {
		case <-ctx.Done():
			return played, ctx.Err()
		case update, ok := <-r.engine.Updates():
			if !ok {
				return played, nil
			}
			v = update
		}

		switch v.Phase {
		case engine.PhaseFinished, engine.PhaseAbandoned, engine.PhaseMenu:
			r.logger.Info("runner stopped",
				slog.String("room_code", string(v.Code)),
				slog.String("phase", string(v.Phase)),
				slog.Int("moves", played))
			return played, nil

		case engine.PhaseResult:
			if !inResult {
				inResult = true
				rounds++
				if r.maxRounds > 0 && rounds >= r.maxRounds {
					return played, nil
				}
			}
			if err := r.engine.NextRound(ctx); err != nil {
				r.logger.Warn("next round failed", slog.Any("error", err))
			}

		case engine.PhasePlaying:
			inResult = false
			if !v.MyTurn {
				continue
			}
			module := r.engine.Module()
			if module == nil {
				continue
			}
			move, ok := r.strategy.ChooseMove(module, v.State, v.Seat)
			if !ok {
				continue
			}
			if err := r.engine.Play(ctx, move); err != nil {
				// The next update retries against fresher state
				r.logger.Warn("move failed", slog.Any("error", err))
				continue
			}
			played++
		}
	}
}

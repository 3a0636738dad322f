package engine

import (
	"context"
	"log/slog"

	"github.com/mcoot/gameroom/internal/dependencies/clock"
	"github.com/mcoot/gameroom/internal/model"
	"github.com/mcoot/gameroom/internal/rules"
)

// adopt makes r the confirmed room and replaces the view with its state.
// Snapshots older than the confirmed one are ignored.
func (e *Engine) adopt(r *model.Room) error {
	if e.confirmed != nil && r.Version < e.confirmed.Version {
		e.logger.Debug("ignoring stale room snapshot",
			slog.String("room_code", string(r.Code)),
			slog.Int64("version", r.Version),
			slog.Int64("confirmed_version", e.confirmed.Version))
		return nil
	}

	st, err := e.module.Decode(r.State)
	if err != nil {
		return err
	}
	e.confirmed = r
	e.confirmedState = st
	e.display = st

	if next := e.phaseFor(r); next != e.phase {
		e.logger.Debug("phase changed",
			slog.String("room_code", string(r.Code)),
			slog.String("from", string(e.phase)),
			slog.String("to", string(next)))
		e.phase = next
	}
	if e.phase.polls() {
		e.startPolling()
	} else {
		e.stopPolling()
	}
	e.notify()
	return nil
}

func (e *Engine) phaseFor(r *model.Room) Phase {
	switch r.Status {
	case model.RoomWaiting:
		return PhaseWaiting
	case model.RoomInProgress:
		return PhasePlaying
	case model.RoomFinished:
		if _, ok := e.module.(rules.RoundBased); ok {
			return PhaseResult
		}
		return PhaseFinished
	case model.RoomAbandoned:
		return PhaseAbandoned
	default:
		return e.phase
	}
}

// startPolling starts the poll loop unless it is already running. Callers
// hold e.mu.
func (e *Engine) startPolling() {
	if e.stopPoll != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	e.stopPoll = cancel
	ticker := e.clock.NewTicker(e.cfg.PollInterval)
	go e.pollLoop(ctx, e.generation, ticker)
}

func (e *Engine) stopPolling() {
	if e.stopPoll == nil {
		return
	}
	e.stopPoll()
	e.stopPoll = nil
}

func (e *Engine) pollLoop(ctx context.Context, gen uint64, ticker clock.Ticker) {
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C():
			e.poll(ctx, gen)
		}
	}
}

func (e *Engine) poll(ctx context.Context, gen uint64) {
	e.mu.Lock()
	if ctx.Err() != nil || !e.current(gen) {
		e.mu.Unlock()
		return
	}
	code := e.code
	e.mu.Unlock()

	r, err := e.client.Fetch(ctx, code)

	e.mu.Lock()
	defer e.mu.Unlock()
	if ctx.Err() != nil || !e.current(gen) {
		return
	}
	if err != nil {
		e.logger.Warn("poll failed, retrying next tick",
			slog.String("room_code", string(code)),
			slog.Any("error", err))
		return
	}
	if err := e.adopt(r); err != nil {
		e.logger.Warn("could not decode polled room",
			slog.String("room_code", string(code)),
			slog.Any("error", err))
	}
}

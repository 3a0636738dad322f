package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mcoot/gameroom/internal/model"
	"github.com/mcoot/gameroom/internal/rules"
)

// CreateRoom opens a room of the given type with this player as host
func (e *Engine) CreateRoom(ctx context.Context, gameType model.GameType) error {
	module, err := e.registry.Get(gameType)
	if err != nil {
		return intentError(IntentCreate, err)
	}

	e.mu.Lock()
	if err := e.ready(IntentCreate, PhaseMenu); err != nil {
		e.mu.Unlock()
		return err
	}
	e.pending = true
	gen := e.generation
	e.mu.Unlock()

	r, err := e.client.Create(ctx, gameType)

	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.current(gen) {
		return intentError(IntentCreate, ErrCancelled)
	}
	e.pending = false
	if err != nil {
		return e.fail(IntentCreate, err)
	}
	return e.enter(IntentCreate, module, r, model.SeatHost, true)
}

// JoinRoom takes the free seat in the room with the given code. Joining a
// room this player already sits in resumes it.
func (e *Engine) JoinRoom(ctx context.Context, code model.RoomCode) error {
	e.mu.Lock()
	if err := e.ready(IntentJoin, PhaseMenu); err != nil {
		e.mu.Unlock()
		return err
	}
	e.pending = true
	gen := e.generation
	e.mu.Unlock()

	r, err := e.client.Join(ctx, code)
	if errors.Is(err, model.ErrAlreadyJoined) {
		r, err = e.client.Fetch(ctx, code)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.current(gen) {
		return intentError(IntentJoin, ErrCancelled)
	}
	e.pending = false
	if err != nil {
		return e.fail(IntentJoin, err)
	}

	module, err := e.registry.Get(r.GameType)
	if err != nil {
		return e.fail(IntentJoin, err)
	}
	seat, isHost := seatFor(r, e.client.PlayerID())
	return e.enter(IntentJoin, module, r, seat, isHost)
}

// seatFor derives the local seat from join order. A player missing from the
// list is given the seat the host does not hold.
func seatFor(r *model.Room, self model.PlayerID) (model.Seat, bool) {
	isHost := r.HostID == self
	if seat, ok := r.SeatOf(self); ok {
		return seat, isHost
	}
	if isHost {
		return model.SeatHost, true
	}
	return model.SeatGuest, false
}

func (e *Engine) enter(intent Intent, module rules.Module, r *model.Room, seat model.Seat, isHost bool) error {
	e.module = module
	e.code = r.Code
	e.seat = seat
	e.isHost = isHost
	e.lastErr = nil
	if err := e.adopt(r); err != nil {
		e.reset()
		return e.fail(intent, err)
	}
	e.logger.Info("entered room",
		slog.String("room_code", string(r.Code)),
		slog.String("game_type", string(r.GameType)),
		slog.Int("seat", int(seat)),
		slog.String("phase", string(e.phase)))
	return nil
}

// Play submits a move for the local seat. Legality is judged against the
// last confirmed state. The move shows in the view at once and is rolled
// back if the room store rejects it.
func (e *Engine) Play(ctx context.Context, m model.Move) error {
	e.mu.Lock()
	if err := e.ready(IntentPlay, PhasePlaying); err != nil {
		e.mu.Unlock()
		return err
	}
	if !e.module.IsLegalMove(e.confirmedState, e.seat, m) {
		e.mu.Unlock()
		return intentError(IntentPlay, fmt.Errorf("%w: %+v", model.ErrIllegalMove, m))
	}

	next := e.module.ApplyMove(e.confirmedState, e.seat, m)
	payload, err := e.payloadFor(next, &m)
	if err != nil {
		e.mu.Unlock()
		return intentError(IntentPlay, err)
	}
	e.pending = true
	e.display = next
	e.notify()
	gen := e.generation
	code := e.code
	e.mu.Unlock()

	r, err := e.client.Move(ctx, code, payload)

	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.current(gen) {
		return intentError(IntentPlay, ErrCancelled)
	}
	e.pending = false
	if err == nil {
		e.lastErr = nil
		err = e.adopt(r)
	}
	if err != nil {
		e.display = e.confirmedState
		return e.fail(IntentPlay, err)
	}
	return nil
}

// payloadFor builds the write for a move. Server-interpreted games send the
// move itself, the rest send the whole next state.
func (e *Engine) payloadFor(next rules.State, m *model.Move) (model.MovePayload, error) {
	var p model.MovePayload
	if m != nil && e.module.ServerInterpreted() {
		p.Move = m
	} else {
		raw, err := e.module.Encode(next)
		if err != nil {
			return p, err
		}
		p.State = raw
	}
	if e.cfg.StrictVersioning {
		version := e.confirmed.Version
		p.ExpectedVersion = &version
	}
	return p, nil
}

// Rematch restarts a finished room from a fresh initial state
func (e *Engine) Rematch(ctx context.Context) error {
	return e.restart(ctx, IntentRematch, PhaseFinished, func(rules.State) rules.State {
		return e.module.InitialState(e.random)
	})
}

// NextRound starts the next round of a round-based game after a result
func (e *Engine) NextRound(ctx context.Context) error {
	return e.restart(ctx, IntentNextRound, PhaseResult, func(s rules.State) rules.State {
		return e.module.(rules.RoundBased).NextRound(s)
	})
}

// restart writes a state that puts the room back in play. Both seats may race
// to do it; the write carries the confirmed version and losing the race to
// the peer's restart counts as success.
func (e *Engine) restart(ctx context.Context, intent Intent, from Phase, build func(rules.State) rules.State) error {
	e.mu.Lock()
	if err := e.ready(intent, from); err != nil {
		e.mu.Unlock()
		return err
	}
	raw, err := e.module.Encode(build(e.confirmedState))
	if err != nil {
		e.mu.Unlock()
		return intentError(intent, err)
	}
	version := e.confirmed.Version
	payload := model.MovePayload{State: raw, ExpectedVersion: &version}
	e.pending = true
	gen := e.generation
	code := e.code
	e.mu.Unlock()

	r, err := e.client.Move(ctx, code, payload)
	conflict := errors.Is(err, model.ErrVersionConflict)
	if conflict {
		if latest, ferr := e.client.Fetch(ctx, code); ferr == nil {
			r = latest
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.current(gen) {
		return intentError(intent, ErrCancelled)
	}
	e.pending = false
	if r != nil {
		e.lastErr = nil
		if aerr := e.adopt(r); aerr != nil {
			return e.fail(intent, aerr)
		}
	}
	if err != nil && !(conflict && e.phase == PhasePlaying) {
		return e.fail(intent, err)
	}
	return nil
}

// Abandon ends the room for both players. The client must implement Abandoner.
func (e *Engine) Abandon(ctx context.Context) error {
	abandoner, ok := e.client.(Abandoner)
	if !ok {
		return intentError(IntentAbandon, errors.New("client cannot abandon rooms"))
	}

	e.mu.Lock()
	if err := e.ready(IntentAbandon, PhaseWaiting, PhasePlaying, PhaseResult, PhaseFinished); err != nil {
		e.mu.Unlock()
		return err
	}
	e.pending = true
	gen := e.generation
	code := e.code
	e.mu.Unlock()

	r, err := abandoner.Abandon(ctx, code)

	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.current(gen) {
		return intentError(IntentAbandon, ErrCancelled)
	}
	e.pending = false
	if err == nil {
		e.lastErr = nil
		err = e.adopt(r)
	}
	if err != nil {
		return e.fail(IntentAbandon, err)
	}
	return nil
}

// Refresh fetches the room once, outside the poll schedule. It is the only
// way to observe a peer's rematch once the engine is finished.
func (e *Engine) Refresh(ctx context.Context) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return intentError(IntentRefresh, ErrClosed)
	}
	if e.phase == PhaseMenu {
		e.mu.Unlock()
		return intentError(IntentRefresh, ErrWrongPhase)
	}
	gen := e.generation
	code := e.code
	e.mu.Unlock()

	r, err := e.client.Fetch(ctx, code)

	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.current(gen) {
		return intentError(IntentRefresh, ErrCancelled)
	}
	if err == nil {
		err = e.adopt(r)
	}
	if err != nil {
		return e.fail(IntentRefresh, err)
	}
	return nil
}

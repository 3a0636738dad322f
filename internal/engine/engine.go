// Package engine drives one client's view of a room. It resolves the local
// seat, applies optimistic moves, reconciles them against the room store on a
// poll interval and exposes the result as a small phase machine.
package engine

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/mcoot/gameroom/internal/dependencies/clock"
	"github.com/mcoot/gameroom/internal/dependencies/random"
	"github.com/mcoot/gameroom/internal/model"
	"github.com/mcoot/gameroom/internal/rules"
)

// Phase is the engine's position in the room lifecycle
type Phase string

const (
	PhaseMenu      Phase = "menu"
	PhaseWaiting   Phase = "waiting"
	PhasePlaying   Phase = "playing"
	PhaseResult    Phase = "result" // a round-based game resolved its round
	PhaseFinished  Phase = "finished"
	PhaseAbandoned Phase = "abandoned"
)

func (p Phase) polls() bool {
	return p == PhaseWaiting || p == PhasePlaying || p == PhaseResult
}

// Config holds engine settings
type Config struct {
	// PollInterval is the time between room fetches
	PollInterval time.Duration
	// StrictVersioning attaches the confirmed version to every move so the
	// room store rejects writes computed from a stale state
	StrictVersioning bool
}

// DefaultConfig returns the default engine configuration
func DefaultConfig() Config {
	return Config{
		PollInterval: time.Second,
	}
}

// View is a snapshot of the engine for presentation
type View struct {
	Phase   Phase
	Code    model.RoomCode
	Room    *model.Room // last server-confirmed room, nil in the menu
	State   rules.State // optimistic while a move is in flight
	Seat    model.Seat
	IsHost  bool
	Label   string
	MyTurn  bool
	Outcome *rules.Outcome
	Pending bool
	Err     error // last failed intent
}

// Engine is the synchronization engine for one player. All methods are safe
// for concurrent use.
type Engine struct {
	client   RoomClient
	registry *rules.Registry
	clock    clock.Clock
	random   random.Random
	cfg      Config
	logger   *slog.Logger

	mu             sync.Mutex
	phase          Phase
	module         rules.Module
	code           model.RoomCode
	seat           model.Seat
	isHost         bool
	confirmed      *model.Room
	confirmedState rules.State
	display        rules.State
	pending        bool
	lastErr        error
	generation     uint64
	stopPoll       context.CancelFunc
	closed         bool
	updates        chan View
}

// New creates an engine in the menu phase
func New(
	client RoomClient,
	registry *rules.Registry,
	clk clock.Clock,
	rnd random.Random,
	cfg Config,
	logger *slog.Logger,
) *Engine {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultConfig().PollInterval
	}
	logger = logger.With(
		slog.String("component", "engine"),
		slog.String("player_id", string(client.PlayerID())),
	)
	return &Engine{
		client:   client,
		registry: registry,
		clock:    clk,
		random:   rnd,
		cfg:      cfg,
		logger:   logger,
		phase:    PhaseMenu,
		updates:  make(chan View, 1),
	}
}

// View returns the current snapshot
func (e *Engine) View() View {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshot()
}

// Updates delivers a snapshot after every change. Only the latest snapshot
// is kept, so slow readers skip intermediate ones. The channel is closed by
// Close.
func (e *Engine) Updates() <-chan View {
	return e.updates
}

// Module returns the rule module of the current room, or nil in the menu
func (e *Engine) Module() rules.Module {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.module
}

// Leave drops the current room and returns to the menu. In-flight requests
// are discarded when they complete.
func (e *Engine) Leave() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.reset()
	e.notify()
}

// Close stops polling and closes the updates channel
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.reset()
	e.closed = true
	close(e.updates)
}

func (e *Engine) reset() {
	e.generation++
	e.stopPolling()
	e.phase = PhaseMenu
	e.module = nil
	e.code = ""
	e.seat = model.SeatHost
	e.isHost = false
	e.confirmed = nil
	e.confirmedState = nil
	e.display = nil
	e.pending = false
	e.lastErr = nil
}

// ready checks that intent may start now
func (e *Engine) ready(intent Intent, phases ...Phase) error {
	if e.closed {
		return intentError(intent, ErrClosed)
	}
	if e.pending {
		return intentError(intent, ErrMovePending)
	}
	if !slices.Contains(phases, e.phase) {
		return intentError(intent, ErrWrongPhase)
	}
	return nil
}

func (e *Engine) current(gen uint64) bool {
	return !e.closed && gen == e.generation
}

func (e *Engine) fail(intent Intent, err error) error {
	ie := intentError(intent, err)
	e.logger.Warn("intent failed",
		slog.String("intent", string(intent)),
		slog.String("room_code", string(e.code)),
		slog.Bool("retryable", ie.Retryable),
		slog.Any("error", err))
	e.lastErr = ie
	e.notify()
	return ie
}

func (e *Engine) snapshot() View {
	v := View{
		Phase:   e.phase,
		Code:    e.code,
		State:   e.display,
		Seat:    e.seat,
		IsHost:  e.isHost,
		Pending: e.pending,
		Err:     e.lastErr,
	}
	if e.confirmed != nil {
		v.Room = e.confirmed.Clone()
	}
	if e.module != nil {
		v.Label = rules.Label(e.module, e.seat)
		if e.display != nil {
			v.Outcome = e.module.CheckTerminal(e.display)
		}
		if e.phase == PhasePlaying && !e.pending && e.confirmedState != nil {
			v.MyTurn = len(e.module.LegalMoves(e.confirmedState, e.seat)) > 0
		}
	}
	return v
}

// notify publishes the current snapshot, replacing any unread one
func (e *Engine) notify() {
	if e.closed {
		return
	}
	v := e.snapshot()
	select {
	case <-e.updates:
	default:
	}
	select {
	case e.updates <- v:
	default:
	}
}

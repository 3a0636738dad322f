// Package rules holds the pure game logic for every room game type.
// Modules never mutate the states they are given.
package rules

import (
	"encoding/json"
	"fmt"

	"github.com/mcoot/gameroom/internal/dependencies/random"
	"github.com/mcoot/gameroom/internal/model"
)

// State is a decoded game state belonging to one module
type State interface {
	GameType() model.GameType
}

// Outcome is a terminal result: a winning seat or a draw
type Outcome struct {
	Winner *model.Seat `json:"winner,omitempty"`
	Draw   bool        `json:"draw,omitempty"`
}

// Win returns an outcome won by seat
func Win(seat model.Seat) *Outcome {
	return &Outcome{Winner: &seat}
}

// Draw returns a drawn outcome
func Draw() *Outcome {
	return &Outcome{Draw: true}
}

// Module is the rule set for one game type
type Module interface {
	Type() model.GameType

	// Labels returns the display label for seat 0 and seat 1
	Labels() [model.RoomCapacity]string

	InitialState(rnd random.Random) State
	IsLegalMove(s State, seat model.Seat, m model.Move) bool
	// ApplyMove does not check legality
	ApplyMove(s State, seat model.Seat, m model.Move) State
	CheckTerminal(s State) *Outcome
	LegalMoves(s State, seat model.Seat) []model.Move

	Decode(raw json.RawMessage) (State, error)
	Encode(s State) (json.RawMessage, error)

	// ServerInterpreted reports whether clients should send single moves
	// rather than whole states
	ServerInterpreted() bool
}

// RoundBased is implemented by modules whose terminal outcome ends a round
// rather than the match
type RoundBased interface {
	NextRound(s State) State
}

// Registry maps game types to their modules
type Registry struct {
	modules map[model.GameType]Module
}

// NewRegistry creates a registry holding the given modules
func NewRegistry(modules ...Module) *Registry {
	r := &Registry{modules: make(map[model.GameType]Module, len(modules))}
	for _, m := range modules {
		r.modules[m.Type()] = m
	}
	return r
}

// DefaultRegistry returns a registry with every supported game
func DefaultRegistry() *Registry {
	return NewRegistry(
		NewTicTacToe(),
		NewConnectFour(),
		NewRockPaperScissors(),
		NewMemoryMatch(),
	)
}

// Get returns the module for the given game type
func (r *Registry) Get(t model.GameType) (Module, error) {
	m, ok := r.modules[t]
	if !ok {
		return nil, fmt.Errorf("%w: %q", model.ErrUnknownGameType, t)
	}
	return m, nil
}

// Label returns the label a module gives to seat
func Label(m Module, seat model.Seat) string {
	if !seat.Valid() {
		return ""
	}
	return m.Labels()[seat]
}

// SeatForLabel is the inverse of Label
func SeatForLabel(m Module, label string) (model.Seat, bool) {
	for i, l := range m.Labels() {
		if l == label {
			return model.Seat(i), true
		}
	}
	return 0, false
}

func decodeInto(raw json.RawMessage, dst any) error {
	if len(raw) == 0 {
		return fmt.Errorf("%w: empty state", model.ErrInvalidState)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("%w: %v", model.ErrInvalidState, err)
	}
	return nil
}

func encode(s State, t model.GameType) (json.RawMessage, error) {
	if s == nil || s.GameType() != t {
		return nil, fmt.Errorf("%w: expected %s state", model.ErrInvalidState, t)
	}
	return json.Marshal(s)
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", model.ErrInvalidState, fmt.Sprintf(format, args...))
}

package bot

import (
	"github.com/mcoot/gameroom/internal/dependencies/random"
	"github.com/mcoot/gameroom/internal/model"
	"github.com/mcoot/gameroom/internal/rules"
)

// GreedyStrategy looks one move ahead for each side. It takes a winning
// move when there is one, otherwise avoids moves that hand the opponent an
// immediate win, and otherwise plays randomly.
type GreedyStrategy struct {
	fallback *RandomStrategy
}

// NewGreedyStrategy creates a new GreedyStrategy
func NewGreedyStrategy(rnd random.Random) *GreedyStrategy {
	return &GreedyStrategy{fallback: NewRandomStrategy(rnd)}
}

func (s *GreedyStrategy) ChooseMove(module rules.Module, state rules.State, seat model.Seat) (model.Move, bool) {
	moves := module.LegalMoves(state, seat)
	if len(moves) == 0 {
		return model.Move{}, false
	}

	var safe []model.Move
	for _, m := range moves {
		next := module.ApplyMove(state, seat, m)
		if winsFor(module, next, seat) {
			return m, true
		}
		if !opponentCanWin(module, next, seat.Other()) {
			safe = append(safe, m)
		}
	}

	if len(safe) > 0 {
		return s.fallback.pick(safe)
	}
	return s.fallback.pick(moves)
}

func opponentCanWin(module rules.Module, state rules.State, opponent model.Seat) bool {
	for _, m := range module.LegalMoves(state, opponent) {
		if winsFor(module, module.ApplyMove(state, opponent, m), opponent) {
			return true
		}
	}
	return false
}

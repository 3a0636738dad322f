package bot

import (
	"github.com/mcoot/gameroom/internal/dependencies/random"
	"github.com/mcoot/gameroom/internal/model"
	"github.com/mcoot/gameroom/internal/rules"
)

// RandomStrategy picks uniformly among the legal moves
type RandomStrategy struct {
	random random.Random
}

// NewRandomStrategy creates a new RandomStrategy
func NewRandomStrategy(rnd random.Random) *RandomStrategy {
	return &RandomStrategy{random: rnd}
}

func (s *RandomStrategy) ChooseMove(module rules.Module, state rules.State, seat model.Seat) (model.Move, bool) {
	return s.pick(module.LegalMoves(state, seat))
}

func (s *RandomStrategy) pick(moves []model.Move) (model.Move, bool) {
	if len(moves) == 0 {
		return model.Move{}, false
	}
	return moves[s.random.Intn(len(moves))], true
}

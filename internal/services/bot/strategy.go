package bot

import (
	"github.com/mcoot/gameroom/internal/dependencies/random"
	"github.com/mcoot/gameroom/internal/model"
	"github.com/mcoot/gameroom/internal/rules"
)

const (
	StrategyRandom = "random"
	StrategyGreedy = "greedy"
)

// Strategy defines how a bot picks its next move
type Strategy interface {
	// ChooseMove returns a legal move for seat, or false when seat has none
	ChooseMove(module rules.Module, state rules.State, seat model.Seat) (model.Move, bool)
}

// DefaultStrategies returns every built-in strategy keyed by name
func DefaultStrategies(rnd random.Random) map[string]Strategy {
	return map[string]Strategy{
		StrategyRandom: NewRandomStrategy(rnd),
		StrategyGreedy: NewGreedyStrategy(rnd),
	}
}

func winsFor(module rules.Module, state rules.State, seat model.Seat) bool {
	out := module.CheckTerminal(state)
	return out != nil && out.Winner != nil && *out.Winner == seat
}

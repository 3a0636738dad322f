package rules

import (
	"encoding/json"

	"github.com/mcoot/gameroom/internal/dependencies/random"
	"github.com/mcoot/gameroom/internal/model"
)

const (
	ChoiceRock     = "rock"
	ChoicePaper    = "paper"
	ChoiceScissors = "scissors"
)

// Choices lists the valid hands
var Choices = []string{ChoiceRock, ChoicePaper, ChoiceScissors}

var beats = map[string]string{
	ChoiceRock:     ChoiceScissors,
	ChoiceScissors: ChoicePaper,
	ChoicePaper:    ChoiceRock,
}

// RockPaperScissorsState holds the current round's committed hands. Result is
// set once both hands are in and cleared when the next round starts.
type RockPaperScissorsState struct {
	Choices [model.RoomCapacity]*string `json:"choices"`
	Round   int                         `json:"round"`
	Result  *Outcome                    `json:"result,omitempty"`
	Scores  [model.RoomCapacity]int     `json:"scores"`
}

func (*RockPaperScissorsState) GameType() model.GameType { return model.GameRockPaperScissors }

// RockPaperScissors implements Module and RoundBased. A move's Choice is the hand.
type RockPaperScissors struct{}

var (
	_ Module     = (*RockPaperScissors)(nil)
	_ RoundBased = (*RockPaperScissors)(nil)
)

// NewRockPaperScissors creates the rock-paper-scissors module
func NewRockPaperScissors() *RockPaperScissors {
	return &RockPaperScissors{}
}

func (*RockPaperScissors) Type() model.GameType { return model.GameRockPaperScissors }

func (*RockPaperScissors) Labels() [model.RoomCapacity]string {
	return [2]string{"player1", "player2"}
}

func (*RockPaperScissors) ServerInterpreted() bool { return false }

func (*RockPaperScissors) InitialState(random.Random) State {
	return &RockPaperScissorsState{Round: 1}
}

// Resolve decides a round from seat 0's and seat 1's hands
func Resolve(a, b string) *Outcome {
	switch {
	case a == b:
		return Draw()
	case beats[a] == b:
		return Win(model.SeatHost)
	default:
		return Win(model.SeatGuest)
	}
}

func validChoice(c string) bool {
	_, ok := beats[c]
	return ok
}

// IsLegalMove allows one hand per seat per round
func (*RockPaperScissors) IsLegalMove(s State, seat model.Seat, m model.Move) bool {
	st, ok := s.(*RockPaperScissorsState)
	if !ok || !seat.Valid() || !validChoice(m.Choice) {
		return false
	}
	return st.Choices[seat] == nil
}

func (r *RockPaperScissors) ApplyMove(s State, seat model.Seat, m model.Move) State {
	st := s.(*RockPaperScissorsState)
	next := *st
	choice := m.Choice
	next.Choices[seat] = &choice
	next.Result = r.CheckTerminal(&next)
	if next.Result != nil && next.Result.Winner != nil {
		next.Scores[*next.Result.Winner]++
	}
	return &next
}

// CheckTerminal returns the outcome of the current round once both hands are in
func (*RockPaperScissors) CheckTerminal(s State) *Outcome {
	st, ok := s.(*RockPaperScissorsState)
	if !ok || st.Choices[0] == nil || st.Choices[1] == nil {
		return nil
	}
	return Resolve(*st.Choices[0], *st.Choices[1])
}

// NextRound clears the hands and keeps the running score
func (*RockPaperScissors) NextRound(s State) State {
	st := s.(*RockPaperScissorsState)
	return &RockPaperScissorsState{
		Round:  st.Round + 1,
		Scores: st.Scores,
	}
}

func (r *RockPaperScissors) LegalMoves(s State, seat model.Seat) []model.Move {
	var moves []model.Move
	for _, c := range Choices {
		m := model.Move{Choice: c}
		if r.IsLegalMove(s, seat, m) {
			moves = append(moves, m)
		}
	}
	return moves
}

func (*RockPaperScissors) Decode(raw json.RawMessage) (State, error) {
	var st RockPaperScissorsState
	if err := decodeInto(raw, &st); err != nil {
		return nil, err
	}
	for i, c := range st.Choices {
		if c != nil && !validChoice(*c) {
			return nil, invalid("seat %d chose %q", i, *c)
		}
	}
	if st.Round < 1 {
		return nil, invalid("round %d", st.Round)
	}
	return &st, nil
}

func (*RockPaperScissors) Encode(s State) (json.RawMessage, error) {
	return encode(s, model.GameRockPaperScissors)
}

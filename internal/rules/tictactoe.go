package rules

import (
	"encoding/json"

	"github.com/mcoot/gameroom/internal/dependencies/random"
	"github.com/mcoot/gameroom/internal/model"
)

const (
	MarkX = "X"
	MarkO = "O"

	// WinnerDraw is the winner value recorded when a board fills with no line
	WinnerDraw = "draw"
)

var tttLines = [8][3]int{
	{0, 1, 2}, {3, 4, 5}, {6, 7, 8},
	{0, 3, 6}, {1, 4, 7}, {2, 5, 8},
	{0, 4, 8}, {2, 4, 6},
}

// TicTacToeState is a 3x3 board stored row-major
type TicTacToeState struct {
	Board  [9]string `json:"board"`
	Turn   string    `json:"turn"`
	Winner string    `json:"winner,omitempty"`
}

func (*TicTacToeState) GameType() model.GameType { return model.GameTicTacToe }

// TicTacToe implements Module for tic-tac-toe
type TicTacToe struct{}

var _ Module = (*TicTacToe)(nil)

// NewTicTacToe creates the tic-tac-toe module
func NewTicTacToe() *TicTacToe {
	return &TicTacToe{}
}

func (*TicTacToe) Type() model.GameType { return model.GameTicTacToe }

func (*TicTacToe) Labels() [model.RoomCapacity]string { return [2]string{MarkX, MarkO} }

func (*TicTacToe) ServerInterpreted() bool { return true }

func (*TicTacToe) InitialState(random.Random) State {
	return &TicTacToeState{Turn: MarkX}
}

func (t *TicTacToe) IsLegalMove(s State, seat model.Seat, m model.Move) bool {
	st, ok := s.(*TicTacToeState)
	if !ok || !seat.Valid() {
		return false
	}
	if m.Position < 0 || m.Position >= len(st.Board) {
		return false
	}
	if st.Turn != Label(t, seat) || st.Board[m.Position] != "" {
		return false
	}
	return t.CheckTerminal(st) == nil
}

func (t *TicTacToe) ApplyMove(s State, seat model.Seat, m model.Move) State {
	st := s.(*TicTacToeState)
	next := *st
	next.Board[m.Position] = Label(t, seat)
	next.Turn = Label(t, seat.Other())
	next.Winner = ""
	if out := t.CheckTerminal(&next); out != nil {
		next.Winner = t.winnerValue(out)
	}
	return &next
}

func (t *TicTacToe) CheckTerminal(s State) *Outcome {
	st, ok := s.(*TicTacToeState)
	if !ok {
		return nil
	}
	for _, line := range tttLines {
		a := st.Board[line[0]]
		if a != "" && a == st.Board[line[1]] && a == st.Board[line[2]] {
			if seat, ok := SeatForLabel(t, a); ok {
				return Win(seat)
			}
		}
	}
	for _, c := range st.Board {
		if c == "" {
			return nil
		}
	}
	return Draw()
}

func (t *TicTacToe) LegalMoves(s State, seat model.Seat) []model.Move {
	st, ok := s.(*TicTacToeState)
	if !ok {
		return nil
	}
	var moves []model.Move
	for i := range st.Board {
		m := model.Move{Position: i}
		if t.IsLegalMove(st, seat, m) {
			moves = append(moves, m)
		}
	}
	return moves
}

func (*TicTacToe) Decode(raw json.RawMessage) (State, error) {
	var st TicTacToeState
	if err := decodeInto(raw, &st); err != nil {
		return nil, err
	}
	for i, c := range st.Board {
		if c != "" && c != MarkX && c != MarkO {
			return nil, invalid("cell %d holds %q", i, c)
		}
	}
	if st.Turn != MarkX && st.Turn != MarkO {
		return nil, invalid("turn %q", st.Turn)
	}
	switch st.Winner {
	case "", MarkX, MarkO, WinnerDraw:
	default:
		return nil, invalid("winner %q", st.Winner)
	}
	return &st, nil
}

func (*TicTacToe) Encode(s State) (json.RawMessage, error) {
	return encode(s, model.GameTicTacToe)
}

func (t *TicTacToe) winnerValue(out *Outcome) string {
	if out.Draw {
		return WinnerDraw
	}
	return Label(t, *out.Winner)
}

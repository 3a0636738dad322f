package rules

import (
	"encoding/json"

	"github.com/mcoot/gameroom/internal/dependencies/random"
	"github.com/mcoot/gameroom/internal/model"
)

const (
	ConnectFourRows = 6
	ConnectFourCols = 7
	ConnectFourWin  = 4

	DiscRed    = "red"
	DiscYellow = "yellow"
)

// Cell addresses a grid position; row 0 is the top of the board
type Cell struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// ConnectFourState is a 6x7 grid of discs
type ConnectFourState struct {
	Board  [ConnectFourRows][ConnectFourCols]string `json:"board"`
	Turn   string                                   `json:"turn"`
	Winner string                                   `json:"winner,omitempty"`
	Last   *Cell                                    `json:"last,omitempty"`
}

func (*ConnectFourState) GameType() model.GameType { return model.GameConnectFour }

// ConnectFour implements Module for connect four. A move's Position is the column.
type ConnectFour struct{}

var _ Module = (*ConnectFour)(nil)

// NewConnectFour creates the connect four module
func NewConnectFour() *ConnectFour {
	return &ConnectFour{}
}

func (*ConnectFour) Type() model.GameType { return model.GameConnectFour }

func (*ConnectFour) Labels() [model.RoomCapacity]string { return [2]string{DiscRed, DiscYellow} }

func (*ConnectFour) ServerInterpreted() bool { return false }

func (*ConnectFour) InitialState(random.Random) State {
	return &ConnectFourState{Turn: DiscRed}
}

// DropRow returns the row a disc dropped into col lands on, or -1 if the column is full
func DropRow(board *[ConnectFourRows][ConnectFourCols]string, col int) int {
	if col < 0 || col >= ConnectFourCols {
		return -1
	}
	for r := ConnectFourRows - 1; r >= 0; r-- {
		if board[r][col] == "" {
			return r
		}
	}
	return -1
}

func (c *ConnectFour) IsLegalMove(s State, seat model.Seat, m model.Move) bool {
	st, ok := s.(*ConnectFourState)
	if !ok || !seat.Valid() {
		return false
	}
	if st.Turn != Label(c, seat) || DropRow(&st.Board, m.Position) < 0 {
		return false
	}
	return c.CheckTerminal(st) == nil
}

func (c *ConnectFour) ApplyMove(s State, seat model.Seat, m model.Move) State {
	st := s.(*ConnectFourState)
	next := *st
	row := DropRow(&next.Board, m.Position)
	next.Board[row][m.Position] = Label(c, seat)
	next.Last = &Cell{Row: row, Col: m.Position}
	next.Turn = Label(c, seat.Other())
	next.Winner = ""
	if out := c.CheckTerminal(&next); out != nil {
		if out.Draw {
			next.Winner = WinnerDraw
		} else {
			next.Winner = Label(c, *out.Winner)
		}
	}
	return &next
}

// CheckTerminal scans outward from the last placed disc. States without a
// last-move marker are scanned from every occupied cell.
func (c *ConnectFour) CheckTerminal(s State) *Outcome {
	st, ok := s.(*ConnectFourState)
	if !ok {
		return nil
	}
	if l := st.Last; l != nil && inGrid(l.Row, l.Col) && st.Board[l.Row][l.Col] != "" {
		if winsAt(&st.Board, l.Row, l.Col) {
			return c.winFor(st.Board[l.Row][l.Col])
		}
	} else {
		for r := 0; r < ConnectFourRows; r++ {
			for col := 0; col < ConnectFourCols; col++ {
				if st.Board[r][col] != "" && winsAt(&st.Board, r, col) {
					return c.winFor(st.Board[r][col])
				}
			}
		}
	}
	for col := 0; col < ConnectFourCols; col++ {
		if st.Board[0][col] == "" {
			return nil
		}
	}
	return Draw()
}

func (c *ConnectFour) LegalMoves(s State, seat model.Seat) []model.Move {
	st, ok := s.(*ConnectFourState)
	if !ok {
		return nil
	}
	var moves []model.Move
	for col := 0; col < ConnectFourCols; col++ {
		m := model.Move{Position: col}
		if c.IsLegalMove(st, seat, m) {
			moves = append(moves, m)
		}
	}
	return moves
}

func (*ConnectFour) Decode(raw json.RawMessage) (State, error) {
	var st ConnectFourState
	if err := decodeInto(raw, &st); err != nil {
		return nil, err
	}
	for r := range st.Board {
		for col, d := range st.Board[r] {
			if d != "" && d != DiscRed && d != DiscYellow {
				return nil, invalid("cell %d,%d holds %q", r, col, d)
			}
		}
	}
	if st.Turn != DiscRed && st.Turn != DiscYellow {
		return nil, invalid("turn %q", st.Turn)
	}
	switch st.Winner {
	case "", DiscRed, DiscYellow, WinnerDraw:
	default:
		return nil, invalid("winner %q", st.Winner)
	}
	if st.Last != nil && !inGrid(st.Last.Row, st.Last.Col) {
		return nil, invalid("last move %d,%d is off the board", st.Last.Row, st.Last.Col)
	}
	return &st, nil
}

func (*ConnectFour) Encode(s State) (json.RawMessage, error) {
	return encode(s, model.GameConnectFour)
}

func (c *ConnectFour) winFor(disc string) *Outcome {
	seat, _ := SeatForLabel(c, disc)
	return Win(seat)
}

var c4Directions = [4][2]int{{0, 1}, {1, 0}, {1, 1}, {1, -1}}

// winsAt reports whether the disc at (row, col) sits on a line of at least four
func winsAt(board *[ConnectFourRows][ConnectFourCols]string, row, col int) bool {
	disc := board[row][col]
	if disc == "" {
		return false
	}
	for _, d := range c4Directions {
		count := 1
		for r, c := row+d[0], col+d[1]; inGrid(r, c) && board[r][c] == disc; r, c = r+d[0], c+d[1] {
			count++
		}
		for r, c := row-d[0], col-d[1]; inGrid(r, c) && board[r][c] == disc; r, c = r-d[0], c-d[1] {
			count++
		}
		if count >= ConnectFourWin {
			return true
		}
	}
	return false
}

func inGrid(row, col int) bool {
	return row >= 0 && row < ConnectFourRows && col >= 0 && col < ConnectFourCols
}

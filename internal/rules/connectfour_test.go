package rules

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/gameroom/internal/model"
)

type ConnectFourSuite struct {
	suite.Suite
	module *ConnectFour
}

func TestConnectFourSuite(t *testing.T) {
	suite.Run(t, new(ConnectFourSuite))
}

func (s *ConnectFourSuite) SetupTest() {
	s.module = NewConnectFour()
}

// board builds a state from rows given top to bottom using r, y and '.'
func (s *ConnectFourSuite) board(turn string, rows ...string) *ConnectFourState {
	s.Require().Len(rows, ConnectFourRows)
	st := &ConnectFourState{Turn: turn}
	for r, line := range rows {
		s.Require().Len(line, ConnectFourCols)
		for c, ch := range line {
			switch ch {
			case 'r':
				st.Board[r][c] = DiscRed
			case 'y':
				st.Board[r][c] = DiscYellow
			}
		}
	}
	return st
}

func (s *ConnectFourSuite) drop(st State, seat model.Seat, col int) *ConnectFourState {
	m := model.Move{Position: col}
	s.Require().True(s.module.IsLegalMove(st, seat, m), "column %d", col)
	return s.module.ApplyMove(st, seat, m).(*ConnectFourState)
}

func (s *ConnectFourSuite) TestDiscLandsOnLowestEmptyRow() {
	st := s.drop(s.module.InitialState(nil), model.SeatHost, 3)
	s.Equal(DiscRed, st.Board[5][3])
	s.Equal(&Cell{Row: 5, Col: 3}, st.Last)
	s.Equal(DiscYellow, st.Turn)

	st = s.drop(st, model.SeatGuest, 3)
	s.Equal(DiscYellow, st.Board[4][3])
}

func (s *ConnectFourSuite) TestApplyMoveDoesNotMutateInput() {
	st := s.module.InitialState(nil).(*ConnectFourState)
	_ = s.drop(st, model.SeatHost, 0)
	s.Empty(st.Board[5][0])
	s.Nil(st.Last)
}

func (s *ConnectFourSuite) TestFullColumnIsIllegal() {
	st := s.board(DiscRed,
		"r......",
		"y......",
		"r......",
		"y......",
		"r......",
		"y......",
	)
	s.False(s.module.IsLegalMove(st, model.SeatHost, model.Move{Position: 0}))
	s.True(s.module.IsLegalMove(st, model.SeatHost, model.Move{Position: 1}))
	s.False(s.module.IsLegalMove(st, model.SeatHost, model.Move{Position: 7}))
	s.False(s.module.IsLegalMove(st, model.SeatGuest, model.Move{Position: 1}), "not yellow's turn")
}

// Column 3 holds red at rows 5, 4 and 3.
func (s *ConnectFourSuite) TestColumnScenario() {
	st := s.board(DiscYellow,
		".......",
		".......",
		".......",
		"...r...",
		"...r..y",
		"...r..y",
	)

	yellow := s.drop(st, model.SeatGuest, 3)
	s.Equal(DiscYellow, yellow.Board[2][3])
	s.Nil(s.module.CheckTerminal(yellow))

	st.Turn = DiscRed
	red := s.drop(st, model.SeatHost, 3)
	s.Equal(DiscRed, red.Board[2][3])
	out := s.module.CheckTerminal(red)
	s.Require().NotNil(out)
	s.Equal(model.SeatHost, *out.Winner)
	s.Equal(DiscRed, red.Winner)
}

func (s *ConnectFourSuite) TestFourthDiscWinsInEveryDirection() {
	cases := []struct {
		name string
		rows []string
		col  int
	}{
		{
			name: "horizontal, gap in the middle",
			rows: []string{".......", ".......", ".......", ".......", "yyy....", "rr.r..."},
			col:  2,
		},
		{
			name: "vertical",
			rows: []string{".......", ".......", ".......", "r......", "r.....y", "r.....y"},
			col:  0,
		},
		{
			name: "diagonal down-right",
			rows: []string{".......", ".......", ".......", "yr.....", "yyr....", "yyyr..."},
			col:  0,
		},
		{
			name: "diagonal down-left",
			rows: []string{".......", ".......", ".......", "..ry...", ".ryy...", "ryyr..."},
			col:  3,
		},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			st := s.board(DiscRed, tc.rows...)
			s.Nil(s.module.CheckTerminal(st))
			next := s.drop(st, model.SeatHost, tc.col)
			out := s.module.CheckTerminal(next)
			s.Require().NotNil(out)
			s.Equal(model.SeatHost, *out.Winner)
		})
	}
}

func (s *ConnectFourSuite) TestThreeInARowIsNotAWin() {
	st := s.board(DiscRed,
		".......",
		".......",
		".......",
		".......",
		"yy.....",
		"rr.....",
	)
	next := s.drop(st, model.SeatHost, 2)
	s.Nil(s.module.CheckTerminal(next))
	s.Empty(next.Winner)
}

func (s *ConnectFourSuite) TestDrawWhenTopRowFills() {
	st := s.board(DiscYellow,
		"rryyrr.",
		"yyrryyr",
		"rryyrry",
		"yyrryyr",
		"rryyrry",
		"yyrryyr",
	)
	s.Nil(s.module.CheckTerminal(st))

	next := s.drop(st, model.SeatGuest, 6)
	out := s.module.CheckTerminal(next)
	s.Require().NotNil(out)
	s.True(out.Draw)
	s.Equal(WinnerDraw, next.Winner)
	s.Empty(s.module.LegalMoves(next, model.SeatHost))
}

func (s *ConnectFourSuite) TestWinFoundWithoutLastMarker() {
	st := s.board(DiscRed,
		".......",
		".......",
		".......",
		".......",
		".......",
		"..yyyy.",
	)
	out := s.module.CheckTerminal(st)
	s.Require().NotNil(out)
	s.Equal(model.SeatGuest, *out.Winner)
	s.False(s.module.IsLegalMove(st, model.SeatHost, model.Move{Position: 0}))
}

func (s *ConnectFourSuite) TestLegalMovesSkipFullColumns() {
	st := s.board(DiscRed,
		"r.....y",
		"y.....r",
		"r.....y",
		"y.....r",
		"r.....y",
		"y.....r",
	)
	moves := s.module.LegalMoves(st, model.SeatHost)
	s.Len(moves, 5)
	for _, m := range moves {
		s.NotContains([]int{0, 6}, m.Position)
	}
}

func (s *ConnectFourSuite) TestDecodeRejectsBadStates() {
	_, err := s.module.Decode(json.RawMessage(`{"turn":"blue"}`))
	s.ErrorIs(err, model.ErrInvalidState)

	_, err = s.module.Decode(json.RawMessage(`{"turn":"red","last":{"row":9,"col":0}}`))
	s.ErrorIs(err, model.ErrInvalidState)

	bad := s.board(DiscRed, ".......", ".......", ".......", ".......", ".......", ".......")
	bad.Board[0][0] = "green"
	raw, err := json.Marshal(bad)
	s.Require().NoError(err)
	_, err = s.module.Decode(raw)
	s.ErrorIs(err, model.ErrInvalidState)
}

func (s *ConnectFourSuite) TestDecodeRoundTrip() {
	st := s.drop(s.module.InitialState(nil), model.SeatHost, 2)
	raw, err := s.module.Encode(st)
	s.Require().NoError(err)
	decoded, err := s.module.Decode(raw)
	s.Require().NoError(err)
	s.Equal(st, decoded)
}

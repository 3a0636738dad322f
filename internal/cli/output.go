package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mcoot/gameroom/internal/api/response"
	"github.com/mcoot/gameroom/internal/engine"
	"github.com/mcoot/gameroom/internal/model"
	"github.com/mcoot/gameroom/internal/rules"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
	out    io.Writer
	errOut io.Writer
}

// NewOutput creates a new Output formatter writing to stdout and stderr
func NewOutput(format string) *Output {
	return newOutputTo(format, os.Stdout, os.Stderr)
}

func newOutputTo(format string, out, errOut io.Writer) *Output {
	return &Output{format: format, out: out, errOut: errOut}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintError outputs an error
func (o *Output) PrintError(err error) {
	if o.format == "json" {
		errData := map[string]any{
			"error": map[string]string{
				"message": err.Error(),
			},
		}
		data, _ := json.Marshal(errData)
		fmt.Fprintln(o.errOut, string(data))
	} else {
		fmt.Fprintf(o.errOut, "Error: %s\n", err)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		fmt.Fprintln(o.out, string(data))
	} else {
		fmt.Fprintln(o.out, msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.out)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case response.Player:
		o.printPlayer(v)
	case response.AuthResponse:
		o.printAuthResult(v)
	case response.Room:
		o.printRoom(v)
	case response.RoomList:
		o.printRoomList(v)
	case response.BotAdded:
		fmt.Fprintf(o.out, "Bot seated: %s (%s)\n\n", v.Bot.DisplayName, v.Bot.ID)
		o.printRoom(v.Room)
	case engine.View:
		o.printView(v)
	case HealthResult:
		o.printHealthResult(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// HealthResult response type
type HealthResult struct {
	Status string `json:"status"`
}

func (o *Output) printPlayer(p response.Player) {
	guestStr := "no"
	if p.IsGuest {
		guestStr = "yes"
	}
	fmt.Fprintf(o.out, "Player: %s (%s)\n", p.DisplayName, p.ID)
	fmt.Fprintf(o.out, "Guest: %s\n", guestStr)
}

func (o *Output) printAuthResult(a response.AuthResponse) {
	o.printPlayer(a.Player)
	fmt.Fprintf(o.out, "Token: %s\n", a.SessionToken)
}

func (o *Output) printRoom(r response.Room) {
	fmt.Fprintf(o.out, "Room: %s\n", r.Code)
	fmt.Fprintf(o.out, "Game: %s\n", r.GameType)
	fmt.Fprintf(o.out, "Status: %s\n", r.Status)
	fmt.Fprintf(o.out, "Version: %d\n", r.Version)
	fmt.Fprintf(o.out, "Players (%d/%d):\n", len(r.Players), model.RoomCapacity)
	for _, p := range r.Players {
		hostStr := ""
		if p.PlayerID == r.HostID {
			hostStr = " [host]"
		}
		fmt.Fprintf(o.out, "  %d. %s (%s) - %s%s\n", p.Seat, p.DisplayName, p.PlayerID, p.Label, hostStr)
	}

	module, err := rules.DefaultRegistry().Get(model.GameType(r.GameType))
	if err != nil {
		return
	}
	state, err := module.Decode(r.State)
	if err != nil {
		fmt.Fprintf(o.out, "\nState: unreadable (%s)\n", err)
		return
	}
	fmt.Fprintln(o.out)
	o.printState(state)
}

func (o *Output) printRoomList(l response.RoomList) {
	if len(l.Rooms) == 0 {
		fmt.Fprintln(o.out, "No rooms")
		return
	}
	for _, r := range l.Rooms {
		host := ""
		if len(r.Players) > 0 {
			host = r.Players[0].DisplayName
		}
		fmt.Fprintf(o.out, "%s  %-20s %-12s %d/%d  %s\n",
			r.Code, r.GameType, r.Status, len(r.Players), model.RoomCapacity, host)
	}
}

func (o *Output) printView(v engine.View) {
	switch v.Phase {
	case engine.PhaseMenu:
		fmt.Fprintln(o.out, "Not in a room")
		return
	case engine.PhaseWaiting:
		fmt.Fprintf(o.out, "Room %s: waiting for an opponent (share the code)\n", v.Code)
		return
	}

	version := int64(0)
	if v.Room != nil {
		version = v.Room.Version
	}
	fmt.Fprintf(o.out, "Room %s (v%d) - you are %s\n\n", v.Code, version, v.Label)
	if v.State != nil {
		o.printState(v.State)
		fmt.Fprintln(o.out)
	}

	switch v.Phase {
	case engine.PhasePlaying:
		switch {
		case v.Pending:
			fmt.Fprintln(o.out, "Sending move...")
		case v.MyTurn:
			fmt.Fprintln(o.out, "Your move")
		default:
			fmt.Fprintln(o.out, "Waiting for opponent")
		}
	case engine.PhaseResult:
		fmt.Fprintf(o.out, "Round over: %s. Type 'next' for another round.\n", outcomeText(v.Outcome, v.Seat))
	case engine.PhaseFinished:
		fmt.Fprintf(o.out, "Game over: %s. Type 'rematch' to play again.\n", outcomeText(v.Outcome, v.Seat))
	case engine.PhaseAbandoned:
		fmt.Fprintln(o.out, "The room was abandoned")
	}
	if v.Err != nil {
		fmt.Fprintf(o.errOut, "Error: %s\n", v.Err)
	}
}

func outcomeText(out *rules.Outcome, seat model.Seat) string {
	switch {
	case out == nil:
		return "no result"
	case out.Draw:
		return "draw"
	case out.Winner != nil && *out.Winner == seat:
		return "you win"
	default:
		return "you lose"
	}
}

func (o *Output) printState(state rules.State) {
	switch st := state.(type) {
	case *rules.TicTacToeState:
		o.printTicTacToe(st)
	case *rules.ConnectFourState:
		o.printConnectFour(st)
	case *rules.RockPaperScissorsState:
		o.printRockPaperScissors(st)
	case *rules.MemoryState:
		o.printMemory(st)
	}
}

func (o *Output) printTicTacToe(st *rules.TicTacToeState) {
	for row := 0; row < 3; row++ {
		cells := make([]string, 3)
		for col := 0; col < 3; col++ {
			i := row*3 + col
			cells[col] = st.Board[i]
			if cells[col] == "" {
				cells[col] = fmt.Sprint(i)
			}
		}
		fmt.Fprintf(o.out, " %s\n", strings.Join(cells, " | "))
		if row < 2 {
			fmt.Fprintln(o.out, "---+---+---")
		}
	}
	fmt.Fprintf(o.out, "Turn: %s\n", st.Turn)
}

func (o *Output) printConnectFour(st *rules.ConnectFourState) {
	// Print column headers
	fmt.Fprint(o.out, " ")
	for col := 0; col < rules.ConnectFourCols; col++ {
		fmt.Fprintf(o.out, " %d", col)
	}
	fmt.Fprintln(o.out)

	for row := 0; row < rules.ConnectFourRows; row++ {
		fmt.Fprint(o.out, " |")
		for col := 0; col < rules.ConnectFourCols; col++ {
			switch st.Board[row][col] {
			case rules.DiscRed:
				fmt.Fprint(o.out, "R|")
			case rules.DiscYellow:
				fmt.Fprint(o.out, "Y|")
			default:
				fmt.Fprint(o.out, " |")
			}
		}
		fmt.Fprintln(o.out)
	}
	fmt.Fprintf(o.out, "Turn: %s\n", st.Turn)
}

func (o *Output) printRockPaperScissors(st *rules.RockPaperScissorsState) {
	fmt.Fprintf(o.out, "Round %d  score %d - %d\n", st.Round, st.Scores[0], st.Scores[1])
	for seat, c := range st.Choices {
		choice := "thinking"
		if c != nil {
			choice = "chosen"
			if st.Result != nil {
				choice = *c
			}
		}
		fmt.Fprintf(o.out, "  seat %d: %s\n", seat, choice)
	}
}

func (o *Output) printMemory(st *rules.MemoryState) {
	const perRow = 4
	for i, c := range st.Cards {
		face := "??"
		if c.Flipped || c.Matched {
			face = c.Symbol
		}
		fmt.Fprintf(o.out, " %2d:%s", i, face)
		if (i+1)%perRow == 0 {
			fmt.Fprintln(o.out)
		}
	}
	fmt.Fprintf(o.out, "Score %d - %d  turn: seat %d\n", st.Scores[0], st.Scores[1], st.Turn)
	if r := st.Reveal; r != nil && !r.Matched && r.Cards[0] < len(st.Cards) && r.Cards[1] < len(st.Cards) {
		fmt.Fprintf(o.out, "Last pair: %s %s (no match)\n",
			st.Cards[r.Cards[0]].Symbol, st.Cards[r.Cards[1]].Symbol)
	}
}

func (o *Output) printHealthResult(h HealthResult) {
	fmt.Fprintf(o.out, "Status: %s\n", h.Status)
}

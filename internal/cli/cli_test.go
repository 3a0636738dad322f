package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/gameroom/internal/api/response"
	"github.com/mcoot/gameroom/internal/engine"
	"github.com/mcoot/gameroom/internal/factory"
	"github.com/mcoot/gameroom/internal/model"
)

func TestParseMove(t *testing.T) {
	assert.Equal(t, model.Move{Position: 4}, parseMove("4"))
	assert.Equal(t, model.Move{Choice: "rock"}, parseMove(" Rock "))
}

func TestPrintRoomRendersBoard(t *testing.T) {
	var out bytes.Buffer
	o := newOutputTo("text", &out, &out)

	o.Print(response.Room{
		Code:     "ROOM01",
		GameType: string(model.GameTicTacToe),
		HostID:   "p1",
		Status:   string(model.RoomInProgress),
		Version:  3,
		Players: []response.RoomPlayer{
			{PlayerID: "p1", DisplayName: "Alice", Seat: 0, Label: "X"},
			{PlayerID: "p2", DisplayName: "Bob", Seat: 1, Label: "O"},
		},
		State: []byte(`{"board":["X","","","","O","","","",""],"turn":"X"}`),
	})

	text := out.String()
	assert.Contains(t, text, "Room: ROOM01")
	assert.Contains(t, text, "Alice (p1) - X [host]")
	assert.Contains(t, text, " X | 1 | 2")
	assert.Contains(t, text, " 3 | O | 5")
	assert.Contains(t, text, "Turn: X")
}

func TestPrintRoomJSON(t *testing.T) {
	var out bytes.Buffer
	o := newOutputTo("json", &out, &out)

	o.Print(response.Room{Code: "ROOM01", Status: "waiting"})

	assert.Contains(t, out.String(), `"code": "ROOM01"`)
}

func TestPlayCommands(t *testing.T) {
	ctx := context.Background()
	app := factory.NewTestApp()
	app.MockRandom.QueueString("ROOM01")

	host := app.NewLocalEngine(app.CreatePlayer("p-host", "Host"), engine.DefaultConfig())
	guest := app.NewLocalEngine(app.CreatePlayer("p-guest", "Guest"), engine.DefaultConfig())
	defer host.Close()
	defer guest.Close()
	require.NoError(t, host.CreateRoom(ctx, model.GameTicTacToe))
	require.NoError(t, guest.JoinRoom(ctx, "ROOM01"))
	require.NoError(t, host.Refresh(ctx))

	var out bytes.Buffer
	o := newOutputTo("text", &out, &out)

	done, err := runPlayCommand(ctx, host, "4", o)
	require.NoError(t, err)
	assert.False(t, done)

	_, err = runPlayCommand(ctx, host, "0", o)
	assert.Error(t, err)

	_, err = runPlayCommand(ctx, host, "next", o)
	assert.ErrorIs(t, err, engine.ErrWrongPhase)

	_, err = runPlayCommand(ctx, host, "help", o)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "rematch")

	done, err = runPlayCommand(ctx, guest, "quit", o)
	require.NoError(t, err)
	assert.True(t, done)
	assert.Equal(t, engine.PhaseMenu, guest.View().Phase)
}

func TestPlayLoopEndsWithInput(t *testing.T) {
	ctx := context.Background()
	app := factory.NewTestApp()
	app.MockRandom.QueueString("ROOM01")

	e := app.NewLocalEngine(app.CreatePlayer("p-host", "Host"), engine.DefaultConfig())
	defer e.Close()
	require.NoError(t, e.CreateRoom(ctx, model.GameConnectFour))

	var out bytes.Buffer
	err := playLoop(ctx, e, strings.NewReader("help\n3\n"), newOutputTo("text", &out, &out))

	require.NoError(t, err)
	assert.Equal(t, engine.PhaseMenu, e.View().Phase)
	// Moving in a waiting room is refused locally
	assert.Contains(t, out.String(), "you cannot move right now")
}

package room

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/gameroom/internal/dependencies/mocks"
	"github.com/mcoot/gameroom/internal/metrics"
	"github.com/mcoot/gameroom/internal/model"
	"github.com/mcoot/gameroom/internal/rules"
	"github.com/mcoot/gameroom/internal/storage/memory"
	itestutil "github.com/mcoot/gameroom/internal/testutil"
)

type recordingNotifier struct {
	mu     sync.Mutex
	events []model.RoomEvent
}

func (n *recordingNotifier) Publish(e model.RoomEvent) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, e)
}

func (n *recordingNotifier) types() []model.EventType {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []model.EventType
	for _, e := range n.events {
		out = append(out, e.Type)
	}
	return out
}

type ControllerSuite struct {
	suite.Suite
	storage    *memory.Storage
	clock      *mocks.MockClock
	random     *mocks.MockRandom
	notifier   *recordingNotifier
	metrics    *metrics.Metrics
	controller *Controller
	ctx        context.Context

	alice model.Player
	bob   model.Player
	carol model.Player
}

func TestControllerSuite(t *testing.T) {
	suite.Run(t, new(ControllerSuite))
}

func (s *ControllerSuite) SetupTest() {
	s.storage = memory.New()
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.random = mocks.NewMockRandom()
	s.notifier = &recordingNotifier{}
	s.metrics = metrics.New()
	s.controller = NewController(s.storage, rules.DefaultRegistry(), s.notifier, s.metrics, s.clock, s.random, itestutil.NopLogger())
	s.ctx = context.Background()

	s.alice = model.Player{ID: "p-alice", DisplayName: "Alice", IsGuest: true}
	s.bob = model.Player{ID: "p-bob", DisplayName: "Bob", IsGuest: true}
	s.carol = model.Player{ID: "p-carol", DisplayName: "Carol", IsGuest: true}
}

func (s *ControllerSuite) createRoom(gt model.GameType) *model.Room {
	s.random.QueueString("ABC123")
	room, err := s.controller.CreateRoom(s.ctx, s.alice, gt)
	s.Require().NoError(err)
	return room
}

func (s *ControllerSuite) startRoom(gt model.GameType) *model.Room {
	s.createRoom(gt)
	room, err := s.controller.JoinRoom(s.ctx, "ABC123", s.bob)
	s.Require().NoError(err)
	return room
}

func (s *ControllerSuite) move(playerID model.PlayerID, m model.Move) (*model.Room, error) {
	return s.controller.Move(s.ctx, "ABC123", playerID, model.MovePayload{Move: &m})
}

func (s *ControllerSuite) writeState(playerID model.PlayerID, state rules.State) (*model.Room, error) {
	raw, err := json.Marshal(state)
	s.Require().NoError(err)
	return s.controller.Move(s.ctx, "ABC123", playerID, model.MovePayload{State: raw})
}

// assertCounter compares a single-label counter series against the registry
func (s *ControllerSuite) assertCounter(name, help, label, value string, want int) {
	expected := fmt.Sprintf("# HELP %s %s\n# TYPE %s counter\n%s{%s=%q} %d\n", name, help, name, name, label, value, want)
	s.NoError(testutil.GatherAndCompare(s.metrics.Registry(), strings.NewReader(expected), name))
}

func (s *ControllerSuite) tttState(room *model.Room) *rules.TicTacToeState {
	st, err := rules.NewTicTacToe().Decode(room.State)
	s.Require().NoError(err)
	return st.(*rules.TicTacToeState)
}

// CreateRoom tests

func (s *ControllerSuite) TestCreateRoomSeatsHost() {
	room := s.createRoom(model.GameTicTacToe)

	s.Equal(model.RoomCode("ABC123"), room.Code)
	s.Equal(model.GameTicTacToe, room.GameType)
	s.Equal(s.alice.ID, room.HostID)
	s.Equal(model.RoomWaiting, room.Status)
	s.Equal(int64(1), room.Version)
	s.Require().Len(room.Players, 1)
	s.Equal(model.SeatHost, room.Players[0].Seat)
	s.Equal(rules.MarkX, room.Players[0].Label)
	s.Equal(rules.MarkX, s.tttState(room).Turn)
}

func (s *ControllerSuite) TestCreateRoomIsPersistedAndCounted() {
	s.createRoom(model.GameConnectFour)

	stored, err := s.controller.GetRoom(s.ctx, "ABC123")
	s.Require().NoError(err)
	s.Equal(model.GameConnectFour, stored.GameType)
	s.Equal(rules.DiscRed, stored.Players[0].Label)
	s.Equal([]model.EventType{model.EventRoomCreated}, s.notifier.types())
	s.assertCounter("gameroom_rooms_created_total", "Rooms created, by game type.", "game_type", "connect-four", 1)
}

func (s *ControllerSuite) TestCreateRoomUnknownGameType() {
	_, err := s.controller.CreateRoom(s.ctx, s.alice, "chess")
	s.ErrorIs(err, model.ErrUnknownGameType)
}

func (s *ControllerSuite) TestCreateRoomSkipsTakenCodes() {
	s.createRoom(model.GameTicTacToe)
	s.random.QueueString("ABC123", "XYZ789")

	room, err := s.controller.CreateRoom(s.ctx, s.bob, model.GameTicTacToe)
	s.Require().NoError(err)
	s.Equal(model.RoomCode("XYZ789"), room.Code)
}

func (s *ControllerSuite) TestCreateRoomGivesUpWithoutFreeCode() {
	_, err := s.controller.CreateRoom(s.ctx, s.alice, model.GameTicTacToe)
	s.ErrorIs(err, ErrCodeSpaceExhausted)
}

// JoinRoom tests

func (s *ControllerSuite) TestJoinRoomStartsGame() {
	room := s.startRoom(model.GameTicTacToe)

	s.Equal(model.RoomInProgress, room.Status)
	s.Equal(int64(2), room.Version)
	s.Require().Len(room.Players, 2)
	s.Equal(s.bob.ID, room.Players[1].PlayerID)
	s.Equal(model.SeatGuest, room.Players[1].Seat)
	s.Equal(rules.MarkO, room.Players[1].Label)
}

func (s *ControllerSuite) TestJoinRoomIsIdempotent() {
	s.startRoom(model.GameTicTacToe)

	for i := 0; i < 2; i++ {
		_, err := s.controller.JoinRoom(s.ctx, "ABC123", s.bob)
		s.ErrorIs(err, model.ErrAlreadyJoined)
	}
	_, err := s.controller.JoinRoom(s.ctx, "ABC123", s.alice)
	s.ErrorIs(err, model.ErrAlreadyJoined)

	room, err := s.controller.GetRoom(s.ctx, "ABC123")
	s.Require().NoError(err)
	s.Len(room.Players, 2)
	s.Equal(int64(2), room.Version)
	seat, ok := room.SeatOf(s.bob.ID)
	s.True(ok)
	s.Equal(model.SeatGuest, seat)
}

func (s *ControllerSuite) TestHostRejoiningWaitingRoomKeepsItWaiting() {
	s.createRoom(model.GameTicTacToe)
	_, err := s.controller.JoinRoom(s.ctx, "ABC123", s.alice)
	s.ErrorIs(err, model.ErrAlreadyJoined)

	room, _ := s.controller.GetRoom(s.ctx, "ABC123")
	s.Equal(model.RoomWaiting, room.Status)
	s.Len(room.Players, 1)
}

func (s *ControllerSuite) TestJoinFullRoom() {
	s.startRoom(model.GameTicTacToe)
	_, err := s.controller.JoinRoom(s.ctx, "ABC123", s.carol)
	s.ErrorIs(err, model.ErrRoomFull)
	s.assertCounter("gameroom_joins_rejected_total", "Join attempts refused, by reason.", "reason", "full", 1)
}

func (s *ControllerSuite) TestJoinMissingRoom() {
	_, err := s.controller.JoinRoom(s.ctx, "NOPE99", s.bob)
	s.ErrorIs(err, model.ErrRoomNotFound)
}

func (s *ControllerSuite) TestJoinAbandonedRoom() {
	s.createRoom(model.GameTicTacToe)
	_, err := s.controller.AbandonRoom(s.ctx, "ABC123", s.alice.ID)
	s.Require().NoError(err)

	_, err = s.controller.JoinRoom(s.ctx, "ABC123", s.bob)
	s.ErrorIs(err, model.ErrRoomAbandoned)
}

// Move tests

func (s *ControllerSuite) TestMoveBeforeOpponentJoins() {
	s.createRoom(model.GameTicTacToe)
	_, err := s.move(s.alice.ID, model.Move{Position: 0})
	s.ErrorIs(err, model.ErrRoomNotStarted)
}

func (s *ControllerSuite) TestMoveByStranger() {
	s.startRoom(model.GameTicTacToe)
	_, err := s.move(s.carol.ID, model.Move{Position: 0})
	s.ErrorIs(err, model.ErrNotInRoom)
}

func (s *ControllerSuite) TestMovePayloadMustBeOneOrTheOther() {
	s.startRoom(model.GameTicTacToe)
	_, err := s.controller.Move(s.ctx, "ABC123", s.alice.ID, model.MovePayload{})
	s.ErrorIs(err, model.ErrInvalidPayload)

	_, err = s.controller.Move(s.ctx, "ABC123", s.alice.ID, model.MovePayload{
		State: json.RawMessage(`{}`),
		Move:  &model.Move{Position: 1},
	})
	s.ErrorIs(err, model.ErrInvalidPayload)
}

func (s *ControllerSuite) TestServerInterpretedMove() {
	s.startRoom(model.GameTicTacToe)

	room, err := s.move(s.alice.ID, model.Move{Position: 4})
	s.Require().NoError(err)
	st := s.tttState(room)
	s.Equal(rules.MarkX, st.Board[4])
	s.Equal(rules.MarkO, st.Turn)
	s.Equal(int64(3), room.Version)
	s.Equal(model.RoomInProgress, room.Status)
}

func (s *ControllerSuite) TestServerInterpretedMoveChecksLegality() {
	s.startRoom(model.GameTicTacToe)

	_, err := s.move(s.bob.ID, model.Move{Position: 0})
	s.ErrorIs(err, model.ErrIllegalMove, "not seat 1's turn")

	_, err = s.move(s.alice.ID, model.Move{Position: 0})
	s.Require().NoError(err)
	_, err = s.move(s.bob.ID, model.Move{Position: 0})
	s.ErrorIs(err, model.ErrIllegalMove, "occupied")

	room, _ := s.controller.GetRoom(s.ctx, "ABC123")
	s.Equal(int64(3), room.Version)
}

func (s *ControllerSuite) TestStatePayloadIsLastWriteWins() {
	s.startRoom(model.GameConnectFour)
	c4 := rules.NewConnectFour()

	// Both seats compute from the same starting state; the later write
	// replaces the earlier one even though it never saw it.
	base := c4.InitialState(nil)
	first := c4.ApplyMove(base, model.SeatHost, model.Move{Position: 0})
	_, err := s.writeState(s.alice.ID, first)
	s.Require().NoError(err)

	stale := c4.ApplyMove(base, model.SeatHost, model.Move{Position: 6})
	room, err := s.writeState(s.bob.ID, stale)
	s.Require().NoError(err)

	st, err := c4.Decode(room.State)
	s.Require().NoError(err)
	board := st.(*rules.ConnectFourState).Board
	s.Empty(board[5][0])
	s.Equal(rules.DiscRed, board[5][6])
	s.Equal(int64(4), room.Version)
}

func (s *ControllerSuite) TestStatePayloadMustDecode() {
	s.startRoom(model.GameTicTacToe)
	_, err := s.controller.Move(s.ctx, "ABC123", s.alice.ID, model.MovePayload{State: json.RawMessage(`{"turn":"Q"}`)})
	s.ErrorIs(err, model.ErrInvalidState)
}

func (s *ControllerSuite) TestWinFinishesAndRematchReopens() {
	s.startRoom(model.GameTicTacToe)
	for i, pos := range []int{0, 3, 1, 4, 2} {
		player := s.alice.ID
		if i%2 == 1 {
			player = s.bob.ID
		}
		_, err := s.move(player, model.Move{Position: pos})
		s.Require().NoError(err)
	}

	room, _ := s.controller.GetRoom(s.ctx, "ABC123")
	s.Equal(model.RoomFinished, room.Status)
	s.Equal(rules.MarkX, s.tttState(room).Winner)
	s.assertCounter("gameroom_rooms_finished_total", "Writes that moved a room to finished, by game type.", "game_type", "tic-tac-toe", 1)

	_, err := s.move(s.bob.ID, model.Move{Position: 8})
	s.ErrorIs(err, model.ErrIllegalMove)

	room, err = s.writeState(s.bob.ID, rules.NewTicTacToe().InitialState(nil))
	s.Require().NoError(err)
	s.Equal(model.RoomInProgress, room.Status)
	s.Empty(s.tttState(room).Winner)
}

func (s *ControllerSuite) TestExpectedVersion() {
	s.startRoom(model.GameTicTacToe)
	stale := int64(1)
	m := model.Move{Position: 0}

	_, err := s.controller.Move(s.ctx, "ABC123", s.alice.ID, model.MovePayload{Move: &m, ExpectedVersion: &stale})
	s.ErrorIs(err, model.ErrVersionConflict)

	current := int64(2)
	room, err := s.controller.Move(s.ctx, "ABC123", s.alice.ID, model.MovePayload{Move: &m, ExpectedVersion: &current})
	s.Require().NoError(err)
	s.Equal(int64(3), room.Version)
}

func (s *ControllerSuite) TestRockPaperScissorsRoundCycle() {
	s.startRoom(model.GameRockPaperScissors)

	room, err := s.controller.Move(s.ctx, "ABC123", s.alice.ID, model.MovePayload{Move: &model.Move{Choice: rules.ChoiceRock}})
	s.Require().NoError(err)
	s.Equal(model.RoomInProgress, room.Status)

	room, err = s.controller.Move(s.ctx, "ABC123", s.bob.ID, model.MovePayload{Move: &model.Move{Choice: rules.ChoicePaper}})
	s.Require().NoError(err)
	s.Equal(model.RoomFinished, room.Status)

	rps := rules.NewRockPaperScissors()
	st, err := rps.Decode(room.State)
	s.Require().NoError(err)
	s.Equal([2]int{0, 1}, st.(*rules.RockPaperScissorsState).Scores)

	room, err = s.writeState(s.alice.ID, rps.NextRound(st))
	s.Require().NoError(err)
	s.Equal(model.RoomInProgress, room.Status)
}

// AbandonRoom tests

func (s *ControllerSuite) TestAbandonRoom() {
	s.startRoom(model.GameTicTacToe)

	_, err := s.controller.AbandonRoom(s.ctx, "ABC123", s.carol.ID)
	s.ErrorIs(err, model.ErrNotInRoom)

	room, err := s.controller.AbandonRoom(s.ctx, "ABC123", s.bob.ID)
	s.Require().NoError(err)
	s.Equal(model.RoomAbandoned, room.Status)
	s.Equal(int64(3), room.Version)

	room, err = s.controller.AbandonRoom(s.ctx, "ABC123", s.alice.ID)
	s.Require().NoError(err)
	s.Equal(int64(3), room.Version, "already abandoned")

	_, err = s.move(s.alice.ID, model.Move{Position: 0})
	s.ErrorIs(err, model.ErrRoomAbandoned)
}

// ListRooms tests

func (s *ControllerSuite) TestListRoomsFiltersByStatus() {
	s.random.QueueString("AAAAAA", "BBBBBB")
	_, err := s.controller.CreateRoom(s.ctx, s.alice, model.GameTicTacToe)
	s.Require().NoError(err)
	s.clock.Advance(time.Second)
	_, err = s.controller.CreateRoom(s.ctx, s.bob, model.GameMemoryMatch)
	s.Require().NoError(err)
	_, err = s.controller.JoinRoom(s.ctx, "AAAAAA", s.carol)
	s.Require().NoError(err)

	all, err := s.controller.ListRooms(s.ctx, "")
	s.Require().NoError(err)
	s.Len(all, 2)

	waiting, err := s.controller.ListRooms(s.ctx, model.RoomWaiting)
	s.Require().NoError(err)
	s.Require().Len(waiting, 1)
	s.Equal(model.RoomCode("BBBBBB"), waiting[0].Code)
}

func (s *ControllerSuite) TestEventsFollowWrites() {
	s.startRoom(model.GameTicTacToe)
	_, err := s.move(s.alice.ID, model.Move{Position: 0})
	s.Require().NoError(err)
	_, err = s.move(s.alice.ID, model.Move{Position: 1})
	s.Require().Error(err)
	_, err = s.controller.AbandonRoom(s.ctx, "ABC123", s.alice.ID)
	s.Require().NoError(err)

	s.Equal([]model.EventType{
		model.EventRoomCreated,
		model.EventPlayerJoined,
		model.EventStateChanged,
		model.EventRoomAbandoned,
	}, s.notifier.types())
}

package bot_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/gameroom/internal/dependencies/mocks"
	"github.com/mcoot/gameroom/internal/model"
	"github.com/mcoot/gameroom/internal/rules"
	"github.com/mcoot/gameroom/internal/services/bot"
	"github.com/mcoot/gameroom/internal/services/room"
	"github.com/mcoot/gameroom/internal/storage/memory"
	"github.com/mcoot/gameroom/internal/testutil"
)

type ServiceSuite struct {
	suite.Suite
	store      *memory.Storage
	mockClock  *mocks.MockClock
	mockRandom *mocks.MockRandom

	rooms      *room.Controller
	botService *bot.Service

	ctx context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.store = memory.New()
	s.mockClock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.mockRandom = mocks.NewMockRandom()
	logger := testutil.NopLogger()
	s.ctx = context.Background()

	s.rooms = room.NewController(s.store, rules.DefaultRegistry(), nil, nil, s.mockClock, s.mockRandom, logger)
	s.botService = bot.NewService(s.store, s.rooms, bot.DefaultStrategies(s.mockRandom), s.mockClock, s.mockRandom, logger)
}

func (s *ServiceSuite) createPlayer(id, name string) model.Player {
	p := model.Player{
		ID:          model.PlayerID(id),
		DisplayName: name,
		IsGuest:     true,
		CreatedAt:   s.mockClock.Now(),
	}
	_ = s.store.SavePlayer(s.ctx, &p)
	return p
}

func (s *ServiceSuite) createRoom(host model.Player, gt model.GameType) *model.Room {
	s.mockRandom.QueueString("ROOM01")
	r, err := s.rooms.CreateRoom(s.ctx, host, gt)
	s.Require().NoError(err)
	return r
}

func (s *ServiceSuite) tttBoard() [9]string {
	r, err := s.rooms.GetRoom(s.ctx, "ROOM01")
	s.Require().NoError(err)
	st, err := rules.NewTicTacToe().Decode(r.State)
	s.Require().NoError(err)
	return st.(*rules.TicTacToeState).Board
}

func (s *ServiceSuite) TestCreateBotPlayer() {
	s.mockRandom.QueueString("abcdefghijklmnop")

	player, err := s.botService.CreateBotPlayer(s.ctx, "Bot 1", bot.StrategyGreedy)
	s.Require().NoError(err)

	s.Equal("Bot 1", player.DisplayName)
	s.True(player.IsBot)
	s.True(player.IsGuest)
	s.Equal(bot.StrategyGreedy, player.BotStrategy)
	s.Equal(model.PlayerID("bot-abcdefghijklmnop"), player.ID)

	retrieved, err := s.store.GetPlayer(s.ctx, player.ID)
	s.Require().NoError(err)
	s.True(retrieved.IsBot)
}

func (s *ServiceSuite) TestAddBotToRoom() {
	host := s.createPlayer("host", "Host")
	s.createRoom(host, model.GameTicTacToe)

	s.mockRandom.QueueString("abcdefghijklmnop")
	botPlayer, r, err := s.botService.AddBotToRoom(s.ctx, "ROOM01", host.ID, "")
	s.Require().NoError(err)

	s.Equal("Bot (random)", botPlayer.DisplayName)
	s.Equal(model.RoomInProgress, r.Status)
	s.Require().Len(r.Players, 2)
	s.Equal(botPlayer.ID, r.Players[1].PlayerID)
	s.Equal(rules.MarkO, r.Players[1].Label)
}

func (s *ServiceSuite) TestAddBotToRoom_NotHost() {
	host := s.createPlayer("host", "Host")
	other := s.createPlayer("other", "Other")
	s.createRoom(host, model.GameTicTacToe)

	_, _, err := s.botService.AddBotToRoom(s.ctx, "ROOM01", other.ID, bot.StrategyRandom)
	s.ErrorIs(err, model.ErrNotHost)
}

func (s *ServiceSuite) TestAddBotToRoom_Full() {
	host := s.createPlayer("host", "Host")
	guest := s.createPlayer("guest", "Guest")
	s.createRoom(host, model.GameTicTacToe)
	_, err := s.rooms.JoinRoom(s.ctx, "ROOM01", guest)
	s.Require().NoError(err)

	_, _, err = s.botService.AddBotToRoom(s.ctx, "ROOM01", host.ID, bot.StrategyRandom)
	s.ErrorIs(err, model.ErrRoomFull)
}

func (s *ServiceSuite) TestAddBotToRoom_UnknownStrategy() {
	host := s.createPlayer("host", "Host")
	s.createRoom(host, model.GameTicTacToe)

	_, _, err := s.botService.AddBotToRoom(s.ctx, "ROOM01", host.ID, "minimax")
	s.ErrorIs(err, bot.ErrUnknownStrategy)
}

func (s *ServiceSuite) TestProcessBotActions_WaitsForHuman() {
	host := s.createPlayer("host", "Host")
	s.createRoom(host, model.GameTicTacToe)
	s.mockRandom.QueueString("abcdefghijklmnop")
	_, _, err := s.botService.AddBotToRoom(s.ctx, "ROOM01", host.ID, bot.StrategyRandom)
	s.Require().NoError(err)

	actions, err := s.botService.ProcessBotActions(s.ctx, "ROOM01")
	s.Require().NoError(err)
	s.Empty(actions, "X moves first and X is human")
}

func (s *ServiceSuite) TestProcessBotActions_AnswersHumanMove() {
	host := s.createPlayer("host", "Host")
	s.createRoom(host, model.GameTicTacToe)
	s.mockRandom.QueueString("abcdefghijklmnop")
	botPlayer, _, err := s.botService.AddBotToRoom(s.ctx, "ROOM01", host.ID, bot.StrategyRandom)
	s.Require().NoError(err)

	_, err = s.rooms.Move(s.ctx, "ROOM01", host.ID, model.MovePayload{Move: &model.Move{Position: 4}})
	s.Require().NoError(err)

	s.mockRandom.QueueIntn(0)
	actions, err := s.botService.ProcessBotActions(s.ctx, "ROOM01")
	s.Require().NoError(err)
	s.Require().Len(actions, 1)
	s.Equal(botPlayer.ID, actions[0].PlayerID)
	s.Equal(model.SeatGuest, actions[0].Seat)
	s.Equal(0, actions[0].Move.Position)
	s.Equal(int64(4), actions[0].Version)

	board := s.tttBoard()
	s.Equal(rules.MarkX, board[4])
	s.Equal(rules.MarkO, board[0])
}

func (s *ServiceSuite) TestProcessBotActions_BotsPlayToTheEnd() {
	s.mockRandom.QueueString("hosthosthosthost")
	hostBot, err := s.botService.CreateBotPlayer(s.ctx, "Bot A", bot.StrategyRandom)
	s.Require().NoError(err)
	s.createRoom(*hostBot, model.GameTicTacToe)
	s.mockRandom.QueueString("guestguestguestg")
	_, _, err = s.botService.AddBotToRoom(s.ctx, "ROOM01", hostBot.ID, bot.StrategyRandom)
	s.Require().NoError(err)

	// Every Intn returns 0, so each bot takes the lowest free cell
	actions, err := s.botService.ProcessBotActions(s.ctx, "ROOM01")
	s.Require().NoError(err)
	s.Len(actions, 7)

	r, err := s.rooms.GetRoom(s.ctx, "ROOM01")
	s.Require().NoError(err)
	s.Equal(model.RoomFinished, r.Status)
	st, err := rules.NewTicTacToe().Decode(r.State)
	s.Require().NoError(err)
	s.Equal(rules.MarkX, st.(*rules.TicTacToeState).Winner)
}

func (s *ServiceSuite) TestProcessBotActions_IgnoresWaitingRoom() {
	host := s.createPlayer("host", "Host")
	s.createRoom(host, model.GameConnectFour)

	actions, err := s.botService.ProcessBotActions(s.ctx, "ROOM01")
	s.Require().NoError(err)
	s.Empty(actions)
}

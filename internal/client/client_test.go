package client_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/gameroom/internal/api/request"
	"github.com/mcoot/gameroom/internal/api/response"
	"github.com/mcoot/gameroom/internal/client"
	"github.com/mcoot/gameroom/internal/factory"
	"github.com/mcoot/gameroom/internal/model"
)

type HTTPClientSuite struct {
	suite.Suite
	app *factory.TestApp
	srv *httptest.Server
	ctx context.Context
}

func TestHTTPClientSuite(t *testing.T) {
	suite.Run(t, new(HTTPClientSuite))
}

func (s *HTTPClientSuite) SetupTest() {
	s.app = factory.NewTestApp()
	s.srv = httptest.NewServer(s.app.Router())
	s.ctx = context.Background()
}

func (s *HTTPClientSuite) TearDownTest() {
	s.srv.Close()
	s.NoError(s.app.Close())
}

// login creates a guest and returns an identified client for it
func (s *HTTPClientSuite) login(name string) *client.HTTP {
	c := client.NewHTTP(s.srv.URL+"/", "")
	var auth response.AuthResponse
	s.Require().NoError(c.Post(s.ctx, "/api/v1/players/guest", request.CreateGuestRequest{DisplayName: name}, &auth))
	c.SetToken(auth.SessionToken)

	p, err := c.Identify(s.ctx)
	s.Require().NoError(err)
	s.Equal(name, p.DisplayName)
	s.Equal(model.PlayerID(auth.Player.ID), c.PlayerID())
	return c
}

func (s *HTTPClientSuite) TestTrimsTrailingSlash() {
	c := client.NewHTTP("http://localhost:8080/", "t")
	s.Equal("http://localhost:8080", c.BaseURL())
	s.Equal("t", c.Token())
}

func (s *HTTPClientSuite) TestRoomLifecycle() {
	host := s.login("Host")
	guest := s.login("Guest")
	s.app.MockRandom.QueueString("ROOM01")

	created, err := host.Create(s.ctx, model.GameTicTacToe)
	s.Require().NoError(err)
	s.Equal(model.RoomCode("ROOM01"), created.Code)
	s.Equal(host.PlayerID(), created.HostID)

	waiting, err := guest.List(s.ctx, model.RoomWaiting)
	s.Require().NoError(err)
	s.Require().Len(waiting, 1)

	joined, err := guest.Join(s.ctx, "ROOM01")
	s.Require().NoError(err)
	s.Equal(model.RoomInProgress, joined.Status)
	seat, ok := joined.SeatOf(guest.PlayerID())
	s.True(ok)
	s.Equal(model.SeatGuest, seat)

	expected := joined.Version
	moved, err := host.Move(s.ctx, "ROOM01", model.MovePayload{
		Move:            &model.Move{Position: 4},
		ExpectedVersion: &expected,
	})
	s.Require().NoError(err)
	s.Equal(expected+1, moved.Version)

	fetched, err := guest.Fetch(s.ctx, "ROOM01")
	s.Require().NoError(err)
	s.Equal(moved.Version, fetched.Version)
	s.JSONEq(string(moved.State), string(fetched.State))

	abandoned, err := guest.Abandon(s.ctx, "ROOM01")
	s.Require().NoError(err)
	s.Equal(model.RoomAbandoned, abandoned.Status)
}

func (s *HTTPClientSuite) TestErrorsUnwrapToSentinels() {
	host := s.login("Host")
	guest := s.login("Guest")
	s.app.MockRandom.QueueString("ROOM01")
	_, err := host.Create(s.ctx, model.GameConnectFour)
	s.Require().NoError(err)

	_, err = host.Join(s.ctx, "ROOM01")
	s.ErrorIs(err, model.ErrAlreadyJoined)

	var apiErr *client.APIError
	s.Require().True(errors.As(err, &apiErr))
	s.Equal(http.StatusConflict, apiErr.Status)
	s.Equal("ALREADY_JOINED", apiErr.Code)

	_, err = guest.Fetch(s.ctx, "NOPE99")
	s.ErrorIs(err, model.ErrRoomNotFound)

	_, err = host.Create(s.ctx, "chess")
	s.ErrorIs(err, model.ErrUnknownGameType)

	_, err = host.Move(s.ctx, "ROOM01", model.MovePayload{Move: &model.Move{Position: 0}})
	s.ErrorIs(err, model.ErrRoomNotStarted)

	_, _, err = guest.AddBot(s.ctx, "ROOM01", "")
	s.ErrorIs(err, model.ErrNotHost)

	anon := client.NewHTTP(s.srv.URL, "bogus")
	_, err = anon.Identify(s.ctx)
	s.ErrorIs(err, client.ErrUnauthorized)
}

func (s *HTTPClientSuite) TestAddBot() {
	host := s.login("Host")
	s.app.MockRandom.QueueString("ROOM01")
	_, err := host.Create(s.ctx, model.GameRockPaperScissors)
	s.Require().NoError(err)

	bot, r, err := host.AddBot(s.ctx, "ROOM01", "random")
	s.Require().NoError(err)
	s.True(bot.IsBot)
	s.Equal(model.RoomInProgress, r.Status)
	_, ok := r.SeatOf(bot.ID)
	s.True(ok)
}

func (s *HTTPClientSuite) TestWatchURL() {
	c := client.NewHTTP("https://games.example.com", "abc")
	u, err := c.WatchURL("ROOM01")
	s.Require().NoError(err)
	s.Equal("wss://games.example.com/api/v1/rooms/ROOM01/ws?token=abc", u)

	c = client.NewHTTP("http://localhost:8080", "")
	u, err = c.WatchURL("ROOM01")
	s.Require().NoError(err)
	s.Equal("ws://localhost:8080/api/v1/rooms/ROOM01/ws", u)
}

func (s *HTTPClientSuite) TestUnknownErrorBodyIsNotAnAPIError() {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := client.NewHTTP(srv.URL, "").Fetch(s.ctx, "ROOM01")
	s.Require().Error(err)
	var apiErr *client.APIError
	s.False(errors.As(err, &apiErr))
	s.Contains(err.Error(), "HTTP 502")
}

type LocalClientSuite struct {
	suite.Suite
	app *factory.TestApp
	ctx context.Context
}

func TestLocalClientSuite(t *testing.T) {
	suite.Run(t, new(LocalClientSuite))
}

func (s *LocalClientSuite) SetupTest() {
	s.app = factory.NewTestApp()
	s.ctx = context.Background()
}

func (s *LocalClientSuite) TestActsAsItsPlayer() {
	host := client.NewLocal(s.app.RoomController, s.app.CreatePlayer("p-host", "Host"))
	guest := client.NewLocal(s.app.RoomController, s.app.CreatePlayer("p-guest", "Guest"))
	s.app.MockRandom.QueueString("ROOM01")

	created, err := host.Create(s.ctx, model.GameTicTacToe)
	s.Require().NoError(err)
	s.Equal(model.PlayerID("p-host"), created.HostID)

	joined, err := guest.Join(s.ctx, created.Code)
	s.Require().NoError(err)
	s.Equal(int64(2), joined.Version)

	_, err = guest.Move(s.ctx, created.Code, model.MovePayload{Move: &model.Move{Position: 0}})
	s.ErrorIs(err, model.ErrIllegalMove)

	moved, err := host.Move(s.ctx, created.Code, model.MovePayload{Move: &model.Move{Position: 0}})
	s.Require().NoError(err)
	s.Equal(int64(3), moved.Version)

	fetched, err := guest.Fetch(s.ctx, created.Code)
	s.Require().NoError(err)
	s.Equal(moved.Version, fetched.Version)

	abandoned, err := host.Abandon(s.ctx, created.Code)
	s.Require().NoError(err)
	s.Equal(model.RoomAbandoned, abandoned.Status)
}

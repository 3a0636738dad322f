// Package storagetest holds the behaviour every storage backend must share.
package storagetest

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/gameroom/internal/model"
	"github.com/mcoot/gameroom/internal/storage"
)

// Suite runs the shared storage tests. Backends embed it and set NewStorage.
type Suite struct {
	suite.Suite

	// NewStorage returns an empty store for each test
	NewStorage func() storage.Storage

	Store storage.Storage
	Ctx   context.Context
}

var baseTime = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func (s *Suite) SetupTest() {
	s.Require().NotNil(s.NewStorage, "NewStorage must be set")
	s.Store = s.NewStorage()
	s.Ctx = context.Background()
}

// NewRoom builds a waiting tic-tac-toe room with one seated player
func NewRoom(code model.RoomCode, createdAt time.Time) *model.Room {
	return &model.Room{
		Code:     code,
		GameType: model.GameTicTacToe,
		HostID:   "player-1",
		Players: []model.RoomPlayer{
			{PlayerID: "player-1", DisplayName: "Alice", Seat: model.SeatHost, Label: "X", JoinedAt: createdAt},
		},
		Status:    model.RoomWaiting,
		State:     json.RawMessage(`{"board":["","","","","","","","",""],"turn":"X"}`),
		Version:   1,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
}

// Player tests

func (s *Suite) TestSaveAndGetPlayer() {
	player := &model.Player{ID: "player-1", DisplayName: "Alice", IsGuest: true, CreatedAt: baseTime}
	s.Require().NoError(s.Store.SavePlayer(s.Ctx, player))

	got, err := s.Store.GetPlayer(s.Ctx, "player-1")
	s.Require().NoError(err)
	s.Equal(player.DisplayName, got.DisplayName)
	s.True(got.IsGuest)
}

func (s *Suite) TestGetPlayerNotFound() {
	_, err := s.Store.GetPlayer(s.Ctx, "nobody")
	s.ErrorIs(err, model.ErrPlayerNotFound)
}

func (s *Suite) TestDeletePlayer() {
	s.Require().NoError(s.Store.SavePlayer(s.Ctx, &model.Player{ID: "player-1", DisplayName: "Alice"}))
	s.Require().NoError(s.Store.DeletePlayer(s.Ctx, "player-1"))

	_, err := s.Store.GetPlayer(s.Ctx, "player-1")
	s.ErrorIs(err, model.ErrPlayerNotFound)
}

// Registered player tests

func (s *Suite) TestRegisteredPlayerLookups() {
	rp := &model.RegisteredPlayer{PlayerID: "player-1", Username: "alice", PasswordHash: "hash", CreatedAt: baseTime}
	s.Require().NoError(s.Store.SaveRegisteredPlayer(s.Ctx, rp))

	byID, err := s.Store.GetRegisteredPlayer(s.Ctx, "player-1")
	s.Require().NoError(err)
	s.Equal("alice", byID.Username)

	byName, err := s.Store.GetRegisteredPlayerByUsername(s.Ctx, "alice")
	s.Require().NoError(err)
	s.Equal(model.PlayerID("player-1"), byName.PlayerID)

	_, err = s.Store.GetRegisteredPlayerByUsername(s.Ctx, "bob")
	s.ErrorIs(err, model.ErrPlayerNotFound)
	_, err = s.Store.GetRegisteredPlayer(s.Ctx, "player-2")
	s.ErrorIs(err, model.ErrPlayerNotFound)
}

// Room tests

func (s *Suite) TestSaveAndGetRoom() {
	room := NewRoom("ABC123", baseTime)
	s.Require().NoError(s.Store.SaveRoom(s.Ctx, room))

	got, err := s.Store.GetRoom(s.Ctx, "ABC123")
	s.Require().NoError(err)
	s.Equal(room.Code, got.Code)
	s.Equal(room.GameType, got.GameType)
	s.Equal(room.HostID, got.HostID)
	s.Equal(room.Status, got.Status)
	s.Equal(room.Version, got.Version)
	s.Require().Len(got.Players, 1)
	s.Equal(room.Players[0].PlayerID, got.Players[0].PlayerID)
	s.Equal(room.Players[0].Label, got.Players[0].Label)
	s.JSONEq(string(room.State), string(got.State))
	s.True(room.CreatedAt.Equal(got.CreatedAt))
}

func (s *Suite) TestGetRoomNotFound() {
	_, err := s.Store.GetRoom(s.Ctx, "NOPE99")
	s.ErrorIs(err, model.ErrRoomNotFound)
}

func (s *Suite) TestGetRoomReturnsCopy() {
	s.Require().NoError(s.Store.SaveRoom(s.Ctx, NewRoom("ABC123", baseTime)))

	got, err := s.Store.GetRoom(s.Ctx, "ABC123")
	s.Require().NoError(err)
	got.Status = model.RoomAbandoned
	got.Players[0].DisplayName = "Mallory"

	again, err := s.Store.GetRoom(s.Ctx, "ABC123")
	s.Require().NoError(err)
	s.Equal(model.RoomWaiting, again.Status)
	s.Equal("Alice", again.Players[0].DisplayName)
}

func (s *Suite) TestRoomExistsAndDelete() {
	s.Require().NoError(s.Store.SaveRoom(s.Ctx, NewRoom("ABC123", baseTime)))

	exists, err := s.Store.RoomExists(s.Ctx, "ABC123")
	s.Require().NoError(err)
	s.True(exists)

	s.Require().NoError(s.Store.DeleteRoom(s.Ctx, "ABC123"))
	exists, err = s.Store.RoomExists(s.Ctx, "ABC123")
	s.Require().NoError(err)
	s.False(exists)

	_, err = s.Store.GetRoom(s.Ctx, "ABC123")
	s.ErrorIs(err, model.ErrRoomNotFound)
}

func (s *Suite) TestListRoomsNewestFirst() {
	s.Require().NoError(s.Store.SaveRoom(s.Ctx, NewRoom("AAAAAA", baseTime)))
	s.Require().NoError(s.Store.SaveRoom(s.Ctx, NewRoom("BBBBBB", baseTime.Add(time.Minute))))
	s.Require().NoError(s.Store.SaveRoom(s.Ctx, NewRoom("CCCCCC", baseTime.Add(-time.Minute))))

	rooms, err := s.Store.ListRooms(s.Ctx)
	s.Require().NoError(err)
	s.Require().Len(rooms, 3)
	s.Equal(model.RoomCode("BBBBBB"), rooms[0].Code)
	s.Equal(model.RoomCode("AAAAAA"), rooms[1].Code)
	s.Equal(model.RoomCode("CCCCCC"), rooms[2].Code)
}

func (s *Suite) TestListRoomsSkipsDeleted() {
	s.Require().NoError(s.Store.SaveRoom(s.Ctx, NewRoom("AAAAAA", baseTime)))
	s.Require().NoError(s.Store.SaveRoom(s.Ctx, NewRoom("BBBBBB", baseTime)))
	s.Require().NoError(s.Store.DeleteRoom(s.Ctx, "AAAAAA"))

	rooms, err := s.Store.ListRooms(s.Ctx)
	s.Require().NoError(err)
	s.Require().Len(rooms, 1)
	s.Equal(model.RoomCode("BBBBBB"), rooms[0].Code)
}

// UpdateRoom tests

func (s *Suite) TestUpdateRoomPersists() {
	s.Require().NoError(s.Store.SaveRoom(s.Ctx, NewRoom("ABC123", baseTime)))

	updated, err := s.Store.UpdateRoom(s.Ctx, "ABC123", func(r *model.Room) error {
		r.Players = append(r.Players, model.RoomPlayer{PlayerID: "player-2", DisplayName: "Bob", Seat: model.SeatGuest, Label: "O"})
		r.Status = model.RoomInProgress
		r.Version++
		return nil
	})
	s.Require().NoError(err)
	s.Equal(model.RoomInProgress, updated.Status)
	s.Equal(int64(2), updated.Version)

	got, err := s.Store.GetRoom(s.Ctx, "ABC123")
	s.Require().NoError(err)
	s.Len(got.Players, 2)
	s.Equal(model.RoomInProgress, got.Status)
	s.Equal(int64(2), got.Version)
}

func (s *Suite) TestUpdateRoomErrorLeavesRoomUntouched() {
	s.Require().NoError(s.Store.SaveRoom(s.Ctx, NewRoom("ABC123", baseTime)))
	boom := errors.New("boom")

	_, err := s.Store.UpdateRoom(s.Ctx, "ABC123", func(r *model.Room) error {
		r.Status = model.RoomFinished
		return boom
	})
	s.ErrorIs(err, boom)

	got, err := s.Store.GetRoom(s.Ctx, "ABC123")
	s.Require().NoError(err)
	s.Equal(model.RoomWaiting, got.Status)
}

func (s *Suite) TestUpdateRoomNotFound() {
	called := false
	_, err := s.Store.UpdateRoom(s.Ctx, "NOPE99", func(r *model.Room) error {
		called = true
		return nil
	})
	s.ErrorIs(err, model.ErrRoomNotFound)
	s.False(called)
}

func (s *Suite) TestConcurrentUpdatesAreNotLost() {
	s.Require().NoError(s.Store.SaveRoom(s.Ctx, NewRoom("ABC123", baseTime)))

	const writers = 8
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Store.UpdateRoom(s.Ctx, "ABC123", func(r *model.Room) error {
				r.Version++
				return nil
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		s.NoError(err)
	}

	got, err := s.Store.GetRoom(s.Ctx, "ABC123")
	s.Require().NoError(err)
	s.Equal(int64(1+writers), got.Version)
}

package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/mcoot/gameroom/internal/model"
	"github.com/mcoot/gameroom/internal/storage"
)

// Storage is an in-memory implementation of the storage interface.
// Rooms are copied on the way in and out so callers never share them.
type Storage struct {
	mu sync.RWMutex

	players           map[model.PlayerID]*model.Player
	registeredPlayers map[model.PlayerID]*model.RegisteredPlayer
	usernameIndex     map[string]model.PlayerID
	rooms             map[model.RoomCode]*model.Room
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		players:           make(map[model.PlayerID]*model.Player),
		registeredPlayers: make(map[model.PlayerID]*model.RegisteredPlayer),
		usernameIndex:     make(map[string]model.PlayerID),
		rooms:             make(map[model.RoomCode]*model.Room),
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Player operations

func (s *Storage) SavePlayer(ctx context.Context, player *model.Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := *player
	s.players[player.ID] = &p
	return nil
}

func (s *Storage) GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	player, ok := s.players[id]
	if !ok {
		return nil, model.ErrPlayerNotFound
	}
	p := *player
	return &p, nil
}

func (s *Storage) DeletePlayer(ctx context.Context, id model.PlayerID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.players, id)
	return nil
}

// Registered player operations

func (s *Storage) SaveRegisteredPlayer(ctx context.Context, rp *model.RegisteredPlayer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.registeredPlayers[rp.PlayerID] = rp
	s.usernameIndex[rp.Username] = rp.PlayerID
	return nil
}

func (s *Storage) GetRegisteredPlayer(ctx context.Context, playerID model.PlayerID) (*model.RegisteredPlayer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rp, ok := s.registeredPlayers[playerID]
	if !ok {
		return nil, model.ErrPlayerNotFound
	}
	return rp, nil
}

func (s *Storage) GetRegisteredPlayerByUsername(ctx context.Context, username string) (*model.RegisteredPlayer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	playerID, ok := s.usernameIndex[username]
	if !ok {
		return nil, model.ErrPlayerNotFound
	}
	rp, ok := s.registeredPlayers[playerID]
	if !ok {
		return nil, model.ErrPlayerNotFound
	}
	return rp, nil
}

// Room operations

func (s *Storage) SaveRoom(ctx context.Context, room *model.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rooms[room.Code] = room.Clone()
	return nil
}

func (s *Storage) GetRoom(ctx context.Context, code model.RoomCode) (*model.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	room, ok := s.rooms[code]
	if !ok {
		return nil, model.ErrRoomNotFound
	}
	return room.Clone(), nil
}

func (s *Storage) DeleteRoom(ctx context.Context, code model.RoomCode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rooms, code)
	return nil
}

func (s *Storage) RoomExists(ctx context.Context, code model.RoomCode) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.rooms[code]
	return ok, nil
}

// ListRooms returns every room, newest first
func (s *Storage) ListRooms(ctx context.Context) ([]*model.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rooms := make([]*model.Room, 0, len(s.rooms))
	for _, r := range s.rooms {
		rooms = append(rooms, r.Clone())
	}
	sort.Slice(rooms, func(i, j int) bool {
		return rooms[i].CreatedAt.After(rooms[j].CreatedAt)
	})
	return rooms, nil
}

func (s *Storage) UpdateRoom(ctx context.Context, code model.RoomCode, fn storage.RoomUpdateFunc) (*model.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.rooms[code]
	if !ok {
		return nil, model.ErrRoomNotFound
	}
	working := current.Clone()
	if err := fn(working); err != nil {
		return nil, err
	}
	s.rooms[code] = working.Clone()
	return working, nil
}

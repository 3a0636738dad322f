package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/gameroom/internal/model"
	"github.com/mcoot/gameroom/internal/storage"
)

// ErrUpdateContention is returned when UpdateRoom keeps losing WATCH races
var ErrUpdateContention = errors.New("room update retries exhausted")

// Storage is a Redis-backed implementation of the storage interface
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &Storage{
		client: client,
		cfg:    cfg,
	}, nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Player operations

func (s *Storage) SavePlayer(ctx context.Context, player *model.Player) error {
	data, err := json.Marshal(player)
	if err != nil {
		return err
	}

	// Only guests expire
	var ttl time.Duration
	if player.IsGuest {
		ttl = s.cfg.GuestPlayerTTL
	}
	return s.client.Set(ctx, playerKey(player.ID), data, ttl).Err()
}

func (s *Storage) GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error) {
	var player model.Player
	if err := s.getJSON(ctx, playerKey(id), &player, model.ErrPlayerNotFound); err != nil {
		return nil, err
	}
	return &player, nil
}

func (s *Storage) DeletePlayer(ctx context.Context, id model.PlayerID) error {
	return s.client.Del(ctx, playerKey(id)).Err()
}

// Registered player operations

func (s *Storage) SaveRegisteredPlayer(ctx context.Context, rp *model.RegisteredPlayer) error {
	data, err := json.Marshal(rp)
	if err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, registeredPlayerKey(rp.PlayerID), data, 0)
	pipe.Set(ctx, usernameIndexKey(rp.Username), string(rp.PlayerID), 0)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) GetRegisteredPlayer(ctx context.Context, playerID model.PlayerID) (*model.RegisteredPlayer, error) {
	var rp model.RegisteredPlayer
	if err := s.getJSON(ctx, registeredPlayerKey(playerID), &rp, model.ErrPlayerNotFound); err != nil {
		return nil, err
	}
	return &rp, nil
}

func (s *Storage) GetRegisteredPlayerByUsername(ctx context.Context, username string) (*model.RegisteredPlayer, error) {
	playerID, err := s.client.Get(ctx, usernameIndexKey(username)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrPlayerNotFound
		}
		return nil, err
	}
	return s.GetRegisteredPlayer(ctx, model.PlayerID(playerID))
}

// Room operations

func (s *Storage) SaveRoom(ctx context.Context, room *model.Room) error {
	data, err := json.Marshal(room)
	if err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, roomKey(room.Code), data, s.cfg.RoomTTL)
	pipe.SAdd(ctx, roomIndexKey(), string(room.Code))
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) GetRoom(ctx context.Context, code model.RoomCode) (*model.Room, error) {
	var room model.Room
	if err := s.getJSON(ctx, roomKey(code), &room, model.ErrRoomNotFound); err != nil {
		return nil, err
	}
	return &room, nil
}

func (s *Storage) DeleteRoom(ctx context.Context, code model.RoomCode) error {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, roomKey(code))
	pipe.SRem(ctx, roomIndexKey(), string(code))
	_, err := pipe.Exec(ctx)
	return err
}

func (s *Storage) RoomExists(ctx context.Context, code model.RoomCode) (bool, error) {
	n, err := s.client.Exists(ctx, roomKey(code)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ListRooms returns every live room, newest first. Codes whose room has
// expired are pruned from the index.
func (s *Storage) ListRooms(ctx context.Context) ([]*model.Room, error) {
	codes, err := s.client.SMembers(ctx, roomIndexKey()).Result()
	if err != nil {
		return nil, err
	}
	if len(codes) == 0 {
		return []*model.Room{}, nil
	}

	keys := make([]string, len(codes))
	for i, c := range codes {
		keys[i] = roomKey(model.RoomCode(c))
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	rooms := make([]*model.Room, 0, len(values))
	var stale []any
	for i, v := range values {
		str, ok := v.(string)
		if !ok {
			stale = append(stale, codes[i])
			continue
		}
		var room model.Room
		if err := json.Unmarshal([]byte(str), &room); err != nil {
			return nil, err
		}
		rooms = append(rooms, &room)
	}
	if len(stale) > 0 {
		if err := s.client.SRem(ctx, roomIndexKey(), stale...).Err(); err != nil {
			return nil, err
		}
	}

	sort.Slice(rooms, func(i, j int) bool {
		return rooms[i].CreatedAt.After(rooms[j].CreatedAt)
	})
	return rooms, nil
}

// UpdateRoom runs fn inside WATCH/MULTI on the room key, retrying when
// another writer commits first. fn may therefore run more than once.
func (s *Storage) UpdateRoom(ctx context.Context, code model.RoomCode, fn storage.RoomUpdateFunc) (*model.Room, error) {
	key := roomKey(code)
	var result *model.Room

	txf := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return model.ErrRoomNotFound
			}
			return err
		}

		var room model.Room
		if err := json.Unmarshal(data, &room); err != nil {
			return err
		}
		if err := fn(&room); err != nil {
			return err
		}
		out, err := json.Marshal(&room)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, out, s.cfg.RoomTTL)
			return nil
		})
		if err != nil {
			return err
		}
		result = &room
		return nil
	}

	for attempt := 0; attempt < s.cfg.MaxUpdateRetries; attempt++ {
		err := s.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return result, nil
	}
	return nil, fmt.Errorf("room %s: %w", code, ErrUpdateContention)
}

func (s *Storage) getJSON(ctx context.Context, key string, dst any, notFound error) error {
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return notFound
		}
		return err
	}
	return json.Unmarshal(data, dst)
}

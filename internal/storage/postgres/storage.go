package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mcoot/gameroom/internal/model"
	"github.com/mcoot/gameroom/internal/storage"
)

// Storage is a Postgres-backed implementation of the storage interface
type Storage struct {
	db *pgxpool.Pool
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// New connects a pool and verifies the connection
func New(ctx context.Context, cfg Config) (*Storage, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, err
	}
	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, err
	}
	return &Storage{db: pool}, nil
}

// NewWithPool wraps an existing pool
func NewWithPool(pool *pgxpool.Pool) *Storage {
	return &Storage{db: pool}
}

// Migrate creates the tables if they do not exist
func (s *Storage) Migrate(ctx context.Context) error {
	_, err := s.db.Exec(ctx, schema)
	return err
}

// Close closes the pool
func (s *Storage) Close() error {
	s.db.Close()
	return nil
}

// Player operations

func (s *Storage) SavePlayer(ctx context.Context, p *model.Player) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO players (id, display_name, is_guest, is_bot, bot_strategy, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			display_name = EXCLUDED.display_name,
			is_guest = EXCLUDED.is_guest,
			is_bot = EXCLUDED.is_bot,
			bot_strategy = EXCLUDED.bot_strategy
	`, string(p.ID), p.DisplayName, p.IsGuest, p.IsBot, p.BotStrategy, p.CreatedAt)
	return err
}

func (s *Storage) GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error) {
	var p model.Player
	var pid string
	err := s.db.QueryRow(ctx, `
		SELECT id, display_name, is_guest, is_bot, bot_strategy, created_at
		FROM players WHERE id = $1
	`, string(id)).Scan(&pid, &p.DisplayName, &p.IsGuest, &p.IsBot, &p.BotStrategy, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrPlayerNotFound
		}
		return nil, err
	}
	p.ID = model.PlayerID(pid)
	return &p, nil
}

func (s *Storage) DeletePlayer(ctx context.Context, id model.PlayerID) error {
	_, err := s.db.Exec(ctx, `DELETE FROM players WHERE id = $1`, string(id))
	return err
}

// Registered player operations

func (s *Storage) SaveRegisteredPlayer(ctx context.Context, rp *model.RegisteredPlayer) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO registered_players (player_id, username, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (player_id) DO UPDATE SET
			username = EXCLUDED.username,
			password_hash = EXCLUDED.password_hash,
			updated_at = EXCLUDED.updated_at
	`, string(rp.PlayerID), rp.Username, rp.PasswordHash, rp.CreatedAt, rp.UpdatedAt)
	return err
}

func (s *Storage) GetRegisteredPlayer(ctx context.Context, playerID model.PlayerID) (*model.RegisteredPlayer, error) {
	return s.scanRegistered(s.db.QueryRow(ctx, `
		SELECT player_id, username, password_hash, created_at, updated_at
		FROM registered_players WHERE player_id = $1
	`, string(playerID)))
}

func (s *Storage) GetRegisteredPlayerByUsername(ctx context.Context, username string) (*model.RegisteredPlayer, error) {
	return s.scanRegistered(s.db.QueryRow(ctx, `
		SELECT player_id, username, password_hash, created_at, updated_at
		FROM registered_players WHERE username = $1
	`, username))
}

func (s *Storage) scanRegistered(row pgx.Row) (*model.RegisteredPlayer, error) {
	var rp model.RegisteredPlayer
	var pid string
	if err := row.Scan(&pid, &rp.Username, &rp.PasswordHash, &rp.CreatedAt, &rp.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrPlayerNotFound
		}
		return nil, err
	}
	rp.PlayerID = model.PlayerID(pid)
	return &rp, nil
}

// Room operations

const roomColumns = `code, game_type, host_id, status, version, players, state, created_at, updated_at`

func (s *Storage) SaveRoom(ctx context.Context, room *model.Room) error {
	players, err := json.Marshal(room.Players)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(ctx, `
		INSERT INTO rooms (`+roomColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (code) DO UPDATE SET
			status = EXCLUDED.status,
			version = EXCLUDED.version,
			players = EXCLUDED.players,
			state = EXCLUDED.state,
			updated_at = EXCLUDED.updated_at
	`, string(room.Code), string(room.GameType), string(room.HostID), string(room.Status),
		room.Version, players, stateBytes(room.State), room.CreatedAt, room.UpdatedAt)
	return err
}

func (s *Storage) GetRoom(ctx context.Context, code model.RoomCode) (*model.Room, error) {
	return scanRoom(s.db.QueryRow(ctx, `SELECT `+roomColumns+` FROM rooms WHERE code = $1`, string(code)))
}

func (s *Storage) DeleteRoom(ctx context.Context, code model.RoomCode) error {
	_, err := s.db.Exec(ctx, `DELETE FROM rooms WHERE code = $1`, string(code))
	return err
}

func (s *Storage) RoomExists(ctx context.Context, code model.RoomCode) (bool, error) {
	var exists bool
	err := s.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM rooms WHERE code = $1)`, string(code)).Scan(&exists)
	return exists, err
}

func (s *Storage) ListRooms(ctx context.Context) ([]*model.Room, error) {
	rows, err := s.db.Query(ctx, `SELECT `+roomColumns+` FROM rooms ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	rooms := []*model.Room{}
	for rows.Next() {
		room, err := scanRoom(rows)
		if err != nil {
			return nil, err
		}
		rooms = append(rooms, room)
	}
	return rooms, rows.Err()
}

// UpdateRoom locks the row with SELECT ... FOR UPDATE for the duration of fn
func (s *Storage) UpdateRoom(ctx context.Context, code model.RoomCode, fn storage.RoomUpdateFunc) (*model.Room, error) {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	room, err := scanRoom(tx.QueryRow(ctx,
		`SELECT `+roomColumns+` FROM rooms WHERE code = $1 FOR UPDATE`, string(code)))
	if err != nil {
		return nil, err
	}
	if err := fn(room); err != nil {
		return nil, err
	}

	players, err := json.Marshal(room.Players)
	if err != nil {
		return nil, err
	}
	_, err = tx.Exec(ctx, `
		UPDATE rooms SET status = $2, version = $3, players = $4, state = $5, updated_at = $6
		WHERE code = $1
	`, string(code), string(room.Status), room.Version, players, stateBytes(room.State), room.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit room %s: %w", code, err)
	}
	return room, nil
}

func scanRoom(row pgx.Row) (*model.Room, error) {
	var (
		room                           model.Room
		code, gameType, hostID, status string
		players, state                 []byte
	)
	err := row.Scan(&code, &gameType, &hostID, &status, &room.Version, &players, &state, &room.CreatedAt, &room.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrRoomNotFound
		}
		return nil, err
	}
	if err := json.Unmarshal(players, &room.Players); err != nil {
		return nil, err
	}
	room.Code = model.RoomCode(code)
	room.GameType = model.GameType(gameType)
	room.HostID = model.PlayerID(hostID)
	room.Status = model.RoomStatus(status)
	room.State = json.RawMessage(state)
	return &room, nil
}

func stateBytes(raw json.RawMessage) []byte {
	if len(raw) == 0 {
		return []byte("null")
	}
	return []byte(raw)
}

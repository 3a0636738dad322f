package postgres

const schema = `
CREATE TABLE IF NOT EXISTS players (
	id           TEXT PRIMARY KEY,
	display_name TEXT NOT NULL,
	is_guest     BOOLEAN NOT NULL DEFAULT FALSE,
	is_bot       BOOLEAN NOT NULL DEFAULT FALSE,
	bot_strategy TEXT NOT NULL DEFAULT '',
	created_at   TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS registered_players (
	player_id     TEXT PRIMARY KEY,
	username      TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL,
	updated_at    TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS rooms (
	code       TEXT PRIMARY KEY,
	game_type  TEXT NOT NULL,
	host_id    TEXT NOT NULL,
	status     TEXT NOT NULL,
	version    BIGINT NOT NULL,
	players    JSONB NOT NULL,
	state      JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS rooms_created_at_idx ON rooms (created_at DESC);
`

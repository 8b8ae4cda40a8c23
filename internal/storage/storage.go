package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Storage struct {
	db *pgxpool.Pool
}

func New(ctx context.Context, dsn string) (*Storage, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to db: %w", err)
	}
	return &Storage{db: pool}, nil
}

// InitSchema creates the tables on startup if they do not exist yet.
func (s *Storage) InitSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS players (
			user_id      BIGINT PRIMARY KEY,
			display_name TEXT NOT NULL DEFAULT '',
			total_score  INT NOT NULL DEFAULT 0,
			games_played INT NOT NULL DEFAULT 0,
			games_won    INT NOT NULL DEFAULT 0,
			created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE TABLE IF NOT EXISTS room_scores (
			user_id    BIGINT NOT NULL REFERENCES players(user_id),
			chat_id    BIGINT NOT NULL,
			score      INT NOT NULL DEFAULT 0,
			PRIMARY KEY (user_id, chat_id)
		);
		CREATE TABLE IF NOT EXISTS sessions (
			chat_id    BIGINT PRIMARY KEY,
			state      JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE TABLE IF NOT EXISTS content (
			id             SERIAL PRIMARY KEY,
			game_type      TEXT NOT NULL,
			prompt         TEXT NOT NULL,
			answer         TEXT NOT NULL DEFAULT '',
			options        JSONB,
			correct_option INT NOT NULL DEFAULT 0,
			explanation    TEXT NOT NULL DEFAULT ''
		);
		CREATE INDEX IF NOT EXISTS content_game_type_idx ON content (game_type);
		CREATE TABLE IF NOT EXISTS groups (
			chat_id BIGINT PRIMARY KEY,
			title   TEXT NOT NULL DEFAULT '',
			active  BOOLEAN NOT NULL DEFAULT TRUE
		);
	`)
	if err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	return nil
}

func (s *Storage) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

func (s *Storage) Close() {
	s.db.Close()
}

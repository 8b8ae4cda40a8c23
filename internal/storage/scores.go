package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

var ErrPlayerNotFound = errors.New("player not found")

// AddPoints upserts a player's total score and the per-chat score in one
// transaction. Each update is an atomic increment, so concurrent calls from
// different chats are safe.
func (s *Storage) AddPoints(ctx context.Context, userID int64, displayName string, chatID int64, points int) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO players (user_id, display_name, total_score)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (user_id) DO UPDATE
		 SET total_score = players.total_score + EXCLUDED.total_score,
		     display_name = EXCLUDED.display_name`,
		userID, displayName, points)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO room_scores (user_id, chat_id, score)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (user_id, chat_id) DO UPDATE
		 SET score = room_scores.score + EXCLUDED.score`,
		userID, chatID, points)
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// RecordResult bumps a player's games-played counter, and games-won when
// they topped the final standings.
func (s *Storage) RecordResult(ctx context.Context, userID int64, displayName string, won bool) error {
	wonInc := 0
	if won {
		wonInc = 1
	}
	_, err := s.db.Exec(ctx,
		`INSERT INTO players (user_id, display_name, games_played, games_won)
		 VALUES ($1, $2, 1, $3)
		 ON CONFLICT (user_id) DO UPDATE
		 SET games_played = players.games_played + 1,
		     games_won = players.games_won + $3,
		     display_name = EXCLUDED.display_name`,
		userID, displayName, wonInc)
	return err
}

// TopPlayers returns the worldwide leaderboard, highest total score first.
// Ties keep record order.
func (s *Storage) TopPlayers(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	rows, err := s.db.Query(ctx,
		`SELECT user_id, display_name, total_score
		 FROM players
		 ORDER BY total_score DESC, created_at ASC
		 LIMIT $1`,
		limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanLeaderboard(rows)
}

// TopPlayersByChat returns the leaderboard for one chat.
func (s *Storage) TopPlayersByChat(ctx context.Context, chatID int64, limit int) ([]LeaderboardEntry, error) {
	rows, err := s.db.Query(ctx,
		`SELECT p.user_id, p.display_name, r.score
		 FROM room_scores r
		 JOIN players p ON p.user_id = r.user_id
		 WHERE r.chat_id = $1
		 ORDER BY r.score DESC, p.created_at ASC
		 LIMIT $2`,
		chatID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanLeaderboard(rows)
}

// PlayerStats returns one player's totals plus the per-chat breakdown.
func (s *Storage) PlayerStats(ctx context.Context, userID int64) (*PlayerStats, error) {
	var p Player
	err := s.db.QueryRow(ctx,
		`SELECT user_id, display_name, total_score, games_played, games_won
		 FROM players WHERE user_id = $1`,
		userID).Scan(&p.UserID, &p.DisplayName, &p.TotalScore, &p.GamesPlayed, &p.GamesWon)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrPlayerNotFound
	}
	if err != nil {
		return nil, err
	}

	rows, err := s.db.Query(ctx,
		`SELECT r.chat_id, COALESCE(g.title, ''), r.score
		 FROM room_scores r
		 LEFT JOIN groups g ON g.chat_id = r.chat_id
		 WHERE r.user_id = $1
		 ORDER BY r.score DESC`,
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := &PlayerStats{Player: p}
	for rows.Next() {
		var rs RoomScore
		if err := rows.Scan(&rs.ChatID, &rs.ChatTitle, &rs.Score); err != nil {
			return nil, err
		}
		stats.RoomScores = append(stats.RoomScores, rs)
	}
	return stats, rows.Err()
}

func scanLeaderboard(rows pgx.Rows) ([]LeaderboardEntry, error) {
	var entries []LeaderboardEntry
	for rows.Next() {
		var e LeaderboardEntry
		if err := rows.Scan(&e.UserID, &e.DisplayName, &e.Score); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

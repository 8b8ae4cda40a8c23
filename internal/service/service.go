package service

import (
	"context"
	"fmt"

	"github.com/asbhaibsr/groupgamingbot/internal/storage"
)

const leaderboardLimit = 10

// Storage is the slice of the store the stats service needs.
type Storage interface {
	TopPlayers(ctx context.Context, limit int) ([]storage.LeaderboardEntry, error)
	TopPlayersByChat(ctx context.Context, chatID int64, limit int) ([]storage.LeaderboardEntry, error)
	PlayerStats(ctx context.Context, userID int64) (*storage.PlayerStats, error)
	GroupExists(ctx context.Context, chatID int64) (bool, error)
	UpsertGroup(ctx context.Context, chatID int64, title string) error
	ActiveGroups(ctx context.Context) ([]storage.Group, error)
	DeactivateGroup(ctx context.Context, chatID int64) error
}

// StatsService answers the leaderboard/stats commands and tracks the chats
// the bot lives in. Game scoring itself goes through the engine's ledger,
// not through here.
type StatsService struct {
	storage Storage
}

func New(storage Storage) *StatsService {
	return &StatsService{storage: storage}
}

// Leaderboard returns the chat's top players and the worldwide top players.
// chatID 0 skips the room board (private chats).
func (s *StatsService) Leaderboard(ctx context.Context, chatID int64) (room, world []storage.LeaderboardEntry, err error) {
	if chatID != 0 {
		room, err = s.storage.TopPlayersByChat(ctx, chatID, leaderboardLimit)
		if err != nil {
			return nil, nil, fmt.Errorf("room leaderboard: %w", err)
		}
	}
	world, err = s.storage.TopPlayers(ctx, leaderboardLimit)
	if err != nil {
		return nil, nil, fmt.Errorf("world leaderboard: %w", err)
	}
	return room, world, nil
}

// MyStats returns one player's totals and per-chat scores.
// storage.ErrPlayerNotFound passes through for players who never scored.
func (s *StatsService) MyStats(ctx context.Context, userID int64) (*storage.PlayerStats, error) {
	return s.storage.PlayerStats(ctx, userID)
}

// RegisterGroup records the chat and reports whether it is new, so the
// caller can announce first-time installs.
func (s *StatsService) RegisterGroup(ctx context.Context, chatID int64, title string) (bool, error) {
	exists, err := s.storage.GroupExists(ctx, chatID)
	if err != nil {
		return false, err
	}
	if err := s.storage.UpsertGroup(ctx, chatID, title); err != nil {
		return false, err
	}
	return !exists, nil
}

// BroadcastTargets lists the chats a broadcast should reach.
func (s *StatsService) BroadcastTargets(ctx context.Context) ([]storage.Group, error) {
	return s.storage.ActiveGroups(ctx)
}

// MarkGroupDead stops future broadcasts to a chat the bot was removed from.
func (s *StatsService) MarkGroupDead(ctx context.Context, chatID int64) error {
	return s.storage.DeactivateGroup(ctx, chatID)
}

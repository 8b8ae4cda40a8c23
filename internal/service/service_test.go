package service

import (
	"context"
	"errors"
	"testing"

	"github.com/asbhaibsr/groupgamingbot/internal/storage"
)

// fakeStorage is a hand-rolled Storage implementation for tests.
type fakeStorage struct {
	worldEntries []storage.LeaderboardEntry
	roomEntries  []storage.LeaderboardEntry
	groupExists  bool
	upserted     []int64
	worldErr     error
}

func (f *fakeStorage) TopPlayers(ctx context.Context, limit int) ([]storage.LeaderboardEntry, error) {
	return f.worldEntries, f.worldErr
}
func (f *fakeStorage) TopPlayersByChat(ctx context.Context, chatID int64, limit int) ([]storage.LeaderboardEntry, error) {
	return f.roomEntries, nil
}
func (f *fakeStorage) PlayerStats(ctx context.Context, userID int64) (*storage.PlayerStats, error) {
	return nil, storage.ErrPlayerNotFound
}
func (f *fakeStorage) GroupExists(ctx context.Context, chatID int64) (bool, error) {
	return f.groupExists, nil
}
func (f *fakeStorage) UpsertGroup(ctx context.Context, chatID int64, title string) error {
	f.upserted = append(f.upserted, chatID)
	return nil
}
func (f *fakeStorage) ActiveGroups(ctx context.Context) ([]storage.Group, error) {
	return nil, nil
}
func (f *fakeStorage) DeactivateGroup(ctx context.Context, chatID int64) error {
	return nil
}

func TestLeaderboard_RoomAndWorld(t *testing.T) {
	fake := &fakeStorage{
		roomEntries:  []storage.LeaderboardEntry{{UserID: 1, DisplayName: "A", Score: 20}},
		worldEntries: []storage.LeaderboardEntry{{UserID: 2, DisplayName: "B", Score: 50}},
	}
	svc := New(fake)

	room, world, err := svc.Leaderboard(context.Background(), 42)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(room) != 1 || room[0].DisplayName != "A" {
		t.Errorf("unexpected room board: %+v", room)
	}
	if len(world) != 1 || world[0].DisplayName != "B" {
		t.Errorf("unexpected world board: %+v", world)
	}
}

func TestLeaderboard_PrivateChatSkipsRoomBoard(t *testing.T) {
	fake := &fakeStorage{
		roomEntries: []storage.LeaderboardEntry{{UserID: 1, DisplayName: "A", Score: 20}},
	}
	svc := New(fake)

	room, _, err := svc.Leaderboard(context.Background(), 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if room != nil {
		t.Errorf("expected no room board for chat id 0, got %+v", room)
	}
}

func TestLeaderboard_StoreError(t *testing.T) {
	fake := &fakeStorage{worldErr: errors.New("db down")}
	svc := New(fake)

	if _, _, err := svc.Leaderboard(context.Background(), 0); err == nil {
		t.Fatal("expected error, got nil")
	}
}

func TestRegisterGroup_New(t *testing.T) {
	fake := &fakeStorage{groupExists: false}
	svc := New(fake)

	isNew, err := svc.RegisterGroup(context.Background(), 42, "Test Group")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !isNew {
		t.Error("expected group to be reported as new")
	}
	if len(fake.upserted) != 1 || fake.upserted[0] != 42 {
		t.Errorf("expected upsert of chat 42, got %v", fake.upserted)
	}
}

func TestRegisterGroup_Existing(t *testing.T) {
	fake := &fakeStorage{groupExists: true}
	svc := New(fake)

	isNew, err := svc.RegisterGroup(context.Background(), 42, "Test Group")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if isNew {
		t.Error("existing group reported as new")
	}
}

package game

import (
	"context"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStore is an in-memory SessionStore for tests.
type memStore struct {
	mu   sync.Mutex
	data map[int64][]byte
}

func newMemStore() *memStore {
	return &memStore{data: make(map[int64][]byte)}
}

func (m *memStore) SaveSession(_ context.Context, chatID int64, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]byte, len(data))
	copy(cp, data)
	m.data[chatID] = cp
	return nil
}

func (m *memStore) LoadSessions(_ context.Context) (map[int64][]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[int64][]byte, len(m.data))
	for k, v := range m.data {
		out[k] = v
	}
	return out, nil
}

func (m *memStore) DeleteSession(_ context.Context, chatID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, chatID)
	return nil
}

func (m *memStore) has(chatID int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.data[chatID]
	return ok
}

func newTestRegistry(store SessionStore) *Registry {
	return NewRegistry(store, NewScheduler(), zerolog.Nop())
}

func TestRegistry_CreateConflict(t *testing.T) {
	ctx := context.Background()
	r := newTestRegistry(newMemStore())

	first, err := r.Create(ctx, 1, TypeQuiz, JoinWindow)
	require.NoError(t, err)

	_, err = r.Create(ctx, 1, TypeWordChain, JoinWindow)
	assert.ErrorIs(t, err, ErrSessionExists)

	// The losing start must not have touched the first session.
	got, ok := r.Get(1)
	require.True(t, ok)
	assert.Equal(t, first.GameID, got.GameID)
	assert.Equal(t, TypeQuiz, got.GameType)
}

func TestRegistry_MutateSnapshotsAndRestores(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	r := newTestRegistry(store)

	_, err := r.Create(ctx, 1, TypeGuessing, JoinWindow)
	require.NoError(t, err)

	err = r.Mutate(ctx, 1, func(s *Session) error {
		s.AddPlayer(10, "Alice")
		s.AddPlayer(20, "Bob")
		s.Status = StatusInProgress
		s.Guessing = &GuessingState{
			Rounds:   []GuessRound{{Hint: "big cat", Answer: "TIGER"}},
			Attempts: map[int64]int{10: 2},
		}
		s.Players[0].Score = 15
		return nil
	})
	require.NoError(t, err)

	before, ok := r.Get(1)
	require.True(t, ok)

	// A fresh registry over the same store sees the identical session.
	r2 := newTestRegistry(store)
	restored, err := r2.Restore(ctx)
	require.NoError(t, err)
	require.Len(t, restored, 1)

	got := restored[0]
	assert.Equal(t, before.GameID, got.GameID)
	assert.Equal(t, before.GameType, got.GameType)
	assert.Equal(t, before.Status, got.Status)
	assert.Equal(t, before.Players, got.Players)
	assert.Equal(t, before.Guessing, got.Guessing)
	assert.True(t, before.CreatedAt.Equal(got.CreatedAt))
	assert.True(t, before.JoinWindowEndsAt.Equal(got.JoinWindowEndsAt))
}

func TestRegistry_MutateMissing(t *testing.T) {
	r := newTestRegistry(newMemStore())
	err := r.Mutate(context.Background(), 77, func(s *Session) error { return nil })
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestRegistry_DeleteInsideMutate(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	r := newTestRegistry(store)

	_, err := r.Create(ctx, 1, TypeNumberGuess, JoinWindow)
	require.NoError(t, err)
	require.True(t, store.has(1))

	err = r.Mutate(ctx, 1, func(s *Session) error {
		r.Delete(ctx, s.ChatID)
		return nil
	})
	require.NoError(t, err)

	_, ok := r.Get(1)
	assert.False(t, ok)
	assert.False(t, store.has(1), "deleted session must not be re-snapshotted")
	assert.Zero(t, r.Count())
}

func TestRegistry_RestoreDropsCorruptSnapshot(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	require.NoError(t, store.SaveSession(ctx, 1, []byte("{not json")))

	r := newTestRegistry(store)
	_, err := r.Create(ctx, 2, TypeQuiz, JoinWindow)
	require.NoError(t, err)

	r2 := newTestRegistry(store)
	restored, err := r2.Restore(ctx)
	require.NoError(t, err)
	require.Len(t, restored, 1)
	assert.Equal(t, int64(2), restored[0].ChatID)
}

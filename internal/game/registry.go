package game

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	ErrSessionExists   = errors.New("a game is already running in this chat")
	ErrSessionNotFound = errors.New("no active game in this chat")
)

// SessionStore persists session snapshots. Implementations must store plain
// bytes keyed by chat id; the registry owns the encoding.
type SessionStore interface {
	SaveSession(ctx context.Context, chatID int64, data []byte) error
	LoadSessions(ctx context.Context) (map[int64][]byte, error)
	DeleteSession(ctx context.Context, chatID int64) error
}

type roomEntry struct {
	mu      sync.Mutex
	deleted bool
	session *Session
}

// Registry owns the set of active sessions, one per chat. All mutations go
// through Mutate, which holds a per-room lock for the whole mutation and
// snapshots the result. That lock is what makes "first correct answer wins"
// race-free within a room.
type Registry struct {
	mu        sync.RWMutex
	sessions  map[int64]*roomEntry
	store     SessionStore
	scheduler *Scheduler
	log       zerolog.Logger
}

func NewRegistry(store SessionStore, scheduler *Scheduler, log zerolog.Logger) *Registry {
	return &Registry{
		sessions:  make(map[int64]*roomEntry),
		store:     store,
		scheduler: scheduler,
		log:       log,
	}
}

// Create registers a new waiting session for the chat. Fails with
// ErrSessionExists if one is already active.
func (r *Registry) Create(ctx context.Context, chatID int64, gameType GameType, joinWindow time.Duration) (Session, error) {
	r.mu.Lock()
	if _, ok := r.sessions[chatID]; ok {
		r.mu.Unlock()
		return Session{}, ErrSessionExists
	}
	s := newSession(chatID, gameType, time.Now().UTC(), joinWindow)
	r.sessions[chatID] = &roomEntry{session: s}
	r.mu.Unlock()

	r.snapshot(ctx, s)
	return *s, nil
}

// Get returns a copy of the chat's session, if any.
func (r *Registry) Get(chatID int64) (Session, bool) {
	r.mu.RLock()
	entry, ok := r.sessions[chatID]
	r.mu.RUnlock()
	if !ok {
		return Session{}, false
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	if entry.deleted {
		return Session{}, false
	}
	return *entry.session, true
}

// Mutate applies fn to the session under the room lock, then snapshots.
// Returns ErrSessionNotFound if the chat has no session. If fn deletes the
// session (via Delete), no snapshot is written.
func (r *Registry) Mutate(ctx context.Context, chatID int64, fn func(*Session) error) error {
	r.mu.RLock()
	entry, ok := r.sessions[chatID]
	r.mu.RUnlock()
	if !ok {
		return ErrSessionNotFound
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	if entry.deleted {
		return ErrSessionNotFound
	}
	if err := fn(entry.session); err != nil {
		return err
	}
	if !entry.deleted {
		r.snapshot(ctx, entry.session)
	}
	return nil
}

// Find returns the chat id of the first session matching the predicate.
// Used to route poll answers, which carry a poll id rather than a chat id.
func (r *Registry) Find(match func(*Session) bool) (int64, bool) {
	r.mu.RLock()
	entries := make(map[int64]*roomEntry, len(r.sessions))
	for id, e := range r.sessions {
		entries[id] = e
	}
	r.mu.RUnlock()

	for id, entry := range entries {
		entry.mu.Lock()
		ok := !entry.deleted && match(entry.session)
		entry.mu.Unlock()
		if ok {
			return id, true
		}
	}
	return 0, false
}

// Delete removes the session from memory, cancels all of its timers and
// deletes the stored snapshot. Safe to call from within a Mutate fn for the
// same chat.
func (r *Registry) Delete(ctx context.Context, chatID int64) {
	r.mu.Lock()
	entry, ok := r.sessions[chatID]
	if ok {
		entry.deleted = true
		delete(r.sessions, chatID)
	}
	r.mu.Unlock()
	if !ok {
		return
	}

	r.scheduler.CancelAll(chatID)
	if err := r.store.DeleteSession(ctx, chatID); err != nil {
		r.log.Error().Err(err).Int64("chat_id", chatID).Msg("failed to delete session snapshot")
	}
}

// Restore loads every stored session back into memory and returns copies so
// the engine can re-arm timers. Corrupt snapshots are dropped, not fatal.
func (r *Registry) Restore(ctx context.Context) ([]Session, error) {
	stored, err := r.store.LoadSessions(ctx)
	if err != nil {
		return nil, fmt.Errorf("load sessions: %w", err)
	}

	var restored []Session
	r.mu.Lock()
	for chatID, data := range stored {
		var s Session
		if err := json.Unmarshal(data, &s); err != nil {
			r.log.Error().Err(err).Int64("chat_id", chatID).Msg("dropping corrupt session snapshot")
			continue
		}
		r.sessions[chatID] = &roomEntry{session: &s}
		restored = append(restored, s)
	}
	r.mu.Unlock()

	r.log.Info().Int("count", len(restored)).Msg("restored sessions from store")
	return restored, nil
}

// Count reports the number of active sessions.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// snapshot persists the session. Store failures degrade durability but never
// block in-memory progress.
func (r *Registry) snapshot(ctx context.Context, s *Session) {
	data, err := json.Marshal(s)
	if err != nil {
		r.log.Error().Err(err).Int64("chat_id", s.ChatID).Msg("failed to encode session")
		return
	}
	if err := r.store.SaveSession(ctx, s.ChatID, data); err != nil {
		r.log.Error().Err(err).Int64("chat_id", s.ChatID).Msg("session snapshot failed, continuing in memory")
	}
}

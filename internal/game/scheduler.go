package game

import (
	"sync"
	"time"
)

// Purpose identifies what a pending timer is for. There is at most one
// pending timer per (chat, purpose) pair.
type Purpose string

const (
	PurposeJoinWindow Purpose = "joinWindow"
	PurposeTurn       Purpose = "turnTimeout"
	PurposeRound      Purpose = "roundTimeout"
	PurposeWatchdog   Purpose = "inactivityWatchdog"
)

type timerKey struct {
	chatID  int64
	purpose Purpose
}

// Scheduler is a cancellable deferred-execution facility keyed by
// (chat, purpose). Scheduling for a pair that already has a pending timer
// replaces the old one. A timer that fires after being cancelled or replaced
// runs nothing.
type Scheduler struct {
	mu     sync.Mutex
	timers map[timerKey]*time.Timer
}

func NewScheduler() *Scheduler {
	return &Scheduler{timers: make(map[timerKey]*time.Timer)}
}

func (sc *Scheduler) Schedule(chatID int64, purpose Purpose, delay time.Duration, fn func()) {
	if delay < 0 {
		delay = 0
	}
	key := timerKey{chatID: chatID, purpose: purpose}

	sc.mu.Lock()
	defer sc.mu.Unlock()
	if prev, ok := sc.timers[key]; ok {
		prev.Stop()
	}
	var t *time.Timer
	t = time.AfterFunc(delay, func() {
		sc.mu.Lock()
		current, ok := sc.timers[key]
		if !ok || current != t {
			// Cancelled or replaced between firing and running.
			sc.mu.Unlock()
			return
		}
		delete(sc.timers, key)
		sc.mu.Unlock()
		fn()
	})
	sc.timers[key] = t
}

func (sc *Scheduler) Cancel(chatID int64, purpose Purpose) {
	key := timerKey{chatID: chatID, purpose: purpose}
	sc.mu.Lock()
	defer sc.mu.Unlock()
	if t, ok := sc.timers[key]; ok {
		t.Stop()
		delete(sc.timers, key)
	}
}

// CancelAll drops every pending timer for a chat. Called before a session is
// deleted so a stale firing cannot revive its id.
func (sc *Scheduler) CancelAll(chatID int64) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	for key, t := range sc.timers {
		if key.chatID == chatID {
			t.Stop()
			delete(sc.timers, key)
		}
	}
}

// Pending reports whether a timer is armed for the pair.
func (sc *Scheduler) Pending(chatID int64, purpose Purpose) bool {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	_, ok := sc.timers[timerKey{chatID: chatID, purpose: purpose}]
	return ok
}

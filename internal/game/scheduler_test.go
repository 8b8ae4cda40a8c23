package game

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestScheduler_FiresOnce(t *testing.T) {
	sc := NewScheduler()
	var fired int32

	sc.Schedule(1, PurposeRound, 10*time.Millisecond, func() {
		atomic.AddInt32(&fired, 1)
	})

	assert.True(t, sc.Pending(1, PurposeRound))
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(1), atomic.LoadInt32(&fired))
	assert.False(t, sc.Pending(1, PurposeRound))
}

func TestScheduler_ReplaceDropsOldTimer(t *testing.T) {
	sc := NewScheduler()
	var old, replacement int32

	sc.Schedule(1, PurposeRound, 10*time.Millisecond, func() {
		atomic.AddInt32(&old, 1)
	})
	sc.Schedule(1, PurposeRound, 30*time.Millisecond, func() {
		atomic.AddInt32(&replacement, 1)
	})

	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, int32(0), atomic.LoadInt32(&old), "replaced timer must not run")
	assert.Equal(t, int32(1), atomic.LoadInt32(&replacement))
}

func TestScheduler_Cancel(t *testing.T) {
	sc := NewScheduler()
	var fired int32

	sc.Schedule(1, PurposeTurn, 20*time.Millisecond, func() {
		atomic.AddInt32(&fired, 1)
	})
	sc.Cancel(1, PurposeTurn)

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(0), atomic.LoadInt32(&fired))
}

func TestScheduler_CancelAllDropsOnlyThatChat(t *testing.T) {
	sc := NewScheduler()
	var chat1, chat2 int32

	sc.Schedule(1, PurposeTurn, 20*time.Millisecond, func() { atomic.AddInt32(&chat1, 1) })
	sc.Schedule(1, PurposeWatchdog, 20*time.Millisecond, func() { atomic.AddInt32(&chat1, 1) })
	sc.Schedule(2, PurposeTurn, 20*time.Millisecond, func() { atomic.AddInt32(&chat2, 1) })

	sc.CancelAll(1)

	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, int32(0), atomic.LoadInt32(&chat1))
	assert.Equal(t, int32(1), atomic.LoadInt32(&chat2))
}

func TestScheduler_NegativeDelayFiresImmediately(t *testing.T) {
	sc := NewScheduler()
	done := make(chan struct{})

	sc.Schedule(1, PurposeJoinWindow, -5*time.Second, func() { close(done) })

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("timer with negative delay never fired")
	}
}

package engine

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClock_TicksAndStops(t *testing.T) {
	var ticks atomic.Int32
	clock := NewClock(5*time.Millisecond, func(context.Context, time.Time) {
		ticks.Add(1)
	}, discardLogger())

	clock.Start()
	assert.True(t, clock.Running())

	deadline := time.After(time.Second)
	for ticks.Load() < 2 {
		select {
		case <-deadline:
			t.Fatal("timed out waiting for ticks")
		case <-time.After(time.Millisecond):
		}
	}

	clock.Stop()
	assert.False(t, clock.Running())
	n := ticks.Load()
	time.Sleep(25 * time.Millisecond)
	assert.Equal(t, n, ticks.Load(), "no ticks after stop")
}

func TestClock_StartIdempotent(t *testing.T) {
	var ticks atomic.Int32
	clock := NewClock(5*time.Millisecond, func(context.Context, time.Time) {
		ticks.Add(1)
	}, discardLogger())

	clock.Start()
	clock.Start() // no second loop
	defer clock.Stop()

	time.Sleep(30 * time.Millisecond)
	// A doubled loop would tick roughly twice as often.
	assert.LessOrEqual(t, int(ticks.Load()), 9)
}

func TestClock_StopIdempotent(t *testing.T) {
	clock := NewClock(time.Hour, func(context.Context, time.Time) {}, discardLogger())
	clock.Stop() // never started

	clock.Start()
	clock.Stop()
	clock.Stop() // must not panic or block
}

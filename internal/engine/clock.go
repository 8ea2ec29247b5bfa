// internal/engine/clock.go
package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// DefaultTickInterval is the simulation cadence when config does not
// override it.
const DefaultTickInterval = 60 * time.Second

// Clock drives the periodic simulation tick. Start and Stop are
// idempotent and safe to call in any order; the tick runs independently
// of position updates and user commands.
type Clock struct {
	interval time.Duration
	tick     func(ctx context.Context, now time.Time)
	log      *slog.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	running bool
}

// NewClock creates a clock calling tick once per interval. interval <= 0
// selects DefaultTickInterval.
func NewClock(interval time.Duration, tick func(ctx context.Context, now time.Time), log *slog.Logger) *Clock {
	if interval <= 0 {
		interval = DefaultTickInterval
	}
	return &Clock{interval: interval, tick: tick, log: log}
}

// Start launches the tick loop. Calling Start on a running clock is a
// no-op.
func (c *Clock) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.done = make(chan struct{})
	c.running = true

	go func(done chan struct{}) {
		defer close(done)
		ticker := time.NewTicker(c.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				c.tick(ctx, now)
			}
		}
	}(c.done)

	c.log.Info("Simulation clock started", "interval", c.interval)
}

// Stop halts the tick loop and waits for an in-flight tick to finish.
// Calling Stop on a stopped clock is a no-op.
func (c *Clock) Stop() {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return
	}
	c.running = false
	cancel, done := c.cancel, c.done
	c.mu.Unlock()

	cancel()
	<-done
	c.log.Info("Simulation clock stopped")
}

// Running reports whether the tick loop is active.
func (c *Clock) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// Package cache holds small in-memory caches shared between the gateway
// and the engine. Latency matters here: broadcast paths must not hit the
// store for every connected client.
package cache

import (
	"sync"

	"github.com/terrahex/engine/internal/engine"
)

// SnapshotCache keeps the most recent engine snapshot so newly connected
// clients get state immediately without a store round trip.
type SnapshotCache struct {
	m    sync.RWMutex
	snap *engine.Snapshot
}

// NewSnapshotCache creates an empty snapshot cache.
func NewSnapshotCache() *SnapshotCache {
	return &SnapshotCache{}
}

// Set stores the latest snapshot.
func (c *SnapshotCache) Set(snap engine.Snapshot) {
	c.m.Lock()
	defer c.m.Unlock()
	c.snap = &snap
}

// Get returns the latest snapshot, ok=false before the first Set.
func (c *SnapshotCache) Get() (engine.Snapshot, bool) {
	c.m.RLock()
	defer c.m.RUnlock()
	if c.snap == nil {
		return engine.Snapshot{}, false
	}
	return *c.snap, true
}

// Reset discards the cached snapshot.
func (c *SnapshotCache) Reset() {
	c.m.Lock()
	defer c.m.Unlock()
	c.snap = nil
}

// SafeCounter is a thread-safe counter
type SafeCounter struct {
	mu sync.Mutex
	v  int
}

func (c *SafeCounter) Value() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.v
}

func (c *SafeCounter) Set(v int) {
	c.mu.Lock()
	c.v = v
	c.mu.Unlock()
}

func (c *SafeCounter) Inc() {
	c.mu.Lock()
	c.v++
	c.mu.Unlock()
}

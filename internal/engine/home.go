// internal/engine/home.go
package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/terrahex/engine/internal/geo"
	"github.com/terrahex/engine/internal/store"
	"github.com/terrahex/engine/pkg/core"
)

// settingHomeBase is the settings key holding the remembered home
// coordinate as JSON.
const settingHomeBase = "homeBase"

// DefaultHomeThresholdKm is the distance beyond which the player counts
// as away from home.
const DefaultHomeThresholdKm = 5.0

// HomeTracker remembers a single home coordinate and answers the
// away-from-home question. The coordinate is cached in memory and
// mirrored to the settings collection; a failed settings write is
// logged and swallowed so the flag keeps working offline.
type HomeTracker struct {
	store       store.Backend
	thresholdKm float64
	log         *slog.Logger

	mu   sync.RWMutex
	home *core.Coordinate
}

// NewHomeTracker creates a tracker and loads any persisted home
// coordinate. thresholdKm <= 0 selects DefaultHomeThresholdKm.
func NewHomeTracker(ctx context.Context, backend store.Backend, thresholdKm float64, log *slog.Logger) (*HomeTracker, error) {
	if thresholdKm <= 0 {
		thresholdKm = DefaultHomeThresholdKm
	}
	t := &HomeTracker{store: backend, thresholdKm: thresholdKm, log: log}

	raw, err := backend.GetSetting(ctx, settingHomeBase)
	switch {
	case err == nil:
		var home core.Coordinate
		if err := json.Unmarshal([]byte(raw), &home); err != nil {
			return nil, fmt.Errorf("decode stored home coordinate: %w", err)
		}
		t.home = &home
	case errors.Is(err, store.ErrNotFound):
		// No home set yet.
	default:
		return nil, fmt.Errorf("load home coordinate: %w", err)
	}
	return t, nil
}

// SetHome overwrites the remembered home coordinate unconditionally.
func (t *HomeTracker) SetHome(ctx context.Context, coord core.Coordinate) error {
	if err := geo.Validate(coord); err != nil {
		return err
	}

	t.mu.Lock()
	home := coord
	t.home = &home
	t.mu.Unlock()

	raw, err := json.Marshal(coord)
	if err != nil {
		return fmt.Errorf("encode home coordinate: %w", err)
	}
	if err := t.store.PutSetting(ctx, settingHomeBase, string(raw)); err != nil {
		t.log.Error("Failed to persist home coordinate", "error", err)
	}
	return nil
}

// ClearHome forgets the home coordinate.
func (t *HomeTracker) ClearHome(ctx context.Context) error {
	t.mu.Lock()
	t.home = nil
	t.mu.Unlock()

	if err := t.store.DeleteSetting(ctx, settingHomeBase); err != nil && !errors.Is(err, store.ErrNotFound) {
		t.log.Error("Failed to clear persisted home coordinate", "error", err)
	}
	return nil
}

// Home returns the remembered coordinate, ok=false when none is set.
func (t *HomeTracker) Home() (core.Coordinate, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.home == nil {
		return core.Coordinate{}, false
	}
	return *t.home, true
}

// IsAwayFromHome reports whether current is farther than the threshold
// from home. No home set means not away, not an error.
func (t *HomeTracker) IsAwayFromHome(current core.Coordinate) bool {
	home, ok := t.Home()
	if !ok {
		return false
	}
	return geo.DistanceKm(current, home) > t.thresholdKm
}

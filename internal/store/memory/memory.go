// internal/store/memory/memory.go
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/terrahex/engine/internal/store"
	"github.com/terrahex/engine/pkg/core"
)

// Backend stores all engine state in process memory. Used by tests and
// as the offline fallback when no database is reachable.
type Backend struct {
	mu sync.RWMutex

	players     map[string]core.PlayerState
	territories map[core.Cell]core.TerritoryRecord
	zones       map[core.Cell]core.ResourceZone
	bases       map[core.Cell]core.PlayerBase
	positions   map[string][]core.PositionFix
	settings    map[string]string
}

// New creates a new memory backend.
func New() *Backend {
	return &Backend{
		players:     make(map[string]core.PlayerState),
		territories: make(map[core.Cell]core.TerritoryRecord),
		zones:       make(map[core.Cell]core.ResourceZone),
		bases:       make(map[core.Cell]core.PlayerBase),
		positions:   make(map[string][]core.PositionFix),
		settings:    make(map[string]string),
	}
}

// Init initializes the backend.
func (b *Backend) Init() error {
	return nil
}

// Close cleans up resources.
func (b *Backend) Close() error {
	return nil
}

// GetPlayer returns a player record by ID.
func (b *Backend) GetPlayer(_ context.Context, id string) (core.PlayerState, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	state, ok := b.players[id]
	if !ok {
		return core.PlayerState{}, store.ErrNotFound
	}
	return state, nil
}

// PutPlayer writes a player record.
func (b *Backend) PutPlayer(_ context.Context, state core.PlayerState) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.players[state.ID] = state
	return nil
}

// GetTerritory returns the conquest record for a cell.
func (b *Backend) GetTerritory(_ context.Context, cell core.Cell) (core.TerritoryRecord, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	rec, ok := b.territories[cell]
	if !ok {
		return core.TerritoryRecord{}, store.ErrNotFound
	}
	return rec, nil
}

// PutTerritory writes a conquest record.
func (b *Backend) PutTerritory(_ context.Context, rec core.TerritoryRecord) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.territories[rec.Cell] = rec
	return nil
}

// ListTerritories returns all stored territory records.
func (b *Backend) ListTerritories(_ context.Context) ([]core.TerritoryRecord, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]core.TerritoryRecord, 0, len(b.territories))
	for _, rec := range b.territories {
		out = append(out, rec)
	}
	return out, nil
}

// CountConqueredBy counts territories conquered by the given player.
func (b *Backend) CountConqueredBy(_ context.Context, playerID string) (int, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	n := 0
	for _, rec := range b.territories {
		if rec.Conquered && rec.ConqueredBy == playerID {
			n++
		}
	}
	return n, nil
}

// GetZone returns the resource zone on a cell.
func (b *Backend) GetZone(_ context.Context, cell core.Cell) (core.ResourceZone, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	zone, ok := b.zones[cell]
	if !ok {
		return core.ResourceZone{}, store.ErrNotFound
	}
	return zone, nil
}

// PutZone writes a resource zone.
func (b *Backend) PutZone(_ context.Context, zone core.ResourceZone) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.zones[zone.Cell] = zone
	return nil
}

// ListZones returns all stored zones.
func (b *Backend) ListZones(_ context.Context) ([]core.ResourceZone, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]core.ResourceZone, 0, len(b.zones))
	for _, zone := range b.zones {
		out = append(out, zone)
	}
	return out, nil
}

// ClearZones removes every zone record.
func (b *Backend) ClearZones(_ context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.zones = make(map[core.Cell]core.ResourceZone)
	return nil
}

// GetBase returns the base on a cell.
func (b *Backend) GetBase(_ context.Context, cell core.Cell) (core.PlayerBase, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	base, ok := b.bases[cell]
	if !ok {
		return core.PlayerBase{}, store.ErrNotFound
	}
	return base, nil
}

// GetBaseByPlayer returns the base owned by a player, wherever it is.
func (b *Backend) GetBaseByPlayer(_ context.Context, playerID string) (core.PlayerBase, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, base := range b.bases {
		if base.PlayerID == playerID {
			return base, nil
		}
	}
	return core.PlayerBase{}, store.ErrNotFound
}

// PutBase writes a base record.
func (b *Backend) PutBase(_ context.Context, base core.PlayerBase) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.bases[base.Cell] = base
	return nil
}

// DeleteBase removes the base on a cell.
func (b *Backend) DeleteBase(_ context.Context, cell core.Cell) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.bases, cell)
	return nil
}

// AppendPositions appends fixes to a player's position history.
func (b *Backend) AppendPositions(_ context.Context, playerID string, fixes []core.PositionFix) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.positions[playerID] = append(b.positions[playerID], fixes...)
	return nil
}

// RecentPositions returns up to limit fixes, most recent first.
func (b *Backend) RecentPositions(_ context.Context, playerID string, limit int) ([]core.PositionFix, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	history := b.positions[playerID]
	out := make([]core.PositionFix, len(history))
	copy(out, history)
	sort.Slice(out, func(i, j int) bool { return out[i].Time.After(out[j].Time) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// TrimPositions drops all but the most recent keep fixes.
func (b *Backend) TrimPositions(_ context.Context, playerID string, keep int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	history := b.positions[playerID]
	if keep < 0 || len(history) <= keep {
		return nil
	}
	sort.Slice(history, func(i, j int) bool { return history[i].Time.After(history[j].Time) })
	trimmed := make([]core.PositionFix, keep)
	copy(trimmed, history[:keep])
	b.positions[playerID] = trimmed
	return nil
}

// GetSetting returns a settings value by key.
func (b *Backend) GetSetting(_ context.Context, key string) (string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	value, ok := b.settings[key]
	if !ok {
		return "", store.ErrNotFound
	}
	return value, nil
}

// PutSetting writes a settings value.
func (b *Backend) PutSetting(_ context.Context, key, value string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.settings[key] = value
	return nil
}

// DeleteSetting removes a settings key.
func (b *Backend) DeleteSetting(_ context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.settings, key)
	return nil
}

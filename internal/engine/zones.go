// internal/engine/zones.go
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/terrahex/engine/internal/store"
	"github.com/terrahex/engine/pkg/core"
)

// Collection fraction bounds: each collect takes a uniform fraction of
// the zone's current amount in [0.1, 0.3).
const (
	collectFractionMin = 0.1
	collectFractionMax = 0.3
)

// RegenerateZone applies wall-clock regeneration to a zone. Elapsed time
// under one hour is dropped, not accumulated: the zone is returned
// unchanged, timestamp included. Otherwise the amount grows by
// floor(rate × hours), capped at twice the kind's base amount, and the
// window restarts at now.
func RegenerateZone(zone core.ResourceZone, now time.Time) core.ResourceZone {
	hours := now.Sub(zone.LastRegeneration).Hours()
	if hours < 1 {
		return zone
	}
	regen := int(float64(zone.RegenPerHour) * hours)
	zone.Amount = min(zone.Amount+regen, core.ZoneAmountCap(zone.Kind))
	zone.LastRegeneration = now
	return zone
}

// CollectFromZone harvests a fraction of a zone into an inventory.
// fraction is the share of the current amount to take; collected is 0
// and nothing changes when the zone is empty or the draw floors to
// nothing. A successful collection restarts the regeneration window,
// discarding any partially accrued sub-hour regeneration.
func CollectFromZone(zone core.ResourceZone, inv core.ResourceInventory, fraction float64, now time.Time) (core.ResourceZone, core.ResourceInventory, int) {
	if zone.Amount <= 0 {
		return zone, inv, 0
	}
	collected := int(float64(zone.Amount) * fraction)
	if collected <= 0 {
		return zone, inv, 0
	}
	zone.Amount -= collected
	zone.LastRegeneration = now
	return zone, inv.CreditKind(zone.Kind, collected), collected
}

// ZoneManager owns placement, regeneration and collection of resource
// zones.
type ZoneManager struct {
	store store.Backend
	log   *slog.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

// NewZoneManager creates a zone manager. seed 0 seeds from the wall
// clock.
func NewZoneManager(backend store.Backend, log *slog.Logger, seed int64) *ZoneManager {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &ZoneManager{
		store: backend,
		log:   log,
		rng:   rand.New(rand.NewSource(seed)),
	}
}

// PlaceZones selects count cells at random without replacement from the
// candidates and writes a fresh zone on each. Each zone gets a uniformly
// random kind and an initial amount in [base, 2×base). Returns the
// placed zones.
func (m *ZoneManager) PlaceZones(ctx context.Context, candidates []core.Cell, count int) ([]core.ResourceZone, error) {
	if count > len(candidates) {
		count = len(candidates)
	}
	if count <= 0 {
		return nil, nil
	}

	m.mu.Lock()
	picked := make([]core.Cell, len(candidates))
	copy(picked, candidates)
	m.rng.Shuffle(len(picked), func(i, j int) {
		picked[i], picked[j] = picked[j], picked[i]
	})
	picked = picked[:count]

	now := time.Now()
	zones := make([]core.ResourceZone, 0, count)
	for _, cell := range picked {
		kind := core.ResourceKinds[m.rng.Intn(len(core.ResourceKinds))]
		base := core.ZoneBaseAmount[kind]
		zones = append(zones, core.ResourceZone{
			Cell:             cell,
			Kind:             kind,
			Amount:           base + m.rng.Intn(base),
			RegenPerHour:     core.ZoneRegenPerHour[kind],
			LastRegeneration: now,
		})
	}
	m.mu.Unlock()

	for _, zone := range zones {
		if err := m.store.PutZone(ctx, zone); err != nil {
			return nil, fmt.Errorf("place zone on %s: %w", zone.Cell, err)
		}
	}
	m.log.Info("Placed resource zones", "count", len(zones))
	return zones, nil
}

// Reseed clears every zone and places a fresh batch.
func (m *ZoneManager) Reseed(ctx context.Context, candidates []core.Cell, count int) ([]core.ResourceZone, error) {
	if err := m.store.ClearZones(ctx); err != nil {
		return nil, fmt.Errorf("clear zones: %w", err)
	}
	return m.PlaceZones(ctx, candidates, count)
}

// RegenerateAll applies regeneration to every stored zone. A failing
// write on one zone is logged and skipped; the rest still regenerate.
// Returns the number of zones whose amount changed.
func (m *ZoneManager) RegenerateAll(ctx context.Context, now time.Time) (int, error) {
	zones, err := m.store.ListZones(ctx)
	if err != nil {
		return 0, fmt.Errorf("list zones: %w", err)
	}

	updated := 0
	for _, zone := range zones {
		next := RegenerateZone(zone, now)
		if next == zone {
			continue
		}
		if err := m.store.PutZone(ctx, next); err != nil {
			m.log.Error("Failed to persist zone regeneration", "cell", zone.Cell, "error", err)
			continue
		}
		updated++
	}
	return updated, nil
}

// Collect harvests from the zone on a cell into the inventory. The
// persisted zone and the updated inventory are returned along with the
// collected amount. Fails with ErrNoZone when the cell has no zone and
// ErrZoneDepleted when it is empty.
func (m *ZoneManager) Collect(ctx context.Context, cell core.Cell, inv core.ResourceInventory) (core.ResourceZone, core.ResourceInventory, int, error) {
	zone, err := m.store.GetZone(ctx, cell)
	if err != nil {
		if err == store.ErrNotFound {
			return core.ResourceZone{}, inv, 0, ErrNoZone
		}
		return core.ResourceZone{}, inv, 0, fmt.Errorf("load zone %s: %w", cell, err)
	}
	if zone.Amount <= 0 {
		return zone, inv, 0, ErrZoneDepleted
	}

	m.mu.Lock()
	fraction := collectFractionMin + m.rng.Float64()*(collectFractionMax-collectFractionMin)
	m.mu.Unlock()

	next, nextInv, collected := CollectFromZone(zone, inv, fraction, time.Now())
	if collected <= 0 {
		return zone, inv, 0, ErrZoneDepleted
	}
	if err := m.store.PutZone(ctx, next); err != nil {
		return zone, inv, 0, fmt.Errorf("persist zone %s: %w", cell, err)
	}
	return next, nextInv, collected, nil
}

// Zone returns the zone on a cell, if any.
func (m *ZoneManager) Zone(ctx context.Context, cell core.Cell) (core.ResourceZone, bool, error) {
	zone, err := m.store.GetZone(ctx, cell)
	if err != nil {
		if err == store.ErrNotFound {
			return core.ResourceZone{}, false, nil
		}
		return core.ResourceZone{}, false, err
	}
	return zone, true, nil
}

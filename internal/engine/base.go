// internal/engine/base.go
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/terrahex/engine/internal/store"
	"github.com/terrahex/engine/pkg/core"
)

// StarvationPolicy names what happens to a base on a tick whose upkeep
// the player cannot pay.
type StarvationPolicy string

const (
	// StarvationIgnore skips the cycle entirely. This is the default.
	StarvationIgnore StarvationPolicy = "ignore"

	// StarvationDecay reduces the base's health each starved cycle and
	// destroys it when health reaches zero.
	StarvationDecay StarvationPolicy = "decay"
)

// starvationDamage is the health lost per starved cycle under the decay
// policy.
const starvationDamage = 10

// MaintenanceOutcome classifies one maintenance cycle.
type MaintenanceOutcome string

const (
	// OutcomeSustained means upkeep was paid and production credited.
	OutcomeSustained MaintenanceOutcome = "sustained"

	// OutcomeStarved means upkeep was unaffordable; neither upkeep nor
	// production was applied.
	OutcomeStarved MaintenanceOutcome = "starved"

	// OutcomeDestroyed means a starved cycle under the decay policy
	// dropped health to zero and the base is gone.
	OutcomeDestroyed MaintenanceOutcome = "destroyed"
)

// RunMaintenanceCycle applies one tick of base upkeep to a base and
// inventory. On an affordable cycle the maintenance is debited first,
// then production credited, and the cycle timestamp advances. On a
// starved cycle the policy decides: ignore leaves everything unchanged,
// decay damages the base and may destroy it.
func RunMaintenanceCycle(base core.PlayerBase, inv core.ResourceInventory, policy StarvationPolicy, now time.Time) (core.PlayerBase, core.ResourceInventory, MaintenanceOutcome) {
	upkeep := base.Maintenance.Cost()
	if inv.CanAfford(upkeep) {
		base.LastMaintenance = now
		return base, inv.Debit(upkeep).Credit(base.Generation), OutcomeSustained
	}
	if policy != StarvationDecay {
		return base, inv, OutcomeStarved
	}
	base.Health -= starvationDamage
	if base.Health <= 0 {
		base.Health = 0
		return base, inv, OutcomeDestroyed
	}
	return base, inv, OutcomeStarved
}

// BaseManager owns the player's single base: establishment, upgrade and
// the periodic maintenance cycle. Mutating calls must be serialized by
// the owning service.
type BaseManager struct {
	store  store.Backend
	ledger *TerritoryLedger
	policy StarvationPolicy
	log    *slog.Logger
}

// NewBaseManager creates a base manager. An empty policy selects
// StarvationIgnore.
func NewBaseManager(backend store.Backend, ledger *TerritoryLedger, policy StarvationPolicy, log *slog.Logger) *BaseManager {
	if policy == "" {
		policy = StarvationIgnore
	}
	return &BaseManager{store: backend, ledger: ledger, policy: policy, log: log}
}

// Establish creates a level-1 base on a conquered cell, debiting the
// establishment cost. Fails with ErrNotConquered on an unconquered
// cell, ErrAlreadyHasBase when the player owns a base anywhere, and
// ErrInsufficientResources when the cost is unaffordable.
func (m *BaseManager) Establish(ctx context.Context, playerID string, cell core.Cell, inv core.ResourceInventory, now time.Time) (core.PlayerBase, core.ResourceInventory, error) {
	view, err := m.ledger.View(ctx, cell)
	if err != nil {
		return core.PlayerBase{}, inv, err
	}
	if !view.Record.Conquered {
		return core.PlayerBase{}, inv, ErrNotConquered
	}

	if _, err := m.store.GetBaseByPlayer(ctx, playerID); err == nil {
		return core.PlayerBase{}, inv, ErrAlreadyHasBase
	} else if !errors.Is(err, store.ErrNotFound) {
		return core.PlayerBase{}, inv, fmt.Errorf("look up base for %s: %w", playerID, err)
	}

	if !inv.CanAfford(core.BaseEstablishCost) {
		return core.PlayerBase{}, inv, ErrInsufficientResources
	}

	stats := core.BaseStatsByLevel[core.BaseLevel1]
	base := core.PlayerBase{
		PlayerID:        playerID,
		Cell:            cell,
		Level:           core.BaseLevel1,
		Health:          stats.MaxHealth,
		MaxHealth:       stats.MaxHealth,
		LastMaintenance: now,
		Generation:      stats.Generation,
		Maintenance:     stats.Maintenance,
	}
	if err := m.store.PutBase(ctx, base); err != nil {
		return core.PlayerBase{}, inv, fmt.Errorf("persist base on %s: %w", cell, err)
	}

	m.log.Info("Base established", "cell", cell, "player", playerID)
	return base, inv.Debit(core.BaseEstablishCost), nil
}

// Upgrade raises the base on a cell to level 2, debiting the upgrade
// cost and switching to the level-2 production table. Health is kept;
// only the ceiling rises.
func (m *BaseManager) Upgrade(ctx context.Context, playerID string, cell core.Cell, inv core.ResourceInventory, now time.Time) (core.PlayerBase, core.ResourceInventory, error) {
	base, err := m.store.GetBase(ctx, cell)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return core.PlayerBase{}, inv, ErrNoBase
		}
		return core.PlayerBase{}, inv, fmt.Errorf("load base on %s: %w", cell, err)
	}
	if base.PlayerID != playerID {
		return core.PlayerBase{}, inv, ErrNotOwner
	}
	if base.Level >= core.BaseMaxLevel {
		return core.PlayerBase{}, inv, ErrAlreadyMaxLevel
	}
	if !inv.CanAfford(core.BaseUpgradeCost) {
		return core.PlayerBase{}, inv, ErrInsufficientResources
	}

	stats := core.BaseStatsByLevel[base.Level+1]
	base.Level++
	base.MaxHealth = stats.MaxHealth
	base.Generation = stats.Generation
	base.Maintenance = stats.Maintenance
	base.LastMaintenance = now
	if err := m.store.PutBase(ctx, base); err != nil {
		return core.PlayerBase{}, inv, fmt.Errorf("persist upgrade on %s: %w", cell, err)
	}

	m.log.Info("Base upgraded", "cell", cell, "player", playerID, "level", base.Level)
	return base, inv.Debit(core.BaseUpgradeCost), nil
}

// Base returns the player's base, if any.
func (m *BaseManager) Base(ctx context.Context, playerID string) (core.PlayerBase, bool, error) {
	base, err := m.store.GetBaseByPlayer(ctx, playerID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return core.PlayerBase{}, false, nil
		}
		return core.PlayerBase{}, false, err
	}
	return base, true, nil
}

// Maintain runs one maintenance cycle against the player's base,
// persisting the resulting base state (or deleting it when the decay
// policy destroyed it). The updated inventory and outcome are returned;
// when the player has no base the inventory passes through untouched
// with OutcomeSustained and ok=false.
func (m *BaseManager) Maintain(ctx context.Context, playerID string, inv core.ResourceInventory, now time.Time) (core.ResourceInventory, MaintenanceOutcome, bool, error) {
	base, ok, err := m.Base(ctx, playerID)
	if err != nil {
		return inv, "", false, err
	}
	if !ok {
		return inv, OutcomeSustained, false, nil
	}

	next, nextInv, outcome := RunMaintenanceCycle(base, inv, m.policy, now)
	switch outcome {
	case OutcomeDestroyed:
		if err := m.store.DeleteBase(ctx, base.Cell); err != nil {
			return inv, outcome, true, fmt.Errorf("remove destroyed base on %s: %w", base.Cell, err)
		}
		m.log.Warn("Base destroyed by starvation", "cell", base.Cell, "player", playerID)
	case OutcomeStarved:
		m.log.Warn("Base upkeep unaffordable", "cell", base.Cell, "player", playerID, "policy", m.policy)
		if next != base {
			if err := m.store.PutBase(ctx, next); err != nil {
				return inv, outcome, true, fmt.Errorf("persist starved base on %s: %w", base.Cell, err)
			}
		}
	default:
		if err := m.store.PutBase(ctx, next); err != nil {
			return inv, outcome, true, fmt.Errorf("persist maintained base on %s: %w", base.Cell, err)
		}
	}
	return nextInv, outcome, true, nil
}

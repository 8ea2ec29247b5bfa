// internal/engine/ledger.go
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/terrahex/engine/internal/hexgrid"
	"github.com/terrahex/engine/internal/store"
	"github.com/terrahex/engine/pkg/core"
)

// TerritoryView is what territory queries return: either a stored
// conquest record or a synthesized default for a cell nobody has touched
// yet. Synthetic views are never written back by the query itself.
type TerritoryView struct {
	Record    core.TerritoryRecord
	Synthetic bool
}

// TerritoryLedger answers conquest queries and performs conquests.
// Mutating calls must be serialized by the owning service; the ledger
// itself only guards against double-conquest through the stored record.
type TerritoryLedger struct {
	store store.Backend
	grid  *hexgrid.Grid
	log   *slog.Logger
}

// NewTerritoryLedger creates a ledger over the given backend and grid.
func NewTerritoryLedger(backend store.Backend, grid *hexgrid.Grid, log *slog.Logger) *TerritoryLedger {
	return &TerritoryLedger{store: backend, grid: grid, log: log}
}

// defaultRecord synthesizes the unconquered record for a cell.
func (l *TerritoryLedger) defaultRecord(cell core.Cell) (core.TerritoryRecord, error) {
	center, err := l.grid.Center(cell)
	if err != nil {
		return core.TerritoryRecord{}, err
	}
	return core.TerritoryRecord{
		Cell:            cell,
		Center:          center,
		ConquestCost:    core.DefaultConquestCost,
		MaintenanceCost: core.DefaultTerritoryMaintenance,
	}, nil
}

// View returns the territory view for one cell, synthesizing a default
// when no record exists.
func (l *TerritoryLedger) View(ctx context.Context, cell core.Cell) (TerritoryView, error) {
	rec, err := l.store.GetTerritory(ctx, cell)
	if err == nil {
		return TerritoryView{Record: rec}, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return TerritoryView{}, fmt.Errorf("load territory %s: %w", cell, err)
	}
	rec, err = l.defaultRecord(cell)
	if err != nil {
		return TerritoryView{}, err
	}
	return TerritoryView{Record: rec, Synthetic: true}, nil
}

// Query returns views for every cell in the neighborhood of the given
// coordinate, closest-first, bounded by the grid's cell cap.
func (l *TerritoryLedger) Query(ctx context.Context, around core.Coordinate, radius int) ([]TerritoryView, error) {
	center, err := l.grid.CellFor(around)
	if err != nil {
		return nil, err
	}
	cells, err := l.grid.Neighborhood(center, radius)
	if err != nil {
		return nil, err
	}

	views := make([]TerritoryView, 0, len(cells))
	for _, cell := range cells {
		view, err := l.View(ctx, cell)
		if err != nil {
			return nil, err
		}
		views = append(views, view)
	}
	return views, nil
}

// Visit records that a player has entered a cell, creating the
// unconquered record on first contact. Already-stored cells are left
// untouched. Returns true when a new record was written.
func (l *TerritoryLedger) Visit(ctx context.Context, cell core.Cell) (bool, error) {
	_, err := l.store.GetTerritory(ctx, cell)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return false, fmt.Errorf("load territory %s: %w", cell, err)
	}
	rec, err := l.defaultRecord(cell)
	if err != nil {
		return false, err
	}
	if err := l.store.PutTerritory(ctx, rec); err != nil {
		return false, fmt.Errorf("record visit to %s: %w", cell, err)
	}
	return true, nil
}

// Conquer claims a cell for a player, debiting the conquest cost from
// the inventory. Fails with ErrAlreadyConquered when the cell is taken
// and ErrInsufficientResources when the player cannot pay.
func (l *TerritoryLedger) Conquer(ctx context.Context, playerID string, cell core.Cell, inv core.ResourceInventory, now time.Time) (core.TerritoryRecord, core.ResourceInventory, error) {
	view, err := l.View(ctx, cell)
	if err != nil {
		return core.TerritoryRecord{}, inv, err
	}
	rec := view.Record
	if rec.Conquered {
		return core.TerritoryRecord{}, inv, ErrAlreadyConquered
	}
	if !inv.CanAfford(rec.ConquestCost) {
		return core.TerritoryRecord{}, inv, ErrInsufficientResources
	}

	rec.Conquered = true
	rec.ConqueredBy = playerID
	rec.ConqueredAt = now
	if err := l.store.PutTerritory(ctx, rec); err != nil {
		return core.TerritoryRecord{}, inv, fmt.Errorf("persist conquest of %s: %w", cell, err)
	}

	l.log.Info("Cell conquered", "cell", cell, "player", playerID)
	return rec, inv.Debit(rec.ConquestCost), nil
}

// Stats summarizes the ledger for a player: how many cells they have
// conquered and how many cells the engine has seen at all.
func (l *TerritoryLedger) Stats(ctx context.Context, playerID string) (conquered, visited int, err error) {
	conquered, err = l.store.CountConqueredBy(ctx, playerID)
	if err != nil {
		return 0, 0, err
	}
	all, err := l.store.ListTerritories(ctx)
	if err != nil {
		return 0, 0, err
	}
	return conquered, len(all), nil
}

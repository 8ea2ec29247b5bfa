package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terrahex/engine/internal/hexgrid"
	"github.com/terrahex/engine/internal/store/memory"
	"github.com/terrahex/engine/pkg/core"
)

var testOrigin = core.Coordinate{Latitude: 52.52, Longitude: 13.405}

func testGrid(t *testing.T) *hexgrid.Grid {
	t.Helper()
	grid, err := hexgrid.NewGrid(hexgrid.DefaultResolution, 200)
	require.NoError(t, err)
	return grid
}

func TestLedger_ViewSynthesizesDefault(t *testing.T) {
	grid := testGrid(t)
	ledger := NewTerritoryLedger(memory.New(), grid, discardLogger())

	cell, err := grid.CellFor(testOrigin)
	require.NoError(t, err)

	view, err := ledger.View(context.Background(), cell)
	require.NoError(t, err)
	assert.True(t, view.Synthetic, "untouched cell must read as a synthetic default")
	assert.False(t, view.Record.Conquered)
	assert.Equal(t, core.DefaultConquestCost, view.Record.ConquestCost)
	assert.Equal(t, core.DefaultTerritoryMaintenance, view.Record.MaintenanceCost)
	assert.Equal(t, cell, view.Record.Cell)
}

func TestLedger_ConquerScenario(t *testing.T) {
	grid := testGrid(t)
	backend := memory.New()
	ledger := NewTerritoryLedger(backend, grid, discardLogger())
	ctx := context.Background()

	cell, err := grid.CellFor(testOrigin)
	require.NoError(t, err)

	inv := core.ResourceInventory{Wood: 50, Iron: 30, Stone: 40}
	rec, after, err := ledger.Conquer(ctx, "p1", cell, inv, time.Now())
	require.NoError(t, err)
	assert.True(t, rec.Conquered)
	assert.Equal(t, "p1", rec.ConqueredBy)
	assert.False(t, rec.ConqueredAt.IsZero())
	assert.Equal(t, core.ResourceInventory{Wood: 40, Iron: 25, Stone: 32}, after)

	// Second attempt fails without a second debit.
	_, unchanged, err := ledger.Conquer(ctx, "p1", cell, after, time.Now())
	assert.ErrorIs(t, err, ErrAlreadyConquered)
	assert.Equal(t, after, unchanged)

	view, err := ledger.View(ctx, cell)
	require.NoError(t, err)
	assert.False(t, view.Synthetic, "conquered cell must read as a stored record")
}

func TestLedger_ConquerUnaffordable(t *testing.T) {
	grid := testGrid(t)
	ledger := NewTerritoryLedger(memory.New(), grid, discardLogger())

	cell, err := grid.CellFor(testOrigin)
	require.NoError(t, err)

	inv := core.ResourceInventory{Wood: 1}
	_, after, err := ledger.Conquer(context.Background(), "p1", cell, inv, time.Now())
	assert.ErrorIs(t, err, ErrInsufficientResources)
	assert.Equal(t, inv, after)
}

func TestLedger_VisitRecordsOnce(t *testing.T) {
	grid := testGrid(t)
	backend := memory.New()
	ledger := NewTerritoryLedger(backend, grid, discardLogger())
	ctx := context.Background()

	cell, err := grid.CellFor(testOrigin)
	require.NoError(t, err)

	created, err := ledger.Visit(ctx, cell)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = ledger.Visit(ctx, cell)
	require.NoError(t, err)
	assert.False(t, created, "second visit must not rewrite the record")

	_, visited, err := ledger.Stats(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 1, visited)
}

func TestLedger_QueryClosestFirst(t *testing.T) {
	grid := testGrid(t)
	ledger := NewTerritoryLedger(memory.New(), grid, discardLogger())

	views, err := ledger.Query(context.Background(), testOrigin, 2)
	require.NoError(t, err)
	require.NotEmpty(t, views)

	// 2-ring of a hex: 1 + 6 + 12 cells.
	assert.Len(t, views, 19)

	center, err := grid.CellFor(testOrigin)
	require.NoError(t, err)
	assert.Equal(t, center, views[0].Record.Cell, "center cell comes first")
	for _, view := range views {
		assert.True(t, view.Synthetic)
	}
}

func TestLedger_Stats(t *testing.T) {
	grid := testGrid(t)
	backend := memory.New()
	ledger := NewTerritoryLedger(backend, grid, discardLogger())
	ctx := context.Background()

	cells, err := grid.Neighborhood(mustCell(t, grid, testOrigin), 1)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(cells), 3)

	inv := core.ResourceInventory{Wood: 100, Iron: 100, Stone: 100}
	for _, cell := range cells[:2] {
		_, inv, err = ledger.Conquer(ctx, "p1", cell, inv, time.Now())
		require.NoError(t, err)
	}
	_, err = ledger.Visit(ctx, cells[2])
	require.NoError(t, err)

	conquered, visited, err := ledger.Stats(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 2, conquered)
	assert.Equal(t, 3, visited)

	conquered, _, err = ledger.Stats(ctx, "someone-else")
	require.NoError(t, err)
	assert.Zero(t, conquered)
}

func mustCell(t *testing.T, grid *hexgrid.Grid, c core.Coordinate) core.Cell {
	t.Helper()
	cell, err := grid.CellFor(c)
	require.NoError(t, err)
	return cell
}

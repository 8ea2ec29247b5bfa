package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terrahex/engine/internal/store/memory"
	"github.com/terrahex/engine/pkg/core"
)

type baseFixture struct {
	backend *memory.Backend
	ledger  *TerritoryLedger
	mgr     *BaseManager
	cell    core.Cell
}

func newBaseFixture(t *testing.T, policy StarvationPolicy) *baseFixture {
	t.Helper()
	grid := testGrid(t)
	backend := memory.New()
	ledger := NewTerritoryLedger(backend, grid, discardLogger())

	cell, err := grid.CellFor(testOrigin)
	require.NoError(t, err)

	return &baseFixture{
		backend: backend,
		ledger:  ledger,
		mgr:     NewBaseManager(backend, ledger, policy, discardLogger()),
		cell:    cell,
	}
}

func (f *baseFixture) conquer(t *testing.T, playerID string) {
	t.Helper()
	inv := core.ResourceInventory{Wood: 100, Iron: 100, Stone: 100}
	_, _, err := f.ledger.Conquer(context.Background(), playerID, f.cell, inv, time.Now())
	require.NoError(t, err)
}

func TestEstablish_RequiresConqueredCell(t *testing.T) {
	f := newBaseFixture(t, StarvationIgnore)
	inv := core.ResourceInventory{Wood: 100, Iron: 100, Stone: 100}

	_, after, err := f.mgr.Establish(context.Background(), "p1", f.cell, inv, time.Now())
	assert.ErrorIs(t, err, ErrNotConquered)
	assert.Equal(t, inv, after)
}

func TestEstablish_CreatesLevelOneBase(t *testing.T) {
	f := newBaseFixture(t, StarvationIgnore)
	f.conquer(t, "p1")
	ctx := context.Background()

	inv := core.ResourceInventory{Wood: 40, Iron: 30, Stone: 30}
	base, after, err := f.mgr.Establish(ctx, "p1", f.cell, inv, time.Now())
	require.NoError(t, err)

	assert.Equal(t, core.BaseLevel1, base.Level)
	assert.Equal(t, 100, base.Health)
	assert.Equal(t, 100, base.MaxHealth)
	assert.Equal(t, core.ResourceInventory{Wood: 5, Iron: 3, Stone: 4}, base.Generation)
	assert.Equal(t, core.ResourceInventory{Wood: 2, Iron: 1, Stone: 2}, base.Maintenance)
	// 40/30/30 minus the 30/20/25 establishment cost.
	assert.Equal(t, core.ResourceInventory{Wood: 10, Iron: 10, Stone: 5}, after)

	stored, err := f.backend.GetBase(ctx, f.cell)
	require.NoError(t, err)
	assert.Equal(t, base, stored)
}

func TestEstablish_OnlyOneBasePerPlayer(t *testing.T) {
	f := newBaseFixture(t, StarvationIgnore)
	f.conquer(t, "p1")
	ctx := context.Background()

	inv := core.ResourceInventory{Wood: 100, Iron: 100, Stone: 100}
	_, after, err := f.mgr.Establish(ctx, "p1", f.cell, inv, time.Now())
	require.NoError(t, err)

	_, _, err = f.mgr.Establish(ctx, "p1", f.cell, after, time.Now())
	assert.ErrorIs(t, err, ErrAlreadyHasBase)
}

func TestEstablish_Unaffordable(t *testing.T) {
	f := newBaseFixture(t, StarvationIgnore)
	f.conquer(t, "p1")

	inv := core.ResourceInventory{Wood: 29, Iron: 20, Stone: 25}
	_, after, err := f.mgr.Establish(context.Background(), "p1", f.cell, inv, time.Now())
	assert.ErrorIs(t, err, ErrInsufficientResources)
	assert.Equal(t, inv, after)
}

func TestUpgrade_ToLevelTwo(t *testing.T) {
	f := newBaseFixture(t, StarvationIgnore)
	f.conquer(t, "p1")
	ctx := context.Background()

	inv := core.ResourceInventory{Wood: 100, Iron: 100, Stone: 100}
	_, after, err := f.mgr.Establish(ctx, "p1", f.cell, inv, time.Now())
	require.NoError(t, err)

	base, after, err := f.mgr.Upgrade(ctx, "p1", f.cell, after, time.Now())
	require.NoError(t, err)
	assert.Equal(t, core.BaseLevel2, base.Level)
	assert.Equal(t, 150, base.MaxHealth)
	assert.Equal(t, 100, base.Health, "upgrade raises the ceiling, not current health")
	assert.Equal(t, core.ResourceInventory{Wood: 10, Iron: 6, Stone: 8}, base.Generation)
	// 100s minus establish 30/20/25 minus upgrade 50/30/40.
	assert.Equal(t, core.ResourceInventory{Wood: 20, Iron: 50, Stone: 35}, after)

	_, _, err = f.mgr.Upgrade(ctx, "p1", f.cell, after, time.Now())
	assert.ErrorIs(t, err, ErrAlreadyMaxLevel)
}

func TestUpgrade_Errors(t *testing.T) {
	f := newBaseFixture(t, StarvationIgnore)
	f.conquer(t, "p1")
	ctx := context.Background()
	inv := core.ResourceInventory{Wood: 100, Iron: 100, Stone: 100}

	_, _, err := f.mgr.Upgrade(ctx, "p1", f.cell, inv, time.Now())
	assert.ErrorIs(t, err, ErrNoBase)

	_, after, err := f.mgr.Establish(ctx, "p1", f.cell, inv, time.Now())
	require.NoError(t, err)

	_, _, err = f.mgr.Upgrade(ctx, "intruder", f.cell, after, time.Now())
	assert.ErrorIs(t, err, ErrNotOwner)

	_, _, err = f.mgr.Upgrade(ctx, "p1", f.cell, core.ResourceInventory{Wood: 1}, time.Now())
	assert.ErrorIs(t, err, ErrInsufficientResources)
}

func TestRunMaintenanceCycle_Sustained(t *testing.T) {
	now := time.Now()
	base := core.PlayerBase{
		PlayerID: "p1", Cell: "14:0:0", Level: core.BaseLevel1,
		Health: 100, MaxHealth: 100,
		Generation:  core.ResourceInventory{Wood: 5, Iron: 3, Stone: 4},
		Maintenance: core.ResourceInventory{Wood: 2, Iron: 1, Stone: 2},
	}
	inv := core.ResourceInventory{Wood: 10, Iron: 10, Stone: 10}

	next, after, outcome := RunMaintenanceCycle(base, inv, StarvationIgnore, now)
	assert.Equal(t, OutcomeSustained, outcome)
	// Debit maintenance, then credit production.
	assert.Equal(t, core.ResourceInventory{Wood: 13, Iron: 12, Stone: 12}, after)
	assert.Equal(t, now, next.LastMaintenance)
}

func TestRunMaintenanceCycle_StarvedIgnoreLeavesEverything(t *testing.T) {
	base := core.PlayerBase{
		PlayerID: "p1", Cell: "14:0:0", Health: 100, MaxHealth: 100,
		Generation:  core.ResourceInventory{Wood: 5, Iron: 3, Stone: 4},
		Maintenance: core.ResourceInventory{Wood: 2, Iron: 1, Stone: 2},
	}
	inv := core.ResourceInventory{Wood: 1, Iron: 1, Stone: 1}

	next, after, outcome := RunMaintenanceCycle(base, inv, StarvationIgnore, time.Now())
	assert.Equal(t, OutcomeStarved, outcome)
	assert.Equal(t, inv, after, "no production on a starved cycle")
	assert.Equal(t, base, next)
}

func TestRunMaintenanceCycle_DecayDamagesAndDestroys(t *testing.T) {
	base := core.PlayerBase{
		PlayerID: "p1", Cell: "14:0:0", Health: 15, MaxHealth: 100,
		Maintenance: core.ResourceInventory{Wood: 2, Iron: 1, Stone: 2},
	}
	inv := core.ResourceInventory{}

	next, _, outcome := RunMaintenanceCycle(base, inv, StarvationDecay, time.Now())
	assert.Equal(t, OutcomeStarved, outcome)
	assert.Equal(t, 5, next.Health)

	next, _, outcome = RunMaintenanceCycle(next, inv, StarvationDecay, time.Now())
	assert.Equal(t, OutcomeDestroyed, outcome)
	assert.Zero(t, next.Health)
}

func TestMaintain_PersistsAndHandlesNoBase(t *testing.T) {
	f := newBaseFixture(t, StarvationIgnore)
	ctx := context.Background()

	inv := core.ResourceInventory{Wood: 10, Iron: 10, Stone: 10}
	after, outcome, hadBase, err := f.mgr.Maintain(ctx, "p1", inv, time.Now())
	require.NoError(t, err)
	assert.False(t, hadBase)
	assert.Equal(t, inv, after)
	assert.Equal(t, OutcomeSustained, outcome)

	f.conquer(t, "p1")
	rich := core.ResourceInventory{Wood: 100, Iron: 100, Stone: 100}
	_, after, err = f.mgr.Establish(ctx, "p1", f.cell, rich, time.Now())
	require.NoError(t, err)

	after, outcome, hadBase, err = f.mgr.Maintain(ctx, "p1", after, time.Now())
	require.NoError(t, err)
	assert.True(t, hadBase)
	assert.Equal(t, OutcomeSustained, outcome)
	// Net per cycle at level 1: +3 wood, +2 iron, +2 stone.
	assert.Equal(t, core.ResourceInventory{Wood: 73, Iron: 82, Stone: 77}, after)
}

func TestMaintain_DecayRemovesDestroyedBase(t *testing.T) {
	f := newBaseFixture(t, StarvationDecay)
	f.conquer(t, "p1")
	ctx := context.Background()

	rich := core.ResourceInventory{Wood: 100, Iron: 100, Stone: 100}
	_, _, err := f.mgr.Establish(ctx, "p1", f.cell, rich, time.Now())
	require.NoError(t, err)

	// Starve it to destruction: 100 health, 10 damage per cycle.
	broke := core.ResourceInventory{}
	var outcome MaintenanceOutcome
	for i := 0; i < 10; i++ {
		_, outcome, _, err = f.mgr.Maintain(ctx, "p1", broke, time.Now())
		require.NoError(t, err)
	}
	assert.Equal(t, OutcomeDestroyed, outcome)

	_, ok, err := f.mgr.Base(ctx, "p1")
	require.NoError(t, err)
	assert.False(t, ok, "destroyed base must be gone")
}

package handlers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terrahex/engine/internal/dispatcher"
	"github.com/terrahex/engine/internal/engine"
	"github.com/terrahex/engine/internal/hexgrid"
	"github.com/terrahex/engine/internal/position"
	"github.com/terrahex/engine/internal/store/memory"
	"github.com/terrahex/engine/pkg/core"
	"github.com/terrahex/engine/pkg/streaming"
)

type stubSource struct {
	fix core.PositionFix
}

func (s *stubSource) Current(context.Context) (core.PositionFix, error) {
	return s.fix, nil
}

func (s *stubSource) Watch(func(core.PositionFix), func(error)) (position.Subscription, error) {
	return stubSub{}, nil
}

type stubSub struct{}

func (stubSub) Cancel() {}

func newFixture(t *testing.T) *dispatcher.Dispatcher {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	grid, err := hexgrid.NewGrid(hexgrid.DefaultResolution, 200)
	require.NoError(t, err)

	src := &stubSource{fix: core.PositionFix{
		Coordinate: core.Coordinate{Latitude: 52.52, Longitude: 13.405},
		Time:       time.Now(),
	}}
	eng, err := engine.NewService(context.Background(), memory.New(), grid, src, log, engine.Options{
		PlayerID:          "p1",
		StartingResources: core.ResourceInventory{Wood: 50, Iron: 30, Stone: 40},
		ZoneCount:         3,
		Seed:              7,
	})
	require.NoError(t, err)

	d, err := dispatcher.New(log)
	require.NoError(t, err)
	NewService(Dependencies{Engine: eng, Logger: log}).RegisterHandlers(d)
	return d
}

func TestRegisterHandlers_AllCommandsPresent(t *testing.T) {
	d := newFixture(t)
	for _, cmd := range []string{
		streaming.CmdConquer, streaming.CmdCollect,
		streaming.CmdEstablishBase, streaming.CmdUpgradeBase,
		streaming.CmdSetHome, streaming.CmdReturnToHome,
		streaming.CmdRefreshPosition, streaming.CmdSeedZones,
		streaming.CmdSnapshot, streaming.CmdTerritories,
	} {
		assert.True(t, d.HasHandler(cmd), "missing handler for %s", cmd)
	}
}

func TestConquerFlow(t *testing.T) {
	d := newFixture(t)

	// No position yet.
	_, err := d.Dispatch(dispatcher.Event{Command: streaming.CmdConquer})
	assert.ErrorIs(t, err, engine.ErrNoPosition)

	_, err = d.Dispatch(dispatcher.Event{Command: streaming.CmdRefreshPosition})
	require.NoError(t, err)

	result, err := d.Dispatch(dispatcher.Event{Command: streaming.CmdConquer})
	require.NoError(t, err)
	conquered, ok := result.(ConquerResult)
	require.True(t, ok)
	assert.True(t, conquered.Territory.Conquered)
	assert.Equal(t, core.ResourceInventory{Wood: 40, Iron: 25, Stone: 32}, conquered.Player.Resources)

	_, err = d.Dispatch(dispatcher.Event{Command: streaming.CmdConquer})
	assert.ErrorIs(t, err, engine.ErrAlreadyConquered)
}

func TestCollectRequiresCell(t *testing.T) {
	d := newFixture(t)

	_, err := d.Dispatch(dispatcher.Event{
		Command: streaming.CmdCollect,
		Payload: json.RawMessage(`{}`),
	})
	assert.Error(t, err)
}

func TestSeedAndCollect(t *testing.T) {
	d := newFixture(t)

	_, err := d.Dispatch(dispatcher.Event{Command: streaming.CmdRefreshPosition})
	require.NoError(t, err)

	result, err := d.Dispatch(dispatcher.Event{Command: streaming.CmdSeedZones})
	require.NoError(t, err)
	zones, ok := result.([]core.ResourceZone)
	require.True(t, ok)
	require.Len(t, zones, 3)

	payload, err := json.Marshal(streaming.CellArgs{Cell: zones[0].Cell})
	require.NoError(t, err)
	result, err = d.Dispatch(dispatcher.Event{Command: streaming.CmdCollect, Payload: payload})
	require.NoError(t, err)
	collected, ok := result.(CollectResult)
	require.True(t, ok)
	assert.Greater(t, collected.Collected, 0)
}

func TestSetHomeWithAndWithoutCoordinate(t *testing.T) {
	d := newFixture(t)

	_, err := d.Dispatch(dispatcher.Event{Command: streaming.CmdRefreshPosition})
	require.NoError(t, err)

	// Explicit coordinate.
	payload, err := json.Marshal(streaming.CoordinateArgs{
		Coordinate: &core.Coordinate{Latitude: 48.8566, Longitude: 2.3522},
	})
	require.NoError(t, err)
	result, err := d.Dispatch(dispatcher.Event{Command: streaming.CmdSetHome, Payload: payload})
	require.NoError(t, err)
	assert.Equal(t, core.Coordinate{Latitude: 48.8566, Longitude: 2.3522}, result)

	// No coordinate: falls back to the current position.
	result, err = d.Dispatch(dispatcher.Event{Command: streaming.CmdSetHome})
	require.NoError(t, err)
	assert.Equal(t, core.Coordinate{Latitude: 52.52, Longitude: 13.405}, result)
}

func TestSnapshotQuery(t *testing.T) {
	d := newFixture(t)

	result, err := d.Dispatch(dispatcher.Event{Command: streaming.CmdSnapshot})
	require.NoError(t, err)
	snap, ok := result.(engine.Snapshot)
	require.True(t, ok)
	assert.Equal(t, "p1", snap.Player.ID)
}

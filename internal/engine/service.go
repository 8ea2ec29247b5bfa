// internal/engine/service.go

// Package engine implements the territory and resource simulation: cell
// conquest, the three-resource economy, regenerating deposits, the
// player base and the periodic clock that advances all of it.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/terrahex/engine/internal/geo"
	"github.com/terrahex/engine/internal/hexgrid"
	"github.com/terrahex/engine/internal/position"
	"github.com/terrahex/engine/internal/queue"
	"github.com/terrahex/engine/internal/store"
	"github.com/terrahex/engine/pkg/core"
)

// positionBatch is how many buffered fixes trigger an early history
// flush between ticks.
const positionBatch = 10

// conquestScore is the score awarded per conquered cell.
const conquestScore = 10

// Options configures a Service.
type Options struct {
	PlayerID           string
	StartingResources  core.ResourceInventory
	NeighborhoodRadius int
	ZoneCount          int
	PositionHistory    int
	StarvationPolicy   StarvationPolicy
	HomeThresholdKm    float64
	TickInterval       time.Duration
	Seed               int64 // 0 seeds zone randomness from the wall clock

	// OnTick, when set, receives stats after each simulation step.
	OnTick func(duration time.Duration, zonesRegenerated, flushedFixes int)
}

// Snapshot is the read-only projection handed to the presentation
// layer.
type Snapshot struct {
	Player           core.PlayerState   `json:"player"`
	CurrentCell      core.Cell          `json:"currentCell,omitempty"`
	CurrentTerritory *TerritoryView     `json:"currentTerritory,omitempty"`
	CurrentZone      *core.ResourceZone `json:"currentZone,omitempty"`
	Conquered        int                `json:"conquered"`
	Visited          int                `json:"visited"`
	Base             *core.PlayerBase   `json:"base,omitempty"`
	Home             *core.Coordinate   `json:"home,omitempty"`
	AwayFromHome     bool               `json:"awayFromHome"`
	Connected        bool               `json:"connected"`
	Time             time.Time          `json:"time"`
}

// Service is the engine facade: it owns the player record and serializes
// every state mutation behind one mutex. Three drivers feed it
// concurrently: the simulation clock, position updates and user
// commands.
type Service struct {
	store  store.Backend
	grid   *hexgrid.Grid
	source position.Source
	ledger *TerritoryLedger
	zones  *ZoneManager
	bases  *BaseManager
	home   *HomeTracker
	clock  *Clock
	fixes  *queue.Queue[core.PositionFix]
	log    *slog.Logger
	opts   Options

	mu        sync.Mutex
	player    core.PlayerState
	sub       position.Subscription
	connected bool
}

// NewService builds the engine over its collaborators, loading or
// creating the player record.
func NewService(ctx context.Context, backend store.Backend, grid *hexgrid.Grid, source position.Source, log *slog.Logger, opts Options) (*Service, error) {
	if opts.PlayerID == "" {
		opts.PlayerID = "local"
	}
	if opts.NeighborhoodRadius <= 0 {
		opts.NeighborhoodRadius = 5
	}
	if opts.ZoneCount <= 0 {
		opts.ZoneCount = 15
	}
	if opts.PositionHistory <= 0 {
		opts.PositionHistory = 500
	}

	ledger := NewTerritoryLedger(backend, grid, log)
	home, err := NewHomeTracker(ctx, backend, opts.HomeThresholdKm, log)
	if err != nil {
		return nil, err
	}

	s := &Service{
		store:     backend,
		grid:      grid,
		source:    source,
		ledger:    ledger,
		zones:     NewZoneManager(backend, log, opts.Seed),
		bases:     NewBaseManager(backend, ledger, opts.StarvationPolicy, log),
		home:      home,
		fixes:     queue.New[core.PositionFix](),
		log:       log,
		opts:      opts,
		connected: true,
	}
	s.clock = NewClock(opts.TickInterval, s.Tick, log)

	player, err := backend.GetPlayer(ctx, opts.PlayerID)
	switch {
	case err == nil:
		s.player = player
	case errors.Is(err, store.ErrNotFound):
		s.player = core.PlayerState{
			ID:        opts.PlayerID,
			Health:    100,
			Level:     1,
			Resources: opts.StartingResources,
		}
		if err := backend.PutPlayer(ctx, s.player); err != nil {
			return nil, fmt.Errorf("create player %s: %w", opts.PlayerID, err)
		}
	default:
		return nil, fmt.Errorf("load player %s: %w", opts.PlayerID, err)
	}
	return s, nil
}

// Start begins the position watch and the simulation clock.
func (s *Service) Start() error {
	sub, err := s.source.Watch(s.HandlePositionUpdate, func(err error) {
		s.log.Error("Position source error", "error", err)
	})
	if err != nil {
		return fmt.Errorf("start position watch: %w", err)
	}
	s.mu.Lock()
	s.sub = sub
	s.mu.Unlock()

	s.clock.Start()
	return nil
}

// Stop halts the clock, cancels the position watch and flushes any
// buffered position history.
func (s *Service) Stop(ctx context.Context) {
	s.clock.Stop()

	s.mu.Lock()
	sub := s.sub
	s.sub = nil
	s.mu.Unlock()
	if sub != nil {
		sub.Cancel()
	}

	s.flushPositions(ctx)
}

// noteStore folds a store result into the connectivity flag.
func (s *Service) noteStore(err error) {
	s.mu.Lock()
	s.connected = err == nil
	s.mu.Unlock()
}

// HandlePositionUpdate ingests one fix: updates the player's last known
// position, buffers the fix for history, and records the visited cell.
// History and visit failures are logged and swallowed; they never abort
// the update.
func (s *Service) HandlePositionUpdate(fix core.PositionFix) {
	if err := geo.Validate(fix.Coordinate); err != nil {
		s.log.Warn("Dropping invalid position fix", "error", err)
		return
	}
	ctx := context.Background()

	s.mu.Lock()
	s.player.LastKnownPosition = &fix
	player := s.player
	s.mu.Unlock()

	if err := s.store.PutPlayer(ctx, player); err != nil {
		s.noteStore(err)
		s.log.Error("Failed to persist position update", "error", err)
	} else {
		s.noteStore(nil)
	}

	s.fixes.Push(fix)
	if s.fixes.Len() >= positionBatch {
		s.flushPositions(ctx)
	}

	cell, err := s.grid.CellFor(fix.Coordinate)
	if err != nil {
		s.log.Warn("Position fix outside grid", "error", err)
		return
	}
	if _, err := s.ledger.Visit(ctx, cell); err != nil {
		s.log.Error("Failed to record cell visit", "cell", cell, "error", err)
	}
}

// RefreshPosition pulls one fix from the source on demand and ingests
// it.
func (s *Service) RefreshPosition(ctx context.Context) (core.PositionFix, error) {
	fix, err := s.source.Current(ctx)
	if err != nil {
		return core.PositionFix{}, err
	}
	s.HandlePositionUpdate(fix)
	return fix, nil
}

// currentFixLocked returns the last known fix. Callers hold s.mu.
func (s *Service) currentFixLocked() (core.PositionFix, error) {
	if s.player.LastKnownPosition == nil {
		return core.PositionFix{}, ErrNoPosition
	}
	return *s.player.LastKnownPosition, nil
}

// CurrentCell resolves the cell under the player's last known position.
func (s *Service) CurrentCell() (core.Cell, error) {
	s.mu.Lock()
	fix, err := s.currentFixLocked()
	s.mu.Unlock()
	if err != nil {
		return "", err
	}
	return s.grid.CellFor(fix.Coordinate)
}

// ConquerCurrentCell claims the cell the player is standing in, paying
// the conquest cost from the player's inventory. The persisted record
// and the updated player state are returned.
func (s *Service) ConquerCurrentCell(ctx context.Context) (core.TerritoryRecord, core.PlayerState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fix, err := s.currentFixLocked()
	if err != nil {
		return core.TerritoryRecord{}, s.player, err
	}
	cell, err := s.grid.CellFor(fix.Coordinate)
	if err != nil {
		return core.TerritoryRecord{}, s.player, err
	}

	rec, inv, err := s.ledger.Conquer(ctx, s.player.ID, cell, s.player.Resources, time.Now())
	if err != nil {
		return core.TerritoryRecord{}, s.player, err
	}

	next := s.player
	next.Resources = inv
	next.Score += conquestScore
	if err := s.store.PutPlayer(ctx, next); err != nil {
		return core.TerritoryRecord{}, s.player, fmt.Errorf("persist player after conquest: %w", err)
	}
	s.player = next
	return rec, next, nil
}

// Collect harvests from the resource zone on a cell into the player's
// inventory.
func (s *Service) Collect(ctx context.Context, cell core.Cell) (core.ResourceZone, int, core.PlayerState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	zone, inv, collected, err := s.zones.Collect(ctx, cell, s.player.Resources)
	if err != nil {
		return core.ResourceZone{}, 0, s.player, err
	}

	next := s.player
	next.Resources = inv
	if err := s.store.PutPlayer(ctx, next); err != nil {
		return core.ResourceZone{}, 0, s.player, fmt.Errorf("persist player after collection: %w", err)
	}
	s.player = next
	return zone, collected, next, nil
}

// EstablishBase builds the player's base on a conquered cell.
func (s *Service) EstablishBase(ctx context.Context, cell core.Cell) (core.PlayerBase, core.PlayerState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	base, inv, err := s.bases.Establish(ctx, s.player.ID, cell, s.player.Resources, time.Now())
	if err != nil {
		return core.PlayerBase{}, s.player, err
	}

	next := s.player
	next.Resources = inv
	next.BaseCell = cell
	if err := s.store.PutPlayer(ctx, next); err != nil {
		return core.PlayerBase{}, s.player, fmt.Errorf("persist player after establishment: %w", err)
	}
	s.player = next
	return base, next, nil
}

// UpgradeBase raises the player's base to the next level.
func (s *Service) UpgradeBase(ctx context.Context, cell core.Cell) (core.PlayerBase, core.PlayerState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	base, inv, err := s.bases.Upgrade(ctx, s.player.ID, cell, s.player.Resources, time.Now())
	if err != nil {
		return core.PlayerBase{}, s.player, err
	}

	next := s.player
	next.Resources = inv
	if err := s.store.PutPlayer(ctx, next); err != nil {
		return core.PlayerBase{}, s.player, fmt.Errorf("persist player after upgrade: %w", err)
	}
	s.player = next
	return base, next, nil
}

// SetHome remembers a home coordinate.
func (s *Service) SetHome(ctx context.Context, coord core.Coordinate) error {
	return s.home.SetHome(ctx, coord)
}

// SetHomeToCurrent remembers the player's current position as home.
func (s *Service) SetHomeToCurrent(ctx context.Context) (core.Coordinate, error) {
	s.mu.Lock()
	fix, err := s.currentFixLocked()
	s.mu.Unlock()
	if err != nil {
		return core.Coordinate{}, err
	}
	return fix.Coordinate, s.home.SetHome(ctx, fix.Coordinate)
}

// ReturnToHome snaps the player's last known position back to the home
// coordinate so the presentation can recenter. All state is locally
// trusted, so a teleport is legal here.
func (s *Service) ReturnToHome(ctx context.Context) (core.Coordinate, error) {
	home, ok := s.home.Home()
	if !ok {
		return core.Coordinate{}, ErrNoHome
	}
	s.HandlePositionUpdate(core.PositionFix{Coordinate: home, Time: time.Now()})
	return home, nil
}

// IsAwayFromHome reports whether the last known position is beyond the
// home threshold. No position or no home means not away.
func (s *Service) IsAwayFromHome() bool {
	s.mu.Lock()
	fix, err := s.currentFixLocked()
	s.mu.Unlock()
	if err != nil {
		return false
	}
	return s.home.IsAwayFromHome(fix.Coordinate)
}

// Territories returns the territory views around the player's current
// position, closest-first.
func (s *Service) Territories(ctx context.Context) ([]TerritoryView, error) {
	s.mu.Lock()
	fix, err := s.currentFixLocked()
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return s.ledger.Query(ctx, fix.Coordinate, s.opts.NeighborhoodRadius)
}

// SeedZones clears all zones and scatters a fresh batch across the
// player's current neighborhood.
func (s *Service) SeedZones(ctx context.Context) ([]core.ResourceZone, error) {
	s.mu.Lock()
	fix, err := s.currentFixLocked()
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	center, err := s.grid.CellFor(fix.Coordinate)
	if err != nil {
		return nil, err
	}
	candidates, err := s.grid.Neighborhood(center, s.opts.NeighborhoodRadius)
	if err != nil {
		return nil, err
	}
	return s.zones.Reseed(ctx, candidates, s.opts.ZoneCount)
}

// Tick is one simulation step: regenerate every zone, then run one base
// maintenance cycle, then flush buffered position history. Per-record
// failures are logged, never surfaced.
func (s *Service) Tick(ctx context.Context, now time.Time) {
	started := time.Now()

	regenerated, err := s.zones.RegenerateAll(ctx, now)
	if err != nil {
		s.log.Error("Zone regeneration pass failed", "error", err)
	}

	s.mu.Lock()
	inv, outcome, hadBase, err := s.bases.Maintain(ctx, s.player.ID, s.player.Resources, now)
	if err != nil {
		s.mu.Unlock()
		s.log.Error("Base maintenance failed", "error", err)
	} else {
		if hadBase && inv != s.player.Resources {
			next := s.player
			next.Resources = inv
			if err := s.store.PutPlayer(ctx, next); err != nil {
				s.log.Error("Failed to persist player after maintenance", "error", err)
			} else {
				s.player = next
			}
		}
		if hadBase && outcome == OutcomeDestroyed {
			s.player.BaseCell = ""
			if err := s.store.PutPlayer(ctx, s.player); err != nil {
				s.log.Error("Failed to clear destroyed base from player", "error", err)
			}
		}
		s.mu.Unlock()
	}

	flushed := s.fixes.Len()
	s.flushPositions(ctx)

	s.log.Debug("Simulation tick complete",
		"zonesRegenerated", regenerated,
		"maintenance", outcome,
		"duration", time.Since(started))

	if s.opts.OnTick != nil {
		s.opts.OnTick(time.Since(started), regenerated, flushed)
	}
}

// flushPositions writes buffered fixes to the history collection and
// trims it to the configured bound. Failures are logged and the fixes
// dropped; position history is best-effort.
func (s *Service) flushPositions(ctx context.Context) {
	fixes := s.fixes.Drain()
	if len(fixes) == 0 {
		return
	}

	s.mu.Lock()
	playerID := s.player.ID
	s.mu.Unlock()

	if err := s.store.AppendPositions(ctx, playerID, fixes); err != nil {
		s.noteStore(err)
		s.log.Error("Failed to flush position history", "count", len(fixes), "error", err)
		return
	}
	s.noteStore(nil)
	if err := s.store.TrimPositions(ctx, playerID, s.opts.PositionHistory); err != nil {
		s.log.Error("Failed to trim position history", "error", err)
	}
}

// Snapshot assembles the read-only view for the presentation layer.
func (s *Service) Snapshot(ctx context.Context) (Snapshot, error) {
	s.mu.Lock()
	player := s.player
	connected := s.connected
	s.mu.Unlock()

	snap := Snapshot{
		Player:    player,
		Connected: connected,
		Time:      time.Now(),
	}

	if player.LastKnownPosition != nil {
		coord := player.LastKnownPosition.Coordinate
		snap.AwayFromHome = s.home.IsAwayFromHome(coord)

		cell, err := s.grid.CellFor(coord)
		if err == nil {
			snap.CurrentCell = cell
			if view, err := s.ledger.View(ctx, cell); err == nil {
				snap.CurrentTerritory = &view
			}
			if zone, ok, err := s.zones.Zone(ctx, cell); err == nil && ok {
				snap.CurrentZone = &zone
			}
		}
	}

	if home, ok := s.home.Home(); ok {
		snap.Home = &home
	}

	// Stats and base reads are non-critical: a store failure reads as
	// zero, not as an error.
	if conquered, visited, err := s.ledger.Stats(ctx, player.ID); err == nil {
		snap.Conquered = conquered
		snap.Visited = visited
	}
	if base, ok, err := s.bases.Base(ctx, player.ID); err == nil && ok {
		snap.Base = &base
	}
	return snap, nil
}

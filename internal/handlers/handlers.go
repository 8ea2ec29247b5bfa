// Package handlers binds the engine's command surface to the
// dispatcher. Each handler decodes its JSON args, calls into the engine
// and returns the result for the gateway to serialize.
package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/terrahex/engine/internal/dispatcher"
	"github.com/terrahex/engine/internal/engine"
	"github.com/terrahex/engine/pkg/core"
	"github.com/terrahex/engine/pkg/streaming"
)

// commandTimeout bounds a single command against a slow store.
const commandTimeout = 10 * time.Second

// Dependencies holds the handler service's collaborators.
type Dependencies struct {
	Engine *engine.Service
	Logger *slog.Logger
}

// Service routes dispatched commands into the engine.
type Service struct {
	deps Dependencies
}

// NewService creates a handler service.
func NewService(deps Dependencies) *Service {
	return &Service{deps: deps}
}

// RegisterHandlers registers every engine command with the dispatcher.
// Mutating commands stay synchronous so the caller gets the real
// outcome; read-only queries are logged only.
func (s *Service) RegisterHandlers(d *dispatcher.Dispatcher) {
	d.Register(streaming.CmdConquer, s.handleConquer, dispatcher.Logged())
	d.Register(streaming.CmdCollect, s.handleCollect, dispatcher.Logged())
	d.Register(streaming.CmdEstablishBase, s.handleEstablishBase, dispatcher.Logged())
	d.Register(streaming.CmdUpgradeBase, s.handleUpgradeBase, dispatcher.Logged())
	d.Register(streaming.CmdSetHome, s.handleSetHome, dispatcher.Logged())
	d.Register(streaming.CmdReturnToHome, s.handleReturnToHome, dispatcher.Logged())
	d.Register(streaming.CmdRefreshPosition, s.handleRefreshPosition, dispatcher.Logged())
	d.Register(streaming.CmdSeedZones, s.handleSeedZones, dispatcher.Logged())
	d.Register(streaming.CmdSnapshot, s.handleSnapshot)
	d.Register(streaming.CmdTerritories, s.handleTerritories)
}

func commandContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), commandTimeout)
}

// ConquerResult is returned from a successful conquer command.
type ConquerResult struct {
	Territory core.TerritoryRecord `json:"territory"`
	Player    core.PlayerState     `json:"player"`
}

func (s *Service) handleConquer(e dispatcher.Event) (any, error) {
	ctx, cancel := commandContext()
	defer cancel()

	rec, player, err := s.deps.Engine.ConquerCurrentCell(ctx)
	if err != nil {
		return nil, err
	}
	return ConquerResult{Territory: rec, Player: player}, nil
}

// CollectResult is returned from a successful collect command.
type CollectResult struct {
	Zone      core.ResourceZone `json:"zone"`
	Collected int               `json:"collected"`
	Player    core.PlayerState  `json:"player"`
}

func (s *Service) handleCollect(e dispatcher.Event) (any, error) {
	var args streaming.CellArgs
	if err := json.Unmarshal(e.Payload, &args); err != nil {
		return nil, fmt.Errorf("decode collect args: %w", err)
	}
	if args.Cell == "" {
		return nil, fmt.Errorf("collect requires a cell")
	}

	ctx, cancel := commandContext()
	defer cancel()

	zone, collected, player, err := s.deps.Engine.Collect(ctx, args.Cell)
	if err != nil {
		return nil, err
	}
	return CollectResult{Zone: zone, Collected: collected, Player: player}, nil
}

// BaseResult is returned from establish and upgrade commands.
type BaseResult struct {
	Base   core.PlayerBase  `json:"base"`
	Player core.PlayerState `json:"player"`
}

func (s *Service) handleEstablishBase(e dispatcher.Event) (any, error) {
	var args streaming.CellArgs
	if err := json.Unmarshal(e.Payload, &args); err != nil {
		return nil, fmt.Errorf("decode establishBase args: %w", err)
	}
	if args.Cell == "" {
		return nil, fmt.Errorf("establishBase requires a cell")
	}

	ctx, cancel := commandContext()
	defer cancel()

	base, player, err := s.deps.Engine.EstablishBase(ctx, args.Cell)
	if err != nil {
		return nil, err
	}
	return BaseResult{Base: base, Player: player}, nil
}

func (s *Service) handleUpgradeBase(e dispatcher.Event) (any, error) {
	var args streaming.CellArgs
	if err := json.Unmarshal(e.Payload, &args); err != nil {
		return nil, fmt.Errorf("decode upgradeBase args: %w", err)
	}
	if args.Cell == "" {
		return nil, fmt.Errorf("upgradeBase requires a cell")
	}

	ctx, cancel := commandContext()
	defer cancel()

	base, player, err := s.deps.Engine.UpgradeBase(ctx, args.Cell)
	if err != nil {
		return nil, err
	}
	return BaseResult{Base: base, Player: player}, nil
}

func (s *Service) handleSetHome(e dispatcher.Event) (any, error) {
	var args streaming.CoordinateArgs
	if len(e.Payload) > 0 {
		if err := json.Unmarshal(e.Payload, &args); err != nil {
			return nil, fmt.Errorf("decode setHome args: %w", err)
		}
	}

	ctx, cancel := commandContext()
	defer cancel()

	if args.Coordinate == nil {
		home, err := s.deps.Engine.SetHomeToCurrent(ctx)
		if err != nil {
			return nil, err
		}
		return home, nil
	}
	if err := s.deps.Engine.SetHome(ctx, *args.Coordinate); err != nil {
		return nil, err
	}
	return *args.Coordinate, nil
}

func (s *Service) handleReturnToHome(e dispatcher.Event) (any, error) {
	ctx, cancel := commandContext()
	defer cancel()
	return s.deps.Engine.ReturnToHome(ctx)
}

func (s *Service) handleRefreshPosition(e dispatcher.Event) (any, error) {
	ctx, cancel := commandContext()
	defer cancel()
	return s.deps.Engine.RefreshPosition(ctx)
}

func (s *Service) handleSeedZones(e dispatcher.Event) (any, error) {
	ctx, cancel := commandContext()
	defer cancel()
	return s.deps.Engine.SeedZones(ctx)
}

func (s *Service) handleSnapshot(e dispatcher.Event) (any, error) {
	ctx, cancel := commandContext()
	defer cancel()
	return s.deps.Engine.Snapshot(ctx)
}

func (s *Service) handleTerritories(e dispatcher.Event) (any, error) {
	ctx, cancel := commandContext()
	defer cancel()
	return s.deps.Engine.Territories(ctx)
}

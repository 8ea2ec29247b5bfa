// internal/store/store.go
package store

import (
	"context"
	"errors"

	"github.com/terrahex/engine/pkg/core"
)

// ErrNotFound is returned when a requested record does not exist.
// Callers that synthesize defaults for absent records (territory, base)
// test for this error explicitly.
var ErrNotFound = errors.New("record not found")

// Backend is the interface all persistence implementations must satisfy.
// Operations are fallible and independently retryable; none of them
// blocks beyond its context.
type Backend interface {
	// Lifecycle
	Init() error
	Close() error

	// Player state, keyed by player ID.
	GetPlayer(ctx context.Context, id string) (core.PlayerState, error)
	PutPlayer(ctx context.Context, state core.PlayerState) error

	// Territories, keyed by cell.
	GetTerritory(ctx context.Context, cell core.Cell) (core.TerritoryRecord, error)
	PutTerritory(ctx context.Context, rec core.TerritoryRecord) error
	ListTerritories(ctx context.Context) ([]core.TerritoryRecord, error)
	CountConqueredBy(ctx context.Context, playerID string) (int, error)

	// Resource zones, keyed by cell, at most one per cell.
	GetZone(ctx context.Context, cell core.Cell) (core.ResourceZone, error)
	PutZone(ctx context.Context, zone core.ResourceZone) error
	ListZones(ctx context.Context) ([]core.ResourceZone, error)
	ClearZones(ctx context.Context) error

	// Player bases, keyed by the base's cell, with secondary lookup by
	// owner.
	GetBase(ctx context.Context, cell core.Cell) (core.PlayerBase, error)
	GetBaseByPlayer(ctx context.Context, playerID string) (core.PlayerBase, error)
	PutBase(ctx context.Context, base core.PlayerBase) error
	DeleteBase(ctx context.Context, cell core.Cell) error

	// Position history, bounded to the most recent N fixes per player.
	AppendPositions(ctx context.Context, playerID string, fixes []core.PositionFix) error
	RecentPositions(ctx context.Context, playerID string, limit int) ([]core.PositionFix, error)
	TrimPositions(ctx context.Context, playerID string, keep int) error

	// Settings, keyed by string (home base coordinate lives here).
	GetSetting(ctx context.Context, key string) (string, error)
	PutSetting(ctx context.Context, key, value string) error
	DeleteSetting(ctx context.Context, key string) error
}

// pkg/core/types.go
package core

import "time"

// Coordinate is a WGS84 geographic position.
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// PositionFix is a coordinate delivered by a position source.
type PositionFix struct {
	Coordinate
	Time time.Time `json:"time"`
	// AccuracyM is the reported horizontal accuracy in meters, nil when the
	// source does not provide one.
	AccuracyM *float64 `json:"accuracyM,omitempty"`
}

// Cell identifies one hexagon of the global tessellation. IDs are
// resolution-scoped: the same coordinate at two resolutions yields two
// different cells.
type Cell string

// ResourceKind enumerates the three harvestable resources.
type ResourceKind string

const (
	Wood  ResourceKind = "wood"
	Iron  ResourceKind = "iron"
	Stone ResourceKind = "stone"
)

// ResourceKinds lists all kinds in a stable order.
var ResourceKinds = []ResourceKind{Wood, Iron, Stone}

// TerritoryRecord is the conquest state of a single cell.
type TerritoryRecord struct {
	Cell            Cell         `json:"cell"`
	Conquered       bool         `json:"conquered"`
	ConqueredBy     string       `json:"conqueredBy,omitempty"`
	ConqueredAt     time.Time    `json:"conqueredAt,omitzero"`
	Center          Coordinate   `json:"center"`
	ConquestCost    ResourceCost `json:"conquestCost"`
	MaintenanceCost ResourceCost `json:"maintenanceCost"`
}

// ResourceZone is a harvestable deposit anchored to a cell. At most one
// zone exists per cell. Amount never exceeds twice the kind's base spawn
// amount.
type ResourceZone struct {
	Cell             Cell         `json:"cell"`
	Kind             ResourceKind `json:"kind"`
	Amount           int          `json:"amount"`
	RegenPerHour     int          `json:"regenPerHour"`
	LastRegeneration time.Time    `json:"lastRegeneration"`
}

// BaseLevel is the upgrade tier of a player base.
type BaseLevel int

const (
	BaseLevel1 BaseLevel = 1
	BaseLevel2 BaseLevel = 2

	// BaseMaxLevel is the highest tier a base can be upgraded to.
	BaseMaxLevel = BaseLevel2
)

// PlayerBase is the single structure a player may own, anchored to a
// conquered cell.
type PlayerBase struct {
	PlayerID        string            `json:"playerId"`
	Cell            Cell              `json:"cell"`
	Level           BaseLevel         `json:"level"`
	Health          int               `json:"health"`
	MaxHealth       int               `json:"maxHealth"`
	LastMaintenance time.Time         `json:"lastMaintenance"`
	Generation      ResourceInventory `json:"generation"`
	Maintenance     ResourceInventory `json:"maintenance"`
}

// PlayerState is the engine-owned record of one player.
type PlayerState struct {
	ID                string            `json:"id"`
	LastKnownPosition *PositionFix      `json:"lastKnownPosition,omitempty"`
	Health            int               `json:"health"`
	Score             int               `json:"score"`
	Level             int               `json:"level"`
	Resources         ResourceInventory `json:"resources"`
	// BaseCell is set iff the player has established a base.
	BaseCell Cell `json:"baseCell,omitempty"`
}

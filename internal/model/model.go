// internal/model/model.go
package model

import (
	"time"

	"gorm.io/datatypes"
)

////////////////////////
// DATABASE STRUCTURES //
////////////////////////

// DatabaseModels lists all structs exported here which represent tables
// in the database schema.
var DatabaseModels = []interface{}{
	&PlayerState{},
	&Territory{},
	&ResourceZone{},
	&PlayerBase{},
	&PositionFix{},
	&Setting{},
}

// PlayerState is the durable record of a player. Cost-shaped fields are
// stored as JSON columns so the schema survives balance-table changes.
type PlayerState struct {
	ID        string `gorm:"primarykey"`
	UpdatedAt time.Time
	Health    int
	Score     int
	Level     int
	Resources datatypes.JSON
	BaseCell  string

	LastLatitude  float64
	LastLongitude float64
	LastFixAt     time.Time
	LastAccuracyM *float64
}

// Territory is the conquest record of one cell.
type Territory struct {
	Cell            string `gorm:"primarykey"`
	Conquered       bool
	ConqueredBy     string `gorm:"index"`
	ConqueredAt     time.Time
	CenterLatitude  float64
	CenterLongitude float64
	ConquestCost    datatypes.JSON
	MaintenanceCost datatypes.JSON
}

// ResourceZone is a harvestable deposit anchored to one cell.
type ResourceZone struct {
	Cell             string `gorm:"primarykey"`
	Kind             string
	Amount           int
	RegenPerHour     int
	LastRegeneration time.Time
}

// PlayerBase is the single base a player owns, keyed by its cell.
type PlayerBase struct {
	Cell            string `gorm:"primarykey"`
	PlayerID        string `gorm:"index"`
	Level           int
	Health          int
	MaxHealth       int
	LastMaintenance time.Time
	Generation      datatypes.JSON
	Maintenance     datatypes.JSON
}

// PositionFix is one entry of the bounded position history.
type PositionFix struct {
	ID        uint   `gorm:"primarykey"`
	PlayerID  string `gorm:"index"`
	Latitude  float64
	Longitude float64
	Time      time.Time `gorm:"index"`
	AccuracyM *float64
}

// Setting is a single key/value pair (home base coordinate lives here).
type Setting struct {
	Key   string `gorm:"primarykey"`
	Value string
}

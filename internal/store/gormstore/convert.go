// internal/store/gormstore/convert.go
package gormstore

import (
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"

	"github.com/terrahex/engine/internal/model"
	"github.com/terrahex/engine/pkg/core"
)

// JSON column helpers. A corrupt column is an error, not a silent zero:
// cost tables feed debit operations and must never be guessed.

func toJSON(v any) (datatypes.JSON, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal json column: %w", err)
	}
	return datatypes.JSON(raw), nil
}

func fromJSON[T any](col datatypes.JSON) (T, error) {
	var out T
	if len(col) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(col, &out); err != nil {
		return out, fmt.Errorf("unmarshal json column: %w", err)
	}
	return out, nil
}

func playerToRow(state core.PlayerState) (model.PlayerState, error) {
	resources, err := toJSON(state.Resources)
	if err != nil {
		return model.PlayerState{}, err
	}
	row := model.PlayerState{
		ID:        state.ID,
		Health:    state.Health,
		Score:     state.Score,
		Level:     state.Level,
		Resources: resources,
		BaseCell:  string(state.BaseCell),
	}
	if fix := state.LastKnownPosition; fix != nil {
		row.LastLatitude = fix.Latitude
		row.LastLongitude = fix.Longitude
		row.LastFixAt = fix.Time
		row.LastAccuracyM = fix.AccuracyM
	}
	return row, nil
}

func playerFromRow(row model.PlayerState) (core.PlayerState, error) {
	resources, err := fromJSON[core.ResourceInventory](row.Resources)
	if err != nil {
		return core.PlayerState{}, err
	}
	state := core.PlayerState{
		ID:        row.ID,
		Health:    row.Health,
		Score:     row.Score,
		Level:     row.Level,
		Resources: resources,
		BaseCell:  core.Cell(row.BaseCell),
	}
	if !row.LastFixAt.IsZero() {
		state.LastKnownPosition = &core.PositionFix{
			Coordinate: core.Coordinate{Latitude: row.LastLatitude, Longitude: row.LastLongitude},
			Time:       row.LastFixAt,
			AccuracyM:  row.LastAccuracyM,
		}
	}
	return state, nil
}

func territoryToRow(rec core.TerritoryRecord) (model.Territory, error) {
	conquestCost, err := toJSON(rec.ConquestCost)
	if err != nil {
		return model.Territory{}, err
	}
	maintenanceCost, err := toJSON(rec.MaintenanceCost)
	if err != nil {
		return model.Territory{}, err
	}
	return model.Territory{
		Cell:            string(rec.Cell),
		Conquered:       rec.Conquered,
		ConqueredBy:     rec.ConqueredBy,
		ConqueredAt:     rec.ConqueredAt,
		CenterLatitude:  rec.Center.Latitude,
		CenterLongitude: rec.Center.Longitude,
		ConquestCost:    conquestCost,
		MaintenanceCost: maintenanceCost,
	}, nil
}

func territoryFromRow(row model.Territory) (core.TerritoryRecord, error) {
	conquestCost, err := fromJSON[core.ResourceCost](row.ConquestCost)
	if err != nil {
		return core.TerritoryRecord{}, err
	}
	maintenanceCost, err := fromJSON[core.ResourceCost](row.MaintenanceCost)
	if err != nil {
		return core.TerritoryRecord{}, err
	}
	return core.TerritoryRecord{
		Cell:            core.Cell(row.Cell),
		Conquered:       row.Conquered,
		ConqueredBy:     row.ConqueredBy,
		ConqueredAt:     row.ConqueredAt,
		Center:          core.Coordinate{Latitude: row.CenterLatitude, Longitude: row.CenterLongitude},
		ConquestCost:    conquestCost,
		MaintenanceCost: maintenanceCost,
	}, nil
}

func zoneToRow(zone core.ResourceZone) model.ResourceZone {
	return model.ResourceZone{
		Cell:             string(zone.Cell),
		Kind:             string(zone.Kind),
		Amount:           zone.Amount,
		RegenPerHour:     zone.RegenPerHour,
		LastRegeneration: zone.LastRegeneration,
	}
}

func zoneFromRow(row model.ResourceZone) core.ResourceZone {
	return core.ResourceZone{
		Cell:             core.Cell(row.Cell),
		Kind:             core.ResourceKind(row.Kind),
		Amount:           row.Amount,
		RegenPerHour:     row.RegenPerHour,
		LastRegeneration: row.LastRegeneration,
	}
}

func baseToRow(base core.PlayerBase) (model.PlayerBase, error) {
	generation, err := toJSON(base.Generation)
	if err != nil {
		return model.PlayerBase{}, err
	}
	maintenance, err := toJSON(base.Maintenance)
	if err != nil {
		return model.PlayerBase{}, err
	}
	return model.PlayerBase{
		Cell:            string(base.Cell),
		PlayerID:        base.PlayerID,
		Level:           int(base.Level),
		Health:          base.Health,
		MaxHealth:       base.MaxHealth,
		LastMaintenance: base.LastMaintenance,
		Generation:      generation,
		Maintenance:     maintenance,
	}, nil
}

func baseFromRow(row model.PlayerBase) (core.PlayerBase, error) {
	generation, err := fromJSON[core.ResourceInventory](row.Generation)
	if err != nil {
		return core.PlayerBase{}, err
	}
	maintenance, err := fromJSON[core.ResourceInventory](row.Maintenance)
	if err != nil {
		return core.PlayerBase{}, err
	}
	return core.PlayerBase{
		Cell:            core.Cell(row.Cell),
		PlayerID:        row.PlayerID,
		Level:           core.BaseLevel(row.Level),
		Health:          row.Health,
		MaxHealth:       row.MaxHealth,
		LastMaintenance: row.LastMaintenance,
		Generation:      generation,
		Maintenance:     maintenance,
	}, nil
}

func fixToRow(playerID string, fix core.PositionFix) model.PositionFix {
	return model.PositionFix{
		PlayerID:  playerID,
		Latitude:  fix.Latitude,
		Longitude: fix.Longitude,
		Time:      fix.Time,
		AccuracyM: fix.AccuracyM,
	}
}

func fixFromRow(row model.PositionFix) core.PositionFix {
	return core.PositionFix{
		Coordinate: core.Coordinate{Latitude: row.Latitude, Longitude: row.Longitude},
		Time:       row.Time,
		AccuracyM:  row.AccuracyM,
	}
}

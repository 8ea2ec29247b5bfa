// internal/store/gormstore/gormstore.go

// Package gormstore implements the store.Backend interface on top of a
// GORM database handle. The handle is injected by the caller (see
// internal/database for connection management); this package never opens
// connections itself.
package gormstore

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/terrahex/engine/internal/model"
	"github.com/terrahex/engine/internal/store"
	"github.com/terrahex/engine/pkg/core"
)

// Backend persists engine state through GORM.
type Backend struct {
	db *gorm.DB
}

// New creates a new GORM-backed store around an open database handle.
func New(db *gorm.DB) *Backend {
	return &Backend{db: db}
}

// Init migrates the schema.
func (b *Backend) Init() error {
	if err := b.db.AutoMigrate(model.DatabaseModels...); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}
	return nil
}

// Close closes the underlying connection.
func (b *Backend) Close() error {
	sqlDB, err := b.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return store.ErrNotFound
	}
	return err
}

// GetPlayer returns a player record by ID.
func (b *Backend) GetPlayer(ctx context.Context, id string) (core.PlayerState, error) {
	var row model.PlayerState
	if err := b.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return core.PlayerState{}, translate(err)
	}
	return playerFromRow(row)
}

// PutPlayer upserts a player record.
func (b *Backend) PutPlayer(ctx context.Context, state core.PlayerState) error {
	row, err := playerToRow(state)
	if err != nil {
		return err
	}
	return b.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&row).Error
}

// GetTerritory returns the conquest record for a cell.
func (b *Backend) GetTerritory(ctx context.Context, cell core.Cell) (core.TerritoryRecord, error) {
	var row model.Territory
	if err := b.db.WithContext(ctx).First(&row, "cell = ?", string(cell)).Error; err != nil {
		return core.TerritoryRecord{}, translate(err)
	}
	return territoryFromRow(row)
}

// PutTerritory upserts a conquest record.
func (b *Backend) PutTerritory(ctx context.Context, rec core.TerritoryRecord) error {
	row, err := territoryToRow(rec)
	if err != nil {
		return err
	}
	return b.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&row).Error
}

// ListTerritories returns all stored territory records.
func (b *Backend) ListTerritories(ctx context.Context) ([]core.TerritoryRecord, error) {
	var rows []model.Territory
	if err := b.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]core.TerritoryRecord, 0, len(rows))
	for _, row := range rows {
		rec, err := territoryFromRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// CountConqueredBy counts territories conquered by the given player.
func (b *Backend) CountConqueredBy(ctx context.Context, playerID string) (int, error) {
	var n int64
	err := b.db.WithContext(ctx).
		Model(&model.Territory{}).
		Where("conquered = ? AND conquered_by = ?", true, playerID).
		Count(&n).Error
	return int(n), err
}

// GetZone returns the resource zone on a cell.
func (b *Backend) GetZone(ctx context.Context, cell core.Cell) (core.ResourceZone, error) {
	var row model.ResourceZone
	if err := b.db.WithContext(ctx).First(&row, "cell = ?", string(cell)).Error; err != nil {
		return core.ResourceZone{}, translate(err)
	}
	return zoneFromRow(row), nil
}

// PutZone upserts a resource zone.
func (b *Backend) PutZone(ctx context.Context, zone core.ResourceZone) error {
	row := zoneToRow(zone)
	return b.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&row).Error
}

// ListZones returns all stored zones.
func (b *Backend) ListZones(ctx context.Context) ([]core.ResourceZone, error) {
	var rows []model.ResourceZone
	if err := b.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]core.ResourceZone, 0, len(rows))
	for _, row := range rows {
		out = append(out, zoneFromRow(row))
	}
	return out, nil
}

// ClearZones removes every zone record.
func (b *Backend) ClearZones(ctx context.Context) error {
	return b.db.WithContext(ctx).
		Session(&gorm.Session{AllowGlobalUpdate: true}).
		Delete(&model.ResourceZone{}).Error
}

// GetBase returns the base on a cell.
func (b *Backend) GetBase(ctx context.Context, cell core.Cell) (core.PlayerBase, error) {
	var row model.PlayerBase
	if err := b.db.WithContext(ctx).First(&row, "cell = ?", string(cell)).Error; err != nil {
		return core.PlayerBase{}, translate(err)
	}
	return baseFromRow(row)
}

// GetBaseByPlayer returns the base owned by a player.
func (b *Backend) GetBaseByPlayer(ctx context.Context, playerID string) (core.PlayerBase, error) {
	var row model.PlayerBase
	if err := b.db.WithContext(ctx).First(&row, "player_id = ?", playerID).Error; err != nil {
		return core.PlayerBase{}, translate(err)
	}
	return baseFromRow(row)
}

// PutBase upserts a base record.
func (b *Backend) PutBase(ctx context.Context, base core.PlayerBase) error {
	row, err := baseToRow(base)
	if err != nil {
		return err
	}
	return b.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&row).Error
}

// DeleteBase removes the base on a cell.
func (b *Backend) DeleteBase(ctx context.Context, cell core.Cell) error {
	return b.db.WithContext(ctx).
		Delete(&model.PlayerBase{}, "cell = ?", string(cell)).Error
}

// AppendPositions batch-inserts position fixes.
func (b *Backend) AppendPositions(ctx context.Context, playerID string, fixes []core.PositionFix) error {
	if len(fixes) == 0 {
		return nil
	}
	rows := make([]model.PositionFix, 0, len(fixes))
	for _, fix := range fixes {
		rows = append(rows, fixToRow(playerID, fix))
	}
	return b.db.WithContext(ctx).Create(&rows).Error
}

// RecentPositions returns up to limit fixes, most recent first.
func (b *Backend) RecentPositions(ctx context.Context, playerID string, limit int) ([]core.PositionFix, error) {
	q := b.db.WithContext(ctx).
		Where("player_id = ?", playerID).
		Order("time DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var rows []model.PositionFix
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]core.PositionFix, 0, len(rows))
	for _, row := range rows {
		out = append(out, fixFromRow(row))
	}
	return out, nil
}

// TrimPositions drops all but the most recent keep fixes for a player.
func (b *Backend) TrimPositions(ctx context.Context, playerID string, keep int) error {
	if keep < 0 {
		return nil
	}
	sub := b.db.Model(&model.PositionFix{}).
		Select("id").
		Where("player_id = ?", playerID).
		Order("time DESC").
		Limit(keep)
	return b.db.WithContext(ctx).
		Where("player_id = ? AND id NOT IN (?)", playerID, sub).
		Delete(&model.PositionFix{}).Error
}

// GetSetting returns a settings value by key.
func (b *Backend) GetSetting(ctx context.Context, key string) (string, error) {
	var row model.Setting
	if err := b.db.WithContext(ctx).First(&row, "key = ?", key).Error; err != nil {
		return "", translate(err)
	}
	return row.Value, nil
}

// PutSetting upserts a settings value.
func (b *Backend) PutSetting(ctx context.Context, key, value string) error {
	row := model.Setting{Key: key, Value: value}
	return b.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&row).Error
}

// DeleteSetting removes a settings key.
func (b *Backend) DeleteSetting(ctx context.Context, key string) error {
	return b.db.WithContext(ctx).
		Delete(&model.Setting{}, "key = ?", key).Error
}

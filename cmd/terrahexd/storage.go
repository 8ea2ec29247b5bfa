package main

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/terrahex/engine/internal/config"
	"github.com/terrahex/engine/internal/database"
	"github.com/terrahex/engine/internal/store"
	"github.com/terrahex/engine/internal/store/gormstore"
	"github.com/terrahex/engine/internal/store/memory"
)

// createStorageBackend builds the persistence backend named by the
// config. "postgres" tries the shared database first and falls back to
// the local SQLite file; "sqlite" goes straight to the file; anything
// else runs in memory.
func createStorageBackend(storageCfg config.StorageConfig, zlog zerolog.Logger) (store.Backend, error) {
	switch storageCfg.Type {
	case "postgres":
		manager := database.NewManager(zlog, storageCfg.SQLite.Path)
		if err := manager.Connect(); err != nil {
			return nil, fmt.Errorf("connect database: %w", err)
		}
		return gormstore.New(manager.DB), nil

	case "sqlite":
		manager := database.NewManager(zlog, storageCfg.SQLite.Path)
		db, err := manager.GetSqliteDB(storageCfg.SQLite.Path)
		if err != nil {
			return nil, fmt.Errorf("open sqlite at %s: %w", storageCfg.SQLite.Path, err)
		}
		return gormstore.New(db), nil

	case "memory":
		return memory.New(), nil

	default:
		return nil, fmt.Errorf("unknown storage type %q", storageCfg.Type)
	}
}

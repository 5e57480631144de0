package main

import (
	"context"

	"github.com/spf13/viper"

	"github.com/fundmatch/lendmatch/internal/common"
	"github.com/fundmatch/lendmatch/internal/config"
	"github.com/fundmatch/lendmatch/internal/storage"
)

// initStorage opens the database with proper path expansion and runs
// pending migrations.
func initStorage(ctx context.Context) (*storage.SQLiteStorage, error) {
	dbPath := viper.GetString("database.path")
	if dbPath == "" {
		dbPath = config.DefaultDBPath()
	}
	dbPath = config.ExpandPath(dbPath)

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, common.NewUserError("failed to open database at "+dbPath, err)
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, common.NewUserError("failed to run migrations", err)
	}

	return store, nil
}

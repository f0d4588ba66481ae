// Package backend opens the storage.Store selected by the configuration.
package backend

import (
	"context"
	"fmt"

	"todo/internal/backend/file"
	"todo/internal/backend/googletasks"
	"todo/internal/backend/sqlkv"
	"todo/internal/config"
	"todo/internal/storage"
)

// Open returns the configured backend. The caller must Close it.
func Open(ctx context.Context, cfg *config.Config) (storage.Store, error) {
	var (
		s   storage.Store
		err error
	)
	switch name := cfg.BackendName(); name {
	case config.BackendFile:
		s, err = asStore(file.New(cfg.DataPath()))
	case config.BackendSQLite:
		s, err = asStore(sqlkv.OpenSQLite(ctx, cfg.SQLitePath()))
	case config.BackendMySQL:
		s, err = asStore(sqlkv.OpenMySQL(ctx, cfg.MySQL.DSN))
	case config.BackendGoogleTasks:
		s, err = asStore(googletasks.New(ctx, cfg))
	default:
		return nil, fmt.Errorf("unknown backend: %s", name)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s backend: %w", cfg.BackendName(), err)
	}
	return s, nil
}

// asStore keeps a nil concrete pointer from becoming a non-nil interface.
func asStore[T storage.Store](s T, err error) (storage.Store, error) {
	if err != nil {
		return nil, err
	}
	return s, nil
}

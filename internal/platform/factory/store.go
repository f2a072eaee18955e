// Package factory wires configuration to concrete adapters.
package factory

import (
	"context"
	"fmt"

	"github.com/tabvault/tabvault/server/internal/config"
	"github.com/tabvault/tabvault/server/internal/store"
	"github.com/tabvault/tabvault/server/internal/store/postgres"
	"github.com/tabvault/tabvault/server/internal/store/sqlite"
)

// NewStore selects the storage adapter based on cfg.DBDriver.
func NewStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	switch cfg.DBDriver {
	case "sqlite":
		db, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return sqlite.New(db), nil
	case "postgres":
		db, err := postgres.Open(cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		if err := postgres.EnsureSchema(ctx, db); err != nil {
			return nil, err
		}
		return postgres.New(db), nil
	default:
		return nil, fmt.Errorf("unknown DB_DRIVER: %s", cfg.DBDriver)
	}
}

package core

import (
	"context"
	"fmt"
	"log/slog"

	"contactbook/internal/infra/persistence/memory"
	"contactbook/internal/infra/persistence/postgres"
	"contactbook/internal/infra/persistence/sqlite"
	"contactbook/pkg/domain"
)

// StorageDriver identifies a concrete persistent storage implementation.
type StorageDriver string

const (
	StorageMemory   StorageDriver = "memory"   // in-memory only (tests / ephemeral)
	StorageSQLite   StorageDriver = "sqlite"   // embedded sqlite file
	StoragePostgres StorageDriver = "postgres" // PostgreSQL server
)

// StorageConfig selects and parameterises a backend.
type StorageConfig struct {
	Driver      StorageDriver
	SQLitePath  string
	PostgresDSN string
	// InitScript overrides the bundled schema script when set.
	InitScript string
}

// Valid reports whether d names a known backend. The empty driver is valid
// and means sqlite.
func (d StorageDriver) Valid() bool {
	switch d {
	case "", StorageMemory, StorageSQLite, StoragePostgres:
		return true
	}
	return false
}

// OpenPersistentStore opens the backend named by cfg.Driver, defaulting to
// sqlite at database/contacts.db. The caller owns the returned store and
// must Close it.
func OpenPersistentStore(ctx context.Context, cfg StorageConfig, logger *slog.Logger) (domain.ClosableStore, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	driver := cfg.Driver
	if driver == "" {
		driver = StorageSQLite
	}
	switch driver {
	case StorageMemory:
		return memory.NewStore(), nil
	case StorageSQLite:
		store, err := sqlite.Open(ctx, cfg.SQLitePath,
			sqlite.WithInitScript(cfg.InitScript),
			sqlite.WithLogger(logger),
		)
		if err != nil {
			return nil, err
		}
		return store, nil
	case StoragePostgres:
		store, err := postgres.NewStore(ctx, cfg.PostgresDSN,
			postgres.WithInitScript(cfg.InitScript),
			postgres.WithLogger(logger),
		)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %s", driver)
	}
}

package storage

import (
	"fmt"
	"log/slog"
)

const (
	SQLiteBackend   BackendType = "sqlite"
	PostgresBackend BackendType = "postgres"
)

type BackendType string

func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, PostgresBackend:
		return true
	default:
		return false
	}
}

// Config selects and parameterizes a backing store.
type Config struct {
	Backend      BackendType
	SQLiteDBPath string
	PostgresURL  string
}

// Open creates the configured store. Callers hold only the Store contract, so
// the two backends stay interchangeable.
func Open(cfg Config) (Store, error) {
	switch cfg.Backend {
	case SQLiteBackend:
		store, err := OpenSQLite(cfg.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("initialize sqlite store: %w", err)
		}
		slog.Info("Initialized sqlite store", "db_path", cfg.SQLiteDBPath)
		return store, nil
	case PostgresBackend:
		store, err := OpenPostgres(cfg.PostgresURL)
		if err != nil {
			return nil, fmt.Errorf("initialize postgres store: %w", err)
		}
		slog.Info("Initialized postgres store")
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", cfg.Backend)
	}
}

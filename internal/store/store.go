// Package store persists the reference tables so the CLI and API can start
// without re-parsing the source exports. Imports replace the whole data set;
// the engines only ever read.
package store

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/distancia360/agroanalytics/internal/refdata"
)

// ImportRun records one completed import.
type ImportRun struct {
	ID         string         `json:"id" yaml:"id"`
	Source     string         `json:"source" yaml:"source"`
	Rows       map[string]int `json:"rows" yaml:"rows"`
	ImportedAt time.Time      `json:"imported_at" yaml:"imported_at"`
}

// Store is the reference store.
type Store interface {
	// ImportTables replaces every reference table with t in one transaction
	// and records the import.
	ImportTables(ctx context.Context, source string, t *refdata.Tables) (*ImportRun, error)
	// LoadTables reads every reference table back in source order.
	LoadTables(ctx context.Context) (*refdata.Tables, error)
	// LastImport returns the most recent import, or nil when the store is empty.
	LastImport(ctx context.Context) (*ImportRun, error)

	Ping(ctx context.Context) error
	Migrate(ctx context.Context) error
	Close() error
}

// Open creates a store for driver "sqlite" or "postgres". poolCfg only
// applies to postgres and may be nil.
func Open(ctx context.Context, driver, dsn string, poolCfg *PoolConfig) (Store, error) {
	switch strings.ToLower(driver) {
	case "sqlite", "":
		return NewSQLite(dsn)
	case "postgres", "postgresql", "pgx":
		return NewPostgres(ctx, dsn, poolCfg)
	default:
		return nil, eris.Errorf("store: unsupported driver %q", driver)
	}
}

// Package sqlite provides an embedded SQLite dialect. It needs no network
// and no credentials, which also makes it the engine of choice for exercising
// the connection layer in tests.
package sqlite

import (
	"database/sql"
	"fmt"

	"github.com/pharos-labs/pharosdb/pkg/core"
	"github.com/pharos-labs/pharosdb/pkg/dialect"
	_ "modernc.org/sqlite" // pure-Go sqlite driver
)

func init() {
	dialect.Register(New(), "sqlite3")
}

// New returns the SQLite dialect descriptor.
func New() *dialect.Dialect {
	return &dialect.Dialect{
		Name:     "sqlite",
		Open:     open,
		ProbeSQL: "SELECT 1",
		Classify: classify,
		Placeholder: func(_ int) string {
			return "?"
		},
	}
}

func open(cfg core.ConnectionConfig) (*sql.DB, error) {
	dsn := cfg.Database
	if dsn == "" {
		dsn = ":memory:"
	}
	if cfg.ReadOnly && dsn != ":memory:" {
		// Query parameters require the URI form.
		dsn = "file:" + dsn + "?mode=ro"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// A single session keeps :memory: databases stable across statements.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	return db, nil
}

// classify never reports a connection error: an embedded engine has no
// transport to drop, so a retry could only repeat the same failure.
func classify(_ error) dialect.ErrorKind {
	return dialect.ErrorKindOther
}

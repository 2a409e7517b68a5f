// Package postgres provides the PostgreSQL dialect, backed by the pgx
// driver's database/sql shim.
package postgres

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib" // pgx database/sql driver
	"github.com/pharos-labs/pharosdb/pkg/core"
	"github.com/pharos-labs/pharosdb/pkg/dialect"
)

func init() {
	dialect.Register(New(), "postgres")
}

// New returns the PostgreSQL dialect descriptor.
func New() *dialect.Dialect {
	return &dialect.Dialect{
		Name:     "postgresql",
		Open:     open,
		ProbeSQL: "SELECT 1",
		Classify: classify,
		Placeholder: func(n int) string {
			return fmt.Sprintf("$%d", n)
		},
	}
}

func open(cfg core.ConnectionConfig) (*sql.DB, error) {
	db, err := sql.Open("pgx", BuildDSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres connection: %w", err)
	}
	// One underlying session per logical connection; the connection layer
	// serializes use and owns the liveness probe.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	return db, nil
}

// BuildDSN constructs a key=value PostgreSQL connection string.
func BuildDSN(cfg core.ConnectionConfig) string {
	host := cfg.Host
	if host == "" {
		host = "localhost"
	}
	port := cfg.Port
	if port == 0 {
		port = 5432
	}
	sslmode := "prefer"
	if mode, ok := cfg.Options["sslmode"]; ok {
		sslmode = mode
	}

	dsn := fmt.Sprintf("host=%s port=%d dbname=%s sslmode=%s connect_timeout=%d",
		host, port, cfg.Database, sslmode, int(cfg.Timeout().Seconds()))

	if cfg.User != "" {
		dsn += fmt.Sprintf(" user=%s", cfg.User)
	}
	if cfg.Password != "" {
		dsn += fmt.Sprintf(" password=%s", cfg.Password)
	}
	return dsn
}

// classify treats transport failures and the server-side connection
// exception classes as reconnect-worthy; everything else is a query error.
func classify(err error) dialect.ErrorKind {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// Class 08: connection exception. 57P01..57P03: the server is
		// shutting down or refusing the session.
		if strings.HasPrefix(pgErr.Code, "08") || strings.HasPrefix(pgErr.Code, "57P") {
			return dialect.ErrorKindConnection
		}
		return dialect.ErrorKindOther
	}
	if pgconn.Timeout(err) {
		return dialect.ErrorKindConnection
	}
	return dialect.ClassifyTransport(err)
}

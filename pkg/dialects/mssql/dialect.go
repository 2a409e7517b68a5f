// Package mssql provides the SQL Server dialect, backed by the Microsoft
// go-mssqldb driver.
package mssql

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	mssqldb "github.com/microsoft/go-mssqldb"
	"github.com/pharos-labs/pharosdb/pkg/core"
	"github.com/pharos-labs/pharosdb/pkg/dialect"
)

func init() {
	dialect.Register(New(), "sqlserver")
}

// New returns the SQL Server dialect descriptor.
func New() *dialect.Dialect {
	return &dialect.Dialect{
		Name:     "mssql",
		Open:     open,
		ProbeSQL: "SELECT 1",
		Classify: classify,
		Placeholder: func(n int) string {
			return fmt.Sprintf("@p%d", n)
		},
	}
}

func open(cfg core.ConnectionConfig) (*sql.DB, error) {
	db, err := sql.Open("sqlserver", BuildDSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlserver connection: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	return db, nil
}

// BuildDSN constructs an ADO-style SQL Server connection string. Gateway
// databases commonly sit behind named instances, so Server is taken verbatim
// (host or host\instance) and the port is only appended when set.
func BuildDSN(cfg core.ConnectionConfig) string {
	var b strings.Builder
	fmt.Fprintf(&b, "server=%s", cfg.Server)
	if cfg.Port > 0 {
		fmt.Fprintf(&b, ";port=%d", cfg.Port)
	}
	fmt.Fprintf(&b, ";database=%s;user id=%s;password=%s",
		cfg.Database, cfg.User, cfg.Password)
	fmt.Fprintf(&b, ";dial timeout=%d;connection timeout=%d",
		int(cfg.Timeout().Seconds()), int(cfg.Timeout().Seconds()))
	if encrypt, ok := cfg.Options["encrypt"]; ok {
		fmt.Fprintf(&b, ";encrypt=%s", encrypt)
	}
	if trust, ok := cfg.Options["trustservercertificate"]; ok {
		fmt.Fprintf(&b, ";trustservercertificate=%s", trust)
	}
	return b.String()
}

// classify marks driver transport failures as reconnect-worthy. Server
// errors carrying a T-SQL error number (syntax, permission, constraint) are
// query errors even when the session subsequently dies.
func classify(err error) dialect.ErrorKind {
	var srvErr mssqldb.Error
	if errors.As(err, &srvErr) {
		return dialect.ErrorKindOther
	}
	return dialect.ClassifyTransport(err)
}

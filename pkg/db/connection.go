// Package db manages database connection lifecycle: lazy connect, liveness
// probing before reuse, and bounded reconnect-and-retry around query
// execution. A Registry maps logical database names to at most one
// Connection each.
package db

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"sync"

	"github.com/pharos-labs/pharosdb/pkg/core"
	"github.com/pharos-labs/pharosdb/pkg/dialect"
)

// DefaultMaxRetries is the number of reconnect-and-retry attempts made after
// a dialect-classified connection error, on top of the initial attempt.
const DefaultMaxRetries = 2

// Connection owns one named logical database. The underlying handle is
// opened lazily, probed for liveness before reuse, and reopened when the
// dialect classifies a failure as a connection error.
//
// All lifecycle and execution methods are serialized by an internal mutex:
// at most one query is in flight per Connection.
type Connection struct {
	name    string
	cfg     core.ConnectionConfig
	dialect *dialect.Dialect
	logger  *slog.Logger

	mu sync.Mutex
	db *sql.DB
}

// NewConnection resolves the configured engine type to a dialect and returns
// an unconnected Connection. If logger is nil, a discard logger is used.
func NewConnection(name string, cfg core.ConnectionConfig, logger *slog.Logger) (*Connection, error) {
	d, err := dialect.Get(cfg.Type)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Connection{
		name:    name,
		cfg:     cfg,
		dialect: d,
		logger:  logger.With(slog.String("database", name)),
	}, nil
}

// Name returns the logical database name.
func (c *Connection) Name() string { return c.name }

// Config returns the connection configuration.
func (c *Connection) Config() core.ConnectionConfig { return c.cfg }

// Dialect returns the engine dialect backing this connection.
func (c *Connection) Dialect() *dialect.Dialect { return c.dialect }

// Connected reports whether a handle is currently open.
func (c *Connection) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.db != nil
}

// Connect ensures a live handle: it opens one if absent, and when a handle
// already exists it runs the liveness probe first, reopening on failure.
func (c *Connection) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connectLocked(ctx, false)
}

// Reconnect unconditionally discards any existing handle and opens a fresh
// one.
func (c *Connection) Reconnect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connectLocked(ctx, true)
}

// Disconnect closes the handle. Close errors are logged and discarded: the
// handle is being abandoned either way.
func (c *Connection) Disconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.disconnectLocked()
}

func (c *Connection) connectLocked(ctx context.Context, force bool) error {
	if force && c.db != nil {
		c.disconnectLocked()
	}

	if c.db != nil && !c.aliveLocked(ctx) {
		c.logger.Warn("connection is dead, reconnecting")
		c.disconnectLocked()
	}

	if c.db == nil {
		c.logger.Info("connecting to database",
			slog.String("type", c.dialect.Name),
			slog.String("name", c.cfg.Database))
		db, err := c.dialect.Open(c.cfg)
		if err != nil {
			return err
		}
		c.db = db
	}
	return nil
}

// aliveLocked runs the dialect's liveness probe against the current handle.
func (c *Connection) aliveLocked(ctx context.Context) bool {
	var probe any
	err := c.db.QueryRowContext(ctx, c.dialect.ProbeSQL).Scan(&probe)
	return err == nil
}

func (c *Connection) disconnectLocked() {
	if c.db == nil {
		return
	}
	if err := c.db.Close(); err != nil {
		c.logger.Warn("error closing connection", slog.String("error", err.Error()))
	}
	c.db = nil
}

// ExecuteQuery runs a query and collects rows incrementally, stopping the
// moment maxRows is reached. maxRows <= 0 falls back to the configured
// per-database cap.
//
// When the dialect classifies a failure as a connection error, the handle is
// discarded and the query retried, up to maxRetries extra attempts with no
// delay; the final attempt's error is returned unchanged. Any other error
// returns immediately, never retried. maxRetries < 0 is treated as 0: a
// single attempt with no reconnect step.
func (c *Connection) ExecuteQuery(ctx context.Context, query string, params []any, maxRows, maxRetries int) ([]core.Row, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if maxRows <= 0 {
		maxRows = c.cfg.MaxRows()
	}
	if maxRetries < 0 {
		maxRetries = 0
	}

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		rows, err := c.queryLocked(ctx, query, params, maxRows)
		if err == nil {
			return rows, nil
		}
		if c.dialect.Classify(err) != dialect.ErrorKindConnection {
			return nil, err
		}
		lastErr = err
		if attempt < maxRetries {
			c.logger.Warn("query failed, reconnecting",
				slog.Int("attempt", attempt+1),
				slog.String("error", err.Error()))
			c.disconnectLocked()
		}
	}
	return nil, lastErr
}

// ExecuteScalar runs a query and returns the first column of the first row,
// or null when the result set is empty. Same retry discipline as
// ExecuteQuery.
func (c *Connection) ExecuteScalar(ctx context.Context, query string, params []any, maxRetries int) (core.Value, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if maxRetries < 0 {
		maxRetries = 0
	}

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		val, err := c.scalarLocked(ctx, query, params)
		if err == nil {
			return val, nil
		}
		if c.dialect.Classify(err) != dialect.ErrorKindConnection {
			return core.Null(), err
		}
		lastErr = err
		if attempt < maxRetries {
			c.logger.Warn("scalar query failed, reconnecting",
				slog.Int("attempt", attempt+1),
				slog.String("error", err.Error()))
			c.disconnectLocked()
		}
	}
	return core.Null(), lastErr
}

func (c *Connection) queryLocked(ctx context.Context, query string, params []any, maxRows int) ([]core.Row, error) {
	if err := c.connectLocked(ctx, false); err != nil {
		return nil, err
	}

	rows, err := c.db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	results := make([]core.Row, 0)
	scratch := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range scratch {
		ptrs[i] = &scratch[i]
	}

	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		values := make([]core.Value, len(cols))
		for i := range scratch {
			values[i] = core.FromDriver(scratch[i])
		}
		results = append(results, core.NewRow(cols, values))
		if len(results) >= maxRows {
			// Cap reached: stop fetching, do not drain the cursor.
			return results, nil
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

func (c *Connection) scalarLocked(ctx context.Context, query string, params []any) (core.Value, error) {
	if err := c.connectLocked(ctx, false); err != nil {
		return core.Null(), err
	}

	var raw any
	err := c.db.QueryRowContext(ctx, query, params...).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Null(), nil
	}
	if err != nil {
		return core.Null(), err
	}
	return core.FromDriver(raw), nil
}

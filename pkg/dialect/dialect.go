// Package dialect provides the per-engine database contract and its registry.
//
// A Dialect bundles everything engine-specific the connection layer needs:
// how to open a handle, the liveness-probe statement, parameter placeholder
// style, and how to classify errors into reconnect-worthy versus not.
// Concrete dialects live in pkg/dialects/ subdirectories and register
// themselves in their init() functions.
package dialect

import (
	"database/sql"
	"database/sql/driver"
	"errors"
	"io"
	"net"
	"syscall"

	"github.com/pharos-labs/pharosdb/pkg/core"
)

// ErrorKind is the closed classification a dialect assigns to an error.
// The connection layer retries with a forced reconnect only on
// ErrorKindConnection; everything else surfaces immediately.
type ErrorKind int

const (
	// ErrorKindOther covers query errors: syntax, constraint, in-engine
	// permission failures. Never retried.
	ErrorKindOther ErrorKind = iota

	// ErrorKindConnection covers transport failures: a dropped, refused,
	// or half-dead network connection. Worth a reconnect and retry.
	ErrorKindConnection
)

// Dialect is the immutable descriptor for one database engine.
type Dialect struct {
	// Name is the canonical engine name (e.g. "mssql", "postgresql").
	Name string

	// Open establishes a new handle for the given configuration. The
	// returned handle is dedicated to a single logical connection; the
	// caller serializes use.
	Open func(cfg core.ConnectionConfig) (*sql.DB, error)

	// ProbeSQL is a trivial statement used to test handle liveness before
	// reuse.
	ProbeSQL string

	// Classify assigns an ErrorKind to an error from this engine's driver.
	Classify func(err error) ErrorKind

	// Placeholder formats the n-th (1-based) query parameter placeholder.
	Placeholder func(n int) string
}

// ClassifyTransport is the classification shared by network engines: driver
// bad-conn signals, EOFs, and socket-level failures are connection errors.
// Dialects layer engine-specific checks on top of it.
func ClassifyTransport(err error) ErrorKind {
	if err == nil {
		return ErrorKindOther
	}
	if errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNABORTED) ||
		errors.Is(err, syscall.EPIPE) {
		return ErrorKindConnection
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return ErrorKindConnection
	}
	return ErrorKindOther
}

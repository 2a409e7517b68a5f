// Package testutil provides test helpers for structured logging.
package testutil

import (
	"bytes"
	"log/slog"
	"testing"
)

// NewTestLogger returns a debug-level logger routed through t.Log, so log
// output is attributed to the running test and shown only on failure or
// with -v.
func NewTestLogger(t testing.TB) *slog.Logger {
	t.Helper()
	return slog.New(slog.NewTextHandler(&tlogWriter{tb: t}, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
}

type tlogWriter struct {
	tb testing.TB
}

func (w *tlogWriter) Write(p []byte) (int, error) {
	w.tb.Helper()
	// slog terminates each record with a newline; t.Log adds its own.
	w.tb.Log(string(bytes.TrimRight(p, "\n")))
	return len(p), nil
}

package config

import "github.com/pharos-labs/pharosdb/pkg/core"

// defaults seed the koanf instance before any file or environment source.
func defaults() map[string]any {
	return map[string]any{
		"security.readonly":                  true,
		"security.permissions.enforce":       false,
		"security.permissions.default_role":  "readonly",
		"security.rate_limit.enabled":        false,
		"security.rate_limit.max_requests":   100,
		"security.rate_limit.window_seconds": 60,
		"log_level":                          "info",
	}
}

// applyDatabaseDefaults fills per-database settings the source omitted.
// readonlyExplicit reports whether the source set the readonly key for a
// database; absent keys default to read-only, the safe direction.
func applyDatabaseDefaults(cfg core.ConnectionConfig, readonlyExplicit bool) core.ConnectionConfig {
	if !readonlyExplicit {
		cfg.ReadOnly = true
	}
	if cfg.Settings.Timeout <= 0 {
		cfg.Settings.Timeout = core.DefaultTimeoutSeconds
	}
	if cfg.Settings.MaxRows <= 0 {
		cfg.Settings.MaxRows = core.DefaultMaxRows
	}
	return cfg
}

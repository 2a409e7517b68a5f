// Package config loads PharosDB configuration: the logical database
// catalog, the default database, and the security pipeline settings.
package config

import (
	"github.com/pharos-labs/pharosdb/pkg/core"
)

// PermissionsConfig controls role-based permission checks.
type PermissionsConfig struct {
	// Enforce activates RBAC; off by default for rollout compatibility.
	Enforce bool `koanf:"enforce"`
	// DefaultRole applies to unassigned and anonymous users.
	DefaultRole string `koanf:"default_role"`
}

// RateLimitConfig controls sliding-window admission per identifier.
type RateLimitConfig struct {
	Enabled       bool `koanf:"enabled"`
	MaxRequests   int  `koanf:"max_requests"`
	WindowSeconds int  `koanf:"window_seconds"`
}

// SecurityConfig groups the settings of the security pipeline.
type SecurityConfig struct {
	// ReadOnly restricts the validator to SELECT/WITH statements.
	ReadOnly    bool              `koanf:"readonly"`
	Permissions PermissionsConfig `koanf:"permissions"`
	RateLimit   RateLimitConfig   `koanf:"rate_limit"`
}

// Config is the loaded PharosDB configuration.
type Config struct {
	DefaultDatabase string                           `koanf:"default_database"`
	Databases       map[string]core.ConnectionConfig `koanf:"databases"`
	Security        SecurityConfig                   `koanf:"security"`
	LogLevel        string                           `koanf:"log_level"`
}

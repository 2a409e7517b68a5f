// Package commands implements the pharosdb CLI commands.
package commands

import (
	"log/slog"
	"time"

	"github.com/pharos-labs/pharosdb/internal/config"
	"github.com/pharos-labs/pharosdb/pkg/db"
	"github.com/pharos-labs/pharosdb/pkg/security"
)

// App wires the data-access layer for the CLI: one registry, one security
// pipeline, constructed at startup and threaded through the commands. Tests
// construct a fresh App instead of resetting globals.
type App struct {
	Config      *config.Config
	Logger      *slog.Logger
	Registry    *db.Registry
	Validator   *security.Validator
	Permissions *security.PermissionChecker
	Limiter     *security.RateLimiter
}

// Init builds the registry and security pipeline from loaded configuration.
func (a *App) Init(cfg *config.Config, logger *slog.Logger) {
	a.Config = cfg
	a.Logger = logger
	a.Registry = db.NewRegistry(cfg.DefaultDatabase, cfg.Databases, logger)
	a.Validator = security.NewValidator(cfg.Security.ReadOnly)
	a.Permissions = security.NewPermissionChecker(
		cfg.Security.Permissions.DefaultRole,
		cfg.Security.Permissions.Enforce,
	)
	a.Limiter = security.NewRateLimiter(
		cfg.Security.RateLimit.MaxRequests,
		time.Duration(cfg.Security.RateLimit.WindowSeconds)*time.Second,
		cfg.Security.RateLimit.Enabled,
	)
}

// Close disconnects every open database connection.
func (a *App) Close() {
	if a.Registry != nil {
		a.Registry.CloseAll()
	}
}

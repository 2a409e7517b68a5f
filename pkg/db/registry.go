package db

import (
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/pharos-labs/pharosdb/pkg/core"
	"github.com/pharos-labs/pharosdb/pkg/dialect"
)

// Source labels where a database definition came from.
const (
	SourceConfig  = "config"  // configuration file / environment
	SourceRuntime = "runtime" // RegisterDatabase at runtime
)

// DatabaseInfo is the projection of one configured database, independent of
// whether a Connection has been instantiated for it.
type DatabaseInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	ReadOnly    bool   `json:"readonly"`
	Type        string `json:"type"`
	Source      string `json:"source"`
}

// UnknownDatabaseError is returned when a logical name is not defined by any
// configuration source. Configuration error: fatal, never retried.
type UnknownDatabaseError struct {
	Name      string
	Available []string
}

func (e *UnknownDatabaseError) Error() string {
	return fmt.Sprintf("database %q not found (available: %s)",
		e.Name, strings.Join(e.Available, ", "))
}

// Registry maps logical database names to Connections. Connections are
// constructed on first access and reused thereafter: exactly one instance
// per name for the registry's lifetime. Runtime registrations shadow
// configured databases of the same name.
type Registry struct {
	logger *slog.Logger

	mu          sync.Mutex
	defaultName string
	configured  map[string]core.ConnectionConfig
	runtime     map[string]core.ConnectionConfig
	conns       map[string]*Connection
}

// NewRegistry builds a registry over the configured databases. defaultName
// is used when Get is called with an empty name. If logger is nil, a discard
// logger is used.
func NewRegistry(defaultName string, databases map[string]core.ConnectionConfig, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	configured := make(map[string]core.ConnectionConfig, len(databases))
	for name, cfg := range databases {
		configured[name] = cfg
	}
	return &Registry{
		logger:      logger,
		defaultName: defaultName,
		configured:  configured,
		runtime:     make(map[string]core.ConnectionConfig),
		conns:       make(map[string]*Connection),
	}
}

// Get returns the Connection for a logical name, constructing it on first
// access. An empty name resolves to the configured default database.
func (r *Registry) Get(name string) (*Connection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if name == "" {
		name = r.defaultName
	}

	if conn, ok := r.conns[name]; ok {
		return conn, nil
	}

	cfg, ok := r.lookupLocked(name)
	if !ok {
		return nil, &UnknownDatabaseError{Name: name, Available: r.namesLocked()}
	}

	conn, err := NewConnection(name, cfg, r.logger)
	if err != nil {
		return nil, err
	}
	r.conns[name] = conn
	return conn, nil
}

// Has reports whether a logical name is defined by any source.
func (r *Registry) Has(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.lookupLocked(name)
	return ok
}

// RegisterDatabase adds a runtime database definition, validating and
// normalizing it first. A runtime definition shadows a configured database
// of the same name. When allowOverride is false, re-registering an existing
// runtime name fails. Any live connection under the name is closed so the
// next Get picks up the new definition.
func (r *Registry) RegisterDatabase(name string, cfg core.ConnectionConfig, allowOverride bool) error {
	normalized, err := normalizeConfig(cfg)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if !allowOverride {
		if _, exists := r.runtime[name]; exists {
			return fmt.Errorf("database %q is already registered", name)
		}
	}

	if conn, ok := r.conns[name]; ok {
		conn.Disconnect()
		delete(r.conns, name)
	}

	r.runtime[name] = normalized
	r.logger.Info("registered database",
		slog.String("database", name),
		slog.String("type", normalized.Type))
	return nil
}

// UnregisterDatabase removes a runtime registration, closing any live
// connection. It returns false when the name has no runtime registration,
// and an error when the name belongs to a configured database, which cannot
// be removed.
func (r *Registry) UnregisterDatabase(name string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.runtime[name]; !ok {
		if _, configured := r.configured[name]; configured {
			return false, fmt.Errorf("cannot unregister %q: it is a configured database", name)
		}
		return false, nil
	}

	if conn, ok := r.conns[name]; ok {
		conn.Disconnect()
		delete(r.conns, name)
	}
	delete(r.runtime, name)
	r.logger.Info("unregistered database", slog.String("database", name))
	return true, nil
}

// ListDatabases projects every defined database, sorted by name. Runtime
// registrations shadow configured entries. The projection never instantiates
// a Connection.
func (r *Registry) ListDatabases() []DatabaseInfo {
	r.mu.Lock()
	defer r.mu.Unlock()

	infos := make([]DatabaseInfo, 0, len(r.runtime)+len(r.configured))
	for name, cfg := range r.runtime {
		infos = append(infos, databaseInfo(name, cfg, SourceRuntime))
	}
	for name, cfg := range r.configured {
		if _, shadowed := r.runtime[name]; shadowed {
			continue
		}
		infos = append(infos, databaseInfo(name, cfg, SourceConfig))
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}

// CloseAll disconnects every instantiated Connection and clears the
// instance map. Definitions stay registered.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, conn := range r.conns {
		conn.Disconnect()
	}
	r.conns = make(map[string]*Connection)
}

func (r *Registry) lookupLocked(name string) (core.ConnectionConfig, bool) {
	if cfg, ok := r.runtime[name]; ok {
		return cfg, true
	}
	cfg, ok := r.configured[name]
	return cfg, ok
}

func (r *Registry) namesLocked() []string {
	seen := make(map[string]struct{}, len(r.runtime)+len(r.configured))
	for name := range r.runtime {
		seen[name] = struct{}{}
	}
	for name := range r.configured {
		seen[name] = struct{}{}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func databaseInfo(name string, cfg core.ConnectionConfig, source string) DatabaseInfo {
	return DatabaseInfo{
		Name:        name,
		Description: cfg.Description,
		ReadOnly:    cfg.ReadOnly,
		Type:        cfg.Type,
		Source:      source,
	}
}

// normalizeConfig validates a runtime database definition and fills in
// engine-appropriate defaults.
func normalizeConfig(cfg core.ConnectionConfig) (core.ConnectionConfig, error) {
	d, err := dialect.Get(cfg.Type)
	if err != nil {
		return cfg, err
	}
	cfg.Type = d.Name

	if cfg.Database == "" {
		return cfg, fmt.Errorf("'database' field is required")
	}

	switch d.Name {
	case "postgresql":
		if cfg.Host == "" {
			return cfg, fmt.Errorf("postgresql requires 'host' field")
		}
		if cfg.Port == 0 {
			cfg.Port = 5432
		}
	case "mssql":
		if cfg.Server == "" {
			return cfg, fmt.Errorf("sql server requires 'server' field")
		}
	case "sqlite":
		// File path in Database is all sqlite needs.
		return applySettingsDefaults(cfg), nil
	}

	if cfg.User == "" {
		return cfg, fmt.Errorf("'user' field is required")
	}
	if cfg.Password == "" {
		return cfg, fmt.Errorf("'password' field is required")
	}
	return applySettingsDefaults(cfg), nil
}

func applySettingsDefaults(cfg core.ConnectionConfig) core.ConnectionConfig {
	if cfg.Settings.Timeout <= 0 {
		cfg.Settings.Timeout = core.DefaultTimeoutSeconds
	}
	if cfg.Settings.MaxRows <= 0 {
		cfg.Settings.MaxRows = core.DefaultMaxRows
	}
	if cfg.Description == "" {
		cfg.Description = "runtime-registered database"
	}
	return cfg
}

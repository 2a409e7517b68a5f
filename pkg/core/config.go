package core

import "time"

// Default connection settings, applied when the configuration omits them.
const (
	DefaultTimeoutSeconds = 30
	DefaultMaxRows        = 1000
)

// Settings holds per-database execution limits.
type Settings struct {
	// Timeout is the connect/login timeout in seconds.
	Timeout int `koanf:"timeout" json:"timeout"`
	// MaxRows caps the number of rows a query may return.
	MaxRows int `koanf:"max_rows" json:"max_rows"`
}

// ConnectionConfig describes one logical database. It is owned by the
// configuration layer and passed by value.
type ConnectionConfig struct {
	// Type is the engine name (mssql, postgresql, sqlite) or an alias.
	Type string `koanf:"type" json:"type"`

	// Server addresses a SQL Server instance (host or host\instance).
	Server string `koanf:"server" json:"server,omitempty"`

	// Host and Port address a network engine such as PostgreSQL.
	Host string `koanf:"host" json:"host,omitempty"`
	Port int    `koanf:"port" json:"port,omitempty"`

	// Database is the database name, or the file path for sqlite.
	Database string `koanf:"database" json:"database"`

	User     string `koanf:"user" json:"user,omitempty"`
	Password string `koanf:"password" json:"password,omitempty"`

	// ReadOnly restricts the validator to SELECT/WITH statements.
	ReadOnly bool `koanf:"readonly" json:"readonly"`

	Description string `koanf:"description" json:"description,omitempty"`

	// Options carries driver-specific key/value pairs (e.g. sslmode).
	Options map[string]string `koanf:"options" json:"options,omitempty"`

	Settings Settings `koanf:"settings" json:"settings"`
}

// Timeout returns the configured connect timeout as a duration.
func (c ConnectionConfig) Timeout() time.Duration {
	secs := c.Settings.Timeout
	if secs <= 0 {
		secs = DefaultTimeoutSeconds
	}
	return time.Duration(secs) * time.Second
}

// MaxRows returns the configured row cap, falling back to the default.
func (c ConnectionConfig) MaxRows() int {
	if c.Settings.MaxRows <= 0 {
		return DefaultMaxRows
	}
	return c.Settings.MaxRows
}

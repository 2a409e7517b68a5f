package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pharos-labs/pharosdb/pkg/core"
)

// Config file names, looked up in the working directory when no explicit
// path is given.
const (
	ConfigFileName    = "pharosdb.yaml"
	ConfigFileNameAlt = "pharosdb.yml"
)

// envPrefix namespaces every recognized environment variable.
const envPrefix = "PHAROS_"

// envDatabases optionally carries a JSON object of database definitions,
// letting clients inject databases without a config file.
const envDatabases = "PHAROS_DATABASES"

// Load reads configuration from defaults, an optional YAML file, and the
// environment, in increasing priority. An empty path means "search the
// working directory"; a missing searched file is not an error.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	configPath := findConfigFile(path)
	if path != "" && configPath == "" {
		return nil, fmt.Errorf("config file not found: %s", path)
	}
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", configPath, err)
		}
	}

	// PHAROS_SECURITY__READONLY=false style overrides; double underscore
	// separates nesting levels. PHAROS_DATABASES is handled as JSON below.
	if err := k.Load(env.Provider(envPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	for name, db := range cfg.Databases {
		explicit := k.Exists("databases." + name + ".readonly")
		cfg.Databases[name] = applyDatabaseDefaults(db, explicit)
	}

	if err := mergeEnvDatabases(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// envKey maps an environment variable name to a koanf key.
func envKey(name string) string {
	if name == envDatabases {
		return ""
	}
	key := strings.ToLower(strings.TrimPrefix(name, envPrefix))
	return strings.ReplaceAll(key, "__", ".")
}

// mergeEnvDatabases folds PHAROS_DATABASES (a JSON object keyed by logical
// name) into the database catalog, taking precedence over file entries.
func mergeEnvDatabases(cfg *Config) error {
	raw := os.Getenv(envDatabases)
	if raw == "" {
		return nil
	}

	var entries map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return fmt.Errorf("failed to parse %s: %w", envDatabases, err)
	}

	if cfg.Databases == nil {
		cfg.Databases = make(map[string]core.ConnectionConfig, len(entries))
	}
	for name, entry := range entries {
		var db core.ConnectionConfig
		if err := json.Unmarshal(entry, &db); err != nil {
			return fmt.Errorf("failed to parse %s entry %q: %w", envDatabases, name, err)
		}
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(entry, &fields); err != nil {
			return fmt.Errorf("%s entry %q must be a JSON object", envDatabases, name)
		}
		_, explicit := fields["readonly"]
		cfg.Databases[name] = applyDatabaseDefaults(db, explicit)
	}
	return nil
}

// findConfigFile resolves the config file to use.
// Priority: explicit path > pharosdb.yaml > pharosdb.yml.
func findConfigFile(explicit string) string {
	if explicit != "" {
		if _, err := os.Stat(explicit); err == nil {
			return explicit
		}
		return ""
	}
	if _, err := os.Stat(ConfigFileName); err == nil {
		return ConfigFileName
	}
	if _, err := os.Stat(ConfigFileNameAlt); err == nil {
		return ConfigFileNameAlt
	}
	return ""
}

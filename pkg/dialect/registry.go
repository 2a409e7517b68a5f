package dialect

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]*Dialect)
	aliases    = make(map[string]string)
)

// Register adds a dialect to the registry under its canonical name plus any
// aliases. Called by dialect implementations in their init() functions.
func Register(d *Dialect, names ...string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[strings.ToLower(d.Name)] = d
	for _, alias := range names {
		aliases[strings.ToLower(alias)] = strings.ToLower(d.Name)
	}
}

// Get resolves an engine name (case-insensitive, aliases included) to its
// dialect. Unknown names fail with an UnsupportedEngineError naming the full
// supported set.
func Get(name string) (*Dialect, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	key := strings.ToLower(name)
	if canonical, ok := aliases[key]; ok {
		key = canonical
	}
	d, ok := registry[key]
	if !ok {
		return nil, &UnsupportedEngineError{
			Type:      name,
			Supported: listLocked(),
		}
	}
	return d, nil
}

// IsSupported checks whether an engine name or alias resolves to a dialect.
func IsSupported(name string) bool {
	_, err := Get(name)
	return err == nil
}

// List returns every accepted engine name, canonical names and aliases
// alike, sorted.
func List() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return listLocked()
}

func listLocked() []string {
	names := make([]string, 0, len(registry)+len(aliases))
	for name := range registry {
		names = append(names, name)
	}
	for alias := range aliases {
		names = append(names, alias)
	}
	sort.Strings(names)
	return names
}

// UnsupportedEngineError is returned when an unknown engine type is
// requested. Configuration error: fatal, never retried.
type UnsupportedEngineError struct {
	Type      string
	Supported []string
}

func (e *UnsupportedEngineError) Error() string {
	return fmt.Sprintf("unsupported database type %q (supported: %s)",
		e.Type, strings.Join(e.Supported, ", "))
}

package host

import (
	"fmt"
	"sort"
	"sync"

	"github.com/russellmcc/plugcore/pkg/framework/plugin"
)

// Factory constructs one plugin instance.
type Factory func() plugin.Plugin

var (
	registryMu sync.Mutex
	registry   = map[string]Factory{}
)

// Register makes a plugin available to sessions under a name. Duplicate
// registration panics, the same way database/sql drivers do.
func Register(name string, f Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, dup := registry[name]; dup {
		panic(fmt.Sprintf("host: plugin %q registered twice", name))
	}
	registry[name] = f
}

// Create instantiates a registered plugin.
func Create(name string) (plugin.Plugin, error) {
	registryMu.Lock()
	f, ok := registry[name]
	registryMu.Unlock()
	if !ok {
		return nil, fmt.Errorf("host: unknown plugin %q (have %v)", name, Names())
	}
	return f(), nil
}

// Names returns the registered plugin names, sorted.
func Names() []string {
	registryMu.Lock()
	defer registryMu.Unlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

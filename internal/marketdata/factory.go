package marketdata

import (
	"fmt"
	"sort"
	"sync"

	"github.com/harlowe/vigil/internal/config"
	"github.com/harlowe/vigil/internal/core"
)

// Builder constructs a Gateway from broker configuration.
type Builder func(cfg config.BrokerConfig) (Gateway, error)

var (
	buildersMu sync.RWMutex
	builders   = make(map[string]Builder)
)

// Register makes a gateway builder available under the given provider name.
// Implementations call this from init, so importing a provider package is
// enough to make it selectable.
func Register(name string, b Builder) {
	buildersMu.Lock()
	defer buildersMu.Unlock()
	builders[name] = b
}

// New builds the gateway named by cfg.Provider. An unregistered name is a
// construction-time error.
func New(cfg config.BrokerConfig) (Gateway, error) {
	buildersMu.RLock()
	b, ok := builders[cfg.Provider]
	buildersMu.RUnlock()
	if !ok {
		return nil, core.WrapError(core.ErrProviderUnknown,
			fmt.Errorf("unknown market data provider: %s", cfg.Provider))
	}
	return b(cfg)
}

// Providers returns the registered provider names, sorted.
func Providers() []string {
	buildersMu.RLock()
	defer buildersMu.RUnlock()

	names := make([]string, 0, len(builders))
	for name := range builders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

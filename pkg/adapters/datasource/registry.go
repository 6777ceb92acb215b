package datasource

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/crossquery/crossquery-engine/pkg/catalog"
)

// Factory creates an adapter for one catalog source.
type Factory func(ctx context.Context, src *catalog.Source, logger *zap.Logger) (Adapter, error)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Factory)
)

// Register is called by each adapter's init() function.
// Thread-safe for concurrent init() calls.
func Register(dialect string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[dialect] = factory
}

// Open creates an adapter for the source's dialect.
func Open(ctx context.Context, src *catalog.Source, logger *zap.Logger) (Adapter, error) {
	registryMu.RLock()
	factory, ok := registry[src.Dialect]
	registryMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("no adapter registered for dialect %q", src.Dialect)
	}
	return factory(ctx, src, logger)
}

// IsRegistered checks if an adapter dialect is available.
func IsRegistered(dialect string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := registry[dialect]
	return ok
}

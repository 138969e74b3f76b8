package cache

import (
	"context"

	"github.com/silversurfer562/ai-nurse-florence-sub000/pkg/observability"
)

// Manager owns the caching subsystem's lifecycle: constructed once at
// process start, handed by reference to every consumer, and closed at
// shutdown. There is no package-level cache state.
type Manager struct {
	tiered   *TieredCache
	registry *Registry
	warmer   *Warmer
	logger   observability.Logger
}

// NewManager builds the tiered store, registers the configured
// strategies, and prepares the warmer. A nil config selects
// DefaultConfig; a nil metrics client disables metric reporting.
func NewManager(cfg *Config, logger observability.Logger, metrics observability.MetricsClient) (*Manager, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = observability.NewLogger("cache")
	}

	tiered, err := NewTieredCache(TieredCacheConfig{
		Redis:           cfg.Redis,
		LocalMaxEntries: cfg.LocalMaxEntries,
		MirrorTTL:       cfg.MirrorTTL,
		WriteQueueSize:  cfg.WriteQueueSize,
	}, logger.WithPrefix("cache.tiered"), metrics)
	if err != nil {
		return nil, err
	}

	registry := NewRegistry(tiered, logger.WithPrefix("cache.registry"), metrics)
	if err := registry.RegisterAll(cfg.Strategies); err != nil {
		_ = tiered.Close()
		return nil, err
	}

	return &Manager{
		tiered:   tiered,
		registry: registry,
		warmer:   NewWarmer(registry, logger.WithPrefix("cache.warmer")),
		logger:   logger,
	}, nil
}

// Get looks up query under a strategy (async path)
func (m *Manager) Get(ctx context.Context, strategy, query string, dest interface{}, opts ...Option) error {
	return m.registry.Get(ctx, strategy, query, dest, opts...)
}

// Set stores a value under a strategy (async path)
func (m *Manager) Set(ctx context.Context, strategy, query string, value interface{}, opts ...Option) error {
	return m.registry.Set(ctx, strategy, query, value, opts...)
}

// GetSync looks up query from the local tier only, never blocking on
// remote I/O
func (m *Manager) GetSync(strategy, query string, dest interface{}, opts ...Option) error {
	return m.registry.GetSync(strategy, query, dest, opts...)
}

// SetSync stores locally and schedules the remote write in the background
func (m *Manager) SetSync(strategy, query string, value interface{}, opts ...Option) error {
	return m.registry.SetSync(strategy, query, value, opts...)
}

// Delete removes query's entry under a strategy from both tiers
func (m *Manager) Delete(ctx context.Context, strategy, query string, opts ...Option) error {
	return m.registry.Delete(ctx, strategy, query, opts...)
}

// WarmAllStartupStrategies pre-populates every warm-on-startup strategy
// that has a loader. Invoked once at process start; failures never abort
// startup.
func (m *Manager) WarmAllStartupStrategies(ctx context.Context, loaders map[string]Loader) {
	m.warmer.WarmAll(ctx, loaders)
}

// Status reports the diagnostic view for health-check endpoints
func (m *Manager) Status() Status {
	return m.tiered.Status()
}

// Summary aggregates the recent metric-sample window; strategy narrows
// when non-empty
func (m *Manager) Summary(strategy string) Summary {
	return m.registry.Summary(strategy)
}

// Registry exposes the strategy registry
func (m *Manager) Registry() *Registry {
	return m.registry
}

// Tiered exposes the underlying tiered cache, e.g. for MemoizeSync and
// MemoizeAsync
func (m *Manager) Tiered() *TieredCache {
	return m.tiered
}

// Close flushes pending background writes and releases the Redis
// connection. Safe to call more than once.
func (m *Manager) Close() error {
	m.logger.Info("shutting down cache", nil)
	return m.tiered.Close()
}

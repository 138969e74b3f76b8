package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/silversurfer562/ai-nurse-florence-sub000/pkg/observability"
)

// DefaultWarmupDelay paces seed loads so warming never hammers a
// downstream data source
const DefaultWarmupDelay = 100 * time.Millisecond

// Loader produces the value to cache for one seed query, typically by
// calling the upstream medical API the strategy fronts
type Loader func(ctx context.Context, query string) (interface{}, error)

// WarmupResult reports one seed query's outcome
type WarmupResult struct {
	Strategy string
	Query    string
	Success  bool
	Skipped  bool // already cached
	Err      error
}

// Warmer pre-populates warm-on-startup strategies from their seed query
// lists. Individual seed failures are logged and skipped; warming never
// aborts and never fails process startup.
type Warmer struct {
	registry *Registry
	logger   observability.Logger
	delay    time.Duration
}

// NewWarmer creates a warmer over the registry
func NewWarmer(registry *Registry, logger observability.Logger) *Warmer {
	if logger == nil {
		logger = observability.NewLogger("cache.warmer")
	}
	return &Warmer{
		registry: registry,
		logger:   logger,
		delay:    DefaultWarmupDelay,
	}
}

// WarmStrategy loads every seed query of one strategy through loader.
// Seeds already present in the cache are skipped. Returns
// ErrStrategyNotFound for an unregistered name; per-seed failures are
// reported in the results, not as an error.
func (w *Warmer) WarmStrategy(ctx context.Context, name string, loader Loader) ([]WarmupResult, error) {
	cfg, err := w.registry.Strategy(name)
	if err != nil {
		return nil, err
	}

	results := make([]WarmupResult, 0, len(cfg.WarmupQueries))
	for i, query := range cfg.WarmupQueries {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		if i > 0 {
			// Pace the downstream source between loads
			select {
			case <-time.After(w.delay):
			case <-ctx.Done():
				return results, ctx.Err()
			}
		}

		results = append(results, w.warmSingle(ctx, cfg, query, loader))
	}

	succeeded, skipped := 0, 0
	for _, r := range results {
		if r.Skipped {
			skipped++
		} else if r.Success {
			succeeded++
		}
	}
	w.logger.Info("cache warmup completed", map[string]interface{}{
		"strategy": name,
		"seeds":    len(cfg.WarmupQueries),
		"loaded":   succeeded,
		"skipped":  skipped,
		"failed":   len(results) - succeeded - skipped,
	})

	return results, nil
}

func (w *Warmer) warmSingle(ctx context.Context, cfg StrategyConfig, query string, loader Loader) WarmupResult {
	result := WarmupResult{Strategy: cfg.Name, Query: query}

	// Already cached seeds are left alone
	var existing json.RawMessage
	if err := w.registry.Get(ctx, cfg.Name, query, &existing, WithoutSimilarity()); err == nil {
		result.Success = true
		result.Skipped = true
		return result
	}

	// Transient upstream hiccups get a couple of quick retries; anything
	// beyond that is this seed's failure, not the warmup's
	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 2), ctx)
	value, err := backoff.RetryWithData(func() (interface{}, error) {
		return loader(ctx, query)
	}, policy)
	if err != nil {
		w.logger.Warn("warmup seed failed, skipping", map[string]interface{}{
			"strategy": cfg.Name,
			"query":    query,
			"error":    err.Error(),
		})
		result.Err = err
		return result
	}

	if err := w.registry.Set(ctx, cfg.Name, query, value); err != nil {
		result.Err = err
		return result
	}

	result.Success = true
	return result
}

// WarmAll warms every registered strategy flagged WarmOnStartup that has a
// loader. Strategies without a loader are skipped with a log line; a
// user-scoped strategy is never warmed.
func (w *Warmer) WarmAll(ctx context.Context, loaders map[string]Loader) {
	for _, name := range w.registry.StrategyNames() {
		cfg, err := w.registry.Strategy(name)
		if err != nil || !cfg.WarmOnStartup || cfg.UserScoped {
			continue
		}

		loader, ok := loaders[name]
		if !ok {
			w.logger.Info("no loader supplied for warm-on-startup strategy", map[string]interface{}{
				"strategy": name,
			})
			continue
		}

		if _, err := w.WarmStrategy(ctx, name, loader); err != nil {
			w.logger.Warn("strategy warmup aborted", map[string]interface{}{
				"strategy": name,
				"error":    err.Error(),
			})
		}
	}
}

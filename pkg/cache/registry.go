package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/silversurfer562/ai-nurse-florence-sub000/pkg/observability"
)

// Registry maps strategy names to their configs and drives every
// strategy-level cache operation: key derivation, similarity fallback,
// compression, and metric sampling.
//
// Strategies are registered during startup and immutable afterwards; the
// lookup methods take no lock on the strategy table.
type Registry struct {
	tiered      *TieredCache
	strategies  map[string]StrategyConfig
	normalizers map[bool]*MedicalQueryNormalizer
	synonyms    *SynonymTable
	compressor  *CompressionService
	ring        *SampleRing
	logger      observability.Logger
	metrics     observability.MetricsClient
}

// NewRegistry creates an empty registry bound to a tiered cache
func NewRegistry(tiered *TieredCache, logger observability.Logger, metrics observability.MetricsClient) *Registry {
	if logger == nil {
		logger = observability.NewLogger("cache.registry")
	}

	return &Registry{
		tiered:     tiered,
		strategies: make(map[string]StrategyConfig),
		normalizers: map[bool]*MedicalQueryNormalizer{
			false: NewMedicalQueryNormalizer(false),
			true:  NewMedicalQueryNormalizer(true),
		},
		synonyms:   DefaultSynonymTable(),
		compressor: NewCompressionService(),
		ring:       NewSampleRing(DefaultSampleWindow),
		logger:     logger,
		metrics:    metrics,
	}
}

// Register adds a strategy. Registration happens at startup, before any
// lookups; duplicate names are a configuration bug.
func (r *Registry) Register(cfg StrategyConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if _, exists := r.strategies[cfg.Name]; exists {
		return fmt.Errorf("strategy %q already registered", cfg.Name)
	}
	r.strategies[cfg.Name] = cfg
	return nil
}

// RegisterAll registers a list of strategies, stopping at the first error
func (r *Registry) RegisterAll(cfgs []StrategyConfig) error {
	for _, cfg := range cfgs {
		if err := r.Register(cfg); err != nil {
			return err
		}
	}
	return nil
}

// Strategy returns the config for name
func (r *Registry) Strategy(name string) (StrategyConfig, error) {
	cfg, ok := r.strategies[name]
	if !ok {
		return StrategyConfig{}, fmt.Errorf("%w: %q", ErrStrategyNotFound, name)
	}
	return cfg, nil
}

// StrategyNames returns the registered names (order unspecified)
func (r *Registry) StrategyNames() []string {
	names := make([]string, 0, len(r.strategies))
	for name := range r.strategies {
		names = append(names, name)
	}
	return names
}

// Options tunes a single Get/Set call
type Options struct {
	ttl          time.Duration
	params       map[string]string
	noSimilarity bool
}

// Option mutates call options
type Option func(*Options)

// WithTTL overrides the strategy's configured TTL for one Set
func WithTTL(ttl time.Duration) Option {
	return func(o *Options) { o.ttl = ttl }
}

// WithParams mixes extra keyword parameters into the cache key
func WithParams(params map[string]string) Option {
	return func(o *Options) { o.params = params }
}

// WithoutSimilarity disables the synonym probe for one Get
func WithoutSimilarity() Option {
	return func(o *Options) { o.noSimilarity = true }
}

func buildOptions(opts []Option) Options {
	var o Options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Key derives the cache key a (strategy, query, params) triple maps to.
// Deterministic: the same semantic input always yields the same key.
func (r *Registry) Key(strategy, query string, params map[string]string) (string, error) {
	cfg, err := r.Strategy(strategy)
	if err != nil {
		return "", err
	}
	return r.keyFor(cfg, query, params), nil
}

func (r *Registry) keyFor(cfg StrategyConfig, query string, params map[string]string) string {
	canonical := r.normalizers[cfg.StripQualifiers].Normalize(query)
	if canonical == "" {
		// Normalization stripped everything (or the input was malformed):
		// hash the raw input rather than failing the call
		canonical = strings.ToLower(strings.TrimSpace(query))
	}
	return HashKey(cfg.KeyPrefix, canonical, params)
}

// Get looks up query under the named strategy via the async bridge and
// decodes the hit into dest. On an exact miss, similarity-enabled
// strategies probe the query's known synonyms before declaring a final
// miss. Returns ErrNotFound on a miss and ErrStrategyNotFound for an
// unregistered name; every other failure below this boundary is degraded
// to a miss.
func (r *Registry) Get(ctx context.Context, strategy, query string, dest interface{}, opts ...Option) error {
	cfg, err := r.Strategy(strategy)
	if err != nil {
		return err
	}

	o := buildOptions(opts)
	start := time.Now()
	fetch := func(key string) ([]byte, error) { return r.tiered.Get(ctx, key) }

	return r.lookup(cfg, query, dest, o, start, fetch)
}

// GetSync is the blocking-call-site lookup: it consults the local tier
// only, so it never blocks on remote I/O and has deterministic latency.
func (r *Registry) GetSync(strategy, query string, dest interface{}, opts ...Option) error {
	cfg, err := r.Strategy(strategy)
	if err != nil {
		return err
	}

	o := buildOptions(opts)
	start := time.Now()
	fetch := func(key string) ([]byte, error) {
		if data, ok := r.tiered.GetLocal(key); ok {
			return data, nil
		}
		return nil, ErrNotFound
	}

	return r.lookup(cfg, query, dest, o, start, fetch)
}

// lookup implements the shared exact-then-similarity flow over either
// bridge path
func (r *Registry) lookup(cfg StrategyConfig, query string, dest interface{}, o Options, start time.Time, fetch func(string) ([]byte, error)) error {
	key := r.keyFor(cfg, query, o.params)

	if data, err := fetch(key); err == nil {
		if err := r.decode(data, dest); err == nil {
			r.record(cfg.Name, key, HitExact, start)
			return nil
		} else {
			r.logger.Warn("cache entry undecodable, treating as miss", map[string]interface{}{
				"strategy": cfg.Name,
				"key":      key,
				"error":    err.Error(),
			})
		}
	}

	if cfg.similarityEnabled() && !o.noSimilarity {
		normalized := r.normalizers[cfg.StripQualifiers].Normalize(query)
		for _, variant := range r.synonyms.Variants(normalized) {
			variantKey := HashKey(cfg.KeyPrefix, variant, o.params)
			data, err := fetch(variantKey)
			if err != nil {
				continue
			}
			if err := r.decode(data, dest); err == nil {
				r.record(cfg.Name, variantKey, HitSimilarity, start)
				return nil
			}
		}
	}

	r.record(cfg.Name, key, HitNone, start)
	return ErrNotFound
}

// Set stores value for query under the named strategy via the async
// bridge. Encoding failures and oversized values are logged no-ops: a
// caching failure must never break the operation being cached.
func (r *Registry) Set(ctx context.Context, strategy, query string, value interface{}, opts ...Option) error {
	cfg, err := r.Strategy(strategy)
	if err != nil {
		return err
	}

	o := buildOptions(opts)
	data, ok := r.encode(cfg, value)
	if !ok {
		return nil
	}

	key := r.keyFor(cfg, query, o.params)
	return r.tiered.Set(ctx, key, data, r.effectiveTTL(cfg, o))
}

// SetSync is the blocking-call-site store: local write completes before
// returning, the remote write is fire-and-forget.
func (r *Registry) SetSync(strategy, query string, value interface{}, opts ...Option) error {
	cfg, err := r.Strategy(strategy)
	if err != nil {
		return err
	}

	o := buildOptions(opts)
	data, ok := r.encode(cfg, value)
	if !ok {
		return nil
	}

	key := r.keyFor(cfg, query, o.params)
	r.tiered.SetAndForget(key, data, r.effectiveTTL(cfg, o))
	return nil
}

// Delete removes query's entry under the named strategy from both tiers
func (r *Registry) Delete(ctx context.Context, strategy, query string, opts ...Option) error {
	cfg, err := r.Strategy(strategy)
	if err != nil {
		return err
	}

	o := buildOptions(opts)
	return r.tiered.Delete(ctx, r.keyFor(cfg, query, o.params))
}

// Samples exposes the metric ring for diagnostics
func (r *Registry) Samples() []MetricSample {
	return r.ring.Samples()
}

// Summary aggregates the metric window; strategy narrows when non-empty
func (r *Registry) Summary(strategy string) Summary {
	return r.ring.Summarize(strategy)
}

func (r *Registry) effectiveTTL(cfg StrategyConfig, o Options) time.Duration {
	if o.ttl > 0 {
		return o.ttl
	}
	return cfg.TTL
}

// encode serializes and optionally compresses a value. The bool result
// reports whether the value should be stored.
func (r *Registry) encode(cfg StrategyConfig, value interface{}) ([]byte, bool) {
	data, err := json.Marshal(value)
	if err != nil {
		r.logger.Warn("value not serializable, skipping cache write", map[string]interface{}{
			"strategy": cfg.Name,
			"error":    err.Error(),
		})
		return nil, false
	}

	if cfg.MaxSizeMB > 0 && len(data) > cfg.MaxSizeMB<<20 {
		r.logger.Warn("value exceeds strategy size cap, skipping cache write", map[string]interface{}{
			"strategy":    cfg.Name,
			"size_bytes":  len(data),
			"max_size_mb": cfg.MaxSizeMB,
		})
		return nil, false
	}

	if cfg.Compress {
		compressed, err := r.compressor.Compress(data)
		if err != nil {
			r.logger.Warn("compression failed, storing uncompressed", map[string]interface{}{
				"strategy": cfg.Name,
				"error":    err.Error(),
			})
		} else {
			data = compressed
		}
	}

	return data, true
}

func (r *Registry) decode(data []byte, dest interface{}) error {
	data, err := r.compressor.Decompress(data)
	if err != nil {
		return fmt.Errorf("failed to decompress: %w", err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("failed to unmarshal: %w", err)
	}
	return nil
}

func (r *Registry) record(strategy, key string, kind HitKind, start time.Time) {
	latency := time.Since(start)

	r.ring.Add(MetricSample{
		Key:       key,
		Strategy:  strategy,
		Hit:       kind != HitNone,
		Kind:      kind,
		Latency:   latency,
		Timestamp: time.Now(),
	})

	if r.metrics != nil {
		r.metrics.IncrementCounterWithLabels("cache.lookup", 1, map[string]string{
			"strategy": strategy,
			"kind":     string(kind),
		})
		r.metrics.RecordHistogram("cache.lookup.duration", observability.DurationSeconds(latency), map[string]string{
			"strategy": strategy,
		})
	}
}

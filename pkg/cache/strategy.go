package cache

import (
	"fmt"
	"time"
)

// StrategyConfig is a named caching policy applied to one category of
// cached data. Configs are loaded at process start and never mutated; many
// cache keys map onto one config through the key prefix.
type StrategyConfig struct {
	Name string `mapstructure:"name"`

	// TTL is the default entry lifetime; Set calls may override per call
	TTL time.Duration `mapstructure:"ttl"`

	// MaxSizeMB caps a single encoded value; oversized values are not
	// cached (the write becomes a logged no-op)
	MaxSizeMB int `mapstructure:"max_size_mb"`

	// Compress applies the gzip value transform to stored entries
	Compress bool `mapstructure:"compress"`

	// WarmOnStartup marks the strategy for seed-query pre-population
	WarmOnStartup bool `mapstructure:"warm_on_startup"`

	// KeyPrefix namespaces this strategy's keys
	KeyPrefix string `mapstructure:"key_prefix"`

	// SimilarityThreshold gates similarity fallback; <= 0 disables it
	SimilarityThreshold float64 `mapstructure:"similarity_threshold"`

	// AllowSimilarity enables synonym-probe fallback on exact misses.
	// Must stay false for strategies holding non-idempotent or
	// user-specific data: a synonym hit serves one query's cached value
	// for a different query.
	AllowSimilarity bool `mapstructure:"allow_similarity"`

	// StripQualifiers removes severity/stage modifiers during key
	// normalization ("acute pancreatitis" and "pancreatitis" share a key)
	StripQualifiers bool `mapstructure:"strip_qualifiers"`

	// UserScoped marks data as caller-specific; it hard-disables
	// similarity regardless of AllowSimilarity and excludes the strategy
	// from warming
	UserScoped bool `mapstructure:"user_scoped"`

	// WarmupQueries seeds warm-on-startup population
	WarmupQueries []string `mapstructure:"warmup_queries"`
}

// Validate checks a strategy config for registration
func (c *StrategyConfig) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("strategy name is required")
	}
	if c.KeyPrefix == "" {
		return fmt.Errorf("strategy %q: key prefix is required", c.Name)
	}
	if c.TTL <= 0 {
		return fmt.Errorf("strategy %q: ttl must be positive", c.Name)
	}
	if c.SimilarityThreshold < 0 || c.SimilarityThreshold > 1 {
		return fmt.Errorf("strategy %q: similarity threshold must be between 0 and 1", c.Name)
	}
	return nil
}

// similarityEnabled reports whether a similarity probe may run for this
// strategy
func (c *StrategyConfig) similarityEnabled() bool {
	return c.AllowSimilarity && !c.UserScoped && c.SimilarityThreshold > 0
}

// BuiltinStrategies returns the fixed strategy table for the
// healthcare-education services. Reference data warms at startup and
// tolerates aggressive normalization; search results are large and
// compressed; session data is user-scoped and short-lived.
func BuiltinStrategies() []StrategyConfig {
	return []StrategyConfig{
		{
			Name:                "medical_reference",
			TTL:                 24 * time.Hour,
			MaxSizeMB:           2,
			WarmOnStartup:       true,
			KeyPrefix:           "medref",
			SimilarityThreshold: 0.9,
			AllowSimilarity:     true,
			StripQualifiers:     true,
			WarmupQueries: []string{
				"diabetes",
				"hypertension",
				"asthma",
				"pneumonia",
				"myocardial infarction",
				"stroke",
				"copd",
				"sepsis",
			},
		},
		{
			Name:                "drug_interactions",
			TTL:                 12 * time.Hour,
			MaxSizeMB:           1,
			WarmOnStartup:       true,
			KeyPrefix:           "drugint",
			SimilarityThreshold: 0.9,
			AllowSimilarity:     true,
			WarmupQueries: []string{
				"warfarin",
				"metformin",
				"lisinopril",
				"atorvastatin",
			},
		},
		{
			Name:                "search_results",
			TTL:                 time.Hour,
			MaxSizeMB:           4,
			Compress:            true,
			KeyPrefix:           "search",
			SimilarityThreshold: 0.9,
			AllowSimilarity:     true,
			StripQualifiers:     true,
		},
		{
			Name:      "literature",
			TTL:       6 * time.Hour,
			MaxSizeMB: 4,
			Compress:  true,
			KeyPrefix: "lit",
		},
		{
			Name:      "clinical_trials",
			TTL:       3 * time.Hour,
			MaxSizeMB: 4,
			Compress:  true,
			KeyPrefix: "trials",
		},
		{
			// Wizard session snapshots: caller-specific, never shared
			// across queries, never warmed
			Name:       "session",
			TTL:        15 * time.Minute,
			MaxSizeMB:  1,
			KeyPrefix:  "session",
			UserScoped: true,
		},
	}
}

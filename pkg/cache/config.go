package cache

import (
	"time"

	"github.com/spf13/viper"
)

// Config assembles everything a Manager needs. Loaded once at process
// start; never mutated afterwards.
type Config struct {
	Redis           RedisConfig      `mapstructure:"redis"`
	LocalMaxEntries int              `mapstructure:"local_max_entries"`
	MirrorTTL       time.Duration    `mapstructure:"mirror_ttl"`
	WriteQueueSize  int              `mapstructure:"write_queue_size"`
	Strategies      []StrategyConfig `mapstructure:"strategies"`
}

// DefaultConfig returns a config suitable for local development: Redis on
// localhost with fallback to the local tier, and the builtin strategy
// table.
func DefaultConfig() *Config {
	return &Config{
		Redis: RedisConfig{
			Enabled: true,
			Address: "localhost:6379",
		},
		LocalMaxEntries: DefaultLocalMaxEntries,
		MirrorTTL:       DefaultMirrorTTL,
		WriteQueueSize:  DefaultWriteQueueSize,
		Strategies:      BuiltinStrategies(),
	}
}

// LoadConfigFromViper reads cache configuration from the given viper
// instance under the "cache" key, with environment overrides bound to
// MEDCACHE_* variables. In particular MEDCACHE_REDIS_ENABLED=false forces
// deterministic pure-local mode for test and CI environments.
func LoadConfigFromViper(v *viper.Viper) (*Config, error) {
	v.SetDefault("cache.redis.enabled", true)
	v.SetDefault("cache.redis.address", "localhost:6379")
	v.SetDefault("cache.redis.database", 0)
	v.SetDefault("cache.local_max_entries", DefaultLocalMaxEntries)
	v.SetDefault("cache.mirror_ttl", DefaultMirrorTTL)
	v.SetDefault("cache.write_queue_size", DefaultWriteQueueSize)

	_ = v.BindEnv("cache.redis.enabled", "MEDCACHE_REDIS_ENABLED")
	_ = v.BindEnv("cache.redis.address", "MEDCACHE_REDIS_ADDRESS")
	_ = v.BindEnv("cache.redis.password", "MEDCACHE_REDIS_PASSWORD")

	cfg := &Config{
		Redis: RedisConfig{
			Enabled:      v.GetBool("cache.redis.enabled"),
			Address:      v.GetString("cache.redis.address"),
			Password:     v.GetString("cache.redis.password"),
			Database:     v.GetInt("cache.redis.database"),
			MaxRetries:   v.GetInt("cache.redis.max_retries"),
			DialTimeout:  v.GetDuration("cache.redis.dial_timeout"),
			ReadTimeout:  v.GetDuration("cache.redis.read_timeout"),
			WriteTimeout: v.GetDuration("cache.redis.write_timeout"),
			PoolSize:     v.GetInt("cache.redis.pool_size"),
			MinIdleConns: v.GetInt("cache.redis.min_idle_conns"),
		},
		LocalMaxEntries: v.GetInt("cache.local_max_entries"),
		MirrorTTL:       v.GetDuration("cache.mirror_ttl"),
		WriteQueueSize:  v.GetInt("cache.write_queue_size"),
	}

	if v.IsSet("cache.strategies") {
		if err := v.UnmarshalKey("cache.strategies", &cfg.Strategies); err != nil {
			return nil, err
		}
	}
	if len(cfg.Strategies) == 0 {
		cfg.Strategies = BuiltinStrategies()
	}

	return cfg, nil
}

package cache

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sony/gobreaker"

	"github.com/silversurfer562/ai-nurse-florence-sub000/pkg/observability"
)

const (
	// remoteOperationTimeout bounds every remote round-trip. Fixed by
	// design: callers must see deterministic worst-case latency.
	remoteOperationTimeout = 2 * time.Second

	// remoteConnectTimeout bounds the initial ping
	remoteConnectTimeout = 5 * time.Second
)

// RedisConfig holds configuration for the remote cache tier
type RedisConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Address      string        `mapstructure:"address"`
	Password     string        `mapstructure:"password"`
	Database     int           `mapstructure:"database"`
	MaxRetries   int           `mapstructure:"max_retries"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
}

// RemoteStore is the Redis-backed tier. Every operation is best effort:
// transport failures are reported as errors for the tiered layer to degrade
// on, never retried in a loop, and a circuit breaker stops a dead Redis
// from costing a full timeout per call.
//
// A RemoteStore built from a config with Enabled=false carries no client;
// all operations return ErrRemoteDisabled. This is the deterministic
// pure-local mode used by test and CI environments.
type RemoteStore struct {
	client  *redis.Client
	breaker *gobreaker.CircuitBreaker
	logger  observability.Logger
}

// NewRemoteStore creates the remote tier. An unreachable Redis is not a
// construction error: the store starts degraded and the breaker probes for
// recovery on later use.
func NewRemoteStore(cfg RedisConfig, logger observability.Logger) *RemoteStore {
	if logger == nil {
		logger = observability.NewLogger("cache.redis")
	}

	if !cfg.Enabled {
		logger.Info("remote cache tier disabled by configuration", nil)
		return &RemoteStore{logger: logger}
	}

	if cfg.DialTimeout == 0 {
		cfg.DialTimeout = remoteConnectTimeout
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = remoteOperationTimeout
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = remoteOperationTimeout
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.Database,
		MaxRetries:   cfg.MaxRetries,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
	})

	settings := gobreaker.Settings{
		Name:        "cache_redis",
		MaxRequests: 3,
		Interval:    30 * time.Second,
		Timeout:     15 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 5 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("redis circuit breaker state change", map[string]interface{}{
				"from": from.String(),
				"to":   to.String(),
			})
		},
	}

	store := &RemoteStore{
		client:  client,
		breaker: gobreaker.NewCircuitBreaker(settings),
		logger:  logger,
	}

	// Probe the connection once so operators see the outcome at startup.
	// Failure is not fatal; the tier simply begins degraded.
	ctx, cancel := context.WithTimeout(context.Background(), cfg.DialTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis unreachable at startup, remote tier degraded", map[string]interface{}{
			"address": cfg.Address,
			"error":   err.Error(),
		})
	} else {
		logger.Info("redis cache tier connected", map[string]interface{}{
			"address":  cfg.Address,
			"database": cfg.Database,
		})
	}

	return store
}

// Enabled reports whether the store was constructed with a Redis client
func (r *RemoteStore) Enabled() bool {
	return r.client != nil
}

// Get retrieves raw bytes for a key. Returns ErrNotFound on a miss,
// ErrRemoteDisabled when the tier is off, and the transport error on
// failure so the tiered layer can degrade.
func (r *RemoteStore) Get(ctx context.Context, key string) ([]byte, error) {
	if r.client == nil {
		return nil, ErrRemoteDisabled
	}

	ctx, cancel := context.WithTimeout(ctx, remoteOperationTimeout)
	defer cancel()

	result, err := r.breaker.Execute(func() (interface{}, error) {
		data, err := r.client.Get(ctx, key).Bytes()
		if err == redis.Nil {
			// A miss is a successful round-trip, not a breaker failure
			return nil, nil
		}
		return data, err
	})
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, ErrNotFound
	}
	return result.([]byte), nil
}

// Set stores raw bytes with a TTL
func (r *RemoteStore) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	if r.client == nil {
		return ErrRemoteDisabled
	}

	ctx, cancel := context.WithTimeout(ctx, remoteOperationTimeout)
	defer cancel()

	_, err := r.breaker.Execute(func() (interface{}, error) {
		return nil, r.client.Set(ctx, key, data, ttl).Err()
	})
	return err
}

// Delete removes a key
func (r *RemoteStore) Delete(ctx context.Context, key string) error {
	if r.client == nil {
		return ErrRemoteDisabled
	}

	ctx, cancel := context.WithTimeout(ctx, remoteOperationTimeout)
	defer cancel()

	_, err := r.breaker.Execute(func() (interface{}, error) {
		return nil, r.client.Del(ctx, key).Err()
	})
	return err
}

// Ping checks connectivity, used by degraded-mode recovery probes
func (r *RemoteStore) Ping(ctx context.Context) error {
	if r.client == nil {
		return ErrRemoteDisabled
	}

	ctx, cancel := context.WithTimeout(ctx, remoteOperationTimeout)
	defer cancel()

	_, err := r.breaker.Execute(func() (interface{}, error) {
		return nil, r.client.Ping(ctx).Err()
	})
	return err
}

// Close releases the Redis connection
func (r *RemoteStore) Close() error {
	if r.client == nil {
		return nil
	}
	return r.client.Close()
}

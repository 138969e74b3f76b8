package cache

import (
	"context"
	"encoding/json"
	"time"

	"golang.org/x/sync/singleflight"
)

// MemoizeAsync wraps fn so that its return value is cached for ttl. The
// wrapped function uses the async bridge: cache reads and writes may
// perform remote I/O, suspending only at that boundary.
//
// Concurrent callers missing on the same key are collapsed into a single
// invocation of fn. If fn returns an error the error propagates and
// nothing is cached. Only the return value is memoized; fn's side effects
// run whenever fn runs.
func MemoizeAsync[A any, R any](tc *TieredCache, name string, ttl time.Duration, fn func(context.Context, A) (R, error)) func(context.Context, A) (R, error) {
	var group singleflight.Group

	return func(ctx context.Context, arg A) (R, error) {
		var zero R

		key, err := FunctionKey(name, arg)
		if err != nil {
			// Unkeyable arguments: call through without caching
			return fn(ctx, arg)
		}

		if data, err := tc.Get(ctx, key); err == nil {
			var cached R
			if err := json.Unmarshal(data, &cached); err == nil {
				return cached, nil
			}
			// Undecodable entry is a miss; overwrite below
		}

		result, err, _ := group.Do(key, func() (interface{}, error) {
			value, err := fn(ctx, arg)
			if err != nil {
				return nil, err
			}

			if data, err := json.Marshal(value); err == nil {
				_ = tc.Set(ctx, key, data, ttl)
			}
			return value, nil
		})
		if err != nil {
			return zero, err
		}
		return result.(R), nil
	}
}

// MemoizeSync wraps a blocking-call-site function. The cache check reads
// the local tier only and the store is fire-and-forget, so the wrapped
// function never blocks on remote I/O regardless of Redis health.
func MemoizeSync[A any, R any](tc *TieredCache, name string, ttl time.Duration, fn func(A) (R, error)) func(A) (R, error) {
	return func(arg A) (R, error) {
		var zero R

		key, err := FunctionKey(name, arg)
		if err != nil {
			return fn(arg)
		}

		if data, ok := tc.GetLocal(key); ok {
			var cached R
			if err := json.Unmarshal(data, &cached); err == nil {
				return cached, nil
			}
		}

		value, err := fn(arg)
		if err != nil {
			return zero, err
		}

		if data, err := json.Marshal(value); err == nil {
			tc.SetAndForget(key, data, ttl)
		}
		return value, nil
	}
}

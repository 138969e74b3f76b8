package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoizeAsync(t *testing.T) {
	tc, _ := setupTieredCache(t)
	ctx := context.Background()

	t.Run("second call served from cache", func(t *testing.T) {
		var calls int32
		lookup := MemoizeAsync(tc, "disease_lookup", time.Minute, func(ctx context.Context, name string) (string, error) {
			atomic.AddInt32(&calls, 1)
			return "summary of " + name, nil
		})

		first, err := lookup(ctx, "diabetes")
		require.NoError(t, err)
		second, err := lookup(ctx, "diabetes")
		require.NoError(t, err)

		assert.Equal(t, first, second)
		assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	})

	t.Run("distinct arguments computed separately", func(t *testing.T) {
		var calls int32
		lookup := MemoizeAsync(tc, "dose_lookup", time.Minute, func(ctx context.Context, drug string) (string, error) {
			atomic.AddInt32(&calls, 1)
			return "dose for " + drug, nil
		})

		a, err := lookup(ctx, "warfarin")
		require.NoError(t, err)
		b, err := lookup(ctx, "metformin")
		require.NoError(t, err)

		assert.NotEqual(t, a, b)
		assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	})

	t.Run("errors propagate and are not cached", func(t *testing.T) {
		upstreamErr := errors.New("upstream unavailable")
		var calls int32
		lookup := MemoizeAsync(tc, "flaky_lookup", time.Minute, func(ctx context.Context, q string) (string, error) {
			if atomic.AddInt32(&calls, 1) == 1 {
				return "", upstreamErr
			}
			return "recovered", nil
		})

		_, err := lookup(ctx, "sepsis")
		assert.ErrorIs(t, err, upstreamErr)

		// The failure was not cached; the retry invokes the function again
		got, err := lookup(ctx, "sepsis")
		require.NoError(t, err)
		assert.Equal(t, "recovered", got)
		assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	})

	t.Run("concurrent misses collapse to one invocation", func(t *testing.T) {
		var calls int32
		slow := MemoizeAsync(tc, "slow_lookup", time.Minute, func(ctx context.Context, q string) (string, error) {
			atomic.AddInt32(&calls, 1)
			time.Sleep(50 * time.Millisecond)
			return "result", nil
		})

		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				got, err := slow(ctx, "asthma")
				assert.NoError(t, err)
				assert.Equal(t, "result", got)
			}()
		}
		wg.Wait()

		assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	})

	t.Run("struct arguments", func(t *testing.T) {
		type request struct {
			Query string `json:"query"`
			Limit int    `json:"limit"`
		}

		var calls int32
		search := MemoizeAsync(tc, "search", time.Minute, func(ctx context.Context, req request) ([]string, error) {
			atomic.AddInt32(&calls, 1)
			return []string{req.Query}, nil
		})

		_, err := search(ctx, request{Query: "copd", Limit: 10})
		require.NoError(t, err)
		_, err = search(ctx, request{Query: "copd", Limit: 10})
		require.NoError(t, err)
		_, err = search(ctx, request{Query: "copd", Limit: 20})
		require.NoError(t, err)

		assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	})
}

func TestMemoizeSync(t *testing.T) {
	tc := setupLocalOnlyCache(t)

	t.Run("second call served from cache", func(t *testing.T) {
		var calls int32
		lookup := MemoizeSync(tc, "sync_lookup", time.Minute, func(name string) (string, error) {
			atomic.AddInt32(&calls, 1)
			return "summary of " + name, nil
		})

		first, err := lookup("diabetes")
		require.NoError(t, err)
		second, err := lookup("diabetes")
		require.NoError(t, err)

		assert.Equal(t, first, second)
		assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	})

	t.Run("expired entry recomputed", func(t *testing.T) {
		var calls int32
		lookup := MemoizeSync(tc, "sync_short", 30*time.Millisecond, func(name string) (string, error) {
			atomic.AddInt32(&calls, 1)
			return name, nil
		})

		_, err := lookup("stroke")
		require.NoError(t, err)

		time.Sleep(50 * time.Millisecond)

		_, err = lookup("stroke")
		require.NoError(t, err)
		assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	})

	t.Run("errors propagate and are not cached", func(t *testing.T) {
		upstreamErr := errors.New("boom")
		var calls int32
		lookup := MemoizeSync(tc, "sync_flaky", time.Minute, func(q string) (string, error) {
			if atomic.AddInt32(&calls, 1) == 1 {
				return "", upstreamErr
			}
			return "ok", nil
		})

		_, err := lookup("x")
		assert.ErrorIs(t, err, upstreamErr)

		got, err := lookup("x")
		require.NoError(t, err)
		assert.Equal(t, "ok", got)
	})
}

func TestFunctionKey(t *testing.T) {
	t.Run("deterministic across map order", func(t *testing.T) {
		k1, err := FunctionKey("lookup", map[string]string{"a": "1", "b": "2"})
		require.NoError(t, err)
		k2, err := FunctionKey("lookup", map[string]string{"b": "2", "a": "1"})
		require.NoError(t, err)
		assert.Equal(t, k1, k2)
	})

	t.Run("distinct args give distinct keys", func(t *testing.T) {
		k1, err := FunctionKey("lookup", "diabetes")
		require.NoError(t, err)
		k2, err := FunctionKey("lookup", "hypertension")
		require.NoError(t, err)
		assert.NotEqual(t, k1, k2)
	})

	t.Run("distinct names give distinct keys", func(t *testing.T) {
		k1, err := FunctionKey("lookup_a", "diabetes")
		require.NoError(t, err)
		k2, err := FunctionKey("lookup_b", "diabetes")
		require.NoError(t, err)
		assert.NotEqual(t, k1, k2)
	})

	t.Run("namespaced and fixed length", func(t *testing.T) {
		k, err := FunctionKey("lookup", []int{1, 2, 3})
		require.NoError(t, err)
		assert.Regexp(t, `^memo:lookup:[0-9a-f]{16}$`, k)
	})

	t.Run("unkeyable args error", func(t *testing.T) {
		_, err := FunctionKey("lookup", make(chan int))
		assert.Error(t, err)
	})
}

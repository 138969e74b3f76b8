package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/silversurfer562/ai-nurse-florence-sub000/pkg/observability"
)

func setupRemoteStore(t *testing.T) (*RemoteStore, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	store := NewRemoteStore(RedisConfig{
		Enabled: true,
		Address: mr.Addr(),
	}, observability.NewNoopLogger())
	t.Cleanup(func() { _ = store.Close() })

	return store, mr
}

func TestRemoteStore(t *testing.T) {
	store, mr := setupRemoteStore(t)
	ctx := context.Background()

	t.Run("set then get", func(t *testing.T) {
		require.NoError(t, store.Set(ctx, "k1", []byte("v1"), time.Minute))

		data, err := store.Get(ctx, "k1")
		require.NoError(t, err)
		assert.Equal(t, []byte("v1"), data)
	})

	t.Run("miss", func(t *testing.T) {
		_, err := store.Get(ctx, "absent")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, store.Set(ctx, "k2", []byte("v"), time.Minute))
		require.NoError(t, store.Delete(ctx, "k2"))

		_, err := store.Get(ctx, "k2")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("ttl enforced", func(t *testing.T) {
		require.NoError(t, store.Set(ctx, "k3", []byte("v"), time.Second))

		mr.FastForward(2 * time.Second)

		_, err := store.Get(ctx, "k3")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("ping", func(t *testing.T) {
		assert.NoError(t, store.Ping(ctx))
	})

	t.Run("enabled", func(t *testing.T) {
		assert.True(t, store.Enabled())
	})
}

func TestRemoteStore_Disabled(t *testing.T) {
	store := NewRemoteStore(RedisConfig{Enabled: false}, observability.NewNoopLogger())
	ctx := context.Background()

	assert.False(t, store.Enabled())

	_, err := store.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrRemoteDisabled)
	assert.ErrorIs(t, store.Set(ctx, "k", []byte("v"), time.Minute), ErrRemoteDisabled)
	assert.ErrorIs(t, store.Delete(ctx, "k"), ErrRemoteDisabled)
	assert.ErrorIs(t, store.Ping(ctx), ErrRemoteDisabled)
	assert.NoError(t, store.Close())
}

func TestRemoteStore_UnreachableAtStartup(t *testing.T) {
	// Construction must not fail when Redis is down
	store := NewRemoteStore(RedisConfig{
		Enabled:     true,
		Address:     "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
	}, observability.NewNoopLogger())
	t.Cleanup(func() { _ = store.Close() })

	require.NotNil(t, store)
	assert.True(t, store.Enabled())

	_, err := store.Get(context.Background(), "k")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestRemoteStore_TransportFailure(t *testing.T) {
	store, mr := setupRemoteStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "k1", []byte("v1"), time.Minute))
	mr.Close()

	_, err := store.Get(ctx, "k1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

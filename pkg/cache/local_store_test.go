package cache

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStore(t *testing.T) {
	store, err := NewLocalStore(100)
	require.NoError(t, err)

	t.Run("set then get", func(t *testing.T) {
		store.Set("k1", []byte("v1"), time.Minute)

		data, ok := store.Get("k1")
		require.True(t, ok)
		assert.Equal(t, []byte("v1"), data)
	})

	t.Run("overwrite", func(t *testing.T) {
		store.Set("k1", []byte("v2"), time.Minute)

		data, ok := store.Get("k1")
		require.True(t, ok)
		assert.Equal(t, []byte("v2"), data)
	})

	t.Run("miss", func(t *testing.T) {
		_, ok := store.Get("absent")
		assert.False(t, ok)
	})

	t.Run("delete", func(t *testing.T) {
		store.Set("k2", []byte("v"), time.Minute)
		store.Delete("k2")

		_, ok := store.Get("k2")
		assert.False(t, ok)
	})

	t.Run("lazy expiry", func(t *testing.T) {
		store.Set("short", []byte("v"), 30*time.Millisecond)

		_, ok := store.Get("short")
		require.True(t, ok)

		time.Sleep(50 * time.Millisecond)
		before := store.Len()
		_, ok = store.Get("short")
		assert.False(t, ok)

		// The expired access removed the entry
		assert.Equal(t, before-1, store.Len())
	})
}

func TestLocalStore_Bound(t *testing.T) {
	store, err := NewLocalStore(10)
	require.NoError(t, err)

	for i := 0; i < 25; i++ {
		store.Set(fmt.Sprintf("k%d", i), []byte("v"), time.Minute)
	}

	assert.Equal(t, 10, store.Len())

	// Least-recently-used entries were evicted, newest survive
	_, ok := store.Get("k24")
	assert.True(t, ok)
	_, ok = store.Get("k0")
	assert.False(t, ok)
}

func TestLocalStore_Purge(t *testing.T) {
	store, err := NewLocalStore(10)
	require.NoError(t, err)

	store.Set("a", []byte("1"), time.Minute)
	store.Set("b", []byte("2"), time.Minute)
	store.Purge()

	assert.Zero(t, store.Len())
}

func TestLocalStore_DefaultBound(t *testing.T) {
	store, err := NewLocalStore(0)
	require.NoError(t, err)

	store.Set("k", []byte("v"), time.Minute)
	assert.Equal(t, 1, store.Len())
}

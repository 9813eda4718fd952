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

func TestLRUCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c := NewLRUCache[int](2, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	_, _ = c.Get("a")
	c.Set("c", 3)

	_, ok := c.Get("b")
	assert.False(t, ok, "b was least recently used")
	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)
	assert.Equal(t, 2, c.Size())
}

func TestLRUCache_Expiry(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewLRUCache[string](10, time.Minute)
	c.now = func() time.Time { return now }

	c.Set("k", "v")
	c.Set("other", "v")
	now = now.Add(30 * time.Second)
	_, ok := c.Get("k")
	assert.True(t, ok)

	now = now.Add(time.Minute)
	_, ok = c.Get("k")
	assert.False(t, ok)
	assert.Equal(t, 1, c.CleanExpired())
	assert.Equal(t, 0, c.Size())
}

func TestLRUCache_DeletePrefix(t *testing.T) {
	c := NewLRUCache[int](10, time.Minute)
	c.Set("alice|2024-01", 1)
	c.Set("alice|2024-02", 2)
	c.Set("bob|2024-01", 3)

	assert.Equal(t, 2, c.DeletePrefix("alice|"))
	_, ok := c.Get("bob|2024-01")
	assert.True(t, ok)
	assert.Equal(t, 1, c.Size())
}

func TestLoader_CachesSuccessOnly(t *testing.T) {
	l := NewLoader[int](NewLRUCache[int](10, time.Minute))
	ctx := context.Background()
	calls := 0

	_, err := l.Get(ctx, "k", func(context.Context) (int, error) {
		calls++
		return 0, errors.New("boom")
	})
	require.Error(t, err)

	for i := 0; i < 3; i++ {
		v, err := l.Get(ctx, "k", func(context.Context) (int, error) {
			calls++
			return 42, nil
		})
		require.NoError(t, err)
		assert.Equal(t, 42, v)
	}
	assert.Equal(t, 2, calls)
}

func TestLoader_DeduplicatesConcurrentMisses(t *testing.T) {
	l := NewLoader[int](NewLRUCache[int](10, time.Minute))
	var calls atomic.Int32
	release := make(chan struct{})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := l.Get(context.Background(), "k", func(context.Context) (int, error) {
				calls.Add(1)
				<-release
				return 7, nil
			})
			assert.NoError(t, err)
			assert.Equal(t, 7, v)
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
}

func TestLoader_InvalidateDuringLoadSkipsCaching(t *testing.T) {
	l := NewLoader[int](NewLRUCache[int](10, time.Minute))
	ctx := context.Background()

	v, err := l.Get(ctx, "alice|2024-01", func(context.Context) (int, error) {
		l.Invalidate("alice|")
		return 1, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	v, err = l.Get(ctx, "alice|2024-01", func(context.Context) (int, error) { return 2, nil })
	require.NoError(t, err)
	assert.Equal(t, 2, v, "stale load must not be cached")
}

func TestManager_CleansRegisteredCaches(t *testing.T) {
	c := NewLRUCache[int](10, time.Millisecond)
	c.Set("k", 1)

	m := NewManager()
	m.Register(c)
	m.StartCleanup(context.Background(), 5*time.Millisecond)
	defer m.Stop()

	assert.Eventually(t, func() bool { return c.Size() == 0 }, time.Second, 5*time.Millisecond)
}

func TestManager_StopWithoutStart(t *testing.T) {
	m := NewManager()
	m.Stop()
	m.Stop()
}

package dynaprompt

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestNewEnhancementCache(t *testing.T) {
	cache := NewEnhancementCache(EnhancementCacheConfig{})

	assert.Equal(t, 30*time.Minute, cache.config.TTL)
	assert.Equal(t, 500, cache.config.MaxEntries)
	assert.Equal(t, 0, cache.Len())
}

func TestEnhancementCache_GetSet(t *testing.T) {
	cache := NewEnhancementCache(DefaultEnhancementCacheConfig())
	req := EnhanceRequest{Prompt: "a cat", DetailLevel: DetailLevelEnhanced, Style: "noir"}

	_, found := cache.Get(req)
	assert.False(t, found)

	cache.Set(req, "a cat in a rain-soaked alley")
	result, found := cache.Get(req)
	assert.True(t, found)
	assert.Equal(t, "a cat in a rain-soaked alley", result)

	// Detail level and style are part of the key.
	_, found = cache.Get(EnhanceRequest{Prompt: "a cat", DetailLevel: DetailLevelCinematic, Style: "noir"})
	assert.False(t, found)
	_, found = cache.Get(EnhanceRequest{Prompt: "a cat", DetailLevel: DetailLevelEnhanced, Style: "pastel"})
	assert.False(t, found)

	cache.Set(req, "updated")
	result, _ = cache.Get(req)
	assert.Equal(t, "updated", result)
	assert.Equal(t, 1, cache.Len())

	stats := cache.Stats()
	assert.Equal(t, int64(2), stats.Hits)
	assert.Equal(t, int64(3), stats.Misses)
	assert.InDelta(t, 0.4, cache.HitRate(), 0.0001)
}

func TestEnhancementCache_Expiration(t *testing.T) {
	cache := NewEnhancementCache(EnhancementCacheConfig{TTL: 20 * time.Millisecond, MaxEntries: 10})
	req := EnhanceRequest{Prompt: "a cat", DetailLevel: DetailLevelEnhanced}

	cache.Set(req, "rewritten")
	_, found := cache.Get(req)
	require.True(t, found)

	time.Sleep(40 * time.Millisecond)
	_, found = cache.Get(req)
	assert.False(t, found)
}

func TestEnhancementCache_Cleanup(t *testing.T) {
	cache := NewEnhancementCache(EnhancementCacheConfig{TTL: 20 * time.Millisecond, MaxEntries: 10})
	cache.Set(EnhanceRequest{Prompt: "a"}, "1")
	cache.Set(EnhanceRequest{Prompt: "b"}, "2")

	time.Sleep(40 * time.Millisecond)
	assert.Equal(t, 2, cache.Cleanup())
	assert.Equal(t, 0, cache.Len())
}

func TestEnhancementCache_Eviction(t *testing.T) {
	cache := NewEnhancementCache(EnhancementCacheConfig{TTL: time.Minute, MaxEntries: 2})

	cache.Set(EnhanceRequest{Prompt: "first"}, "1")
	cache.Set(EnhanceRequest{Prompt: "second"}, "2")
	cache.Set(EnhanceRequest{Prompt: "third"}, "3")

	assert.Equal(t, 2, cache.Len())
	_, found := cache.Get(EnhanceRequest{Prompt: "first"})
	assert.False(t, found)
	_, found = cache.Get(EnhanceRequest{Prompt: "third"})
	assert.True(t, found)
	assert.Equal(t, int64(1), cache.Stats().Evictions)
}

func TestEnhancementCache_EvictionSkipsInvalidated(t *testing.T) {
	cache := NewEnhancementCache(EnhancementCacheConfig{TTL: time.Minute, MaxEntries: 2})

	cache.Set(EnhanceRequest{Prompt: "first"}, "1")
	cache.Set(EnhanceRequest{Prompt: "second"}, "2")
	cache.Invalidate("first")
	cache.Set(EnhanceRequest{Prompt: "third"}, "3")

	assert.Equal(t, 2, cache.Len())
	_, found := cache.Get(EnhanceRequest{Prompt: "second"})
	assert.True(t, found)
	assert.Equal(t, int64(0), cache.Stats().Evictions)
}

func TestEnhancementCache_Invalidate(t *testing.T) {
	cache := NewEnhancementCache(DefaultEnhancementCacheConfig())

	cache.Set(EnhanceRequest{Prompt: "a cat", DetailLevel: DetailLevelEnhanced}, "1")
	cache.Set(EnhanceRequest{Prompt: "a cat", DetailLevel: DetailLevelCinematic, Style: "noir"}, "2")
	cache.Set(EnhanceRequest{Prompt: "a dog", DetailLevel: DetailLevelEnhanced}, "3")

	assert.Equal(t, 2, cache.Invalidate("a cat"))
	assert.Equal(t, 1, cache.Len())
	assert.Equal(t, int64(2), cache.Stats().Invalidations)
	assert.Equal(t, 0, cache.Invalidate("a cat"))

	cache.Clear()
	assert.Equal(t, 0, cache.Len())
}

func TestDetailLevel_Validate(t *testing.T) {
	assert.NoError(t, DetailLevelEnhanced.Validate())
	assert.NoError(t, DetailLevelCinematic.Validate())
	assert.Error(t, DetailLevel("4x").Validate())
	assert.Error(t, DetailLevel("").Validate())
}

func TestNewCachedEnhancer(t *testing.T) {
	_, err := NewCachedEnhancer(nil, nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), ErrMsgEnhancerNil)

	ce, err := NewCachedEnhancer(EnhancerFunc(func(context.Context, EnhanceRequest) (string, error) {
		return "", nil
	}), nil, nil)
	require.NoError(t, err)
	assert.NotNil(t, ce.Cache())
}

func TestCachedEnhancer_Enhance(t *testing.T) {
	ctx := context.Background()
	var calls atomic.Int32
	enhancer := EnhancerFunc(func(_ context.Context, req EnhanceRequest) (string, error) {
		calls.Add(1)
		return req.Prompt + " (" + string(req.DetailLevel) + ")", nil
	})

	metrics := NewMetrics()
	ce, err := NewCachedEnhancer(enhancer, nil, zaptest.NewLogger(t))
	require.NoError(t, err)
	ce.WithMetrics(metrics)

	req := EnhanceRequest{Prompt: "a cat", DetailLevel: DetailLevelCinematic}

	t.Run("miss then hit", func(t *testing.T) {
		first, err := ce.Enhance(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, "a cat (3x)", first)

		second, err := ce.Enhance(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, first, second)
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("invalidate forces a new call", func(t *testing.T) {
		assert.Equal(t, 1, ce.Invalidate("a cat"))
		_, err := ce.Enhance(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, int32(2), calls.Load())
	})

	t.Run("unknown detail level", func(t *testing.T) {
		_, err := ce.Enhance(ctx, EnhanceRequest{Prompt: "a cat", DetailLevel: "9x"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), ErrMsgUnknownDetailLevel)
		assert.Equal(t, int32(2), calls.Load())
	})
}

func TestCachedEnhancer_Errors(t *testing.T) {
	boom := errors.New("model overloaded")
	ce, err := NewCachedEnhancer(EnhancerFunc(func(context.Context, EnhanceRequest) (string, error) {
		return "", boom
	}), nil, nil)
	require.NoError(t, err)

	req := EnhanceRequest{Prompt: "a cat", DetailLevel: DetailLevelEnhanced}
	_, err = ce.Enhance(context.Background(), req)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, ce.Cache().Len())
}

func TestCachedEnhancer_SharesConcurrentCalls(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})
	enhancer := EnhancerFunc(func(context.Context, EnhanceRequest) (string, error) {
		calls.Add(1)
		<-release
		return "rewritten", nil
	})

	ce, err := NewCachedEnhancer(enhancer, nil, nil)
	require.NoError(t, err)
	req := EnhanceRequest{Prompt: "a cat", DetailLevel: DetailLevelEnhanced}

	const workers = 8
	var started, wg sync.WaitGroup
	started.Add(workers)
	wg.Add(workers)
	results := make([]string, workers)
	for i := range workers {
		go func() {
			defer wg.Done()
			started.Done()
			results[i], _ = ce.Enhance(context.Background(), req)
		}()
	}

	started.Wait()
	// Give the goroutines time to reach the shared call.
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	for _, r := range results {
		assert.Equal(t, "rewritten", r)
	}
	assert.LessOrEqual(t, calls.Load(), int32(workers))
	assert.GreaterOrEqual(t, calls.Load(), int32(1))
}

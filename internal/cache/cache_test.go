package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openshelf/prettygw/internal/config"
	"github.com/openshelf/prettygw/internal/observability"
)

func TestNew_NilConfig(t *testing.T) {
	t.Parallel()

	c, err := New(nil, observability.NopLogger())
	assert.ErrorIs(t, err, ErrInvalidConfig)
	assert.Nil(t, c)
}

func TestNew_Disabled(t *testing.T) {
	t.Parallel()

	c, err := New(&config.CacheConfig{Enabled: false}, observability.NopLogger())
	require.NoError(t, err)
	require.NotNil(t, c)

	ctx := context.Background()

	_, err = c.Get(ctx, "GET:/index.php?p=detail&id=42")
	assert.ErrorIs(t, err, ErrCacheDisabled)

	err = c.Set(ctx, "GET:/index.php?p=detail&id=42", []byte("<html>"), time.Minute)
	assert.ErrorIs(t, err, ErrCacheDisabled)

	err = c.Delete(ctx, "GET:/index.php?p=detail&id=42")
	assert.ErrorIs(t, err, ErrCacheDisabled)

	exists, err := c.Exists(ctx, "GET:/index.php?p=detail&id=42")
	assert.ErrorIs(t, err, ErrCacheDisabled)
	assert.False(t, exists)

	assert.NoError(t, c.Close())
}

func TestNew_MemoryBackend(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		cacheType string
	}{
		{name: "explicit memory type", cacheType: config.CacheTypeMemory},
		{name: "empty type defaults to memory", cacheType: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c, err := New(&config.CacheConfig{
				Enabled: true,
				Type:    tt.cacheType,
				TTL:     config.Duration(time.Minute),
			}, observability.NopLogger())
			require.NoError(t, err)
			defer func() { _ = c.Close() }()

			_, ok := c.(CacheWithStats)
			assert.True(t, ok, "memory cache should expose stats")
		})
	}
}

func TestNew_RedisBackend(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	c, err := New(&config.CacheConfig{
		Enabled: true,
		Type:    config.CacheTypeRedis,
		TTL:     config.Duration(time.Minute),
		Redis:   &config.RedisConfig{Address: mr.Addr()},
	}, observability.NopLogger())
	require.NoError(t, err)
	defer func() { _ = c.Close() }()

	_, ok := c.(CacheWithStats)
	assert.True(t, ok, "redis cache should expose stats")
}

func TestNew_UnknownType(t *testing.T) {
	t.Parallel()

	c, err := New(&config.CacheConfig{Enabled: true, Type: "disk"}, observability.NopLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown cache type: disk")
	assert.Nil(t, c)
}

func TestNew_NilLogger(t *testing.T) {
	t.Parallel()

	c, err := New(&config.CacheConfig{Enabled: true, Type: config.CacheTypeMemory}, nil)
	require.NoError(t, err)
	defer func() { _ = c.Close() }()

	err = c.Set(context.Background(), "GET:/index.php?p=search", []byte("page"), time.Minute)
	assert.NoError(t, err)
}

func TestCacheStats_HitRate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		stats    CacheStats
		expected float64
	}{
		{
			name:     "no traffic",
			stats:    CacheStats{},
			expected: 0,
		},
		{
			name:     "three hits one miss",
			stats:    CacheStats{Hits: 3, Misses: 1},
			expected: 75,
		},
		{
			name:     "all misses",
			stats:    CacheStats{Misses: 2},
			expected: 0,
		},
		{
			name:     "all hits",
			stats:    CacheStats{Hits: 10},
			expected: 100,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.InDelta(t, tt.expected, tt.stats.HitRate(), 0.001)
		})
	}
}

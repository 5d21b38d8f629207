package cache

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/huhujiaju123-lab/bedding-inventory-calculator/internal/config"
	"github.com/huhujiaju123-lab/bedding-inventory-calculator/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKey(t *testing.T) {
	a := Key("inventory", []byte("abc"))
	b := Key("inventory", []byte("abc"))
	c := Key("sku mapping", []byte("abc"))
	d := Key("inventory", []byte("abc"), "商品名称", "可用数")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.NotEqual(t, a, d)
	assert.True(t, strings.HasPrefix(c, tableKeyPrefix+"sku_mapping:"))
}

func TestMemoryTableCache(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryTableCache(time.Minute)

	var rows []domain.InventoryRow
	ok, err := c.Get(ctx, "k", &rows)
	require.NoError(t, err)
	assert.False(t, ok)

	want := []domain.InventoryRow{{Label: "被套200*230-米白四季款", Available: 3}}
	require.NoError(t, c.Set(ctx, "k", want))

	ok, err = c.Get(ctx, "k", &rows)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, want, rows)

	require.NoError(t, c.InvalidateAll(ctx))
	assert.Zero(t, c.Len())
}

func TestMemoryTableCache_Expiry(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryTableCache(time.Minute)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set(ctx, "k", map[string]float64{"a": 0.5}))

	now = now.Add(2 * time.Minute)
	var got map[string]float64
	ok, err := c.Get(ctx, "k", &got)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Zero(t, c.Len())
}

func TestNewTableCache(t *testing.T) {
	c, err := NewTableCache(config.CacheConfig{Enabled: false})
	require.NoError(t, err)
	assert.IsType(t, &noopTableCache{}, c)

	c, err = NewTableCache(config.CacheConfig{Enabled: true, Backend: config.CacheBackendMemory})
	require.NoError(t, err)
	assert.IsType(t, &MemoryTableCache{}, c)

	_, err = NewTableCache(config.CacheConfig{Enabled: true, Backend: "memcached"})
	assert.Error(t, err)
}

func TestBuildRedisOptions(t *testing.T) {
	opts, err := buildRedisOptions(config.CacheConfig{RedisHost: "cache", RedisPort: "6380", RedisDB: 2})
	require.NoError(t, err)
	assert.Equal(t, "cache:6380", opts.Addr)
	assert.Equal(t, 2, opts.DB)

	opts, err = buildRedisOptions(config.CacheConfig{RedisURL: "redis://:secret@example.com:6379/1"})
	require.NoError(t, err)
	assert.Equal(t, "example.com:6379", opts.Addr)
	assert.Equal(t, "secret", opts.Password)
	assert.Equal(t, 1, opts.DB)

	_, err = buildRedisOptions(config.CacheConfig{RedisURL: "http://nope"})
	assert.Error(t, err)
}

package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/huhujiaju123-lab/bedding-inventory-calculator/internal/config"
	"github.com/redis/go-redis/v9"
)

const tableKeyPrefix = "bedding:tables:"

// TableCache memoizes decoded input tables keyed by table kind and the hash
// of the source bytes. Entries are only dropped by TTL or InvalidateAll.
type TableCache interface {
	// Get decodes the cached value for key into dst and reports whether it
	// was present.
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, value any) error
	InvalidateAll(ctx context.Context) error
}

// Key builds the cache key of a table kind decoded from data. params
// distinguishes decodes of the same bytes with different settings.
func Key(kind string, data []byte, params ...string) string {
	h := sha1.New()
	h.Write(data)
	for _, p := range params {
		h.Write([]byte{0})
		h.Write([]byte(p))
	}
	return tableKeyPrefix + strings.ReplaceAll(kind, " ", "_") + ":" + hex.EncodeToString(h.Sum(nil))
}

// NewTableCache returns the configured cache: noop when disabled, redis when
// the backend is redis, otherwise an in-process map.
func NewTableCache(cfg config.CacheConfig) (TableCache, error) {
	if !cfg.Enabled {
		return NewNoopTableCache(), nil
	}

	switch cfg.Backend {
	case config.CacheBackendRedis:
		client, err := newRedisClient(cfg)
		if err != nil {
			return nil, err
		}
		return &redisTableCache{client: client, ttl: cacheTTL(cfg)}, nil
	case "", config.CacheBackendMemory:
		return NewMemoryTableCache(cacheTTL(cfg)), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}

type redisTableCache struct {
	client *redis.Client
	ttl    time.Duration
}

func (c *redisTableCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	payload, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis get failed: %w", err)
	}

	if err := json.Unmarshal(payload, dst); err != nil {
		return false, fmt.Errorf("decode table cache: %w", err)
	}
	return true, nil
}

func (c *redisTableCache) Set(ctx context.Context, key string, value any) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode table cache: %w", err)
	}

	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (c *redisTableCache) InvalidateAll(ctx context.Context) error {
	return deleteKeysWithPrefix(ctx, c.client, tableKeyPrefix, scanBatchSize)
}

type memoryEntry struct {
	payload []byte
	expires time.Time
}

// MemoryTableCache keeps JSON payloads in process memory.
type MemoryTableCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewMemoryTableCache returns an empty in-process cache.
func NewMemoryTableCache(ttl time.Duration) *MemoryTableCache {
	return &MemoryTableCache{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (c *MemoryTableCache) Get(_ context.Context, key string, dst any) (bool, error) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if c.ttl > 0 && c.now().After(e.expires) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return false, nil
	}

	if err := json.Unmarshal(e.payload, dst); err != nil {
		return false, fmt.Errorf("decode table cache: %w", err)
	}
	return true, nil
}

func (c *MemoryTableCache) Set(_ context.Context, key string, value any) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode table cache: %w", err)
	}

	c.mu.Lock()
	c.entries[key] = memoryEntry{payload: payload, expires: c.now().Add(c.ttl)}
	c.mu.Unlock()
	return nil
}

func (c *MemoryTableCache) InvalidateAll(context.Context) error {
	c.mu.Lock()
	c.entries = make(map[string]memoryEntry)
	c.mu.Unlock()
	return nil
}

// Len returns the number of stored entries, expired ones included.
func (c *MemoryTableCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

type noopTableCache struct{}

// NewNoopTableCache returns a cache that never stores anything.
func NewNoopTableCache() TableCache {
	return &noopTableCache{}
}

func (n *noopTableCache) Get(context.Context, string, any) (bool, error) {
	return false, nil
}

func (n *noopTableCache) Set(context.Context, string, any) error {
	return nil
}

func (n *noopTableCache) InvalidateAll(context.Context) error {
	return nil
}

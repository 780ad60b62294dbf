package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache provides JSON caching for upstream payloads
// ⭐ SSOT: 캐시 헬퍼는 여기서만
type Cache struct {
	client *Client
	prefix string
}

// NewCache creates a new cache helper
func NewCache(client *Client, prefix string) *Cache {
	return &Cache{
		client: client,
		prefix: prefix,
	}
}

func (c *Cache) key(key string) string {
	return fmt.Sprintf("%s:cache:%s", c.prefix, key)
}

// Get retrieves a cached value. A miss is (false, nil).
func (c *Cache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if !c.client.Enabled() {
		return false, nil
	}

	data, err := c.client.rdb.Get(ctx, c.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("cache get %s: %w", key, err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("cache unmarshal failed: %w", err)
	}

	return true, nil
}

// Set stores a value in cache with TTL
func (c *Cache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if !c.client.Enabled() {
		return nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache marshal failed: %w", err)
	}

	return c.client.rdb.Set(ctx, c.key(key), data, ttl).Err()
}

// Delete removes a cached value
func (c *Cache) Delete(ctx context.Context, key string) error {
	if !c.client.Enabled() {
		return nil
	}

	return c.client.rdb.Del(ctx, c.key(key)).Err()
}

// DeletePrefix removes every cached value whose key starts with prefix
// and returns how many were dropped
func (c *Cache) DeletePrefix(ctx context.Context, prefix string) (int, error) {
	if !c.client.Enabled() {
		return 0, nil
	}

	var keys []string
	iter := c.client.rdb.Scan(ctx, 0, c.key(prefix)+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return 0, fmt.Errorf("cache scan %s: %w", prefix, err)
	}
	if len(keys) == 0 {
		return 0, nil
	}

	n, err := c.client.rdb.Del(ctx, keys...).Result()
	if err != nil {
		return 0, fmt.Errorf("cache delete %s: %w", prefix, err)
	}
	return int(n), nil
}

// GetOrSet retrieves from cache or calls fn to populate it.
// A failed write still fills dest from fn's value.
func (c *Cache) GetOrSet(ctx context.Context, key string, dest interface{}, ttl time.Duration, fn func() (interface{}, error)) error {
	found, err := c.Get(ctx, key, dest)
	if err != nil {
		return err
	}
	if found {
		return nil
	}

	value, err := fn()
	if err != nil {
		return err
	}

	_ = c.Set(ctx, key, value, ttl)

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache marshal failed: %w", err)
	}
	return json.Unmarshal(data, dest)
}

// Predefined TTLs
const (
	TTLMedium = 30 * time.Minute // 선수 풀 (bootstrap-static)
	TTLLong   = 6 * time.Hour    // 경기 일정
	TTLDaily  = 24 * time.Hour   // 종료된 라운드 (라이브 스탯, 라운드별 경기)
)

// BootstrapKey is the cache key of the bootstrap-static payload
func BootstrapKey() string {
	return "fpl:bootstrap"
}

// FixturesKey is the cache key of the fixture list
func FixturesKey() string {
	return "fpl:fixtures"
}

// FixtureMapPrefix is the common prefix of every derived fixture map key
func FixtureMapPrefix() string {
	return "fpl:fixturemap:"
}

// FixtureMapKey is the cache key of a derived fixture map
func FixtureMapKey(fromGameweek, horizon int, source string) string {
	return fmt.Sprintf("%sgw%d:h%d:%s", FixtureMapPrefix(), fromGameweek, horizon, source)
}

// EventLiveKey is the cache key of one gameweek's live player stats
func EventLiveKey(gameweek int) string {
	return fmt.Sprintf("fpl:live:gw%d", gameweek)
}

// EventFixturesKey is the cache key of one gameweek's fixtures
func EventFixturesKey(gameweek int) string {
	return fmt.Sprintf("fpl:fixtures:gw%d", gameweek)
}

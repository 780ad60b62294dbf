package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wonny/fpl-squad/backend/pkg/config"
)

const pingTimeout = 3 * time.Second

// Client is the shared Redis handle for the payload cache and the rate limiter.
// A disabled client makes every helper a pass-through.
// ⭐ SSOT: Redis 연결은 여기서만 관리
type Client struct {
	rdb *redis.Client
}

// New connects to Redis when REDIS_ENABLED is set, otherwise returns Disabled()
func New(ctx context.Context, cfg *config.Config) (*Client, error) {
	if !cfg.Redis.Enabled {
		return Disabled(), nil
	}

	opts, err := options(cfg.Redis)
	if err != nil {
		return nil, err
	}

	c := &Client{rdb: redis.NewClient(opts)}
	if err := c.HealthCheck(ctx); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}
	return c, nil
}

// options prefers REDIS_URL over the host/port fields
func options(cfg config.RedisConfig) (*redis.Options, error) {
	if cfg.URL != "" {
		opts, err := redis.ParseURL(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
		}
		return opts, nil
	}
	return &redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	}, nil
}

// Disabled returns a client without a connection
func Disabled() *Client {
	return &Client{}
}

// Enabled reports whether a connection exists
func (c *Client) Enabled() bool {
	return c != nil && c.rdb != nil
}

// HealthCheck pings the server. A disabled client is always healthy.
func (c *Client) HealthCheck(ctx context.Context) error {
	if !c.Enabled() {
		return nil
	}
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return c.rdb.Ping(pingCtx).Err()
}

// Close closes the connection, if any
func (c *Client) Close() error {
	if !c.Enabled() {
		return nil
	}
	return c.rdb.Close()
}

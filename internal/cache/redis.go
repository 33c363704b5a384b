package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/shipflow-next/internal/config"
	"github.com/shipflow-next/internal/logger"

	"github.com/redis/go-redis/v9"
)

// Client wraps the redis connection with key prefixing. A nil Client is a
// valid no-op handle for deployments without redis.
type Client struct {
	rdb    *redis.Client
	prefix string
}

// New connects to redis per config; returns nil when disabled or
// unreachable so callers degrade gracefully.
func New(cfg config.RedisConfig) *Client {
	if !cfg.Enabled {
		return nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Warnw("redis_unavailable", "addr", rdb.Options().Addr, "error", err)
		return nil
	}
	return &Client{rdb: rdb, prefix: cfg.Prefix}
}

func (c *Client) key(parts ...string) string {
	key := c.prefix
	for _, part := range parts {
		key += ":" + part
	}
	return key
}

// IncrWindow increments a windowed counter, setting the expiry on first
// increment. Returns the counter value.
func (c *Client) IncrWindow(ctx context.Context, window time.Duration, parts ...string) (int64, error) {
	if c == nil {
		return 0, nil
	}
	key := c.key(parts...)
	count, err := c.rdb.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if count == 1 {
		if err := c.rdb.Expire(ctx, key, window).Err(); err != nil {
			return count, err
		}
	}
	return count, nil
}

// SetBlock flags a key for a block period.
func (c *Client) SetBlock(ctx context.Context, duration time.Duration, parts ...string) error {
	if c == nil {
		return nil
	}
	return c.rdb.Set(ctx, c.key(parts...), "1", duration).Err()
}

// IsBlocked reports whether a block flag is live.
func (c *Client) IsBlocked(ctx context.Context, parts ...string) (bool, error) {
	if c == nil {
		return false, nil
	}
	n, err := c.rdb.Exists(ctx, c.key(parts...)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Close releases the connection.
func (c *Client) Close() error {
	if c == nil {
		return nil
	}
	return c.rdb.Close()
}

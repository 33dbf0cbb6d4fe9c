package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/vantage-quant/vantage/pkg/config"
	"github.com/vantage-quant/vantage/pkg/logger"
)

// Client wraps the go-redis client. When Redis is disabled in config the
// client is still constructible and Enabled() reports false, so callers
// can degrade to direct database reads.
type Client struct {
	rdb     *goredis.Client
	enabled bool
	log     *logger.Logger
}

// New creates a Redis client. Connectivity problems are logged, not
// fatal: the cache is an optimization, not a dependency.
func New(ctx context.Context, cfg *config.Config, log *logger.Logger) *Client {
	if !cfg.Redis.Enabled {
		log.Info("redis disabled, cache bypassed")
		return &Client{enabled: false, log: log}
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		log.WithError(err).Warn("redis unreachable, cache bypassed")
		return &Client{enabled: false, log: log}
	}

	log.WithField("addr", cfg.Redis.Addr).Info("redis connected")
	return &Client{rdb: rdb, enabled: true, log: log}
}

// Enabled reports whether the cache is usable.
func (c *Client) Enabled() bool {
	return c.enabled
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	if c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}

// Get returns the raw value for key.
func (c *Client) Get(ctx context.Context, key string) (string, error) {
	if !c.enabled {
		return "", goredis.Nil
	}
	return c.rdb.Get(ctx, key).Result()
}

// Set stores value under key with a TTL.
func (c *Client) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if !c.enabled {
		return nil
	}
	if err := c.rdb.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis: set %s: %w", key, err)
	}
	return nil
}

// Delete removes keys.
func (c *Client) Delete(ctx context.Context, keys ...string) error {
	if !c.enabled || len(keys) == 0 {
		return nil
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis: delete: %w", err)
	}
	return nil
}

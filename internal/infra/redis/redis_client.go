package redis

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"

	"telegram-fish-shop/internal/config"
	"telegram-fish-shop/internal/infra/metrics"
)

// Nil is returned by Get for a missing key.
const Nil = redis.Nil

type RedisClient interface {
	Ping(ctx context.Context) error
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Incr(ctx context.Context, key string) (int64, error)
	Expire(ctx context.Context, key string, expiration time.Duration) error
	Del(ctx context.Context, keys ...string) error
	Close() error
}

var _ RedisClient = (*redClient)(nil)

type redClient struct {
	cli *redis.Client
}

// NewClient accepts either host:port or a redis:// URL.
func NewClient(ctx context.Context, cfg *config.RedisConfig) (RedisClient, error) {
	opts := &redis.Options{
		Addr:     cfg.URL,
		Password: cfg.Password,
		DB:       cfg.DB,
	}
	if strings.HasPrefix(cfg.URL, "redis://") || strings.HasPrefix(cfg.URL, "rediss://") {
		parsed, err := redis.ParseURL(cfg.URL)
		if err != nil {
			return nil, err
		}
		if cfg.Password != "" {
			parsed.Password = cfg.Password
		}
		if cfg.DB != 0 {
			parsed.DB = cfg.DB
		}
		opts = parsed
	}
	c := redis.NewClient(opts)
	if err := c.Ping(ctx).Err(); err != nil {
		_ = c.Close()
		return nil, err
	}
	return &redClient{cli: c}, nil
}

func (c *redClient) Ping(ctx context.Context) error {
	return observe("ping", c.cli.Ping(ctx).Err())
}

func (c *redClient) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return observe("set", c.cli.Set(ctx, key, value, expiration).Err())
}

// Get returns Nil for a missing key; that counts as a miss, not an error.
func (c *redClient) Get(ctx context.Context, key string) (string, error) {
	v, err := c.cli.Get(ctx, key).Result()
	return v, observe("get", err)
}

func (c *redClient) Incr(ctx context.Context, key string) (int64, error) {
	n, err := c.cli.Incr(ctx, key).Result()
	return n, observe("incr", err)
}

func (c *redClient) Expire(ctx context.Context, key string, expiration time.Duration) error {
	return observe("expire", c.cli.Expire(ctx, key, expiration).Err())
}

func (c *redClient) Del(ctx context.Context, keys ...string) error {
	return observe("del", c.cli.Del(ctx, keys...).Err())
}

func (c *redClient) Close() error { return c.cli.Close() }

func observe(cmd string, err error) error {
	switch {
	case err == nil:
		metrics.IncRedisCommand(cmd, "ok")
	case errors.Is(err, redis.Nil):
		metrics.IncRedisCommand(cmd, "miss")
	default:
		metrics.IncRedisCommand(cmd, "error")
	}
	return err
}

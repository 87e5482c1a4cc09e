// Package redis provides the Redis-backed notification state: the delivery
// ledger that enforces rolling daily caps and the dedup index that suppresses
// repeat alerts.  Both survive process restarts, which the in-memory
// equivalents do not.
package redis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/turtacn/KeyIP-Sentinel/internal/config"
	"github.com/turtacn/KeyIP-Sentinel/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/KeyIP-Sentinel/pkg/errors"
)

const (
	defaultPoolSize     = 10
	defaultDialTimeout  = 5 * time.Second
	defaultReadTimeout  = 3 * time.Second
	defaultWriteTimeout = 3 * time.Second
	defaultKeyPrefix    = "sentinel"
)

// Client wraps the go-redis client with key prefixing so several deployments
// can share one Redis instance without colliding.
type Client struct {
	rdb    redis.UniversalClient
	prefix string
	logger logging.Logger
}

// NewClient connects to Redis and verifies the connection with a ping.
func NewClient(cfg config.RedisConfig, logger logging.Logger) (*Client, error) {
	if cfg.PoolSize <= 0 {
		cfg.PoolSize = defaultPoolSize
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = defaultDialTimeout
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = defaultReadTimeout
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = defaultWriteTimeout
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), cfg.DialTimeout)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, errors.Wrap(err, errors.ErrCodeCacheError,
			fmt.Sprintf("redis: connect to %s failed", cfg.Addr))
	}

	c := newClientWith(rdb, cfg.KeyPrefix, logger)
	logger.Info("redis connected",
		logging.String("addr", cfg.Addr),
		logging.Int("db", cfg.DB),
		logging.String("key_prefix", c.prefix))
	return c, nil
}

func newClientWith(rdb redis.UniversalClient, prefix string, logger logging.Logger) *Client {
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Client{
		rdb:    rdb,
		prefix: strings.TrimSuffix(prefix, ":"),
		logger: logger,
	}
}

// key joins parts under the configured prefix: "sentinel:ledger:<id>".
func (c *Client) key(parts ...string) string {
	return c.prefix + ":" + strings.Join(parts, ":")
}

// Ping reports connection health; the readiness probe calls it.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.rdb.Ping(ctx).Err(); err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "redis: ping failed")
	}
	return nil
}

// Close releases the connection pool.
func (c *Client) Close() error {
	return c.rdb.Close()
}

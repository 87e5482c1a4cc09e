// Package postgres manages the PostgreSQL connection pool and schema
// migrations for durable deployments.  Repository implementations live in the
// repositories subpackage.
package postgres

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/turtacn/KeyIP-Sentinel/internal/config"
	"github.com/turtacn/KeyIP-Sentinel/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/KeyIP-Sentinel/pkg/errors"
)

const (
	defaultMaxConns    = 25
	defaultMinConns    = 2
	defaultMaxLifetime = 30 * time.Minute
	defaultMaxIdleTime = 5 * time.Minute
	connectTimeout     = 10 * time.Second
)

// Connection owns a pgx connection pool.
type Connection struct {
	pool   *pgxpool.Pool
	logger logging.Logger
}

// NewConnection opens and verifies a pool against the configured database.
func NewConnection(ctx context.Context, cfg config.DatabaseConfig, logger logging.Logger) (*Connection, error) {
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	poolCfg, err := pgxpool.ParseConfig(BuildDSN(cfg))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "postgres: parse config failed")
	}
	poolCfg.MaxConns = int32(cfg.MaxConns)
	if cfg.MaxConns <= 0 {
		poolCfg.MaxConns = defaultMaxConns
	}
	poolCfg.MinConns = int32(cfg.MinConns)
	if cfg.MinConns <= 0 {
		poolCfg.MinConns = defaultMinConns
	}
	poolCfg.MaxConnLifetime = cfg.ConnMaxLifetime
	if cfg.ConnMaxLifetime <= 0 {
		poolCfg.MaxConnLifetime = defaultMaxLifetime
	}
	poolCfg.MaxConnIdleTime = cfg.ConnMaxIdleTime
	if cfg.ConnMaxIdleTime <= 0 {
		poolCfg.MaxConnIdleTime = defaultMaxIdleTime
	}

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	pool, err := pgxpool.NewWithConfig(pingCtx, poolCfg)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "postgres: open pool failed")
	}
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError,
			fmt.Sprintf("postgres: connect to %s:%d failed", cfg.Host, cfg.Port))
	}

	logger.Info("postgres connected",
		logging.String("host", cfg.Host),
		logging.Int("port", cfg.Port),
		logging.String("database", cfg.DBName))
	return &Connection{pool: pool, logger: logger}, nil
}

// Pool exposes the underlying pgx pool for repository construction.
func (c *Connection) Pool() *pgxpool.Pool { return c.pool }

// Ping reports connection health; the readiness probe calls it.
func (c *Connection) Ping(ctx context.Context) error {
	if err := c.pool.Ping(ctx); err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "postgres: ping failed")
	}
	return nil
}

// Close drains the pool.
func (c *Connection) Close() {
	c.pool.Close()
}

// BuildDSN renders a postgres URL from the configuration.
func BuildDSN(cfg config.DatabaseConfig) string {
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Path:     "/" + cfg.DBName,
		RawQuery: "sslmode=" + sslMode,
	}
	return u.String()
}

// Package config defines all configuration structures for the KeyIP-Sentinel
// monitoring engine.  No I/O or parsing logic lives here — only plain data
// types and validation.
package config

import (
	"fmt"
	"time"
)

// ─────────────────────────────────────────────────────────────────────────────
// Sub-configuration structs
// ─────────────────────────────────────────────────────────────────────────────

// ServerConfig holds HTTP server tunables.
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"` // "debug" | "release" | "test"
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	MaxBodySize     int64         `mapstructure:"max_body_size"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig holds PostgreSQL connection parameters.  When Enabled is
// false the engine runs on in-memory stores, which is the default for
// development and tests.
type DatabaseConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"db_name"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxConns        int           `mapstructure:"max_conns"`
	MinConns        int           `mapstructure:"min_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	MigrationPath   string        `mapstructure:"migration_path"`
}

// RedisConfig holds Redis connection parameters.  Redis backs the delivery
// ledger that enforces rolling daily notification caps; when Enabled is false
// an in-process ledger is used instead.
type RedisConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Addr         string        `mapstructure:"addr"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	KeyPrefix    string        `mapstructure:"key_prefix"`
}

// KafkaConfig holds Apache Kafka consumer/producer parameters.  Kafka serves
// two roles: the patent-event feed consumed by the schedulers, and the topic
// that carries generated alerts downstream.
type KafkaConfig struct {
	Brokers         []string `mapstructure:"brokers"`
	GroupID         string   `mapstructure:"group_id"`
	EventTopic      string   `mapstructure:"event_topic"`
	AlertTopic      string   `mapstructure:"alert_topic"`
	AutoOffsetReset string   `mapstructure:"auto_offset_reset"` // "earliest" | "latest"
	TimeoutMS       int      `mapstructure:"timeout_ms"`
	ProducerRetries int      `mapstructure:"producer_retries"`
	BatchSize       int      `mapstructure:"batch_size"`
}

// EventSourceConfig selects and tunes the patent-event source polled by the
// per-watchlist schedulers.
type EventSourceConfig struct {
	// Provider selects the adapter: "kafka" consumes the event topic,
	// "http" polls an upstream registry API, "static" replays a fixture
	// file and exists for demos and integration tests.
	Provider string        `mapstructure:"provider"`
	BaseURL  string        `mapstructure:"base_url"`
	APIKey   string        `mapstructure:"api_key"`
	Timeout  time.Duration `mapstructure:"timeout"`
	PageSize int           `mapstructure:"page_size"`
	// FixturePath is the JSON file replayed by the "static" provider.
	FixturePath string `mapstructure:"fixture_path"`
}

// SchedulerConfig holds per-watchlist polling parameters.
type SchedulerConfig struct {
	// DefaultInterval is the poll cadence applied when a watchlist does not
	// carry its own interval.
	DefaultInterval time.Duration `mapstructure:"default_interval"`
	// MinInterval is the floor applied to watchlist-supplied intervals so a
	// misconfigured watchlist cannot hot-loop against the event source.
	MinInterval time.Duration `mapstructure:"min_interval"`
	// MaxConcurrentPolls caps how many watchlist polls may run at once.
	MaxConcurrentPolls int `mapstructure:"max_concurrent_polls"`
	// DedupWindow is how long a (watchlist, patent) pair suppresses duplicate
	// alerts.  A negative value disables deduplication; zero means "use the
	// engine default" (zero cannot be distinguished from unset after
	// unmarshalling).
	DedupWindow time.Duration `mapstructure:"dedup_window"`
	// PollTimeout bounds a single poll cycle against the event source.
	PollTimeout time.Duration `mapstructure:"poll_timeout"`
}

// SMTPConfig holds outbound email parameters for the email channel.
type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
	// DefaultRecipients receive alert mail unless a rule action targets a
	// specific address.
	DefaultRecipients []string `mapstructure:"default_recipients"`
}

// NotificationConfig holds dispatch-policy and channel parameters.
type NotificationConfig struct {
	SMTP SMTPConfig `mapstructure:"smtp"`
	// PushEndpoint is the HTTP endpoint push notifications are posted to.
	PushEndpoint string `mapstructure:"push_endpoint"`
	// WebhookTimeout bounds a single webhook delivery attempt.
	WebhookTimeout time.Duration `mapstructure:"webhook_timeout"`
	// DefaultDailyCap is the per-watchlist notification ceiling applied when
	// the watchlist does not set its own.  Zero means uncapped.
	DefaultDailyCap int `mapstructure:"default_daily_cap"`
	// DigestFlushInterval is how often buffered digest batches are checked
	// for due delivery.
	DigestFlushInterval time.Duration `mapstructure:"digest_flush_interval"`
	// QuietHoursTimezone is the IANA zone quiet-hour windows are evaluated in.
	QuietHoursTimezone string `mapstructure:"quiet_hours_timezone"`
}

// LogConfig holds structured-logging parameters.
type LogConfig struct {
	Level            string `mapstructure:"level"`  // "debug" | "info" | "warn" | "error"
	Format           string `mapstructure:"format"` // "json" | "console"
	Output           string `mapstructure:"output"`
	EnableCaller     bool   `mapstructure:"enable_caller"`
	EnableStacktrace bool   `mapstructure:"enable_stacktrace"`
}

// MetricsConfig holds Prometheus exposition parameters.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Root Config
// ─────────────────────────────────────────────────────────────────────────────

// Config is the root configuration structure for the monitoring engine.
// Every infrastructure component and application service reads its settings
// from the relevant sub-struct.
type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Database     DatabaseConfig     `mapstructure:"database"`
	Redis        RedisConfig        `mapstructure:"redis"`
	Kafka        KafkaConfig        `mapstructure:"kafka"`
	EventSource  EventSourceConfig  `mapstructure:"event_source"`
	Scheduler    SchedulerConfig    `mapstructure:"scheduler"`
	Notification NotificationConfig `mapstructure:"notification"`
	Log          LogConfig          `mapstructure:"log"`
	Metrics      MetricsConfig      `mapstructure:"metrics"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Validation
// ─────────────────────────────────────────────────────────────────────────────

// Validate performs semantic validation of the fully-populated Config.
// It returns the first error encountered; callers should treat any error as
// fatal and refuse to start the application.
func (c *Config) Validate() error {
	// Server
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port %d is out of range [1, 65535]", c.Server.Port)
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("config: server.mode %q is invalid; expected debug|release|test", c.Server.Mode)
	}

	// Database (only when enabled; memory mode needs nothing)
	if c.Database.Enabled {
		if c.Database.Host == "" {
			return fmt.Errorf("config: database.host is required when database.enabled is true")
		}
		if c.Database.Port < 1 || c.Database.Port > 65535 {
			return fmt.Errorf("config: database.port %d is out of range [1, 65535]", c.Database.Port)
		}
		if c.Database.User == "" {
			return fmt.Errorf("config: database.user is required when database.enabled is true")
		}
		if c.Database.DBName == "" {
			return fmt.Errorf("config: database.db_name is required when database.enabled is true")
		}
		if c.Database.MaxConns < 1 {
			return fmt.Errorf("config: database.max_conns must be >= 1, got %d", c.Database.MaxConns)
		}
	}

	// Redis
	if c.Redis.Enabled {
		if c.Redis.Addr == "" {
			return fmt.Errorf("config: redis.addr is required when redis.enabled is true")
		}
		if c.Redis.DB < 0 {
			return fmt.Errorf("config: redis.db must be >= 0, got %d", c.Redis.DB)
		}
	}

	// Event source
	switch c.EventSource.Provider {
	case "kafka":
		if len(c.Kafka.Brokers) == 0 {
			return fmt.Errorf("config: kafka.brokers must contain at least one broker when event_source.provider is kafka")
		}
		if c.Kafka.EventTopic == "" {
			return fmt.Errorf("config: kafka.event_topic is required when event_source.provider is kafka")
		}
	case "http":
		if c.EventSource.BaseURL == "" {
			return fmt.Errorf("config: event_source.base_url is required when event_source.provider is http")
		}
	case "static":
		if c.EventSource.FixturePath == "" {
			return fmt.Errorf("config: event_source.fixture_path is required when event_source.provider is static")
		}
	default:
		return fmt.Errorf("config: event_source.provider %q is invalid; expected kafka|http|static", c.EventSource.Provider)
	}

	// Scheduler
	if c.Scheduler.DefaultInterval <= 0 {
		return fmt.Errorf("config: scheduler.default_interval must be positive, got %s", c.Scheduler.DefaultInterval)
	}
	if c.Scheduler.MinInterval <= 0 {
		return fmt.Errorf("config: scheduler.min_interval must be positive, got %s", c.Scheduler.MinInterval)
	}
	if c.Scheduler.MinInterval > c.Scheduler.DefaultInterval {
		return fmt.Errorf("config: scheduler.min_interval %s exceeds scheduler.default_interval %s",
			c.Scheduler.MinInterval, c.Scheduler.DefaultInterval)
	}
	if c.Scheduler.MaxConcurrentPolls < 1 {
		return fmt.Errorf("config: scheduler.max_concurrent_polls must be >= 1, got %d", c.Scheduler.MaxConcurrentPolls)
	}

	// Notification
	if c.Notification.DefaultDailyCap < 0 {
		return fmt.Errorf("config: notification.default_daily_cap must be >= 0, got %d", c.Notification.DefaultDailyCap)
	}
	if _, err := time.LoadLocation(c.Notification.QuietHoursTimezone); err != nil {
		return fmt.Errorf("config: notification.quiet_hours_timezone %q is invalid: %w",
			c.Notification.QuietHoursTimezone, err)
	}

	// Log
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: log.level %q is invalid; expected debug|info|warn|error", c.Log.Level)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("config: log.format %q is invalid; expected json|console", c.Log.Format)
	}

	return nil
}

package config

import "time"

// ─────────────────────────────────────────────────────────────────────────────
// Default value constants
// ─────────────────────────────────────────────────────────────────────────────

const (
	DefaultServerPort = 8080
	DefaultServerMode = "debug"

	DefaultDBHost     = "localhost"
	DefaultDBPort     = 5432
	DefaultDBName     = "sentinel"
	DefaultDBMaxConns = 25

	DefaultRedisAddr = "localhost:6379"

	DefaultKafkaBroker     = "localhost:9092"
	DefaultKafkaGroupID    = "sentinel-monitor"
	DefaultKafkaEventTopic = "patent.events"
	DefaultKafkaAlertTopic = "sentinel.alerts"

	DefaultEventSourceProvider = "static"
	DefaultEventSourcePageSize = 100

	DefaultSchedulerInterval    = 60 * time.Second
	DefaultSchedulerMinInterval = 5 * time.Second
	DefaultMaxConcurrentPolls   = 16
	DefaultDedupWindow          = 24 * time.Hour
	DefaultPollTimeout          = 30 * time.Second

	DefaultDailyCap            = 50
	DefaultDigestFlushInterval = time.Minute
	DefaultQuietHoursTimezone  = "UTC"
	DefaultWebhookTimeout      = 10 * time.Second

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	DefaultMetricsPath = "/metrics"
)

// ApplyDefaults fills every zero-value field in cfg with the engine default.
// Fields that have already been set by the caller (non-zero values) are left
// unchanged so that explicit configuration always wins.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	// ── Server ────────────────────────────────────────────────────────────────
	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultServerPort
	}
	if cfg.Server.Mode == "" {
		cfg.Server.Mode = DefaultServerMode
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 15 * time.Second
	}

	// ── Database ──────────────────────────────────────────────────────────────
	if cfg.Database.Host == "" {
		cfg.Database.Host = DefaultDBHost
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = DefaultDBPort
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = DefaultDBName
	}
	if cfg.Database.MaxConns == 0 {
		cfg.Database.MaxConns = DefaultDBMaxConns
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}

	// ── Redis ─────────────────────────────────────────────────────────────────
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = DefaultRedisAddr
	}
	if cfg.Redis.KeyPrefix == "" {
		cfg.Redis.KeyPrefix = "sentinel:"
	}

	// ── Kafka ─────────────────────────────────────────────────────────────────
	if len(cfg.Kafka.Brokers) == 0 {
		cfg.Kafka.Brokers = []string{DefaultKafkaBroker}
	}
	if cfg.Kafka.GroupID == "" {
		cfg.Kafka.GroupID = DefaultKafkaGroupID
	}
	if cfg.Kafka.EventTopic == "" {
		cfg.Kafka.EventTopic = DefaultKafkaEventTopic
	}
	if cfg.Kafka.AlertTopic == "" {
		cfg.Kafka.AlertTopic = DefaultKafkaAlertTopic
	}
	if cfg.Kafka.AutoOffsetReset == "" {
		cfg.Kafka.AutoOffsetReset = "earliest"
	}

	// ── Event source ──────────────────────────────────────────────────────────
	if cfg.EventSource.Provider == "" {
		cfg.EventSource.Provider = DefaultEventSourceProvider
	}
	if cfg.EventSource.Provider == "static" && cfg.EventSource.FixturePath == "" {
		cfg.EventSource.FixturePath = "testdata/events.json"
	}
	if cfg.EventSource.PageSize == 0 {
		cfg.EventSource.PageSize = DefaultEventSourcePageSize
	}
	if cfg.EventSource.Timeout == 0 {
		cfg.EventSource.Timeout = DefaultPollTimeout
	}

	// ── Scheduler ─────────────────────────────────────────────────────────────
	if cfg.Scheduler.DefaultInterval == 0 {
		cfg.Scheduler.DefaultInterval = DefaultSchedulerInterval
	}
	if cfg.Scheduler.MinInterval == 0 {
		cfg.Scheduler.MinInterval = DefaultSchedulerMinInterval
	}
	if cfg.Scheduler.MaxConcurrentPolls == 0 {
		cfg.Scheduler.MaxConcurrentPolls = DefaultMaxConcurrentPolls
	}
	if cfg.Scheduler.DedupWindow == 0 {
		cfg.Scheduler.DedupWindow = DefaultDedupWindow
	}
	if cfg.Scheduler.PollTimeout == 0 {
		cfg.Scheduler.PollTimeout = DefaultPollTimeout
	}

	// ── Notification ──────────────────────────────────────────────────────────
	if cfg.Notification.DefaultDailyCap == 0 {
		cfg.Notification.DefaultDailyCap = DefaultDailyCap
	}
	if cfg.Notification.DigestFlushInterval == 0 {
		cfg.Notification.DigestFlushInterval = DefaultDigestFlushInterval
	}
	if cfg.Notification.QuietHoursTimezone == "" {
		cfg.Notification.QuietHoursTimezone = DefaultQuietHoursTimezone
	}
	if cfg.Notification.WebhookTimeout == 0 {
		cfg.Notification.WebhookTimeout = DefaultWebhookTimeout
	}

	// ── Log ───────────────────────────────────────────────────────────────────
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}

	// ── Metrics ───────────────────────────────────────────────────────────────
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = DefaultMetricsPath
	}
}

// Package config provides configuration loading, defaults, and validation for
// the KeyIP-Sentinel monitoring engine.
package config

import (
	"fmt"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// envPrefix is the environment variable prefix used by all engine settings.
const envPrefix = "SENTINEL"

// configKeys lists every key Unmarshal should consider.  Viper only surfaces
// environment variables for keys it already knows about, so each key is bound
// explicitly; without this, env-only deployments would silently lose settings.
var configKeys = []string{
	"server.port", "server.mode", "server.read_timeout", "server.write_timeout",
	"server.max_body_size", "server.shutdown_timeout",
	"database.enabled", "database.host", "database.port", "database.user",
	"database.password", "database.db_name", "database.ssl_mode",
	"database.max_conns", "database.min_conns", "database.conn_max_lifetime",
	"database.conn_max_idle_time", "database.migration_path",
	"redis.enabled", "redis.addr", "redis.password", "redis.db",
	"redis.pool_size", "redis.min_idle_conns", "redis.dial_timeout",
	"redis.read_timeout", "redis.write_timeout", "redis.key_prefix",
	"kafka.brokers", "kafka.group_id", "kafka.event_topic", "kafka.alert_topic",
	"kafka.auto_offset_reset", "kafka.timeout_ms", "kafka.producer_retries",
	"kafka.batch_size",
	"event_source.provider", "event_source.base_url", "event_source.api_key",
	"event_source.timeout", "event_source.page_size", "event_source.fixture_path",
	"scheduler.default_interval", "scheduler.min_interval",
	"scheduler.max_concurrent_polls", "scheduler.dedup_window", "scheduler.poll_timeout",
	"notification.smtp.host", "notification.smtp.port", "notification.smtp.user",
	"notification.smtp.password", "notification.smtp.from",
	"notification.push_endpoint", "notification.webhook_timeout",
	"notification.default_daily_cap", "notification.digest_flush_interval",
	"notification.quiet_hours_timezone",
	"log.level", "log.format", "log.output", "log.enable_caller", "log.enable_stacktrace",
	"metrics.enabled", "metrics.path",
}

// newViper builds a pre-configured Viper instance with the engine's standard
// settings: YAML file type, SENTINEL_ env prefix, automatic env binding, and a
// key replacer that maps "." → "_" so that nested keys like "database.host"
// resolve to "SENTINEL_DATABASE_HOST".
func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, key := range configKeys {
		_ = v.BindEnv(key)
	}
	return v
}

// Load reads the YAML file at configPath, merges any SENTINEL_* environment
// variable overrides, applies engine defaults for unset fields, and
// validates the result.  It returns a fully-populated *Config or a
// descriptive error.
func Load(configPath string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: failed to read config file %q: %w", configPath, err)
	}

	return unmarshalAndFinalize(v)
}

// LoadFromEnv builds a Config entirely from SENTINEL_* environment variables,
// with no config file required.  This is the preferred loading strategy for
// containerised (12-factor) deployments.
//
// Environment variable naming convention:
//
//	SENTINEL_<SECTION>_<FIELD>   e.g.  SENTINEL_DATABASE_HOST, SENTINEL_REDIS_ADDR
func LoadFromEnv() (*Config, error) {
	v := newViper()
	// No config file — rely solely on env vars and defaults.
	return unmarshalAndFinalize(v)
}

// unmarshalAndFinalize unmarshals viper state into a Config struct, applies
// defaults, and validates the result.
func unmarshalAndFinalize(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to unmarshal configuration: %w", err)
	}

	ApplyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validation failed: %w", err)
	}

	return cfg, nil
}

// Watch monitors configPath for changes and invokes onChange with the newly
// parsed Config whenever the file is modified on disk.  It is intended for
// hot-reloading non-critical settings such as log level and dispatch caps;
// callers are responsible for applying only the safe subset of changes at
// runtime.
//
// Watch is non-blocking; it starts a background goroutine managed by viper.
// If the changed file fails to parse or validate, onChange is NOT called.
func Watch(configPath string, onChange func(*Config)) {
	v := newViper()
	v.SetConfigFile(configPath)

	// Initial read; errors are ignored here since callers call Load first.
	_ = v.ReadInConfig()

	v.WatchConfig()
	v.OnConfigChange(func(_ fsnotify.Event) {
		cfg, err := unmarshalAndFinalize(v)
		if err != nil {
			// Config change produced an invalid config; skip the callback to
			// prevent the engine from entering a broken state.
			return
		}
		onChange(cfg)
	})
}

// MustLoad is a convenience wrapper around Load that panics on any error.
// It is intended for use in main() where a config-load failure is always fatal.
func MustLoad(configPath string) *Config {
	cfg, err := Load(configPath)
	if err != nil {
		panic(fmt.Sprintf("config: MustLoad failed: %v", err))
	}
	return cfg
}

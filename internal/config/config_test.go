package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

func TestValidate_DefaultsAreValid(t *testing.T) {
	cfg := validConfig()
	assert.NoError(t, cfg.Validate())
}

func TestValidate_ServerPortOutOfRange(t *testing.T) {
	cfg := validConfig()
	cfg.Server.Port = 70000
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.port")
}

func TestValidate_ServerModeInvalid(t *testing.T) {
	cfg := validConfig()
	cfg.Server.Mode = "production"
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.mode")
}

func TestValidate_DatabaseSkippedWhenDisabled(t *testing.T) {
	cfg := validConfig()
	cfg.Database.Enabled = false
	cfg.Database.Host = ""
	cfg.Database.User = ""
	assert.NoError(t, cfg.Validate())
}

func TestValidate_DatabaseRequiredWhenEnabled(t *testing.T) {
	cfg := validConfig()
	cfg.Database.Enabled = true
	cfg.Database.User = ""
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database.user")
}

func TestValidate_RedisAddrRequiredWhenEnabled(t *testing.T) {
	cfg := validConfig()
	cfg.Redis.Enabled = true
	cfg.Redis.Addr = ""
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis.addr")
}

func TestValidate_EventSourceProviderInvalid(t *testing.T) {
	cfg := validConfig()
	cfg.EventSource.Provider = "ftp"
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "event_source.provider")
}

func TestValidate_KafkaProviderRequiresEventTopic(t *testing.T) {
	cfg := validConfig()
	cfg.EventSource.Provider = "kafka"
	cfg.Kafka.EventTopic = ""
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "kafka.event_topic")
}

func TestValidate_HTTPProviderRequiresBaseURL(t *testing.T) {
	cfg := validConfig()
	cfg.EventSource.Provider = "http"
	cfg.EventSource.BaseURL = ""
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "event_source.base_url")
}

func TestValidate_SchedulerMinExceedsDefault(t *testing.T) {
	cfg := validConfig()
	cfg.Scheduler.MinInterval = 2 * time.Minute
	cfg.Scheduler.DefaultInterval = time.Minute
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scheduler.min_interval")
}

func TestValidate_SchedulerConcurrency(t *testing.T) {
	cfg := validConfig()
	cfg.Scheduler.MaxConcurrentPolls = -3
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max_concurrent_polls")
}

func TestValidate_QuietHoursTimezoneInvalid(t *testing.T) {
	cfg := validConfig()
	cfg.Notification.QuietHoursTimezone = "Mars/Olympus"
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quiet_hours_timezone")
}

func TestValidate_QuietHoursTimezoneNamed(t *testing.T) {
	cfg := validConfig()
	cfg.Notification.QuietHoursTimezone = "America/New_York"
	assert.NoError(t, cfg.Validate())
}

func TestValidate_LogLevelInvalid(t *testing.T) {
	cfg := validConfig()
	cfg.Log.Level = "verbose"
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "log.level")
}

func TestValidate_LogFormatInvalid(t *testing.T) {
	cfg := validConfig()
	cfg.Log.Format = "xml"
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "log.format")
}

func TestValidate_NegativeDailyCap(t *testing.T) {
	cfg := validConfig()
	cfg.Notification.DefaultDailyCap = -1
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "default_daily_cap")
}

func TestValidate_NegativeDedupWindowAllowed(t *testing.T) {
	cfg := validConfig()
	cfg.Scheduler.DedupWindow = -1
	assert.NoError(t, cfg.Validate())
}

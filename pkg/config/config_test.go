package config

import (
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigIsValid(t *testing.T) {
	cfg := NewConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 16*time.Millisecond, cfg.FrameInterval())
	assert.Equal(t, "tcp://localhost:1883", cfg.MQTTAddress())
	assert.Equal(t, "localhost:6379", cfg.RedisAddress())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("DNS_MQTT_BROKER", "broker.lan")
	t.Setenv("DNS_REDIS_PORT", "6380")
	t.Setenv("DNS_POSTGRES_ENABLED", "true")
	t.Setenv("DNS_POSTGRES_CONN_MAX_LIFETIME", "5m")
	t.Setenv("DNS_CLOCK_SOURCE", "solar")
	t.Setenv("DNS_LATITUDE", "35.68")
	t.Setenv("DNS_FRAME_INTERVAL_MS", "notanumber")
	t.Setenv("DNS_CLOCK_OFFSET_MIN", "-90")
	t.Setenv("DNS_MQTT_ANNOUNCE", "false")

	cfg := NewConfig()
	cfg.LoadFromEnv()

	assert.Equal(t, "broker.lan", cfg.MQTTBroker)
	assert.False(t, cfg.MQTTAnnounce)
	assert.Equal(t, 6380, cfg.RedisPort)
	assert.True(t, cfg.PostgresEnabled)
	assert.Equal(t, 5*time.Minute, cfg.PostgresConnMaxLifetime)
	assert.Equal(t, "solar", cfg.ClockSource)
	assert.Equal(t, 35.68, cfg.Latitude)
	assert.Equal(t, 16, cfg.FrameIntervalMs, "unparsable values keep the default")
	assert.Equal(t, -90*time.Minute, cfg.ClockOffset())
	assert.NoError(t, cfg.Validate())
}

func TestRegisterFlags(t *testing.T) {
	cfg := NewConfig()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	cfg.RegisterFlags(fs)

	require.NoError(t, fs.Parse([]string{"--filter", "subtractive", "--clock=virtual", "--state-ttl", "60", "--postgres-enabled"}))

	assert.Equal(t, "subtractive", cfg.FilterStrategy)
	assert.Equal(t, "virtual", cfg.ClockSource)
	assert.Equal(t, 60*time.Second, cfg.StateTTL())
	assert.True(t, cfg.PostgresEnabled)
}

func TestValidate(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty broker", func(c *Config) { c.MQTTBroker = "" }},
		{"bad mqtt port", func(c *Config) { c.MQTTPort = 70000 }},
		{"empty redis host", func(c *Config) { c.RedisHost = "" }},
		{"postgres without host", func(c *Config) { c.PostgresEnabled = true; c.PostgresHost = "" }},
		{"zero frame interval", func(c *Config) { c.FrameIntervalMs = 0 }},
		{"bad log level", func(c *Config) { c.LogLevel = "verbose" }},
		{"bad clock", func(c *Config) { c.ClockSource = "sundial" }},
		{"solar off the globe", func(c *Config) { c.ClockSource = "solar"; c.Latitude = 95 }},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := NewConfig()
			tc.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestPostgresConnectionString(t *testing.T) {
	cfg := NewConfig()
	cfg.PostgresPassword = "secret"
	assert.Equal(t, "host=localhost port=5432 user=dns password=secret dbname=dns sslmode=disable", cfg.PostgresConnectionString())
}

package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/pflag"
)

// Config holds the configuration for the day/night agent and its tools
type Config struct {
	// MQTT configuration
	MQTTBroker   string
	MQTTPort     int
	MQTTUser     string
	MQTTPassword string
	MQTTClientID string
	MQTTAnnounce bool // publish the retained online/offline marker

	// Redis configuration
	RedisHost     string
	RedisPort     int
	RedisPassword string
	RedisDB       int

	// Postgres configuration
	PostgresEnabled            bool
	PostgresHost               string
	PostgresPort               int
	PostgresUser               string
	PostgresPassword           string
	PostgresDB                 string
	PostgresSSLMode            string
	PostgresMaxConnections     int
	PostgresMaxIdleConnections int
	PostgresConnMaxLifetime    time.Duration

	// Service configuration
	ServiceName string
	HealthPort  int
	LogLevel    string

	// Day/night configuration
	TablesPath     string
	FilterStrategy string
	ClockSource    string
	ClockOffsetMin int
	Latitude       float64
	Longitude      float64
	InitialMode    string
	InitialMapType string

	// Frame loop configuration
	FrameIntervalMs         int
	FrameSummaryIntervalSec int
	StateTTLSec             int
	TransitionHistory       int
}

// NewConfig creates a new Config with default values
func NewConfig() *Config {
	return &Config{
		MQTTBroker:    "localhost",
		MQTTPort:      1883,
		MQTTAnnounce:  true,
		RedisHost:     "localhost",
		RedisPort:     6379,
		RedisPassword: "",
		RedisDB:       0,
		// Postgres is optional; history is only recorded when enabled
		PostgresEnabled:            false,
		PostgresHost:               "localhost",
		PostgresPort:               5432,
		PostgresUser:               "dns",
		PostgresDB:                 "dns",
		PostgresSSLMode:            "disable",
		PostgresMaxConnections:     5,
		PostgresMaxIdleConnections: 2,
		PostgresConnMaxLifetime:    30 * time.Minute,
		ServiceName:                "dns-agent",
		HealthPort:                 8080,
		LogLevel:                   "info",
		FilterStrategy:             "proportional",
		ClockSource:                "rtc",
		// Helsinki coordinates for the solar clock
		Latitude:                60.1695,
		Longitude:               24.9354,
		InitialMode:             "overworld",
		InitialMapType:          "route",
		FrameIntervalMs:         16,
		FrameSummaryIntervalSec: 5,
		StateTTLSec:             300,
		TransitionHistory:       50,
	}
}

// LoadFromEnv loads configuration from environment variables with DNS_ prefix
func (c *Config) LoadFromEnv() {
	// MQTT configuration
	if v := os.Getenv("DNS_MQTT_BROKER"); v != "" {
		c.MQTTBroker = v
	}
	if v := os.Getenv("DNS_MQTT_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.MQTTPort = port
		}
	}
	if v := os.Getenv("DNS_MQTT_USER"); v != "" {
		c.MQTTUser = v
	}
	if v := os.Getenv("DNS_MQTT_PASSWORD"); v != "" {
		c.MQTTPassword = v
	}
	if v := os.Getenv("DNS_MQTT_CLIENT_ID"); v != "" {
		c.MQTTClientID = v
	}
	if v := os.Getenv("DNS_MQTT_ANNOUNCE"); v != "" {
		if announce, err := strconv.ParseBool(v); err == nil {
			c.MQTTAnnounce = announce
		}
	}

	// Redis configuration
	if v := os.Getenv("DNS_REDIS_HOST"); v != "" {
		c.RedisHost = v
	}
	if v := os.Getenv("DNS_REDIS_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.RedisPort = port
		}
	}
	if v := os.Getenv("DNS_REDIS_PASSWORD"); v != "" {
		c.RedisPassword = v
	}
	if v := os.Getenv("DNS_REDIS_DB"); v != "" {
		if db, err := strconv.Atoi(v); err == nil {
			c.RedisDB = db
		}
	}

	// Postgres configuration
	if v := os.Getenv("DNS_POSTGRES_ENABLED"); v != "" {
		if enabled, err := strconv.ParseBool(v); err == nil {
			c.PostgresEnabled = enabled
		}
	}
	if v := os.Getenv("DNS_POSTGRES_HOST"); v != "" {
		c.PostgresHost = v
	}
	if v := os.Getenv("DNS_POSTGRES_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.PostgresPort = port
		}
	}
	if v := os.Getenv("DNS_POSTGRES_USER"); v != "" {
		c.PostgresUser = v
	}
	if v := os.Getenv("DNS_POSTGRES_PASSWORD"); v != "" {
		c.PostgresPassword = v
	}
	if v := os.Getenv("DNS_POSTGRES_DB"); v != "" {
		c.PostgresDB = v
	}
	if v := os.Getenv("DNS_POSTGRES_SSLMODE"); v != "" {
		c.PostgresSSLMode = v
	}
	if v := os.Getenv("DNS_POSTGRES_MAX_CONNECTIONS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.PostgresMaxConnections = n
		}
	}
	if v := os.Getenv("DNS_POSTGRES_MAX_IDLE_CONNECTIONS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.PostgresMaxIdleConnections = n
		}
	}
	if v := os.Getenv("DNS_POSTGRES_CONN_MAX_LIFETIME"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.PostgresConnMaxLifetime = d
		}
	}

	// Service configuration
	if v := os.Getenv("DNS_SERVICE_NAME"); v != "" {
		c.ServiceName = v
	}
	if v := os.Getenv("DNS_HEALTH_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.HealthPort = port
		}
	}
	if v := os.Getenv("DNS_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}

	// Day/night configuration
	if v := os.Getenv("DNS_TABLES_PATH"); v != "" {
		c.TablesPath = v
	}
	if v := os.Getenv("DNS_FILTER_STRATEGY"); v != "" {
		c.FilterStrategy = v
	}
	if v := os.Getenv("DNS_CLOCK_SOURCE"); v != "" {
		c.ClockSource = v
	}
	if v := os.Getenv("DNS_CLOCK_OFFSET_MIN"); v != "" {
		if offset, err := strconv.Atoi(v); err == nil {
			c.ClockOffsetMin = offset
		}
	}
	if v := os.Getenv("DNS_LATITUDE"); v != "" {
		if lat, err := strconv.ParseFloat(v, 64); err == nil {
			c.Latitude = lat
		}
	}
	if v := os.Getenv("DNS_LONGITUDE"); v != "" {
		if lon, err := strconv.ParseFloat(v, 64); err == nil {
			c.Longitude = lon
		}
	}
	if v := os.Getenv("DNS_INITIAL_MODE"); v != "" {
		c.InitialMode = v
	}
	if v := os.Getenv("DNS_INITIAL_MAP_TYPE"); v != "" {
		c.InitialMapType = v
	}

	// Frame loop configuration
	if v := os.Getenv("DNS_FRAME_INTERVAL_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil {
			c.FrameIntervalMs = ms
		}
	}
	if v := os.Getenv("DNS_FRAME_SUMMARY_INTERVAL_SEC"); v != "" {
		if sec, err := strconv.Atoi(v); err == nil {
			c.FrameSummaryIntervalSec = sec
		}
	}
	if v := os.Getenv("DNS_STATE_TTL_SEC"); v != "" {
		if sec, err := strconv.Atoi(v); err == nil {
			c.StateTTLSec = sec
		}
	}
	if v := os.Getenv("DNS_TRANSITION_HISTORY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.TransitionHistory = n
		}
	}
}

// LoadFromFlags parses command-line flags and overrides config values
func (c *Config) LoadFromFlags() {
	c.RegisterFlags(pflag.CommandLine)
	pflag.Parse()
}

// RegisterFlags binds every config field to a flag on fs
func (c *Config) RegisterFlags(fs *pflag.FlagSet) {
	// MQTT flags
	fs.StringVar(&c.MQTTBroker, "mqtt-broker", c.MQTTBroker, "MQTT broker hostname")
	fs.IntVar(&c.MQTTPort, "mqtt-port", c.MQTTPort, "MQTT broker port")
	fs.StringVar(&c.MQTTUser, "mqtt-user", c.MQTTUser, "MQTT username")
	fs.StringVar(&c.MQTTPassword, "mqtt-password", c.MQTTPassword, "MQTT password")
	fs.StringVar(&c.MQTTClientID, "mqtt-client-id", c.MQTTClientID, "MQTT client ID")

	// Redis flags
	fs.StringVar(&c.RedisHost, "redis-host", c.RedisHost, "Redis hostname")
	fs.IntVar(&c.RedisPort, "redis-port", c.RedisPort, "Redis port")
	fs.StringVar(&c.RedisPassword, "redis-password", c.RedisPassword, "Redis password")
	fs.IntVar(&c.RedisDB, "redis-db", c.RedisDB, "Redis database number")

	// Postgres flags
	fs.BoolVar(&c.PostgresEnabled, "postgres-enabled", c.PostgresEnabled, "Record phase transitions in Postgres")
	fs.StringVar(&c.PostgresHost, "postgres-host", c.PostgresHost, "Postgres hostname")
	fs.IntVar(&c.PostgresPort, "postgres-port", c.PostgresPort, "Postgres port")
	fs.StringVar(&c.PostgresUser, "postgres-user", c.PostgresUser, "Postgres user")
	fs.StringVar(&c.PostgresPassword, "postgres-password", c.PostgresPassword, "Postgres password")
	fs.StringVar(&c.PostgresDB, "postgres-db", c.PostgresDB, "Postgres database")
	fs.StringVar(&c.PostgresSSLMode, "postgres-sslmode", c.PostgresSSLMode, "Postgres SSL mode")

	// Service flags
	fs.StringVar(&c.ServiceName, "service-name", c.ServiceName, "Service name")
	fs.IntVar(&c.HealthPort, "health-port", c.HealthPort, "Health check HTTP port")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "Log level (debug, info, warn, error)")

	// Day/night flags
	fs.StringVar(&c.TablesPath, "tables", c.TablesPath, "YAML file overriding the built-in DNS tables")
	fs.StringVar(&c.FilterStrategy, "filter", c.FilterStrategy, "Filter strategy (proportional, subtractive)")
	fs.StringVar(&c.ClockSource, "clock", c.ClockSource, "Clock source (rtc, virtual, solar)")
	fs.IntVar(&c.ClockOffsetMin, "clock-offset-min", c.ClockOffsetMin, "Minutes added to the wall clock")
	fs.Float64Var(&c.Latitude, "latitude", c.Latitude, "Latitude for the solar clock")
	fs.Float64Var(&c.Longitude, "longitude", c.Longitude, "Longitude for the solar clock")
	fs.StringVar(&c.InitialMode, "mode", c.InitialMode, "Initial game mode (other, overworld, combat)")
	fs.StringVar(&c.InitialMapType, "map-type", c.InitialMapType, "Initial map type")

	// Frame loop flags
	fs.IntVar(&c.FrameIntervalMs, "frame-interval-ms", c.FrameIntervalMs, "Frame interval in milliseconds")
	fs.IntVar(&c.FrameSummaryIntervalSec, "frame-summary-interval", c.FrameSummaryIntervalSec, "Seconds between frame summaries (0 disables)")
	fs.IntVar(&c.StateTTLSec, "state-ttl", c.StateTTLSec, "TTL of the Redis state snapshot in seconds")
	fs.IntVar(&c.TransitionHistory, "transition-history", c.TransitionHistory, "Phase transitions kept in Redis")
}

// Validate checks that required configuration values are set
func (c *Config) Validate() error {
	if c.MQTTBroker == "" {
		return fmt.Errorf("MQTT broker is required")
	}
	if c.MQTTPort <= 0 || c.MQTTPort > 65535 {
		return fmt.Errorf("MQTT port must be between 1 and 65535")
	}
	if c.RedisHost == "" {
		return fmt.Errorf("Redis host is required")
	}
	if c.RedisPort <= 0 || c.RedisPort > 65535 {
		return fmt.Errorf("Redis port must be between 1 and 65535")
	}
	if c.PostgresEnabled && c.PostgresHost == "" {
		return fmt.Errorf("Postgres host is required when Postgres is enabled")
	}
	if c.HealthPort <= 0 || c.HealthPort > 65535 {
		return fmt.Errorf("Health port must be between 1 and 65535")
	}
	if c.ServiceName == "" {
		return fmt.Errorf("Service name is required")
	}
	if c.FrameIntervalMs <= 0 {
		return fmt.Errorf("frame interval must be positive")
	}
	if c.StateTTLSec < 0 {
		return fmt.Errorf("state TTL must not be negative")
	}

	// Validate log level
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.LogLevel)
	}

	validClocks := map[string]bool{
		"rtc":     true,
		"virtual": true,
		"solar":   true,
	}
	if !validClocks[c.ClockSource] {
		return fmt.Errorf("invalid clock source: %s (must be rtc, virtual, or solar)", c.ClockSource)
	}
	if c.ClockSource == "solar" && (c.Latitude < -90 || c.Latitude > 90 || c.Longitude < -180 || c.Longitude > 180) {
		return fmt.Errorf("solar clock needs a valid latitude and longitude")
	}

	return nil
}

// MQTTAddress returns the full MQTT broker address
func (c *Config) MQTTAddress() string {
	return fmt.Sprintf("tcp://%s:%d", c.MQTTBroker, c.MQTTPort)
}

// RedisAddress returns the full Redis address
func (c *Config) RedisAddress() string {
	return fmt.Sprintf("%s:%d", c.RedisHost, c.RedisPort)
}

// PostgresConnectionString returns the lib/pq connection string
func (c *Config) PostgresConnectionString() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.PostgresHost, c.PostgresPort, c.PostgresUser, c.PostgresPassword, c.PostgresDB, c.PostgresSSLMode)
}

// FrameInterval returns the frame loop period
func (c *Config) FrameInterval() time.Duration {
	return time.Duration(c.FrameIntervalMs) * time.Millisecond
}

// StateTTL returns the Redis state snapshot TTL
func (c *Config) StateTTL() time.Duration {
	return time.Duration(c.StateTTLSec) * time.Second
}

// ClockOffset returns the wall clock offset
func (c *Config) ClockOffset() time.Duration {
	return time.Duration(c.ClockOffsetMin) * time.Minute
}

package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	commoncfg "github.com/djval79/caresync1/common/config"

	"gopkg.in/yaml.v3"
)

// Store backends
const (
	StoreMemory   = "memory"
	StoreRedis    = "redis"
	StorePostgres = "postgres"
	StoreSQLite   = "sqlite"
)

// Config caresync service configuration
type Config struct {
	HTTP struct {
		Addr string `yaml:"addr"`
	} `yaml:"http"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
	Store struct {
		Backend    string `yaml:"backend"`
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"store"`
	Database commoncfg.DatabaseConfig `yaml:"database"`
	Redis    commoncfg.RedisConfig    `yaml:"redis"`
	MQTT     MQTTConfig               `yaml:"mqtt"`
	Events   EventsConfig             `yaml:"events"`
	Identity IdentityConfig           `yaml:"identity"`
	Insights InsightsConfig           `yaml:"insights"`
	Auth     AuthConfig               `yaml:"auth"`
	Timezone string                   `yaml:"timezone"`
}

// MQTTConfig audit event fan-out over MQTT (disabled by default)
type MQTTConfig struct {
	commoncfg.MQTTConfig `yaml:",inline"`

	Enabled     bool   `yaml:"enabled"`
	TopicPrefix string `yaml:"topic_prefix"`
}

// EventsConfig Redis stream for audit events
type EventsConfig struct {
	RedisStream bool   `yaml:"redis_stream"`
	Stream      string `yaml:"stream"`
	MaxLen      int64  `yaml:"max_len"`
}

// IdentityConfig external auth service
type IdentityConfig struct {
	BaseURL string        `yaml:"base_url"`
	AnonKey string        `yaml:"anon_key"`
	Timeout time.Duration `yaml:"timeout"`
}

// InsightsConfig Gemini rota insights; an empty key always serves the fallback
type InsightsConfig struct {
	APIKey  string        `yaml:"api_key"`
	Model   string        `yaml:"model"`
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// AuthConfig API session tokens
type AuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
}

// Load reads environment variables with defaults, then overlays the YAML
// file named by CARESYNC_CONFIG when set.
func Load() (*Config, error) {
	cfg := &Config{}
	cfg.HTTP.Addr = getEnv("HTTP_ADDR", ":8080")
	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	cfg.Store.Backend = getEnv("STORE_BACKEND", StoreMemory)
	cfg.Store.SQLitePath = getEnv("SQLITE_PATH", "data/caresync.db")

	cfg.Database.Host = getEnv("DB_HOST", "localhost")
	cfg.Database.Port = parseInt(getEnv("DB_PORT", "5432"), 5432)
	cfg.Database.User = getEnv("DB_USER", "postgres")
	cfg.Database.Password = getEnv("DB_PASSWORD", "postgres")
	cfg.Database.Database = getEnv("DB_NAME", "caresync")
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", "disable")
	cfg.Database.MaxConns = parseInt(getEnv("DB_MAX_CONNS", "10"), 10)
	cfg.Database.MaxIdle = parseInt(getEnv("DB_MAX_IDLE", "5"), 5)

	cfg.Redis.Addr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB = parseInt(getEnv("REDIS_DB", "0"), 0)

	cfg.MQTT.Enabled = getEnv("MQTT_ENABLED", "false") == "true"
	cfg.MQTT.Broker = getEnv("MQTT_BROKER", "tcp://localhost:1883")
	cfg.MQTT.ClientID = getEnv("MQTT_CLIENT_ID", "caresync-data")
	cfg.MQTT.Username = getEnv("MQTT_USERNAME", "")
	cfg.MQTT.Password = getEnv("MQTT_PASSWORD", "")
	cfg.MQTT.QoS = byte(parseInt(getEnv("MQTT_QOS", "1"), 1))
	cfg.MQTT.TopicPrefix = getEnv("MQTT_TOPIC_PREFIX", "caresync/events")

	cfg.Events.RedisStream = getEnv("EVENTS_REDIS_STREAM", "false") == "true"
	cfg.Events.Stream = getEnv("EVENTS_STREAM", "caresync:events")
	cfg.Events.MaxLen = int64(parseInt(getEnv("EVENTS_MAX_LEN", "10000"), 10000))

	cfg.Identity.BaseURL = getEnv("IDENTITY_BASE_URL", "")
	cfg.Identity.AnonKey = getEnv("IDENTITY_ANON_KEY", "")
	cfg.Identity.Timeout = parseDuration(getEnv("IDENTITY_TIMEOUT", "10s"), 10*time.Second)

	cfg.Insights.APIKey = getEnv("GEMINI_API_KEY", "")
	cfg.Insights.Model = getEnv("GEMINI_MODEL", "gemini-2.5-pro")
	cfg.Insights.BaseURL = getEnv("GEMINI_BASE_URL", "")
	cfg.Insights.Timeout = parseDuration(getEnv("INSIGHTS_TIMEOUT", "20s"), 20*time.Second)

	cfg.Auth.JWTSecret = getEnv("JWT_SECRET", "")
	cfg.Auth.TokenTTL = parseDuration(getEnv("TOKEN_TTL", "12h"), 12*time.Hour)

	cfg.Timezone = getEnv("TIMEZONE", "Europe/London")

	if path := os.Getenv("CARESYNC_CONFIG"); path != "" {
		if err := cfg.overlayFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) overlayFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, c); err != nil {
		return fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return nil
}

// Validate rejects unknown backends and zones.
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case StoreMemory, StoreRedis, StorePostgres, StoreSQLite:
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("unknown timezone %q: %w", c.Timezone, err)
	}
	return nil
}

// Location the configured zone; UTC if it cannot be loaded.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseInt(s string, def int) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}

func parseDuration(s string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return def
	}
	return d
}

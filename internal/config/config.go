package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	StorageMemory   = "memory"
	StorageRedis    = "redis"
	StoragePostgres = "postgres"
	StorageSQLite   = "sqlite"
)

var ErrInvalidConfig = errors.New("invalid config")

type Account struct {
	Email        string `toml:"email"`
	PasswordHash string `toml:"password_hash"`
}

type Config struct {
	Environment string `toml:"environment"`
	Host        string `toml:"host"`
	Port        int    `toml:"port"`
	// AllowedOrigins are the browser origins accepted by CORS.
	AllowedOrigins []string `toml:"allowed_origins"`

	// logging
	LogLevel      string `toml:"log_level"`
	LogsPath      string `toml:"logs_path"`
	LogToStdout   bool   `toml:"log_to_stdout"`
	LogFormatJSON bool   `toml:"log_format_json"`
	SentryEnabled bool   `toml:"sentry_enabled"`

	// storage
	StorageBackend   string `toml:"storage_backend"`
	StorageTimeoutMs int    `toml:"storage_timeout_ms"`
	StorageRetries   int    `toml:"storage_retries"`
	CacheSizeMB      int    `toml:"cache_size_mb"`
	CacheTTLSeconds  int    `toml:"cache_ttl_seconds"`

	// redis
	RedisHost string `toml:"redis_host"`
	RedisPort string `toml:"redis_port"`

	// postgres
	PostgresHost string `toml:"postgres_host"`
	PostgresPort string `toml:"postgres_port"`
	PostgresDB   string `toml:"postgres_db"`
	// PostgresSSLMode is the libpq sslmode, "disable" when empty.
	PostgresSSLMode string `toml:"postgres_sslmode"`

	// sqlite
	SQLitePath string `toml:"sqlite_path"`

	// tracker
	WeeklyGoal           int    `toml:"weekly_goal"`
	PersonalRecordsLimit int    `toml:"personal_records_limit"`
	WeightHistoryLimit   int    `toml:"weight_history_limit"`
	Timezone             string `toml:"timezone"`

	// identity
	SessionTTLHours       int       `toml:"session_ttl_hours"`
	SessionIdleMinutes    int       `toml:"session_idle_minutes"`
	SignInRateLimitPerMin int       `toml:"signin_rate_limit_per_min"`
	Accounts              []Account `toml:"accounts"`

	// events
	KafkaBrokers []string `toml:"kafka_brokers"`
	KafkaTopic   string   `toml:"kafka_topic"`

	// metrics
	PrometheusMetricsHost string `toml:"prometheus_metrics_host"`
	PrometheusMetricsPort string `toml:"prometheus_metrics_port"`
}

type Toml struct {
	Development *Config `toml:"development"`
	Production  *Config `toml:"production"`
}

func (t *Toml) Get(env string) (*Config, error) {
	switch strings.ToLower(env) {
	case "dev", "development":
		return t.Development, nil
	case "prod", "production":
		return t.Production, nil
	default:
		return nil, fmt.Errorf("unknown env: %s", env)
	}
}

// Load reads the TOML file at path and returns the table for env,
// with defaults applied to the fields left empty.
func Load(env, path string) (*Config, error) {
	var t Toml
	if _, err := toml.DecodeFile(path, &t); err != nil {
		return nil, fmt.Errorf("decode toml config [%s]: %w", path, err)
	}
	return fromToml(&t, env)
}

// Parse is Load for an in-memory TOML document.
func Parse(env, data string) (*Config, error) {
	var t Toml
	if _, err := toml.Decode(data, &t); err != nil {
		return nil, fmt.Errorf("decode toml config: %w", err)
	}
	return fromToml(&t, env)
}

func fromToml(t *Toml, env string) (*Config, error) {
	cfg, err := t.Get(env)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, fmt.Errorf("%w: no config table for env [%s]", ErrInvalidConfig, env)
	}
	if cfg.Environment == "" {
		cfg.Environment = strings.ToLower(env)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default is the configuration used when no file is given,
// e.g. by the local CLI.
func Default() *Config {
	cfg := &Config{Environment: "development"}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Host == "" {
		c.Host = "localhost"
	}
	if c.Port == 0 {
		c.Port = 9000
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.StorageBackend == "" {
		c.StorageBackend = StorageMemory
	}
	if c.StorageTimeoutMs <= 0 {
		c.StorageTimeoutMs = 5000
	}
	if c.StorageRetries < 0 {
		c.StorageRetries = 0
	}
	if c.CacheTTLSeconds <= 0 {
		c.CacheTTLSeconds = 60
	}
	if c.WeeklyGoal <= 0 {
		c.WeeklyGoal = 3
	}
	if c.PersonalRecordsLimit <= 0 {
		c.PersonalRecordsLimit = 6
	}
	if c.WeightHistoryLimit <= 0 {
		c.WeightHistoryLimit = 10
	}
	if c.SessionTTLHours <= 0 {
		c.SessionTTLHours = 24 * 30
	}
	if c.SessionIdleMinutes <= 0 {
		c.SessionIdleMinutes = 60
	}
	if c.SignInRateLimitPerMin <= 0 {
		c.SignInRateLimitPerMin = 10
	}
	if c.PostgresSSLMode == "" {
		c.PostgresSSLMode = "disable"
	}
	if c.KafkaTopic == "" {
		c.KafkaTopic = "fitness-tracker-events"
	}
	if c.PrometheusMetricsHost == "" {
		c.PrometheusMetricsHost = "localhost"
	}
	if c.PrometheusMetricsPort == "" {
		c.PrometheusMetricsPort = "2112"
	}
}

func (c *Config) Validate() error {
	switch c.StorageBackend {
	case StorageMemory:
	case StorageRedis:
		if c.RedisHost == "" || c.RedisPort == "" {
			return fmt.Errorf("%w: redis backend needs redis_host and redis_port", ErrInvalidConfig)
		}
	case StoragePostgres:
		if c.PostgresHost == "" || c.PostgresPort == "" || c.PostgresDB == "" {
			return fmt.Errorf("%w: postgres backend needs postgres_host, postgres_port and postgres_db", ErrInvalidConfig)
		}
	case StorageSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("%w: sqlite backend needs sqlite_path", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown storage backend [%s]", ErrInvalidConfig, c.StorageBackend)
	}

	if _, err := c.Location(); err != nil {
		return fmt.Errorf("%w: timezone: %s", ErrInvalidConfig, err)
	}
	for _, acc := range c.Accounts {
		if acc.Email == "" || acc.PasswordHash == "" {
			return fmt.Errorf("%w: account needs email and password_hash", ErrInvalidConfig)
		}
	}
	return nil
}

func (c *Config) StorageTimeout() time.Duration {
	return time.Duration(c.StorageTimeoutMs) * time.Millisecond
}

func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLHours) * time.Hour
}

func (c *Config) SessionIdle() time.Duration {
	return time.Duration(c.SessionIdleMinutes) * time.Minute
}

// Location is the timezone used to decide what "today" is.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Timezone)
}

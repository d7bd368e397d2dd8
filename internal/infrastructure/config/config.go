package config

import (
	"errors"
	"time"

	"github.com/caarlos0/env/v10"
)

// Account cache backends.
const (
	AccountCacheRedis = "redis"
	AccountCacheFile  = "file"
)

// Config holds all application configuration.
type Config struct {
	// Host application
	HostBaseURL   string        `env:"HOST_BASE_URL"   envDefault:"https://moneyforward.com"`
	HostCookie    string        `env:"HOST_COOKIE"     envDefault:""`
	HostCSRFToken string        `env:"HOST_CSRF_TOKEN" envDefault:""`
	HostTimeout   time.Duration `env:"HOST_TIMEOUT"    envDefault:"0s"`
	HostRateLimit float64       `env:"HOST_RATE_LIMIT" envDefault:"2"`
	HostRateBurst int           `env:"HOST_RATE_BURST" envDefault:"1"`
	HostTimezone  string        `env:"HOST_TIMEZONE"   envDefault:"Asia/Tokyo"`

	// Database (optional - leave empty to disable the run journal)
	DatabaseURL      string `env:"DATABASE_URL"       envDefault:""`
	DatabaseMaxConns int    `env:"DATABASE_MAX_CONNS" envDefault:"5"`
	DatabaseMinConns int    `env:"DATABASE_MIN_CONNS" envDefault:"0"`
	MigrationsPath   string `env:"MIGRATIONS_PATH"    envDefault:""`

	// Redis
	RedisURL string `env:"REDIS_URL" envDefault:"redis://localhost:6379"`

	// Account cache
	AccountCache    string        `env:"ACCOUNT_CACHE"     envDefault:"file"`
	AccountCacheTTL time.Duration `env:"ACCOUNT_CACHE_TTL" envDefault:"0s"`
	AccountCacheDir string        `env:"ACCOUNT_CACHE_DIR" envDefault:""`

	// HTTP Server
	HTTPPort            string        `env:"HTTP_PORT"             envDefault:"8080"`
	HTTPReadTimeout     time.Duration `env:"HTTP_READ_TIMEOUT"     envDefault:"30s"`
	HTTPWriteTimeout    time.Duration `env:"HTTP_WRITE_TIMEOUT"    envDefault:"5m"`
	HTTPIdleTimeout     time.Duration `env:"HTTP_IDLE_TIMEOUT"     envDefault:"60s"`
	HTTPShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"10s"`
	HTTPRateLimit       int           `env:"HTTP_RATE_LIMIT"       envDefault:"60"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL"  envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"console"`

	// Idempotency
	IdempotencyTTL time.Duration `env:"IDEMPOTENCY_TTL" envDefault:"24h"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	err := env.Parse(cfg)
	if err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Location resolves HostTimezone, which decides what "today" is.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.HostTimezone)
}

// JournalEnabled reports whether runs are journaled to PostgreSQL.
func (c *Config) JournalEnabled() bool {
	return c.DatabaseURL != ""
}

func (c *Config) validate() error {
	switch c.AccountCache {
	case AccountCacheRedis, AccountCacheFile:
	default:
		return errors.New("ACCOUNT_CACHE must be redis or file")
	}
	if c.HostRateLimit < 0 {
		return errors.New("HOST_RATE_LIMIT must not be negative")
	}
	if _, err := c.Location(); err != nil {
		return errors.New("HOST_TIMEZONE is not a known time zone")
	}
	return nil
}

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Fetch failure policies for the orderbook API client.
const (
	FailurePolicyFallback  = "fallback"
	FailurePolicyPropagate = "propagate"
)

// Config holds all configuration for the application.
type Config struct {
	API      API      `mapstructure:"api"`
	Refresh  Refresh  `mapstructure:"refresh"`
	Logger   Logger   `mapstructure:"logger"`
	Server   Server   `mapstructure:"server"`
	Database Database `mapstructure:"database"`
	Metrics  Metrics  `mapstructure:"metrics"`
}

// API holds the configuration for the remote orderbook API.
type API struct {
	BaseURL        string        `mapstructure:"base_url"`
	AccessKey      string        `mapstructure:"access_key"`
	Timeout        time.Duration `mapstructure:"timeout"`
	RateLimit      float64       `mapstructure:"rate_limit"`
	RateLimitBurst int           `mapstructure:"rate_limit_burst"`
	OnFetchFailure string        `mapstructure:"on_fetch_failure"` // "fallback" or "propagate"

	// Circuit breaker trips once more than BreakerMinRequests were seen
	// and at least BreakerFailureRatio of them failed.
	BreakerMinRequests  uint32        `mapstructure:"breaker_min_requests"`
	BreakerFailureRatio float64       `mapstructure:"breaker_failure_ratio"`
	BreakerOpenTimeout  time.Duration `mapstructure:"breaker_open_timeout"`
}

// Refresh holds the configuration for the refresh loop.
type Refresh struct {
	Interval time.Duration `mapstructure:"interval"`
}

// Server holds the configuration for the web server.
type Server struct {
	Port       int           `mapstructure:"port"`
	SessionTTL time.Duration `mapstructure:"session_ttl"`
}

// Database holds the configuration for the refresh journal.
type Database struct {
	Enabled bool   `mapstructure:"enabled"`
	DSN     string `mapstructure:"dsn"`
}

// Metrics holds the configuration for the prometheus collectors.
type Metrics struct {
	Namespace string `mapstructure:"namespace"`
}

// Logger holds the configuration for the logger.
type Logger struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Validate reports configuration values the service cannot run with.
func (c *Config) Validate() error {
	switch c.API.OnFetchFailure {
	case FailurePolicyFallback, FailurePolicyPropagate:
	default:
		return fmt.Errorf("invalid api.on_fetch_failure %q", c.API.OnFetchFailure)
	}
	if c.API.BaseURL == "" {
		return errors.New("api.base_url is required")
	}
	if c.Refresh.Interval <= 0 {
		return fmt.Errorf("refresh.interval must be positive, got %s", c.Refresh.Interval)
	}
	if c.Database.Enabled && c.Database.DSN == "" {
		return errors.New("database.dsn is required when the journal is enabled")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.base_url", "https://api.basicswap.bid")
	v.SetDefault("api.access_key", "demo")
	v.SetDefault("api.timeout", 10*time.Second)
	v.SetDefault("api.rate_limit", 5)       // requests per second
	v.SetDefault("api.rate_limit_burst", 3) // one full refresh cycle
	v.SetDefault("api.on_fetch_failure", FailurePolicyFallback)
	v.SetDefault("api.breaker_min_requests", 10)
	v.SetDefault("api.breaker_failure_ratio", 0.6)
	v.SetDefault("api.breaker_open_timeout", 60*time.Second)

	v.SetDefault("refresh.interval", 30*time.Second)

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.session_ttl", 30*time.Minute)

	v.SetDefault("database.enabled", false)
	v.SetDefault("database.dsn", "orderbook.db")

	v.SetDefault("metrics.namespace", "orderbook_landing")

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
}

// LoadConfig reads configuration from file or environment variables.
// A missing config file is not an error; defaults and environment apply.
func LoadConfig(path string) (config Config, err error) {
	// An optional .env file feeds the environment before viper reads it.
	if err = godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return config, fmt.Errorf("failed to load .env file: %w", err)
	}

	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config") // name of config file (without extension)
	v.SetConfigType("yml")

	// Allow environment variables to override config file
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err = v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return config, fmt.Errorf("failed to read config: %w", err)
		}
	}

	if err = v.Unmarshal(&config); err != nil {
		return config, fmt.Errorf("failed to decode config: %w", err)
	}

	err = config.Validate()
	return
}

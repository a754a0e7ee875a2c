// Package config loads server configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/mmynk/splitsettle/pkg/logging"
)

// Config holds all application configuration
type Config struct {
	Port int

	// DBDriver selects the store: "sqlite" or "postgres".
	DBDriver    string
	DBPath      string
	DatabaseURL string

	// RedisURL enables the shared idempotency guard when set.
	RedisURL string
	EventTTL time.Duration

	JWTSecret string

	// PaymentServerKey verifies payment webhook signatures.
	PaymentServerKey  string
	PaymentRetryLimit int

	LogLevel  string
	LogFormat string
}

// Load reads configuration from environment variables, after loading an
// optional .env file from the working directory.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv reads configuration from environment variables only.
func FromEnv() (*Config, error) {
	cfg := &Config{
		DBDriver:         getEnv("DB_DRIVER", "sqlite"),
		DBPath:           getEnv("DB_PATH", "./data/splits.db"),
		DatabaseURL:      getEnv("DATABASE_URL", ""),
		RedisURL:         getEnv("REDIS_URL", ""),
		JWTSecret:        getEnv("JWT_SECRET", ""),
		PaymentServerKey: getEnv("PAYMENT_SERVER_KEY", ""),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		LogFormat:        getEnv("LOG_FORMAT", "text"),
	}

	var err error
	if cfg.Port, err = getInt("PORT", 8080); err != nil {
		return nil, err
	}
	if cfg.PaymentRetryLimit, err = getInt("PAYMENT_RETRY_LIMIT", 3); err != nil {
		return nil, err
	}
	if cfg.EventTTL, err = time.ParseDuration(getEnv("EVENT_TTL", "72h")); err != nil {
		return nil, fmt.Errorf("invalid EVENT_TTL: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.DBDriver {
	case "sqlite":
		if c.DBPath == "" {
			return fmt.Errorf("DB_PATH is required for sqlite")
		}
	case "postgres":
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for postgres")
		}
	default:
		return fmt.Errorf("invalid DB_DRIVER %q: must be sqlite or postgres", c.DBDriver)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid PORT %d", c.Port)
	}
	if c.PaymentRetryLimit < 0 {
		return fmt.Errorf("PAYMENT_RETRY_LIMIT must not be negative")
	}
	if c.EventTTL < 0 {
		return fmt.Errorf("EVENT_TTL must not be negative")
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("invalid LOG_FORMAT %q: must be text or json", c.LogFormat)
	}
	return nil
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) (int, error) {
	v := getEnv(key, "")
	if v == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

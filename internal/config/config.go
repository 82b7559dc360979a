// Package config loads client configuration from the environment,
// optionally seeded from a .env file.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the settings the CLI and SDK need to reach the backend.
type Config struct {
	// APIURL is the backend base URL, without a trailing slash.
	APIURL string
	// Timeout bounds a single HTTP exchange end to end.
	Timeout time.Duration
	// LogLevel selects zap verbosity: debug, info, warn, error.
	LogLevel string
}

// Load reads configuration from the environment. A .env file in the working
// directory is honored when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		APIURL:   getEnv("DOCFORGE_API_URL", "http://localhost:8000"),
		Timeout:  getEnvAsDuration("DOCFORGE_TIMEOUT", 120*time.Second),
		LogLevel: getEnv("DOCFORGE_LOG_LEVEL", "warn"),
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.APIURL == "" {
		return fmt.Errorf("config: DOCFORGE_API_URL must not be empty")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("config: DOCFORGE_TIMEOUT must be positive, got %s", c.Timeout)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

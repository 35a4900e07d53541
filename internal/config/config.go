// Package config provides environment-driven configuration for the audit server.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Secret wraps a sensitive string to prevent accidental logging or marshalling.
type Secret string

// String implements fmt.Stringer, returning a redacted placeholder.
func (s Secret) String() string { return "[REDACTED]" }

// GoString implements fmt.GoStringer, returning a redacted placeholder.
func (s Secret) GoString() string { return "[REDACTED]" }

// MarshalText implements encoding.TextMarshaler, returning a redacted placeholder.
func (s Secret) MarshalText() ([]byte, error) { return []byte("[REDACTED]"), nil }

// Value returns the underlying secret string.
func (s Secret) Value() string { return string(s) }

// Config holds all application configuration values.
type Config struct {
	DatabaseURL       Secret
	Port              string
	ListenHost        string
	CORSOrigins       []string
	LogLevel          string
	DBMaxConns        int32
	PhotoDir          string
	PhotoBaseURL      string
	MaxPhotoBytes     int64
	ActivityQueueSize int
	CatalogSeedFile   string
	RateLimit         int
	RateBurst         int
	ShutdownTimeout   time.Duration
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (*Config, error) {
	cfg := &Config{
		DatabaseURL:     Secret(envOrDefault("DATABASE_URL", "")),
		Port:            envOrDefault("PORT", "3040"),
		ListenHost:      envOrDefault("LISTEN_HOST", "127.0.0.1"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		PhotoDir:        envOrDefault("PHOTO_DIR", "./data/photos"),
		PhotoBaseURL:    envOrDefault("PHOTO_BASE_URL", "/photos"),
		CatalogSeedFile: envOrDefault("CATALOG_SEED_FILE", ""),
	}

	maxConns, err := strconv.ParseInt(envOrDefault("DB_MAX_CONNS", "21"), 10, 32)
	if err != nil || maxConns < 1 || maxConns > 500 {
		return nil, fmt.Errorf("DB_MAX_CONNS must be an integer between 1 and 500")
	}
	cfg.DBMaxConns = int32(maxConns)

	maxPhoto, err := strconv.ParseInt(envOrDefault("MAX_PHOTO_BYTES", "10485760"), 10, 64)
	if err != nil || maxPhoto < 1 {
		return nil, fmt.Errorf("MAX_PHOTO_BYTES must be a positive integer")
	}
	cfg.MaxPhotoBytes = maxPhoto

	if cfg.ActivityQueueSize, err = envInt("ACTIVITY_QUEUE_SIZE", 10000, 1, 1_000_000); err != nil {
		return nil, err
	}

	if cfg.RateLimit, err = envInt("RATE_LIMIT", 100, 1, 100_000); err != nil {
		return nil, err
	}

	if cfg.RateBurst, err = envInt("RATE_BURST", 200, 1, 100_000); err != nil {
		return nil, err
	}

	cfg.ShutdownTimeout, err = time.ParseDuration(envOrDefault("SHUTDOWN_TIMEOUT", "15s"))
	if err != nil || cfg.ShutdownTimeout <= 0 {
		return nil, fmt.Errorf("SHUTDOWN_TIMEOUT must be a positive duration such as 15s")
	}

	origins := envOrDefault("CORS_ORIGINS", "http://localhost:3002")
	cfg.CORSOrigins = strings.Split(origins, ",")

	for i, o := range cfg.CORSOrigins {
		cfg.CORSOrigins[i] = strings.TrimSpace(o)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// Addr returns the listen address in host:port format.
func (c *Config) Addr() string {
	return c.ListenHost + ":" + c.Port
}

// envInt parses key as an integer in [lo, hi], using fallback when unset.
func envInt(key string, fallback, lo, hi int) (int, error) {
	v, err := strconv.Atoi(envOrDefault(key, strconv.Itoa(fallback)))
	if err != nil || v < lo || v > hi {
		return 0, fmt.Errorf("%s must be an integer between %d and %d", key, lo, hi)
	}

	return v, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

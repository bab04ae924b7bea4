// Package config loads runtime configuration from the environment.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all runtime configuration. Every field maps 1:1 to an env var.
type Config struct {
	// Server
	Port               int      `mapstructure:"PORT"`
	Env                string   `mapstructure:"APP_ENV"` // development | production
	RateLimitPerMinute int      `mapstructure:"RATE_LIMIT_PER_MINUTE"`
	CORSOrigins        []string `mapstructure:"CORS_ORIGINS"`

	// Logging
	LogLevel string `mapstructure:"LOG_LEVEL"`
	LogFile  string `mapstructure:"LOG_FILE"` // empty logs to stderr only

	// Local draft store
	DBPath   string        `mapstructure:"DB_PATH"`
	DraftTTL time.Duration `mapstructure:"DRAFT_TTL"`

	// Backend
	BackendURL     string        `mapstructure:"BACKEND_URL"`
	BackendTimeout time.Duration `mapstructure:"BACKEND_TIMEOUT"`
	CacheTTL       time.Duration `mapstructure:"CACHE_TTL"`
	RedisURL       string        `mapstructure:"REDIS_URL"` // empty uses the in-memory cache

	// Close rules
	StrictCollection bool `mapstructure:"STRICT_COLLECTION"`
}

var keys = []string{
	"PORT", "APP_ENV", "RATE_LIMIT_PER_MINUTE", "CORS_ORIGINS",
	"LOG_LEVEL", "LOG_FILE", "DB_PATH", "DRAFT_TTL",
	"BACKEND_URL", "BACKEND_TIMEOUT", "CACHE_TTL", "REDIS_URL",
	"STRICT_COLLECTION",
}

// Load reads a .env file when present, then the environment.
func Load() (*Config, error) {
	// Optional .env file for local development; does not fail if missing
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	// AutomaticEnv only applies to keys viper already knows about
	for _, k := range keys {
		if err := v.BindEnv(k); err != nil {
			return nil, err
		}
	}

	v.SetDefault("PORT", 8080)
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("RATE_LIMIT_PER_MINUTE", 300)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DB_PATH", "fuel-station.db")
	v.SetDefault("DRAFT_TTL", "720h")
	v.SetDefault("BACKEND_URL", "http://localhost:8000")
	v.SetDefault("BACKEND_TIMEOUT", "30s")
	v.SetDefault("CACHE_TTL", "1m")
	v.SetDefault("STRICT_COLLECTION", false)

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.CORSOrigins = splitList(cfg.CORSOrigins)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects values the server cannot start with.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid PORT %d", c.Port)
	}
	if c.BackendURL == "" {
		return fmt.Errorf("BACKEND_URL is required")
	}
	if c.RateLimitPerMinute < 0 {
		return fmt.Errorf("invalid RATE_LIMIT_PER_MINUTE %d", c.RateLimitPerMinute)
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// splitList accepts both repeated values and one comma-separated value.
func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}

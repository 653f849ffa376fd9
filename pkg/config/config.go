package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the safewallet core
type Config struct {
	Env string

	// Supabase record backend
	SupabaseURL     string
	SupabaseAnonKey string

	// Redis persistence (optional; the in-memory store is used when empty)
	RedisAddr     string
	RedisPassword string

	// Exchange-rate resolution
	ExchangeAPIKey  string        // exchangerate.host access key, optional
	RateTTL         time.Duration // freshness window for cached quotes
	ProviderTimeout time.Duration // per-call bound on a single provider request
	ProviderRetries int           // extra attempts per provider after the first
	ProviderBackoff time.Duration // base delay between attempts, grows linearly
}

// Load loads configuration from the environment. A .env file in the working
// directory is merged in first when present.
func Load() (*Config, error) {
	// Missing .env is not an error; explicit env vars always win.
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("ENV", "development")
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("RATE_TTL", "1h")
	v.SetDefault("PROVIDER_TIMEOUT", "8s")
	v.SetDefault("PROVIDER_RETRIES", 2)
	v.SetDefault("PROVIDER_BACKOFF", "400ms")

	cfg := &Config{
		Env:             v.GetString("ENV"),
		SupabaseURL:     v.GetString("SUPABASE_URL"),
		SupabaseAnonKey: v.GetString("SUPABASE_ANON_KEY"),
		RedisAddr:       v.GetString("REDIS_ADDR"),
		RedisPassword:   v.GetString("REDIS_PASSWORD"),
		ExchangeAPIKey:  v.GetString("EXCHANGE_API_KEY"),
		RateTTL:         v.GetDuration("RATE_TTL"),
		ProviderTimeout: v.GetDuration("PROVIDER_TIMEOUT"),
		ProviderRetries: v.GetInt("PROVIDER_RETRIES"),
		ProviderBackoff: v.GetDuration("PROVIDER_BACKOFF"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures all required configuration is present
func (c *Config) Validate() error {
	if c.SupabaseURL == "" {
		return fmt.Errorf("SUPABASE_URL is required")
	}

	if c.SupabaseAnonKey == "" {
		return fmt.Errorf("SUPABASE_ANON_KEY is required")
	}

	if c.RateTTL <= 0 {
		return fmt.Errorf("RATE_TTL must be positive")
	}

	if c.ProviderTimeout <= 0 {
		return fmt.Errorf("PROVIDER_TIMEOUT must be positive")
	}

	if c.ProviderRetries < 0 {
		return fmt.Errorf("PROVIDER_RETRIES cannot be negative")
	}

	return nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

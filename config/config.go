package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

// Config holds all application configuration
type Config struct {
	// Database configuration
	DatabaseURL  string
	DatabaseName string

	// HTTP server
	HTTPAddr string

	// Redis cache; caching is disabled when RedisAddr is empty
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CacheTTL      time.Duration

	// Payment gateways
	EcoCashAPIURL string
	EcoCashAPIKey string
	PayPalAPIURL  string
	PayPalAPIKey  string

	// Oracle verification toggle
	OracleEnabled bool

	// Environment: "development", "production", or "test"
	Environment string
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first when present.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.WithError(err).Warn("Failed to load .env file")
	}

	config := &Config{
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		DatabaseName: os.Getenv("DATABASE_NAME"),

		HTTPAddr: getEnvDefault("HTTP_ADDR", ":8080"),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		CacheTTL:      30 * time.Second,

		EcoCashAPIURL: os.Getenv("ECOCASH_API_URL"),
		EcoCashAPIKey: os.Getenv("ECOCASH_API_KEY"),
		PayPalAPIURL:  os.Getenv("PAYPAL_API_URL"),
		PayPalAPIKey:  os.Getenv("PAYPAL_API_KEY"),

		OracleEnabled: os.Getenv("ORACLE_ENABLED") != "false",

		Environment: getEnvDefault("ENVIRONMENT", "development"),
	}

	if db := os.Getenv("REDIS_DB"); db != "" {
		parsed, err := strconv.Atoi(db)
		if err != nil {
			return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
		}
		config.RedisDB = parsed
	}

	if ttl := os.Getenv("CACHE_TTL_SECONDS"); ttl != "" {
		parsed, err := strconv.Atoi(ttl)
		if err != nil {
			return nil, fmt.Errorf("invalid CACHE_TTL_SECONDS: %w", err)
		}
		config.CacheTTL = time.Duration(parsed) * time.Second
	}

	if config.Environment != "test" {
		if config.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required")
		}
	}

	return config, nil
}

func getEnvDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

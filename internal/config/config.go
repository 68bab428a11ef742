// Package config provides configuration management for the wallet analytics
// service. It loads configuration from environment variables and .env files.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Providers ProvidersConfig
	Cache     CacheConfig
	Pipeline  PipelineConfig
	RateLimit RateLimitConfig
	Logging   LoggingConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host string
	Port string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Postgres PostgresConfig
	Redis    RedisConfig
}

// PostgresConfig holds Postgres configuration
type PostgresConfig struct {
	Host           string
	Port           string
	Database       string
	User           string
	Password       string
	MaxConnections int
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host           string
	Port           string
	Password       string
	DB             int
	MaxConnections int
}

// ProvidersConfig holds the base URLs and call timeout for the external
// read-only data sources. Any provider with equivalent semantics can be
// substituted by overriding its URL.
type ProvidersConfig struct {
	// BlockIndexURL serves address stats, transaction lists and details.
	BlockIndexURL string
	// SpotPriceURL serves the current BTC/USD price and the 30-day series.
	SpotPriceURL string
	// HistoricalPriceURL serves BTC/USD prices at past timestamps.
	HistoricalPriceURL string
	// CurrencyRateURL serves USD-based fiat multipliers.
	CurrencyRateURL string
	// RequestTimeout bounds every external call. No retries are made.
	RequestTimeout time.Duration
}

// CacheConfig holds TTLs for the price and rate caches
type CacheConfig struct {
	SpotPriceTTL       time.Duration
	HistoricalPriceTTL time.Duration
	SeriesTTL          time.Duration
	RatesTTL           time.Duration
}

// PipelineConfig holds wallet-analysis pipeline tuning
type PipelineConfig struct {
	// PageSize is the index service's transaction page size; a shorter
	// page ends ALL-mode pagination.
	PageSize int
	// PageInterval is the minimum spacing between paginated fetches.
	PageInterval time.Duration
	// RecentLimit is the transaction count used in last20 mode.
	RecentLimit int
	// SeriesDays is the length of the price series used for volatility.
	SeriesDays int
}

// RateLimitConfig holds API rate limiting configuration
type RateLimitConfig struct {
	RequestsPerSecond int
	Burst             int
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Format string
}

// LoadConfig loads configuration from a .env file and environment variables
func LoadConfig() (*Config, error) {
	// .env is optional; environment variables can be set directly
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	config := &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: getEnv("SERVER_PORT", "8080"),
		},
		Database: DatabaseConfig{
			Postgres: PostgresConfig{
				Host:           getEnv("POSTGRES_HOST", "localhost"),
				Port:           getEnv("POSTGRES_PORT", "5432"),
				Database:       getEnv("POSTGRES_DB", "wallet_insight"),
				User:           getEnv("POSTGRES_USER", "insight"),
				Password:       getEnv("POSTGRES_PASSWORD", ""),
				MaxConnections: getEnvAsInt("POSTGRES_MAX_CONNECTIONS", 20),
			},
			Redis: RedisConfig{
				Host:           getEnv("REDIS_HOST", "localhost"),
				Port:           getEnv("REDIS_PORT", "6379"),
				Password:       getEnv("REDIS_PASSWORD", ""),
				DB:             getEnvAsInt("REDIS_DB", 0),
				MaxConnections: getEnvAsInt("REDIS_MAX_CONNECTIONS", 20),
			},
		},
		Providers: ProvidersConfig{
			BlockIndexURL:      getEnv("BLOCK_INDEX_URL", "https://blockstream.info/api"),
			SpotPriceURL:       getEnv("SPOT_PRICE_URL", "https://api.coingecko.com/api/v3"),
			HistoricalPriceURL: getEnv("HISTORICAL_PRICE_URL", "https://min-api.cryptocompare.com"),
			CurrencyRateURL:    getEnv("CURRENCY_RATE_URL", "https://api.frankfurter.app"),
			RequestTimeout:     getEnvAsDuration("PROVIDER_TIMEOUT", 10*time.Second),
		},
		Cache: CacheConfig{
			SpotPriceTTL:       getEnvAsDuration("CACHE_SPOT_PRICE_TTL", time.Hour),
			HistoricalPriceTTL: getEnvAsDuration("CACHE_HISTORICAL_PRICE_TTL", 24*time.Hour),
			SeriesTTL:          getEnvAsDuration("CACHE_SERIES_TTL", 24*time.Hour),
			RatesTTL:           getEnvAsDuration("CACHE_RATES_TTL", 15*time.Minute),
		},
		Pipeline: PipelineConfig{
			PageSize:     getEnvAsInt("PIPELINE_PAGE_SIZE", 25),
			PageInterval: getEnvAsDuration("PIPELINE_PAGE_INTERVAL", time.Second),
			RecentLimit:  getEnvAsInt("PIPELINE_RECENT_LIMIT", 20),
			SeriesDays:   getEnvAsInt("PIPELINE_SERIES_DAYS", 30),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: getEnvAsInt("RATE_LIMIT_RPS", 10),
			Burst:             getEnvAsInt("RATE_LIMIT_BURST", 20),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	return config, nil
}

// PostgresURL builds a connection URL for migrations and tooling
func (c *PostgresConfig) PostgresURL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.User, c.Password, c.Host, c.Port, c.Database,
	)
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an environment variable as an integer with a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsDuration gets an environment variable as a duration with a default value
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

package config

import (
	"testing"
	"time"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Server.Port != "8080" {
		t.Errorf("Server.Port = %q, want %q", cfg.Server.Port, "8080")
	}
	if cfg.Providers.BlockIndexURL != "https://blockstream.info/api" {
		t.Errorf("Providers.BlockIndexURL = %q", cfg.Providers.BlockIndexURL)
	}
	if cfg.Providers.RequestTimeout != 10*time.Second {
		t.Errorf("Providers.RequestTimeout = %v, want 10s", cfg.Providers.RequestTimeout)
	}
	if cfg.Pipeline.PageSize != 25 {
		t.Errorf("Pipeline.PageSize = %d, want 25", cfg.Pipeline.PageSize)
	}
	if cfg.Pipeline.RecentLimit != 20 {
		t.Errorf("Pipeline.RecentLimit = %d, want 20", cfg.Pipeline.RecentLimit)
	}
	if cfg.Pipeline.PageInterval != time.Second {
		t.Errorf("Pipeline.PageInterval = %v, want 1s", cfg.Pipeline.PageInterval)
	}
	if cfg.Cache.HistoricalPriceTTL != 24*time.Hour {
		t.Errorf("Cache.HistoricalPriceTTL = %v, want 24h", cfg.Cache.HistoricalPriceTTL)
	}
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9999")
	t.Setenv("BLOCK_INDEX_URL", "http://localhost:3002")
	t.Setenv("PIPELINE_PAGE_INTERVAL", "250ms")
	t.Setenv("RATE_LIMIT_RPS", "5")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Server.Port != "9999" {
		t.Errorf("Server.Port = %q, want %q", cfg.Server.Port, "9999")
	}
	if cfg.Providers.BlockIndexURL != "http://localhost:3002" {
		t.Errorf("Providers.BlockIndexURL = %q", cfg.Providers.BlockIndexURL)
	}
	if cfg.Pipeline.PageInterval != 250*time.Millisecond {
		t.Errorf("Pipeline.PageInterval = %v, want 250ms", cfg.Pipeline.PageInterval)
	}
	if cfg.RateLimit.RequestsPerSecond != 5 {
		t.Errorf("RateLimit.RequestsPerSecond = %d, want 5", cfg.RateLimit.RequestsPerSecond)
	}
}

func TestLoadConfig_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("POSTGRES_MAX_CONNECTIONS", "not-a-number")
	t.Setenv("CACHE_SPOT_PRICE_TTL", "soon")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Database.Postgres.MaxConnections != 20 {
		t.Errorf("Postgres.MaxConnections = %d, want default 20", cfg.Database.Postgres.MaxConnections)
	}
	if cfg.Cache.SpotPriceTTL != time.Hour {
		t.Errorf("Cache.SpotPriceTTL = %v, want default 1h", cfg.Cache.SpotPriceTTL)
	}
}

func TestPostgresURL(t *testing.T) {
	cfg := PostgresConfig{
		Host:     "db",
		Port:     "5433",
		Database: "insight",
		User:     "app",
		Password: "secret",
	}

	want := "postgres://app:secret@db:5433/insight?sslmode=disable"
	if got := cfg.PostgresURL(); got != want {
		t.Errorf("PostgresURL() = %q, want %q", got, want)
	}
}

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/wallet-insight/internal/adapter"
	"github.com/wallet-insight/internal/api"
	"github.com/wallet-insight/internal/config"
	"github.com/wallet-insight/internal/logging"
	"github.com/wallet-insight/internal/pricefeed"
	"github.com/wallet-insight/internal/service"
	"github.com/wallet-insight/internal/storage"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logging.WithError(err).Fatal("failed to load configuration")
	}

	logging.Init(logging.ParseLevel(cfg.Logging.Level), logging.ParseFormat(cfg.Logging.Format))

	db, err := storage.NewPostgresDB(&cfg.Database.Postgres)
	if err != nil {
		logging.WithError(err).Fatal("failed to connect to Postgres")
	}
	defer db.Close()

	// Redis is optional: a per-process cache keeps the pipeline working
	// when it is down, at the cost of cold caches per instance.
	var cache storage.Cache
	redisCache, err := storage.NewRedisCache(&cfg.Database.Redis)
	if err != nil {
		logging.WithError(err).Warn("Redis unavailable, falling back to in-memory cache")
		cache = storage.NewMemoryCache()
	} else {
		defer redisCache.Close()
		cache = redisCache
	}

	timeout := cfg.Providers.RequestTimeout
	blockIndex := adapter.NewBlockstreamClient(cfg.Providers.BlockIndexURL, timeout)
	coingecko := adapter.NewCoingeckoClient(cfg.Providers.SpotPriceURL, timeout)
	cryptocompare := adapter.NewCryptocompareClient(cfg.Providers.HistoricalPriceURL, timeout)
	frankfurter := adapter.NewFrankfurterClient(cfg.Providers.CurrencyRateURL, timeout)

	feed := pricefeed.NewFeed(coingecko, cryptocompare, coingecko, cache, cfg.Cache, cfg.Pipeline.SeriesDays)
	converter := pricefeed.NewConverter(frankfurter, cache, cfg.Cache)

	ledgers := service.NewLedgerService(blockIndex, feed, cfg.Pipeline)
	valuation := service.NewValuationService(feed)
	wallets := service.NewWalletService(blockIndex, ledgers, valuation, feed, converter)

	server := api.NewServer(&api.ServerConfig{
		Host:            cfg.Server.Host,
		Port:            cfg.Server.Port,
		ReadTimeout:     15 * time.Second,
		WriteTimeout:    120 * time.Second,
		IdleTimeout:     60 * time.Second,
		ShutdownTimeout: 30 * time.Second,
		RateLimitRPS:    cfg.RateLimit.RequestsPerSecond,
		RateLimitBurst:  cfg.RateLimit.Burst,
	}, wallets, storage.NewUserRepository(db), storage.NewNoteRepository(db))

	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.WithError(err).Fatal("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logging.WithError(err).Error("graceful shutdown failed")
		os.Exit(1)
	}
	logging.Info("server stopped")
}

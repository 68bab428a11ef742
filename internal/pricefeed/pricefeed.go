package pricefeed

import (
	"context"
	"time"

	"github.com/wallet-insight/internal/circuitbreaker"
	"github.com/wallet-insight/internal/config"
	"github.com/wallet-insight/internal/logging"
	"github.com/wallet-insight/internal/models"
	"github.com/wallet-insight/internal/storage"
)

// Quote is a price lookup result. A provider failure yields
// Available=false rather than an error, so a single dead provider
// degrades the report instead of failing the whole analysis.
type Quote struct {
	Price     float64 `json:"price"`
	Available bool    `json:"available"`
}

// Series is a daily price series lookup result.
type Series struct {
	Points    []models.PricePoint `json:"points"`
	Available bool                `json:"available"`
}

// SpotSource provides the current BTC/USD price.
type SpotSource interface {
	SpotPriceUSD(ctx context.Context) (float64, error)
}

// HistoricalSource provides the BTC/USD price at a past timestamp.
type HistoricalSource interface {
	HistoricalPriceUSD(ctx context.Context, ts int64) (float64, error)
}

// SeriesSource provides the recent daily BTC/USD price series.
type SeriesSource interface {
	MarketChart(ctx context.Context, days int) ([]models.PricePoint, error)
}

const (
	spotCacheKey   = "price:spot"
	seriesCacheKey = "price:series"
	histKeyPrefix  = "price:hist:"
)

// Feed resolves bitcoin prices through a cache and per-provider circuit
// breakers. Historical quotes are cached by calendar day, so repeated
// valuation runs over the same ledger hit each provider at most once
// per date.
type Feed struct {
	spot    SpotSource
	hist    HistoricalSource
	series  SeriesSource
	cache   storage.Cache
	ttl     config.CacheConfig
	days    int
	spotCB  *circuitbreaker.CircuitBreaker
	histCB  *circuitbreaker.CircuitBreaker
	chartCB *circuitbreaker.CircuitBreaker
	logger  *logging.Logger
}

// NewFeed wires the price sources behind a shared cache.
func NewFeed(spot SpotSource, hist HistoricalSource, series SeriesSource, cache storage.Cache, ttl config.CacheConfig, seriesDays int) *Feed {
	if seriesDays <= 0 {
		seriesDays = 30
	}
	return &Feed{
		spot:    spot,
		hist:    hist,
		series:  series,
		cache:   cache,
		ttl:     ttl,
		days:    seriesDays,
		spotCB:  circuitbreaker.New(circuitbreaker.DefaultConfig("spot-price")),
		histCB:  circuitbreaker.New(circuitbreaker.DefaultConfig("historical-price")),
		chartCB: circuitbreaker.New(circuitbreaker.DefaultConfig("market-chart")),
		logger:  logging.WithField("component", "pricefeed"),
	}
}

// Current returns the current BTC/USD price.
func (f *Feed) Current(ctx context.Context) Quote {
	var cached float64
	if found, err := f.cache.Get(ctx, spotCacheKey, &cached); err != nil {
		f.logger.WithError(err).Warn("spot price cache read failed")
	} else if found {
		return Quote{Price: cached, Available: true}
	}

	var price float64
	err := f.spotCB.Execute(func() error {
		p, err := f.spot.SpotPriceUSD(ctx)
		if err != nil {
			return err
		}
		price = p
		return nil
	})
	if err != nil {
		f.logger.WithError(err).Warn("spot price unavailable")
		return Quote{}
	}

	if err := f.cache.Set(ctx, spotCacheKey, price, f.ttl.SpotPriceTTL); err != nil {
		f.logger.WithError(err).Warn("spot price cache write failed")
	}
	return Quote{Price: price, Available: true}
}

// Historical returns the BTC/USD price for the calendar day of the
// given time. Quotes are cached by date string.
func (f *Feed) Historical(ctx context.Context, at time.Time) Quote {
	key := histKeyPrefix + at.UTC().Format("2006-01-02")

	var cached float64
	if found, err := f.cache.Get(ctx, key, &cached); err != nil {
		f.logger.WithError(err).Warn("historical price cache read failed")
	} else if found {
		return Quote{Price: cached, Available: true}
	}

	var price float64
	err := f.histCB.Execute(func() error {
		p, err := f.hist.HistoricalPriceUSD(ctx, at.Unix())
		if err != nil {
			return err
		}
		price = p
		return nil
	})
	if err != nil {
		f.logger.WithError(err).WithField("date", at.UTC().Format("2006-01-02")).Warn("historical price unavailable")
		return Quote{}
	}

	// Providers return zero for dates before their history begins.
	// Treat that as unavailable rather than a free coin.
	if price <= 0 {
		return Quote{}
	}

	if err := f.cache.Set(ctx, key, price, f.ttl.HistoricalPriceTTL); err != nil {
		f.logger.WithError(err).Warn("historical price cache write failed")
	}
	return Quote{Price: price, Available: true}
}

// RecentSeries returns the daily BTC/USD series over the configured
// window, used for the market benchmark return.
func (f *Feed) RecentSeries(ctx context.Context) Series {
	var cached []models.PricePoint
	if found, err := f.cache.Get(ctx, seriesCacheKey, &cached); err != nil {
		f.logger.WithError(err).Warn("price series cache read failed")
	} else if found {
		return Series{Points: cached, Available: true}
	}

	var points []models.PricePoint
	err := f.chartCB.Execute(func() error {
		p, err := f.series.MarketChart(ctx, f.days)
		if err != nil {
			return err
		}
		points = p
		return nil
	})
	if err != nil || len(points) == 0 {
		if err != nil {
			f.logger.WithError(err).Warn("price series unavailable")
		}
		return Series{}
	}

	if err := f.cache.Set(ctx, seriesCacheKey, points, f.ttl.SeriesTTL); err != nil {
		f.logger.WithError(err).Warn("price series cache write failed")
	}
	return Series{Points: points, Available: true}
}

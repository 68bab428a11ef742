package pricefeed

import (
	"context"
	"strings"

	"github.com/wallet-insight/internal/config"
	"github.com/wallet-insight/internal/logging"
	"github.com/wallet-insight/internal/storage"
	"github.com/wallet-insight/internal/types"
)

const ratesCacheKey = "rates:usd"

// fallbackRates approximate USD conversion when the rate provider is
// down. Reports built on them carry a warning.
var fallbackRates = map[string]float64{
	"USD": 1.0,
	"GBP": 0.78,
	"EUR": 0.92,
}

// RateSource provides fiat conversion multipliers from USD.
type RateSource interface {
	RatesFromUSD(ctx context.Context, currencies []string) (map[string]float64, error)
}

// RateTable is a set of USD multipliers plus whether it came from the
// live provider or the static fallback.
type RateTable struct {
	Rates    map[string]float64 `json:"rates"`
	Fallback bool               `json:"fallback"`
}

// Converter turns USD amounts into a display currency.
type Converter struct {
	source RateSource
	cache  storage.Cache
	ttl    config.CacheConfig
	logger *logging.Logger
}

// NewConverter wires the rate source behind a shared cache.
func NewConverter(source RateSource, cache storage.Cache, ttl config.CacheConfig) *Converter {
	return &Converter{
		source: source,
		cache:  cache,
		ttl:    ttl,
		logger: logging.WithField("component", "rates"),
	}
}

// Table returns the current rate table, live if possible.
func (c *Converter) Table(ctx context.Context) RateTable {
	var cached map[string]float64
	if found, err := c.cache.Get(ctx, ratesCacheKey, &cached); err != nil {
		c.logger.WithError(err).Warn("rate cache read failed")
	} else if found {
		return RateTable{Rates: cached}
	}

	rates, err := c.source.RatesFromUSD(ctx, types.SupportedCurrencies)
	if err != nil {
		c.logger.WithError(err).Warn("rate provider unavailable, using fallback rates")
		return RateTable{Rates: fallbackRates, Fallback: true}
	}

	if err := c.cache.Set(ctx, ratesCacheKey, rates, c.ttl.RatesTTL); err != nil {
		c.logger.WithError(err).Warn("rate cache write failed")
	}
	return RateTable{Rates: rates}
}

// Multiplier returns the USD multiplier for the given currency code,
// and whether the fallback table was used. Unknown currencies yield 1.0.
func (c *Converter) Multiplier(ctx context.Context, currency string) (float64, bool) {
	table := c.Table(ctx)
	rate, ok := table.Rates[strings.ToUpper(currency)]
	if !ok {
		return 1.0, table.Fallback
	}
	return rate, table.Fallback
}

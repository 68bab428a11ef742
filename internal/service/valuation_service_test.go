package service

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wallet-insight/internal/models"
	"github.com/wallet-insight/internal/pricefeed"
	"github.com/wallet-insight/internal/types"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func entry(dir types.Direction, at time.Time, amountBTC, priceUSD float64) models.LedgerEntry {
	return models.LedgerEntry{
		Date:      at,
		Timestamp: at.Add(12 * time.Hour),
		Direction: dir,
		AmountBTC: amountBTC,
		PriceUSD:  priceUSD,
		ValueUSD:  amountBTC * priceUSD,
		Confirmed: true,
	}
}

func ledgerOf(entries ...models.LedgerEntry) *models.Ledger {
	l := &models.Ledger{Address: tracked, Entries: entries}
	for _, e := range entries {
		switch e.Direction {
		case types.DirectionIn:
			l.TotalBTCIn += e.AmountBTC
			l.TotalUSDIn += e.ValueUSD
		case types.DirectionOut:
			l.TotalBTCOut += e.AmountBTC
			l.TotalUSDOut += e.ValueUSD
		}
	}
	if len(entries) > 0 {
		first := entries[0].Timestamp
		l.FirstTxAt = &first
	}
	return l
}

type datedPrices struct {
	prices map[string]float64
}

func (s *datedPrices) Historical(ctx context.Context, at time.Time) pricefeed.Quote {
	p, ok := s.prices[at.Format("2006-01-02")]
	if !ok {
		return pricefeed.Quote{}
	}
	return pricefeed.Quote{Price: p, Available: true}
}

func TestValueSeries_OnePointPerDistinctDate(t *testing.T) {
	d1, d2 := day(2024, 1, 10), day(2024, 1, 20)
	ledger := ledgerOf(
		entry(types.DirectionIn, d1, 0.5, 20000),
		entry(types.DirectionIn, d1, 0.1, 20000),
		entry(types.DirectionOut, d2, 0.2, 25000),
	)
	prices := &datedPrices{prices: map[string]float64{"2024-01-10": 20000, "2024-01-20": 25000}}
	svc := NewValuationService(prices)

	series := svc.ValueSeries(context.Background(), ledger, 1.0)
	require.Len(t, series, 2)

	assert.Equal(t, d1, series[0].Date)
	assert.InDelta(t, 0.6, series[0].NetBTC, 1e-9)
	assert.InDelta(t, 12000, series[0].CostBasis, 1e-6)
	assert.InDelta(t, 0.6*20000, series[0].MarketValue, 1e-6)

	assert.Equal(t, d2, series[1].Date)
	assert.InDelta(t, 0.4, series[1].NetBTC, 1e-9)
	assert.InDelta(t, 12000-0.2*25000, series[1].CostBasis, 1e-6)
	assert.InDelta(t, 0.4*25000, series[1].MarketValue, 1e-6)
	assert.True(t, series[0].Date.Before(series[1].Date))
}

func TestValueSeries_NegativeCostBasisAllowed(t *testing.T) {
	d1, d2 := day(2024, 1, 10), day(2024, 2, 10)
	ledger := ledgerOf(
		entry(types.DirectionIn, d1, 1.0, 10000),
		entry(types.DirectionOut, d2, 0.5, 40000),
	)
	prices := &datedPrices{prices: map[string]float64{"2024-01-10": 10000, "2024-02-10": 40000}}
	svc := NewValuationService(prices)

	series := svc.ValueSeries(context.Background(), ledger, 1.0)
	require.Len(t, series, 2)
	assert.InDelta(t, -10000, series[1].CostBasis, 1e-6)
	assert.InDelta(t, 0.5, series[1].NetBTC, 1e-9)
}

func TestValueSeries_EmptyLedger(t *testing.T) {
	svc := NewValuationService(&datedPrices{})
	assert.Nil(t, svc.ValueSeries(context.Background(), &models.Ledger{Address: tracked}, 1.0))
}

func TestSummarize_BuyAndHold(t *testing.T) {
	// Bought 0.5 BTC at 20k; price now 30k.
	d1 := day(2024, 1, 10)
	ledger := ledgerOf(entry(types.DirectionIn, d1, 0.5, 20000))
	svc := NewValuationService(&datedPrices{})

	summary, warnings := svc.Summarize(SummaryInput{
		Ledger:     ledger,
		BalanceBTC: 0.5,
		Spot:       pricefeed.Quote{Price: 30000, Available: true},
		Currency:   "USD",
		Multiplier: 1.0,
	})

	assert.InDelta(t, 15000, summary.MarketValue, 1e-6)
	assert.InDelta(t, 10000, summary.Invested, 1e-6)
	assert.InDelta(t, 5000, summary.Gain, 1e-6)
	assert.InDelta(t, 50, summary.GainPct, 1e-6)
	assert.InDelta(t, 20000, summary.AvgBuyPrice, 1e-6)
	assert.InDelta(t, summary.Invested, summary.AvgBuyPrice*ledger.NetBTC(), 1e-6)
	assert.Positive(t, summary.HoldingPeriodDays)

	// Only the missing market series should warn here.
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "market price series")
}

func TestSummarize_PartialSell(t *testing.T) {
	// Bought 1.0 BTC at 10k, sold 0.5 at 16k. The average buy price is
	// the remaining stake over the remaining position, not the original
	// entry price.
	d1, d2 := day(2024, 1, 10), day(2024, 2, 10)
	ledger := ledgerOf(
		entry(types.DirectionIn, d1, 1.0, 10000),
		entry(types.DirectionOut, d2, 0.5, 16000),
	)
	svc := NewValuationService(&datedPrices{})

	summary, _ := svc.Summarize(SummaryInput{
		Ledger:     ledger,
		BalanceBTC: 0.5,
		Spot:       pricefeed.Quote{Price: 30000, Available: true},
		Currency:   "USD",
		Multiplier: 1.0,
	})

	assert.InDelta(t, 2000, summary.Invested, 1e-6)
	assert.InDelta(t, 4000, summary.AvgBuyPrice, 1e-6)
	assert.InDelta(t, summary.Invested, summary.AvgBuyPrice*ledger.NetBTC(), 1e-6)
	assert.InDelta(t, 13000, summary.Gain, 1e-6)
}

func TestSummarize_RecoupedInvestmentClampsToMarketValue(t *testing.T) {
	// Paid in 10k, already took out 12k. The stake left is the position.
	d1, d2 := day(2024, 1, 10), day(2024, 2, 10)
	ledger := ledgerOf(
		entry(types.DirectionIn, d1, 1.0, 10000),
		entry(types.DirectionOut, d2, 0.6, 20000),
	)
	svc := NewValuationService(&datedPrices{})

	summary, _ := svc.Summarize(SummaryInput{
		Ledger:     ledger,
		BalanceBTC: 0.4,
		Spot:       pricefeed.Quote{Price: 25000, Available: true},
		Currency:   "USD",
		Multiplier: 1.0,
	})

	assert.InDelta(t, 10000, summary.MarketValue, 1e-6)
	assert.InDelta(t, 10000, summary.Invested, 1e-6)
	assert.Zero(t, summary.Gain)
	assert.Zero(t, summary.GainPct)
}

func TestSummarize_NegativeBalanceClampedWithWarning(t *testing.T) {
	d1 := day(2024, 1, 10)
	ledger := ledgerOf(entry(types.DirectionIn, d1, 0.5, 20000))
	svc := NewValuationService(&datedPrices{})

	summary, warnings := svc.Summarize(SummaryInput{
		Ledger:     ledger,
		BalanceBTC: -0.01,
		Spot:       pricefeed.Quote{Price: 30000, Available: true},
		Currency:   "USD",
		Multiplier: 1.0,
	})

	assert.Zero(t, summary.BalanceBTC)
	assert.Zero(t, summary.MarketValue)
	assert.Zero(t, summary.Gain)
	assert.Zero(t, summary.GainPct)
	// Average buy price still reflects the ledger.
	assert.InDelta(t, 20000, summary.AvgBuyPrice, 1e-6)

	var clamped bool
	for _, w := range warnings {
		if w == "negative confirmed balance -0.01000000 clamped to zero" {
			clamped = true
		}
	}
	assert.True(t, clamped, "expected clamp warning, got %v", warnings)
}

func TestSummarize_SpotUnavailable(t *testing.T) {
	d1 := day(2024, 1, 10)
	ledger := ledgerOf(entry(types.DirectionIn, d1, 0.5, 20000))
	svc := NewValuationService(&datedPrices{})

	summary, warnings := svc.Summarize(SummaryInput{
		Ledger:     ledger,
		BalanceBTC: 0.5,
		Spot:       pricefeed.Quote{},
		Currency:   "USD",
		Multiplier: 1.0,
	})

	assert.Zero(t, summary.CurrentPrice)
	assert.Zero(t, summary.MarketValue)
	assert.NotEmpty(t, warnings)
	assert.Contains(t, warnings[0], "current price unavailable")
}

func TestSummarize_CurrencyConversion(t *testing.T) {
	d1 := day(2024, 1, 10)
	ledger := ledgerOf(entry(types.DirectionIn, d1, 1.0, 20000))
	svc := NewValuationService(&datedPrices{})

	summary, _ := svc.Summarize(SummaryInput{
		Ledger:     ledger,
		BalanceBTC: 1.0,
		Spot:       pricefeed.Quote{Price: 30000, Available: true},
		Currency:   "GBP",
		Multiplier: 0.78,
	})

	assert.Equal(t, "GBP", summary.Currency)
	assert.InDelta(t, 30000*0.78, summary.CurrentPrice, 1e-6)
	assert.InDelta(t, 30000*0.78, summary.MarketValue, 1e-6)
	assert.InDelta(t, 20000*0.78, summary.Invested, 1e-6)
	assert.InDelta(t, 20000*0.78, summary.AvgBuyPrice, 1e-6)
	// The gain percentage is currency independent.
	assert.InDelta(t, 50, summary.GainPct, 1e-6)
}

func TestSummarize_VolatilityAndMarketReturn(t *testing.T) {
	d1 := day(2024, 1, 10)
	ledger := ledgerOf(entry(types.DirectionIn, d1, 1.0, 20000))
	svc := NewValuationService(&datedPrices{})

	market := pricefeed.Series{
		Available: true,
		Points: []models.PricePoint{
			{Time: day(2024, 2, 1), Price: 100},
			{Time: day(2024, 2, 2), Price: 110},
			{Time: day(2024, 2, 3), Price: 99},
		},
	}

	summary, _ := svc.Summarize(SummaryInput{
		Ledger:     ledger,
		BalanceBTC: 1.0,
		Spot:       pricefeed.Quote{Price: 30000, Available: true},
		Market:     market,
		Currency:   "USD",
		Multiplier: 1.0,
	})

	// Daily returns are +10% and -10%: mean 0, sample stdev 0.1.
	wantVol := 0.1 * math.Sqrt(252) * 100
	assert.InDelta(t, wantVol, summary.Volatility, 1e-6)
	assert.InDelta(t, -1, summary.MarketReturn30d, 1e-6)
	assert.InDelta(t, summary.GainPct/wantVol*math.Sqrt(252), summary.SharpeRatio, 1e-6)
}

func TestMaxDrawdown(t *testing.T) {
	series := []models.ValuationPoint{
		{MarketValue: 100},
		{MarketValue: 150},
		{MarketValue: 90},
		{MarketValue: 120},
	}
	// Worst decline is 150 -> 90.
	assert.InDelta(t, -40, maxDrawdown(series), 1e-6)

	rising := []models.ValuationPoint{{MarketValue: 10}, {MarketValue: 20}, {MarketValue: 30}}
	assert.Zero(t, maxDrawdown(rising))
	assert.Zero(t, maxDrawdown(nil))
}

func TestActivity(t *testing.T) {
	d1, d2 := day(2024, 1, 10), day(2024, 1, 20)
	ledger := ledgerOf(
		entry(types.DirectionIn, d1, 0.5, 20000),
		entry(types.DirectionOut, d1, 0.1, 20000),
		entry(types.DirectionIn, d2, 0.4, 25000),
	)
	svc := NewValuationService(&datedPrices{})

	report := svc.Activity(ledger, 1.0)
	require.Len(t, report.Days, 2)

	assert.Equal(t, d1, report.Days[0].Date)
	assert.InDelta(t, 0.6, report.Days[0].VolumeBTC, 1e-9)
	assert.Equal(t, 2, report.Days[0].EntryCount)
	assert.Equal(t, 1, report.Days[1].EntryCount)

	assert.InDelta(t, 1.0/3.0, report.AvgBTCPerEntry, 1e-9)
	wantValue := (0.5*20000 + 0.1*20000 + 0.4*25000) / 3
	assert.InDelta(t, wantValue, report.AvgValuePerEntry, 1e-6)
}

func TestActivity_EmptyLedger(t *testing.T) {
	svc := NewValuationService(&datedPrices{})
	report := svc.Activity(&models.Ledger{}, 1.0)
	assert.Empty(t, report.Days)
	assert.Zero(t, report.AvgBTCPerEntry)
}

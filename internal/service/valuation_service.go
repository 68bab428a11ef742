package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/wallet-insight/internal/logging"
	"github.com/wallet-insight/internal/models"
	"github.com/wallet-insight/internal/pricefeed"
	"github.com/wallet-insight/internal/types"
)

// tradingDaysPerYear annualizes daily return statistics.
const tradingDaysPerYear = 252

// ValuationService derives the valuation series and headline metrics
// from a built ledger.
type ValuationService struct {
	prices HistoricalPrices
	logger *logging.Logger
}

// NewValuationService creates a valuation engine over the given
// historical price source.
func NewValuationService(prices HistoricalPrices) *ValuationService {
	return &ValuationService{
		prices: prices,
		logger: logging.WithField("component", "valuation"),
	}
}

// ValueSeries computes the portfolio state as of each distinct ledger
// date. For every date it re-walks the ledger from the start, so the
// holdings at date d reflect exactly the entries up to and including d.
// The cost basis is a plain running difference and may go negative once
// realized outflows exceed what was paid in.
func (s *ValuationService) ValueSeries(ctx context.Context, ledger *models.Ledger, multiplier float64) []models.ValuationPoint {
	if ledger == nil || len(ledger.Entries) == 0 {
		return nil
	}

	dates := distinctDates(ledger.Entries)
	points := make([]models.ValuationPoint, 0, len(dates))

	for _, d := range dates {
		var netBTC, costBasis float64
		for _, e := range ledger.Entries {
			if e.Date.After(d) {
				continue
			}
			switch e.Direction {
			case types.DirectionIn:
				netBTC += e.AmountBTC
				costBasis += e.ValueUSD
			case types.DirectionOut:
				netBTC -= e.AmountBTC
				costBasis -= e.ValueUSD
			}
		}

		var marketValue float64
		if quote := s.prices.Historical(ctx, d); quote.Available {
			marketValue = netBTC * quote.Price * multiplier
		}

		points = append(points, models.ValuationPoint{
			Date:        d,
			NetBTC:      netBTC,
			CostBasis:   costBasis * multiplier,
			MarketValue: marketValue,
		})
	}

	return points
}

// SummaryInput carries everything Summarize needs, already fetched.
type SummaryInput struct {
	Ledger *models.Ledger
	Series []models.ValuationPoint
	// BalanceBTC is the chain-confirmed balance, which may be negative
	// when the index's funded and spent sums disagree.
	BalanceBTC    float64
	Spot          pricefeed.Quote
	Market        pricefeed.Series
	Currency      string
	Multiplier    float64
	RatesFallback bool
}

// Summarize computes the headline portfolio metrics. It never fails:
// missing inputs zero the affected metrics and are reported in the
// returned warnings.
func (s *ValuationService) Summarize(in SummaryInput) (models.PortfolioSummary, []string) {
	var warnings []string

	summary := models.PortfolioSummary{
		Address:  in.Ledger.Address,
		Currency: in.Currency,
	}

	if !in.Spot.Available {
		warnings = append(warnings, "current price unavailable, market value and gain are zero")
	}
	if in.RatesFallback {
		warnings = append(warnings, "live exchange rates unavailable, using approximate fallback rates")
	}

	summary.CurrentPrice = in.Spot.Price * in.Multiplier

	balance := in.BalanceBTC
	negativeBalance := balance < 0
	if negativeBalance {
		warnings = append(warnings, fmt.Sprintf("negative confirmed balance %.8f clamped to zero", balance))
		balance = 0
	}
	summary.BalanceBTC = balance
	summary.MarketValue = balance * in.Spot.Price * in.Multiplier

	invested := (in.Ledger.TotalUSDIn - in.Ledger.TotalUSDOut) * in.Multiplier
	if invested <= 0 {
		// Fully-recouped wallets would otherwise show an infinite
		// return. Treating the remaining position as the stake keeps
		// the gain figures finite.
		invested = summary.MarketValue
	}
	summary.Invested = invested

	// Average buy price spreads the invested figure over the net
	// ledger position, zero when the position is flat.
	if net := in.Ledger.NetBTC(); net != 0 {
		summary.AvgBuyPrice = invested / net
	}

	summary.Gain = summary.MarketValue - invested
	if invested > 0 {
		summary.GainPct = summary.Gain / invested * 100
	}
	if negativeBalance {
		// A clamped balance is a fault signal, not a position.
		summary.Gain = 0
		summary.GainPct = 0
	}

	if in.Ledger.FirstTxAt != nil {
		summary.HoldingPeriodDays = int(time.Since(*in.Ledger.FirstTxAt).Hours() / 24)
	}

	if in.Market.Available && len(in.Market.Points) >= 2 {
		summary.Volatility = annualizedVolatility(in.Market.Points)
		first, last := in.Market.Points[0].Price, in.Market.Points[len(in.Market.Points)-1].Price
		if first > 0 {
			summary.MarketReturn30d = (last/first - 1) * 100
		}
	} else {
		warnings = append(warnings, "market price series unavailable, volatility and sharpe ratio are zero")
	}

	if summary.Volatility > 0 {
		summary.SharpeRatio = summary.GainPct / summary.Volatility * math.Sqrt(tradingDaysPerYear)
	}

	summary.MaxDrawdown = maxDrawdown(in.Series)

	return summary, warnings
}

// Activity aggregates ledger entries per calendar day.
func (s *ValuationService) Activity(ledger *models.Ledger, multiplier float64) models.ActivityReport {
	var report models.ActivityReport
	if ledger == nil || len(ledger.Entries) == 0 {
		return report
	}

	byDay := make(map[time.Time]*models.DailyActivity)
	var totalBTC, totalValue float64
	for _, e := range ledger.Entries {
		day, ok := byDay[e.Date]
		if !ok {
			day = &models.DailyActivity{Date: e.Date}
			byDay[e.Date] = day
		}
		day.VolumeBTC += e.AmountBTC
		day.EntryCount++
		totalBTC += e.AmountBTC
		totalValue += e.ValueUSD
	}

	for _, day := range byDay {
		report.Days = append(report.Days, *day)
	}
	sort.Slice(report.Days, func(i, j int) bool {
		return report.Days[i].Date.Before(report.Days[j].Date)
	})

	n := float64(len(ledger.Entries))
	report.AvgBTCPerEntry = totalBTC / n
	report.AvgValuePerEntry = totalValue / n * multiplier

	return report
}

// distinctDates returns the sorted unique entry dates.
func distinctDates(entries []models.LedgerEntry) []time.Time {
	seen := make(map[time.Time]bool)
	var dates []time.Time
	for _, e := range entries {
		if !seen[e.Date] {
			seen[e.Date] = true
			dates = append(dates, e.Date)
		}
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates
}

// annualizedVolatility is the sample standard deviation of daily
// returns, annualized over trading days and expressed in percent.
func annualizedVolatility(points []models.PricePoint) float64 {
	var returns []float64
	for i := 1; i < len(points); i++ {
		if points[i-1].Price > 0 {
			returns = append(returns, points[i].Price/points[i-1].Price-1)
		}
	}
	if len(returns) < 2 {
		return 0
	}

	var mean float64
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))

	var variance float64
	for _, r := range returns {
		variance += (r - mean) * (r - mean)
	}
	variance /= float64(len(returns) - 1)

	return math.Sqrt(variance) * math.Sqrt(tradingDaysPerYear) * 100
}

// maxDrawdown is the worst decline from a running peak of the market
// value series, in percent. It is zero for empty or monotonically
// rising series and never positive.
func maxDrawdown(series []models.ValuationPoint) float64 {
	var peak, worst float64
	for _, p := range series {
		if p.MarketValue > peak {
			peak = p.MarketValue
		}
		if peak > 0 {
			dd := (p.MarketValue - peak) / peak * 100
			if dd < worst {
				worst = dd
			}
		}
	}
	return worst
}

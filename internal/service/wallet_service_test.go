package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wallet-insight/internal/models"
	"github.com/wallet-insight/internal/pricefeed"
	"github.com/wallet-insight/internal/types"
)

// validAddr satisfies the address pattern used at the API boundary.
const validAddr = "bc1qar0srrr7xfkvy5l643lydnw9re59gtzzwf5mdq"

type stubBalances struct {
	stats *models.AddressStats
	err   error
}

func (s *stubBalances) AddressStats(ctx context.Context, address string) (*models.AddressStats, error) {
	return s.stats, s.err
}

type stubLedgers struct {
	ledger   *models.Ledger
	warnings []string
	err      error
	gotMode  types.TxLimitMode
}

func (s *stubLedgers) Build(ctx context.Context, address string, mode types.TxLimitMode) (*models.Ledger, []string, error) {
	s.gotMode = mode
	return s.ledger, s.warnings, s.err
}

type stubFeed struct {
	spot   pricefeed.Quote
	series pricefeed.Series
}

func (s *stubFeed) Current(ctx context.Context) pricefeed.Quote       { return s.spot }
func (s *stubFeed) RecentSeries(ctx context.Context) pricefeed.Series { return s.series }

type stubConverter struct {
	mult     float64
	fallback bool
}

func (s *stubConverter) Multiplier(ctx context.Context, currency string) (float64, bool) {
	return s.mult, s.fallback
}

func statsWithBalance(btc float64) *models.AddressStats {
	sats := int64(btc * types.SatoshisPerBTC)
	return &models.AddressStats{
		Address:    validAddr,
		ChainStats: models.IOStats{TxCount: 1, FundedTxoSum: sats},
	}
}

func newTestWalletService(balances BalanceSource, ledgers LedgerBuilder, feed PriceFeed, conv CurrencyConverter) *WalletService {
	return NewWalletService(balances, ledgers, NewValuationService(&datedPrices{}), feed, conv)
}

func TestAnalyze_FullPipeline(t *testing.T) {
	d := day(2024, 1, 10)
	ledger := ledgerOf(entry(types.DirectionIn, d, 0.5, 20000))
	ledger.Address = validAddr

	svc := newTestWalletService(
		&stubBalances{stats: statsWithBalance(0.5)},
		&stubLedgers{ledger: ledger, warnings: []string{"only the 1 most recent transactions were analyzed, totals may be incomplete"}},
		&stubFeed{spot: pricefeed.Quote{Price: 30000, Available: true}},
		&stubConverter{mult: 1.0},
	)

	report, err := svc.Analyze(context.Background(), AnalyzeInput{
		Address: validAddr,
		Limit:   types.LimitRecent,
	})
	require.NoError(t, err)

	assert.Equal(t, validAddr, report.Summary.Address)
	assert.Equal(t, "USD", report.Summary.Currency, "empty currency defaults to USD")
	assert.InDelta(t, 15000, report.Summary.MarketValue, 1e-6)
	assert.InDelta(t, 5000, report.Summary.Gain, 1e-6)
	assert.Len(t, report.Valuation, 1)
	assert.Len(t, report.Activity.Days, 1)

	// Ledger warnings and summary warnings are merged.
	require.NotEmpty(t, report.Warnings)
	assert.Contains(t, report.Warnings[0], "most recent")
}

func TestAnalyze_InvalidAddress(t *testing.T) {
	svc := newTestWalletService(&stubBalances{}, &stubLedgers{}, &stubFeed{}, &stubConverter{mult: 1})

	_, err := svc.Analyze(context.Background(), AnalyzeInput{Address: "not-an-address"})
	require.Error(t, err)

	var serr *types.ServiceError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, "INVALID_ADDRESS", serr.Code)
}

func TestAnalyze_UnsupportedCurrency(t *testing.T) {
	svc := newTestWalletService(&stubBalances{}, &stubLedgers{}, &stubFeed{}, &stubConverter{mult: 1})

	_, err := svc.Analyze(context.Background(), AnalyzeInput{Address: validAddr, Currency: "JPY"})
	require.Error(t, err)

	var serr *types.ServiceError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, "UNSUPPORTED_CURRENCY", serr.Code)
}

func TestAnalyze_IndexDown(t *testing.T) {
	svc := newTestWalletService(
		&stubBalances{err: errors.New("connection refused")},
		&stubLedgers{}, &stubFeed{}, &stubConverter{mult: 1},
	)

	_, err := svc.Analyze(context.Background(), AnalyzeInput{Address: validAddr})
	require.Error(t, err)

	var serr *types.ServiceError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, "INDEX_UNAVAILABLE", serr.Code)
}

func TestAnalyze_LimitModePassedThrough(t *testing.T) {
	ledgers := &stubLedgers{ledger: &models.Ledger{Address: validAddr}}
	svc := newTestWalletService(
		&stubBalances{stats: statsWithBalance(0)},
		ledgers,
		&stubFeed{spot: pricefeed.Quote{Price: 30000, Available: true}},
		&stubConverter{mult: 1},
	)

	_, err := svc.Analyze(context.Background(), AnalyzeInput{Address: validAddr, Limit: types.LimitAll})
	require.NoError(t, err)
	assert.Equal(t, types.LimitAll, ledgers.gotMode)
}

func TestAnalyze_DegradedFeedsStillSucceed(t *testing.T) {
	d := day(2024, 1, 10)
	ledger := ledgerOf(entry(types.DirectionIn, d, 1.0, 20000))
	ledger.Address = validAddr

	svc := newTestWalletService(
		&stubBalances{stats: statsWithBalance(1.0)},
		&stubLedgers{ledger: ledger},
		&stubFeed{}, // every price source down
		&stubConverter{mult: 0.92, fallback: true},
	)

	report, err := svc.Analyze(context.Background(), AnalyzeInput{Address: validAddr, Currency: "eur"})
	require.NoError(t, err)

	assert.Equal(t, "EUR", report.Summary.Currency)
	assert.Zero(t, report.Summary.MarketValue)

	var sawSpot, sawRates bool
	for _, w := range report.Warnings {
		switch {
		case w == "current price unavailable, market value and gain are zero":
			sawSpot = true
		case w == "live exchange rates unavailable, using approximate fallback rates":
			sawRates = true
		}
	}
	assert.True(t, sawSpot)
	assert.True(t, sawRates)
}

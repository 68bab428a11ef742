package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/wallet-insight/internal/logging"
	"github.com/wallet-insight/internal/models"
	"github.com/wallet-insight/internal/pricefeed"
	"github.com/wallet-insight/internal/types"
)

// BalanceSource reads the confirmed on-chain balance of an address.
type BalanceSource interface {
	AddressStats(ctx context.Context, address string) (*models.AddressStats, error)
}

// LedgerBuilder builds a priced ledger for an address.
type LedgerBuilder interface {
	Build(ctx context.Context, address string, mode types.TxLimitMode) (*models.Ledger, []string, error)
}

// PriceFeed provides the current price and the recent market series.
type PriceFeed interface {
	Current(ctx context.Context) pricefeed.Quote
	RecentSeries(ctx context.Context) pricefeed.Series
}

// CurrencyConverter resolves a display-currency multiplier from USD.
type CurrencyConverter interface {
	Multiplier(ctx context.Context, currency string) (float64, bool)
}

// AnalyzeInput selects what to analyze and how.
type AnalyzeInput struct {
	Address  string
	Limit    types.TxLimitMode
	Currency string
}

// AnalysisReport is the full output of one wallet analysis run.
// Warnings collect every degradation hit along the way, so a caller can
// tell a clean report from a best-effort one.
type AnalysisReport struct {
	Summary   models.PortfolioSummary `json:"summary"`
	Ledger    *models.Ledger          `json:"ledger"`
	Valuation []models.ValuationPoint `json:"valuation"`
	Activity  models.ActivityReport   `json:"activity"`
	Warnings  []string                `json:"warnings,omitempty"`
}

// WalletService runs the full analysis pipeline: fetch, classify,
// price, value, summarize.
type WalletService struct {
	balances  BalanceSource
	ledgers   LedgerBuilder
	valuation *ValuationService
	feed      PriceFeed
	converter CurrencyConverter
	logger    *logging.Logger
}

// NewWalletService wires the pipeline stages together.
func NewWalletService(balances BalanceSource, ledgers LedgerBuilder, valuation *ValuationService, feed PriceFeed, converter CurrencyConverter) *WalletService {
	return &WalletService{
		balances:  balances,
		ledgers:   ledgers,
		valuation: valuation,
		feed:      feed,
		converter: converter,
		logger:    logging.WithField("component", "wallet"),
	}
}

// Analyze produces the full report for one address. It fails only when
// the input is invalid or the block index is unreachable; price
// provider problems degrade the report and surface as warnings.
func (s *WalletService) Analyze(ctx context.Context, in AnalyzeInput) (*AnalysisReport, error) {
	if !types.IsWalletAddress(in.Address) {
		return nil, &types.ServiceError{
			Code:    "INVALID_ADDRESS",
			Message: fmt.Sprintf("not a valid bitcoin address: %s", in.Address),
		}
	}

	currency := strings.ToUpper(in.Currency)
	if currency == "" {
		currency = "USD"
	}
	if !types.IsSupportedCurrency(currency) {
		return nil, &types.ServiceError{
			Code:    "UNSUPPORTED_CURRENCY",
			Message: fmt.Sprintf("unsupported currency: %s", in.Currency),
			Details: map[string]interface{}{"supported": types.SupportedCurrencies},
		}
	}

	stats, err := s.balances.AddressStats(ctx, in.Address)
	if err != nil {
		return nil, &types.ServiceError{
			Code:    "INDEX_UNAVAILABLE",
			Message: "failed to fetch address balance",
			Details: map[string]interface{}{"address": in.Address, "cause": err.Error()},
		}
	}

	ledger, warnings, err := s.ledgers.Build(ctx, in.Address, in.Limit)
	if err != nil {
		return nil, err
	}

	multiplier, ratesFallback := s.converter.Multiplier(ctx, currency)
	spot := s.feed.Current(ctx)
	market := s.feed.RecentSeries(ctx)

	series := s.valuation.ValueSeries(ctx, ledger, multiplier)
	summary, sumWarnings := s.valuation.Summarize(SummaryInput{
		Ledger:        ledger,
		Series:        series,
		BalanceBTC:    stats.ConfirmedBalanceBTC(),
		Spot:          spot,
		Market:        market,
		Currency:      currency,
		Multiplier:    multiplier,
		RatesFallback: ratesFallback,
	})
	warnings = append(warnings, sumWarnings...)

	s.logger.WithFields(map[string]interface{}{
		"address":  in.Address,
		"entries":  len(ledger.Entries),
		"warnings": len(warnings),
	}).Info("wallet analysis complete")

	return &AnalysisReport{
		Summary:   summary,
		Ledger:    ledger,
		Valuation: series,
		Activity:  s.valuation.Activity(ledger, multiplier),
		Warnings:  warnings,
	}, nil
}

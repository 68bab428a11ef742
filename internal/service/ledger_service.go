package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"golang.org/x/time/rate"

	"github.com/wallet-insight/internal/config"
	"github.com/wallet-insight/internal/logging"
	"github.com/wallet-insight/internal/models"
	"github.com/wallet-insight/internal/pricefeed"
	"github.com/wallet-insight/internal/types"
)

// TransactionIndex is the slice of the block index the ledger builder
// needs. The blockstream adapter satisfies it.
type TransactionIndex interface {
	RecentTransactions(ctx context.Context, address string) ([]models.RawTransaction, error)
	TransactionsAfter(ctx context.Context, address, lastTxID string) ([]models.RawTransaction, error)
	Transaction(ctx context.Context, txID string) (*models.RawTransaction, error)
}

// HistoricalPrices prices a ledger entry on its calendar day.
type HistoricalPrices interface {
	Historical(ctx context.Context, at time.Time) pricefeed.Quote
}

// LedgerService walks an address's transaction history and builds its
// priced ledger.
type LedgerService struct {
	index      TransactionIndex
	prices     HistoricalPrices
	classifier *Classifier
	pager      *rate.Limiter
	cfg        config.PipelineConfig
	logger     *logging.Logger
}

// NewLedgerService creates a ledger builder. Page walking is throttled
// to one index request per configured interval to stay inside the
// public API's limits.
func NewLedgerService(index TransactionIndex, prices HistoricalPrices, cfg config.PipelineConfig) *LedgerService {
	interval := cfg.PageInterval
	if interval <= 0 {
		interval = time.Second
	}
	return &LedgerService{
		index:      index,
		prices:     prices,
		classifier: NewClassifier(),
		pager:      rate.NewLimiter(rate.Every(interval), 1),
		cfg:        cfg,
		logger:     logging.WithField("component", "ledger"),
	}
}

// Build fetches, classifies and prices the transaction history of an
// address. In recent mode only the latest transactions are considered,
// which keeps one index round trip but makes totals approximate; the
// returned warnings say so.
func (s *LedgerService) Build(ctx context.Context, address string, mode types.TxLimitMode) (*models.Ledger, []string, error) {
	txs, warnings, err := s.collect(ctx, address, mode)
	if err != nil {
		return nil, nil, err
	}

	ledger := &models.Ledger{Address: address}
	pricedDates := make(map[string]bool)

	for i := range txs {
		detail, err := s.detail(ctx, &txs[i])
		if err != nil {
			s.logger.WithError(err).WithField("txid", txs[i].TxID).Warn("skipping transaction, detail fetch failed")
			warnings = append(warnings, fmt.Sprintf("transaction %s skipped: detail unavailable", txs[i].TxID))
			continue
		}

		for _, entry := range s.classifier.Classify(detail, address) {
			quote := s.prices.Historical(ctx, entry.Date)
			if quote.Available {
				entry.PriceUSD = quote.Price
				entry.ValueUSD = entry.AmountBTC * quote.Price
			} else {
				day := entry.Date.Format("2006-01-02")
				if !pricedDates[day] {
					pricedDates[day] = true
					warnings = append(warnings, fmt.Sprintf("price unavailable for %s, entries on that day are unvalued", day))
				}
			}

			switch entry.Direction {
			case types.DirectionIn:
				ledger.TotalBTCIn += entry.AmountBTC
				ledger.TotalUSDIn += entry.ValueUSD
			case types.DirectionOut:
				ledger.TotalBTCOut += entry.AmountBTC
				ledger.TotalUSDOut += entry.ValueUSD
			}
			ledger.Entries = append(ledger.Entries, entry)
		}
	}

	sort.SliceStable(ledger.Entries, func(i, j int) bool {
		return ledger.Entries[i].Timestamp.Before(ledger.Entries[j].Timestamp)
	})

	if len(ledger.Entries) > 0 {
		first := ledger.Entries[0].Timestamp
		ledger.FirstTxAt = &first
	}

	return ledger, warnings, nil
}

// collect gathers the transaction list to classify, honoring the limit
// mode.
func (s *LedgerService) collect(ctx context.Context, address string, mode types.TxLimitMode) ([]models.RawTransaction, []string, error) {
	if err := s.pager.Wait(ctx); err != nil {
		return nil, nil, err
	}

	page, err := s.index.RecentTransactions(ctx, address)
	if err != nil {
		return nil, nil, &types.ServiceError{
			Code:    "INDEX_UNAVAILABLE",
			Message: "failed to fetch transaction history",
			Details: map[string]interface{}{"address": address, "cause": err.Error()},
		}
	}

	if mode == types.LimitRecent {
		var warnings []string
		limit := s.cfg.RecentLimit
		if limit <= 0 {
			limit = 20
		}
		// A short first page means the full history fit in it, so the
		// totals are exact and no accuracy warning is needed.
		truncated := len(page) > limit || len(page) >= s.cfg.PageSize
		if len(page) > limit {
			page = page[:limit]
		}
		if truncated {
			warnings = append(warnings, fmt.Sprintf("only the %d most recent transactions were analyzed, totals may be incomplete", len(page)))
		}
		return page, warnings, nil
	}

	all := page
	for len(page) > 0 && len(page) >= s.cfg.PageSize {
		lastTxID := lastConfirmedTxID(page)
		if lastTxID == "" {
			break
		}

		if err := s.pager.Wait(ctx); err != nil {
			return nil, nil, err
		}
		page, err = s.index.TransactionsAfter(ctx, address, lastTxID)
		if err != nil {
			return nil, nil, &types.ServiceError{
				Code:    "INDEX_UNAVAILABLE",
				Message: "failed to page transaction history",
				Details: map[string]interface{}{"address": address, "cause": err.Error()},
			}
		}
		all = append(all, page...)
	}

	return all, nil, nil
}

// detail returns the transaction with input prevouts populated,
// fetching it when the listing came without them.
func (s *LedgerService) detail(ctx context.Context, tx *models.RawTransaction) (*models.RawTransaction, error) {
	if len(tx.Vin) > 0 || len(tx.Vout) > 0 {
		return tx, nil
	}
	if err := s.pager.Wait(ctx); err != nil {
		return nil, err
	}
	return s.index.Transaction(ctx, tx.TxID)
}

// lastConfirmedTxID finds the paging cursor: the index pages full
// history only across confirmed transactions.
func lastConfirmedTxID(page []models.RawTransaction) string {
	for i := len(page) - 1; i >= 0; i-- {
		if page[i].Status.Confirmed {
			return page[i].TxID
		}
	}
	return ""
}

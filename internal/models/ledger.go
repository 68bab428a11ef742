package models

import (
	"time"

	"github.com/wallet-insight/internal/types"
)

// LedgerEntry is one inflow or outflow event for the tracked address.
// A single transaction can yield both an in and an out entry (self transfers
// with change), but never two entries with the same direction.
type LedgerEntry struct {
	// Date is the calendar day (UTC midnight) used for price lookups.
	Date time.Time `json:"date"`
	// Timestamp is the original block time, retained for ordering.
	Timestamp    time.Time       `json:"timestamp"`
	Direction    types.Direction `json:"direction"`
	AmountBTC    float64         `json:"amountBtc"`
	PriceUSD     float64         `json:"priceUsd"`
	ValueUSD     float64         `json:"valueUsd"`
	TxID         string          `json:"txid"`
	Confirmed    bool            `json:"confirmed"`
	Counterparty string          `json:"counterparty"`
}

// Ledger is the chronological sequence of ledger entries for an address plus
// the running totals accumulated while building it.
type Ledger struct {
	Address     string        `json:"address"`
	Entries     []LedgerEntry `json:"entries"`
	TotalBTCIn  float64       `json:"totalBtcIn"`
	TotalBTCOut float64       `json:"totalBtcOut"`
	TotalUSDIn  float64       `json:"totalUsdIn"`
	TotalUSDOut float64       `json:"totalUsdOut"`
	// FirstTxAt is nil only when the ledger is empty.
	FirstTxAt *time.Time `json:"firstTxAt,omitempty"`
}

// NetBTC returns the ledger-reconstructed net holdings.
func (l *Ledger) NetBTC() float64 {
	return l.TotalBTCIn - l.TotalBTCOut
}

// ValuationPoint is the portfolio state as of one distinct ledger date.
// CostBasis accumulates arithmetically and is deliberately not clamped: it
// goes negative when outflow value exceeds inflow value.
type ValuationPoint struct {
	Date        time.Time `json:"date"`
	NetBTC      float64   `json:"netBtc"`
	CostBasis   float64   `json:"costBasis"`
	MarketValue float64   `json:"marketValue"`
}

// PricePoint is one sample of a historical price series.
type PricePoint struct {
	Time  time.Time `json:"time"`
	Price float64   `json:"price"`
}

// PortfolioSummary is the headline metric set for a wallet. Fiat figures are
// denominated in Currency; percentages are 0 whenever their denominator is 0.
type PortfolioSummary struct {
	Address           string  `json:"address"`
	Currency          string  `json:"currency"`
	BalanceBTC        float64 `json:"balanceBtc"`
	CurrentPrice      float64 `json:"currentPrice"`
	MarketValue       float64 `json:"marketValue"`
	Invested          float64 `json:"invested"`
	Gain              float64 `json:"gain"`
	GainPct           float64 `json:"gainPct"`
	AvgBuyPrice       float64 `json:"avgBuyPrice"`
	HoldingPeriodDays int     `json:"holdingPeriodDays"`
	// Volatility is the annualized 30-day price volatility, in percent.
	Volatility float64 `json:"volatility"`
	// MarketReturn30d is the 30-day return of BTC itself, in percent.
	MarketReturn30d float64 `json:"marketReturn30d"`
	SharpeRatio     float64 `json:"sharpeRatio"`
	// MaxDrawdown is the worst peak-to-trough decline of the valuation
	// series, in percent. Always <= 0.
	MaxDrawdown float64 `json:"maxDrawdown"`
}

// DailyActivity aggregates ledger entries for one calendar day.
type DailyActivity struct {
	Date       time.Time `json:"date"`
	VolumeBTC  float64   `json:"volumeBtc"`
	EntryCount int       `json:"entryCount"`
}

// ActivityReport summarizes per-day transaction activity for a wallet.
type ActivityReport struct {
	Days []DailyActivity `json:"days"`
	// AvgBTCPerEntry is the mean BTC amount across all ledger entries.
	AvgBTCPerEntry float64 `json:"avgBtcPerEntry"`
	// AvgValuePerEntry is the mean fiat value across all ledger entries.
	AvgValuePerEntry float64 `json:"avgValuePerEntry"`
}

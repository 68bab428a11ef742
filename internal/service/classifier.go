package service

import (
	"time"

	"github.com/wallet-insight/internal/models"
	"github.com/wallet-insight/internal/types"
)

// Classifier derives ledger entries from raw transactions relative to a
// single tracked address. It works on output ownership only; it never
// needs the full UTXO set.
type Classifier struct {
	now func() time.Time
}

// NewClassifier creates a classifier. The clock is injectable for tests.
func NewClassifier() *Classifier {
	return &Classifier{now: time.Now}
}

// Classify turns one transaction into zero, one or two ledger entries
// for the tracked address.
//
// Inflow is the sum of outputs paying the address. Outflow uses a
// change heuristic: for each input the address funded, the spend is the
// input value minus what came back as inflow, floored at zero. A
// transaction therefore yields at most one IN and one OUT entry, and a
// self transfer with change produces both.
//
// Prices are left zero; the ledger builder fills them in.
func (c *Classifier) Classify(tx *models.RawTransaction, address string) []models.LedgerEntry {
	var inflowBTC float64
	for _, out := range tx.Vout {
		if out.Address == address {
			inflowBTC += float64(out.Value) / types.SatoshisPerBTC
		}
	}

	var outflowBTC float64
	for _, in := range tx.Vin {
		if in.Prevout == nil || in.Prevout.Address != address {
			continue
		}
		spent := float64(in.Prevout.Value)/types.SatoshisPerBTC - inflowBTC
		if spent > 0 {
			outflowBTC += spent
		}
	}

	if inflowBTC <= 0 && outflowBTC <= 0 {
		return nil
	}

	ts := c.timestamp(tx)
	day := ts.UTC().Truncate(24 * time.Hour)
	counterparty := c.counterparty(tx, address)

	var entries []models.LedgerEntry
	if inflowBTC > 0 {
		entries = append(entries, models.LedgerEntry{
			Date:         day,
			Timestamp:    ts,
			Direction:    types.DirectionIn,
			AmountBTC:    inflowBTC,
			TxID:         tx.TxID,
			Confirmed:    tx.Status.Confirmed,
			Counterparty: counterparty,
		})
	}
	if outflowBTC > 0 {
		entries = append(entries, models.LedgerEntry{
			Date:         day,
			Timestamp:    ts,
			Direction:    types.DirectionOut,
			AmountBTC:    outflowBTC,
			TxID:         tx.TxID,
			Confirmed:    tx.Status.Confirmed,
			Counterparty: counterparty,
		})
	}

	return entries
}

// timestamp returns the block time, or the current time for
// transactions still in the mempool.
func (c *Classifier) timestamp(tx *models.RawTransaction) time.Time {
	if tx.Status.BlockTime > 0 {
		return time.Unix(tx.Status.BlockTime, 0).UTC()
	}
	return c.now().UTC()
}

// counterparty picks the first address on the other side of the
// transaction: a funding input not owned by the tracked address, then a
// receiving output not owned by it. Coinbase rewards and pure self
// transfers have no other side.
func (c *Classifier) counterparty(tx *models.RawTransaction, address string) string {
	for _, in := range tx.Vin {
		if in.Prevout != nil && in.Prevout.Address != "" && in.Prevout.Address != address {
			return in.Prevout.Address
		}
	}
	for _, out := range tx.Vout {
		if out.Address != "" && out.Address != address {
			return out.Address
		}
	}
	return types.UnknownCounterparty
}

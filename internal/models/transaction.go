// Package models provides data models for the wallet analytics system.
package models

import "github.com/wallet-insight/internal/types"

// RawTransaction is a transaction record as returned by the blockchain index
// service. Only the fields the classifier consumes are mapped.
type RawTransaction struct {
	TxID   string     `json:"txid"`
	Status TxStatus   `json:"status"`
	Vin    []TxInput  `json:"vin"`
	Vout   []TxOutput `json:"vout"`
}

// TxStatus carries the confirmation state of a transaction.
// BlockTime is zero for unconfirmed transactions.
type TxStatus struct {
	Confirmed bool  `json:"confirmed"`
	BlockTime int64 `json:"block_time,omitempty"`
}

// TxInput is a transaction input. Prevout describes the output being spent;
// it may be absent (e.g. coinbase inputs).
type TxInput struct {
	Prevout *TxOutput `json:"prevout,omitempty"`
}

// TxOutput is a transaction output. Value is in satoshis. The owning address
// is empty for non-standard scripts.
type TxOutput struct {
	Value   int64  `json:"value"`
	Address string `json:"scriptpubkey_address,omitempty"`
}

// IOStats aggregates funded/spent totals for an address, in satoshis.
type IOStats struct {
	TxCount      int64 `json:"tx_count"`
	FundedTxoSum int64 `json:"funded_txo_sum"`
	SpentTxoSum  int64 `json:"spent_txo_sum"`
}

// AddressStats is the balance summary the index service reports for an
// address, split into confirmed (chain) and unconfirmed (mempool) portions.
type AddressStats struct {
	Address      string  `json:"address"`
	ChainStats   IOStats `json:"chain_stats"`
	MempoolStats IOStats `json:"mempool_stats"`
}

// ConfirmedBalanceBTC returns the confirmed balance in BTC. The result can be
// negative when the index reports inconsistent totals; callers decide how to
// treat that.
func (s *AddressStats) ConfirmedBalanceBTC() float64 {
	return float64(s.ChainStats.FundedTxoSum-s.ChainStats.SpentTxoSum) / types.SatoshisPerBTC
}

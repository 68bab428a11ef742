// Package types provides shared type definitions for the wallet analytics system.
package types

import (
	"regexp"
	"strings"
)

// Direction indicates whether a ledger entry moved funds into or out of the
// tracked address.
type Direction string

const (
	// DirectionIn represents funds received by the tracked address
	DirectionIn Direction = "in"
	// DirectionOut represents funds spent by the tracked address
	DirectionOut Direction = "out"
)

// TxLimitMode controls how much transaction history the ledger builder fetches.
type TxLimitMode string

const (
	// LimitRecent fetches only the most recent 20 transactions (fast, reduced accuracy)
	LimitRecent TxLimitMode = "last20"
	// LimitAll paginates through the complete transaction history
	LimitAll TxLimitMode = "all"
)

// ParseTxLimitMode parses a user-supplied limit mode. Anything not
// explicitly asking for the full history gets the fast recent mode.
func ParseTxLimitMode(s string) TxLimitMode {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "all", "full":
		return LimitAll
	default:
		return LimitRecent
	}
}

// UnknownCounterparty is recorded when no counterparty address can be derived
// from a transaction's inputs or outputs.
const UnknownCounterparty = "unknown"

// SatoshisPerBTC is the satoshi-to-BTC conversion factor.
const SatoshisPerBTC = 1e8

// SupportedCurrencies lists the fiat currencies the converter can target.
var SupportedCurrencies = []string{"USD", "GBP", "EUR"}

// IsSupportedCurrency reports whether code is a displayable target currency.
func IsSupportedCurrency(code string) bool {
	for _, c := range SupportedCurrencies {
		if c == strings.ToUpper(code) {
			return true
		}
	}
	return false
}

// Mainnet address forms: legacy (1...), P2SH (3...) and bech32 (bc1...).
var walletAddressPattern = regexp.MustCompile(`^(bc1|[13])[a-zA-Z0-9]{25,61}$`)

// IsWalletAddress reports whether s looks like a Bitcoin mainnet address.
func IsWalletAddress(s string) bool {
	return walletAddressPattern.MatchString(s)
}

// ServiceError represents a structured error returned across service boundaries.
type ServiceError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

func (e *ServiceError) Error() string {
	return e.Message
}

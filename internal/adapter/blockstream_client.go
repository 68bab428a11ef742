package adapter

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/wallet-insight/internal/models"
)

// BlockstreamClient reads address stats and transaction history from a
// Blockstream-compatible block index (esplora API).
type BlockstreamClient struct {
	baseURL string
	client  *http.Client
}

// NewBlockstreamClient creates a client against the given base URL,
// e.g. https://blockstream.info/api.
func NewBlockstreamClient(baseURL string, timeout time.Duration) *BlockstreamClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &BlockstreamClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

// AddressStats fetches the confirmed funded/spent sums for an address.
func (c *BlockstreamClient) AddressStats(ctx context.Context, address string) (*models.AddressStats, error) {
	url := fmt.Sprintf("%s/address/%s", c.baseURL, address)

	var stats models.AddressStats
	if err := getJSON(ctx, c.client, url, &stats); err != nil {
		return nil, fmt.Errorf("failed to fetch address stats: %w", err)
	}
	stats.Address = address

	return &stats, nil
}

// RecentTransactions fetches the first page of transactions for an
// address, newest first. The index serves up to 25 per page.
func (c *BlockstreamClient) RecentTransactions(ctx context.Context, address string) ([]models.RawTransaction, error) {
	url := fmt.Sprintf("%s/address/%s/txs", c.baseURL, address)

	var txs []models.RawTransaction
	if err := getJSON(ctx, c.client, url, &txs); err != nil {
		return nil, fmt.Errorf("failed to fetch transactions: %w", err)
	}

	return txs, nil
}

// TransactionsAfter fetches the page of confirmed transactions after
// lastTxID, for walking the full history.
func (c *BlockstreamClient) TransactionsAfter(ctx context.Context, address, lastTxID string) ([]models.RawTransaction, error) {
	url := fmt.Sprintf("%s/address/%s/txs/chain/%s", c.baseURL, address, lastTxID)

	var txs []models.RawTransaction
	if err := getJSON(ctx, c.client, url, &txs); err != nil {
		return nil, fmt.Errorf("failed to fetch transaction page: %w", err)
	}

	return txs, nil
}

// Transaction fetches the full detail of a single transaction,
// including input prevouts needed for outflow attribution.
func (c *BlockstreamClient) Transaction(ctx context.Context, txID string) (*models.RawTransaction, error) {
	url := fmt.Sprintf("%s/tx/%s", c.baseURL, txID)

	var tx models.RawTransaction
	if err := getJSON(ctx, c.client, url, &tx); err != nil {
		return nil, fmt.Errorf("failed to fetch transaction %s: %w", txID, err)
	}

	return &tx, nil
}

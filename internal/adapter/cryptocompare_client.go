package adapter

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// CryptocompareClient fetches historical bitcoin prices by timestamp
// from the CryptoCompare public API.
type CryptocompareClient struct {
	baseURL string
	client  *http.Client
}

// NewCryptocompareClient creates a client against the given base URL,
// e.g. https://min-api.cryptocompare.com.
func NewCryptocompareClient(baseURL string, timeout time.Duration) *CryptocompareClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &CryptocompareClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

// HistoricalPriceUSD returns the BTC/USD price closest to the given
// unix timestamp.
func (c *CryptocompareClient) HistoricalPriceUSD(ctx context.Context, ts int64) (float64, error) {
	url := fmt.Sprintf("%s/data/pricehistorical?fsym=BTC&tsyms=USD&ts=%d", c.baseURL, ts)

	var resp map[string]map[string]float64
	if err := getJSON(ctx, c.client, url, &resp); err != nil {
		return 0, fmt.Errorf("failed to fetch historical price: %w", err)
	}

	price, ok := resp["BTC"]["USD"]
	if !ok {
		return 0, fmt.Errorf("historical price missing from response")
	}

	return price, nil
}

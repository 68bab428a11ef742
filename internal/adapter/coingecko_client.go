package adapter

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/wallet-insight/internal/models"
)

// CoingeckoClient fetches the current bitcoin price and the recent daily
// price series from the CoinGecko public API.
type CoingeckoClient struct {
	baseURL string
	client  *http.Client
}

// NewCoingeckoClient creates a client against the given base URL,
// e.g. https://api.coingecko.com/api/v3.
func NewCoingeckoClient(baseURL string, timeout time.Duration) *CoingeckoClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &CoingeckoClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

// SpotPriceUSD returns the current bitcoin price in USD.
func (c *CoingeckoClient) SpotPriceUSD(ctx context.Context) (float64, error) {
	url := fmt.Sprintf("%s/simple/price?ids=bitcoin&vs_currencies=usd", c.baseURL)

	var resp map[string]map[string]float64
	if err := getJSON(ctx, c.client, url, &resp); err != nil {
		return 0, fmt.Errorf("failed to fetch spot price: %w", err)
	}

	price, ok := resp["bitcoin"]["usd"]
	if !ok {
		return 0, fmt.Errorf("spot price missing from response")
	}

	return price, nil
}

// marketChartResponse mirrors the market_chart payload. Each point is a
// [timestamp_ms, price] pair.
type marketChartResponse struct {
	Prices [][2]float64 `json:"prices"`
}

// MarketChart returns the USD price series over the last days days.
func (c *CoingeckoClient) MarketChart(ctx context.Context, days int) ([]models.PricePoint, error) {
	url := fmt.Sprintf("%s/coins/bitcoin/market_chart?vs_currency=usd&days=%d", c.baseURL, days)

	var resp marketChartResponse
	if err := getJSON(ctx, c.client, url, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch market chart: %w", err)
	}

	points := make([]models.PricePoint, 0, len(resp.Prices))
	for _, p := range resp.Prices {
		points = append(points, models.PricePoint{
			Time:  time.UnixMilli(int64(p[0])).UTC(),
			Price: p[1],
		})
	}

	return points, nil
}

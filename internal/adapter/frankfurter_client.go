package adapter

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// FrankfurterClient fetches fiat exchange rates from the Frankfurter
// public API.
type FrankfurterClient struct {
	baseURL string
	client  *http.Client
}

// NewFrankfurterClient creates a client against the given base URL,
// e.g. https://api.frankfurter.app.
func NewFrankfurterClient(baseURL string, timeout time.Duration) *FrankfurterClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &FrankfurterClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

type frankfurterResponse struct {
	Base  string             `json:"base"`
	Rates map[string]float64 `json:"rates"`
}

// RatesFromUSD returns USD conversion multipliers for the given target
// currencies. The base currency maps to 1.0.
func (c *FrankfurterClient) RatesFromUSD(ctx context.Context, currencies []string) (map[string]float64, error) {
	targets := make([]string, 0, len(currencies))
	for _, cur := range currencies {
		if cur != "USD" {
			targets = append(targets, cur)
		}
	}

	url := fmt.Sprintf("%s/latest?from=USD&to=%s", c.baseURL, strings.Join(targets, ","))

	var resp frankfurterResponse
	if err := getJSON(ctx, c.client, url, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch exchange rates: %w", err)
	}

	rates := make(map[string]float64, len(resp.Rates)+1)
	rates["USD"] = 1.0
	for cur, rate := range resp.Rates {
		rates[cur] = rate
	}

	return rates, nil
}

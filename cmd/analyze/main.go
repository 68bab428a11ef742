// Command analyze runs a one-shot wallet analysis from the command line
// and prints the report as JSON. It needs no database: prices are
// cached in memory for the lifetime of the run.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/wallet-insight/internal/adapter"
	"github.com/wallet-insight/internal/config"
	"github.com/wallet-insight/internal/logging"
	"github.com/wallet-insight/internal/pricefeed"
	"github.com/wallet-insight/internal/service"
	"github.com/wallet-insight/internal/storage"
	"github.com/wallet-insight/internal/types"
)

func main() {
	address := flag.String("address", "", "bitcoin address to analyze")
	limit := flag.String("limit", "last20", "transaction scope: last20 or all")
	currency := flag.String("currency", "USD", "display currency: USD, GBP or EUR")
	flag.Parse()

	if *address == "" {
		fmt.Fprintln(os.Stderr, "usage: analyze -address <bitcoin-address> [-limit last20|all] [-currency USD|GBP|EUR]")
		os.Exit(2)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Keep stdout clean for the JSON report.
	logging.Init(logging.ParseLevel(cfg.Logging.Level), logging.ParseFormat(cfg.Logging.Format))
	logging.Default().SetOutput(os.Stderr)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cache := storage.NewMemoryCache()
	timeout := cfg.Providers.RequestTimeout
	blockIndex := adapter.NewBlockstreamClient(cfg.Providers.BlockIndexURL, timeout)
	coingecko := adapter.NewCoingeckoClient(cfg.Providers.SpotPriceURL, timeout)
	cryptocompare := adapter.NewCryptocompareClient(cfg.Providers.HistoricalPriceURL, timeout)
	frankfurter := adapter.NewFrankfurterClient(cfg.Providers.CurrencyRateURL, timeout)

	feed := pricefeed.NewFeed(coingecko, cryptocompare, coingecko, cache, cfg.Cache, cfg.Pipeline.SeriesDays)
	converter := pricefeed.NewConverter(frankfurter, cache, cfg.Cache)

	ledgers := service.NewLedgerService(blockIndex, feed, cfg.Pipeline)
	valuation := service.NewValuationService(feed)
	wallets := service.NewWalletService(blockIndex, ledgers, valuation, feed, converter)

	report, err := wallets.Analyze(ctx, service.AnalyzeInput{
		Address:  *address,
		Limit:    types.ParseTxLimitMode(*limit),
		Currency: *currency,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "analysis failed: %v\n", err)
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		fmt.Fprintf(os.Stderr, "failed to encode report: %v\n", err)
		os.Exit(1)
	}
}

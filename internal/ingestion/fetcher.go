// Package ingestion fetches kline history in rate-limited windows and merges
// it incrementally into storage.
package ingestion

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"binance-data-lab/internal/binance"
	"binance-data-lab/internal/observability"
)

// MarketDataAPI is the slice of the REST client the fetcher needs.
type MarketDataAPI interface {
	ExchangeInfo(ctx context.Context, symbol string) (*binance.ExchangeInfo, error)
	Ticker24h(ctx context.Context, symbol string) ([]binance.Ticker24h, error)
	Klines(ctx context.Context, symbol, interval string, startMs, endMs int64) ([]binance.RawKline, error)
}

// Fetcher issues concurrent windowed kline requests and reassembles results
// in window order. Rate limiting happens inside the client; the fetcher only
// decides what to request and how to stitch responses together.
type Fetcher struct {
	api     MarketDataAPI
	logger  *zap.Logger
	metrics *observability.Metrics
}

// FetcherOptions contains configuration for creating a Fetcher.
type FetcherOptions struct {
	API     MarketDataAPI
	Logger  *zap.Logger
	Metrics *observability.Metrics
}

// NewFetcher creates a new windowed fetcher.
func NewFetcher(opts FetcherOptions) *Fetcher {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fetcher{
		api:     opts.API,
		logger:  logger,
		metrics: opts.Metrics,
	}
}

// FetchAllWindows requests every window concurrently and concatenates the
// per-window results in window-index order. Completion order is arbitrary;
// the indexed slice is what preserves chronology. Any window failure aborts
// the whole batch.
func (f *Fetcher) FetchAllWindows(ctx context.Context, symbol, interval string, windows []Window) ([]binance.RawKline, error) {
	if len(windows) == 0 {
		return nil, nil
	}

	results := make([][]binance.RawKline, len(windows))

	g, gctx := errgroup.WithContext(ctx)
	for i, w := range windows {
		i, w := i, w
		g.Go(func() error {
			rows, err := f.api.Klines(gctx, symbol, interval, w.StartMs, w.EndMs)
			if err != nil {
				return fmt.Errorf("window [%d, %d): %w", w.StartMs, w.EndMs, err)
			}
			results[i] = rows
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		if f.metrics != nil {
			f.metrics.FetchErrors.Inc()
		}
		return nil, fmt.Errorf("fetch %s %s: %w", symbol, interval, err)
	}

	var merged []binance.RawKline
	for _, rows := range results {
		merged = append(merged, rows...)
	}

	if f.metrics != nil {
		f.metrics.WindowsFetched.Add(float64(len(windows)))
		f.metrics.RowsFetched.Add(float64(len(merged)))
	}
	f.logger.Debug("fetched windows",
		zap.String("symbol", symbol),
		zap.String("interval", interval),
		zap.Int("windows", len(windows)),
		zap.Int("rows", len(merged)))

	return merged, nil
}

// FetchSymbolUniverse retrieves exchange metadata and the bulk 24h ticker
// concurrently. These are the two unbounded single requests outside the
// windowing scheme.
func (f *Fetcher) FetchSymbolUniverse(ctx context.Context) (*binance.ExchangeInfo, []binance.Ticker24h, error) {
	var (
		info    *binance.ExchangeInfo
		tickers []binance.Ticker24h
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		info, err = f.api.ExchangeInfo(gctx, "")
		return err
	})
	g.Go(func() error {
		var err error
		tickers, err = f.api.Ticker24h(gctx, "")
		return err
	})
	if err := g.Wait(); err != nil {
		if f.metrics != nil {
			f.metrics.FetchErrors.Inc()
		}
		return nil, nil, fmt.Errorf("fetch symbol universe: %w", err)
	}

	if f.metrics != nil {
		f.metrics.DiscoveryRuns.Inc()
	}
	return info, tickers, nil
}

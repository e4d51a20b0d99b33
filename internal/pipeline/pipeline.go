// Package pipeline drives the full collection run: optional symbol
// discovery, then an incremental fetch-and-merge pass over every configured
// (symbol, interval) pair.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"binance-data-lab/internal/ingestion"
	"binance-data-lab/internal/normalization"
	"binance-data-lab/internal/observability"
	"binance-data-lab/internal/storage"
)

// Pipeline orchestrates one end-to-end collection run. Pairs are processed
// sequentially; concurrency lives inside the per-pair window fetch, where the
// shared rate limiter keeps it honest.
type Pipeline struct {
	fetcher     *ingestion.Fetcher
	merger      *ingestion.MergeStore
	symbolStore storage.SymbolStore

	symbols     []string
	intervals   []string
	quoteAssets []string
	topSymbols  int

	continueOnError bool

	logger  *zap.Logger
	metrics *observability.Metrics
	now     func() time.Time
}

// Options contains configuration for creating a Pipeline.
type Options struct {
	Fetcher *ingestion.Fetcher
	Merger  *ingestion.MergeStore

	// SymbolStore enables discovery: when set, the pipeline fetches the
	// symbol universe, persists a liquidity ranking, and, if Symbols is
	// empty, collects the top-ranked pairs instead of a configured list.
	SymbolStore storage.SymbolStore

	// Symbols is the explicit list of pairs to collect. Overrides discovery
	// as the source of pairs, though discovery still refreshes the ranking.
	Symbols []string

	// Intervals to collect per symbol, e.g. "1m", "4h", "1d".
	Intervals []string

	// QuoteAssets filters discovered symbols. Empty means the default set.
	QuoteAssets []string

	// TopSymbols caps how many discovered symbols are collected. Zero means
	// no cap.
	TopSymbols int

	// ContinueOnError makes a pair failure skip to the next pair instead of
	// aborting the run. The run still reports an error at the end.
	ContinueOnError bool

	Logger  *zap.Logger
	Metrics *observability.Metrics

	// Now overrides the clock, for tests. The run's upper fetch bound is
	// taken from it once per pair.
	Now func() time.Time
}

// New creates a collection pipeline.
func New(opts Options) *Pipeline {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Pipeline{
		fetcher:         opts.Fetcher,
		merger:          opts.Merger,
		symbolStore:     opts.SymbolStore,
		symbols:         opts.Symbols,
		intervals:       opts.Intervals,
		quoteAssets:     opts.QuoteAssets,
		topSymbols:      opts.TopSymbols,
		continueOnError: opts.ContinueOnError,
		logger:          logger,
		metrics:         opts.Metrics,
		now:             now,
	}
}

// Run executes one collection pass. With ContinueOnError set, the first pair
// error is remembered and returned after the remaining pairs have run.
func (p *Pipeline) Run(ctx context.Context) error {
	symbols, err := p.resolveSymbols(ctx)
	if err != nil {
		return err
	}
	if len(symbols) == 0 {
		return fmt.Errorf("pipeline: no symbols to collect")
	}
	if len(p.intervals) == 0 {
		return fmt.Errorf("pipeline: no intervals configured")
	}

	p.logger.Info("starting collection run",
		zap.Int("symbols", len(symbols)),
		zap.Strings("intervals", p.intervals))

	var firstErr error
	for _, symbol := range symbols {
		for _, interval := range p.intervals {
			if err := ctx.Err(); err != nil {
				return err
			}

			if err := p.processPair(ctx, symbol, interval); err != nil {
				if p.metrics != nil {
					p.metrics.PairsFailed.Inc()
				}
				if !p.continueOnError {
					return err
				}
				p.logger.Warn("pair failed, continuing",
					zap.String("symbol", symbol),
					zap.String("interval", interval),
					zap.Error(err))
				if p.metrics != nil {
					p.metrics.PairsSkipped.Inc()
				}
				if firstErr == nil {
					firstErr = err
				}
			}
		}
	}
	return firstErr
}

// resolveSymbols returns the pairs to collect, running discovery first when a
// symbol store is wired in.
func (p *Pipeline) resolveSymbols(ctx context.Context) ([]string, error) {
	if p.symbolStore == nil {
		return p.symbols, nil
	}

	info, tickers, err := p.fetcher.FetchSymbolUniverse(ctx)
	if err != nil {
		return nil, err
	}

	ranked := normalization.Symbols(info.Symbols, tickers, p.quoteAssets)
	if err := p.symbolStore.SaveRanking(ctx, ranked); err != nil {
		return nil, fmt.Errorf("save ranking: %w", err)
	}
	if p.metrics != nil {
		p.metrics.SymbolsRanked.Set(float64(len(ranked)))
	}
	p.logger.Info("symbol discovery complete", zap.Int("ranked", len(ranked)))

	if len(p.symbols) > 0 {
		return p.symbols, nil
	}

	symbols := make([]string, 0, len(ranked))
	for _, s := range ranked {
		symbols = append(symbols, s.Symbol)
		if p.topSymbols > 0 && len(symbols) == p.topSymbols {
			break
		}
	}
	return symbols, nil
}

// processPair fetches everything newer than the persisted dataset for one
// (symbol, interval) pair and merges it in.
func (p *Pipeline) processPair(ctx context.Context, symbol, interval string) error {
	started := time.Now()

	bar, err := ingestion.IntervalDuration(interval)
	if err != nil {
		return err
	}

	existing, resume, err := p.merger.ResumePoint(ctx, symbol, interval)
	if err != nil {
		return err
	}

	startMs := resume.UnixMilli()
	endMs := p.now().UnixMilli()
	if startMs > endMs {
		p.logger.Debug("pair already current",
			zap.String("symbol", symbol),
			zap.String("interval", interval))
		return nil
	}

	windows, err := ingestion.PlanWindows(startMs, endMs, bar)
	if err != nil {
		return err
	}

	raw, err := p.fetcher.FetchAllWindows(ctx, symbol, interval, windows)
	if err != nil {
		return err
	}

	fresh, err := normalization.Klines(raw)
	if err != nil {
		return fmt.Errorf("normalize %s %s: %w", symbol, interval, err)
	}

	added, err := p.merger.MergeAndPersist(ctx, existing, fresh, symbol, interval)
	if err != nil {
		return err
	}

	if p.metrics != nil {
		p.metrics.PairsProcessed.Inc()
		p.metrics.RowsPersisted.Add(float64(added))
		p.metrics.PairDuration.Observe(time.Since(started).Seconds())
	}
	p.logger.Info("pair collected",
		zap.String("symbol", symbol),
		zap.String("interval", interval),
		zap.Int("windows", len(windows)),
		zap.Int("added", added),
		zap.Duration("took", time.Since(started)))
	return nil
}

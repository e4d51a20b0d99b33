package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"binance-data-lab/internal/binance"
	"binance-data-lab/internal/config"
	"binance-data-lab/internal/ingestion"
	"binance-data-lab/internal/observability"
	"binance-data-lab/internal/pipeline"
	"binance-data-lab/internal/ratelimit"
	"binance-data-lab/internal/storage"
	chstore "binance-data-lab/internal/storage/clickhouse"
	"binance-data-lab/internal/storage/memory"
	"binance-data-lab/internal/storage/parquet"
	pgstore "binance-data-lab/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	metrics := observability.NewMetrics("")

	// Metrics server, if enabled.
	if cfg.Metrics.Addr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", observability.Handler())
			mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
				w.Write([]byte("ok"))
			})
			logger.Info("starting metrics server", zap.String("addr", cfg.Metrics.Addr))
			if err := http.ListenAndServe(cfg.Metrics.Addr, mux); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server", zap.Error(err))
			}
		}()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Graceful shutdown on first signal, hard exit on second.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	done := make(chan error, 1)

	go func() {
		sig := <-sigCh
		logger.Info("shutting down", zap.String("signal", sig.String()))
		cancel()

		select {
		case sig := <-sigCh:
			logger.Warn("forcing exit", zap.String("signal", sig.String()))
			os.Exit(1)
		case <-time.After(30 * time.Second):
			logger.Warn("shutdown timed out, forcing exit")
			os.Exit(1)
		case <-done:
		}
	}()

	err = run(ctx, cfg, logger, metrics)
	done <- err

	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal("collection run failed", zap.Error(err))
	}
	logger.Info("collection run complete")
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger, metrics *observability.Metrics) error {
	klineStore, symbolStore, cleanup, err := openStores(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	bucket := ratelimit.NewBucket(cfg.RateLimit.Capacity, cfg.RateLimit.RefillRate,
		ratelimit.WithPollInterval(cfg.RateLimit.PollInterval))

	// Sample the bucket for the tokens gauge while the run is live.
	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				metrics.TokensAvailable.Set(bucket.Tokens())
			}
		}
	}()

	client := binance.NewClient(
		binance.WithBaseURL(cfg.Exchange.BaseURL),
		binance.WithTimeout(cfg.Exchange.Timeout),
		binance.WithMaxRetries(cfg.Exchange.MaxRetries),
		binance.WithLimiter(bucket),
	)

	fetcher := ingestion.NewFetcher(ingestion.FetcherOptions{
		API:     client,
		Logger:  logger,
		Metrics: metrics,
	})

	defaultStart, err := cfg.Collection.DefaultStartTime()
	if err != nil {
		return err
	}
	merger := ingestion.NewMergeStore(ingestion.MergeStoreOptions{
		Store:        klineStore,
		DefaultStart: defaultStart,
		Logger:       logger,
	})

	if !cfg.Collection.Discover {
		symbolStore = nil
	}

	p := pipeline.New(pipeline.Options{
		Fetcher:         fetcher,
		Merger:          merger,
		SymbolStore:     symbolStore,
		Symbols:         cfg.Collection.Symbols,
		Intervals:       cfg.Collection.Intervals,
		QuoteAssets:     cfg.Collection.QuoteAssets,
		TopSymbols:      cfg.Collection.TopSymbols,
		ContinueOnError: cfg.Collection.ContinueOnError,
		Logger:          logger,
		Metrics:         metrics,
	})

	return p.Run(ctx)
}

// openStores builds the configured backend. The cleanup closes whatever
// connection the backend holds.
func openStores(ctx context.Context, cfg *config.Config) (storage.KlineStore, storage.SymbolStore, func(), error) {
	switch cfg.Storage.Backend {
	case "parquet":
		store := parquet.NewStore(cfg.Storage.DataDir)
		return store, store, func() {}, nil

	case "memory":
		return memory.NewKlineStore(), memory.NewSymbolStore(), func() {}, nil

	case "postgres":
		pool, err := pgstore.NewPool(ctx, cfg.Storage.PostgresDSN)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		return pgstore.NewKlineStore(pool), pgstore.NewSymbolStore(pool), pool.Close, nil

	case "clickhouse":
		conn, err := chstore.NewConn(ctx, cfg.Storage.ClickhouseDSN)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("connect clickhouse: %w", err)
		}
		return chstore.NewKlineStore(conn), chstore.NewSymbolStore(conn), func() { conn.Close() }, nil

	default:
		return nil, nil, nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("parse log level %q: %w", level, err)
	}
	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(lvl)
	return zcfg.Build()
}

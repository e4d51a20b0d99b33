package binance

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func TestClient_ExchangeInfo(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/exchangeInfo" {
			t.Errorf("expected path /exchangeInfo, got %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"symbols":[
			{"symbol":"BTCUSDT","status":"TRADING","baseAsset":"BTC","quoteAsset":"USDT"},
			{"symbol":"ETHBTC","status":"TRADING","baseAsset":"ETH","quoteAsset":"BTC"}
		]}`))
	}))
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL))
	ctx := context.Background()

	info, err := client.ExchangeInfo(ctx, "")
	if err != nil {
		t.Fatalf("ExchangeInfo: %v", err)
	}

	if len(info.Symbols) != 2 {
		t.Fatalf("expected 2 symbols, got %d", len(info.Symbols))
	}
	if info.Symbols[0].Symbol != "BTCUSDT" || info.Symbols[0].QuoteAsset != "USDT" {
		t.Errorf("unexpected first symbol: %+v", info.Symbols[0])
	}
}

func TestClient_Ticker24h_BulkAndSingle(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("symbol") == "" {
			w.Write([]byte(`[{"symbol":"BTCUSDT","weightedAvgPrice":"43000.5","volume":"1200.0"}]`))
			return
		}
		w.Write([]byte(`{"symbol":"BTCUSDT","weightedAvgPrice":"43000.5","volume":"1200.0"}`))
	}))
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL))
	ctx := context.Background()

	bulk, err := client.Ticker24h(ctx, "")
	if err != nil {
		t.Fatalf("Ticker24h bulk: %v", err)
	}
	if len(bulk) != 1 || bulk[0].WeightedAvgPrice != "43000.5" {
		t.Errorf("unexpected bulk result: %+v", bulk)
	}

	single, err := client.Ticker24h(ctx, "BTCUSDT")
	if err != nil {
		t.Fatalf("Ticker24h single: %v", err)
	}
	if len(single) != 1 || single[0].Symbol != "BTCUSDT" {
		t.Errorf("unexpected single result: %+v", single)
	}
}

func TestClient_Klines(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("symbol") != "ABCUSDT" || q.Get("interval") != "1m" {
			t.Errorf("unexpected query: %v", q)
		}
		if q.Get("limit") != "1000" {
			t.Errorf("expected limit 1000, got %s", q.Get("limit"))
		}
		if q.Get("startTime") != "1609459200000" || q.Get("endTime") != "1609459260000" {
			t.Errorf("unexpected time bounds: %v", q)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			[1609459200000,"1.0","2.0","0.5","1.5","100.0",1609459259999,"150.0",42,"50.0","75.0","0"]
		]`))
	}))
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL))
	ctx := context.Background()

	klines, err := client.Klines(ctx, "ABCUSDT", "1m", 1609459200000, 1609459260000)
	if err != nil {
		t.Fatalf("Klines: %v", err)
	}

	if len(klines) != 1 {
		t.Fatalf("expected 1 kline, got %d", len(klines))
	}
	k := klines[0]
	if k.OpenTimeMs != 1609459200000 || k.CloseTimeMs != 1609459259999 {
		t.Errorf("unexpected timestamps: %+v", k)
	}
	if k.Open != "1.0" || k.High != "2.0" || k.Low != "0.5" || k.Close != "1.5" || k.Volume != "100.0" {
		t.Errorf("unexpected OHLCV: %+v", k)
	}
}

func TestClient_Klines_MismatchedBounds(t *testing.T) {
	client := NewClient()

	_, err := client.Klines(context.Background(), "ABCUSDT", "1m", 1609459200000, 0)
	if err == nil {
		t.Fatal("expected error for mismatched bounds, got nil")
	}
}

func TestClient_RetriesServerError(t *testing.T) {
	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"symbols":[]}`))
	}))
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL))

	_, err := client.ExchangeInfo(context.Background(), "")
	if err != nil {
		t.Fatalf("ExchangeInfo after retry: %v", err)
	}
	if calls.Load() != 2 {
		t.Errorf("expected 2 calls, got %d", calls.Load())
	}
}

func TestClient_NoRetryOnClientError(t *testing.T) {
	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"code":-1121,"msg":"Invalid symbol."}`))
	}))
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL))

	_, err := client.Klines(context.Background(), "NOPE", "1m", 0, 0)
	if err == nil {
		t.Fatal("expected error for 400 response")
	}
	if calls.Load() != 1 {
		t.Errorf("expected 1 call (no retry), got %d", calls.Load())
	}
}

// countingLimiter records admissions.
type countingLimiter struct {
	acquired atomic.Int64
}

func (l *countingLimiter) Acquire(ctx context.Context) error {
	l.acquired.Add(1)
	return nil
}

func TestClient_LimiterGatesEveryRequest(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	limiter := &countingLimiter{}
	client := NewClient(WithBaseURL(server.URL), WithLimiter(limiter))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := client.Ticker24h(ctx, ""); err != nil {
			t.Fatalf("Ticker24h: %v", err)
		}
	}

	if limiter.acquired.Load() != 3 {
		t.Errorf("expected 3 acquisitions, got %d", limiter.acquired.Load())
	}
}

// Package binance implements a read-only client for the Binance spot
// market-data REST API.
package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Default configuration values.
const (
	DefaultBaseURL     = "https://api.binance.com/api/v3"
	DefaultTimeout     = 30 * time.Second
	DefaultMaxRetries  = 3
	DefaultRetryDelay  = 1 * time.Second
	DefaultMaxDelay    = 10 * time.Second
	DefaultBackoffMult = 2.0

	// MaxKlinesPerRequest is the exchange-side row cap on a single /klines call.
	MaxKlinesPerRequest = 1000
)

// Limiter gates request admission. Acquire blocks until the caller may send
// one request.
type Limiter interface {
	Acquire(ctx context.Context) error
}

// Client is an HTTP client for the public market-data endpoints.
type Client struct {
	baseURL     string
	client      *http.Client
	limiter     Limiter
	maxRetries  int
	retryDelay  time.Duration
	maxDelay    time.Duration
	backoffMult float64
}

// ClientOption configures Client.
type ClientOption func(*Client)

// WithBaseURL overrides the API base URL.
func WithBaseURL(u string) ClientOption {
	return func(c *Client) {
		c.baseURL = u
	}
}

// WithTimeout sets HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.client.Timeout = d
	}
}

// WithHTTPClient sets custom http.Client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.client = client
	}
}

// WithLimiter routes every outbound request through the given admission gate.
func WithLimiter(l Limiter) ClientOption {
	return func(c *Client) {
		c.limiter = l
	}
}

// WithMaxRetries sets maximum retry attempts for transport-level failures.
func WithMaxRetries(n int) ClientOption {
	return func(c *Client) {
		c.maxRetries = n
	}
}

// NewClient creates a new market-data client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL:     DefaultBaseURL,
		client:      &http.Client{Timeout: DefaultTimeout},
		maxRetries:  DefaultMaxRetries,
		retryDelay:  DefaultRetryDelay,
		maxDelay:    DefaultMaxDelay,
		backoffMult: DefaultBackoffMult,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// get performs a rate-limited GET with retries and exponential backoff.
// Retries cover network errors, 429 and 5xx; other non-200 statuses fail
// immediately.
func (c *Client) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	delay := c.retryDelay
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
			delay = time.Duration(float64(delay) * c.backoffMult)
			if delay > c.maxDelay {
				delay = c.maxDelay
			}
		}

		if c.limiter != nil {
			if err := c.limiter.Acquire(ctx); err != nil {
				return nil, err
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("http request: %w", err)
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("read response: %w", err)
			continue
		}

		switch {
		case resp.StatusCode == http.StatusOK:
			return body, nil
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			lastErr = fmt.Errorf("status %d: %s", resp.StatusCode, string(body))
			continue
		default:
			return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
		}
	}

	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}

// ExchangeInfo retrieves symbol metadata. An empty symbol returns the whole
// exchange.
func (c *Client) ExchangeInfo(ctx context.Context, symbol string) (*ExchangeInfo, error) {
	query := url.Values{}
	if symbol != "" {
		query.Set("symbol", symbol)
	}

	body, err := c.get(ctx, "/exchangeInfo", query)
	if err != nil {
		return nil, fmt.Errorf("get exchange info: %w", err)
	}

	var info ExchangeInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, fmt.Errorf("unmarshal exchange info: %w", err)
	}
	return &info, nil
}

// Ticker24h retrieves rolling 24h ticker statistics. With an empty symbol the
// endpoint returns an array; with a symbol it returns a single object. Both
// shapes come back as a slice.
func (c *Client) Ticker24h(ctx context.Context, symbol string) ([]Ticker24h, error) {
	query := url.Values{}
	if symbol != "" {
		query.Set("symbol", symbol)
	}

	body, err := c.get(ctx, "/ticker/24hr", query)
	if err != nil {
		return nil, fmt.Errorf("get 24h ticker: %w", err)
	}

	if symbol != "" {
		var single Ticker24h
		if err := json.Unmarshal(body, &single); err != nil {
			return nil, fmt.Errorf("unmarshal 24h ticker: %w", err)
		}
		return []Ticker24h{single}, nil
	}

	var tickers []Ticker24h
	if err := json.Unmarshal(body, &tickers); err != nil {
		return nil, fmt.Errorf("unmarshal 24h ticker: %w", err)
	}
	return tickers, nil
}

// Klines retrieves up to MaxKlinesPerRequest bars for a window. Both bounds
// must be given, or neither: zero values for both request the unbounded form,
// which returns the most recent bars.
func (c *Client) Klines(ctx context.Context, symbol, interval string, startMs, endMs int64) ([]RawKline, error) {
	if (startMs == 0) != (endMs == 0) {
		return nil, fmt.Errorf("klines: both startMs and endMs required, or neither (got %d, %d)", startMs, endMs)
	}

	query := url.Values{}
	query.Set("symbol", symbol)
	query.Set("interval", interval)
	query.Set("limit", strconv.Itoa(MaxKlinesPerRequest))
	if startMs != 0 {
		query.Set("startTime", strconv.FormatInt(startMs, 10))
		query.Set("endTime", strconv.FormatInt(endMs, 10))
	}

	body, err := c.get(ctx, "/klines", query)
	if err != nil {
		return nil, fmt.Errorf("get klines %s %s: %w", symbol, interval, err)
	}

	var klines []RawKline
	if err := json.Unmarshal(body, &klines); err != nil {
		return nil, fmt.Errorf("unmarshal klines: %w", err)
	}
	return klines, nil
}

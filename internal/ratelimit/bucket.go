// Package ratelimit provides a token-bucket admission gate shared by all
// in-flight API requests.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Default budget: steady-state ~8 requests/second with bursts up to 8.
const (
	DefaultCapacity     = 8
	DefaultRefillRate   = 8 // tokens per second
	DefaultPollInterval = 1 * time.Second
)

// Bucket is a token bucket with lazy refill. One bucket is shared by every
// concurrent caller; admission order among waiters is whoever polls when a
// token is free (no FIFO queue).
type Bucket struct {
	mu         sync.Mutex
	tokens     float64
	capacity   float64
	refillRate float64
	lastRefill time.Time

	pollInterval time.Duration
	now          func() time.Time
}

// Option configures Bucket.
type Option func(*Bucket)

// WithPollInterval sets how long a starved caller sleeps between polls.
func WithPollInterval(d time.Duration) Option {
	return func(b *Bucket) {
		b.pollInterval = d
	}
}

// WithClock overrides the time source. Test hook.
func WithClock(now func() time.Time) Option {
	return func(b *Bucket) {
		b.now = now
	}
}

// NewBucket creates a full bucket with the given capacity and refill rate
// (tokens per second).
func NewBucket(capacity, refillRate float64, opts ...Option) *Bucket {
	b := &Bucket{
		tokens:       capacity,
		capacity:     capacity,
		refillRate:   refillRate,
		pollInterval: DefaultPollInterval,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	b.lastRefill = b.now()
	return b
}

// NewDefaultBucket creates a bucket with the default request budget.
func NewDefaultBucket(opts ...Option) *Bucket {
	return NewBucket(DefaultCapacity, DefaultRefillRate, opts...)
}

// Acquire blocks until a token is available, consumes one and returns.
// Returns early with the context error if ctx is done while waiting.
func (b *Bucket) Acquire(ctx context.Context) error {
	for {
		if b.tryAcquire() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(b.pollInterval):
		}
	}
}

// tryAcquire refills lazily and consumes a token when more than one is held.
// The >1 margin matches the refill commit threshold below and keeps the count
// from ever reaching zero through admission alone.
func (b *Bucket) tryAcquire() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.refill()
	if b.tokens > 1 {
		b.tokens--
		return true
	}
	return false
}

// refill adds elapsed*rate tokens capped at capacity. The refill clock only
// advances when the accrued amount would push the bucket to at least one
// token; otherwise the elapsed time keeps accumulating for the next poll.
func (b *Bucket) refill() {
	now := b.now()
	accrued := now.Sub(b.lastRefill).Seconds() * b.refillRate
	if b.tokens+accrued >= 1 {
		b.tokens = min(b.tokens+accrued, b.capacity)
		b.lastRefill = now
	}
}

// Tokens returns the current token count after a refill. Observed values stay
// within [0, capacity].
func (b *Bucket) Tokens() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.refill()
	return b.tokens
}

// Package ratelimit provides sliding-window admission control keyed by
// tenant or caller IP. Two adjacent fixed 60-second buckets are blended at
// read time, which resists the boundary-burst exploit of a single fixed
// window without keeping per-request timestamps.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/benbjohnson/clock"
)

const (
	windowMillis = 60_000
	// bucketTTL covers the current window plus one full read of it as the
	// previous window.
	bucketTTL = 120 * time.Second
)

// ErrStoreUnavailable marks counter-store failures so callers can tell
// "over limit" from "store is down".
var ErrStoreUnavailable = errors.New("ratelimit: counter store unavailable")

// Result is the admission decision for one request. Remaining is the room
// left after this request consumed its unit, so the last admitted request
// reads 0 rather than 1.
type Result struct {
	Allowed           bool      `json:"allowed"`
	Limit             int       `json:"limit"` // effective ceiling: rpm + burst
	Remaining         int       `json:"remaining"`
	ResetAt           time.Time `json:"resetAt"`
	RetryAfterSeconds int       `json:"retryAfterSeconds"`
}

// RateLimitExceededError is returned by fail-fast call sites on rejection.
type RateLimitExceededError struct {
	Result Result
}

func (e *RateLimitExceededError) Error() string {
	return fmt.Sprintf("ratelimit: limit %d exceeded, retry after %ds", e.Result.Limit, e.Result.RetryAfterSeconds)
}

// Limiter evaluates the sliding window against a counter store.
type Limiter struct {
	store CounterStore
	clock clock.Clock
}

// LimiterOption configures a Limiter.
type LimiterOption func(*Limiter)

// WithClock injects the clock used for window arithmetic.
func WithClock(c clock.Clock) LimiterOption {
	return func(l *Limiter) { l.clock = c }
}

// New creates a limiter over the given counter store.
func New(store CounterStore, opts ...LimiterOption) *Limiter {
	l := &Limiter{store: store, clock: clock.New()}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// CheckAndConsume admits or rejects one request for key. Admitted requests
// consume one unit of the current window; rejected requests consume nothing.
func (l *Limiter) CheckAndConsume(ctx context.Context, key string, limitPerMinute, burstAllowance int) (Result, error) {
	nowMs := l.clock.Now().UnixMilli()
	window := nowMs / windowMillis
	elapsed := nowMs % windowMillis

	currentKey := bucketKey(key, window)
	previousKey := bucketKey(key, window-1)

	current, previous, err := l.store.Counts(ctx, currentKey, previousKey)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	// The previous bucket decays linearly as the current window fills.
	weighted := float64(current) + float64(previous)*(1-float64(elapsed)/windowMillis)
	ceiling := limitPerMinute + burstAllowance

	resetAt := time.UnixMilli((window + 1) * windowMillis)
	result := Result{
		Limit:   ceiling,
		ResetAt: resetAt,
	}

	if weighted >= float64(ceiling) {
		result.RetryAfterSeconds = int(math.Ceil(float64(resetAt.UnixMilli()-nowMs) / 1000))
		return result, nil
	}

	if _, err := l.store.Incr(ctx, currentKey, bucketTTL); err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	result.Allowed = true
	result.Remaining = int(math.Max(0, math.Floor(float64(ceiling)-(weighted+1))))
	return result, nil
}

// Assert is the fail-fast form of CheckAndConsume.
func (l *Limiter) Assert(ctx context.Context, key string, limitPerMinute, burstAllowance int) error {
	result, err := l.CheckAndConsume(ctx, key, limitPerMinute, burstAllowance)
	if err != nil {
		return err
	}
	if !result.Allowed {
		return &RateLimitExceededError{Result: result}
	}
	return nil
}

func bucketKey(key string, window int64) string {
	return fmt.Sprintf("ratelimit:%s:%d", key, window)
}

package ratelimit

import (
	"context"
	"time"
)

// CounterStore holds disposable per-window request counts. Counts are not a
// source of truth; expiry is cleanup, not the arbiter of correctness.
type CounterStore interface {
	// Counts returns the values of two window keys, zero for absent keys.
	Counts(ctx context.Context, currentKey, previousKey string) (current, previous int64, err error)
	// Incr atomically increments a key and (re)sets its expiry. The
	// increment must be atomic; the expiry may trail it.
	Incr(ctx context.Context, key string, ttl time.Duration) (int64, error)
}

package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps window counters in Redis so the limit holds across
// process instances.
type RedisStore struct {
	rdb *redis.Client
}

// NewRedisStore wraps an existing Redis client.
func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func (s *RedisStore) Counts(ctx context.Context, currentKey, previousKey string) (int64, int64, error) {
	vals, err := s.rdb.MGet(ctx, currentKey, previousKey).Result()
	if err != nil {
		return 0, 0, fmt.Errorf("counter mget: %w", err)
	}
	current, err := parseCount(vals[0])
	if err != nil {
		return 0, 0, err
	}
	previous, err := parseCount(vals[1])
	if err != nil {
		return 0, 0, err
	}
	return current, previous, nil
}

func (s *RedisStore) Incr(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	pipe := s.rdb.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("counter incr: %w", err)
	}
	return incr.Val(), nil
}

func parseCount(v interface{}) (int64, error) {
	if v == nil {
		return 0, nil
	}
	s, ok := v.(string)
	if !ok {
		return 0, fmt.Errorf("counter value has unexpected type %T", v)
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("counter value %q: %w", s, err)
	}
	return n, nil
}

var _ CounterStore = (*RedisStore)(nil)

package repository

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// ClockStore persists the remaining time of one exam in Redis under a
// single key. It satisfies exam.ClockStore.
type ClockStore struct {
	rdb *redis.Client
	key string
	ttl time.Duration
}

// NewClockStore binds a store to key. A zero ttl keeps the key forever.
func NewClockStore(rdb *redis.Client, key string, ttl time.Duration) *ClockStore {
	return &ClockStore{rdb: rdb, key: key, ttl: ttl}
}

func (s *ClockStore) Read(ctx context.Context) (int64, bool, error) {
	ms, err := s.rdb.Get(ctx, s.key).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return ms, true, nil
}

func (s *ClockStore) Write(ctx context.Context, remainingMs int64) error {
	return s.rdb.Set(ctx, s.key, remainingMs, s.ttl).Err()
}

func (s *ClockStore) Clear(ctx context.Context) error {
	return s.rdb.Del(ctx, s.key).Err()
}

package idempotency

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const idempotencyKeyPrefix = "modgate:idem:"

// RedisStore is a Redis-backed idempotency record store. This is the
// production-recommended implementation for distributed deployments where
// multiple instances must agree on whether a keyed request was already
// executed.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Get returns the recorded response for the key, if any.
func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	payload, err := s.client.Get(ctx, idempotencyKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return payload, true, nil
}

// Put records the response for the key with TTL. The first writer wins so a
// concurrent duplicate cannot overwrite an already recorded outcome.
func (s *RedisStore) Put(ctx context.Context, key string, payload []byte, ttl time.Duration) error {
	return s.client.SetNX(ctx, idempotencyKeyPrefix+key, payload, ttl).Err()
}

package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/storefront/backend/internal/domain/shared"
)

// RedisIdempotencyStore shares processed keys between instances through Redis
type RedisIdempotencyStore struct {
	client    redis.UniversalClient
	keyPrefix string
}

// NewRedisIdempotencyStore creates a store on an existing client
func NewRedisIdempotencyStore(client redis.UniversalClient, keyPrefix string) *RedisIdempotencyStore {
	return &RedisIdempotencyStore{client: client, keyPrefix: keyPrefix + "processed:"}
}

// MarkProcessed sets the key with SETNX so that exactly one caller wins
func (s *RedisIdempotencyStore) MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, s.keyPrefix+key, "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to mark %q as processed: %w", key, err)
	}
	return ok, nil
}

// IsProcessed reports whether the key exists
func (s *RedisIdempotencyStore) IsProcessed(ctx context.Context, key string) (bool, error) {
	n, err := s.client.Exists(ctx, s.keyPrefix+key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check %q: %w", key, err)
	}
	return n > 0, nil
}

// Close is a no-op; the client is owned by the caller
func (s *RedisIdempotencyStore) Close() error {
	return nil
}

var _ shared.IdempotencyStore = (*RedisIdempotencyStore)(nil)

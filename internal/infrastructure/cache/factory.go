package cache

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/storefront/backend/internal/domain/conversation"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// Stores groups the state stores selected by configuration
type Stores struct {
	Sessions    conversation.SessionStore
	Idempotency shared.IdempotencyStore
	redis       *redis.Client
}

// Close releases the idempotency store and the Redis connection
func (s *Stores) Close() error {
	var errs []error
	if s.Idempotency != nil {
		errs = append(errs, s.Idempotency.Close())
	}
	if s.redis != nil {
		errs = append(errs, s.redis.Close())
	}
	return errors.Join(errs...)
}

// UsesRedis reports whether the stores are backed by Redis
func (s *Stores) UsesRedis() bool {
	return s.redis != nil
}

// Ping checks the Redis connection. Memory-only stores always succeed.
func (s *Stores) Ping(ctx context.Context) error {
	if s.redis == nil {
		return nil
	}
	return s.redis.Ping(ctx).Err()
}

// NewStores builds the session and idempotency stores. When Redis is enabled
// but unreachable it falls back to memory unless Redis is required.
func NewStores(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Stores, error) {
	stores := &Stores{}

	if cfg.Redis.Enabled {
		client, err := NewRedisClient(ctx, cfg.Redis)
		switch {
		case err == nil:
			stores.redis = client
		case cfg.Redis.Required:
			return nil, fmt.Errorf("redis required but unavailable: %w", err)
		default:
			logger.Warn("Redis unavailable, falling back to in-memory stores. "+
				"Duplicate payment notifications may be processed twice across instances.",
				zap.Error(err),
			)
		}
	}

	if stores.redis != nil {
		stores.Idempotency = NewRedisIdempotencyStore(stores.redis, cfg.Redis.KeyPrefix)
		logger.Info("using Redis idempotency store")
	} else {
		stores.Idempotency = NewInMemoryIdempotencyStore(DefaultCleanupInterval)
	}

	switch {
	case cfg.Session.Backend == config.SessionBackendRedis && stores.redis != nil:
		stores.Sessions = NewRedisSessionStore(stores.redis, cfg.Redis.KeyPrefix, cfg.Session.TTL)
		logger.Info("using Redis session store", zap.Duration("ttl", cfg.Session.TTL))
	default:
		if cfg.Session.Backend == config.SessionBackendRedis {
			logger.Warn("session backend redis selected without Redis, using memory")
		}
		stores.Sessions = NewMemorySessionStore()
	}
	return stores, nil
}

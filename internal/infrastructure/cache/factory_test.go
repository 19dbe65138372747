package cache

import (
	"context"
	"testing"

	"github.com/storefront/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewStores_Memory(t *testing.T) {
	cfg := &config.Config{Session: config.SessionConfig{Backend: config.SessionBackendMemory}}

	stores, err := NewStores(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	defer stores.Close()

	assert.IsType(t, &MemorySessionStore{}, stores.Sessions)
	assert.IsType(t, &InMemoryIdempotencyStore{}, stores.Idempotency)
	assert.False(t, stores.UsesRedis())
	assert.NoError(t, stores.Ping(context.Background()))
}

func TestNewStores_RedisUnavailable(t *testing.T) {
	cfg := &config.Config{
		Redis:   config.RedisConfig{Enabled: true, Host: "127.0.0.1", Port: 1},
		Session: config.SessionConfig{Backend: config.SessionBackendRedis},
	}

	t.Run("falls back to memory", func(t *testing.T) {
		stores, err := NewStores(context.Background(), cfg, zap.NewNop())
		require.NoError(t, err)
		defer stores.Close()

		assert.IsType(t, &MemorySessionStore{}, stores.Sessions)
		assert.IsType(t, &InMemoryIdempotencyStore{}, stores.Idempotency)
	})

	t.Run("fails when required", func(t *testing.T) {
		required := *cfg
		required.Redis.Required = true

		_, err := NewStores(context.Background(), &required, zap.NewNop())
		assert.Error(t, err)
	})
}

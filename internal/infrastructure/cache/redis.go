package cache

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/storefront/backend/internal/infrastructure/config"
)

const redisDialCheck = 5 * time.Second

// NewRedisClient returns a client that has answered PING at least once.
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	addr := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	client := redis.NewClient(&redis.Options{Addr: addr, Password: cfg.Password, DB: cfg.DB})

	ctx, cancel := context.WithTimeout(ctx, redisDialCheck)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis %s unreachable: %w", addr, err)
	}
	return client, nil
}

package shared

import (
	"context"
	"time"
)

// DefaultIdempotencyTTL is how long a processed key is remembered
const DefaultIdempotencyTTL = 24 * time.Hour

// IdempotencyStore remembers processed keys, such as payment charge ids
// and event ids, so a redelivery is recognised and skipped.
type IdempotencyStore interface {
	// MarkProcessed records key for ttl. It returns false when key was
	// already recorded, and that check-and-set is atomic.
	MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error)
	IsProcessed(ctx context.Context, key string) (bool, error)
	Close() error
}

// IdempotencyConfig controls deduplication of event deliveries
type IdempotencyConfig struct {
	Enabled bool
	TTL     time.Duration
}

// DefaultIdempotencyConfig enables deduplication with DefaultIdempotencyTTL
func DefaultIdempotencyConfig() IdempotencyConfig {
	return IdempotencyConfig{Enabled: true, TTL: DefaultIdempotencyTTL}
}

package cache

import (
	"context"
	"sync"
	"time"

	"github.com/storefront/backend/internal/domain/shared"
)

// DefaultCleanupInterval is how often expired keys are purged
const DefaultCleanupInterval = 5 * time.Minute

// InMemoryIdempotencyStore keeps processed keys in a map with per-key expiry.
// State is not shared between processes.
type InMemoryIdempotencyStore struct {
	mu        sync.RWMutex
	expiry    map[string]time.Time
	now       func() time.Time
	stop      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewInMemoryIdempotencyStore creates the store and starts its cleanup goroutine
func NewInMemoryIdempotencyStore(cleanupInterval time.Duration) *InMemoryIdempotencyStore {
	if cleanupInterval <= 0 {
		cleanupInterval = DefaultCleanupInterval
	}
	s := &InMemoryIdempotencyStore{
		expiry: make(map[string]time.Time),
		now:    time.Now,
		stop:   make(chan struct{}),
	}
	s.wg.Add(1)
	go s.cleanupLoop(cleanupInterval)
	return s
}

// MarkProcessed records key until ttl elapses. It returns false when an
// unexpired record already exists.
func (s *InMemoryIdempotencyStore) MarkProcessed(_ context.Context, key string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if exp, ok := s.expiry[key]; ok && now.Before(exp) {
		return false, nil
	}
	s.expiry[key] = now.Add(ttl)
	return true, nil
}

// IsProcessed reports whether key has an unexpired record
func (s *InMemoryIdempotencyStore) IsProcessed(_ context.Context, key string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	exp, ok := s.expiry[key]
	return ok && s.now().Before(exp), nil
}

// Close stops the cleanup goroutine. Safe to call more than once.
func (s *InMemoryIdempotencyStore) Close() error {
	s.closeOnce.Do(func() {
		close(s.stop)
		s.wg.Wait()
	})
	return nil
}

// Size returns the number of stored keys, expired ones included until the next cleanup
func (s *InMemoryIdempotencyStore) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.expiry)
}

func (s *InMemoryIdempotencyStore) cleanupLoop(interval time.Duration) {
	defer s.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.cleanup()
		}
	}
}

func (s *InMemoryIdempotencyStore) cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for key, exp := range s.expiry {
		if !now.Before(exp) {
			delete(s.expiry, key)
		}
	}
}

var _ shared.IdempotencyStore = (*InMemoryIdempotencyStore)(nil)

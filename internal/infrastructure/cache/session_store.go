package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/storefront/backend/internal/domain/conversation"
)

// MemorySessionStore keeps conversation sessions in process memory
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[int64]conversation.Session
}

// NewMemorySessionStore creates an empty store
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[int64]conversation.Session)}
}

// Get returns a copy of the stored session or a fresh idle one
func (s *MemorySessionStore) Get(_ context.Context, userID int64) (*conversation.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if sess, ok := s.sessions[userID]; ok {
		return &sess, nil
	}
	return conversation.NewSession(userID, time.Now()), nil
}

// Save stores a copy of session
func (s *MemorySessionStore) Save(_ context.Context, session *conversation.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.UserID] = *session
	return nil
}

// Delete forgets the user's session
func (s *MemorySessionStore) Delete(_ context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, userID)
	return nil
}

// Len returns the number of stored sessions
func (s *MemorySessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// PurgeIdle removes sessions last touched before cutoff and returns how many
// were removed. Purged users start over from a fresh idle session.
func (s *MemorySessionStore) PurgeIdle(cutoff time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	purged := 0
	for userID, sess := range s.sessions {
		if sess.UpdatedAt.Before(cutoff) {
			delete(s.sessions, userID)
			purged++
		}
	}
	return purged
}

// RedisSessionStore keeps sessions as JSON values in Redis. Keys expire after
// ttl of inactivity; zero keeps them forever.
type RedisSessionStore struct {
	client    redis.UniversalClient
	keyPrefix string
	ttl       time.Duration
}

// NewRedisSessionStore creates a store on an existing client
func NewRedisSessionStore(client redis.UniversalClient, keyPrefix string, ttl time.Duration) *RedisSessionStore {
	return &RedisSessionStore{client: client, keyPrefix: keyPrefix + "session:", ttl: ttl}
}

func (s *RedisSessionStore) key(userID int64) string {
	return s.keyPrefix + strconv.FormatInt(userID, 10)
}

// Get loads the session or returns a fresh idle one when the key is absent.
// A value that does not decode yields conversation.ErrUnreadableSession.
func (s *RedisSessionStore) Get(ctx context.Context, userID int64) (*conversation.Session, error) {
	raw, err := s.client.Get(ctx, s.key(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return conversation.NewSession(userID, time.Now()), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session %d: %w", userID, err)
	}

	var sess conversation.Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return nil, fmt.Errorf("session %d: %w: %v", userID, conversation.ErrUnreadableSession, err)
	}
	if !sess.State.IsValid() {
		return nil, fmt.Errorf("session %d: %w: unknown state %q", userID, conversation.ErrUnreadableSession, sess.State)
	}
	return &sess, nil
}

// Save writes the session and refreshes its expiry
func (s *RedisSessionStore) Save(ctx context.Context, session *conversation.Session) error {
	raw, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to encode session %d: %w", session.UserID, err)
	}
	if err := s.client.Set(ctx, s.key(session.UserID), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save session %d: %w", session.UserID, err)
	}
	return nil
}

// Delete removes the session key
func (s *RedisSessionStore) Delete(ctx context.Context, userID int64) error {
	if err := s.client.Del(ctx, s.key(userID)).Err(); err != nil {
		return fmt.Errorf("failed to delete session %d: %w", userID, err)
	}
	return nil
}

var (
	_ conversation.SessionStore = (*MemorySessionStore)(nil)
	_ conversation.SessionStore = (*RedisSessionStore)(nil)
)

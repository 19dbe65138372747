package conversation

import (
	"context"
	"errors"
	"time"
)

// ErrUnreadableSession is returned by a SessionStore whose stored value
// cannot be decoded or names an unknown state. Callers start the user over.
var ErrUnreadableSession = errors.New("stored session is unreadable")

// Session holds the conversation state of one user
type Session struct {
	UserID     int64     `json:"user_id"`
	State      State     `json:"state"`
	CategoryID *int64    `json:"category_id,omitempty"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// NewSession creates an idle session
func NewSession(userID int64, now time.Time) *Session {
	return &Session{UserID: userID, State: StateIdle, UpdatedAt: now}
}

func (s *Session) reset(now time.Time) {
	s.State = StateIdle
	s.CategoryID = nil
	s.UpdatedAt = now
}

// SessionStore persists sessions keyed by user id.
// Get returns a fresh idle session for unknown users.
type SessionStore interface {
	Get(ctx context.Context, userID int64) (*Session, error)
	Save(ctx context.Context, session *Session) error
	Delete(ctx context.Context, userID int64) error
}

package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	apperrors "github.com/jrsteele09/go-oauth-gateway/internal/errors"
)

// InMemoryStore is an in-memory implementation of Store
type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]Session
}

var _ Store = (*InMemoryStore)(nil)

// NewInMemoryStore creates a new in-memory session store
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		sessions: make(map[string]Session),
	}
}

// Put creates or replaces a session
func (s *InMemoryStore) Put(_ context.Context, sessionID string, sess Session) error {
	if sessionID == "" {
		return fmt.Errorf("sessionID is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[sessionID] = sess
	return nil
}

// Get retrieves a session by id
func (s *InMemoryStore) Get(_ context.Context, sessionID string) (Session, error) {
	if sessionID == "" {
		return Session{}, apperrors.ErrSessionNotFound
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return Session{}, apperrors.ErrSessionNotFound
	}
	return sess, nil
}

// Delete removes a session
func (s *InMemoryStore) Delete(_ context.Context, sessionID string) error {
	if sessionID == "" {
		return fmt.Errorf("sessionID is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, sessionID) // Already gone is not an error
	return nil
}

// DeleteExpired removes every session that expired at or before now
func (s *InMemoryStore) DeleteExpired(_ context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, sess := range s.sessions {
		if sess.Expired(now) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed, nil
}

func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

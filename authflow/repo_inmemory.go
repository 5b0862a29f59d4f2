package authflow

import (
	"context"
	"errors"
	"sync"
	"time"

	apperrors "github.com/jrsteele09/go-oauth-gateway/internal/errors"
)

// InMemoryRepo is a thread-safe in-memory implementation of the Repo interface
type InMemoryRepo struct {
	mu       sync.Mutex
	requests map[string]*AuthorizationRequest
}

var _ Repo = (*InMemoryRepo)(nil)

// NewInMemoryRepo creates a new in-memory pending request repository
func NewInMemoryRepo() *InMemoryRepo {
	return &InMemoryRepo{
		requests: make(map[string]*AuthorizationRequest),
	}
}

// Upsert stores or replaces a pending request
func (r *InMemoryRepo) Upsert(_ context.Context, key string, req *AuthorizationRequest) error {
	if key == "" {
		return errors.New("key cannot be empty")
	}
	if req == nil {
		return errors.New("request cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Store a copy to prevent external modifications
	r.requests[key] = req.clone()
	return nil
}

// Take removes and returns the pending request for key
func (r *InMemoryRepo) Take(_ context.Context, key string) (*AuthorizationRequest, error) {
	if key == "" {
		return nil, apperrors.ErrNotFound
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	req, ok := r.requests[key]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	delete(r.requests, key)
	return req, nil
}

// DeleteExpired drops every request that expired before now
func (r *InMemoryRepo) DeleteExpired(_ context.Context, now time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for key, req := range r.requests {
		if req.Expired(now) {
			delete(r.requests, key)
			removed++
		}
	}
	return removed, nil
}

// Len reports the number of pending requests.
func (r *InMemoryRepo) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.requests)
}

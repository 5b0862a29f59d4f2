package session

import (
	"context"
	"time"
)

// Store is the capability the Gate needs from a session backend. Get returns
// errors.ErrSessionNotFound for unknown ids; any other error is a backend failure.
type Store interface {
	Put(ctx context.Context, sessionID string, s Session) error
	Get(ctx context.Context, sessionID string) (Session, error)
	Delete(ctx context.Context, sessionID string) error
	DeleteExpired(ctx context.Context, now time.Time) (int, error)
}

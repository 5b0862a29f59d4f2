package authflow

import (
	"context"
	"time"
)

// Repo stores pending authorization requests. Implementations must make Take
// atomic per key: two callbacks racing on one state get at most one request.
type Repo interface {
	Upsert(ctx context.Context, key string, req *AuthorizationRequest) error
	// Take returns the request and removes it. Missing keys yield errors.ErrNotFound.
	Take(ctx context.Context, key string) (*AuthorizationRequest, error)
	DeleteExpired(ctx context.Context, now time.Time) (int, error)
}

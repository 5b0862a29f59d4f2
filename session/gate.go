// Package session binds provider access tokens to opaque session ids and
// answers whether a caller holds a live session.
package session

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"time"

	apperrors "github.com/jrsteele09/go-oauth-gateway/internal/errors"
	"github.com/jrsteele09/go-oauth-gateway/oauthclient"
	"github.com/pkg/errors"
)

const (
	sessionIDLength   = 32
	defaultSessionTTL = 24 * time.Hour
)

// Identity is optional caller identity recorded with a session.
type Identity struct {
	Subject string
	Email   string
}

// Gate owns the session lifecycle.
type Gate struct {
	store   Store
	ttl     time.Duration
	nowTime func() time.Time
}

// GateOption defines a function type to modify the Gate instance.
type GateOption func(*Gate)

// WithSessionTTL sets how long a session stays valid. A provider-advertised
// token lifetime shorter than this wins.
func WithSessionTTL(ttl time.Duration) GateOption {
	return func(g *Gate) {
		if ttl > 0 {
			g.ttl = ttl
		}
	}
}

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) GateOption {
	return func(g *Gate) {
		g.nowTime = nowFunc
	}
}

func NewGate(store Store, options ...GateOption) (*Gate, error) {
	if store == nil {
		return nil, errors.New("[NewGate] store is required")
	}
	g := &Gate{
		store:   store,
		ttl:     defaultSessionTTL,
		nowTime: time.Now,
	}
	for _, opt := range options {
		opt(g)
	}
	return g, nil
}

// EstablishParams describes the token a new session is bound to.
type EstablishParams struct {
	AccessToken oauthclient.Secret
	TokenType   string
	ExpiresIn   *time.Duration
	Identity    *Identity
}

// Establish stores a new session and returns its id. Every call creates a
// distinct session; nothing is overwritten.
func (g *Gate) Establish(ctx context.Context, p EstablishParams) (Session, error) {
	if p.AccessToken.IsZero() {
		return Session{}, apperrors.Wrapf(apperrors.ErrSession, "[Establish] access token is required")
	}

	now := g.nowTime()
	ttl := g.ttl
	if p.ExpiresIn != nil && *p.ExpiresIn > 0 && *p.ExpiresIn < ttl {
		ttl = *p.ExpiresIn
	}

	s := Session{
		ID:          generateSessionID(),
		AccessToken: p.AccessToken,
		TokenType:   p.TokenType,
		CreatedAt:   now,
		ExpiresAt:   now.Add(ttl),
	}
	if p.Identity != nil {
		s.Subject = p.Identity.Subject
		s.Email = p.Identity.Email
	}

	if err := g.store.Put(ctx, s.ID, s); err != nil {
		return Session{}, apperrors.Wrapf(apperrors.ErrSession, "[Establish] failed to store session: %v", err)
	}
	return s, nil
}

// Check reports whether sessionID names a live session. It never mutates
// the store; expired sessions are left for Sweep.
func (g *Gate) Check(ctx context.Context, sessionID string) (Status, error) {
	if sessionID == "" {
		return Unauthenticated, nil
	}

	s, err := g.store.Get(ctx, sessionID)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrSessionNotFound) {
			return Unauthenticated, nil
		}
		return Unauthenticated, apperrors.Wrapf(apperrors.ErrSession, "[Check] failed to read session: %v", err)
	}

	if s.Expired(g.nowTime()) || s.AccessToken.IsZero() {
		return Unauthenticated, nil
	}
	return Authenticated, nil
}

// Revoke ends a session. Revoking an unknown session is not an error.
func (g *Gate) Revoke(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	if err := g.store.Delete(ctx, sessionID); err != nil {
		return apperrors.Wrapf(apperrors.ErrSession, "[Revoke] failed to delete session: %v", err)
	}
	return nil
}

// Sweep removes expired sessions from the store.
func (g *Gate) Sweep(ctx context.Context) (int, error) {
	n, err := g.store.DeleteExpired(ctx, g.nowTime())
	if err != nil {
		return n, apperrors.Wrapf(apperrors.ErrSession, "[Sweep] %v", err)
	}
	return n, nil
}

// generateSessionID creates a 256-bit base64url session id
func generateSessionID() string {
	b := make([]byte, sessionIDLength)
	rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}

// Package authflow issues authorization requests and exchanges the codes the
// provider hands back. Every issued request is parked in a Repo keyed by a
// hash of its state token and can be consumed exactly once.
package authflow

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"time"

	"golang.org/x/crypto/blake2b"
)

const (
	stateLength = 32
	nonceLength = 16
)

// AuthorizationRequest is the server-side half of one login attempt.
type AuthorizationRequest struct {
	ID           string    // Correlation id for logs (UUID)
	Nonce        string    // OIDC nonce echoed in the ID token
	CodeVerifier string    // PKCE verifier, empty when PKCE is off
	Scopes       []string  // Scopes requested in the authorization URL
	CreatedAt    time.Time // When the login was started
	ExpiresAt    time.Time // After this the callback is rejected
}

// Expired reports whether the request is past its expiry. ExpiresAt itself
// is already expired, matching session.Session.
func (r *AuthorizationRequest) Expired(now time.Time) bool {
	return !r.ExpiresAt.IsZero() && !now.Before(r.ExpiresAt)
}

func (r *AuthorizationRequest) clone() *AuthorizationRequest {
	c := *r
	c.Scopes = append([]string(nil), r.Scopes...)
	return &c
}

// StateKey is the storage key for a state token. Only the hash is stored so a
// dump of the pending store cannot be replayed against the callback.
func StateKey(state string) string {
	sum := blake2b.Sum256([]byte(state))
	return hex.EncodeToString(sum[:])
}

// generateRandomString creates a random base64url string
func generateRandomString(length int) string {
	b := make([]byte, length)
	rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}

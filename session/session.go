package session

import (
	"time"

	"github.com/jrsteele09/go-oauth-gateway/oauthclient"
)

type Session struct {
	ID string

	// Identity, filled when an ID token was verified
	Subject string
	Email   string

	// Provider credential; never serialised in clear
	AccessToken oauthclient.Secret
	TokenType   string

	// Session management
	CreatedAt time.Time
	ExpiresAt time.Time
}

func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// Status is the answer to an access check.
type Status int

const (
	Unauthenticated Status = iota
	Authenticated
)

func (s Status) String() string {
	if s == Authenticated {
		return "Authenticated"
	}
	return "Unauthenticated"
}

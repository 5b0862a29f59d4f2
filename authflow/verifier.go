package authflow

import (
	"context"
	"fmt"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	apperrors "github.com/jrsteele09/go-oauth-gateway/internal/errors"
)

// IDClaims are the identity claims kept from a verified ID token.
type IDClaims struct {
	Subject       string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
}

// IDTokenVerifier checks an ID token returned alongside the access token.
type IDTokenVerifier interface {
	Verify(ctx context.Context, rawIDToken, nonce string) (*IDClaims, error)
}

// OIDCVerifier verifies ID tokens with go-oidc against a JWKS key set.
type OIDCVerifier struct {
	verifier *oidc.IDTokenVerifier
}

var _ IDTokenVerifier = (*OIDCVerifier)(nil)

// NewOIDCVerifier fetches signing keys lazily from jwksURL, so no network
// call is made until the first token needs checking.
func NewOIDCVerifier(ctx context.Context, issuer, jwksURL, clientID string) *OIDCVerifier {
	keySet := oidc.NewRemoteKeySet(ctx, jwksURL)
	return NewOIDCVerifierWithKeySet(issuer, keySet, clientID, nil)
}

// NewOIDCVerifierWithKeySet builds a verifier over an explicit key set.
func NewOIDCVerifierWithKeySet(issuer string, keySet oidc.KeySet, clientID string, now func() time.Time) *OIDCVerifier {
	cfg := &oidc.Config{ClientID: clientID}
	if now != nil {
		cfg.Now = now
	}
	return &OIDCVerifier{verifier: oidc.NewVerifier(issuer, keySet, cfg)}
}

func (v *OIDCVerifier) Verify(ctx context.Context, rawIDToken, nonce string) (*IDClaims, error) {
	idToken, err := v.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, apperrors.Wrapf(apperrors.ErrInvalidIDToken, "verify: %v", err)
	}

	// Validate nonce to prevent replay attacks
	if nonce != "" && idToken.Nonce != nonce {
		return nil, apperrors.Wrapf(apperrors.ErrInvalidIDToken, "nonce mismatch")
	}

	var claims IDClaims
	if err := idToken.Claims(&claims); err != nil {
		return nil, apperrors.Wrapf(apperrors.ErrInvalidIDToken, "claims: %v", err)
	}
	if claims.Subject == "" {
		claims.Subject = idToken.Subject
	}
	return &claims, nil
}

func (c *IDClaims) String() string {
	if c == nil {
		return ""
	}
	return fmt.Sprintf("sub=%s email=%s", c.Subject, c.Email)
}

package authflow

import (
	"context"
	"slices"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/google/uuid"
	apperrors "github.com/jrsteele09/go-oauth-gateway/internal/errors"
	"github.com/jrsteele09/go-oauth-gateway/oauthclient"
	"github.com/pkg/errors"
	"golang.org/x/oauth2"
)

const defaultStateTTL = 10 * time.Minute

// AuthorizationURL is what a login hands back to the browser.
type AuthorizationURL struct {
	URL       string
	State     string
	RequestID string
	ExpiresAt time.Time
}

// Issuer builds provider authorization URLs and records the matching
// pending request so the callback can validate the echoed state.
type Issuer struct {
	client  *oauthclient.Config
	repo    Repo
	ttl     time.Duration
	pkce    bool
	nowTime func() time.Time
}

// IssuerOption defines a function type to modify the Issuer instance.
type IssuerOption func(*Issuer)

// WithStateTTL bounds how long an issued state stays redeemable.
func WithStateTTL(ttl time.Duration) IssuerOption {
	return func(i *Issuer) {
		if ttl > 0 {
			i.ttl = ttl
		}
	}
}

// WithPKCE toggles the S256 code challenge on issued URLs.
func WithPKCE(enabled bool) IssuerOption {
	return func(i *Issuer) {
		i.pkce = enabled
	}
}

// WithIssuerNowTime sets the now time function (primarily for testing)
func WithIssuerNowTime(nowFunc func() time.Time) IssuerOption {
	return func(i *Issuer) {
		i.nowTime = nowFunc
	}
}

func NewIssuer(client *oauthclient.Config, repo Repo, options ...IssuerOption) (*Issuer, error) {
	if client == nil {
		return nil, errors.New("[NewIssuer] client config is required")
	}
	if repo == nil {
		return nil, errors.New("[NewIssuer] repo is required")
	}

	i := &Issuer{
		client:  client,
		repo:    repo,
		ttl:     defaultStateTTL,
		pkce:    true,
		nowTime: time.Now,
	}
	for _, opt := range options {
		opt(i)
	}
	return i, nil
}

// Issue starts a login attempt. The returned state is fresh for every call
// and is redeemable once, until the request expires.
func (i *Issuer) Issue(ctx context.Context) (*AuthorizationURL, error) {
	now := i.nowTime()
	state := generateRandomString(stateLength)
	scopes := i.client.Scopes()

	req := &AuthorizationRequest{
		ID:        uuid.NewString(),
		Scopes:    scopes,
		CreatedAt: now,
		ExpiresAt: now.Add(i.ttl),
	}

	opts := i.client.ResponseMode().AuthCodeOptions()
	if slices.Contains(scopes, oidc.ScopeOpenID) {
		req.Nonce = generateRandomString(nonceLength)
		opts = append(opts, oidc.Nonce(req.Nonce))
	}
	if i.pkce {
		req.CodeVerifier = oauth2.GenerateVerifier()
		opts = append(opts, oauth2.S256ChallengeOption(req.CodeVerifier))
	}

	if err := i.repo.Upsert(ctx, StateKey(state), req); err != nil {
		return nil, apperrors.Wrapf(apperrors.ErrSession, "[Issue] store pending request: %v", err)
	}

	return &AuthorizationURL{
		URL:       i.client.OAuth2().AuthCodeURL(state, opts...),
		State:     state,
		RequestID: req.ID,
		ExpiresAt: req.ExpiresAt,
	}, nil
}

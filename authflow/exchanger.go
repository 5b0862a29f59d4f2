package authflow

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/coreos/go-oidc/v3/oidc"
	apperrors "github.com/jrsteele09/go-oauth-gateway/internal/errors"
	"github.com/jrsteele09/go-oauth-gateway/internal/tracing"
	"github.com/jrsteele09/go-oauth-gateway/oauthclient"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/oauth2"
)

const (
	defaultExchangeTimeout = 10 * time.Second
	maxDetailLength        = 512
)

// TokenResponse is the outcome of a successful code exchange.
type TokenResponse struct {
	// AccessToken is the provider credential. It only leaves this process
	// through Reveal.
	AccessToken oauthclient.Secret

	// TokenType is how the access token is presented, normally "Bearer".
	TokenType string

	// ExpiresIn is the lifetime the provider advertised, nil when it sent none.
	ExpiresIn *time.Duration

	// Claims are set when an ID token came back and was verified.
	Claims *IDClaims

	// RequestID correlates the exchange with the login that started it.
	RequestID string
}

// Exchanger redeems authorization codes at the token endpoint.
type Exchanger struct {
	client     *oauthclient.Config
	repo       Repo
	httpClient *http.Client
	timeout    time.Duration
	verifier   IDTokenVerifier
	nowTime    func() time.Time
}

// ExchangerOption defines a function type to modify the Exchanger instance.
type ExchangerOption func(*Exchanger)

// WithHTTPClient sets the client used for the token endpoint round trip.
func WithHTTPClient(c *http.Client) ExchangerOption {
	return func(e *Exchanger) {
		if c != nil {
			e.httpClient = c
		}
	}
}

// WithExchangeTimeout bounds the token endpoint call.
func WithExchangeTimeout(d time.Duration) ExchangerOption {
	return func(e *Exchanger) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// WithIDTokenVerifier enables ID token verification when one is returned.
func WithIDTokenVerifier(v IDTokenVerifier) ExchangerOption {
	return func(e *Exchanger) {
		e.verifier = v
	}
}

// WithExchangerNowTime sets the now time function (primarily for testing)
func WithExchangerNowTime(nowFunc func() time.Time) ExchangerOption {
	return func(e *Exchanger) {
		e.nowTime = nowFunc
	}
}

func NewExchanger(client *oauthclient.Config, repo Repo, options ...ExchangerOption) (*Exchanger, error) {
	if client == nil {
		return nil, errors.New("[NewExchanger] client config is required")
	}
	if repo == nil {
		return nil, errors.New("[NewExchanger] repo is required")
	}

	e := &Exchanger{
		client:     client,
		repo:       repo,
		httpClient: http.DefaultClient,
		timeout:    defaultExchangeTimeout,
		nowTime:    time.Now,
	}
	for _, opt := range options {
		opt(e)
	}
	return e, nil
}

// Exchange validates the returned state and trades code for a token.
//
// The pending request is consumed before the network call, so a state can
// never be replayed even if the exchange fails. The call is never retried:
// codes are single use and a failure means the user has to log in again.
func (e *Exchanger) Exchange(ctx context.Context, code, returnedState string) (*TokenResponse, error) {
	if code == "" {
		return nil, apperrors.Wrapf(apperrors.ErrInvalidRequest, "missing code parameter")
	}
	if returnedState == "" {
		return nil, apperrors.Wrapf(apperrors.ErrStateMismatch, "missing state parameter")
	}

	req, err := e.repo.Take(ctx, StateKey(returnedState))
	if err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.Wrapf(apperrors.ErrStateMismatch, "unknown or already used state")
		}
		return nil, apperrors.Wrapf(apperrors.ErrSession, "[Exchange] load pending request: %v", err)
	}
	if req.Expired(e.nowTime()) {
		return nil, apperrors.Wrapf(apperrors.ErrStateMismatch, "state expired")
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	ctx = context.WithValue(ctx, oauth2.HTTPClient, e.httpClient)

	ctx, span := tracing.StartClientSpan(ctx, "exchange",
		attribute.String(tracing.AttrProvider, e.client.TokenEndpoint()),
	)
	defer span.End()

	var opts []oauth2.AuthCodeOption
	if req.CodeVerifier != "" {
		opts = append(opts, oauth2.VerifierOption(req.CodeVerifier))
	}

	tok, err := e.client.OAuth2().Exchange(ctx, code, opts...)
	if err != nil {
		err = apperrors.Wrapf(apperrors.ErrTokenExchangeFailed, "%s", e.describe(err))
		tracing.SetSpanError(span, err)
		return nil, err
	}

	resp := &TokenResponse{
		AccessToken: oauthclient.Secret(tok.AccessToken),
		TokenType:   tok.Type(),
		RequestID:   req.ID,
	}
	if !tok.Expiry.IsZero() {
		d := time.Until(tok.Expiry).Round(time.Second)
		resp.ExpiresIn = &d
	}

	if e.verifier != nil {
		rawIDToken, _ := tok.Extra("id_token").(string)
		switch {
		case rawIDToken != "":
			claims, err := e.verifier.Verify(ctx, rawIDToken, req.Nonce)
			if err != nil {
				tracing.SetSpanError(span, err)
				return nil, err
			}
			resp.Claims = claims
		case req.Nonce != "" || slices.Contains(req.Scopes, oidc.ScopeOpenID):
			err := apperrors.Wrapf(apperrors.ErrInvalidIDToken, "no id_token in token response")
			tracing.SetSpanError(span, err)
			return nil, err
		}
	}

	// A cancelled caller must not end up with a session.
	if err := ctx.Err(); err != nil {
		err = apperrors.Wrapf(apperrors.ErrTokenExchangeFailed, "request abandoned: %v", err)
		tracing.SetSpanError(span, err)
		return nil, err
	}

	tracing.SetSpanSuccess(span)
	return resp, nil
}

// describe turns an exchange failure into provider diagnostic text with the
// client secret scrubbed out.
func (e *Exchanger) describe(err error) string {
	var detail string
	var rErr *oauth2.RetrieveError
	if errors.As(err, &rErr) {
		status := 0
		if rErr.Response != nil {
			status = rErr.Response.StatusCode
		}
		switch {
		case rErr.ErrorCode != "" && rErr.ErrorDescription != "":
			detail = fmt.Sprintf("provider returned %d: %s: %s", status, rErr.ErrorCode, rErr.ErrorDescription)
		case rErr.ErrorCode != "":
			detail = fmt.Sprintf("provider returned %d: %s", status, rErr.ErrorCode)
		default:
			detail = fmt.Sprintf("provider returned %d: %s", status, strings.TrimSpace(string(rErr.Body)))
		}
	} else {
		detail = err.Error()
	}

	return truncate(scrub(detail, e.client.ClientSecret().Reveal()), maxDetailLength)
}

// scrub removes secret from text, including the encodings a provider may
// echo it back in.
func scrub(text, secret string) string {
	if secret == "" {
		return text
	}
	for _, form := range []string{secret, url.QueryEscape(secret), url.PathEscape(secret)} {
		text = strings.ReplaceAll(text, form, "[REDACTED]")
	}
	return text
}

// truncate cuts s to at most n bytes without splitting a UTF-8 sequence.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := n
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}

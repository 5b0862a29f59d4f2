// Package gateway composes the authorization flow and the session gate into
// the operations the HTTP boundary exposes: login, callback, protected check
// and logout.
package gateway

import (
	"context"
	"time"

	"github.com/jrsteele09/go-oauth-gateway/authflow"
	apperrors "github.com/jrsteele09/go-oauth-gateway/internal/errors"
	"github.com/jrsteele09/go-oauth-gateway/internal/metrics"
	"github.com/jrsteele09/go-oauth-gateway/session"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Deps holds the components the service orchestrates.
type Deps struct {
	Issuer    *authflow.Issuer
	Exchanger *authflow.Exchanger
	Gate      *session.Gate
	Pending   authflow.Repo
	Metrics   *metrics.Metrics
}

// Service is the gateway composition root.
type Service struct {
	issuer    *authflow.Issuer
	exchanger *authflow.Exchanger
	gate      *session.Gate
	pending   authflow.Repo
	metrics   *metrics.Metrics
	logger    zerolog.Logger
	nowTime   func() time.Time
}

// ServiceOption defines a function type to modify the Service instance.
type ServiceOption func(*Service)

func WithLogger(l zerolog.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = l
	}
}

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) ServiceOption {
	return func(s *Service) {
		s.nowTime = nowFunc
	}
}

func New(deps Deps, options ...ServiceOption) (*Service, error) {
	if deps.Issuer == nil {
		return nil, errors.New("[gateway.New] issuer is required")
	}
	if deps.Exchanger == nil {
		return nil, errors.New("[gateway.New] exchanger is required")
	}
	if deps.Gate == nil {
		return nil, errors.New("[gateway.New] session gate is required")
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.New()
	}

	s := &Service{
		issuer:    deps.Issuer,
		exchanger: deps.Exchanger,
		gate:      deps.Gate,
		pending:   deps.Pending,
		metrics:   deps.Metrics,
		logger:    log.Logger.With().Str("component", "gateway").Logger(),
		nowTime:   time.Now,
	}
	for _, opt := range options {
		opt(s)
	}
	return s, nil
}

func (s *Service) Metrics() *metrics.Metrics {
	return s.metrics
}

// LoginResult is returned by Login.
type LoginResult struct {
	AuthURL   string
	State     string
	ExpiresAt time.Time
}

// Login issues a provider authorization URL bound to a fresh state.
func (s *Service) Login(ctx context.Context) (*LoginResult, error) {
	authURL, err := s.issuer.Issue(ctx)
	if err != nil {
		s.logger.Err(err).Msg("login: failed to issue authorization request")
		return nil, err
	}
	s.metrics.IncrementLogins()
	s.logger.Debug().Str("request_id", authURL.RequestID).Msg("login: authorization request issued")

	return &LoginResult{
		AuthURL:   authURL.URL,
		State:     authURL.State,
		ExpiresAt: authURL.ExpiresAt,
	}, nil
}

// CallbackResult carries the new session back to the boundary.
type CallbackResult struct {
	SessionID string
	ExpiresAt time.Time
}

// Callback validates state, exchanges the code and establishes a session.
// No session is created unless every step succeeds.
func (s *Service) Callback(ctx context.Context, code, state string) (*CallbackResult, error) {
	start := s.nowTime()
	tok, err := s.exchanger.Exchange(ctx, code, state)
	if err != nil {
		s.metrics.ObserveCallback(callbackOutcome(err))
		s.logger.Warn().Err(err).Str("kind", apperrors.KindOf(err).String()).Msg("callback: exchange rejected")
		return nil, err
	}
	s.metrics.ObserveExchange(s.nowTime().Sub(start).Seconds())

	params := session.EstablishParams{
		AccessToken: tok.AccessToken,
		TokenType:   tok.TokenType,
		ExpiresIn:   tok.ExpiresIn,
	}
	if tok.Claims != nil {
		params.Identity = &session.Identity{Subject: tok.Claims.Subject, Email: tok.Claims.Email}
	}

	sess, err := s.gate.Establish(ctx, params)
	if err != nil {
		s.metrics.ObserveCallback(metrics.OutcomeSessionError)
		s.logger.Err(err).Str("request_id", tok.RequestID).Msg("callback: failed to establish session")
		return nil, err
	}

	s.metrics.ObserveCallback(metrics.OutcomeSuccess)
	s.metrics.IncrementSessionsCreated()
	s.logger.Info().
		Str("request_id", tok.RequestID).
		Str("subject", sess.Subject).
		Time("expires_at", sess.ExpiresAt).
		Msg("callback: session established")

	return &CallbackResult{SessionID: sess.ID, ExpiresAt: sess.ExpiresAt}, nil
}

// CheckProtected returns nil when sessionID grants access, ErrUnauthorized
// when it does not, and a session error when the store failed.
func (s *Service) CheckProtected(ctx context.Context, sessionID string) error {
	status, err := s.gate.Check(ctx, sessionID)
	if err != nil {
		s.metrics.ObserveProtectedCheck(metrics.OutcomeSessionError)
		s.logger.Err(err).Msg("protected: session lookup failed")
		return err
	}
	if status != session.Authenticated {
		s.metrics.ObserveProtectedCheck(metrics.OutcomeUnauthenticated)
		return apperrors.Wrapf(apperrors.ErrUnauthorized, "no valid session")
	}
	s.metrics.ObserveProtectedCheck(metrics.OutcomeAuthenticated)
	return nil
}

// Logout revokes the session. It is idempotent.
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	if err := s.gate.Revoke(ctx, sessionID); err != nil {
		s.logger.Err(err).Msg("logout: failed to revoke session")
		return err
	}
	if sessionID != "" {
		s.metrics.IncrementSessionsRevoked()
	}
	return nil
}

// Sweep removes expired pending requests and sessions.
func (s *Service) Sweep(ctx context.Context) error {
	if s.pending != nil {
		n, err := s.pending.DeleteExpired(ctx, s.nowTime())
		if err != nil {
			return apperrors.Wrapf(apperrors.ErrSession, "sweep pending requests: %v", err)
		}
		s.metrics.AddSwept("authorization_request", n)
	}

	n, err := s.gate.Sweep(ctx)
	if err != nil {
		return err
	}
	s.metrics.AddSwept("session", n)
	return nil
}

// RunJanitor sweeps on every tick until ctx is done.
func (s *Service) RunJanitor(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := s.Sweep(ctx); err != nil {
				s.logger.Err(err).Msg("janitor: sweep failed")
			}
		}
	}
}

func callbackOutcome(err error) string {
	switch apperrors.KindOf(err) {
	case apperrors.KindStateMismatch:
		return metrics.OutcomeStateMismatch
	case apperrors.KindTokenExchangeFailed:
		return metrics.OutcomeExchangeFailed
	case apperrors.KindInvalidRequest:
		return metrics.OutcomeInvalidRequest
	default:
		return metrics.OutcomeSessionError
	}
}

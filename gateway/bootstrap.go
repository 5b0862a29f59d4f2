package gateway

import (
	"context"
	"fmt"
	"net/http"

	"github.com/jrsteele09/go-oauth-gateway/authflow"
	"github.com/jrsteele09/go-oauth-gateway/internal/config"
	"github.com/jrsteele09/go-oauth-gateway/internal/metrics"
	"github.com/jrsteele09/go-oauth-gateway/oauthclient"
	"github.com/jrsteele09/go-oauth-gateway/session"
)

// Build wires a Service from process configuration using the in-memory
// stores. httpClient may be nil.
func Build(ctx context.Context, cfg config.Config, httpClient *http.Client, options ...ServiceOption) (*Service, error) {
	client, err := oauthclient.FromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("[gateway.Build] provider config: %w", err)
	}

	pending := authflow.NewInMemoryRepo()

	issuer, err := authflow.NewIssuer(client, pending,
		authflow.WithStateTTL(cfg.GetStateTTL()),
		authflow.WithPKCE(cfg.GetRequirePKCE()),
	)
	if err != nil {
		return nil, fmt.Errorf("[gateway.Build] issuer: %w", err)
	}

	exchangerOpts := []authflow.ExchangerOption{
		authflow.WithHTTPClient(httpClient),
		authflow.WithExchangeTimeout(cfg.GetExchangeTimeout()),
	}
	if cfg.GetVerifyIDToken() {
		exchangerOpts = append(exchangerOpts, authflow.WithIDTokenVerifier(
			authflow.NewOIDCVerifier(ctx, cfg.GetOIDCIssuer(), cfg.GetJWKSURL(), client.ClientID()),
		))
	}
	exchanger, err := authflow.NewExchanger(client, pending, exchangerOpts...)
	if err != nil {
		return nil, fmt.Errorf("[gateway.Build] exchanger: %w", err)
	}

	gate, err := session.NewGate(session.NewInMemoryStore(), session.WithSessionTTL(cfg.GetMaxSessionAge()))
	if err != nil {
		return nil, fmt.Errorf("[gateway.Build] session gate: %w", err)
	}

	return New(Deps{
		Issuer:    issuer,
		Exchanger: exchanger,
		Gate:      gate,
		Pending:   pending,
		Metrics:   metrics.New(),
	}, options...)
}

// Package oauthclient holds the immutable identity provider configuration
// shared by every login and callback.
package oauthclient

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/jrsteele09/go-oauth-gateway/internal/config"
	apperrors "github.com/jrsteele09/go-oauth-gateway/internal/errors"
	"golang.org/x/oauth2"
)

// Params are the raw values a Config is built from.
type Params struct {
	ClientID     string
	ClientSecret string
	AuthURL      string
	TokenURL     string
	RedirectURI  string
	Scopes       []string
	ResponseMode string
}

// Config is the provider configuration. It is built once at startup and is
// safe for concurrent use because nothing mutates it afterwards; accessors
// hand out copies.
type Config struct {
	clientID     string
	clientSecret Secret
	authURL      string
	tokenURL     string
	redirectURI  string
	scopes       []string
	responseMode ResponseMode
}

// New validates p and returns the immutable configuration.
func New(p Params) (*Config, error) {
	if strings.TrimSpace(p.ClientID) == "" {
		return nil, apperrors.Wrapf(apperrors.ErrConfiguration, "client id is required")
	}
	if p.ClientSecret == "" {
		return nil, apperrors.Wrapf(apperrors.ErrConfiguration, "client secret is required")
	}
	for name, raw := range map[string]string{
		"authorization endpoint": p.AuthURL,
		"token endpoint":         p.TokenURL,
		"redirect uri":           p.RedirectURI,
	} {
		if err := validateURL(raw); err != nil {
			return nil, apperrors.Wrapf(apperrors.ErrConfiguration, "invalid %s %q: %v", name, raw, err)
		}
	}

	scopes := dedupe(p.Scopes)
	if len(scopes) == 0 {
		return nil, apperrors.Wrapf(apperrors.ErrConfiguration, "at least one scope is required")
	}

	mode, err := ParseResponseMode(p.ResponseMode)
	if err != nil {
		return nil, apperrors.Wrapf(apperrors.ErrConfiguration, "%v", err)
	}

	return &Config{
		clientID:     p.ClientID,
		clientSecret: Secret(p.ClientSecret),
		authURL:      p.AuthURL,
		tokenURL:     p.TokenURL,
		redirectURI:  p.RedirectURI,
		scopes:       scopes,
		responseMode: mode,
	}, nil
}

// FromConfig builds the provider configuration from loaded process config.
func FromConfig(c config.ProviderConfig) (*Config, error) {
	return New(Params{
		ClientID:     c.GetClientID(),
		ClientSecret: c.GetClientSecret(),
		AuthURL:      c.GetAuthURL(),
		TokenURL:     c.GetTokenURL(),
		RedirectURI:  c.GetRedirectURI(),
		Scopes:       c.GetScopes(),
		ResponseMode: c.GetResponseMode(),
	})
}

func (c *Config) ClientID() string              { return c.clientID }
func (c *Config) ClientSecret() Secret          { return c.clientSecret }
func (c *Config) AuthorizationEndpoint() string { return c.authURL }
func (c *Config) TokenEndpoint() string         { return c.tokenURL }
func (c *Config) RedirectURI() string           { return c.redirectURI }
func (c *Config) ResponseMode() ResponseMode    { return c.responseMode }

func (c *Config) Scopes() []string {
	return append([]string(nil), c.scopes...)
}

// OAuth2 returns a fresh *oauth2.Config for one flow step. Credentials are
// sent in the request body, which every provider we target accepts.
func (c *Config) OAuth2() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     c.clientID,
		ClientSecret: c.clientSecret.Reveal(),
		Endpoint: oauth2.Endpoint{
			AuthURL:   c.authURL,
			TokenURL:  c.tokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
		RedirectURL: c.redirectURI,
		Scopes:      c.Scopes(),
	}
}

func validateURL(raw string) error {
	if raw == "" {
		return fmt.Errorf("empty")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme must be http or https")
	}
	if u.Host == "" {
		return fmt.Errorf("missing host")
	}
	return nil
}

func dedupe(scopes []string) []string {
	seen := make(map[string]struct{}, len(scopes))
	out := make([]string, 0, len(scopes))
	for _, s := range scopes {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

package config

import "golang.org/x/oauth2/google"

const (
	placeholderClientID     = "your_google_client_id_here"
	placeholderClientSecret = "your_google_client_secret_here"
	defaultRedirectURI      = "http://localhost:3000/auth/callback"

	googleIssuer  = "https://accounts.google.com"
	googleJWKSURL = "https://www.googleapis.com/oauth2/v3/certs"
)

// ProviderConfig describes the single identity provider the gateway talks to.
type ProviderConfig interface {
	GetClientID() string
	GetClientSecret() string
	GetRedirectURI() string
	GetAuthURL() string
	GetTokenURL() string
	GetScopes() []string
	GetResponseMode() string
	GetVerifyIDToken() bool
	GetOIDCIssuer() string
	GetJWKSURL() string
}

type Provider struct {
	ClientID      string   `env:"GOOGLE_CLIENT_ID"`
	ClientSecret  string   `env:"GOOGLE_CLIENT_SECRET"`
	RedirectURI   string   `env:"REDIRECT_URI"`
	AuthURL       string   `env:"AUTH_URL"`
	TokenURL      string   `env:"TOKEN_URL"`
	Scopes        []string `env:"OAUTH_SCOPES" envSeparator:","`
	ResponseMode  string   `env:"RESPONSE_MODE" envDefault:"query"`
	VerifyIDToken bool     `env:"VERIFY_ID_TOKEN" envDefault:"false"`
	OIDCIssuer    string   `env:"OIDC_ISSUER"`
	JWKSURL       string   `env:"OIDC_JWKS_URL"`
}

var _ ProviderConfig = Provider{}

func (p Provider) GetClientID() string     { return p.ClientID }
func (p Provider) GetClientSecret() string { return p.ClientSecret }
func (p Provider) GetRedirectURI() string  { return p.RedirectURI }

func (p Provider) GetAuthURL() string {
	if p.AuthURL == "" {
		return google.Endpoint.AuthURL
	}
	return p.AuthURL
}

func (p Provider) GetTokenURL() string {
	if p.TokenURL == "" {
		return google.Endpoint.TokenURL
	}
	return p.TokenURL
}

func (p Provider) GetScopes() []string {
	scopes := make([]string, 0, len(p.Scopes))
	for _, s := range p.Scopes {
		if s != "" {
			scopes = append(scopes, s)
		}
	}
	if len(scopes) == 0 {
		return []string{"openid", "email", "profile"}
	}
	return scopes
}

func (p Provider) GetResponseMode() string {
	if p.ResponseMode == "" {
		return "query"
	}
	return p.ResponseMode
}

func (p Provider) GetVerifyIDToken() bool {
	return p.VerifyIDToken
}

func (p Provider) GetOIDCIssuer() string {
	if p.OIDCIssuer == "" {
		return googleIssuer
	}
	return p.OIDCIssuer
}

func (p Provider) GetJWKSURL() string {
	if p.JWKSURL == "" {
		return googleJWKSURL
	}
	return p.JWKSURL
}

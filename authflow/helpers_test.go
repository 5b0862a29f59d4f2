package authflow_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/jrsteele09/go-oauth-gateway/oauthclient"
	"github.com/stretchr/testify/require"
)

const (
	testClientID     = "test-client-1"
	testClientSecret = "test-secret-1"
	testRedirectURI  = "http://localhost:3000/auth/callback"
	testAccessToken  = "ya29.test-access-token"
	acceptedCode     = "abc123"
)

// stubProvider is a minimal token endpoint.
type stubProvider struct {
	*httptest.Server
	calls    atomic.Int32
	lastForm atomic.Value // url.Values

	mu      sync.Mutex
	idToken func(form url.Values) string
}

func (p *stubProvider) setIDToken(f func(form url.Values) string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.idToken = f
}

func newStubProvider(t *testing.T) *stubProvider {
	t.Helper()
	p := &stubProvider{}
	p.Server = httptest.NewServer(http.HandlerFunc(p.token))
	t.Cleanup(p.Close)
	return p
}

func (p *stubProvider) token(w http.ResponseWriter, r *http.Request) {
	p.calls.Add(1)
	_ = r.ParseForm()
	p.lastForm.Store(r.PostForm)

	w.Header().Set("Content-Type", "application/json")
	if r.PostForm.Get("code") != acceptedCode {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"error":             "invalid_grant",
			"error_description": "Code was already redeemed or has expired",
		})
		return
	}

	body := map[string]any{
		"access_token": testAccessToken,
		"token_type":   "Bearer",
		"expires_in":   3600,
	}
	p.mu.Lock()
	mint := p.idToken
	p.mu.Unlock()
	if mint != nil {
		body["id_token"] = mint(r.PostForm)
	}
	_ = json.NewEncoder(w).Encode(body)
}

func (p *stubProvider) form() url.Values {
	v, _ := p.lastForm.Load().(url.Values)
	return v
}

func newClientConfig(t *testing.T, tokenURL string) *oauthclient.Config {
	t.Helper()
	c, err := oauthclient.New(oauthclient.Params{
		ClientID:     testClientID,
		ClientSecret: testClientSecret,
		AuthURL:      "https://accounts.google.com/o/oauth2/auth",
		TokenURL:     tokenURL,
		RedirectURI:  testRedirectURI,
		Scopes:       []string{"openid", "email", "profile"},
	})
	require.NoError(t, err)
	return c
}

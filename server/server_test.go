package server_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/jrsteele09/go-oauth-gateway/gateway"
	"github.com/jrsteele09/go-oauth-gateway/internal/config"
	"github.com/jrsteele09/go-oauth-gateway/server"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

const (
	testClientSecret = "test-secret-1"
	testAccessToken  = "ya29.raw-provider-token"
)

type ServerSuite struct {
	suite.Suite
	provider    *httptest.Server
	server      *server.Server
	stateCookie *http.Cookie
}

func TestServerSuite(t *testing.T) {
	suite.Run(t, new(ServerSuite))
}

func (s *ServerSuite) SetupTest() {
	s.provider = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		w.Header().Set("Content-Type", "application/json")
		if r.PostForm.Get("code") != "abc123" {
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(map[string]string{
				"error":             "invalid_grant",
				"error_description": "Bad Request",
			})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": testAccessToken,
			"token_type":   "Bearer",
			"expires_in":   3599,
		})
	}))

	cfg := config.Static(config.Provider{
		ClientID:     "client-1",
		ClientSecret: testClientSecret,
		RedirectURI:  "http://localhost:3000/auth/callback",
		TokenURL:     s.provider.URL,
	}, config.Security{RequirePKCE: true, SessionTTL: time.Hour, BindStateCookie: true})

	svc, err := gateway.Build(context.Background(), cfg, s.provider.Client())
	s.Require().NoError(err)

	srv, err := server.New(cfg, svc)
	s.Require().NoError(err)
	s.server = srv
	s.stateCookie = nil
}

func (s *ServerSuite) TearDownTest() {
	s.provider.Close()
}

func (s *ServerSuite) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.server.ServeHTTP(rec, req)
	return rec
}

func (s *ServerSuite) decode(rec *httptest.ResponseRecorder) map[string]string {
	var body map[string]string
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

// login starts a flow and keeps the state cookie the way a browser would.
func (s *ServerSuite) login() string {
	rec := s.do(httptest.NewRequest(http.MethodGet, "/auth/login", nil))
	s.Require().Equal(http.StatusOK, rec.Code)
	s.stateCookie = findCookie(rec, "oauth_state")
	s.Require().NotNil(s.stateCookie)

	authURL, err := url.Parse(s.decode(rec)["auth_url"])
	s.Require().NoError(err)
	return authURL.Query().Get("state")
}

func (s *ServerSuite) callbackRequest(method, code, state string) *http.Request {
	q := url.Values{"code": {code}, "state": {state}}
	var req *http.Request
	if method == http.MethodPost {
		req = httptest.NewRequest(http.MethodPost, "/auth/callback", strings.NewReader(q.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(http.MethodGet, "/auth/callback?"+q.Encode(), nil)
	}
	if s.stateCookie != nil {
		req.AddCookie(&http.Cookie{Name: s.stateCookie.Name, Value: s.stateCookie.Value})
	}
	return req
}

func (s *ServerSuite) callback(code, state string) *httptest.ResponseRecorder {
	return s.do(s.callbackRequest(http.MethodGet, code, state))
}

func findCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func sessionCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	return findCookie(rec, "session_id")
}

func (s *ServerSuite) TestLogin() {
	rec := s.do(httptest.NewRequest(http.MethodGet, "/auth/login", nil))
	s.Equal(http.StatusOK, rec.Code)
	s.Equal("no-store", rec.Header().Get("Cache-Control"))
	s.NotEmpty(rec.Header().Get("X-Request-ID"))

	authURL, err := url.Parse(s.decode(rec)["auth_url"])
	s.Require().NoError(err)
	s.Equal("accounts.google.com", authURL.Host)
	s.Equal("client-1", authURL.Query().Get("client_id"))
	s.Equal("http://localhost:3000/auth/callback", authURL.Query().Get("redirect_uri"))
	s.Equal("openid email profile", authURL.Query().Get("scope"))
	s.NotEmpty(authURL.Query().Get("state"))
}

func (s *ServerSuite) TestFullScenario() {
	state := s.login()

	rec := s.callback("abc123", state)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	s.Equal(map[string]string{"access_token": "authenticated"}, s.decode(rec))
	s.NotContains(rec.Body.String(), testAccessToken)

	cookie := sessionCookie(rec)
	s.Require().NotNil(cookie)
	s.True(cookie.HttpOnly)
	s.Equal(http.SameSiteLaxMode, cookie.SameSite)
	s.Greater(cookie.MaxAge, 0)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.AddCookie(&http.Cookie{Name: "session_id", Value: cookie.Value})
	rec = s.do(req)
	s.Equal(http.StatusOK, rec.Code)
	s.Equal(map[string]string{"message": "Access granted"}, s.decode(rec))

	// Same credential presented as a bearer header.
	req = httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+cookie.Value)
	s.Equal(http.StatusOK, s.do(req).Code)
}

func (s *ServerSuite) TestCallbackRejectedCode() {
	state := s.login()

	rec := s.callback("expired", state)
	s.Equal(http.StatusBadRequest, rec.Code)
	body := s.decode(rec)
	s.Equal("OAuth2 authentication failed", body["error"])
	s.Contains(body["details"], "invalid_grant")
	s.NotContains(rec.Body.String(), testClientSecret)
	s.Nil(sessionCookie(rec))
}

func (s *ServerSuite) TestCallbackStateMismatch() {
	s.login()

	rec := s.callback("abc123", "forged")
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal("Invalid state parameter", s.decode(rec)["error"])
	s.Nil(sessionCookie(rec))

	rec = s.callback("abc123", "")
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal("Invalid state parameter", s.decode(rec)["error"])
}

func (s *ServerSuite) TestCallbackReplay() {
	state := s.login()
	s.Require().Equal(http.StatusOK, s.callback("abc123", state).Code)

	rec := s.callback("abc123", state)
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal("Invalid state parameter", s.decode(rec)["error"])
}

func (s *ServerSuite) TestCallbackMissingCode() {
	state := s.login()

	rec := s.callback("", state)
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal("Invalid request", s.decode(rec)["error"])
}

func (s *ServerSuite) TestCallbackProviderError() {
	rec := s.do(httptest.NewRequest(http.MethodGet, "/auth/callback?error=access_denied&error_description=User+denied", nil))
	s.Equal(http.StatusBadRequest, rec.Code)
	body := s.decode(rec)
	s.Equal("OAuth2 authentication failed", body["error"])
	s.Contains(body["details"], "access_denied")
}

func (s *ServerSuite) TestCallbackFormPost() {
	state := s.login()

	rec := s.do(s.callbackRequest(http.MethodPost, "abc123", state))
	s.Equal(http.StatusOK, rec.Code)
	s.NotNil(sessionCookie(rec))
}

func (s *ServerSuite) TestProtectedWithoutSession() {
	rec := s.do(httptest.NewRequest(http.MethodGet, "/protected", nil))
	s.Equal(http.StatusUnauthorized, rec.Code)
	s.Equal("Unauthorized", s.decode(rec)["error"])
	s.NotEmpty(rec.Header().Get("WWW-Authenticate"))

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.AddCookie(&http.Cookie{Name: "session_id", Value: "guessed"})
	s.Equal(http.StatusUnauthorized, s.do(req).Code)
}

func (s *ServerSuite) TestLogout() {
	state := s.login()
	cookie := sessionCookie(s.callback("abc123", state))
	s.Require().NotNil(cookie)

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req.AddCookie(&http.Cookie{Name: "session_id", Value: cookie.Value})
	rec := s.do(req)
	s.Equal(http.StatusOK, rec.Code)
	s.Equal("Logged out", s.decode(rec)["message"])
	cleared := sessionCookie(rec)
	s.Require().NotNil(cleared)
	s.Less(cleared.MaxAge, 0)

	req = httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.AddCookie(&http.Cookie{Name: "session_id", Value: cookie.Value})
	s.Equal(http.StatusUnauthorized, s.do(req).Code)
}

func (s *ServerSuite) TestLogoutRejectsGet() {
	state := s.login()
	cookie := sessionCookie(s.callback("abc123", state))
	s.Require().NotNil(cookie)

	req := httptest.NewRequest(http.MethodGet, "/auth/logout", nil)
	req.AddCookie(&http.Cookie{Name: "session_id", Value: cookie.Value})
	s.Equal(http.StatusMethodNotAllowed, s.do(req).Code)

	req = httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.AddCookie(&http.Cookie{Name: "session_id", Value: cookie.Value})
	s.Equal(http.StatusOK, s.do(req).Code)
}

func (s *ServerSuite) TestLoginSetsStateCookie() {
	state := s.login()

	s.Equal(state, s.stateCookie.Value)
	s.Equal("/auth/callback", s.stateCookie.Path)
	s.True(s.stateCookie.HttpOnly)
	s.Equal(http.SameSiteLaxMode, s.stateCookie.SameSite)
	s.Greater(s.stateCookie.MaxAge, 0)

	rec := s.callback("abc123", state)
	s.Require().Equal(http.StatusOK, rec.Code)
	cleared := findCookie(rec, "oauth_state")
	s.Require().NotNil(cleared)
	s.Less(cleared.MaxAge, 0)
}

func (s *ServerSuite) TestCallbackRequiresStateCookie() {
	state := s.login()
	issued := s.stateCookie

	s.stateCookie = nil
	rec := s.callback("abc123", state)
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal("Invalid state parameter", s.decode(rec)["error"])
	s.Nil(sessionCookie(rec))

	// The rejected attempt did not consume the pending request.
	s.stateCookie = issued
	s.Equal(http.StatusOK, s.callback("abc123", state).Code)
}

func (s *ServerSuite) TestCallbackRejectsStateFromAnotherBrowser() {
	attackerState := s.login()
	s.login() // victim's own login sets the victim's cookie

	rec := s.callback("abc123", attackerState)
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal("Invalid state parameter", s.decode(rec)["error"])
	s.Nil(sessionCookie(rec))
}

func (s *ServerSuite) TestSecureCookieBehindProxy() {
	state := s.login()
	req := s.callbackRequest(http.MethodGet, "abc123", state)
	req.Header.Set("X-Forwarded-Proto", "https")

	cookie := sessionCookie(s.do(req))
	s.Require().NotNil(cookie)
	s.True(cookie.Secure)
}

func (s *ServerSuite) TestHealthAndMetrics() {
	rec := s.do(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	s.Equal(http.StatusOK, rec.Code)
	s.Equal("ok", s.decode(rec)["status"])

	s.login()
	rec = s.do(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	s.Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), "oauth_gateway_logins_issued_total 1")
}

func (s *ServerSuite) TestInfoUsesForwardedHost() {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-Proto", "https")
	req.Header.Set("X-Forwarded-Host", "auth.example.com")
	rec := s.do(req)
	s.Equal(http.StatusOK, rec.Code)
	s.Equal("https://auth.example.com/auth/login", s.decode(rec)["login"])
}

func (s *ServerSuite) TestRequestIDPropagated() {
	const id = "0b9d6a4e-3c2f-4a57-9a43-2b3c4d5e6f70"
	rec := s.do(httptest.NewRequest(http.MethodGet, "/auth/login", nil))
	s.NotEqual(id, rec.Header().Get("X-Request-ID"))

	req := httptest.NewRequest(http.MethodGet, "/auth/login", nil)
	req.Header.Set("X-Request-ID", id)
	s.Equal(id, s.do(req).Header().Get("X-Request-ID"))
}

func TestNew_RequiresDependencies(t *testing.T) {
	_, err := server.New(nil, nil)
	require.Error(t, err)
}

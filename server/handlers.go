package server

import (
	"fmt"
	"net/http"

	apperrors "github.com/jrsteele09/go-oauth-gateway/internal/errors"
	"github.com/jrsteele09/go-oauth-gateway/internal/metrics"
)

// AuthURLResponse is returned by GET /auth/login
type AuthURLResponse struct {
	AuthURL string `json:"auth_url"`
}

// AuthResponse is returned by a successful callback. The session itself
// travels in the session cookie, never in the body.
type AuthResponse struct {
	AccessToken string `json:"access_token"`
}

// MessageResponse is a plain status message.
type MessageResponse struct {
	Message string `json:"message"`
}

// LoginHandler issues a provider authorization URL (GET /auth/login)
func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := s.gateway.Login(r.Context())
		if err != nil {
			writeError(w, r, err)
			return
		}
		if s.config.GetBindStateCookie() {
			s.SetStateCookie(w, r, res.State, res.ExpiresAt)
		}
		writeJSON(w, http.StatusOK, AuthURLResponse{AuthURL: res.AuthURL})
	}
}

// CallbackHandler completes the flow (GET|POST /auth/callback)
func (s *Server) CallbackHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// r.FormValue works for both query params and POST form data
		state := r.FormValue("state")
		code := r.FormValue("code")
		errorParam := r.FormValue("error")
		errorDesc := r.FormValue("error_description")

		// Check for authorization errors
		if errorParam != "" {
			err := apperrors.Wrapf(apperrors.ErrTokenExchangeFailed, "authorization failed: %s - %s", errorParam, errorDesc)
			s.gateway.Metrics().ObserveCallback(metrics.OutcomeProviderError)
			writeError(w, r, err)
			return
		}

		// The pending request is left untouched when the browser does not hold
		// the state, so a state lifted from another login cannot be planted here.
		if s.config.GetBindStateCookie() {
			bound := stateMatchesBrowser(r, state)
			s.ClearStateCookie(w, r)
			if !bound {
				s.gateway.Metrics().ObserveCallback(metrics.OutcomeStateMismatch)
				writeError(w, r, apperrors.Wrapf(apperrors.ErrStateMismatch, "state not issued to this browser"))
				return
			}
		}

		res, err := s.gateway.Callback(r.Context(), code, state)
		if err != nil {
			writeError(w, r, err)
			return
		}

		s.SetSessionCookie(w, r, res.SessionID, res.ExpiresAt)
		writeJSON(w, http.StatusOK, AuthResponse{AccessToken: "authenticated"})
	}
}

// ProtectedHandler answers GET /protected for callers holding a live session
func (s *Server) ProtectedHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.gateway.CheckProtected(r.Context(), sessionIDFromRequest(r)); err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, MessageResponse{Message: "Access granted"})
	}
}

// LogoutHandler ends the caller's session (POST /auth/logout). There is no GET
// form, so a cross-site link cannot log a user out.
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.gateway.Logout(r.Context(), sessionIDFromRequest(r)); err != nil {
			writeError(w, r, err)
			return
		}
		s.ClearSessionCookie(w, r)
		writeJSON(w, http.StatusOK, MessageResponse{Message: "Logged out"})
	}
}

func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// InfoHandler describes the gateway endpoints relative to the externally
// visible base URL.
func (s *Server) InfoHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		base := baseURL(r)
		writeJSON(w, http.StatusOK, map[string]string{
			"name":      s.config.GetAppName(),
			"base_url":  base,
			"login":     fmt.Sprintf("%s%s", base, RouteAuthLogin),
			"callback":  s.config.GetRedirectURI(),
			"protected": fmt.Sprintf("%s%s", base, RouteProtected),
			"logout":    fmt.Sprintf("%s%s", base, RouteAuthLogout),
		})
	}
}

// PreflightHandler is reached only for OPTIONS requests CorsMiddleware let through.
func (s *Server) PreflightHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}
}

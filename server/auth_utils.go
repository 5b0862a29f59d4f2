package server

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"
)

const (
	// sessionCookieName is the cookie carrying the opaque session id
	sessionCookieName = "session_id"
	// stateCookieName ties an issued state to the browser that started the login
	stateCookieName = "oauth_state"
)

func (s *Server) SetSessionCookie(w http.ResponseWriter, r *http.Request, sessionID string, expiresAt time.Time) {
	maxAge := int(time.Until(expiresAt).Seconds())
	if maxAge <= 0 {
		maxAge = -1
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    sessionID,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secureCookies(r),
		SameSite: http.SameSiteLaxMode,
		MaxAge:   maxAge,
	})
}

func (s *Server) ClearSessionCookie(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secureCookies(r),
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}

// SetStateCookie remembers the issued state in the browser. It is scoped to
// the callback path and lives no longer than the pending request.
func (s *Server) SetStateCookie(w http.ResponseWriter, r *http.Request, state string, expiresAt time.Time) {
	maxAge := int(time.Until(expiresAt).Seconds())
	if maxAge <= 0 {
		return
	}

	sameSite, secure := s.stateCookieMode(r)
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    state,
		Path:     RouteAuthCallback,
		HttpOnly: true,
		Secure:   secure,
		SameSite: sameSite,
		MaxAge:   maxAge,
	})
}

func (s *Server) ClearStateCookie(w http.ResponseWriter, r *http.Request) {
	sameSite, secure := s.stateCookieMode(r)
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    "",
		Path:     RouteAuthCallback,
		HttpOnly: true,
		Secure:   secure,
		SameSite: sameSite,
		MaxAge:   -1,
	})
}

// stateCookieMode picks the SameSite mode for the state cookie. A form_post
// callback is a cross-site POST, which only carries SameSite=None cookies,
// and browsers accept those only when Secure.
func (s *Server) stateCookieMode(r *http.Request) (http.SameSite, bool) {
	if s.config.GetResponseMode() == "form_post" {
		return http.SameSiteNoneMode, true
	}
	return http.SameSiteLaxMode, s.secureCookies(r)
}

// stateMatchesBrowser reports whether the callback's state is the one this
// browser was given at login.
func stateMatchesBrowser(r *http.Request, state string) bool {
	cookie, err := r.Cookie(stateCookieName)
	if err != nil || cookie.Value == "" || state == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(cookie.Value), []byte(state)) == 1
}

func (s *Server) secureCookies(r *http.Request) bool {
	return s.config.GetSecureCookies() || getScheme(r) == "https"
}

// sessionIDFromRequest reads the session credential from the cookie, or from
// an "Authorization: Bearer <session id>" header for non-browser callers.
func sessionIDFromRequest(r *http.Request) string {
	if cookie, err := r.Cookie(sessionCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	authHeader := r.Header.Get("Authorization")
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

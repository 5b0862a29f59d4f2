package server

import (
	"encoding/json"
	"net/http"

	apperrors "github.com/jrsteele09/go-oauth-gateway/internal/errors"
	"github.com/rs/zerolog/hlog"
)

// ErrorResponse is the JSON envelope for every failed request.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details"`
}

// statusFor maps an error to its HTTP status and user-safe message.
func statusFor(err error) (int, string) {
	switch apperrors.KindOf(err) {
	case apperrors.KindInvalidRequest:
		return http.StatusBadRequest, "Invalid request"
	case apperrors.KindStateMismatch:
		return http.StatusBadRequest, "Invalid state parameter"
	case apperrors.KindTokenExchangeFailed:
		return http.StatusBadRequest, "OAuth2 authentication failed"
	case apperrors.KindUnauthorized:
		return http.StatusUnauthorized, "Unauthorized"
	case apperrors.KindSession:
		return http.StatusInternalServerError, "Session error"
	case apperrors.KindConfiguration:
		return http.StatusInternalServerError, "Configuration error"
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := statusFor(err)
	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", `Bearer realm="oauth-gateway"`)
	}
	hlog.FromRequest(r).Debug().Err(err).Int("status", status).Msg(msg)
	writeJSON(w, status, ErrorResponse{Error: msg, Details: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

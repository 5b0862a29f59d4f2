package errors

import (
	"errors"
	"fmt"
)

// Error kinds for the gateway. Components wrap these so the HTTP boundary can
// classify a failure without knowing which component produced it.
var (
	// Configuration errors
	ErrConfiguration = errors.New("configuration error")

	// Authorization flow errors
	ErrStateMismatch       = errors.New("state mismatch")
	ErrTokenExchangeFailed = errors.New("token exchange failed")
	ErrInvalidIDToken      = errors.New("invalid id token")

	// Session errors
	ErrSession         = errors.New("session error")
	ErrSessionNotFound = errors.New("session not found")
	ErrUnauthorized    = errors.New("unauthorized")

	// General errors
	ErrInvalidRequest = errors.New("invalid request")
	ErrNotFound       = errors.New("not found")
	ErrInternal       = errors.New("internal error")
)

// Kind is the boundary classification of an error.
type Kind int

const (
	KindInternal Kind = iota
	KindInvalidRequest
	KindStateMismatch
	KindTokenExchangeFailed
	KindUnauthorized
	KindSession
	KindConfiguration
)

func (k Kind) String() string {
	switch k {
	case KindInvalidRequest:
		return "InvalidRequest"
	case KindStateMismatch:
		return "StateMismatch"
	case KindTokenExchangeFailed:
		return "TokenExchangeFailed"
	case KindUnauthorized:
		return "Unauthorized"
	case KindSession:
		return "SessionError"
	case KindConfiguration:
		return "ConfigurationError"
	default:
		return "InternalServerError"
	}
}

// KindOf walks the error chain and returns the first recognised kind.
// An invalid ID token is reported as a failed exchange.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindInternal
	case errors.Is(err, ErrStateMismatch):
		return KindStateMismatch
	case errors.Is(err, ErrTokenExchangeFailed), errors.Is(err, ErrInvalidIDToken):
		return KindTokenExchangeFailed
	case errors.Is(err, ErrUnauthorized):
		return KindUnauthorized
	case errors.Is(err, ErrSession), errors.Is(err, ErrSessionNotFound):
		return KindSession
	case errors.Is(err, ErrConfiguration):
		return KindConfiguration
	case errors.Is(err, ErrInvalidRequest):
		return KindInvalidRequest
	default:
		return KindInternal
	}
}

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

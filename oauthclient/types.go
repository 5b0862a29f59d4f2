package oauthclient

import (
	"fmt"

	"golang.org/x/oauth2"
)

// ResponseMode denotes how the provider returns the authorization response
// parameters to the redirect URI.
type ResponseMode string

const (
	// QueryResponseMode returns code and state in the callback query string.
	// This is the provider default and adds nothing to the authorization URL.
	QueryResponseMode ResponseMode = "query"

	// FormPostResponseMode has the provider POST code and state to the
	// callback as a form, keeping them out of the URL and browser history.
	FormPostResponseMode ResponseMode = "form_post"
)

// ParseResponseMode accepts the modes a server-side callback can read.
// The fragment mode is refused because the fragment never reaches the server.
func ParseResponseMode(s string) (ResponseMode, error) {
	switch ResponseMode(s) {
	case "", QueryResponseMode:
		return QueryResponseMode, nil
	case FormPostResponseMode:
		return FormPostResponseMode, nil
	default:
		return "", fmt.Errorf("unsupported response mode %q", s)
	}
}

// AuthCodeOptions returns the authorization URL parameters for the mode.
func (m ResponseMode) AuthCodeOptions() []oauth2.AuthCodeOption {
	if m == "" || m == QueryResponseMode {
		return nil
	}
	return []oauth2.AuthCodeOption{oauth2.SetAuthURLParam("response_mode", string(m))}
}

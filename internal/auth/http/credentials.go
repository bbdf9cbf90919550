package http

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/aussiebroadwan/tokend/internal/auth/service"
	"github.com/aussiebroadwan/tokend/pkg/authsdk"
)

// parseForm enforces the urlencoded body required at the OAuth2 endpoints.
func parseForm(w http.ResponseWriter, r *http.Request) bool {
	if ct := r.Header.Get("Content-Type"); ct != "" &&
		!strings.HasPrefix(ct, "application/x-www-form-urlencoded") {
		authsdk.ErrInvalidContentType.WriteError(w)
		return false
	}
	if err := r.ParseForm(); err != nil {
		authsdk.ErrInvalidFormBody.WriteError(w)
		return false
	}
	return true
}

// clientCredentials collects the client authentication a request carries.
// Only one method may be used per request (RFC 6749 section 2.3).
func clientCredentials(r *http.Request) (service.ClientCredentials, error) {
	creds := service.ClientCredentials{
		ClientID:      strings.TrimSpace(r.PostForm.Get("client_id")),
		AssertionType: r.PostForm.Get("client_assertion_type"),
		Assertion:     r.PostForm.Get("client_assertion"),
	}
	formSecret := r.PostForm.Get("client_secret")

	if user, pass, ok := r.BasicAuth(); ok {
		if formSecret != "" || creds.Assertion != "" {
			return creds, fmt.Errorf("%w: multiple client authentication methods", service.ErrInvalidRequest)
		}
		// Basic credentials are form-urlencoded before encoding (section 2.3.1).
		id, err := url.QueryUnescape(user)
		if err != nil {
			return creds, fmt.Errorf("%w: malformed basic credentials", service.ErrInvalidClient)
		}
		secret, err := url.QueryUnescape(pass)
		if err != nil {
			return creds, fmt.Errorf("%w: malformed basic credentials", service.ErrInvalidClient)
		}
		if creds.ClientID != "" && creds.ClientID != id {
			return creds, fmt.Errorf("%w: client_id does not match authorization header", service.ErrInvalidRequest)
		}
		creds.ClientID = id
		creds.Secret = secret
		creds.Basic = true
		return creds, nil
	}

	if formSecret != "" && creds.Assertion != "" {
		return creds, fmt.Errorf("%w: multiple client authentication methods", service.ErrInvalidRequest)
	}
	creds.Secret = formSecret
	return creds, nil
}

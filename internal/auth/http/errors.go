package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/aussiebroadwan/tokend/internal/auth/service"
	"github.com/aussiebroadwan/tokend/pkg/authsdk"
	"github.com/aussiebroadwan/tokend/pkg/slogx"
)

// oauth2Error maps a service error onto its RFC 6749 response. Client and
// grant failures get fixed descriptions so they cannot be used to probe
// which check failed.
func oauth2Error(err error) (*authsdk.OAuth2Error, bool) {
	switch {
	case errors.Is(err, service.ErrInvalidClient):
		return authsdk.ErrInvalidClient, true
	case errors.Is(err, service.ErrInvalidGrant),
		errors.Is(err, service.ErrAccessDenied),
		errors.Is(err, service.ErrInvalidDPoPKeyBinding),
		errors.Is(err, service.ErrInvalidCredentials):
		return authsdk.ErrInvalidGrant, true
	case errors.Is(err, service.ErrUnauthorizedClient):
		return detailed(authsdk.ErrUnauthorizedClient, err, service.ErrUnauthorizedClient), true
	case errors.Is(err, service.ErrUnsupportedGrantType):
		return detailed(authsdk.ErrUnsupportedGrantType, err, service.ErrUnsupportedGrantType), true
	case errors.Is(err, service.ErrInvalidScope):
		return detailed(authsdk.ErrInvalidScope, err, service.ErrInvalidScope), true
	case errors.Is(err, service.ErrInvalidDPoPProof):
		return authsdk.ErrInvalidDPoPProof, true
	case errors.Is(err, service.ErrDPoPRequired):
		return authsdk.NewOAuth2Error(http.StatusBadRequest, authsdk.ErrorCodeInvalidDPoPProof, "dpop proof required"), true
	case errors.Is(err, service.ErrInvalidRequest):
		return detailed(authsdk.ErrInvalidRequest, err, service.ErrInvalidRequest), true
	}
	return authsdk.ErrServerError, false
}

// detailed copies base with the message wrapped around sentinel.
func detailed(base *authsdk.OAuth2Error, err, sentinel error) *authsdk.OAuth2Error {
	desc := strings.TrimPrefix(err.Error(), sentinel.Error()+": ")
	if desc == "" || desc == err.Error() {
		return base
	}
	return authsdk.NewOAuth2Error(base.StatusCode, base.Code, desc)
}

// writeServiceError writes err as an OAuth2 error response. Unknown errors
// are logged and reported as server_error.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	log := slogx.FromContext(r.Context())

	oerr, known := oauth2Error(err)
	if !known {
		log.Error("request failed", "path", r.URL.Path, "err", err)
		oerr.WriteError(w)
		return
	}

	log.Info("request rejected", "path", r.URL.Path, "error", oerr.Code, "err", err)
	if oerr.Code == authsdk.ErrorCodeInvalidClient {
		if _, _, basic := r.BasicAuth(); basic {
			w.Header().Set("WWW-Authenticate", `Basic realm="tokend"`)
		}
	}
	oerr.WriteError(w)
}

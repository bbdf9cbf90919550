package authsdk

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/aussiebroadwan/tokend/pkg/httpx"
)

// OAuth 2.0 error codes (RFC 6749 section 5.2, RFC 6750 section 3.1,
// OpenID Connect Core section 3.1.2.6, RFC 9449 section 7.1).
const (
	ErrorCodeInvalidRequest       = "invalid_request"
	ErrorCodeInvalidClient        = "invalid_client"
	ErrorCodeInvalidGrant         = "invalid_grant"
	ErrorCodeUnauthorizedClient   = "unauthorized_client"
	ErrorCodeUnsupportedGrantType = "unsupported_grant_type"
	ErrorCodeInvalidScope         = "invalid_scope"
	ErrorCodeAccessDenied         = "access_denied"
	ErrorCodeServerError          = "server_error"
	ErrorCodeInvalidToken         = "invalid_token"
	ErrorCodeInsufficientScope    = "insufficient_scope"
	ErrorCodeLoginRequired        = "login_required"
	ErrorCodeInvalidDPoPProof     = "invalid_dpop_proof"
)

// OAuth2Error is an OAuth 2.0 error response. The server writes it with
// WriteError; the SDK returns it for any non-success answer.
//
// errors.Is matches on Code, so
//
//	errors.Is(err, authsdk.ErrInvalidGrant)
//
// holds for every invalid_grant whatever its description.
type OAuth2Error struct {
	StatusCode  int    `json:"-"`
	Code        string `json:"error"`
	Description string `json:"error_description,omitempty"`
}

// NewOAuth2Error returns an error with a custom description.
func NewOAuth2Error(statusCode int, code, description string) *OAuth2Error {
	return &OAuth2Error{StatusCode: statusCode, Code: code, Description: description}
}

func (e *OAuth2Error) Error() string {
	if e.Description == "" {
		return e.Code
	}
	return e.Code + ": " + e.Description
}

func (e *OAuth2Error) Is(target error) bool {
	t, ok := target.(*OAuth2Error)
	return ok && t.Code == e.Code
}

// WriteError writes e as a JSON error body.
func (e *OAuth2Error) WriteError(w http.ResponseWriter) {
	httpx.WriteJSON(w, e.StatusCode, e)
}

var (
	ErrInvalidRequest       = NewOAuth2Error(http.StatusBadRequest, ErrorCodeInvalidRequest, "the request is malformed or missing required parameters")
	ErrInvalidClient        = NewOAuth2Error(http.StatusUnauthorized, ErrorCodeInvalidClient, "invalid client")
	ErrInvalidGrant         = NewOAuth2Error(http.StatusBadRequest, ErrorCodeInvalidGrant, "the grant is invalid, expired or revoked")
	ErrUnauthorizedClient   = NewOAuth2Error(http.StatusBadRequest, ErrorCodeUnauthorizedClient, "the client is not authorized to use this grant type")
	ErrUnsupportedGrantType = NewOAuth2Error(http.StatusBadRequest, ErrorCodeUnsupportedGrantType, "grant type not supported")
	ErrInvalidScope         = NewOAuth2Error(http.StatusBadRequest, ErrorCodeInvalidScope, "requested scope is invalid")
	ErrAccessDenied         = NewOAuth2Error(http.StatusForbidden, ErrorCodeAccessDenied, "access denied")
	ErrServerError          = NewOAuth2Error(http.StatusInternalServerError, ErrorCodeServerError, "internal server error")

	// ErrInvalidToken and ErrInsufficientScope are resource server errors.
	ErrInvalidToken      = NewOAuth2Error(http.StatusUnauthorized, ErrorCodeInvalidToken, "the access token is missing, invalid, expired or revoked")
	ErrInsufficientScope = NewOAuth2Error(http.StatusForbidden, ErrorCodeInsufficientScope, "the access token does not have the required scopes")

	// ErrLoginRequired is answered by the authorization endpoint when no
	// credentials were submitted.
	ErrLoginRequired = NewOAuth2Error(http.StatusUnauthorized, ErrorCodeLoginRequired, "user authentication required")

	// ErrInvalidDPoPProof covers a missing, malformed or replayed DPoP header.
	ErrInvalidDPoPProof = NewOAuth2Error(http.StatusBadRequest, ErrorCodeInvalidDPoPProof, "invalid or missing dpop proof")

	// Token, revocation and introspection bodies must be forms (RFC 6749
	// section 3.2).
	ErrInvalidContentType = NewOAuth2Error(http.StatusBadRequest, ErrorCodeInvalidRequest, "content-type must be application/x-www-form-urlencoded")
	ErrInvalidFormBody    = NewOAuth2Error(http.StatusBadRequest, ErrorCodeInvalidRequest, "invalid form body")
)

// parseErrorResponse turns a non-2xx response into an *OAuth2Error, from
// the JSON body, else the WWW-Authenticate challenge, else the status.
func parseErrorResponse(resp *http.Response, body []byte) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	var oerr OAuth2Error
	if err := json.Unmarshal(body, &oerr); err == nil && oerr.Code != "" {
		oerr.StatusCode = resp.StatusCode
		return &oerr
	}
	if code := challengeParam(resp.Header.Get("WWW-Authenticate"), "error"); code != "" {
		return &OAuth2Error{
			StatusCode:  resp.StatusCode,
			Code:        code,
			Description: challengeParam(resp.Header.Get("WWW-Authenticate"), "error_description"),
		}
	}
	return &OAuth2Error{
		StatusCode:  resp.StatusCode,
		Code:        ErrorCodeServerError,
		Description: fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode)),
	}
}

// challengeParam extracts a quoted auth-param from a WWW-Authenticate value.
func challengeParam(h, name string) string {
	for {
		i := strings.Index(h, name+`="`)
		if i < 0 {
			return ""
		}
		if i == 0 || h[i-1] == ' ' || h[i-1] == ',' {
			v, _, _ := strings.Cut(h[i+len(name)+2:], `"`)
			return v
		}
		h = h[i+len(name):]
	}
}

package service

import (
	"errors"
	"fmt"
)

// Security denials. During refresh and introspection these burn the grant.
var (
	ErrInvalidGrant          = errors.New("invalid_grant")
	ErrAccessDenied          = errors.New("access_denied")
	ErrUnauthorizedClient    = errors.New("unauthorized_client")
	ErrInvalidDPoPKeyBinding = errors.New("invalid_dpop_key_binding")
)

// Request-shape errors. Never destructive.
var (
	ErrInvalidRequest       = errors.New("invalid_request")
	ErrUnsupportedGrantType = errors.New("unsupported_grant_type")
	ErrInvalidClient        = errors.New("invalid_client")
	ErrInvalidScope         = errors.New("invalid_scope")
	ErrInvalidDPoPProof     = errors.New("invalid_dpop_proof")
	ErrDPoPRequired         = errors.New("dpop_required")
)

var (
	ErrInvalidCredentials = errors.New("invalid_credentials")
	ErrLoginRequired      = errors.New("login_required")
	ErrInvalidToken       = errors.New("invalid_token")
	ErrInsufficientScope  = errors.New("insufficient_scope")
)

// IsSecurityDenial reports whether err indicates a compromised or misused
// credential rather than a malformed request or an I/O failure.
func IsSecurityDenial(err error) bool {
	return errors.Is(err, ErrInvalidGrant) ||
		errors.Is(err, ErrAccessDenied) ||
		errors.Is(err, ErrUnauthorizedClient) ||
		errors.Is(err, ErrInvalidDPoPKeyBinding)
}

// InvalidTokenError rejects a presented access token. TokenType is the
// scheme the token was presented with, used for the WWW-Authenticate
// challenge.
type InvalidTokenError struct {
	TokenType string
	Reason    string
	Expired   bool
}

func (e *InvalidTokenError) Error() string {
	return fmt.Sprintf("invalid_token: %s", e.Reason)
}

func (e *InvalidTokenError) Is(target error) bool {
	return target == ErrInvalidToken
}

func invalidToken(tokenType, reason string) *InvalidTokenError {
	return &InvalidTokenError{TokenType: tokenType, Reason: reason}
}

func expiredToken(tokenType string) *InvalidTokenError {
	return &InvalidTokenError{TokenType: tokenType, Reason: "token expired", Expired: true}
}

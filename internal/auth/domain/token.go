package domain

import (
	"slices"
	"strings"
	"time"
)

// Client authentication methods accepted at the token endpoint.
const (
	AuthMethodNone              = "none"
	AuthMethodClientSecretBasic = "client_secret_basic"
	AuthMethodClientSecretPost  = "client_secret_post"
	AuthMethodPrivateKeyJWT     = "private_key_jwt"
)

// Grant types.
const (
	GrantAuthorizationCode = "authorization_code"
	GrantRefreshToken      = "refresh_token"
	GrantPassword          = "password"
)

// Well-known scopes.
const (
	ScopeOfflineAccess = "offline_access"
	ScopeOpenID        = "openid"
)

// ClientAuth records how a client authenticated. JKT is the RFC 7638
// thumbprint of the key used for private_key_jwt.
type ClientAuth struct {
	Method string `json:"method"`
	JKT    string `json:"jkt,omitempty"`
	Alg    string `json:"alg,omitempty"`
	KID    string `json:"kid,omitempty"`
}

// AuthorizationDetail is a single RFC 9396 authorization_details entry.
type AuthorizationDetail struct {
	Type       string         `json:"type"`
	Locations  []string       `json:"locations,omitempty"`
	Actions    []string       `json:"actions,omitempty"`
	Datatypes  []string       `json:"datatypes,omitempty"`
	Identifier string         `json:"identifier,omitempty"`
	Privileges []string       `json:"privileges,omitempty"`
	Extra      map[string]any `json:"extra,omitempty"`
}

// AuthorizationParameters is the immutable snapshot of the authorization
// request. Scope and DPoP binding are read from here for the whole life of
// a token, across every rotation.
type AuthorizationParameters struct {
	ClientID             string                `json:"client_id"`
	ResponseType         string                `json:"response_type,omitempty"`
	RedirectURI          string                `json:"redirect_uri,omitempty"`
	Scope                string                `json:"scope,omitempty"`
	State                string                `json:"state,omitempty"`
	Nonce                string                `json:"nonce,omitempty"`
	CodeChallenge        string                `json:"code_challenge,omitempty"`
	CodeChallengeMethod  string                `json:"code_challenge_method,omitempty"`
	DPoPJKT              string                `json:"dpop_jkt,omitempty"`
	AuthorizationDetails []AuthorizationDetail `json:"authorization_details,omitempty"`
}

// Scopes returns the space-delimited scope as a slice.
func (p AuthorizationParameters) Scopes() []string {
	return strings.Fields(p.Scope)
}

// HasScope reports whether the granted scope includes s.
func (p AuthorizationParameters) HasScope(s string) bool {
	return slices.Contains(p.Scopes(), s)
}

// HasResponseType reports whether response_type includes t.
func (p AuthorizationParameters) HasResponseType(t string) bool {
	return slices.Contains(strings.Fields(p.ResponseType), t)
}

// TokenData is the persisted token record.
type TokenData struct {
	CreatedAt  time.Time
	UpdatedAt  time.Time
	ExpiresAt  time.Time
	ClientID   string
	ClientAuth ClientAuth
	DeviceID   DeviceID // empty when not tied to an interactive session
	Sub        string
	Parameters AuthorizationParameters
	Details    []AuthorizationDetail
	Code       Code // empty when not issued from an authorization code
}

// IsExpired reports whether the access token lifetime has elapsed.
func (d TokenData) IsExpired(now time.Time) bool {
	return !now.Before(d.ExpiresAt)
}

// TokenPatch is the only set of fields a rotation may change. Details is
// the latest snapshot from the authorization details hook.
type TokenPatch struct {
	UpdatedAt  time.Time
	ExpiresAt  time.Time
	ClientAuth ClientAuth
	Details    []AuthorizationDetail
}

// TokenInfo is a token record hydrated with its account and, when the grant
// came from an interactive session, the device account info.
type TokenInfo struct {
	ID      TokenID
	Data    TokenData
	Account Account
	Info    *DeviceAccountInfo
}

// RefreshTokenInfo is returned by refresh-secret lookups. CurrentRefreshHash
// is the fingerprint of the one refresh secret that is valid right now; it
// is empty when the record has no refresh secret.
type RefreshTokenInfo struct {
	TokenInfo
	CurrentRefreshHash string
}

package authsdk

import (
	"encoding/json"

	"github.com/go-jose/go-jose/v4"
)

// ErrorResponse is the RFC 6749 section 5.2 error body. Callers receive
// errors as *OAuth2Error; this type documents the wire shape.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

// TokenResponse is a successful token endpoint response.
type TokenResponse struct {
	// AccessToken is an opaque token id or an at+jwt, depending on the
	// server's access token mode and the account's audience.
	AccessToken string `json:"access_token"`
	// TokenType is "Bearer" or "DPoP".
	TokenType string `json:"token_type"`
	ExpiresIn int64  `json:"expires_in"` // seconds

	// RefreshToken is only issued with offline_access, IDToken only with
	// openid.
	RefreshToken string `json:"refresh_token,omitempty"`
	IDToken      string `json:"id_token,omitempty"`

	Scope                string          `json:"scope,omitempty"`
	AuthorizationDetails json.RawMessage `json:"authorization_details,omitempty"`
}

// IntrospectionResponse is the RFC 7662 response. Inactive tokens carry
// only Active.
type IntrospectionResponse struct {
	Active bool `json:"active"`

	Scope                string          `json:"scope,omitempty"`
	ClientID             string          `json:"client_id,omitempty"`
	Username             string          `json:"username,omitempty"`
	TokenType            string          `json:"token_type,omitempty"`
	Exp                  int64           `json:"exp,omitempty"`
	Iat                  int64           `json:"iat,omitempty"`
	Sub                  string          `json:"sub,omitempty"`
	Aud                  string          `json:"aud,omitempty"`
	Iss                  string          `json:"iss,omitempty"`
	Jti                  string          `json:"jti,omitempty"`
	Cnf                  *Confirmation   `json:"cnf,omitempty"`
	AuthorizationDetails json.RawMessage `json:"authorization_details,omitempty"`
}

// Confirmation carries the JWK thumbprint a DPoP bound token is tied to.
type Confirmation struct {
	JKT string `json:"jkt"`
}

// UserInfoResponse is the OIDC userinfo response.
type UserInfoResponse struct {
	Sub               string `json:"sub"`
	PreferredUsername string `json:"preferred_username,omitempty"`
	Email             string `json:"email,omitempty"`
}

// CreateClientRequest registers a client. Omitted fields take the server
// defaults: client_secret_basic and the authorization_code grant.
type CreateClientRequest struct {
	Name                    string          `json:"name"`
	RedirectURIs            []string        `json:"redirect_uris"`
	GrantTypes              []string        `json:"grant_types,omitempty"`
	ResponseTypes           []string        `json:"response_types,omitempty"`
	Scope                   string          `json:"scope,omitempty"`
	TokenEndpointAuthMethod string          `json:"token_endpoint_auth_method,omitempty"`
	DPoPBoundAccessTokens   bool            `json:"dpop_bound_access_tokens,omitempty"`
	JWKS                    json.RawMessage `json:"jwks,omitempty"`
	FirstParty              bool            `json:"first_party,omitempty"`
}

// CreateClientResponse returns the plaintext secret exactly once. It is
// empty for public and private_key_jwt clients.
type CreateClientResponse struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret,omitempty"`
}

type ClientInfo struct {
	ID                      string   `json:"id"`
	Name                    string   `json:"name"`
	RedirectURIs            []string `json:"redirect_uris"`
	GrantTypes              []string `json:"grant_types"`
	Scope                   string   `json:"scope,omitempty"`
	TokenEndpointAuthMethod string   `json:"token_endpoint_auth_method"`
	DPoPBoundAccessTokens   bool     `json:"dpop_bound_access_tokens"`
	FirstParty              bool     `json:"first_party"`
	Protected               bool     `json:"protected"`
	CreatedAt               string   `json:"created_at"` // RFC 3339
}

type ListClientsResponse struct {
	Clients []ClientInfo `json:"clients"`
}

// HealthResponse is served by /livez and /readyz. Only /readyz sets Checks.
type HealthResponse struct {
	Status  string        `json:"status"` // ok or degraded
	Uptime  string        `json:"uptime,omitempty"`
	Version string        `json:"version,omitempty"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}

// HealthChecks holds "ok" or "error: ..." per dependency. Tokens is only
// reported when tokens are kept outside the database.
type HealthChecks struct {
	Database string `json:"database"`
	Tokens   string `json:"tokens,omitempty"`
	Signer   string `json:"signer"`
}

// JWKSResponse is the document at /.well-known/jwks.json.
type JWKSResponse = jose.JSONWebKeySet

// ProviderMetadata is the document at /.well-known/openid-configuration.
type ProviderMetadata struct {
	Issuer                            string   `json:"issuer"`
	AuthorizationEndpoint             string   `json:"authorization_endpoint"`
	TokenEndpoint                     string   `json:"token_endpoint"`
	RevocationEndpoint                string   `json:"revocation_endpoint"`
	IntrospectionEndpoint             string   `json:"introspection_endpoint"`
	UserinfoEndpoint                  string   `json:"userinfo_endpoint"`
	JWKSURI                           string   `json:"jwks_uri"`
	ResponseTypesSupported            []string `json:"response_types_supported"`
	GrantTypesSupported               []string `json:"grant_types_supported"`
	SubjectTypesSupported             []string `json:"subject_types_supported"`
	IDTokenSigningAlgValuesSupported  []string `json:"id_token_signing_alg_values_supported"`
	ScopesSupported                   []string `json:"scopes_supported"`
	TokenEndpointAuthMethodsSupported []string `json:"token_endpoint_auth_methods_supported"`
	CodeChallengeMethodsSupported     []string `json:"code_challenge_methods_supported"`
	DPoPSigningAlgValuesSupported     []string `json:"dpop_signing_alg_values_supported"`
	AuthorizationResponseIssParameter bool     `json:"authorization_response_iss_parameter_supported"`
}

// RotateKeyRequest is the optional body of POST /v1/keys/rotate. With
// RetireExisting the current keys stop signing once the new key is in.
type RotateKeyRequest struct {
	RetireExisting bool `json:"retire_existing"`
}

// SigningKeyInfo describes a signing key. Timestamps are RFC 3339 and
// empty for keys that only live in memory.
type SigningKeyInfo struct {
	ID        string  `json:"id,omitempty"`
	Kid       string  `json:"kid"`
	Algorithm string  `json:"algorithm"`
	Status    string  `json:"status"` // active, retired or expired
	CreatedAt string  `json:"created_at,omitempty"`
	RetiredAt *string `json:"retired_at,omitempty"`
	ExpiresAt string  `json:"expires_at,omitempty"`
}

type RotateKeyResponse struct {
	NewKey      SigningKeyInfo   `json:"new_key"`
	RetiredKeys []SigningKeyInfo `json:"retired_keys,omitempty"`
	ActiveKeys  int              `json:"active_keys"`
}

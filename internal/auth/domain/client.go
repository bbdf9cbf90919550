package domain

import (
	"encoding/json"
	"slices"
	"strings"
	"time"
)

// ClientMetadata is the registered OAuth client metadata (RFC 7591 subset).
type ClientMetadata struct {
	RedirectURIs            []string        `json:"redirect_uris"`
	GrantTypes              []string        `json:"grant_types"`
	ResponseTypes           []string        `json:"response_types"`
	Scope                   string          `json:"scope,omitempty"`
	TokenEndpointAuthMethod string          `json:"token_endpoint_auth_method"`
	DPoPBoundAccessTokens   bool            `json:"dpop_bound_access_tokens,omitempty"`
	JWKS                    json.RawMessage `json:"jwks,omitempty"`
}

type Client struct {
	ID         string
	Name       string
	SecretHash string // argon2, empty for public and private_key_jwt clients
	Metadata   ClientMetadata
	FirstParty bool
	Protected  bool // If true, client cannot be deleted
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// AllowsGrant reports whether grantType is registered for the client.
func (c Client) AllowsGrant(grantType string) bool {
	return slices.Contains(c.Metadata.GrantTypes, grantType)
}

// AllowsScope reports whether every requested scope is registered for the
// client. A client with no registered scope accepts any.
func (c Client) AllowsScope(scope string) bool {
	if c.Metadata.Scope == "" {
		return true
	}
	allowed := strings.Fields(c.Metadata.Scope)
	for _, s := range strings.Fields(scope) {
		if !slices.Contains(allowed, s) {
			return false
		}
	}
	return true
}

// IsPublic reports whether the client authenticates with method "none".
func (c Client) IsPublic() bool {
	return c.Metadata.TokenEndpointAuthMethod == AuthMethodNone
}

package domain

import (
	"encoding/json"
	"maps"
	"time"
)

// Token types reported in token responses and WWW-Authenticate challenges.
const (
	TokenTypeBearer = "Bearer"
	TokenTypeDPoP   = "DPoP"
)

// TokenResponse is the RFC 6749 token endpoint response. It is never
// persisted; expires_in is derived from ExpiresAt when serialised.
type TokenResponse struct {
	AccessToken          string
	TokenType            string
	ExpiresAt            time.Time
	RefreshToken         RefreshToken
	IDToken              string
	Scope                string
	AuthorizationDetails []AuthorizationDetail
	Sub                  string

	// Extra holds additional members contributed by the response hook.
	Extra map[string]any

	// Now is the reference time for expires_in. Zero means time.Now().
	Now time.Time
}

// SecondsUntil returns the whole number of seconds from now until t,
// clamped at zero.
func SecondsUntil(t, now time.Time) int64 {
	d := t.Sub(now)
	if d <= 0 {
		return 0
	}
	return int64(d / time.Second)
}

func (r TokenResponse) MarshalJSON() ([]byte, error) {
	now := r.Now
	if now.IsZero() {
		now = time.Now()
	}

	out := make(map[string]any, len(r.Extra)+8)
	maps.Copy(out, r.Extra)

	out["access_token"] = r.AccessToken
	out["token_type"] = r.TokenType
	out["expires_in"] = SecondsUntil(r.ExpiresAt, now)
	out["scope"] = r.Scope
	out["sub"] = r.Sub
	if r.RefreshToken != "" {
		out["refresh_token"] = string(r.RefreshToken)
	}
	if r.IDToken != "" {
		out["id_token"] = r.IDToken
	}
	if len(r.AuthorizationDetails) > 0 {
		out["authorization_details"] = r.AuthorizationDetails
	}
	return json.Marshal(out)
}

// Introspection is the RFC 7662 introspection response. An inactive token
// serialises as {"active":false} only.
type Introspection struct {
	Active               bool                  `json:"active"`
	Scope                string                `json:"scope,omitempty"`
	ClientID             string                `json:"client_id,omitempty"`
	Username             string                `json:"username,omitempty"`
	TokenType            string                `json:"token_type,omitempty"`
	Exp                  int64                 `json:"exp,omitempty"`
	Iat                  int64                 `json:"iat,omitempty"`
	Sub                  string                `json:"sub,omitempty"`
	Aud                  string                `json:"aud,omitempty"`
	Iss                  string                `json:"iss,omitempty"`
	Jti                  string                `json:"jti,omitempty"`
	Cnf                  *Confirmation         `json:"cnf,omitempty"`
	AuthorizationDetails []AuthorizationDetail `json:"authorization_details,omitempty"`
}

// Confirmation is the RFC 7800 cnf member of a DPoP bound token.
type Confirmation struct {
	JKT string `json:"jkt"`
}

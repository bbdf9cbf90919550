package jwtx

import (
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"hash"
	"slices"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Header "typ" values.
const (
	TypeAccessToken = "at+jwt" // RFC 9068
	TypeJWT         = "JWT"
)

// Confirmation is the RFC 7800 "cnf" claim. JKT binds the token to the
// thumbprint of a DPoP proof key.
type Confirmation struct {
	JKT string `json:"jkt,omitempty"`
}

// AccessClaims is the JWT access token profile (RFC 9068). The same shape is
// built for opaque tokens so both go through one claim check.
type AccessClaims struct {
	jwt.RegisteredClaims

	// Scope is space delimited.
	Scope    string        `json:"scope,omitempty"`
	ClientID string        `json:"client_id,omitempty"`
	Cnf      *Confirmation `json:"cnf,omitempty"`

	// AuthorizationDetails is kept raw so the package stays free of the
	// RFC 9396 detail types.
	AuthorizationDetails json.RawMessage `json:"authorization_details,omitempty"`
}

// Scopes splits the scope claim.
func (c *AccessClaims) Scopes() []string {
	return strings.Fields(c.Scope)
}

// HasScopes reports whether every scope in want was granted.
func (c *AccessClaims) HasScopes(want ...string) bool {
	granted := c.Scopes()
	for _, s := range want {
		if !slices.Contains(granted, s) {
			return false
		}
	}
	return true
}

// JKT returns the bound key thumbprint, or "" for bearer tokens.
func (c *AccessClaims) JKT() string {
	if c.Cnf == nil {
		return ""
	}
	return c.Cnf.JKT
}

// IDTokenClaims is the OpenID Connect ID token.
type IDTokenClaims struct {
	jwt.RegisteredClaims

	AuthorizedParty   string           `json:"azp,omitempty"`
	Nonce             string           `json:"nonce,omitempty"`
	AuthTime          *jwt.NumericDate `json:"auth_time,omitempty"`
	AccessTokenHash   string           `json:"at_hash,omitempty"`
	CodeHash          string           `json:"c_hash,omitempty"`
	Email             string           `json:"email,omitempty"`
	PreferredUsername string           `json:"preferred_username,omitempty"`
}

// HalfHash computes at_hash / c_hash: the left-most half of the digest of
// value, base64url encoded. The digest follows the signing algorithm.
func HalfHash(alg, value string) (string, error) {
	var h hash.Hash
	switch alg {
	case AlgorithmRS256, AlgorithmES256:
		h = sha256.New()
	case AlgorithmEdDSA:
		h = sha512.New()
	default:
		return "", fmt.Errorf("jwtx: no hash for algorithm %q", alg)
	}
	h.Write([]byte(value))
	sum := h.Sum(nil)
	return base64.RawURLEncoding.EncodeToString(sum[:len(sum)/2]), nil
}

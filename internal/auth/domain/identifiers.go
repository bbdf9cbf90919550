package domain

import (
	"strings"

	"github.com/aussiebroadwan/tokend/pkg/cryptox"
)

// Opaque identifiers carry a fixed prefix and a fixed-length lowercase hex
// body so a presented string can be classified without touching the store.
const (
	TokenIDPrefix      = "tok-"
	RefreshTokenPrefix = "ref-"
	CodePrefix         = "cod-"
	DeviceIDPrefix     = "dev-"

	tokenIDBodyLen      = cryptox.TokenSize128 * 2
	refreshTokenBodyLen = cryptox.TokenSize256 * 2
	codeBodyLen         = cryptox.TokenSize256 * 2
	deviceIDBodyLen     = cryptox.TokenSize128 * 2
)

// TokenID identifies a token record. It doubles as the opaque access token
// and as the jti of JWT access tokens.
type TokenID string

// RefreshToken is the opaque refresh secret handed to clients.
type RefreshToken string

// Code is an authorization code.
type Code string

// DeviceID identifies a browser/device session.
type DeviceID string

func NewTokenID() (TokenID, error) {
	s, err := newPrefixed(TokenIDPrefix, cryptox.TokenSize128)
	return TokenID(s), err
}

func NewRefreshToken() (RefreshToken, error) {
	s, err := newPrefixed(RefreshTokenPrefix, cryptox.TokenSize256)
	return RefreshToken(s), err
}

func NewCode() (Code, error) {
	s, err := newPrefixed(CodePrefix, cryptox.TokenSize256)
	return Code(s), err
}

func NewDeviceID() (DeviceID, error) {
	s, err := newPrefixed(DeviceIDPrefix, cryptox.TokenSize128)
	return DeviceID(s), err
}

func newPrefixed(prefix string, size int) (string, error) {
	body, err := cryptox.GenerateHexToken(size)
	if err != nil {
		return "", err
	}
	return prefix + body, nil
}

func IsTokenID(s string) bool      { return hasShape(s, TokenIDPrefix, tokenIDBodyLen) }
func IsRefreshToken(s string) bool { return hasShape(s, RefreshTokenPrefix, refreshTokenBodyLen) }
func IsCode(s string) bool         { return hasShape(s, CodePrefix, codeBodyLen) }
func IsDeviceID(s string) bool     { return hasShape(s, DeviceIDPrefix, deviceIDBodyLen) }

// IsSignedJWT reports whether s looks like a compact JWS: three non-empty
// base64url segments.
func IsSignedJWT(s string) bool {
	parts := strings.Split(s, ".")
	if len(parts) != 3 {
		return false
	}
	for _, p := range parts {
		if p == "" || !isBase64URL(p) {
			return false
		}
	}
	return true
}

// TokenKind is the lexical class of a presented token string.
type TokenKind int

const (
	KindUnknown TokenKind = iota
	KindTokenID
	KindJWT
	KindRefreshToken
	KindCode
)

func (k TokenKind) String() string {
	switch k {
	case KindTokenID:
		return "token_id"
	case KindJWT:
		return "jwt"
	case KindRefreshToken:
		return "refresh_token"
	case KindCode:
		return "code"
	default:
		return "unknown"
	}
}

// ClassifyToken is a pure pattern match over the disjoint token shapes.
func ClassifyToken(s string) TokenKind {
	switch {
	case IsTokenID(s):
		return KindTokenID
	case IsSignedJWT(s):
		return KindJWT
	case IsRefreshToken(s):
		return KindRefreshToken
	case IsCode(s):
		return KindCode
	default:
		return KindUnknown
	}
}

func hasShape(s, prefix string, bodyLen int) bool {
	if len(s) != len(prefix)+bodyLen || !strings.HasPrefix(s, prefix) {
		return false
	}
	for i := len(prefix); i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

func isBase64URL(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9', c == '-', c == '_':
		default:
			return false
		}
	}
	return true
}

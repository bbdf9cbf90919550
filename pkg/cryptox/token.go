package cryptox

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"fmt"
)

// Random byte counts for opaque credentials.
const (
	TokenSize128 = 16 // key ids, token ids, device ids
	TokenSize256 = 32 // client secrets, refresh tokens, authorization codes
)

// GenerateToken returns size random bytes as unpadded base64url.
func GenerateToken(size int) (string, error) {
	return encodeRandom(size, base64.RawURLEncoding.EncodeToString)
}

// GenerateHexToken returns size random bytes as lowercase hex, so the
// length of the result is always 2*size.
func GenerateHexToken(size int) (string, error) {
	return encodeRandom(size, hex.EncodeToString)
}

// FingerprintToken is the SHA-256 of token, base64url encoded. Stores keep
// the fingerprint of a refresh token or code, never the value itself.
func FingerprintToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// FingerprintsEqual compares fingerprints in constant time. Empty input
// never matches.
func FingerprintsEqual(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func encodeRandom(size int, encode func([]byte) string) (string, error) {
	if size <= 0 {
		return "", fmt.Errorf("cryptox: token size must be positive, got %d", size)
	}
	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("cryptox: read random: %w", err)
	}
	return encode(buf), nil
}

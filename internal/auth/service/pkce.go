package service

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"
)

const (
	PKCEMethodPlain = "plain"
	PKCEMethodS256  = "S256"
)

// normalizePKCE validates a challenge at authorization time. The method
// defaults to S256.
func normalizePKCE(challenge, method string) (string, string, error) {
	challenge = strings.TrimSpace(challenge)
	method = strings.TrimSpace(method)
	if challenge == "" {
		return "", "", fmt.Errorf("%w: code_challenge required", ErrInvalidRequest)
	}
	switch {
	case method == "" || strings.EqualFold(method, PKCEMethodS256):
		return challenge, PKCEMethodS256, nil
	case strings.EqualFold(method, PKCEMethodPlain):
		return challenge, PKCEMethodPlain, nil
	default:
		return "", "", fmt.Errorf("%w: unsupported code_challenge_method %q", ErrInvalidRequest, method)
	}
}

// verifyPKCE checks verifier against the stored challenge. An unknown
// method is a malformed request; a wrong verifier is a bad grant.
func verifyPKCE(challenge, method, verifier string) error {
	if verifier == "" {
		return fmt.Errorf("%w: code_verifier required", ErrInvalidRequest)
	}

	switch method {
	case PKCEMethodPlain:
		if subtle.ConstantTimeCompare([]byte(challenge), []byte(verifier)) != 1 {
			return fmt.Errorf("%w: pkce verification failed", ErrInvalidGrant)
		}
		return nil
	case PKCEMethodS256:
		want, err := base64.RawURLEncoding.DecodeString(challenge)
		if err != nil {
			return fmt.Errorf("%w: malformed code_challenge", ErrInvalidGrant)
		}
		got := sha256.Sum256([]byte(verifier))
		if subtle.ConstantTimeCompare(got[:], want) != 1 {
			return fmt.Errorf("%w: pkce verification failed", ErrInvalidGrant)
		}
		return nil
	default:
		return fmt.Errorf("%w: unsupported code_challenge_method %q", ErrInvalidRequest, method)
	}
}

package jwtx

import (
	"crypto"
	"fmt"

	"github.com/aussiebroadwan/tokend/pkg/cryptox"
	"github.com/go-jose/go-jose/v4"
	"github.com/golang-jwt/jwt/v5"
)

// Signer issues JWTs under one key.
type Signer interface {
	Alg() string
	KID() string

	// Sign serialises claims with the given "typ" header.
	Sign(typ string, claims jwt.Claims) (string, error)

	// PublicJWK is the verification half, as published in the JWKS.
	PublicJWK() jose.JSONWebKey
}

type keySigner struct {
	kid    string
	method jwt.SigningMethod
	key    crypto.Signer
}

// NewSigner loads a PEM private key for alg (RS256, ES256 or EdDSA).
func NewSigner(alg, kid string, pemData []byte) (Signer, error) {
	if !isSupported(alg) {
		return nil, fmt.Errorf("jwtx: unsupported algorithm %q", alg)
	}
	if kid == "" {
		return nil, fmt.Errorf("jwtx: empty kid")
	}
	key, err := cryptox.ParseSigningKey(alg, pemData)
	if err != nil {
		return nil, fmt.Errorf("jwtx: key %s: %w", kid, err)
	}
	return &keySigner{kid: kid, method: jwt.GetSigningMethod(alg), key: key}, nil
}

// GenerateKey creates a fresh key pair under a random kid, returning the
// private key PEM for callers that persist it.
func GenerateKey(alg string, rsaBits int) (kid string, pemData []byte, s Signer, err error) {
	if !isSupported(alg) {
		return "", nil, nil, fmt.Errorf("jwtx: unsupported algorithm %q", alg)
	}
	if kid, err = newKeyID(); err != nil {
		return "", nil, nil, err
	}
	if pemData, err = cryptox.GenerateSigningKey(alg, rsaBits); err != nil {
		return "", nil, nil, err
	}
	if s, err = NewSigner(alg, kid, pemData); err != nil {
		return "", nil, nil, err
	}
	return kid, pemData, s, nil
}

func (s *keySigner) Alg() string { return s.method.Alg() }
func (s *keySigner) KID() string { return s.kid }

func (s *keySigner) Sign(typ string, claims jwt.Claims) (string, error) {
	t := jwt.NewWithClaims(s.method, claims)
	t.Header["kid"] = s.kid
	if typ != "" {
		t.Header["typ"] = typ
	}
	return t.SignedString(s.key)
}

func (s *keySigner) PublicJWK() jose.JSONWebKey {
	return jose.JSONWebKey{
		Key:       s.key.Public(),
		KeyID:     s.kid,
		Algorithm: s.method.Alg(),
		Use:       "sig",
	}
}

func newKeyID() (string, error) {
	token, err := cryptox.GenerateToken(cryptox.TokenSize128)
	if err != nil {
		return "", fmt.Errorf("jwtx: key id: %w", err)
	}
	return "tokend-" + token, nil
}

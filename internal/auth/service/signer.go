package service

import (
	"errors"
	"fmt"

	"github.com/aussiebroadwan/tokend/internal/auth/domain"
	"github.com/aussiebroadwan/tokend/pkg/jwtx"
	"github.com/golang-jwt/jwt/v5"
)

// IDTokenInput carries the artefacts an ID token is bound to. AccessToken
// and Code are hashed into at_hash and c_hash when set.
type IDTokenInput struct {
	Claims      jwtx.IDTokenClaims
	AccessToken string
	Code        domain.Code
}

// Signer mints and verifies the JWTs the token manager hands out.
type Signer interface {
	Issuer() string
	AccessToken(client domain.Client, params domain.AuthorizationParameters, account domain.Account, claims jwtx.AccessClaims) (string, error)
	IDToken(client domain.Client, params domain.AuthorizationParameters, account domain.Account, in IDTokenInput) (string, error)
	Verify(token string, claims jwt.Claims, opts jwtx.VerifyOptions) error
	VerifyAccessToken(token string, opts jwtx.VerifyOptions) (jwtx.AccessClaims, error)
}

// KeySigner signs with the rotating keys of a jwtx.KeyManager.
type KeySigner struct {
	keys   *jwtx.KeyManager
	issuer string
}

func NewKeySigner(keys *jwtx.KeyManager, issuer string) *KeySigner {
	return &KeySigner{keys: keys, issuer: issuer}
}

var _ Signer = (*KeySigner)(nil)

func (s *KeySigner) Issuer() string { return s.issuer }

func (s *KeySigner) AccessToken(_ domain.Client, _ domain.AuthorizationParameters, _ domain.Account, claims jwtx.AccessClaims) (string, error) {
	signer := s.keys.GetSigner()
	if signer == nil {
		return "", errors.New("signer: no active signing key")
	}
	claims.Issuer = s.issuer
	return signer.Sign(jwtx.TypeAccessToken, &claims)
}

func (s *KeySigner) IDToken(client domain.Client, _ domain.AuthorizationParameters, _ domain.Account, in IDTokenInput) (string, error) {
	signer := s.keys.GetSigner()
	if signer == nil {
		return "", errors.New("signer: no active signing key")
	}

	claims := in.Claims
	claims.Issuer = s.issuer
	claims.Audience = jwt.ClaimStrings{client.ID}
	claims.AuthorizedParty = client.ID

	if in.AccessToken != "" {
		h, err := jwtx.HalfHash(signer.Alg(), in.AccessToken)
		if err != nil {
			return "", fmt.Errorf("signer: at_hash: %w", err)
		}
		claims.AccessTokenHash = h
	}
	if in.Code != "" {
		h, err := jwtx.HalfHash(signer.Alg(), string(in.Code))
		if err != nil {
			return "", fmt.Errorf("signer: c_hash: %w", err)
		}
		claims.CodeHash = h
	}
	return signer.Sign(jwtx.TypeJWT, &claims)
}

func (s *KeySigner) Verify(token string, claims jwt.Claims, opts jwtx.VerifyOptions) error {
	return s.keys.Verifier.Verify(token, claims, opts)
}

func (s *KeySigner) VerifyAccessToken(token string, opts jwtx.VerifyOptions) (jwtx.AccessClaims, error) {
	if opts.Type == "" {
		opts.Type = jwtx.TypeAccessToken
	}
	var claims jwtx.AccessClaims
	if err := s.keys.Verifier.Verify(token, &claims, opts); err != nil {
		return jwtx.AccessClaims{}, err
	}
	return claims, nil
}

package jwtx

import (
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rsa"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// VerifyOptions captures per-call expectations. The issuer is fixed by the
// Verifier.
type VerifyOptions struct {
	// Audience the token must contain (claims.aud). Empty means "don't care".
	Audience string

	// Leeway allows small clock skew when validating exp/nbf/iat.
	// Because time sync is never perfect.
	Leeway time.Duration

	// IgnoreExpiry skips exp/nbf/iat/aud, keeping signature and issuer. Used
	// for revocation where an expired token is still a valid handle.
	IgnoreExpiry bool

	// Type is the required "typ" header, if any.
	Type string
}

var (
	ErrMalformed   = errors.New("jwtx: malformed token")
	ErrAlgMismatch = errors.New("jwtx: algorithm mismatch")
	ErrUnknownKID  = errors.New("jwtx: unknown kid")
	ErrInvalidSig  = errors.New("jwtx: invalid signature")

	ErrIssuer       = errors.New("jwtx: issuer mismatch")
	ErrAudience     = errors.New("jwtx: audience mismatch")
	ErrExpired      = errors.New("jwtx: token expired")
	ErrNotYetValid  = errors.New("jwtx: token not yet valid")
	ErrInvalidClaim = errors.New("jwtx: invalid claims")
)

var validMethods = []string{AlgorithmRS256, AlgorithmES256, AlgorithmEdDSA}

// Verifier validates JWTs against every key in a KeySet. The kid header
// selects the key and the key type pins the algorithm, so a retired key of
// another algorithm keeps verifying during its grace period.
type Verifier struct {
	keys   *KeySet
	issuer string
}

// NewVerifier creates a verifier for tokens issued by issuer.
func NewVerifier(keys *KeySet, issuer string) *Verifier {
	return &Verifier{keys: keys, issuer: issuer}
}

// Verify checks the signature and registered claims of token and decodes it
// into claims.
func (v *Verifier) Verify(token string, claims jwt.Claims, opts VerifyOptions) error {
	popts := []jwt.ParserOption{
		jwt.WithValidMethods(validMethods),
		jwt.WithLeeway(opts.Leeway),
	}
	if opts.IgnoreExpiry {
		popts = append(popts, jwt.WithoutClaimsValidation())
	} else {
		popts = append(popts, jwt.WithIssuedAt())
		if v.issuer != "" {
			popts = append(popts, jwt.WithIssuer(v.issuer))
		}
		if opts.Audience != "" {
			popts = append(popts, jwt.WithAudience(opts.Audience))
		}
	}

	t, err := jwt.NewParser(popts...).ParseWithClaims(token, claims, v.keyFunc)
	if err != nil {
		return mapParseError(err)
	}

	if opts.Type != "" {
		typ, _ := t.Header["typ"].(string)
		if !typeMatches(typ, opts.Type) {
			return fmt.Errorf("%w: typ %q", ErrInvalidClaim, typ)
		}
	}

	if opts.IgnoreExpiry && v.issuer != "" {
		iss, err := claims.GetIssuer()
		if err != nil || iss != v.issuer {
			return ErrIssuer
		}
	}
	return nil
}

func (v *Verifier) keyFunc(t *jwt.Token) (any, error) {
	kid, _ := t.Header["kid"].(string)
	if kid == "" {
		return nil, fmt.Errorf("%w: missing kid", ErrUnknownKID)
	}

	pub, err := v.keys.Get(kid)
	if err != nil {
		return nil, fmt.Errorf("%w %q", ErrUnknownKID, kid)
	}

	var want string
	switch pub.(type) {
	case *rsa.PublicKey:
		want = AlgorithmRS256
	case *ecdsa.PublicKey:
		want = AlgorithmES256
	case ed25519.PublicKey:
		want = AlgorithmEdDSA
	}
	if t.Method.Alg() != want {
		return nil, fmt.Errorf("%w: %s token for %s key", ErrAlgMismatch, t.Method.Alg(), want)
	}
	return pub, nil
}

// mapParseError collapses jwt library errors onto our sentinels.
func mapParseError(err error) error {
	for _, m := range []struct{ from, to error }{
		{ErrUnknownKID, ErrUnknownKID},
		{ErrAlgMismatch, ErrAlgMismatch},
		{jwt.ErrTokenMalformed, ErrMalformed},
		{jwt.ErrTokenUnverifiable, ErrAlgMismatch},
		{jwt.ErrTokenSignatureInvalid, ErrInvalidSig},
		{jwt.ErrTokenExpired, ErrExpired},
		{jwt.ErrTokenNotValidYet, ErrNotYetValid},
		{jwt.ErrTokenUsedBeforeIssued, ErrNotYetValid},
		{jwt.ErrTokenInvalidIssuer, ErrIssuer},
		{jwt.ErrTokenInvalidAudience, ErrAudience},
	} {
		if errors.Is(err, m.from) {
			return fmt.Errorf("%w: %v", m.to, err)
		}
	}
	return fmt.Errorf("%w: %v", ErrInvalidClaim, err)
}

// typeMatches compares typ headers, allowing the "application/" media type
// prefix (RFC 8725 3.11).
func typeMatches(got, want string) bool {
	got = strings.TrimPrefix(strings.ToLower(got), "application/")
	return got == strings.ToLower(want)
}

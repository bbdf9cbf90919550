package service

import (
	"slices"
	"time"

	"github.com/aussiebroadwan/tokend/internal/auth/domain"
	"github.com/aussiebroadwan/tokend/pkg/jwtx"
)

// VerifyOptions is the caller's policy for a presented access token.
type VerifyOptions struct {
	// Audience, if set, must appear in aud.
	Audience string
	// Scopes must all have been granted.
	Scopes []string
	// ClockTolerance extends exp.
	ClockTolerance time.Duration
}

// VerifyTokenClaims enforces sender constraint, audience, scope and expiry
// on the claims of a presented token. dpopJKT is the thumbprint of the
// proof that accompanied the request, if any.
func VerifyTokenClaims(tokenType string, claims *jwtx.AccessClaims, dpopJKT string, opts VerifyOptions, now time.Time) error {
	jkt := claims.JKT()
	switch {
	case jkt != "" && tokenType != domain.TokenTypeDPoP:
		return invalidToken(tokenType, "dpop bound token requires the DPoP scheme")
	case jkt == "" && tokenType == domain.TokenTypeDPoP:
		return invalidToken(tokenType, "token is not dpop bound")
	case jkt != "" && dpopJKT == "":
		return invalidToken(tokenType, "dpop proof required")
	case jkt != "" && jkt != dpopJKT:
		return invalidToken(tokenType, "dpop proof does not match token binding")
	}

	if opts.Audience != "" && !slices.Contains(claims.Audience, opts.Audience) {
		return invalidToken(tokenType, "invalid audience")
	}

	if claims.ExpiresAt != nil && now.After(claims.ExpiresAt.Add(opts.ClockTolerance)) {
		return expiredToken(tokenType)
	}

	if !claims.HasScopes(opts.Scopes...) {
		return ErrInsufficientScope
	}
	return nil
}

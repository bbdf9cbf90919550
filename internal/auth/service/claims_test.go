package service

import (
	"errors"
	"testing"
	"time"

	"github.com/aussiebroadwan/tokend/internal/auth/domain"
	"github.com/aussiebroadwan/tokend/pkg/jwtx"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func TestVerifyTokenClaims(t *testing.T) {
	t.Parallel()
	now := time.Now()

	claims := func(jkt string) *jwtx.AccessClaims {
		c := &jwtx.AccessClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   "acct-1",
				Audience:  jwt.ClaimStrings{testAudience},
				ExpiresAt: jwt.NewNumericDate(now.Add(time.Minute)),
			},
			Scope: "read write",
		}
		if jkt != "" {
			c.Cnf = &jwtx.Confirmation{JKT: jkt}
		}
		return c
	}

	tests := []struct {
		name      string
		tokenType string
		claims    *jwtx.AccessClaims
		dpopJKT   string
		opts      VerifyOptions
		at        time.Time
		wantErr   error
		expired   bool
	}{
		{name: "bearer", tokenType: domain.TokenTypeBearer, claims: claims(""), at: now},
		{name: "dpop", tokenType: domain.TokenTypeDPoP, claims: claims("jkt-a"), dpopJKT: "jkt-a", at: now},
		{name: "bound token as bearer", tokenType: domain.TokenTypeBearer, claims: claims("jkt-a"), dpopJKT: "jkt-a", at: now, wantErr: ErrInvalidToken},
		{name: "bearer token as dpop", tokenType: domain.TokenTypeDPoP, claims: claims(""), dpopJKT: "jkt-a", at: now, wantErr: ErrInvalidToken},
		{name: "bound token without proof", tokenType: domain.TokenTypeDPoP, claims: claims("jkt-a"), at: now, wantErr: ErrInvalidToken},
		{name: "proof key mismatch", tokenType: domain.TokenTypeDPoP, claims: claims("jkt-a"), dpopJKT: "jkt-b", at: now, wantErr: ErrInvalidToken},
		{name: "audience", tokenType: domain.TokenTypeBearer, claims: claims(""), opts: VerifyOptions{Audience: testAudience}, at: now},
		{name: "wrong audience", tokenType: domain.TokenTypeBearer, claims: claims(""), opts: VerifyOptions{Audience: "https://x.example"}, at: now, wantErr: ErrInvalidToken},
		{name: "expired", tokenType: domain.TokenTypeBearer, claims: claims(""), at: now.Add(2 * time.Minute), wantErr: ErrInvalidToken, expired: true},
		{name: "within tolerance", tokenType: domain.TokenTypeBearer, claims: claims(""), opts: VerifyOptions{ClockTolerance: 2 * time.Minute}, at: now.Add(2 * time.Minute)},
		{name: "scopes granted", tokenType: domain.TokenTypeBearer, claims: claims(""), opts: VerifyOptions{Scopes: []string{"read", "write"}}, at: now},
		{name: "scope missing", tokenType: domain.TokenTypeBearer, claims: claims(""), opts: VerifyOptions{Scopes: []string{"admin"}}, at: now, wantErr: ErrInsufficientScope},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := VerifyTokenClaims(tt.tokenType, tt.claims, tt.dpopJKT, tt.opts, tt.at)
			if tt.wantErr == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tt.wantErr)

			var invalid *InvalidTokenError
			if errors.As(err, &invalid) {
				require.Equal(t, tt.tokenType, invalid.TokenType)
				require.Equal(t, tt.expired, invalid.Expired)
			}
		})
	}
}

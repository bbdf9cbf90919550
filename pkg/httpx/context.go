package httpx

import (
	"context"

	"github.com/aussiebroadwan/tokend/pkg/jwtx"
)

type ctxKey int

const (
	ctxKeyClaims ctxKey = iota
	ctxKeyScheme
)

// ClaimsFromContext returns the claims of the authenticated access token.
func ClaimsFromContext(ctx context.Context) (*jwtx.AccessClaims, bool) {
	c, ok := ctx.Value(ctxKeyClaims).(*jwtx.AccessClaims)
	return c, ok && c != nil
}

// SchemeFromContext returns the Authorization scheme the access token was
// presented with, defaulting to Bearer.
func SchemeFromContext(ctx context.Context) string {
	if s, ok := ctx.Value(ctxKeyScheme).(string); ok && s != "" {
		return s
	}
	return SchemeBearer
}

// ContextWithClaims attaches authenticated claims to ctx.
func ContextWithClaims(ctx context.Context, scheme string, c *jwtx.AccessClaims) context.Context {
	ctx = context.WithValue(ctx, ctxKeyScheme, scheme)
	return context.WithValue(ctx, ctxKeyClaims, c)
}

package httpx

import (
	"context"
	"net/http"
	"strings"

	"github.com/aussiebroadwan/tokend/pkg/dpopx"
	"github.com/aussiebroadwan/tokend/pkg/jwtx"
	"github.com/aussiebroadwan/tokend/pkg/slogx"
)

// Authorization schemes.
const (
	SchemeBearer = "Bearer"
	SchemeDPoP   = "DPoP"
)

// AuthenticateFunc resolves a presented access token. tokenType is the
// Authorization scheme and dpopJKT the thumbprint of a verified proof, if
// one was sent.
type AuthenticateFunc func(ctx context.Context, tokenType, token, dpopJKT string) (*jwtx.AccessClaims, error)

type AuthnOptions struct {
	Authenticate AuthenticateFunc

	// DPoP verifies proofs sent with the DPoP scheme. Nil rejects DPoP.
	DPoP *dpopx.Verifier

	// BaseURL is the externally visible origin used to rebuild htu.
	BaseURL string
}

// AuthnMiddleware accepts "Bearer" and "DPoP" access tokens.
func AuthnMiddleware(opts AuthnOptions) Middleware {
	base := strings.TrimRight(opts.BaseURL, "/")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := slogx.FromContext(ctx)

			scheme, raw, ok := parseAuthorization(r.Header.Get("Authorization"))
			if !ok {
				writeTokenError(w, SchemeBearer, "missing access token")
				return
			}

			var jkt string
			if proof := r.Header.Get(dpopx.HeaderName); proof != "" {
				if opts.DPoP == nil {
					writeTokenError(w, scheme, "dpop not supported")
					return
				}
				p, err := opts.DPoP.Verify(proof, r.Method, base+r.URL.Path, raw)
				if err != nil {
					log.Warn("dpop proof rejected", "err", err)
					w.Header().Set("WWW-Authenticate", SchemeDPoP+` error="invalid_dpop_proof"`)
					w.WriteHeader(http.StatusUnauthorized)
					return
				}
				jkt = p.JKT
			}

			claims, err := opts.Authenticate(ctx, scheme, raw, jkt)
			if err != nil {
				log.Warn("access token rejected", "err", err)
				writeTokenError(w, scheme, "token verification failed")
				return
			}

			next.ServeHTTP(w, r.WithContext(ContextWithClaims(ctx, scheme, claims)))
		})
	}
}

// parseAuthorization splits an Authorization header into a canonical scheme
// and the credentials.
func parseAuthorization(h string) (scheme, token string, ok bool) {
	s, tok, found := strings.Cut(h, " ")
	if !found {
		return "", "", false
	}
	tok = strings.TrimSpace(tok)
	if tok == "" {
		return "", "", false
	}
	switch {
	case strings.EqualFold(s, SchemeBearer):
		return SchemeBearer, tok, true
	case strings.EqualFold(s, SchemeDPoP):
		return SchemeDPoP, tok, true
	}
	return "", "", false
}

// RFC 6750 / RFC 9449 error response.
func writeTokenError(w http.ResponseWriter, scheme, desc string) {
	w.Header().Set("WWW-Authenticate", scheme+` error="invalid_token", error_description="`+desc+`"`)
	w.WriteHeader(http.StatusUnauthorized)
}

package httpx

import (
	"net/http"
	"strings"
)

// RequireScopes rejects requests whose access token lacks any of the
// required scopes. It must run after AuthnMiddleware.
func RequireScopes(required ...string) Middleware {
	want := strings.Join(required, " ")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFromContext(r.Context())
			if !ok {
				writeTokenError(w, SchemeBearer, "missing access token")
				return
			}
			if !claims.HasScopes(required...) {
				scheme := SchemeFromContext(r.Context())
				w.Header().Set("WWW-Authenticate", scheme+` error="insufficient_scope", scope="`+want+`"`)
				WriteJSON(w, http.StatusForbidden, map[string]string{
					"error":             "insufficient_scope",
					"error_description": "token requires scope: " + want,
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

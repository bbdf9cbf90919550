package http

import (
	"net/http"
	"strings"

	"github.com/aussiebroadwan/tokend/internal/auth/service"
	"github.com/aussiebroadwan/tokend/pkg/authsdk"
	"github.com/aussiebroadwan/tokend/pkg/httpx"
)

// IntrospectHandler serves POST /v1/oauth2/introspect following RFC 7662.
// The caller must be a client that authenticates; public clients are
// refused.
type IntrospectHandler struct {
	Provider *service.Provider
}

// ServeHTTP godoc
//
//	@Summary		OAuth2 Token Introspection Endpoint
//	@Description	Introspects a token issued to the calling client and returns metadata about it (RFC 7662).
//	@Description	Tokens that are unknown, expired or belong to another client are reported as inactive.
//	@Tags			OAuth2
//	@Accept			application/x-www-form-urlencoded
//	@Produce		json
//	@Param			token			formData	string							true	"The token to introspect"
//	@Param			token_type_hint	formData	string							false	"Hint about token type (ignored)"	Enums(access_token, refresh_token)
//	@Success		200				{object}	authsdk.IntrospectionResponse	"Token introspection result"
//	@Failure		400				{object}	authsdk.ErrorResponse			"error, error_description"
//	@Failure		401				{object}	authsdk.ErrorResponse			"error, error_description"
//	@Header			200				{string}	Cache-Control					"no-store"
//	@Header			200				{string}	Pragma							"no-cache"
//	@Router			/v1/oauth2/introspect [post]
func (h *IntrospectHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	// 1. Ensure the right content-type and parse the form body
	if !parseForm(w, r) {
		return
	}

	creds, err := clientCredentials(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	token := strings.TrimSpace(r.PostForm.Get("token"))
	if token == "" {
		authsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	// 2. Resolve the token on behalf of the client
	out, err := h.Provider.Introspect(ctx, creds, token)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	// 3. Return the response with no-cache headers
	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, out)
}

package http

import (
	"net/http"
	"strings"

	"github.com/aussiebroadwan/tokend/internal/auth/service"
	"github.com/aussiebroadwan/tokend/pkg/authsdk"
	"github.com/aussiebroadwan/tokend/pkg/httpx"
	"github.com/aussiebroadwan/tokend/pkg/slogx"
)

// RevokeHandler serves POST /v1/oauth2/revoke following RFC 7009. Any token
// shape is accepted: access token (opaque or JWT), refresh token or code.
// Unknown, invalid and foreign tokens still return 200 OK to prevent token
// scanning; only the issuing client can revoke a grant.
type RevokeHandler struct {
	Clients *service.ClientAuthenticator
	Tokens  *service.TokenManager
}

// ServeHTTP godoc
//
//	@Summary		OAuth2 Token Revocation Endpoint
//	@Description	Revokes the grant behind a previously issued token (RFC 7009).
//	@Description	The endpoint is idempotent and returns 200 OK even for invalid/unknown tokens to prevent token scanning attacks.
//	@Tags			OAuth2
//	@Accept			application/x-www-form-urlencoded
//	@Produce		json
//	@Param			token			formData	string	true	"The token to revoke"
//	@Param			token_type_hint	formData	string	false	"Hint about token type (ignored, the token shape is self-describing)"	Enums(access_token, refresh_token)
//	@Param			client_id		formData	string	false	"Client identifier (unless sent with HTTP Basic)"
//	@Success		200				"Token revoked successfully (or was already invalid)"
//	@Failure		400				{object}	authsdk.ErrorResponse	"error, error_description"
//	@Failure		401				{object}	authsdk.ErrorResponse	"error, error_description"
//	@Header			200				{string}	Cache-Control			"no-store"
//	@Header			200				{string}	Pragma					"no-cache"
//	@Router			/v1/oauth2/revoke [post]
func (h *RevokeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	// 1. Ensure the right content-type and parse the form body
	if !parseForm(w, r) {
		return
	}

	// 2. Authenticate the client
	creds, err := clientCredentials(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	client, _, err := h.Clients.Authenticate(ctx, creds)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	token := strings.TrimSpace(r.PostForm.Get("token"))
	if token == "" {
		authsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	// 3. Revoke grants owned by this client. Per RFC 7009, failures and
	// foreign tokens are not reported to the caller.
	if err := h.Tokens.RevokeForClient(ctx, client.ID, token); err != nil {
		log.Warn("revoke failed", "client_id", client.ID, "err", err)
	}

	// 4. Return 200 OK with an empty body
	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, struct{}{})
}

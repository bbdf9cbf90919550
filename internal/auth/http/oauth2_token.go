package http

import (
	"net/http"
	"strings"

	"github.com/aussiebroadwan/tokend/internal/auth/service"
	"github.com/aussiebroadwan/tokend/pkg/dpopx"
	"github.com/aussiebroadwan/tokend/pkg/httpx"
	"github.com/aussiebroadwan/tokend/pkg/slogx"
)

// TokenHandler serves POST /v1/oauth2/token
// Accepts application/x-www-form-urlencoded per the RFC 6749 framework.
type TokenHandler struct {
	Provider *service.Provider
}

// ServeHTTP godoc
//
//	@Summary		OAuth2 Token Endpoint
//	@Description	Issues access, refresh and ID tokens (authorization_code, refresh_token and, when enabled, password).
//	@Description	Clients authenticate with HTTP Basic, client_secret_post, private_key_jwt or not at all (public clients).
//	@Description	A DPoP header binds the issued tokens to the proof key (RFC 9449).
//	@Tags			OAuth2
//	@Accept			application/x-www-form-urlencoded
//	@Produce		json
//	@Param			grant_type				formData	string					true	"Grant type"	Enums(authorization_code, refresh_token, password)
//	@Param			code					formData	string					false	"Authorization code (authorization_code grant)"
//	@Param			redirect_uri			formData	string					false	"Redirect URI used at the authorization endpoint"
//	@Param			code_verifier			formData	string					false	"PKCE code_verifier (authorization_code grant)"
//	@Param			refresh_token			formData	string					false	"Refresh token (refresh_token grant)"
//	@Param			username				formData	string					false	"Username (password grant)"
//	@Param			password				formData	string					false	"Password (password grant)"
//	@Param			scope					formData	string					false	"Space-delimited list of scopes (password grant)"
//	@Param			client_id				formData	string					false	"Client identifier (unless sent with HTTP Basic)"
//	@Param			client_secret			formData	string					false	"Client secret (client_secret_post)"
//	@Param			client_assertion_type	formData	string					false	"urn:ietf:params:oauth:client-assertion-type:jwt-bearer"
//	@Param			client_assertion		formData	string					false	"Signed client assertion (private_key_jwt)"
//	@Param			DPoP					header		string					false	"DPoP proof JWT"
//	@Success		200						{object}	authsdk.TokenResponse	"access_token, token_type, expires_in, refresh_token, id_token, scope"
//	@Failure		400						{object}	authsdk.ErrorResponse	"error, error_description"
//	@Failure		401						{object}	authsdk.ErrorResponse	"error, error_description"
//	@Failure		429						{object}	authsdk.ErrorResponse	"error, error_description"
//	@Failure		500						{object}	authsdk.ErrorResponse	"error, error_description"
//	@Header			200						{string}	Cache-Control			"no-store"
//	@Header			200						{string}	Pragma					"no-cache"
//	@Router			/v1/oauth2/token [post]
func (h *TokenHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	// 1. Ensure the right content-type and parse the form body
	if !parseForm(w, r) {
		return
	}

	// 2. Collect client authentication
	creds, err := clientCredentials(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	form := r.PostForm
	req := service.TokenRequest{
		GrantType:    strings.TrimSpace(form.Get("grant_type")),
		Credentials:  creds,
		DPoPProof:    r.Header.Get(dpopx.HeaderName),
		Code:         strings.TrimSpace(form.Get("code")),
		CodeVerifier: form.Get("code_verifier"),
		RedirectURI:  strings.TrimSpace(form.Get("redirect_uri")),
		RefreshToken: strings.TrimSpace(form.Get("refresh_token")),
		Username:     strings.TrimSpace(form.Get("username")),
		Password:     form.Get("password"),
		Scope:        httpx.NormalizeSpaceList(form.Get("scope")),
	}

	// 3. Dispatch on the grant type
	resp, err := h.Provider.Token(ctx, req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	log.Debug("token issued", "grant_type", req.GrantType, "sub", resp.Sub, "token_type", resp.TokenType)
	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, resp)
}

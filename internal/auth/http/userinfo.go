package http

import (
	"errors"
	"net/http"

	"github.com/aussiebroadwan/tokend/internal/auth/store"
	"github.com/aussiebroadwan/tokend/pkg/authsdk"
	"github.com/aussiebroadwan/tokend/pkg/httpx"
	"github.com/aussiebroadwan/tokend/pkg/slogx"
)

type UserInfoHandler struct {
	Accounts store.Accounts
}

// ServeHTTP handles the OIDC UserInfo endpoint.
//
//	@Summary		Get user information
//	@Description	Returns the subject of the presented access token. preferred_username needs the 'profile' scope
//	@Description	and email the 'email' scope. Accepts Bearer and DPoP bound tokens.
//	@Tags			OAuth2
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	authsdk.UserInfoResponse	"sub, preferred_username, email"
//	@Failure		401	{object}	authsdk.ErrorResponse		"Invalid or missing access token"
//	@Failure		500	{object}	authsdk.ErrorResponse		"Internal server error"
//	@Router			/v1/userinfo [get]
func (h *UserInfoHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	claims, ok := httpx.ClaimsFromContext(ctx)
	if !ok || claims.Subject == "" {
		authsdk.ErrInvalidToken.WriteError(w)
		return
	}

	account, err := h.Accounts.GetAccountBySub(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			authsdk.ErrInvalidToken.WriteError(w)
			return
		}
		log.Warn("failed to load account", "sub", claims.Subject, "err", err)
		authsdk.ErrServerError.WriteError(w)
		return
	}

	response := authsdk.UserInfoResponse{Sub: account.Sub}
	if claims.HasScopes("profile") {
		response.PreferredUsername = account.Username
	}
	if claims.HasScopes("email") {
		response.Email = account.Email
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, response)
}

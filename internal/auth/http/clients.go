package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/aussiebroadwan/tokend/internal/auth/domain"
	"github.com/aussiebroadwan/tokend/internal/auth/service"
	"github.com/aussiebroadwan/tokend/pkg/authsdk"
	"github.com/aussiebroadwan/tokend/pkg/httpx"
	"github.com/aussiebroadwan/tokend/pkg/slogx"
)

// ClientsHandler handles all client management endpoints.
type ClientsHandler struct {
	ClientService *service.ClientService
}

// HandleCreate handles POST /v1/clients
//
//	@Summary		Register OAuth2 Client
//	@Description	Registers a client. For client_secret_basic and client_secret_post a secret is generated
//	@Description	and returned once. private_key_jwt clients must supply a public jwks.
//	@Tags			Clients
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			request	body		authsdk.CreateClientRequest		true	"Client metadata"
//	@Success		201		{object}	authsdk.CreateClientResponse	"client_id and client_secret (if any)"
//	@Failure		400		{object}	authsdk.ErrorResponse			"error, error_description"
//	@Failure		401		{object}	authsdk.ErrorResponse			"error, error_description"
//	@Failure		403		{object}	authsdk.ErrorResponse			"error, error_description"
//	@Failure		500		{object}	authsdk.ErrorResponse			"error, error_description"
//	@Router			/v1/clients [post]
func (h *ClientsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req authsdk.CreateClientRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		authsdk.NewOAuth2Error(http.StatusBadRequest, authsdk.ErrorCodeInvalidRequest, "invalid JSON in request body").WriteError(w)
		return
	}

	client, secret, err := h.ClientService.CreateClient(ctx, service.CreateClientRequest{
		Name: req.Name,
		Metadata: domain.ClientMetadata{
			RedirectURIs:            req.RedirectURIs,
			GrantTypes:              req.GrantTypes,
			ResponseTypes:           req.ResponseTypes,
			Scope:                   req.Scope,
			TokenEndpointAuthMethod: req.TokenEndpointAuthMethod,
			DPoPBoundAccessTokens:   req.DPoPBoundAccessTokens,
			JWKS:                    req.JWKS,
		},
		FirstParty: req.FirstParty,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	// The secret is only ever returned here.
	httpx.WriteJSON(w, http.StatusCreated, authsdk.CreateClientResponse{
		ClientID:     client.ID,
		ClientSecret: secret,
	})
}

// HandleList handles GET /v1/clients
//
//	@Summary		List OAuth2 Clients
//	@Description	Returns all registered clients. Protected clients are flagged.
//	@Tags			Clients
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	authsdk.ListClientsResponse	"List of clients"
//	@Failure		401	{object}	authsdk.ErrorResponse		"error, error_description"
//	@Failure		403	{object}	authsdk.ErrorResponse		"error, error_description"
//	@Failure		500	{object}	authsdk.ErrorResponse		"error, error_description"
//	@Router			/v1/clients [get]
func (h *ClientsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	clients, err := h.ClientService.ListClients(ctx)
	if err != nil {
		slogx.FromContext(ctx).Error("failed to list clients", "err", err)
		authsdk.ErrServerError.WriteError(w)
		return
	}

	out := make([]authsdk.ClientInfo, len(clients))
	for i, c := range clients {
		out[i] = clientInfo(c)
	}
	httpx.WriteJSON(w, http.StatusOK, authsdk.ListClientsResponse{Clients: out})
}

// HandleDelete handles DELETE /v1/clients/{id}
//
//	@Summary		Delete OAuth2 Client
//	@Description	Deletes a client together with its tokens and pending codes. Protected clients cannot be deleted.
//	@Tags			Clients
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id	path	string	true	"Client ID (ULID)"
//	@Success		204	"Client deleted"
//	@Failure		401	{object}	authsdk.ErrorResponse	"error, error_description"
//	@Failure		403	{object}	authsdk.ErrorResponse	"error, error_description"
//	@Failure		404	{object}	authsdk.ErrorResponse	"error, error_description"
//	@Failure		500	{object}	authsdk.ErrorResponse	"error, error_description"
//	@Router			/v1/clients/{id} [delete]
func (h *ClientsHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	clientID := r.PathValue("id")

	err := h.ClientService.DeleteClient(ctx, clientID)
	switch {
	case err == nil:
		w.WriteHeader(http.StatusNoContent)
	case errors.Is(err, service.ErrClientNotFound):
		authsdk.NewOAuth2Error(http.StatusNotFound, "client_not_found", "client not found").WriteError(w)
	case errors.Is(err, service.ErrClientProtected):
		authsdk.NewOAuth2Error(http.StatusForbidden, "client_protected", "cannot delete protected client").WriteError(w)
	default:
		slogx.FromContext(ctx).Error("failed to delete client", "client_id", clientID, "err", err)
		authsdk.ErrServerError.WriteError(w)
	}
}

func clientInfo(c domain.Client) authsdk.ClientInfo {
	return authsdk.ClientInfo{
		ID:                      c.ID,
		Name:                    c.Name,
		RedirectURIs:            c.Metadata.RedirectURIs,
		GrantTypes:              c.Metadata.GrantTypes,
		Scope:                   c.Metadata.Scope,
		TokenEndpointAuthMethod: c.Metadata.TokenEndpointAuthMethod,
		DPoPBoundAccessTokens:   c.Metadata.DPoPBoundAccessTokens,
		FirstParty:              c.FirstParty,
		Protected:               c.Protected,
		CreatedAt:               c.CreatedAt.Format(time.RFC3339),
	}
}

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

// KeyRotationHandler serves signing key administration. Routes require the
// admin scope.
type KeyRotationHandler struct {
	KeyRotationService *service.KeyRotationService
}

// keyErrors maps service failures to responses; anything else is a 500.
var keyErrors = []struct {
	err    error
	status int
	code   string
}{
	{service.ErrKeyNotFound, http.StatusNotFound, "key_not_found"},
	{service.ErrKeyAlreadyRetired, http.StatusConflict, "key_retired"},
	{service.ErrLastSigningKey, http.StatusConflict, "last_signing_key"},
}

func writeKeyError(w http.ResponseWriter, r *http.Request, op string, err error) {
	for _, ke := range keyErrors {
		if errors.Is(err, ke.err) {
			authsdk.NewOAuth2Error(ke.status, ke.code, ke.err.Error()).WriteError(w)
			return
		}
	}
	slogx.FromContext(r.Context()).Error(op, "err", err)
	authsdk.ErrServerError.WriteError(w)
}

// HandleRotate handles POST /v1/keys/rotate
//
//	@Summary		Rotate signing keys
//	@Description	Adds a signing key. With retire_existing the current keys stop signing and keep verifying for the grace period.
//	@Tags			Keys
//	@Accept			json
//	@Produce		json
//	@Param			body	body		authsdk.RotateKeyRequest	false	"Rotation options"
//	@Success		200		{object}	authsdk.RotateKeyResponse
//	@Failure		400		{object}	authsdk.ErrorResponse
//	@Failure		401		{object}	authsdk.ErrorResponse
//	@Failure		403		{object}	authsdk.ErrorResponse	"requires admin scope"
//	@Failure		500		{object}	authsdk.ErrorResponse
//	@Security		BearerAuth
//	@Router			/v1/keys/rotate [post]
func (h *KeyRotationHandler) HandleRotate(w http.ResponseWriter, r *http.Request) {
	var req authsdk.RotateKeyRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil && !errors.Is(err, httpx.ErrEmptyBody) {
		authsdk.NewOAuth2Error(http.StatusBadRequest, authsdk.ErrorCodeInvalidRequest, err.Error()).WriteError(w)
		return
	}

	resp, err := h.KeyRotationService.RotateKey(r.Context(), service.RotateKeyRequest{
		RetireExisting: req.RetireExisting,
	})
	if err != nil {
		writeKeyError(w, r, "rotate signing key", err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.RotateKeyResponse{
		NewKey:      keyInfo(resp.NewKey),
		RetiredKeys: keyInfos(resp.RetiredKeys),
		ActiveKeys:  resp.ActiveKeys,
	})
}

// HandleListKeys handles GET /v1/keys
//
//	@Summary		List signing keys
//	@Description	Stored keys with their status, or the loaded signers when keys are not persisted.
//	@Tags			Keys
//	@Produce		json
//	@Success		200	{array}		authsdk.SigningKeyInfo
//	@Failure		401	{object}	authsdk.ErrorResponse
//	@Failure		403	{object}	authsdk.ErrorResponse	"requires admin scope"
//	@Failure		500	{object}	authsdk.ErrorResponse
//	@Security		BearerAuth
//	@Router			/v1/keys [get]
func (h *KeyRotationHandler) HandleListKeys(w http.ResponseWriter, r *http.Request) {
	keys, err := h.KeyRotationService.ListSigningKeys(r.Context())
	if err != nil {
		writeKeyError(w, r, "list signing keys", err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, keyInfos(keys))
}

// HandleRetireKey handles POST /v1/keys/{kid}/retire
//
//	@Summary		Retire a signing key
//	@Description	Stops a key from signing. It keeps verifying for the grace period. The last signing key cannot be retired.
//	@Tags			Keys
//	@Produce		json
//	@Param			kid	path	string	true	"Key ID"
//	@Success		204
//	@Failure		401	{object}	authsdk.ErrorResponse
//	@Failure		403	{object}	authsdk.ErrorResponse	"requires admin scope"
//	@Failure		404	{object}	authsdk.ErrorResponse	"key_not_found"
//	@Failure		409	{object}	authsdk.ErrorResponse	"key_retired or last_signing_key"
//	@Failure		500	{object}	authsdk.ErrorResponse
//	@Security		BearerAuth
//	@Router			/v1/keys/{kid}/retire [post]
func (h *KeyRotationHandler) HandleRetireKey(w http.ResponseWriter, r *http.Request) {
	kid := r.PathValue("kid")
	if err := h.KeyRotationService.RetireKey(r.Context(), kid); err != nil {
		writeKeyError(w, r, "retire signing key", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func keyInfo(key domain.SigningKey) authsdk.SigningKeyInfo {
	info := authsdk.SigningKeyInfo{
		ID:        key.ID,
		Kid:       key.Kid,
		Algorithm: key.Algorithm,
		Status:    string(key.Status(time.Now())),
		CreatedAt: rfc3339(key.CreatedAt),
		ExpiresAt: rfc3339(key.ExpiresAt),
	}
	if key.RetiredAt != nil {
		at := rfc3339(*key.RetiredAt)
		info.RetiredAt = &at
	}
	return info
}

func keyInfos(keys []domain.SigningKey) []authsdk.SigningKeyInfo {
	out := make([]authsdk.SigningKeyInfo, 0, len(keys))
	for _, key := range keys {
		out = append(out, keyInfo(key))
	}
	return out
}

// rfc3339 formats t, or returns "" for the zero time.
func rfc3339(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

package http

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aussiebroadwan/tokend/internal/auth/domain"
	"github.com/aussiebroadwan/tokend/internal/auth/service"
	"github.com/aussiebroadwan/tokend/pkg/authsdk"
	"github.com/aussiebroadwan/tokend/pkg/httpx"
	"github.com/aussiebroadwan/tokend/pkg/slogx"
)

const (
	deviceCookieName = "tokend_device"
	deviceCookieTTL  = 400 * 24 * time.Hour
)

// AuthorizeHandler processes OAuth2 authorization requests (authorization code flow).
type AuthorizeHandler struct {
	AuthorizeService *service.AuthorizeService
	Issuer           string
	// SecureCookies marks the device cookie Secure. Set whenever the
	// issuer is served over https.
	SecureCookies bool
}

// HandleGet processes GET requests to the authorization endpoint.
// The request is validated and, since no credentials are submitted,
// answered with login_required echoing the validated parameters.
//
//	@Summary		OAuth2 authorization endpoint (GET)
//	@Description	Validates an authorization code request. Returns 401 login_required with the validated
//	@Description	parameters so a login form can POST them back with credentials.
//	@Description
//	@Description	**PKCE:** code_challenge is required for every client (S256 by default).
//	@Tags			OAuth2
//	@Produce		json
//	@Param			response_type			query		string					true	"Must be 'code'"	default(code)
//	@Param			client_id				query		string					true	"OAuth2 client identifier"
//	@Param			redirect_uri			query		string					false	"Callback URI (required when more than one is registered)"
//	@Param			scope					query		string					false	"Space-delimited list of scopes"	example("openid offline_access")
//	@Param			state					query		string					false	"Opaque value for CSRF protection (recommended)"
//	@Param			nonce					query		string					false	"OIDC nonce echoed in the ID token"
//	@Param			code_challenge			query		string					true	"PKCE code challenge"	example("E9Melhoa2OwvFrEMTJguCHaoeK1t8URWbuGJSstw-cM")
//	@Param			code_challenge_method	query		string					false	"PKCE method, defaults to S256"	default(S256)	Enums(S256, plain)
//	@Param			dpop_jkt				query		string					false	"Thumbprint of the DPoP key the code is bound to"
//	@Failure		400						{object}	authsdk.ErrorResponse	"Invalid request"
//	@Failure		401						{object}	map[string]interface{}	"login_required with the validated parameters"
//	@Router			/v1/oauth2/authorize [get]
func (h *AuthorizeHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	req := h.buildAuthorizeRequest(nil, r.URL.Query())

	client, params, err := h.AuthorizeService.ValidateRequest(r.Context(), req)
	if err != nil {
		h.handleAuthorizeError(w, r, req, err)
		return
	}

	payload := map[string]any{
		"error":                 authsdk.ErrorCodeLoginRequired,
		"error_description":     "user authentication required",
		"response_type":         params.ResponseType,
		"client_id":             client.ID,
		"client_name":           client.Name,
		"redirect_uri":          params.RedirectURI,
		"code_challenge":        params.CodeChallenge,
		"code_challenge_method": params.CodeChallengeMethod,
	}
	if params.Scope != "" {
		payload["scope"] = params.Scope
	}
	if params.State != "" {
		payload["state"] = params.State
	}
	if params.Nonce != "" {
		payload["nonce"] = params.Nonce
	}
	httpx.WriteJSON(w, http.StatusUnauthorized, payload)
}

// HandlePost processes POST requests to the authorization endpoint: a
// password login that, on success, redirects with a code.
//
//	@Summary		OAuth2 authorization endpoint (POST)
//	@Description	Logs the user in with username and password, authorizes the client for the device session
//	@Description	and redirects to redirect_uri with code, state and iss (RFC 9207).
//	@Description
//	@Description	**Response:**
//	@Description	- Success: 302 redirect to redirect_uri with code and state parameters
//	@Description	- Error: redirect with error parameters once redirect_uri is trusted, otherwise a JSON error
//	@Tags			OAuth2
//	@Accept			x-www-form-urlencoded
//	@Produce		json
//	@Param			response_type			formData	string					true	"Must be 'code'"	default(code)
//	@Param			client_id				formData	string					true	"OAuth2 client identifier"
//	@Param			redirect_uri			formData	string					false	"Callback URI"
//	@Param			scope					formData	string					false	"Space-delimited list of scopes"
//	@Param			state					formData	string					false	"Opaque value for CSRF protection"
//	@Param			nonce					formData	string					false	"OIDC nonce"
//	@Param			code_challenge			formData	string					true	"PKCE code challenge"
//	@Param			code_challenge_method	formData	string					false	"PKCE method"	Enums(S256, plain)
//	@Param			dpop_jkt				formData	string					false	"DPoP key thumbprint"
//	@Param			username				formData	string					true	"Username"
//	@Param			password				formData	string					true	"Password"
//	@Param			remember				formData	bool					false	"Keep the device session"
//	@Success		302						{string}	string					"Redirect to redirect_uri with code and state"
//	@Failure		400						{object}	authsdk.ErrorResponse	"Invalid request"
//	@Failure		401						{object}	authsdk.ErrorResponse	"login_required"
//	@Router			/v1/oauth2/authorize [post]
func (h *AuthorizeHandler) HandlePost(w http.ResponseWriter, r *http.Request) {
	if !parseForm(w, r) {
		return
	}

	req := h.buildAuthorizeRequest(r.PostForm, r.URL.Query())
	req.Username = strings.TrimSpace(r.PostForm.Get("username"))
	req.Password = r.PostForm.Get("password")
	req.Remember = r.PostForm.Get("remember") == "true" || r.PostForm.Get("remember") == "on"
	req.UserAgent = r.UserAgent()
	req.IPAddress = httpx.IPKeyExtractor(r)
	if c, err := r.Cookie(deviceCookieName); err == nil && domain.IsDeviceID(c.Value) {
		req.DeviceID = domain.DeviceID(c.Value)
	}

	resp, err := h.AuthorizeService.Authorize(r.Context(), req)
	if err != nil {
		h.handleAuthorizeError(w, r, req, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     deviceCookieName,
		Value:    string(resp.DeviceID),
		Path:     "/",
		Expires:  time.Now().Add(deviceCookieTTL),
		HttpOnly: true,
		Secure:   h.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	httpx.NoCache(w)
	http.Redirect(w, r, resp.RedirectURL, http.StatusFound)
}

func (h *AuthorizeHandler) buildAuthorizeRequest(primary, secondary url.Values) service.AuthorizeRequest {
	pick := func(key string) string {
		if primary != nil {
			if v := strings.TrimSpace(primary.Get(key)); v != "" {
				return v
			}
		}
		if secondary != nil {
			return strings.TrimSpace(secondary.Get(key))
		}
		return ""
	}

	return service.AuthorizeRequest{
		ResponseType:        pick("response_type"),
		ClientID:            pick("client_id"),
		RedirectURI:         pick("redirect_uri"),
		Scope:               httpx.NormalizeSpaceList(pick("scope")),
		State:               pick("state"),
		Nonce:               pick("nonce"),
		CodeChallenge:       pick("code_challenge"),
		CodeChallengeMethod: pick("code_challenge_method"),
		DPoPJKT:             pick("dpop_jkt"),
	}
}

func (h *AuthorizeHandler) handleAuthorizeError(w http.ResponseWriter, r *http.Request, req service.AuthorizeRequest, err error) {
	log := slogx.FromContext(r.Context())

	var oerr *authsdk.OAuth2Error
	switch {
	case errors.Is(err, service.ErrLoginRequired):
		oerr = authsdk.ErrLoginRequired
	case errors.Is(err, service.ErrInvalidCredentials):
		oerr = authsdk.NewOAuth2Error(http.StatusUnauthorized, authsdk.ErrorCodeAccessDenied, "invalid username or password")
	default:
		var known bool
		if oerr, known = oauth2Error(err); !known {
			log.Error("authorize request failed", "err", err)
			oerr.WriteError(w)
			return
		}
	}

	// Until the client and redirect_uri are validated the browser must not be
	// sent anywhere (RFC 6749 section 4.1.2.1). Client and redirect problems
	// surface as invalid_client and invalid_request from validation.
	redirect, ok := h.trustedRedirect(r, req)
	if !ok {
		log.Debug("authorize request rejected", "client_id", req.ClientID, "error", oerr.Code)
		oerr.WriteError(w)
		return
	}

	// Credential failures stay on the login form.
	if oerr.Code == authsdk.ErrorCodeLoginRequired || errors.Is(err, service.ErrInvalidCredentials) {
		oerr.WriteError(w)
		return
	}

	u, perr := url.Parse(redirect)
	if perr != nil {
		oerr.WriteError(w)
		return
	}
	q := u.Query()
	q.Set("error", oerr.Code)
	if oerr.Description != "" {
		q.Set("error_description", oerr.Description)
	}
	if req.State != "" {
		q.Set("state", req.State)
	}
	q.Set("iss", h.Issuer)
	u.RawQuery = q.Encode()

	log.Debug("authorize error redirected", slog.String("client_id", req.ClientID), slog.String("error", oerr.Code))
	http.Redirect(w, r, u.String(), http.StatusFound)
}

// trustedRedirect returns the request's redirect URI once the client and
// redirect URI themselves have been validated.
func (h *AuthorizeHandler) trustedRedirect(r *http.Request, req service.AuthorizeRequest) (string, bool) {
	_, params, _ := h.AuthorizeService.ValidateRequest(r.Context(), req)
	return params.RedirectURI, params.RedirectURI != ""
}

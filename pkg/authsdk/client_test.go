package authsdk

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/aussiebroadwan/tokend/pkg/dpopx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPKCEChallenge(t *testing.T) {
	t.Parallel()

	pkce := NewPKCEChallenge()
	require.NotEmpty(t, pkce.Verifier)
	require.Equal(t, "S256", pkce.Method)

	hash := sha256.Sum256([]byte(pkce.Verifier))
	require.Equal(t, base64.RawURLEncoding.EncodeToString(hash[:]), pkce.Challenge)

	require.NotEqual(t, pkce.Verifier, NewPKCEChallenge().Verifier)
}

func TestBuildAuthorizeURL(t *testing.T) {
	t.Parallel()

	client := NewSDKClient("https://auth.example.com/", "spa")

	t.Run("minimal parameters", func(t *testing.T) {
		u, err := url.Parse(client.BuildAuthorizeURL(AuthorizeRequest{}))
		require.NoError(t, err)
		require.Equal(t, "/v1/oauth2/authorize", u.Path)

		q := u.Query()
		require.Equal(t, "code", q.Get("response_type"))
		require.Equal(t, "spa", q.Get("client_id"))
		require.False(t, q.Has("redirect_uri"))
		require.False(t, q.Has("code_challenge"))
		require.False(t, q.Has("dpop_jkt"))
	})

	t.Run("full request", func(t *testing.T) {
		key, err := NewDPoPKey()
		require.NoError(t, err)
		pkce := NewPKCEChallenge()

		u, err := url.Parse(client.WithDPoP(key).BuildAuthorizeURL(AuthorizeRequest{
			RedirectURI: "https://app.example.com/callback",
			Scopes:      []string{"openid", "offline_access"},
			State:       "xyz",
			Nonce:       "n-0S6",
			PKCE:        pkce,
		}))
		require.NoError(t, err)

		q := u.Query()
		require.Equal(t, "https://app.example.com/callback", q.Get("redirect_uri"))
		require.Equal(t, "openid offline_access", q.Get("scope"))
		require.Equal(t, "xyz", q.Get("state"))
		require.Equal(t, "n-0S6", q.Get("nonce"))
		require.Equal(t, pkce.Challenge, q.Get("code_challenge"))
		require.Equal(t, "S256", q.Get("code_challenge_method"))
		require.Equal(t, key.Thumbprint(), q.Get("dpop_jkt"))
	})
}

func TestAuthorizeWithPassword(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		switch r.PostForm.Get("password") {
		case "good":
			require.Equal(t, "true", r.PostForm.Get("remember"))
			http.Redirect(w, r, "https://app.example.com/cb?code=c0de&state="+r.PostForm.Get("state")+"&iss=https%3A%2F%2Fauth", http.StatusFound)
		case "scope":
			http.Redirect(w, r, "https://app.example.com/cb?error=invalid_scope&error_description=nope", http.StatusFound)
		default:
			NewOAuth2Error(http.StatusUnauthorized, ErrorCodeAccessDenied, "invalid username or password").WriteError(w)
		}
	}))
	t.Cleanup(srv.Close)

	client := NewSDKClient(srv.URL, "spa")
	req := AuthorizeRequest{State: "s1", PKCE: NewPKCEChallenge()}

	t.Run("success", func(t *testing.T) {
		res, err := client.AuthorizeWithPassword(t.Context(), req, "alice", "good", true)
		require.NoError(t, err)
		require.Equal(t, "c0de", res.Code)
		require.Equal(t, "s1", res.State)
		require.Equal(t, "https://auth", res.Iss)
	})

	t.Run("redirected error", func(t *testing.T) {
		_, err := client.AuthorizeWithPassword(t.Context(), req, "alice", "scope", false)
		var oerr *OAuth2Error
		require.True(t, errors.As(err, &oerr))
		require.Equal(t, ErrorCodeInvalidScope, oerr.Code)
		require.Equal(t, "nope", oerr.Description)
	})

	t.Run("json error", func(t *testing.T) {
		_, err := client.AuthorizeWithPassword(t.Context(), req, "alice", "bad", false)
		var oerr *OAuth2Error
		require.True(t, errors.As(err, &oerr))
		require.Equal(t, http.StatusUnauthorized, oerr.StatusCode)
		require.Equal(t, ErrorCodeAccessDenied, oerr.Code)
	})
}

func TestRequestToken(t *testing.T) {
	t.Parallel()

	key, err := NewDPoPKey()
	require.NoError(t, err)
	verifier := dpopx.NewVerifier(dpopx.Options{})

	var srvURL string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())

		id, secret, basic := r.BasicAuth()
		switch {
		case basic:
			require.Equal(t, "backend", id)
			require.Equal(t, "s%26cret", secret)
			require.Empty(t, r.PostForm.Get("client_id"))
		default:
			require.Equal(t, "spa", r.PostForm.Get("client_id"))
		}

		resp := TokenResponse{AccessToken: "at", TokenType: "Bearer", ExpiresIn: 3600, Scope: "openid"}
		if proof := r.Header.Get("DPoP"); proof != "" {
			p, err := verifier.Verify(proof, http.MethodPost, srvURL+"/v1/oauth2/token", "")
			require.NoError(t, err)
			require.Equal(t, key.Thumbprint(), p.JKT)
			resp.TokenType = "DPoP"
		}
		if r.PostForm.Get("grant_type") == "refresh_token" {
			if r.PostForm.Get("refresh_token") != "rt" {
				ErrInvalidGrant.WriteError(w)
				return
			}
			resp.RefreshToken = "rt2"
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	srvURL = srv.URL

	t.Run("public client sends client_id", func(t *testing.T) {
		resp, err := NewSDKClient(srv.URL, "spa").ExchangeCode(t.Context(), "code", "", "verifier")
		require.NoError(t, err)
		require.Equal(t, "Bearer", resp.TokenType)
	})

	t.Run("confidential client uses basic", func(t *testing.T) {
		resp, err := NewSDKClient(srv.URL, "backend").WithSecret("s&cret").PasswordGrant(t.Context(), "alice", "pw", []string{"openid"})
		require.NoError(t, err)
		require.Equal(t, "at", resp.AccessToken)
	})

	t.Run("dpop proof", func(t *testing.T) {
		resp, err := NewSDKClient(srv.URL, "spa").WithDPoP(key).RefreshGrant(t.Context(), "rt")
		require.NoError(t, err)
		require.Equal(t, "DPoP", resp.TokenType)
		require.Equal(t, "rt2", resp.RefreshToken)
	})

	t.Run("error response", func(t *testing.T) {
		_, err := NewSDKClient(srv.URL, "spa").RefreshGrant(t.Context(), "stale")
		var oerr *OAuth2Error
		require.True(t, errors.As(err, &oerr))
		require.Equal(t, ErrorCodeInvalidGrant, oerr.Code)
	})
}

func TestSession_RefreshesExpiredToken(t *testing.T) {
	t.Parallel()

	var refreshes atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		refreshes.Add(1)
		_ = json.NewEncoder(w).Encode(TokenResponse{AccessToken: "fresh", TokenType: "Bearer", ExpiresIn: 3600, RefreshToken: "rt2"})
	})
	mux.HandleFunc("GET /v1/userinfo", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer fresh" {
			w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(UserInfoResponse{Sub: "sub-1"})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	// ExpiresIn of zero puts the token behind the refresh buffer.
	session := NewSDKClient(srv.URL, "spa").NewSession(&TokenResponse{
		AccessToken:  "stale",
		TokenType:    "Bearer",
		RefreshToken: "rt",
	})

	info, err := session.GetUserInfo(t.Context())
	require.NoError(t, err)
	require.Equal(t, "sub-1", info.Sub)
	require.Equal(t, int32(1), refreshes.Load())
	require.Equal(t, "rt2", session.RefreshToken())

	_, err = session.GetUserInfo(t.Context())
	require.NoError(t, err)
	require.Equal(t, int32(1), refreshes.Load())

	t.Run("concurrent callers share one refresh", func(t *testing.T) {
		refreshes.Store(0)
		session := NewSDKClient(srv.URL, "spa").NewSession(&TokenResponse{
			AccessToken:  "stale",
			TokenType:    "Bearer",
			RefreshToken: "rt",
		})

		var wg sync.WaitGroup
		for range 8 {
			wg.Go(func() {
				_, err := session.GetUserInfo(t.Context())
				assert.NoError(t, err)
			})
		}
		wg.Wait()
		require.Equal(t, int32(1), refreshes.Load())
		require.Equal(t, "fresh", session.AccessToken())
	})

	t.Run("no refresh token", func(t *testing.T) {
		session := NewSDKClient(srv.URL, "spa").NewSession(&TokenResponse{AccessToken: "stale", TokenType: "Bearer"})
		_, err := session.GetUserInfo(t.Context())
		require.ErrorIs(t, err, ErrNoRefreshToken)
	})
}

func TestParseErrorResponse_Challenge(t *testing.T) {
	t.Parallel()

	resp := &http.Response{
		StatusCode: http.StatusUnauthorized,
		Header:     http.Header{"Www-Authenticate": {`DPoP error="invalid_dpop_proof", algs="ES256"`}},
	}
	err := parseErrorResponse(resp, nil)

	var oerr *OAuth2Error
	require.True(t, errors.As(err, &oerr))
	require.Equal(t, ErrorCodeInvalidDPoPProof, oerr.Code)
}

func TestOAuth2Error_Is(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("refresh: %w", NewOAuth2Error(http.StatusBadRequest, ErrorCodeInvalidGrant, "refresh token reused"))
	require.ErrorIs(t, err, ErrInvalidGrant)
	require.NotErrorIs(t, err, ErrInvalidClient)
	require.Equal(t, "refresh: invalid_grant: refresh token reused", err.Error())
	require.Equal(t, "invalid_token", (&OAuth2Error{Code: ErrorCodeInvalidToken}).Error())
}

func TestParseErrorResponse_ChallengeDescription(t *testing.T) {
	t.Parallel()

	resp := &http.Response{
		StatusCode: http.StatusForbidden,
		Header: http.Header{"Www-Authenticate": {
			`Bearer error="insufficient_scope", error_description="admin scope required", scope="admin"`,
		}},
	}
	err := parseErrorResponse(resp, []byte("not json"))
	require.ErrorIs(t, err, ErrInsufficientScope)

	var oerr *OAuth2Error
	require.True(t, errors.As(err, &oerr))
	require.Equal(t, http.StatusForbidden, oerr.StatusCode)
	require.Equal(t, "admin scope required", oerr.Description)
}

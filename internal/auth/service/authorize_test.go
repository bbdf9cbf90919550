package service

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/aussiebroadwan/tokend/internal/auth/domain"
	"github.com/aussiebroadwan/tokend/internal/auth/store"
	"github.com/stretchr/testify/require"
)

func newAuthorizeService(f *fixture) *AuthorizeService {
	return &AuthorizeService{Store: f.store, Issuer: testIssuer, Now: f.clock.Now}
}

func authorizeRequest(client domain.Client) AuthorizeRequest {
	return AuthorizeRequest{
		ResponseType:  "code",
		ClientID:      client.ID,
		RedirectURI:   testRedirect,
		Scope:         "openid offline_access",
		State:         "xyz",
		Nonce:         "n-0S6_WzA2Mj",
		CodeChallenge: s256(testVerifier),
		Username:      "alice",
		Password:      "correct horse",
	}
}

func TestValidateRequest(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*AuthorizeRequest)
		wantErr error
	}{
		{"missing client", func(r *AuthorizeRequest) { r.ClientID = "" }, ErrInvalidRequest},
		{"unknown client", func(r *AuthorizeRequest) { r.ClientID = "nobody" }, ErrInvalidClient},
		{"implicit flow", func(r *AuthorizeRequest) { r.ResponseType = "token" }, ErrInvalidRequest},
		{"unregistered response type", func(r *AuthorizeRequest) { r.ResponseType = "code id_token" }, ErrUnauthorizedClient},
		{"unregistered redirect", func(r *AuthorizeRequest) { r.RedirectURI = "https://evil.example/cb" }, ErrInvalidRequest},
		{"missing challenge", func(r *AuthorizeRequest) { r.CodeChallenge = "" }, ErrInvalidRequest},
		{"unknown challenge method", func(r *AuthorizeRequest) { r.CodeChallengeMethod = "S512" }, ErrInvalidRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := newFixture(t)
			svc := newAuthorizeService(f)

			req := authorizeRequest(f.public)
			tt.mutate(&req)
			_, _, err := svc.ValidateRequest(context.Background(), req)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestValidateRequestClientRegistration(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	svc := newAuthorizeService(f)
	ctx := context.Background()

	// Several redirect URIs are registered, so one must be named.
	req := authorizeRequest(f.confidential)
	req.RedirectURI = ""
	_, _, err := svc.ValidateRequest(ctx, req)
	require.ErrorIs(t, err, ErrInvalidRequest)

	scoped := f.confidential.Metadata
	scoped.Scope = "openid"
	require.NoError(t, f.store.Clients().UpdateClientMetadata(ctx, f.confidential.ID, scoped))
	_, _, err = svc.ValidateRequest(ctx, authorizeRequest(f.confidential))
	require.ErrorIs(t, err, ErrInvalidScope)

	passwordOnly := f.confidential.Metadata
	passwordOnly.GrantTypes = []string{domain.GrantPassword}
	require.NoError(t, f.store.Clients().UpdateClientMetadata(ctx, f.confidential.ID, passwordOnly))
	_, _, err = svc.ValidateRequest(ctx, authorizeRequest(f.confidential))
	require.ErrorIs(t, err, ErrUnauthorizedClient)
}

func TestValidateRequestNormalizesParameters(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	svc := newAuthorizeService(f)

	req := authorizeRequest(f.public)
	req.RedirectURI = ""
	req.Scope = "  openid   offline_access "
	req.DPoPJKT = " jkt-a "

	_, params, err := svc.ValidateRequest(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, testRedirect, params.RedirectURI)
	require.Equal(t, "openid offline_access", params.Scope)
	require.Equal(t, PKCEMethodS256, params.CodeChallengeMethod)
	require.Equal(t, "jkt-a", params.DPoPJKT)
}

func TestAuthorizeLogin(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		username string
		password string
		wantErr  error
	}{
		{"no credentials", "", "", ErrLoginRequired},
		{"unknown username", "mallory", "correct horse", ErrInvalidCredentials},
		{"bad password", "alice", "wrong", ErrInvalidCredentials},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := newFixture(t)

			req := authorizeRequest(f.public)
			req.Username = tt.username
			req.Password = tt.password
			_, err := newAuthorizeService(f).Authorize(context.Background(), req)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestAuthorizeIssuesCode(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	svc := newAuthorizeService(f)
	ctx := context.Background()

	req := authorizeRequest(f.public)
	req.Remember = true
	req.UserAgent = "test-agent"
	resp, err := svc.Authorize(ctx, req)
	require.NoError(t, err)
	require.True(t, domain.IsCode(string(resp.Code)))
	require.True(t, domain.IsDeviceID(string(resp.DeviceID)))
	require.NotEqual(t, f.device.DeviceID, resp.DeviceID)

	redirect, err := url.Parse(resp.RedirectURL)
	require.NoError(t, err)
	require.Equal(t, "app.example", redirect.Host)
	require.Equal(t, string(resp.Code), redirect.Query().Get("code"))
	require.Equal(t, "xyz", redirect.Query().Get("state"))
	require.Equal(t, testIssuer, redirect.Query().Get("iss"))

	info, err := f.store.Devices().GetDeviceAccount(ctx, resp.DeviceID, f.account.Sub)
	require.NoError(t, err)
	require.True(t, info.IsClientAuthorized(f.public.ID))
	require.True(t, info.Remember)

	pending, err := f.store.Requests().ConsumeRequestByCode(ctx, resp.Code)
	require.NoError(t, err)
	require.Equal(t, f.public.ID, pending.ClientID)
	require.Equal(t, f.account.Sub, pending.Sub)
	require.Equal(t, resp.DeviceID, pending.DeviceID)
	require.Equal(t, "openid offline_access", pending.Parameters.Scope)
	require.Equal(t, f.clock.Now().Add(5*time.Minute).Unix(), pending.ExpiresAt.Unix())

	_, err = f.store.Requests().ConsumeRequestByCode(ctx, resp.Code)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestAuthorizeReusesDeviceSession(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	// Withdraw the client, then log in again through it on the same device.
	svc := &AccountService{Store: f.store}
	require.NoError(t, svc.RevokeClientAuthorization(ctx, f.device.DeviceID, f.account.Sub, f.public.ID))

	req := authorizeRequest(f.public)
	req.DeviceID = f.device.DeviceID
	resp, err := newAuthorizeService(f).Authorize(ctx, req)
	require.NoError(t, err)
	require.Equal(t, f.device.DeviceID, resp.DeviceID)

	info, err := f.store.Devices().GetDeviceAccount(ctx, f.device.DeviceID, f.account.Sub)
	require.NoError(t, err)
	require.ElementsMatch(t, []string{f.public.ID, f.confidential.ID}, info.AuthorizedClients)
	require.False(t, info.Remember)
}

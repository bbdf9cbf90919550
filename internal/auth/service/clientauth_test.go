package service

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/json"
	"testing"
	"time"

	"github.com/aussiebroadwan/tokend/internal/auth/domain"
	"github.com/aussiebroadwan/tokend/pkg/dpopx"
	"github.com/go-jose/go-jose/v4"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

type assertionClient struct {
	client domain.Client
	key    *ecdsa.PrivateKey
	jkt    string
}

func newAssertionClient(t *testing.T, f *fixture) assertionClient {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	jwks, err := json.Marshal(jose.JSONWebKeySet{Keys: []jose.JSONWebKey{{
		Key:       &key.PublicKey,
		KeyID:     "k1",
		Algorithm: string(jose.ES256),
		Use:       "sig",
	}}})
	require.NoError(t, err)

	client := domain.Client{
		ID:   "client-pkjwt",
		Name: "Service",
		Metadata: domain.ClientMetadata{
			RedirectURIs:            []string{testRedirect},
			GrantTypes:              []string{domain.GrantAuthorizationCode, domain.GrantRefreshToken},
			ResponseTypes:           []string{"code"},
			TokenEndpointAuthMethod: domain.AuthMethodPrivateKeyJWT,
			JWKS:                    jwks,
		},
		CreatedAt: f.clock.Now(),
		UpdatedAt: f.clock.Now(),
	}
	require.NoError(t, f.store.Clients().CreateClient(context.Background(), client))

	jkt, err := dpopx.Thumbprint(&jose.JSONWebKey{Key: &key.PublicKey})
	require.NoError(t, err)
	return assertionClient{client: client, key: key, jkt: jkt}
}

func (c assertionClient) sign(t *testing.T, mutate func(*jwt.RegisteredClaims)) string {
	t.Helper()

	jti, err := domain.NewTokenID()
	require.NoError(t, err)
	claims := jwt.RegisteredClaims{
		Issuer:    c.client.ID,
		Subject:   c.client.ID,
		Audience:  jwt.ClaimStrings{testIssuer},
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ID:        string(jti),
	}
	if mutate != nil {
		mutate(&claims)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodES256, claims)
	token.Header["kid"] = "k1"
	s, err := token.SignedString(c.key)
	require.NoError(t, err)
	return s
}

func TestClientAuthenticatorSecrets(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	auth := NewClientAuthenticator(f.store.Clients(), testIssuer)
	ctx := context.Background()

	tests := []struct {
		name       string
		creds      ClientCredentials
		wantMethod string
		wantErr    error
	}{
		{
			name:       "public client",
			creds:      ClientCredentials{ClientID: f.public.ID},
			wantMethod: domain.AuthMethodNone,
		},
		{
			name:       "basic secret",
			creds:      ClientCredentials{ClientID: f.confidential.ID, Secret: f.secret, Basic: true},
			wantMethod: domain.AuthMethodClientSecretBasic,
		},
		{
			name:    "wrong secret",
			creds:   ClientCredentials{ClientID: f.confidential.ID, Secret: "nope", Basic: true},
			wantErr: ErrInvalidClient,
		},
		{
			name:    "secret in body for basic client",
			creds:   ClientCredentials{ClientID: f.confidential.ID, Secret: f.secret},
			wantErr: ErrInvalidClient,
		},
		{
			name:    "confidential client without secret",
			creds:   ClientCredentials{ClientID: f.confidential.ID},
			wantErr: ErrInvalidClient,
		},
		{
			name:    "public client presenting a secret",
			creds:   ClientCredentials{ClientID: f.public.ID, Secret: "x", Basic: true},
			wantErr: ErrInvalidClient,
		},
		{
			name:    "unknown client",
			creds:   ClientCredentials{ClientID: "nobody"},
			wantErr: ErrInvalidClient,
		},
		{
			name:    "no client id",
			creds:   ClientCredentials{},
			wantErr: ErrInvalidClient,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, clientAuth, err := auth.Authenticate(ctx, tt.creds)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.creds.ClientID, client.ID)
			require.Equal(t, tt.wantMethod, clientAuth.Method)
			require.True(t, auth.ValidateClientAuth(client, clientAuth))
		})
	}
}

func TestClientAuthenticatorPrivateKeyJWT(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("valid assertion", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		ac := newAssertionClient(t, f)
		auth := NewClientAuthenticator(f.store.Clients(), testIssuer)

		client, clientAuth, err := auth.Authenticate(ctx, ClientCredentials{
			AssertionType: ClientAssertionType,
			Assertion:     ac.sign(t, nil),
		})
		require.NoError(t, err)
		require.Equal(t, ac.client.ID, client.ID)
		require.Equal(t, domain.AuthMethodPrivateKeyJWT, clientAuth.Method)
		require.Equal(t, ac.jkt, clientAuth.JKT)
		require.Equal(t, "k1", clientAuth.KID)
		require.Equal(t, "ES256", clientAuth.Alg)
		require.True(t, auth.ValidateClientAuth(client, clientAuth))
	})

	t.Run("replayed assertion", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		ac := newAssertionClient(t, f)
		auth := NewClientAuthenticator(f.store.Clients(), testIssuer)

		creds := ClientCredentials{ClientID: ac.client.ID, AssertionType: ClientAssertionType, Assertion: ac.sign(t, nil)}
		_, _, err := auth.Authenticate(ctx, creds)
		require.NoError(t, err)
		_, _, err = auth.Authenticate(ctx, creds)
		require.ErrorIs(t, err, ErrInvalidClient)
	})

	rejections := []struct {
		name   string
		mutate func(*jwt.RegisteredClaims)
	}{
		{"wrong audience", func(c *jwt.RegisteredClaims) { c.Audience = jwt.ClaimStrings{"https://other.example"} }},
		{"missing jti", func(c *jwt.RegisteredClaims) { c.ID = "" }},
		{"expired", func(c *jwt.RegisteredClaims) { c.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute)) }},
		{"missing exp", func(c *jwt.RegisteredClaims) { c.ExpiresAt = nil }},
		{"wrong issuer", func(c *jwt.RegisteredClaims) { c.Issuer = "someone-else" }},
	}
	for _, tt := range rejections {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := newFixture(t)
			ac := newAssertionClient(t, f)
			auth := NewClientAuthenticator(f.store.Clients(), testIssuer)

			_, _, err := auth.Authenticate(ctx, ClientCredentials{
				ClientID:      ac.client.ID,
				AssertionType: ClientAssertionType,
				Assertion:     ac.sign(t, tt.mutate),
			})
			require.ErrorIs(t, err, ErrInvalidClient)
		})
	}

	t.Run("wrong assertion type", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		ac := newAssertionClient(t, f)
		auth := NewClientAuthenticator(f.store.Clients(), testIssuer)

		_, _, err := auth.Authenticate(ctx, ClientCredentials{
			ClientID:      ac.client.ID,
			AssertionType: "urn:example:saml",
			Assertion:     ac.sign(t, nil),
		})
		require.ErrorIs(t, err, ErrInvalidClient)
	})

	t.Run("key removed from registration", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		ac := newAssertionClient(t, f)
		auth := NewClientAuthenticator(f.store.Clients(), testIssuer)

		client, clientAuth, err := auth.Authenticate(ctx, ClientCredentials{
			AssertionType: ClientAssertionType,
			Assertion:     ac.sign(t, nil),
		})
		require.NoError(t, err)

		other, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
		require.NoError(t, err)
		jwks, err := json.Marshal(jose.JSONWebKeySet{Keys: []jose.JSONWebKey{{Key: &other.PublicKey, KeyID: "k2", Algorithm: "ES256"}}})
		require.NoError(t, err)
		client.Metadata.JWKS = jwks

		require.False(t, auth.ValidateClientAuth(client, clientAuth))
	})
}

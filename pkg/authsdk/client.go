package authsdk

import (
	"context"
	"net/http"
	"strings"
	"time"
)

// SDKClient talks to a tokend server on behalf of one OAuth2 client.
// Token, introspection and revocation requests authenticate with ClientID
// and, when set, ClientSecret over HTTP Basic.
type SDKClient struct {
	BaseURL    string
	HTTPClient *http.Client

	ClientID     string
	ClientSecret string

	// DPoP, when set, attaches a proof to token requests so the issued
	// access tokens are bound to the key.
	DPoP *DPoPKey
}

// NewSDKClient creates a client for the public client clientID.
func NewSDKClient(baseURL, clientID string) *SDKClient {
	return &SDKClient{
		BaseURL:  strings.TrimSuffix(baseURL, "/"),
		ClientID: clientID,
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// WithSecret returns a copy of c that authenticates with clientSecret.
func (c *SDKClient) WithSecret(clientSecret string) *SDKClient {
	cp := *c
	cp.ClientSecret = clientSecret
	return &cp
}

// WithDPoP returns a copy of c that binds tokens to key.
func (c *SDKClient) WithDPoP(key *DPoPKey) *SDKClient {
	cp := *c
	cp.DPoP = key
	return &cp
}

// AuthenticateWithPassword runs the password grant and wraps the result in
// a Session. The server must have the grant enabled.
func (c *SDKClient) AuthenticateWithPassword(
	ctx context.Context,
	username, password string,
	scopes []string,
) (*Session, error) {
	tokenResp, err := c.PasswordGrant(ctx, username, password, scopes)
	if err != nil {
		return nil, err
	}

	return newSession(c, tokenResp), nil
}

// AuthenticateWithRefreshToken creates a session from an existing refresh token.
func (c *SDKClient) AuthenticateWithRefreshToken(ctx context.Context, refreshToken string) (*Session, error) {
	tokenResp, err := c.RefreshGrant(ctx, refreshToken)
	if err != nil {
		return nil, err
	}

	return newSession(c, tokenResp), nil
}

// NewSession wraps a token response obtained elsewhere, for example from
// ExchangeCode.
func (c *SDKClient) NewSession(tokenResp *TokenResponse) *Session {
	return newSession(c, tokenResp)
}

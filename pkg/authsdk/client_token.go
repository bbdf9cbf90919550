package authsdk

import (
	"context"
	"net/http"
	"net/url"
	"strings"
)

// ExchangeCode redeems an authorization code (RFC 6749 section 4.1.3).
// verifier is the PKCE verifier matching the challenge sent to authorize.
func (c *SDKClient) ExchangeCode(ctx context.Context, code, redirectURI, verifier string) (*TokenResponse, error) {
	data := url.Values{
		"grant_type":    {"authorization_code"},
		"code":          {code},
		"code_verifier": {verifier},
	}
	if redirectURI != "" {
		data.Set("redirect_uri", redirectURI)
	}

	return c.requestToken(ctx, data)
}

// RefreshGrant rotates a refresh token. The returned refresh token replaces
// the old one, which must not be used again.
func (c *SDKClient) RefreshGrant(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	data := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
	}

	return c.requestToken(ctx, data)
}

// PasswordGrant requests tokens with the resource owner's credentials.
func (c *SDKClient) PasswordGrant(
	ctx context.Context,
	username, password string,
	scopes []string,
) (*TokenResponse, error) {
	data := url.Values{
		"grant_type": {"password"},
		"username":   {username},
		"password":   {password},
	}
	if len(scopes) > 0 {
		data.Set("scope", strings.Join(scopes, " "))
	}

	return c.requestToken(ctx, data)
}

// RevokeToken revokes the grant behind token (RFC 7009). The server answers
// 200 for unknown tokens too.
func (c *SDKClient) RevokeToken(ctx context.Context, token string) error {
	return expectStatus(http.StatusOK)(c.postClientForm(ctx, "/v1/oauth2/revoke", url.Values{"token": {token}}, false))
}

// Introspect asks the server about a token issued to this client
// (RFC 7662). Public clients are refused.
func (c *SDKClient) Introspect(ctx context.Context, token string) (*IntrospectionResponse, error) {
	return expect[IntrospectionResponse](http.StatusOK)(c.postClientForm(ctx, "/v1/oauth2/introspect", url.Values{"token": {token}}, false))
}

func (c *SDKClient) requestToken(ctx context.Context, form url.Values) (*TokenResponse, error) {
	return expect[TokenResponse](http.StatusOK)(c.postClientForm(ctx, "/v1/oauth2/token", form, true))
}

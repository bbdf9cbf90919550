package authsdk

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// AuthorizeRequest describes an authorization code request.
type AuthorizeRequest struct {
	// RedirectURI may be empty when the client registered exactly one.
	RedirectURI string
	Scopes      []string
	State       string
	Nonce       string
	PKCE        PKCEChallenge
}

// AuthorizeResult is the callback of a successful authorization.
type AuthorizeResult struct {
	Code  string
	State string
	// Iss is the issuer identifier (RFC 9207); callers compare it with the
	// issuer they sent the user to.
	Iss string
}

func (c *SDKClient) authorizeParams(req AuthorizeRequest) url.Values {
	params := url.Values{}
	params.Set("response_type", "code")
	params.Set("client_id", c.ClientID)
	if req.RedirectURI != "" {
		params.Set("redirect_uri", req.RedirectURI)
	}
	if req.State != "" {
		params.Set("state", req.State)
	}
	if req.Nonce != "" {
		params.Set("nonce", req.Nonce)
	}
	if len(req.Scopes) > 0 {
		params.Set("scope", strings.Join(req.Scopes, " "))
	}
	if req.PKCE.Challenge != "" {
		params.Set("code_challenge", req.PKCE.Challenge)
		params.Set("code_challenge_method", req.PKCE.Method)
	}
	if c.DPoP != nil {
		params.Set("dpop_jkt", c.DPoP.Thumbprint())
	}
	return params
}

// BuildAuthorizeURL constructs the URL to send the user's browser to.
//
// Example:
//
//	pkce := authsdk.NewPKCEChallenge()
//	u := client.BuildAuthorizeURL(authsdk.AuthorizeRequest{
//		RedirectURI: "https://app.example/callback",
//		Scopes:      []string{"openid", "offline_access"},
//		State:       state,
//		PKCE:        pkce,
//	})
func (c *SDKClient) BuildAuthorizeURL(req AuthorizeRequest) string {
	return fmt.Sprintf("%s/v1/oauth2/authorize?%s", c.BaseURL, c.authorizeParams(req).Encode())
}

// AuthorizeWithPassword posts the user's credentials to the authorization
// endpoint and returns the code from the redirect. When remember is set the
// server keeps the device session; HTTPClient needs a cookie jar for later
// requests to reuse it.
//
// Errors the server redirects back are returned as *OAuth2Error.
func (c *SDKClient) AuthorizeWithPassword(
	ctx context.Context,
	req AuthorizeRequest,
	username, password string,
	remember bool,
) (*AuthorizeResult, error) {
	data := c.authorizeParams(req)
	data.Set("username", username)
	data.Set("password", password)
	if remember {
		data.Set("remember", "true")
	}

	httpReq, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		c.url("/v1/oauth2/authorize"),
		strings.NewReader(data.Encode()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	noRedirect := *c.HTTPClient
	noRedirect.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}

	resp, err := noRedirect.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusFound {
		return nil, parseErrorResponse(resp, bodyBytes)
	}

	location, err := url.Parse(resp.Header.Get("Location"))
	if err != nil {
		return nil, fmt.Errorf("failed to parse redirect URL: %w", err)
	}
	return parseCallback(location.Query(), resp.StatusCode)
}

// parseCallback extracts the code or the error from redirect parameters.
func parseCallback(q url.Values, status int) (*AuthorizeResult, error) {
	if code := q.Get("error"); code != "" {
		return nil, &OAuth2Error{
			StatusCode:  status,
			Code:        code,
			Description: q.Get("error_description"),
		}
	}

	code := q.Get("code")
	if code == "" {
		return nil, fmt.Errorf("redirect missing authorization code")
	}
	return &AuthorizeResult{
		Code:  code,
		State: q.Get("state"),
		Iss:   q.Get("iss"),
	}, nil
}

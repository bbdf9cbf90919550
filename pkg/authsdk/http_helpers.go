package authsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// maxResponseBody bounds what the SDK reads from the server.
const maxResponseBody = 1 << 20

func (c *SDKClient) url(path string) string {
	return c.BaseURL + path
}

func (c *SDKClient) get(ctx context.Context, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url(path), nil)
	if err != nil {
		return nil, fmt.Errorf("authsdk: build request: %w", err)
	}
	return c.send(req)
}

func (c *SDKClient) send(req *http.Request) (*http.Response, error) {
	req.Header.Set("Accept", "application/json")
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("authsdk: %s %s: %w", req.Method, req.URL.Path, err)
	}
	return resp, nil
}

// postClientForm posts a form to an endpoint that authenticates the
// client: HTTP Basic when a secret is configured, client_id otherwise
// (RFC 6749 section 2.3.1). A DPoP proof is attached when dpop is set and
// the client holds a key.
func (c *SDKClient) postClientForm(ctx context.Context, path string, form url.Values, dpop bool) (*http.Response, error) {
	if c.ClientSecret == "" {
		form.Set("client_id", c.ClientID)
	}

	target := c.url(path)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("authsdk: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if c.ClientSecret != "" {
		req.SetBasicAuth(url.QueryEscape(c.ClientID), url.QueryEscape(c.ClientSecret))
	}
	if dpop && c.DPoP != nil {
		proof, err := c.DPoP.Proof(http.MethodPost, target, "")
		if err != nil {
			return nil, err
		}
		req.Header.Set("DPoP", proof)
	}
	return c.send(req)
}

// doAuthRequest sends payload, JSON encoded unless nil, with the session's
// access token. An expired token is refreshed first. DPoP bound tokens get
// a fresh proof per request.
func (s *Session) doAuthRequest(ctx context.Context, method, path string, payload any) (*http.Response, error) {
	g, err := s.validGrant(ctx)
	if err != nil {
		return nil, err
	}

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("authsdk: encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	target := s.client.url(path)
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("authsdk: build request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if strings.EqualFold(g.TokenType, "DPoP") && s.client.DPoP != nil {
		proof, err := s.client.DPoP.Proof(method, target, g.AccessToken)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "DPoP "+g.AccessToken)
		req.Header.Set("DPoP", proof)
	} else {
		req.Header.Set("Authorization", "Bearer "+g.AccessToken)
	}
	return s.client.send(req)
}

// expect adapts a request result into a decoded *T, treating any status
// but want as an error:
//
//	return expect[TokenResponse](http.StatusOK)(c.postClientForm(...))
func expect[T any](want int) func(*http.Response, error) (*T, error) {
	return func(resp *http.Response, err error) (*T, error) {
		if err != nil {
			return nil, err
		}
		out := new(T)
		if err := decodeJSON(resp, out, want); err != nil {
			return nil, err
		}
		return out, nil
	}
}

// expectStatus is expect for responses without a body worth decoding.
func expectStatus(want int) func(*http.Response, error) error {
	return func(resp *http.Response, err error) error {
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode != want {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
			return parseErrorResponse(resp, body)
		}
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBody))
		return nil
	}
}

// decodeJSON decodes a response of status want into target. Other statuses
// become an *OAuth2Error.
func decodeJSON(resp *http.Response, target any, want int) error {
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return fmt.Errorf("authsdk: read response: %w", err)
	}
	if resp.StatusCode != want {
		return parseErrorResponse(resp, body)
	}
	if err := json.Unmarshal(body, target); err != nil {
		return fmt.Errorf("authsdk: decode response: %w", err)
	}
	return nil
}

package authsdk

import (
	"context"
	"net/http"
	"net/url"
)

// Admin operations require an access token carrying the admin scope.

// CreateClient registers a client. The secret in the response is shown
// once; only its hash is stored.
func (s *Session) CreateClient(ctx context.Context, req CreateClientRequest) (*CreateClientResponse, error) {
	return expect[CreateClientResponse](http.StatusCreated)(s.doAuthRequest(ctx, http.MethodPost, "/v1/clients", req))
}

func (s *Session) ListClients(ctx context.Context) (*ListClientsResponse, error) {
	return expect[ListClientsResponse](http.StatusOK)(s.doAuthRequest(ctx, http.MethodGet, "/v1/clients", nil))
}

// DeleteClient removes a client and its grants. Protected clients are refused.
func (s *Session) DeleteClient(ctx context.Context, clientID string) error {
	return expectStatus(http.StatusNoContent)(s.doAuthRequest(ctx, http.MethodDelete, "/v1/clients/"+url.PathEscape(clientID), nil))
}

// RotateKey adds a signing key, optionally retiring the current ones.
func (s *Session) RotateKey(ctx context.Context, req RotateKeyRequest) (*RotateKeyResponse, error) {
	return expect[RotateKeyResponse](http.StatusOK)(s.doAuthRequest(ctx, http.MethodPost, "/v1/keys/rotate", req))
}

func (s *Session) ListKeys(ctx context.Context) ([]SigningKeyInfo, error) {
	keys, err := expect[[]SigningKeyInfo](http.StatusOK)(s.doAuthRequest(ctx, http.MethodGet, "/v1/keys", nil))
	if err != nil {
		return nil, err
	}
	return *keys, nil
}

// RetireKey stops kid from signing. It keeps verifying for the server's
// grace period.
func (s *Session) RetireKey(ctx context.Context, kid string) error {
	return expectStatus(http.StatusNoContent)(s.doAuthRequest(ctx, http.MethodPost, "/v1/keys/"+url.PathEscape(kid)+"/retire", nil))
}

package authsdk

import (
	"context"
	"net/http"
)

// GetProviderMetadata fetches the OpenID Connect discovery document.
func (c *SDKClient) GetProviderMetadata(ctx context.Context) (*ProviderMetadata, error) {
	return expect[ProviderMetadata](http.StatusOK)(c.get(ctx, "/.well-known/openid-configuration"))
}

// GetJWKS fetches the keys that verify access and ID tokens.
func (c *SDKClient) GetJWKS(ctx context.Context) (*JWKSResponse, error) {
	return expect[JWKSResponse](http.StatusOK)(c.get(ctx, "/.well-known/jwks.json"))
}

func (c *SDKClient) GetLiveness(ctx context.Context) (*HealthResponse, error) {
	return expect[HealthResponse](http.StatusOK)(c.get(ctx, "/livez"))
}

// GetReadiness returns an error while the server answers 503.
func (c *SDKClient) GetReadiness(ctx context.Context) (*HealthResponse, error) {
	return expect[HealthResponse](http.StatusOK)(c.get(ctx, "/readyz"))
}

package http

import (
	"net/http"
	"strings"

	"github.com/aussiebroadwan/tokend/internal/auth/domain"
	"github.com/aussiebroadwan/tokend/pkg/authsdk"
	"github.com/aussiebroadwan/tokend/pkg/dpopx"
	"github.com/aussiebroadwan/tokend/pkg/httpx"
)

// Endpoint paths, relative to the issuer.
const (
	pathAuthorize  = "/v1/oauth2/authorize"
	pathToken      = "/v1/oauth2/token"
	pathRevoke     = "/v1/oauth2/revoke"
	pathIntrospect = "/v1/oauth2/introspect"
	pathUserInfo   = "/v1/userinfo"
	pathJWKS       = "/.well-known/jwks.json"
)

// ProviderMetadata builds the discovery document for issuer.
func ProviderMetadata(issuer, algorithm string, passwordGrant bool) authsdk.ProviderMetadata {
	base := strings.TrimRight(issuer, "/")

	grants := []string{domain.GrantAuthorizationCode, domain.GrantRefreshToken}
	if passwordGrant {
		grants = append(grants, domain.GrantPassword)
	}

	return authsdk.ProviderMetadata{
		Issuer:                           issuer,
		AuthorizationEndpoint:            base + pathAuthorize,
		TokenEndpoint:                    base + pathToken,
		RevocationEndpoint:               base + pathRevoke,
		IntrospectionEndpoint:            base + pathIntrospect,
		UserinfoEndpoint:                 base + pathUserInfo,
		JWKSURI:                          base + pathJWKS,
		ResponseTypesSupported:           []string{"code"},
		GrantTypesSupported:              grants,
		SubjectTypesSupported:            []string{"public"},
		IDTokenSigningAlgValuesSupported: []string{algorithm},
		ScopesSupported:                  []string{domain.ScopeOpenID, domain.ScopeOfflineAccess, "profile", "email"},
		TokenEndpointAuthMethodsSupported: []string{
			domain.AuthMethodNone,
			domain.AuthMethodClientSecretBasic,
			domain.AuthMethodClientSecretPost,
			domain.AuthMethodPrivateKeyJWT,
		},
		CodeChallengeMethodsSupported:     []string{"S256", "plain"},
		DPoPSigningAlgValuesSupported:     dpopAlgorithms(),
		AuthorizationResponseIssParameter: true,
	}
}

func dpopAlgorithms() []string {
	out := make([]string, len(dpopx.SupportedAlgorithms))
	for i, alg := range dpopx.SupportedAlgorithms {
		out[i] = string(alg)
	}
	return out
}

// DiscoveryHandler serves the OpenID Provider configuration.
//
//	@Summary		OpenID Provider configuration
//	@Description	Returns the OpenID Connect discovery document (endpoints, supported grants and algorithms).
//	@Tags			well-known
//	@Produce		json
//	@Success		200	{object}	authsdk.ProviderMetadata
//	@Router			/.well-known/openid-configuration [get]
func DiscoveryHandler(meta authsdk.ProviderMetadata) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, meta)
	}
}

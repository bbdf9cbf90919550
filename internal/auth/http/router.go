package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aussiebroadwan/tokend/internal/auth/service"
	"github.com/aussiebroadwan/tokend/internal/auth/store"
	"github.com/aussiebroadwan/tokend/pkg/dpopx"
	"github.com/aussiebroadwan/tokend/pkg/httpx"
	"github.com/aussiebroadwan/tokend/pkg/jwtx"
	"github.com/aussiebroadwan/tokend/pkg/slogx"
	"github.com/prometheus/client_golang/prometheus"

	_ "github.com/aussiebroadwan/tokend/api/auth" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// AdminScope guards the client and key administration endpoints.
const AdminScope = "admin"

// Router wires the services to their routes. Set the exported fields,
// then call ApplyRoutes once before serving.
type Router struct {
	Mux     *http.ServeMux
	handler http.Handler

	keys         *jwtx.KeyManager
	issuer       string
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger
	store        store.Store

	Provider           *service.Provider
	Tokens             *service.TokenManager
	ClientAuth         *service.ClientAuthenticator
	AuthorizeService   *service.AuthorizeService
	ClientService      *service.ClientService
	KeyRotationService *service.KeyRotationService
	DPoP               *dpopx.Verifier

	// TokenStore is checked by /readyz when tokens live outside the database.
	TokenStore Pinger
	// Gatherer backs /metrics. Nil leaves the endpoint unregistered.
	Gatherer prometheus.Gatherer

	PasswordGrant bool
}

func NewRouter(
	keys *jwtx.KeyManager,
	issuer, buildVersion string,
	st store.Store,
	logger *slog.Logger,
) *Router {
	return &Router{
		Mux:          http.NewServeMux(),
		keys:         keys,
		issuer:       issuer,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
	}
}

func (r *Router) ApplyRoutes() {
	r.registerOAuth2()
	r.registerWellKnown()
	r.registerUsers()
	r.registerAdmin()
	r.registerSystem()
	r.Mux.Handle("/swagger/", httpSwagger.Handler())

	r.handler = slogx.HTTPMiddleware(r.logger)(r.Mux)
}

// ServeHTTP logs every request and dispatches it through Mux.
//
//	@title			tokend API
//	@version		0.1.0
//	@description	OAuth 2.0 and OpenID Connect token service: authorization code with PKCE, refresh token
//	@description	rotation with replay detection, DPoP bound tokens, revocation and introspection.
//	@description
//	@description				JWTs are signed with the configured algorithm and can be verified using the JWKS endpoint.
//
//	@contact.name				AussieBroadWAN Team
//	@contact.url				https://github.com/aussiebroadwan/tokend
//
//	@license.name				MIT
//	@license.url				https://opensource.org/licenses/MIT
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Access token. Format: "Bearer {token}" or "DPoP {token}" with a DPoP proof header.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.handler.ServeHTTP(w, req)
}

// authn verifies access tokens through the token manager, which handles both
// opaque and JWT access tokens.
func (r *Router) authn() httpx.Middleware {
	return httpx.AuthnMiddleware(httpx.AuthnOptions{
		Authenticate: func(ctx context.Context, tokenType, token, dpopJKT string) (*jwtx.AccessClaims, error) {
			return r.Tokens.AuthenticateAccessToken(ctx, tokenType, token, dpopJKT, service.VerifyOptions{})
		},
		DPoP:    r.DPoP,
		BaseURL: r.issuer,
	})
}

func (r *Router) registerOAuth2() {
	authorizeHandler := &AuthorizeHandler{
		AuthorizeService: r.AuthorizeService,
		Issuer:           r.issuer,
		SecureCookies:    strings.HasPrefix(r.issuer, "https://"),
	}

	// GET /authorize - lenient rate limit (validation only)
	r.Mux.Handle("GET "+pathAuthorize,
		httpx.Chain(http.HandlerFunc(authorizeHandler.HandleGet),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)

	// POST /authorize - strict rate limit by IP + username against brute force
	r.Mux.Handle("POST "+pathAuthorize,
		httpx.Chain(http.HandlerFunc(authorizeHandler.HandlePost),
			httpx.RateLimitByIPAndFormField(httpx.StrictLimit, "username"),
		),
	)

	// POST /token - strict rate limit per IP and client (covers all grant types)
	r.Mux.Handle("POST "+pathToken,
		httpx.Chain(&TokenHandler{Provider: r.Provider},
			httpx.RateLimitByClient(httpx.StrictLimit),
		),
	)

	r.Mux.Handle("POST "+pathRevoke,
		httpx.Chain(&RevokeHandler{Clients: r.ClientAuth, Tokens: r.Tokens},
			httpx.RateLimitByClient(httpx.ModerateLimit),
		),
	)

	// Introspection (RFC 7662) authenticates the client itself.
	r.Mux.Handle("POST "+pathIntrospect,
		httpx.Chain(&IntrospectHandler{Provider: r.Provider},
			httpx.RateLimitByClient(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerWellKnown() {
	r.Mux.Handle("GET "+pathJWKS,
		httpx.Chain(JWKSHandler(r.keys.KeySet),
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)

	meta := ProviderMetadata(r.issuer, r.keys.Algorithm(), r.PasswordGrant)
	r.Mux.Handle("GET /.well-known/openid-configuration",
		httpx.Chain(DiscoveryHandler(meta),
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)
}

func (r *Router) registerUsers() {
	h := &UserInfoHandler{Accounts: r.store.Accounts()}

	r.Mux.Handle("GET "+pathUserInfo,
		httpx.Chain(h,
			r.authn(),
			httpx.RateLimitBySubject(httpx.LenientLimit),
		),
	)
}

// registerAdmin mounts client and signing key administration. The routes
// share one limiter so a caller's budget spans all of them.
func (r *Router) registerAdmin() {
	limit := httpx.RateLimitBySubject(httpx.ModerateLimit)
	admin := func(fn http.HandlerFunc) http.Handler {
		return httpx.Chain(fn, r.authn(), httpx.RequireScopes(AdminScope), limit)
	}

	clients := &ClientsHandler{ClientService: r.ClientService}
	r.Mux.Handle("POST /v1/clients", admin(clients.HandleCreate))
	r.Mux.Handle("GET /v1/clients", admin(clients.HandleList))
	r.Mux.Handle("DELETE /v1/clients/{id}", admin(clients.HandleDelete))

	keys := &KeyRotationHandler{KeyRotationService: r.KeyRotationService}
	r.Mux.Handle("POST /v1/keys/rotate", admin(keys.HandleRotate))
	r.Mux.Handle("GET /v1/keys", admin(keys.HandleListKeys))
	r.Mux.Handle("POST /v1/keys/{kid}/retire", admin(keys.HandleRetireKey))
}

func (r *Router) registerSystem() {
	health := &HealthHandler{
		Started: r.startTime,
		Version: r.buildVersion,
		DB:      r.store,
		Tokens:  r.TokenStore,
		Keys:    r.keys,
	}

	// Probes and scrapes are polled often.
	limit := httpx.RateLimitByIP(httpx.LenientLimit)
	r.Mux.Handle("GET /livez", httpx.Chain(http.HandlerFunc(health.HandleLivez), limit))
	r.Mux.Handle("GET /readyz", httpx.Chain(http.HandlerFunc(health.HandleReadyz), limit))
	if r.Gatherer != nil {
		r.Mux.Handle("GET /metrics", httpx.Chain(MetricsHandler(r.Gatherer), limit))
	}
}

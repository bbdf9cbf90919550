package auth_test

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aussiebroadwan/tokend/internal/auth/app"
	"github.com/aussiebroadwan/tokend/internal/auth/domain"
	"github.com/aussiebroadwan/tokend/internal/auth/service"
	"github.com/aussiebroadwan/tokend/pkg/authsdk"
	"github.com/aussiebroadwan/tokend/pkg/httpx"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

/*
 * End-to-end tests run the full application in-process against real
 * stores: SQLite files on disk and, for the Redis token store, a Redis
 * container started with testcontainers.
 */

const (
	redirectURI = "https://app.example/cb"
	username    = "alice"
	password    = "correct horse battery staple"
	email       = "alice@example.com"
	resourceAud = "https://rs.example"
)

var pepperFile string

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "tokend-e2e")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create temp dir: %v\n", err)
		os.Exit(1)
	}
	pepperFile = filepath.Join(dir, "pepper")

	// The suite issues far more token requests than the production limits allow.
	relaxed := httpx.RateLimitConfig{RequestsPerWindow: 10000, Window: time.Minute, Burst: 10000}
	httpx.StrictLimit = relaxed
	httpx.ModerateLimit = relaxed

	code := m.Run()
	_ = os.RemoveAll(dir)
	os.Exit(code)
}

// testEnv is a running tokend instance with seeded clients and one account.
type testEnv struct {
	BaseURL string
	Issuer  string

	SPAClientID     string
	BackendClientID string
	BackendSecret   string
	DPoPClientID    string
	DPoPSecret      string
	AccountSub      string

	dbFile string
	stop   func()
}

// Stop shuts the instance down before the test ends.
func (e *testEnv) Stop() { e.stop() }

// spa returns an SDK client for the public browser client. It keeps cookies
// so the device session survives between authorize requests.
func (e *testEnv) spa(t *testing.T) *authsdk.SDKClient {
	t.Helper()
	c := authsdk.NewSDKClient(e.BaseURL, e.SPAClientID)
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	c.HTTPClient.Jar = jar
	return c
}

func (e *testEnv) backend() *authsdk.SDKClient {
	return authsdk.NewSDKClient(e.BaseURL, e.BackendClientID).WithSecret(e.BackendSecret)
}

func (e *testEnv) dpopBackend(key *authsdk.DPoPKey) *authsdk.SDKClient {
	return authsdk.NewSDKClient(e.BaseURL, e.DPoPClientID).WithSecret(e.DPoPSecret).WithDPoP(key)
}

// newConfig builds a configuration on top of the defaults. The issuer is
// left to the caller.
func newConfig(t *testing.T, dbFile string, overrides map[string]any) app.Config {
	t.Helper()

	v := viper.New()
	app.SetDefaults(v)
	v.Set("AUTH_DATABASE_FILE", dbFile)
	v.Set("AUTH_PEPPER_FILE", pepperFile)
	v.Set("AUTH_NUM_KEYS", 1)
	v.Set("AUTH_ENABLE_PASSWORD_GRANT", true)
	v.Set("AUTH_INTROSPECTION_FLOOR", "0s")
	v.Set("LOG_LEVEL", "error")
	v.Set("ENV", "test")
	for key, value := range overrides {
		v.Set(key, value)
	}

	cfg, err := app.LoadConfig(v)
	require.NoError(t, err)
	return cfg
}

// startServer seeds a fresh database and serves the application on a
// loopback listener. AUTH_ISSUER defaults to the listener URL.
func startServer(t *testing.T, overrides map[string]any) *testEnv {
	t.Helper()

	dbFile := filepath.Join(t.TempDir(), "auth.db")
	env := &testEnv{dbFile: dbFile}

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	env.BaseURL = "http://" + l.Addr().String()

	if overrides == nil {
		overrides = map[string]any{}
	}
	if _, ok := overrides["AUTH_ISSUER"]; !ok {
		overrides["AUTH_ISSUER"] = env.BaseURL
	}
	cfg := newConfig(t, dbFile, overrides)
	env.Issuer = cfg.Issuer

	seed(t, cfg, env)
	env.stop = serve(t, cfg, l)
	return env
}

// restartServer serves a new application instance on the same database.
func restartServer(t *testing.T, env *testEnv, overrides map[string]any) string {
	t.Helper()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	if overrides == nil {
		overrides = map[string]any{}
	}
	overrides["AUTH_ISSUER"] = env.Issuer
	serve(t, newConfig(t, env.dbFile, overrides), l)
	return "http://" + l.Addr().String()
}

// serve runs the application until the test ends and returns a function
// that stops it early.
func serve(t *testing.T, cfg app.Config, l net.Listener) func() {
	t.Helper()

	application, err := app.New(t.Context(), cfg)
	require.NoError(t, err)

	srv := httptest.NewUnstartedServer(application.Handler())
	_ = srv.Listener.Close()
	srv.Listener = l
	srv.Start()

	stopped := false
	stop := func() {
		if stopped {
			return
		}
		stopped = true
		srv.Close()
		require.NoError(t, application.Close())
	}
	t.Cleanup(stop)
	return stop
}

func seed(t *testing.T, cfg app.Config, env *testEnv) {
	t.Helper()
	ctx := t.Context()

	db, err := app.OpenDatabase(cfg, app.NewLogger(cfg))
	require.NoError(t, err)
	defer db.Close()

	clients := &service.ClientService{Store: db}

	spa, _, err := clients.CreateClient(ctx, service.CreateClientRequest{
		Name: "spa",
		Metadata: domain.ClientMetadata{
			RedirectURIs:            []string{redirectURI},
			GrantTypes:              []string{domain.GrantAuthorizationCode, domain.GrantRefreshToken},
			TokenEndpointAuthMethod: domain.AuthMethodNone,
		},
	})
	require.NoError(t, err)
	env.SPAClientID = spa.ID

	backend, secret, err := clients.CreateClient(ctx, service.CreateClientRequest{
		Name: "backend",
		Metadata: domain.ClientMetadata{
			RedirectURIs:            []string{redirectURI},
			GrantTypes:              []string{domain.GrantAuthorizationCode, domain.GrantRefreshToken, domain.GrantPassword},
			TokenEndpointAuthMethod: domain.AuthMethodClientSecretBasic,
		},
		FirstParty: true,
		Protected:  true,
	})
	require.NoError(t, err)
	env.BackendClientID, env.BackendSecret = backend.ID, secret

	bound, boundSecret, err := clients.CreateClient(ctx, service.CreateClientRequest{
		Name: "bound",
		Metadata: domain.ClientMetadata{
			RedirectURIs:            []string{redirectURI},
			GrantTypes:              []string{domain.GrantRefreshToken, domain.GrantPassword},
			TokenEndpointAuthMethod: domain.AuthMethodClientSecretBasic,
			DPoPBoundAccessTokens:   true,
		},
	})
	require.NoError(t, err)
	env.DPoPClientID, env.DPoPSecret = bound.ID, boundSecret

	accounts := &service.AccountService{Store: db}
	account, err := accounts.CreateAccount(ctx, service.CreateAccountRequest{
		Username: username,
		Password: password,
		Email:    email,
		Aud:      resourceAud,
	})
	require.NoError(t, err)
	env.AccountSub = account.Sub
}

// startRedis runs a Redis container for the duration of the test.
func startRedis(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor: wait.ForListeningPort("6379/tcp").
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379/tcp")
	require.NoError(t, err)

	return net.JoinHostPort(host, port.Port())
}

// requireOAuth2Error asserts err is an OAuth2 error with the given code.
func requireOAuth2Error(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)

	var oerr *authsdk.OAuth2Error
	require.ErrorAs(t, err, &oerr)
	require.Equal(t, code, oerr.Code, "unexpected error: %v", err)
}

// bearerGet performs a GET with a plain Bearer token and no DPoP proof.
func bearerGet(t *testing.T, url, token string) *http.Response {
	t.Helper()

	req, err := http.NewRequestWithContext(t.Context(), http.MethodGet, url, nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

package service

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/tokend/internal/auth/domain"
	"github.com/aussiebroadwan/tokend/internal/auth/store/drivers/sqlite"
	"github.com/aussiebroadwan/tokend/pkg/cryptox"
	"github.com/aussiebroadwan/tokend/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

const (
	testIssuer   = "https://issuer.example"
	testAudience = "https://rs.example"
	testVerifier = "dBjftJeZ4CVP-mJ92K9qtOOf-bz0bhsgwP5glvt-JoI"
	testRedirect = "https://app.example/cb"
)

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "tokend-service")
	if err != nil {
		panic(err)
	}
	cryptox.SetPepperPath(filepath.Join(dir, "pepper"))
	if _, err := cryptox.LoadPepper(); err != nil {
		panic(err)
	}

	code := m.Run()
	_ = os.RemoveAll(dir)
	os.Exit(code)
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Now().Truncate(time.Second)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fixture struct {
	store        *sqlite.Store
	manager      *TokenManager
	signer       *KeySigner
	clock        *testClock
	public       domain.Client
	confidential domain.Client
	account      domain.Account
	device       domain.DeviceAccountInfo
	secret       string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	keys, err := jwtx.NewEphemeralKeyManager(jwtx.KeyManagerOptions{
		Algorithm: jwtx.AlgorithmEdDSA,
		Issuer:    testIssuer,
		NumKeys:   1,
	})
	require.NoError(t, err)

	clock := newTestClock()
	now := clock.Now()

	public := domain.Client{
		ID:   "client-public",
		Name: "Public App",
		Metadata: domain.ClientMetadata{
			RedirectURIs:            []string{testRedirect},
			GrantTypes:              []string{domain.GrantAuthorizationCode, domain.GrantRefreshToken, domain.GrantPassword},
			ResponseTypes:           []string{"code"},
			TokenEndpointAuthMethod: domain.AuthMethodNone,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, st.Clients().CreateClient(ctx, public))

	secret := "s3cret-for-tests"
	hash, err := cryptox.HashPassword(secret)
	require.NoError(t, err)
	confidential := domain.Client{
		ID:         "client-confidential",
		Name:       "Backend",
		SecretHash: hash,
		Metadata: domain.ClientMetadata{
			RedirectURIs:            []string{testRedirect, "https://app.example/other"},
			GrantTypes:              []string{domain.GrantAuthorizationCode, domain.GrantRefreshToken, domain.GrantPassword},
			ResponseTypes:           []string{"code"},
			TokenEndpointAuthMethod: domain.AuthMethodClientSecretBasic,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, st.Clients().CreateClient(ctx, confidential))

	pw, err := cryptox.HashPassword("correct horse")
	require.NoError(t, err)
	account := domain.Account{
		Sub:          "acct-1",
		Aud:          testAudience,
		Username:     "alice",
		Email:        "alice@example.com",
		PasswordHash: pw,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, st.Accounts().CreateAccount(ctx, account))

	deviceID := domain.DeviceID("dev-00000000000000000000000000000001")
	require.NoError(t, st.Devices().UpsertDevice(ctx, domain.Device{ID: deviceID, CreatedAt: now, LastSeenAt: now}))
	device := domain.DeviceAccountInfo{
		DeviceID:          deviceID,
		Sub:               account.Sub,
		AuthenticatedAt:   now.Add(-time.Minute),
		AuthorizedClients: []string{public.ID, confidential.ID},
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	require.NoError(t, st.Devices().UpsertDeviceAccount(ctx, device))

	signer := NewKeySigner(keys, testIssuer)
	return &fixture{
		store: st,
		manager: &TokenManager{
			Tokens:    st.Tokens(),
			Signer:    signer,
			Clients:   NewClientAuthenticator(st.Clients(), testIssuer),
			Hooks:     NoopHooks{},
			Lifetimes: DefaultLifetimes(),
			Mode:      AccessTokenAuto,
			Now:       clock.Now,
		},
		signer:       signer,
		clock:        clock,
		public:       public,
		confidential: confidential,
		account:      account,
		device:       device,
		secret:       secret,
	}
}

func s256(verifier string) string {
	sum := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

func noneAuth() domain.ClientAuth  { return domain.ClientAuth{Method: domain.AuthMethodNone} }
func basicAuth() domain.ClientAuth { return domain.ClientAuth{Method: domain.AuthMethodClientSecretBasic} }

// codeInput is a valid authorization_code create for client.
func (f *fixture) codeInput(t *testing.T, client domain.Client, auth domain.ClientAuth, scope string) CreateInput {
	t.Helper()
	code, err := domain.NewCode()
	require.NoError(t, err)

	device := f.device
	return CreateInput{
		Client:     client,
		ClientAuth: auth,
		Account:    f.account,
		Device:     &device,
		Parameters: domain.AuthorizationParameters{
			ClientID:            client.ID,
			ResponseType:        "code",
			RedirectURI:         testRedirect,
			Scope:               scope,
			Nonce:               "n-0S6_WzA2Mj",
			CodeChallenge:       s256(testVerifier),
			CodeChallengeMethod: PKCEMethodS256,
		},
		Grant: GrantInput{
			GrantType:    domain.GrantAuthorizationCode,
			Code:         code,
			CodeVerifier: testVerifier,
			RedirectURI:  testRedirect,
		},
	}
}

// passwordInput is a non-interactive grant with no device session.
func (f *fixture) passwordInput(client domain.Client, auth domain.ClientAuth, scope, jkt string) CreateInput {
	return CreateInput{
		Client:     client,
		ClientAuth: auth,
		Account:    f.account,
		Parameters: domain.AuthorizationParameters{ClientID: client.ID, Scope: scope},
		Grant:      GrantInput{GrantType: domain.GrantPassword},
		DPoPJKT:    jkt,
	}
}

func (f *fixture) refresh(client domain.Client, auth domain.ClientAuth, token domain.RefreshToken, jkt string) (*domain.TokenResponse, error) {
	return f.manager.Refresh(context.Background(), RefreshInput{
		Client:       client,
		ClientAuth:   auth,
		RefreshToken: token,
		DPoPJKT:      jkt,
	})
}

// recordFor resolves the live record behind a refresh token.
func (f *fixture) recordFor(t *testing.T, token domain.RefreshToken) (domain.RefreshTokenInfo, error) {
	t.Helper()
	return f.store.Tokens().FindTokenByRefreshToken(context.Background(), token)
}

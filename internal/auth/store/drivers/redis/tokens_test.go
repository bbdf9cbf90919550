package redis

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/tokend/internal/auth/domain"
	"github.com/aussiebroadwan/tokend/internal/auth/store"
	"github.com/aussiebroadwan/tokend/internal/auth/store/drivers/sqlite"
	"github.com/aussiebroadwan/tokend/pkg/cryptox"
)

type fixture struct {
	mr      *miniredis.Miniredis
	tokens  *TokenStore
	client  domain.Client
	account domain.Account
	device  domain.DeviceAccountInfo
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	ctx := context.Background()

	mr := miniredis.RunT(t)
	rc := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rc.Close() })

	sql, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = sql.Close() })
	require.NoError(t, sql.ApplyMigrations())

	now := time.Now().UTC()
	client := domain.Client{ID: "client-1", Name: "Test", Metadata: domain.ClientMetadata{TokenEndpointAuthMethod: domain.AuthMethodNone}}
	require.NoError(t, sql.Clients().CreateClient(ctx, client))
	account := domain.Account{Sub: "acct-1", Aud: "https://rs.example", Username: "alice", PasswordHash: "x"}
	require.NoError(t, sql.Accounts().CreateAccount(ctx, account))
	device := domain.DeviceAccountInfo{
		DeviceID:          "dev-00000000000000000000000000000001",
		Sub:               account.Sub,
		AuthenticatedAt:   now,
		AuthorizedClients: []string{client.ID},
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	require.NoError(t, sql.Devices().UpsertDevice(ctx, domain.Device{ID: device.DeviceID, CreatedAt: now, LastSeenAt: now}))
	require.NoError(t, sql.Devices().UpsertDeviceAccount(ctx, device))

	return fixture{
		mr:      mr,
		tokens:  NewTokenStore(rc, "test:", 7*24*time.Hour, sql.Accounts(), sql.Devices()),
		client:  client,
		account: account,
		device:  device,
	}
}

func (f fixture) data(now time.Time) domain.TokenData {
	return domain.TokenData{
		CreatedAt:  now,
		UpdatedAt:  now,
		ExpiresAt:  now.Add(time.Hour),
		ClientID:   f.client.ID,
		ClientAuth: domain.ClientAuth{Method: domain.AuthMethodNone},
		DeviceID:   f.device.DeviceID,
		Sub:        f.account.Sub,
		Parameters: domain.AuthorizationParameters{ClientID: f.client.ID, Scope: "offline_access", DPoPJKT: "jkt"},
	}
}

func TestTokenStore_CreateReadDelete(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	now := time.Now().UTC()

	id, _ := domain.NewTokenID()
	refresh, _ := domain.NewRefreshToken()
	require.NoError(t, f.tokens.CreateToken(ctx, id, f.data(now), refresh))

	info, err := f.tokens.ReadToken(ctx, id)
	require.NoError(t, err)
	require.Equal(t, id, info.ID)
	require.Equal(t, f.account.Aud, info.Account.Aud)
	require.NotNil(t, info.Info)
	require.Equal(t, "jkt", info.Data.Parameters.DPoPJKT)

	require.True(t, f.mr.Exists("test:token:"+string(id)))
	require.True(t, f.mr.Exists("test:refresh:"+cryptox.FingerprintToken(string(refresh))))
	require.Greater(t, f.mr.TTL("test:token:"+string(id)), 6*24*time.Hour)

	require.NoError(t, f.tokens.DeleteToken(ctx, id))
	require.NoError(t, f.tokens.DeleteToken(ctx, id))

	_, err = f.tokens.ReadToken(ctx, id)
	require.ErrorIs(t, err, store.ErrNotFound)
	_, err = f.tokens.FindTokenByRefreshToken(ctx, refresh)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestTokenStore_NonRefreshableExpiresWithAccessToken(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)

	id, _ := domain.NewTokenID()
	require.NoError(t, f.tokens.CreateToken(ctx, id, f.data(time.Now().UTC()), ""))

	ttl := f.mr.TTL("test:token:" + string(id))
	require.LessOrEqual(t, ttl, time.Hour)
	require.Greater(t, ttl, 50*time.Minute)

	f.mr.FastForward(2 * time.Hour)
	_, err := f.tokens.ReadToken(ctx, id)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestTokenStore_RotateKeepsStaleSecretsResolvable(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	now := time.Now().UTC()

	oldID, _ := domain.NewTokenID()
	r1, _ := domain.NewRefreshToken()
	require.NoError(t, f.tokens.CreateToken(ctx, oldID, f.data(now), r1))

	midID, _ := domain.NewTokenID()
	r2, _ := domain.NewRefreshToken()
	require.NoError(t, f.tokens.RotateToken(ctx, oldID, midID, r2, domain.TokenPatch{
		UpdatedAt: now.Add(time.Minute),
		ExpiresAt: now.Add(time.Hour),
	}))

	newID, _ := domain.NewTokenID()
	r3, _ := domain.NewRefreshToken()
	require.NoError(t, f.tokens.RotateToken(ctx, midID, newID, r3, domain.TokenPatch{
		UpdatedAt: now.Add(2 * time.Minute),
		ExpiresAt: now.Add(time.Hour),
	}))

	_, err := f.tokens.ReadToken(ctx, oldID)
	require.ErrorIs(t, err, store.ErrNotFound)

	for _, r := range []domain.RefreshToken{r1, r2, r3} {
		got, err := f.tokens.FindTokenByRefreshToken(ctx, r)
		require.NoError(t, err)
		require.Equal(t, newID, got.ID)
		require.Equal(t, cryptox.FingerprintToken(string(r3)), got.CurrentRefreshHash)
		require.True(t, got.Data.CreatedAt.Equal(now))
	}

	t.Run("missing record", func(t *testing.T) {
		again, _ := domain.NewTokenID()
		err := f.tokens.RotateToken(ctx, oldID, again, r3, domain.TokenPatch{})
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("delete burns every secret", func(t *testing.T) {
		require.NoError(t, f.tokens.DeleteToken(ctx, newID))
		_, err := f.tokens.FindTokenByRefreshToken(ctx, r1)
		require.ErrorIs(t, err, store.ErrNotFound)
	})
}

func TestTokenStore_DeleteRetriesAfterConcurrentRotation(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	now := time.Now().UTC()

	code, _ := domain.NewCode()
	data := f.data(now)
	data.Code = code

	oldID, _ := domain.NewTokenID()
	r1, _ := domain.NewRefreshToken()
	require.NoError(t, f.tokens.CreateToken(ctx, oldID, data, r1))

	// The rotation commits after DeleteToken has read the old record, so
	// its EXEC must fail and the retry must find nothing left to delete.
	newID, _ := domain.NewTokenID()
	r2, _ := domain.NewRefreshToken()
	rotated := false
	f.tokens.afterRead = func() {
		if rotated {
			return
		}
		rotated = true
		require.NoError(t, f.tokens.RotateToken(ctx, oldID, newID, r2, domain.TokenPatch{
			UpdatedAt: now.Add(time.Minute),
			ExpiresAt: now.Add(time.Hour),
		}))
	}

	require.NoError(t, f.tokens.DeleteToken(ctx, oldID))
	require.True(t, rotated)

	info, err := f.tokens.ReadToken(ctx, newID)
	require.NoError(t, err)
	require.Equal(t, newID, info.ID)

	for _, r := range []domain.RefreshToken{r1, r2} {
		got, err := f.tokens.FindTokenByRefreshToken(ctx, r)
		require.NoError(t, err)
		require.Equal(t, newID, got.ID)
	}
	got, err := f.tokens.FindTokenByCode(ctx, code)
	require.NoError(t, err)
	require.Equal(t, newID, got.ID)
}

func TestTokenStore_ConcurrentRotationsHaveOneWinner(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	now := time.Now().UTC()

	oldID, _ := domain.NewTokenID()
	r1, _ := domain.NewRefreshToken()
	require.NoError(t, f.tokens.CreateToken(ctx, oldID, f.data(now), r1))

	const n = 16
	ids := make([]domain.TokenID, n)
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := range n {
		wg.Go(func() {
			newID, err := domain.NewTokenID()
			assert.NoError(t, err)
			refresh, err := domain.NewRefreshToken()
			assert.NoError(t, err)
			ids[i] = newID
			errs[i] = f.tokens.RotateToken(ctx, oldID, newID, refresh, domain.TokenPatch{
				UpdatedAt: now.Add(time.Minute),
				ExpiresAt: now.Add(time.Hour),
			})
		})
	}
	wg.Wait()

	var winner domain.TokenID
	for i, err := range errs {
		if err == nil {
			require.Empty(t, winner, "two rotations succeeded")
			winner = ids[i]
			continue
		}
		require.True(t, errors.Is(err, store.ErrNotFound) || errors.Is(err, redis.TxFailedErr), "%v", err)
	}
	require.NotEmpty(t, winner)

	for i, id := range ids {
		_, err := f.tokens.ReadToken(ctx, id)
		if id == winner {
			require.NoError(t, err)
		} else {
			require.ErrorIs(t, err, store.ErrNotFound, "rotation %d left a record", i)
		}
	}
	got, err := f.tokens.FindTokenByRefreshToken(ctx, r1)
	require.NoError(t, err)
	require.Equal(t, winner, got.ID)
}

func TestTokenStore_FindByCode(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)

	code, _ := domain.NewCode()
	data := f.data(time.Now().UTC())
	data.Code = code

	id, _ := domain.NewTokenID()
	require.NoError(t, f.tokens.CreateToken(ctx, id, data, ""))

	got, err := f.tokens.FindTokenByCode(ctx, code)
	require.NoError(t, err)
	require.Equal(t, id, got.ID)

	dup, _ := domain.NewTokenID()
	require.ErrorIs(t, f.tokens.CreateToken(ctx, dup, data, ""), store.ErrAlreadyExists)
}

func TestTokenStore_DeleteStaleTokens(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	now := time.Now().UTC()

	young, _ := domain.NewTokenID()
	r1, _ := domain.NewRefreshToken()
	require.NoError(t, f.tokens.CreateToken(ctx, young, f.data(now.Add(-time.Hour)), r1))

	old, _ := domain.NewTokenID()
	r2, _ := domain.NewRefreshToken()
	require.NoError(t, f.tokens.CreateToken(ctx, old, f.data(now.Add(-72*time.Hour)), r2))

	n, err := f.tokens.DeleteStaleTokens(ctx, now, 48*time.Hour)
	require.NoError(t, err)
	require.EqualValues(t, 1, n)

	_, err = f.tokens.ReadToken(ctx, young)
	require.NoError(t, err)
	_, err = f.tokens.FindTokenByRefreshToken(ctx, r2)
	require.ErrorIs(t, err, store.ErrNotFound)
}

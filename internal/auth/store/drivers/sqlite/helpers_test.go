package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/aussiebroadwan/tokend/internal/auth/domain"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.ApplyMigrations())
	return s
}

// seed inserts a client, an account and a device session for it.
func seed(t *testing.T, s *Store) (domain.Client, domain.Account, domain.DeviceAccountInfo) {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	client := domain.Client{
		ID:   "client-1",
		Name: "Test Client",
		Metadata: domain.ClientMetadata{
			RedirectURIs:            []string{"https://app.example/cb"},
			GrantTypes:              []string{domain.GrantAuthorizationCode, domain.GrantRefreshToken},
			ResponseTypes:           []string{"code"},
			TokenEndpointAuthMethod: domain.AuthMethodNone,
		},
		CreatedAt: now,
	}
	require.NoError(t, s.Clients().CreateClient(ctx, client))

	account := domain.Account{
		Sub:          "acct-1",
		Aud:          "https://rs.example",
		Username:     "alice",
		PasswordHash: "argon2:dummy",
		CreatedAt:    now,
	}
	require.NoError(t, s.Accounts().CreateAccount(ctx, account))

	device := domain.Device{ID: "dev-00000000000000000000000000000001", CreatedAt: now, LastSeenAt: now}
	require.NoError(t, s.Devices().UpsertDevice(ctx, device))

	info := domain.DeviceAccountInfo{
		DeviceID:          device.ID,
		Sub:               account.Sub,
		AuthenticatedAt:   now,
		AuthorizedClients: []string{client.ID},
		Remember:          true,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	require.NoError(t, s.Devices().UpsertDeviceAccount(ctx, info))

	return client, account, info
}

func tokenData(client domain.Client, account domain.Account, now time.Time) domain.TokenData {
	return domain.TokenData{
		CreatedAt:  now,
		UpdatedAt:  now,
		ExpiresAt:  now.Add(time.Hour),
		ClientID:   client.ID,
		ClientAuth: domain.ClientAuth{Method: domain.AuthMethodNone},
		Sub:        account.Sub,
		Parameters: domain.AuthorizationParameters{
			ClientID: client.ID,
			Scope:    "openid offline_access",
			DPoPJKT:  "jkt-1",
		},
	}
}

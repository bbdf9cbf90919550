package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/aussiebroadwan/tokend/internal/auth/domain"
	"github.com/aussiebroadwan/tokend/internal/auth/store"
	"github.com/aussiebroadwan/tokend/pkg/cryptox"
	"github.com/aussiebroadwan/tokend/pkg/idx"
	"github.com/stretchr/testify/require"
)

func TestRequests_ConsumeIsSingleUse(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newTestStore(t)
	client, account, device := seed(t, s)
	now := time.Now().UTC()

	code, err := domain.NewCode()
	require.NoError(t, err)

	req := domain.AuthorizationRequest{
		ID:         idx.New().String(),
		ClientID:   client.ID,
		ClientAuth: domain.ClientAuth{Method: domain.AuthMethodNone},
		Parameters: domain.AuthorizationParameters{
			ClientID:            client.ID,
			ResponseType:        "code",
			RedirectURI:         "https://app.example/cb",
			Scope:               "openid",
			CodeChallenge:       "challenge",
			CodeChallengeMethod: "S256",
		},
		DeviceID:  device.DeviceID,
		Sub:       account.Sub,
		CodeHash:  cryptox.FingerprintToken(string(code)),
		ExpiresAt: now.Add(5 * time.Minute),
		CreatedAt: now,
	}
	require.NoError(t, s.Requests().CreateRequest(ctx, req))

	got, err := s.Requests().ConsumeRequestByCode(ctx, code)
	require.NoError(t, err)
	require.Equal(t, req.ID, got.ID)
	require.Equal(t, "challenge", got.Parameters.CodeChallenge)
	require.Equal(t, device.DeviceID, got.DeviceID)

	_, err = s.Requests().ConsumeRequestByCode(ctx, code)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestRequests_DeleteExpired(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newTestStore(t)
	client, account, _ := seed(t, s)
	now := time.Now().UTC()

	for i, exp := range []time.Time{now.Add(-time.Minute), now.Add(time.Minute)} {
		code, _ := domain.NewCode()
		require.NoError(t, s.Requests().CreateRequest(ctx, domain.AuthorizationRequest{
			ID:        idx.New().String(),
			ClientID:  client.ID,
			Sub:       account.Sub,
			CodeHash:  cryptox.FingerprintToken(string(code)),
			ExpiresAt: exp,
			CreatedAt: now.Add(-time.Duration(i) * time.Second),
		}))
	}

	n, err := s.Requests().DeleteExpiredRequests(ctx, now)
	require.NoError(t, err)
	require.EqualValues(t, 1, n)
}

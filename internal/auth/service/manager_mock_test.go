package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aussiebroadwan/tokend/internal/auth/domain"
	"github.com/aussiebroadwan/tokend/internal/auth/store/storemock"
	"github.com/aussiebroadwan/tokend/pkg/cryptox"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

var errStoreDown = errors.New("connection reset by peer")

// A mock with no DeleteToken expectation fails the test if the manager
// tries to delete anything.
func newMockManager(t *testing.T) (*TokenManager, *storemock.MockTokens, time.Time) {
	t.Helper()
	ctrl := gomock.NewController(t)
	tokens := storemock.NewMockTokens(ctrl)
	now := time.Now().Truncate(time.Second)
	return &TokenManager{
		Tokens:    tokens,
		Lifetimes: DefaultLifetimes(),
		Mode:      AccessTokenOpaque,
		Now:       func() time.Time { return now },
	}, tokens, now
}

func mockRecord(now time.Time, refresh domain.RefreshToken) domain.RefreshTokenInfo {
	return domain.RefreshTokenInfo{
		TokenInfo: domain.TokenInfo{
			ID: "tok-00000000000000000000000000000001",
			Data: domain.TokenData{
				CreatedAt:  now.Add(-time.Hour),
				UpdatedAt:  now.Add(-time.Hour),
				ExpiresAt:  now,
				ClientID:   "client-public",
				ClientAuth: domain.ClientAuth{Method: domain.AuthMethodNone},
				Sub:        "acct-1",
				Parameters: domain.AuthorizationParameters{ClientID: "client-public", Scope: "offline_access"},
			},
			Account: domain.Account{Sub: "acct-1", Aud: testAudience},
		},
		CurrentRefreshHash: cryptox.FingerprintToken(string(refresh)),
	}
}

func mockClient() domain.Client {
	return domain.Client{
		ID: "client-public",
		Metadata: domain.ClientMetadata{
			GrantTypes:              []string{domain.GrantPassword, domain.GrantRefreshToken},
			TokenEndpointAuthMethod: domain.AuthMethodNone,
		},
	}
}

func TestStoreFailuresNeverDeleteGrants(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("refresh lookup fails", func(t *testing.T) {
		t.Parallel()
		m, tokens, _ := newMockManager(t)
		refresh, err := domain.NewRefreshToken()
		require.NoError(t, err)

		tokens.EXPECT().FindTokenByRefreshToken(gomock.Any(), refresh).Return(domain.RefreshTokenInfo{}, errStoreDown)

		_, err = m.Refresh(ctx, RefreshInput{Client: mockClient(), ClientAuth: noneAuth(), RefreshToken: refresh})
		require.ErrorIs(t, err, errStoreDown)
		require.False(t, IsSecurityDenial(err))
	})

	t.Run("rotation fails", func(t *testing.T) {
		t.Parallel()
		m, tokens, now := newMockManager(t)
		refresh, err := domain.NewRefreshToken()
		require.NoError(t, err)
		record := mockRecord(now, refresh)

		tokens.EXPECT().FindTokenByRefreshToken(gomock.Any(), refresh).Return(record, nil)
		tokens.EXPECT().RotateToken(gomock.Any(), record.ID, gomock.Any(), gomock.Any(), gomock.Any()).Return(errStoreDown)

		_, err = m.Refresh(ctx, RefreshInput{Client: mockClient(), ClientAuth: noneAuth(), RefreshToken: refresh})
		require.ErrorIs(t, err, errStoreDown)
	})

	t.Run("read fails", func(t *testing.T) {
		t.Parallel()
		m, tokens, _ := newMockManager(t)
		id, err := domain.NewTokenID()
		require.NoError(t, err)

		tokens.EXPECT().ReadToken(gomock.Any(), id).Return(domain.TokenInfo{}, errStoreDown)

		_, err = m.AuthenticateTokenID(ctx, domain.TokenTypeBearer, id, "", VerifyOptions{})
		require.ErrorIs(t, err, errStoreDown)
		require.NotErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("code lookup fails", func(t *testing.T) {
		t.Parallel()
		m, tokens, _ := newMockManager(t)
		code, err := domain.NewCode()
		require.NoError(t, err)

		tokens.EXPECT().FindTokenByCode(gomock.Any(), code).Return(domain.TokenInfo{}, errStoreDown)

		client := mockClient()
		client.Metadata.GrantTypes = []string{domain.GrantAuthorizationCode}
		client.Metadata.RedirectURIs = []string{testRedirect}
		_, err = m.Create(ctx, CreateInput{
			Client:     client,
			ClientAuth: noneAuth(),
			Parameters: domain.AuthorizationParameters{
				ClientID:            client.ID,
				RedirectURI:         testRedirect,
				CodeChallenge:       s256(testVerifier),
				CodeChallengeMethod: PKCEMethodS256,
			},
			Grant: GrantInput{
				GrantType:    domain.GrantAuthorizationCode,
				Code:         code,
				CodeVerifier: testVerifier,
			},
		})
		require.ErrorIs(t, err, errStoreDown)
	})
}

func TestRefreshDeletesOnReplayOnly(t *testing.T) {
	t.Parallel()
	m, tokens, now := newMockManager(t)
	ctx := context.Background()

	current, err := domain.NewRefreshToken()
	require.NoError(t, err)
	stale, err := domain.NewRefreshToken()
	require.NoError(t, err)
	record := mockRecord(now, current)

	gomock.InOrder(
		tokens.EXPECT().FindTokenByRefreshToken(gomock.Any(), stale).Return(record, nil),
		tokens.EXPECT().DeleteToken(gomock.Any(), record.ID).Return(errStoreDown),
	)

	// A failed delete is logged; the caller still sees the denial.
	_, err = m.Refresh(ctx, RefreshInput{Client: mockClient(), ClientAuth: noneAuth(), RefreshToken: stale})
	require.ErrorIs(t, err, ErrInvalidGrant)
}

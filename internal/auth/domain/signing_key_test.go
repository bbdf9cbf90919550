package domain_test

import (
	"testing"
	"time"

	"github.com/aussiebroadwan/tokend/internal/auth/domain"
	"github.com/stretchr/testify/require"
)

func TestSigningKey_Status(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	retired := now.Add(-time.Hour)

	tests := []struct {
		name string
		key  domain.SigningKey
		want domain.KeyStatus
	}{
		{"active", domain.SigningKey{ExpiresAt: now.Add(time.Hour)}, domain.KeyStatusActive},
		{"in memory", domain.SigningKey{}, domain.KeyStatusActive},
		{"retired", domain.SigningKey{RetiredAt: &retired, ExpiresAt: now.Add(time.Hour)}, domain.KeyStatusRetired},
		{"expired at boundary", domain.SigningKey{ExpiresAt: now}, domain.KeyStatusExpired},
		{"retired and expired", domain.SigningKey{RetiredAt: &retired, ExpiresAt: now.Add(-time.Minute)}, domain.KeyStatusExpired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, tt.key.Status(now))
		})
	}
}

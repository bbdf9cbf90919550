package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGeneratedIdentifiersHaveDisjointShapes(t *testing.T) {
	t.Parallel()

	id, err := NewTokenID()
	require.NoError(t, err)
	refresh, err := NewRefreshToken()
	require.NoError(t, err)
	code, err := NewCode()
	require.NoError(t, err)
	device, err := NewDeviceID()
	require.NoError(t, err)

	require.True(t, IsTokenID(string(id)))
	require.True(t, IsRefreshToken(string(refresh)))
	require.True(t, IsCode(string(code)))
	require.True(t, IsDeviceID(string(device)))

	require.False(t, IsRefreshToken(string(id)))
	require.False(t, IsCode(string(refresh)))
	require.False(t, IsTokenID(string(device)))

	require.Equal(t, KindTokenID, ClassifyToken(string(id)))
	require.Equal(t, KindRefreshToken, ClassifyToken(string(refresh)))
	require.Equal(t, KindCode, ClassifyToken(string(code)))
	require.Equal(t, KindUnknown, ClassifyToken(string(device)))
}

func TestGeneratedIdentifiersAreUnique(t *testing.T) {
	t.Parallel()

	seen := make(map[TokenID]struct{}, 100)
	for range 100 {
		id, err := NewTokenID()
		require.NoError(t, err)
		_, dup := seen[id]
		require.False(t, dup)
		seen[id] = struct{}{}
	}
}

func TestClassifyToken(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  TokenKind
	}{
		{"token id", "tok-" + strings.Repeat("a", 32), KindTokenID},
		{"token id uppercase hex", "tok-" + strings.Repeat("A", 32), KindUnknown},
		{"token id too short", "tok-" + strings.Repeat("a", 31), KindUnknown},
		{"refresh token", "ref-" + strings.Repeat("0", 64), KindRefreshToken},
		{"refresh token non hex", "ref-" + strings.Repeat("g", 64), KindUnknown},
		{"code", "cod-" + strings.Repeat("f", 64), KindCode},
		{"jwt", "eyJhbGciOiJFZERTQSJ9.eyJzdWIiOiJ4In0.c2ln", KindJWT},
		{"jwt empty signature", "eyJhbGciOiJub25lIn0.eyJzdWIiOiJ4In0.", KindUnknown},
		{"jwt padded", "a.b=.c", KindUnknown},
		{"two segments", "a.b", KindUnknown},
		{"empty", "", KindUnknown},
		{"garbage", "not a token", KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, ClassifyToken(tt.input))
		})
	}
}

func TestTokenKindString(t *testing.T) {
	t.Parallel()

	require.Equal(t, "token_id", KindTokenID.String())
	require.Equal(t, "jwt", KindJWT.String())
	require.Equal(t, "refresh_token", KindRefreshToken.String())
	require.Equal(t, "code", KindCode.String())
	require.Equal(t, "unknown", KindUnknown.String())
}

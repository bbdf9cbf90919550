package cryptox_test

import (
	"testing"

	"github.com/aussiebroadwan/tokend/pkg/cryptox"
	"github.com/stretchr/testify/require"
)

func TestGenerateTokens(t *testing.T) {
	t.Parallel()

	generators := map[string]struct {
		gen     func(int) (string, error)
		pattern string
		lenOf   func(size int) int
	}{
		"base64url": {cryptox.GenerateToken, `^[A-Za-z0-9_-]+$`, func(n int) int { return (n*8 + 5) / 6 }},
		"hex":       {cryptox.GenerateHexToken, `^[0-9a-f]+$`, func(n int) int { return 2 * n }},
	}

	for name, g := range generators {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			for _, size := range []int{cryptox.TokenSize128, cryptox.TokenSize256, 24} {
				seen := make(map[string]struct{})
				for range 20 {
					tok, err := g.gen(size)
					require.NoError(t, err)
					require.Len(t, tok, g.lenOf(size))
					require.Regexp(t, g.pattern, tok)
					require.NotContains(t, seen, tok)
					seen[tok] = struct{}{}
				}
			}

			for _, size := range []int{0, -1} {
				tok, err := g.gen(size)
				require.Error(t, err)
				require.Empty(t, tok)
			}
		})
	}
}

func TestFingerprintToken(t *testing.T) {
	t.Parallel()

	fp := cryptox.FingerprintToken("rt_0123")
	require.Len(t, fp, 43)
	require.Equal(t, fp, cryptox.FingerprintToken("rt_0123"))
	require.NotEqual(t, fp, cryptox.FingerprintToken("rt_0124"))

	require.True(t, cryptox.FingerprintsEqual(fp, cryptox.FingerprintToken("rt_0123")))
	require.False(t, cryptox.FingerprintsEqual(fp, cryptox.FingerprintToken("rt_0124")))
	require.False(t, cryptox.FingerprintsEqual("", ""))
	require.False(t, cryptox.FingerprintsEqual(fp, ""))
}

package dpopx_test

import (
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rand"
	"testing"
	"time"

	"github.com/aussiebroadwan/tokend/pkg/dpopx"
	"github.com/go-jose/go-jose/v4"
	"github.com/stretchr/testify/require"
)

const tokenURI = "https://issuer.example/v1/oauth2/token"

func newKey(t *testing.T) *ecdsa.PrivateKey {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	return key
}

func TestVerifier_Verify(t *testing.T) {
	t.Parallel()

	now := time.Unix(1_700_000_000, 0)
	key := newKey(t)
	jkt, err := dpopx.KeyThumbprint(key)
	require.NoError(t, err)

	sign := func(t *testing.T, in dpopx.ProofInput) string {
		t.Helper()
		if in.Method == "" {
			in.Method = "POST"
		}
		if in.URI == "" {
			in.URI = tokenURI
		}
		if in.IssuedAt.IsZero() {
			in.IssuedAt = now
		}
		p, err := dpopx.NewProof(key, jose.ES256, in)
		require.NoError(t, err)
		return p
	}

	tests := []struct {
		name    string
		in      dpopx.ProofInput
		method  string
		uri     string
		token   string
		wantErr error
	}{
		{name: "valid", in: dpopx.ProofInput{JTI: "a"}},
		{name: "query and case ignored", in: dpopx.ProofInput{JTI: "b"}, uri: "HTTPS://Issuer.Example/v1/oauth2/token?x=1"},
		{name: "wrong method", in: dpopx.ProofInput{JTI: "c"}, method: "GET", wantErr: dpopx.ErrInvalidProof},
		{name: "wrong uri", in: dpopx.ProofInput{JTI: "d"}, uri: "https://issuer.example/v1/oauth2/revoke", wantErr: dpopx.ErrInvalidProof},
		{name: "too old", in: dpopx.ProofInput{JTI: "e", IssuedAt: now.Add(-10 * time.Minute)}, wantErr: dpopx.ErrInvalidProof},
		{name: "from the future", in: dpopx.ProofInput{JTI: "f", IssuedAt: now.Add(time.Minute)}, wantErr: dpopx.ErrInvalidProof},
		{name: "missing jti", in: dpopx.ProofInput{}, wantErr: dpopx.ErrInvalidProof},
		{name: "ath matches", in: dpopx.ProofInput{JTI: "g", AccessToken: "tok-1"}, token: "tok-1"},
		{name: "ath mismatch", in: dpopx.ProofInput{JTI: "h", AccessToken: "tok-1"}, token: "tok-2", wantErr: dpopx.ErrInvalidProof},
		{name: "ath missing", in: dpopx.ProofInput{JTI: "i"}, token: "tok-1", wantErr: dpopx.ErrInvalidProof},
	}

	v := dpopx.NewVerifier(dpopx.Options{Now: func() time.Time { return now }})

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			method := tt.method
			if method == "" {
				method = "POST"
			}
			uri := tt.uri
			if uri == "" {
				uri = tokenURI
			}

			proof, err := v.Verify(sign(t, tt.in), method, uri, tt.token)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, jkt, proof.JKT)
			require.Equal(t, tt.in.JTI, proof.JTI)
		})
	}
}

func TestVerifier_Replay(t *testing.T) {
	t.Parallel()

	now := time.Now()
	key := newKey(t)
	v := dpopx.NewVerifier(dpopx.Options{Now: func() time.Time { return now }})

	p, err := dpopx.NewProof(key, jose.ES256, dpopx.ProofInput{Method: "POST", URI: tokenURI, JTI: "once", IssuedAt: now})
	require.NoError(t, err)

	_, err = v.Verify(p, "POST", tokenURI, "")
	require.NoError(t, err)
	_, err = v.Verify(p, "POST", tokenURI, "")
	require.ErrorIs(t, err, dpopx.ErrReplay)

	// The same jti under a different key is a different proof.
	other, err := dpopx.NewProof(newKey(t), jose.ES256, dpopx.ProofInput{Method: "POST", URI: tokenURI, JTI: "once", IssuedAt: now})
	require.NoError(t, err)
	_, err = v.Verify(other, "POST", tokenURI, "")
	require.NoError(t, err)
}

func TestVerifier_EdDSA(t *testing.T) {
	t.Parallel()

	_, key, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	now := time.Now()
	p, err := dpopx.NewProof(key, jose.EdDSA, dpopx.ProofInput{Method: "GET", URI: "https://rs.example/me", JTI: "x", IssuedAt: now})
	require.NoError(t, err)

	proof, err := dpopx.NewVerifier(dpopx.Options{}).Verify(p, "GET", "https://rs.example/me", "")
	require.NoError(t, err)

	want, err := dpopx.KeyThumbprint(key)
	require.NoError(t, err)
	require.Equal(t, want, proof.JKT)
}

func TestVerifier_RejectsGarbage(t *testing.T) {
	t.Parallel()

	v := dpopx.NewVerifier(dpopx.Options{})
	for _, proof := range []string{"", "not-a-jwt", "a.b.c"} {
		_, err := v.Verify(proof, "POST", tokenURI, "")
		require.ErrorIs(t, err, dpopx.ErrInvalidProof)
	}
}

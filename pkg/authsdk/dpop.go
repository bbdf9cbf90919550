package authsdk

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"fmt"
	"time"

	"github.com/aussiebroadwan/tokend/pkg/dpopx"
	"github.com/go-jose/go-jose/v4"
	"github.com/google/uuid"
)

// DPoPKey is a client-held proof-of-possession key (RFC 9449).
type DPoPKey struct {
	key crypto.Signer
	alg jose.SignatureAlgorithm
	jkt string
}

// NewDPoPKey generates a fresh P-256 key for ES256 proofs.
func NewDPoPKey() (*DPoPKey, error) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to generate DPoP key: %w", err)
	}
	return NewDPoPKeyFrom(key, jose.ES256)
}

// NewDPoPKeyFrom wraps an existing key. alg must match the key type.
func NewDPoPKeyFrom(key crypto.Signer, alg jose.SignatureAlgorithm) (*DPoPKey, error) {
	jkt, err := dpopx.KeyThumbprint(key)
	if err != nil {
		return nil, err
	}
	return &DPoPKey{key: key, alg: alg, jkt: jkt}, nil
}

// Thumbprint returns the JWK thumbprint, the value of dpop_jkt and cnf.jkt.
func (k *DPoPKey) Thumbprint() string { return k.jkt }

// Proof signs a proof for method and uri. accessToken is set when the proof
// accompanies a bound access token.
func (k *DPoPKey) Proof(method, uri, accessToken string) (string, error) {
	return dpopx.NewProof(k.key, k.alg, dpopx.ProofInput{
		Method:      method,
		URI:         uri,
		JTI:         uuid.NewString(),
		AccessToken: accessToken,
		IssuedAt:    time.Now(),
	})
}

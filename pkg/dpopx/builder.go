package dpopx

import (
	"crypto"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-jose/go-jose/v4"
)

// ProofInput describes a proof to sign. AccessToken is set when the proof
// accompanies a bound access token at a resource server.
type ProofInput struct {
	Method      string
	URI         string
	JTI         string
	AccessToken string
	Nonce       string
	IssuedAt    time.Time
}

// NewProof signs a proof with key, embedding its public JWK. alg must match
// the key type.
func NewProof(key crypto.Signer, alg jose.SignatureAlgorithm, in ProofInput) (string, error) {
	signer, err := jose.NewSigner(
		jose.SigningKey{Algorithm: alg, Key: key},
		(&jose.SignerOptions{EmbedJWK: true}).WithType(ProofType),
	)
	if err != nil {
		return "", fmt.Errorf("dpopx: signer: %w", err)
	}

	c := claims{
		JTI:   in.JTI,
		HTM:   in.Method,
		HTU:   in.URI,
		IAT:   in.IssuedAt.Unix(),
		Nonce: in.Nonce,
	}
	if in.AccessToken != "" {
		c.ATH = AccessTokenHash(in.AccessToken)
	}
	payload, err := json.Marshal(c)
	if err != nil {
		return "", err
	}

	obj, err := signer.Sign(payload)
	if err != nil {
		return "", fmt.Errorf("dpopx: sign: %w", err)
	}
	return obj.CompactSerialize()
}

// KeyThumbprint returns the thumbprint a proof signed by key will carry.
func KeyThumbprint(key crypto.Signer) (string, error) {
	return Thumbprint(&jose.JSONWebKey{Key: key.Public()})
}

package cryptox

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
)

// Signing key algorithms, named as in JWS "alg".
const (
	KeyRS256 = "RS256"
	KeyES256 = "ES256"
	KeyEdDSA = "EdDSA"
)

// MinRSABits is the smallest RSA modulus accepted for signing keys.
const MinRSABits = 2048

// GenerateSigningKey creates a private key for alg and returns it as a
// PKCS8 PEM block. rsaBits is only read for RS256 and defaults to 4096.
func GenerateSigningKey(alg string, rsaBits int) ([]byte, error) {
	var (
		key any
		err error
	)
	switch alg {
	case KeyRS256:
		if rsaBits == 0 {
			rsaBits = 4096
		}
		if rsaBits < MinRSABits {
			return nil, fmt.Errorf("cryptox: RSA key size must be at least %d bits", MinRSABits)
		}
		key, err = rsa.GenerateKey(rand.Reader, rsaBits)
	case KeyES256:
		key, err = ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	case KeyEdDSA:
		_, key, err = ed25519.GenerateKey(rand.Reader)
	default:
		return nil, fmt.Errorf("cryptox: unsupported key algorithm %q", alg)
	}
	if err != nil {
		return nil, fmt.Errorf("cryptox: generate %s key: %w", alg, err)
	}

	der, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		return nil, fmt.Errorf("cryptox: marshal %s key: %w", alg, err)
	}
	return pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der}), nil
}

// ParseSigningKey decodes a PEM private key and checks it matches alg.
// PKCS8 is accepted for every algorithm, PKCS1 for RSA as well.
func ParseSigningKey(alg string, pemData []byte) (crypto.Signer, error) {
	block, _ := pem.Decode(pemData)
	if block == nil {
		return nil, errors.New("cryptox: no PEM block in private key")
	}

	var (
		key any
		err error
	)
	switch block.Type {
	case "PRIVATE KEY":
		key, err = x509.ParsePKCS8PrivateKey(block.Bytes)
	case "RSA PRIVATE KEY":
		key, err = x509.ParsePKCS1PrivateKey(block.Bytes)
	default:
		return nil, fmt.Errorf("cryptox: unexpected PEM block %q", block.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("cryptox: parse private key: %w", err)
	}

	switch k := key.(type) {
	case *rsa.PrivateKey:
		if alg == KeyRS256 && k.N.BitLen() >= MinRSABits {
			return k, nil
		}
	case *ecdsa.PrivateKey:
		if alg == KeyES256 && k.Curve == elliptic.P256() {
			return k, nil
		}
	case ed25519.PrivateKey:
		if alg == KeyEdDSA {
			return k, nil
		}
	}
	return nil, fmt.Errorf("cryptox: %T is not a valid %s key", key, alg)
}

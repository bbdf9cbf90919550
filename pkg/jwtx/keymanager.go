package jwtx

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"sync"

	"github.com/aussiebroadwan/tokend/pkg/cryptox"
)

// Supported JWT signing algorithms
const (
	AlgorithmRS256 = cryptox.KeyRS256
	AlgorithmES256 = cryptox.KeyES256
	AlgorithmEdDSA = cryptox.KeyEdDSA
)

const (
	defaultNumKeys = 3
	maxNumKeys     = 10
)

var ErrLastSigner = errors.New("jwtx: cannot retire the last signing key")

// KeyManager holds the active signing keys of an instance and the KeySet
// that verifies them. Every active key is published; retired keys stay in
// the KeySet only.
type KeyManager struct {
	Verifier *Verifier
	KeySet   *KeySet

	algorithm string

	mu      sync.RWMutex
	signers []Signer
}

// KeyManagerOptions configures a KeyManager.
type KeyManagerOptions struct {
	// Algorithm for new keys: RS256, ES256 or EdDSA.
	Algorithm string

	// Issuer every verified token must carry.
	Issuer string

	// RSABits for RS256 keys. Defaults to 4096, minimum 2048.
	RSABits int

	// NumKeys is the number of active signing keys, 1 to 10. Defaults to 3.
	NumKeys int
}

func (o *KeyManagerOptions) validate() error {
	if o.Issuer == "" {
		return errors.New("jwtx: Issuer is required")
	}
	if !isSupported(o.Algorithm) {
		return fmt.Errorf("jwtx: unsupported algorithm %q", o.Algorithm)
	}
	if o.NumKeys <= 0 {
		o.NumKeys = defaultNumKeys
	}
	o.NumKeys = min(o.NumKeys, maxNumKeys)
	return nil
}

func newKeyManager(opts KeyManagerOptions) *KeyManager {
	keys := NewKeySet()
	return &KeyManager{
		Verifier:  NewVerifier(keys, opts.Issuer),
		KeySet:    keys,
		algorithm: opts.Algorithm,
	}
}

// NewEphemeralKeyManager generates NumKeys keys held in memory only.
// Tokens they signed stop verifying when the process exits.
func NewEphemeralKeyManager(opts KeyManagerOptions) (*KeyManager, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	km := newKeyManager(opts)
	for range opts.NumKeys {
		_, _, signer, err := GenerateKey(opts.Algorithm, opts.RSABits)
		if err != nil {
			return nil, err
		}
		if err := km.AddSigner(signer); err != nil {
			return nil, err
		}
	}
	return km, nil
}

func isSupported(alg string) bool {
	switch alg {
	case AlgorithmRS256, AlgorithmES256, AlgorithmEdDSA:
		return true
	}
	return false
}

// Algorithm is the algorithm new keys are generated with.
func (km *KeyManager) Algorithm() string {
	return km.algorithm
}

// IsReady reports whether tokens can be verified.
func (km *KeyManager) IsReady() bool {
	return km.KeySet.IsReady()
}

// GetSigner picks one of the active keys at random, or nil if none.
func (km *KeyManager) GetSigner() Signer {
	km.mu.RLock()
	defer km.mu.RUnlock()

	switch len(km.signers) {
	case 0:
		return nil
	case 1:
		return km.signers[0]
	}
	return km.signers[rand.IntN(len(km.signers))]
}

// NumSigners returns the number of active signing keys.
func (km *KeyManager) NumSigners() int {
	km.mu.RLock()
	defer km.mu.RUnlock()
	return len(km.signers)
}

// AddSigner activates a signing key and publishes its public key.
func (km *KeyManager) AddSigner(signer Signer) error {
	if signer == nil {
		return errors.New("jwtx: nil signer")
	}

	km.mu.Lock()
	defer km.mu.Unlock()

	if err := km.KeySet.AddSigner(signer); err != nil {
		return err
	}
	km.signers = append(km.signers, signer)
	return nil
}

// RetireSignerByKid stops kid from signing. Its public key stays in the
// KeySet so issued tokens keep verifying.
func (km *KeyManager) RetireSignerByKid(kid string) error {
	km.mu.Lock()
	defer km.mu.Unlock()

	i := slices.IndexFunc(km.signers, func(s Signer) bool { return s.KID() == kid })
	if i < 0 {
		return fmt.Errorf("jwtx: signer %q not found", kid)
	}
	if len(km.signers) == 1 {
		return ErrLastSigner
	}
	km.signers = slices.Delete(km.signers, i, i+1)
	return nil
}

// GetSigners returns a copy of the active signing keys.
func (km *KeyManager) GetSigners() []Signer {
	km.mu.RLock()
	defer km.mu.RUnlock()
	return slices.Clone(km.signers)
}

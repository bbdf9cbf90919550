package jwtx

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/go-jose/go-jose/v4"
)

var ErrNoKey = errors.New("jwtx: key not found")

// KeySet holds the public verification keys. The signing service publishes
// it as the JWKS; the Verifier resolves kids against it.
type KeySet struct {
	mu   sync.RWMutex
	keys []jose.JSONWebKey
}

// NewKeySet returns an empty KeySet.
func NewKeySet() *KeySet {
	return &KeySet{}
}

// AddSigner publishes the public key of s.
func (k *KeySet) AddSigner(s Signer) error {
	return k.AddJWK(s.PublicJWK())
}

// AddJWK adds a public key, replacing any key with the same kid.
func (k *KeySet) AddJWK(j jose.JSONWebKey) error {
	if j.KeyID == "" {
		return errors.New("jwtx: JWK without kid")
	}
	if !j.Valid() || !j.IsPublic() {
		return fmt.Errorf("jwtx: JWK %s is not a valid public key", j.KeyID)
	}

	k.mu.Lock()
	defer k.mu.Unlock()
	k.keys = slices.DeleteFunc(k.keys, func(e jose.JSONWebKey) bool { return e.KeyID == j.KeyID })
	k.keys = append(k.keys, j)
	return nil
}

// Remove drops kid from the set. Tokens signed by it stop verifying.
func (k *KeySet) Remove(kid string) bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	n := len(k.keys)
	k.keys = slices.DeleteFunc(k.keys, func(e jose.JSONWebKey) bool { return e.KeyID == kid })
	return len(k.keys) != n
}

// Get returns the public key for kid: *rsa.PublicKey, *ecdsa.PublicKey or
// ed25519.PublicKey.
func (k *KeySet) Get(kid string) (any, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	for _, j := range k.keys {
		if j.KeyID == kid {
			return j.Key, nil
		}
	}
	return nil, ErrNoKey
}

// PublicJWKS returns a snapshot for HTTP serving.
func (k *KeySet) PublicJWKS() jose.JSONWebKeySet {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return jose.JSONWebKeySet{Keys: slices.Clone(k.keys)}
}

// IsReady reports whether at least one key is loaded.
func (k *KeySet) IsReady() bool {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return len(k.keys) > 0
}

package cryptox

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"golang.org/x/crypto/hkdf"
)

// MasterKeyEnv holds the master key when no key file is configured.
const MasterKeyEnv = "AUTH_MASTER_KEY"

const signingKeyInfo = "tokend signing key encryption v1"

// ErrKeyDecrypt is returned when stored key material cannot be opened, for
// example after the master key changed.
var ErrKeyDecrypt = errors.New("cryptox: signing key decryption failed")

// The master key wraps signing keys at rest. It is read from the configured
// file, then AUTH_MASTER_KEY, and otherwise generated for this process only.
var master struct {
	mu        sync.Mutex
	path      string
	aead      cipher.AEAD
	ephemeral bool
}

// SetMasterKeyPath selects the master key file. The key is (re)loaded on
// next use.
func SetMasterKeyPath(path string) {
	master.mu.Lock()
	defer master.mu.Unlock()

	master.path = path
	master.aead = nil
	master.ephemeral = false
}

// MasterKeyIsEphemeral reports whether the master key was generated at
// startup, in which case persisted signing keys are lost on restart.
func MasterKeyIsEphemeral() (bool, error) {
	master.mu.Lock()
	defer master.mu.Unlock()

	if _, err := masterAEAD(); err != nil {
		return false, err
	}
	return master.ephemeral, nil
}

// masterAEAD must be called with master.mu held.
func masterAEAD() (cipher.AEAD, error) {
	if master.aead != nil {
		return master.aead, nil
	}

	var material []byte
	switch {
	case master.path != "":
		raw, err := os.ReadFile(master.path)
		if err != nil {
			return nil, fmt.Errorf("cryptox: read master key: %w", err)
		}
		if material = bytes.TrimSpace(raw); len(material) == 0 {
			return nil, fmt.Errorf("cryptox: master key file %s is empty", master.path)
		}
	case os.Getenv(MasterKeyEnv) != "":
		material = []byte(os.Getenv(MasterKeyEnv))
	default:
		material = make([]byte, 32)
		if _, err := rand.Read(material); err != nil {
			return nil, err
		}
		master.ephemeral = true
	}

	key := make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, material, nil, []byte(signingKeyInfo)), key); err != nil {
		return nil, fmt.Errorf("cryptox: derive master key: %w", err)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	master.aead = aead
	return aead, nil
}

// EncryptPrivateKey seals a PEM private key with AES-256-GCM under the
// master key. The kid is bound as associated data, so a ciphertext cannot
// be replayed under another key id. Output is nonce || ciphertext || tag.
func EncryptPrivateKey(kid string, pemData []byte) ([]byte, error) {
	master.mu.Lock()
	aead, err := masterAEAD()
	master.mu.Unlock()
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(pemData)+aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	return aead.Seal(nonce, nonce, pemData, []byte(kid)), nil
}

// DecryptPrivateKey opens data sealed by EncryptPrivateKey for the same kid.
func DecryptPrivateKey(kid string, sealed []byte) ([]byte, error) {
	master.mu.Lock()
	aead, err := masterAEAD()
	master.mu.Unlock()
	if err != nil {
		return nil, err
	}

	if len(sealed) < aead.NonceSize()+aead.Overhead() {
		return nil, fmt.Errorf("%w: ciphertext too short", ErrKeyDecrypt)
	}
	nonce, ciphertext := sealed[:aead.NonceSize()], sealed[aead.NonceSize():]
	plain, err := aead.Open(nil, nonce, ciphertext, []byte(kid))
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrKeyDecrypt, kid)
	}
	return plain, nil
}

package jwtx

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aussiebroadwan/tokend/pkg/cryptox"
	"github.com/aussiebroadwan/tokend/pkg/idx"
)

// SigningKeyRecord is a stored signing key, private half sealed with
// cryptox.EncryptPrivateKey.
type SigningKeyRecord struct {
	ID                  string
	Kid                 string
	Algorithm           string
	PrivateKeyEncrypted []byte
	CreatedAt           time.Time
	RetiredAt           *time.Time
	ExpiresAt           time.Time
}

// KeyStore is the storage a persistent KeyManager needs.
type KeyStore interface {
	// ListAllSigningKeys includes retired keys still in their grace period.
	ListAllSigningKeys(ctx context.Context) ([]SigningKeyRecord, error)

	// ListActiveSigningKeys returns the keys that may sign.
	ListActiveSigningKeys(ctx context.Context) ([]SigningKeyRecord, error)

	CreateSigningKey(ctx context.Context, key SigningKeyRecord) error
}

// PersistentKeyManagerOptions configures NewPersistentKeyManager.
type PersistentKeyManagerOptions struct {
	Store KeyStore

	// Algorithm for keys generated to reach NumKeys. Loaded keys keep
	// their stored algorithm.
	Algorithm string
	Issuer    string
	RSABits   int
	NumKeys   int

	// GracePeriod a retired key keeps verifying. Defaults to 30 days.
	GracePeriod time.Duration

	// Now is the clock, time.Now when nil.
	Now func() time.Time
}

// NewPersistentKeyManager loads stored keys and tops the active set up to
// NumKeys, storing every generated key before it is used.
func NewPersistentKeyManager(ctx context.Context, opts PersistentKeyManagerOptions) (*KeyManager, error) {
	if opts.Store == nil {
		return nil, errors.New("jwtx: Store is required for persistent key manager")
	}
	base := KeyManagerOptions{
		Algorithm: opts.Algorithm,
		Issuer:    opts.Issuer,
		RSABits:   opts.RSABits,
		NumKeys:   opts.NumKeys,
	}
	if err := base.validate(); err != nil {
		return nil, err
	}
	if opts.GracePeriod <= 0 {
		opts.GracePeriod = 30 * 24 * time.Hour
	}
	now := time.Now()
	if opts.Now != nil {
		now = opts.Now()
	}

	all, err := opts.Store.ListAllSigningKeys(ctx)
	if err != nil {
		return nil, fmt.Errorf("jwtx: load signing keys: %w", err)
	}
	active, err := opts.Store.ListActiveSigningKeys(ctx)
	if err != nil {
		return nil, fmt.Errorf("jwtx: load active signing keys: %w", err)
	}
	isActive := make(map[string]bool, len(active))
	for _, rec := range active {
		isActive[rec.Kid] = true
	}

	km := newKeyManager(base)
	for _, rec := range all {
		if !isActive[rec.Kid] && !now.Before(rec.ExpiresAt) {
			continue
		}
		signer, err := openRecord(rec)
		if err != nil {
			return nil, err
		}
		if isActive[rec.Kid] {
			err = km.AddSigner(signer)
		} else {
			err = km.KeySet.AddSigner(signer)
		}
		if err != nil {
			return nil, err
		}
	}

	for km.NumSigners() < base.NumKeys {
		kid, pemData, signer, err := GenerateKey(base.Algorithm, base.RSABits)
		if err != nil {
			return nil, err
		}
		sealed, err := cryptox.EncryptPrivateKey(kid, pemData)
		if err != nil {
			return nil, fmt.Errorf("jwtx: seal key %s: %w", kid, err)
		}
		err = opts.Store.CreateSigningKey(ctx, SigningKeyRecord{
			ID:                  idx.New().String(),
			Kid:                 kid,
			Algorithm:           base.Algorithm,
			PrivateKeyEncrypted: sealed,
			CreatedAt:           now,
			ExpiresAt:           now.Add(opts.GracePeriod),
		})
		if err != nil {
			return nil, fmt.Errorf("jwtx: store key %s: %w", kid, err)
		}
		if err := km.AddSigner(signer); err != nil {
			return nil, err
		}
	}
	return km, nil
}

func openRecord(rec SigningKeyRecord) (Signer, error) {
	pemData, err := cryptox.DecryptPrivateKey(rec.Kid, rec.PrivateKeyEncrypted)
	if err != nil {
		return nil, fmt.Errorf("jwtx: open key %s: %w", rec.Kid, err)
	}
	return NewSigner(rec.Algorithm, rec.Kid, pemData)
}

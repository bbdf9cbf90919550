package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aussiebroadwan/tokend/internal/auth/domain"
	"github.com/aussiebroadwan/tokend/internal/auth/store"
	"github.com/aussiebroadwan/tokend/pkg/cryptox"
	"github.com/aussiebroadwan/tokend/pkg/idx"
	"github.com/aussiebroadwan/tokend/pkg/jwtx"
	"github.com/aussiebroadwan/tokend/pkg/slogx"
)

var (
	ErrKeyNotFound       = errors.New("signing key not found")
	ErrKeyAlreadyRetired = errors.New("signing key already retired")
	ErrLastSigningKey    = errors.New("cannot retire the last signing key")
)

const defaultKeyGracePeriod = 30 * 24 * time.Hour

// KeyRotationService administers the keys that sign JWTs. With a nil Store
// keys live only in the KeyManager.
//
// A retired key stops signing but stays in the JWKS for GracePeriod, so
// tokens it already signed keep verifying.
type KeyRotationService struct {
	Store       store.Store
	KeyManager  *jwtx.KeyManager
	Algorithm   string
	RSABits     int
	GracePeriod time.Duration

	Now func() time.Time
}

type RotateKeyRequest struct {
	// RetireExisting retires every current signer once the new key is in.
	RetireExisting bool
}

type RotateKeyResponse struct {
	NewKey      domain.SigningKey
	RetiredKeys []domain.SigningKey
	ActiveKeys  int
}

func (s *KeyRotationService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *KeyRotationService) verifyUntil(now time.Time) time.Time {
	if s.GracePeriod <= 0 {
		return now.Add(defaultKeyGracePeriod)
	}
	return now.Add(s.GracePeriod)
}

// RotateKey adds a signing key, persisting it first when a Store is set.
func (s *KeyRotationService) RotateKey(ctx context.Context, req RotateKeyRequest) (*RotateKeyResponse, error) {
	kid, pemData, signer, err := jwtx.GenerateKey(s.Algorithm, s.RSABits)
	if err != nil {
		return nil, fmt.Errorf("generate signing key: %w", err)
	}

	now := s.now()
	until := s.verifyUntil(now)
	resp := &RotateKeyResponse{NewKey: domain.SigningKey{
		ID:        idx.NewAt(now).String(),
		Kid:       kid,
		Algorithm: signer.Alg(),
		CreatedAt: now,
		ExpiresAt: until,
	}}

	var retiring []jwtx.Signer
	if req.RetireExisting {
		retiring = s.KeyManager.GetSigners()
	}
	for _, old := range retiring {
		resp.RetiredKeys = append(resp.RetiredKeys, domain.SigningKey{
			Kid:       old.KID(),
			Algorithm: old.Alg(),
			RetiredAt: &now,
			ExpiresAt: until,
		})
	}

	if s.Store != nil {
		if resp.NewKey.PrivateKeyEncrypted, err = cryptox.EncryptPrivateKey(kid, pemData); err != nil {
			return nil, fmt.Errorf("seal signing key: %w", err)
		}
		err = s.Store.WithTx(ctx, func(tx store.Tx) error {
			if err := tx.SigningKeys().CreateSigningKey(ctx, resp.NewKey); err != nil {
				return err
			}
			for _, old := range retiring {
				err := tx.SigningKeys().RetireSigningKey(ctx, old.KID(), now, until)
				if err != nil && !errors.Is(err, store.ErrNotFound) {
					return fmt.Errorf("retire %s: %w", old.KID(), err)
				}
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	if err := s.KeyManager.AddSigner(signer); err != nil {
		return nil, err
	}
	for _, old := range retiring {
		// The new signer is loaded, so this cannot be the last one.
		if err := s.KeyManager.RetireSignerByKid(old.KID()); err != nil {
			return nil, err
		}
	}
	resp.ActiveKeys = s.KeyManager.NumSigners()

	slogx.FromContext(ctx).Info("signing key rotated",
		"kid", kid,
		"retired", len(resp.RetiredKeys),
		"active", resp.ActiveKeys,
	)
	return resp, nil
}

// ListSigningKeys returns stored keys, or the loaded signers when keys are
// not persisted.
func (s *KeyRotationService) ListSigningKeys(ctx context.Context) ([]domain.SigningKey, error) {
	if s.Store != nil {
		return s.Store.SigningKeys().ListAllSigningKeys(ctx)
	}

	signers := s.KeyManager.GetSigners()
	keys := make([]domain.SigningKey, len(signers))
	for i, signer := range signers {
		keys[i] = domain.SigningKey{Kid: signer.KID(), Algorithm: signer.Alg()}
	}
	return keys, nil
}

// RetireKey stops kid from signing. The last loaded signer cannot be
// retired; rotate instead.
func (s *KeyRotationService) RetireKey(ctx context.Context, kid string) error {
	if s.Store != nil {
		key, err := s.Store.SigningKeys().GetSigningKeyByKid(ctx, kid)
		switch {
		case errors.Is(err, store.ErrNotFound):
			return ErrKeyNotFound
		case err != nil:
			return err
		case key.RetiredAt != nil:
			return ErrKeyAlreadyRetired
		}
	}

	if err := s.KeyManager.RetireSignerByKid(kid); err != nil {
		switch {
		case errors.Is(err, jwtx.ErrLastSigner):
			return ErrLastSigningKey
		case s.Store == nil:
			return fmt.Errorf("%w: %s", ErrKeyNotFound, kid)
		}
		// Stored but not among this instance's signers.
		slogx.FromContext(ctx).Warn("retiring signing key not loaded by this instance", "kid", kid)
	}

	if s.Store == nil {
		return nil
	}
	now := s.now()
	return s.Store.SigningKeys().RetireSigningKey(ctx, kid, now, s.verifyUntil(now))
}

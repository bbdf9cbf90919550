package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aussiebroadwan/tokend/internal/auth/store"
	"github.com/aussiebroadwan/tokend/pkg/cryptox"
	"github.com/aussiebroadwan/tokend/pkg/jwtx"
)

// InitAuthKeys loads or generates the token signing keys.
//
// In ephemeral mode keys live in memory and tokens signed before a restart
// stop verifying. In persistent mode keys are sealed with the master key
// and stored, and retired keys verify until their grace period ends.
func InitAuthKeys(ctx context.Context, cfg Config, db store.Store, logger *slog.Logger) (*jwtx.KeyManager, error) {
	opts := jwtx.KeyManagerOptions{
		Algorithm: cfg.Algorithm,
		Issuer:    cfg.Issuer,
		RSABits:   cfg.RSABits,
		NumKeys:   cfg.NumKeys,
	}
	log := logger.With("mode", cfg.KeyStorageMode, "algorithm", cfg.Algorithm)

	if cfg.KeyStorageMode != KeyStoragePersistent {
		km, err := jwtx.NewEphemeralKeyManager(opts)
		if err != nil {
			return nil, fmt.Errorf("generate signing keys: %w", err)
		}
		log.Warn("signing keys are in memory only, tokens will not verify after a restart",
			"num_keys", km.NumSigners())
		return km, nil
	}

	if cfg.MasterKeyPath != "" {
		cryptox.SetMasterKeyPath(cfg.MasterKeyPath)
	}
	generated, err := cryptox.MasterKeyIsEphemeral()
	if err != nil {
		return nil, err
	}
	if generated {
		log.Warn("no master key configured, stored signing keys will not open after a restart",
			"env", cryptox.MasterKeyEnv)
	}

	km, err := jwtx.NewPersistentKeyManager(ctx, jwtx.PersistentKeyManagerOptions{
		Store:       store.NewKeyStore(db.SigningKeys()),
		Algorithm:   opts.Algorithm,
		Issuer:      opts.Issuer,
		RSABits:     opts.RSABits,
		NumKeys:     opts.NumKeys,
		GracePeriod: cfg.KeyGracePeriod,
	})
	if err != nil {
		return nil, fmt.Errorf("load signing keys: %w", err)
	}
	log.Info("signing keys loaded",
		"num_keys", km.NumSigners(),
		"grace_period", cfg.KeyGracePeriod,
		"master_key_file", cfg.MasterKeyPath,
	)
	return km, nil
}

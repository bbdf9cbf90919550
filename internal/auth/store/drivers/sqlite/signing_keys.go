package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/aussiebroadwan/tokend/internal/auth/domain"
	"github.com/aussiebroadwan/tokend/internal/auth/store/drivers/sqlite/gen"
)

// signingKeysRepo stores sealed signing keys. Rows are deleted by
// DeleteExpiredSigningKeys once the public key has left the JWKS.
type signingKeysRepo struct {
	q *gen.Queries
}

func (r *signingKeysRepo) CreateSigningKey(ctx context.Context, key domain.SigningKey) error {
	return mapConstraint(r.q.CreateSigningKey(ctx, gen.CreateSigningKeyParams{
		ID:                  key.ID,
		Kid:                 key.Kid,
		Algorithm:           key.Algorithm,
		PrivateKeyEncrypted: key.PrivateKeyEncrypted,
		CreatedAt:           utc(key.CreatedAt),
		ExpiresAt:           utc(key.ExpiresAt),
	}))
}

func (r *signingKeysRepo) GetSigningKeyByKid(ctx context.Context, kid string) (domain.SigningKey, error) {
	row, err := r.q.GetSigningKeyByKid(ctx, kid)
	if err != nil {
		return domain.SigningKey{}, mapNotFound(err)
	}
	return mapSigningKey(row)
}

func (r *signingKeysRepo) ListActiveSigningKeys(ctx context.Context) ([]domain.SigningKey, error) {
	rows, err := r.q.ListActiveSigningKeys(ctx, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	return mapRows(rows, mapSigningKey)
}

func (r *signingKeysRepo) ListAllSigningKeys(ctx context.Context) ([]domain.SigningKey, error) {
	rows, err := r.q.ListAllSigningKeys(ctx)
	if err != nil {
		return nil, err
	}
	return mapRows(rows, mapSigningKey)
}

func (r *signingKeysRepo) RetireSigningKey(ctx context.Context, kid string, at, verifyUntil time.Time) error {
	return mapAffected(r.q.RetireSigningKey(ctx, gen.RetireSigningKeyParams{
		RetiredAt: sql.NullTime{Time: utc(at), Valid: true},
		ExpiresAt: utc(verifyUntil),
		Kid:       kid,
	}))
}

func (r *signingKeysRepo) DeleteExpiredSigningKeys(ctx context.Context, now time.Time) (int64, error) {
	return r.q.DeleteExpiredSigningKeys(ctx, utc(now))
}

func mapSigningKey(row gen.SigningKey) (domain.SigningKey, error) {
	return domain.SigningKey{
		ID:                  row.ID,
		Kid:                 row.Kid,
		Algorithm:           row.Algorithm,
		PrivateKeyEncrypted: row.PrivateKeyEncrypted,
		CreatedAt:           row.CreatedAt,
		RetiredAt:           mapNullTimePtr(row.RetiredAt),
		ExpiresAt:           row.ExpiresAt,
	}, nil
}

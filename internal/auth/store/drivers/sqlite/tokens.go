package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aussiebroadwan/tokend/internal/auth/domain"
	"github.com/aussiebroadwan/tokend/internal/auth/store/drivers/sqlite/gen"
	"github.com/aussiebroadwan/tokend/pkg/cryptox"
)

type tokensRepo struct {
	q    *gen.Queries
	inTx queryFunc
}

func (r *tokensRepo) CreateToken(
	ctx context.Context,
	id domain.TokenID,
	data domain.TokenData,
	refresh domain.RefreshToken,
) error {
	clientAuth, err := marshalJSON(data.ClientAuth)
	if err != nil {
		return err
	}
	params, err := marshalJSON(data.Parameters)
	if err != nil {
		return err
	}
	details, err := marshalNullJSON(data.Details)
	if err != nil {
		return err
	}

	err = r.q.CreateToken(ctx, gen.CreateTokenParams{
		ID:               string(id),
		ClientID:         data.ClientID,
		ClientAuth:       clientAuth,
		DeviceID:         mapStringNull(string(data.DeviceID)),
		Sub:              data.Sub,
		Parameters:       params,
		Details:          details,
		CodeHash:         fingerprintNull(string(data.Code)),
		RefreshTokenHash: fingerprintNull(string(refresh)),
		CreatedAt:        utc(data.CreatedAt),
		UpdatedAt:        utc(data.UpdatedAt),
		ExpiresAt:        utc(data.ExpiresAt),
	})
	return mapConstraint(err)
}

func (r *tokensRepo) ReadToken(ctx context.Context, id domain.TokenID) (domain.TokenInfo, error) {
	row, err := r.q.GetToken(ctx, string(id))
	if err != nil {
		return domain.TokenInfo{}, mapNotFound(err)
	}
	return r.hydrate(ctx, row)
}

func (r *tokensRepo) RotateToken(
	ctx context.Context,
	oldID, newID domain.TokenID,
	refresh domain.RefreshToken,
	patch domain.TokenPatch,
) error {
	clientAuth, err := marshalJSON(patch.ClientAuth)
	if err != nil {
		return err
	}
	details, err := marshalNullJSON(patch.Details)
	if err != nil {
		return err
	}

	return r.inTx(ctx, func(q *gen.Queries) error {
		row, err := q.GetToken(ctx, string(oldID))
		if err != nil {
			return mapNotFound(err)
		}

		if row.RefreshTokenHash.Valid {
			if err := q.InsertUsedRefreshToken(ctx, gen.InsertUsedRefreshTokenParams{
				TokenHash: row.RefreshTokenHash.String,
				TokenID:   row.ID,
			}); err != nil {
				return fmt.Errorf("retire refresh token: %w", mapConstraint(err))
			}
		}

		n, err := q.RotateToken(ctx, gen.RotateTokenParams{
			NewID:            string(newID),
			RefreshTokenHash: fingerprintNull(string(refresh)),
			ClientAuth:       clientAuth,
			Details:          details,
			UpdatedAt:        utc(patch.UpdatedAt),
			ExpiresAt:        utc(patch.ExpiresAt),
			ID:               string(oldID),
		})
		return mapAffected(n, mapConstraint(err))
	})
}

func (r *tokensRepo) DeleteToken(ctx context.Context, id domain.TokenID) error {
	return r.q.DeleteToken(ctx, string(id))
}

func (r *tokensRepo) FindTokenByRefreshToken(
	ctx context.Context,
	refresh domain.RefreshToken,
) (domain.RefreshTokenInfo, error) {
	hash := cryptox.FingerprintToken(string(refresh))

	row, err := r.q.GetTokenByRefreshHash(ctx, mapStringNull(hash))
	if errors.Is(err, sql.ErrNoRows) {
		var id string
		id, err = r.q.GetTokenIDByUsedRefreshHash(ctx, hash)
		if err != nil {
			return domain.RefreshTokenInfo{}, mapNotFound(err)
		}
		row, err = r.q.GetToken(ctx, id)
	}
	if err != nil {
		return domain.RefreshTokenInfo{}, mapNotFound(err)
	}

	info, err := r.hydrate(ctx, row)
	if err != nil {
		return domain.RefreshTokenInfo{}, err
	}
	return domain.RefreshTokenInfo{
		TokenInfo:          info,
		CurrentRefreshHash: mapNullString(row.RefreshTokenHash),
	}, nil
}

func (r *tokensRepo) FindTokenByCode(ctx context.Context, code domain.Code) (domain.TokenInfo, error) {
	row, err := r.q.GetTokenByCodeHash(ctx, fingerprintNull(string(code)))
	if err != nil {
		return domain.TokenInfo{}, mapNotFound(err)
	}
	return r.hydrate(ctx, row)
}

func (r *tokensRepo) DeleteStaleTokens(
	ctx context.Context,
	now time.Time,
	maxLifetime time.Duration,
) (int64, error) {
	return r.q.DeleteStaleTokens(ctx, gen.DeleteStaleTokensParams{
		LifetimeCutoff: utc(now.Add(-maxLifetime)),
		Now:            utc(now),
	})
}

// hydrate attaches the account and, for session-bound grants, the device
// account info.
func (r *tokensRepo) hydrate(ctx context.Context, row gen.Token) (domain.TokenInfo, error) {
	data, err := mapTokenData(row)
	if err != nil {
		return domain.TokenInfo{}, fmt.Errorf("decode token %s: %w", row.ID, err)
	}

	account, err := r.q.GetAccountBySub(ctx, row.Sub)
	if err != nil {
		return domain.TokenInfo{}, mapNotFound(err)
	}

	info := domain.TokenInfo{
		ID:      domain.TokenID(row.ID),
		Data:    data,
		Account: mapAccount(account),
	}

	if row.DeviceID.Valid {
		da, err := r.q.GetDeviceAccount(ctx, gen.GetDeviceAccountParams{
			DeviceID: row.DeviceID.String,
			Sub:      row.Sub,
		})
		if err != nil {
			return domain.TokenInfo{}, mapNotFound(err)
		}
		deviceInfo := mapDeviceAccount(da)
		info.Info = &deviceInfo
	}

	return info, nil
}

func fingerprintNull(secret string) sql.NullString {
	if secret == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: cryptox.FingerprintToken(secret), Valid: true}
}

func mapTokenData(row gen.Token) (domain.TokenData, error) {
	var data domain.TokenData
	if err := json.Unmarshal([]byte(row.ClientAuth), &data.ClientAuth); err != nil {
		return data, err
	}
	if err := json.Unmarshal([]byte(row.Parameters), &data.Parameters); err != nil {
		return data, err
	}
	details, err := unmarshalNullJSON[domain.AuthorizationDetail](row.Details)
	if err != nil {
		return data, err
	}

	data.CreatedAt = row.CreatedAt
	data.UpdatedAt = row.UpdatedAt
	data.ExpiresAt = row.ExpiresAt
	data.ClientID = row.ClientID
	data.DeviceID = domain.DeviceID(mapNullString(row.DeviceID))
	data.Sub = row.Sub
	data.Details = details
	return data, nil
}

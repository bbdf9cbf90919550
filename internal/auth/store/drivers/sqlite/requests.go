package sqlite

import (
	"context"
	"encoding/json"
	"time"

	"github.com/aussiebroadwan/tokend/internal/auth/domain"
	"github.com/aussiebroadwan/tokend/internal/auth/store/drivers/sqlite/gen"
	"github.com/aussiebroadwan/tokend/pkg/cryptox"
)

type requestsRepo struct {
	q *gen.Queries
}

func (r *requestsRepo) CreateRequest(ctx context.Context, req domain.AuthorizationRequest) error {
	clientAuth, err := marshalJSON(req.ClientAuth)
	if err != nil {
		return err
	}
	params, err := marshalJSON(req.Parameters)
	if err != nil {
		return err
	}

	return mapConstraint(r.q.CreateAuthorizationRequest(ctx, gen.CreateAuthorizationRequestParams{
		ID:         req.ID,
		ClientID:   req.ClientID,
		ClientAuth: clientAuth,
		Parameters: params,
		DeviceID:   mapStringNull(string(req.DeviceID)),
		Sub:        req.Sub,
		CodeHash:   req.CodeHash,
		ExpiresAt:  utc(req.ExpiresAt),
		CreatedAt:  utc(req.CreatedAt),
	}))
}

func (r *requestsRepo) ConsumeRequestByCode(
	ctx context.Context,
	code domain.Code,
) (domain.AuthorizationRequest, error) {
	row, err := r.q.ConsumeAuthorizationRequestByCodeHash(ctx, cryptox.FingerprintToken(string(code)))
	if err != nil {
		return domain.AuthorizationRequest{}, mapNotFound(err)
	}
	return mapAuthorizationRequest(row)
}

func (r *requestsRepo) DeleteExpiredRequests(ctx context.Context, now time.Time) (int64, error) {
	return r.q.DeleteExpiredAuthorizationRequests(ctx, utc(now))
}

func mapAuthorizationRequest(row gen.AuthorizationRequest) (domain.AuthorizationRequest, error) {
	req := domain.AuthorizationRequest{
		ID:        row.ID,
		ClientID:  row.ClientID,
		DeviceID:  domain.DeviceID(mapNullString(row.DeviceID)),
		Sub:       row.Sub,
		CodeHash:  row.CodeHash,
		ExpiresAt: row.ExpiresAt,
		CreatedAt: row.CreatedAt,
	}
	if err := json.Unmarshal([]byte(row.ClientAuth), &req.ClientAuth); err != nil {
		return req, err
	}
	if err := json.Unmarshal([]byte(row.Parameters), &req.Parameters); err != nil {
		return req, err
	}
	return req, nil
}

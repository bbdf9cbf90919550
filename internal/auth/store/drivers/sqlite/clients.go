package sqlite

import (
	"context"
	"encoding/json"
	"time"

	"github.com/aussiebroadwan/tokend/internal/auth/domain"
	"github.com/aussiebroadwan/tokend/internal/auth/store/drivers/sqlite/gen"
)

type clientsRepo struct {
	q *gen.Queries
}

func (r *clientsRepo) GetClientByID(ctx context.Context, id string) (domain.Client, error) {
	row, err := r.q.GetClientByID(ctx, id)
	if err != nil {
		return domain.Client{}, mapNotFound(err)
	}
	return mapClient(row)
}

func (r *clientsRepo) ListClients(ctx context.Context) ([]domain.Client, error) {
	rows, err := r.q.ListClients(ctx)
	if err != nil {
		return nil, err
	}
	return mapRows(rows, mapClient)
}

// CreateClient inserts c. A zero CreatedAt is set to now.
func (r *clientsRepo) CreateClient(ctx context.Context, c domain.Client) error {
	md, err := marshalJSON(c.Metadata)
	if err != nil {
		return err
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}

	return mapConstraint(r.q.CreateClient(ctx, gen.CreateClientParams{
		ID:         c.ID,
		Name:       c.Name,
		SecretHash: mapStringNull(c.SecretHash),
		Metadata:   md,
		FirstParty: c.FirstParty,
		Protected:  c.Protected,
		CreatedAt:  utc(c.CreatedAt),
		UpdatedAt:  utc(c.CreatedAt),
	}))
}

func (r *clientsRepo) UpdateClientSecretHash(ctx context.Context, clientID, secretHash string) error {
	return mapAffected(r.q.UpdateClientSecretHash(ctx, gen.UpdateClientSecretHashParams{
		SecretHash: mapStringNull(secretHash),
		UpdatedAt:  time.Now().UTC(),
		ID:         clientID,
	}))
}

func (r *clientsRepo) UpdateClientMetadata(ctx context.Context, clientID string, md domain.ClientMetadata) error {
	raw, err := marshalJSON(md)
	if err != nil {
		return err
	}
	return mapAffected(r.q.UpdateClientMetadata(ctx, gen.UpdateClientMetadataParams{
		Metadata:  raw,
		UpdatedAt: time.Now().UTC(),
		ID:        clientID,
	}))
}

func (r *clientsRepo) DeleteClient(ctx context.Context, clientID string) error {
	return mapAffected(r.q.DeleteClient(ctx, clientID))
}

func (r *clientsRepo) IsEmpty(ctx context.Context) (bool, error) {
	n, err := r.q.CountClients(ctx)
	return n == 0, err
}

func mapClient(row gen.Client) (domain.Client, error) {
	var md domain.ClientMetadata
	if err := json.Unmarshal([]byte(row.Metadata), &md); err != nil {
		return domain.Client{}, err
	}
	return domain.Client{
		ID:         row.ID,
		Name:       row.Name,
		SecretHash: mapNullString(row.SecretHash),
		Metadata:   md,
		FirstParty: row.FirstParty,
		Protected:  row.Protected,
		CreatedAt:  row.CreatedAt,
		UpdatedAt:  row.UpdatedAt,
	}, nil
}

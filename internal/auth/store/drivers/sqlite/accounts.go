package sqlite

import (
	"context"
	"time"

	"github.com/aussiebroadwan/tokend/internal/auth/domain"
	"github.com/aussiebroadwan/tokend/internal/auth/store/drivers/sqlite/gen"
)

type accountsRepo struct {
	q *gen.Queries
}

func (r *accountsRepo) GetAccountBySub(ctx context.Context, sub string) (domain.Account, error) {
	row, err := r.q.GetAccountBySub(ctx, sub)
	if err != nil {
		return domain.Account{}, mapNotFound(err)
	}
	return mapAccount(row), nil
}

func (r *accountsRepo) GetAccountByUsername(ctx context.Context, username string) (domain.Account, error) {
	row, err := r.q.GetAccountByUsername(ctx, username)
	if err != nil {
		return domain.Account{}, mapNotFound(err)
	}
	return mapAccount(row), nil
}

func (r *accountsRepo) CreateAccount(ctx context.Context, a domain.Account) error {
	createdAt := a.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	return mapConstraint(r.q.CreateAccount(ctx, gen.CreateAccountParams{
		Sub:          a.Sub,
		Aud:          a.Aud,
		Username:     a.Username,
		Email:        mapStringNull(a.Email),
		PasswordHash: a.PasswordHash,
		CreatedAt:    utc(createdAt),
		UpdatedAt:    utc(createdAt),
	}))
}

func (r *accountsRepo) UpdatePasswordHash(ctx context.Context, sub, hash string) error {
	return mapAffected(r.q.UpdateAccountPasswordHash(ctx, gen.UpdateAccountPasswordHashParams{
		PasswordHash: hash,
		UpdatedAt:    time.Now().UTC(),
		Sub:          sub,
	}))
}

func (r *accountsRepo) DeleteAccount(ctx context.Context, sub string) error {
	return r.q.DeleteAccount(ctx, sub)
}

func mapAccount(row gen.Account) domain.Account {
	return domain.Account{
		Sub:          row.Sub,
		Aud:          row.Aud,
		Username:     row.Username,
		Email:        mapNullString(row.Email),
		PasswordHash: row.PasswordHash,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
	}
}

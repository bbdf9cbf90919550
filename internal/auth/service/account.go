package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/aussiebroadwan/tokend/internal/auth/domain"
	"github.com/aussiebroadwan/tokend/internal/auth/store"
	"github.com/aussiebroadwan/tokend/pkg/cryptox"
	"github.com/aussiebroadwan/tokend/pkg/idx"
	"github.com/aussiebroadwan/tokend/pkg/slogx"
)

var ErrUsernameTaken = errors.New("username already taken")

// AccountService manages resource owners and their device sessions.
type AccountService struct {
	Store store.Store
}

type CreateAccountRequest struct {
	Username string
	Password string
	Email    string
	// Aud is the resource server audience for the account's tokens.
	Aud string
}

func (s *AccountService) CreateAccount(ctx context.Context, req CreateAccountRequest) (domain.Account, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" || req.Password == "" || req.Aud == "" {
		return domain.Account{}, fmt.Errorf("%w: username, password and aud required", ErrInvalidRequest)
	}

	hash, err := cryptox.HashPassword(req.Password)
	if err != nil {
		return domain.Account{}, err
	}

	now := time.Now()
	account := domain.Account{
		Sub:          idx.New().String(),
		Aud:          req.Aud,
		Username:     username,
		Email:        strings.TrimSpace(req.Email),
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.Store.Accounts().CreateAccount(ctx, account); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.Account{}, ErrUsernameTaken
		}
		return domain.Account{}, err
	}

	slogx.FromContext(ctx).Info("account created", "sub", account.Sub)
	return account, nil
}

// RevokeClientAuthorization withdraws the account's trust in clientID on a
// device. Grants already issued through the session fail their next refresh
// or introspection and are deleted then.
func (s *AccountService) RevokeClientAuthorization(ctx context.Context, deviceID domain.DeviceID, sub, clientID string) error {
	return s.Store.WithTx(ctx, func(tx store.Tx) error {
		info, err := tx.Devices().GetDeviceAccount(ctx, deviceID, sub)
		if err != nil {
			return err
		}
		info.AuthorizedClients = slices.DeleteFunc(info.AuthorizedClients, func(id string) bool { return id == clientID })
		info.UpdatedAt = time.Now()
		return tx.Devices().UpsertDeviceAccount(ctx, info)
	})
}

// SignOut ends the account's session on a device along with its grants.
func (s *AccountService) SignOut(ctx context.Context, deviceID domain.DeviceID, sub string) error {
	return s.Store.Devices().DeleteDeviceAccount(ctx, deviceID, sub)
}

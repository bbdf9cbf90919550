package service

import (
	"context"

	"github.com/aussiebroadwan/tokend/internal/auth/domain"
)

// HookContext is what a hook sees of the grant being issued or refreshed.
type HookContext struct {
	Client     domain.Client
	ClientAuth domain.ClientAuth
	Parameters domain.AuthorizationParameters
	Account    domain.Account
	Device     *domain.DeviceAccountInfo
}

// Hooks lets a deployment shape what is issued. Both are called on create
// and on every refresh.
type Hooks interface {
	// OnAuthorizationDetails returns the authorization details to snapshot
	// onto the token record.
	OnAuthorizationDetails(ctx context.Context, hc HookContext) ([]domain.AuthorizationDetail, error)

	// OnTokenResponse may add members to the response through Extra. An
	// error aborts issuance.
	OnTokenResponse(ctx context.Context, resp *domain.TokenResponse, hc HookContext) error
}

// NoopHooks passes the requested authorization details through unchanged.
type NoopHooks struct{}

func (NoopHooks) OnAuthorizationDetails(_ context.Context, hc HookContext) ([]domain.AuthorizationDetail, error) {
	return hc.Parameters.AuthorizationDetails, nil
}

func (NoopHooks) OnTokenResponse(context.Context, *domain.TokenResponse, HookContext) error {
	return nil
}

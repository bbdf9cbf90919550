package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/tokend/internal/auth/domain"
	"github.com/aussiebroadwan/tokend/internal/auth/store"
	"github.com/aussiebroadwan/tokend/pkg/cryptox"
	"github.com/aussiebroadwan/tokend/pkg/dpopx"
	"github.com/aussiebroadwan/tokend/pkg/slogx"
)

// Provider is the token endpoint: it authenticates the client, checks any
// DPoP proof and dispatches on grant_type.
type Provider struct {
	Store   store.Store
	Tokens  *TokenManager
	Clients *ClientAuthenticator
	DPoP    *dpopx.Verifier

	Issuer string
	// TokenEndpoint is the htu DPoP proofs at the token endpoint must carry.
	TokenEndpoint string
	// PasswordGrant enables the resource owner password grant.
	PasswordGrant bool
	// IntrospectionFloor is the least time a failed introspection takes.
	IntrospectionFloor time.Duration

	Now func() time.Time
}

// TokenRequest is a parsed token endpoint request.
type TokenRequest struct {
	GrantType   string
	Credentials ClientCredentials
	DPoPProof   string

	Code         string
	CodeVerifier string
	RedirectURI  string

	RefreshToken string

	Username string
	Password string
	Scope    string
}

func (p *Provider) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

// Token handles a token endpoint request.
func (p *Provider) Token(ctx context.Context, req TokenRequest) (*domain.TokenResponse, error) {
	switch req.GrantType {
	case "":
		return nil, fmt.Errorf("%w: grant_type required", ErrInvalidRequest)
	case domain.GrantAuthorizationCode, domain.GrantRefreshToken:
	case domain.GrantPassword:
		if !p.PasswordGrant {
			return nil, fmt.Errorf("%w: %q", ErrUnsupportedGrantType, req.GrantType)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedGrantType, req.GrantType)
	}

	client, auth, err := p.Clients.Authenticate(ctx, req.Credentials)
	if err != nil {
		return nil, err
	}

	jkt, err := p.verifyProof(req.DPoPProof)
	if err != nil {
		return nil, err
	}

	switch req.GrantType {
	case domain.GrantAuthorizationCode:
		return p.redeemCode(ctx, client, auth, jkt, req)
	case domain.GrantRefreshToken:
		return p.Tokens.Refresh(ctx, RefreshInput{
			Client:       client,
			ClientAuth:   auth,
			RefreshToken: domain.RefreshToken(req.RefreshToken),
			DPoPJKT:      jkt,
		})
	default:
		return p.passwordGrant(ctx, client, auth, jkt, req)
	}
}

func (p *Provider) verifyProof(proof string) (string, error) {
	if proof == "" {
		return "", nil
	}
	if p.DPoP == nil {
		return "", fmt.Errorf("%w: dpop not supported", ErrInvalidDPoPProof)
	}
	verified, err := p.DPoP.Verify(proof, http.MethodPost, p.TokenEndpoint, "")
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidDPoPProof, err)
	}
	return verified.JKT, nil
}

// redeemCode exchanges an authorization code. Any failure burns whatever
// was already issued from the code.
func (p *Provider) redeemCode(ctx context.Context, client domain.Client, auth domain.ClientAuth, jkt string, req TokenRequest) (*domain.TokenResponse, error) {
	if !domain.IsCode(req.Code) {
		return nil, fmt.Errorf("%w: malformed code", ErrInvalidGrant)
	}
	code := domain.Code(req.Code)

	resp, err := p.exchangeCode(ctx, client, auth, jkt, code, req)
	if err != nil {
		if rerr := p.Tokens.Revoke(ctx, string(code)); rerr != nil {
			slogx.FromContext(ctx).Error("failed to revoke by code after failed redemption",
				slog.String("client_id", client.ID), slog.String("err", rerr.Error()))
		}
		return nil, err
	}
	return resp, nil
}

func (p *Provider) exchangeCode(ctx context.Context, client domain.Client, auth domain.ClientAuth, jkt string, code domain.Code, req TokenRequest) (*domain.TokenResponse, error) {
	pending, err := p.Store.Requests().ConsumeRequestByCode(ctx, code)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: unknown or used code", ErrInvalidGrant)
		}
		return nil, err
	}
	if pending.ClientID != client.ID {
		return nil, fmt.Errorf("%w: code issued to another client", ErrInvalidGrant)
	}
	if pending.IsExpired(p.now()) {
		return nil, fmt.Errorf("%w: code expired", ErrInvalidGrant)
	}

	account, err := p.Store.Accounts().GetAccountBySub(ctx, pending.Sub)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: account no longer exists", ErrInvalidGrant)
		}
		return nil, err
	}

	var device *domain.DeviceAccountInfo
	if pending.DeviceID != "" {
		info, err := p.Store.Devices().GetDeviceAccount(ctx, pending.DeviceID, pending.Sub)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, fmt.Errorf("%w: device session ended", ErrInvalidGrant)
			}
			return nil, err
		}
		device = &info
	}

	return p.Tokens.Create(ctx, CreateInput{
		Client:     client,
		ClientAuth: auth,
		Account:    account,
		Device:     device,
		Parameters: pending.Parameters,
		Grant: GrantInput{
			GrantType:    domain.GrantAuthorizationCode,
			Code:         code,
			CodeVerifier: req.CodeVerifier,
			RedirectURI:  req.RedirectURI,
		},
		DPoPJKT: jkt,
	})
}

func (p *Provider) passwordGrant(ctx context.Context, client domain.Client, auth domain.ClientAuth, jkt string, req TokenRequest) (*domain.TokenResponse, error) {
	if req.Username == "" || req.Password == "" {
		return nil, fmt.Errorf("%w: username and password required", ErrInvalidRequest)
	}
	if !client.AllowsScope(req.Scope) {
		return nil, ErrInvalidScope
	}

	account, err := p.Store.Accounts().GetAccountByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: bad credentials", ErrInvalidGrant)
		}
		return nil, err
	}
	if cryptox.VerifyPassword(req.Password, account.PasswordHash) != nil {
		slogx.FromContext(ctx).Info("password grant rejected", slog.String("client_id", client.ID))
		return nil, fmt.Errorf("%w: bad credentials", ErrInvalidGrant)
	}

	return p.Tokens.Create(ctx, CreateInput{
		Client:     client,
		ClientAuth: auth,
		Account:    account,
		Parameters: domain.AuthorizationParameters{
			ClientID: client.ID,
			Scope:    req.Scope,
		},
		Grant:   GrantInput{GrantType: domain.GrantPassword},
		DPoPJKT: jkt,
	})
}

// Introspect answers an RFC 7662 request from an authenticated client.
// Anything but a live token the client may see is reported inactive, no
// sooner than IntrospectionFloor.
func (p *Provider) Introspect(ctx context.Context, creds ClientCredentials, token string) (domain.Introspection, error) {
	start := p.now()

	client, auth, err := p.Clients.Authenticate(ctx, creds)
	if err != nil {
		return domain.Introspection{}, err
	}
	if auth.Method == domain.AuthMethodNone {
		return domain.Introspection{}, fmt.Errorf("%w: introspection requires client authentication", ErrInvalidClient)
	}

	info, err := p.Tokens.ClientTokenInfo(ctx, client, auth, token)
	if err != nil {
		if !IsSecurityDenial(err) && !errors.Is(err, ErrInvalidToken) {
			return domain.Introspection{}, err
		}
		if err := p.waitFloor(ctx, start); err != nil {
			return domain.Introspection{}, err
		}
		return domain.Introspection{Active: false}, nil
	}

	out := domain.Introspection{
		Active:               true,
		Scope:                info.Data.Parameters.Scope,
		ClientID:             info.Data.ClientID,
		Username:             info.Account.Username,
		TokenType:            domain.TokenTypeBearer,
		Exp:                  info.Data.ExpiresAt.Unix(),
		Iat:                  info.Data.UpdatedAt.Unix(),
		Sub:                  info.Data.Sub,
		Aud:                  info.Account.Aud,
		Iss:                  p.Issuer,
		Jti:                  string(info.ID),
		AuthorizationDetails: info.Data.Details,
	}
	if jkt := info.Data.Parameters.DPoPJKT; jkt != "" {
		out.TokenType = domain.TokenTypeDPoP
		out.Cnf = &domain.Confirmation{JKT: jkt}
	}
	return out, nil
}

func (p *Provider) waitFloor(ctx context.Context, start time.Time) error {
	wait := p.IntrospectionFloor - p.now().Sub(start)
	if wait <= 0 {
		return nil
	}
	t := time.NewTimer(wait)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/aussiebroadwan/tokend/internal/auth/domain"
	"github.com/aussiebroadwan/tokend/internal/auth/store"
	"github.com/aussiebroadwan/tokend/pkg/cryptox"
	"github.com/aussiebroadwan/tokend/pkg/idx"
	"github.com/aussiebroadwan/tokend/pkg/slogx"
)

// AuthorizeService issues authorization codes after a password login.
type AuthorizeService struct {
	Store   store.Store
	Issuer  string
	CodeTTL time.Duration

	Now func() time.Time
}

// AuthorizeRequest is an authorization endpoint request.
type AuthorizeRequest struct {
	ResponseType        string
	ClientID            string
	RedirectURI         string
	Scope               string
	State               string
	Nonce               string
	CodeChallenge       string
	CodeChallengeMethod string
	DPoPJKT             string

	Username string
	Password string
	Remember bool

	// DeviceID is the device session the browser already holds, if any.
	DeviceID  domain.DeviceID
	UserAgent string
	IPAddress string
}

// AuthorizeCodeResponse is where to send the browser next.
type AuthorizeCodeResponse struct {
	Code        domain.Code
	RedirectURL string
	DeviceID    domain.DeviceID
}

func (s *AuthorizeService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// ValidateRequest checks an authorization request against the client's
// registration and returns the parameters that will be snapshotted onto the
// grant. On error, a non-empty params.RedirectURI is registered for the
// client and may receive the error response.
func (s *AuthorizeService) ValidateRequest(ctx context.Context, req AuthorizeRequest) (domain.Client, domain.AuthorizationParameters, error) {
	clientID := strings.TrimSpace(req.ClientID)
	if clientID == "" {
		return domain.Client{}, domain.AuthorizationParameters{}, fmt.Errorf("%w: client_id required", ErrInvalidRequest)
	}

	client, err := s.Store.Clients().GetClientByID(ctx, clientID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Client{}, domain.AuthorizationParameters{}, ErrInvalidClient
		}
		return domain.Client{}, domain.AuthorizationParameters{}, err
	}

	params := domain.AuthorizationParameters{
		ClientID:     client.ID,
		ResponseType: strings.Join(strings.Fields(req.ResponseType), " "),
		Scope:        strings.Join(strings.Fields(req.Scope), " "),
		State:        req.State,
		Nonce:        req.Nonce,
		DPoPJKT:      strings.TrimSpace(req.DPoPJKT),
	}

	// Resolved first: once RedirectURI is set, errors may be sent there.
	params.RedirectURI, err = resolveRedirectURI(client, strings.TrimSpace(req.RedirectURI))
	if err != nil {
		return client, params, err
	}

	if !params.HasResponseType("code") {
		return client, params, fmt.Errorf("%w: response_type must include code", ErrInvalidRequest)
	}
	if rt := client.Metadata.ResponseTypes; len(rt) > 0 && !slices.Contains(rt, params.ResponseType) {
		return client, params, fmt.Errorf("%w: response_type %q not registered", ErrUnauthorizedClient, params.ResponseType)
	}
	if !client.AllowsGrant(domain.GrantAuthorizationCode) {
		return client, params, fmt.Errorf("%w: authorization_code grant not allowed", ErrUnauthorizedClient)
	}

	if !client.AllowsScope(params.Scope) {
		return client, params, ErrInvalidScope
	}

	params.CodeChallenge, params.CodeChallengeMethod, err = normalizePKCE(req.CodeChallenge, req.CodeChallengeMethod)
	if err != nil {
		return client, params, err
	}
	return client, params, nil
}

func resolveRedirectURI(client domain.Client, requested string) (string, error) {
	registered := client.Metadata.RedirectURIs
	if requested == "" {
		if len(registered) == 1 {
			return registered[0], nil
		}
		return "", fmt.Errorf("%w: redirect_uri required", ErrInvalidRequest)
	}
	if !slices.Contains(registered, requested) {
		return "", fmt.Errorf("%w: redirect_uri not registered", ErrInvalidRequest)
	}
	return requested, nil
}

// Authorize logs the account in on the device, authorizes the client for
// that session and issues a single-use code.
func (s *AuthorizeService) Authorize(ctx context.Context, req AuthorizeRequest) (*AuthorizeCodeResponse, error) {
	l := slogx.FromContext(ctx)

	client, params, err := s.ValidateRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	username := strings.TrimSpace(req.Username)
	if username == "" || req.Password == "" {
		return nil, ErrLoginRequired
	}

	account, err := s.Store.Accounts().GetAccountByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			l.Info("authorize: unknown username", slog.String("client_id", client.ID))
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if cryptox.VerifyPassword(req.Password, account.PasswordHash) != nil {
		l.Info("authorize: bad password", slog.String("client_id", client.ID), slog.String("sub", account.Sub))
		return nil, ErrInvalidCredentials
	}

	now := s.now()
	deviceID := req.DeviceID
	if !domain.IsDeviceID(string(deviceID)) {
		if deviceID, err = domain.NewDeviceID(); err != nil {
			return nil, err
		}
	}

	code, err := domain.NewCode()
	if err != nil {
		return nil, err
	}

	ttl := s.CodeTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Devices().UpsertDevice(ctx, domain.Device{
			ID:         deviceID,
			UserAgent:  req.UserAgent,
			IPAddress:  req.IPAddress,
			CreatedAt:  now,
			LastSeenAt: now,
		}); err != nil {
			return err
		}

		info, err := tx.Devices().GetDeviceAccount(ctx, deviceID, account.Sub)
		switch {
		case errors.Is(err, store.ErrNotFound):
			info = domain.DeviceAccountInfo{DeviceID: deviceID, Sub: account.Sub, CreatedAt: now}
		case err != nil:
			return err
		}
		info.AuthenticatedAt = now
		info.UpdatedAt = now
		info.Remember = info.Remember || req.Remember
		if !info.IsClientAuthorized(client.ID) {
			info.AuthorizedClients = append(info.AuthorizedClients, client.ID)
		}
		if err := tx.Devices().UpsertDeviceAccount(ctx, info); err != nil {
			return err
		}

		return tx.Requests().CreateRequest(ctx, domain.AuthorizationRequest{
			ID:         idx.New().String(),
			ClientID:   client.ID,
			Parameters: params,
			DeviceID:   deviceID,
			Sub:        account.Sub,
			CodeHash:   cryptox.FingerprintToken(string(code)),
			ExpiresAt:  now.Add(ttl),
			CreatedAt:  now,
		})
	})
	if err != nil {
		return nil, err
	}

	redirect, err := url.Parse(params.RedirectURI)
	if err != nil {
		return nil, fmt.Errorf("%w: redirect_uri: %v", ErrInvalidRequest, err)
	}
	q := redirect.Query()
	q.Set("code", string(code))
	if params.State != "" {
		q.Set("state", params.State)
	}
	if s.Issuer != "" {
		q.Set("iss", s.Issuer)
	}
	redirect.RawQuery = q.Encode()

	l.Info("authorization code issued", slog.String("client_id", client.ID), slog.String("sub", account.Sub))
	return &AuthorizeCodeResponse{
		Code:        code,
		RedirectURL: redirect.String(),
		DeviceID:    deviceID,
	}, nil
}

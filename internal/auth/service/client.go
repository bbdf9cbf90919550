package service

import (
	"context"
	"encoding/json"
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
	"github.com/go-jose/go-jose/v4"
)

var (
	ErrClientNotFound  = errors.New("client not found")
	ErrClientProtected = errors.New("client is protected and cannot be deleted")
)

type ClientService struct {
	Store store.Store
}

// CreateClientRequest registers a client. Name and at least one redirect
// URI are required for the authorization_code grant.
type CreateClientRequest struct {
	Name       string
	Metadata   domain.ClientMetadata
	FirstParty bool
	Protected  bool
}

// CreateClient registers a client. For client_secret_* methods a secret is
// generated and returned once.
func (s *ClientService) CreateClient(ctx context.Context, req CreateClientRequest) (domain.Client, string, error) {
	l := slogx.FromContext(ctx)

	md, err := normalizeMetadata(req.Metadata)
	if err != nil {
		return domain.Client{}, "", err
	}
	if strings.TrimSpace(req.Name) == "" {
		return domain.Client{}, "", fmt.Errorf("%w: name required", ErrInvalidRequest)
	}

	var secret, secretHash string
	switch md.TokenEndpointAuthMethod {
	case domain.AuthMethodClientSecretBasic, domain.AuthMethodClientSecretPost:
		if secret, err = cryptox.GenerateToken(cryptox.TokenSize256); err != nil {
			return domain.Client{}, "", err
		}
		if secretHash, err = cryptox.HashPassword(secret); err != nil {
			return domain.Client{}, "", err
		}
	}

	now := time.Now()
	client := domain.Client{
		ID:         idx.New().String(),
		Name:       strings.TrimSpace(req.Name),
		SecretHash: secretHash,
		Metadata:   md,
		FirstParty: req.FirstParty,
		Protected:  req.Protected,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.Store.Clients().CreateClient(ctx, client); err != nil {
		return domain.Client{}, "", err
	}

	l.Info("client created",
		"client_id", client.ID,
		"auth_method", md.TokenEndpointAuthMethod,
		"first_party", client.FirstParty)
	return client, secret, nil
}

func normalizeMetadata(md domain.ClientMetadata) (domain.ClientMetadata, error) {
	if md.TokenEndpointAuthMethod == "" {
		md.TokenEndpointAuthMethod = domain.AuthMethodClientSecretBasic
	}
	if len(md.GrantTypes) == 0 {
		md.GrantTypes = []string{domain.GrantAuthorizationCode}
	}
	if len(md.ResponseTypes) == 0 {
		md.ResponseTypes = []string{"code"}
	}

	switch md.TokenEndpointAuthMethod {
	case domain.AuthMethodNone, domain.AuthMethodClientSecretBasic, domain.AuthMethodClientSecretPost:
	case domain.AuthMethodPrivateKeyJWT:
		var set jose.JSONWebKeySet
		if len(md.JWKS) == 0 || json.Unmarshal(md.JWKS, &set) != nil || len(set.Keys) == 0 {
			return md, fmt.Errorf("%w: private_key_jwt requires a jwks", ErrInvalidRequest)
		}
		for _, k := range set.Keys {
			if !k.IsPublic() {
				return md, fmt.Errorf("%w: jwks must only hold public keys", ErrInvalidRequest)
			}
		}
	default:
		return md, fmt.Errorf("%w: unsupported token_endpoint_auth_method %q", ErrInvalidRequest, md.TokenEndpointAuthMethod)
	}

	for _, g := range md.GrantTypes {
		switch g {
		case domain.GrantAuthorizationCode, domain.GrantRefreshToken, domain.GrantPassword:
		default:
			return md, fmt.Errorf("%w: unsupported grant type %q", ErrInvalidRequest, g)
		}
	}
	if slices.Contains(md.GrantTypes, domain.GrantAuthorizationCode) && len(md.RedirectURIs) == 0 {
		return md, fmt.Errorf("%w: redirect_uris required", ErrInvalidRequest)
	}
	return md, nil
}

func (s *ClientService) ListClients(ctx context.Context) ([]domain.Client, error) {
	return s.Store.Clients().ListClients(ctx)
}

// DeleteClient removes a client and every grant issued to it.
func (s *ClientService) DeleteClient(ctx context.Context, clientID string) error {
	l := slogx.FromContext(ctx)

	client, err := s.Store.Clients().GetClientByID(ctx, clientID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrClientNotFound
		}
		return err
	}
	if client.Protected {
		l.Warn("attempted to delete protected client", "client_id", clientID)
		return ErrClientProtected
	}

	if err := s.Store.Clients().DeleteClient(ctx, clientID); err != nil {
		return err
	}
	l.Info("client deleted", "client_id", clientID)
	return nil
}

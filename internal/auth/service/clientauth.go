package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/aussiebroadwan/tokend/internal/auth/domain"
	"github.com/aussiebroadwan/tokend/internal/auth/store"
	"github.com/aussiebroadwan/tokend/pkg/cryptox"
	"github.com/aussiebroadwan/tokend/pkg/dpopx"
	"github.com/aussiebroadwan/tokend/pkg/slogx"
	"github.com/go-jose/go-jose/v4"
	"github.com/golang-jwt/jwt/v5"
	"github.com/jellydator/ttlcache/v3"
)

// ClientAssertionType is the only client_assertion_type accepted for
// private_key_jwt.
const ClientAssertionType = "urn:ietf:params:oauth:client-assertion-type:jwt-bearer"

const assertionLeeway = 5 * time.Second

// ClientCredentials is what a request presented to authenticate a client.
// Basic is set when the secret came from the Authorization header.
type ClientCredentials struct {
	ClientID      string
	Secret        string
	Basic         bool
	AssertionType string
	Assertion     string
}

// ClientAuthenticator resolves and authenticates clients at the token,
// revocation and introspection endpoints.
type ClientAuthenticator struct {
	clients  store.Clients
	audience []string
	now      func() time.Time

	mu   sync.Mutex
	seen *ttlcache.Cache[string, struct{}]
}

// NewClientAuthenticator accepts assertions addressed to any of audience,
// normally the issuer and the token endpoint URL.
func NewClientAuthenticator(clients store.Clients, audience ...string) *ClientAuthenticator {
	return &ClientAuthenticator{
		clients:  clients,
		audience: audience,
		now:      time.Now,
		seen: ttlcache.New(
			ttlcache.WithDisableTouchOnHit[string, struct{}](),
		),
	}
}

// Start runs the replay cache eviction loop until Stop is called.
func (a *ClientAuthenticator) Start() { a.seen.Start() }

func (a *ClientAuthenticator) Stop() { a.seen.Stop() }

// Authenticate returns the client and how it authenticated. The method used
// must be the one the client registered.
func (a *ClientAuthenticator) Authenticate(ctx context.Context, creds ClientCredentials) (domain.Client, domain.ClientAuth, error) {
	l := slogx.FromContext(ctx)

	clientID := creds.ClientID
	if clientID == "" && creds.Assertion != "" {
		clientID = assertionSubject(creds.Assertion)
	}
	if clientID == "" {
		return domain.Client{}, domain.ClientAuth{}, fmt.Errorf("%w: client_id required", ErrInvalidClient)
	}

	client, err := a.clients.GetClientByID(ctx, clientID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Client{}, domain.ClientAuth{}, fmt.Errorf("%w: unknown client", ErrInvalidClient)
		}
		return domain.Client{}, domain.ClientAuth{}, err
	}

	method := presentedMethod(creds)
	if method != client.Metadata.TokenEndpointAuthMethod {
		l.Info("client authentication method mismatch",
			slog.String("client_id", client.ID),
			slog.String("presented", method),
			slog.String("registered", client.Metadata.TokenEndpointAuthMethod))
		return domain.Client{}, domain.ClientAuth{}, fmt.Errorf("%w: %s not allowed", ErrInvalidClient, method)
	}

	switch method {
	case domain.AuthMethodNone:
		return client, domain.ClientAuth{Method: method}, nil

	case domain.AuthMethodClientSecretBasic, domain.AuthMethodClientSecretPost:
		if client.SecretHash == "" || cryptox.VerifyPassword(creds.Secret, client.SecretHash) != nil {
			l.Info("client secret rejected", slog.String("client_id", client.ID))
			return domain.Client{}, domain.ClientAuth{}, fmt.Errorf("%w: bad secret", ErrInvalidClient)
		}
		return client, domain.ClientAuth{Method: method}, nil

	case domain.AuthMethodPrivateKeyJWT:
		auth, err := a.verifyAssertion(client, creds)
		if err != nil {
			l.Info("client assertion rejected", slog.String("client_id", client.ID), slog.String("err", err.Error()))
			return domain.Client{}, domain.ClientAuth{}, err
		}
		return client, auth, nil

	default:
		return domain.Client{}, domain.ClientAuth{}, fmt.Errorf("%w: unsupported method %q", ErrInvalidClient, method)
	}
}

// ValidateClientAuth reports whether a stored ClientAuth is still
// acceptable for client. For private_key_jwt the key it was captured from
// must still be registered.
func (a *ClientAuthenticator) ValidateClientAuth(client domain.Client, stored domain.ClientAuth) bool {
	if stored.Method != client.Metadata.TokenEndpointAuthMethod {
		return false
	}
	if stored.Method != domain.AuthMethodPrivateKeyJWT {
		return true
	}

	set, err := clientKeySet(client)
	if err != nil {
		return false
	}
	for i := range set.Keys {
		jkt, err := dpopx.Thumbprint(&set.Keys[i])
		if err == nil && jkt == stored.JKT {
			return true
		}
	}
	return false
}

func presentedMethod(creds ClientCredentials) string {
	switch {
	case creds.Assertion != "" || creds.AssertionType != "":
		return domain.AuthMethodPrivateKeyJWT
	case creds.Basic:
		return domain.AuthMethodClientSecretBasic
	case creds.Secret != "":
		return domain.AuthMethodClientSecretPost
	default:
		return domain.AuthMethodNone
	}
}

func (a *ClientAuthenticator) verifyAssertion(client domain.Client, creds ClientCredentials) (domain.ClientAuth, error) {
	if creds.AssertionType != ClientAssertionType {
		return domain.ClientAuth{}, fmt.Errorf("%w: unsupported client_assertion_type", ErrInvalidClient)
	}

	set, err := clientKeySet(client)
	if err != nil {
		return domain.ClientAuth{}, fmt.Errorf("%w: %v", ErrInvalidClient, err)
	}

	var used *jose.JSONWebKey
	keyFunc := func(t *jwt.Token) (any, error) {
		kid, _ := t.Header["kid"].(string)
		for i := range set.Keys {
			k := &set.Keys[i]
			if kid != "" && k.KeyID != kid {
				continue
			}
			if k.Algorithm != "" && k.Algorithm != t.Method.Alg() {
				continue
			}
			used = k
			return k.Key, nil
		}
		return nil, errors.New("no matching client key")
	}

	var claims jwt.RegisteredClaims
	_, err = jwt.NewParser(
		jwt.WithValidMethods([]string{"RS256", "RS384", "RS512", "PS256", "PS384", "PS512", "ES256", "ES384", "ES512", "EdDSA"}),
		jwt.WithIssuer(client.ID),
		jwt.WithSubject(client.ID),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(assertionLeeway),
		jwt.WithTimeFunc(a.now),
	).ParseWithClaims(creds.Assertion, &claims, keyFunc)
	if err != nil {
		return domain.ClientAuth{}, fmt.Errorf("%w: %v", ErrInvalidClient, err)
	}

	if !slices.ContainsFunc(a.audience, func(aud string) bool { return slices.Contains(claims.Audience, aud) }) {
		return domain.ClientAuth{}, fmt.Errorf("%w: assertion audience", ErrInvalidClient)
	}
	if claims.ID == "" {
		return domain.ClientAuth{}, fmt.Errorf("%w: assertion jti required", ErrInvalidClient)
	}
	if err := a.remember(client.ID+":"+claims.ID, claims.ExpiresAt.Time); err != nil {
		return domain.ClientAuth{}, err
	}

	jkt, err := dpopx.Thumbprint(used)
	if err != nil {
		return domain.ClientAuth{}, fmt.Errorf("%w: %v", ErrInvalidClient, err)
	}
	return domain.ClientAuth{
		Method: domain.AuthMethodPrivateKeyJWT,
		JKT:    jkt,
		Alg:    used.Algorithm,
		KID:    used.KeyID,
	}, nil
}

func (a *ClientAuthenticator) remember(key string, exp time.Time) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.seen.Get(key) != nil {
		return fmt.Errorf("%w: assertion replayed", ErrInvalidClient)
	}
	ttl := exp.Sub(a.now()) + assertionLeeway
	if ttl <= 0 {
		ttl = assertionLeeway
	}
	a.seen.Set(key, struct{}{}, ttl)
	return nil
}

func clientKeySet(client domain.Client) (jose.JSONWebKeySet, error) {
	var set jose.JSONWebKeySet
	if len(client.Metadata.JWKS) == 0 {
		return set, errors.New("client has no jwks")
	}
	if err := json.Unmarshal(client.Metadata.JWKS, &set); err != nil {
		return set, fmt.Errorf("client jwks: %w", err)
	}
	return set, nil
}

// assertionSubject reads sub from an unverified assertion so the client can
// be looked up; the signature is checked afterwards against that client.
func assertionSubject(assertion string) string {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(assertion, &claims); err != nil {
		return ""
	}
	return claims.Subject
}

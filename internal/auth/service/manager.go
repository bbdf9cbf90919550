package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/tokend/internal/auth/domain"
	"github.com/aussiebroadwan/tokend/internal/auth/store"
	"github.com/aussiebroadwan/tokend/pkg/cryptox"
	"github.com/aussiebroadwan/tokend/pkg/jwtx"
	"github.com/aussiebroadwan/tokend/pkg/slogx"
	"github.com/golang-jwt/jwt/v5"
)

// AccessTokenMode selects the access token representation.
type AccessTokenMode string

const (
	// AccessTokenAuto issues JWTs only when the account's resource server is
	// not the issuer itself.
	AccessTokenAuto   AccessTokenMode = "auto"
	AccessTokenJWT    AccessTokenMode = "jwt"
	AccessTokenOpaque AccessTokenMode = "opaque"
)

func ParseAccessTokenMode(s string) (AccessTokenMode, error) {
	switch m := AccessTokenMode(s); m {
	case AccessTokenAuto, AccessTokenJWT, AccessTokenOpaque:
		return m, nil
	case "":
		return AccessTokenAuto, nil
	default:
		return "", fmt.Errorf("unknown access token mode %q", s)
	}
}

// ClientAuthValidator re-checks a stored ClientAuth against the client's
// current registration.
type ClientAuthValidator interface {
	ValidateClientAuth(client domain.Client, stored domain.ClientAuth) bool
}

// TokenManager is the token lifecycle engine. It holds no mutable state.
type TokenManager struct {
	Tokens    store.Tokens
	Signer    Signer
	Clients   ClientAuthValidator
	Hooks     Hooks
	Lifetimes Lifetimes
	Mode      AccessTokenMode
	Metrics   *Metrics

	// Now overrides the clock in tests.
	Now func() time.Time
}

// GrantInput is the grant-specific part of a token request.
type GrantInput struct {
	GrantType    string
	Code         domain.Code
	CodeVerifier string
	RedirectURI  string
}

type CreateInput struct {
	Client     domain.Client
	ClientAuth domain.ClientAuth
	Account    domain.Account
	Device     *domain.DeviceAccountInfo
	Parameters domain.AuthorizationParameters
	Grant      GrantInput
	// DPoPJKT is the thumbprint of the proof sent with the request, if any.
	DPoPJKT string
}

type RefreshInput struct {
	Client       domain.Client
	ClientAuth   domain.ClientAuth
	RefreshToken domain.RefreshToken
	DPoPJKT      string
}

func (m *TokenManager) now() time.Time {
	if m.Now != nil {
		return m.Now()
	}
	return time.Now()
}

func (m *TokenManager) hooks() Hooks {
	if m.Hooks == nil {
		return NoopHooks{}
	}
	return m.Hooks
}

// Create issues a new grant.
func (m *TokenManager) Create(ctx context.Context, in CreateInput) (*domain.TokenResponse, error) {
	l := slogx.FromContext(ctx)
	params := in.Parameters

	if in.Client.Metadata.DPoPBoundAccessTokens && in.DPoPJKT == "" {
		return nil, fmt.Errorf("%w: client requires dpop bound tokens", ErrDPoPRequired)
	}

	switch {
	case params.DPoPJKT == "":
		params.DPoPJKT = in.DPoPJKT
	case in.DPoPJKT == "":
		return nil, fmt.Errorf("%w: authorization was dpop bound", ErrDPoPRequired)
	case in.DPoPJKT != params.DPoPJKT:
		l.Warn("dpop key does not match authorization binding", slog.String("client_id", in.Client.ID))
		return nil, fmt.Errorf("%w: proof key differs from authorization", ErrInvalidDPoPKeyBinding)
	}

	if in.ClientAuth.Method == domain.AuthMethodPrivateKeyJWT && params.DPoPJKT != "" && in.ClientAuth.JKT == params.DPoPJKT {
		return nil, fmt.Errorf("%w: dpop key must differ from client authentication key", ErrInvalidRequest)
	}

	if !in.Client.AllowsGrant(in.Grant.GrantType) {
		return nil, fmt.Errorf("%w: grant_type %q not allowed for client", ErrInvalidRequest, in.Grant.GrantType)
	}

	switch in.Grant.GrantType {
	case domain.GrantAuthorizationCode:
		if err := checkCodeGrant(in.Client, params, in.Grant); err != nil {
			return nil, err
		}
	case domain.GrantPassword:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedGrantType, in.Grant.GrantType)
	}

	if in.Grant.Code != "" {
		prior, err := m.Tokens.FindTokenByCode(ctx, in.Grant.Code)
		switch {
		case err == nil:
			l.Warn("authorization code replayed",
				slog.String("client_id", in.Client.ID),
				slog.String("sub", prior.Data.Sub),
				slog.String("token_id", string(prior.ID)))
			if derr := m.Tokens.DeleteToken(ctx, prior.ID); derr != nil {
				return nil, derr
			}
			m.Metrics.grantDenied("code_replay")
			return nil, fmt.Errorf("%w: authorization code already used", ErrAccessDenied)
		case !errors.Is(err, store.ErrNotFound):
			return nil, err
		}
	}

	now := m.now()
	id, err := domain.NewTokenID()
	if err != nil {
		return nil, err
	}
	var refresh domain.RefreshToken
	if params.HasScope(domain.ScopeOfflineAccess) && in.Client.AllowsGrant(domain.GrantRefreshToken) {
		if refresh, err = domain.NewRefreshToken(); err != nil {
			return nil, err
		}
	}

	hc := HookContext{
		Client:     in.Client,
		ClientAuth: in.ClientAuth,
		Parameters: params,
		Account:    in.Account,
		Device:     in.Device,
	}
	details, err := m.hooks().OnAuthorizationDetails(ctx, hc)
	if err != nil {
		return nil, err
	}

	data := domain.TokenData{
		CreatedAt:  now,
		UpdatedAt:  now,
		ExpiresAt:  now.Add(m.Lifetimes.TokenMaxAge),
		ClientID:   in.Client.ID,
		ClientAuth: in.ClientAuth,
		Sub:        in.Account.Sub,
		Parameters: params,
		Details:    details,
		Code:       in.Grant.Code,
	}
	if in.Device != nil {
		data.DeviceID = in.Device.DeviceID
	}

	if err := m.Tokens.CreateToken(ctx, id, data, refresh); err != nil {
		return nil, err
	}

	resp, err := m.mint(ctx, mintInput{hook: hc, id: id, data: data, refresh: refresh, now: now})
	if err != nil {
		if derr := m.Tokens.DeleteToken(ctx, id); derr != nil {
			l.Error("failed to delete token after issuance error", slog.String("token_id", string(id)), slog.String("err", derr.Error()))
		}
		return nil, err
	}

	m.Metrics.tokenIssued(in.Grant.GrantType)
	l.Info("token issued",
		slog.String("client_id", in.Client.ID),
		slog.String("sub", in.Account.Sub),
		slog.String("grant_type", in.Grant.GrantType))
	return resp, nil
}

func checkCodeGrant(client domain.Client, params domain.AuthorizationParameters, grant GrantInput) error {
	if params.CodeChallenge == "" || params.CodeChallengeMethod == "" {
		if grant.CodeVerifier != "" {
			return fmt.Errorf("%w: code_verifier without code_challenge", ErrInvalidRequest)
		}
		return fmt.Errorf("%w: code_challenge required", ErrInvalidRequest)
	}

	redirectURI := grant.RedirectURI
	if redirectURI == "" && len(client.Metadata.RedirectURIs) == 1 {
		redirectURI = client.Metadata.RedirectURIs[0]
	}
	if redirectURI != params.RedirectURI {
		return fmt.Errorf("%w: redirect_uri mismatch", ErrInvalidGrant)
	}

	return verifyPKCE(params.CodeChallenge, params.CodeChallengeMethod, grant.CodeVerifier)
}

// Refresh rotates a grant. A stale refresh token burns the grant.
func (m *TokenManager) Refresh(ctx context.Context, in RefreshInput) (*domain.TokenResponse, error) {
	l := slogx.FromContext(ctx)

	if !in.Client.AllowsGrant(domain.GrantRefreshToken) {
		return nil, fmt.Errorf("%w: refresh_token grant not allowed", ErrUnauthorizedClient)
	}
	if !domain.IsRefreshToken(string(in.RefreshToken)) {
		return nil, fmt.Errorf("%w: malformed refresh token", ErrInvalidGrant)
	}

	found, err := m.Tokens.FindTokenByRefreshToken(ctx, in.RefreshToken)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: unknown refresh token", ErrInvalidGrant)
		}
		return nil, err
	}
	info := found.TokenInfo
	if found.CurrentRefreshHash == "" {
		return nil, fmt.Errorf("%w: grant is not refreshable", ErrInvalidGrant)
	}
	if !cryptox.FingerprintsEqual(cryptox.FingerprintToken(string(in.RefreshToken)), found.CurrentRefreshHash) {
		l.Warn("refresh token replayed",
			slog.String("client_id", in.Client.ID),
			slog.String("sub", info.Data.Sub),
			slog.String("token_id", string(info.ID)))
		return nil, m.burn(ctx, info.ID, "refresh_replay", fmt.Errorf("%w: refresh token replayed", ErrInvalidGrant))
	}

	now := m.now()
	tier := m.Lifetimes.TierFor(in.Client, in.ClientAuth)
	if err := m.checkRefresh(ctx, in, info, tier, now); err != nil {
		if IsSecurityDenial(err) {
			l.Warn("refresh denied",
				slog.String("client_id", in.Client.ID),
				slog.String("sub", info.Data.Sub),
				slog.String("token_id", string(info.ID)),
				slog.String("err", err.Error()))
			return nil, m.burn(ctx, info.ID, denialReason(err), err)
		}
		return nil, err
	}

	hc := HookContext{
		Client:     in.Client,
		ClientAuth: in.ClientAuth,
		Parameters: info.Data.Parameters,
		Account:    info.Account,
		Device:     info.Info,
	}
	details, err := m.hooks().OnAuthorizationDetails(ctx, hc)
	if err != nil {
		return nil, err
	}

	newID, err := domain.NewTokenID()
	if err != nil {
		return nil, err
	}
	refresh, err := domain.NewRefreshToken()
	if err != nil {
		return nil, err
	}
	patch := domain.TokenPatch{
		UpdatedAt:  now,
		ExpiresAt:  now.Add(m.Lifetimes.TokenMaxAge),
		ClientAuth: in.ClientAuth,
		Details:    details,
	}
	if err := m.Tokens.RotateToken(ctx, info.ID, newID, refresh, patch); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: grant no longer exists", ErrInvalidGrant)
		}
		return nil, err
	}

	data := info.Data
	data.UpdatedAt = patch.UpdatedAt
	data.ExpiresAt = patch.ExpiresAt
	data.ClientAuth = patch.ClientAuth
	data.Details = details

	resp, err := m.mint(ctx, mintInput{hook: hc, id: newID, data: data, refresh: refresh, now: now, refreshed: true})
	if err != nil {
		return nil, err
	}

	m.Metrics.tokenRefreshed(tierName(in.Client, in.ClientAuth))
	l.Debug("token refreshed", slog.String("client_id", in.Client.ID), slog.String("sub", info.Data.Sub))
	return resp, nil
}

func (m *TokenManager) checkRefresh(ctx context.Context, in RefreshInput, info domain.TokenInfo, tier Tier, now time.Time) error {
	if err := m.ValidateAccess(ctx, in.Client, in.ClientAuth, info); err != nil {
		return err
	}

	if jkt := info.Data.Parameters.DPoPJKT; jkt != "" {
		if in.DPoPJKT == "" {
			return fmt.Errorf("%w: grant is dpop bound", ErrDPoPRequired)
		}
		if in.DPoPJKT != jkt {
			return fmt.Errorf("%w: proof key differs from grant", ErrInvalidDPoPKeyBinding)
		}
	}

	if now.Sub(info.Data.UpdatedAt) > tier.Inactivity {
		return fmt.Errorf("%w: grant inactive too long", ErrInvalidGrant)
	}
	if now.Sub(info.Data.CreatedAt) > tier.Total {
		return fmt.Errorf("%w: grant lifetime exceeded", ErrInvalidGrant)
	}
	return nil
}

// ValidateAccess checks that client may act on the grant in info.
func (m *TokenManager) ValidateAccess(ctx context.Context, client domain.Client, clientAuth domain.ClientAuth, info domain.TokenInfo) error {
	if info.Data.ClientID != client.ID {
		return fmt.Errorf("%w: token belongs to another client", ErrAccessDenied)
	}
	if info.Info != nil && !info.Info.IsClientAuthorized(client.ID) {
		return fmt.Errorf("%w: client no longer authorized by account", ErrAccessDenied)
	}
	if clientAuth.Method != info.Data.ClientAuth.Method {
		return fmt.Errorf("%w: client authentication method changed", ErrAccessDenied)
	}
	if m.Clients != nil && !m.Clients.ValidateClientAuth(client, info.Data.ClientAuth) {
		return fmt.Errorf("%w: client credential no longer valid", ErrAccessDenied)
	}
	return nil
}

// Revoke deletes whatever grant token identifies. Unknown or invalid input
// is not an error.
func (m *TokenManager) Revoke(ctx context.Context, token string) error {
	return m.revoke(ctx, token, "")
}

// RevokeForClient is Revoke on behalf of clientID. Grants issued to another
// client are left alone and no error is reported, so the caller learns
// nothing about tokens it does not own.
func (m *TokenManager) RevokeForClient(ctx context.Context, clientID, token string) error {
	return m.revoke(ctx, token, clientID)
}

func (m *TokenManager) revoke(ctx context.Context, token, clientID string) error {
	kind := domain.ClassifyToken(token)
	m.Metrics.revoked(kind.String())

	id, owner, err := m.grantOf(ctx, kind, token)
	if err != nil || id == "" {
		return ignoreNotFound(err)
	}

	if clientID != "" {
		if owner == "" {
			info, err := m.Tokens.ReadToken(ctx, id)
			if err != nil {
				return ignoreNotFound(err)
			}
			owner = info.Data.ClientID
		}
		if owner != clientID {
			slogx.FromContext(ctx).Warn("revocation of another client's grant ignored",
				slog.String("client_id", clientID), slog.String("token_id", string(id)))
			return nil
		}
	}
	return m.Tokens.DeleteToken(ctx, id)
}

// grantOf resolves token to its grant id, and to the owning client when the
// lookup already read the record.
func (m *TokenManager) grantOf(ctx context.Context, kind domain.TokenKind, token string) (domain.TokenID, string, error) {
	switch kind {
	case domain.KindTokenID:
		return domain.TokenID(token), "", nil

	case domain.KindJWT:
		var claims jwt.RegisteredClaims
		if err := m.Signer.Verify(token, &claims, jwtx.VerifyOptions{IgnoreExpiry: true}); err != nil {
			return "", "", nil
		}
		if !domain.IsTokenID(claims.ID) {
			return "", "", nil
		}
		return domain.TokenID(claims.ID), "", nil

	case domain.KindRefreshToken:
		found, err := m.Tokens.FindTokenByRefreshToken(ctx, domain.RefreshToken(token))
		if err != nil {
			return "", "", err
		}
		return found.ID, found.Data.ClientID, nil

	case domain.KindCode:
		found, err := m.Tokens.FindTokenByCode(ctx, domain.Code(token))
		if err != nil {
			return "", "", err
		}
		return found.ID, found.Data.ClientID, nil

	default:
		return "", "", nil
	}
}

// GetTokenInfo reads a live record. Expired records are deleted.
func (m *TokenManager) GetTokenInfo(ctx context.Context, tokenType string, id domain.TokenID) (domain.TokenInfo, error) {
	if !domain.IsTokenID(string(id)) {
		return domain.TokenInfo{}, invalidToken(tokenType, "invalid token")
	}

	info, err := m.Tokens.ReadToken(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.TokenInfo{}, invalidToken(tokenType, "invalid token")
		}
		return domain.TokenInfo{}, err
	}

	if info.Data.IsExpired(m.now()) {
		if !m.refreshable(info) {
			if err := m.Tokens.DeleteToken(ctx, id); err != nil {
				slogx.FromContext(ctx).Error("failed to delete expired token",
					slog.String("token_id", string(id)), slog.String("err", err.Error()))
			}
		}
		return domain.TokenInfo{}, expiredToken(tokenType)
	}
	return info, nil
}

// AuthenticateTokenID authenticates an opaque access token.
func (m *TokenManager) AuthenticateTokenID(ctx context.Context, tokenType string, id domain.TokenID, dpopJKT string, opts VerifyOptions) (*jwtx.AccessClaims, error) {
	info, err := m.GetTokenInfo(ctx, tokenType, id)
	if err != nil {
		return nil, err
	}

	claims := accessClaims(info.ID, info.Data, info.Account)
	if err := VerifyTokenClaims(tokenType, claims, dpopJKT, opts, m.now()); err != nil {
		return nil, err
	}
	return claims, nil
}

// AuthenticateAccessToken authenticates an opaque or JWT access token. A
// JWT is only accepted while its record exists.
func (m *TokenManager) AuthenticateAccessToken(ctx context.Context, tokenType, token, dpopJKT string, opts VerifyOptions) (*jwtx.AccessClaims, error) {
	switch domain.ClassifyToken(token) {
	case domain.KindTokenID:
		return m.AuthenticateTokenID(ctx, tokenType, domain.TokenID(token), dpopJKT, opts)

	case domain.KindJWT:
		claims, err := m.Signer.VerifyAccessToken(token, jwtx.VerifyOptions{
			Audience: opts.Audience,
			Leeway:   opts.ClockTolerance,
		})
		if err != nil {
			if errors.Is(err, jwtx.ErrExpired) {
				return nil, expiredToken(tokenType)
			}
			return nil, invalidToken(tokenType, "invalid token")
		}
		if _, err := m.GetTokenInfo(ctx, tokenType, domain.TokenID(claims.ID)); err != nil {
			return nil, err
		}
		if err := VerifyTokenClaims(tokenType, &claims, dpopJKT, opts, m.now()); err != nil {
			return nil, err
		}
		return &claims, nil

	default:
		return nil, invalidToken(tokenType, "invalid token")
	}
}

// ClientTokenInfo resolves token for introspection by client. A grant the
// client may no longer act on is deleted.
func (m *TokenManager) ClientTokenInfo(ctx context.Context, client domain.Client, clientAuth domain.ClientAuth, token string) (domain.TokenInfo, error) {
	info, err := m.findTokenInfo(ctx, token)
	if err != nil {
		return domain.TokenInfo{}, err
	}

	if err := m.ValidateAccess(ctx, client, clientAuth, info); err != nil {
		slogx.FromContext(ctx).Warn("introspection denied",
			slog.String("client_id", client.ID),
			slog.String("token_id", string(info.ID)),
			slog.String("err", err.Error()))
		return domain.TokenInfo{}, m.burn(ctx, info.ID, denialReason(err), err)
	}

	if info.Data.IsExpired(m.now()) {
		return domain.TokenInfo{}, fmt.Errorf("%w: token expired", ErrInvalidGrant)
	}
	return info, nil
}

func (m *TokenManager) findTokenInfo(ctx context.Context, token string) (domain.TokenInfo, error) {
	var (
		info domain.TokenInfo
		err  error
	)

	switch domain.ClassifyToken(token) {
	case domain.KindTokenID:
		info, err = m.Tokens.ReadToken(ctx, domain.TokenID(token))

	case domain.KindJWT:
		claims, verr := m.Signer.VerifyAccessToken(token, jwtx.VerifyOptions{})
		if verr != nil || !domain.IsTokenID(claims.ID) {
			return domain.TokenInfo{}, fmt.Errorf("%w: invalid token", ErrInvalidGrant)
		}
		info, err = m.Tokens.ReadToken(ctx, domain.TokenID(claims.ID))
		if err != nil {
			break
		}
		if len(claims.Audience) != 1 || claims.Audience[0] != info.Account.Aud {
			return domain.TokenInfo{}, fmt.Errorf("%w: audience mismatch", ErrInvalidGrant)
		}
		if claims.Subject != info.Data.Sub {
			slogx.FromContext(ctx).Error("jwt subject does not match token record", slog.String("token_id", string(info.ID)))
			if derr := m.Tokens.DeleteToken(ctx, info.ID); derr != nil {
				return domain.TokenInfo{}, derr
			}
			return domain.TokenInfo{}, errors.New("token subject mismatch")
		}

	case domain.KindRefreshToken:
		var found domain.RefreshTokenInfo
		found, err = m.Tokens.FindTokenByRefreshToken(ctx, domain.RefreshToken(token))
		if err != nil {
			break
		}
		if found.CurrentRefreshHash == "" ||
			!cryptox.FingerprintsEqual(cryptox.FingerprintToken(token), found.CurrentRefreshHash) {
			return domain.TokenInfo{}, fmt.Errorf("%w: stale refresh token", ErrInvalidGrant)
		}
		info = found.TokenInfo

	default:
		return domain.TokenInfo{}, fmt.Errorf("%w: token is not introspectable", ErrInvalidGrant)
	}

	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.TokenInfo{}, fmt.Errorf("%w: unknown token", ErrInvalidGrant)
		}
		return domain.TokenInfo{}, err
	}
	return info, nil
}

// burn deletes a grant after a security denial and returns cause.
func (m *TokenManager) burn(ctx context.Context, id domain.TokenID, reason string, cause error) error {
	if err := m.Tokens.DeleteToken(ctx, id); err != nil {
		slogx.FromContext(ctx).Error("failed to delete denied grant",
			slog.String("token_id", string(id)), slog.String("err", err.Error()))
	}
	m.Metrics.grantDenied(reason)
	return cause
}

// refreshable reports whether an expired access token still has a refresh
// secret keeping the grant alive. GetTokenInfo keeps such records on an
// expired read: ExpiresAt tracks the access token only, and deleting the
// record would kill a refresh secret that is still valid. The housekeeper
// removes them once the grant outlives the maximum lifetime.
func (m *TokenManager) refreshable(info domain.TokenInfo) bool {
	return info.Data.Parameters.HasScope(domain.ScopeOfflineAccess)
}

type mintInput struct {
	hook      HookContext
	id        domain.TokenID
	data      domain.TokenData
	refresh   domain.RefreshToken
	now       time.Time
	refreshed bool
}

func (m *TokenManager) mint(ctx context.Context, in mintInput) (*domain.TokenResponse, error) {
	params := in.data.Parameters
	account := in.hook.Account

	access := string(in.id)
	if m.useJWT(account) {
		claims := accessClaims(in.id, in.data, account)
		claims.IssuedAt = jwt.NewNumericDate(in.now)
		if len(in.data.Details) > 0 {
			raw, err := json.Marshal(in.data.Details)
			if err != nil {
				return nil, err
			}
			claims.AuthorizationDetails = raw
		}
		var err error
		if access, err = m.Signer.AccessToken(in.hook.Client, params, account, *claims); err != nil {
			return nil, err
		}
	}

	resp := &domain.TokenResponse{
		AccessToken:          access,
		TokenType:            domain.TokenTypeBearer,
		ExpiresAt:            in.data.ExpiresAt,
		RefreshToken:         in.refresh,
		Scope:                params.Scope,
		AuthorizationDetails: in.data.Details,
		Sub:                  account.Sub,
		Now:                  in.now,
	}
	if params.DPoPJKT != "" {
		resp.TokenType = domain.TokenTypeDPoP
	}

	if params.HasResponseType("id_token") || params.HasScope(domain.ScopeOpenID) {
		idToken, err := m.idToken(in, access)
		if err != nil {
			return nil, err
		}
		resp.IDToken = idToken
	}

	if err := m.hooks().OnTokenResponse(ctx, resp, in.hook); err != nil {
		return nil, err
	}
	return resp, nil
}

func (m *TokenManager) idToken(in mintInput, accessToken string) (string, error) {
	params := in.data.Parameters
	account := in.hook.Account

	authTime := in.now
	if in.hook.Device != nil && !in.hook.Device.AuthenticatedAt.IsZero() {
		authTime = in.hook.Device.AuthenticatedAt
	}

	claims := jwtx.IDTokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   account.Sub,
			IssuedAt:  jwt.NewNumericDate(in.now),
			ExpiresAt: jwt.NewNumericDate(in.data.ExpiresAt),
		},
		AuthTime: jwt.NewNumericDate(authTime),
	}
	if !in.refreshed {
		claims.Nonce = params.Nonce
	}
	if params.HasScope("email") {
		claims.Email = account.Email
	}
	if params.HasScope("profile") {
		claims.PreferredUsername = account.Username
	}

	input := IDTokenInput{Claims: claims, AccessToken: accessToken}
	if !in.refreshed {
		input.Code = in.data.Code
	}
	return m.Signer.IDToken(in.hook.Client, params, account, input)
}

func (m *TokenManager) useJWT(account domain.Account) bool {
	switch m.Mode {
	case AccessTokenJWT:
		return true
	case AccessTokenOpaque:
		return false
	default:
		return m.Signer.Issuer() != account.Aud
	}
}

func accessClaims(id domain.TokenID, data domain.TokenData, account domain.Account) *jwtx.AccessClaims {
	claims := &jwtx.AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   data.Sub,
			Audience:  jwt.ClaimStrings{account.Aud},
			ExpiresAt: jwt.NewNumericDate(data.ExpiresAt),
			IssuedAt:  jwt.NewNumericDate(data.UpdatedAt),
			ID:        string(id),
		},
		Scope:    data.Parameters.Scope,
		ClientID: data.ClientID,
	}
	if jkt := data.Parameters.DPoPJKT; jkt != "" {
		claims.Cnf = &jwtx.Confirmation{JKT: jkt}
	}
	return claims
}

func denialReason(err error) string {
	switch {
	case errors.Is(err, ErrInvalidDPoPKeyBinding):
		return "dpop_binding"
	case errors.Is(err, ErrAccessDenied):
		return "access_denied"
	case errors.Is(err, ErrUnauthorizedClient):
		return "unauthorized_client"
	default:
		return "invalid_grant"
	}
}

func ignoreNotFound(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	return err
}

package authsdk

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"
)

// ErrNoRefreshToken is returned when an expired session cannot refresh.
var ErrNoRefreshToken = errors.New("authsdk: session has no refresh token")

// refreshEarly renews access tokens this long before the server expires
// them.
const refreshEarly = 30 * time.Second

// grant is an immutable snapshot of a session's tokens.
type grant struct {
	TokenResponse
	renewAt time.Time
	scopes  []string
}

// Session holds a token pair and refreshes the access token once it nears
// expiry. It is safe for concurrent use; concurrent refreshes are merged
// into one token request, since each refresh rotates the refresh token.
type Session struct {
	client  *SDKClient
	current atomic.Pointer[grant]
	refresh singleflight.Group
}

func newSession(client *SDKClient, tokens *TokenResponse) *Session {
	s := &Session{client: client}
	s.store(nil, tokens)
	return s
}

// store replaces the snapshot. Tokens the response omits carry over from
// prev.
func (s *Session) store(prev *grant, tokens *TokenResponse) *grant {
	g := &grant{
		TokenResponse: *tokens,
		renewAt:       time.Now().Add(time.Duration(tokens.ExpiresIn)*time.Second - refreshEarly),
		scopes:        strings.Fields(tokens.Scope),
	}
	if prev != nil {
		if g.RefreshToken == "" {
			g.RefreshToken = prev.RefreshToken
		}
		if g.IDToken == "" {
			g.IDToken = prev.IDToken
		}
	}
	s.current.Store(g)
	return g
}

// rotate exchanges the refresh token of seen. Callers that observed the
// same snapshot share one request.
func (s *Session) rotate(ctx context.Context, seen *grant) (*grant, error) {
	v, err, _ := s.refresh.Do(seen.RefreshToken, func() (any, error) {
		if g := s.current.Load(); g != seen {
			return g, nil
		}
		if seen.RefreshToken == "" {
			return nil, ErrNoRefreshToken
		}
		tokens, err := s.client.RefreshGrant(ctx, seen.RefreshToken)
		if err != nil {
			return nil, fmt.Errorf("authsdk: refresh session: %w", err)
		}
		return s.store(seen, tokens), nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*grant), nil
}

// validGrant returns a snapshot whose access token is not about to expire.
func (s *Session) validGrant(ctx context.Context) (*grant, error) {
	g := s.current.Load()
	if time.Now().Before(g.renewAt) {
		return g, nil
	}
	return s.rotate(ctx, g)
}

// Refresh rotates the refresh token now, regardless of expiry.
func (s *Session) Refresh(ctx context.Context) error {
	_, err := s.rotate(ctx, s.current.Load())
	return err
}

// Revoke revokes the session's grant, which invalidates every token of it.
func (s *Session) Revoke(ctx context.Context) error {
	g := s.current.Load()
	token := g.RefreshToken
	if token == "" {
		token = g.AccessToken
	}
	return s.client.RevokeToken(ctx, token)
}

// AccessToken returns the current access token, expired or not.
func (s *Session) AccessToken() string { return s.current.Load().AccessToken }

// TokenType returns "Bearer" or "DPoP".
func (s *Session) TokenType() string { return s.current.Load().TokenType }

func (s *Session) RefreshToken() string { return s.current.Load().RefreshToken }

// IDToken returns the most recent ID token, if openid was granted.
func (s *Session) IDToken() string { return s.current.Load().IDToken }

// HasScope reports whether scope was granted.
func (s *Session) HasScope(scope string) bool {
	return slices.Contains(s.current.Load().scopes, scope)
}

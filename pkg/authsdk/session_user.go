package authsdk

import (
	"context"
	"net/http"
)

// GetUserInfo calls the OIDC userinfo endpoint. preferred_username and
// email are only filled when the profile and email scopes were granted.
func (s *Session) GetUserInfo(ctx context.Context) (*UserInfoResponse, error) {
	return expect[UserInfoResponse](http.StatusOK)(s.doAuthRequest(ctx, http.MethodGet, "/v1/userinfo", nil))
}

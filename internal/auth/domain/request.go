package domain

import "time"

// AuthorizationRequest is a pending authorization code. It is consumed
// exactly once, successful or not.
type AuthorizationRequest struct {
	ID         string
	ClientID   string
	ClientAuth ClientAuth
	Parameters AuthorizationParameters
	DeviceID   DeviceID
	Sub        string
	CodeHash   string // sha256 fingerprint of the code
	ExpiresAt  time.Time
	CreatedAt  time.Time
}

func (r AuthorizationRequest) IsExpired(now time.Time) bool {
	return !now.Before(r.ExpiresAt)
}

package domain

import (
	"slices"
	"time"
)

// Account is a resource owner. Aud is the audience of the resource server
// that hosts the account, used as the aud claim of its access tokens.
type Account struct {
	Sub          string
	Aud          string
	Username     string
	Email        string
	PasswordHash string // argon2 encoded
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// DeviceAccountInfo links an account to a device session.
type DeviceAccountInfo struct {
	DeviceID          DeviceID
	Sub               string
	AuthenticatedAt   time.Time
	AuthorizedClients []string
	Remember          bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// IsClientAuthorized reports whether the account still trusts clientID on
// this device.
func (i DeviceAccountInfo) IsClientAuthorized(clientID string) bool {
	return slices.Contains(i.AuthorizedClients, clientID)
}

// Device is a browser/device session.
type Device struct {
	ID         DeviceID
	UserAgent  string
	IPAddress  string
	CreatedAt  time.Time
	LastSeenAt time.Time
}

package store

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/tokend/internal/auth/domain"
)

//go:generate mockgen -destination=storemock/mock_tokens.go -package=storemock github.com/aussiebroadwan/tokend/internal/auth/store Tokens

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Repos are the repositories bound to one database handle or transaction.
type Repos interface {
	Tokens() Tokens
	Clients() Clients
	Accounts() Accounts
	Devices() Devices
	Requests() Requests
	SigningKeys() SigningKeys
}

// Tx is the view of a Store handed to a WithTx callback. Nested
// transactions are not available through it.
type Tx = Repos

// Store is implemented by each database driver.
type Store interface {
	Repos

	// WithTx runs fn in a read/write transaction. It commits when fn
	// returns nil and rolls back otherwise.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	ApplyMigrations() error
	Ping(ctx context.Context) error
	Close() error
}

// Tokens persists token records. Refresh tokens and codes are handed in as
// plaintext and stored as fingerprints; every refresh secret ever issued to
// a record keeps resolving to it until the record is deleted.
type Tokens interface {
	// CreateToken inserts a new record. refresh may be empty.
	CreateToken(ctx context.Context, id domain.TokenID, data domain.TokenData, refresh domain.RefreshToken) error

	// ReadToken returns the hydrated record or ErrNotFound.
	ReadToken(ctx context.Context, id domain.TokenID) (domain.TokenInfo, error)

	// RotateToken atomically renames the record to newID, retires its current
	// refresh secret, installs refresh as the current one and applies patch.
	// Returns ErrNotFound when oldID no longer exists.
	RotateToken(ctx context.Context, oldID, newID domain.TokenID, refresh domain.RefreshToken, patch domain.TokenPatch) error

	// DeleteToken removes a record. Deleting a missing record is not an error.
	DeleteToken(ctx context.Context, id domain.TokenID) error

	// FindTokenByRefreshToken resolves current and rotated-away secrets.
	FindTokenByRefreshToken(ctx context.Context, refresh domain.RefreshToken) (domain.RefreshTokenInfo, error)

	// FindTokenByCode returns the record issued from code, if any.
	FindTokenByCode(ctx context.Context, code domain.Code) (domain.TokenInfo, error)

	// DeleteStaleTokens removes records older than maxLifetime and
	// non-refreshable records whose access token has expired.
	DeleteStaleTokens(ctx context.Context, now time.Time, maxLifetime time.Duration) (int64, error)
}

type Clients interface {
	// GetClientByID fetches a client.
	GetClientByID(ctx context.Context, id string) (domain.Client, error)

	// ListClients returns all clients ordered by creation date (newest first).
	ListClients(ctx context.Context) ([]domain.Client, error)

	// CreateClient inserts a new client (secret_hash may be empty for public clients).
	CreateClient(ctx context.Context, c domain.Client) error

	UpdateClientSecretHash(ctx context.Context, clientID, secretHash string) error
	UpdateClientMetadata(ctx context.Context, clientID string, md domain.ClientMetadata) error

	// DeleteClient cascades to tokens and pending requests. Protected clients
	// are never deleted (ErrNotFound).
	DeleteClient(ctx context.Context, clientID string) error

	// IsEmpty returns true if there are no clients.
	IsEmpty(ctx context.Context) (bool, error)
}

type Accounts interface {
	GetAccountBySub(ctx context.Context, sub string) (domain.Account, error)

	// GetAccountByUsername is used during password login.
	GetAccountByUsername(ctx context.Context, username string) (domain.Account, error)

	// CreateAccount returns ErrAlreadyExists when the username is taken.
	CreateAccount(ctx context.Context, a domain.Account) error

	UpdatePasswordHash(ctx context.Context, sub, hash string) error

	// DeleteAccount cascades to device sessions and tokens.
	DeleteAccount(ctx context.Context, sub string) error
}

type Devices interface {
	// UpsertDevice creates the device or refreshes its last-seen metadata.
	UpsertDevice(ctx context.Context, d domain.Device) error

	GetDevice(ctx context.Context, id domain.DeviceID) (domain.Device, error)

	// UpsertDeviceAccount records or updates an account's session on a device.
	UpsertDeviceAccount(ctx context.Context, info domain.DeviceAccountInfo) error

	GetDeviceAccount(ctx context.Context, deviceID domain.DeviceID, sub string) (domain.DeviceAccountInfo, error)

	// DeleteDeviceAccount signs the account out of the device, removing every
	// token issued through that session.
	DeleteDeviceAccount(ctx context.Context, deviceID domain.DeviceID, sub string) error
}

type Requests interface {
	// CreateRequest stores a pending authorization code.
	CreateRequest(ctx context.Context, req domain.AuthorizationRequest) error

	// ConsumeRequestByCode deletes and returns the pending request for code.
	// A second call for the same code returns ErrNotFound.
	ConsumeRequestByCode(ctx context.Context, code domain.Code) (domain.AuthorizationRequest, error)

	// DeleteExpiredRequests is housekeeping.
	DeleteExpiredRequests(ctx context.Context, now time.Time) (int64, error)
}

type SigningKeys interface {
	// CreateSigningKey stores a new signing key with encrypted private key material.
	CreateSigningKey(ctx context.Context, key domain.SigningKey) error

	// GetSigningKeyByKid fetches a signing key by its key identifier.
	GetSigningKeyByKid(ctx context.Context, kid string) (domain.SigningKey, error)

	// ListActiveSigningKeys returns all non-retired, non-expired signing keys
	// ordered by creation date (newest first).
	ListActiveSigningKeys(ctx context.Context) ([]domain.SigningKey, error)

	// ListAllSigningKeys returns all signing keys (including retired and expired)
	// ordered by creation date (newest first). Used for verification during grace period.
	ListAllSigningKeys(ctx context.Context) ([]domain.SigningKey, error)

	// RetireSigningKey stops kid from signing at the given time. Its
	// public key stays published until verifyUntil. Already retired or
	// unknown keys return ErrNotFound.
	RetireSigningKey(ctx context.Context, kid string, at, verifyUntil time.Time) error

	// DeleteExpiredSigningKeys removes all keys that have passed their expires_at timestamp.
	DeleteExpiredSigningKeys(ctx context.Context, now time.Time) (int64, error)
}

package domain

import "time"

// KeyStatus is the lifecycle stage of a signing key.
type KeyStatus string

const (
	KeyStatusActive  KeyStatus = "active"  // signs and verifies
	KeyStatusRetired KeyStatus = "retired" // verifies only
	KeyStatusExpired KeyStatus = "expired" // awaiting cleanup
)

// SigningKey is a persisted token signing key. The private key PEM is
// sealed with the master key and the kid as associated data.
type SigningKey struct {
	ID                  string
	Kid                 string
	Algorithm           string
	PrivateKeyEncrypted []byte
	CreatedAt           time.Time
	RetiredAt           *time.Time
	// ExpiresAt is when the public key leaves the JWKS. Zero for keys
	// that only live in memory.
	ExpiresAt time.Time
}

// Status reports where k is in its lifecycle at now.
func (k SigningKey) Status(now time.Time) KeyStatus {
	switch {
	case !k.ExpiresAt.IsZero() && !now.Before(k.ExpiresAt):
		return KeyStatusExpired
	case k.RetiredAt != nil:
		return KeyStatusRetired
	default:
		return KeyStatusActive
	}
}

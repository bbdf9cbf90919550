// Package idx generates the sortable identifiers used for stored records:
// accounts, clients, authorization requests and signing keys, and request
// ids in logs. They are ULIDs: 48 bits of millisecond time then 80 random
// bits, so ids sort by creation time.
package idx

import (
	"crypto/rand"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// ID is a canonical 26 character ULID string.
type ID string

// ErrInvalid reports a malformed ULID string.
var ErrInvalid = errors.New("idx: invalid ulid")

// Monotonic entropy keeps ids generated in the same millisecond ordered.
var source = struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}{entropy: ulid.Monotonic(rand.Reader, 0)}

// New returns an ID for the current time.
func New() ID {
	return NewAt(time.Now())
}

// NewAt returns an ID carrying t, truncated to the millisecond.
func NewAt(t time.Time) ID {
	source.mu.Lock()
	defer source.mu.Unlock()
	return ID(ulid.MustNew(ulid.Timestamp(t), source.entropy).String())
}

// Parse validates s, accepting either case.
func Parse(s string) (ID, error) {
	u, err := ulid.ParseStrict(strings.TrimSpace(s))
	if err != nil {
		return "", ErrInvalid
	}
	return ID(u.String()), nil
}

func (id ID) String() string { return string(id) }

// Time is the creation time embedded in id, zero if id is not a ULID.
func (id ID) Time() time.Time {
	u, err := ulid.ParseStrict(string(id))
	if err != nil {
		return time.Time{}
	}
	return ulid.Time(u.Time()).UTC()
}

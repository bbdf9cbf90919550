package service

import (
	"time"

	"github.com/aussiebroadwan/tokend/internal/auth/domain"
)

// Tier bounds how long a refresh grant may live.
type Tier struct {
	// Inactivity is the longest allowed gap between refreshes.
	Inactivity time.Duration
	// Total is the longest a grant may be kept alive by refreshing.
	Total time.Duration
}

// Lifetimes is the token lifetime policy. A single-tier deployment sets all
// three tiers to the same values.
type Lifetimes struct {
	TokenMaxAge  time.Duration
	Public       Tier
	Confidential Tier
	FirstParty   Tier
}

func DefaultLifetimes() Lifetimes {
	return Lifetimes{
		TokenMaxAge:  60 * time.Minute,
		Public:       Tier{Inactivity: 48 * time.Hour, Total: 7 * 24 * time.Hour},
		Confidential: Tier{Inactivity: 30 * 24 * time.Hour, Total: 365 * 24 * time.Hour},
		FirstParty:   Tier{Inactivity: 90 * 24 * time.Hour, Total: 730 * 24 * time.Hour},
	}
}

// TierFor picks the tier from how the client authenticated, not from what
// it registered: an unauthenticated presentation is always public.
func (l Lifetimes) TierFor(client domain.Client, auth domain.ClientAuth) Tier {
	switch tierName(client, auth) {
	case tierPublic:
		return l.Public
	case tierFirstParty:
		return l.FirstParty
	default:
		return l.Confidential
	}
}

const (
	tierPublic       = "public"
	tierConfidential = "confidential"
	tierFirstParty   = "first_party"
)

func tierName(client domain.Client, auth domain.ClientAuth) string {
	switch {
	case auth.Method == domain.AuthMethodNone:
		return tierPublic
	case client.FirstParty:
		return tierFirstParty
	default:
		return tierConfidential
	}
}

// MaxTotal is the longest any grant can live, used to sweep stale records.
func (l Lifetimes) MaxTotal() time.Duration {
	return max(l.Public.Total, l.Confidential.Total, l.FirstParty.Total)
}

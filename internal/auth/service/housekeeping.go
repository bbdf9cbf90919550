package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/tokend/internal/auth/store"
)

// HousekeepingService sweeps records that can no longer be used: stale
// tokens, unredeemed authorization requests and expired signing keys.
// Correctness never depends on it; expiry is also enforced on read.
type HousekeepingService struct {
	Store     store.Store
	Tokens    store.Tokens
	Logger    *slog.Logger
	Interval  time.Duration
	Lifetimes Lifetimes

	Now func() time.Time
}

// NewHousekeepingService defaults interval to one hour. tokens may be a
// different engine from st.
func NewHousekeepingService(st store.Store, tokens store.Tokens, logger *slog.Logger, interval time.Duration, lifetimes Lifetimes) *HousekeepingService {
	if interval <= 0 {
		interval = time.Hour
	}
	if tokens == nil {
		tokens = st.Tokens()
	}
	return &HousekeepingService{
		Store:     st,
		Tokens:    tokens,
		Logger:    logger,
		Interval:  interval,
		Lifetimes: lifetimes,
	}
}

// Run sweeps immediately and then every Interval until ctx is done.
func (s *HousekeepingService) Run(ctx context.Context) error {
	s.Logger.Info("housekeeping started", slog.Duration("interval", s.Interval))

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	s.Cleanup(ctx)
	for {
		select {
		case <-ticker.C:
			s.Cleanup(ctx)
		case <-ctx.Done():
			s.Logger.Info("housekeeping stopped")
			return nil
		}
	}
}

// Cleanup runs one sweep. Each step is independent of the others.
func (s *HousekeepingService) Cleanup(ctx context.Context) {
	now := time.Now()
	if s.Now != nil {
		now = s.Now()
	}

	if n, err := s.Tokens.DeleteStaleTokens(ctx, now, s.Lifetimes.MaxTotal()); err != nil {
		s.Logger.Error("failed to delete stale tokens", slog.String("err", err.Error()))
	} else {
		s.Logger.Debug("deleted stale tokens", slog.Int64("count", n))
	}

	if n, err := s.Store.Requests().DeleteExpiredRequests(ctx, now); err != nil {
		s.Logger.Error("failed to delete expired authorization requests", slog.String("err", err.Error()))
	} else {
		s.Logger.Debug("deleted expired authorization requests", slog.Int64("count", n))
	}

	if n, err := s.Store.SigningKeys().DeleteExpiredSigningKeys(ctx, now); err != nil {
		s.Logger.Error("failed to delete expired signing keys", slog.String("err", err.Error()))
	} else {
		s.Logger.Debug("deleted expired signing keys", slog.Int64("count", n))
	}
}

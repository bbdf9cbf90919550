package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/tokend/internal/auth/store"
	redisdriver "github.com/aussiebroadwan/tokend/internal/auth/store/drivers/redis"
	"github.com/aussiebroadwan/tokend/internal/auth/store/drivers/sqlite"
	"github.com/cenkalti/backoff/v5"
)

// OpenDatabase opens the SQLite database and applies migrations.
func OpenDatabase(cfg Config, logger *slog.Logger) (*sqlite.Store, error) {
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", cfg.DatabaseFile)
	db, err := sqlite.NewStore(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply database migrations: %w", err)
	}

	logger.Info("database migrations applied successfully", "file", cfg.DatabaseFile)
	return db, nil
}

// TokenBackend is the configured token store. Redis is nil unless tokens
// live outside the database.
type TokenBackend struct {
	Tokens store.Tokens
	Redis  *redisdriver.TokenStore
}

// Close releases the Redis connection, if any.
func (b TokenBackend) Close() error {
	if b.Redis == nil {
		return nil
	}
	return b.Redis.Close()
}

// OpenTokenStore selects the token store engine. Redis is pinged with
// exponential backoff so the service can start alongside it.
func OpenTokenStore(ctx context.Context, cfg Config, db store.Store, logger *slog.Logger) (TokenBackend, error) {
	if cfg.TokenStore != TokenStoreRedis {
		return TokenBackend{Tokens: db.Tokens()}, nil
	}

	client := redisdriver.NewClient(redisdriver.Config{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	ts := redisdriver.NewTokenStore(client, cfg.RedisPrefix, cfg.Lifetimes().MaxTotal(), db.Accounts(), db.Devices())

	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		return struct{}{}, ts.Ping(ctx)
	},
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxElapsedTime(30*time.Second),
		backoff.WithNotify(func(err error, next time.Duration) {
			logger.Warn("redis not ready, retrying", "addr", cfg.RedisAddr, "retry_in", next, "err", err)
		}),
	)
	if err != nil {
		_ = ts.Close()
		return TokenBackend{}, fmt.Errorf("failed to connect to redis at %s: %w", cfg.RedisAddr, err)
	}

	logger.Info("redis token store connected", "addr", cfg.RedisAddr, "db", cfg.RedisDB)
	return TokenBackend{Tokens: ts, Redis: ts}, nil
}

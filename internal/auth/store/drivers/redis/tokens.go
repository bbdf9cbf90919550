// Package redis stores token records in Redis. Accounts and device sessions
// stay in the SQL store; records are hydrated from it on read.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/aussiebroadwan/tokend/internal/auth/domain"
	"github.com/aussiebroadwan/tokend/internal/auth/store"
	"github.com/aussiebroadwan/tokend/pkg/cryptox"
)

// Default timeouts for Redis operations.
const (
	DefaultDialTimeout  = 5 * time.Second
	DefaultReadTimeout  = 3 * time.Second
	DefaultWriteTimeout = 3 * time.Second
)

// maxWatchRetries bounds optimistic-lock retries on a token record.
const maxWatchRetries = 8

const (
	keyToken   = "token:"
	keyRefresh = "refresh:"
	keyCode    = "code:"
	keyIndex   = "tokens"
)

// Config holds Redis connection configuration.
type Config struct {
	Addr     string
	Username string
	Password string
	DB       int

	// KeyPrefix namespaces every key, e.g. "tokend:".
	KeyPrefix string

	// MaxLifetime is the longest a refreshable record may live. Records are
	// given a TTL of CreatedAt+MaxLifetime (refreshable) or ExpiresAt.
	MaxLifetime time.Duration

	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// NewClient builds a client from cfg without contacting the server.
func NewClient(cfg Config) *redis.Client {
	if cfg.DialTimeout == 0 {
		cfg.DialTimeout = DefaultDialTimeout
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = DefaultReadTimeout
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = DefaultWriteTimeout
	}

	return redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Username:     cfg.Username,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})
}

// TokenStore implements store.Tokens on Redis.
type TokenStore struct {
	client      redis.UniversalClient
	prefix      string
	maxLifetime time.Duration
	accounts    store.Accounts
	devices     store.Devices

	// afterRead runs inside the DeleteToken transaction between the read
	// and EXEC. Tests use it to interleave a concurrent writer.
	afterRead func()
}

var _ store.Tokens = (*TokenStore)(nil)

// NewTokenStore wraps a pre-configured client. accounts and devices are
// used to hydrate records on read.
func NewTokenStore(
	client redis.UniversalClient,
	prefix string,
	maxLifetime time.Duration,
	accounts store.Accounts,
	devices store.Devices,
) *TokenStore {
	return &TokenStore{
		client:      client,
		prefix:      prefix,
		maxLifetime: maxLifetime,
		accounts:    accounts,
		devices:     devices,
	}
}

// Close closes the Redis client connection.
func (s *TokenStore) Close() error {
	return s.client.Close()
}

// Ping checks Redis connectivity.
func (s *TokenStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// storedToken is the JSON form of a record. UsedRefreshHashes lists every
// rotated-away refresh fingerprint so their index keys can be re-pointed
// and removed with the record.
type storedToken struct {
	ID                string                         `json:"id"`
	CreatedAt         time.Time                      `json:"created_at"`
	UpdatedAt         time.Time                      `json:"updated_at"`
	ExpiresAt         time.Time                      `json:"expires_at"`
	ClientID          string                         `json:"client_id"`
	ClientAuth        domain.ClientAuth              `json:"client_auth"`
	DeviceID          string                         `json:"device_id,omitempty"`
	Sub               string                         `json:"sub"`
	Parameters        domain.AuthorizationParameters `json:"parameters"`
	Details           []domain.AuthorizationDetail   `json:"details,omitempty"`
	CodeHash          string                         `json:"code_hash,omitempty"`
	RefreshHash       string                         `json:"refresh_hash,omitempty"`
	UsedRefreshHashes []string                       `json:"used_refresh_hashes,omitempty"`
}

func (t storedToken) data() domain.TokenData {
	return domain.TokenData{
		CreatedAt:  t.CreatedAt,
		UpdatedAt:  t.UpdatedAt,
		ExpiresAt:  t.ExpiresAt,
		ClientID:   t.ClientID,
		ClientAuth: t.ClientAuth,
		DeviceID:   domain.DeviceID(t.DeviceID),
		Sub:        t.Sub,
		Parameters: t.Parameters,
		Details:    t.Details,
	}
}

// purgeAt is when Redis may drop the record on its own.
func (s *TokenStore) purgeAt(t storedToken) time.Time {
	if t.RefreshHash != "" {
		return t.CreatedAt.Add(s.maxLifetime)
	}
	return t.ExpiresAt
}

func (s *TokenStore) key(kind, id string) string { return s.prefix + kind + id }

func (s *TokenStore) CreateToken(
	ctx context.Context,
	id domain.TokenID,
	data domain.TokenData,
	refresh domain.RefreshToken,
) error {
	rec := storedToken{
		ID:         string(id),
		CreatedAt:  data.CreatedAt.UTC(),
		UpdatedAt:  data.UpdatedAt.UTC(),
		ExpiresAt:  data.ExpiresAt.UTC(),
		ClientID:   data.ClientID,
		ClientAuth: data.ClientAuth,
		DeviceID:   string(data.DeviceID),
		Sub:        data.Sub,
		Parameters: data.Parameters,
		Details:    data.Details,
	}
	if refresh != "" {
		rec.RefreshHash = cryptox.FingerprintToken(string(refresh))
	}
	if data.Code != "" {
		rec.CodeHash = cryptox.FingerprintToken(string(data.Code))
	}

	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal token: %w", err)
	}
	purge := s.purgeAt(rec)
	tokenKey := s.key(keyToken, rec.ID)

	if rec.CodeHash != "" {
		ok, err := s.client.SetNX(ctx, s.key(keyCode, rec.CodeHash), rec.ID, 0).Result()
		if err != nil {
			return fmt.Errorf("failed to index code: %w", err)
		}
		if !ok {
			return store.ErrAlreadyExists
		}
	}

	ok, err := s.client.SetNX(ctx, tokenKey, raw, 0).Result()
	if err != nil {
		return fmt.Errorf("failed to store token: %w", err)
	}
	if !ok {
		if rec.CodeHash != "" {
			_ = s.client.Del(ctx, s.key(keyCode, rec.CodeHash)).Err()
		}
		return store.ErrAlreadyExists
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ExpireAt(ctx, tokenKey, purge)
		if rec.CodeHash != "" {
			pipe.ExpireAt(ctx, s.key(keyCode, rec.CodeHash), purge)
		}
		if rec.RefreshHash != "" {
			pipe.Set(ctx, s.key(keyRefresh, rec.RefreshHash), rec.ID, 0)
			pipe.ExpireAt(ctx, s.key(keyRefresh, rec.RefreshHash), purge)
		}
		pipe.ZAdd(ctx, s.key(keyIndex, ""), redis.Z{Score: float64(rec.CreatedAt.Unix()), Member: rec.ID})
		return nil
	})
	if err != nil {
		// Compensating delete so no half-indexed record remains.
		_ = s.DeleteToken(ctx, id)
		return fmt.Errorf("failed to index token: %w", err)
	}
	return nil
}

func (s *TokenStore) ReadToken(ctx context.Context, id domain.TokenID) (domain.TokenInfo, error) {
	rec, err := s.get(ctx, s.client, string(id))
	if err != nil {
		return domain.TokenInfo{}, err
	}
	return s.hydrate(ctx, rec)
}

func (s *TokenStore) RotateToken(
	ctx context.Context,
	oldID, newID domain.TokenID,
	refresh domain.RefreshToken,
	patch domain.TokenPatch,
) error {
	oldKey := s.key(keyToken, string(oldID))
	newKey := s.key(keyToken, string(newID))

	rotate := func(tx *redis.Tx) error {
		rec, err := s.get(ctx, tx, string(oldID))
		if err != nil {
			return err
		}

		if rec.RefreshHash != "" {
			rec.UsedRefreshHashes = append(rec.UsedRefreshHashes, rec.RefreshHash)
		}
		rec.ID = string(newID)
		rec.RefreshHash = ""
		if refresh != "" {
			rec.RefreshHash = cryptox.FingerprintToken(string(refresh))
		}
		rec.UpdatedAt = patch.UpdatedAt.UTC()
		rec.ExpiresAt = patch.ExpiresAt.UTC()
		rec.ClientAuth = patch.ClientAuth
		rec.Details = patch.Details

		raw, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("failed to marshal token: %w", err)
		}
		purge := s.purgeAt(rec)

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, oldKey)
			pipe.Set(ctx, newKey, raw, 0)
			pipe.ExpireAt(ctx, newKey, purge)
			for _, h := range s.secretKeys(rec) {
				pipe.Set(ctx, h, rec.ID, 0)
				pipe.ExpireAt(ctx, h, purge)
			}
			pipe.ZRem(ctx, s.key(keyIndex, ""), string(oldID))
			pipe.ZAdd(ctx, s.key(keyIndex, ""), redis.Z{Score: float64(rec.CreatedAt.Unix()), Member: rec.ID})
			return nil
		})
		return err
	}

	if err := s.watch(ctx, rotate, oldKey); err != nil {
		return fmt.Errorf("rotate token %s: %w", oldID, err)
	}
	return nil
}

// DeleteToken removes the record and every secret index pointing at it.
// The record is re-read under WATCH, so a rotation committed meanwhile is
// never half undone.
func (s *TokenStore) DeleteToken(ctx context.Context, id domain.TokenID) error {
	tokenKey := s.key(keyToken, string(id))

	del := func(tx *redis.Tx) error {
		rec, err := s.get(ctx, tx, string(id))
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if s.afterRead != nil {
			s.afterRead()
		}

		keys := append([]string{tokenKey}, s.secretKeys(rec)...)
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, keys...)
			pipe.ZRem(ctx, s.key(keyIndex, ""), rec.ID)
			return nil
		})
		return err
	}

	if err := s.watch(ctx, del, tokenKey); err != nil {
		return fmt.Errorf("delete token %s: %w", id, err)
	}
	return nil
}

// watch runs fn under WATCH on key, retrying while another client
// modifies the key before EXEC.
func (s *TokenStore) watch(ctx context.Context, fn func(*redis.Tx) error, key string) error {
	for range maxWatchRetries {
		err := s.client.Watch(ctx, fn, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return redis.TxFailedErr
}

func (s *TokenStore) FindTokenByRefreshToken(
	ctx context.Context,
	refresh domain.RefreshToken,
) (domain.RefreshTokenInfo, error) {
	rec, err := s.lookup(ctx, s.key(keyRefresh, cryptox.FingerprintToken(string(refresh))))
	if err != nil {
		return domain.RefreshTokenInfo{}, err
	}
	info, err := s.hydrate(ctx, rec)
	if err != nil {
		return domain.RefreshTokenInfo{}, err
	}
	return domain.RefreshTokenInfo{TokenInfo: info, CurrentRefreshHash: rec.RefreshHash}, nil
}

func (s *TokenStore) FindTokenByCode(ctx context.Context, code domain.Code) (domain.TokenInfo, error) {
	rec, err := s.lookup(ctx, s.key(keyCode, cryptox.FingerprintToken(string(code))))
	if err != nil {
		return domain.TokenInfo{}, err
	}
	return s.hydrate(ctx, rec)
}

// DeleteStaleTokens removes records created before now-maxLifetime and
// drops index entries whose record already expired in Redis.
func (s *TokenStore) DeleteStaleTokens(
	ctx context.Context,
	now time.Time,
	maxLifetime time.Duration,
) (int64, error) {
	cutoff := strconv.FormatInt(now.Add(-maxLifetime).Unix(), 10)
	ids, err := s.client.ZRangeByScore(ctx, s.key(keyIndex, ""), &redis.ZRangeBy{
		Min: "-inf",
		Max: "(" + cutoff,
	}).Result()
	if err != nil {
		return 0, err
	}

	var deleted int64
	for _, id := range ids {
		if err := s.DeleteToken(ctx, domain.TokenID(id)); err != nil {
			return deleted, err
		}
		deleted++
	}

	all, err := s.client.ZRange(ctx, s.key(keyIndex, ""), 0, -1).Result()
	if err != nil {
		return deleted, err
	}
	for _, id := range all {
		n, err := s.client.Exists(ctx, s.key(keyToken, id)).Result()
		if err != nil {
			return deleted, err
		}
		if n == 0 {
			if err := s.client.ZRem(ctx, s.key(keyIndex, ""), id).Err(); err != nil {
				return deleted, err
			}
			deleted++
		}
	}
	return deleted, nil
}

func (s *TokenStore) secretKeys(rec storedToken) []string {
	keys := make([]string, 0, len(rec.UsedRefreshHashes)+2)
	if rec.RefreshHash != "" {
		keys = append(keys, s.key(keyRefresh, rec.RefreshHash))
	}
	for _, h := range rec.UsedRefreshHashes {
		keys = append(keys, s.key(keyRefresh, h))
	}
	if rec.CodeHash != "" {
		keys = append(keys, s.key(keyCode, rec.CodeHash))
	}
	return keys
}

func (s *TokenStore) lookup(ctx context.Context, indexKey string) (storedToken, error) {
	id, err := s.client.Get(ctx, indexKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return storedToken{}, store.ErrNotFound
		}
		return storedToken{}, err
	}
	return s.get(ctx, s.client, id)
}

// getter is satisfied by both the client and a WATCH transaction.
type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func (s *TokenStore) get(ctx context.Context, c getter, id string) (storedToken, error) {
	raw, err := c.Get(ctx, s.key(keyToken, id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return storedToken{}, store.ErrNotFound
		}
		return storedToken{}, fmt.Errorf("failed to get token: %w", err)
	}

	var rec storedToken
	if err := json.Unmarshal(raw, &rec); err != nil {
		return storedToken{}, fmt.Errorf("failed to unmarshal token: %w", err)
	}
	return rec, nil
}

func (s *TokenStore) hydrate(ctx context.Context, rec storedToken) (domain.TokenInfo, error) {
	account, err := s.accounts.GetAccountBySub(ctx, rec.Sub)
	if err != nil {
		return domain.TokenInfo{}, err
	}

	info := domain.TokenInfo{ID: domain.TokenID(rec.ID), Data: rec.data(), Account: account}
	if rec.DeviceID != "" {
		da, err := s.devices.GetDeviceAccount(ctx, domain.DeviceID(rec.DeviceID), rec.Sub)
		if err != nil {
			return domain.TokenInfo{}, err
		}
		info.Info = &da
	}
	return info, nil
}

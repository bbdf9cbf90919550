package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/aussiebroadwan/tokend/internal/auth/store"
	"github.com/aussiebroadwan/tokend/internal/auth/store/drivers/sqlite/gen"
	_ "modernc.org/sqlite"
)

// queryFunc runs fn atomically. Outside a transaction it opens one; inside
// it reuses the enclosing one.
type queryFunc func(ctx context.Context, fn func(q *gen.Queries) error) error

// repos hands out repositories sharing one query set.
type repos struct {
	q      *gen.Queries
	atomic queryFunc
}

func (r repos) Tokens() store.Tokens           { return &tokensRepo{q: r.q, inTx: r.atomic} }
func (r repos) Clients() store.Clients         { return &clientsRepo{q: r.q} }
func (r repos) Accounts() store.Accounts       { return &accountsRepo{q: r.q} }
func (r repos) Devices() store.Devices         { return &devicesRepo{q: r.q} }
func (r repos) Requests() store.Requests       { return &requestsRepo{q: r.q} }
func (r repos) SigningKeys() store.SigningKeys { return &signingKeysRepo{q: r.q} }

// Store is the SQLite driver, backed by modernc.org/sqlite.
type Store struct {
	repos
	db *sql.DB
}

var _ store.Store = (*Store)(nil)

func NewStore(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	// Pragmas and ":memory:" databases are per connection.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(context.Background(), `PRAGMA foreign_keys = ON;`); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &Store{db: db}
	s.repos = repos{q: gen.New(db), atomic: s.atomic}
	return s, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *Store) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	return s.atomic(ctx, func(q *gen.Queries) error {
		return fn(repos{q: q, atomic: func(_ context.Context, inner func(*gen.Queries) error) error {
			return inner(q)
		}})
	})
}

func (s *Store) atomic(ctx context.Context, fn func(q *gen.Queries) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }() // no-op after Commit

	if err := fn(s.q.WithTx(tx)); err != nil {
		return err
	}
	return tx.Commit()
}

func mapNotFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	return err
}

// mapConstraint reports UNIQUE and PRIMARY KEY violations as ErrAlreadyExists.
func mapConstraint(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	if strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "PRIMARY KEY") {
		return errors.Join(store.ErrAlreadyExists, err)
	}
	return err
}

func mapAffected(n int64, err error) error {
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func mapNullString(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

func mapStringNull(s string) sql.NullString {
	if s == "" {
		return sql.NullString{Valid: false}
	}
	return sql.NullString{String: s, Valid: true}
}

func mapNullTimePtr(nt sql.NullTime) *time.Time {
	if nt.Valid {
		val := nt.Time
		return &val
	}
	return nil
}

// Times are written in UTC so lexical comparison in SQL matches time order.
func utc(t time.Time) time.Time { return t.UTC() }

func marshalJSON(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func marshalNullJSON[T any](v []T) (sql.NullString, error) {
	if len(v) == 0 {
		return sql.NullString{}, nil
	}
	s, err := marshalJSON(v)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: s, Valid: true}, nil
}

func unmarshalNullJSON[T any](ns sql.NullString) ([]T, error) {
	if !ns.Valid || ns.String == "" {
		return nil, nil
	}
	var out []T
	if err := json.Unmarshal([]byte(ns.String), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// mapRows converts rows with fn, stopping at the first error.
func mapRows[R, T any](rows []R, fn func(R) (T, error)) ([]T, error) {
	out := make([]T, 0, len(rows))
	for _, row := range rows {
		v, err := fn(row)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

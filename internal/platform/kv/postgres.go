package kv

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/udharbook/internal/platform/db"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS kv_entries (
	key        TEXT PRIMARY KEY,
	value      JSONB,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// PGStore persists values in a single kv_entries table. Update locks every
// declared key with SELECT ... FOR UPDATE before running the callback.
type PGStore struct {
	pool   *pgxpool.Pool
	prefix string
}

// NewPGStore wraps a pool. Call EnsureSchema once before use.
func NewPGStore(pool *pgxpool.Pool, prefix string) *PGStore {
	return &PGStore{pool: pool, prefix: prefix}
}

// EnsureSchema creates the backing table when missing.
func (s *PGStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("kv/postgres: ensure schema: %w", err)
	}
	return nil
}

func (s *PGStore) key(k string) string {
	return s.prefix + k
}

// Get implements Reader.
func (s *PGStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return pgGet(ctx, s.pool, s.key(key))
}

// Set upserts value under key.
func (s *PGStore) Set(ctx context.Context, key string, value []byte) error {
	return pgUpsert(ctx, s.pool, s.key(key), value)
}

// Update implements Store. Missing rows are inserted as NULL first so that
// every declared key can be locked, including ones never written before.
func (s *PGStore) Update(ctx context.Context, keys []string, fn func(context.Context, Txn) error) error {
	return db.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		for _, k := range keys {
			if _, err := tx.Exec(ctx, `INSERT INTO kv_entries (key) VALUES ($1) ON CONFLICT (key) DO NOTHING`, s.key(k)); err != nil {
				return fmt.Errorf("kv/postgres: reserve %s: %w", k, err)
			}
		}
		if len(keys) > 0 {
			prefixed := make([]string, 0, len(keys))
			for _, k := range keys {
				prefixed = append(prefixed, s.key(k))
			}
			rows, err := tx.Query(ctx, `SELECT key FROM kv_entries WHERE key = ANY($1) ORDER BY key FOR UPDATE`, prefixed)
			if err != nil {
				return fmt.Errorf("kv/postgres: lock: %w", err)
			}
			for rows.Next() {
			}
			rows.Close()
			if err := rows.Err(); err != nil {
				return fmt.Errorf("kv/postgres: lock: %w", err)
			}
		}

		txn := &pgTxn{store: s, tx: tx, writes: newStaged()}
		if err := fn(ctx, txn); err != nil {
			return err
		}
		for _, k := range txn.writes.order {
			if err := pgUpsert(ctx, tx, s.key(k), txn.writes.values[k]); err != nil {
				return err
			}
		}
		return nil
	})
}

// Close releases the pool.
func (s *PGStore) Close() error {
	s.pool.Close()
	return nil
}

type pgTxn struct {
	store  *PGStore
	tx     pgx.Tx
	writes *staged
}

func (t *pgTxn) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if v, ok := t.writes.get(key); ok {
		return clone(v), true, nil
	}
	return pgGet(ctx, t.tx, t.store.key(key))
}

func (t *pgTxn) Set(key string, value []byte) {
	t.writes.put(key, clone(value))
}

type pgQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func pgGet(ctx context.Context, q pgQuerier, key string) ([]byte, bool, error) {
	var value []byte
	err := q.QueryRow(ctx, `SELECT value FROM kv_entries WHERE key = $1`, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("kv/postgres: get %s: %w", key, err)
	}
	if value == nil {
		return nil, false, nil
	}
	return value, true, nil
}

func pgUpsert(ctx context.Context, q pgQuerier, key string, value []byte) error {
	_, err := q.Exec(ctx, `
INSERT INTO kv_entries (key, value, updated_at) VALUES ($1, $2, now())
ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`, key, value)
	if err != nil {
		return fmt.Errorf("kv/postgres: set %s: %w", key, err)
	}
	return nil
}

var _ Store = (*PGStore)(nil)

package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/and161185/clinic-keeper/internal/storage"
)

var _ storage.KV = (*Store)(nil)

// Store implements storage.KV on table kv.
type Store struct{ db *DB }

// NewStore constructs a KV store over an open pool.
func NewStore(db *DB) *Store { return &Store{db: db} }

// Get selects the payload stored under key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	const q = `SELECT payload FROM kv WHERE key=$1`
	var payload []byte
	if err := s.db.Pool.QueryRow(ctx, q, key).Scan(&payload); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return payload, true, nil
}

// Set upserts the payload stored under key.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	if err := storage.CheckKey(key); err != nil {
		return err
	}
	if value == nil {
		value = []byte{}
	}
	const q = `
INSERT INTO kv (key, payload, updated_at) VALUES ($1, $2, now())
ON CONFLICT (key) DO UPDATE SET payload = EXCLUDED.payload, updated_at = now()`
	_, err := s.db.Pool.Exec(ctx, q, key, value)
	return err
}

// Remove deletes key; absent keys are ignored.
func (s *Store) Remove(ctx context.Context, key string) error {
	const q = `DELETE FROM kv WHERE key=$1`
	_, err := s.db.Pool.Exec(ctx, q, key)
	return err
}

// Close closes the pool.
func (s *Store) Close() error {
	s.db.Close()
	return nil
}

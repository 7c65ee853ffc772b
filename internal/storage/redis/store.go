// Package redis stores KV blobs as plain Redis strings.
package redis

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/and161185/clinic-keeper/internal/storage"
)

var _ storage.KV = (*Store)(nil)

// Options configure the client.
type Options struct {
	Addr     string
	Password string
	DB       int
	Prefix   string // prepended to every key, e.g. "clinic:"
}

// Store implements storage.KV with one Redis string per key and no TTL.
type Store struct {
	rdb    redis.UniversalClient
	prefix string
}

// Open connects and pings the server.
func Open(ctx context.Context, o Options) (*Store, error) {
	if o.Addr == "" {
		o.Addr = "localhost:6379"
	}
	rdb := redis.NewClient(&redis.Options{Addr: o.Addr, Password: o.Password, DB: o.DB})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, err
	}
	return New(rdb, o.Prefix), nil
}

// New wraps an existing client.
func New(rdb redis.UniversalClient, prefix string) *Store {
	return &Store{rdb: rdb, prefix: prefix}
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := s.rdb.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	if err := storage.CheckKey(key); err != nil {
		return err
	}
	return s.rdb.Set(ctx, s.prefix+key, value, 0).Err()
}

func (s *Store) Remove(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, s.prefix+key).Err()
}

// Close closes the client.
func (s *Store) Close() error { return s.rdb.Close() }

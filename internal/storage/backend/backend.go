// Package backend opens the configured KV backend.
package backend

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/and161185/clinic-keeper/internal/config"
	"github.com/and161185/clinic-keeper/internal/migrate"
	"github.com/and161185/clinic-keeper/internal/storage"
	"github.com/and161185/clinic-keeper/internal/storage/file"
	"github.com/and161185/clinic-keeper/internal/storage/memory"
	"github.com/and161185/clinic-keeper/internal/storage/postgres"
	"github.com/and161185/clinic-keeper/internal/storage/redis"
	"github.com/and161185/clinic-keeper/internal/storage/sealed"
	"github.com/and161185/clinic-keeper/internal/storage/sqlite"
)

// Open builds the backend selected by cfg, wrapped in sealed storage when a
// passphrase is configured. The returned close func is never nil.
func Open(ctx context.Context, cfg *config.Config, log *zap.Logger) (storage.KV, func() error, error) {
	if log == nil {
		log = zap.NewNop()
	}
	kv, closeFn, err := open(ctx, cfg, log)
	if err != nil {
		return nil, nil, err
	}
	log.Info("storage opened", zap.String("backend", cfg.Backend), zap.Bool("sealed", cfg.Passphrase != ""))
	if cfg.Passphrase == "" {
		return kv, closeFn, nil
	}
	s, err := sealed.New(ctx, kv, cfg.Passphrase)
	if err != nil {
		_ = closeFn()
		return nil, nil, err
	}
	return s, closeFn, nil
}

func open(ctx context.Context, cfg *config.Config, log *zap.Logger) (storage.KV, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Backend {
	case config.BackendMemory:
		return memory.New(), noop, nil
	case config.BackendFile:
		s, err := file.New(cfg.DataDir)
		if err != nil {
			return nil, nil, err
		}
		return s, noop, nil
	case config.BackendSQLite:
		s, err := sqlite.Open(ctx, cfg.SQLitePath, log)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	case config.BackendPostgres:
		if err := migrate.Postgres(ctx, cfg.PostgresDSN, log); err != nil {
			return nil, nil, fmt.Errorf("migrate up: %w", err)
		}
		db, err := postgres.New(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		s := postgres.NewStore(db)
		return s, s.Close, nil
	case config.BackendRedis:
		s, err := redis.Open(ctx, redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Prefix:   cfg.RedisPrefix,
		})
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}

// Package app assembles storage, repositories and services from a Config.
package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/and161185/clinic-keeper/internal/config"
	pkgcrypto "github.com/and161185/clinic-keeper/internal/crypto"
	"github.com/and161185/clinic-keeper/internal/limiter"
	"github.com/and161185/clinic-keeper/internal/metrics"
	"github.com/and161185/clinic-keeper/internal/repository/kvrepo"
	"github.com/and161185/clinic-keeper/internal/service"
	"github.com/and161185/clinic-keeper/internal/session"
	"github.com/and161185/clinic-keeper/internal/storage"
	"github.com/and161185/clinic-keeper/internal/storage/backend"
	"github.com/and161185/clinic-keeper/internal/validate"
)

// App is the assembled application.
type App struct {
	KV       storage.KV
	Sessions *session.Store
	Metrics  *metrics.Recorder

	Auth       *service.AuthServiceImpl
	Assignment *service.AssignmentServiceImpl
	Inventory  *service.InventoryServiceImpl
	Schedule   *service.ScheduleServiceImpl

	closeKV func() error
}

// New opens the configured backend and builds every service on top of it.
func New(ctx context.Context, cfg *config.Config, log *zap.Logger) (*App, error) {
	if log == nil {
		log = zap.NewNop()
	}
	kv, closeKV, err := backend.Open(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	a, err := build(ctx, cfg, kv, log)
	if err != nil {
		_ = closeKV()
		return nil, err
	}
	a.closeKV = closeKV
	return a, nil
}

func build(ctx context.Context, cfg *config.Config, kv storage.KV, log *zap.Logger) (*App, error) {
	policy, err := service.ParseChairPolicy(cfg.ChairPolicy)
	if err != nil {
		return nil, err
	}
	sess, err := session.New(ctx, kv, session.Options{
		SignKey: []byte(cfg.SessionKey),
		TTL:     cfg.SessionTTL,
		Logger:  log.Named("session"),
	})
	if err != nil {
		return nil, fmt.Errorf("session store: %w", err)
	}

	repos := kvrepo.NewSet(kv, kvrepo.Deps{Logger: log})
	met := metrics.New()
	val := validate.New()

	return &App{
		KV:       kv,
		Sessions: sess,
		Metrics:  met,
		Auth: service.NewAuthService(repos.Users, sess, pkgcrypto.NewHasher(pkgcrypto.DefaultParams),
			limiter.NewMemory(limiter.DefaultWindow, limiter.DefaultMaxFails, limiter.DefaultBlockFor), log, met),
		Assignment: service.NewAssignmentService(repos.Patients, repos.Chairs, service.AssignmentOptions{
			Policy: policy, Validator: val, Logger: log, Metrics: met,
		}),
		Inventory: service.NewInventoryService(repos.Medications, val, nil, log),
		Schedule:  service.NewScheduleService(repos.Appointments, repos.Visits, val, log),
		closeKV:   func() error { return nil },
	}, nil
}

// Bootstrap creates the default account and chairs on an empty store.
func (a *App) Bootstrap(ctx context.Context, log *zap.Logger) error {
	created, err := a.Auth.EnsureDefaultUser(ctx)
	if err != nil {
		return fmt.Errorf("default user: %w", err)
	}
	if created {
		log.Warn("default credentials in use; change the password",
			zap.String("username", service.DefaultUsername))
	}
	if _, err := a.Assignment.EnsureDefaultChairs(ctx); err != nil {
		return fmt.Errorf("default chairs: %w", err)
	}
	return nil
}

// Close releases the storage backend.
func (a *App) Close() error { return a.closeKV() }

// Package service contains the application services: chair assignment,
// authentication, inventory and scheduling.
package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	pkgcrypto "github.com/and161185/clinic-keeper/internal/crypto"
	"github.com/and161185/clinic-keeper/internal/errs"
	"github.com/and161185/clinic-keeper/internal/limiter"
	"github.com/and161185/clinic-keeper/internal/metrics"
	"github.com/and161185/clinic-keeper/internal/model"
	"github.com/and161185/clinic-keeper/internal/repository"
	"github.com/and161185/clinic-keeper/internal/session"
)

// Credentials created on first run when no user exists.
const (
	DefaultUsername = "admin"
	DefaultPassword = "admin123"
)

// SessionStore is the single current-user slot.
type SessionStore interface {
	Save(ctx context.Context, u model.User) (session.Record, error)
	Current(ctx context.Context) (session.Record, bool, error)
	Clear(ctx context.Context) error
}

var _ SessionStore = (*session.Store)(nil)

// AuthService defines authentication and bootstrap operations.
type AuthService interface {
	// Login checks credentials and, on success, makes the user current.
	// Wrong credentials yield ok=false; a locked-out pair yields errs.ErrRateLimited.
	Login(ctx context.Context, username, password, ip string) (rec session.Record, ok bool, err error)
	// CurrentUser returns the logged-in user, if any.
	CurrentUser(ctx context.Context) (model.User, bool, error)
	// Logout clears the current session.
	Logout(ctx context.Context) error
	// EnsureDefaultUser creates the default account when there are no users.
	EnsureDefaultUser(ctx context.Context) (created bool, err error)
	// Register creates a user with a hashed password.
	Register(ctx context.Context, username, password string) (model.User, error)
	// ChangePassword replaces the password after verifying the old one.
	ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error
}

type AuthServiceImpl struct {
	users    repository.UserRepository
	sessions SessionStore
	hasher   pkgcrypto.Hasher
	lim      limiter.Limiter
	log      *zap.Logger
	met      *metrics.Recorder

	mu sync.Mutex
}

var _ AuthService = (*AuthServiceImpl)(nil)

// NewAuthService constructs AuthService with required dependencies.
func NewAuthService(users repository.UserRepository, sessions SessionStore, hasher pkgcrypto.Hasher, lim limiter.Limiter, log *zap.Logger, met *metrics.Recorder) *AuthServiceImpl {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthServiceImpl{users: users, sessions: sessions, hasher: hasher, lim: lim, log: log.Named("auth"), met: met}
}

func (s *AuthServiceImpl) byUsername(ctx context.Context, username string) (model.User, bool, error) {
	all, err := s.users.List(ctx)
	if err != nil {
		return model.User{}, false, err
	}
	for _, u := range all {
		if u.Username == username {
			return u, true, nil
		}
	}
	return model.User{}, false, nil
}

// Login authenticates with rate limiting by (username, ip).
func (s *AuthServiceImpl) Login(ctx context.Context, username, password, ip string) (session.Record, bool, error) {
	ipHash := limiter.HashIP(ip)

	allowed, retry, err := s.lim.Allow(ctx, username, ipHash)
	if err != nil {
		return session.Record{}, false, err
	}
	if !allowed {
		s.met.Login("blocked")
		return session.Record{}, false, fmt.Errorf("%w: retry in %s", errs.ErrRateLimited, retry.Round(time.Second))
	}

	u, found, err := s.byUsername(ctx, username)
	if err != nil {
		return session.Record{}, false, err
	}
	if !found || !s.hasher.VerifyPassword([]byte(password), u.PasswordSalt, u.PasswordHash) {
		s.met.Login("failed")
		s.log.Info("login failed", zap.String("username", username))
		blocked, _, ferr := s.lim.Failure(ctx, username, ipHash)
		if ferr != nil {
			s.log.Warn("limiter failure not recorded", zap.Error(ferr))
		}
		if blocked {
			return session.Record{}, false, errs.ErrRateLimited
		}
		return session.Record{}, false, nil
	}

	if err := s.lim.Success(ctx, username, ipHash); err != nil {
		s.log.Warn("limiter reset failed", zap.Error(err))
	}
	rec, err := s.sessions.Save(ctx, u)
	if err != nil {
		return session.Record{}, false, err
	}
	s.met.Login("ok")
	s.log.Info("login", zap.String("user_id", u.ID))
	return rec, true, nil
}

func (s *AuthServiceImpl) CurrentUser(ctx context.Context) (model.User, bool, error) {
	rec, ok, err := s.sessions.Current(ctx)
	if err != nil || !ok {
		return model.User{}, false, err
	}
	return rec.User, true, nil
}

func (s *AuthServiceImpl) Logout(ctx context.Context) error {
	return s.sessions.Clear(ctx)
}

func (s *AuthServiceImpl) EnsureDefaultUser(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.users.List(ctx)
	if err != nil || len(all) > 0 {
		return false, err
	}
	if _, err := s.create(ctx, DefaultUsername, DefaultPassword); err != nil {
		return false, err
	}
	s.log.Info("default user created", zap.String("username", DefaultUsername))
	return true, nil
}

// Register creates a new user record with a per-user salt.
func (s *AuthServiceImpl) Register(ctx context.Context, username, password string) (model.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return model.User{}, fmt.Errorf("%w: empty username/password", errs.ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, exists, err := s.byUsername(ctx, username)
	if err != nil {
		return model.User{}, err
	}
	if exists {
		return model.User{}, fmt.Errorf("%w: username %q", errs.ErrAlreadyExists, username)
	}
	u, err := s.create(ctx, username, password)
	if err != nil {
		return model.User{}, err
	}
	return u.Public(), nil
}

func (s *AuthServiceImpl) create(ctx context.Context, username, password string) (model.User, error) {
	hash, salt, err := s.hasher.NewCredentials(password)
	if err != nil {
		return model.User{}, err
	}
	return s.users.Insert(ctx, model.User{Username: username, PasswordHash: hash, PasswordSalt: salt})
}

func (s *AuthServiceImpl) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	if newPassword == "" {
		return fmt.Errorf("%w: empty password", errs.ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok, err := s.users.Get(ctx, userID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: user %q", errs.ErrNotFound, userID)
	}
	if !s.hasher.VerifyPassword([]byte(oldPassword), u.PasswordSalt, u.PasswordHash) {
		return errs.ErrUnauthorized
	}
	hash, salt, err := s.hasher.NewCredentials(newPassword)
	if err != nil {
		return err
	}
	_, _, err = s.users.Update(ctx, userID, model.UserPatch{PasswordHash: hash, PasswordSalt: salt})
	return err
}

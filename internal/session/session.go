// Package session keeps the single current-user slot of the device.
package session

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/and161185/clinic-keeper/internal/crypto"
	"github.com/and161185/clinic-keeper/internal/errs"
	"github.com/and161185/clinic-keeper/internal/model"
	"github.com/and161185/clinic-keeper/internal/storage"
)

const signKeyLen = 32

// DefaultTTL applies when the store is built with a non-positive TTL.
const DefaultTTL = 12 * time.Hour

// Record is what the slot holds: the logged-in user without credentials
// and a token proving the record was written by this device.
type Record struct {
	User      model.User `json:"user"`
	Token     string     `json:"token"`
	ExpiresAt time.Time  `json:"expiresAt"`
}

// Store persists at most one Record under storage.KeyCurrentUser.
type Store struct {
	kv      storage.KV
	signKey []byte
	ttl     time.Duration
	now     func() time.Time
	log     *zap.Logger
}

// Options configure a Store.
type Options struct {
	// SignKey overrides the persisted signing key when non-empty.
	SignKey []byte
	TTL     time.Duration
	Now     func() time.Time
	Logger  *zap.Logger
}

// New returns a Store. Without an explicit key it loads the device key from
// storage.KeySessionKey, creating and persisting one on first use.
func New(ctx context.Context, kv storage.KV, o Options) (*Store, error) {
	if o.TTL <= 0 {
		o.TTL = DefaultTTL
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	key := o.SignKey
	if len(key) == 0 {
		var err error
		if key, err = loadOrCreateKey(ctx, kv, o.Logger); err != nil {
			return nil, err
		}
	}
	return &Store{kv: kv, signKey: key, ttl: o.TTL, now: o.Now, log: o.Logger}, nil
}

func loadOrCreateKey(ctx context.Context, kv storage.KV, log *zap.Logger) ([]byte, error) {
	raw, ok, err := kv.Get(ctx, storage.KeySessionKey)
	if err != nil {
		return nil, fmt.Errorf("%w: session key: %w", errs.ErrStorageRead, err)
	}
	if ok {
		key, err := base64.StdEncoding.DecodeString(string(raw))
		if err == nil && len(key) == signKeyLen {
			return key, nil
		}
		log.Warn("session key unreadable, regenerating")
	}
	key, err := crypto.RandBytes(signKeyLen)
	if err != nil {
		return nil, fmt.Errorf("session key: %w", err)
	}
	if err := kv.Set(ctx, storage.KeySessionKey, []byte(base64.StdEncoding.EncodeToString(key))); err != nil {
		return nil, fmt.Errorf("%w: session key: %w", errs.ErrStorageWrite, err)
	}
	return key, nil
}

// Save replaces the slot with u, stripped of credentials.
func (s *Store) Save(ctx context.Context, u model.User) (Record, error) {
	now := s.now()
	exp := now.Add(s.ttl)
	claims := jwt.RegisteredClaims{
		Subject:   u.ID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.signKey)
	if err != nil {
		return Record{}, fmt.Errorf("sign session: %w", err)
	}
	rec := Record{User: u.Public(), Token: signed, ExpiresAt: exp}

	raw, err := json.Marshal(rec)
	if err != nil {
		return Record{}, fmt.Errorf("%w: encode session: %w", errs.ErrStorageWrite, err)
	}
	if err := s.kv.Set(ctx, storage.KeyCurrentUser, raw); err != nil {
		return Record{}, fmt.Errorf("%w: session: %w", errs.ErrStorageWrite, err)
	}
	return rec, nil
}

// Current returns the logged-in user. A record that fails to decode or
// verify, or has expired, is cleared and reported as absent.
func (s *Store) Current(ctx context.Context) (Record, bool, error) {
	raw, ok, err := s.kv.Get(ctx, storage.KeyCurrentUser)
	if err != nil {
		return Record{}, false, fmt.Errorf("%w: session: %w", errs.ErrStorageRead, err)
	}
	if !ok {
		return Record{}, false, nil
	}

	var rec Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		s.log.Warn("session record corrupt, clearing", zap.Error(err))
		return Record{}, false, s.Clear(ctx)
	}
	if err := s.verify(rec); err != nil {
		s.log.Info("session rejected, clearing", zap.Error(err))
		return Record{}, false, s.Clear(ctx)
	}
	return rec, true, nil
}

// Verify checks a bearer token against the current slot.
func (s *Store) Verify(ctx context.Context, token string) (model.User, error) {
	rec, ok, err := s.Current(ctx)
	if err != nil {
		return model.User{}, err
	}
	if !ok || rec.Token != token {
		return model.User{}, errs.ErrUnauthorized
	}
	return rec.User, nil
}

func (s *Store) verify(rec Record) error {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(rec.Token, &claims, func(t *jwt.Token) (any, error) {
		return s.signKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return err
	}
	if claims.Subject != rec.User.ID {
		return errors.New("subject mismatch")
	}
	return nil
}

// Clear empties the slot. Clearing an empty slot is not an error.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.kv.Remove(ctx, storage.KeyCurrentUser); err != nil {
		return fmt.Errorf("%w: session: %w", errs.ErrStorageWrite, err)
	}
	return nil
}

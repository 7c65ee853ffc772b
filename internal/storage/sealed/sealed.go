// Package sealed encrypts KV payloads at rest.
package sealed

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"

	"github.com/and161185/clinic-keeper/internal/storage"
)

// Params
const (
	keyLen  = chacha20poly1305.KeySize
	saltLen = 16

	argonTime    uint32 = 3
	argonMemory  uint32 = 64 * 1024
	argonThreads uint8  = 1
)

// ErrOpen is returned when a payload cannot be authenticated
// (wrong passphrase, corrupted or swapped blob).
var ErrOpen = errors.New("sealed: cannot decrypt payload")

var _ storage.KV = (*Store)(nil)

// Store wraps another KV. Every value is sealed with XChaCha20-Poly1305 under
// a per-key subkey; the key name is bound as associated data.
// The KDF salt itself is stored unsealed under storage.KeySealSalt.
type Store struct {
	inner  storage.KV
	master []byte
}

// New derives the master key from passphrase, creating the salt on first use.
func New(ctx context.Context, inner storage.KV, passphrase string) (*Store, error) {
	if passphrase == "" {
		return nil, errors.New("sealed: empty passphrase")
	}
	salt, ok, err := inner.Get(ctx, storage.KeySealSalt)
	if err != nil {
		return nil, fmt.Errorf("sealed: load salt: %w", err)
	}
	if !ok || len(salt) != saltLen {
		if ok {
			return nil, errors.New("sealed: malformed salt")
		}
		salt = make([]byte, saltLen)
		if _, err := rand.Read(salt); err != nil {
			return nil, err
		}
		if err := inner.Set(ctx, storage.KeySealSalt, salt); err != nil {
			return nil, fmt.Errorf("sealed: store salt: %w", err)
		}
	}
	return &Store{inner: inner, master: deriveMaster([]byte(passphrase), salt)}, nil
}

func deriveMaster(passphrase, salt []byte) []byte {
	return argon2.IDKey(passphrase, salt, argonTime, argonMemory, argonThreads, keyLen)
}

// subkey derives the key for one storage key via HKDF-SHA256.
func (s *Store) subkey(key string) ([]byte, error) {
	r := hkdf.New(sha256.New, s.master, nil, []byte(key))
	out := make([]byte, keyLen)
	if _, err := io.ReadFull(r, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) seal(key string, plaintext []byte) ([]byte, error) {
	k, err := s.subkey(key)
	if err != nil {
		return nil, err
	}
	aead, err := chacha20poly1305.NewX(k)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, chacha20poly1305.NonceSizeX)
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(nonce)+len(plaintext)+aead.Overhead())
	out = append(out, nonce...)
	return aead.Seal(out, nonce, plaintext, []byte(key)), nil
}

func (s *Store) open(key string, blob []byte) ([]byte, error) {
	if len(blob) < chacha20poly1305.NonceSizeX {
		return nil, ErrOpen
	}
	k, err := s.subkey(key)
	if err != nil {
		return nil, err
	}
	aead, err := chacha20poly1305.NewX(k)
	if err != nil {
		return nil, err
	}
	nonce, ct := blob[:chacha20poly1305.NonceSizeX], blob[chacha20poly1305.NonceSizeX:]
	pt, err := aead.Open(nil, nonce, ct, []byte(key))
	if err != nil {
		return nil, ErrOpen
	}
	return pt, nil
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	blob, ok, err := s.inner.Get(ctx, key)
	if err != nil || !ok {
		return nil, ok, err
	}
	pt, err := s.open(key, blob)
	if err != nil {
		return nil, false, err
	}
	return pt, true, nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	if key == storage.KeySealSalt {
		return storage.ErrInvalidKey
	}
	blob, err := s.seal(key, value)
	if err != nil {
		return err
	}
	return s.inner.Set(ctx, key, blob)
}

func (s *Store) Remove(ctx context.Context, key string) error {
	return s.inner.Remove(ctx, key)
}

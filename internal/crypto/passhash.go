// Package crypto implements password hashing and verification for local accounts.
package crypto

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"

	"golang.org/x/crypto/argon2"
)

// SaltLen is the length of per-user salts.
const SaltLen = 16

// Params are Argon2id cost parameters.
type Params struct {
	Time    uint32 // iterations
	Memory  uint32 // KiB
	Threads uint8
	KeyLen  uint32
}

// DefaultParams suit interactive logins on a single device.
var DefaultParams = Params{Time: 2, Memory: 19 * 1024, Threads: 1, KeyLen: 32}

// RandBytes returns n cryptographically secure random bytes.
func RandBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	_, err := rand.Read(b)
	return b, err
}

// Hasher hashes and verifies passwords with fixed parameters.
type Hasher struct {
	p Params
}

// NewHasher returns a Hasher; zero fields of p fall back to DefaultParams.
func NewHasher(p Params) Hasher {
	if p.Time == 0 {
		p.Time = DefaultParams.Time
	}
	if p.Memory == 0 {
		p.Memory = DefaultParams.Memory
	}
	if p.Threads == 0 {
		p.Threads = DefaultParams.Threads
	}
	if p.KeyLen == 0 {
		p.KeyLen = DefaultParams.KeyLen
	}
	return Hasher{p: p}
}

// HashPassword returns the Argon2id hash of password using the provided salt.
func (h Hasher) HashPassword(password, salt []byte) []byte {
	return argon2.IDKey(password, salt, h.p.Time, h.p.Memory, h.p.Threads, h.p.KeyLen)
}

// NewCredentials draws a fresh salt and hashes password with it.
func (h Hasher) NewCredentials(password string) (hash, salt []byte, err error) {
	salt, err = RandBytes(SaltLen)
	if err != nil {
		return nil, nil, fmt.Errorf("salt: %w", err)
	}
	return h.HashPassword([]byte(password), salt), salt, nil
}

// VerifyPassword verifies password against the expected hash and salt in constant time.
func (h Hasher) VerifyPassword(password, salt, expected []byte) bool {
	if len(expected) == 0 {
		return false
	}
	got := h.HashPassword(password, salt)
	return subtle.ConstantTimeCompare(got, expected) == 1
}

// Package storage defines the key-value persistence port. It is the only
// layer that touches physical storage; values are opaque JSON blobs.
package storage

import (
	"context"
	"errors"
	"strings"
)

// KV stores named blobs.
type KV interface {
	// Get returns the value stored under key; ok is false when the key is absent.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	// Set replaces the value stored under key.
	Set(ctx context.Context, key string, value []byte) error
	// Remove deletes key. Removing an absent key is not an error.
	Remove(ctx context.Context, key string) error
}

// Fixed keys of the flat namespace.
const (
	KeyUsers        = "@users"
	KeyPatients     = "@patients"
	KeyChairs       = "@chairs"
	KeyVisits       = "@visits"
	KeyMedications  = "@medications"
	KeyAppointments = "@appointments"
	KeyCurrentUser  = "@current_user"

	KeySessionKey = "@session_key" // device-local token signing secret
	KeySealSalt   = "@seal_salt"   // KDF salt of the sealed wrapper
)

// ErrInvalidKey is returned for empty or unsafe keys.
var ErrInvalidKey = errors.New("invalid key")

// CheckKey rejects keys that backends cannot map safely.
func CheckKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return ErrInvalidKey
	}
	if strings.ContainsAny(key, `/\`) || strings.Contains(key, "..") {
		return ErrInvalidKey
	}
	return nil
}

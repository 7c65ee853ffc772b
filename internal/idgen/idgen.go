// Package idgen produces record identifiers.
package idgen

import "github.com/gofrs/uuid/v5"

// Generator returns a new unique identifier.
type Generator interface {
	NewID() (string, error)
}

// UUIDv7 generates time-ordered UUIDs: a millisecond timestamp followed by
// random bits, so ids sort roughly by creation time and practically never collide.
type UUIDv7 struct{}

// NewID returns a fresh UUIDv7 in canonical string form.
func (UUIDv7) NewID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// Func adapts a plain function to Generator.
type Func func() (string, error)

// NewID calls f.
func (f Func) NewID() (string, error) { return f() }

// Default is the generator used when none is injected.
var Default Generator = UUIDv7{}

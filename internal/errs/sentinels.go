// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import "errors"

// Common sentinels across storage/repo/service layers.
var (
	// ErrNotFound indicates a referenced entity does not exist.
	// Plain lookups report absence with an ok flag instead.
	ErrNotFound = errors.New("not found")
	// ErrStorageRead indicates the persistence backend failed to return a
	// collection, or returned one that cannot be decoded.
	ErrStorageRead = errors.New("storage read failed")
	// ErrStorageWrite indicates the persistence backend rejected a write.
	ErrStorageWrite = errors.New("storage write failed")
	// ErrValidation indicates malformed input (missing fields, bad RUT, ...).
	ErrValidation = errors.New("validation failed")
	// ErrDuplicateChairNumber indicates another chair already uses the number.
	ErrDuplicateChairNumber = errors.New("duplicate chair number")
	// ErrChairOccupied indicates the chair is held by a patient, so it cannot
	// be deleted or handed to somebody else.
	ErrChairOccupied = errors.New("chair occupied")
	// ErrChairOccupiedByPatient indicates a chair cannot be marked available
	// while a patient is still assigned to it.
	ErrChairOccupiedByPatient = errors.New("chair occupied by patient")
	// ErrUnauthorized indicates failed authentication/authorization.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrRateLimited indicates temporary login lock due to rate limiting.
	ErrRateLimited = errors.New("rate limited")
	// ErrAlreadyExists indicates a unique constraint violation (e.g., username taken).
	ErrAlreadyExists = errors.New("already exists")
)

// IsDomainRule reports whether err is one of the occupancy/numbering rule rejections.
func IsDomainRule(err error) bool {
	return errors.Is(err, ErrDuplicateChairNumber) ||
		errors.Is(err, ErrChairOccupied) ||
		errors.Is(err, ErrChairOccupiedByPatient)
}

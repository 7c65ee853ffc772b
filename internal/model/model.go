// Package model defines domain entities used by services and repositories.
package model

import (
	"strings"
	"time"
)

// Patient is a person treated at the clinic.
type Patient struct {
	ID              string    `json:"id"`
	GivenNames      string    `json:"givenNames" validate:"required"`
	FamilyNames     string    `json:"familyNames" validate:"required"`
	NationalID      string    `json:"nationalId,omitempty" validate:"omitempty,rut"` // Chilean RUT
	BirthDate       time.Time `json:"birthDate"`
	Phone           string    `json:"phone" validate:"required,clphone"`
	Email           string    `json:"email" validate:"required,email"`
	AssignedChairID string    `json:"assignedChairId,omitempty"` // weak ref -> Chair.ID
	Notes           string    `json:"notes"`
	Medications     []string  `json:"medications"` // medication names, never nil after load
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// FullName joins given and family names.
func (p Patient) FullName() string {
	return strings.TrimSpace(p.GivenNames + " " + p.FamilyNames)
}

// Chair is a treatment station tracked for availability and occupancy.
type Chair struct {
	ID                string    `json:"id"`
	Number            int       `json:"number" validate:"gt=0"` // unique across chairs
	Name              string    `json:"name" validate:"required"`
	Available         bool      `json:"available"`
	OccupantPatientID string    `json:"occupantPatientId,omitempty"` // weak ref -> Patient.ID
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// Occupied reports whether a patient holds the chair.
func (c Chair) Occupied() bool { return c.OccupantPatientID != "" }

// Medication is an inventory item.
type Medication struct {
	ID             string    `json:"id"`
	Name           string    `json:"name" validate:"required"`
	Description    string    `json:"description"`
	Quantity       float64   `json:"quantity" validate:"gte=0"`
	Unit           string    `json:"unit" validate:"required"`
	ExpirationDate time.Time `json:"expirationDate"`
	LotNumber      string    `json:"lotNumber,omitempty"`
	Supplier       string    `json:"supplier,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// ExpiryStatus classifies a medication by its expiration date.
type ExpiryStatus string

const (
	ExpiryExpired  ExpiryStatus = "expired"
	ExpiryExpiring ExpiryStatus = "expiring"
	ExpiryValid    ExpiryStatus = "valid"
)

// ExpiringWindow is how far ahead a medication counts as about to expire.
const ExpiringWindow = 30 * 24 * time.Hour

// LowStockThreshold is the quantity at or below which stock is reported low.
const LowStockThreshold = 10

// ExpiryStatus reports whether the medication is expired, expiring within
// ExpiringWindow, or still valid at now.
func (m Medication) ExpiryStatus(now time.Time) ExpiryStatus {
	left := m.ExpirationDate.Sub(now)
	switch {
	case left < 0:
		return ExpiryExpired
	case left <= ExpiringWindow:
		return ExpiryExpiring
	default:
		return ExpiryValid
	}
}

// LowStock reports whether the remaining quantity needs restocking.
func (m Medication) LowStock() bool { return m.Quantity <= LowStockThreshold }

// Appointment is a scheduled consultation for a patient.
type Appointment struct {
	ID        string    `json:"id"`
	PatientID string    `json:"patientId" validate:"required"`
	Date      time.Time `json:"date"`
	Time      string    `json:"time" validate:"required,datetime=15:04"` // HH:MM
	Reason    string    `json:"reason" validate:"required"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Visit records a patient's session in a chair.
type Visit struct {
	ID        string    `json:"id"`
	PatientID string    `json:"patientId" validate:"required"`
	ChairID   string    `json:"chairId" validate:"required"`
	Date      time.Time `json:"date"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// User is a local account. The password is stored only as an Argon2id hash.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash []byte    `json:"passwordHash,omitempty"` // Argon2id(password, PasswordSalt)
	PasswordSalt []byte    `json:"passwordSalt,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Public returns a copy of the user without credential material.
func (u User) Public() User {
	u.PasswordHash = nil
	u.PasswordSalt = nil
	return u
}

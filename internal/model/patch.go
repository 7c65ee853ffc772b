package model

import "time"

// Patches enumerate the fields that may change after creation.
// A nil field means "leave as is". Identity and creation time are never patchable.

// PatientPatch updates a patient. AssignedChairID set to "" releases the chair.
type PatientPatch struct {
	GivenNames      *string    `json:"givenNames,omitempty" validate:"omitempty,min=1"`
	FamilyNames     *string    `json:"familyNames,omitempty" validate:"omitempty,min=1"`
	NationalID      *string    `json:"nationalId,omitempty" validate:"omitempty,rut"`
	BirthDate       *time.Time `json:"birthDate,omitempty"`
	Phone           *string    `json:"phone,omitempty" validate:"omitempty,clphone"`
	Email           *string    `json:"email,omitempty" validate:"omitempty,email"`
	AssignedChairID *string    `json:"assignedChairId,omitempty"`
	Notes           *string    `json:"notes,omitempty"`
	Medications     *[]string  `json:"medications,omitempty"`
}

// Apply copies the set fields onto dst.
func (p PatientPatch) Apply(dst *Patient) {
	set(&dst.GivenNames, p.GivenNames)
	set(&dst.FamilyNames, p.FamilyNames)
	set(&dst.NationalID, p.NationalID)
	set(&dst.BirthDate, p.BirthDate)
	set(&dst.Phone, p.Phone)
	set(&dst.Email, p.Email)
	set(&dst.AssignedChairID, p.AssignedChairID)
	set(&dst.Notes, p.Notes)
	if p.Medications != nil {
		dst.Medications = append([]string{}, (*p.Medications)...)
	}
}

// ChairPatch updates a chair. Available and OccupantPatientID are managed by
// the assignment service; callers outside it only set Number and Name.
type ChairPatch struct {
	Number            *int    `json:"number,omitempty" validate:"omitempty,gt=0"`
	Name              *string `json:"name,omitempty" validate:"omitempty,min=1"`
	Available         *bool   `json:"available,omitempty"`
	OccupantPatientID *string `json:"occupantPatientId,omitempty"`
}

// Apply copies the set fields onto dst.
func (p ChairPatch) Apply(dst *Chair) {
	set(&dst.Number, p.Number)
	set(&dst.Name, p.Name)
	set(&dst.Available, p.Available)
	set(&dst.OccupantPatientID, p.OccupantPatientID)
}

// TouchesOccupancy reports whether the patch changes availability or occupant.
func (p ChairPatch) TouchesOccupancy() bool {
	return p.Available != nil || p.OccupantPatientID != nil
}

// MedicationPatch updates an inventory item.
type MedicationPatch struct {
	Name           *string    `json:"name,omitempty" validate:"omitempty,min=1"`
	Description    *string    `json:"description,omitempty"`
	Quantity       *float64   `json:"quantity,omitempty" validate:"omitempty,gte=0"`
	Unit           *string    `json:"unit,omitempty" validate:"omitempty,min=1"`
	ExpirationDate *time.Time `json:"expirationDate,omitempty"`
	LotNumber      *string    `json:"lotNumber,omitempty"`
	Supplier       *string    `json:"supplier,omitempty"`
}

// Apply copies the set fields onto dst.
func (p MedicationPatch) Apply(dst *Medication) {
	set(&dst.Name, p.Name)
	set(&dst.Description, p.Description)
	set(&dst.Quantity, p.Quantity)
	set(&dst.Unit, p.Unit)
	set(&dst.ExpirationDate, p.ExpirationDate)
	set(&dst.LotNumber, p.LotNumber)
	set(&dst.Supplier, p.Supplier)
}

// AppointmentPatch reschedules or annotates an appointment.
type AppointmentPatch struct {
	Date   *time.Time `json:"date,omitempty"`
	Time   *string    `json:"time,omitempty" validate:"omitempty,datetime=15:04"`
	Reason *string    `json:"reason,omitempty" validate:"omitempty,min=1"`
	Notes  *string    `json:"notes,omitempty"`
}

// Apply copies the set fields onto dst.
func (p AppointmentPatch) Apply(dst *Appointment) {
	set(&dst.Date, p.Date)
	set(&dst.Time, p.Time)
	set(&dst.Reason, p.Reason)
	set(&dst.Notes, p.Notes)
}

// VisitPatch amends a recorded visit.
type VisitPatch struct {
	Date  *time.Time `json:"date,omitempty"`
	Notes *string    `json:"notes,omitempty"`
}

// Apply copies the set fields onto dst.
func (p VisitPatch) Apply(dst *Visit) {
	set(&dst.Date, p.Date)
	set(&dst.Notes, p.Notes)
}

// UserPatch rotates a user's credentials.
type UserPatch struct {
	PasswordHash []byte
	PasswordSalt []byte
}

// Apply copies the set fields onto dst.
func (p UserPatch) Apply(dst *User) {
	if p.PasswordHash != nil {
		dst.PasswordHash = append([]byte(nil), p.PasswordHash...)
	}
	if p.PasswordSalt != nil {
		dst.PasswordSalt = append([]byte(nil), p.PasswordSalt...)
	}
}

func set[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

// Ptr returns a pointer to v; handy for building patches.
func Ptr[T any](v T) *T { return &v }

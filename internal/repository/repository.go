// Package repository defines storage-agnostic CRUD contracts for entity collections.
package repository

import (
	"context"

	"github.com/and161185/clinic-keeper/internal/model"
)

// Repository provides CRUD over one collection of T, patched by P.
// Absence is reported with ok=false rather than an error.
type Repository[T any, P any] interface {
	// List returns every record in stored order; empty when nothing is stored.
	List(ctx context.Context) ([]T, error)
	// Get returns the record with the given id.
	Get(ctx context.Context, id string) (rec T, ok bool, err error)
	// Insert assigns id and timestamps, appends and persists the record.
	Insert(ctx context.Context, rec T) (T, error)
	// Update applies patch to the record with the given id and refreshes its update time.
	Update(ctx context.Context, id string, patch P) (rec T, ok bool, err error)
	// Delete removes the record; ok reports whether anything was removed.
	Delete(ctx context.Context, id string) (ok bool, err error)
}

// Per-entity instantiations.
type (
	PatientRepository     = Repository[model.Patient, model.PatientPatch]
	ChairRepository       = Repository[model.Chair, model.ChairPatch]
	MedicationRepository  = Repository[model.Medication, model.MedicationPatch]
	AppointmentRepository = Repository[model.Appointment, model.AppointmentPatch]
	VisitRepository       = Repository[model.Visit, model.VisitPatch]
	UserRepository        = Repository[model.User, model.UserPatch]
)

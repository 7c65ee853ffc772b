package kvrepo

import (
	"github.com/and161185/clinic-keeper/internal/model"
	"github.com/and161185/clinic-keeper/internal/repository"
	"github.com/and161185/clinic-keeper/internal/storage"
)

// Concrete collections.
type (
	Patients     = Collection[model.Patient, *model.Patient, model.PatientPatch]
	Chairs       = Collection[model.Chair, *model.Chair, model.ChairPatch]
	Medications  = Collection[model.Medication, *model.Medication, model.MedicationPatch]
	Appointments = Collection[model.Appointment, *model.Appointment, model.AppointmentPatch]
	Visits       = Collection[model.Visit, *model.Visit, model.VisitPatch]
	Users        = Collection[model.User, *model.User, model.UserPatch]
)

var (
	_ repository.PatientRepository     = (*Patients)(nil)
	_ repository.ChairRepository       = (*Chairs)(nil)
	_ repository.MedicationRepository  = (*Medications)(nil)
	_ repository.AppointmentRepository = (*Appointments)(nil)
	_ repository.VisitRepository       = (*Visits)(nil)
	_ repository.UserRepository        = (*Users)(nil)
)

// Set bundles one collection per fixed key.
type Set struct {
	Patients     *Patients
	Chairs       *Chairs
	Medications  *Medications
	Appointments *Appointments
	Visits       *Visits
	Users        *Users
}

// NewSet wires every collection onto kv.
func NewSet(kv storage.KV, deps Deps) *Set {
	return &Set{
		Patients:     New[model.Patient, *model.Patient, model.PatientPatch](kv, storage.KeyPatients, deps),
		Chairs:       New[model.Chair, *model.Chair, model.ChairPatch](kv, storage.KeyChairs, deps),
		Medications:  New[model.Medication, *model.Medication, model.MedicationPatch](kv, storage.KeyMedications, deps),
		Appointments: New[model.Appointment, *model.Appointment, model.AppointmentPatch](kv, storage.KeyAppointments, deps),
		Visits:       New[model.Visit, *model.Visit, model.VisitPatch](kv, storage.KeyVisits, deps),
		Users:        New[model.User, *model.User, model.UserPatch](kv, storage.KeyUsers, deps),
	}
}

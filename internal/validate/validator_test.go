package validate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/and161185/clinic-keeper/internal/errs"
	"github.com/and161185/clinic-keeper/internal/model"
)

func TestValidator_Patient(t *testing.T) {
	t.Parallel()
	v := New()

	p := model.Patient{
		GivenNames:  "Ana",
		FamilyNames: "Rojas",
		NationalID:  "12.345.678-5",
		BirthDate:   time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC),
		Phone:       "+56912345678",
		Email:       "ana@clinic.cl",
	}
	require.NoError(t, v.Struct(p))

	p.NationalID = ""
	require.NoError(t, v.Struct(p), "national id is optional")

	bad := p
	bad.Phone = "123"
	bad.NationalID = "12.345.678-4"
	err := v.Struct(bad)
	require.ErrorIs(t, err, errs.ErrValidation)
	require.Contains(t, err.Error(), "phone")
	require.Contains(t, err.Error(), "nationalId")

	bad = p
	bad.GivenNames = ""
	require.ErrorIs(t, v.Struct(bad), errs.ErrValidation)
}

func TestValidator_ChairAndPatches(t *testing.T) {
	t.Parallel()
	v := New()

	require.NoError(t, v.Struct(model.Chair{Number: 1, Name: "Chair 1"}))
	require.ErrorIs(t, v.Struct(model.Chair{Number: 0, Name: "Chair 0"}), errs.ErrValidation)
	require.ErrorIs(t, v.Struct(model.Chair{Number: 2}), errs.ErrValidation)

	require.NoError(t, v.Struct(model.PatientPatch{}))
	require.NoError(t, v.Struct(model.PatientPatch{Phone: model.Ptr("912345678")}))
	require.ErrorIs(t, v.Struct(model.PatientPatch{Email: model.Ptr("nope")}), errs.ErrValidation)
	require.ErrorIs(t, v.Struct(model.ChairPatch{Number: model.Ptr(-1)}), errs.ErrValidation)
}

func TestValidator_MedicationAndAppointment(t *testing.T) {
	t.Parallel()
	v := New()

	require.NoError(t, v.Struct(model.Medication{Name: "Cisplatin", Unit: "mg", Quantity: 0}))
	require.ErrorIs(t, v.Struct(model.Medication{Name: "x", Unit: "mg", Quantity: -1}), errs.ErrValidation)

	require.NoError(t, v.Struct(model.Appointment{PatientID: "p1", Time: "09:30", Reason: "control"}))
	require.ErrorIs(t, v.Struct(model.Appointment{PatientID: "p1", Time: "9.30", Reason: "control"}), errs.ErrValidation)
}

package service

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/and161185/clinic-keeper/internal/model"
	"github.com/and161185/clinic-keeper/internal/repository"
	"github.com/and161185/clinic-keeper/internal/validate"
)

// ScheduleService manages appointments and recorded visits. Patient and
// chair ids on these records are not checked against their collections.
type ScheduleService interface {
	CreateAppointment(ctx context.Context, a model.Appointment) (model.Appointment, error)
	UpdateAppointment(ctx context.Context, id string, patch model.AppointmentPatch) (model.Appointment, bool, error)
	DeleteAppointment(ctx context.Context, id string) (bool, error)
	GetAppointment(ctx context.Context, id string) (model.Appointment, bool, error)
	ListAppointments(ctx context.Context) ([]model.Appointment, error)
	// ListAppointmentsByPatient returns a patient's appointments ordered by date and time.
	ListAppointmentsByPatient(ctx context.Context, patientID string) ([]model.Appointment, error)

	RecordVisit(ctx context.Context, v model.Visit) (model.Visit, error)
	UpdateVisit(ctx context.Context, id string, patch model.VisitPatch) (model.Visit, bool, error)
	DeleteVisit(ctx context.Context, id string) (bool, error)
	ListVisits(ctx context.Context) ([]model.Visit, error)
	ListVisitsByPatient(ctx context.Context, patientID string) ([]model.Visit, error)
}

type ScheduleServiceImpl struct {
	appts  repository.AppointmentRepository
	visits repository.VisitRepository
	val    validate.Validator
	log    *zap.Logger
}

var _ ScheduleService = (*ScheduleServiceImpl)(nil)

// NewScheduleService constructs ScheduleService. nil collaborators get defaults.
func NewScheduleService(appts repository.AppointmentRepository, visits repository.VisitRepository, val validate.Validator, log *zap.Logger) *ScheduleServiceImpl {
	if val == nil {
		val = validate.New()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &ScheduleServiceImpl{appts: appts, visits: visits, val: val, log: log.Named("schedule")}
}

func (s *ScheduleServiceImpl) CreateAppointment(ctx context.Context, a model.Appointment) (model.Appointment, error) {
	if err := s.val.Struct(a); err != nil {
		return model.Appointment{}, err
	}
	return s.appts.Insert(ctx, a)
}

func (s *ScheduleServiceImpl) UpdateAppointment(ctx context.Context, id string, patch model.AppointmentPatch) (model.Appointment, bool, error) {
	if err := s.val.Struct(patch); err != nil {
		return model.Appointment{}, false, err
	}
	return s.appts.Update(ctx, id, patch)
}

func (s *ScheduleServiceImpl) DeleteAppointment(ctx context.Context, id string) (bool, error) {
	return s.appts.Delete(ctx, id)
}

func (s *ScheduleServiceImpl) GetAppointment(ctx context.Context, id string) (model.Appointment, bool, error) {
	return s.appts.Get(ctx, id)
}

func (s *ScheduleServiceImpl) ListAppointments(ctx context.Context) ([]model.Appointment, error) {
	return s.appts.List(ctx)
}

func (s *ScheduleServiceImpl) ListAppointmentsByPatient(ctx context.Context, patientID string) ([]model.Appointment, error) {
	all, err := s.appts.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]model.Appointment, 0, len(all))
	for _, a := range all {
		if a.PatientID == patientID {
			out = append(out, a)
		}
	}
	// HH:MM sorts lexically
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].Time < out[j].Time
	})
	return out, nil
}

func (s *ScheduleServiceImpl) RecordVisit(ctx context.Context, v model.Visit) (model.Visit, error) {
	if err := s.val.Struct(v); err != nil {
		return model.Visit{}, err
	}
	return s.visits.Insert(ctx, v)
}

func (s *ScheduleServiceImpl) UpdateVisit(ctx context.Context, id string, patch model.VisitPatch) (model.Visit, bool, error) {
	return s.visits.Update(ctx, id, patch)
}

func (s *ScheduleServiceImpl) DeleteVisit(ctx context.Context, id string) (bool, error) {
	return s.visits.Delete(ctx, id)
}

func (s *ScheduleServiceImpl) ListVisits(ctx context.Context) ([]model.Visit, error) {
	return s.visits.List(ctx)
}

func (s *ScheduleServiceImpl) ListVisitsByPatient(ctx context.Context, patientID string) ([]model.Visit, error) {
	all, err := s.visits.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]model.Visit, 0, len(all))
	for _, v := range all {
		if v.PatientID == patientID {
			out = append(out, v)
		}
	}
	return out, nil
}

package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/and161185/clinic-keeper/internal/errs"
	"github.com/and161185/clinic-keeper/internal/metrics"
	"github.com/and161185/clinic-keeper/internal/model"
	"github.com/and161185/clinic-keeper/internal/repository"
	"github.com/and161185/clinic-keeper/internal/validate"
)

// ChairPolicy decides what happens when the chair half of a patient
// operation fails after the patient half was written.
type ChairPolicy string

const (
	// BestEffort logs and counts the failure and reports success.
	BestEffort ChairPolicy = "best-effort"
	// Strict returns the failure. The patient write is not rolled back.
	Strict ChairPolicy = "strict"
)

// ParseChairPolicy maps a config string to a policy; empty means BestEffort.
func ParseChairPolicy(s string) (ChairPolicy, error) {
	switch ChairPolicy(s) {
	case "", BestEffort:
		return BestEffort, nil
	case Strict:
		return Strict, nil
	}
	return "", fmt.Errorf("%w: unknown chair policy %q", errs.ErrValidation, s)
}

// DefaultChairCount is how many chairs EnsureDefaultChairs creates.
const DefaultChairCount = 3

// AssignmentService keeps patients and chairs consistent: a patient's
// assigned chair names that patient as occupant and is unavailable.
type AssignmentService interface {
	// CreatePatient inserts p and occupies its chair, if any.
	CreatePatient(ctx context.Context, p model.Patient) (model.Patient, error)
	// UpdatePatient patches a patient and moves its chair occupancy when the assignment changes.
	UpdatePatient(ctx context.Context, id string, patch model.PatientPatch) (model.Patient, bool, error)
	// DeletePatient releases the patient's chair and removes the patient.
	DeletePatient(ctx context.Context, id string) (bool, error)
	ListPatients(ctx context.Context) ([]model.Patient, error)
	GetPatient(ctx context.Context, id string) (model.Patient, bool, error)

	// OccupyChair marks chairID as taken by patientID.
	OccupyChair(ctx context.Context, chairID, patientID string) error
	// ReleaseChair frees chairID unless a patient still references it.
	// Releasing a free chair writes nothing.
	ReleaseChair(ctx context.Context, chairID string) error
	CreateChair(ctx context.Context, c model.Chair) (model.Chair, error)
	UpdateChair(ctx context.Context, id string, patch model.ChairPatch) (model.Chair, bool, error)
	UpdateChairNumber(ctx context.Context, id string, number int) (model.Chair, bool, error)
	SetChairAvailability(ctx context.Context, id string, available bool) (model.Chair, bool, error)
	DeleteChair(ctx context.Context, id string) (bool, error)
	ListChairs(ctx context.Context) ([]model.Chair, error)
	ListAvailableChairs(ctx context.Context) ([]model.Chair, error)
	GetChair(ctx context.Context, id string) (model.Chair, bool, error)
	// OccupantOf returns the patient that references chairID.
	OccupantOf(ctx context.Context, chairID string) (model.Patient, bool, error)

	// EnsureDefaultChairs creates the first chairs when none exist.
	EnsureDefaultChairs(ctx context.Context) ([]model.Chair, error)
	// CheckConsistency lists every occupancy or numbering rule currently broken.
	CheckConsistency(ctx context.Context) ([]Violation, error)
}

// AssignmentOptions are optional collaborators of the assignment service.
type AssignmentOptions struct {
	Policy    ChairPolicy
	Validator validate.Validator
	Logger    *zap.Logger
	Metrics   *metrics.Recorder
}

type AssignmentServiceImpl struct {
	patients repository.PatientRepository
	chairs   repository.ChairRepository
	policy   ChairPolicy
	val      validate.Validator
	log      *zap.Logger
	met      *metrics.Recorder

	// mu serialises mutations that span both collections.
	mu sync.Mutex
}

var _ AssignmentService = (*AssignmentServiceImpl)(nil)

// NewAssignmentService constructs the service over the two repositories.
func NewAssignmentService(patients repository.PatientRepository, chairs repository.ChairRepository, o AssignmentOptions) *AssignmentServiceImpl {
	if o.Policy == "" {
		o.Policy = BestEffort
	}
	if o.Validator == nil {
		o.Validator = validate.New()
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return &AssignmentServiceImpl{
		patients: patients,
		chairs:   chairs,
		policy:   o.Policy,
		val:      o.Validator,
		log:      o.Logger.Named("assignment"),
		met:      o.Metrics,
	}
}

// Policy returns the configured side-effect policy.
func (s *AssignmentServiceImpl) Policy() ChairPolicy { return s.policy }

// CreatePatient validates p, refuses a chair held by another patient, inserts
// p and then occupies the chair. Under Strict a failed occupy is returned
// together with the stored patient.
func (s *AssignmentServiceImpl) CreatePatient(ctx context.Context, p model.Patient) (rec model.Patient, err error) {
	defer func() { s.observe("create_patient", err) }()

	if err := s.val.Struct(p); err != nil {
		return model.Patient{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if p.AssignedChairID != "" {
		if err := s.checkChairFree(ctx, p.AssignedChairID, ""); err != nil {
			return model.Patient{}, err
		}
	}
	rec, err = s.patients.Insert(ctx, p)
	if err != nil {
		return model.Patient{}, err
	}
	s.log.Info("patient created", zap.String("patient_id", rec.ID), zap.String("chair_id", rec.AssignedChairID))

	if rec.AssignedChairID != "" {
		if err := s.occupy(ctx, rec.AssignedChairID, rec.ID); err != nil {
			return rec, s.sideEffect("occupy", rec.AssignedChairID, rec.ID, err)
		}
	}
	return rec, nil
}

// UpdatePatient applies patch. When the patch names a different chair the
// previous one is released and the new one occupied, in that order.
func (s *AssignmentServiceImpl) UpdatePatient(ctx context.Context, id string, patch model.PatientPatch) (rec model.Patient, ok bool, err error) {
	defer func() { s.observe("update_patient", err) }()

	if err := s.val.Struct(patch); err != nil {
		return model.Patient{}, false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prev, ok, err := s.patients.Get(ctx, id)
	if err != nil || !ok {
		return model.Patient{}, false, err
	}

	next, moving := prev.AssignedChairID, false
	if patch.AssignedChairID != nil && *patch.AssignedChairID != prev.AssignedChairID {
		next, moving = *patch.AssignedChairID, true
	}
	if moving && next != "" {
		if err := s.checkChairFree(ctx, next, id); err != nil {
			return model.Patient{}, false, err
		}
	}

	rec, ok, err = s.patients.Update(ctx, id, patch)
	if err != nil || !ok {
		return model.Patient{}, false, err
	}
	if !moving {
		return rec, true, nil
	}
	s.log.Info("patient moved", zap.String("patient_id", id),
		zap.String("from_chair", prev.AssignedChairID), zap.String("to_chair", next))

	if prev.AssignedChairID != "" {
		if err := s.releaseFor(ctx, prev.AssignedChairID, id); err != nil {
			if err = s.sideEffect("release", prev.AssignedChairID, id, err); err != nil {
				return rec, true, err
			}
		}
	}
	if next != "" {
		if err := s.occupy(ctx, next, id); err != nil {
			if err = s.sideEffect("occupy", next, id, err); err != nil {
				return rec, true, err
			}
		}
	}
	return rec, true, nil
}

// DeletePatient releases the held chair, then deletes the patient. Under
// Strict a failed release aborts before the patient is touched.
func (s *AssignmentServiceImpl) DeletePatient(ctx context.Context, id string) (ok bool, err error) {
	defer func() { s.observe("delete_patient", err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok, err := s.patients.Get(ctx, id)
	if err != nil || !ok {
		return false, err
	}
	if p.AssignedChairID != "" {
		if err := s.releaseFor(ctx, p.AssignedChairID, id); err != nil {
			if err = s.sideEffect("release", p.AssignedChairID, id, err); err != nil {
				return false, err
			}
		}
	}
	ok, err = s.patients.Delete(ctx, id)
	if err != nil {
		return false, err
	}
	s.log.Info("patient deleted", zap.String("patient_id", id))
	return ok, nil
}

func (s *AssignmentServiceImpl) ListPatients(ctx context.Context) ([]model.Patient, error) {
	return s.patients.List(ctx)
}

func (s *AssignmentServiceImpl) GetPatient(ctx context.Context, id string) (model.Patient, bool, error) {
	return s.patients.Get(ctx, id)
}

// OccupyChair refuses a chair held by another patient that still references it.
func (s *AssignmentServiceImpl) OccupyChair(ctx context.Context, chairID, patientID string) (err error) {
	defer func() { s.observe("occupy_chair", err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkChairFree(ctx, chairID, patientID); err != nil {
		return err
	}
	return s.occupy(ctx, chairID, patientID)
}

// ReleaseChair frees a chair no patient references.
func (s *AssignmentServiceImpl) ReleaseChair(ctx context.Context, chairID string) (err error) {
	defer func() { s.observe("release_chair", err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	holder, held, err := s.referencing(ctx, chairID)
	if err != nil {
		return err
	}
	if held {
		return fmt.Errorf("%w: chair %q is assigned to patient %q", errs.ErrChairOccupiedByPatient, chairID, holder.ID)
	}
	return s.release(ctx, chairID)
}

// CreateChair inserts c after checking its number is unused. Occupancy in
// the input is ignored: new chairs never have an occupant.
func (s *AssignmentServiceImpl) CreateChair(ctx context.Context, c model.Chair) (rec model.Chair, err error) {
	defer func() { s.observe("create_chair", err) }()

	if err := s.val.Struct(c); err != nil {
		return model.Chair{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkNumberFree(ctx, c.Number, ""); err != nil {
		return model.Chair{}, err
	}
	c.OccupantPatientID = ""
	return s.chairs.Insert(ctx, c)
}

// UpdateChair changes number or name. Occupancy fields are owned by this
// service and rejected here.
func (s *AssignmentServiceImpl) UpdateChair(ctx context.Context, id string, patch model.ChairPatch) (rec model.Chair, ok bool, err error) {
	defer func() { s.observe("update_chair", err) }()

	if patch.TouchesOccupancy() {
		return model.Chair{}, false, fmt.Errorf("%w: availability and occupant are managed by assignment operations", errs.ErrValidation)
	}
	if err := s.val.Struct(patch); err != nil {
		return model.Chair{}, false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if patch.Number != nil {
		if _, ok, err := s.chairs.Get(ctx, id); err != nil || !ok {
			return model.Chair{}, false, err
		}
		if err := s.checkNumberFree(ctx, *patch.Number, id); err != nil {
			return model.Chair{}, false, err
		}
	}
	return s.chairs.Update(ctx, id, patch)
}

func (s *AssignmentServiceImpl) UpdateChairNumber(ctx context.Context, id string, number int) (model.Chair, bool, error) {
	return s.UpdateChair(ctx, id, model.ChairPatch{Number: &number})
}

// SetChairAvailability takes a chair out of service or returns it. A chair a
// patient still references cannot be made available; making a chair
// available clears any stale occupant.
func (s *AssignmentServiceImpl) SetChairAvailability(ctx context.Context, id string, available bool) (rec model.Chair, ok bool, err error) {
	defer func() { s.observe("set_chair_availability", err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok, err := s.chairs.Get(ctx, id); err != nil || !ok {
		return model.Chair{}, false, err
	}
	patch := model.ChairPatch{Available: &available}
	if available {
		holder, held, err := s.referencing(ctx, id)
		if err != nil {
			return model.Chair{}, false, err
		}
		if held {
			return model.Chair{}, false, fmt.Errorf("%w: chair %q is assigned to patient %q", errs.ErrChairOccupiedByPatient, id, holder.ID)
		}
		patch.OccupantPatientID = model.Ptr("")
	}
	return s.chairs.Update(ctx, id, patch)
}

// DeleteChair removes an unreferenced chair.
func (s *AssignmentServiceImpl) DeleteChair(ctx context.Context, id string) (ok bool, err error) {
	defer func() { s.observe("delete_chair", err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	holder, held, err := s.referencing(ctx, id)
	if err != nil {
		return false, err
	}
	if held {
		return false, fmt.Errorf("%w: chair %q is assigned to patient %q", errs.ErrChairOccupied, id, holder.ID)
	}
	return s.chairs.Delete(ctx, id)
}

func (s *AssignmentServiceImpl) ListChairs(ctx context.Context) ([]model.Chair, error) {
	return s.chairs.List(ctx)
}

func (s *AssignmentServiceImpl) ListAvailableChairs(ctx context.Context) ([]model.Chair, error) {
	all, err := s.chairs.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]model.Chair, 0, len(all))
	for _, c := range all {
		if c.Available {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *AssignmentServiceImpl) GetChair(ctx context.Context, id string) (model.Chair, bool, error) {
	return s.chairs.Get(ctx, id)
}

func (s *AssignmentServiceImpl) OccupantOf(ctx context.Context, chairID string) (model.Patient, bool, error) {
	return s.referencing(ctx, chairID)
}

// EnsureDefaultChairs creates chairs numbered 1..DefaultChairCount on an empty
// collection and returns the resulting list.
func (s *AssignmentServiceImpl) EnsureDefaultChairs(ctx context.Context) ([]model.Chair, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.chairs.List(ctx)
	if err != nil || len(all) > 0 {
		return all, err
	}
	for n := 1; n <= DefaultChairCount; n++ {
		c, err := s.chairs.Insert(ctx, model.Chair{Number: n, Name: fmt.Sprintf("Chair %d", n), Available: true})
		if err != nil {
			return nil, err
		}
		all = append(all, c)
	}
	s.log.Info("default chairs created", zap.Int("count", len(all)))
	return all, nil
}

// checkChairFree fails when chairID does not exist or is held by a patient
// other than self that still references it. Stale occupants pass.
func (s *AssignmentServiceImpl) checkChairFree(ctx context.Context, chairID, self string) error {
	c, ok, err := s.chairs.Get(ctx, chairID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: chair %q", errs.ErrNotFound, chairID)
	}
	if !c.Occupied() || c.OccupantPatientID == self {
		return nil
	}
	holder, ok, err := s.patients.Get(ctx, c.OccupantPatientID)
	if err != nil {
		return err
	}
	if ok && holder.AssignedChairID == chairID {
		return fmt.Errorf("%w: chair %q is held by patient %q", errs.ErrChairOccupied, chairID, holder.ID)
	}
	s.log.Info("overwriting stale occupant", zap.String("chair_id", chairID), zap.String("stale_patient_id", c.OccupantPatientID))
	return nil
}

func (s *AssignmentServiceImpl) checkNumberFree(ctx context.Context, number int, self string) error {
	all, err := s.chairs.List(ctx)
	if err != nil {
		return err
	}
	for _, c := range all {
		if c.Number == number && c.ID != self {
			return fmt.Errorf("%w: %d is used by chair %q", errs.ErrDuplicateChairNumber, number, c.ID)
		}
	}
	return nil
}

// referencing returns the first patient whose assignment names chairID.
func (s *AssignmentServiceImpl) referencing(ctx context.Context, chairID string) (model.Patient, bool, error) {
	all, err := s.patients.List(ctx)
	if err != nil {
		return model.Patient{}, false, err
	}
	for _, p := range all {
		if p.AssignedChairID == chairID {
			return p, true, nil
		}
	}
	return model.Patient{}, false, nil
}

func (s *AssignmentServiceImpl) occupy(ctx context.Context, chairID, patientID string) error {
	_, ok, err := s.chairs.Update(ctx, chairID, model.ChairPatch{
		Available:         model.Ptr(false),
		OccupantPatientID: &patientID,
	})
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: chair %q", errs.ErrNotFound, chairID)
	}
	return nil
}

func (s *AssignmentServiceImpl) release(ctx context.Context, chairID string) error {
	c, ok, err := s.chairs.Get(ctx, chairID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: chair %q", errs.ErrNotFound, chairID)
	}
	if c.Available && !c.Occupied() {
		return nil
	}
	_, _, err = s.chairs.Update(ctx, chairID, model.ChairPatch{
		Available:         model.Ptr(true),
		OccupantPatientID: model.Ptr(""),
	})
	return err
}

// releaseFor frees chairID on behalf of patientID, leaving it alone when it
// names somebody else. A missing chair has nothing to free.
func (s *AssignmentServiceImpl) releaseFor(ctx context.Context, chairID, patientID string) error {
	c, ok, err := s.chairs.Get(ctx, chairID)
	if err != nil {
		return err
	}
	if !ok {
		s.log.Warn("assigned chair missing, nothing to release",
			zap.String("chair_id", chairID), zap.String("patient_id", patientID))
		return nil
	}
	if c.Occupied() && c.OccupantPatientID != patientID {
		s.log.Warn("chair held by another patient, not released",
			zap.String("chair_id", chairID), zap.String("patient_id", patientID),
			zap.String("occupant_id", c.OccupantPatientID))
		return nil
	}
	return s.release(ctx, chairID)
}

func (s *AssignmentServiceImpl) sideEffect(action, chairID, patientID string, err error) error {
	s.met.SideEffectFailed(action, string(s.policy))
	fields := []zap.Field{
		zap.String("action", action),
		zap.String("chair_id", chairID),
		zap.String("patient_id", patientID),
		zap.String("policy", string(s.policy)),
		zap.Error(err),
	}
	if s.policy == Strict {
		s.log.Error("chair update failed", fields...)
		return fmt.Errorf("%s chair %q for patient %q: %w", action, chairID, patientID, err)
	}
	s.log.Warn("chair update failed, patient change kept", fields...)
	return nil
}

func (s *AssignmentServiceImpl) observe(op string, err error) {
	switch {
	case err == nil:
		s.met.Op(op, metrics.OutcomeOK)
	case errs.IsDomainRule(err):
		s.met.Op(op, metrics.OutcomeRejected)
		s.met.Rejected(ruleName(err))
	case errors.Is(err, errs.ErrValidation), errors.Is(err, errs.ErrNotFound):
		s.met.Op(op, metrics.OutcomeRejected)
	default:
		s.met.Op(op, metrics.OutcomeError)
	}
}

func ruleName(err error) string {
	switch {
	case errors.Is(err, errs.ErrDuplicateChairNumber):
		return "duplicate_chair_number"
	case errors.Is(err, errs.ErrChairOccupiedByPatient):
		return "chair_occupied_by_patient"
	case errors.Is(err, errs.ErrChairOccupied):
		return "chair_occupied"
	}
	return "other"
}

// sortViolations orders violations for stable reports.
func sortViolations(v []Violation) {
	sort.SliceStable(v, func(i, j int) bool {
		if v[i].Kind != v[j].Kind {
			return v[i].Kind < v[j].Kind
		}
		if v[i].ChairID != v[j].ChairID {
			return v[i].ChairID < v[j].ChairID
		}
		return v[i].PatientID < v[j].PatientID
	})
}

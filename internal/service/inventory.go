package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/and161185/clinic-keeper/internal/model"
	"github.com/and161185/clinic-keeper/internal/repository"
	"github.com/and161185/clinic-keeper/internal/validate"
)

// InventoryService manages medication stock.
type InventoryService interface {
	CreateMedication(ctx context.Context, m model.Medication) (model.Medication, error)
	UpdateMedication(ctx context.Context, id string, patch model.MedicationPatch) (model.Medication, bool, error)
	DeleteMedication(ctx context.Context, id string) (bool, error)
	GetMedication(ctx context.Context, id string) (model.Medication, bool, error)
	ListMedications(ctx context.Context) ([]model.Medication, error)
	// ListLowStock returns items at or below model.LowStockThreshold.
	ListLowStock(ctx context.Context) ([]model.Medication, error)
	// ListByExpiry returns items whose expiry status at the current time equals status.
	ListByExpiry(ctx context.Context, status model.ExpiryStatus) ([]model.Medication, error)
}

type InventoryServiceImpl struct {
	meds repository.MedicationRepository
	val  validate.Validator
	now  func() time.Time
	log  *zap.Logger
}

var _ InventoryService = (*InventoryServiceImpl)(nil)

// NewInventoryService constructs InventoryService. nil collaborators get defaults.
func NewInventoryService(meds repository.MedicationRepository, val validate.Validator, now func() time.Time, log *zap.Logger) *InventoryServiceImpl {
	if val == nil {
		val = validate.New()
	}
	if now == nil {
		now = time.Now
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &InventoryServiceImpl{meds: meds, val: val, now: now, log: log.Named("inventory")}
}

func (s *InventoryServiceImpl) CreateMedication(ctx context.Context, m model.Medication) (model.Medication, error) {
	if err := s.val.Struct(m); err != nil {
		return model.Medication{}, err
	}
	rec, err := s.meds.Insert(ctx, m)
	if err != nil {
		return model.Medication{}, err
	}
	s.log.Debug("medication created", zap.String("id", rec.ID), zap.String("name", rec.Name))
	return rec, nil
}

func (s *InventoryServiceImpl) UpdateMedication(ctx context.Context, id string, patch model.MedicationPatch) (model.Medication, bool, error) {
	if err := s.val.Struct(patch); err != nil {
		return model.Medication{}, false, err
	}
	return s.meds.Update(ctx, id, patch)
}

func (s *InventoryServiceImpl) DeleteMedication(ctx context.Context, id string) (bool, error) {
	return s.meds.Delete(ctx, id)
}

func (s *InventoryServiceImpl) GetMedication(ctx context.Context, id string) (model.Medication, bool, error) {
	return s.meds.Get(ctx, id)
}

func (s *InventoryServiceImpl) ListMedications(ctx context.Context) ([]model.Medication, error) {
	return s.meds.List(ctx)
}

func (s *InventoryServiceImpl) ListLowStock(ctx context.Context) ([]model.Medication, error) {
	return s.filter(ctx, model.Medication.LowStock)
}

func (s *InventoryServiceImpl) ListByExpiry(ctx context.Context, status model.ExpiryStatus) ([]model.Medication, error) {
	now := s.now()
	return s.filter(ctx, func(m model.Medication) bool { return m.ExpiryStatus(now) == status })
}

func (s *InventoryServiceImpl) filter(ctx context.Context, keep func(model.Medication) bool) ([]model.Medication, error) {
	all, err := s.meds.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]model.Medication, 0, len(all))
	for _, m := range all {
		if keep(m) {
			out = append(out, m)
		}
	}
	return out, nil
}

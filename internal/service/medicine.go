package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Ayushbunkar/Meditrack/internal/cache"
	"github.com/Ayushbunkar/Meditrack/internal/metrics"
	"github.com/Ayushbunkar/Meditrack/internal/model"
	"github.com/Ayushbunkar/Meditrack/internal/repository"
)

// MedicineService manages a user's medicine schedule.
type MedicineService struct {
	store   repository.MedicineStore
	history cache.HistoryCache
	metrics metrics.Recorder
	logger  *slog.Logger
	now     func() time.Time
}

// NewMedicineService creates a new MedicineService.
func NewMedicineService(store repository.MedicineStore, history cache.HistoryCache, recorder metrics.Recorder, logger *slog.Logger) *MedicineService {
	if history == nil {
		history = cache.NopHistory{}
	}
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &MedicineService{
		store:   store,
		history: history,
		metrics: recorder,
		logger:  logger.With("component", "medicine_service"),
		now:     storeNow,
	}
}

// CreateMedicineInput defines input for creating a medicine.
type CreateMedicineInput struct {
	Name   string
	Time   string
	Dosage string
}

// List returns all medicines of the user.
func (s *MedicineService) List(ctx context.Context, userID string) ([]*model.Medicine, error) {
	meds, err := s.store.ListMedicines(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list medicines: %w", err)
	}
	return meds, nil
}

// Create adds a medicine for the user. Name, time and dosage are required.
func (s *MedicineService) Create(ctx context.Context, userID string, input CreateMedicineInput) (*model.Medicine, error) {
	name := strings.TrimSpace(input.Name)
	at := strings.TrimSpace(input.Time)
	dosage := strings.TrimSpace(input.Dosage)
	if name == "" || at == "" || dosage == "" {
		return nil, invalid("name, time and dosage are required")
	}

	now := s.now()
	med := &model.Medicine{
		ID:        model.NewID(),
		UserID:    userID,
		Name:      name,
		Time:      at,
		Dosage:    dosage,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.store.CreateMedicine(ctx, med); err != nil {
		return nil, fmt.Errorf("create medicine: %w", err)
	}

	s.metrics.IncMedicineCreated()
	return med, nil
}

// Get returns one of the user's medicines.
func (s *MedicineService) Get(ctx context.Context, userID, id string) (*model.Medicine, error) {
	return loadOwned(ctx, userID, id, s.store.GetMedicine, ErrMedicineNotFound)
}

// Update applies a partial update. A field that is present must not be blank.
// An empty patch returns the medicine unchanged.
func (s *MedicineService) Update(ctx context.Context, userID, id string, patch model.MedicinePatch) (*model.Medicine, error) {
	fields := []struct {
		name  string
		value *string
	}{
		{"name", patch.Name},
		{"time", patch.Time},
		{"dosage", patch.Dosage},
	}
	for _, f := range fields {
		if f.value != nil && strings.TrimSpace(*f.value) == "" {
			return nil, invalid(f.name + " must not be empty")
		}
	}

	med, err := loadOwned(ctx, userID, id, s.store.GetMedicine, ErrMedicineNotFound)
	if err != nil {
		return nil, err
	}
	if patch.IsEmpty() {
		return med, nil
	}

	updated, err := s.store.UpdateMedicine(ctx, med.ID, patch, s.now())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrMedicineNotFound
		}
		return nil, fmt.Errorf("update medicine: %w", err)
	}

	s.metrics.IncMedicineUpdated()
	s.invalidateHistory(ctx, userID)
	return updated, nil
}

// Delete removes one of the user's medicines. Its alerts are kept.
func (s *MedicineService) Delete(ctx context.Context, userID, id string) error {
	med, err := loadOwned(ctx, userID, id, s.store.GetMedicine, ErrMedicineNotFound)
	if err != nil {
		return err
	}

	if err := s.store.DeleteMedicine(ctx, med.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrMedicineNotFound
		}
		return fmt.Errorf("delete medicine: %w", err)
	}

	s.metrics.IncMedicineDeleted()
	s.invalidateHistory(ctx, userID)
	return nil
}

func (s *MedicineService) invalidateHistory(ctx context.Context, userID string) {
	if err := s.history.InvalidateHistory(ctx, userID); err != nil {
		s.logger.Warn("history cache invalidation failed",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
	}
}

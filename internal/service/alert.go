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

// AlertService drives the alert lifecycle: trigger, confirm and history.
type AlertService struct {
	medicines repository.MedicineStore
	alerts    repository.AlertStore
	history   cache.HistoryCache
	metrics   metrics.Recorder
	logger    *slog.Logger
	now       func() time.Time
}

// NewAlertService creates a new AlertService.
func NewAlertService(medicines repository.MedicineStore, alerts repository.AlertStore, history cache.HistoryCache, recorder metrics.Recorder, logger *slog.Logger) *AlertService {
	if history == nil {
		history = cache.NopHistory{}
	}
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AlertService{
		medicines: medicines,
		alerts:    alerts,
		history:   history,
		metrics:   recorder,
		logger:    logger.With("component", "alert_service"),
		now:       storeNow,
	}
}

// storeNow is the current UTC time at millisecond precision, the finest
// every store keeps. A value handed back to the caller then compares equal
// to the same value read back later.
func storeNow() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

// TriggerInput defines input for triggering an alert.
type TriggerInput struct {
	MedicineID string
	// Time defaults to the medicine's scheduled time when empty.
	Time string
}

// Trigger creates an alert for one of the user's medicines.
// The alert is stored as missed and stays pending until confirmed.
func (s *AlertService) Trigger(ctx context.Context, userID string, input TriggerInput) (*model.Alert, error) {
	medicineID := strings.TrimSpace(input.MedicineID)
	if medicineID == "" {
		return nil, invalid("medicineId is required")
	}

	med, err := loadOwned(ctx, userID, medicineID, s.medicines.GetMedicine, ErrMedicineNotFound)
	if err != nil {
		return nil, err
	}

	at := strings.TrimSpace(input.Time)
	if at == "" {
		at = med.Time
	}

	now := s.now()
	alert := &model.Alert{
		ID:          model.NewID(),
		UserID:      userID,
		MedicineID:  med.ID,
		Time:        at,
		Status:      model.AlertStatusMissed,
		Timestamp:   now,
		TriggeredAt: now,
	}

	if err := s.alerts.CreateAlert(ctx, alert); err != nil {
		return nil, fmt.Errorf("create alert: %w", err)
	}

	s.metrics.IncAlertTriggered()
	s.invalidateHistory(ctx, userID)
	return alert, nil
}

// MarkTaken records that the user took the dose.
func (s *AlertService) MarkTaken(ctx context.Context, userID, alertID string) (*model.Alert, error) {
	return s.confirm(ctx, userID, alertID, model.AlertStatusTaken)
}

// MarkMissed records that the user skipped the dose.
func (s *AlertService) MarkMissed(ctx context.Context, userID, alertID string) (*model.Alert, error) {
	return s.confirm(ctx, userID, alertID, model.AlertStatusMissed)
}

// confirm is last-write-wins: repeated or concurrent calls simply overwrite.
func (s *AlertService) confirm(ctx context.Context, userID, alertID string, status model.AlertStatus) (*model.Alert, error) {
	alertID = strings.TrimSpace(alertID)
	if alertID == "" {
		return nil, invalid("alertId is required")
	}

	alert, err := loadOwned(ctx, userID, alertID, s.alerts.GetAlert, ErrAlertNotFound)
	if err != nil {
		return nil, err
	}

	updated, err := s.alerts.UpdateAlertStatus(ctx, alert.ID, status, s.now())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAlertNotFound
		}
		return nil, fmt.Errorf("update alert: %w", err)
	}

	s.metrics.IncAlertConfirmed(string(status))
	s.invalidateHistory(ctx, userID)
	return updated, nil
}

// HistoryFilter narrows a history query. The zero value returns everything.
type HistoryFilter struct {
	// Day keeps alerts whose timestamp falls on this calendar date in Location.
	Day      *time.Time
	Location *time.Location
	Status   model.AlertStatus
}

// ParseHistoryFilter builds a filter from query parameters.
// date is YYYY-MM-DD, tz an IANA zone name (default UTC), status taken|missed.
func ParseHistoryFilter(date, tz, status string) (HistoryFilter, error) {
	var f HistoryFilter

	loc := time.UTC
	if tz != "" {
		l, err := time.LoadLocation(tz)
		if err != nil {
			return f, invalid("tz must be an IANA time zone")
		}
		loc = l
	}
	f.Location = loc

	if date != "" {
		day, err := time.ParseInLocation("2006-01-02", date, loc)
		if err != nil {
			return f, invalid("date must be YYYY-MM-DD")
		}
		f.Day = &day
	}

	if status != "" {
		st := model.AlertStatus(status)
		if !st.IsValid() {
			return f, invalid("status must be taken or missed")
		}
		f.Status = st
	}

	return f, nil
}

// History returns the user's alerts joined with their medicines, oldest first.
func (s *AlertService) History(ctx context.Context, userID string, filter HistoryFilter) ([]*model.AlertDetail, error) {
	history, err := s.loadHistory(ctx, userID)
	if err != nil {
		return nil, err
	}

	if filter.Day != nil {
		history = model.OnDate(history, *filter.Day, filter.Location)
	}
	if filter.Status != "" {
		history = model.WithStatus(history, filter.Status)
	}
	return history, nil
}

func (s *AlertService) loadHistory(ctx context.Context, userID string) ([]*model.AlertDetail, error) {
	// The generation is read before the store so a write that lands during
	// the load leaves our fill under a generation nobody reads.
	cached, gen, err := s.history.GetHistory(ctx, userID)
	if err == nil {
		s.metrics.IncHistoryCacheHit()
		return cached, nil
	}
	fill := errors.Is(err, cache.ErrCacheMiss)
	if fill {
		s.metrics.IncHistoryCacheMiss()
	} else {
		s.logger.Warn("history cache read failed", slog.String("user_id", userID), slog.String("error", err.Error()))
	}

	history, err := s.alerts.ListAlertDetails(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list alert history: %w", err)
	}

	for _, d := range history {
		// Never expand a medicine the caller does not own.
		if d.Medicine != nil && d.Medicine.UserID != userID {
			d.Medicine = nil
		}
	}

	if !fill {
		return history, nil
	}
	if err := s.history.SetHistory(ctx, userID, gen, history); err != nil {
		s.logger.Warn("history cache write failed", slog.String("user_id", userID), slog.String("error", err.Error()))
	}
	return history, nil
}

func (s *AlertService) invalidateHistory(ctx context.Context, userID string) {
	if err := s.history.InvalidateHistory(ctx, userID); err != nil {
		s.logger.Warn("history cache invalidation failed",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
	}
}

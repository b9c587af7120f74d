package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/Ayushbunkar/Meditrack/internal/model"
)

var alertColumns = []string{"id", "user_id", "medicine_id", "time", "status", "status_at", "triggered_at", "confirmed_at"}

// CreateAlert inserts a new alert.
func (s *Store) CreateAlert(ctx context.Context, alert *model.Alert) error {
	insert := s.qb.Insert("alerts").
		Columns(alertColumns...).
		Values(alert.ID, alert.UserID, alert.MedicineID, alert.Time, string(alert.Status),
			alert.Timestamp, alert.TriggeredAt, alert.ConfirmedAt)

	if _, err := s.exec(ctx, insert); err != nil {
		return fmt.Errorf("failed to create alert: %w", err)
	}
	return nil
}

// GetAlert retrieves an alert by ID.
func (s *Store) GetAlert(ctx context.Context, id string) (*model.Alert, error) {
	row, err := s.queryRow(ctx, s.qb.Select(alertColumns...).From("alerts").Where(sq.Eq{"id": id}))
	if err != nil {
		return nil, err
	}

	alert, err := scanAlert(row)
	if err != nil {
		return nil, fmt.Errorf("failed to get alert: %w", notFound(err))
	}
	return alert, nil
}

// UpdateAlertStatus records the user's answer on an alert.
func (s *Store) UpdateAlertStatus(ctx context.Context, id string, status model.AlertStatus, at time.Time) (*model.Alert, error) {
	update := s.qb.Update("alerts").
		Set("status", string(status)).
		Set("status_at", at).
		Set("confirmed_at", at).
		Where(sq.Eq{"id": id}).
		Suffix("RETURNING " + joinColumns(alertColumns))

	row, err := s.queryRow(ctx, update)
	if err != nil {
		return nil, err
	}

	alert, err := scanAlert(row)
	if err != nil {
		return nil, fmt.Errorf("failed to update alert: %w", notFound(err))
	}
	return alert, nil
}

// ListAlertDetails returns the user's alerts with their medicines, oldest first.
func (s *Store) ListAlertDetails(ctx context.Context, userID string) ([]*model.AlertDetail, error) {
	cols := make([]string, 0, len(alertColumns)+len(medicineColumns))
	for _, c := range alertColumns {
		cols = append(cols, "a."+c)
	}
	for _, c := range medicineColumns {
		cols = append(cols, "m."+c)
	}

	query, args, err := s.qb.Select(cols...).
		From("alerts a").
		LeftJoin("medicines m ON m.id = a.medicine_id").
		Where(sq.Eq{"a.user_id": userID}).
		OrderBy("a.triggered_at ASC", "a.id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list alerts: %w", err)
	}
	defer rows.Close()

	details := []*model.AlertDetail{}
	for rows.Next() {
		d, err := scanAlertDetail(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan alert: %w", err)
		}
		details = append(details, d)
	}
	return details, rows.Err()
}

func scanAlert(row pgx.Row) (*model.Alert, error) {
	var (
		a      model.Alert
		status string
	)
	if err := row.Scan(&a.ID, &a.UserID, &a.MedicineID, &a.Time, &status,
		&a.Timestamp, &a.TriggeredAt, &a.ConfirmedAt); err != nil {
		return nil, err
	}
	a.Status = model.AlertStatus(status)
	return &a, nil
}

func scanAlertDetail(row pgx.Row) (*model.AlertDetail, error) {
	var (
		d      model.AlertDetail
		status string

		// Medicine columns are NULL when the medicine was deleted.
		medID, medUserID, medName, medTime, medDosage *string
		medCreated, medUpdated                        *time.Time
	)
	err := row.Scan(&d.ID, &d.UserID, &d.MedicineID, &d.Time, &status,
		&d.Timestamp, &d.TriggeredAt, &d.ConfirmedAt,
		&medID, &medUserID, &medName, &medTime, &medDosage, &medCreated, &medUpdated)
	if err != nil {
		return nil, err
	}
	d.Status = model.AlertStatus(status)

	if medID != nil {
		d.Medicine = &model.Medicine{
			ID:        *medID,
			UserID:    deref(medUserID),
			Name:      deref(medName),
			Time:      deref(medTime),
			Dosage:    deref(medDosage),
			CreatedAt: derefTime(medCreated),
			UpdatedAt: derefTime(medUpdated),
		}
	}
	return &d, nil
}

func joinColumns(cols []string) string {
	return strings.Join(cols, ", ")
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefTime(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}

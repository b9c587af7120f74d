package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Ayushbunkar/Meditrack/internal/model"
)

const alertSelect = `SELECT id, user_id, medicine_id, time, status, status_at, triggered_at, confirmed_at FROM alerts`

// CreateAlert inserts a new alert.
func (s *Store) CreateAlert(ctx context.Context, alert *model.Alert) error {
	query := `
		INSERT INTO alerts (id, user_id, medicine_id, time, status, status_at, triggered_at, confirmed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	var confirmed sql.NullInt64
	if alert.ConfirmedAt != nil {
		confirmed = sql.NullInt64{Int64: toMillis(*alert.ConfirmedAt), Valid: true}
	}

	_, err := s.db.ExecContext(ctx, query,
		alert.ID,
		alert.UserID,
		alert.MedicineID,
		alert.Time,
		string(alert.Status),
		toMillis(alert.Timestamp),
		toMillis(alert.TriggeredAt),
		confirmed,
	)
	if err != nil {
		return fmt.Errorf("failed to create alert: %w", err)
	}
	return nil
}

// GetAlert retrieves an alert by ID.
func (s *Store) GetAlert(ctx context.Context, id string) (*model.Alert, error) {
	alert, err := scanAlert(s.db.QueryRowContext(ctx, alertSelect+` WHERE id = ?`, id))
	if err != nil {
		return nil, fmt.Errorf("failed to get alert: %w", notFound(err))
	}
	return alert, nil
}

// UpdateAlertStatus records the user's answer on an alert.
func (s *Store) UpdateAlertStatus(ctx context.Context, id string, status model.AlertStatus, at time.Time) (*model.Alert, error) {
	ms := toMillis(at)
	res, err := s.db.ExecContext(ctx,
		`UPDATE alerts SET status = ?, status_at = ?, confirmed_at = ? WHERE id = ?`,
		string(status), ms, ms, id,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update alert: %w", err)
	}
	if err := requireAffected(res); err != nil {
		return nil, err
	}
	return s.GetAlert(ctx, id)
}

// ListAlertDetails returns the user's alerts with their medicines, oldest first.
func (s *Store) ListAlertDetails(ctx context.Context, userID string) ([]*model.AlertDetail, error) {
	query := `
		SELECT a.id, a.user_id, a.medicine_id, a.time, a.status, a.status_at, a.triggered_at, a.confirmed_at,
		       m.id, m.user_id, m.name, m.time, m.dosage, m.created_at, m.updated_at
		FROM alerts a
		LEFT JOIN medicines m ON m.id = a.medicine_id
		WHERE a.user_id = ?
		ORDER BY a.triggered_at ASC, a.id ASC
	`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list alerts: %w", err)
	}
	defer rows.Close()

	details := []*model.AlertDetail{}
	for rows.Next() {
		var (
			d                                         model.AlertDetail
			status                                    string
			statusAt, triggeredAt                     int64
			confirmedAt                               sql.NullInt64
			medID, medUser, medName, medTime, medDose sql.NullString
			medCreated, medUpdated                    sql.NullInt64
		)
		err := rows.Scan(&d.ID, &d.UserID, &d.MedicineID, &d.Time, &status, &statusAt, &triggeredAt, &confirmedAt,
			&medID, &medUser, &medName, &medTime, &medDose, &medCreated, &medUpdated)
		if err != nil {
			return nil, fmt.Errorf("failed to scan alert: %w", err)
		}
		fillAlert(&d.Alert, status, statusAt, triggeredAt, confirmedAt)

		if medID.Valid {
			d.Medicine = &model.Medicine{
				ID:        medID.String,
				UserID:    medUser.String,
				Name:      medName.String,
				Time:      medTime.String,
				Dosage:    medDose.String,
				CreatedAt: fromMillis(medCreated.Int64),
				UpdatedAt: fromMillis(medUpdated.Int64),
			}
		}
		details = append(details, &d)
	}
	return details, rows.Err()
}

func scanAlert(row scanner) (*model.Alert, error) {
	var (
		a                     model.Alert
		status                string
		statusAt, triggeredAt int64
		confirmedAt           sql.NullInt64
	)
	if err := row.Scan(&a.ID, &a.UserID, &a.MedicineID, &a.Time, &status, &statusAt, &triggeredAt, &confirmedAt); err != nil {
		return nil, err
	}
	fillAlert(&a, status, statusAt, triggeredAt, confirmedAt)
	return &a, nil
}

func fillAlert(a *model.Alert, status string, statusAt, triggeredAt int64, confirmedAt sql.NullInt64) {
	a.Status = model.AlertStatus(status)
	a.Timestamp = fromMillis(statusAt)
	a.TriggeredAt = fromMillis(triggeredAt)
	if confirmedAt.Valid {
		t := fromMillis(confirmedAt.Int64)
		a.ConfirmedAt = &t
	}
}

package sqlite

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/Ayushbunkar/Meditrack/internal/model"
)

const medicineSelect = `SELECT id, user_id, name, time, dosage, created_at, updated_at FROM medicines`

type scanner interface {
	Scan(dest ...any) error
}

// CreateMedicine inserts a new medicine.
func (s *Store) CreateMedicine(ctx context.Context, med *model.Medicine) error {
	query := `
		INSERT INTO medicines (id, user_id, name, time, dosage, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		med.ID,
		med.UserID,
		med.Name,
		med.Time,
		med.Dosage,
		toMillis(med.CreatedAt),
		toMillis(med.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create medicine: %w", err)
	}
	return nil
}

// GetMedicine retrieves a medicine by ID.
func (s *Store) GetMedicine(ctx context.Context, id string) (*model.Medicine, error) {
	med, err := scanMedicine(s.db.QueryRowContext(ctx, medicineSelect+` WHERE id = ?`, id))
	if err != nil {
		return nil, fmt.Errorf("failed to get medicine: %w", notFound(err))
	}
	return med, nil
}

// ListMedicines returns the user's medicines ordered by time of day.
func (s *Store) ListMedicines(ctx context.Context, userID string) ([]*model.Medicine, error) {
	rows, err := s.db.QueryContext(ctx, medicineSelect+` WHERE user_id = ? ORDER BY time ASC, created_at ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list medicines: %w", err)
	}
	defer rows.Close()

	meds := []*model.Medicine{}
	for rows.Next() {
		med, err := scanMedicine(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan medicine: %w", err)
		}
		meds = append(meds, med)
	}
	return meds, rows.Err()
}

// UpdateMedicine writes only the fields set in patch.
func (s *Store) UpdateMedicine(ctx context.Context, id string, patch model.MedicinePatch, updatedAt time.Time) (*model.Medicine, error) {
	var applied model.Medicine
	patch.Apply(&applied)

	update := s.qb.Update("medicines").
		Set("updated_at", toMillis(updatedAt)).
		Where(sq.Eq{"id": id})
	if patch.Name != nil {
		update = update.Set("name", applied.Name)
	}
	if patch.Time != nil {
		update = update.Set("time", applied.Time)
	}
	if patch.Dosage != nil {
		update = update.Set("dosage", applied.Dosage)
	}

	res, err := update.ExecContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to update medicine: %w", err)
	}
	if err := requireAffected(res); err != nil {
		return nil, err
	}
	return s.GetMedicine(ctx, id)
}

// DeleteMedicine removes a medicine. Its alerts are kept.
func (s *Store) DeleteMedicine(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM medicines WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete medicine: %w", err)
	}
	return requireAffected(res)
}

func scanMedicine(row scanner) (*model.Medicine, error) {
	var (
		m                model.Medicine
		created, updated int64
	)
	if err := row.Scan(&m.ID, &m.UserID, &m.Name, &m.Time, &m.Dosage, &created, &updated); err != nil {
		return nil, err
	}
	m.CreatedAt = fromMillis(created)
	m.UpdatedAt = fromMillis(updated)
	return &m, nil
}

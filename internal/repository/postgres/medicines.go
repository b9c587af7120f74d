package postgres

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/Ayushbunkar/Meditrack/internal/model"
	"github.com/Ayushbunkar/Meditrack/internal/repository"
)

var medicineColumns = []string{"id", "user_id", "name", "time", "dosage", "created_at", "updated_at"}

// CreateMedicine inserts a new medicine.
func (s *Store) CreateMedicine(ctx context.Context, med *model.Medicine) error {
	insert := s.qb.Insert("medicines").
		Columns(medicineColumns...).
		Values(med.ID, med.UserID, med.Name, med.Time, med.Dosage, med.CreatedAt, med.UpdatedAt)

	if _, err := s.exec(ctx, insert); err != nil {
		return fmt.Errorf("failed to create medicine: %w", err)
	}
	return nil
}

// GetMedicine retrieves a medicine by ID.
func (s *Store) GetMedicine(ctx context.Context, id string) (*model.Medicine, error) {
	row, err := s.queryRow(ctx, s.qb.Select(medicineColumns...).From("medicines").Where(sq.Eq{"id": id}))
	if err != nil {
		return nil, err
	}

	med, err := scanMedicine(row)
	if err != nil {
		return nil, fmt.Errorf("failed to get medicine: %w", notFound(err))
	}
	return med, nil
}

// ListMedicines returns the user's medicines ordered by time of day.
func (s *Store) ListMedicines(ctx context.Context, userID string) ([]*model.Medicine, error) {
	query, args, err := s.qb.Select(medicineColumns...).
		From("medicines").
		Where(sq.Eq{"user_id": userID}).
		OrderBy("time ASC", "created_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := s.db.Query(ctx, query, args...)
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

	set := map[string]any{"updated_at": updatedAt}
	if patch.Name != nil {
		set["name"] = applied.Name
	}
	if patch.Time != nil {
		set["time"] = applied.Time
	}
	if patch.Dosage != nil {
		set["dosage"] = applied.Dosage
	}

	update := s.qb.Update("medicines").
		SetMap(set).
		Where(sq.Eq{"id": id}).
		Suffix("RETURNING " + joinColumns(medicineColumns))

	row, err := s.queryRow(ctx, update)
	if err != nil {
		return nil, err
	}

	med, err := scanMedicine(row)
	if err != nil {
		return nil, fmt.Errorf("failed to update medicine: %w", notFound(err))
	}
	return med, nil
}

// DeleteMedicine removes a medicine. Its alerts are kept.
func (s *Store) DeleteMedicine(ctx context.Context, id string) error {
	n, err := s.exec(ctx, s.qb.Delete("medicines").Where(sq.Eq{"id": id}))
	if err != nil {
		return fmt.Errorf("failed to delete medicine: %w", err)
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func scanMedicine(row pgx.Row) (*model.Medicine, error) {
	var m model.Medicine
	if err := row.Scan(&m.ID, &m.UserID, &m.Name, &m.Time, &m.Dosage, &m.CreatedAt, &m.UpdatedAt); err != nil {
		return nil, err
	}
	return &m, nil
}

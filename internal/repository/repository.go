// Package repository defines the persistence contract for users, medicines
// and alerts. Drivers live in the postgres, mongo and sqlite subpackages.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Ayushbunkar/Meditrack/internal/model"
)

// Common errors returned by every driver.
var (
	ErrNotFound       = errors.New("record not found")
	ErrDuplicateEmail = errors.New("email already exists")
)

// UserStore persists user accounts.
type UserStore interface {
	// CreateUser inserts a user. Returns ErrDuplicateEmail if the email is taken.
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	UpdateUserPassword(ctx context.Context, id, passwordHash string) error
}

// MedicineStore persists medicine schedules.
// Ownership is checked by the caller; lookups here are by ID only.
type MedicineStore interface {
	CreateMedicine(ctx context.Context, med *model.Medicine) error
	GetMedicine(ctx context.Context, id string) (*model.Medicine, error)
	ListMedicines(ctx context.Context, userID string) ([]*model.Medicine, error)
	// UpdateMedicine applies the set fields of patch and returns the stored row.
	UpdateMedicine(ctx context.Context, id string, patch model.MedicinePatch, updatedAt time.Time) (*model.Medicine, error)
	DeleteMedicine(ctx context.Context, id string) error
}

// AlertStore persists dose alerts. Alerts are never deleted.
type AlertStore interface {
	CreateAlert(ctx context.Context, alert *model.Alert) error
	GetAlert(ctx context.Context, id string) (*model.Alert, error)
	// UpdateAlertStatus sets status, timestamp and confirmed_at and returns the stored row.
	UpdateAlertStatus(ctx context.Context, id string, status model.AlertStatus, at time.Time) (*model.Alert, error)
	// ListAlertDetails returns the user's alerts joined with their medicines,
	// oldest first. Medicine is nil for alerts whose medicine was deleted.
	ListAlertDetails(ctx context.Context, userID string) ([]*model.AlertDetail, error)
}

// Store is the full persistence surface used by the services.
type Store interface {
	UserStore
	MedicineStore
	AlertStore

	// Ping checks connectivity.
	Ping(ctx context.Context) error
	// Close releases the underlying connections.
	Close() error
}

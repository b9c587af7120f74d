// Package service provides business logic for the application.
package service

import (
	"context"
	"errors"

	"github.com/Ayushbunkar/Meditrack/internal/repository"
)

// Service errors.
var (
	ErrValidation         = errors.New("validation failed")
	ErrMedicineNotFound   = errors.New("medicine not found")
	ErrAlertNotFound      = errors.New("alert not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// ValidationError carries a client-facing detail and matches ErrValidation.
type ValidationError struct {
	Detail string
}

func (e *ValidationError) Error() string {
	return e.Detail
}

// Is reports whether target is ErrValidation.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func invalid(detail string) error {
	return &ValidationError{Detail: detail}
}

// owned is a record that belongs to a single user.
type owned interface {
	OwnerID() string
}

// loadOwned loads a record by id and checks it belongs to userID.
// A missing record and another user's record both return notFound, so
// callers cannot tell a foreign id from a missing one.
func loadOwned[T owned](ctx context.Context, userID, id string, load func(context.Context, string) (T, error), notFound error) (T, error) {
	var zero T
	if id == "" {
		return zero, notFound
	}

	record, err := load(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return zero, notFound
		}
		return zero, err
	}

	if record.OwnerID() != userID {
		return zero, notFound
	}
	return record, nil
}

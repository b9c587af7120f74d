package service

import (
	"context"
	"errors"
	"testing"

	"github.com/Ayushbunkar/Meditrack/internal/model"
)

func TestMedicineService_CreateThenList(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.register(t, "a@x.com")

	med, err := env.medicines.Create(ctx, user.ID, CreateMedicineInput{Name: "  Aspirin ", Time: "08:00", Dosage: "1 tablet"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if med.ID == "" || med.Name != "Aspirin" || med.UserID != user.ID {
		t.Errorf("Create() = %+v", med)
	}

	list, err := env.medicines.List(ctx, user.ID)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	count := 0
	for _, m := range list {
		if m.ID == med.ID {
			count++
		}
	}
	if count != 1 {
		t.Errorf("created medicine appears %d times, want 1", count)
	}
	if env.metrics.Snapshot().MedicinesCreated != 1 {
		t.Errorf("MedicinesCreated = %d, want 1", env.metrics.Snapshot().MedicinesCreated)
	}
}

func TestMedicineService_CreateValidation(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	tests := []struct {
		name  string
		input CreateMedicineInput
	}{
		{"missing name", CreateMedicineInput{Time: "08:00", Dosage: "1"}},
		{"blank time", CreateMedicineInput{Name: "A", Time: "   ", Dosage: "1"}},
		{"missing dosage", CreateMedicineInput{Name: "A", Time: "08:00"}},
		{"all empty", CreateMedicineInput{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.medicines.Create(context.Background(), "u1", tt.input)
			if !errors.Is(err, ErrValidation) {
				t.Errorf("Create() error = %v, want ErrValidation", err)
			}
		})
	}
}

func TestMedicineService_AcceptsAnyTimeString(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	user := env.register(t, "free@x.com")

	med := env.createMedicine(t, user.ID, "Odd", "after lunch")
	if med.Time != "after lunch" {
		t.Errorf("Time = %q, want verbatim", med.Time)
	}
}

func TestMedicineService_CrossUserIsolation(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()

	alice := env.register(t, "alice@x.com")
	bob := env.register(t, "bob@x.com")
	med := env.createMedicine(t, alice.ID, "Aspirin", "08:00")

	list, err := env.medicines.List(ctx, bob.ID)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(list) != 0 {
		t.Errorf("bob sees %d medicines, want 0", len(list))
	}

	if _, err := env.medicines.Get(ctx, bob.ID, med.ID); !errors.Is(err, ErrMedicineNotFound) {
		t.Errorf("Get() error = %v, want ErrMedicineNotFound", err)
	}
	if _, err := env.medicines.Update(ctx, bob.ID, med.ID, model.MedicinePatch{Name: strPtr("Hacked")}); !errors.Is(err, ErrMedicineNotFound) {
		t.Errorf("Update() error = %v, want ErrMedicineNotFound", err)
	}
	if err := env.medicines.Delete(ctx, bob.ID, med.ID); !errors.Is(err, ErrMedicineNotFound) {
		t.Errorf("Delete() error = %v, want ErrMedicineNotFound", err)
	}

	got, err := env.medicines.Get(ctx, alice.ID, med.ID)
	if err != nil {
		t.Fatalf("owner Get() error = %v", err)
	}
	if got.Name != "Aspirin" {
		t.Errorf("record mutated: Name = %q", got.Name)
	}
}

func TestMedicineService_Update(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.register(t, "upd@x.com")
	med := env.createMedicine(t, user.ID, "Aspirin", "08:00")

	updated, err := env.medicines.Update(ctx, user.ID, med.ID, model.MedicinePatch{Time: strPtr("09:30")})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.Time != "09:30" || updated.Name != "Aspirin" || updated.Dosage != "1 tablet" {
		t.Errorf("Update() = %+v", updated)
	}
	if env.history.invalidations(user.ID) != 1 {
		t.Errorf("history invalidations = %d, want 1", env.history.invalidations(user.ID))
	}

	unchanged, err := env.medicines.Update(ctx, user.ID, med.ID, model.MedicinePatch{})
	if err != nil {
		t.Fatalf("empty Update() error = %v", err)
	}
	if unchanged.Time != "09:30" {
		t.Errorf("empty Update() changed record: %+v", unchanged)
	}

	_, err = env.medicines.Update(ctx, user.ID, med.ID, model.MedicinePatch{Dosage: strPtr("  ")})
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Detail != "dosage must not be empty" {
		t.Errorf("blank dosage error = %v", err)
	}

	if _, err := env.medicines.Update(ctx, user.ID, "missing", model.MedicinePatch{Name: strPtr("X")}); !errors.Is(err, ErrMedicineNotFound) {
		t.Errorf("Update(missing) error = %v, want ErrMedicineNotFound", err)
	}
}

func TestMedicineService_Delete(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.register(t, "del@x.com")
	med := env.createMedicine(t, user.ID, "Aspirin", "08:00")

	if err := env.medicines.Delete(ctx, user.ID, med.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := env.medicines.Delete(ctx, user.ID, med.ID); !errors.Is(err, ErrMedicineNotFound) {
		t.Errorf("second Delete() error = %v, want ErrMedicineNotFound", err)
	}
	if err := env.medicines.Delete(ctx, user.ID, ""); !errors.Is(err, ErrMedicineNotFound) {
		t.Errorf("Delete(\"\") error = %v, want ErrMedicineNotFound", err)
	}
	if env.metrics.Snapshot().MedicinesDeleted != 1 {
		t.Errorf("MedicinesDeleted = %d, want 1", env.metrics.Snapshot().MedicinesDeleted)
	}
}

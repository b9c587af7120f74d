// Package storetest is a conformance suite every repository.Store driver must pass.
package storetest

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ayushbunkar/Meditrack/internal/model"
	"github.com/Ayushbunkar/Meditrack/internal/repository"
)

// Factory returns a ready store. The store may be shared between calls;
// the suite only relies on rows it created itself.
type Factory func(t *testing.T) repository.Store

// Run executes the suite against stores produced by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Helper()

	t.Run("Users", func(t *testing.T) { testUsers(t, newStore(t)) })
	t.Run("Medicines", func(t *testing.T) { testMedicines(t, newStore(t)) })
	t.Run("Alerts", func(t *testing.T) { testAlerts(t, newStore(t)) })
	t.Run("AlertHistoryOutlivesMedicine", func(t *testing.T) { testAlertOutlivesMedicine(t, newStore(t)) })
}

// ts truncates to millisecond precision, the coarsest any driver stores.
func ts(t time.Time) time.Time {
	return t.UTC().Truncate(time.Millisecond)
}

func createUser(t *testing.T, store repository.Store) *model.User {
	t.Helper()
	id := model.NewID()
	user := &model.User{
		ID:           id,
		Name:         "User " + id,
		Email:        strings.ToLower(id) + "@example.com",
		PasswordHash: "hash",
		CreatedAt:    ts(time.Now()),
	}
	require.NoError(t, store.CreateUser(context.Background(), user))
	return user
}

func createMedicine(t *testing.T, store repository.Store, userID, name, at string) *model.Medicine {
	t.Helper()
	now := ts(time.Now())
	med := &model.Medicine{
		ID:        model.NewID(),
		UserID:    userID,
		Name:      name,
		Time:      at,
		Dosage:    "1 pill",
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, store.CreateMedicine(context.Background(), med))
	return med
}

func testUsers(t *testing.T, store repository.Store) {
	ctx := context.Background()
	user := createUser(t, store)

	got, err := store.GetUserByEmail(ctx, user.Email)
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
	assert.Equal(t, user.Name, got.Name)
	assert.Equal(t, "hash", got.PasswordHash)
	assert.True(t, user.CreatedAt.Equal(got.CreatedAt), "created_at %v != %v", got.CreatedAt, user.CreatedAt)

	got, err = store.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.Email, got.Email)

	dup := *user
	dup.ID = model.NewID()
	assert.ErrorIs(t, store.CreateUser(ctx, &dup), repository.ErrDuplicateEmail)

	_, err = store.GetUserByEmail(ctx, "nobody-"+model.NewID()+"@example.com")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	_, err = store.GetUserByID(ctx, model.NewID())
	assert.ErrorIs(t, err, repository.ErrNotFound)

	require.NoError(t, store.UpdateUserPassword(ctx, user.ID, "rehashed"))
	got, err = store.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "rehashed", got.PasswordHash)

	assert.ErrorIs(t, store.UpdateUserPassword(ctx, model.NewID(), "x"), repository.ErrNotFound)
}

func testMedicines(t *testing.T, store repository.Store) {
	ctx := context.Background()
	user := createUser(t, store)
	other := createUser(t, store)

	evening := createMedicine(t, store, user.ID, "Vitamin D", "20:00")
	morning := createMedicine(t, store, user.ID, "Aspirin", "08:00")
	createMedicine(t, store, other.ID, "Other", "09:00")

	list, err := store.ListMedicines(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, morning.ID, list[0].ID, "ordered by time")
	assert.Equal(t, evening.ID, list[1].ID)

	empty, err := store.ListMedicines(ctx, model.NewID())
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	got, err := store.GetMedicine(ctx, morning.ID)
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.UserID)
	assert.Equal(t, "Aspirin", got.Name)

	dosage := "2 pills"
	later := ts(time.Now().Add(time.Minute))
	updated, err := store.UpdateMedicine(ctx, morning.ID, model.MedicinePatch{Dosage: &dosage}, later)
	require.NoError(t, err)
	assert.Equal(t, "2 pills", updated.Dosage)
	assert.Equal(t, "Aspirin", updated.Name, "unset fields untouched")
	assert.Equal(t, "08:00", updated.Time)
	assert.True(t, later.Equal(updated.UpdatedAt))

	_, err = store.UpdateMedicine(ctx, model.NewID(), model.MedicinePatch{Dosage: &dosage}, later)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	require.NoError(t, store.DeleteMedicine(ctx, evening.ID))
	_, err = store.GetMedicine(ctx, evening.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.ErrorIs(t, store.DeleteMedicine(ctx, evening.ID), repository.ErrNotFound)
}

func testAlerts(t *testing.T, store repository.Store) {
	ctx := context.Background()
	user := createUser(t, store)
	med := createMedicine(t, store, user.ID, "Aspirin", "08:00")

	first := ts(time.Now().Add(-2 * time.Hour))
	alerts := make([]*model.Alert, 0, 2)
	for i := 0; i < 2; i++ {
		at := first.Add(time.Duration(i) * time.Hour)
		a := &model.Alert{
			ID:          model.NewID(),
			UserID:      user.ID,
			MedicineID:  med.ID,
			Time:        med.Time,
			Status:      model.AlertStatusMissed,
			Timestamp:   at,
			TriggeredAt: at,
		}
		require.NoError(t, store.CreateAlert(ctx, a))
		alerts = append(alerts, a)
	}

	got, err := store.GetAlert(ctx, alerts[0].ID)
	require.NoError(t, err)
	assert.Equal(t, model.AlertStatusMissed, got.Status)
	assert.Equal(t, model.AlertStatePending, got.State())
	assert.Nil(t, got.ConfirmedAt)

	confirmAt := ts(time.Now())
	updated, err := store.UpdateAlertStatus(ctx, alerts[0].ID, model.AlertStatusTaken, confirmAt)
	require.NoError(t, err)
	assert.Equal(t, model.AlertStatusTaken, updated.Status)
	assert.Equal(t, model.AlertStateTaken, updated.State())
	assert.True(t, confirmAt.Equal(updated.Timestamp))
	assert.True(t, first.Equal(updated.TriggeredAt), "triggered_at preserved")

	_, err = store.UpdateAlertStatus(ctx, model.NewID(), model.AlertStatusTaken, confirmAt)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = store.GetAlert(ctx, model.NewID())
	assert.ErrorIs(t, err, repository.ErrNotFound)

	details, err := store.ListAlertDetails(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, details, 2)
	assert.Equal(t, alerts[0].ID, details[0].ID, "oldest first")
	assert.Equal(t, model.AlertStatusTaken, details[0].Status)
	require.NotNil(t, details[0].Medicine)
	assert.Equal(t, "Aspirin", details[0].Medicine.Name)

	empty, err := store.ListAlertDetails(ctx, model.NewID())
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func testAlertOutlivesMedicine(t *testing.T, store repository.Store) {
	ctx := context.Background()
	user := createUser(t, store)
	med := createMedicine(t, store, user.ID, "Aspirin", "08:00")

	now := ts(time.Now())
	alert := &model.Alert{
		ID:          model.NewID(),
		UserID:      user.ID,
		MedicineID:  med.ID,
		Time:        med.Time,
		Status:      model.AlertStatusMissed,
		Timestamp:   now,
		TriggeredAt: now,
	}
	require.NoError(t, store.CreateAlert(ctx, alert))
	require.NoError(t, store.DeleteMedicine(ctx, med.ID))

	details, err := store.ListAlertDetails(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, details, 1)
	assert.Equal(t, med.ID, details[0].MedicineID)
	assert.Nil(t, details[0].Medicine)
}

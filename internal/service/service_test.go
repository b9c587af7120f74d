package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/Ayushbunkar/Meditrack/internal/auth"
	"github.com/Ayushbunkar/Meditrack/internal/cache"
	"github.com/Ayushbunkar/Meditrack/internal/metrics"
	"github.com/Ayushbunkar/Meditrack/internal/model"
	"github.com/Ayushbunkar/Meditrack/internal/repository"
	"github.com/Ayushbunkar/Meditrack/internal/testutil"
)

// memoryHistory is a generation-keyed HistoryCache that records
// invalidations.
type memoryHistory struct {
	mu          sync.Mutex
	entries     map[string][]*model.AlertDetail
	gens        map[string]uint64
	invalidated map[string]int
}

func newMemoryHistory() *memoryHistory {
	return &memoryHistory{
		entries:     make(map[string][]*model.AlertDetail),
		gens:        make(map[string]uint64),
		invalidated: make(map[string]int),
	}
}

func (m *memoryHistory) entryKey(userID string, gen uint64) string {
	return fmt.Sprintf("%s:%d", userID, gen)
}

func (m *memoryHistory) GetHistory(_ context.Context, userID string) ([]*model.AlertDetail, uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	gen := m.gens[userID]
	h, ok := m.entries[m.entryKey(userID, gen)]
	if !ok {
		return nil, gen, cache.ErrCacheMiss
	}
	return h, gen, nil
}

func (m *memoryHistory) SetHistory(_ context.Context, userID string, gen uint64, history []*model.AlertDetail) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[m.entryKey(userID, gen)] = history
	return nil
}

func (m *memoryHistory) InvalidateHistory(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gens[userID]++
	m.invalidated[userID]++
	return nil
}

func (m *memoryHistory) invalidations(userID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.invalidated[userID]
}

type testEnv struct {
	store     repository.Store
	history   *memoryHistory
	metrics   *metrics.InMemoryRecorder
	auth      *AuthService
	medicines *MedicineService
	alerts    *AlertService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store := testutil.NewSQLiteStore(t)
	history := newMemoryHistory()
	recorder := metrics.NewInMemory()
	logger := testutil.DiscardLogger()
	tokens := auth.NewTokenManager("test-secret-0123456789", time.Hour)

	return &testEnv{
		store:     store,
		history:   history,
		metrics:   recorder,
		auth:      NewAuthService(store, tokens, recorder, logger),
		medicines: NewMedicineService(store, history, recorder, logger),
		alerts:    NewAlertService(store, store, history, recorder, logger),
	}
}

func (e *testEnv) register(t *testing.T, email string) *model.User {
	t.Helper()
	res, err := e.auth.Register(context.Background(), RegisterInput{Name: "Test", Email: email, Password: "secret1"})
	if err != nil {
		t.Fatalf("Register(%s) error = %v", email, err)
	}
	return res.User
}

func (e *testEnv) createMedicine(t *testing.T, userID, name, at string) *model.Medicine {
	t.Helper()
	med, err := e.medicines.Create(context.Background(), userID, CreateMedicineInput{Name: name, Time: at, Dosage: "1 tablet"})
	if err != nil {
		t.Fatalf("Create(%s) error = %v", name, err)
	}
	return med
}

func strPtr(s string) *string {
	return &s
}

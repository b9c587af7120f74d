package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/Ayushbunkar/Meditrack/internal/repository"
	"github.com/Ayushbunkar/Meditrack/internal/repository/storetest"
)

func TestStoreConformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) repository.Store {
		store, err := Open(context.Background(), filepath.Join(t.TempDir(), "meditrack.db"))
		if err != nil {
			t.Fatalf("Open() error = %v", err)
		}
		t.Cleanup(func() { store.Close() })
		return store
	})
}

func TestOpen_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "meditrack.db")

	store, err := Open(context.Background(), path)
	if err != nil {
		t.Fatalf("first Open() error = %v", err)
	}
	if err := store.Ping(context.Background()); err != nil {
		t.Fatalf("Ping() error = %v", err)
	}
	store.Close()

	store, err = Open(context.Background(), path)
	if err != nil {
		t.Fatalf("second Open() error = %v", err)
	}
	store.Close()
}

package mongo

import (
	"context"
	"testing"
	"time"

	"github.com/Ayushbunkar/Meditrack/internal/model"
	"github.com/Ayushbunkar/Meditrack/internal/repository"
	"github.com/Ayushbunkar/Meditrack/internal/repository/storetest"
	"github.com/Ayushbunkar/Meditrack/internal/testutil"
)

func TestStoreConformance(t *testing.T) {
	uri := testutil.RequireEnv(t, "MONGODB_TEST_URI")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	store, err := Open(ctx, uri, "meditrack_test_"+model.NewID())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() {
		_ = store.db.Drop(context.Background())
		store.Close()
	})

	storetest.Run(t, func(t *testing.T) repository.Store { return store })
}

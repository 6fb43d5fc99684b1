package test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/hrygo/skedule/internal/profile"
	"github.com/hrygo/skedule/store"
	"github.com/hrygo/skedule/store/db"
)

// NewTestingStore opens a migrated store for the driver named by DRIVER
// (sqlite when unset).
func NewTestingStore(ctx context.Context, t *testing.T) *store.Store {
	t.Helper()
	driver := os.Getenv("DRIVER")
	if driver == "" {
		driver = "sqlite"
	}
	return NewTestingStoreWithDriver(ctx, t, driver)
}

// NewTestingStoreWithDriver opens a migrated store backed by driver.
func NewTestingStoreWithDriver(ctx context.Context, t *testing.T, driver string) *store.Store {
	t.Helper()
	p := getTestingProfile(t, driver)
	dbDriver, err := db.NewDBDriver(p)
	if err != nil {
		t.Fatalf("failed to create db driver: %v", err)
	}

	s := store.New(dbDriver, p)
	if err := s.Migrate(ctx); err != nil {
		t.Fatalf("failed to migrate db: %v", err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Logf("failed to close store: %v", err)
		}
	})
	return s
}

func getTestingProfile(t *testing.T, driver string) *profile.Profile {
	t.Helper()
	p := &profile.Profile{
		Mode:       "dev",
		Driver:     driver,
		TitleMatch: "contains",
	}
	switch driver {
	case "sqlite":
		p.Data = t.TempDir()
		p.DSN = filepath.Join(p.Data, "skedule_test.db")
	case "postgres":
		p.DSN = GetPostgresDSN(t)
	}
	if err := p.Validate(); err != nil {
		t.Fatalf("invalid testing profile: %v", err)
	}
	return p
}

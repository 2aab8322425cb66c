package testsupport

import (
	"context"
	"testing"
	"time"

	"animarr/internal/config"
	"animarr/internal/store"
)

// MustOpenStore opens a store.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()

	st, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})
	return st
}

// SeedTitle inserts a catalog title and returns the stored copy.
func SeedTitle(t testing.TB, st *store.Store, title *store.Title) *store.Title {
	t.Helper()

	if err := st.UpsertTitles(context.Background(), []*store.Title{title}); err != nil {
		t.Fatalf("seed title: %v", err)
	}
	stored, err := st.GetTitle(context.Background(), title.ID)
	if err != nil {
		t.Fatalf("load seeded title: %v", err)
	}
	if stored == nil {
		t.Fatalf("seeded title %d not found", title.ID)
	}
	return stored
}

// SeedSettings writes a settings row and returns the stored copy.
func SeedSettings(t testing.TB, st *store.Store, settings *store.Settings) *store.Settings {
	t.Helper()

	stored, err := st.UpsertSettings(context.Background(), settings)
	if err != nil {
		t.Fatalf("seed settings: %v", err)
	}
	return stored
}

// FixedClock returns a deterministic clock function for resolver tests.
func FixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

package state

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "state.db")
	store, err := NewSQLite(dbPath)
	if err != nil {
		t.Fatalf("new sqlite: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	if err := store.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}
	return store
}

func TestProfileRoundTripAndClear(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	got, err := store.LoadProfile(ctx)
	if err != nil {
		t.Fatalf("load empty profile: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil profile before save, got %+v", got)
	}

	saved := Profile{
		Username:    "guest01",
		DisplayName: "Guest One",
		Role:        "admin",
		SavedTS:     time.Date(2026, time.March, 1, 10, 0, 0, 0, time.UTC),
	}
	if err := store.SaveProfile(ctx, saved); err != nil {
		t.Fatalf("save profile: %v", err)
	}

	got, err = store.LoadProfile(ctx)
	if err != nil {
		t.Fatalf("load profile: %v", err)
	}
	if got == nil {
		t.Fatalf("expected profile row")
	}
	if got.Username != "guest01" || got.DisplayName != "Guest One" || got.Role != "admin" {
		t.Fatalf("loaded %+v", got)
	}
	if !got.SavedTS.Equal(saved.SavedTS) {
		t.Fatalf("saved_ts = %v", got.SavedTS)
	}

	// A second save replaces the single row rather than adding one.
	if err := store.SaveProfile(ctx, Profile{Username: "guest02", Role: "user"}); err != nil {
		t.Fatalf("save second profile: %v", err)
	}
	got, err = store.LoadProfile(ctx)
	if err != nil {
		t.Fatalf("load replaced profile: %v", err)
	}
	if got.Username != "guest02" || got.Role != "user" {
		t.Fatalf("loaded %+v", got)
	}

	if err := store.ClearProfile(ctx); err != nil {
		t.Fatalf("clear profile: %v", err)
	}
	got, err = store.LoadProfile(ctx)
	if err != nil {
		t.Fatalf("load after clear: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil profile after clear, got %+v", got)
	}
}

func TestSaveProfileRejectsEmptyUsername(t *testing.T) {
	store := newTestStore(t)
	if err := store.SaveProfile(context.Background(), Profile{Username: "  "}); err == nil {
		t.Fatalf("expected error for empty username")
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.SaveSettings(ctx, map[string]string{"filter": "pwn", "style": "dark"}); err != nil {
		t.Fatalf("save settings: %v", err)
	}
	if err := store.SaveSettings(ctx, map[string]string{"filter": "web"}); err != nil {
		t.Fatalf("overwrite setting: %v", err)
	}
	got, err := store.LoadSettings(ctx)
	if err != nil {
		t.Fatalf("load settings: %v", err)
	}
	if got["filter"] != "web" || got["style"] != "dark" {
		t.Fatalf("settings = %v", got)
	}
}

func TestActivityRecentNewestFirst(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, time.March, 1, 10, 0, 0, 0, time.UTC)

	for i, line := range []string{"first", "second", "third"} {
		if err := store.AppendActivity(ctx, base.Add(time.Duration(i)*time.Minute), line); err != nil {
			t.Fatalf("append %q: %v", line, err)
		}
	}
	// Blank lines are dropped.
	if err := store.AppendActivity(ctx, base, "   "); err != nil {
		t.Fatalf("append blank: %v", err)
	}

	got, err := store.RecentActivity(ctx, 2)
	if err != nil {
		t.Fatalf("recent activity: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(got))
	}
	if got[0].Line != "third" || got[1].Line != "second" {
		t.Fatalf("order = %q, %q", got[0].Line, got[1].Line)
	}
}

package state

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/zenjispace/zenjid/internal/model"
)

// newTestStore opens an in-memory database that disappears when the test ends.
func newTestStore(t *testing.T) *SQLite {
	t.Helper()
	s, err := NewSQLite(":memory:")
	if err != nil {
		t.Fatalf("NewSQLite(:memory:): %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestGet_AbsentKeyReturnsNil(t *testing.T) {
	s := newTestStore(t)

	raw, err := s.Get(context.Background(), KeyAvatar)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if raw != nil {
		t.Errorf("Get() on absent key = %q, want nil", raw)
	}
}

func TestSetGet_RoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	stats := model.FocusStats{FocusCount: 3, FocusMinutes: 75, BreakCount: 2, MoodAvg: "calm"}
	if err := SetJSON(ctx, s, KeyFocusStats, stats); err != nil {
		t.Fatalf("SetJSON() error = %v", err)
	}

	var got model.FocusStats
	ok, err := GetJSON(ctx, s, KeyFocusStats, &got)
	if err != nil {
		t.Fatalf("GetJSON() error = %v", err)
	}
	if !ok {
		t.Fatal("GetJSON() ok = false, want true")
	}
	if got != stats {
		t.Errorf("round trip = %+v, want %+v", got, stats)
	}
}

func TestSet_Overwrites(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := SetString(ctx, s, KeyActiveTab, "focus"); err != nil {
		t.Fatal(err)
	}
	if err := SetString(ctx, s, KeyActiveTab, "journal"); err != nil {
		t.Fatal(err)
	}

	got, ok, err := GetString(ctx, s, KeyActiveTab)
	if err != nil || !ok {
		t.Fatalf("GetString() = %v, %v, %v", got, ok, err)
	}
	if got != "journal" {
		t.Errorf("ActiveTab = %q, want %q", got, "journal")
	}
}

func TestDelete_AbsentKeyIsNoop(t *testing.T) {
	s := newTestStore(t)

	if err := s.Delete(context.Background(), KeySound); err != nil {
		t.Errorf("Delete() on absent key error = %v, want nil", err)
	}
}

func TestClear_ResetsEverything(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// Populate a representative spread of keys
	if err := SetString(ctx, s, KeyUserName, "dev"); err != nil {
		t.Fatal(err)
	}
	entries := []model.JournalEntry{{ID: 1700000000000, Date: "2023-11-14T22:13:20Z", Content: "hi"}}
	if err := SetJSON(ctx, s, KeyJournalEntries, entries); err != nil {
		t.Fatal(err)
	}
	if err := SetJSON(ctx, s, KeyOnboarding, true); err != nil {
		t.Fatal(err)
	}

	if err := s.Clear(ctx); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}

	for _, key := range SyncedKeys {
		raw, err := s.Get(ctx, key)
		if err != nil {
			t.Fatalf("Get(%s) error = %v", key, err)
		}
		if raw != nil {
			t.Errorf("key %s still present after Clear: %s", key, raw)
		}
	}

	// onboardingComplete is reset to false, not deleted
	raw, err := s.Get(ctx, KeyOnboarding)
	if err != nil {
		t.Fatal(err)
	}
	var onboarding bool
	if err := json.Unmarshal(raw, &onboarding); err != nil {
		t.Fatalf("onboardingComplete after Clear is not valid JSON: %v", err)
	}
	if onboarding {
		t.Error("onboardingComplete = true after Clear, want false")
	}
}

func TestClear_Idempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.Clear(ctx); err != nil {
		t.Fatalf("first Clear() error = %v", err)
	}
	if err := s.Clear(ctx); err != nil {
		t.Fatalf("repeated Clear() error = %v", err)
	}
}

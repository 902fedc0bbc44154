package service

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/zenjispace/zenjid/internal/apperror"
	"github.com/zenjispace/zenjid/internal/model"
	"github.com/zenjispace/zenjid/internal/state"
)

// === mocks ===

type mockAssistant struct {
	reply string
	err   error

	gotHistory  []model.ChatMessage
	gotUserName string
}

func (m *mockAssistant) GetChatCompletion(_ context.Context, history []model.ChatMessage, userName string) (string, error) {
	m.gotHistory = history
	m.gotUserName = userName
	if m.err != nil {
		return "", m.err
	}
	return m.reply, nil
}

type mockNotifier struct {
	notifies int
}

func (m *mockNotifier) Notify() { m.notifies++ }

// === helpers ===

func newTestDashboard(t *testing.T, assistant Assistant) (*Dashboard, state.Store, *mockNotifier) {
	t.Helper()
	store, err := state.NewSQLite(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })

	notifier := &mockNotifier{}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	return NewDashboard(store, assistant, notifier, logger), store, notifier
}

func readStats(t *testing.T, store state.Store) model.FocusStats {
	t.Helper()
	var stats model.FocusStats
	if _, err := state.GetJSON(context.Background(), store, state.KeyFocusStats, &stats); err != nil {
		t.Fatal(err)
	}
	return stats
}

// === tests ===

func TestUpdateProfile(t *testing.T) {
	d, store, notifier := newTestDashboard(t, nil)
	ctx := context.Background()

	if err := d.UpdateProfile(ctx, "  jun  ", "data:image/png;base64,abc"); err != nil {
		t.Fatalf("UpdateProfile() error = %v", err)
	}

	data, err := d.GetUserData(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if data.UserName != "jun" {
		t.Errorf("userName = %q, want trimmed %q", data.UserName, "jun")
	}
	if data.Avatar == "" {
		t.Error("avatar not stored")
	}
	if !data.OnboardingComplete {
		t.Error("completing the profile should complete onboarding")
	}
	if notifier.notifies != 1 {
		t.Errorf("notifies = %d, want 1", notifier.notifies)
	}

	// Updating the name with no avatar keeps the stored avatar.
	if err := d.UpdateProfile(ctx, "juniper", ""); err != nil {
		t.Fatal(err)
	}
	data, _ = d.GetUserData(ctx)
	if data.Avatar == "" {
		t.Error("empty avatar in an update must not clear the stored one")
	}
	_ = store
}

func TestUpdateProfile_Validation(t *testing.T) {
	d, _, notifier := newTestDashboard(t, nil)

	if err := d.UpdateProfile(context.Background(), "   ", ""); !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("UpdateProfile(blank) error = %v, want ErrValidation", err)
	}
	if notifier.notifies != 0 {
		t.Error("a rejected mutation must not trigger a sync")
	}
}

func TestSaveJournalEntries(t *testing.T) {
	d, store, notifier := newTestDashboard(t, nil)
	ctx := context.Background()

	entries := []model.JournalEntry{
		{Content: "new entry, no id yet"},
		{ID: 1700000000000, Date: "2026-08-27T09:00:00Z", Content: "older entry"},
	}
	if err := d.SaveJournalEntries(ctx, entries); err != nil {
		t.Fatalf("SaveJournalEntries() error = %v", err)
	}

	var saved []model.JournalEntry
	if _, err := state.GetJSON(ctx, store, state.KeyJournalEntries, &saved); err != nil {
		t.Fatal(err)
	}
	if len(saved) != 2 {
		t.Fatalf("saved %d entries, want 2", len(saved))
	}
	if saved[0].ID == 0 || saved[0].Date == "" {
		t.Errorf("new entry did not get id/date: %+v", saved[0])
	}
	if saved[1].ID != 1700000000000 {
		t.Errorf("existing entry id changed: %+v", saved[1])
	}
	if notifier.notifies != 1 {
		t.Errorf("notifies = %d, want 1", notifier.notifies)
	}

	if err := d.SaveJournalEntries(ctx, []model.JournalEntry{{Content: "   "}}); !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("blank entry error = %v, want ErrValidation", err)
	}
}

func TestSaveChatHistory_Caps(t *testing.T) {
	d, store, _ := newTestDashboard(t, nil)
	ctx := context.Background()

	oversized := make([]model.ChatMessage, model.MaxChatHistory+7)
	for i := range oversized {
		oversized[i] = model.ChatMessage{Role: model.RoleUser, Content: "msg"}
	}
	oversized[len(oversized)-1].Content = "newest"

	if err := d.SaveChatHistory(ctx, oversized); err != nil {
		t.Fatalf("SaveChatHistory() error = %v", err)
	}

	var saved []model.ChatMessage
	if _, err := state.GetJSON(ctx, store, state.KeyChatHistory, &saved); err != nil {
		t.Fatal(err)
	}
	if len(saved) != model.MaxChatHistory {
		t.Fatalf("saved %d messages, want %d", len(saved), model.MaxChatHistory)
	}
	if saved[len(saved)-1].Content != "newest" {
		t.Error("cap dropped the newest message instead of the oldest")
	}
}

func TestRecordSession(t *testing.T) {
	tests := []struct {
		name      string
		seed      *model.FocusStats
		kind      string
		minutes   int
		mood      string
		completed bool
		want      model.FocusStats
	}{
		{
			name:      "completed focus adds count and minutes",
			kind:      SessionFocus,
			minutes:   25,
			mood:      "calm",
			completed: true,
			want:      model.FocusStats{FocusCount: 1, FocusMinutes: 25, MoodAvg: "calm"},
		},
		{
			name:      "completed break adds break count only",
			seed:      &model.FocusStats{FocusCount: 2, FocusMinutes: 50},
			kind:      SessionBreak,
			minutes:   5,
			completed: true,
			want:      model.FocusStats{FocusCount: 2, FocusMinutes: 50, BreakCount: 1},
		},
		{
			name:      "cancellation rolls back credited minutes",
			seed:      &model.FocusStats{FocusCount: 3, FocusMinutes: 70},
			kind:      SessionFocus,
			minutes:   20,
			completed: false,
			want:      model.FocusStats{FocusCount: 3, FocusMinutes: 50},
		},
		{
			name:      "cancellation clamps at zero",
			seed:      &model.FocusStats{FocusCount: 1, FocusMinutes: 10},
			kind:      SessionFocus,
			minutes:   25,
			completed: false,
			want:      model.FocusStats{FocusCount: 1, FocusMinutes: 0},
		},
		{
			name:      "cancellation on fresh stats stays at zero",
			kind:      SessionFocus,
			minutes:   25,
			completed: false,
			want:      model.FocusStats{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, store, _ := newTestDashboard(t, nil)
			ctx := context.Background()

			if tt.seed != nil {
				if err := state.SetJSON(ctx, store, state.KeyFocusStats, tt.seed); err != nil {
					t.Fatal(err)
				}
			}

			got, err := d.RecordSession(ctx, tt.kind, tt.minutes, tt.mood, tt.completed)
			if err != nil {
				t.Fatalf("RecordSession() error = %v", err)
			}
			if *got != tt.want {
				t.Errorf("RecordSession() = %+v, want %+v", *got, tt.want)
			}
			if persisted := readStats(t, store); persisted != tt.want {
				t.Errorf("persisted stats = %+v, want %+v", persisted, tt.want)
			}
		})
	}
}

func TestRecordSession_Validation(t *testing.T) {
	d, _, _ := newTestDashboard(t, nil)
	ctx := context.Background()

	if _, err := d.RecordSession(ctx, "nap", 25, "", true); !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("RecordSession(bad kind) error = %v, want ErrValidation", err)
	}
	if _, err := d.RecordSession(ctx, SessionFocus, -5, "", true); !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("RecordSession(negative minutes) error = %v, want ErrValidation", err)
	}
}

func TestClearAllData(t *testing.T) {
	d, store, _ := newTestDashboard(t, nil)
	ctx := context.Background()

	if err := d.UpdateProfile(ctx, "jun", "avatar"); err != nil {
		t.Fatal(err)
	}
	if err := d.ClearAllData(ctx); err != nil {
		t.Fatalf("ClearAllData() error = %v", err)
	}

	data, err := d.GetUserData(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if data.UserName != "" || data.Avatar != "" {
		t.Errorf("data survived the clear: %+v", data)
	}
	if data.OnboardingComplete {
		t.Error("clear must reset onboardingComplete")
	}

	// Idempotent: clearing again is a no-op, error-free.
	if err := d.ClearAllData(ctx); err != nil {
		t.Errorf("second ClearAllData() error = %v", err)
	}
	_ = store
}

func TestChat(t *testing.T) {
	assistant := &mockAssistant{reply: "Take a deep breath."}
	d, store, notifier := newTestDashboard(t, assistant)
	ctx := context.Background()

	if err := d.UpdateProfile(ctx, "jun", ""); err != nil {
		t.Fatal(err)
	}

	reply, err := d.Chat(ctx, "I'm feeling overwhelmed")
	if err != nil {
		t.Fatalf("Chat() error = %v", err)
	}
	if reply != "Take a deep breath." {
		t.Errorf("Chat() = %q", reply)
	}
	if assistant.gotUserName != "jun" {
		t.Errorf("assistant saw userName %q, want %q", assistant.gotUserName, "jun")
	}
	if len(assistant.gotHistory) != 1 || assistant.gotHistory[0].Role != model.RoleUser {
		t.Errorf("assistant saw history %+v, want the single user message", assistant.gotHistory)
	}

	var saved []model.ChatMessage
	if _, err := state.GetJSON(ctx, store, state.KeyChatHistory, &saved); err != nil {
		t.Fatal(err)
	}
	if len(saved) != 2 || saved[1].Role != model.RoleAssistant || saved[1].Content != reply {
		t.Errorf("saved history = %+v, want user message plus reply", saved)
	}
	if notifier.notifies < 2 { // profile update + chat save
		t.Errorf("notifies = %d, want at least 2", notifier.notifies)
	}
}

func TestChat_AssistantFailure(t *testing.T) {
	assistant := &mockAssistant{err: apperror.Integration("assistant", errors.New("rate limited"))}
	d, store, _ := newTestDashboard(t, assistant)
	ctx := context.Background()

	if _, err := d.Chat(ctx, "hello"); !errors.Is(err, apperror.ErrIntegration) {
		t.Fatalf("Chat() error = %v, want ErrIntegration", err)
	}

	// A failed completion must not persist the dangling user message.
	var saved []model.ChatMessage
	ok, err := state.GetJSON(ctx, store, state.KeyChatHistory, &saved)
	if err != nil {
		t.Fatal(err)
	}
	if ok && len(saved) != 0 {
		t.Errorf("history after failed chat = %+v, want none", saved)
	}
}

func TestChat_Validation(t *testing.T) {
	d, _, _ := newTestDashboard(t, &mockAssistant{reply: "hi"})

	if _, err := d.Chat(context.Background(), "   "); !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("Chat(blank) error = %v, want ErrValidation", err)
	}
}

// Package service contains the business layer: the dashboard operations the
// UI triggers. Handlers parse HTTP and delegate here; this package enforces
// the rules (caps, clamping, validation) and talks to the local store and the
// integration adapters.
//
// Every mutation ends with an auto-sync notification. The notification is
// fire-and-forget by design — a mutation never fails because the push behind
// it might.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/zenjispace/zenjid/internal/apperror"
	"github.com/zenjispace/zenjid/internal/model"
	"github.com/zenjispace/zenjid/internal/state"
)

// Validation limits.
const (
	MaxUserNameLength     = 50
	MaxJournalEntryLength = 10000
	MaxChatMessageLength  = 4000
)

// Session kinds accepted by RecordSession.
const (
	SessionFocus = "focus"
	SessionBreak = "break"
)

// Assistant is the slice of the AI adapter the dashboard needs.
type Assistant interface {
	GetChatCompletion(ctx context.Context, history []model.ChatMessage, userName string) (string, error)
}

// SyncNotifier marks local state dirty. *sync.AutoSync implements it.
type SyncNotifier interface {
	Notify()
}

// UserData is the full local snapshot the UI renders from. Slices are always
// non-nil so the UI sees [] rather than null.
type UserData struct {
	Avatar             string               `json:"avatar,omitempty"`
	UserName           string               `json:"userName,omitempty"`
	FocusStats         model.FocusStats     `json:"focusStats"`
	JournalEntries     []model.JournalEntry `json:"journalEntries"`
	ChatHistory        []model.ChatMessage  `json:"chatHistory"`
	Sound              string               `json:"sound,omitempty"`
	SoundURL           string               `json:"soundUrl,omitempty"`
	ActiveTab          string               `json:"activeTab,omitempty"`
	ActiveJournalTab   string               `json:"activeJournalTab,omitempty"`
	OnboardingComplete bool                 `json:"onboardingComplete"`
	LastSynced         string               `json:"lastSynced,omitempty"`
}

// Dashboard owns the dashboard mutations. It knows nothing about HTTP.
type Dashboard struct {
	local     state.Store
	assistant Assistant
	autosync  SyncNotifier
	logger    *slog.Logger
}

// NewDashboard creates the service. assistant and autosync may be nil (no AI
// key configured, or a test that doesn't care about sync).
func NewDashboard(local state.Store, assistant Assistant, autosync SyncNotifier, logger *slog.Logger) *Dashboard {
	return &Dashboard{
		local:     local,
		assistant: assistant,
		autosync:  autosync,
		logger:    logger,
	}
}

// notify marks state dirty after a successful mutation.
func (d *Dashboard) notify() {
	if d.autosync != nil {
		d.autosync.Notify()
	}
}

// GetUserData assembles the full local snapshot for the UI.
func (d *Dashboard) GetUserData(ctx context.Context) (*UserData, error) {
	data := &UserData{
		JournalEntries: []model.JournalEntry{},
		ChatHistory:    []model.ChatMessage{},
	}

	for _, f := range []struct {
		key string
		dst *string
	}{
		{state.KeyAvatar, &data.Avatar},
		{state.KeyUserName, &data.UserName},
		{state.KeySound, &data.Sound},
		{state.KeySoundURL, &data.SoundURL},
		{state.KeyActiveTab, &data.ActiveTab},
		{state.KeyActiveJournalTab, &data.ActiveJournalTab},
		{state.KeyLastSynced, &data.LastSynced},
	} {
		v, ok, err := state.GetString(ctx, d.local, f.key)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", f.key, err)
		}
		if ok {
			*f.dst = v
		}
	}

	if _, err := state.GetJSON(ctx, d.local, state.KeyFocusStats, &data.FocusStats); err != nil {
		return nil, err
	}
	if _, err := state.GetJSON(ctx, d.local, state.KeyJournalEntries, &data.JournalEntries); err != nil {
		return nil, err
	}
	if _, err := state.GetJSON(ctx, d.local, state.KeyChatHistory, &data.ChatHistory); err != nil {
		return nil, err
	}
	if _, err := state.GetJSON(ctx, d.local, state.KeyOnboarding, &data.OnboardingComplete); err != nil {
		return nil, err
	}

	if data.JournalEntries == nil {
		data.JournalEntries = []model.JournalEntry{}
	}
	if data.ChatHistory == nil {
		data.ChatHistory = []model.ChatMessage{}
	}

	return data, nil
}

// UpdateProfile sets the user name (required) and avatar (optional, kept when
// empty). Completing a profile also completes onboarding.
func (d *Dashboard) UpdateProfile(ctx context.Context, userName, avatar string) error {
	userName = strings.TrimSpace(userName)
	if userName == "" {
		return apperror.ValidationFailed("userName", "name is required")
	}
	if len(userName) > MaxUserNameLength {
		return apperror.ValidationFailed("userName",
			fmt.Sprintf("name must be %d characters or less", MaxUserNameLength))
	}

	if err := state.SetString(ctx, d.local, state.KeyUserName, userName); err != nil {
		return err
	}
	if avatar != "" {
		if err := state.SetString(ctx, d.local, state.KeyAvatar, avatar); err != nil {
			return err
		}
	}
	if err := state.SetJSON(ctx, d.local, state.KeyOnboarding, true); err != nil {
		return err
	}

	d.logger.Info("profile updated", slog.String("userName", userName))
	d.notify()
	return nil
}

// SaveJournalEntries replaces the stored sequence. Entries are newest-first
// and immutable once created; new ones (id zero) get a timestamp-derived id.
func (d *Dashboard) SaveJournalEntries(ctx context.Context, entries []model.JournalEntry) error {
	now := time.Now()
	for i := range entries {
		if strings.TrimSpace(entries[i].Content) == "" {
			return apperror.ValidationFailed("content", "journal entries cannot be empty")
		}
		if len(entries[i].Content) > MaxJournalEntryLength {
			return apperror.ValidationFailed("content",
				fmt.Sprintf("journal entries must be %d characters or less", MaxJournalEntryLength))
		}
		if entries[i].ID == 0 {
			entries[i].ID = now.UnixMilli()
		}
		if entries[i].Date == "" {
			entries[i].Date = now.UTC().Format(time.RFC3339)
		}
	}
	if entries == nil {
		entries = []model.JournalEntry{}
	}

	if err := state.SetJSON(ctx, d.local, state.KeyJournalEntries, entries); err != nil {
		return err
	}

	d.logger.Info("journal saved", slog.Int("entries", len(entries)))
	d.notify()
	return nil
}

// SaveChatHistory persists the conversation, capped at the newest
// MaxChatHistory messages. The cap is enforced here, centrally, not left to
// whichever UI variant happens to be attached.
func (d *Dashboard) SaveChatHistory(ctx context.Context, history []model.ChatMessage) error {
	if len(history) > model.MaxChatHistory {
		history = history[len(history)-model.MaxChatHistory:]
	}
	if history == nil {
		history = []model.ChatMessage{}
	}

	if err := state.SetJSON(ctx, d.local, state.KeyChatHistory, history); err != nil {
		return err
	}

	d.notify()
	return nil
}

// RecordSession applies a finished or cancelled focus/break session.
//
// A completed session increments the count (and, for focus, the minutes) and
// folds in the reported mood. A cancelled session rolls back the minutes the
// UI credited up front — and every counter clamps at zero, so a rollback can
// never drive the stats negative.
func (d *Dashboard) RecordSession(ctx context.Context, kind string, minutes int, mood string, completed bool) (*model.FocusStats, error) {
	if kind != SessionFocus && kind != SessionBreak {
		return nil, apperror.ValidationFailed("kind",
			fmt.Sprintf("session kind must be %q or %q", SessionFocus, SessionBreak))
	}
	if minutes < 0 {
		return nil, apperror.ValidationFailed("minutes", "minutes cannot be negative")
	}

	var stats model.FocusStats
	if _, err := state.GetJSON(ctx, d.local, state.KeyFocusStats, &stats); err != nil {
		return nil, err
	}

	switch {
	case completed && kind == SessionFocus:
		stats.FocusCount++
		stats.FocusMinutes += minutes
	case completed && kind == SessionBreak:
		stats.BreakCount++
	case kind == SessionFocus:
		stats.FocusMinutes -= minutes
	}

	// Clamp at zero: cancellation arithmetic must never leave negative counts.
	if stats.FocusCount < 0 {
		stats.FocusCount = 0
	}
	if stats.FocusMinutes < 0 {
		stats.FocusMinutes = 0
	}
	if stats.BreakCount < 0 {
		stats.BreakCount = 0
	}

	if completed && mood != "" {
		stats.MoodAvg = mood
	}

	if err := state.SetJSON(ctx, d.local, state.KeyFocusStats, stats); err != nil {
		return nil, err
	}

	d.logger.Info("session recorded",
		slog.String("kind", kind),
		slog.Int("minutes", minutes),
		slog.Bool("completed", completed),
	)
	d.notify()
	return &stats, nil
}

// UpdateSound stores the ambient sound selection.
func (d *Dashboard) UpdateSound(ctx context.Context, sound, soundURL string) error {
	if err := state.SetString(ctx, d.local, state.KeySound, sound); err != nil {
		return err
	}
	if err := state.SetString(ctx, d.local, state.KeySoundURL, soundURL); err != nil {
		return err
	}
	d.notify()
	return nil
}

// SetActiveTab remembers the dashboard tab the UI is on.
func (d *Dashboard) SetActiveTab(ctx context.Context, tab string) error {
	if err := state.SetString(ctx, d.local, state.KeyActiveTab, tab); err != nil {
		return err
	}
	d.notify()
	return nil
}

// SetActiveJournalTab remembers the journal sub-tab.
func (d *Dashboard) SetActiveJournalTab(ctx context.Context, tab string) error {
	if err := state.SetString(ctx, d.local, state.KeyActiveJournalTab, tab); err != nil {
		return err
	}
	d.notify()
	return nil
}

// ClearAllData wipes every local key, secrets included. Idempotent.
func (d *Dashboard) ClearAllData(ctx context.Context) error {
	if err := d.local.Clear(ctx); err != nil {
		return err
	}
	d.logger.Info("all local data cleared")
	return nil
}

// Chat appends the user's message, asks the assistant, appends the reply, and
// persists the capped history. Returns the assistant's reply.
func (d *Dashboard) Chat(ctx context.Context, message string) (string, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return "", apperror.ValidationFailed("message", "message is required")
	}
	if len(message) > MaxChatMessageLength {
		return "", apperror.ValidationFailed("message",
			fmt.Sprintf("message must be %d characters or less", MaxChatMessageLength))
	}
	if d.assistant == nil {
		return "", apperror.Integration("assistant", fmt.Errorf("assistant not configured"))
	}

	var history []model.ChatMessage
	if _, err := state.GetJSON(ctx, d.local, state.KeyChatHistory, &history); err != nil {
		return "", err
	}
	history = append(history, model.ChatMessage{Role: model.RoleUser, Content: message})

	userName, _, err := state.GetString(ctx, d.local, state.KeyUserName)
	if err != nil {
		return "", err
	}

	reply, err := d.assistant.GetChatCompletion(ctx, history, userName)
	if err != nil {
		return "", err
	}
	history = append(history, model.ChatMessage{Role: model.RoleAssistant, Content: reply})

	if err := d.SaveChatHistory(ctx, history); err != nil {
		return "", err
	}
	return reply, nil
}

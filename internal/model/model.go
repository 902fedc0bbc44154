// Package model defines the data structures used throughout the application.
// In Go, we use structs to represent our data — similar to classes in other languages,
// but without inheritance. Go favours composition over inheritance.
//
// JSON TAGS vs BSON TAGS:
// The wire format (both the HTTP API and the synced remote document) uses camelCase
// JSON, matching what the dashboard UI expects. The MongoDB backend stores the same
// shapes, so each field also carries a bson tag. Keeping both tags on one struct means
// there is exactly one definition of every synced shape.
package model

import "time"

// UserProfile is the locally stored profile, mutated by onboarding and
// profile-update events. Avatar is either a data URL or an https URL.
type UserProfile struct {
	Avatar   string `json:"avatar,omitempty" bson:"avatar,omitempty"`
	UserName string `json:"userName,omitempty" bson:"userName,omitempty"`
}

// FocusStats accumulates completed focus and break sessions.
//
// INVARIANT: counts never go negative. Session cancellation subtracts only the
// minutes that actually elapsed and clamps at zero (see service.RecordSession).
type FocusStats struct {
	FocusCount   int    `json:"focusCount" bson:"focusCount"`
	FocusMinutes int    `json:"focusMinutes" bson:"focusMinutes"`
	BreakCount   int    `json:"breakCount" bson:"breakCount"`
	MoodAvg      string `json:"moodAvg" bson:"moodAvg"`
}

// JournalEntry is a single journal note. Entries are immutable once created and
// are kept newest-first. There is no update or delete operation — only a
// full data clear removes them.
type JournalEntry struct {
	// ID is derived from the creation timestamp (Unix milliseconds), which makes
	// entries unique per installation and naturally sortable.
	ID      int64  `json:"id" bson:"id"`
	Date    string `json:"date" bson:"date"` // ISO-8601
	Content string `json:"content" bson:"content"`
}

// Chat message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// MaxChatHistory caps how many chat messages are persisted. Older messages are
// dropped from the front when the history is saved.
const MaxChatHistory = 50

// ChatMessage is one turn of the assistant conversation.
type ChatMessage struct {
	Role    string `json:"role" bson:"role"`
	Content string `json:"content" bson:"content"`
}

// SyncDocumentVersion is written into every pushed document. It is a format
// marker only — there is no migration logic keyed on it yet.
const SyncDocumentVersion = "1.0"

// SyncDocument is the single remote document representing all synchronized
// state for one GitHub identity. It is keyed by the external user id, not a
// device id: multiple devices signed in as the same identity write the same
// document, and the last completed write wins.
type SyncDocument struct {
	UserID    string    `json:"userId" bson:"userId"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
	Version   string    `json:"version" bson:"version"`
	Data      SyncData  `json:"data" bson:"data"`
}

// SyncData holds the synchronized fields.
//
// POINTER FIELDS = OPTIONAL FIELDS:
// Every field is a pointer (or slice), so "absent remotely" is representable as
// nil. The pull path overwrites a local field only when the remote field is
// present; a nil field leaves local state untouched. Note the distinction from
// emptiness: an empty-but-present journalEntries array DOES overwrite.
type SyncData struct {
	Avatar     *string     `json:"avatar,omitempty" bson:"avatar,omitempty"`
	UserName   *string     `json:"userName,omitempty" bson:"userName,omitempty"`
	FocusStats *FocusStats `json:"focusStats,omitempty" bson:"focusStats,omitempty"`

	// No omitempty on the slices: an empty-but-present array must cross the
	// wire as [], because presence (not non-emptiness) decides whether the
	// pull path overwrites. A nil slice crosses as null and counts as absent.
	JournalEntries []JournalEntry `json:"journalEntries" bson:"journalEntries"`
	ChatHistory    []ChatMessage  `json:"chatHistory" bson:"chatHistory"`

	ActiveTab        *string               `json:"activeTab,omitempty" bson:"activeTab,omitempty"`
	ActiveJournalTab *string               `json:"activeJournalTab,omitempty" bson:"activeJournalTab,omitempty"`
	Sound            *string               `json:"sound,omitempty" bson:"sound,omitempty"`
	SoundURL         *string               `json:"soundUrl,omitempty" bson:"soundUrl,omitempty"`
	Integrations     *IntegrationsSnapshot `json:"integrations,omitempty" bson:"integrations,omitempty"`
}

// IntegrationsSnapshot carries the public status of each enabled integration.
// It never contains secrets: only connectivity booleans and timestamps cross
// the wire. Tokens stay in the local secret store.
type IntegrationsSnapshot struct {
	Spotify *SpotifyStatus `json:"spotify,omitempty" bson:"spotify,omitempty"`
}

// SpotifyStatus is the non-secret connectivity snapshot for Spotify. A pulled
// Connected=true is a hint, not an instruction — the adapter re-validates the
// locally held token before declaring itself connected.
type SpotifyStatus struct {
	Connected   bool       `json:"connected" bson:"connected"`
	ConnectedAt *time.Time `json:"connectedAt,omitempty" bson:"connectedAt,omitempty"`
	DisplayName string     `json:"displayName,omitempty" bson:"displayName,omitempty"`
}

// Package state implements the local state store: per-installation persistent
// key-value storage holding the same logical fields as the synced remote
// document. It survives daemon restarts but not a data clear.
//
// The store is a cache of user preference, not a ledger. Operations are
// best-effort: Clear deletes the known keys one at a time with no transaction
// across them, so a crash mid-clear leaves partial state — acceptable for
// this data.
package state

import "context"

// Local persistence keys. The store operates over this fixed, known set; the
// sync engine enumerates SyncedKeys when assembling a push.
const (
	KeyAvatar           = "avatar"
	KeyUserName         = "userName"
	KeyFocusStats       = "focusStats"
	KeyJournalEntries   = "journalEntries"
	KeyChatHistory      = "chatHistory"
	KeySound            = "sound"
	KeySoundURL         = "soundUrl"
	KeyActiveTab        = "activeTab"
	KeyActiveJournalTab = "activeJournalTab"
	KeyGitHubUserID     = "githubUserId"
	KeyLastSynced       = "lastSyncedTimestamp"
	KeyOnboarding       = "onboardingComplete"

	// Integration secrets live under these keys in the encrypted secret
	// store, layered on top of this one. They are never synced.
	KeySpotifyToken        = "spotify-token"
	KeySpotifyRefreshToken = "spotify-refresh-token"
	KeySpotifyAuthState    = "spotify-auth-state"
	KeyOpenAIAPIKey        = "openai-api-key"
)

// SyncedKeys are the fields that participate in cloud sync, in push order.
var SyncedKeys = []string{
	KeyAvatar,
	KeyUserName,
	KeyFocusStats,
	KeyJournalEntries,
	KeyChatHistory,
	KeySound,
	KeySoundURL,
	KeyActiveTab,
	KeyActiveJournalTab,
}

// AllKeys is every enumerated key, used by Clear.
var AllKeys = []string{
	KeyAvatar,
	KeyUserName,
	KeyFocusStats,
	KeyJournalEntries,
	KeyChatHistory,
	KeySound,
	KeySoundURL,
	KeyActiveTab,
	KeyActiveJournalTab,
	KeyGitHubUserID,
	KeyLastSynced,
	KeyOnboarding,
	KeySpotifyToken,
	KeySpotifyRefreshToken,
	KeySpotifyAuthState,
	KeyOpenAIAPIKey,
}

// Store is the local state store contract.
//
// Get returns nil (not an error) for an absent key — callers treat absence as
// "field not set", mirroring how the pull path treats absent remote fields.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error

	// Clear deletes every enumerated key one at a time and resets
	// onboardingComplete to false. Idempotent: clearing an already-empty
	// store is a no-op, error-free.
	Clear(ctx context.Context) error

	Close() error
}

// Package sync implements the cloud sync engine: assembling the local state
// into a single versioned document, pushing it to the remote store, and
// applying a pulled document back with a partial merge.
//
// LAST WRITE WINS:
// A push is an unconditional replace keyed by the GitHub user id. Two devices
// pushing concurrently do not merge — whichever network write completes last
// is what the remote holds. The engine takes no lock across devices and does
// not try to detect the race.
package sync

import (
	"context"
	"log/slog"
	"time"

	"github.com/rs/xid"
	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/zenjispace/zenjid/internal/apperror"
	"github.com/zenjispace/zenjid/internal/auth"
	"github.com/zenjispace/zenjid/internal/model"
	"github.com/zenjispace/zenjid/internal/remote"
	"github.com/zenjispace/zenjid/internal/state"
)

// Sync directions, as reported in completion events.
const (
	DirectionPush = "push"
	DirectionPull = "pull"
)

// Identity is the slice of the credential store the engine needs.
type Identity interface {
	GetSession() *auth.Session
	ResolveUserID(ctx context.Context) (string, error)
}

// Spotify is the slice of the Spotify adapter the engine needs: a non-secret
// status snapshot for the push, and Restore for applying a pulled one.
type Spotify interface {
	Status(ctx context.Context) model.SpotifyStatus
	Restore(ctx context.Context, remote *model.SpotifyStatus) error
}

// Result describes one finished sync run, successful or not.
type Result struct {
	RunID       string    `json:"runId"`
	Direction   string    `json:"direction"`
	Success     bool      `json:"success"`
	Message     string    `json:"message,omitempty"`
	CompletedAt time.Time `json:"completedAt"`
}

// Publisher receives completion notifications. The websocket event hub
// implements it; a nil publisher is allowed when no UI is attached.
type Publisher interface {
	SyncCompleted(result Result)
}

// Engine coordinates one installation's sync against the remote store. All
// collaborators are explicit constructor arguments — nothing here reaches for
// process-global state, so tests (and a second engine in the same process)
// just build their own.
type Engine struct {
	local   state.Store
	remote  remote.Store
	ids     Identity
	spotify Spotify
	events  Publisher
	logger  *slog.Logger
	schema  *jsonschema.Schema
}

// New creates an engine. spotify and events may be nil.
func New(local state.Store, rem remote.Store, ids Identity, spotify Spotify, events Publisher, logger *slog.Logger) (*Engine, error) {
	schema, err := compileDocumentSchema()
	if err != nil {
		return nil, err
	}
	return &Engine{
		local:   local,
		remote:  rem,
		ids:     ids,
		spotify: spotify,
		events:  events,
		logger:  logger,
		schema:  schema,
	}, nil
}

// SyncOut pushes the local state to the remote store.
//
// It requires a live session: without one it fails before touching the
// network. On success it records the push time under lastSyncedTimestamp.
func (e *Engine) SyncOut(ctx context.Context) error {
	runID := xid.New().String()
	log := e.logger.With(slog.String("run", runID), slog.String("direction", DirectionPush))

	err := e.syncOut(ctx, log)
	if err != nil {
		log.Warn("sync failed", slog.String("error", err.Error()))
	}
	e.publish(runID, DirectionPush, err)
	return err
}

func (e *Engine) syncOut(ctx context.Context, log *slog.Logger) error {
	if e.ids.GetSession() == nil {
		return apperror.NotAuthenticated()
	}

	userID, err := e.ids.ResolveUserID(ctx)
	if err != nil {
		return err
	}

	doc, err := e.assemble(ctx, userID)
	if err != nil {
		return err
	}

	if err := e.remote.Upsert(ctx, userID, doc); err != nil {
		return err
	}

	// Best-effort bookkeeping: a failed timestamp write doesn't undo the push.
	stamp := doc.UpdatedAt.Format(time.RFC3339)
	if err := state.SetString(ctx, e.local, state.KeyLastSynced, stamp); err != nil {
		log.Warn("failed to record last-synced timestamp", slog.String("error", err.Error()))
	}

	log.Info("pushed local state", slog.String("user", userID))
	return nil
}

// SyncIn pulls the remote document and merges it into local state.
//
// PARTIAL MERGE: only fields present in the document overwrite local values;
// absent (null or missing) fields leave local state untouched. Presence is
// the test, not non-emptiness — an empty-but-present journalEntries array
// does clear the local entries.
func (e *Engine) SyncIn(ctx context.Context) error {
	runID := xid.New().String()
	log := e.logger.With(slog.String("run", runID), slog.String("direction", DirectionPull))

	err := e.syncIn(ctx, log)
	if err != nil {
		log.Warn("sync failed", slog.String("error", err.Error()))
	}
	e.publish(runID, DirectionPull, err)
	return err
}

func (e *Engine) syncIn(ctx context.Context, log *slog.Logger) error {
	if e.ids.GetSession() == nil {
		return apperror.NotAuthenticated()
	}

	userID, err := e.ids.ResolveUserID(ctx)
	if err != nil {
		return err
	}

	doc, err := e.remote.Fetch(ctx, userID)
	if err != nil {
		return err
	}
	if doc == nil {
		return apperror.NoRemoteData(userID)
	}

	// Reject the whole document before any local write. A half-applied pull
	// is worse than a failed one.
	if err := e.validateDocument(doc); err != nil {
		return err
	}

	if err := e.apply(ctx, doc); err != nil {
		return err
	}

	log.Info("merged remote state", slog.String("user", userID),
		slog.Time("remoteUpdatedAt", doc.UpdatedAt))
	return nil
}

// assemble reads every synced field from the local store into a fresh
// document. Fields with no local value stay nil so the receiving side's merge
// skips them.
func (e *Engine) assemble(ctx context.Context, userID string) (*model.SyncDocument, error) {
	doc := &model.SyncDocument{
		UserID:    userID,
		UpdatedAt: time.Now().UTC(),
		Version:   model.SyncDocumentVersion,
	}
	d := &doc.Data

	for _, f := range []struct {
		key string
		dst **string
	}{
		{state.KeyAvatar, &d.Avatar},
		{state.KeyUserName, &d.UserName},
		{state.KeySound, &d.Sound},
		{state.KeySoundURL, &d.SoundURL},
		{state.KeyActiveTab, &d.ActiveTab},
		{state.KeyActiveJournalTab, &d.ActiveJournalTab},
	} {
		v, ok, err := state.GetString(ctx, e.local, f.key)
		if err != nil {
			return nil, err
		}
		if ok {
			val := v
			*f.dst = &val
		}
	}

	var stats model.FocusStats
	if ok, err := state.GetJSON(ctx, e.local, state.KeyFocusStats, &stats); err != nil {
		return nil, err
	} else if ok {
		d.FocusStats = &stats
	}

	var entries []model.JournalEntry
	if ok, err := state.GetJSON(ctx, e.local, state.KeyJournalEntries, &entries); err != nil {
		return nil, err
	} else if ok {
		if entries == nil {
			entries = []model.JournalEntry{}
		}
		d.JournalEntries = entries
	}

	var history []model.ChatMessage
	if ok, err := state.GetJSON(ctx, e.local, state.KeyChatHistory, &history); err != nil {
		return nil, err
	} else if ok {
		if history == nil {
			history = []model.ChatMessage{}
		}
		d.ChatHistory = history
	}

	if e.spotify != nil {
		status := e.spotify.Status(ctx)
		d.Integrations = &model.IntegrationsSnapshot{Spotify: &status}
	}

	return doc, nil
}

// apply writes the present fields of a validated document into the local
// store and hands the integrations snapshot to the adapters.
func (e *Engine) apply(ctx context.Context, doc *model.SyncDocument) error {
	d := doc.Data

	for _, f := range []struct {
		key string
		val *string
	}{
		{state.KeyAvatar, d.Avatar},
		{state.KeyUserName, d.UserName},
		{state.KeySound, d.Sound},
		{state.KeySoundURL, d.SoundURL},
		{state.KeyActiveTab, d.ActiveTab},
		{state.KeyActiveJournalTab, d.ActiveJournalTab},
	} {
		if f.val == nil {
			continue
		}
		if err := state.SetString(ctx, e.local, f.key, *f.val); err != nil {
			return err
		}
	}

	if d.FocusStats != nil {
		if err := state.SetJSON(ctx, e.local, state.KeyFocusStats, d.FocusStats); err != nil {
			return err
		}
	}
	if d.JournalEntries != nil {
		if err := state.SetJSON(ctx, e.local, state.KeyJournalEntries, d.JournalEntries); err != nil {
			return err
		}
	}
	if d.ChatHistory != nil {
		history := d.ChatHistory
		if len(history) > model.MaxChatHistory {
			history = history[len(history)-model.MaxChatHistory:]
		}
		if err := state.SetJSON(ctx, e.local, state.KeyChatHistory, history); err != nil {
			return err
		}
	}

	if d.Integrations != nil && e.spotify != nil {
		// Restore re-validates the locally held token; the remote flag alone
		// never connects anything.
		if err := e.spotify.Restore(ctx, d.Integrations.Spotify); err != nil {
			e.logger.Warn("spotify restore after pull failed", slog.String("error", err.Error()))
		}
	}

	return nil
}

func (e *Engine) publish(runID, direction string, err error) {
	if e.events == nil {
		return
	}
	result := Result{
		RunID:       runID,
		Direction:   direction,
		Success:     err == nil,
		CompletedAt: time.Now(),
	}
	if err != nil {
		result.Message = err.Error()
	}
	e.events.SyncCompleted(result)
}

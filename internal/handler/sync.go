package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/zenjispace/zenjid/internal/sync"
)

// Syncer is the slice of the sync engine the handler drives. Tests substitute
// a fake.
type Syncer interface {
	SyncOut(ctx context.Context) error
	SyncIn(ctx context.Context) error
}

// SyncHandler exposes explicit, user-triggered sync over HTTP. Unlike
// auto-sync, failures here are surfaced to the caller.
type SyncHandler struct {
	engine Syncer
	logger *slog.Logger
}

// NewSyncHandler creates the handler.
func NewSyncHandler(engine Syncer, logger *slog.Logger) *SyncHandler {
	return &SyncHandler{engine: engine, logger: logger}
}

// HandlePush pushes local state to the cloud.
//
// POST /api/sync/push → syncComplete
func (h *SyncHandler) HandlePush(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.SyncOut(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeReply(w, "syncComplete", map[string]any{
		"success":   true,
		"direction": sync.DirectionPush,
	})
}

// HandlePull pulls the remote document and merges it locally.
//
// POST /api/sync/pull → syncComplete
func (h *SyncHandler) HandlePull(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.SyncIn(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeReply(w, "syncComplete", map[string]any{
		"success":   true,
		"direction": sync.DirectionPull,
	})
}

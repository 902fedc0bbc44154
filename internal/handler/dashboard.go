package handler

import (
	"log/slog"
	"net/http"

	"github.com/zenjispace/zenjid/internal/apperror"
	"github.com/zenjispace/zenjid/internal/model"
	"github.com/zenjispace/zenjid/internal/service"
)

// DashboardHandler exposes the dashboard operations over HTTP. Each method is
// one UI command; the reply command names match what the webview expects.
type DashboardHandler struct {
	dashboard *service.Dashboard
	logger    *slog.Logger
}

// NewDashboardHandler creates the handler.
func NewDashboardHandler(dashboard *service.Dashboard, logger *slog.Logger) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboard, logger: logger}
}

// HandleGetUserData returns the full local snapshot.
//
// GET /api/user-data → userData
func (h *DashboardHandler) HandleGetUserData(w http.ResponseWriter, r *http.Request) {
	data, err := h.dashboard.GetUserData(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeReply(w, "userData", data)
}

// HandleUpdateProfile sets the user name and avatar.
//
// PUT /api/profile
func (h *DashboardHandler) HandleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserName string `json:"userName"`
		Avatar   string `json:"avatar"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	if err := h.dashboard.UpdateProfile(r.Context(), req.UserName, req.Avatar); err != nil {
		writeError(w, err)
		return
	}
	writeReply(w, "profileUpdated", nil)
}

// HandleSaveJournal replaces the journal sequence.
//
// PUT /api/journal
func (h *DashboardHandler) HandleSaveJournal(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Entries []model.JournalEntry `json:"entries"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	if err := h.dashboard.SaveJournalEntries(r.Context(), req.Entries); err != nil {
		writeError(w, err)
		return
	}
	writeReply(w, "journalSaved", map[string]int{"entries": len(req.Entries)})
}

// HandleUpdateSound stores the ambient sound selection.
//
// PUT /api/sound
func (h *DashboardHandler) HandleUpdateSound(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Sound    string `json:"sound"`
		SoundURL string `json:"soundUrl"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	if err := h.dashboard.UpdateSound(r.Context(), req.Sound, req.SoundURL); err != nil {
		writeError(w, err)
		return
	}
	writeReply(w, "soundUpdated", nil)
}

// HandleTabs remembers the active dashboard and journal tabs. Either field may
// be omitted; only the present ones are written.
//
// PUT /api/tabs
func (h *DashboardHandler) HandleTabs(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ActiveTab        *string `json:"activeTab"`
		ActiveJournalTab *string `json:"activeJournalTab"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.ActiveTab == nil && req.ActiveJournalTab == nil {
		writeError(w, apperror.ValidationFailed("body", "no tab field in request"))
		return
	}

	if req.ActiveTab != nil {
		if err := h.dashboard.SetActiveTab(r.Context(), *req.ActiveTab); err != nil {
			writeError(w, err)
			return
		}
	}
	if req.ActiveJournalTab != nil {
		if err := h.dashboard.SetActiveJournalTab(r.Context(), *req.ActiveJournalTab); err != nil {
			writeError(w, err)
			return
		}
	}
	writeReply(w, "tabsUpdated", nil)
}

// HandleRecordSession applies a finished or cancelled focus/break session and
// returns the updated stats.
//
// POST /api/sessions
func (h *DashboardHandler) HandleRecordSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Kind      string `json:"kind"`
		Minutes   int    `json:"minutes"`
		Mood      string `json:"mood"`
		Completed bool   `json:"completed"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	stats, err := h.dashboard.RecordSession(r.Context(), req.Kind, req.Minutes, req.Mood, req.Completed)
	if err != nil {
		writeError(w, err)
		return
	}
	writeReply(w, "focusStats", stats)
}

// HandleChat sends a message to the assistant and returns its reply.
//
// POST /api/chat → aiChatResponse
func (h *DashboardHandler) HandleChat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Message string `json:"message"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	reply, err := h.dashboard.Chat(r.Context(), req.Message)
	if err != nil {
		writeError(w, err)
		return
	}
	writeReply(w, "aiChatResponse", map[string]string{"reply": reply})
}

// HandleClearData wipes all local data, secrets included.
//
// DELETE /api/data
func (h *DashboardHandler) HandleClearData(w http.ResponseWriter, r *http.Request) {
	if err := h.dashboard.ClearAllData(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeReply(w, "dataCleared", nil)
}

package handler

import (
	"log/slog"
	"net/http"

	"github.com/rs/xid"

	"github.com/zenjispace/zenjid/internal/integrations/spotify"
)

const spotifyStateCookie = "spotify_oauth_state"

// SpotifyHandler exposes the Spotify integration over HTTP.
type SpotifyHandler struct {
	adapter spotify.Adapter
	real    *spotify.Real // nil when the mock variant is active
	logger  *slog.Logger
}

// NewSpotifyHandler creates the handler. When the adapter is the real Web API
// variant, the OAuth routes become functional.
func NewSpotifyHandler(adapter spotify.Adapter, logger *slog.Logger) *SpotifyHandler {
	h := &SpotifyHandler{adapter: adapter, logger: logger}
	if real, ok := adapter.(*spotify.Real); ok {
		h.real = real
	}
	return h
}

// HandleConnect connects (or re-validates) the integration.
//
// POST /api/spotify/connection → spotifyConnectionStatus
//
// With the real adapter and no usable stored token, the reply carries an
// authUrl the UI must open to run the consent screen.
func (h *SpotifyHandler) HandleConnect(w http.ResponseWriter, r *http.Request) {
	ok, err := h.adapter.Connect(r.Context())
	if err != nil && h.real != nil {
		state := xid.New().String()
		http.SetCookie(w, &http.Cookie{
			Name:     spotifyStateCookie,
			Value:    state,
			Path:     "/",
			MaxAge:   int(oauthStateMaxAge.Seconds()),
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
		writeReply(w, "spotifyConnectionStatus", map[string]any{
			"connected": false,
			"authUrl":   h.real.AuthURL(state),
		})
		return
	}
	if err != nil {
		writeError(w, err)
		return
	}

	status := h.adapter.Status(r.Context())
	h.logger.Info("spotify connect handled", slog.Bool("connected", ok))
	writeReply(w, "spotifyConnectionStatus", status)
}

// HandleCallback finishes the real adapter's OAuth dance.
//
// GET /auth/spotify/callback?code=...&state=...
func (h *SpotifyHandler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	if h.real == nil {
		http.NotFound(w, r)
		return
	}

	stateCookie, err := r.Cookie(spotifyStateCookie)
	if err != nil || stateCookie.Value == "" || stateCookie.Value != r.URL.Query().Get("state") {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_state",
			Message: "OAuth state mismatch; restart the Spotify connection",
		})
		return
	}
	http.SetCookie(w, &http.Cookie{Name: spotifyStateCookie, Value: "", Path: "/", MaxAge: -1})

	if err := h.real.CompleteAuth(r.Context(), r.URL.Query().Get("code")); err != nil {
		writeError(w, err)
		return
	}
	writeReply(w, "spotifyConnectionStatus", h.adapter.Status(r.Context()))
}

// HandleDisconnect forgets the stored tokens.
//
// DELETE /api/spotify/connection → spotifyConnectionStatus
func (h *SpotifyHandler) HandleDisconnect(w http.ResponseWriter, r *http.Request) {
	if _, err := h.adapter.Disconnect(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeReply(w, "spotifyConnectionStatus", h.adapter.Status(r.Context()))
}

// HandlePlaylists lists the user's playlists.
//
// GET /api/spotify/playlists → spotifyPlaylists
func (h *SpotifyHandler) HandlePlaylists(w http.ResponseWriter, r *http.Request) {
	playlists, err := h.adapter.ListPlaylists(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeReply(w, "spotifyPlaylists", map[string]any{"playlists": playlists})
}

// HandlePlayback starts a playlist on the active device.
//
// POST /api/spotify/playback → spotifyPlaybackStatus
func (h *SpotifyHandler) HandlePlayback(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PlaylistID string `json:"playlistId"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	if err := h.adapter.PlayPlaylist(r.Context(), req.PlaylistID); err != nil {
		writeError(w, err)
		return
	}
	writeReply(w, "spotifyPlaybackStatus", map[string]any{
		"playing":    true,
		"playlistId": req.PlaylistID,
	})
}

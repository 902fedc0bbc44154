package spotify

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/oauth2"

	"github.com/zenjispace/zenjid/internal/config"
	"github.com/zenjispace/zenjid/internal/model"
	"github.com/zenjispace/zenjid/internal/secrets"
	"github.com/zenjispace/zenjid/internal/state"
)

func newTestReal(t *testing.T, apiBase string) (*Real, *secrets.Vault) {
	t.Helper()
	store, err := state.NewSQLite(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })

	vault, err := secrets.New(store, filepath.Join(t.TempDir(), "test.key"))
	if err != nil {
		t.Fatal(err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	r := NewReal(config.SpotifyConfig{
		OAuthConfig: config.OAuthConfig{ClientID: "id", ClientSecret: "secret"},
	}, vault, logger)
	if apiBase != "" {
		r.apiBase = apiBase
	}
	return r, vault
}

// storeTestToken plants a long-lived token so API calls skip the refresh path.
func storeTestToken(t *testing.T, r *Real) {
	t.Helper()
	err := r.storeToken(context.Background(), &oauth2.Token{
		AccessToken: "test-access",
		TokenType:   "Bearer",
		Expiry:      time.Now().Add(time.Hour),
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestReal_ConnectWithoutTokenFails(t *testing.T) {
	r, _ := newTestReal(t, "")

	ok, err := r.Connect(context.Background())
	if ok || err == nil {
		t.Errorf("Connect() with no stored token = %v, %v; want failure", ok, err)
	}
	if r.Status(context.Background()).Connected {
		t.Error("adapter claims connected without a token")
	}
}

func TestReal_ConnectValidatesStoredToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if req.URL.Path != "/me" {
			http.NotFound(w, req)
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"display_name": "Dev"})
	}))
	defer srv.Close()

	r, _ := newTestReal(t, srv.URL)
	storeTestToken(t, r)

	ok, err := r.Connect(context.Background())
	if err != nil || !ok {
		t.Fatalf("Connect() = %v, %v", ok, err)
	}

	status := r.Status(context.Background())
	if !status.Connected || status.DisplayName != "Dev" {
		t.Errorf("Status() = %+v, want connected as Dev", status)
	}
}

func TestReal_RestoreStaysDisconnectedWithoutToken(t *testing.T) {
	r, _ := newTestReal(t, "")

	if err := r.Restore(context.Background(), &model.SpotifyStatus{Connected: true}); err != nil {
		t.Fatalf("Restore() error = %v", err)
	}
	if r.Status(context.Background()).Connected {
		t.Error("Restore() trusted the remote connected flag without a local token")
	}
}

func TestReal_RestoreReconnectsWithValidToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"display_name": "Dev"})
	}))
	defer srv.Close()

	r, _ := newTestReal(t, srv.URL)
	storeTestToken(t, r)

	if err := r.Restore(context.Background(), &model.SpotifyStatus{Connected: true}); err != nil {
		t.Fatalf("Restore() error = %v", err)
	}
	if !r.Status(context.Background()).Connected {
		t.Error("Restore() should reconnect when the local token validates")
	}
}

func TestReal_ListPlaylists(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if req.URL.Path != "/me/playlists" {
			http.NotFound(w, req)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"items": []map[string]any{
				{
					"id": "pl1", "name": "Lo-fi", "description": "beats",
					"images": []map[string]string{{"url": "https://img"}},
					"tracks": map[string]int{"total": 12},
				},
			},
		})
	}))
	defer srv.Close()

	r, _ := newTestReal(t, srv.URL)
	storeTestToken(t, r)

	playlists, err := r.ListPlaylists(context.Background())
	if err != nil {
		t.Fatalf("ListPlaylists() error = %v", err)
	}
	if len(playlists) != 1 || playlists[0].ID != "pl1" || playlists[0].Tracks.Total != 12 {
		t.Errorf("ListPlaylists() = %+v, want one playlist pl1 with 12 tracks", playlists)
	}
}

func TestReal_PlayPlaylistNoDevice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	r, _ := newTestReal(t, srv.URL)
	storeTestToken(t, r)

	err := r.PlayPlaylist(context.Background(), "pl1")
	if err == nil {
		t.Fatal("PlayPlaylist() should fail when no device is active")
	}
}

func TestReal_DisconnectClearsTokens(t *testing.T) {
	r, vault := newTestReal(t, "")
	storeTestToken(t, r)

	ok, err := r.Disconnect(context.Background())
	if err != nil || !ok {
		t.Fatalf("Disconnect() = %v, %v", ok, err)
	}

	if _, found, _ := vault.Get(context.Background(), state.KeySpotifyToken); found {
		t.Error("access token still stored after Disconnect")
	}
	if _, found, _ := vault.Get(context.Background(), state.KeySpotifyRefreshToken); found {
		t.Error("refresh token still stored after Disconnect")
	}
}

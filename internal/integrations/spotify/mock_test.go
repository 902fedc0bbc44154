package spotify

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/zenjispace/zenjid/internal/apperror"
	"github.com/zenjispace/zenjid/internal/model"
)

func newTestMock(t *testing.T) *Mock {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	m := NewMock(logger)
	m.authDelay = 0 // no simulated consent screen in tests
	return m
}

func TestMock_ConnectDisconnect(t *testing.T) {
	m := newTestMock(t)
	ctx := context.Background()

	if m.Status(ctx).Connected {
		t.Fatal("mock should start disconnected")
	}

	ok, err := m.Connect(ctx)
	if err != nil || !ok {
		t.Fatalf("Connect() = %v, %v", ok, err)
	}

	status := m.Status(ctx)
	if !status.Connected {
		t.Error("Status().Connected = false after Connect")
	}
	if status.ConnectedAt == nil {
		t.Error("Status().ConnectedAt should be set while connected")
	}

	ok, err = m.Disconnect(ctx)
	if err != nil || !ok {
		t.Fatalf("Disconnect() = %v, %v", ok, err)
	}
	if m.Status(ctx).Connected {
		t.Error("Status().Connected = true after Disconnect")
	}
}

func TestMock_PlaylistsRequireConnection(t *testing.T) {
	m := newTestMock(t)
	ctx := context.Background()

	if _, err := m.ListPlaylists(ctx); !errors.Is(err, apperror.ErrIntegration) {
		t.Errorf("ListPlaylists() while disconnected error = %v, want ErrIntegration", err)
	}

	if _, err := m.Connect(ctx); err != nil {
		t.Fatal(err)
	}

	playlists, err := m.ListPlaylists(ctx)
	if err != nil {
		t.Fatalf("ListPlaylists() error = %v", err)
	}
	if len(playlists) != 3 {
		t.Errorf("ListPlaylists() returned %d playlists, want 3", len(playlists))
	}
	if playlists[0].Name != "Focus Flow" {
		t.Errorf("first playlist = %q, want %q", playlists[0].Name, "Focus Flow")
	}
}

func TestMock_PlayPlaylist(t *testing.T) {
	m := newTestMock(t)
	ctx := context.Background()

	if _, err := m.Connect(ctx); err != nil {
		t.Fatal(err)
	}

	if err := m.PlayPlaylist(ctx, "playlist2"); err != nil {
		t.Errorf("PlayPlaylist(known) error = %v", err)
	}
	if err := m.PlayPlaylist(ctx, "nope"); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("PlayPlaylist(unknown) error = %v, want ErrNotFound", err)
	}
}

// A pulled "connected" snapshot is a hint, not an instruction: the mock holds
// no token, so it must stay disconnected.
func TestMock_RestoreDoesNotTrustRemoteFlag(t *testing.T) {
	m := newTestMock(t)
	ctx := context.Background()

	if err := m.Restore(ctx, &model.SpotifyStatus{Connected: true}); err != nil {
		t.Fatalf("Restore() error = %v", err)
	}
	if m.Status(ctx).Connected {
		t.Error("Restore() connected the mock from a remote hint alone")
	}

	if err := m.Restore(ctx, nil); err != nil {
		t.Errorf("Restore(nil) error = %v", err)
	}
}

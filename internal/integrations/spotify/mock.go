package spotify

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/zenjispace/zenjid/internal/apperror"
	"github.com/zenjispace/zenjid/internal/model"
)

// mockPlaylists is the demo catalogue.
var mockPlaylists = []model.Playlist{
	{
		ID:          "playlist1",
		Name:        "Focus Flow",
		Description: "Deep focus music for productive coding sessions",
		Images:      []model.PlaylistImage{{URL: "https://i.scdn.co/image/ab67706c0000da84c0b0a6ba01feaca888ff31fb"}},
		Tracks:      model.TrackRef{Total: 25},
	},
	{
		ID:          "playlist2",
		Name:        "Coding Beats",
		Description: "Instrumental tracks to keep you in the zone",
		Images:      []model.PlaylistImage{{URL: "https://i.scdn.co/image/ab67706c0000da8498153c08646739e26bd64175"}},
		Tracks:      model.TrackRef{Total: 18},
	},
	{
		ID:          "playlist3",
		Name:        "Ambient Work",
		Description: "Ambient soundscapes for better concentration",
		Images:      []model.PlaylistImage{{URL: "https://i.scdn.co/image/ab67706c0000da84bdcc7129f48c56d22ffa6d30"}},
		Tracks:      model.TrackRef{Total: 32},
	},
}

// Mock simulates the Spotify integration without any network access.
type Mock struct {
	logger    *slog.Logger
	authDelay time.Duration

	mu          sync.Mutex
	connected   bool
	connectedAt time.Time
	inProgress  bool
}

var _ Adapter = (*Mock)(nil)

// NewMock creates the mock adapter. The simulated auth delay matches what a
// real consent screen round trip feels like.
func NewMock(logger *slog.Logger) *Mock {
	return &Mock{logger: logger, authDelay: 2 * time.Second}
}

// Connect simulates the auth dance. A second Connect while one is in progress
// is refused rather than queued.
func (m *Mock) Connect(ctx context.Context) (bool, error) {
	m.mu.Lock()
	if m.inProgress {
		m.mu.Unlock()
		return false, apperror.Integration("spotify", fmt.Errorf("connection already in progress"))
	}
	m.inProgress = true
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		m.inProgress = false
		m.mu.Unlock()
	}()

	m.logger.Info("simulating spotify auth", slog.Duration("delay", m.authDelay))
	select {
	case <-time.After(m.authDelay):
	case <-ctx.Done():
		return false, ctx.Err()
	}

	m.mu.Lock()
	m.connected = true
	m.connectedAt = time.Now()
	m.mu.Unlock()

	m.logger.Info("spotify connected (mock)")
	return true, nil
}

func (m *Mock) Disconnect(_ context.Context) (bool, error) {
	m.mu.Lock()
	m.connected = false
	m.mu.Unlock()

	m.logger.Info("spotify disconnected (mock)")
	return true, nil
}

func (m *Mock) Status(_ context.Context) model.SpotifyStatus {
	m.mu.Lock()
	defer m.mu.Unlock()

	status := model.SpotifyStatus{Connected: m.connected}
	if m.connected {
		at := m.connectedAt
		status.ConnectedAt = &at
	}
	return status
}

// Restore treats the remote flag as a hint. The mock holds no real token, so
// a remote "connected" cannot be honoured — the user reconnects on this
// device. Matches the real adapter's "never trust the hint" rule.
func (m *Mock) Restore(_ context.Context, remote *model.SpotifyStatus) error {
	if remote == nil || !remote.Connected {
		return nil
	}
	m.logger.Info("remote snapshot says spotify was connected; reconnect on this device to restore")
	return nil
}

func (m *Mock) ListPlaylists(_ context.Context) ([]model.Playlist, error) {
	m.mu.Lock()
	connected := m.connected
	m.mu.Unlock()

	if !connected {
		return nil, apperror.Integration("spotify", fmt.Errorf("not connected"))
	}

	// Return a copy so callers can't mutate the catalogue.
	playlists := make([]model.Playlist, len(mockPlaylists))
	copy(playlists, mockPlaylists)
	return playlists, nil
}

func (m *Mock) PlayPlaylist(_ context.Context, playlistID string) error {
	m.mu.Lock()
	connected := m.connected
	m.mu.Unlock()

	if !connected {
		return apperror.Integration("spotify", fmt.Errorf("not connected"))
	}

	for _, p := range mockPlaylists {
		if p.ID == playlistID {
			m.logger.Info("now playing (mock)", slog.String("playlist", p.Name))
			return nil
		}
	}
	return apperror.NotFound("playlist", playlistID)
}

package spotify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/oauth2"
	oauthspotify "golang.org/x/oauth2/spotify"

	"github.com/zenjispace/zenjid/internal/apperror"
	"github.com/zenjispace/zenjid/internal/config"
	"github.com/zenjispace/zenjid/internal/model"
	"github.com/zenjispace/zenjid/internal/secrets"
	"github.com/zenjispace/zenjid/internal/state"
)

const defaultAPIBase = "https://api.spotify.com/v1"

// Real talks to the Spotify Web API with tokens held in the encrypted secret
// store. The OAuth authorization itself runs over the daemon's auth routes
// (AuthURL/CompleteAuth); everything else re-validates the stored token.
type Real struct {
	oauth  *oauth2.Config
	vault  *secrets.Vault
	logger *slog.Logger

	// apiBase is swappable so tests can point at an httptest server.
	apiBase string

	mu          sync.Mutex
	connected   bool
	connectedAt time.Time
	displayName string
}

var _ Adapter = (*Real)(nil)

// NewReal creates the Web API adapter.
func NewReal(cfg config.SpotifyConfig, vault *secrets.Vault, logger *slog.Logger) *Real {
	return &Real{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.CallbackURL,
			Scopes: []string{
				"playlist-read-private",
				"user-read-playback-state",
				"user-modify-playback-state",
			},
			Endpoint: oauthspotify.Endpoint,
		},
		vault:   vault,
		logger:  logger,
		apiBase: defaultAPIBase,
	}
}

// AuthURL returns the consent-screen URL for the given CSRF state.
func (r *Real) AuthURL(csrfState string) string {
	return r.oauth.AuthCodeURL(csrfState, oauth2.AccessTypeOffline)
}

// CompleteAuth exchanges the authorization code, stores the tokens, and marks
// the integration connected.
func (r *Real) CompleteAuth(ctx context.Context, code string) error {
	token, err := r.oauth.Exchange(ctx, code)
	if err != nil {
		return apperror.Integration("spotify", fmt.Errorf("exchanging code: %w", err))
	}
	if err := r.storeToken(ctx, token); err != nil {
		return err
	}

	name, err := r.fetchDisplayName(ctx, token)
	if err != nil {
		// Token works for the exchange but /me failed; keep the connection,
		// the name is cosmetic.
		r.logger.Warn("spotify /me lookup failed after auth", slog.String("error", err.Error()))
	}

	r.mu.Lock()
	r.connected = true
	r.connectedAt = time.Now()
	r.displayName = name
	r.mu.Unlock()

	r.logger.Info("spotify connected", slog.String("displayName", name))
	return nil
}

// Connect re-validates the stored token. It never starts the OAuth dance —
// with no usable token it fails, and the handler sends the UI to AuthURL.
func (r *Real) Connect(ctx context.Context) (bool, error) {
	token, err := r.loadToken(ctx)
	if err != nil {
		return false, err
	}
	if token == nil {
		return false, apperror.Integration("spotify",
			fmt.Errorf("no stored token; authorization required"))
	}

	name, err := r.fetchDisplayName(ctx, token)
	if err != nil {
		return false, apperror.Integration("spotify", fmt.Errorf("stored token rejected: %w", err))
	}

	r.mu.Lock()
	r.connected = true
	r.connectedAt = time.Now()
	r.displayName = name
	r.mu.Unlock()
	return true, nil
}

// Disconnect forgets the stored tokens and drops the connection.
func (r *Real) Disconnect(ctx context.Context) (bool, error) {
	for _, key := range []string{state.KeySpotifyToken, state.KeySpotifyRefreshToken, state.KeySpotifyAuthState} {
		if err := r.vault.Delete(ctx, key); err != nil {
			return false, apperror.Integration("spotify", fmt.Errorf("clearing %s: %w", key, err))
		}
	}

	r.mu.Lock()
	r.connected = false
	r.displayName = ""
	r.mu.Unlock()

	r.logger.Info("spotify disconnected")
	return true, nil
}

func (r *Real) Status(_ context.Context) model.SpotifyStatus {
	r.mu.Lock()
	defer r.mu.Unlock()

	status := model.SpotifyStatus{Connected: r.connected, DisplayName: r.displayName}
	if r.connected {
		at := r.connectedAt
		status.ConnectedAt = &at
	}
	return status
}

// Restore applies a pulled snapshot. The remote flag is only a hint: we
// re-validate whatever token this device holds, and stay disconnected when
// there is none — remote data never carries tokens.
func (r *Real) Restore(ctx context.Context, remote *model.SpotifyStatus) error {
	if remote == nil || !remote.Connected {
		return nil
	}

	if _, err := r.Connect(ctx); err != nil {
		r.logger.Info("remote snapshot says spotify was connected, but no valid local token; staying disconnected",
			slog.String("reason", err.Error()))
		return nil
	}
	return nil
}

// ListPlaylists fetches the user's playlists from the Web API.
func (r *Real) ListPlaylists(ctx context.Context) ([]model.Playlist, error) {
	client, err := r.apiClient(ctx)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.apiBase+"/me/playlists?limit=50", nil)
	if err != nil {
		return nil, apperror.Integration("spotify", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, apperror.Integration("spotify", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apperror.Integration("spotify",
			fmt.Errorf("playlists request returned status %d", resp.StatusCode))
	}

	var payload struct {
		Items []model.Playlist `json:"items"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, apperror.Integration("spotify", fmt.Errorf("decoding playlists: %w", err))
	}
	return payload.Items, nil
}

// PlayPlaylist starts playback on the user's active device.
func (r *Real) PlayPlaylist(ctx context.Context, playlistID string) error {
	client, err := r.apiClient(ctx)
	if err != nil {
		return err
	}

	body, _ := json.Marshal(map[string]string{
		"context_uri": "spotify:playlist:" + playlistID,
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPut,
		r.apiBase+"/me/player/play", bytes.NewReader(body))
	if err != nil {
		return apperror.Integration("spotify", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return apperror.Integration("spotify", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusNoContent, http.StatusAccepted:
		return nil
	case http.StatusNotFound:
		return apperror.Integration("spotify", fmt.Errorf("no active playback device"))
	default:
		return apperror.Integration("spotify",
			fmt.Errorf("play request returned status %d", resp.StatusCode))
	}
}

// === token plumbing ===

// storeToken seals the access token (with expiry) and the refresh token under
// their own keys.
func (r *Real) storeToken(ctx context.Context, token *oauth2.Token) error {
	access, err := json.Marshal(oauth2.Token{
		AccessToken: token.AccessToken,
		TokenType:   token.TokenType,
		Expiry:      token.Expiry,
	})
	if err != nil {
		return apperror.Integration("spotify", err)
	}
	if err := r.vault.Set(ctx, state.KeySpotifyToken, string(access)); err != nil {
		return apperror.Integration("spotify", err)
	}
	if token.RefreshToken != "" {
		if err := r.vault.Set(ctx, state.KeySpotifyRefreshToken, token.RefreshToken); err != nil {
			return apperror.Integration("spotify", err)
		}
	}
	return nil
}

// loadToken reassembles the stored token. Returns (nil, nil) when this device
// has never authorized.
func (r *Real) loadToken(ctx context.Context) (*oauth2.Token, error) {
	raw, ok, err := r.vault.Get(ctx, state.KeySpotifyToken)
	if err != nil {
		return nil, apperror.Integration("spotify", err)
	}
	if !ok {
		return nil, nil
	}

	var token oauth2.Token
	if err := json.Unmarshal([]byte(raw), &token); err != nil {
		return nil, apperror.Integration("spotify", fmt.Errorf("decoding stored token: %w", err))
	}

	if refresh, ok, err := r.vault.Get(ctx, state.KeySpotifyRefreshToken); err == nil && ok {
		token.RefreshToken = refresh
	}
	return &token, nil
}

// apiClient returns an HTTP client that refreshes the token as needed and
// persists any refreshed token back to the vault.
func (r *Real) apiClient(ctx context.Context) (*http.Client, error) {
	token, err := r.loadToken(ctx)
	if err != nil {
		return nil, err
	}
	if token == nil {
		return nil, apperror.Integration("spotify",
			fmt.Errorf("not connected; authorization required"))
	}

	source := r.oauth.TokenSource(ctx, token)
	return oauth2.NewClient(ctx, &persistingSource{
		adapter: r,
		ctx:     ctx,
		inner:   source,
		last:    token.AccessToken,
	}), nil
}

// persistingSource writes refreshed tokens back to the vault so the next
// process start doesn't redo the refresh.
type persistingSource struct {
	adapter *Real
	ctx     context.Context
	inner   oauth2.TokenSource
	last    string
}

func (s *persistingSource) Token() (*oauth2.Token, error) {
	token, err := s.inner.Token()
	if err != nil {
		return nil, err
	}
	if token.AccessToken != s.last {
		s.last = token.AccessToken
		if err := s.adapter.storeToken(s.ctx, token); err != nil {
			s.adapter.logger.Warn("persisting refreshed spotify token failed",
				slog.String("error", err.Error()))
		}
	}
	return token, nil
}

// fetchDisplayName validates a token against /me and returns the profile name.
func (r *Real) fetchDisplayName(ctx context.Context, token *oauth2.Token) (string, error) {
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(token))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.apiBase+"/me", nil)
	if err != nil {
		return "", err
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("/me returned status %d", resp.StatusCode)
	}

	var me struct {
		DisplayName string `json:"display_name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&me); err != nil {
		return "", fmt.Errorf("decoding /me: %w", err)
	}
	return me.DisplayName, nil
}

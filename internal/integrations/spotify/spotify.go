// Package spotify contains the music integration adapter.
//
// Two variants implement one interface and are NOT merged: the mock adapter
// (a canned catalogue with simulated auth, used for demos and whenever no
// client id is configured) and the real adapter (OAuth against
// accounts.spotify.com plus Web API calls). The daemon picks one at startup;
// nothing downstream can tell them apart.
package spotify

import (
	"context"

	"github.com/zenjispace/zenjid/internal/model"
)

// Adapter is the music integration contract.
//
// Status never includes secrets: the sync engine embeds it verbatim in the
// remote document, so it carries only connectivity booleans, timestamps and
// display metadata.
type Adapter interface {
	// Connect establishes (or verifies) the connection. For the real adapter
	// this checks the stored token; the OAuth dance itself runs over the
	// daemon's auth routes.
	Connect(ctx context.Context) (bool, error)

	// Disconnect tears the connection down and forgets stored tokens.
	Disconnect(ctx context.Context) (bool, error)

	// Status returns the non-secret connectivity snapshot.
	Status(ctx context.Context) model.SpotifyStatus

	// Restore applies a pulled remote snapshot. The remote connected flag is
	// a hint only: the adapter re-validates any locally held token before
	// declaring itself connected, because remote data carries no tokens.
	Restore(ctx context.Context, remote *model.SpotifyStatus) error

	// ListPlaylists returns the user's playlists.
	ListPlaylists(ctx context.Context) ([]model.Playlist, error)

	// PlayPlaylist starts playback of the given playlist.
	PlayPlaylist(ctx context.Context, playlistID string) error
}

package model

// Playlist is a Spotify playlist as shown in the ambient sounds card.
// Field shapes follow Spotify's Web API responses so both the mock and the
// real adapter can fill the same struct.
type Playlist struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Images      []PlaylistImage `json:"images"`
	Tracks      TrackRef        `json:"tracks"`
}

// PlaylistImage is one cover image variant.
type PlaylistImage struct {
	URL string `json:"url"`
}

// TrackRef carries the track count for a playlist.
type TrackRef struct {
	Total int `json:"total"`
}

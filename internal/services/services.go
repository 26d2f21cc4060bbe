package services

import (
	"context"

	"github.com/desertthunder/playdeck/internal/models"
)

// PlaylistService persists playlists.
type PlaylistService interface {
	// ListPlaylists returns every playlist, newest first, with ordered members.
	ListPlaylists(ctx context.Context) ([]*models.Playlist, error)

	// CreatePlaylist creates a playlist with a caller-chosen id so optimistic rows reconcile.
	CreatePlaylist(ctx context.Context, id, name string) (*models.Playlist, error)

	RenamePlaylist(ctx context.Context, id, name string) error

	// SetCoverImage stores the image and returns the URL now set as the cover.
	SetCoverImage(ctx context.Context, id, filename string, data []byte) (string, error)

	DeletePlaylist(ctx context.Context, id string) error

	AddTrackToPlaylist(ctx context.Context, playlistID, trackID string) (models.AddResult, error)
}

// TrackService reads and edits the library.
type TrackService interface {
	ListTracks(ctx context.Context) ([]*models.Track, error)
	PlaylistTracks(ctx context.Context, playlistID string) ([]*models.Track, error)

	// UpdateTrackField parses raw for the field, persists it and returns the re-read track.
	UpdateTrackField(ctx context.Context, id string, field models.TrackField, raw string) (*models.Track, error)

	// UpdateTrackImage stores the image and returns the URL now set on the track.
	UpdateTrackImage(ctx context.Context, id, filename string, data []byte) (string, error)

	// ImportTrack inserts track unless one with the same AudioURL exists. created is false
	// when the existing track is returned.
	ImportTrack(ctx context.Context, track *models.Track) (stored *models.Track, created bool, err error)
}

// FavoritesService stores the favorite flag per track id.
type FavoritesService interface {
	SetFavorite(ctx context.Context, trackID string, favorite bool) error
	Favorites(ctx context.Context) ([]string, error)
}

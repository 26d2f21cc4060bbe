package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/playdeck/internal/models"
	"github.com/desertthunder/playdeck/internal/repositories"
	"github.com/desertthunder/playdeck/internal/shared"
	"github.com/desertthunder/playdeck/internal/storage"
)

// Library implements [PlaylistService], [TrackService] and [FavoritesService] over sqlite.
type Library struct {
	tracks    *repositories.TrackRepository
	playlists *repositories.PlaylistRepository
	members   *repositories.PlaylistTrackRepository
	favorites *repositories.FavoriteRepository
	blobs     storage.BlobStore
	logger    *log.Logger
}

// NewLibrary wires the repositories for db. blobs may be nil, in which case image uploads fail.
func NewLibrary(db *sql.DB, blobs storage.BlobStore, logger *log.Logger) *Library {
	return &Library{
		tracks:    repositories.NewTrackRepository(db),
		playlists: repositories.NewPlaylistRepository(db),
		members:   repositories.NewPlaylistTrackRepository(db),
		favorites: repositories.NewFavoriteRepository(db),
		blobs:     blobs,
		logger:    shared.WithLogger(logger, "service", "library"),
	}
}

func (l *Library) ListPlaylists(ctx context.Context) ([]*models.Playlist, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return l.playlists.List(map[string]any{})
}

func (l *Library) CreatePlaylist(ctx context.Context, id, name string) (*models.Playlist, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	playlist := &models.Playlist{ID: id, Name: name}
	if err := l.playlists.Create(playlist); err != nil {
		return nil, err
	}

	l.logger.Info("created playlist", "id", playlist.ID, "name", playlist.Name)
	return playlist, nil
}

func (l *Library) RenamePlaylist(ctx context.Context, id, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if name == "" {
		return fmt.Errorf("%w: playlist name is required", shared.ErrInvalidInput)
	}
	return l.playlists.Rename(id, name)
}

func (l *Library) SetCoverImage(ctx context.Context, id, filename string, data []byte) (string, error) {
	if _, err := l.playlists.Get(id); err != nil {
		return "", err
	}

	url, err := l.upload(ctx, "covers", id, filename, data)
	if err != nil {
		return "", err
	}

	if err := l.playlists.SetCover(id, url); err != nil {
		return "", err
	}
	return url, nil
}

func (l *Library) DeletePlaylist(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := l.playlists.Delete(id); err != nil {
		return err
	}

	l.logger.Info("deleted playlist", "id", id)
	return nil
}

func (l *Library) AddTrackToPlaylist(ctx context.Context, playlistID, trackID string) (models.AddResult, error) {
	if err := ctx.Err(); err != nil {
		return models.AddResult{}, err
	}

	added, err := l.members.Add(playlistID, trackID)
	if err != nil {
		return models.AddResult{}, err
	}
	if !added {
		l.logger.Debug("track already in playlist", "playlist", playlistID, "track", trackID)
	}
	return models.AddResult{Added: added}, nil
}

func (l *Library) ListTracks(ctx context.Context) ([]*models.Track, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return l.tracks.List(map[string]any{})
}

// SearchTracks returns tracks whose name, artist or album contains query
func (l *Library) SearchTracks(ctx context.Context, query string) ([]*models.Track, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return l.tracks.List(map[string]any{"query": query})
}

func (l *Library) PlaylistTracks(ctx context.Context, playlistID string) ([]*models.Track, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return l.members.Tracks(playlistID)
}

func (l *Library) UpdateTrackField(ctx context.Context, id string, field models.TrackField, raw string) (*models.Track, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	value, err := field.Parse(raw)
	if err != nil {
		return nil, err
	}
	if field == models.FieldName && value == "" {
		return nil, fmt.Errorf("%w: track name is required", shared.ErrInvalidInput)
	}

	if err := l.tracks.UpdateField(id, field, value); err != nil {
		return nil, err
	}
	return l.tracks.Get(id)
}

func (l *Library) UpdateTrackImage(ctx context.Context, id, filename string, data []byte) (string, error) {
	if _, err := l.tracks.Get(id); err != nil {
		return "", err
	}

	url, err := l.upload(ctx, "tracks", id, filename, data)
	if err != nil {
		return "", err
	}

	if err := l.tracks.UpdateField(id, models.FieldImageURL, url); err != nil {
		return "", err
	}
	return url, nil
}

func (l *Library) ImportTrack(ctx context.Context, track *models.Track) (*models.Track, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	existing, err := l.tracks.GetByAudioURL(track.AudioURL)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, shared.ErrTrackNotFound) {
		return nil, false, err
	}

	if err := l.tracks.Create(track); err != nil {
		return nil, false, err
	}

	l.logger.Info("imported track", "id", track.ID, "name", track.Name)
	return track, true, nil
}

func (l *Library) SetFavorite(ctx context.Context, trackID string, favorite bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if trackID == "" {
		return fmt.Errorf("%w: track id is required", shared.ErrInvalidInput)
	}
	return l.favorites.Set(trackID, favorite)
}

func (l *Library) Favorites(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return l.favorites.List()
}

func (l *Library) upload(ctx context.Context, prefix, owner, filename string, data []byte) (string, error) {
	if l.blobs == nil {
		return "", fmt.Errorf("%w: no blob store configured", shared.ErrBlobStore)
	}

	contentType := storage.ContentType(filename, data)
	if !storage.IsImage(contentType) {
		return "", fmt.Errorf("%w: %s is not an image (%s)", shared.ErrInvalidInput, filename, contentType)
	}

	return l.blobs.Put(ctx, storage.ObjectKey(prefix, owner, filename), data, contentType)
}

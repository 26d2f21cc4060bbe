package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/playdeck/internal/models"
	"github.com/desertthunder/playdeck/internal/shared"
)

// PlaylistRepository implements models.Repository[*models.Playlist].
//
// Playlists are returned with their ordered membership loaded.
type PlaylistRepository struct {
	db      *sql.DB
	members *PlaylistTrackRepository
}

// NewPlaylistRepository creates a new PlaylistRepository with the given database connection
func NewPlaylistRepository(db *sql.DB) *PlaylistRepository {
	return &PlaylistRepository{db: db, members: NewPlaylistTrackRepository(db)}
}

// Create inserts a playlist. A caller-chosen ID is kept so optimistic inserts line up with the refetch.
func (r *PlaylistRepository) Create(playlist *models.Playlist) error {
	if playlist.ID == "" {
		playlist.ID = shared.GenerateID()
	}
	if playlist.Name == "" {
		playlist.Name = models.DefaultPlaylistName
	}

	now := time.Now()
	if playlist.CreatedAt.IsZero() {
		playlist.CreatedAt = now
	}
	playlist.UpdatedAt = now

	if err := playlist.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `INSERT INTO playlists (id, name, cover_url, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`

	_, err := r.db.Exec(query, playlist.ID, playlist.Name, playlist.CoverURL, playlist.CreatedAt, playlist.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert playlist: %w", err)
	}

	return nil
}

// Get retrieves a playlist by ID with its tracks
func (r *PlaylistRepository) Get(id string) (*models.Playlist, error) {
	query := `SELECT id, name, cover_url, created_at, updated_at FROM playlists WHERE id = ?`

	playlist, err := scanPlaylist(r.db.QueryRow(query, id))
	if err != nil {
		return nil, err
	}

	if playlist.Tracks, err = r.members.Entries(id); err != nil {
		return nil, err
	}
	return playlist, nil
}

// Update writes the name and cover of an existing playlist
func (r *PlaylistRepository) Update(playlist *models.Playlist) error {
	if err := playlist.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	playlist.UpdatedAt = time.Now()

	query := `UPDATE playlists SET name = ?, cover_url = ?, updated_at = ? WHERE id = ?`

	result, err := r.db.Exec(query, playlist.Name, playlist.CoverURL, playlist.UpdatedAt, playlist.ID)
	if err != nil {
		return fmt.Errorf("failed to update playlist: %w", err)
	}

	return requireAffected(result, shared.ErrPlaylistNotFound, playlist.ID)
}

// Rename changes only the playlist name
func (r *PlaylistRepository) Rename(id, name string) error {
	return r.setColumn(id, "name", name)
}

// SetCover changes only the cover image URL
func (r *PlaylistRepository) SetCover(id, coverURL string) error {
	return r.setColumn(id, "cover_url", coverURL)
}

func (r *PlaylistRepository) setColumn(id, column, value string) error {
	query := fmt.Sprintf("UPDATE playlists SET %s = ?, updated_at = ? WHERE id = ?", column)

	result, err := r.db.Exec(query, value, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update playlist %s: %w", column, err)
	}

	return requireAffected(result, shared.ErrPlaylistNotFound, id)
}

// Delete removes a playlist and its membership rows
func (r *PlaylistRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM playlists WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete playlist: %w", err)
	}

	return requireAffected(result, shared.ErrPlaylistNotFound, id)
}

// List retrieves playlists newest first, each with its tracks.
//
// Supported criteria: "name" (exact).
func (r *PlaylistRepository) List(criteria map[string]any) ([]*models.Playlist, error) {
	query := `SELECT id, name, cover_url, created_at, updated_at FROM playlists WHERE 1 = 1`
	args := []any{}

	if name, ok := criteria["name"].(string); ok && name != "" {
		query += " AND name = ?"
		args = append(args, name)
	}

	query += " ORDER BY created_at DESC, rowid DESC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query playlists: %w", err)
	}

	playlists := []*models.Playlist{}
	for rows.Next() {
		playlist, err := scanPlaylist(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		playlists = append(playlists, playlist)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	rows.Close()

	for _, p := range playlists {
		if p.Tracks, err = r.members.Entries(p.ID); err != nil {
			return nil, err
		}
	}

	return playlists, nil
}

func scanPlaylist(row rowScanner) (*models.Playlist, error) {
	var playlist models.Playlist

	err := row.Scan(&playlist.ID, &playlist.Name, &playlist.CoverURL, &playlist.CreatedAt, &playlist.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, shared.ErrPlaylistNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan playlist: %w", err)
	}

	playlist.Tracks = []models.PlaylistTrack{}
	return &playlist, nil
}

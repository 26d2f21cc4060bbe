package repositories

import (
	"database/sql"
	"fmt"

	"github.com/desertthunder/playdeck/internal/models"
	"github.com/desertthunder/playdeck/internal/shared"
)

// PlaylistTrackRepository manages ordered playlist membership.
type PlaylistTrackRepository struct {
	db *sql.DB
}

// NewPlaylistTrackRepository creates a new PlaylistTrackRepository with the given database connection
func NewPlaylistTrackRepository(db *sql.DB) *PlaylistTrackRepository {
	return &PlaylistTrackRepository{db: db}
}

// Add appends trackID to the end of the playlist (MAX(position)+1).
//
// Returns false without error when the track is already a member.
func (r *PlaylistTrackRepository) Add(playlistID, trackID string) (bool, error) {
	added := false

	err := inTx(r.db, func(tx *sql.Tx) error {
		var exists bool
		if err := tx.QueryRow(`SELECT EXISTS(SELECT 1 FROM playlists WHERE id = ?)`, playlistID).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check playlist: %w", err)
		}
		if !exists {
			return fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, playlistID)
		}

		if err := tx.QueryRow(`SELECT EXISTS(SELECT 1 FROM tracks WHERE id = ?)`, trackID).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check track: %w", err)
		}
		if !exists {
			return fmt.Errorf("%w: %s", shared.ErrTrackNotFound, trackID)
		}

		err := tx.QueryRow(
			`SELECT EXISTS(SELECT 1 FROM playlist_tracks WHERE playlist_id = ? AND track_id = ?)`,
			playlistID, trackID,
		).Scan(&exists)
		if err != nil {
			return fmt.Errorf("failed to check membership: %w", err)
		}
		if exists {
			return nil
		}

		var next int
		err = tx.QueryRow(`SELECT COALESCE(MAX(position) + 1, 0) FROM playlist_tracks WHERE playlist_id = ?`, playlistID).Scan(&next)
		if err != nil {
			return fmt.Errorf("failed to compute position: %w", err)
		}

		if _, err := tx.Exec(
			`INSERT INTO playlist_tracks (playlist_id, track_id, position) VALUES (?, ?, ?)`,
			playlistID, trackID, next,
		); err != nil {
			return fmt.Errorf("failed to add track to playlist: %w", err)
		}

		if _, err := tx.Exec(`UPDATE playlists SET updated_at = CURRENT_TIMESTAMP WHERE id = ?`, playlistID); err != nil {
			return fmt.Errorf("failed to touch playlist: %w", err)
		}

		added = true
		return nil
	})

	return added, err
}

// Remove deletes a single membership row
func (r *PlaylistTrackRepository) Remove(playlistID, trackID string) error {
	result, err := r.db.Exec(`DELETE FROM playlist_tracks WHERE playlist_id = ? AND track_id = ?`, playlistID, trackID)
	if err != nil {
		return fmt.Errorf("failed to remove track from playlist: %w", err)
	}

	return requireAffected(result, shared.ErrTrackNotFound, trackID)
}

// Entries returns membership rows ordered by position, ties by insertion
func (r *PlaylistTrackRepository) Entries(playlistID string) ([]models.PlaylistTrack, error) {
	rows, err := r.db.Query(
		`SELECT track_id, position FROM playlist_tracks WHERE playlist_id = ? ORDER BY position ASC, rowid ASC`,
		playlistID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query playlist tracks: %w", err)
	}
	defer rows.Close()

	entries := []models.PlaylistTrack{}
	for rows.Next() {
		var e models.PlaylistTrack
		if err := rows.Scan(&e.TrackID, &e.Order); err != nil {
			return nil, fmt.Errorf("failed to scan playlist track: %w", err)
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return entries, nil
}

// Tracks returns the playlist's tracks in playlist order
func (r *PlaylistTrackRepository) Tracks(playlistID string) ([]*models.Track, error) {
	var exists bool
	if err := r.db.QueryRow(`SELECT EXISTS(SELECT 1 FROM playlists WHERE id = ?)`, playlistID).Scan(&exists); err != nil {
		return nil, fmt.Errorf("failed to check playlist: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, playlistID)
	}

	query := `
		SELECT t.id, t.name, t.artist, t.album, t.genre, t.musical_key, t.bpm, t.duration, t.image_url, t.audio_url, t.created_at
		FROM playlist_tracks pt
		JOIN tracks t ON t.id = pt.track_id
		WHERE pt.playlist_id = ?
		ORDER BY pt.position ASC, pt.rowid ASC
	`

	rows, err := r.db.Query(query, playlistID)
	if err != nil {
		return nil, fmt.Errorf("failed to query playlist tracks: %w", err)
	}
	defer rows.Close()

	return collectTracks(rows)
}

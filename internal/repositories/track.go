package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/playdeck/internal/models"
	"github.com/desertthunder/playdeck/internal/shared"
)

const trackColumns = `id, name, artist, album, genre, musical_key, bpm, duration, image_url, audio_url, created_at`

// TrackRepository implements models.Repository[*models.Track] for the song library.
type TrackRepository struct {
	db *sql.DB
}

// NewTrackRepository creates a new TrackRepository with the given database connection
func NewTrackRepository(db *sql.DB) *TrackRepository {
	return &TrackRepository{db: db}
}

// Create inserts a track, generating an ID when none is set
func (r *TrackRepository) Create(track *models.Track) error {
	if track.ID == "" {
		track.ID = shared.GenerateID()
	}
	if track.CreatedAt.IsZero() {
		track.CreatedAt = time.Now()
	}

	if err := track.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `INSERT INTO tracks (` + trackColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.Exec(query,
		track.ID,
		track.Name,
		track.Artist,
		track.Album,
		track.Genre,
		track.Key,
		track.BPM,
		track.Duration,
		track.ImageURL,
		track.AudioURL,
		track.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert track: %w", err)
	}

	return nil
}

// Get retrieves a track by ID
func (r *TrackRepository) Get(id string) (*models.Track, error) {
	query := `SELECT ` + trackColumns + ` FROM tracks WHERE id = ?`
	return scanTrack(r.db.QueryRow(query, id))
}

// GetByAudioURL retrieves the track imported from the given locator
func (r *TrackRepository) GetByAudioURL(audioURL string) (*models.Track, error) {
	query := `SELECT ` + trackColumns + ` FROM tracks WHERE audio_url = ?`
	return scanTrack(r.db.QueryRow(query, audioURL))
}

// Update overwrites every editable column of an existing track
func (r *TrackRepository) Update(track *models.Track) error {
	if err := track.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		UPDATE tracks
		SET name = ?, artist = ?, album = ?, genre = ?, musical_key = ?, bpm = ?, duration = ?, image_url = ?
		WHERE id = ?
	`

	result, err := r.db.Exec(query,
		track.Name,
		track.Artist,
		track.Album,
		track.Genre,
		track.Key,
		track.BPM,
		track.Duration,
		track.ImageURL,
		track.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update track: %w", err)
	}

	return requireAffected(result, shared.ErrTrackNotFound, track.ID)
}

// UpdateField sets a single editable column. The value must already be parsed by [models.TrackField.Parse].
func (r *TrackRepository) UpdateField(id string, field models.TrackField, value any) error {
	if _, err := models.ParseTrackField(string(field)); err != nil {
		return err
	}

	// column names come from the fixed TrackFields set, never from input
	query := fmt.Sprintf("UPDATE tracks SET %s = ? WHERE id = ?", field.Column())

	result, err := r.db.Exec(query, value, id)
	if err != nil {
		return fmt.Errorf("failed to update track %s: %w", field, err)
	}

	return requireAffected(result, shared.ErrTrackNotFound, id)
}

// Delete removes a track and, through cascading keys, its playlist memberships
func (r *TrackRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM tracks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete track: %w", err)
	}

	return requireAffected(result, shared.ErrTrackNotFound, id)
}

// List retrieves tracks ordered by name.
//
// Supported criteria: "query" (substring of name, artist or album) and "artist" (exact).
func (r *TrackRepository) List(criteria map[string]any) ([]*models.Track, error) {
	query := `SELECT ` + trackColumns + ` FROM tracks WHERE 1 = 1`
	args := []any{}

	if q, ok := criteria["query"].(string); ok && strings.TrimSpace(q) != "" {
		like := "%" + strings.TrimSpace(q) + "%"
		query += " AND (name LIKE ? OR artist LIKE ? OR album LIKE ?)"
		args = append(args, like, like, like)
	}

	if artist, ok := criteria["artist"].(string); ok && artist != "" {
		query += " AND artist = ?"
		args = append(args, artist)
	}

	query += " ORDER BY name COLLATE NOCASE ASC, id ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tracks: %w", err)
	}
	defer rows.Close()

	return collectTracks(rows)
}

func collectTracks(rows *sql.Rows) ([]*models.Track, error) {
	tracks := []*models.Track{}
	for rows.Next() {
		track, err := scanTrack(rows)
		if err != nil {
			return nil, err
		}
		tracks = append(tracks, track)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return tracks, nil
}

// scanTrack scans one row selected with trackColumns into a [models.Track]
func scanTrack(row rowScanner) (*models.Track, error) {
	var track models.Track

	err := row.Scan(
		&track.ID,
		&track.Name,
		&track.Artist,
		&track.Album,
		&track.Genre,
		&track.Key,
		&track.BPM,
		&track.Duration,
		&track.ImageURL,
		&track.AudioURL,
		&track.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, shared.ErrTrackNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan track: %w", err)
	}

	return &track, nil
}

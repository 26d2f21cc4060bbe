package repositories

import (
	"database/sql"
	"fmt"
)

// FavoriteRepository stores the set of favorited track ids.
//
// Ids are not checked against the tracks table; remote sources may favorite tracks this
// library has not imported yet.
type FavoriteRepository struct {
	db *sql.DB
}

// NewFavoriteRepository creates a new FavoriteRepository with the given database connection
func NewFavoriteRepository(db *sql.DB) *FavoriteRepository {
	return &FavoriteRepository{db: db}
}

// Set marks or unmarks a track as favorite. Both directions are idempotent.
func (r *FavoriteRepository) Set(trackID string, favorite bool) error {
	var err error
	if favorite {
		_, err = r.db.Exec(`INSERT OR IGNORE INTO favorites (track_id) VALUES (?)`, trackID)
	} else {
		_, err = r.db.Exec(`DELETE FROM favorites WHERE track_id = ?`, trackID)
	}
	if err != nil {
		return fmt.Errorf("failed to set favorite: %w", err)
	}
	return nil
}

// IsFavorite reports whether trackID is favorited
func (r *FavoriteRepository) IsFavorite(trackID string) (bool, error) {
	var exists bool
	if err := r.db.QueryRow(`SELECT EXISTS(SELECT 1 FROM favorites WHERE track_id = ?)`, trackID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check favorite: %w", err)
	}
	return exists, nil
}

// List returns favorited ids, most recent first
func (r *FavoriteRepository) List() ([]string, error) {
	rows, err := r.db.Query(`SELECT track_id FROM favorites ORDER BY created_at DESC, rowid DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query favorites: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan favorite: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return ids, nil
}

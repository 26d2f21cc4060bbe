// Package repositories implements SQLite persistence for the music library.
//
// Key Implementations:
//   - [TrackRepository] : library tracks, searchable and ordered by name
//   - [PlaylistRepository] : playlists listed newest first, loaded with their ordered members
//   - [PlaylistTrackRepository] : ordered playlist membership with duplicate suppression
//   - [FavoriteRepository] : the set of favorited track ids
//
// Missing rows surface as [shared.ErrTrackNotFound] or [shared.ErrPlaylistNotFound] so callers
// can test with errors.Is.
package repositories

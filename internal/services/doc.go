// Package services defines the collaborator interfaces the playback engine talks to and
// implements them.
//
// # Interfaces
//
//   - [PlaylistService] : playlist CRUD and membership
//   - [TrackService] : library listing, field edits, artwork and imports
//   - [FavoritesService] : the favorite flag per track
//
// # Implementations
//
// [Library] implements all three on top of the sqlite repositories and a [storage.BlobStore]
// for uploaded images. It is what the CLI, the HTTP server and the TUI use by default.
//
// [FavoritesClient] implements [FavoritesService] against a remote playdeck server
// (POST/GET /api/favorites) so several players can share one favorites list.
//
// # Error Handling
//
// Services use sentinel errors from the shared package:
//   - [shared.ErrPlaylistNotFound], [shared.ErrTrackNotFound] : unknown ids
//   - [shared.ErrInvalidInput], [shared.ErrInvalidField] : rejected edits
//   - [shared.ErrBlobStore] : image upload failed
//   - [shared.ErrAPIRequest] : remote favorites call returned a non-2xx status
package services

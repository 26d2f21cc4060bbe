// Package models defines the domain entities shared by the playback engine, the repositories and the UI.
//
// The package contains:
//   - [Track] : a song in the library, with editable metadata ([TrackField])
//   - [Playlist] : a named, ordered list of track references ([PlaylistTrack])
//   - [PlaylistPatch] : a partial update applied optimistically to a displayed playlist
//
// Every entity implements [Entity], and [Repository] describes the CRUD surface the sqlite
// repositories provide for them.
package models

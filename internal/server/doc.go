// Package server serves audio files and the favorites API to playdeck clients.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] method patterns, so a path may carry one handler per
// method and path wildcards are available through [http.Request.PathValue].
//
// # Handlers
//
//   - [AudioHandler] streams files from the tracks directory at GET /api/audio/{filename}, with range support
//   - [FavoritesHandler] reads and writes favorites at /api/favorites
//   - GET /api/health reports liveness without touching the database
//
// Locators of the form file:///name.mp3 are rewritten by the player to /api/audio/name.mp3, so every local
// track resolves against this server.
package server

// Package tasks imports audio files from the tracks directory into the library with real-time progress reporting.
//
// # Operations
//
//  1. [Scanner.Scan] : one pass over the tracks directory
//     - Lists supported audio files (mp3, flac, wav) at the top level
//     - Probes each file for its duration
//     - Imports new files through [services.TrackService]; files already known are skipped
//
//  2. [Watcher.Watch] : keeps importing while the program runs
//     - Subscribes to the directory with fsnotify
//     - Waits for a file to stop changing before importing it, so partial copies are not probed
//
// # Progress Reporting
//
// Both operations send [ProgressUpdate]s through a caller-owned channel. Updates use select with default, so a
// slow reader never blocks an import.
//
// Only top-level files are imported because the streaming server resolves file:// locators by base name.
package tasks

package main

import (
	"context"
	"sync"

	"github.com/desertthunder/playdeck/internal/models"
	"github.com/desertthunder/playdeck/internal/shared"
	"github.com/desertthunder/playdeck/internal/tasks"
	"github.com/urfave/cli/v3"
)

func (r *Runner) tracksDir(cmd *cli.Command) string {
	if dir := cmd.String("dir"); dir != "" {
		return dir
	}
	return r.config.Library.TracksDir
}

// printProgress writes every update received on the returned channel until it is closed.
// The returned wait func blocks until the last update has been written.
func (r *Runner) printProgress() (chan tasks.ProgressUpdate, func()) {
	progress := make(chan tasks.ProgressUpdate, 64)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for update := range progress {
			r.writePlain("%s\n", update.Message)
		}
	}()
	return progress, func() {
		close(progress)
		wg.Wait()
	}
}

// LibraryScan imports every audio file at the top level of the tracks directory.
func (r *Runner) LibraryScan(ctx context.Context, cmd *cli.Command) error {
	if err := r.services(ctx); err != nil {
		return err
	}

	dir := r.tracksDir(cmd)
	progress, wait := r.printProgress()
	result, err := tasks.NewScanner(r.tracks, r.logger).Scan(ctx, dir, progress)
	wait()
	if result == nil {
		return err
	}

	r.writePlainln("Scanned %d files: %d imported, %d already in library, %d failed",
		result.Total, len(result.Imported), result.Skipped, len(result.Failed))
	for _, f := range result.Failed {
		r.writePlain("  ✗ %s: %v\n", f.Name, f.Error)
	}
	return err
}

// LibraryWatch imports new audio files until interrupted.
func (r *Runner) LibraryWatch(ctx context.Context, cmd *cli.Command) error {
	if err := r.services(ctx); err != nil {
		return err
	}

	progress, wait := r.printProgress()
	defer wait()
	return tasks.NewWatcher(tasks.NewScanner(r.tracks, r.logger)).Watch(ctx, r.tracksDir(cmd), progress)
}

// LibraryTracks lists tracks, optionally filtered by --query.
func (r *Runner) LibraryTracks(ctx context.Context, cmd *cli.Command) error {
	if err := r.services(ctx); err != nil {
		return err
	}

	tracks, err := r.tracks.ListTracks(ctx)
	if err != nil {
		return err
	}

	if q := cmd.String("query"); q != "" {
		matched := make([]*models.Track, 0, len(tracks))
		for _, t := range tracks {
			if t.Matches(q) {
				matched = append(matched, t)
			}
		}
		tracks = matched
	}

	if cmd.Bool("json") {
		return r.writeJSON(tracks, cmd.Bool("pretty"))
	}

	r.writePlainHeader("Library")
	r.writeTrackList(tracks)
	return nil
}

func (r *Runner) writeTrackList(tracks []*models.Track) {
	if len(tracks) == 0 {
		r.writePlain("No tracks\n")
		return
	}
	for i, t := range tracks {
		r.writePlain("%3d. %s - %s [%s] (%s)\n", i+1, t.Artist, t.Name,
			shared.FormatDuration(float64(t.Duration)), t.ID)
	}
	r.writePlain("\n%d tracks\n", len(tracks))
}

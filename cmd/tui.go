package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/playdeck/internal/audio"
	"github.com/desertthunder/playdeck/internal/focus"
	"github.com/desertthunder/playdeck/internal/optimistic"
	"github.com/desertthunder/playdeck/internal/playback"
	"github.com/desertthunder/playdeck/internal/shared"
	"github.com/desertthunder/playdeck/internal/tasks"
	"github.com/desertthunder/playdeck/internal/ui"
	"github.com/urfave/cli/v3"
)

const defaultTUILog = "./tmp/playdeck-tui.log"

// TUI builds the player stack (transport, navigator, session, optimistic playlists) and runs
// the interactive program until the user quits.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	// Redirect logs to file to avoid interfering with TUI rendering
	logPath := r.config.Log.File
	if logPath == "" {
		logPath = defaultTUILog
	}
	fileLogger, err := shared.NewFileLogger(logPath)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	shared.SetLogLevel(fileLogger, shared.ParseLogLevel(r.config.Log.Level))
	r.SetLogger(fileLogger)

	if err := r.services(ctx); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	transport := audio.NewTransport(audio.NewSpeakerMedia(r.httpClient), audio.Options{
		BaseURL: r.config.StreamBaseURL(),
		Volume:  r.config.Player.Volume,
		Logger:  fileLogger,
	})
	nav := focus.New()
	session := playback.New(transport, playback.Options{
		Favorites: r.favorites,
		Focus:     nav,
		Logger:    fileLogger,
	})
	defer session.Close()

	playlists := optimistic.NewPlaylists(r.playlists, fileLogger)
	defer playlists.Wait()

	var progress chan tasks.ProgressUpdate
	if cmd.Bool("watch") || r.config.Library.Watch {
		progress = make(chan tasks.ProgressUpdate, 16)
		watcher := tasks.NewWatcher(tasks.NewScanner(r.tracks, fileLogger))
		go func() {
			if err := watcher.Watch(ctx, r.config.Library.TracksDir, progress); err != nil {
				fileLogger.Error("library watcher stopped", "error", err)
			}
		}()
	}

	model := ui.NewModel(ctx, ui.Deps{
		Session:   session,
		Transport: transport,
		Navigator: nav,
		Playlists: playlists,
		Tracks:    r.tracks,
		Progress:  progress,
		Logger:    fileLogger,
	})
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/desertthunder/playdeck/internal/server"
	"github.com/desertthunder/playdeck/internal/shared"
	"github.com/desertthunder/playdeck/internal/tasks"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"
)

// Setup writes a config file when none exists, initializes the database and creates the
// tracks and upload directories.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	config := r.config
	if _, err := os.Stat(configPath); err == nil {
		if config, err = shared.LoadConfig(configPath); err != nil {
			r.logger.Warn("failed to load config, using defaults", "error", err)
			config = r.config
		}
	} else {
		r.logger.Info("config file not found, creating from template", "path", configPath)
		if err := shared.CreateConfigFile(configPath); err != nil {
			r.logger.Warn("failed to create config file, using defaults", "error", err)
		} else if config, err = shared.LoadConfig(configPath); err != nil {
			r.logger.Warn("failed to load created config, using defaults", "error", err)
			config = r.config
		}
	}

	r.logger.Info("initializing database", "path", config.Database.Path)
	db, err := shared.OpenDatabase(config.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	dirs := []string{config.Library.TracksDir}
	if config.Storage.Backend == "" || config.Storage.Backend == "file" {
		dirs = append(dirs, config.Storage.Dir)
	}
	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	r.writePlain("✓ Setup complete\n")
	r.writePlain("Database: %s\n", config.Database.Path)
	r.writePlain("Tracks:   %s\n", config.Library.TracksDir)
	r.writePlainln("Next steps:")
	r.writePlain("1. Copy audio files named \"Artist - Title.mp3\" into %s\n", config.Library.TracksDir)
	r.writePlain("2. Run 'playdeck library scan' then 'playdeck tui'\n")
	return nil
}

// Serve runs the streaming server until interrupted, optionally watching the tracks directory.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	if err := r.services(ctx); err != nil {
		return err
	}

	addr := cmd.String("addr")
	if addr == "" {
		addr = r.config.Server.Addr()
	}

	uploads := ""
	if r.config.Storage.Backend == "" || r.config.Storage.Backend == "file" {
		uploads = r.config.Storage.Dir
	}

	srv := server.New(server.Options{
		Addr:       addr,
		TracksDir:  r.config.Library.TracksDir,
		UploadsDir: uploads,
		Favorites:  r.favorites,
		Logger:     r.logger,
	})

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.ListenAndServe(ctx) })

	if cmd.Bool("watch") || r.config.Library.Watch {
		watcher := tasks.NewWatcher(tasks.NewScanner(r.tracks, r.logger))
		g.Go(func() error { return watcher.Watch(ctx, r.config.Library.TracksDir, nil) })
	}

	return g.Wait()
}

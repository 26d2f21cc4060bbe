package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/playdeck/internal/services"
	"github.com/desertthunder/playdeck/internal/shared"
	"github.com/desertthunder/playdeck/internal/storage"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// Library services are opened on first use so commands like setup run without a database.
type Runner struct {
	config     *shared.Config
	playlists  services.PlaylistService
	tracks     services.TrackService
	favorites  services.FavoritesService
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	db         *sql.DB
}

// RunnerOpts contains configuration options for creating a Runner.
//
// Services left nil are backed by the SQLite library from Config.
type RunnerOpts struct {
	Config     *shared.Config
	Playlists  services.PlaylistService
	Tracks     services.TrackService
	Favorites  services.FavoritesService
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	return &Runner{
		config:     opts.Config,
		playlists:  opts.Playlists,
		tracks:     opts.Tracks,
		favorites:  opts.Favorites,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, serveCommand, libraryCommand, playlistCommand, trackCommand, favoriteCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// SetLogger replaces the logger used by the runner and every service it opens afterwards.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

// services opens the SQLite library for any service not injected through [RunnerOpts].
//
// A blob store that fails to open is logged; uploads then fail while everything else works.
func (r *Runner) services(ctx context.Context) error {
	if r.playlists != nil && r.tracks != nil && r.favorites != nil {
		return nil
	}

	if r.playlists == nil || r.tracks == nil || (r.favorites == nil && r.config.Favorites.Endpoint == "") {
		db, err := shared.OpenDatabase(r.config.Database)
		if err != nil {
			return fmt.Errorf("%w: %v", shared.ErrServiceUnavailable, err)
		}
		r.db = db

		blobs, err := storage.New(ctx, r.config.Storage)
		if err != nil {
			r.logger.Warn("blob store unavailable, uploads disabled", "backend", r.config.Storage.Backend, "error", err)
			blobs = nil
		}

		library := services.NewLibrary(db, blobs, r.logger)
		if r.playlists == nil {
			r.playlists = library
		}
		if r.tracks == nil {
			r.tracks = library
		}
		if r.favorites == nil {
			r.favorites = library
		}
	}

	if r.favorites == nil {
		r.favorites = services.NewFavoritesClient(r.config.Favorites.Endpoint, r.httpClient)
	}
	return nil
}

// Close releases the database opened by the runner, if any.
func (r *Runner) Close() error {
	if r.db == nil {
		return nil
	}
	err := r.db.Close()
	r.db = nil
	return err
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}

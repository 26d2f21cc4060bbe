// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// jsonFlags returns fresh --json and --pretty flags. Flags hold parsed state, so every
// command needs its own.
func jsonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Output raw JSON",
		},
		&cli.BoolFlag{
			Name:  "pretty",
			Usage: "Pretty-print output",
			Value: true,
		},
	}
}

func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Create config, initialize database and run migrations",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
		},
		Action: r.Setup,
	}
}

func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Stream local tracks and serve the favorites API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Listen address (defaults to server.host:server.port)",
			},
			&cli.BoolFlag{
				Name:  "watch",
				Usage: "Import audio files added to the tracks directory",
			},
		},
		Action: r.Serve,
	}
}

// libraryCommand handles the track library
func libraryCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "library",
		Aliases: []string{"lib"},
		Usage:   "Library operations",
		Commands: []*cli.Command{
			{
				Name:  "scan",
				Usage: "Import audio files from the tracks directory",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "dir",
						Usage: "Directory to scan (defaults to library.tracks_dir)",
					},
				},
				Action: r.LibraryScan,
			},
			{
				Name:  "watch",
				Usage: "Import audio files as they appear in the tracks directory",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "dir",
						Usage: "Directory to watch (defaults to library.tracks_dir)",
					},
				},
				Action: r.LibraryWatch,
			},
			{
				Name:  "tracks",
				Usage: "List tracks in the library",
				Flags: append([]cli.Flag{
					&cli.StringFlag{
						Name:    "query",
						Aliases: []string{"q"},
						Usage:   "Only tracks whose name, artist or album contains query",
					},
				}, jsonFlags()...),
				Action: r.LibraryTracks,
			},
		},
	}
}

// playlistCommand handles playlist CRUD and export
func playlistCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "playlist",
		Aliases: []string{"pl"},
		Usage:   "Playlist operations",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List playlists, newest first",
				Flags:  jsonFlags(),
				Action: r.PlaylistList,
			},
			{
				Name:  "tracks",
				Usage: "List the tracks of a playlist in order",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Flags:  jsonFlags(),
				Action: r.PlaylistTracks,
			},
			{
				Name:  "create",
				Usage: "Create a playlist",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "name"},
				},
				Action: r.PlaylistCreate,
			},
			{
				Name:  "rename",
				Usage: "Rename a playlist",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
					&cli.StringArg{Name: "name"},
				},
				Action: r.PlaylistRename,
			},
			{
				Name:  "cover",
				Usage: "Upload a cover image for a playlist",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
					&cli.StringArg{Name: "path"},
				},
				Action: r.PlaylistCover,
			},
			{
				Name:  "delete",
				Usage: "Delete a playlist",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Action: r.PlaylistDelete,
			},
			{
				Name:  "add",
				Usage: "Append a track to a playlist",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
					&cli.StringArg{Name: "track"},
				},
				Action: r.PlaylistAdd,
			},
			{
				Name:  "export",
				Usage: "Export a playlist as CSV, Markdown or text",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Export format: csv, markdown or text",
						Value:   "text",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output path (file base for csv, directory for markdown)",
					},
				},
				Action: r.PlaylistExport,
			},
		},
	}
}

// trackCommand handles track metadata edits
func trackCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "track",
		Usage: "Track operations",
		Commands: []*cli.Command{
			{
				Name:  "set",
				Usage: "Update one metadata field (name, artist, album, genre, bpm, key, image_url)",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
					&cli.StringArg{Name: "field"},
					&cli.StringArg{Name: "value"},
				},
				Flags:  jsonFlags(),
				Action: r.TrackSet,
			},
			{
				Name:  "image",
				Usage: "Upload artwork for a track",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
					&cli.StringArg{Name: "path"},
				},
				Action: r.TrackImage,
			},
		},
	}
}

func favoriteCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "favorite",
		Aliases: []string{"fav"},
		Usage:   "Favorite operations",
		Commands: []*cli.Command{
			{
				Name:  "add",
				Usage: "Mark a track as favorite",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "track"},
				},
				Action: r.FavoriteAdd,
			},
			{
				Name:  "remove",
				Usage: "Unmark a favorite track",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "track"},
				},
				Action: r.FavoriteRemove,
			},
			{
				Name:   "list",
				Usage:  "List favorite track ids",
				Flags:  jsonFlags(),
				Action: r.FavoriteList,
			},
		},
	}
}

func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch the interactive player",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "watch",
				Usage: "Import audio files added to the tracks directory while playing",
			},
		},
		Action: r.TUI,
	}
}

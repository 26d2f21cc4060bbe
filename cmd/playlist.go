package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/desertthunder/playdeck/internal/formatter"
	"github.com/desertthunder/playdeck/internal/models"
	"github.com/desertthunder/playdeck/internal/shared"
	"github.com/urfave/cli/v3"
)

func requireArg(cmd *cli.Command, name string) (string, error) {
	v := strings.TrimSpace(cmd.StringArg(name))
	if v == "" {
		return "", fmt.Errorf("%w: <%s> is required", shared.ErrMissingArgument, name)
	}
	return v, nil
}

func (r *Runner) findPlaylist(ctx context.Context, id string) (*models.Playlist, error) {
	playlists, err := r.playlists.ListPlaylists(ctx)
	if err != nil {
		return nil, err
	}
	for _, p := range playlists {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, id)
}

// PlaylistList prints every playlist, newest first.
func (r *Runner) PlaylistList(ctx context.Context, cmd *cli.Command) error {
	if err := r.services(ctx); err != nil {
		return err
	}

	playlists, err := r.playlists.ListPlaylists(ctx)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(playlists, cmd.Bool("pretty"))
	}

	r.writePlainHeader("Playlists")
	if len(playlists) == 0 {
		r.writePlain("No playlists\n")
		return nil
	}
	for _, p := range playlists {
		r.writePlain("%-24s %3d tracks  updated %-14s (%s)\n", p.Name, len(p.Tracks), shared.TimeAgo(p.UpdatedAt), p.ID)
	}
	return nil
}

// PlaylistTracks prints the members of a playlist in order.
func (r *Runner) PlaylistTracks(ctx context.Context, cmd *cli.Command) error {
	id, err := requireArg(cmd, "id")
	if err != nil {
		return err
	}
	if err := r.services(ctx); err != nil {
		return err
	}

	playlist, err := r.findPlaylist(ctx, id)
	if err != nil {
		return err
	}
	tracks, err := r.tracks.PlaylistTracks(ctx, id)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(tracks, cmd.Bool("pretty"))
	}

	r.writePlainHeader(playlist.Name)
	r.writeTrackList(tracks)
	return nil
}

func (r *Runner) PlaylistCreate(ctx context.Context, cmd *cli.Command) error {
	if err := r.services(ctx); err != nil {
		return err
	}

	playlist, err := r.playlists.CreatePlaylist(ctx, shared.GenerateID(), strings.TrimSpace(cmd.StringArg("name")))
	if err != nil {
		return fmt.Errorf("failed to create playlist: %w", err)
	}

	r.writePlain("✓ Created playlist %q (%s)\n", playlist.Name, playlist.ID)
	return nil
}

func (r *Runner) PlaylistRename(ctx context.Context, cmd *cli.Command) error {
	id, err := requireArg(cmd, "id")
	if err != nil {
		return err
	}
	name, err := requireArg(cmd, "name")
	if err != nil {
		return err
	}
	if err := r.services(ctx); err != nil {
		return err
	}

	if err := r.playlists.RenamePlaylist(ctx, id, name); err != nil {
		return fmt.Errorf("failed to rename playlist: %w", err)
	}

	r.writePlain("✓ Renamed playlist %s to %q\n", id, name)
	return nil
}

// PlaylistCover uploads the image at <path> and sets it as the playlist cover.
func (r *Runner) PlaylistCover(ctx context.Context, cmd *cli.Command) error {
	id, err := requireArg(cmd, "id")
	if err != nil {
		return err
	}
	path, err := requireArg(cmd, "path")
	if err != nil {
		return err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read image: %w", err)
	}
	if err := r.services(ctx); err != nil {
		return err
	}

	url, err := r.playlists.SetCoverImage(ctx, id, filepath.Base(path), data)
	if err != nil {
		return fmt.Errorf("failed to set cover image: %w", err)
	}

	r.writePlain("✓ Cover set: %s\n", url)
	return nil
}

func (r *Runner) PlaylistDelete(ctx context.Context, cmd *cli.Command) error {
	id, err := requireArg(cmd, "id")
	if err != nil {
		return err
	}
	if err := r.services(ctx); err != nil {
		return err
	}

	if err := r.playlists.DeletePlaylist(ctx, id); err != nil {
		return fmt.Errorf("failed to delete playlist: %w", err)
	}

	r.writePlain("✓ Deleted playlist %s\n", id)
	return nil
}

// PlaylistAdd appends a track. Adding a track that is already a member is not an error.
func (r *Runner) PlaylistAdd(ctx context.Context, cmd *cli.Command) error {
	id, err := requireArg(cmd, "id")
	if err != nil {
		return err
	}
	trackID, err := requireArg(cmd, "track")
	if err != nil {
		return err
	}
	if err := r.services(ctx); err != nil {
		return err
	}

	result, err := r.playlists.AddTrackToPlaylist(ctx, id, trackID)
	if err != nil {
		return fmt.Errorf("failed to add track: %w", err)
	}

	if result.Added {
		r.writePlain("✓ Added %s to %s\n", trackID, id)
	} else {
		r.writePlain("= %s is already in %s\n", trackID, id)
	}
	return nil
}

// PlaylistExport writes the playlist in the format named by --format.
//
// csv writes {output}_tracks.csv and {output}_metadata.json; markdown writes a directory with
// README.md and the downloaded cover; text writes a single file.
func (r *Runner) PlaylistExport(ctx context.Context, cmd *cli.Command) error {
	id, err := requireArg(cmd, "id")
	if err != nil {
		return err
	}
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}
	if err := r.services(ctx); err != nil {
		return err
	}

	playlist, err := r.findPlaylist(ctx, id)
	if err != nil {
		return err
	}
	tracks, err := r.tracks.PlaylistTracks(ctx, id)
	if err != nil {
		return err
	}

	export := &formatter.PlaylistExport{Playlist: playlist, Tracks: tracks}
	output := cmd.String("output")

	switch format {
	case formatter.FormatCSV:
		result, err := formatter.WriteCSVExport(export, output)
		if err != nil {
			return err
		}
		r.writePlain("✓ Exported %d tracks\n", len(tracks))
		r.writePlain("  %s\n  %s\n", result.TracksFile, result.MetadataFile)

	case formatter.FormatMarkdown:
		result, err := formatter.WriteMarkdownExport(ctx, export, formatter.MarkdownOptions{
			Dir:      output,
			CoverURL: r.coverURL(playlist.CoverURL),
			Client:   r.httpClient,
		})
		if err != nil {
			return err
		}
		for _, w := range result.Warnings {
			r.logger.Warn("export warning", "playlist", id, "warning", w)
		}
		r.writePlain("✓ Exported %d tracks to %s\n", len(tracks), result.Directory)
		for _, f := range result.Files {
			r.writePlain("  %s\n", f)
		}

	default:
		path, err := formatter.WriteTextExport(export, output)
		if err != nil {
			return err
		}
		r.writePlain("✓ Exported %d tracks to %s\n", len(tracks), path)
	}
	return nil
}

// coverURL resolves a cover stored under the streaming server against its base URL.
func (r *Runner) coverURL(cover string) string {
	if cover == "" || strings.HasPrefix(cover, "http://") || strings.HasPrefix(cover, "https://") {
		return cover
	}
	return strings.TrimRight(r.config.StreamBaseURL(), "/") + "/" + strings.TrimLeft(cover, "/")
}

package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/desertthunder/playdeck/internal/models"
	"github.com/urfave/cli/v3"
)

// TrackSet updates one metadata field and prints the stored track.
func (r *Runner) TrackSet(ctx context.Context, cmd *cli.Command) error {
	id, err := requireArg(cmd, "id")
	if err != nil {
		return err
	}
	name, err := requireArg(cmd, "field")
	if err != nil {
		return err
	}
	field, err := models.ParseTrackField(name)
	if err != nil {
		return err
	}
	if err := r.services(ctx); err != nil {
		return err
	}

	track, err := r.tracks.UpdateTrackField(ctx, id, field, cmd.StringArg("value"))
	if err != nil {
		return fmt.Errorf("failed to update track: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(track, cmd.Bool("pretty"))
	}
	r.writePlain("✓ Updated %s of %s - %s\n", field, track.Artist, track.Name)
	return nil
}

// TrackImage uploads the image at <path> as the track's artwork.
func (r *Runner) TrackImage(ctx context.Context, cmd *cli.Command) error {
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

	url, err := r.tracks.UpdateTrackImage(ctx, id, filepath.Base(path), data)
	if err != nil {
		return fmt.Errorf("failed to set track image: %w", err)
	}

	r.writePlain("✓ Image set: %s\n", url)
	return nil
}

func (r *Runner) FavoriteAdd(ctx context.Context, cmd *cli.Command) error {
	return r.setFavorite(ctx, cmd, true)
}

func (r *Runner) FavoriteRemove(ctx context.Context, cmd *cli.Command) error {
	return r.setFavorite(ctx, cmd, false)
}

func (r *Runner) setFavorite(ctx context.Context, cmd *cli.Command, favorite bool) error {
	id, err := requireArg(cmd, "track")
	if err != nil {
		return err
	}
	if err := r.services(ctx); err != nil {
		return err
	}

	if err := r.favorites.SetFavorite(ctx, id, favorite); err != nil {
		return fmt.Errorf("failed to update favorite: %w", err)
	}

	if favorite {
		r.writePlain("♥ %s\n", id)
	} else {
		r.writePlain("♡ %s\n", id)
	}
	return nil
}

// FavoriteList prints favorite track ids in sorted order.
func (r *Runner) FavoriteList(ctx context.Context, cmd *cli.Command) error {
	if err := r.services(ctx); err != nil {
		return err
	}

	ids, err := r.favorites.Favorites(ctx)
	if err != nil {
		return err
	}
	slices.Sort(ids)

	if cmd.Bool("json") {
		return r.writeJSON(ids, cmd.Bool("pretty"))
	}

	r.writePlainHeader("Favorites")
	if len(ids) == 0 {
		r.writePlain("No favorites\n")
	}
	for _, id := range ids {
		r.writePlain("♥ %s\n", id)
	}
	return nil
}

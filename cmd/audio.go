package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/sonar/internal/formatter"
	"github.com/desertthunder/sonar/internal/models"
	"github.com/desertthunder/sonar/internal/player"
	"github.com/desertthunder/sonar/internal/shared"
)

// Audio resolves a track's audio through the session controller, so a missing preview yields the bundled fallback.
func (r *Runner) Audio(ctx context.Context, cmd *cli.Command) error {
	trackID := cmd.StringArg("track_id")
	if trackID == "" {
		return fmt.Errorf("%w: track_id", shared.ErrMissingArgument)
	}

	ctrl := r.newController(nil, r.sessionOptions())
	if err := ctrl.PlayByID(ctx, trackID); err != nil {
		return fmt.Errorf("failed to resolve audio: %w", err)
	}

	cur := ctrl.Snapshot().Cursor
	if cur.Asset == nil {
		return fmt.Errorf("%w: no audio for %s", shared.ErrNotFound, trackID)
	}
	if cur.Asset.PreviewURL != nil && *cur.Asset.PreviewURL == player.FallbackURL {
		r.logger.Warn("no preview available, using the bundled fallback", "track", trackID)
	}

	if dir := cmd.String("export"); dir != "" {
		export := &formatter.Export{
			Title:       fmt.Sprintf("%s - %s", cur.Song.TrackArtist, cur.Song.TrackName),
			Description: cur.Song.TrackAlbumName,
			Songs:       []models.Song{*cur.Song},
		}
		var imageURL string
		if cur.Asset.AlbumImage != nil {
			imageURL = *cur.Asset.AlbumImage
		}

		result, err := formatter.WriteMarkdownExport(ctx, r.httpClient, export, dir, imageURL, os.Stderr)
		if err != nil {
			return err
		}
		r.logger.Info("card written", "dir", result.Directory, "files", len(result.Files))
	}

	return r.writeJSON(cur.Asset, cmd.Bool("pretty"))
}

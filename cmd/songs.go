package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/sonar/internal/shared"
)

// SongsList fetches one catalog page through the session controller.
func (r *Runner) SongsList(ctx context.Context, cmd *cli.Command) error {
	skip := cmd.Int("skip")
	limit := cmd.Int("limit")
	search := cmd.String("search")

	ctrl := r.newController(nil, r.sessionOptions())
	if limit == 0 {
		limit = ctrl.PageSize()
	}

	r.logger.Debug("listing songs", "skip", skip, "limit", limit, "search", search)
	if err := ctrl.FetchCatalog(ctx, skip, limit, &search); err != nil {
		return err
	}

	snap := ctrl.Snapshot()
	title := "Songs"
	if search != "" {
		title = fmt.Sprintf("Songs matching %q", search)
	}
	description := fmt.Sprintf("page %d, %d songs", snap.Page+1, len(snap.Songs))
	if snap.HasMore {
		description += ", more available"
	}
	return r.writeSongs(cmd, title, description, snap.Songs)
}

// SongsGet prints a single song as JSON.
func (r *Runner) SongsGet(ctx context.Context, cmd *cli.Command) error {
	trackID := cmd.StringArg("track_id")
	if trackID == "" {
		return fmt.Errorf("%w: track_id", shared.ErrMissingArgument)
	}

	song, err := r.service.GetSong(ctx, trackID)
	if err != nil {
		return fmt.Errorf("failed to get song: %w", err)
	}
	return r.writeJSON(song, cmd.Bool("pretty"))
}

// SongsMore loads --pages pages of a search the way the interactive list does, stopping when the catalog runs out.
func (r *Runner) SongsMore(ctx context.Context, cmd *cli.Command) error {
	pages := cmd.Int("pages")
	if pages <= 0 {
		return fmt.Errorf("%w: --pages must be positive", shared.ErrInvalidFlag)
	}
	search := cmd.String("search")

	ctrl := r.newController(nil, r.sessionOptions())
	if err := ctrl.Search(ctx, search); err != nil {
		return err
	}

	for loaded := 1; loaded < pages && ctrl.Snapshot().HasMore; loaded++ {
		if err := ctrl.LoadMore(ctx); err != nil {
			return err
		}
	}

	snap := ctrl.Snapshot()
	r.logger.Info("catalog loaded", "pages", snap.Page+1, "songs", len(snap.Songs), "more", snap.HasMore)

	title := "Songs"
	if search != "" {
		title = fmt.Sprintf("Songs matching %q", search)
	}
	return r.writeSongs(cmd, title, fmt.Sprintf("%d pages, %d songs", snap.Page+1, len(snap.Songs)), snap.Songs)
}

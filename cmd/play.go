package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/sonar/internal/models"
	"github.com/desertthunder/sonar/internal/session"
)

// Play plays catalog previews headlessly, advancing on each natural track end
// until the list runs out or the process is interrupted.
func (r *Runner) Play(ctx context.Context, cmd *cli.Command) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var ctrl *session.Controller
	sink, err := r.openSink(func(trackID string) {
		if err := ctrl.TrackEnded(ctx, trackID); err != nil {
			r.logger.Warn("failed to advance", "track", trackID, "error", err)
		}
	}, false)
	if err != nil {
		return fmt.Errorf("failed to open player: %w", err)
	}
	defer closeSink(sink)

	opts := r.sessionOptions()
	if v := cmd.Float("volume"); v >= 0 {
		opts.Volume = v
	}
	announcer := &playAnnouncer{runner: r}
	opts.Journal = announcer
	ctrl = r.newController(sink, opts)
	announcer.ctrl = ctrl
	updates := ctrl.Updates()

	if err := ctrl.Search(ctx, cmd.String("search")); err != nil {
		return err
	}

	if trackID := cmd.StringArg("track_id"); trackID != "" {
		err = ctrl.PlayByID(ctx, trackID)
	} else {
		songs := ctrl.Snapshot().Songs
		if len(songs) == 0 {
			r.writePlain("No songs to play\n")
			return nil
		}
		err = ctrl.Play(ctx, songs[0])
	}
	if err != nil {
		return err
	}

	return r.follow(ctx, ctrl, updates)
}

// playAnnouncer prints every track the controller records as played, in play order.
type playAnnouncer struct {
	runner *Runner
	ctrl   *session.Controller
}

func (a *playAnnouncer) Record(_ context.Context, entry *models.HistoryEntry) error {
	if entry.Kind() != models.HistoryPlay {
		return nil
	}
	for _, song := range a.ctrl.Snapshot().Songs {
		if song.TrackID == entry.TrackID() {
			return a.runner.writePlain("▶ %s - %s\n", song.TrackArtist, song.TrackName)
		}
	}
	return a.runner.writePlain("▶ %s\n", entry.Label())
}

// follow returns once playback stops.
//
// Updates only wake the loop; the state is always read from the controller, so a
// dropped update cannot hide the end of playback.
func (r *Runner) follow(ctx context.Context, ctrl *session.Controller, updates <-chan session.Snapshot) error {
	done := func() bool {
		cur := ctrl.Snapshot().Cursor
		if cur.Song == nil || cur.Loading || cur.Playing {
			return false
		}
		if cur.Err != "" {
			r.writePlain("✗ %s\n", cur.Err)
		}
		return true
	}

	for !done() {
		select {
		case <-ctx.Done():
			r.logger.Info("playback interrupted")
			return nil
		case <-updates:
		}
	}
	return nil
}

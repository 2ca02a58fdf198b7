package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/sonar/internal/formatter"
	"github.com/desertthunder/sonar/internal/models"
	"github.com/desertthunder/sonar/internal/session"
	"github.com/desertthunder/sonar/internal/shared"
)

// Picker asks the user to choose seed songs and returns their track ids.
type Picker func(songs []models.Song) ([]string, error)

func (r *Runner) recommendOptions(cmd *cli.Command) session.Options {
	opts := r.sessionOptions()
	if limit := cmd.Int("limit"); limit > 0 {
		opts.RecommendLimit = limit
	}
	return opts
}

// RecommendSimilar recommends songs similar to every --id.
func (r *Runner) RecommendSimilar(ctx context.Context, cmd *cli.Command) error {
	ids := cmd.StringSlice("id")
	if len(ids) == 0 {
		return fmt.Errorf("%w: at least one --id", shared.ErrMissingArgument)
	}

	ctrl := r.newController(nil, r.recommendOptions(cmd))
	return r.recommendFromSelection(ctx, cmd, ctrl, ids)
}

// RecommendText recommends songs from a free-text prompt.
func (r *Runner) RecommendText(ctx context.Context, cmd *cli.Command) error {
	prompt := strings.TrimSpace(cmd.StringArg("prompt"))
	if prompt == "" {
		return fmt.Errorf("%w: prompt", shared.ErrMissingArgument)
	}

	ctrl := r.newController(nil, r.recommendOptions(cmd))
	if err := ctrl.RecommendFromText(ctx, prompt); err != nil {
		return err
	}
	return r.writeSongs(cmd, "Recommendations", fmt.Sprintf("for %q", prompt), ctrl.Snapshot().Songs)
}

// RecommendPick lists a catalog page, lets the user pick seeds, then recommends from them.
func (r *Runner) RecommendPick(ctx context.Context, cmd *cli.Command) error {
	ctrl := r.newController(nil, r.recommendOptions(cmd))
	if err := ctrl.Search(ctx, cmd.String("search")); err != nil {
		return err
	}

	songs := ctrl.Snapshot().Songs
	if len(songs) == 0 {
		return fmt.Errorf("%w: no songs to pick from", shared.ErrNotFound)
	}

	ids, err := r.pick(songs)
	if err != nil {
		return fmt.Errorf("run interactive song picker: %w", err)
	}
	if len(ids) == 0 {
		r.logger.Info("nothing selected")
		return nil
	}
	return r.recommendFromSelection(ctx, cmd, ctrl, ids)
}

func (r *Runner) recommendFromSelection(ctx context.Context, cmd *cli.Command, ctrl *session.Controller, ids []string) error {
	for _, id := range ids {
		if !ctrl.IsSelected(id) {
			ctrl.ToggleSelection(id)
		}
	}

	if err := ctrl.RecommendFromSelection(ctx); err != nil {
		return err
	}
	return r.writeSongs(cmd, "Recommendations", "similar to "+strings.Join(ids, ", "), ctrl.Snapshot().Songs)
}

// huhPicker is the default [Picker], a terminal multi-select.
func huhPicker(songs []models.Song) ([]string, error) {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return nil, fmt.Errorf("inspect stdin: %w", err)
	}
	if stat.Mode()&os.ModeCharDevice == 0 {
		return nil, fmt.Errorf("%w: interactive selection requires a terminal; use recommend similar --id instead", shared.ErrInvalidInput)
	}

	options := make([]huh.Option[string], 0, len(songs))
	for _, s := range songs {
		label := fmt.Sprintf("%s - %s (%s)", s.TrackArtist, s.TrackName, formatter.FormatDuration(s.DurationMS))
		options = append(options, huh.NewOption(label, s.TrackID))
	}

	var picked []string
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewMultiSelect[string]().
				Title("Pick seed songs").
				Description("Use x/space to toggle, / to filter, enter to confirm.").
				Options(options...).
				Value(&picked),
		),
	).Run()
	if err != nil {
		return nil, err
	}
	return picked, nil
}

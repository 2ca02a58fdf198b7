package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/sonar/internal/repositories"
	"github.com/desertthunder/sonar/internal/session"
	"github.com/desertthunder/sonar/internal/shared"
	"github.com/desertthunder/sonar/internal/ui"
)

// TUI launches the interactive song discovery session.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, closer, err := shared.NewFileLogger(r.config.Log)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	defer closer.Close()
	r.SetLogger(fileLogger)

	db, err := shared.NewSessionDatabase()
	if err != nil {
		return fmt.Errorf("failed to open session database: %w", err)
	}
	defer db.Close()
	history := repositories.NewHistoryRepository(db)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var ctrl *session.Controller
	sink, err := r.openSink(func(trackID string) {
		if err := ctrl.TrackEnded(ctx, trackID); err != nil {
			r.logger.Warn("failed to advance", "track", trackID, "error", err)
		}
	}, true)
	if err != nil {
		return fmt.Errorf("failed to open player: %w", err)
	}
	defer closeSink(sink)

	opts := r.sessionOptions()
	opts.Journal = history
	ctrl = r.newController(sink, opts)

	model := ui.NewModel(ctx, ctrl, history, shared.WithLogger(r.logger, "component", "ui"))
	p := tea.NewProgram(model, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}

package main

import (
	"context"
	"fmt"
	"sync"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/sonar/internal/formatter"
	"github.com/desertthunder/sonar/internal/shared"
	"github.com/desertthunder/sonar/internal/tasks"
)

// ExportCards writes a card per track for every --id, or for a search page when no ids are given.
func (r *Runner) ExportCards(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	ids := cmd.StringSlice("id")
	if len(ids) == 0 {
		ctrl := r.newController(nil, r.sessionOptions())
		if err := ctrl.Search(ctx, cmd.String("search")); err != nil {
			return err
		}
		for _, s := range ctrl.Snapshot().Songs {
			ids = append(ids, s.TrackID)
		}
	}
	if len(ids) == 0 {
		return fmt.Errorf("%w: no songs to export", shared.ErrNotFound)
	}

	prog := make(chan tasks.ProgressUpdate, len(ids)*2)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for update := range prog {
			r.writePlain("%s\n", update.Message)
		}
	}()

	exporter := tasks.NewCardExporter(r.service, r.httpClient, shared.WithLogger(r.logger, "component", "export"))
	result, err := exporter.Export(ctx, prog, ids, tasks.CardExportOpts{
		Format:     format,
		OutputDir:  cmd.String("dir"),
		NumWorkers: cmd.Int("workers"),
		RateLimit:  r.config.API.RequestsPerSecond,
	})
	close(prog)
	wg.Wait()
	if err != nil {
		return err
	}

	r.writePlainln("Exported %d/%d cards to %s", result.Succeeded, result.Total, result.OutputDirectory)
	r.writePlain("Manifest: %s\n", result.ManifestPath)
	return nil
}

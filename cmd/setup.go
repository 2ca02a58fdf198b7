package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/sonar/internal/shared"
)

// SetupConfig writes the example configuration to --path and validates it.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("path")
	if path == "" {
		path = r.configPath
	}
	if path == "" {
		return fmt.Errorf("%w: --path", shared.ErrMissingArgument)
	}

	r.logger.Info("creating config from template", "path", path)
	if err := shared.CreateConfigFile(path); err != nil {
		return err
	}

	config, err := shared.LoadConfig(path)
	if err != nil {
		return fmt.Errorf("failed to load created config: %w", err)
	}

	r.writePlain("✓ Configuration written to %s\n", path)
	r.writePlainln("Service: %s", config.API.BaseURL)
	r.writePlain("Player:  %s\n", config.Player.Backend)
	r.writePlain("Override the service with %s or a .env file.\n", shared.EnvAPIURL)
	return nil
}

// submodule cmd contains command definitions
package main

import (
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/sonar/internal/formatter"
)

func formatFlags() []cli.Flag {
	names := make([]string, len(formatter.Formats))
	for i, f := range formatter.Formats {
		names[i] = string(f)
	}
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "format",
			Aliases: []string{"f"},
			Usage:   "Output format (" + strings.Join(names, ", ") + ")",
			Value:   string(formatter.FormatText),
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Write to a file instead of stdout",
		},
	}
}

func limitFlag() cli.Flag {
	return &cli.IntFlag{
		Name:    "limit",
		Aliases: []string{"n"},
		Usage:   "Number of recommendations (defaults to session.recommend_limit)",
	}
}

// songsCommand handles catalog browsing
func songsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "songs",
		Aliases: []string{"s"},
		Usage:   "Browse the song catalog",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List one catalog page",
				Flags: append([]cli.Flag{
					&cli.IntFlag{
						Name:  "skip",
						Usage: "Number of songs to skip",
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Page size (defaults to session.page_size)",
					},
					&cli.StringFlag{
						Name:    "search",
						Aliases: []string{"q"},
						Usage:   "Filter by title, artist or album",
					},
				}, formatFlags()...),
				Action: r.SongsList,
			},
			{
				Name:  "get",
				Usage: "Show a single song",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "track_id"},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
						Value: true,
					},
				},
				Action: r.SongsGet,
			},
			{
				Name:  "more",
				Usage: "Walk several catalog pages with load-more",
				Flags: append([]cli.Flag{
					&cli.StringFlag{
						Name:    "search",
						Aliases: []string{"q"},
						Usage:   "Filter by title, artist or album",
					},
					&cli.IntFlag{
						Name:  "pages",
						Usage: "Number of pages to load",
						Value: 2,
					},
				}, formatFlags()...),
				Action: r.SongsMore,
			},
		},
	}
}

// audioCommand resolves playable audio for a track
func audioCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "audio",
		Usage: "Resolve the preview audio and album art for a track",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "track_id"},
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "export",
				Usage: "Write a Markdown card with the album cover to this directory",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print output",
				Value: true,
			},
		},
		Action: r.Audio,
	}
}

// recommendCommand handles both recommendation modes
func recommendCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "recommend",
		Aliases: []string{"rec"},
		Usage:   "Get song recommendations",
		Commands: []*cli.Command{
			{
				Name:  "similar",
				Usage: "Recommend songs similar to the given tracks",
				Flags: append([]cli.Flag{
					&cli.StringSliceFlag{
						Name:     "id",
						Usage:    "Seed track id (repeatable)",
						Required: true,
					},
					limitFlag(),
				}, formatFlags()...),
				Action: r.RecommendSimilar,
			},
			{
				Name:  "text",
				Usage: "Recommend songs from a free-text description",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "prompt"},
				},
				Flags:  append([]cli.Flag{limitFlag()}, formatFlags()...),
				Action: r.RecommendText,
			},
			{
				Name:  "pick",
				Usage: "Pick seed songs interactively, then recommend",
				Flags: append([]cli.Flag{
					&cli.StringFlag{
						Name:    "search",
						Aliases: []string{"q"},
						Usage:   "Filter the pick list",
					},
					limitFlag(),
				}, formatFlags()...),
				Action: r.RecommendPick,
			},
		},
	}
}

// exportCommand writes song cards in bulk
func exportCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Write a card per song, with album covers for Markdown",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:  "id",
				Usage: "Track id to export (repeatable)",
			},
			&cli.StringFlag{
				Name:    "search",
				Aliases: []string{"q"},
				Usage:   "Export a catalog page for this search when no --id is given",
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Card format",
				Value:   string(formatter.FormatMarkdown),
			},
			&cli.StringFlag{
				Name:  "dir",
				Usage: "Output directory (default: sonar_cards_{epoch})",
			},
			&cli.IntFlag{
				Name:  "workers",
				Usage: "Concurrent writers",
				Value: 5,
			},
		},
		Action: r.ExportCards,
	}
}

// playCommand plays through the catalog without the TUI
func playCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "play",
		Usage: "Play catalog previews, advancing automatically",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "track_id"},
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "search",
				Aliases: []string{"q"},
				Usage:   "Play through the results of this search",
			},
			&cli.FloatFlag{
				Name:  "volume",
				Usage: "Volume between 0 and 1 (defaults to session.volume)",
				Value: -1,
			},
		},
		Action: r.Play,
	}
}

// tuiCommand returns the top-level TUI command for the interactive session.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch the interactive song discovery session",
		Action:  r.TUI,
	}
}

// setupCommand handles first-run configuration.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:  "config",
				Usage: "Write the example configuration file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "path",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "config.toml",
					},
				},
				Action: r.SetupConfig,
			},
		},
	}
}

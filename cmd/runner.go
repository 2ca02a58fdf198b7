package main

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/sonar/internal/formatter"
	"github.com/desertthunder/sonar/internal/models"
	"github.com/desertthunder/sonar/internal/player"
	"github.com/desertthunder/sonar/internal/services"
	"github.com/desertthunder/sonar/internal/session"
	"github.com/desertthunder/sonar/internal/shared"
)

// SinkFactory builds a playback sink that reports natural track ends to onEnded.
type SinkFactory func(logger *log.Logger, onEnded player.EndedFunc) (player.Sink, error)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	service    services.SongService
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	newSink    SinkFactory
	pick       Picker
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Service    services.SongService
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
	NewSink    SinkFactory
	Picker     Picker
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Service == nil {
		opts.Service = services.NewAPIServiceFromConfig(opts.Config.API, opts.Logger)
	}
	if opts.NewSink == nil {
		cfg := opts.Config.Player
		opts.NewSink = func(logger *log.Logger, onEnded player.EndedFunc) (player.Sink, error) {
			return player.NewSink(cfg, logger, onEnded)
		}
	}
	if opts.Picker == nil {
		opts.Picker = huhPicker
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		service:    opts.Service,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		newSink:    opts.NewSink,
		pick:       opts.Picker,
	}
}

// SetLogger replaces the runner's logger.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		songsCommand, audioCommand, recommendCommand, exportCommand, playCommand, tuiCommand, setupCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// sessionOptions derives controller options from the [session] config section.
func (r *Runner) sessionOptions() session.Options {
	opts := session.OptionsFromConfig(r.config.Session)
	opts.Logger = shared.WithLogger(r.logger, "component", "session")
	return opts
}

// newController builds a session controller over the runner's service. A nil sink discards playback.
func (r *Runner) newController(sink player.Sink, opts session.Options) *session.Controller {
	return session.New(r.service, sink, opts)
}

// openSink asks the factory for a sink. With fallback set, an unavailable player degrades to [player.NopSink].
func (r *Runner) openSink(onEnded player.EndedFunc, fallback bool) (player.Sink, error) {
	logger := shared.WithLogger(r.logger, "component", "player")
	sink, err := r.newSink(logger, onEnded)
	if err == nil {
		return sink, nil
	}
	if fallback && errors.Is(err, shared.ErrPlayerUnavailable) {
		r.logger.Warn("playback disabled", "error", err)
		return player.NewNopSink(logger), nil
	}
	return nil, err
}

func closeSink(sink player.Sink) {
	if c, ok := sink.(io.Closer); ok {
		_ = c.Close()
	}
}

// writeSongs renders songs in the --format encoding, to --output when set.
func (r *Runner) writeSongs(cmd *cli.Command, title, description string, songs []models.Song) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	export := &formatter.Export{Title: title, Description: description, Songs: songs}

	if path := cmd.String("output"); path != "" {
		written, err := formatter.WriteExport(export, format, path)
		if err != nil {
			return err
		}
		r.logger.Info("export written", "path", written, "songs", len(songs))
		return nil
	}

	data, err := formatter.Render(export, format)
	if err != nil {
		return err
	}
	if _, err := r.output.Write(data); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

package player

import (
	"context"
	"fmt"
	"io"
	"os/exec"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/sonar/internal/models"
	"github.com/desertthunder/sonar/internal/shared"
)

// Backends accepted by [NewSink].
const (
	BackendMPV  = "mpv"
	BackendNone = "none"
)

// Sink is the single audio output controlled by the session.
type Sink interface {
	// Load replaces whatever is loaded with asset, starting paused unless playing is set.
	Load(ctx context.Context, asset models.AudioAsset, playing bool) error
	Play() error
	Pause() error
	// SetVolume applies v in [0, 1] to the current and future tracks.
	SetVolume(v float64) error
	// Stop unloads the current track without reporting it as ended.
	Stop() error
}

// EndedFunc is called with the track id when a track plays to completion.
type EndedFunc func(trackID string)

// NewSink builds the configured backend.
//
// A missing mpv binary returns an error matching [shared.ErrPlayerUnavailable]
// so callers can fall back to [NopSink].
func NewSink(cfg shared.PlayerConfig, logger *log.Logger, onEnded EndedFunc) (Sink, error) {
	switch cfg.Backend {
	case BackendNone:
		return NewNopSink(logger), nil
	case BackendMPV, "":
		path := cfg.MPVPath
		if path == "" {
			path = "mpv"
		}
		resolved, err := exec.LookPath(path)
		if err != nil {
			return nil, fmt.Errorf("%w: %s not found: %w", shared.ErrPlayerUnavailable, path, err)
		}
		return NewMPVSink(resolved, logger, onEnded), nil
	default:
		return nil, fmt.Errorf("%w: unknown player backend %q", shared.ErrInvalidConfig, cfg.Backend)
	}
}

// NopSink accepts every call and produces no audio.
type NopSink struct {
	logger *log.Logger
}

func NewNopSink(logger *log.Logger) *NopSink {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &NopSink{logger: logger}
}

func (n *NopSink) Load(_ context.Context, asset models.AudioAsset, playing bool) error {
	n.logger.Debug("nop sink load", "track", asset.TrackID, "playing", playing)
	return nil
}

func (n *NopSink) Play() error             { return nil }
func (n *NopSink) Pause() error            { return nil }
func (n *NopSink) SetVolume(float64) error { return nil }
func (n *NopSink) Stop() error             { return nil }

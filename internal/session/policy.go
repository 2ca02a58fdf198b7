package session

import (
	"context"
	"errors"

	"github.com/desertthunder/sonar/internal/models"
	"github.com/desertthunder/sonar/internal/player"
	"github.com/desertthunder/sonar/internal/shared"
)

// FailureKind classifies an audio resolution error.
type FailureKind int

const (
	FailureTransport FailureKind = iota
	FailureNotFound
	FailureCanceled
)

func (k FailureKind) String() string {
	switch k {
	case FailureNotFound:
		return "not_found"
	case FailureCanceled:
		return "canceled"
	default:
		return "transport"
	}
}

// Classify maps err to a [FailureKind].
func Classify(err error) FailureKind {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		return FailureNotFound
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return FailureCanceled
	default:
		return FailureTransport
	}
}

// Recovery substitutes an asset for a song whose audio could not be resolved.
// Returning nil leaves the failure unrecovered.
type Recovery func(song models.Song, err error) *models.AudioAsset

// RecoveryPolicy maps failure kinds to recovery actions.
type RecoveryPolicy map[FailureKind]Recovery

// DefaultPolicy recovers not-found audio with the fallback clip.
func DefaultPolicy() RecoveryPolicy {
	return RecoveryPolicy{FailureNotFound: FallbackAsset}
}

// FallbackAsset points song at [player.FallbackURL] with no album image.
func FallbackAsset(song models.Song, _ error) *models.AudioAsset {
	return &models.AudioAsset{
		TrackID:    song.TrackID,
		PreviewURL: models.StringPtr(player.FallbackURL),
		AlbumImage: nil,
		Name:       song.TrackName,
		Artist:     song.TrackArtist,
	}
}

// Recover returns the substitute asset for err, or nil when kind has no entry.
func (p RecoveryPolicy) Recover(song models.Song, err error) *models.AudioAsset {
	rec, ok := p[Classify(err)]
	if !ok || rec == nil {
		return nil
	}
	return rec(song, err)
}

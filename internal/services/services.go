package services

import (
	"context"

	"github.com/desertthunder/sonar/internal/models"
)

// SongService defines the operations the session controller needs from the song discovery API.
type SongService interface {
	// ListSongs returns a catalog page starting at skip. An empty search lists everything.
	ListSongs(ctx context.Context, skip, limit int, search string) ([]models.Song, error)

	// GetSong retrieves a single song by track id.
	GetSong(ctx context.Context, trackID string) (*models.Song, error)

	// GetAudio resolves the playable asset for a song.
	// Returns an error matching [shared.ErrNotFound] when the service has no audio.
	GetAudio(ctx context.Context, trackID string) (*models.AudioAsset, error)

	// Recommend returns songs similar to every id in trackIDs.
	Recommend(ctx context.Context, trackIDs []string, limit int) ([]models.Song, error)

	// RecommendText returns songs matching a free-text prompt.
	RecommendText(ctx context.Context, text string, limit int) ([]models.Song, error)
}

package session

import (
	"slices"

	"github.com/desertthunder/sonar/internal/models"
)

// Cursor is the playback slot: the current song, its resolved audio and the play flags.
type Cursor struct {
	Song    *models.Song
	Asset   *models.AudioAsset
	Playing bool
	Volume  float64
	Loading bool
	Err     string
}

// Snapshot is a copy of the session state. Mutating it has no effect on the controller.
type Snapshot struct {
	Songs     []models.Song
	Selection map[string]struct{}
	Cursor    Cursor
	Query     string
	MagicMode bool
	Loading   bool
	Err       string
	Page      int
	HasMore   bool
}

// Busy reports whether a catalog or audio request is in flight.
func (s Snapshot) Busy() bool {
	return s.Loading || s.Cursor.Loading
}

// IsSelected reports whether trackID is in the selection set.
func (s Snapshot) IsSelected(trackID string) bool {
	_, ok := s.Selection[trackID]
	return ok
}

// SelectedIDs returns the selection in sorted order.
func (s Snapshot) SelectedIDs() []string {
	ids := make([]string, 0, len(s.Selection))
	for id := range s.Selection {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// CurrentIndex returns the position of the current song in Songs, or -1.
func (s Snapshot) CurrentIndex() int {
	if s.Cursor.Song == nil {
		return -1
	}
	return indexOf(s.Songs, s.Cursor.Song.TrackID)
}

func (s Snapshot) clone() Snapshot {
	out := s
	out.Songs = slices.Clone(s.Songs)
	out.Selection = make(map[string]struct{}, len(s.Selection))
	for id := range s.Selection {
		out.Selection[id] = struct{}{}
	}
	if s.Cursor.Song != nil {
		song := *s.Cursor.Song
		out.Cursor.Song = &song
	}
	if s.Cursor.Asset != nil {
		asset := *s.Cursor.Asset
		out.Cursor.Asset = &asset
	}
	return out
}

func indexOf(songs []models.Song, trackID string) int {
	return slices.IndexFunc(songs, func(s models.Song) bool { return s.TrackID == trackID })
}

package testing

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/desertthunder/sonar/internal/models"
	"github.com/desertthunder/sonar/internal/shared"
)

// MakeSongs builds n songs with ids "<prefix>-1" through "<prefix>-n".
func MakeSongs(prefix string, n int) []models.Song {
	songs := make([]models.Song, n)
	for i := range songs {
		id := fmt.Sprintf("%s-%d", prefix, i+1)
		songs[i] = models.Song{
			TrackID:     id,
			TrackName:   "Song " + id,
			TrackArtist: "Artist " + prefix,
			DurationMS:  180000 + i*1000,
		}
	}
	return songs
}

// FakeSongService is a test double for services.SongService.
//
// With no Func overrides it serves pages of Catalog, filtering by case-insensitive name or artist match.
type FakeSongService struct {
	Catalog []models.Song

	ListSongsFunc     func(ctx context.Context, skip, limit int, search string) ([]models.Song, error)
	GetSongFunc       func(ctx context.Context, trackID string) (*models.Song, error)
	GetAudioFunc      func(ctx context.Context, trackID string) (*models.AudioAsset, error)
	RecommendFunc     func(ctx context.Context, trackIDs []string, limit int) ([]models.Song, error)
	RecommendTextFunc func(ctx context.Context, text string, limit int) ([]models.Song, error)

	mu                 sync.Mutex
	calls              map[string]int
	LastSearch         string
	LastRecommendIDs   []string
	LastRecommendLimit int
	LastText           string
}

func (f *FakeSongService) record(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = make(map[string]int)
	}
	f.calls[name]++
}

// Calls returns how many times the named method ran.
func (f *FakeSongService) Calls(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

// TotalCalls returns the number of calls across every method.
func (f *FakeSongService) TotalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for _, n := range f.calls {
		total += n
	}
	return total
}

func (f *FakeSongService) ListSongs(ctx context.Context, skip, limit int, search string) ([]models.Song, error) {
	f.record("ListSongs")
	f.mu.Lock()
	f.LastSearch = search
	f.mu.Unlock()

	if f.ListSongsFunc != nil {
		return f.ListSongsFunc(ctx, skip, limit, search)
	}

	var matched []models.Song
	needle := strings.ToLower(search)
	for _, s := range f.Catalog {
		if needle == "" || strings.Contains(strings.ToLower(s.TrackName), needle) || strings.Contains(strings.ToLower(s.TrackArtist), needle) {
			matched = append(matched, s)
		}
	}

	if skip >= len(matched) {
		return []models.Song{}, nil
	}
	end := min(skip+limit, len(matched))
	return append([]models.Song(nil), matched[skip:end]...), nil
}

func (f *FakeSongService) GetSong(ctx context.Context, trackID string) (*models.Song, error) {
	f.record("GetSong")
	if f.GetSongFunc != nil {
		return f.GetSongFunc(ctx, trackID)
	}

	for _, s := range f.Catalog {
		if s.TrackID == trackID {
			song := s
			return &song, nil
		}
	}
	return nil, fmt.Errorf("%w: song %s", shared.ErrNotFound, trackID)
}

func (f *FakeSongService) GetAudio(ctx context.Context, trackID string) (*models.AudioAsset, error) {
	f.record("GetAudio")
	if f.GetAudioFunc != nil {
		return f.GetAudioFunc(ctx, trackID)
	}

	return &models.AudioAsset{
		TrackID:    trackID,
		PreviewURL: models.StringPtr("https://cdn.example.com/" + trackID + ".mp3"),
		AlbumImage: models.StringPtr("https://cdn.example.com/" + trackID + ".jpg"),
	}, nil
}

func (f *FakeSongService) Recommend(ctx context.Context, trackIDs []string, limit int) ([]models.Song, error) {
	f.record("Recommend")
	f.mu.Lock()
	f.LastRecommendIDs = append([]string(nil), trackIDs...)
	f.LastRecommendLimit = limit
	f.mu.Unlock()

	if f.RecommendFunc != nil {
		return f.RecommendFunc(ctx, trackIDs, limit)
	}
	return []models.Song{}, nil
}

func (f *FakeSongService) RecommendText(ctx context.Context, text string, limit int) ([]models.Song, error) {
	f.record("RecommendText")
	f.mu.Lock()
	f.LastText = text
	f.mu.Unlock()

	if f.RecommendTextFunc != nil {
		return f.RecommendTextFunc(ctx, text, limit)
	}
	return []models.Song{}, nil
}

// RecordingSink is a test double for player.Sink that records every call.
type RecordingSink struct {
	mu     sync.Mutex
	calls  []string
	loaded []models.AudioAsset
	volume float64
	Err    error
}

func (r *RecordingSink) push(call string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, call)
	return r.Err
}

func (r *RecordingSink) Load(_ context.Context, asset models.AudioAsset, playing bool) error {
	r.mu.Lock()
	r.loaded = append(r.loaded, asset)
	r.mu.Unlock()
	return r.push(fmt.Sprintf("load:%s:%t", asset.TrackID, playing))
}

func (r *RecordingSink) Play() error  { return r.push("play") }
func (r *RecordingSink) Pause() error { return r.push("pause") }
func (r *RecordingSink) Stop() error  { return r.push("stop") }

func (r *RecordingSink) SetVolume(v float64) error {
	r.mu.Lock()
	r.volume = v
	r.mu.Unlock()
	return r.push(fmt.Sprintf("volume:%.2f", v))
}

// Calls returns a copy of the recorded call log.
func (r *RecordingSink) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

// Loaded returns every asset passed to Load.
func (r *RecordingSink) Loaded() []models.AudioAsset {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.AudioAsset(nil), r.loaded...)
}

// Volume returns the last volume set.
func (r *RecordingSink) Volume() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.volume
}

// MemoryJournal is a test double for session.Journal.
type MemoryJournal struct {
	mu      sync.Mutex
	entries []*models.HistoryEntry
	Err     error
}

func (m *MemoryJournal) Record(_ context.Context, entry *models.HistoryEntry) error {
	if m.Err != nil {
		return m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	entry.SetSequence(len(m.entries) + 1)
	m.entries = append(m.entries, entry)
	return nil
}

// Kinds returns the recorded entry kinds in order.
func (m *MemoryJournal) Kinds() []models.HistoryKind {
	m.mu.Lock()
	defer m.mu.Unlock()
	kinds := make([]models.HistoryKind, len(m.entries))
	for i, e := range m.entries {
		kinds[i] = e.Kind()
	}
	return kinds
}

// Entries returns the recorded entries in order.
func (m *MemoryJournal) Entries() []*models.HistoryEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*models.HistoryEntry(nil), m.entries...)
}

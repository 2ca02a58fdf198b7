package session

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/sonar/internal/models"
	"github.com/desertthunder/sonar/internal/player"
	"github.com/desertthunder/sonar/internal/services"
	"github.com/desertthunder/sonar/internal/shared"
)

const defaultUpdateBuffer = 16

// Options configures a [Controller]. Zero sizes fall back to the [session] config defaults.
type Options struct {
	PageSize       int
	RecommendLimit int
	Volume         float64
	DiscardStale   bool
	Policy         RecoveryPolicy
	Journal        Journal
	Logger         *log.Logger
	UpdateBuffer   int
}

// OptionsFromConfig copies the [session] config section into [Options].
func OptionsFromConfig(cfg shared.SessionConfig) Options {
	return Options{
		PageSize:       cfg.PageSize,
		RecommendLimit: cfg.RecommendLimit,
		Volume:         cfg.Volume,
		DiscardStale:   cfg.DiscardStale,
	}
}

// Controller owns one session. It is safe for concurrent use; network calls run outside the lock.
type Controller struct {
	svc     services.SongService
	sink    player.Sink
	opts    Options
	logger  *log.Logger
	updates chan Snapshot

	mu         sync.Mutex
	state      Snapshot
	catalogGen uint64
	playGen    uint64

	// loadMu orders sink loads and their play entries; acquired before mu.
	loadMu sync.Mutex
}

// New creates a controller over svc and sink. A nil sink plays nothing.
func New(svc services.SongService, sink player.Sink, opts Options) *Controller {
	defaults := shared.DefaultConfig().Session
	if opts.PageSize <= 0 {
		opts.PageSize = defaults.PageSize
	}
	if opts.RecommendLimit <= 0 {
		opts.RecommendLimit = defaults.RecommendLimit
	}
	if opts.Policy == nil {
		opts.Policy = DefaultPolicy()
	}
	if opts.UpdateBuffer <= 0 {
		opts.UpdateBuffer = defaultUpdateBuffer
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	if sink == nil {
		sink = player.NewNopSink(opts.Logger)
	}

	c := &Controller{
		svc:     svc,
		sink:    sink,
		opts:    opts,
		logger:  opts.Logger,
		updates: make(chan Snapshot, opts.UpdateBuffer),
		state: Snapshot{
			Selection: make(map[string]struct{}),
			Cursor:    Cursor{Volume: shared.ClampVolume(opts.Volume)},
			HasMore:   true,
		},
	}

	if err := sink.SetVolume(c.state.Cursor.Volume); err != nil {
		c.logger.Debug("initial volume not applied", "error", err)
	}
	return c
}

// PageSize returns the page size used by [Controller.Search] and [Controller.LoadMore].
func (c *Controller) PageSize() int {
	return c.opts.PageSize
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.clone()
}

// Updates delivers a snapshot after every state change. Updates are dropped while the buffer is full.
func (c *Controller) Updates() <-chan Snapshot {
	return c.updates
}

func (c *Controller) publishLocked() {
	select {
	case c.updates <- c.state.clone():
	default:
	}
}

func (c *Controller) catalogStaleLocked(gen uint64) bool {
	return c.opts.DiscardStale && gen != c.catalogGen
}

func (c *Controller) playStaleLocked(gen uint64) bool {
	return c.opts.DiscardStale && gen != c.playGen
}

// beginCatalogLocked marks a catalog request in flight and returns its generation.
func (c *Controller) beginCatalogLocked() uint64 {
	c.catalogGen++
	c.state.Loading = true
	c.state.Err = ""
	c.publishLocked()
	return c.catalogGen
}

// failCatalog stores a catalog or recommendation failure unless a newer request superseded it.
func (c *Controller) failCatalog(gen uint64, op string, err error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.catalogStaleLocked(gen) {
		c.logger.Debug("discarding stale failure", "op", op, "error", err)
		return nil
	}
	c.state.Loading = false
	c.state.Err = fmt.Sprintf("failed to %s: %v", op, err)
	c.publishLocked()
	return fmt.Errorf("%s: %w", op, err)
}

// FetchCatalog loads one catalog page. A nil query reuses the last query.
func (c *Controller) FetchCatalog(ctx context.Context, offset, limit int, query *string) error {
	if offset < 0 || limit <= 0 {
		return fmt.Errorf("%w: offset %d, limit %d", shared.ErrInvalidArgument, offset, limit)
	}

	c.mu.Lock()
	q := c.state.Query
	if query != nil {
		q = *query
	}
	gen := c.beginCatalogLocked()
	c.mu.Unlock()

	return c.fetchPage(ctx, gen, offset, limit, q)
}

func (c *Controller) fetchPage(ctx context.Context, gen uint64, offset, limit int, q string) error {
	songs, err := c.svc.ListSongs(ctx, offset, limit, q)
	if err != nil {
		return c.failCatalog(gen, "load songs", err)
	}

	c.mu.Lock()
	if c.catalogStaleLocked(gen) {
		c.mu.Unlock()
		c.logger.Debug("discarding stale catalog page", "offset", offset, "query", q)
		return nil
	}
	if offset == 0 {
		c.state.Songs = songs
		c.state.Query = q
	} else {
		c.state.Songs = append(c.state.Songs, songs...)
	}
	c.state.HasMore = len(songs) == limit
	c.state.Page = offset / limit
	c.state.Loading = false
	c.publishLocked()
	c.mu.Unlock()

	if offset == 0 {
		c.record(ctx, models.HistorySearch, "", q)
	}
	return nil
}

// Search loads the first page for query.
func (c *Controller) Search(ctx context.Context, query string) error {
	return c.FetchCatalog(ctx, 0, c.opts.PageSize, &query)
}

// LoadMore appends the next page of the current query once a first page is shown.
// It does nothing while a catalog request is in flight or when no more pages are expected.
func (c *Controller) LoadMore(ctx context.Context) error {
	c.mu.Lock()
	if !c.state.HasMore || c.state.Loading || len(c.state.Songs) == 0 {
		c.mu.Unlock()
		return nil
	}
	limit := c.opts.PageSize
	offset := (c.state.Page + 1) * limit
	q := c.state.Query
	gen := c.beginCatalogLocked()
	c.mu.Unlock()

	return c.fetchPage(ctx, gen, offset, limit, q)
}

// Submit sends search input to the text recommender in magic mode and to Search otherwise.
func (c *Controller) Submit(ctx context.Context, text string) error {
	c.mu.Lock()
	magic := c.state.MagicMode
	c.mu.Unlock()

	if magic {
		return c.RecommendFromText(ctx, text)
	}
	return c.Search(ctx, text)
}

// ToggleSelection flips trackID's membership in the selection set.
func (c *Controller) ToggleSelection(trackID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.state.Selection[trackID]; ok {
		delete(c.state.Selection, trackID)
	} else {
		c.state.Selection[trackID] = struct{}{}
	}
	c.publishLocked()
}

// ClearSelection empties the selection set.
func (c *Controller) ClearSelection() {
	c.mu.Lock()
	defer c.mu.Unlock()

	clear(c.state.Selection)
	c.publishLocked()
}

// IsSelected reports whether trackID is in the selection set.
func (c *Controller) IsSelected(trackID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.state.Selection[trackID]
	return ok
}

// ToggleMagicMode flips which recommender [Controller.Submit] uses.
func (c *Controller) ToggleMagicMode() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.state.MagicMode = !c.state.MagicMode
	c.publishLocked()
}

// RecommendFromSelection replaces the catalog with songs similar to the selection.
// An empty selection sends nothing.
func (c *Controller) RecommendFromSelection(ctx context.Context) error {
	c.mu.Lock()
	ids := c.state.SelectedIDs()
	if len(ids) == 0 {
		c.mu.Unlock()
		return nil
	}
	gen := c.beginCatalogLocked()
	c.mu.Unlock()

	songs, err := c.svc.Recommend(ctx, ids, c.opts.RecommendLimit)
	if err != nil {
		return c.failCatalog(gen, "get recommendations", err)
	}

	if !c.applyRecommendation(gen, songs, true) {
		return nil
	}
	c.record(ctx, models.HistoryRecommend, "", strings.Join(ids, ","))
	return nil
}

// RecommendFromText replaces the catalog with songs matching a free-text prompt.
// Blank text sends nothing.
func (c *Controller) RecommendFromText(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	c.mu.Lock()
	gen := c.beginCatalogLocked()
	c.mu.Unlock()

	songs, err := c.svc.RecommendText(ctx, text, c.opts.RecommendLimit)
	if err != nil {
		return c.failCatalog(gen, "get recommendations", err)
	}

	if !c.applyRecommendation(gen, songs, false) {
		return nil
	}
	c.record(ctx, models.HistoryMagic, "", text)
	return nil
}

// applyRecommendation replaces the catalog and turns pagination off. It reports false for stale results.
func (c *Controller) applyRecommendation(gen uint64, songs []models.Song, clearSelection bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.catalogStaleLocked(gen) {
		c.logger.Debug("discarding stale recommendations", "count", len(songs))
		return false
	}
	c.state.Songs = songs
	c.state.Page = 0
	c.state.HasMore = false
	c.state.Loading = false
	if clearSelection {
		clear(c.state.Selection)
	}
	c.publishLocked()
	return true
}

// Play makes song current and resolves its audio.
//
// Playing the current song again flips play/pause without a request, unless its
// last resolution failed, in which case it is retried.
func (c *Controller) Play(ctx context.Context, song models.Song) error {
	c.mu.Lock()
	cur := c.state.Cursor
	if cur.Song != nil && cur.Song.TrackID == song.TrackID && (cur.Asset != nil || cur.Loading) {
		c.mu.Unlock()
		c.TogglePlayPause()
		return nil
	}

	c.playGen++
	gen := c.playGen
	current := song
	c.state.Cursor.Song = &current
	c.state.Cursor.Asset = nil
	c.state.Cursor.Playing = true
	c.state.Cursor.Loading = true
	c.state.Cursor.Err = ""
	if err := c.sink.Stop(); err != nil {
		c.logger.Debug("sink stop failed", "error", err)
	}
	c.publishLocked()
	c.mu.Unlock()

	asset, err := c.svc.GetAudio(ctx, song.TrackID)
	if err != nil {
		asset = c.opts.Policy.Recover(song, err)
		if asset == nil {
			return c.failPlay(gen, err)
		}
		c.logger.Info("audio recovered", "track", song.TrackID, "kind", Classify(err), "error", err)
	}

	c.loadMu.Lock()
	c.mu.Lock()
	if c.playStaleLocked(gen) {
		c.mu.Unlock()
		c.loadMu.Unlock()
		c.logger.Debug("discarding stale audio", "track", song.TrackID)
		return nil
	}
	c.state.Cursor.Asset = asset
	c.state.Cursor.Loading = false
	playing := c.state.Cursor.Playing
	c.publishLocked()
	c.mu.Unlock()

	if err := c.sink.Load(ctx, *asset, playing); err != nil {
		c.loadMu.Unlock()
		return c.failPlay(gen, err)
	}

	// A newer Play may have started while the sink was loading.
	c.mu.Lock()
	stale := c.playStaleLocked(gen)
	c.mu.Unlock()
	if stale {
		if err := c.sink.Stop(); err != nil {
			c.logger.Debug("sink stop failed", "error", err)
		}
		c.loadMu.Unlock()
		c.logger.Debug("stopped superseded track", "track", song.TrackID)
		return nil
	}
	c.record(ctx, models.HistoryPlay, song.TrackID, song.TrackName)
	c.loadMu.Unlock()
	return nil
}

// failPlay stalls the cursor: not playing, no asset, error message set. The song stays current.
func (c *Controller) failPlay(gen uint64, err error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.playStaleLocked(gen) {
		return nil
	}
	c.state.Cursor.Loading = false
	c.state.Cursor.Playing = false
	c.state.Cursor.Asset = nil
	c.state.Cursor.Err = fmt.Sprintf("failed to load audio: %v", err)
	c.publishLocked()
	return fmt.Errorf("play: %w", err)
}

// PlayByID plays a catalog song, fetching it first when it is not displayed.
func (c *Controller) PlayByID(ctx context.Context, trackID string) error {
	if trackID == "" {
		return fmt.Errorf("%w: track id", shared.ErrMissingArgument)
	}

	c.mu.Lock()
	idx := indexOf(c.state.Songs, trackID)
	var song models.Song
	if idx >= 0 {
		song = c.state.Songs[idx]
	}
	c.mu.Unlock()

	if idx < 0 {
		fetched, err := c.svc.GetSong(ctx, trackID)
		if err != nil {
			return fmt.Errorf("get song: %w", err)
		}
		song = *fetched
	}
	return c.Play(ctx, song)
}

// TogglePlayPause flips the playing flag when a song is current.
func (c *Controller) TogglePlayPause() {
	c.mu.Lock()
	if c.state.Cursor.Song == nil {
		c.mu.Unlock()
		return
	}
	c.state.Cursor.Playing = !c.state.Cursor.Playing
	playing := c.state.Cursor.Playing
	ready := c.state.Cursor.Asset != nil && !c.state.Cursor.Loading
	c.publishLocked()
	c.mu.Unlock()

	if !ready {
		return
	}

	var err error
	if playing {
		err = c.sink.Play()
	} else {
		err = c.sink.Pause()
	}
	if err != nil {
		c.logger.Warn("sink did not follow play state", "playing", playing, "error", err)
	}
}

// SetVolume stores v clamped to [0, 1] and applies it to the sink.
func (c *Controller) SetVolume(v float64) {
	v = shared.ClampVolume(v)

	c.mu.Lock()
	c.state.Cursor.Volume = v
	c.publishLocked()
	c.mu.Unlock()

	if err := c.sink.SetVolume(v); err != nil {
		c.logger.Warn("sink did not accept volume", "volume", v, "error", err)
	}
}

// Next plays the song after the current one in the displayed catalog.
func (c *Controller) Next(ctx context.Context) error {
	return c.step(ctx, 1)
}

// Previous plays the song before the current one in the displayed catalog.
func (c *Controller) Previous(ctx context.Context) error {
	return c.step(ctx, -1)
}

func (c *Controller) neighbor(delta int) (models.Song, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	idx := c.state.CurrentIndex()
	if idx < 0 {
		return models.Song{}, false
	}
	target := idx + delta
	if target < 0 || target >= len(c.state.Songs) {
		return models.Song{}, false
	}
	return c.state.Songs[target], true
}

func (c *Controller) step(ctx context.Context, delta int) error {
	song, ok := c.neighbor(delta)
	if !ok {
		return nil
	}
	return c.Play(ctx, song)
}

// TrackEnded advances after trackID finishes. Signals for a track that is no longer current are ignored.
// At the end of the catalog the cursor stops playing.
func (c *Controller) TrackEnded(ctx context.Context, trackID string) error {
	// loadMu lets the load that started this track settle first.
	c.loadMu.Lock()
	c.mu.Lock()
	cur := c.state.Cursor.Song
	current := cur != nil && cur.TrackID == trackID
	c.mu.Unlock()
	c.loadMu.Unlock()

	if !current {
		c.logger.Debug("ignoring stale end of track", "track", trackID)
		return nil
	}

	song, ok := c.neighbor(1)
	if !ok {
		c.mu.Lock()
		if c.state.Cursor.Song != nil && c.state.Cursor.Song.TrackID == trackID {
			c.state.Cursor.Playing = false
			c.publishLocked()
		}
		c.mu.Unlock()
		return nil
	}
	return c.Play(ctx, song)
}

func (c *Controller) record(ctx context.Context, kind models.HistoryKind, trackID, label string) {
	if c.opts.Journal == nil {
		return
	}
	if err := c.opts.Journal.Record(ctx, models.NewHistoryEntry(kind, trackID, label)); err != nil {
		c.logger.Warn("failed to record history", "kind", kind, "error", err)
	}
}

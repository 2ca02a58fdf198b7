package ui

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/desertthunder/sonar/internal/models"
	"github.com/desertthunder/sonar/internal/session"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	SongListView ViewState = iota
	SearchView
	HistoryView
)

const (
	volumeStep   = 0.05
	historyLimit = 100
)

// HistoryStore reads and clears the session journal.
type HistoryStore interface {
	List(ctx context.Context, limit int) ([]*models.HistoryEntry, error)
	ListByKind(ctx context.Context, kind models.HistoryKind) ([]*models.HistoryEntry, error)
	Count(ctx context.Context) (int, error)
	Clear(ctx context.Context) error
}

// historyKinds is the filter cycle of the history view; the empty kind shows everything.
var historyKinds = []models.HistoryKind{"", models.HistoryPlay, models.HistorySearch, models.HistoryRecommend, models.HistoryMagic}

// Model represents the TUI application state.
type Model struct {
	ctx         context.Context
	ctrl        *session.Controller
	history     HistoryStore
	historyKind int
	logger      *log.Logger
	view        ViewState
	width       int
	height      int
	songList    list.Model
	historyList list.Model
	input       textinput.Model
	snap        session.Snapshot
	help        help.Model
	keys        keyMap
}

// NewModel creates a new TUI model over ctrl. A nil history disables the history view.
func NewModel(ctx context.Context, ctrl *session.Controller, history HistoryStore, logger *log.Logger) *Model {
	if logger == nil {
		logger = log.New(io.Discard)
	}

	songList := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	songList.Title = "Songs"
	songList.SetFilteringEnabled(false)
	songList.SetShowHelp(false)
	songList.DisableQuitKeybindings()

	historyList := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	historyList.Title = "Session History"
	historyList.SetFilteringEnabled(false)
	historyList.SetShowHelp(false)
	historyList.DisableQuitKeybindings()

	input := textinput.New()
	input.Placeholder = "artist, title or album"
	input.CharLimit = 200

	return &Model{
		ctx:         ctx,
		ctrl:        ctrl,
		history:     history,
		logger:      logger,
		view:        SongListView,
		songList:    songList,
		historyList: historyList,
		input:       input,
		snap:        ctrl.Snapshot(),
		help:        help.New(),
		keys:        newKeyMap(),
	}
}

// Init loads the first catalog page and starts following controller updates.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		m.run("search", func(ctx context.Context) error { return m.ctrl.Search(ctx, m.snap.Query) }),
		m.waitForUpdate(),
	)
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.songList.SetSize(msg.Width-4, max(msg.Height-10, 4))
		m.historyList.SetSize(msg.Width-4, max(msg.Height-6, 4))
		m.input.Width = max(msg.Width-12, 10)
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case SearchView:
			return m.handleSearchKeys(msg)
		case HistoryView:
			return m.handleHistoryKeys(msg)
		default:
			return m.handleSongListKeys(msg)
		}

	case Msg:
		return m.handleMsg(msg)
	}

	return m.updateActive(msg)
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgSnapshot:
		m.applySnapshot(msg.data.(session.Snapshot))
		return m, m.waitForUpdate()

	case MsgOpDone:
		res := msg.data.(opResult)
		if res.err != nil {
			m.logger.Warn("operation failed", "op", res.op, "error", res.err)
		}
		return m, nil

	case MsgHistoryLoaded:
		res := msg.data.(historyResult)
		if res.err != nil {
			m.logger.Warn("failed to load history", "error", res.err)
			return m, nil
		}
		items := make([]list.Item, len(res.entries))
		for i, e := range res.entries {
			items[i] = historyItem{entry: e}
		}
		m.historyList.Title = m.historyTitle(res.total)
		return m, m.historyList.SetItems(items)

	case MsgUpdatesClosed:
		return m, nil
	}
	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case SearchView:
		return m.renderSearch()
	case HistoryView:
		return m.renderHistory()
	default:
		return m.renderSongList()
	}
}

func (m *Model) handleSongListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.search):
		m.view = SearchView
		m.input.SetValue("")
		return m, m.input.Focus()

	case key.Matches(msg, m.keys.play):
		if song, ok := m.highlighted(); ok {
			return m, m.run("play", func(ctx context.Context) error { return m.ctrl.Play(ctx, song) })
		}
		return m, nil

	case key.Matches(msg, m.keys.pause):
		m.ctrl.TogglePlayPause()
		return m, nil

	case key.Matches(msg, m.keys.next):
		return m, m.run("next", m.ctrl.Next)

	case key.Matches(msg, m.keys.prev):
		return m, m.run("previous", m.ctrl.Previous)

	case key.Matches(msg, m.keys.volUp):
		m.ctrl.SetVolume(m.snap.Cursor.Volume + volumeStep)
		return m, nil

	case key.Matches(msg, m.keys.volDown):
		m.ctrl.SetVolume(m.snap.Cursor.Volume - volumeStep)
		return m, nil

	case key.Matches(msg, m.keys.more):
		if m.snap.Busy() {
			return m, nil
		}
		return m, m.run("load more", m.ctrl.LoadMore)

	case key.Matches(msg, m.keys.selectOne):
		if song, ok := m.highlighted(); ok {
			m.ctrl.ToggleSelection(song.TrackID)
		}
		return m, nil

	case key.Matches(msg, m.keys.clear):
		m.ctrl.ClearSelection()
		return m, nil

	case key.Matches(msg, m.keys.recommend):
		return m, m.run("recommend", m.ctrl.RecommendFromSelection)

	case key.Matches(msg, m.keys.magic):
		m.ctrl.ToggleMagicMode()
		return m, nil

	case key.Matches(msg, m.keys.history):
		if m.history == nil {
			return m, nil
		}
		m.view = HistoryView
		return m, m.loadHistory()

	case key.Matches(msg, m.keys.help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	}

	var cmd tea.Cmd
	m.songList, cmd = m.songList.Update(msg)
	return m, cmd
}

func (m *Model) handleSearchKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.Type == tea.KeyCtrlC:
		return m, tea.Quit

	case key.Matches(msg, m.keys.back):
		m.input.Blur()
		m.view = SongListView
		return m, nil

	case key.Matches(msg, m.keys.submit):
		text := m.input.Value()
		m.input.Blur()
		m.view = SongListView
		m.songList.ResetSelected()
		return m, m.run("submit", func(ctx context.Context) error { return m.ctrl.Submit(ctx, text) })
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleHistoryKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back), key.Matches(msg, m.keys.history):
		m.view = SongListView
		return m, nil
	case key.Matches(msg, m.keys.kind):
		m.historyKind = (m.historyKind + 1) % len(historyKinds)
		m.historyList.ResetSelected()
		return m, m.loadHistory()
	case key.Matches(msg, m.keys.wipe):
		return m, m.clearHistory()
	case key.Matches(msg, m.keys.play):
		if item, ok := m.historyList.SelectedItem().(historyItem); ok && item.entry.TrackID() != "" {
			id := item.entry.TrackID()
			m.view = SongListView
			return m, m.run("play", func(ctx context.Context) error { return m.ctrl.PlayByID(ctx, id) })
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.historyList, cmd = m.historyList.Update(msg)
	return m, cmd
}

func (m *Model) updateActive(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case SearchView:
		m.input, cmd = m.input.Update(msg)
	case HistoryView:
		m.historyList, cmd = m.historyList.Update(msg)
	default:
		m.songList, cmd = m.songList.Update(msg)
	}
	return m, cmd
}

func (m *Model) highlighted() (models.Song, bool) {
	item, ok := m.songList.SelectedItem().(songItem)
	if !ok {
		return models.Song{}, false
	}
	return item.song, true
}

// applySnapshot rebuilds the song list from snap, keeping the highlighted row.
func (m *Model) applySnapshot(snap session.Snapshot) {
	m.snap = snap

	currentID := ""
	if snap.Cursor.Song != nil {
		currentID = snap.Cursor.Song.TrackID
	}

	items := make([]list.Item, len(snap.Songs))
	for i, s := range snap.Songs {
		items[i] = songItem{
			song:     s,
			selected: snap.IsSelected(s.TrackID),
			current:  s.TrackID == currentID,
			playing:  snap.Cursor.Playing,
		}
	}

	idx := m.songList.Index()
	m.songList.SetItems(items)
	if idx < len(items) {
		m.songList.Select(idx)
	}
	m.songList.Title = m.listTitle()
}

func (m *Model) listTitle() string {
	mode := "Songs"
	if m.snap.MagicMode {
		mode = "Songs ✨ magic"
	}
	if m.snap.Query != "" {
		mode = fmt.Sprintf("%s • %q", mode, m.snap.Query)
	}
	if n := len(m.snap.Selection); n > 0 {
		mode = fmt.Sprintf("%s • %d selected", mode, n)
	}
	return mode
}

// run executes a blocking controller operation off the update loop.
func (m *Model) run(op string, fn func(context.Context) error) tea.Cmd {
	return func() tea.Msg {
		return opDoneMsg(op, fn(m.ctx))
	}
}

// waitForUpdate blocks until the controller publishes, then reads its latest state.
func (m *Model) waitForUpdate() tea.Cmd {
	updates := m.ctrl.Updates()
	return func() tea.Msg {
		select {
		case <-updates:
			return snapshotMsg(m.ctrl.Snapshot())
		case <-m.ctx.Done():
			return Msg{kind: MsgUpdatesClosed}
		}
	}
}

func (m *Model) loadHistory() tea.Cmd {
	kind := historyKinds[m.historyKind]
	return func() tea.Msg {
		var entries []*models.HistoryEntry
		var err error
		if kind == "" {
			entries, err = m.history.List(m.ctx, historyLimit)
		} else {
			entries, err = m.history.ListByKind(m.ctx, kind)
		}
		if err != nil {
			return historyLoadedMsg(nil, 0, err)
		}
		total, err := m.history.Count(m.ctx)
		return historyLoadedMsg(entries, total, err)
	}
}

func (m *Model) clearHistory() tea.Cmd {
	load := m.loadHistory()
	return func() tea.Msg {
		if err := m.history.Clear(m.ctx); err != nil {
			return historyLoadedMsg(nil, 0, err)
		}
		return load()
	}
}

func (m *Model) historyTitle(total int) string {
	title := fmt.Sprintf("Session History (%d)", total)
	if kind := historyKinds[m.historyKind]; kind != "" {
		title = fmt.Sprintf("%s • %s only", title, kind)
	}
	return title
}

func (m *Model) renderSongList() string {
	var b strings.Builder

	b.WriteString(m.songList.View())
	b.WriteString("\n")

	if m.snap.Busy() {
		b.WriteString(styles.warn.Render("loading…"))
		b.WriteString("\n")
	} else if m.snap.HasMore && len(m.snap.Songs) > 0 {
		b.WriteString(styles.help.Render("more songs available (L)"))
		b.WriteString("\n")
	}

	if m.snap.Err != "" {
		b.WriteString(styles.err.Render("Error: " + m.snap.Err))
		b.WriteString("\n")
	}

	b.WriteString(m.renderNowPlaying())
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m *Model) renderNowPlaying() string {
	cur := m.snap.Cursor
	if cur.Song == nil {
		return styles.bar.Render(styles.help.Render("Nothing playing"))
	}

	var state string
	switch {
	case cur.Loading:
		state = styles.warn.Render("loading")
	case cur.Err != "":
		state = styles.err.Render("stalled")
	case cur.Playing:
		state = styles.ok.Render("playing")
	default:
		state = styles.warn.Render("paused")
	}

	line := fmt.Sprintf("%s  %s - %s  vol %d%%", state, cur.Song.TrackArtist, cur.Song.TrackName, int(cur.Volume*100+0.5))
	if cur.Asset != nil && cur.Asset.AlbumImage == nil {
		line += styles.help.Render("  (no artwork)")
	}
	if cur.Err != "" {
		line += "\n" + styles.err.Render(cur.Err)
	}
	return styles.bar.Render(line)
}

func (m *Model) renderSearch() string {
	prompt := "Search songs"
	if m.snap.MagicMode {
		prompt = "Describe what you want to hear"
	}
	title := styles.title.Render(prompt)
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.submit, m.keys.back})
	return fmt.Sprintf("%s\n%s\n\n%s", title, m.input.View(), helpView)
}

func (m *Model) renderHistory() string {
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.play, m.keys.kind, m.keys.wipe, m.keys.back, m.keys.quit})
	return fmt.Sprintf("%s\n\n%s", m.historyList.View(), helpView)
}

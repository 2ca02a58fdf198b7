package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"

	"github.com/desertthunder/sonar/internal/formatter"
	"github.com/desertthunder/sonar/internal/models"
)

var (
	_ list.Item = songItem{}
	_ list.Item = historyItem{}
)

// songItem wraps [models.Song] with its selection and playback marks to implement [list.Item].
type songItem struct {
	song     models.Song
	selected bool
	current  bool
	playing  bool
}

func (i songItem) FilterValue() string { return i.song.TrackName }

func (i songItem) Title() string {
	marks := "  "
	switch {
	case i.current && i.playing:
		marks = "▶ "
	case i.current:
		marks = "⏸ "
	}
	check := "[ ]"
	if i.selected {
		check = "[x]"
	}
	return fmt.Sprintf("%s%s %s", marks, check, i.song.TrackName)
}

func (i songItem) Description() string {
	parts := []string{i.song.TrackArtist}
	if i.song.TrackAlbumName != "" {
		parts = append(parts, i.song.TrackAlbumName)
	}
	if genre := i.song.Genre(); genre != "" {
		parts = append(parts, genre)
	}
	parts = append(parts, formatter.FormatDuration(i.song.DurationMS))
	return "      " + strings.Join(parts, " • ")
}

// historyItem wraps [models.HistoryEntry] to implement [list.Item].
type historyItem struct {
	entry *models.HistoryEntry
}

func (i historyItem) FilterValue() string { return i.entry.Label() }

func (i historyItem) Title() string {
	label := i.entry.Label()
	if label == "" {
		label = "(all songs)"
	}
	return fmt.Sprintf("#%d %s: %s", i.entry.Sequence(), i.entry.Kind(), label)
}

func (i historyItem) Description() string {
	desc := i.entry.CreatedAt().Format("15:04:05")
	if i.entry.TrackID() != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.entry.TrackID())
	}
	return desc
}

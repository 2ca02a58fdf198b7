package models

import (
	"fmt"
	"time"
)

// HistoryKind classifies a [HistoryEntry].
type HistoryKind string

const (
	HistorySearch    HistoryKind = "search"
	HistoryRecommend HistoryKind = "recommend"
	HistoryMagic     HistoryKind = "magic"
	HistoryPlay      HistoryKind = "play"
)

// Valid reports whether k is a known kind.
func (k HistoryKind) Valid() bool {
	switch k {
	case HistorySearch, HistoryRecommend, HistoryMagic, HistoryPlay:
		return true
	default:
		return false
	}
}

// HistoryEntry records one session action in the journal.
type HistoryEntry struct {
	id        string
	sequence  int
	kind      HistoryKind
	trackID   string
	label     string
	createdAt time.Time
}

var _ Model = (*HistoryEntry)(nil)

// NewHistoryEntry creates an unsaved entry stamped with the current time.
func NewHistoryEntry(kind HistoryKind, trackID, label string) *HistoryEntry {
	return &HistoryEntry{
		kind:      kind,
		trackID:   trackID,
		label:     label,
		createdAt: time.Now(),
	}
}

// RestoreHistoryEntry rebuilds an entry read from storage.
func RestoreHistoryEntry(id string, sequence int, kind HistoryKind, trackID, label string, createdAt time.Time) *HistoryEntry {
	return &HistoryEntry{
		id:        id,
		sequence:  sequence,
		kind:      kind,
		trackID:   trackID,
		label:     label,
		createdAt: createdAt,
	}
}

func (h *HistoryEntry) ID() string           { return h.id }
func (h *HistoryEntry) Sequence() int        { return h.sequence }
func (h *HistoryEntry) Kind() HistoryKind    { return h.kind }
func (h *HistoryEntry) TrackID() string      { return h.trackID }
func (h *HistoryEntry) Label() string        { return h.label }
func (h *HistoryEntry) CreatedAt() time.Time { return h.createdAt }

func (h *HistoryEntry) SetID(id string)     { h.id = id }
func (h *HistoryEntry) SetSequence(seq int) { h.sequence = seq }

// Validate checks the kind and that play entries carry a track.
func (h *HistoryEntry) Validate() error {
	if !h.kind.Valid() {
		return fmt.Errorf("invalid history kind %q", h.kind)
	}
	if h.kind == HistoryPlay && h.trackID == "" {
		return fmt.Errorf("play entry requires a track id")
	}
	return nil
}

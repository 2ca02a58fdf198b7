package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/sonar/internal/models"
	"github.com/desertthunder/sonar/internal/session"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgSnapshot MsgKind = iota
	MsgOpDone
	MsgHistoryLoaded
	MsgUpdatesClosed
)

type opResult struct {
	op  string
	err error
}

type historyResult struct {
	entries []*models.HistoryEntry
	total   int
	err     error
}

// snapshotMsg is the constructor for [MsgSnapshot]
func snapshotMsg(snap session.Snapshot) Msg {
	return Msg{kind: MsgSnapshot, data: snap}
}

// opDoneMsg is the constructor for [MsgOpDone]
func opDoneMsg(op string, err error) Msg {
	return Msg{kind: MsgOpDone, data: opResult{op: op, err: err}}
}

// historyLoadedMsg is the constructor for [MsgHistoryLoaded]
func historyLoadedMsg(entries []*models.HistoryEntry, total int, err error) Msg {
	return Msg{kind: MsgHistoryLoaded, data: historyResult{entries: entries, total: total, err: err}}
}

// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI renders a [session.Controller] and never holds session state of its own:
//  1. [SongListView] : Browse the catalog, select songs and control playback
//  2. [SearchView] : Enter a search query, or a free-text prompt in magic mode
//  3. [HistoryView] : Review the session journal
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Controller operations run as commands; every state change arrives as a snapshot read from [session.Controller.Updates].
//
// Keyboard navigation uses the list's vim-style bindings (j/k, g/G) plus single-key actions shown through charmbracelet/bubbles/help.
package ui

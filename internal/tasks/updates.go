package tasks

import "fmt"

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	FetchSongs Phase = iota
	ExportCards
)

func (p Phase) String() string {
	switch p {
	case FetchSongs:
		return "fetch_songs"
	case ExportCards:
		return "export_cards"
	default:
		return ""
	}
}

// sendProgress sends a progress update through the channel without blocking.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

func fetchingSongUpdate(step, total int, trackID string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchSongs,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Fetching %s...", step, total, trackID),
	}
}

func cardCompletedUpdate(step, total int, res CardResult) ProgressUpdate {
	note := ""
	if res.Fallback {
		note = ", no preview"
	}
	return ProgressUpdate{
		Phase:   ExportCards,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s (%d files%s)", step, total, res.Title, len(res.Files), note),
		Data:    res,
	}
}

func cardFailedUpdate(step, total int, res CardResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportCards,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, res.Title, res.Err),
		Data:    res,
	}
}

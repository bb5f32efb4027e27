package tasks

import (
	"fmt"

	"moodlist/internal/models"
)

// ProgressUpdate represents a progress event during a build.
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
	GenerateSuggestions Phase = iota
	ResolveTracks
	WritePlaylist
)

func (p Phase) String() string {
	switch p {
	case GenerateSuggestions:
		return "generate_suggestions"
	case ResolveTracks:
		return "resolve_tracks"
	case WritePlaylist:
		return "write_playlist"
	default:
		return ""
	}
}

func generatingUpdate(prompt string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   GenerateSuggestions,
		Step:    0,
		Total:   1,
		Message: fmt.Sprintf("Asking for suggestions: %q...", prompt),
	}
}

func generatedUpdate(count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   GenerateSuggestions,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Received %d suggestions", count),
	}
}

func resolvingUpdate(step, total int, s models.Suggestion) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ResolveTracks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s - %s", step, total, s.Artist, s.Title),
	}
}

func resolvedUpdate(step, total int, track models.ResolvedTrack) ProgressUpdate {
	mark := "✓"
	if !track.Resolved() {
		mark = "✗"
	}
	return ProgressUpdate{
		Phase:   ResolveTracks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s %s - %s", step, total, mark, track.Suggestion.Artist, track.Suggestion.Title),
		Data:    track,
	}
}

func writingUpdate(count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   WritePlaylist,
		Step:    0,
		Total:   1,
		Message: fmt.Sprintf("Writing %d tracks to playlist...", count),
	}
}

func writtenUpdate(pl *models.Playlist) ProgressUpdate {
	return ProgressUpdate{
		Phase:   WritePlaylist,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Playlist ready: %s (ID: %s)", pl.Name, pl.ID),
		Data:    pl,
	}
}

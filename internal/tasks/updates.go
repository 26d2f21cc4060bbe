package tasks

import (
	"fmt"

	"github.com/desertthunder/playdeck/internal/models"
)

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
	ListFiles Phase = iota
	ImportFiles
	WatchFiles
)

func (p Phase) String() string {
	switch p {
	case ListFiles:
		return "list_files"
	case ImportFiles:
		return "import_files"
	case WatchFiles:
		return "watch_files"
	default:
		return ""
	}
}

func listingUpdate(dir string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ListFiles,
		Message: fmt.Sprintf("Listing audio files in %s...", dir),
	}
}

func foundFilesUpdate(total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ListFiles,
		Step:    total,
		Total:   total,
		Message: fmt.Sprintf("Found %d audio files", total),
	}
}

func importedUpdate(step, total int, tr *models.Track) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ImportFiles,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s - %s", step, total, tr.Artist, tr.Name),
		Data:    tr,
	}
}

func skippedUpdate(step, total int, name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ImportFiles,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] = %s (already in library)", step, total, name),
	}
}

func failedUpdate(step, total int, name string, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ImportFiles,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, name, err),
	}
}

func watchingUpdate(dir string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   WatchFiles,
		Message: fmt.Sprintf("Watching %s for new audio files...", dir),
	}
}

func watchedImportUpdate(tr *models.Track) ProgressUpdate {
	return ProgressUpdate{
		Phase:   WatchFiles,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Imported %s - %s", tr.Artist, tr.Name),
		Data:    tr,
	}
}

package snapshot

import "fmt"

// ProgressUpdate represents a progress event during a snapshot.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Endpoint being fetched
	Step    int    // Completed fetches, including this one
	Total   int    // Total fetches
	Message string // Human-readable message for display
	Err     error  // Set when the fetch failed
}

// Phase identifies one endpoint of a snapshot.
type Phase int

const (
	FetchProfile Phase = iota
	FetchProjects
	FetchCategories
	FetchMarkers
	FetchTasks
	FetchStatistics
)

func (p Phase) String() string {
	switch p {
	case FetchProfile:
		return "fetch_profile"
	case FetchProjects:
		return "fetch_projects"
	case FetchCategories:
		return "fetch_categories"
	case FetchMarkers:
		return "fetch_markers"
	case FetchTasks:
		return "fetch_tasks"
	case FetchStatistics:
		return "fetch_statistics"
	default:
		return ""
	}
}

func fetchedUpdate(op operation, step, total, count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   op.phase,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s (%d)", step, total, op.name, count),
	}
}

func failedUpdate(op operation, step, total int, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   op.phase,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, op.name, err),
		Err:     err,
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

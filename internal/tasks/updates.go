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
	CollectObserved Phase = iota
	CompareLevel
	CompareDone
	ProfileRecording
)

func (p Phase) String() string {
	switch p {
	case CollectObserved:
		return "collect_observed"
	case CompareLevel:
		return "compare_level"
	case CompareDone:
		return "compare_done"
	case ProfileRecording:
		return "profile_recording"
	default:
		return ""
	}
}

func collectObservedUpdate(recordings int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CollectObserved,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Collecting beacons from %d recording(s)...", recordings),
	}
}

func compareLevelUpdate(step, total int, level string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CompareLevel,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Comparing level %s...", step, total, level),
	}
}

func compareDoneUpdate(result *AuditResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CompareDone,
		Step:    1,
		Total:   1,
		Message: result.Message(),
		Data:    result,
	}
}

func profileCompletedUpdate(step, total int, name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ProfileRecording,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s", step, total, name),
	}
}

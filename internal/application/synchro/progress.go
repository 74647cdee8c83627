package synchro

import "time"

// Event stages emitted during a synchronization run.
const (
	StageStarted  = "started"
	StageProgress = "progress"
	StageComplete = "complete"
	StageError    = "error"
)

// Event is a progress notification emitted while a sync runs. The SSE
// stream forwards these to the browser verbatim.
type Event struct {
	Stage     string    `json:"stage"`
	Operation string    `json:"operation"`
	Message   string    `json:"message,omitempty"`
	Current   int       `json:"current,omitempty"`
	Total     int       `json:"total,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// ProgressFunc receives sync progress events. A nil ProgressFunc is valid
// and silently drops events.
type ProgressFunc func(Event)

func (f ProgressFunc) emit(stage, operation, message string, current, total int) {
	if f == nil {
		return
	}
	f(Event{
		Stage:     stage,
		Operation: operation,
		Message:   message,
		Current:   current,
		Total:     total,
		Timestamp: time.Now().UTC(),
	})
}

package timer

import "github.com/osa030/pomotune/internal/domain/pomodoro"

// EventType represents a timer event type.
type EventType int

const (
	EventTick             EventType = iota // Countdown decremented
	EventStateChanged                      // Started, paused or reset
	EventModeChanged                       // Mode switched (manual or automatic)
	EventSessionCompleted                  // A countdown reached zero
	EventSettingsChanged                   // Durations replaced
)

// String returns the string representation of the event type.
func (e EventType) String() string {
	switch e {
	case EventTick:
		return "tick"
	case EventStateChanged:
		return "state_changed"
	case EventModeChanged:
		return "mode_changed"
	case EventSessionCompleted:
		return "session_completed"
	case EventSettingsChanged:
		return "settings_changed"
	default:
		return "unknown"
	}
}

// Event represents a timer event.
type Event struct {
	Type         EventType
	Snapshot     Snapshot
	PreviousMode pomodoro.Mode // Set for EventModeChanged and EventSessionCompleted
}

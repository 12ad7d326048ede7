package playback

// EventType represents a playback event type.
type EventType int

const (
	EventCatalogLoaded    EventType = iota // Playlist replaced (or emptied after a fetch error)
	EventTrackChanged                      // Current track changed
	EventPlayStateChanged                  // Playing flag flipped
	EventVolumeChanged                     // Volume changed
	EventError                             // Error state set or cleared
)

// String returns the string representation of the event type.
func (e EventType) String() string {
	switch e {
	case EventCatalogLoaded:
		return "catalog_loaded"
	case EventTrackChanged:
		return "track_changed"
	case EventPlayStateChanged:
		return "play_state_changed"
	case EventVolumeChanged:
		return "volume_changed"
	case EventError:
		return "error"
	default:
		return "unknown"
	}
}

// Event represents a playback event.
type Event struct {
	Type     EventType
	Snapshot Snapshot
}

// Package playback provides the background music session manager.
package playback

import "github.com/osa030/pomotune/internal/domain/track"

// ErrorKind classifies the user-visible error state.
type ErrorKind int

const (
	ErrorNone          ErrorKind = iota // No error
	ErrorCatalogFetch                   // The catalog could not be fetched
	ErrorPlaybackStart                  // The audio backend failed to start a track
)

// String returns the string representation of the error kind.
func (k ErrorKind) String() string {
	switch k {
	case ErrorNone:
		return "none"
	case ErrorCatalogFetch:
		return "catalog_fetch"
	case ErrorPlaybackStart:
		return "playback_start"
	default:
		return "unknown"
	}
}

// User-visible error messages.
const (
	MessageCatalogFetch  = "failed to load songs"
	MessagePlaybackStart = "failed to play the selected song"
)

// Snapshot is a point-in-time copy of the playback state.
type Snapshot struct {
	CurrentTrack *track.Track `json:"current_track,omitempty"`
	CurrentIndex int          `json:"current_index"`
	IsPlaying    bool         `json:"is_playing"`
	Volume       float64      `json:"volume"`
	TrackCount   int          `json:"track_count"`
	Loading      bool         `json:"loading"`
	ErrorKind    ErrorKind    `json:"error_kind"`
	Error        string       `json:"error,omitempty"`
}

// HasError reports whether an error is being shown.
func (s Snapshot) HasError() bool {
	return s.ErrorKind != ErrorNone
}

// Package pomotunev1 defines the pomotune v1 API messages.
// Messages travel as JSON over the Connect protocol.
package pomotunev1

// Empty is the request or response of a call that carries no data.
type Empty struct{}

// Durations holds mode lengths in seconds.
type Durations struct {
	FocusSec      int32 `json:"focusSec"`
	ShortBreakSec int32 `json:"shortBreakSec"`
	LongBreakSec  int32 `json:"longBreakSec"`
}

// TimerState describes the Pomodoro countdown.
type TimerState struct {
	Mode                    string     `json:"mode"`
	TimeLeft                int32      `json:"timeLeft"`
	Clock                   string     `json:"clock"`
	IsActive                bool       `json:"isActive"`
	CompletedSessions       int32      `json:"completedSessions"`
	SessionsBeforeLongBreak int32      `json:"sessionsBeforeLongBreak"`
	Durations               *Durations `json:"durations,omitempty"`
}

// Track describes a playable audio item.
type Track struct {
	Id           string `json:"id"`
	Title        string `json:"title"`
	Artist       string `json:"artist,omitempty"`
	AudioUrl     string `json:"audioUrl"`
	GenreId      string `json:"genreId,omitempty"`
	GenreName    string `json:"genreName,omitempty"`
	WallpaperId  string `json:"wallpaperId,omitempty"`
	WallpaperUrl string `json:"wallpaperUrl,omitempty"`
	Source       string `json:"source,omitempty"`
}

// PlayerState describes the music player.
type PlayerState struct {
	CurrentTrack *Track  `json:"currentTrack,omitempty"`
	CurrentIndex int32   `json:"currentIndex"`
	IsPlaying    bool    `json:"isPlaying"`
	Volume       float64 `json:"volume"`
	TrackCount   int32   `json:"trackCount"`
	Loading      bool    `json:"loading"`
	ErrorKind    string  `json:"errorKind,omitempty"`
	Error        string  `json:"error,omitempty"`
}

// SessionInfo describes the running server session.
type SessionInfo struct {
	SessionId        string `json:"sessionId"`
	StartedAt        string `json:"startedAt"` // RFC 3339
	HostVisible      bool   `json:"hostVisible"`
	VisibilitySource string `json:"visibilitySource"`
	CatalogSource    string `json:"catalogSource,omitempty"`
}

// NotificationType identifies a pushed notification.
type NotificationType string

const (
	NotificationTypeInitialState      NotificationType = "initial_state"
	NotificationTypeTimerTick         NotificationType = "timer_tick"
	NotificationTypeTimerStateChanged NotificationType = "timer_state_changed"
	NotificationTypeTimerModeChanged  NotificationType = "timer_mode_changed"
	NotificationTypeSessionCompleted  NotificationType = "session_completed"
	NotificationTypeSettingsChanged   NotificationType = "settings_changed"
	NotificationTypePlayerChanged     NotificationType = "player_changed"
	NotificationTypeSessionChanged    NotificationType = "session_changed"
)

// Notification is pushed to subscribers.
type Notification struct {
	Type         NotificationType `json:"type"`
	SequenceNo   uint64           `json:"sequenceNo"`
	PreviousMode string           `json:"previousMode,omitempty"`
	Timer        *TimerState      `json:"timer,omitempty"`
	Player       *PlayerState     `json:"player,omitempty"`
	Session      *SessionInfo     `json:"session,omitempty"`
}

// TimerResponse carries the timer state after a call.
type TimerResponse struct {
	Timer *TimerState `json:"timer"`
}

// SwitchModeRequest switches the timer mode.
type SwitchModeRequest struct {
	Mode string `json:"mode"`
}

// UpdateSettingsRequest replaces the timer durations.
type UpdateSettingsRequest struct {
	Durations *Durations `json:"durations"`
}

// PlayerResponse carries the player state after a call.
type PlayerResponse struct {
	Player *PlayerState `json:"player"`
}

// ListTracksResponse lists the playlist.
type ListTracksResponse struct {
	Tracks []*Track `json:"tracks"`
}

// PlayTrackRequest selects a track.
type PlayTrackRequest struct {
	TrackId string `json:"trackId"`
}

// SetVolumeRequest sets the volume in [0, 1].
type SetVolumeRequest struct {
	Volume float64 `json:"volume"`
}

// StatusResponse carries the full server state.
type StatusResponse struct {
	Session *SessionInfo `json:"session"`
	Timer   *TimerState  `json:"timer"`
	Player  *PlayerState `json:"player"`
}

// ReportVisibilityRequest reports whether the host view is visible.
type ReportVisibilityRequest struct {
	Visible bool `json:"visible"`
}

// SubscribeRequest opens a notification stream.
type SubscribeRequest struct {
	IncludeTicks bool `json:"includeTicks"`
}

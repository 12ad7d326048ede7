package session

import (
	pomotunev1 "github.com/osa030/pomotune/internal/api/pomotune/v1"
	"github.com/osa030/pomotune/internal/app/playback"
	"github.com/osa030/pomotune/internal/app/timer"
	"github.com/osa030/pomotune/internal/domain/pomodoro"
	"github.com/osa030/pomotune/internal/domain/track"
)

// BuildTimerState converts an engine snapshot to its API message.
func BuildTimerState(s timer.Snapshot) *pomotunev1.TimerState {
	return &pomotunev1.TimerState{
		Mode:                    s.Mode.String(),
		TimeLeft:                int32(s.TimeLeft),
		Clock:                   pomodoro.FormatClock(s.TimeLeft),
		IsActive:                s.IsActive,
		CompletedSessions:       int32(s.CompletedSessions),
		SessionsBeforeLongBreak: int32(s.SessionsBeforeLongBreak),
		Durations:               BuildDurations(s.Durations),
	}
}

// BuildDurations converts durations to their API message.
func BuildDurations(d pomodoro.Durations) *pomotunev1.Durations {
	return &pomotunev1.Durations{
		FocusSec:      int32(d.Focus),
		ShortBreakSec: int32(d.ShortBreak),
		LongBreakSec:  int32(d.LongBreak),
	}
}

// ParseDurations converts an API durations message. A nil message yields zero durations.
func ParseDurations(d *pomotunev1.Durations) pomodoro.Durations {
	if d == nil {
		return pomodoro.Durations{}
	}
	return pomodoro.Durations{
		Focus:      int(d.FocusSec),
		ShortBreak: int(d.ShortBreakSec),
		LongBreak:  int(d.LongBreakSec),
	}
}

// BuildPlayerState converts a player snapshot to its API message.
func BuildPlayerState(s playback.Snapshot) *pomotunev1.PlayerState {
	p := &pomotunev1.PlayerState{
		CurrentIndex: int32(s.CurrentIndex),
		IsPlaying:    s.IsPlaying,
		Volume:       s.Volume,
		TrackCount:   int32(s.TrackCount),
		Loading:      s.Loading,
		Error:        s.Error,
	}
	if s.CurrentTrack != nil {
		p.CurrentTrack = BuildTrack(*s.CurrentTrack)
	}
	if s.HasError() {
		p.ErrorKind = s.ErrorKind.String()
	}
	return p
}

// BuildTrack converts a track to its API message.
func BuildTrack(t track.Track) *pomotunev1.Track {
	msg := &pomotunev1.Track{
		Id:        t.ID,
		Title:     t.Title,
		Artist:    t.Artist,
		AudioUrl:  t.AudioURL,
		GenreName: t.GenreName(),
		Source:    t.Source,
	}
	if t.GenreID != nil {
		msg.GenreId = *t.GenreID
	}
	if t.WallpaperID != nil {
		msg.WallpaperId = *t.WallpaperID
	}
	if t.Wallpaper != nil {
		msg.WallpaperUrl = t.Wallpaper.ImageURL
	}
	return msg
}

// BuildTracks converts a track list to API messages.
func BuildTracks(tracks []track.Track) []*pomotunev1.Track {
	result := make([]*pomotunev1.Track, len(tracks))
	for i, t := range tracks {
		result[i] = BuildTrack(t)
	}
	return result
}

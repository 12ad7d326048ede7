// Package track provides the Track domain entity.
package track

import (
	"net/url"
	"path/filepath"
	"strings"
	"time"
)

// Genre is a music category a track can belong to.
type Genre struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Wallpaper is a background image associated with a track.
type Wallpaper struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	ImageURL string `json:"image_url"`
}

// Track represents a playable audio item.
// GenreID and WallpaperID are weak references; Genre and Wallpaper are
// filled in only when the catalog source resolves them.
type Track struct {
	ID          string        `json:"id"`
	Title       string        `json:"title"`
	Artist      string        `json:"artist,omitempty"`
	AudioURL    string        `json:"audio_url"`
	Duration    time.Duration `json:"duration,omitempty"`
	GenreID     *string       `json:"genre_id,omitempty"`
	WallpaperID *string       `json:"wallpaper_id,omitempty"`
	Genre       *Genre        `json:"genre,omitempty"`
	Wallpaper   *Wallpaper    `json:"wallpaper,omitempty"`
	Source      string        `json:"source,omitempty"` // Catalog source display name
}

// playableSchemes are the URL schemes the audio backends can open.
var playableSchemes = map[string]bool{
	"http":  true,
	"https": true,
	"file":  true,
}

// IsPlayable reports whether the track has an audio location a backend can open.
func (t *Track) IsPlayable() bool {
	loc := strings.TrimSpace(t.AudioURL)
	if loc == "" {
		return false
	}
	if filepath.IsAbs(loc) {
		return true
	}
	u, err := url.Parse(loc)
	if err != nil {
		return false
	}
	return playableSchemes[strings.ToLower(u.Scheme)]
}

// GenreName returns the resolved genre name, or an empty string.
func (t *Track) GenreName() string {
	if t.Genre == nil {
		return ""
	}
	return t.Genre.Name
}

// DisplayName returns "Artist - Title" when the artist is known.
func (t *Track) DisplayName() string {
	if t.Artist == "" {
		return t.Title
	}
	return t.Artist + " - " + t.Title
}

// StringPtr returns a pointer to s, or nil when s is empty.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

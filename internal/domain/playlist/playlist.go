// Package playlist provides the Playlist domain entity.
package playlist

import "github.com/osa030/pomotune/internal/domain/track"

// NoIndex marks the absence of a current track.
const NoIndex = -1

// Playlist is an ordered list of tracks in catalog order.
type Playlist struct {
	Name   string        // Source display name
	Tracks []track.Track // Tracks in catalog order
}

// New returns a playlist holding a copy of tracks.
func New(name string, tracks []track.Track) *Playlist {
	cp := make([]track.Track, len(tracks))
	copy(cp, tracks)
	return &Playlist{Name: name, Tracks: cp}
}

// Len returns the number of tracks.
func (p *Playlist) Len() int {
	if p == nil {
		return 0
	}
	return len(p.Tracks)
}

// IsEmpty reports whether the playlist has no tracks.
func (p *Playlist) IsEmpty() bool {
	return p.Len() == 0
}

// TrackIDs returns all track IDs in the playlist.
func (p *Playlist) TrackIDs() []string {
	ids := make([]string, p.Len())
	for i := 0; i < p.Len(); i++ {
		ids[i] = p.Tracks[i].ID
	}
	return ids
}

// IndexOf returns the position of the track with the given ID, or NoIndex.
func (p *Playlist) IndexOf(id string) int {
	for i := 0; i < p.Len(); i++ {
		if p.Tracks[i].ID == id {
			return i
		}
	}
	return NoIndex
}

// Contains reports whether a track with the given ID is in the playlist.
func (p *Playlist) Contains(id string) bool {
	return p.IndexOf(id) != NoIndex
}

// At returns the track at index i.
func (p *Playlist) At(i int) (track.Track, bool) {
	if i < 0 || i >= p.Len() {
		return track.Track{}, false
	}
	return p.Tracks[i], true
}

// NextIndex returns the index after i, wrapping to the start.
// From NoIndex it returns 0. Returns NoIndex for an empty playlist.
func (p *Playlist) NextIndex(i int) int {
	n := p.Len()
	if n == 0 {
		return NoIndex
	}
	if i < 0 {
		return 0
	}
	return (i + 1) % n
}

// PrevIndex returns the index before i, wrapping to the end.
// From NoIndex it returns the last index. Returns NoIndex for an empty playlist.
func (p *Playlist) PrevIndex(i int) int {
	n := p.Len()
	if n == 0 {
		return NoIndex
	}
	if i <= 0 || i >= n {
		return n - 1
	}
	return i - 1
}

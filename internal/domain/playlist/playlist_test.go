package playlist

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/osa030/pomotune/internal/domain/track"
)

func tracks(ids ...string) []track.Track {
	out := make([]track.Track, len(ids))
	for i, id := range ids {
		out[i] = track.Track{ID: id}
	}
	return out
}

func TestPlaylist_TrackIDs(t *testing.T) {
	tests := []struct {
		name     string
		tracks   []track.Track
		expected []string
	}{
		{
			name:     "empty playlist",
			tracks:   []track.Track{},
			expected: []string{},
		},
		{
			name:     "single track",
			tracks:   tracks("track-1"),
			expected: []string{"track-1"},
		},
		{
			name:     "multiple tracks",
			tracks:   tracks("track-1", "track-2", "track-3"),
			expected: []string{"track-1", "track-2", "track-3"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New("test", tt.tracks)
			assert.Equal(t, tt.expected, p.TrackIDs())
		})
	}
}

func TestPlaylist_IndexOf(t *testing.T) {
	p := New("test", tracks("a", "b", "c"))

	assert.Equal(t, 0, p.IndexOf("a"))
	assert.Equal(t, 2, p.IndexOf("c"))
	assert.Equal(t, NoIndex, p.IndexOf("z"))
	assert.True(t, p.Contains("b"))
	assert.False(t, p.Contains(""))
}

func TestPlaylist_New_CopiesTracks(t *testing.T) {
	src := tracks("a", "b")
	p := New("test", src)
	src[0].ID = "changed"

	assert.Equal(t, "a", p.Tracks[0].ID)
}

func TestPlaylist_NextIndex(t *testing.T) {
	tests := []struct {
		name     string
		size     int
		from     int
		expected int
	}{
		{name: "empty", size: 0, from: NoIndex, expected: NoIndex},
		{name: "from none", size: 3, from: NoIndex, expected: 0},
		{name: "middle", size: 3, from: 1, expected: 2},
		{name: "wraps at end", size: 3, from: 2, expected: 0},
		{name: "single track", size: 1, from: 0, expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ids := make([]string, tt.size)
			for i := range ids {
				ids[i] = string(rune('a' + i))
			}
			p := New("test", tracks(ids...))
			assert.Equal(t, tt.expected, p.NextIndex(tt.from))
		})
	}
}

func TestPlaylist_PrevIndex(t *testing.T) {
	tests := []struct {
		name     string
		size     int
		from     int
		expected int
	}{
		{name: "empty", size: 0, from: NoIndex, expected: NoIndex},
		{name: "from none goes to last", size: 3, from: NoIndex, expected: 2},
		{name: "middle", size: 3, from: 2, expected: 1},
		{name: "wraps at start", size: 3, from: 0, expected: 2},
		{name: "single track", size: 1, from: 0, expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ids := make([]string, tt.size)
			for i := range ids {
				ids[i] = string(rune('a' + i))
			}
			p := New("test", tracks(ids...))
			assert.Equal(t, tt.expected, p.PrevIndex(tt.from))
		})
	}
}

func TestPlaylist_NextIndexFullCycle(t *testing.T) {
	p := New("test", tracks("a", "b", "c", "d", "e"))

	for start := 0; start < p.Len(); start++ {
		i := start
		for n := 0; n < p.Len(); n++ {
			i = p.NextIndex(i)
		}
		assert.Equal(t, start, i)
	}
}

func TestPlaylist_NilSafe(t *testing.T) {
	var p *Playlist
	assert.Equal(t, 0, p.Len())
	assert.True(t, p.IsEmpty())
	assert.Equal(t, NoIndex, p.NextIndex(0))
	_, ok := p.At(0)
	assert.False(t, ok)
}

package spotify

import (
	"context"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zmb3/spotify/v2"
)

func TestParsePlaylistID(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected spotify.ID
		wantErr  bool
	}{
		{name: "uri", input: "spotify:playlist:37i9dQZF1DXcBWIGoYBM5M", expected: "37i9dQZF1DXcBWIGoYBM5M"},
		{name: "url", input: "https://open.spotify.com/playlist/37i9dQZF1DXcBWIGoYBM5M", expected: "37i9dQZF1DXcBWIGoYBM5M"},
		{name: "url with query", input: "https://open.spotify.com/playlist/abc123?si=xyz&utm_source=copy", expected: "abc123"},
		{name: "url with locale", input: "https://open.spotify.com/intl-ja/playlist/abc123/", expected: "abc123"},
		{name: "plain http", input: "http://open.spotify.com/playlist/testID", expected: "testID"},
		{name: "bare id with spaces", input: "  abc123  ", expected: "abc123"},
		{name: "empty", input: "", wantErr: true},
		{name: "empty uri id", input: "spotify:playlist:", wantErr: true},
		{name: "other host", input: "https://example.com/playlist/abc", wantErr: true},
		{name: "album url", input: "https://open.spotify.com/album/abc", wantErr: true},
		{name: "track uri", input: "spotify:track:abc", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := ParsePlaylistID(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidPlaylist))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, id)
		})
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{name: "nil", err: nil, expected: false},
		{name: "api 429", err: spotify.Error{Status: 429, Message: "API rate limit exceeded"}, expected: true},
		{name: "api 503", err: spotify.Error{Status: 503}, expected: true},
		{name: "api 404", err: spotify.Error{Status: 404, Message: "Not found."}, expected: false},
		{name: "wrapped api 500", err: errors.Wrap(spotify.Error{Status: 500}, "get items"), expected: true},
		{name: "no more pages", err: spotify.ErrNoMorePages, expected: false},
		{name: "rate limit text", err: errors.New("Rate limit exceeded"), expected: true},
		{name: "gateway text", err: errors.New("502 Bad Gateway"), expected: true},
		{name: "bad request text", err: errors.New("400 Bad Request"), expected: false},
		{name: "generic", err: errors.New("something went wrong"), expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, isRetryable(tt.err))
		})
	}
}

func newTestClient() *Client {
	return &Client{
		market:  defaultMarket,
		backoff: backoff{attempts: 3, base: time.Millisecond, max: 2 * time.Millisecond},
	}
}

func TestDo(t *testing.T) {
	t.Run("retries transient failures", func(t *testing.T) {
		c := newTestClient()
		calls := 0
		err := c.do(context.Background(), func() error {
			calls++
			if calls < 3 {
				return spotify.Error{Status: 503}
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("gives up after attempts", func(t *testing.T) {
		c := newTestClient()
		calls := 0
		err := c.do(context.Background(), func() error {
			calls++
			return spotify.Error{Status: 429}
		})
		require.Error(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("permanent failure is not retried", func(t *testing.T) {
		c := newTestClient()
		calls := 0
		err := c.do(context.Background(), func() error {
			calls++
			return spotify.Error{Status: 404}
		})
		require.Error(t, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("stops when context is done", func(t *testing.T) {
		c := newTestClient()
		c.backoff.base = time.Hour
		ctx, cancel := context.WithCancel(context.Background())
		calls := 0
		err := c.do(ctx, func() error {
			calls++
			cancel()
			return spotify.Error{Status: 500}
		})
		require.Error(t, err)
		assert.True(t, errors.Is(err, context.Canceled))
		assert.Equal(t, 1, calls)
	})
}

func TestConvertTrack(t *testing.T) {
	full := &spotify.FullTrack{
		SimpleTrack: spotify.SimpleTrack{
			ID:         "track1",
			Name:       "Late Night Study",
			Artists:    []spotify.SimpleArtist{{Name: "Lofi Lab"}, {Name: "Mellow"}},
			PreviewURL: "https://p.scdn.co/mp3-preview/abc",
			Duration:   150000,
		},
		Album: spotify.SimpleAlbum{
			ID:     "album1",
			Name:   "Study Tapes",
			Images: []spotify.Image{{URL: "https://i.scdn.co/image/cover"}},
		},
	}

	result := convertTrack(full)

	assert.Equal(t, "track1", result.ID)
	assert.Equal(t, "Late Night Study", result.Title)
	assert.Equal(t, "Lofi Lab, Mellow", result.Artist)
	assert.Equal(t, "https://p.scdn.co/mp3-preview/abc", result.AudioURL)
	assert.Equal(t, 150*time.Second, result.Duration)
	require.NotNil(t, result.Wallpaper)
	assert.Equal(t, "album1", *result.WallpaperID)
	assert.Equal(t, "https://i.scdn.co/image/cover", result.Wallpaper.ImageURL)
}

func TestConvertTrack_NoPreviewNoArt(t *testing.T) {
	result := convertTrack(&spotify.FullTrack{
		SimpleTrack: spotify.SimpleTrack{ID: "track2", Name: "Silent"},
	})

	assert.Empty(t, result.AudioURL)
	assert.False(t, result.IsPlayable())
	assert.Nil(t, result.Wallpaper)
	assert.Nil(t, result.WallpaperID)
}

func TestNew_RequiresCredentials(t *testing.T) {
	_, err := New(context.Background(), Config{ClientID: "id"})
	assert.Error(t, err)
}

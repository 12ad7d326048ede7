package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const songsJSON = `[
  {"id": 1, "title": "Rainy Library", "audio_url": "https://cdn.example.com/1.mp3", "genre_id": 2, "wallpaper_id": null,
   "genre": {"id": 2, "name": "Lofi"}, "wallpaper": null},
  {"id": 2, "title": "Night Walk", "audio_url": "https://cdn.example.com/2.mp3", "genre_id": 3, "wallpaper_id": 7,
   "wallpaper": {"id": 7, "name": "City", "image_url": "https://cdn.example.com/city.jpg"}},
  {"id": "abc", "title": "No Genre", "audio_url": "https://cdn.example.com/3.mp3", "genre_id": null}
]`

const genresJSON = `{"data": [{"id": 2, "name": "Lofi"}, {"id": 3, "name": "Jazz"}]}`

func newCatalogServer(t *testing.T, token string, genreHits *atomic.Int32) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/songs", func(w http.ResponseWriter, r *http.Request) {
		if token != "" && r.Header.Get("Authorization") != "Bearer "+token {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(songsJSON))
	})
	mux.HandleFunc("/api/genres", func(w http.ResponseWriter, r *http.Request) {
		if genreHits != nil {
			genreHits.Add(1)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(genresJSON))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestHTTPSource_FetchTracks(t *testing.T) {
	var genreHits atomic.Int32
	srv := newCatalogServer(t, "", &genreHits)

	source, err := NewHTTPSource(map[string]any{
		"base_url":            srv.URL + "/api",
		"requests_per_second": 100,
	})
	require.NoError(t, err)

	tracks, err := source.FetchTracks(context.Background())
	require.NoError(t, err)
	require.Len(t, tracks, 3)

	assert.Equal(t, "1", tracks[0].ID)
	assert.Equal(t, "Lofi", tracks[0].GenreName())
	assert.Nil(t, tracks[0].WallpaperID)

	assert.Equal(t, "2", tracks[1].ID)
	require.NotNil(t, tracks[1].Genre)
	assert.Equal(t, "Jazz", tracks[1].Genre.Name)
	require.NotNil(t, tracks[1].Wallpaper)
	assert.Equal(t, "7", *tracks[1].WallpaperID)
	assert.Equal(t, "https://cdn.example.com/city.jpg", tracks[1].Wallpaper.ImageURL)

	assert.Equal(t, "abc", tracks[2].ID)
	assert.Nil(t, tracks[2].GenreID)
	assert.Nil(t, tracks[2].Genre)

	assert.Equal(t, int32(1), genreHits.Load())
}

func TestHTTPSource_BearerToken(t *testing.T) {
	srv := newCatalogServer(t, "secret", nil)

	withToken, err := NewHTTPSource(map[string]any{
		"base_url":            srv.URL + "/api",
		"token":               "secret",
		"requests_per_second": 100,
	})
	require.NoError(t, err)
	tracks, err := withToken.FetchTracks(context.Background())
	require.NoError(t, err)
	assert.Len(t, tracks, 3)

	withoutToken, err := NewHTTPSource(map[string]any{
		"base_url":            srv.URL + "/api",
		"requests_per_second": 100,
	})
	require.NoError(t, err)
	_, err = withoutToken.FetchTracks(context.Background())
	assert.Error(t, err)
}

func TestHTTPSource_BadResponses(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr bool
	}{
		{name: "server error", status: http.StatusInternalServerError, body: `{}`, wantErr: true},
		{name: "malformed json", status: http.StatusOK, body: `[{"id": 1,`, wantErr: true},
		{name: "invalid id", status: http.StatusOK, body: `[{"id": true}]`, wantErr: true},
		{name: "empty list", status: http.StatusOK, body: `[]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			source, err := NewHTTPSource(map[string]any{"base_url": srv.URL, "requests_per_second": 100})
			require.NoError(t, err)

			tracks, err := source.FetchTracks(context.Background())
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Empty(t, tracks)
		})
	}
}

func TestNewHTTPSource_Validation(t *testing.T) {
	_, err := NewHTTPSource(map[string]any{})
	assert.Error(t, err)

	_, err = NewHTTPSource(map[string]any{"base_url": "not a url"})
	assert.Error(t, err)

	source, err := NewHTTPSource(map[string]any{"base_url": "https://api.example.com"})
	require.NoError(t, err)
	assert.Equal(t, "/songs", source.config.SongsPath)
	assert.Equal(t, 10, source.config.TimeoutSec)
	assert.Equal(t, "http", source.Name())
}

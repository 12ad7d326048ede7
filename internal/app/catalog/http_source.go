package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"github.com/osa030/pomotune/internal/domain/track"
)

// HTTPSourceConfig represents the settings of an http catalog source.
type HTTPSourceConfig struct {
	BaseURL           string  `yaml:"base_url" mapstructure:"base_url" validate:"required,url"`
	Token             string  `yaml:"token" mapstructure:"token"`
	SongsPath         string  `yaml:"songs_path" mapstructure:"songs_path" default:"/songs"`
	GenresPath        string  `yaml:"genres_path" mapstructure:"genres_path" default:"/genres"`
	TimeoutSec        int     `yaml:"timeout_sec" mapstructure:"timeout_sec" default:"10" validate:"gte=1,lte=120"`
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second" default:"2" validate:"gt=0"`
}

// HTTPSource lists tracks from the catalog service.
// Songs come from GET {base_url}/songs; genre names missing from a song are
// resolved through GET {base_url}/genres.
type HTTPSource struct {
	config  *HTTPSourceConfig
	client  *http.Client
	limiter *rate.Limiter
}

// NewHTTPSource creates a new HTTPSource.
func NewHTTPSource(settings map[string]any) (*HTTPSource, error) {
	var config HTTPSourceConfig
	if err := decodeSettings(settings, &config); err != nil {
		return nil, err
	}
	zlog.Debug().Msgf("http source config: base_url=%s songs_path=%s genres_path=%s", config.BaseURL, config.SongsPath, config.GenresPath)

	client := http.DefaultClient
	if config.Token != "" {
		client = oauth2.NewClient(context.Background(), oauth2.StaticTokenSource(&oauth2.Token{
			AccessToken: config.Token,
			TokenType:   "Bearer",
		}))
	}

	return &HTTPSource{
		config: &config,
		client: &http.Client{
			Transport: client.Transport,
			Timeout:   time.Duration(config.TimeoutSec) * time.Second,
		},
		limiter: rate.NewLimiter(rate.Limit(config.RequestsPerSecond), 1),
	}, nil
}

// Name returns the source type.
func (s *HTTPSource) Name() string {
	return "http"
}

// FetchTracks lists the songs of the catalog service.
func (s *HTTPSource) FetchTracks(ctx context.Context) ([]track.Track, error) {
	var songs []songResource
	if err := s.getList(ctx, s.config.SongsPath, &songs); err != nil {
		return nil, errors.Wrap(err, "failed to fetch songs")
	}

	genres := make(map[string]track.Genre)
	if s.needsGenres(songs) {
		var list []genreResource
		if err := s.getList(ctx, s.config.GenresPath, &list); err != nil {
			// Genre names are cosmetic
			zlog.Warn().Msgf("failed to fetch genres: error=%v", err)
		}
		for _, g := range list {
			genres[string(g.ID)] = track.Genre{ID: string(g.ID), Name: g.Name}
		}
	}

	tracks := make([]track.Track, 0, len(songs))
	for _, song := range songs {
		tracks = append(tracks, song.toTrack(genres))
	}
	return tracks, nil
}

func (s *HTTPSource) needsGenres(songs []songResource) bool {
	if s.config.GenresPath == "" {
		return false
	}
	for _, song := range songs {
		if song.GenreID != "" && song.Genre == nil {
			return true
		}
	}
	return false
}

// getList fetches a JSON array. Both a bare array and a {"data": [...]} envelope are accepted.
func (s *HTTPSource) getList(ctx context.Context, path string, out any) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return errors.Wrap(err, "rate limiter")
	}

	url := strings.TrimRight(s.config.BaseURL, "/") + "/" + strings.TrimLeft(path, "/")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return errors.Wrapf(err, "GET %s", url)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, "failed to read response")
	}
	if resp.StatusCode != http.StatusOK {
		return errors.Newf("GET %s: unexpected status %d", url, resp.StatusCode)
	}

	body = bytes.TrimSpace(body)
	if len(body) > 0 && body[0] == '{' {
		var envelope struct {
			Data json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(body, &envelope); err != nil {
			return errors.Wrap(err, "failed to decode response")
		}
		body = envelope.Data
	}
	if err := json.Unmarshal(body, out); err != nil {
		return errors.Wrap(err, "failed to decode response")
	}
	return nil
}

// resourceID accepts numeric and string identifiers. null decodes to "".
type resourceID string

func (id *resourceID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = resourceID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return errors.Newf("invalid id %s", data)
	}
	*id = resourceID(n.String())
	return nil
}

type genreResource struct {
	ID   resourceID `json:"id"`
	Name string     `json:"name"`
}

type wallpaperResource struct {
	ID       resourceID `json:"id"`
	Name     string     `json:"name"`
	ImageURL string     `json:"image_url"`
}

type songResource struct {
	ID          resourceID         `json:"id"`
	Title       string             `json:"title"`
	Artist      string             `json:"artist"`
	AudioURL    string             `json:"audio_url"`
	GenreID     resourceID         `json:"genre_id"`
	WallpaperID resourceID         `json:"wallpaper_id"`
	Genre       *genreResource     `json:"genre"`
	Wallpaper   *wallpaperResource `json:"wallpaper"`
}

func (r songResource) toTrack(genres map[string]track.Genre) track.Track {
	t := track.Track{
		ID:          string(r.ID),
		Title:       r.Title,
		Artist:      r.Artist,
		AudioURL:    r.AudioURL,
		GenreID:     track.StringPtr(string(r.GenreID)),
		WallpaperID: track.StringPtr(string(r.WallpaperID)),
	}

	switch {
	case r.Genre != nil:
		t.Genre = &track.Genre{ID: string(r.Genre.ID), Name: r.Genre.Name}
	case r.GenreID != "":
		if g, ok := genres[string(r.GenreID)]; ok {
			t.Genre = &g
		}
	}

	if r.Wallpaper != nil {
		t.Wallpaper = &track.Wallpaper{
			ID:       string(r.Wallpaper.ID),
			Name:     r.Wallpaper.Name,
			ImageURL: r.Wallpaper.ImageURL,
		}
	}
	return t
}

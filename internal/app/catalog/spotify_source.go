package catalog

import (
	"context"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/pomotune/internal/domain/track"
)

// SpotifySourceConfig represents the settings of a spotify catalog source.
type SpotifySourceConfig struct {
	PlaylistURL string `yaml:"playlist_url" mapstructure:"playlist_url" validate:"required"`
}

// SpotifySource lists the preview clips of a Spotify playlist.
type SpotifySource struct {
	spotify SpotifyClient
	config  *SpotifySourceConfig
}

// NewSpotifySource creates a new SpotifySource.
func NewSpotifySource(spotify SpotifyClient, settings map[string]any) (*SpotifySource, error) {
	var config SpotifySourceConfig
	if err := decodeSettings(settings, &config); err != nil {
		return nil, err
	}
	zlog.Debug().Msgf("spotify source config: %+v", config)
	return &SpotifySource{spotify: spotify, config: &config}, nil
}

// Name returns the source type.
func (s *SpotifySource) Name() string {
	return "spotify"
}

// FetchTracks lists playlist tracks that have a preview clip.
func (s *SpotifySource) FetchTracks(ctx context.Context) ([]track.Track, error) {
	all, err := s.spotify.GetPlaylistTracks(ctx, s.config.PlaylistURL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get playlist tracks")
	}

	tracks := make([]track.Track, 0, len(all))
	for _, t := range all {
		if t.AudioURL == "" {
			zlog.Debug().Msgf("skipping track without preview: id=%s title=%s", t.ID, t.Title)
			continue
		}
		tracks = append(tracks, t)
	}
	return tracks, nil
}

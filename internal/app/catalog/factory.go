package catalog

import (
	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/pomotune/internal/infra/config"
)

// SourceType describes a supported catalog source type.
type SourceType struct {
	Type        string
	Description string
}

// ListSourceTypes returns the supported source types.
func ListSourceTypes() []SourceType {
	return []SourceType{
		{Type: "http", Description: "Catalog service over HTTP (GET /songs, /genres)"},
		{Type: "local", Description: "Audio files in a local directory, tagged via ID3/MP4/FLAC/OGG metadata"},
		{Type: "spotify", Description: "Preview clips of a Spotify playlist"},
	}
}

// NewChainFromConfig creates a source chain from configuration.
// spotify may be nil when no spotify source is configured; tagger may be nil
// to leave genres as the sources report them.
func NewChainFromConfig(cfg *config.Config, spotify SpotifyClient, tagger GenreTagger, filter TrackFilter) (*Chain, error) {
	if len(cfg.Catalog.Sources) == 0 {
		return nil, errors.New("no catalog sources configured")
	}

	var sources []SourceWithMetadata

	for i, scfg := range cfg.Catalog.Sources {
		var source Source
		var err error
		zlog.Debug().Msgf("creating catalog source: index=%d type=%s", i+1, scfg.Type)
		switch scfg.Type {
		case "http":
			source, err = NewHTTPSource(scfg.Settings)

		case "local":
			source, err = NewLocalSource(scfg.Settings)

		case "spotify":
			if spotify == nil {
				return nil, errors.Newf("spotify client is not configured (source index %d)", i)
			}
			source, err = NewSpotifySource(spotify, scfg.Settings)

		default:
			return nil, errors.Newf("unsupported source type: %s (source index %d)", scfg.Type, i)
		}

		if err != nil {
			return nil, errors.Wrapf(err, "failed to create source (index %d, type %s)", i, scfg.Type)
		}

		sources = append(sources, SourceWithMetadata{
			Source:      WithGenreTagging(source, tagger),
			DisplayName: scfg.DisplayName,
		})

		zlog.Info().Msgf("registered catalog source: index=%d type=%s display_name=%s", i+1, scfg.Type, scfg.DisplayName)
	}

	return NewChain(sources, filter), nil
}

// Package catalog provides the track catalog sources.
package catalog

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"

	"github.com/osa030/pomotune/internal/domain/track"
)

// Source is the interface for catalog track sources.
// Different implementations list tracks from various backends
// (e.g., an HTTP catalog service, a local directory, a Spotify playlist).
type Source interface {
	// FetchTracks retrieves the full track list in catalog order.
	FetchTracks(ctx context.Context) ([]track.Track, error)

	// Name returns the source type (used in config).
	Name() string
}

// SpotifyClient defines the interface for Spotify operations needed by the spotify source.
type SpotifyClient interface {
	GetPlaylistTracks(ctx context.Context, playlistURL string) ([]track.Track, error)
}

// decodeSettings decodes source settings into cfg, applies defaults and validates it.
func decodeSettings(settings map[string]any, cfg any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           cfg,
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return errors.Wrap(err, "failed to create decoder")
	}
	if err := decoder.Decode(settings); err != nil {
		return errors.Wrap(err, "failed to decode settings")
	}
	if err := defaults.Set(cfg); err != nil {
		return errors.Wrap(err, "failed to set defaults")
	}
	if err := validator.New().Struct(cfg); err != nil {
		return errors.Wrap(err, "validation failed")
	}
	return nil
}

package catalog

import (
	"context"
	"sync"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/pomotune/internal/domain/track"
)

// ErrNoTracks is returned when no source produced any track.
var ErrNoTracks = errors.New("all catalog sources failed to return tracks")

// TrackFilter narrows a fetched track list.
type TrackFilter interface {
	Apply(ctx context.Context, tracks []track.Track) []track.Track
}

// SourceWithMetadata wraps a source with its metadata.
type SourceWithMetadata struct {
	Source      Source
	DisplayName string
}

// Chain tries multiple sources in order until one returns tracks.
type Chain struct {
	sources []SourceWithMetadata
	filter  TrackFilter

	mu         sync.RWMutex
	lastSource string
}

// NewChain creates a new source chain. filter may be nil.
func NewChain(sources []SourceWithMetadata, filter TrackFilter) *Chain {
	return &Chain{
		sources: sources,
		filter:  filter,
	}
}

// FetchTracks returns the filtered tracks of the first source that yields any.
// Failed and empty sources are logged and skipped.
func (c *Chain) FetchTracks(ctx context.Context) ([]track.Track, error) {
	var lastErr error

	for i, sm := range c.sources {
		zlog.Debug().Msgf("trying catalog source: index=%d total=%d name=%s source_type=%s",
			i+1, len(c.sources), sm.DisplayName, sm.Source.Name())

		tracks, err := sm.Source.FetchTracks(ctx)
		if err != nil {
			zlog.Warn().Msgf("catalog source failed, trying next: source=%s error=%v", sm.DisplayName, err)
			lastErr = err
			continue
		}

		if c.filter != nil {
			tracks = c.filter.Apply(ctx, tracks)
		}
		if len(tracks) == 0 {
			zlog.Debug().Msgf("catalog source returned no tracks: source=%s", sm.DisplayName)
			continue
		}

		for i := range tracks {
			tracks[i].Source = sm.DisplayName
		}

		c.mu.Lock()
		c.lastSource = sm.DisplayName
		c.mu.Unlock()

		zlog.Info().Msgf("catalog source returned tracks: source=%s count=%d", sm.DisplayName, len(tracks))
		return tracks, nil
	}

	if lastErr != nil {
		return nil, errors.Mark(errors.Wrap(lastErr, ErrNoTracks.Error()), ErrNoTracks)
	}
	return nil, ErrNoTracks
}

// LastSource returns the display name of the source that served the last fetch.
func (c *Chain) LastSource() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastSource
}

// Sources returns the configured sources.
func (c *Chain) Sources() []SourceWithMetadata {
	return c.sources
}

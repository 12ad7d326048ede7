package catalog

import (
	"context"
	"strings"

	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/pomotune/internal/domain/track"
)

// GenreTagger looks up the dominant genre tag of a track.
type GenreTagger interface {
	TopTag(ctx context.Context, title, artist string) (string, error)
}

// taggedSource fills in the genre of tracks that arrive without one.
type taggedSource struct {
	Source
	tagger GenreTagger
}

// WithGenreTagging wraps source so that untagged tracks get the tagger's top tag
// as their genre. Lookup failures leave the track untagged.
func WithGenreTagging(source Source, tagger GenreTagger) Source {
	if tagger == nil {
		return source
	}
	return &taggedSource{Source: source, tagger: tagger}
}

func (s *taggedSource) FetchTracks(ctx context.Context) ([]track.Track, error) {
	tracks, err := s.Source.FetchTracks(ctx)
	if err != nil {
		return nil, err
	}

	tagged := 0
	for i := range tracks {
		t := &tracks[i]
		if t.Genre != nil || t.GenreID != nil || t.Artist == "" {
			continue
		}
		if ctx.Err() != nil {
			break
		}
		tag, err := s.tagger.TopTag(ctx, t.Title, t.Artist)
		if err != nil {
			zlog.Debug().Msgf("genre lookup failed: track=%s error=%v", t.ID, err)
			continue
		}
		if tag == "" {
			continue
		}
		id := strings.ToLower(tag)
		t.GenreID = &id
		t.Genre = &track.Genre{ID: id, Name: tag}
		tagged++
	}
	if tagged > 0 {
		zlog.Info().Msgf("genre tags added: source=%s tagged=%d", s.Name(), tagged)
	}
	return tracks, nil
}

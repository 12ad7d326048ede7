package catalog

import (
	"context"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/pomotune/internal/domain/track"
)

type fakeTagger struct {
	tags  map[string]string
	calls []string
}

func (f *fakeTagger) TopTag(ctx context.Context, title, artist string) (string, error) {
	f.calls = append(f.calls, title)
	tag, ok := f.tags[title]
	if !ok {
		return "", errors.New("track not found")
	}
	return tag, nil
}

func TestWithGenreTagging(t *testing.T) {
	jazz := "jazz"
	source := &fakeSource{tracks: []track.Track{
		{ID: "1", Title: "Rainy Library", Artist: "Lo Fi"},
		{ID: "2", Title: "Tagged", Artist: "Band", GenreID: &jazz, Genre: &track.Genre{ID: "jazz", Name: "Jazz"}},
		{ID: "3", Title: "Unknown Artist"},
		{ID: "4", Title: "Missing", Artist: "Nobody"},
		{ID: "5", Title: "Untagged", Artist: "Quiet"},
	}}
	tagger := &fakeTagger{tags: map[string]string{"Rainy Library": "Lo-Fi", "Untagged": ""}}

	tracks, err := WithGenreTagging(source, tagger).FetchTracks(context.Background())
	require.NoError(t, err)
	require.Len(t, tracks, 5)

	require.NotNil(t, tracks[0].Genre)
	assert.Equal(t, "lo-fi", *tracks[0].GenreID)
	assert.Equal(t, "Lo-Fi", tracks[0].GenreName())
	assert.Equal(t, "Jazz", tracks[1].GenreName())
	assert.Nil(t, tracks[2].Genre)
	assert.Nil(t, tracks[3].Genre)
	assert.Nil(t, tracks[4].Genre)

	assert.Equal(t, []string{"Rainy Library", "Missing", "Untagged"}, tagger.calls)
}

func TestWithGenreTagging_NilTagger(t *testing.T) {
	source := &fakeSource{}
	assert.Same(t, Source(source), WithGenreTagging(source, nil))
}

func TestWithGenreTagging_SourceError(t *testing.T) {
	source := &fakeSource{err: errors.New("offline")}
	_, err := WithGenreTagging(source, &fakeTagger{}).FetchTracks(context.Background())
	assert.Error(t, err)
}

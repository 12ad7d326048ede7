package filter

import (
	"context"

	"github.com/osa030/pomotune/internal/domain/track"
)

// PlayableFilter drops tracks without an audio location a backend can open.
type PlayableFilter struct{}

// NewPlayableFilter creates a new playable filter.
func NewPlayableFilter() *PlayableFilter {
	return &PlayableFilter{}
}

func (f *PlayableFilter) Name() string {
	return "playable_filter"
}

func (f *PlayableFilter) Description() string {
	return "Drops tracks whose audio URL is missing or uses an unsupported scheme"
}

func (f *PlayableFilter) ReturnCodes() []string {
	return []string{"not_playable"}
}

func (f *PlayableFilter) ValidateConfig(settings map[string]any) error {
	// No configuration needed
	return nil
}

func (f *PlayableFilter) Check(ctx context.Context, t track.Track, kept []track.Track) Result {
	if !t.IsPlayable() {
		return Reject("not_playable")
	}
	return Accept()
}

func init() {
	Register("playable_filter", func() Filter {
		return NewPlayableFilter()
	})
}

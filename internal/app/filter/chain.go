package filter

import (
	"context"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/pomotune/internal/domain/track"
	"github.com/osa030/pomotune/internal/infra/config"
)

// Chain executes filters in sequence.
type Chain struct {
	filters []Filter
}

// NewChain creates a new filter chain.
func NewChain() *Chain {
	return &Chain{
		filters: make([]Filter, 0),
	}
}

// NewChainFromConfig builds a chain of the filters enabled in the catalog configuration.
func NewChainFromConfig(cfg *config.Config) (*Chain, error) {
	chain := NewChain()
	for name := range cfg.Catalog.Filters {
		if _, ok := registry[name]; !ok {
			return nil, errors.Newf("unknown filter: %s", name)
		}
	}
	for _, name := range registered {
		if !cfg.IsFilterEnabled(name) {
			continue
		}
		f := registry[name]()
		if err := f.ValidateConfig(cfg.GetFilterSettings(name)); err != nil {
			return nil, errors.Wrapf(err, "invalid settings for filter %s", name)
		}
		chain.Add(f)
		zlog.Info().Msgf("registered filter: name=%s", name)
	}
	return chain, nil
}

// Add adds a filter to the chain.
func (c *Chain) Add(f Filter) {
	c.filters = append(c.filters, f)
}

// Check runs all filters in sequence against t.
// Returns immediately if any filter rejects the track.
func (c *Chain) Check(ctx context.Context, t track.Track, kept []track.Track) Result {
	for _, f := range c.filters {
		result := f.Check(ctx, t, kept)
		if !result.Accepted {
			return result
		}
	}
	return Accept()
}

// Apply returns the tracks accepted by every filter, preserving order.
func (c *Chain) Apply(ctx context.Context, tracks []track.Track) []track.Track {
	if len(c.filters) == 0 {
		return tracks
	}

	kept := make([]track.Track, 0, len(tracks))
	rejected := make(map[string]int)
	for _, t := range tracks {
		result := c.Check(ctx, t, kept)
		if !result.Accepted {
			rejected[result.Code]++
			zlog.Debug().Msgf("filter: track rejected: id=%s title=%s code=%s", t.ID, t.Title, result.Code)
			continue
		}
		kept = append(kept, t)
	}
	if len(rejected) > 0 {
		zlog.Info().Msgf("filter: tracks rejected: kept=%d rejected=%v", len(kept), rejected)
	}
	return kept
}

// Filters returns all filters in the chain.
func (c *Chain) Filters() []Filter {
	return c.filters
}

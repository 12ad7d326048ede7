package filter

import (
	"context"
	"strings"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/pomotune/internal/domain/track"
)

// GenreConfig represents the configuration for GenreFilter.
// Entries match a genre name (case-insensitive) or a genre id.
type GenreConfig struct {
	Allow []string `yaml:"allow" mapstructure:"allow"`
	Deny  []string `yaml:"deny" mapstructure:"deny"`
	// KeepUnknown keeps tracks without a genre when an allow list is set.
	KeepUnknown bool `yaml:"keep_unknown" mapstructure:"keep_unknown"`
}

// GenreFilter keeps tracks by genre allow and deny lists.
type GenreFilter struct {
	allow       map[string]bool
	deny        map[string]bool
	keepUnknown bool
}

// NewGenreFilter creates a new genre filter.
func NewGenreFilter() *GenreFilter {
	return &GenreFilter{}
}

func (f *GenreFilter) Name() string {
	return "genre_filter"
}

func (f *GenreFilter) Description() string {
	return "Keeps tracks whose genre is on the allow list and not on the deny list"
}

func (f *GenreFilter) ReturnCodes() []string {
	return []string{"genre_excluded"}
}

func (f *GenreFilter) ValidateConfig(settings map[string]any) error {
	var config GenreConfig
	if err := decodeSettings(settings, &config); err != nil {
		return err
	}
	if len(config.Allow) == 0 && len(config.Deny) == 0 {
		return errors.New("genre_filter requires allow or deny")
	}
	f.allow = toSet(config.Allow)
	f.deny = toSet(config.Deny)
	f.keepUnknown = config.KeepUnknown
	zlog.Info().Msgf("genre filter config: %+v", config)
	return nil
}

func (f *GenreFilter) Check(ctx context.Context, t track.Track, kept []track.Track) Result {
	keys := genreKeys(t)
	if len(keys) == 0 {
		if len(f.allow) > 0 && !f.keepUnknown {
			return Reject("genre_excluded")
		}
		return Accept()
	}

	for _, k := range keys {
		if f.deny[k] {
			return Reject("genre_excluded")
		}
	}
	if len(f.allow) == 0 {
		return Accept()
	}
	for _, k := range keys {
		if f.allow[k] {
			return Accept()
		}
	}
	return Reject("genre_excluded")
}

// genreKeys returns the normalized genre id and name of t.
func genreKeys(t track.Track) []string {
	var keys []string
	if t.GenreID != nil && *t.GenreID != "" {
		keys = append(keys, normalize(*t.GenreID))
	}
	if name := t.GenreName(); name != "" {
		keys = append(keys, normalize(name))
	}
	return keys
}

func toSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		if v = normalize(v); v != "" {
			set[v] = true
		}
	}
	return set
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func init() {
	Register("genre_filter", func() Filter {
		return NewGenreFilter()
	})
}

package filter

import (
	"context"
	"regexp"
	"strings"

	"github.com/osa030/pomotune/internal/domain/track"
)

// DuplicateFilter drops tracks already kept in the playlist.
// Detects:
// - Exact track ID matches
// - Remasters (normalized title + same artist)
// Excludes:
// - Cover songs (same title but different artist)
type DuplicateFilter struct{}

// NewDuplicateFilter creates a new duplicate filter.
func NewDuplicateFilter() *DuplicateFilter {
	return &DuplicateFilter{}
}

// Name returns the filter name.
func (f *DuplicateFilter) Name() string {
	return "duplicate_filter"
}

// Description returns the filter description.
func (f *DuplicateFilter) Description() string {
	return "Drops repeated tracks (including remasters); covers by other artists are kept"
}

// ReturnCodes returns possible return codes.
func (f *DuplicateFilter) ReturnCodes() []string {
	return []string{"duplicate_track"}
}

// ValidateConfig validates the filter configuration.
func (f *DuplicateFilter) ValidateConfig(config map[string]any) error {
	// No configuration needed
	return nil
}

// Check checks if the track duplicates one already kept.
func (f *DuplicateFilter) Check(ctx context.Context, t track.Track, kept []track.Track) Result {
	for _, k := range kept {
		// 1. Exact track ID match
		if k.ID == t.ID {
			return Reject("duplicate_track")
		}

		// 2. Remaster detection: normalized title + same artist
		if isRemaster(k, t) {
			return Reject("duplicate_track")
		}
	}
	return Accept()
}

// isRemaster checks if two tracks are the same song (remaster/different version).
func isRemaster(a, b track.Track) bool {
	if normalizeTitle(a.Title) != normalizeTitle(b.Title) {
		return false
	}
	// Same normalized title by a different artist is a cover (allowed)
	return isSameArtist(a, b)
}

var (
	remasterPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\s*-?\s*\d{4}\s+remaster(ed)?`),      // "- 2011 Remaster"
		regexp.MustCompile(`\s*\(remaster(ed)?\s*\d{0,4}\)`),     // "(Remastered 2023)"
		regexp.MustCompile(`\s*\[remaster(ed)?\s*\d{0,4}\]`),     // "[Remastered]"
		regexp.MustCompile(`\s*-?\s*remaster(ed)?(\s+version)?`), // "- Remastered"
		regexp.MustCompile(`\s*\(.*?remaster.*?\)`),              // "(Any Remaster text)"
		regexp.MustCompile(`\s*\[.*?remaster.*?\]`),              // "[Any Remaster text]"
	}
	versionPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\s*\(.*?version\)`),        // "(Single Version)"
		regexp.MustCompile(`\s*\(.*?edit\)`),           // "(Radio Edit)"
		regexp.MustCompile(`\s*\(.*?loop\)`),           // "(1 Hour Loop)"
		regexp.MustCompile(`\s*-?\s*live`),             // "- Live"
		regexp.MustCompile(`\s*-?\s*radio\s+edit`),     // "- Radio Edit"
		regexp.MustCompile(`\s*-?\s*single\s+version`), // "- Single Version"
	}
	spaces = regexp.MustCompile(`\s+`)
)

// normalizeTitle removes remaster information and version details.
func normalizeTitle(title string) string {
	normalized := strings.ToLower(title)
	for _, pattern := range remasterPatterns {
		normalized = pattern.ReplaceAllString(normalized, "")
	}
	for _, pattern := range versionPatterns {
		normalized = pattern.ReplaceAllString(normalized, "")
	}

	normalized = strings.TrimSpace(normalized)
	normalized = spaces.ReplaceAllString(normalized, " ")
	return strings.TrimRight(normalized, " -")
}

// isSameArtist compares artists case-insensitively. Unknown artists never match.
func isSameArtist(a, b track.Track) bool {
	if a.Artist == "" || b.Artist == "" {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(a.Artist), strings.TrimSpace(b.Artist))
}

func init() {
	Register("duplicate_filter", func() Filter {
		return NewDuplicateFilter()
	})
}

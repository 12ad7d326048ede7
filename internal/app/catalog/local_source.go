package catalog

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/dhowden/tag"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/pomotune/internal/domain/track"
)

// coverNames are image files used as the wallpaper of the tracks in their directory.
var coverNames = []string{"cover.jpg", "cover.png", "folder.jpg", "folder.png"}

// LocalSourceConfig represents the settings of a local catalog source.
type LocalSourceConfig struct {
	Dir        string   `yaml:"dir" mapstructure:"dir" validate:"required"`
	Recursive  *bool    `yaml:"recursive" mapstructure:"recursive" default:"true"`
	Extensions []string `yaml:"extensions" mapstructure:"extensions" default:"[\".mp3\",\".flac\",\".m4a\",\".ogg\"]"`
}

// LocalSource lists audio files of a directory.
// Titles, artists and genres are read from the file tags when present.
type LocalSource struct {
	config     *LocalSourceConfig
	extensions map[string]bool
}

// NewLocalSource creates a new LocalSource.
func NewLocalSource(settings map[string]any) (*LocalSource, error) {
	var config LocalSourceConfig
	if err := decodeSettings(settings, &config); err != nil {
		return nil, err
	}

	dir, err := filepath.Abs(config.Dir)
	if err != nil {
		return nil, errors.Wrap(err, "invalid dir")
	}
	config.Dir = dir

	extensions := make(map[string]bool, len(config.Extensions))
	for _, ext := range config.Extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		extensions[ext] = true
	}
	zlog.Debug().Msgf("local source config: dir=%s recursive=%t extensions=%v", config.Dir, *config.Recursive, config.Extensions)

	return &LocalSource{config: &config, extensions: extensions}, nil
}

// Name returns the source type.
func (s *LocalSource) Name() string {
	return "local"
}

// FetchTracks scans the directory in lexical order.
func (s *LocalSource) FetchTracks(ctx context.Context) ([]track.Track, error) {
	var tracks []track.Track
	covers := make(map[string]*track.Wallpaper)

	err := filepath.WalkDir(s.config.Dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			if path != s.config.Dir && !*s.config.Recursive {
				return filepath.SkipDir
			}
			return nil
		}
		if !s.extensions[strings.ToLower(filepath.Ext(path))] {
			return nil
		}

		t := s.readTrack(path)
		dir := filepath.Dir(path)
		wallpaper, ok := covers[dir]
		if !ok {
			wallpaper = s.findCover(dir)
			covers[dir] = wallpaper
		}
		if wallpaper != nil {
			t.WallpaperID = track.StringPtr(wallpaper.ID)
			t.Wallpaper = wallpaper
		}
		tracks = append(tracks, t)
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to scan %s", s.config.Dir)
	}
	return tracks, nil
}

// readTrack builds a track from the file at path. Untagged files are named after the file.
func (s *LocalSource) readTrack(path string) track.Track {
	t := track.Track{
		ID:       s.relative(path),
		Title:    strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
		AudioURL: path,
	}

	f, err := os.Open(path)
	if err != nil {
		zlog.Warn().Msgf("failed to open audio file: path=%s error=%v", path, err)
		return t
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil {
		zlog.Debug().Msgf("no tags, using filename: path=%s error=%v", path, err)
		return t
	}

	if title := strings.TrimSpace(m.Title()); title != "" {
		t.Title = title
	}
	t.Artist = strings.TrimSpace(m.Artist())
	if genre := strings.TrimSpace(m.Genre()); genre != "" {
		id := strings.ToLower(genre)
		t.GenreID = track.StringPtr(id)
		t.Genre = &track.Genre{ID: id, Name: genre}
	}
	return t
}

func (s *LocalSource) findCover(dir string) *track.Wallpaper {
	for _, name := range coverNames {
		path := filepath.Join(dir, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return &track.Wallpaper{
				ID:       s.relative(dir),
				Name:     filepath.Base(dir),
				ImageURL: "file://" + filepath.ToSlash(path),
			}
		}
	}
	return nil
}

// relative returns path relative to the source directory, slash separated.
func (s *LocalSource) relative(path string) string {
	rel, err := filepath.Rel(s.config.Dir, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

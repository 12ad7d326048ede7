package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("not really audio"), 0o644))
}

func TestLocalSource_FetchTracks(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "b_song.mp3"))
	writeFile(t, filepath.Join(dir, "a_song.FLAC"))
	writeFile(t, filepath.Join(dir, "notes.txt"))
	writeFile(t, filepath.Join(dir, "album", "c_song.ogg"))
	writeFile(t, filepath.Join(dir, "album", "cover.jpg"))

	source, err := NewLocalSource(map[string]any{"dir": dir})
	require.NoError(t, err)

	tracks, err := source.FetchTracks(context.Background())
	require.NoError(t, err)
	require.Len(t, tracks, 3)

	assert.Equal(t, "a_song.FLAC", tracks[0].ID)
	assert.Equal(t, "a_song", tracks[0].Title)
	assert.Equal(t, filepath.Join(dir, "a_song.FLAC"), tracks[0].AudioURL)
	assert.True(t, tracks[0].IsPlayable())
	assert.Nil(t, tracks[0].Wallpaper)

	assert.Equal(t, "album/c_song.ogg", tracks[1].ID)
	require.NotNil(t, tracks[1].Wallpaper)
	assert.Equal(t, "album", *tracks[1].WallpaperID)

	assert.Equal(t, "b_song.mp3", tracks[2].ID)
}

func TestLocalSource_NonRecursive(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "top.mp3"))
	writeFile(t, filepath.Join(dir, "nested", "deep.mp3"))

	source, err := NewLocalSource(map[string]any{"dir": dir, "recursive": false, "extensions": []string{"mp3"}})
	require.NoError(t, err)

	tracks, err := source.FetchTracks(context.Background())
	require.NoError(t, err)
	require.Len(t, tracks, 1)
	assert.Equal(t, "top.mp3", tracks[0].ID)
}

func TestLocalSource_MissingDir(t *testing.T) {
	source, err := NewLocalSource(map[string]any{"dir": filepath.Join(t.TempDir(), "missing")})
	require.NoError(t, err)

	_, err = source.FetchTracks(context.Background())
	assert.Error(t, err)
}

func TestNewLocalSource_RequiresDir(t *testing.T) {
	_, err := NewLocalSource(map[string]any{})
	assert.Error(t, err)
}

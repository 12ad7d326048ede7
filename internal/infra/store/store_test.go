package store

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/pomotune/internal/infra/config"
)

func openStores(t *testing.T) map[string]KV {
	t.Helper()
	sqlite, err := OpenSQLite(filepath.Join(t.TempDir(), "data", "pomotune.db"))
	require.NoError(t, err)
	t.Cleanup(func() { sqlite.Close() })

	return map[string]KV{
		"sqlite": sqlite,
		"memory": NewMemory(),
	}
}

func TestKV_GetSet(t *testing.T) {
	ctx := context.Background()
	for name, kv := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			_, ok, err := kv.Get(ctx, "music_volume")
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, kv.Set(ctx, "music_volume", "0.5"))
			require.NoError(t, kv.Set(ctx, "music_volume", "0.25"))

			v, ok, err := kv.Get(ctx, "music_volume")
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, "0.25", v)

			require.NoError(t, kv.Set(ctx, "last_track_id", ""))
			v, ok, err = kv.Get(ctx, "last_track_id")
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Empty(t, v)
		})
	}
}

func TestKV_ConcurrentWrites(t *testing.T) {
	ctx := context.Background()
	for name, kv := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			var wg sync.WaitGroup
			for i := 0; i < 20; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					assert.NoError(t, kv.Set(ctx, fmt.Sprintf("key-%d", i%4), fmt.Sprint(i)))
				}(i)
			}
			wg.Wait()

			for i := 0; i < 4; i++ {
				_, ok, err := kv.Get(ctx, fmt.Sprintf("key-%d", i))
				require.NoError(t, err)
				assert.True(t, ok)
			}
		})
	}
}

func TestSQLite_Reopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "pomotune.db")

	s, err := OpenSQLite(path)
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, "pomodoro_state", `{"mode":"focus"}`))
	require.NoError(t, s.Close())

	s, err = OpenSQLite(path)
	require.NoError(t, err)
	defer s.Close()

	v, ok, err := s.Get(ctx, "pomodoro_state")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"mode":"focus"}`, v)
}

func TestOpen(t *testing.T) {
	kv, err := Open(config.StoreConfig{Driver: "memory"})
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, kv)

	kv, err = Open(config.StoreConfig{Driver: "sqlite", Path: filepath.Join(t.TempDir(), "x.db")})
	require.NoError(t, err)
	assert.IsType(t, &SQLite{}, kv)
	require.NoError(t, kv.Close())

	_, err = Open(config.StoreConfig{Driver: "redis"})
	assert.Error(t, err)
}

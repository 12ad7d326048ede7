package visibility

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/pomotune/internal/infra/config"
)

func receive(t *testing.T, ch <-chan bool) bool {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(time.Second):
		t.Fatal("no visibility change received")
		return false
	}
}

func assertNoChange(t *testing.T, ch <-chan bool) {
	t.Helper()
	select {
	case v := <-ch:
		t.Fatalf("unexpected visibility change: %t", v)
	case <-time.After(20 * time.Millisecond):
	}
}

func TestManual(t *testing.T) {
	m := NewManual(true)
	assert.Equal(t, "manual", m.Name())
	assert.True(t, m.Visible())

	ch, unsubscribe := m.Subscribe()

	m.Set(true)
	assertNoChange(t, ch)

	m.Set(false)
	assert.False(t, receive(t, ch))
	assert.False(t, m.Visible())

	unsubscribe()
	unsubscribe()
	_, ok := <-ch
	assert.False(t, ok)

	m.Set(true)
	assert.True(t, m.Visible())
}

func TestHub_KeepsLatestValue(t *testing.T) {
	h := newHub(true)
	ch, _ := h.subscribe()

	h.set(false)
	h.set(true)
	h.set(false)

	assert.False(t, receive(t, ch))
	assertNoChange(t, ch)
}

func TestHub_Close(t *testing.T) {
	h := newHub(true)
	ch, _ := h.subscribe()
	h.close()
	h.close()

	_, ok := <-ch
	assert.False(t, ok)

	late, _ := h.subscribe()
	_, ok = <-late
	assert.False(t, ok)

	h.set(false)
	assert.True(t, h.get())
}

func TestScreenSaver_HandleSignal(t *testing.T) {
	s := &ScreenSaver{hub: newHub(true)}
	ch, _ := s.Subscribe()

	s.handleSignal(&dbus.Signal{Name: "org.freedesktop.ScreenSaver.ActiveChanged", Body: []interface{}{true}})
	assert.False(t, receive(t, ch))
	assert.False(t, s.Visible())

	// ignored
	s.handleSignal(nil)
	s.handleSignal(&dbus.Signal{Name: "org.freedesktop.Other.ActiveChanged", Body: []interface{}{false}})
	s.handleSignal(&dbus.Signal{Name: "org.freedesktop.ScreenSaver.ActiveChanged", Body: []interface{}{"yes"}})
	s.handleSignal(&dbus.Signal{Name: "org.freedesktop.ScreenSaver.ActiveChanged"})
	assertNoChange(t, ch)

	s.handleSignal(&dbus.Signal{Name: "org.freedesktop.ScreenSaver.ActiveChanged", Body: []interface{}{false}})
	assert.True(t, receive(t, ch))
}

func TestIdle(t *testing.T) {
	var idleMs atomic.Int64
	idle := func(ctx context.Context) (time.Duration, error) {
		return time.Duration(idleMs.Load()) * time.Millisecond, nil
	}

	s, err := NewIdle(context.Background(), IdleConfig{ThresholdSec: 60, PollIntervalMs: 5}, idle)
	require.NoError(t, err)
	defer s.Close()

	assert.Equal(t, "idle", s.Name())
	assert.True(t, s.Visible())
	ch, _ := s.Subscribe()

	idleMs.Store(61_000)
	assert.False(t, receive(t, ch))

	idleMs.Store(10)
	assert.True(t, receive(t, ch))
}

func TestIdle_ErrorsKeepState(t *testing.T) {
	idle := func(ctx context.Context) (time.Duration, error) {
		return 0, errors.New("no display")
	}

	s, err := NewIdle(context.Background(), IdleConfig{ThresholdSec: 1, PollIntervalMs: 5}, idle)
	require.NoError(t, err)
	time.Sleep(20 * time.Millisecond)
	assert.True(t, s.Visible())
	require.NoError(t, s.Close())
}

func TestParseIdleMillis(t *testing.T) {
	tests := []struct {
		output   string
		expected time.Duration
		wantErr  bool
	}{
		{output: "1500\n", expected: 1500 * time.Millisecond},
		{output: "0", expected: 0},
		{output: "-5", expected: 0},
		{output: "abc", wantErr: true},
		{output: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.output, func(t *testing.T) {
			d, err := parseIdleMillis(tt.output)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, d)
		})
	}
}

func TestNewFromConfig(t *testing.T) {
	s, err := NewFromConfig(context.Background(), config.VisibilityConfig{Source: "manual"})
	require.NoError(t, err)
	assert.IsType(t, &Manual{}, s)

	_, err = NewFromConfig(context.Background(), config.VisibilityConfig{Source: "webcam"})
	assert.Error(t, err)

	_, err = NewFromConfig(context.Background(), config.VisibilityConfig{
		Source:   "idle",
		Settings: map[string]any{"threshold_sec": -5},
	})
	assert.Error(t, err)

	_, err = NewFromConfig(context.Background(), config.VisibilityConfig{
		Source:   "idle",
		Settings: map[string]any{"command": "definitely-not-installed-idle-tool"},
	})
	assert.Error(t, err)
}

package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pomotunev1 "github.com/osa030/pomotune/internal/api/pomotune/v1"
	"github.com/osa030/pomotune/internal/app/notification"
	"github.com/osa030/pomotune/internal/app/session/state"
	"github.com/osa030/pomotune/internal/domain/pomodoro"
	"github.com/osa030/pomotune/internal/domain/track"
	"github.com/osa030/pomotune/internal/infra/audio"
	"github.com/osa030/pomotune/internal/infra/config"
	"github.com/osa030/pomotune/internal/infra/cue"
	"github.com/osa030/pomotune/internal/infra/store"
	"github.com/osa030/pomotune/internal/infra/visibility"
)

const testConfig = `
timer:
  tick_interval_ms: 60000
catalog:
  sources:
    - type: http
      display_name: backend
      settings:
        base_url: https://api.example.com
audio:
  backend: none
store:
  driver: memory
`

type fakeCatalog struct {
	mu     sync.Mutex
	tracks []track.Track
	err    error
}

func (c *fakeCatalog) FetchTracks(ctx context.Context) ([]track.Track, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return nil, c.err
	}
	return append([]track.Track(nil), c.tracks...), nil
}

func (c *fakeCatalog) LastSource() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return ""
	}
	return "backend"
}

// fakeSource is a visibility source that cannot be set by clients.
type fakeSource struct {
	*visibility.Manual
}

func (fakeSource) Name() string { return "screensaver" }

type recordingStream struct {
	mu            sync.Mutex
	notifications []*pomotunev1.Notification
}

func (s *recordingStream) Send(n *pomotunev1.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifications = append(s.notifications, n)
	return nil
}

func (s *recordingStream) types() []pomotunev1.NotificationType {
	s.mu.Lock()
	defer s.mu.Unlock()
	var types []pomotunev1.NotificationType
	for _, n := range s.notifications {
		types = append(types, n.Type)
	}
	return types
}

func newTestManager(t *testing.T, mutate func(*config.Config), source visibility.Source) (*Manager, *fakeCatalog, *audio.Null) {
	t.Helper()
	cfg, err := config.Parse([]byte(testConfig))
	require.NoError(t, err)
	if mutate != nil {
		mutate(cfg)
	}
	if source == nil {
		source = visibility.NewManual(true)
	}

	catalog := &fakeCatalog{tracks: []track.Track{
		{ID: "1", Title: "Rainy Library", AudioURL: "https://cdn.example.com/1.mp3"},
		{ID: "2", Title: "Night Walk", AudioURL: "https://cdn.example.com/2.mp3"},
	}}
	backend := audio.NewNull()

	m := NewManager(cfg, Deps{
		Store:      store.NewMemory(),
		Cue:        cue.Null{},
		Audio:      backend,
		Catalog:    catalog,
		Visibility: source,
	})
	t.Cleanup(m.Close)
	return m, catalog, backend
}

func TestManager_StartLoadsCatalog(t *testing.T) {
	m, _, _ := newTestManager(t, nil, nil)
	require.NoError(t, m.Start(context.Background()))
	require.NoError(t, m.Start(context.Background()))

	assert.Eventually(t, func() bool {
		return m.Player().Snapshot().TrackCount == 2
	}, time.Second, 5*time.Millisecond)
	assert.Eventually(t, func() bool {
		return m.SessionInfo().CatalogSource == "backend"
	}, time.Second, 5*time.Millisecond)

	status := m.Status()
	assert.Equal(t, "focus", status.Timer.Mode)
	assert.Equal(t, "25:00", status.Timer.Clock)
	assert.True(t, status.Session.HostVisible)
	assert.Equal(t, "manual", status.Session.VisibilitySource)
	require.NotNil(t, status.Player.CurrentTrack)
	assert.Equal(t, "1", status.Player.CurrentTrack.Id)
	assert.False(t, status.Player.IsPlaying)
}

func TestManager_CatalogFailure(t *testing.T) {
	m, catalog, _ := newTestManager(t, nil, nil)
	catalog.err = errors.New("connection refused")

	err := m.ReloadCatalog(context.Background())
	require.Error(t, err)

	status := m.Status()
	assert.Equal(t, "catalog_fetch", status.Player.ErrorKind)
	assert.Equal(t, "failed to load songs", status.Player.Error)
	assert.Zero(t, status.Player.TrackCount)
	assert.Empty(t, status.Session.CatalogSource)

	catalog.mu.Lock()
	catalog.err = nil
	catalog.mu.Unlock()
	require.NoError(t, m.ReloadCatalog(context.Background()))
	assert.Empty(t, m.Status().Player.ErrorKind)
	assert.Equal(t, "backend", m.SessionInfo().CatalogSource)
}

func TestManager_BroadcastsTimerEvents(t *testing.T) {
	m, _, _ := newTestManager(t, nil, nil)
	stream := &recordingStream{}
	_, err := m.GetNotificationManager().Subscribe(stream, notification.WithoutTicks)
	require.NoError(t, err)
	require.NoError(t, m.Start(context.Background()))

	m.Timer().Start()
	m.Timer().SwitchMode(pomodoro.ModeShortBreak)

	assert.Eventually(t, func() bool {
		types := stream.types()
		return contains(types, pomotunev1.NotificationTypeTimerStateChanged) &&
			contains(types, pomotunev1.NotificationTypeTimerModeChanged)
	}, time.Second, 5*time.Millisecond)

	stream.mu.Lock()
	defer stream.mu.Unlock()
	for _, n := range stream.notifications {
		assert.NotZero(t, n.SequenceNo)
	}
}

func TestManager_VisibilityPausesTimer(t *testing.T) {
	m, _, _ := newTestManager(t, nil, nil)
	require.NoError(t, m.Start(context.Background()))

	m.Timer().Start()
	require.True(t, m.Timer().Snapshot().IsActive)

	require.NoError(t, m.ReportVisibility(false))
	assert.Eventually(t, func() bool {
		return !m.Timer().Snapshot().IsActive && !m.SessionInfo().HostVisible
	}, time.Second, 5*time.Millisecond)

	// Showing the host again does not resume the countdown
	require.NoError(t, m.ReportVisibility(true))
	assert.Eventually(t, func() bool {
		return m.SessionInfo().HostVisible
	}, time.Second, 5*time.Millisecond)
	assert.False(t, m.Timer().Snapshot().IsActive)
}

func TestManager_ReportVisibilityRequiresManualSource(t *testing.T) {
	m, _, _ := newTestManager(t, nil, fakeSource{visibility.NewManual(true)})

	err := m.ReportVisibility(false)
	assert.True(t, errors.Is(err, ErrVisibilityNotManual))
}

func TestManager_PauseMusicOnBreak(t *testing.T) {
	tests := []struct {
		name        string
		enabled     bool
		wantPlaying bool
	}{
		{name: "enabled", enabled: true, wantPlaying: false},
		{name: "disabled", enabled: false, wantPlaying: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _, _ := newTestManager(t, func(cfg *config.Config) {
				cfg.Integration.PauseMusicOnBreak = tt.enabled
			}, nil)
			require.NoError(t, m.ReloadCatalog(context.Background()))
			require.NoError(t, m.Start(context.Background()))

			m.Player().TogglePlay()
			require.True(t, m.Player().Snapshot().IsPlaying)

			_, err := m.ApplyTimerDefaults(pomodoro.Durations{Focus: 1, ShortBreak: 1, LongBreak: 1})
			require.NoError(t, err)
			m.Timer().Start()
			snap := m.Timer().Tick()
			require.Equal(t, pomodoro.ModeShortBreak, snap.Mode)

			if tt.wantPlaying {
				time.Sleep(50 * time.Millisecond)
				assert.True(t, m.Player().Snapshot().IsPlaying)
				return
			}
			assert.Eventually(t, func() bool {
				return !m.Player().Snapshot().IsPlaying
			}, time.Second, 5*time.Millisecond)
		})
	}
}

func TestManager_ApplyConfig(t *testing.T) {
	m, _, _ := newTestManager(t, nil, nil)

	cfg, err := config.Parse([]byte(testConfig + `
integration:
  pause_music_on_break: true
`))
	require.NoError(t, err)
	m.ApplyConfig(cfg)
	assert.Equal(t, 1500, m.Timer().Durations().Focus)
	assert.True(t, m.pauseMusicOnBreak())

	cfg2, err := config.Parse([]byte(`
timer:
  focus_sec: 3000
catalog:
  sources:
    - type: local
      display_name: music
      settings:
        dir: /music
`))
	require.NoError(t, err)
	m.ApplyConfig(cfg2)
	assert.Equal(t, 3000, m.Timer().Durations().Focus)
	assert.Equal(t, 3000, m.Timer().Snapshot().TimeLeft)
}

func TestManager_InitialStateAndClose(t *testing.T) {
	m, _, _ := newTestManager(t, nil, nil)
	require.NoError(t, m.Start(context.Background()))

	n := m.InitialState()
	assert.Equal(t, pomotunev1.NotificationTypeInitialState, n.Type)
	assert.NotNil(t, n.Timer)
	assert.NotNil(t, n.Player)
	assert.NotNil(t, n.Session)

	m.Close()
	m.Close()
	assert.Equal(t, state.PhaseStopped, m.stateMgr.GetPhase())
	assert.ErrorIs(t, m.Start(context.Background()), ErrSessionClosed)
}

func contains(types []pomotunev1.NotificationType, want pomotunev1.NotificationType) bool {
	for _, t := range types {
		if t == want {
			return true
		}
	}
	return false
}

package connect

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pomotunev1 "github.com/osa030/pomotune/internal/api/pomotune/v1"
	"github.com/osa030/pomotune/internal/api/pomotune/v1/pomotunev1connect"
	"github.com/osa030/pomotune/internal/app/session"
	"github.com/osa030/pomotune/internal/domain/track"
	"github.com/osa030/pomotune/internal/infra/audio"
	"github.com/osa030/pomotune/internal/infra/config"
	"github.com/osa030/pomotune/internal/infra/cue"
	"github.com/osa030/pomotune/internal/infra/store"
	"github.com/osa030/pomotune/internal/infra/visibility"
)

const (
	testToken  = "secret"
	testConfig = `
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
)

type fakeCatalog struct {
	mu     sync.Mutex
	tracks []track.Track
}

func (c *fakeCatalog) FetchTracks(ctx context.Context) ([]track.Track, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]track.Track(nil), c.tracks...), nil
}

func (c *fakeCatalog) LastSource() string { return "backend" }

type screensaverSource struct {
	*visibility.Manual
}

func (screensaverSource) Name() string { return "screensaver" }

type testClients struct {
	timer   *pomotunev1connect.TimerServiceClient
	player  *pomotunev1connect.PlayerServiceClient
	session *pomotunev1connect.SessionServiceClient
	manager *session.Manager
	url     string
}

func newTestServer(t *testing.T, source visibility.Source) *testClients {
	t.Helper()
	cfg, err := config.Parse([]byte(testConfig))
	require.NoError(t, err)
	if source == nil {
		source = visibility.NewManual(true)
	}

	m := session.NewManager(cfg, session.Deps{
		Store: store.NewMemory(),
		Cue:   cue.Null{},
		Audio: audio.NewNull(),
		Catalog: &fakeCatalog{tracks: []track.Track{
			{ID: "1", Title: "Rainy Library", AudioURL: "https://cdn.example.com/1.mp3"},
			{ID: "2", Title: "Night Walk", AudioURL: "https://cdn.example.com/2.mp3"},
		}},
		Visibility: source,
	})
	t.Cleanup(m.Close)

	interceptors := connect.WithInterceptors(NewAuthInterceptor(testToken))
	mux := http.NewServeMux()
	mux.Handle(pomotunev1connect.NewTimerServiceHandler(NewTimerService(m), interceptors))
	mux.Handle(pomotunev1connect.NewPlayerServiceHandler(NewPlayerService(m), interceptors))
	mux.Handle(pomotunev1connect.NewSessionServiceHandler(NewSessionService(m), interceptors))

	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)

	return &testClients{
		timer:   pomotunev1connect.NewTimerServiceClient(ts.Client(), ts.URL, interceptors),
		player:  pomotunev1connect.NewPlayerServiceClient(ts.Client(), ts.URL, interceptors),
		session: pomotunev1connect.NewSessionServiceClient(ts.Client(), ts.URL, interceptors),
		manager: m,
		url:     ts.URL,
	}
}

func empty() *connect.Request[pomotunev1.Empty] {
	return connect.NewRequest(&pomotunev1.Empty{})
}

func TestAuthInterceptor(t *testing.T) {
	c := newTestServer(t, nil)
	ctx := context.Background()

	tests := []struct {
		name     string
		opts     []connect.ClientOption
		wantCode connect.Code
	}{
		{name: "missing token", wantCode: connect.CodeUnauthenticated},
		{
			name:     "wrong token",
			opts:     []connect.ClientOption{connect.WithInterceptors(NewAuthInterceptor("nope"))},
			wantCode: connect.CodeUnauthenticated,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := pomotunev1connect.NewTimerServiceClient(http.DefaultClient, c.url, tt.opts...)
			_, err := client.GetTimer(ctx, empty())
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, connect.CodeOf(err))
		})
	}

	t.Run("valid token", func(t *testing.T) {
		resp, err := c.timer.GetTimer(ctx, empty())
		require.NoError(t, err)
		assert.Equal(t, "focus", resp.Msg.Timer.Mode)
	})
}

func TestAuthInterceptor_EmptyTokenDisablesCheck(t *testing.T) {
	i := NewAuthInterceptor("")
	assert.True(t, i.valid(""))
	assert.True(t, i.valid("anything"))

	i = NewAuthInterceptor(testToken)
	assert.False(t, i.valid(""))
	assert.True(t, i.valid(testToken))
}

func TestTimerService(t *testing.T) {
	c := newTestServer(t, nil)
	ctx := context.Background()

	resp, err := c.timer.Start(ctx, empty())
	require.NoError(t, err)
	assert.True(t, resp.Msg.Timer.IsActive)

	resp, err = c.timer.Pause(ctx, empty())
	require.NoError(t, err)
	assert.False(t, resp.Msg.Timer.IsActive)

	resp, err = c.timer.SwitchMode(ctx, connect.NewRequest(&pomotunev1.SwitchModeRequest{Mode: "longBreak"}))
	require.NoError(t, err)
	assert.Equal(t, "long_break", resp.Msg.Timer.Mode)
	assert.Equal(t, int32(900), resp.Msg.Timer.TimeLeft)

	resp, err = c.timer.Skip(ctx, empty())
	require.NoError(t, err)
	assert.Equal(t, "focus", resp.Msg.Timer.Mode)

	resp, err = c.timer.UpdateSettings(ctx, connect.NewRequest(&pomotunev1.UpdateSettingsRequest{
		Durations: &pomotunev1.Durations{FocusSec: 600, ShortBreakSec: 120, LongBreakSec: 600},
	}))
	require.NoError(t, err)
	assert.Equal(t, int32(600), resp.Msg.Timer.TimeLeft)
	assert.Equal(t, "10:00", resp.Msg.Timer.Clock)

	resp, err = c.timer.Reset(ctx, empty())
	require.NoError(t, err)
	assert.Equal(t, int32(600), resp.Msg.Timer.TimeLeft)
}

func TestTimerService_InvalidArguments(t *testing.T) {
	c := newTestServer(t, nil)
	ctx := context.Background()

	_, err := c.timer.SwitchMode(ctx, connect.NewRequest(&pomotunev1.SwitchModeRequest{Mode: "lunch"}))
	require.Error(t, err)
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))

	_, err = c.timer.UpdateSettings(ctx, connect.NewRequest(&pomotunev1.UpdateSettingsRequest{}))
	require.Error(t, err)
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))

	_, err = c.timer.UpdateSettings(ctx, connect.NewRequest(&pomotunev1.UpdateSettingsRequest{
		Durations: &pomotunev1.Durations{FocusSec: 0, ShortBreakSec: 300, LongBreakSec: 900},
	}))
	require.Error(t, err)
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))
}

func TestPlayerService(t *testing.T) {
	c := newTestServer(t, nil)
	ctx := context.Background()

	resp, err := c.player.ReloadCatalog(ctx, empty())
	require.NoError(t, err)
	assert.Equal(t, int32(2), resp.Msg.Player.TrackCount)
	require.NotNil(t, resp.Msg.Player.CurrentTrack)
	assert.Equal(t, "1", resp.Msg.Player.CurrentTrack.Id)

	list, err := c.player.ListTracks(ctx, empty())
	require.NoError(t, err)
	require.Len(t, list.Msg.Tracks, 2)
	assert.Equal(t, "Night Walk", list.Msg.Tracks[1].Title)

	resp, err = c.player.PlayTrack(ctx, connect.NewRequest(&pomotunev1.PlayTrackRequest{TrackId: "2"}))
	require.NoError(t, err)
	assert.Equal(t, "2", resp.Msg.Player.CurrentTrack.Id)
	assert.True(t, resp.Msg.Player.IsPlaying)

	resp, err = c.player.Next(ctx, empty())
	require.NoError(t, err)
	assert.Equal(t, "1", resp.Msg.Player.CurrentTrack.Id)

	resp, err = c.player.Previous(ctx, empty())
	require.NoError(t, err)
	assert.Equal(t, "2", resp.Msg.Player.CurrentTrack.Id)

	resp, err = c.player.TogglePlay(ctx, empty())
	require.NoError(t, err)
	assert.False(t, resp.Msg.Player.IsPlaying)

	resp, err = c.player.SetVolume(ctx, connect.NewRequest(&pomotunev1.SetVolumeRequest{Volume: 1.5}))
	require.NoError(t, err)
	assert.Equal(t, 1.0, resp.Msg.Player.Volume)

	resp, err = c.player.Pause(ctx, empty())
	require.NoError(t, err)
	assert.False(t, resp.Msg.Player.IsPlaying)

	resp, err = c.player.DismissError(ctx, empty())
	require.NoError(t, err)
	assert.Empty(t, resp.Msg.Player.ErrorKind)

	_, err = c.player.PlayTrack(ctx, connect.NewRequest(&pomotunev1.PlayTrackRequest{TrackId: "missing"}))
	require.Error(t, err)
	assert.Equal(t, connect.CodeNotFound, connect.CodeOf(err))
}

func TestSessionService_ReportVisibility(t *testing.T) {
	c := newTestServer(t, nil)
	ctx := context.Background()

	_, err := c.timer.Start(ctx, empty())
	require.NoError(t, err)

	resp, err := c.session.ReportVisibility(ctx, connect.NewRequest(&pomotunev1.ReportVisibilityRequest{Visible: false}))
	require.NoError(t, err)
	assert.False(t, resp.Msg.Session.HostVisible)
	assert.False(t, resp.Msg.Timer.IsActive)

	status, err := c.session.GetStatus(ctx, empty())
	require.NoError(t, err)
	assert.Equal(t, "manual", status.Msg.Session.VisibilitySource)
	assert.NotEmpty(t, status.Msg.Session.SessionId)
}

func TestSessionService_ReportVisibilityNotManual(t *testing.T) {
	c := newTestServer(t, screensaverSource{visibility.NewManual(true)})

	_, err := c.session.ReportVisibility(context.Background(), connect.NewRequest(&pomotunev1.ReportVisibilityRequest{Visible: false}))
	require.Error(t, err)
	assert.Equal(t, connect.CodeFailedPrecondition, connect.CodeOf(err))
}

func TestSessionService_Subscribe(t *testing.T) {
	c := newTestServer(t, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	stream, err := c.session.Subscribe(ctx, connect.NewRequest(&pomotunev1.SubscribeRequest{}))
	require.NoError(t, err)
	defer stream.Close()

	require.True(t, stream.Receive(), "initial state: %v", stream.Err())
	initial := stream.Msg()
	assert.Equal(t, pomotunev1.NotificationTypeInitialState, initial.Type)
	assert.NotNil(t, initial.Timer)
	assert.NotNil(t, initial.Player)
	assert.NotNil(t, initial.Session)

	notifManager := c.manager.GetNotificationManager()
	require.Eventually(t, func() bool {
		return notifManager.SubscriberCount() == 1
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, c.manager.Start(ctx))
	_, err = c.timer.Start(ctx, empty())
	require.NoError(t, err)

	for stream.Receive() {
		n := stream.Msg()
		assert.NotEqual(t, initial.SequenceNo, n.SequenceNo)
		if n.Type == pomotunev1.NotificationTypeTimerStateChanged {
			assert.True(t, n.Timer.IsActive)
			return
		}
	}
	t.Fatalf("stream ended before timer state change: %v", stream.Err())
}

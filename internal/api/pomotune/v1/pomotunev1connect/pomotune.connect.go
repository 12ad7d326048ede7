// Package pomotunev1connect holds the Connect handlers and clients for the pomotune v1 API.
package pomotunev1connect

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	v1 "github.com/osa030/pomotune/internal/api/pomotune/v1"
)

const (
	// TimerServiceName is the fully-qualified name of the TimerService service.
	TimerServiceName = "pomotune.v1.TimerService"
	// PlayerServiceName is the fully-qualified name of the PlayerService service.
	PlayerServiceName = "pomotune.v1.PlayerService"
	// SessionServiceName is the fully-qualified name of the SessionService service.
	SessionServiceName = "pomotune.v1.SessionService"
)

// Procedure paths.
const (
	TimerServiceGetTimerProcedure       = "/pomotune.v1.TimerService/GetTimer"
	TimerServiceStartProcedure          = "/pomotune.v1.TimerService/Start"
	TimerServicePauseProcedure          = "/pomotune.v1.TimerService/Pause"
	TimerServiceResetProcedure          = "/pomotune.v1.TimerService/Reset"
	TimerServiceSkipProcedure           = "/pomotune.v1.TimerService/Skip"
	TimerServiceSwitchModeProcedure     = "/pomotune.v1.TimerService/SwitchMode"
	TimerServiceUpdateSettingsProcedure = "/pomotune.v1.TimerService/UpdateSettings"

	PlayerServiceGetPlayerProcedure     = "/pomotune.v1.PlayerService/GetPlayer"
	PlayerServiceListTracksProcedure    = "/pomotune.v1.PlayerService/ListTracks"
	PlayerServicePlayTrackProcedure     = "/pomotune.v1.PlayerService/PlayTrack"
	PlayerServiceTogglePlayProcedure    = "/pomotune.v1.PlayerService/TogglePlay"
	PlayerServiceNextProcedure          = "/pomotune.v1.PlayerService/Next"
	PlayerServicePreviousProcedure      = "/pomotune.v1.PlayerService/Previous"
	PlayerServicePauseProcedure         = "/pomotune.v1.PlayerService/Pause"
	PlayerServiceSetVolumeProcedure     = "/pomotune.v1.PlayerService/SetVolume"
	PlayerServiceDismissErrorProcedure  = "/pomotune.v1.PlayerService/DismissError"
	PlayerServiceReloadCatalogProcedure = "/pomotune.v1.PlayerService/ReloadCatalog"

	SessionServiceGetStatusProcedure        = "/pomotune.v1.SessionService/GetStatus"
	SessionServiceReportVisibilityProcedure = "/pomotune.v1.SessionService/ReportVisibility"
	SessionServiceSubscribeProcedure        = "/pomotune.v1.SessionService/Subscribe"
)

// withCodec prepends the JSON codec so callers can still override it.
func withCodec[T any](opts []T, codec T) []T {
	return append([]T{codec}, opts...)
}

func handlerOptions(opts []connect.HandlerOption) []connect.HandlerOption {
	return withCodec(opts, connect.HandlerOption(connect.WithCodec(v1.JSONCodec{})))
}

func clientOptions(opts []connect.ClientOption) []connect.ClientOption {
	return withCodec(opts, connect.ClientOption(connect.WithCodec(v1.JSONCodec{})))
}

// serviceMux routes procedures of one service to their handlers.
type serviceMux map[string]http.Handler

func (m serviceMux) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h, ok := m[r.URL.Path]; ok {
		h.ServeHTTP(w, r)
		return
	}
	http.NotFound(w, r)
}

func servicePath(name string) string {
	return "/" + strings.TrimPrefix(name, "/") + "/"
}

// ---------------------------------------------------------------------------
// TimerService

// TimerServiceHandler is implemented by a TimerService server.
type TimerServiceHandler interface {
	GetTimer(context.Context, *connect.Request[v1.Empty]) (*connect.Response[v1.TimerResponse], error)
	Start(context.Context, *connect.Request[v1.Empty]) (*connect.Response[v1.TimerResponse], error)
	Pause(context.Context, *connect.Request[v1.Empty]) (*connect.Response[v1.TimerResponse], error)
	Reset(context.Context, *connect.Request[v1.Empty]) (*connect.Response[v1.TimerResponse], error)
	Skip(context.Context, *connect.Request[v1.Empty]) (*connect.Response[v1.TimerResponse], error)
	SwitchMode(context.Context, *connect.Request[v1.SwitchModeRequest]) (*connect.Response[v1.TimerResponse], error)
	UpdateSettings(context.Context, *connect.Request[v1.UpdateSettingsRequest]) (*connect.Response[v1.TimerResponse], error)
}

// NewTimerServiceHandler builds an HTTP handler from the service implementation.
// It returns the path on which to mount the handler and the handler itself.
func NewTimerServiceHandler(svc TimerServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	return servicePath(TimerServiceName), serviceMux{
		TimerServiceGetTimerProcedure:       connect.NewUnaryHandler(TimerServiceGetTimerProcedure, svc.GetTimer, opts...),
		TimerServiceStartProcedure:          connect.NewUnaryHandler(TimerServiceStartProcedure, svc.Start, opts...),
		TimerServicePauseProcedure:          connect.NewUnaryHandler(TimerServicePauseProcedure, svc.Pause, opts...),
		TimerServiceResetProcedure:          connect.NewUnaryHandler(TimerServiceResetProcedure, svc.Reset, opts...),
		TimerServiceSkipProcedure:           connect.NewUnaryHandler(TimerServiceSkipProcedure, svc.Skip, opts...),
		TimerServiceSwitchModeProcedure:     connect.NewUnaryHandler(TimerServiceSwitchModeProcedure, svc.SwitchMode, opts...),
		TimerServiceUpdateSettingsProcedure: connect.NewUnaryHandler(TimerServiceUpdateSettingsProcedure, svc.UpdateSettings, opts...),
	}
}

// TimerServiceClient is a client for the TimerService service.
type TimerServiceClient struct {
	getTimer       *connect.Client[v1.Empty, v1.TimerResponse]
	start          *connect.Client[v1.Empty, v1.TimerResponse]
	pause          *connect.Client[v1.Empty, v1.TimerResponse]
	reset          *connect.Client[v1.Empty, v1.TimerResponse]
	skip           *connect.Client[v1.Empty, v1.TimerResponse]
	switchMode     *connect.Client[v1.SwitchModeRequest, v1.TimerResponse]
	updateSettings *connect.Client[v1.UpdateSettingsRequest, v1.TimerResponse]
}

// NewTimerServiceClient constructs a client for the TimerService service.
func NewTimerServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *TimerServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = clientOptions(opts)
	return &TimerServiceClient{
		getTimer:       connect.NewClient[v1.Empty, v1.TimerResponse](httpClient, baseURL+TimerServiceGetTimerProcedure, opts...),
		start:          connect.NewClient[v1.Empty, v1.TimerResponse](httpClient, baseURL+TimerServiceStartProcedure, opts...),
		pause:          connect.NewClient[v1.Empty, v1.TimerResponse](httpClient, baseURL+TimerServicePauseProcedure, opts...),
		reset:          connect.NewClient[v1.Empty, v1.TimerResponse](httpClient, baseURL+TimerServiceResetProcedure, opts...),
		skip:           connect.NewClient[v1.Empty, v1.TimerResponse](httpClient, baseURL+TimerServiceSkipProcedure, opts...),
		switchMode:     connect.NewClient[v1.SwitchModeRequest, v1.TimerResponse](httpClient, baseURL+TimerServiceSwitchModeProcedure, opts...),
		updateSettings: connect.NewClient[v1.UpdateSettingsRequest, v1.TimerResponse](httpClient, baseURL+TimerServiceUpdateSettingsProcedure, opts...),
	}
}

// GetTimer calls pomotune.v1.TimerService.GetTimer.
func (c *TimerServiceClient) GetTimer(ctx context.Context, req *connect.Request[v1.Empty]) (*connect.Response[v1.TimerResponse], error) {
	return c.getTimer.CallUnary(ctx, req)
}

// Start calls pomotune.v1.TimerService.Start.
func (c *TimerServiceClient) Start(ctx context.Context, req *connect.Request[v1.Empty]) (*connect.Response[v1.TimerResponse], error) {
	return c.start.CallUnary(ctx, req)
}

// Pause calls pomotune.v1.TimerService.Pause.
func (c *TimerServiceClient) Pause(ctx context.Context, req *connect.Request[v1.Empty]) (*connect.Response[v1.TimerResponse], error) {
	return c.pause.CallUnary(ctx, req)
}

// Reset calls pomotune.v1.TimerService.Reset.
func (c *TimerServiceClient) Reset(ctx context.Context, req *connect.Request[v1.Empty]) (*connect.Response[v1.TimerResponse], error) {
	return c.reset.CallUnary(ctx, req)
}

// Skip calls pomotune.v1.TimerService.Skip.
func (c *TimerServiceClient) Skip(ctx context.Context, req *connect.Request[v1.Empty]) (*connect.Response[v1.TimerResponse], error) {
	return c.skip.CallUnary(ctx, req)
}

// SwitchMode calls pomotune.v1.TimerService.SwitchMode.
func (c *TimerServiceClient) SwitchMode(ctx context.Context, req *connect.Request[v1.SwitchModeRequest]) (*connect.Response[v1.TimerResponse], error) {
	return c.switchMode.CallUnary(ctx, req)
}

// UpdateSettings calls pomotune.v1.TimerService.UpdateSettings.
func (c *TimerServiceClient) UpdateSettings(ctx context.Context, req *connect.Request[v1.UpdateSettingsRequest]) (*connect.Response[v1.TimerResponse], error) {
	return c.updateSettings.CallUnary(ctx, req)
}

// ---------------------------------------------------------------------------
// PlayerService

// PlayerServiceHandler is implemented by a PlayerService server.
type PlayerServiceHandler interface {
	GetPlayer(context.Context, *connect.Request[v1.Empty]) (*connect.Response[v1.PlayerResponse], error)
	ListTracks(context.Context, *connect.Request[v1.Empty]) (*connect.Response[v1.ListTracksResponse], error)
	PlayTrack(context.Context, *connect.Request[v1.PlayTrackRequest]) (*connect.Response[v1.PlayerResponse], error)
	TogglePlay(context.Context, *connect.Request[v1.Empty]) (*connect.Response[v1.PlayerResponse], error)
	Next(context.Context, *connect.Request[v1.Empty]) (*connect.Response[v1.PlayerResponse], error)
	Previous(context.Context, *connect.Request[v1.Empty]) (*connect.Response[v1.PlayerResponse], error)
	Pause(context.Context, *connect.Request[v1.Empty]) (*connect.Response[v1.PlayerResponse], error)
	SetVolume(context.Context, *connect.Request[v1.SetVolumeRequest]) (*connect.Response[v1.PlayerResponse], error)
	DismissError(context.Context, *connect.Request[v1.Empty]) (*connect.Response[v1.PlayerResponse], error)
	ReloadCatalog(context.Context, *connect.Request[v1.Empty]) (*connect.Response[v1.PlayerResponse], error)
}

// NewPlayerServiceHandler builds an HTTP handler from the service implementation.
func NewPlayerServiceHandler(svc PlayerServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	return servicePath(PlayerServiceName), serviceMux{
		PlayerServiceGetPlayerProcedure:     connect.NewUnaryHandler(PlayerServiceGetPlayerProcedure, svc.GetPlayer, opts...),
		PlayerServiceListTracksProcedure:    connect.NewUnaryHandler(PlayerServiceListTracksProcedure, svc.ListTracks, opts...),
		PlayerServicePlayTrackProcedure:     connect.NewUnaryHandler(PlayerServicePlayTrackProcedure, svc.PlayTrack, opts...),
		PlayerServiceTogglePlayProcedure:    connect.NewUnaryHandler(PlayerServiceTogglePlayProcedure, svc.TogglePlay, opts...),
		PlayerServiceNextProcedure:          connect.NewUnaryHandler(PlayerServiceNextProcedure, svc.Next, opts...),
		PlayerServicePreviousProcedure:      connect.NewUnaryHandler(PlayerServicePreviousProcedure, svc.Previous, opts...),
		PlayerServicePauseProcedure:         connect.NewUnaryHandler(PlayerServicePauseProcedure, svc.Pause, opts...),
		PlayerServiceSetVolumeProcedure:     connect.NewUnaryHandler(PlayerServiceSetVolumeProcedure, svc.SetVolume, opts...),
		PlayerServiceDismissErrorProcedure:  connect.NewUnaryHandler(PlayerServiceDismissErrorProcedure, svc.DismissError, opts...),
		PlayerServiceReloadCatalogProcedure: connect.NewUnaryHandler(PlayerServiceReloadCatalogProcedure, svc.ReloadCatalog, opts...),
	}
}

// PlayerServiceClient is a client for the PlayerService service.
type PlayerServiceClient struct {
	getPlayer     *connect.Client[v1.Empty, v1.PlayerResponse]
	listTracks    *connect.Client[v1.Empty, v1.ListTracksResponse]
	playTrack     *connect.Client[v1.PlayTrackRequest, v1.PlayerResponse]
	togglePlay    *connect.Client[v1.Empty, v1.PlayerResponse]
	next          *connect.Client[v1.Empty, v1.PlayerResponse]
	previous      *connect.Client[v1.Empty, v1.PlayerResponse]
	pause         *connect.Client[v1.Empty, v1.PlayerResponse]
	setVolume     *connect.Client[v1.SetVolumeRequest, v1.PlayerResponse]
	dismissError  *connect.Client[v1.Empty, v1.PlayerResponse]
	reloadCatalog *connect.Client[v1.Empty, v1.PlayerResponse]
}

// NewPlayerServiceClient constructs a client for the PlayerService service.
func NewPlayerServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *PlayerServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = clientOptions(opts)
	return &PlayerServiceClient{
		getPlayer:     connect.NewClient[v1.Empty, v1.PlayerResponse](httpClient, baseURL+PlayerServiceGetPlayerProcedure, opts...),
		listTracks:    connect.NewClient[v1.Empty, v1.ListTracksResponse](httpClient, baseURL+PlayerServiceListTracksProcedure, opts...),
		playTrack:     connect.NewClient[v1.PlayTrackRequest, v1.PlayerResponse](httpClient, baseURL+PlayerServicePlayTrackProcedure, opts...),
		togglePlay:    connect.NewClient[v1.Empty, v1.PlayerResponse](httpClient, baseURL+PlayerServiceTogglePlayProcedure, opts...),
		next:          connect.NewClient[v1.Empty, v1.PlayerResponse](httpClient, baseURL+PlayerServiceNextProcedure, opts...),
		previous:      connect.NewClient[v1.Empty, v1.PlayerResponse](httpClient, baseURL+PlayerServicePreviousProcedure, opts...),
		pause:         connect.NewClient[v1.Empty, v1.PlayerResponse](httpClient, baseURL+PlayerServicePauseProcedure, opts...),
		setVolume:     connect.NewClient[v1.SetVolumeRequest, v1.PlayerResponse](httpClient, baseURL+PlayerServiceSetVolumeProcedure, opts...),
		dismissError:  connect.NewClient[v1.Empty, v1.PlayerResponse](httpClient, baseURL+PlayerServiceDismissErrorProcedure, opts...),
		reloadCatalog: connect.NewClient[v1.Empty, v1.PlayerResponse](httpClient, baseURL+PlayerServiceReloadCatalogProcedure, opts...),
	}
}

// GetPlayer calls pomotune.v1.PlayerService.GetPlayer.
func (c *PlayerServiceClient) GetPlayer(ctx context.Context, req *connect.Request[v1.Empty]) (*connect.Response[v1.PlayerResponse], error) {
	return c.getPlayer.CallUnary(ctx, req)
}

// ListTracks calls pomotune.v1.PlayerService.ListTracks.
func (c *PlayerServiceClient) ListTracks(ctx context.Context, req *connect.Request[v1.Empty]) (*connect.Response[v1.ListTracksResponse], error) {
	return c.listTracks.CallUnary(ctx, req)
}

// PlayTrack calls pomotune.v1.PlayerService.PlayTrack.
func (c *PlayerServiceClient) PlayTrack(ctx context.Context, req *connect.Request[v1.PlayTrackRequest]) (*connect.Response[v1.PlayerResponse], error) {
	return c.playTrack.CallUnary(ctx, req)
}

// TogglePlay calls pomotune.v1.PlayerService.TogglePlay.
func (c *PlayerServiceClient) TogglePlay(ctx context.Context, req *connect.Request[v1.Empty]) (*connect.Response[v1.PlayerResponse], error) {
	return c.togglePlay.CallUnary(ctx, req)
}

// Next calls pomotune.v1.PlayerService.Next.
func (c *PlayerServiceClient) Next(ctx context.Context, req *connect.Request[v1.Empty]) (*connect.Response[v1.PlayerResponse], error) {
	return c.next.CallUnary(ctx, req)
}

// Previous calls pomotune.v1.PlayerService.Previous.
func (c *PlayerServiceClient) Previous(ctx context.Context, req *connect.Request[v1.Empty]) (*connect.Response[v1.PlayerResponse], error) {
	return c.previous.CallUnary(ctx, req)
}

// Pause calls pomotune.v1.PlayerService.Pause.
func (c *PlayerServiceClient) Pause(ctx context.Context, req *connect.Request[v1.Empty]) (*connect.Response[v1.PlayerResponse], error) {
	return c.pause.CallUnary(ctx, req)
}

// SetVolume calls pomotune.v1.PlayerService.SetVolume.
func (c *PlayerServiceClient) SetVolume(ctx context.Context, req *connect.Request[v1.SetVolumeRequest]) (*connect.Response[v1.PlayerResponse], error) {
	return c.setVolume.CallUnary(ctx, req)
}

// DismissError calls pomotune.v1.PlayerService.DismissError.
func (c *PlayerServiceClient) DismissError(ctx context.Context, req *connect.Request[v1.Empty]) (*connect.Response[v1.PlayerResponse], error) {
	return c.dismissError.CallUnary(ctx, req)
}

// ReloadCatalog calls pomotune.v1.PlayerService.ReloadCatalog.
func (c *PlayerServiceClient) ReloadCatalog(ctx context.Context, req *connect.Request[v1.Empty]) (*connect.Response[v1.PlayerResponse], error) {
	return c.reloadCatalog.CallUnary(ctx, req)
}

// ---------------------------------------------------------------------------
// SessionService

// SessionServiceHandler is implemented by a SessionService server.
type SessionServiceHandler interface {
	GetStatus(context.Context, *connect.Request[v1.Empty]) (*connect.Response[v1.StatusResponse], error)
	ReportVisibility(context.Context, *connect.Request[v1.ReportVisibilityRequest]) (*connect.Response[v1.StatusResponse], error)
	Subscribe(context.Context, *connect.Request[v1.SubscribeRequest], *connect.ServerStream[v1.Notification]) error
}

// NewSessionServiceHandler builds an HTTP handler from the service implementation.
func NewSessionServiceHandler(svc SessionServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	return servicePath(SessionServiceName), serviceMux{
		SessionServiceGetStatusProcedure:        connect.NewUnaryHandler(SessionServiceGetStatusProcedure, svc.GetStatus, opts...),
		SessionServiceReportVisibilityProcedure: connect.NewUnaryHandler(SessionServiceReportVisibilityProcedure, svc.ReportVisibility, opts...),
		SessionServiceSubscribeProcedure:        connect.NewServerStreamHandler(SessionServiceSubscribeProcedure, svc.Subscribe, opts...),
	}
}

// SessionServiceClient is a client for the SessionService service.
type SessionServiceClient struct {
	getStatus        *connect.Client[v1.Empty, v1.StatusResponse]
	reportVisibility *connect.Client[v1.ReportVisibilityRequest, v1.StatusResponse]
	subscribe        *connect.Client[v1.SubscribeRequest, v1.Notification]
}

// NewSessionServiceClient constructs a client for the SessionService service.
func NewSessionServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *SessionServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = clientOptions(opts)
	return &SessionServiceClient{
		getStatus:        connect.NewClient[v1.Empty, v1.StatusResponse](httpClient, baseURL+SessionServiceGetStatusProcedure, opts...),
		reportVisibility: connect.NewClient[v1.ReportVisibilityRequest, v1.StatusResponse](httpClient, baseURL+SessionServiceReportVisibilityProcedure, opts...),
		subscribe:        connect.NewClient[v1.SubscribeRequest, v1.Notification](httpClient, baseURL+SessionServiceSubscribeProcedure, opts...),
	}
}

// GetStatus calls pomotune.v1.SessionService.GetStatus.
func (c *SessionServiceClient) GetStatus(ctx context.Context, req *connect.Request[v1.Empty]) (*connect.Response[v1.StatusResponse], error) {
	return c.getStatus.CallUnary(ctx, req)
}

// ReportVisibility calls pomotune.v1.SessionService.ReportVisibility.
func (c *SessionServiceClient) ReportVisibility(ctx context.Context, req *connect.Request[v1.ReportVisibilityRequest]) (*connect.Response[v1.StatusResponse], error) {
	return c.reportVisibility.CallUnary(ctx, req)
}

// Subscribe calls pomotune.v1.SessionService.Subscribe.
func (c *SessionServiceClient) Subscribe(ctx context.Context, req *connect.Request[v1.SubscribeRequest]) (*connect.ServerStreamForClient[v1.Notification], error) {
	return c.subscribe.CallServerStream(ctx, req)
}

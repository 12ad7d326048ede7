package connect

import (
	"context"

	"connectrpc.com/connect"

	pomotunev1 "github.com/osa030/pomotune/internal/api/pomotune/v1"
	"github.com/osa030/pomotune/internal/api/pomotune/v1/pomotunev1connect"
	"github.com/osa030/pomotune/internal/app/session"
	"github.com/osa030/pomotune/internal/app/timer"
	"github.com/osa030/pomotune/internal/domain/pomodoro"
)

// TimerService implements the TimerService RPC.
type TimerService struct {
	session *session.Manager
}

// NewTimerService creates a new TimerService.
func NewTimerService(session *session.Manager) *TimerService {
	return &TimerService{session: session}
}

// Ensure TimerService implements the interface.
var _ pomotunev1connect.TimerServiceHandler = (*TimerService)(nil)

// GetTimer returns the current timer state.
func (s *TimerService) GetTimer(
	ctx context.Context,
	req *connect.Request[pomotunev1.Empty],
) (*connect.Response[pomotunev1.TimerResponse], error) {
	return timerResponse(s.session.Timer().Snapshot()), nil
}

// Start starts the countdown.
func (s *TimerService) Start(
	ctx context.Context,
	req *connect.Request[pomotunev1.Empty],
) (*connect.Response[pomotunev1.TimerResponse], error) {
	return timerResponse(s.session.Timer().Start()), nil
}

// Pause pauses the countdown.
func (s *TimerService) Pause(
	ctx context.Context,
	req *connect.Request[pomotunev1.Empty],
) (*connect.Response[pomotunev1.TimerResponse], error) {
	return timerResponse(s.session.Timer().Pause()), nil
}

// Reset restores the full duration of the current mode.
func (s *TimerService) Reset(
	ctx context.Context,
	req *connect.Request[pomotunev1.Empty],
) (*connect.Response[pomotunev1.TimerResponse], error) {
	return timerResponse(s.session.Timer().Reset()), nil
}

// Skip moves to the next mode.
func (s *TimerService) Skip(
	ctx context.Context,
	req *connect.Request[pomotunev1.Empty],
) (*connect.Response[pomotunev1.TimerResponse], error) {
	return timerResponse(s.session.Timer().SkipToNext()), nil
}

// SwitchMode switches to the requested mode.
func (s *TimerService) SwitchMode(
	ctx context.Context,
	req *connect.Request[pomotunev1.SwitchModeRequest],
) (*connect.Response[pomotunev1.TimerResponse], error) {
	mode, err := pomodoro.ParseMode(req.Msg.Mode)
	if err != nil {
		return nil, toConnectError(err)
	}
	return timerResponse(s.session.Timer().SwitchMode(mode)), nil
}

// UpdateSettings replaces the durations. Missing or non-positive values are rejected.
func (s *TimerService) UpdateSettings(
	ctx context.Context,
	req *connect.Request[pomotunev1.UpdateSettingsRequest],
) (*connect.Response[pomotunev1.TimerResponse], error) {
	snap, err := s.session.ApplyTimerDefaults(session.ParseDurations(req.Msg.Durations))
	if err != nil {
		return nil, toConnectError(err)
	}
	return timerResponse(snap), nil
}

func timerResponse(snap timer.Snapshot) *connect.Response[pomotunev1.TimerResponse] {
	return connect.NewResponse(&pomotunev1.TimerResponse{Timer: session.BuildTimerState(snap)})
}

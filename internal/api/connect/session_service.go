package connect

import (
	"context"
	"sync"

	"connectrpc.com/connect"
	zlog "github.com/rs/zerolog/log"

	pomotunev1 "github.com/osa030/pomotune/internal/api/pomotune/v1"
	"github.com/osa030/pomotune/internal/api/pomotune/v1/pomotunev1connect"
	"github.com/osa030/pomotune/internal/app/notification"
	"github.com/osa030/pomotune/internal/app/session"
)

// SessionService implements the SessionService RPC.
type SessionService struct {
	session *session.Manager
}

// NewSessionService creates a new SessionService.
func NewSessionService(session *session.Manager) *SessionService {
	return &SessionService{session: session}
}

// Ensure SessionService implements the interface.
var _ pomotunev1connect.SessionServiceHandler = (*SessionService)(nil)

// GetStatus returns the full server state.
func (s *SessionService) GetStatus(
	ctx context.Context,
	req *connect.Request[pomotunev1.Empty],
) (*connect.Response[pomotunev1.StatusResponse], error) {
	return connect.NewResponse(s.session.Status()), nil
}

// ReportVisibility records whether the host view is visible.
func (s *SessionService) ReportVisibility(
	ctx context.Context,
	req *connect.Request[pomotunev1.ReportVisibilityRequest],
) (*connect.Response[pomotunev1.StatusResponse], error) {
	if err := s.session.ReportVisibility(req.Msg.Visible); err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(s.session.Status()), nil
}

// Subscribe sends the initial state and then streams notifications until the
// client goes away or the session closes.
func (s *SessionService) Subscribe(
	ctx context.Context,
	req *connect.Request[pomotunev1.SubscribeRequest],
	stream *connect.ServerStream[pomotunev1.Notification],
) error {
	notifManager := s.session.GetNotificationManager()
	adapter := &notificationStreamAdapter{stream: stream}

	initial := s.session.InitialState()
	initial.SequenceNo = notifManager.NextSequenceNo()
	if err := adapter.Send(initial); err != nil {
		return err
	}

	subscriptionID, err := notifManager.Subscribe(adapter, notification.TickFilter(req.Msg.IncludeTicks))
	if err != nil {
		return toConnectError(err)
	}
	defer notifManager.Unsubscribe(subscriptionID)
	zlog.Debug().Msgf("subscriber connected: id=%s ticks=%t", subscriptionID, req.Msg.IncludeTicks)

	select {
	case <-ctx.Done():
	case <-s.session.Done():
	}
	return nil
}

// notificationStreamAdapter adapts connect.ServerStream to notification.Stream.
// Broadcasts from different loops may overlap, so sends are serialized.
type notificationStreamAdapter struct {
	mu     sync.Mutex
	stream *connect.ServerStream[pomotunev1.Notification]
}

func (a *notificationStreamAdapter) Send(notification *pomotunev1.Notification) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stream.Send(notification)
}

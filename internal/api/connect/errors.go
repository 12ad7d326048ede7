package connect

import (
	"connectrpc.com/connect"
	"github.com/cockroachdb/errors"

	"github.com/osa030/pomotune/internal/app/notification"
	"github.com/osa030/pomotune/internal/app/playback"
	"github.com/osa030/pomotune/internal/app/session"
	"github.com/osa030/pomotune/internal/domain/pomodoro"
)

// toConnectError maps application errors to Connect codes.
func toConnectError(err error) error {
	switch {
	case errors.Is(err, pomodoro.ErrUnknownMode), errors.Is(err, pomodoro.ErrInvalidDurations):
		return connect.NewError(connect.CodeInvalidArgument, err)
	case errors.Is(err, playback.ErrTrackNotFound):
		return connect.NewError(connect.CodeNotFound, err)
	case errors.Is(err, session.ErrVisibilityNotManual):
		return connect.NewError(connect.CodeFailedPrecondition, err)
	case errors.Is(err, playback.ErrClosed), errors.Is(err, session.ErrSessionClosed),
		errors.Is(err, notification.ErrClosed):
		return connect.NewError(connect.CodeUnavailable, err)
	default:
		return connect.NewError(connect.CodeInternal, err)
	}
}

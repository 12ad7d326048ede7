package connect

import (
	"context"

	"connectrpc.com/connect"
	zlog "github.com/rs/zerolog/log"

	pomotunev1 "github.com/osa030/pomotune/internal/api/pomotune/v1"
	"github.com/osa030/pomotune/internal/api/pomotune/v1/pomotunev1connect"
	"github.com/osa030/pomotune/internal/app/playback"
	"github.com/osa030/pomotune/internal/app/session"
)

// PlayerService implements the PlayerService RPC.
type PlayerService struct {
	session *session.Manager
}

// NewPlayerService creates a new PlayerService.
func NewPlayerService(session *session.Manager) *PlayerService {
	return &PlayerService{session: session}
}

// Ensure PlayerService implements the interface.
var _ pomotunev1connect.PlayerServiceHandler = (*PlayerService)(nil)

// GetPlayer returns the current player state.
func (s *PlayerService) GetPlayer(
	ctx context.Context,
	req *connect.Request[pomotunev1.Empty],
) (*connect.Response[pomotunev1.PlayerResponse], error) {
	return playerResponse(s.session.Player().Snapshot()), nil
}

// ListTracks lists the playlist in order.
func (s *PlayerService) ListTracks(
	ctx context.Context,
	req *connect.Request[pomotunev1.Empty],
) (*connect.Response[pomotunev1.ListTracksResponse], error) {
	return connect.NewResponse(&pomotunev1.ListTracksResponse{
		Tracks: session.BuildTracks(s.session.Player().Tracks()),
	}), nil
}

// PlayTrack selects and starts the requested track.
func (s *PlayerService) PlayTrack(
	ctx context.Context,
	req *connect.Request[pomotunev1.PlayTrackRequest],
) (*connect.Response[pomotunev1.PlayerResponse], error) {
	snap, err := s.session.Player().PlayTrack(req.Msg.TrackId)
	if err != nil {
		return nil, toConnectError(err)
	}
	return playerResponse(snap), nil
}

// TogglePlay flips between playing and paused.
func (s *PlayerService) TogglePlay(
	ctx context.Context,
	req *connect.Request[pomotunev1.Empty],
) (*connect.Response[pomotunev1.PlayerResponse], error) {
	return playerResponse(s.session.Player().TogglePlay()), nil
}

// Next plays the next track.
func (s *PlayerService) Next(
	ctx context.Context,
	req *connect.Request[pomotunev1.Empty],
) (*connect.Response[pomotunev1.PlayerResponse], error) {
	return playerResponse(s.session.Player().PlayNext()), nil
}

// Previous plays the previous track.
func (s *PlayerService) Previous(
	ctx context.Context,
	req *connect.Request[pomotunev1.Empty],
) (*connect.Response[pomotunev1.PlayerResponse], error) {
	return playerResponse(s.session.Player().PlayPrevious()), nil
}

// Pause stops playback.
func (s *PlayerService) Pause(
	ctx context.Context,
	req *connect.Request[pomotunev1.Empty],
) (*connect.Response[pomotunev1.PlayerResponse], error) {
	return playerResponse(s.session.Player().Pause()), nil
}

// SetVolume sets the volume. Out-of-range values are clamped.
func (s *PlayerService) SetVolume(
	ctx context.Context,
	req *connect.Request[pomotunev1.SetVolumeRequest],
) (*connect.Response[pomotunev1.PlayerResponse], error) {
	return playerResponse(s.session.Player().SetVolume(req.Msg.Volume)), nil
}

// DismissError clears the error shown to the user.
func (s *PlayerService) DismissError(
	ctx context.Context,
	req *connect.Request[pomotunev1.Empty],
) (*connect.Response[pomotunev1.PlayerResponse], error) {
	return playerResponse(s.session.Player().DismissError()), nil
}

// ReloadCatalog fetches the catalog again. A fetch failure is reported
// through the player error state.
func (s *PlayerService) ReloadCatalog(
	ctx context.Context,
	req *connect.Request[pomotunev1.Empty],
) (*connect.Response[pomotunev1.PlayerResponse], error) {
	if err := s.session.ReloadCatalog(ctx); err != nil {
		zlog.Warn().Msgf("catalog reload failed: error=%v", err)
	}
	return playerResponse(s.session.Player().Snapshot()), nil
}

func playerResponse(snap playback.Snapshot) *connect.Response[pomotunev1.PlayerResponse] {
	return connect.NewResponse(&pomotunev1.PlayerResponse{Player: session.BuildPlayerState(snap)})
}

package watch

import (
	"context"

	"connectrpc.com/connect"

	pomotunev1 "github.com/osa030/pomotune/internal/api/pomotune/v1"
	"github.com/osa030/pomotune/internal/api/pomotune/v1/pomotunev1connect"
)

// Controller issues the commands bound to keys.
type Controller interface {
	StartTimer(ctx context.Context) error
	PauseTimer(ctx context.Context) error
	ResetTimer(ctx context.Context) error
	SkipTimer(ctx context.Context) error
	SwitchMode(ctx context.Context, mode string) error
	TogglePlay(ctx context.Context) error
	Next(ctx context.Context) error
	Previous(ctx context.Context) error
	SetVolume(ctx context.Context, volume float64) error
	DismissError(ctx context.Context) error
	ReportVisibility(ctx context.Context, visible bool) error
}

// Client talks to a pomotune server over Connect.
type Client struct {
	Timer   *pomotunev1connect.TimerServiceClient
	Player  *pomotunev1connect.PlayerServiceClient
	Session *pomotunev1connect.SessionServiceClient
}

// NewClient creates clients for all services at baseURL.
func NewClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *Client {
	return &Client{
		Timer:   pomotunev1connect.NewTimerServiceClient(httpClient, baseURL, opts...),
		Player:  pomotunev1connect.NewPlayerServiceClient(httpClient, baseURL, opts...),
		Session: pomotunev1connect.NewSessionServiceClient(httpClient, baseURL, opts...),
	}
}

var _ Controller = (*Client)(nil)

func empty() *connect.Request[pomotunev1.Empty] {
	return connect.NewRequest(&pomotunev1.Empty{})
}

func (c *Client) StartTimer(ctx context.Context) error {
	_, err := c.Timer.Start(ctx, empty())
	return err
}

func (c *Client) PauseTimer(ctx context.Context) error {
	_, err := c.Timer.Pause(ctx, empty())
	return err
}

func (c *Client) ResetTimer(ctx context.Context) error {
	_, err := c.Timer.Reset(ctx, empty())
	return err
}

func (c *Client) SkipTimer(ctx context.Context) error {
	_, err := c.Timer.Skip(ctx, empty())
	return err
}

func (c *Client) SwitchMode(ctx context.Context, mode string) error {
	_, err := c.Timer.SwitchMode(ctx, connect.NewRequest(&pomotunev1.SwitchModeRequest{Mode: mode}))
	return err
}

func (c *Client) TogglePlay(ctx context.Context) error {
	_, err := c.Player.TogglePlay(ctx, empty())
	return err
}

func (c *Client) Next(ctx context.Context) error {
	_, err := c.Player.Next(ctx, empty())
	return err
}

func (c *Client) Previous(ctx context.Context) error {
	_, err := c.Player.Previous(ctx, empty())
	return err
}

func (c *Client) SetVolume(ctx context.Context, volume float64) error {
	_, err := c.Player.SetVolume(ctx, connect.NewRequest(&pomotunev1.SetVolumeRequest{Volume: volume}))
	return err
}

func (c *Client) DismissError(ctx context.Context) error {
	_, err := c.Player.DismissError(ctx, empty())
	return err
}

func (c *Client) ReportVisibility(ctx context.Context, visible bool) error {
	_, err := c.Session.ReportVisibility(ctx, connect.NewRequest(&pomotunev1.ReportVisibilityRequest{Visible: visible}))
	return err
}

// Subscribe opens the notification stream and forwards messages to the
// returned channel. The channel is closed when the stream ends; the final
// stream error, if any, is then available on errc.
func (c *Client) Subscribe(ctx context.Context, includeTicks bool) (<-chan *pomotunev1.Notification, <-chan error) {
	ch := make(chan *pomotunev1.Notification, 16)
	errc := make(chan error, 1)

	go func() {
		defer close(ch)
		defer close(errc)

		stream, err := c.Session.Subscribe(ctx, connect.NewRequest(&pomotunev1.SubscribeRequest{IncludeTicks: includeTicks}))
		if err != nil {
			errc <- err
			return
		}
		defer stream.Close()

		for stream.Receive() {
			select {
			case ch <- stream.Msg():
			case <-ctx.Done():
				return
			}
		}
		if err := stream.Err(); err != nil && ctx.Err() == nil {
			errc <- err
		}
	}()

	return ch, errc
}

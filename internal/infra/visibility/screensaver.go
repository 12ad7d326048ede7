package visibility

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/godbus/dbus/v5"
	zlog "github.com/rs/zerolog/log"
)

const (
	screenSaverService   = "org.freedesktop.ScreenSaver"
	screenSaverPath      = "/org/freedesktop/ScreenSaver"
	screenSaverInterface = "org.freedesktop.ScreenSaver"
)

// ScreenSaver follows the freedesktop screensaver on the session bus.
// An active screensaver means the display is hidden.
type ScreenSaver struct {
	conn    *dbus.Conn
	signals chan *dbus.Signal
	hub     *hub
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewScreenSaver connects to the session bus and starts watching ActiveChanged.
func NewScreenSaver(ctx context.Context) (*ScreenSaver, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to session bus")
	}

	if err := conn.AddMatchSignal(
		dbus.WithMatchInterface(screenSaverInterface),
		dbus.WithMatchMember("ActiveChanged"),
	); err != nil {
		conn.Close()
		return nil, errors.Wrap(err, "failed to add match signal")
	}

	var active bool
	obj := conn.Object(screenSaverService, screenSaverPath)
	if err := obj.CallWithContext(ctx, screenSaverInterface+".GetActive", 0).Store(&active); err != nil {
		zlog.Warn().Msgf("screensaver: GetActive failed, assuming visible: error=%v", err)
		active = false
	}

	signals := make(chan *dbus.Signal, 10)
	conn.Signal(signals)

	ctx, cancel := context.WithCancel(ctx)
	s := &ScreenSaver{
		conn:    conn,
		signals: signals,
		hub:     newHub(!active),
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	go s.run(ctx)

	zlog.Info().Msgf("screensaver visibility source started: visible=%t", !active)
	return s, nil
}

func (s *ScreenSaver) run(ctx context.Context) {
	defer close(s.done)
	for {
		select {
		case <-ctx.Done():
			return
		case sig, ok := <-s.signals:
			if !ok {
				return
			}
			s.handleSignal(sig)
		}
	}
}

func (s *ScreenSaver) handleSignal(sig *dbus.Signal) {
	if sig == nil || sig.Name != screenSaverInterface+".ActiveChanged" || len(sig.Body) == 0 {
		return
	}
	active, ok := sig.Body[0].(bool)
	if !ok {
		return
	}
	zlog.Debug().Msgf("screensaver: active changed: active=%t", active)
	s.hub.set(!active)
}

func (s *ScreenSaver) Name() string {
	return "screensaver"
}

func (s *ScreenSaver) Visible() bool {
	return s.hub.get()
}

func (s *ScreenSaver) Subscribe() (<-chan bool, func()) {
	return s.hub.subscribe()
}

func (s *ScreenSaver) Close() error {
	s.cancel()
	<-s.done
	s.conn.RemoveSignal(s.signals)
	s.hub.close()
	return s.conn.Close()
}

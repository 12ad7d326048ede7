package audio

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/DexterLB/mpvipc"
	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/pomotune/internal/infra/config"
)

// MPV drives an mpv process over its JSON IPC socket.
type MPV struct {
	cmd        *exec.Cmd
	conn       *mpvipc.Connection
	socketPath string
	ended      endedHandlers

	// loads counts loadfile commands, started counts start-file events.
	// An end-file belongs to the latest load once its start-file was seen.
	loads   atomic.Uint64
	started atomic.Uint64

	stopEvents chan struct{}
	done       chan struct{}
}

// StartMPV spawns an idle mpv process and connects to it.
func StartMPV(ctx context.Context, cfg config.MPVConfig) (*MPV, error) {
	socketPath := cfg.SocketPath
	if socketPath == "" {
		socketPath = filepath.Join(os.TempDir(), "pomotune", "mpv-"+uuid.NewString()[:8]+".sock")
	}
	if err := os.MkdirAll(filepath.Dir(socketPath), 0o755); err != nil {
		return nil, errors.Wrap(err, "failed to make socket directory")
	}
	if err := os.RemoveAll(socketPath); err != nil {
		return nil, errors.Wrap(err, "failed to clean up socket")
	}

	args := []string{
		"--idle",
		"--quiet",
		"--pause",
		"--no-video",
		"--no-input-terminal",
		"--loop-playlist=no",
		"--input-ipc-server=" + socketPath,
		"--volume-max=100",
	}
	args = append(args, cfg.ExtraArgs...)

	cmd := exec.Command(cfg.Path, args...)
	cmd.Env = os.Environ()
	if err := cmd.Start(); err != nil {
		return nil, errors.Wrap(err, "failed to start mpv")
	}

	conn := mpvipc.NewConnection(socketPath)

	openCtx, cancel := context.WithTimeout(ctx, time.Duration(cfg.StartTimeoutSec)*time.Second)
	defer cancel()

	// Spin until mpv has created the socket
	var err error
	for {
		if err = conn.Open(); err == nil {
			break
		}
		if openCtx.Err() != nil {
			break
		}
		runtime.Gosched()
		time.Sleep(20 * time.Millisecond)
	}
	if err != nil {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
		return nil, errors.Wrap(err, "failed to open mpv connection")
	}

	for _, name := range []string{"start-file", "end-file"} {
		if _, err := conn.Call("enable_event", name); err != nil {
			conn.Close()
			_ = cmd.Process.Kill()
			_ = cmd.Wait()
			return nil, errors.Wrapf(err, "failed to enable %s event", name)
		}
	}

	events, stop := conn.NewEventListener()
	m := &MPV{
		cmd:        cmd,
		conn:       conn,
		socketPath: socketPath,
		stopEvents: stop,
		done:       make(chan struct{}),
	}
	go m.listen(events)

	zlog.Info().Msgf("mpv started: pid=%d socket=%s", cmd.Process.Pid, socketPath)
	return m, nil
}

func (m *MPV) listen(events chan *mpvipc.Event) {
	defer close(m.done)
	for {
		select {
		case event, ok := <-events:
			if !ok {
				return
			}
			m.dispatch(event)
		case <-m.stopEvents:
			return
		}
	}
}

// dispatch fires the ended handlers when the latest loaded file played to
// its end or failed to play. Files replaced by loadfile or stopped end with
// another reason and are ignored, as are files superseded by a newer load.
func (m *MPV) dispatch(event *mpvipc.Event) {
	if event == nil {
		return
	}
	switch event.Name {
	case "start-file":
		m.started.Add(1)
		return
	case "end-file":
	default:
		return
	}

	if m.started.Load() < m.loads.Load() {
		zlog.Debug().Msgf("mpv: ignoring end of replaced file: reason=%s", event.Reason)
		return
	}
	switch event.Reason {
	case "eof":
		m.ended.fire(nil)
	case "error":
		zlog.Warn().Msg("mpv: file ended with error")
		m.ended.fire(ErrPlayback)
	default:
		zlog.Debug().Msgf("mpv: file ended: reason=%s", event.Reason)
	}
}

// SetSource loads url paused. An empty url stops playback.
func (m *MPV) SetSource(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if url == "" {
		_, err := m.conn.Call("stop")
		return errors.Wrap(err, "mpv stop")
	}
	if err := m.conn.Set("pause", true); err != nil {
		return errors.Wrap(err, "mpv pause")
	}
	m.loads.Add(1)
	if _, err := m.conn.Call("loadfile", url, "replace"); err != nil {
		m.loads.Add(^uint64(0))
		return errors.Wrapf(err, "mpv loadfile %s", url)
	}
	return nil
}

func (m *MPV) Play(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return errors.Wrap(m.conn.Set("pause", false), "mpv resume")
}

func (m *MPV) Pause(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return errors.Wrap(m.conn.Set("pause", true), "mpv pause")
}

// SetVolume sets the volume in [0,1].
func (m *MPV) SetVolume(ctx context.Context, volume float64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return errors.Wrap(m.conn.Set("volume", volume*100), "mpv volume")
}

func (m *MPV) OnEnded(fn func(error)) func() {
	return m.ended.add(fn)
}

// Close stops mpv. The backend cannot be reused.
func (m *MPV) Close() error {
	if _, err := m.conn.Call("quit"); err != nil {
		zlog.Debug().Msgf("mpv quit failed: error=%v", err)
	}
	close(m.stopEvents)
	<-m.done
	m.conn.Close()

	waitErr := make(chan error, 1)
	go func() { waitErr <- m.cmd.Wait() }()
	select {
	case <-waitErr:
	case <-time.After(3 * time.Second):
		zlog.Warn().Msg("mpv did not exit, killing")
		_ = m.cmd.Process.Kill()
		<-waitErr
	}

	if err := os.Remove(m.socketPath); err != nil && !os.IsNotExist(err) {
		zlog.Debug().Msgf("failed to clean up socket: error=%v", err)
	}
	return nil
}

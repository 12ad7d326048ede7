package visibility

import (
	"context"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
)

// IdleConfig represents the settings of the idle visibility source.
type IdleConfig struct {
	ThresholdSec   int    `mapstructure:"threshold_sec" default:"300" validate:"gte=1"`
	PollIntervalMs int    `mapstructure:"poll_interval_ms" default:"2000" validate:"gte=100"`
	Command        string `mapstructure:"command" default:"xprintidle"`
}

// IdleFunc returns the time since the last user input.
type IdleFunc func(ctx context.Context) (time.Duration, error)

// Idle treats the display as hidden once the user has been idle for the threshold.
type Idle struct {
	config IdleConfig
	idle   IdleFunc
	hub    *hub
	cancel context.CancelFunc
	done   chan struct{}
}

// NewIdle starts polling. A nil idle func runs the configured command (xprintidle).
func NewIdle(ctx context.Context, cfg IdleConfig, idle IdleFunc) (*Idle, error) {
	if idle == nil {
		path, err := exec.LookPath(cfg.Command)
		if err != nil {
			return nil, errors.Wrapf(err, "%s not found", cfg.Command)
		}
		idle = commandIdle(path)
	}

	ctx, cancel := context.WithCancel(ctx)
	s := &Idle{
		config: cfg,
		idle:   idle,
		hub:    newHub(true),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	s.poll(ctx)
	go s.run(ctx)
	return s, nil
}

func (s *Idle) run(ctx context.Context) {
	defer close(s.done)
	ticker := time.NewTicker(time.Duration(s.config.PollIntervalMs) * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.poll(ctx)
		}
	}
}

func (s *Idle) poll(ctx context.Context) {
	d, err := s.idle(ctx)
	if err != nil {
		zlog.Debug().Msgf("idle: failed to read idle time: error=%v", err)
		return
	}
	s.hub.set(d < time.Duration(s.config.ThresholdSec)*time.Second)
}

func (s *Idle) Name() string {
	return "idle"
}

func (s *Idle) Visible() bool {
	return s.hub.get()
}

func (s *Idle) Subscribe() (<-chan bool, func()) {
	return s.hub.subscribe()
}

func (s *Idle) Close() error {
	s.cancel()
	<-s.done
	s.hub.close()
	return nil
}

// commandIdle reads the idle time in milliseconds from an xprintidle compatible command.
func commandIdle(path string) IdleFunc {
	return func(ctx context.Context) (time.Duration, error) {
		output, err := exec.CommandContext(ctx, path).Output()
		if err != nil {
			return 0, errors.Wrap(err, "xprintidle")
		}
		return parseIdleMillis(string(output))
	}
}

func parseIdleMillis(output string) (time.Duration, error) {
	idleMillis, err := strconv.ParseInt(strings.TrimSpace(output), 10, 64)
	if err != nil {
		return 0, errors.Wrap(err, "parse idle milliseconds")
	}
	if idleMillis < 0 {
		idleMillis = 0
	}
	return time.Duration(idleMillis) * time.Millisecond, nil
}

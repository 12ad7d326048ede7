// Package cue provides the sound played when a timer session completes.
package cue

import (
	"context"
	"os/exec"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/pomotune/internal/infra/config"
)

// Cue plays the completion notification.
type Cue interface {
	Play(ctx context.Context) error
}

// NewFromConfig returns a Command cue, or a Null cue when no command is configured.
func NewFromConfig(cfg config.CueConfig) Cue {
	if strings.TrimSpace(cfg.Command) == "" {
		return Null{}
	}
	return NewCommand(cfg.Command, time.Duration(cfg.TimeoutSec)*time.Second)
}

// Command runs a shell command, e.g. "paplay /usr/share/sounds/freedesktop/stereo/complete.oga".
type Command struct {
	command string
	timeout time.Duration
}

// NewCommand creates a Command cue.
func NewCommand(command string, timeout time.Duration) *Command {
	return &Command{command: command, timeout: timeout}
}

// Play runs the command and waits for it to finish.
func (c *Command) Play(ctx context.Context) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, "sh", "-c", c.command)
	cmd.WaitDelay = 500 * time.Millisecond
	output, err := cmd.CombinedOutput()
	if err != nil {
		if ctx.Err() != nil {
			return errors.Wrapf(ctx.Err(), "cue command timed out: %s", c.command)
		}
		return errors.Wrapf(err, "cue command failed: %s: %s", c.command, strings.TrimSpace(string(output)))
	}
	zlog.Debug().Msgf("cue played: command=%s", c.command)
	return nil
}

// Null plays nothing.
type Null struct{}

func (Null) Play(ctx context.Context) error {
	return nil
}

package cue

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/pomotune/internal/infra/config"
)

func TestCommand_Play(t *testing.T) {
	marker := filepath.Join(t.TempDir(), "played")
	c := NewCommand("touch "+marker, time.Second)

	require.NoError(t, c.Play(context.Background()))
	_, err := os.Stat(marker)
	assert.NoError(t, err)
}

func TestCommand_Failures(t *testing.T) {
	tests := []struct {
		name    string
		command string
		timeout time.Duration
	}{
		{name: "non-zero exit", command: "echo boom >&2; exit 3", timeout: time.Second},
		{name: "timeout", command: "sleep 5", timeout: 50 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start := time.Now()
			err := NewCommand(tt.command, tt.timeout).Play(context.Background())
			assert.Error(t, err)
			assert.Less(t, time.Since(start), 3*time.Second)
		})
	}
}

func TestNewFromConfig(t *testing.T) {
	assert.IsType(t, Null{}, NewFromConfig(config.CueConfig{}))
	assert.IsType(t, Null{}, NewFromConfig(config.CueConfig{Command: "   "}))
	assert.IsType(t, &Command{}, NewFromConfig(config.CueConfig{Command: "true", TimeoutSec: 1}))
	assert.NoError(t, Null{}.Play(context.Background()))
}

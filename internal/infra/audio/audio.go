// Package audio provides the audio output backends driven by the playback manager.
package audio

import (
	"context"
	"sync"

	"github.com/cockroachdb/errors"

	"github.com/osa030/pomotune/internal/infra/config"
)

// ErrPlayback reports a source that was loaded but could not be played,
// for example an unreachable URL or an unsupported codec.
var ErrPlayback = errors.New("audio playback failed")

// Backend plays one source at a time.
// OnEnded handlers receive nil when the source played to its end and an
// error when it failed after SetSource returned.
type Backend interface {
	SetSource(ctx context.Context, url string) error
	Play(ctx context.Context) error
	Pause(ctx context.Context) error
	SetVolume(ctx context.Context, volume float64) error
	OnEnded(fn func(err error)) (unsubscribe func())
	Close() error
}

// NewFromConfig creates the backend selected by the configuration.
func NewFromConfig(ctx context.Context, cfg config.AudioConfig) (Backend, error) {
	switch cfg.Backend {
	case "mpv":
		return StartMPV(ctx, cfg.MPV)
	case "none":
		return NewNull(), nil
	default:
		return nil, errors.Newf("unsupported audio backend: %s", cfg.Backend)
	}
}

// endedHandlers holds the registered track-ended callbacks.
// A nil error means the source played to its end.
type endedHandlers struct {
	mu       sync.Mutex
	nextID   uint64
	handlers map[uint64]func(error)
}

func (h *endedHandlers) add(fn func(error)) func() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.handlers == nil {
		h.handlers = make(map[uint64]func(error))
	}
	h.nextID++
	id := h.nextID
	h.handlers[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.handlers, id)
			h.mu.Unlock()
		})
	}
}

// fire calls every handler outside the lock.
func (h *endedHandlers) fire(err error) {
	h.mu.Lock()
	fns := make([]func(error), 0, len(h.handlers))
	for _, fn := range h.handlers {
		fns = append(fns, fn)
	}
	h.mu.Unlock()

	for _, fn := range fns {
		fn(err)
	}
}

func (h *endedHandlers) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.handlers)
}

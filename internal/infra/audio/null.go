package audio

import (
	"context"
	"sync"
)

// Null is a silent backend for headless servers where clients play the audio.
// It records the requested state so it can be inspected.
type Null struct {
	mu      sync.Mutex
	source  string
	playing bool
	volume  float64
	ended   endedHandlers
}

// NewNull creates a Null backend.
func NewNull() *Null {
	return &Null{volume: 1}
}

func (n *Null) SetSource(ctx context.Context, url string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.source = url
	n.playing = false
	return nil
}

func (n *Null) Play(ctx context.Context) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.playing = n.source != ""
	return nil
}

func (n *Null) Pause(ctx context.Context) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.playing = false
	return nil
}

func (n *Null) SetVolume(ctx context.Context, volume float64) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.volume = volume
	return nil
}

func (n *Null) OnEnded(fn func(error)) func() {
	return n.ended.add(fn)
}

// End simulates the current source playing to its end.
func (n *Null) End() {
	n.mu.Lock()
	n.playing = false
	n.mu.Unlock()
	n.ended.fire(nil)
}

// Fail simulates the current source failing after it was loaded.
func (n *Null) Fail(err error) {
	n.mu.Lock()
	n.playing = false
	n.mu.Unlock()
	n.ended.fire(err)
}

// State returns the current source, play state and volume.
func (n *Null) State() (source string, playing bool, volume float64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.source, n.playing, n.volume
}

func (n *Null) Close() error {
	return nil
}

// Package visibility reports whether the host display is visible to the user.
package visibility

import (
	"context"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"

	"github.com/osa030/pomotune/internal/infra/config"
)

// Source is a host visibility signal.
type Source interface {
	Name() string
	Visible() bool
	// Subscribe returns a channel receiving the latest visibility after each change.
	Subscribe() (<-chan bool, func())
	Close() error
}

// NewFromConfig creates the source selected by the configuration.
func NewFromConfig(ctx context.Context, cfg config.VisibilityConfig) (Source, error) {
	switch cfg.Source {
	case "manual", "":
		return NewManual(true), nil
	case "screensaver":
		return NewScreenSaver(ctx)
	case "idle":
		var settings IdleConfig
		if err := decodeSettings(cfg.Settings, &settings); err != nil {
			return nil, errors.Wrap(err, "invalid idle settings")
		}
		return NewIdle(ctx, settings, nil)
	default:
		return nil, errors.Newf("unsupported visibility source: %s", cfg.Source)
	}
}

// hub tracks the current visibility and fans changes out to subscribers.
// Each subscriber channel holds only the latest value.
type hub struct {
	mu      sync.Mutex
	visible bool
	nextID  uint64
	subs    map[uint64]chan bool
	closed  bool
}

func newHub(visible bool) *hub {
	return &hub{visible: visible, subs: make(map[uint64]chan bool)}
}

func (h *hub) get() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.visible
}

// set stores v and notifies subscribers when it differs from the current value.
func (h *hub) set(v bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed || h.visible == v {
		return
	}
	h.visible = v
	for _, ch := range h.subs {
		select {
		case <-ch:
		default:
		}
		ch <- v
	}
}

func (h *hub) subscribe() (<-chan bool, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan bool, 1)
	if h.closed {
		close(ch)
		return ch, func() {}
	}
	h.nextID++
	id := h.nextID
	h.subs[id] = ch

	return ch, func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if sub, ok := h.subs[id]; ok {
			delete(h.subs, id)
			close(sub)
		}
	}
}

func (h *hub) close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for id, ch := range h.subs {
		delete(h.subs, id)
		close(ch)
	}
}

func decodeSettings(settings map[string]any, cfg any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           cfg,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return errors.Wrap(err, "failed to create decoder")
	}
	if err := decoder.Decode(settings); err != nil {
		return errors.Wrap(err, "failed to decode settings")
	}
	if err := defaults.Set(cfg); err != nil {
		return errors.Wrap(err, "failed to set defaults")
	}
	if err := validator.New().Struct(cfg); err != nil {
		return errors.Wrap(err, "validation failed")
	}
	return nil
}

// Package timer provides the Pomodoro countdown engine.
package timer

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/pomotune/internal/domain/pomodoro"
)

// Store keys.
const (
	KeyState    = "pomodoro_state"
	KeySettings = "pomodoro_settings"
)

const (
	defaultTickInterval = time.Second
	defaultCueTimeout   = 10 * time.Second
	storeTimeout        = 2 * time.Second
	eventBufferSize     = 64
)

// Store is the durable key-value store the engine persists into.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

// Cue plays the completion notification.
type Cue interface {
	Play(ctx context.Context) error
}

// Config holds engine configuration.
type Config struct {
	TickInterval            time.Duration      // Interval of one countdown step
	SessionsBeforeLongBreak int                // Focus sessions before a long break
	CountSkippedSessions    bool               // Whether skipping a focus session counts it as completed
	DefaultDurations        pomodoro.Durations // Used when no durations are persisted
	CueTimeout              time.Duration      // Upper bound for one cue playback
}

// Snapshot is a point-in-time copy of the engine state.
type Snapshot struct {
	pomodoro.State
	Durations               pomodoro.Durations `json:"durations"`
	SessionsBeforeLongBreak int                `json:"sessions_before_long_break"`
}

// Engine runs the Pomodoro countdown.
type Engine struct {
	mu sync.RWMutex

	state     pomodoro.State
	durations pomodoro.Durations
	visible   bool

	// Tick loop
	tickCancel func() // Cancel function for the running tick loop
	tickGen    uint64 // Generation of the running tick loop

	config Config
	store  Store
	cue    Cue

	// Events
	eventCh chan Event
	closed  bool

	// Context
	ctx    context.Context
	cancel context.CancelFunc
}

// NewEngine creates an engine and restores persisted state.
// A persisted active countdown resumes only when visible is true.
func NewEngine(config Config, store Store, cue Cue, visible bool) *Engine {
	if config.TickInterval <= 0 {
		config.TickInterval = defaultTickInterval
	}
	if config.SessionsBeforeLongBreak <= 0 {
		config.SessionsBeforeLongBreak = pomodoro.DefaultSessionsBeforeLongBreak
	}
	if config.CueTimeout <= 0 {
		config.CueTimeout = defaultCueTimeout
	}
	if err := config.DefaultDurations.Validate(); err != nil {
		config.DefaultDurations = pomodoro.DefaultDurations()
	}

	ctx, cancel := context.WithCancel(context.Background())
	e := &Engine{
		config:  config,
		store:   store,
		cue:     cue,
		visible: visible,
		eventCh: make(chan Event, eventBufferSize),
		ctx:     ctx,
		cancel:  cancel,
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.loadLocked()
	if e.state.IsActive {
		e.state.IsActive = false
		e.startLocked()
	}
	return e
}

// Events returns the event channel.
func (e *Engine) Events() <-chan Event {
	return e.eventCh
}

// Snapshot returns the current state.
func (e *Engine) Snapshot() Snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.snapshotLocked()
}

// Durations returns the configured durations.
func (e *Engine) Durations() pomodoro.Durations {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.durations
}

// Start begins the countdown. It is a no-op when already active.
func (e *Engine) Start() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.startLocked()
	return e.snapshotLocked()
}

// Pause stops the countdown without losing time.
func (e *Engine) Pause() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state.IsActive {
		e.pauseLocked()
		e.persistStateLocked()
		e.sendEventLocked(Event{Type: EventStateChanged, Snapshot: e.snapshotLocked()})
	}
	return e.snapshotLocked()
}

// Reset restores the full duration of the current mode and pauses.
// The completed session count is kept.
func (e *Engine) Reset() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.pauseLocked()
	e.state.TimeLeft = e.durations.Of(e.state.Mode)
	e.persistStateLocked()
	e.sendEventLocked(Event{Type: EventStateChanged, Snapshot: e.snapshotLocked()})
	return e.snapshotLocked()
}

// SwitchMode enters mode with its full duration, paused.
// Abandoning a running countdown does not count as a completed session.
func (e *Engine) SwitchMode(mode pomodoro.Mode) Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.switchModeLocked(mode)
	return e.snapshotLocked()
}

// Tick advances the countdown by one step. It is a no-op while paused.
func (e *Engine) Tick() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.tickLocked()
	return e.snapshotLocked()
}

// SkipToNext moves to the next mode without playing the cue.
// Leaving Focus counts as a completed session unless CountSkippedSessions is false.
func (e *Engine) SkipToNext() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	prev := e.state.Mode
	next, completed := pomodoro.Advance(prev, e.state.CompletedSessions, e.config.SessionsBeforeLongBreak)
	if e.config.CountSkippedSessions {
		e.state.CompletedSessions = completed
	}
	zlog.Debug().Msgf("timer: skipped: from=%s to=%s completed=%d", prev, next, e.state.CompletedSessions)
	e.switchModeLocked(next)
	return e.snapshotLocked()
}

// UpdateSettings replaces the durations. A paused countdown is reset to the new
// duration of the current mode; a running one continues until the next transition.
func (e *Engine) UpdateSettings(d pomodoro.Durations) (Snapshot, error) {
	if err := d.Validate(); err != nil {
		return Snapshot{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.durations = d
	e.persistLocked(KeySettings, d)
	if !e.state.IsActive {
		e.state.TimeLeft = d.Of(e.state.Mode)
		e.persistStateLocked()
	}
	zlog.Info().Msgf("timer: settings updated: focus=%d short_break=%d long_break=%d", d.Focus, d.ShortBreak, d.LongBreak)
	e.sendEventLocked(Event{Type: EventSettingsChanged, Snapshot: e.snapshotLocked()})
	return e.snapshotLocked(), nil
}

// HandleVisibility applies the suspension policy: hiding the host pauses the
// countdown, showing it again never resumes it.
func (e *Engine) HandleVisibility(visible bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.visible = visible
	if visible || !e.state.IsActive {
		return
	}
	zlog.Info().Msg("timer: host hidden, pausing countdown")
	e.pauseLocked()
	e.persistStateLocked()
	e.sendEventLocked(Event{Type: EventStateChanged, Snapshot: e.snapshotLocked()})
}

// Close stops the countdown loop and closes the event channel.
// Persisted state keeps the active flag so the next load can honour it.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return
	}
	e.stopTickerLocked()
	e.cancel()
	e.closed = true
	close(e.eventCh)
}

func (e *Engine) startLocked() {
	if e.state.IsActive {
		return
	}
	e.state.IsActive = true
	if e.state.TimeLeft <= 0 {
		e.completeLocked()
		return
	}
	e.startTickerLocked()
	e.persistStateLocked()
	e.sendEventLocked(Event{Type: EventStateChanged, Snapshot: e.snapshotLocked()})
}

func (e *Engine) pauseLocked() {
	e.state.IsActive = false
	e.stopTickerLocked()
}

func (e *Engine) switchModeLocked(mode pomodoro.Mode) {
	prev := e.state.Mode
	e.pauseLocked()
	e.state.Mode = mode
	e.state.TimeLeft = e.durations.Of(mode)
	e.persistStateLocked()
	e.sendEventLocked(Event{Type: EventModeChanged, Snapshot: e.snapshotLocked(), PreviousMode: prev})
}

func (e *Engine) tickLocked() {
	if !e.state.IsActive {
		return
	}
	if e.state.TimeLeft > 0 {
		e.state.TimeLeft--
	}
	if e.state.TimeLeft == 0 {
		e.completeLocked()
		return
	}
	e.persistStateLocked()
	e.sendEventLocked(Event{Type: EventTick, Snapshot: e.snapshotLocked()})
}

// completeLocked handles a countdown reaching zero.
func (e *Engine) completeLocked() {
	e.playCue()

	prev := e.state.Mode
	next, completed := pomodoro.Advance(prev, e.state.CompletedSessions, e.config.SessionsBeforeLongBreak)
	e.state.CompletedSessions = completed
	zlog.Info().Msgf("timer: session completed: mode=%s next=%s completed=%d", prev, next, completed)

	e.switchModeLocked(next)
	e.sendEventLocked(Event{Type: EventSessionCompleted, Snapshot: e.snapshotLocked(), PreviousMode: prev})
}

// startTickerLocked replaces any running tick loop with a new one.
// Must be called with lock held.
func (e *Engine) startTickerLocked() {
	e.stopTickerLocked()

	e.tickGen++
	gen := e.tickGen
	ctx, cancel := context.WithCancel(e.ctx)
	e.tickCancel = cancel

	interval := e.config.TickInterval
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				e.tickFromLoop(gen)
			}
		}
	}()
}

// stopTickerLocked cancels the running tick loop and invalidates its generation.
func (e *Engine) stopTickerLocked() {
	if e.tickCancel != nil {
		e.tickCancel()
		e.tickCancel = nil
	}
	e.tickGen++
}

// tickFromLoop ticks on behalf of the loop started with generation gen.
// Ticks from a stale loop are dropped.
func (e *Engine) tickFromLoop(gen uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if gen != e.tickGen || e.closed {
		return
	}
	e.tickLocked()
}

func (e *Engine) playCue() {
	if e.cue == nil {
		return
	}
	cue := e.cue
	timeout := e.config.CueTimeout
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := cue.Play(ctx); err != nil {
			zlog.Warn().Err(err).Msg("timer: completion cue failed")
		}
	}()
}

func (e *Engine) snapshotLocked() Snapshot {
	return Snapshot{
		State:                   e.state,
		Durations:               e.durations,
		SessionsBeforeLongBreak: e.config.SessionsBeforeLongBreak,
	}
}

// sendEventLocked sends an event without blocking.
// Must be called with lock held.
func (e *Engine) sendEventLocked(ev Event) {
	if e.closed {
		return
	}
	select {
	case e.eventCh <- ev:
	default:
		zlog.Debug().Msgf("timer: event dropped: type=%s", ev.Type)
	}
}

// loadLocked restores durations and state from the store.
// Missing or corrupt entries fall back to defaults.
func (e *Engine) loadLocked() {
	e.durations = e.config.DefaultDurations
	var d pomodoro.Durations
	if e.readLocked(KeySettings, &d) {
		if err := d.Validate(); err != nil {
			zlog.Warn().Err(err).Msg("timer: ignoring persisted settings")
		} else {
			e.durations = d
		}
	}

	e.state = pomodoro.NewState(e.durations)
	var s pomodoro.State
	if !e.readLocked(KeyState, &s) {
		return
	}
	if !s.Mode.IsValid() || s.TimeLeft < 0 || s.CompletedSessions < 0 {
		zlog.Warn().Msgf("timer: ignoring persisted state: mode=%q time_left=%d completed=%d",
			s.Mode, s.TimeLeft, s.CompletedSessions)
		return
	}
	if limit := e.durations.Of(s.Mode); s.TimeLeft > limit {
		s.TimeLeft = limit
	}
	if s.IsActive && !e.visible {
		zlog.Info().Msg("timer: host hidden at load, not resuming countdown")
		s.IsActive = false
	}
	e.state = s
}

func (e *Engine) readLocked(key string, v any) bool {
	if e.store == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(e.ctx, storeTimeout)
	defer cancel()

	raw, ok, err := e.store.Get(ctx, key)
	if err != nil {
		zlog.Warn().Err(err).Msgf("timer: failed to read %s", key)
		return false
	}
	if !ok {
		return false
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		zlog.Warn().Err(errors.Wrapf(err, "decode %s", key)).Msg("timer: ignoring corrupt persisted value")
		return false
	}
	return true
}

func (e *Engine) persistStateLocked() {
	e.persistLocked(KeyState, e.state)
}

func (e *Engine) persistLocked(key string, v any) {
	if e.store == nil {
		return
	}
	raw, err := json.Marshal(v)
	if err != nil {
		zlog.Error().Err(err).Msgf("timer: failed to encode %s", key)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	if err := e.store.Set(ctx, key, string(raw)); err != nil {
		zlog.Warn().Err(err).Msgf("timer: failed to persist %s", key)
	}
}

// Package session provides the session manager.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"

	pomotunev1 "github.com/osa030/pomotune/internal/api/pomotune/v1"
	"github.com/osa030/pomotune/internal/app/notification"
	"github.com/osa030/pomotune/internal/app/playback"
	"github.com/osa030/pomotune/internal/app/session/state"
	"github.com/osa030/pomotune/internal/app/timer"
	"github.com/osa030/pomotune/internal/domain/pomodoro"
	"github.com/osa030/pomotune/internal/infra/config"
	"github.com/osa030/pomotune/internal/infra/visibility"
)

var (
	ErrVisibilityNotManual = errors.New("visibility is not reported manually")
	ErrSessionClosed       = errors.New("session is closed")
)

// Catalog is the track catalog the player loads from.
type Catalog interface {
	playback.Catalog
	// LastSource returns the display name of the source that served the last fetch.
	LastSource() string
}

// Store is the durable key-value store shared by the timer and the player.
type Store interface {
	timer.Store
	playback.Store
}

// Deps holds the infrastructure the manager drives.
type Deps struct {
	Store      Store
	Cue        timer.Cue
	Audio      playback.Audio
	Catalog    Catalog
	Visibility visibility.Source
}

// Manager ties the Pomodoro timer, the music player and the host visibility
// signal together and publishes their changes as notifications.
type Manager struct {
	mu sync.RWMutex

	// Configuration
	config *config.Config

	// Components
	stateMgr     *state.Manager
	timer        *timer.Engine
	player       *playback.Manager
	catalog      Catalog
	visibility   visibility.Source
	notification *notification.Manager

	// Lifecycle
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started bool
	closed  bool
}

// NewManager creates a new session manager. The timer restores its persisted
// state immediately; nothing runs until Start.
func NewManager(cfg *config.Config, deps Deps) *Manager {
	ctx, cancel := context.WithCancel(context.Background())

	visible := deps.Visibility.Visible()
	m := &Manager{
		config:     cfg,
		stateMgr:   state.New(uuid.New().String(), deps.Visibility.Name(), visible),
		catalog:    deps.Catalog,
		visibility: deps.Visibility,
		timer: timer.NewEngine(timer.Config{
			TickInterval:            cfg.TickInterval(),
			SessionsBeforeLongBreak: cfg.Timer.SessionsBeforeLongBreak,
			CountSkippedSessions:    cfg.CountSkippedSessions(),
			DefaultDurations:        cfg.Durations(),
			CueTimeout:              time.Duration(cfg.Cue.TimeoutSec) * time.Second,
		}, deps.Store, deps.Cue, visible),
		player: playback.NewManager(playback.Config{
			DefaultVolume: cfg.Playback.DefaultVolume,
			FetchTimeout:  time.Duration(cfg.Playback.FetchTimeoutSec) * time.Second,
		}, deps.Catalog, deps.Audio, deps.Store),
		notification: notification.NewManager(),
		ctx:          ctx,
		cancel:       cancel,
	}
	return m
}

// Start starts the event loops and loads the catalog in the background.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrSessionClosed
	}
	if m.started {
		m.mu.Unlock()
		return nil
	}
	m.started = true
	m.mu.Unlock()

	visibleCh, unsubscribe := m.visibility.Subscribe()

	m.wg.Add(4)
	go m.timerLoop()
	go m.playerLoop()
	go m.visibilityLoop(visibleCh, unsubscribe)
	go func() {
		defer m.wg.Done()
		if err := m.ReloadCatalog(m.ctx); err != nil {
			zlog.Warn().Msgf("initial catalog load failed: error=%v", err)
		}
	}()

	m.stateMgr.SetPhase(state.PhaseRunning)
	zlog.Info().Msgf("session started: session_id=%s visibility=%s", m.stateMgr.GetSessionID(), m.visibility.Name())
	m.broadcastSession()
	return nil
}

// Close stops the loops, the timer and the player, and closes all subscriptions.
func (m *Manager) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	m.mu.Unlock()

	m.cancel()
	m.timer.Close()
	m.player.Close()
	m.wg.Wait()
	m.notification.Close()
	m.stateMgr.SetPhase(state.PhaseStopped)
	zlog.Info().Msgf("session closed: session_id=%s", m.stateMgr.GetSessionID())
}

// Done is closed when the session is closed.
func (m *Manager) Done() <-chan struct{} {
	return m.ctx.Done()
}

// Timer returns the timer engine.
func (m *Manager) Timer() *timer.Engine {
	return m.timer
}

// Player returns the playback manager.
func (m *Manager) Player() *playback.Manager {
	return m.player
}

// GetNotificationManager returns the notification manager.
func (m *Manager) GetNotificationManager() *notification.Manager {
	return m.notification
}

// SessionInfo returns the session description.
func (m *Manager) SessionInfo() *pomotunev1.SessionInfo {
	return m.stateMgr.BuildSessionInfo()
}

// Status returns the full server state.
func (m *Manager) Status() *pomotunev1.StatusResponse {
	return &pomotunev1.StatusResponse{
		Session: m.stateMgr.BuildSessionInfo(),
		Timer:   BuildTimerState(m.timer.Snapshot()),
		Player:  BuildPlayerState(m.player.Snapshot()),
	}
}

// InitialState returns the notification sent to a new subscriber.
func (m *Manager) InitialState() *pomotunev1.Notification {
	status := m.Status()
	return &pomotunev1.Notification{
		Type:    pomotunev1.NotificationTypeInitialState,
		Timer:   status.Timer,
		Player:  status.Player,
		Session: status.Session,
	}
}

// ReportVisibility feeds a client-reported host visibility.
// It fails unless the configured visibility source is manual.
func (m *Manager) ReportVisibility(visible bool) error {
	manual, ok := m.visibility.(*visibility.Manual)
	if !ok {
		return errors.Wrapf(ErrVisibilityNotManual, "source=%s", m.visibility.Name())
	}
	manual.Set(visible)
	m.handleVisibility(visible)
	return nil
}

// ReloadCatalog fetches the catalog again and records the serving source.
func (m *Manager) ReloadCatalog(ctx context.Context) error {
	err := m.player.LoadCatalog(ctx)
	source := ""
	if err == nil {
		source = m.catalog.LastSource()
	}
	if m.stateMgr.GetCatalogSource() != source {
		m.stateMgr.SetCatalogSource(source)
		m.broadcastSession()
	}
	return err
}

// ApplyConfig applies a reloaded configuration. Changed timer durations are
// pushed to the engine; other timer settings take effect on restart.
func (m *Manager) ApplyConfig(cfg *config.Config) {
	m.mu.Lock()
	prev := m.config
	m.config = cfg
	m.mu.Unlock()

	if prev.Durations() == cfg.Durations() {
		return
	}
	if _, err := m.ApplyTimerDefaults(cfg.Durations()); err != nil {
		zlog.Warn().Msgf("config reload: durations rejected: error=%v", err)
	}
}

// ApplyTimerDefaults replaces the timer durations.
func (m *Manager) ApplyTimerDefaults(d pomodoro.Durations) (timer.Snapshot, error) {
	return m.timer.UpdateSettings(d)
}

func (m *Manager) pauseMusicOnBreak() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config.Integration.PauseMusicOnBreak
}

// timerLoop forwards timer events until the engine closes its channel.
func (m *Manager) timerLoop() {
	defer m.wg.Done()
	for event := range m.timer.Events() {
		m.handleTimerEvent(event)
	}
}

func (m *Manager) handleTimerEvent(event timer.Event) {
	n := &pomotunev1.Notification{Timer: BuildTimerState(event.Snapshot)}

	switch event.Type {
	case timer.EventTick:
		n.Type = pomotunev1.NotificationTypeTimerTick
	case timer.EventStateChanged:
		n.Type = pomotunev1.NotificationTypeTimerStateChanged
	case timer.EventModeChanged:
		n.Type = pomotunev1.NotificationTypeTimerModeChanged
		n.PreviousMode = event.PreviousMode.String()
	case timer.EventSessionCompleted:
		n.Type = pomotunev1.NotificationTypeSessionCompleted
		n.PreviousMode = event.PreviousMode.String()
		zlog.Info().Msgf("timer session completed: mode=%s next=%s completed=%d",
			event.PreviousMode, event.Snapshot.Mode, event.Snapshot.CompletedSessions)
		if event.PreviousMode == pomodoro.ModeFocus && m.pauseMusicOnBreak() {
			m.player.Pause()
		}
	case timer.EventSettingsChanged:
		n.Type = pomotunev1.NotificationTypeSettingsChanged
	default:
		return
	}

	m.notification.Broadcast(n)
}

// playerLoop forwards player events until the manager closes its channel.
func (m *Manager) playerLoop() {
	defer m.wg.Done()
	for event := range m.player.Events() {
		zlog.Debug().Msgf("player event: type=%s", event.Type)
		m.notification.Broadcast(&pomotunev1.Notification{
			Type:   pomotunev1.NotificationTypePlayerChanged,
			Player: BuildPlayerState(event.Snapshot),
		})
	}
}

// visibilityLoop pauses the timer when the host is hidden.
func (m *Manager) visibilityLoop(ch <-chan bool, unsubscribe func()) {
	defer m.wg.Done()
	defer unsubscribe()

	for {
		select {
		case <-m.ctx.Done():
			return
		case visible, ok := <-ch:
			if !ok {
				return
			}
			m.handleVisibility(visible)
		}
	}
}

func (m *Manager) handleVisibility(visible bool) {
	if !m.stateMgr.SetHostVisible(visible) {
		return
	}
	zlog.Info().Msgf("host visibility changed: visible=%t", visible)
	m.timer.HandleVisibility(visible)
	m.broadcastSession()
}

func (m *Manager) broadcastSession() {
	m.notification.Broadcast(&pomotunev1.Notification{
		Type:    pomotunev1.NotificationTypeSessionChanged,
		Session: m.stateMgr.BuildSessionInfo(),
	})
}

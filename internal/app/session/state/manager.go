package state

import (
	"sync"
	"time"

	pomotunev1 "github.com/osa030/pomotune/internal/api/pomotune/v1"
)

// Manager manages session state with thread-safe access.
type Manager struct {
	mu sync.RWMutex

	// Session identity
	sessionID string
	startedAt time.Time

	// Session lifecycle
	phase Phase

	// Host
	hostVisible      bool
	visibilitySource string

	// Catalog
	catalogSource string
}

// New creates a new state manager.
func New(sessionID, visibilitySource string, hostVisible bool) *Manager {
	return &Manager{
		sessionID:        sessionID,
		startedAt:        time.Now(),
		phase:            PhaseStarting,
		hostVisible:      hostVisible,
		visibilitySource: visibilitySource,
	}
}

// GetPhase returns the current session phase.
func (m *Manager) GetPhase() Phase {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.phase
}

// SetPhase sets the session phase.
func (m *Manager) SetPhase(p Phase) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.phase = p
}

// GetSessionID returns the session ID.
func (m *Manager) GetSessionID() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sessionID
}

// GetStartedAt returns when the session was created.
func (m *Manager) GetStartedAt() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.startedAt
}

// IsHostVisible returns the last known host visibility.
func (m *Manager) IsHostVisible() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.hostVisible
}

// SetHostVisible records the host visibility. It reports whether the value changed.
func (m *Manager) SetHostVisible(visible bool) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.hostVisible == visible {
		return false
	}
	m.hostVisible = visible
	return true
}

// GetCatalogSource returns the display name of the source that served the playlist.
func (m *Manager) GetCatalogSource() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.catalogSource
}

// SetCatalogSource sets the catalog source display name.
func (m *Manager) SetCatalogSource(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.catalogSource = name
}

// BuildSessionInfo creates a complete SessionInfo with all fields.
func (m *Manager) BuildSessionInfo() *pomotunev1.SessionInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return &pomotunev1.SessionInfo{
		SessionId:        m.sessionID,
		StartedAt:        m.startedAt.Format(time.RFC3339),
		HostVisible:      m.hostVisible,
		VisibilitySource: m.visibilitySource,
		CatalogSource:    m.catalogSource,
	}
}

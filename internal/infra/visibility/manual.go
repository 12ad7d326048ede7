package visibility

// Manual is a visibility source set by clients reporting their own visibility.
type Manual struct {
	hub *hub
}

// NewManual creates a Manual source with the given initial visibility.
func NewManual(visible bool) *Manual {
	return &Manual{hub: newHub(visible)}
}

func (m *Manual) Name() string {
	return "manual"
}

func (m *Manual) Visible() bool {
	return m.hub.get()
}

// Set updates the visibility.
func (m *Manual) Set(visible bool) {
	m.hub.set(visible)
}

func (m *Manual) Subscribe() (<-chan bool, func()) {
	return m.hub.subscribe()
}

func (m *Manual) Close() error {
	m.hub.close()
	return nil
}

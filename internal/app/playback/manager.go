package playback

import (
	"context"
	"math"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/pomotune/internal/domain/playlist"
	"github.com/osa030/pomotune/internal/domain/track"
)

// Errors
var (
	ErrTrackNotFound = errors.New("track not found in playlist")
	ErrCatalogFetch  = errors.New("catalog fetch failed")
	ErrClosed        = errors.New("playback manager closed")
)

// Store keys.
const (
	KeyLastTrackID = "last_track_id"
	KeyVolume      = "music_volume"
)

const (
	DefaultVolume       = 0.8
	defaultFetchTimeout = 15 * time.Second
	storeTimeout        = 2 * time.Second
	opBufferSize        = 64
	eventBufferSize     = 64
)

// Catalog provides the ordered track list.
type Catalog interface {
	FetchTracks(ctx context.Context) ([]track.Track, error)
}

// Audio is the backend that actually renders sound.
// SetSource loads a track paused; Play starts or resumes it.
// OnEnded registers a handler fired once per track that finishes on its own,
// with a nil error, or that fails after SetSource returned, with the failure.
// It returns a function that deregisters the handler. Handlers must not be
// invoked synchronously from OnEnded.
type Audio interface {
	SetSource(ctx context.Context, url string) error
	Play(ctx context.Context) error
	Pause(ctx context.Context) error
	SetVolume(ctx context.Context, volume float64) error
	OnEnded(fn func(err error)) (unsubscribe func())
}

// Store is the durable key-value store the manager persists into.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

// Config holds manager configuration.
type Config struct {
	DefaultVolume float64       // Volume used when none is persisted
	FetchTimeout  time.Duration // Upper bound for one catalog fetch
}

type opKind int

const (
	opLoad opKind = iota
	opPlay
	opPause
	opVolume
)

// audioOp is a unit of work for the audio worker.
type audioOp struct {
	kind   opKind
	gen    uint64
	url    string
	play   bool // opLoad: start playing after loading
	volume float64
}

// Manager owns the playlist, the current track, the playing flag and the volume.
type Manager struct {
	mu sync.RWMutex

	playlist *playlist.Playlist
	current  int
	playing  bool
	volume   float64
	loading  bool

	errKind ErrorKind
	errMsg  string

	// Source generation; bumped on every track change.
	// loadedGen is the generation whose source the backend holds.
	gen              atomic.Uint64
	loadedGen        atomic.Uint64
	unsubscribeEnded func()

	config  Config
	catalog Catalog
	audio   Audio
	store   Store

	ops  chan audioOp
	done chan struct{}

	// Events
	eventCh chan Event
	closed  bool

	// Context
	ctx    context.Context
	cancel context.CancelFunc
}

// NewManager creates a manager, restores the persisted volume and starts the audio worker.
func NewManager(config Config, catalog Catalog, audio Audio, store Store) *Manager {
	if config.DefaultVolume < 0 || config.DefaultVolume > 1 || math.IsNaN(config.DefaultVolume) {
		config.DefaultVolume = DefaultVolume
	}
	if config.FetchTimeout <= 0 {
		config.FetchTimeout = defaultFetchTimeout
	}

	ctx, cancel := context.WithCancel(context.Background())
	m := &Manager{
		playlist: playlist.New("", nil),
		current:  playlist.NoIndex,
		volume:   config.DefaultVolume,
		config:   config,
		catalog:  catalog,
		audio:    audio,
		store:    store,
		ops:      make(chan audioOp, opBufferSize),
		done:     make(chan struct{}),
		eventCh:  make(chan Event, eventBufferSize),
		ctx:      ctx,
		cancel:   cancel,
	}

	if raw, ok := m.read(KeyVolume); ok {
		if v, err := strconv.ParseFloat(raw, 64); err == nil && !math.IsNaN(v) {
			m.volume = clamp(v)
		} else {
			zlog.Warn().Msgf("playback: ignoring persisted volume: value=%q", raw)
		}
	}

	go m.runWorker()
	m.enqueue(audioOp{kind: opVolume, volume: m.volume})
	return m
}

// Events returns the event channel.
func (m *Manager) Events() <-chan Event {
	return m.eventCh
}

// Snapshot returns the current state.
func (m *Manager) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshotLocked()
}

// Tracks returns a copy of the playlist.
func (m *Manager) Tracks() []track.Track {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]track.Track, m.playlist.Len())
	copy(result, m.playlist.Tracks)
	return result
}

// LoadCatalog fetches the track list and replaces the playlist.
// The current track is kept when it is still listed, otherwise the persisted
// last track is restored, otherwise the first track is selected.
// A fetch error empties the playlist and sets the catalog error state; the
// returned error is for logging only.
func (m *Manager) LoadCatalog(ctx context.Context) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	m.loading = true
	m.mu.Unlock()

	fetchCtx, cancel := context.WithTimeout(ctx, m.config.FetchTimeout)
	tracks, err := m.catalog.FetchTracks(fetchCtx)
	cancel()

	lastID, _ := m.read(KeyLastTrackID)

	m.mu.Lock()
	m.loading = false
	if err != nil {
		m.clearSourceLocked()
		m.playlist = playlist.New("", nil)
		m.current = playlist.NoIndex
		m.playing = false
		m.errKind = ErrorCatalogFetch
		m.errMsg = MessageCatalogFetch
		m.sendEventLocked(Event{Type: EventCatalogLoaded, Snapshot: m.snapshotLocked()})
		m.sendEventLocked(Event{Type: EventError, Snapshot: m.snapshotLocked()})
		m.mu.Unlock()
		m.enqueue(audioOp{kind: opPause})
		return errors.Mark(errors.Wrap(err, "failed to load songs"), ErrCatalogFetch)
	}

	prevID := ""
	if t, ok := m.playlist.At(m.current); ok {
		prevID = t.ID
	}
	m.playlist = playlist.New("", tracks)
	if m.errKind == ErrorCatalogFetch {
		m.errKind = ErrorNone
		m.errMsg = ""
	}
	zlog.Info().Msgf("playback: catalog loaded: tracks=%d", m.playlist.Len())

	var ops []audioOp
	switch {
	case prevID != "" && m.playlist.Contains(prevID):
		// Keep the current track and whatever the backend is doing with it.
		m.current = m.playlist.IndexOf(prevID)
	case m.playlist.IsEmpty():
		m.clearSourceLocked()
		m.current = playlist.NoIndex
		m.playing = false
		ops = append(ops, audioOp{kind: opPause})
	default:
		idx := m.playlist.IndexOf(lastID)
		if idx == playlist.NoIndex {
			idx = 0
		}
		m.playing = false
		ops = append(ops, m.selectLocked(idx, false))
	}
	m.sendEventLocked(Event{Type: EventCatalogLoaded, Snapshot: m.snapshotLocked()})
	m.mu.Unlock()

	m.enqueue(ops...)
	return nil
}

// PlayTrack makes the track with the given ID current and starts it.
// Playback failures are reported through the error state, not returned.
func (m *Manager) PlayTrack(id string) (Snapshot, error) {
	m.mu.Lock()
	idx := m.playlist.IndexOf(id)
	if idx == playlist.NoIndex {
		m.mu.Unlock()
		return Snapshot{}, errors.Wrapf(ErrTrackNotFound, "id=%s", id)
	}
	op := m.selectLocked(idx, true)
	snap := m.snapshotLocked()
	m.mu.Unlock()

	m.enqueue(op)
	return snap, nil
}

// TogglePlay flips the playing flag. It is a no-op on an empty playlist.
func (m *Manager) TogglePlay() Snapshot {
	m.mu.Lock()
	if m.playlist.IsEmpty() {
		snap := m.snapshotLocked()
		m.mu.Unlock()
		return snap
	}

	var op audioOp
	if m.current == playlist.NoIndex {
		op = m.selectLocked(0, true)
	} else {
		m.playing = !m.playing
		gen := m.gen.Load()
		switch {
		case m.playing && m.loadedGen.Load() != gen:
			t, _ := m.playlist.At(m.current)
			m.clearPlaybackErrorLocked()
			op = audioOp{kind: opLoad, gen: gen, url: t.AudioURL, play: true}
		case m.playing:
			m.clearPlaybackErrorLocked()
			op = audioOp{kind: opPlay, gen: gen}
		default:
			op = audioOp{kind: opPause, gen: gen}
		}
		m.sendEventLocked(Event{Type: EventPlayStateChanged, Snapshot: m.snapshotLocked()})
	}
	snap := m.snapshotLocked()
	m.mu.Unlock()

	m.enqueue(op)
	return snap
}

// PlayNext advances circularly and starts playing. No-op on an empty playlist.
func (m *Manager) PlayNext() Snapshot {
	return m.step((*playlist.Playlist).NextIndex)
}

// PlayPrevious retreats circularly and starts playing. No-op on an empty playlist.
func (m *Manager) PlayPrevious() Snapshot {
	return m.step((*playlist.Playlist).PrevIndex)
}

func (m *Manager) step(next func(*playlist.Playlist, int) int) Snapshot {
	m.mu.Lock()
	if m.playlist.IsEmpty() {
		snap := m.snapshotLocked()
		m.mu.Unlock()
		return snap
	}
	op := m.selectLocked(next(m.playlist, m.current), true)
	snap := m.snapshotLocked()
	m.mu.Unlock()

	m.enqueue(op)
	return snap
}

// SetVolume clamps v to [0, 1], applies and persists it.
func (m *Manager) SetVolume(v float64) Snapshot {
	m.mu.Lock()
	if math.IsNaN(v) {
		v = 0
	}
	m.volume = clamp(v)
	m.persistLocked(KeyVolume, strconv.FormatFloat(m.volume, 'f', -1, 64))
	m.sendEventLocked(Event{Type: EventVolumeChanged, Snapshot: m.snapshotLocked()})
	snap := m.snapshotLocked()
	m.mu.Unlock()

	m.enqueue(audioOp{kind: opVolume, volume: snap.Volume})
	return snap
}

// Pause stops playback if it is playing.
func (m *Manager) Pause() Snapshot {
	m.mu.Lock()
	if !m.playing {
		snap := m.snapshotLocked()
		m.mu.Unlock()
		return snap
	}
	m.playing = false
	m.sendEventLocked(Event{Type: EventPlayStateChanged, Snapshot: m.snapshotLocked()})
	snap := m.snapshotLocked()
	gen := m.gen.Load()
	m.mu.Unlock()

	m.enqueue(audioOp{kind: opPause, gen: gen})
	return snap
}

// DismissError clears the error state.
func (m *Manager) DismissError() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.errKind != ErrorNone {
		m.errKind = ErrorNone
		m.errMsg = ""
		m.sendEventLocked(Event{Type: EventError, Snapshot: m.snapshotLocked()})
	}
	return m.snapshotLocked()
}

// Close stops the audio worker, deregisters the ended handler and closes the event channel.
func (m *Manager) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	m.clearSourceLocked()
	m.mu.Unlock()

	m.cancel()
	<-m.done

	m.mu.Lock()
	close(m.eventCh)
	m.mu.Unlock()
}

// selectLocked makes idx current, bumps the source generation and
// re-registers the ended handler. It returns the load op to enqueue.
// Must be called with lock held.
func (m *Manager) selectLocked(idx int, play bool) audioOp {
	t, _ := m.playlist.At(idx)
	m.current = idx
	m.playing = play
	if play {
		m.clearPlaybackErrorLocked()
	}

	gen := m.gen.Add(1)
	if m.unsubscribeEnded != nil {
		m.unsubscribeEnded()
		m.unsubscribeEnded = nil
	}
	if m.audio != nil && !m.closed {
		m.unsubscribeEnded = m.audio.OnEnded(func(err error) { m.onEnded(gen, err) })
	}

	m.persistLocked(KeyLastTrackID, t.ID)
	zlog.Debug().Msgf("playback: track selected: id=%s title=%s play=%v gen=%d", t.ID, t.Title, play, gen)
	m.sendEventLocked(Event{Type: EventTrackChanged, Snapshot: m.snapshotLocked()})
	return audioOp{kind: opLoad, gen: gen, url: t.AudioURL, play: play}
}

// clearSourceLocked invalidates the current source and drops its ended handler.
func (m *Manager) clearSourceLocked() {
	m.gen.Add(1)
	if m.unsubscribeEnded != nil {
		m.unsubscribeEnded()
		m.unsubscribeEnded = nil
	}
}

func (m *Manager) clearPlaybackErrorLocked() {
	if m.errKind == ErrorPlaybackStart {
		m.errKind = ErrorNone
		m.errMsg = ""
	}
}

// onEnded advances to the next track when the track of generation gen
// finishes, or records a playback failure when err is set. Reports that
// arrive before the source of gen was loaded belong to the previous source.
func (m *Manager) onEnded(gen uint64, err error) {
	if gen != m.loadedGen.Load() {
		zlog.Debug().Msgf("playback: ignoring end of unloaded source: gen=%d", gen)
		return
	}
	if err != nil {
		m.loadedGen.CompareAndSwap(gen, 0)
		m.handleResult(gen, err)
		return
	}

	m.mu.Lock()
	if m.closed || gen != m.gen.Load() || m.playlist.IsEmpty() {
		m.mu.Unlock()
		return
	}
	zlog.Debug().Msgf("playback: track ended: gen=%d", gen)
	op := m.selectLocked(m.playlist.NextIndex(m.current), true)
	m.mu.Unlock()

	m.enqueue(op)
}

// enqueue hands ops to the audio worker.
func (m *Manager) enqueue(ops ...audioOp) {
	if m.audio == nil {
		return
	}
	for _, op := range ops {
		select {
		case m.ops <- op:
		case <-m.ctx.Done():
			return
		}
	}
}

// runWorker serialises all audio backend calls.
func (m *Manager) runWorker() {
	defer close(m.done)

	for {
		select {
		case <-m.ctx.Done():
			return
		case op := <-m.ops:
			m.apply(op)
		}
	}
}

func (m *Manager) apply(op audioOp) {
	ctx := m.ctx
	switch op.kind {
	case opLoad:
		if m.stale(op.gen) {
			return
		}
		err := m.audio.SetSource(ctx, op.url)
		if err == nil {
			m.loadedGen.Store(op.gen)
		}
		if err == nil && op.play && !m.stale(op.gen) {
			err = m.audio.Play(ctx)
		}
		if err != nil && !op.play {
			zlog.Warn().Err(err).Msgf("playback: failed to load source: url=%s", op.url)
			return
		}
		m.handleResult(op.gen, err)
	case opPlay:
		if m.stale(op.gen) {
			return
		}
		m.handleResult(op.gen, m.audio.Play(ctx))
	case opPause:
		if err := m.audio.Pause(ctx); err != nil {
			zlog.Warn().Err(err).Msg("playback: failed to pause")
		}
	case opVolume:
		if err := m.audio.SetVolume(ctx, op.volume); err != nil {
			zlog.Warn().Err(err).Msgf("playback: failed to set volume: volume=%.2f", op.volume)
		}
	}
}

func (m *Manager) stale(gen uint64) bool {
	return gen != m.gen.Load()
}

// handleResult records the outcome of a play attempt unless a newer selection superseded it.
func (m *Manager) handleResult(gen uint64, err error) {
	if err == nil {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed || gen != m.gen.Load() {
		zlog.Debug().Err(err).Msgf("playback: discarding stale play result: gen=%d", gen)
		return
	}
	zlog.Warn().Err(err).Msg("playback: failed to start track")
	m.playing = false
	m.errKind = ErrorPlaybackStart
	m.errMsg = MessagePlaybackStart
	m.sendEventLocked(Event{Type: EventError, Snapshot: m.snapshotLocked()})
}

func (m *Manager) snapshotLocked() Snapshot {
	s := Snapshot{
		CurrentIndex: m.current,
		IsPlaying:    m.playing,
		Volume:       m.volume,
		TrackCount:   m.playlist.Len(),
		Loading:      m.loading,
		ErrorKind:    m.errKind,
		Error:        m.errMsg,
	}
	if t, ok := m.playlist.At(m.current); ok {
		s.CurrentTrack = &t
	}
	return s
}

// sendEventLocked sends an event without blocking.
// Must be called with lock held.
func (m *Manager) sendEventLocked(e Event) {
	if m.closed {
		return
	}
	select {
	case m.eventCh <- e:
	default:
		zlog.Debug().Msgf("playback: event dropped: type=%s", e.Type)
	}
}

func (m *Manager) read(key string) (string, bool) {
	if m.store == nil {
		return "", false
	}
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()

	v, ok, err := m.store.Get(ctx, key)
	if err != nil {
		zlog.Warn().Err(err).Msgf("playback: failed to read %s", key)
		return "", false
	}
	return v, ok
}

func (m *Manager) persistLocked(key, value string) {
	if m.store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	if err := m.store.Set(ctx, key, value); err != nil {
		zlog.Warn().Err(err).Msgf("playback: failed to persist %s", key)
	}
}

func clamp(v float64) float64 {
	return math.Min(1, math.Max(0, v))
}

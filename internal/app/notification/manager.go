// Package notification fans session events out to connected subscribers.
package notification

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"

	pomotunev1 "github.com/osa030/pomotune/internal/api/pomotune/v1"
)

// ErrClosed is returned by Subscribe after Close.
var ErrClosed = errors.New("notification manager closed")

const (
	defaultSendTimeout = 500 * time.Millisecond
	defaultMaxFailures = 5
)

// Stream represents a notification stream for a subscriber.
type Stream interface {
	Send(*pomotunev1.Notification) error
}

// Filter reports whether a subscriber wants n.
type Filter func(n *pomotunev1.Notification) bool

// All accepts every notification.
func All(*pomotunev1.Notification) bool { return true }

// WithoutTicks drops timer tick notifications.
func WithoutTicks(n *pomotunev1.Notification) bool {
	return n.Type != pomotunev1.NotificationTypeTimerTick
}

// TickFilter returns All when includeTicks is set, WithoutTicks otherwise.
func TickFilter(includeTicks bool) Filter {
	if includeTicks {
		return All
	}
	return WithoutTicks
}

type subscriber struct {
	id       string
	stream   Stream
	filter   Filter
	failures int
}

// Manager broadcasts notifications with a monotonically increasing sequence number.
// A subscriber whose sends fail or time out maxFailures times in a row is dropped.
type Manager struct {
	mu          sync.RWMutex
	subscribers map[string]*subscriber
	closed      bool

	seq         atomic.Uint64
	sendTimeout time.Duration
	maxFailures int
}

// NewManager creates a new notification manager.
func NewManager() *Manager {
	return &Manager{
		subscribers: make(map[string]*subscriber),
		sendTimeout: defaultSendTimeout,
		maxFailures: defaultMaxFailures,
	}
}

// Subscribe registers stream and returns its subscription ID.
// A nil filter behaves like All.
func (m *Manager) Subscribe(stream Stream, filter Filter) (string, error) {
	if filter == nil {
		filter = All
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return "", ErrClosed
	}

	id := uuid.NewString()
	m.subscribers[id] = &subscriber{id: id, stream: stream, filter: filter}
	zlog.Debug().Msgf("notification: subscribed: id=%s subscribers=%d", id, len(m.subscribers))
	return id, nil
}

// Unsubscribe removes a subscription. Unknown IDs are ignored.
func (m *Manager) Unsubscribe(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.subscribers, id)
}

// NextSequenceNo reserves the next sequence number.
func (m *Manager) NextSequenceNo() uint64 {
	return m.seq.Add(1)
}

// Broadcast stamps n with the next sequence number and delivers it to every
// interested subscriber concurrently. It returns once each send has finished
// or timed out.
func (m *Manager) Broadcast(n *pomotunev1.Notification) {
	n.SequenceNo = m.NextSequenceNo()

	m.mu.RLock()
	targets := make([]*subscriber, 0, len(m.subscribers))
	for _, sub := range m.subscribers {
		if sub.filter(n) {
			targets = append(targets, sub)
		}
	}
	m.mu.RUnlock()

	if len(targets) == 0 {
		return
	}

	results := make([]error, len(targets))
	var wg sync.WaitGroup
	for i, sub := range targets {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = m.sendWithTimeout(sub, n)
		}()
	}
	wg.Wait()

	m.record(targets, results)
}

func (m *Manager) sendWithTimeout(sub *subscriber, n *pomotunev1.Notification) error {
	done := make(chan error, 1)
	go func() { done <- sub.stream.Send(n) }()

	timer := time.NewTimer(m.sendTimeout)
	defer timer.Stop()

	select {
	case err := <-done:
		if err != nil {
			zlog.Debug().Err(err).Msgf("notification: send failed: id=%s seq=%d", sub.id, n.SequenceNo)
		}
		return err
	case <-timer.C:
		zlog.Debug().Msgf("notification: send timed out: id=%s seq=%d", sub.id, n.SequenceNo)
		return errors.Newf("send timed out after %s", m.sendTimeout)
	}
}

// record updates failure streaks and evicts subscribers that exceeded maxFailures.
func (m *Manager) record(targets []*subscriber, results []error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, sub := range targets {
		if results[i] == nil {
			sub.failures = 0
			continue
		}
		sub.failures++
		if m.maxFailures > 0 && sub.failures >= m.maxFailures {
			if _, ok := m.subscribers[sub.id]; ok {
				delete(m.subscribers, sub.id)
				zlog.Warn().Msgf("notification: subscriber dropped: id=%s failures=%d", sub.id, sub.failures)
			}
		}
	}
}

// SubscriberCount returns the number of active subscribers.
func (m *Manager) SubscriberCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.subscribers)
}

// Close removes every subscription and rejects new ones.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	clear(m.subscribers)
}

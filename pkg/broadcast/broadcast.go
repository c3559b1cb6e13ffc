// Package broadcast carries best-effort session notifications between
// sibling client instances, so a logout in one place converges every
// other instance to the logged-out state.
package broadcast

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// KindLogout announces that an instance reset its session.
const KindLogout = "logout"

// Event is a session notification. InstanceID identifies the sender so
// receivers can ignore their own publications.
type Event struct {
	Kind       string    `json:"kind"`
	InstanceID string    `json:"instanceId"`
	At         time.Time `json:"at"`
}

// Broadcaster delivers events between instances. Publish is
// fire-and-forget: failures are reported but must never block the caller's
// main flow (a logout proceeds whether or not siblings heard about it).
type Broadcaster interface {
	Publish(ctx context.Context, e Event) error
	Subscribe(fn func(Event)) (cancel func())
	Close() error
}

// NewInstanceID mints the identity an instance attaches to its events.
func NewInstanceID() string { return uuid.NewString() }

// Memory is an in-process bus for instances sharing one process.
type Memory struct {
	mu     sync.Mutex
	subs   map[int]func(Event)
	nextID int
	closed bool
}

// NewMemory creates an empty in-process bus.
func NewMemory() *Memory {
	return &Memory{subs: map[int]func(Event){}}
}

// Publish delivers the event to every subscriber synchronously.
func (m *Memory) Publish(_ context.Context, e Event) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	subs := make([]func(Event), 0, len(m.subs))
	for _, fn := range m.subs {
		subs = append(subs, fn)
	}
	m.mu.Unlock()
	for _, fn := range subs {
		fn(e)
	}
	return nil
}

// Subscribe registers a handler and returns its cancel func.
func (m *Memory) Subscribe(fn func(Event)) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextID
	m.nextID++
	m.subs[id] = fn
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.subs, id)
	}
}

// Close drops all subscribers.
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.subs = map[int]func(Event){}
	return nil
}

var _ Broadcaster = (*Memory)(nil)

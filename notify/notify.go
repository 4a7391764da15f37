// Package notify fans out domain events to connected dashboard clients.
package notify

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

// Event names published by the request service.
const (
	EventRequestCreated = "request-created"
	EventRequestDeleted = "request-deleted"
)

var ErrClosed = errors.New("notify: hub closed")

// Event is a single published message.
type Event struct {
	Name    string
	Payload any
}

// Publisher delivers an event to every current subscriber.
type Publisher interface {
	Publish(ctx context.Context, name string, payload any) error
}

// Hub is an in-process Publisher. Each subscriber owns a buffered channel;
// when a subscriber falls behind, events for it are dropped instead of
// blocking the publisher.
type Hub struct {
	mu     sync.RWMutex
	subs   map[uint64]chan Event
	nextID uint64
	buffer int
	closed bool
	logger *slog.Logger
}

var _ Publisher = (*Hub)(nil)

// HubOption customises a Hub.
type HubOption func(*Hub)

// WithBuffer sets the per-subscriber channel capacity.
func WithBuffer(n int) HubOption {
	return func(h *Hub) {
		if n > 0 {
			h.buffer = n
		}
	}
}

// WithLogger sets the logger used to report dropped events.
func WithLogger(l *slog.Logger) HubOption {
	return func(h *Hub) {
		if l != nil {
			h.logger = l
		}
	}
}

// NewHub builds an empty Hub.
func NewHub(opts ...HubOption) *Hub {
	h := &Hub{
		subs:   make(map[uint64]chan Event),
		buffer: 16,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h
}

// Publish sends the event to all subscribers without blocking.
func (h *Hub) Publish(ctx context.Context, name string, payload any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		return ErrClosed
	}
	ev := Event{Name: name, Payload: payload}
	for id, ch := range h.subs {
		select {
		case ch <- ev:
		default:
			h.logger.WarnContext(ctx, "dropping event for slow subscriber", "event", name, "subscriber", id)
		}
	}
	return nil
}

// Subscribe registers a new subscriber. The returned cancel func removes it
// and closes the channel; it is safe to call more than once.
func (h *Hub) Subscribe() (<-chan Event, func(), error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, nil, ErrClosed
	}
	id := h.nextID
	h.nextID++
	ch := make(chan Event, h.buffer)
	h.subs[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if c, ok := h.subs[id]; ok {
				delete(h.subs, id)
				close(c)
			}
		})
	}
	return ch, cancel, nil
}

// Subscribers reports the number of connected subscribers.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Close disconnects every subscriber. Later publishes fail with ErrClosed.
func (h *Hub) Close() {
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

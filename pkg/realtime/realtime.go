// Package realtime fans out marketplace change notifications to in-process
// listeners.
//
// Events arrive from the notification socket (see Subscriber) or are
// produced locally by the dev search service. Delivery is best effort: slow
// listeners drop events, nothing is persisted or replayed.
package realtime

import (
	"strings"
	"sync"
	"time"
)

// Event types emitted by the notification socket.
const (
	GigCreated = "gig:created"
	GigUpdated = "gig:updated"
	GigDeleted = "gig:deleted"
	Heartbeat  = "heartbeat"
)

// Event is a single notification.
type Event struct {
	Type    string    `json:"type"`
	GigID   string    `json:"gig_id,omitempty"`
	Message string    `json:"message,omitempty"`
	At      time.Time `json:"at"`
}

// IsGig reports whether the event describes a change to a gig listing.
func (e Event) IsGig() bool {
	return strings.HasPrefix(e.Type, "gig:")
}

// NewEvent returns an event of type typ stamped with the current UTC time.
func NewEvent(typ, gigID, message string) Event {
	return Event{Type: typ, GigID: gigID, Message: message, At: time.Now().UTC()}
}

// Hub is an in-memory fan-out dispatcher. Each listener receives events on
// its own buffered channel; when that buffer is full the event is dropped for
// that listener only.
type Hub struct {
	mu        sync.RWMutex
	listeners map[uint64]chan Event
	nextID    uint64
	bufSize   int
}

// NewHub returns a hub with the given per-listener buffer, 32 when
// bufSize <= 0.
func NewHub(bufSize int) *Hub {
	if bufSize <= 0 {
		bufSize = 32
	}
	return &Hub{
		listeners: make(map[uint64]chan Event),
		bufSize:   bufSize,
	}
}

// Register adds a listener. Callers must Unregister the returned id.
func (h *Hub) Register() (uint64, <-chan Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.nextID
	h.nextID++
	ch := make(chan Event, h.bufSize)
	h.listeners[id] = ch
	return id, ch
}

// Unregister removes the listener and closes its channel. Unknown ids are
// ignored.
func (h *Hub) Unregister(id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if ch, ok := h.listeners[id]; ok {
		delete(h.listeners, id)
		close(ch)
	}
}

// Broadcast delivers e to every listener without blocking.
func (h *Hub) Broadcast(e Event) {
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, ch := range h.listeners {
		select {
		case ch <- e:
		default:
			// slow listener
		}
	}
}

// Size returns the number of registered listeners.
func (h *Hub) Size() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.listeners)
}

// Package notify fans out full-collection snapshots to live subscribers and
// forwards domain events to external systems.
package notify

import (
	"sync"
	"time"
)

// Snapshot is the full content of one collection at a given version.
type Snapshot struct {
	Collection string    `json:"collection"`
	Version    uint64    `json:"version"`
	Items      any       `json:"items"`
	At         time.Time `json:"at"`
}

// Hub keeps the latest snapshot per collection and pushes it to subscribers.
// Publish never blocks: each subscriber has a one-slot mailbox where a newer
// snapshot replaces an unread older one.
type Hub struct {
	mu     sync.Mutex
	topics map[string]*topic
}

type topic struct {
	version uint64
	latest  *Snapshot
	subs    map[*Subscription]struct{}
}

type Subscription struct {
	ch         chan Snapshot
	hub        *Hub
	collection string
	closed     bool
}

func NewHub() *Hub {
	return &Hub{topics: map[string]*topic{}}
}

func (h *Hub) topic(collection string) *topic {
	t, ok := h.topics[collection]
	if !ok {
		t = &topic{subs: map[*Subscription]struct{}{}}
		h.topics[collection] = t
	}
	return t
}

// Publish stores snap and offers it to every subscriber. It reports false when
// snap is not newer than what the collection already holds.
func (h *Hub) Publish(snap Snapshot) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	t := h.topic(snap.Collection)
	if snap.Version <= t.version {
		return false
	}
	t.version = snap.Version
	cp := snap
	t.latest = &cp
	for sub := range t.subs {
		sub.offer(snap)
	}
	return true
}

// Subscribe registers a subscriber; the current snapshot, if any, is already waiting in C.
func (h *Hub) Subscribe(collection string) *Subscription {
	h.mu.Lock()
	defer h.mu.Unlock()
	t := h.topic(collection)
	sub := &Subscription{ch: make(chan Snapshot, 1), hub: h, collection: collection}
	t.subs[sub] = struct{}{}
	if t.latest != nil {
		sub.offer(*t.latest)
	}
	return sub
}

func (h *Hub) Latest(collection string) (Snapshot, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	t, ok := h.topics[collection]
	if !ok || t.latest == nil {
		return Snapshot{}, false
	}
	return *t.latest, true
}

func (h *Hub) Subscribers(collection string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	if t, ok := h.topics[collection]; ok {
		return len(t.subs)
	}
	return 0
}

// offer must be called with the hub lock held.
func (s *Subscription) offer(snap Snapshot) {
	if s.closed {
		return
	}
	for {
		select {
		case s.ch <- snap:
			return
		default:
		}
		select {
		case <-s.ch:
		default:
		}
	}
}

// C delivers snapshots with non-decreasing versions. It is closed by Close.
func (s *Subscription) C() <-chan Snapshot {
	return s.ch
}

func (s *Subscription) Close() {
	s.hub.mu.Lock()
	defer s.hub.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	if t, ok := s.hub.topics[s.collection]; ok {
		delete(t.subs, s)
	}
	close(s.ch)
}

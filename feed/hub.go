// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package feed

import (
	"log/slog"
	"sync"

	"github.com/danielhkuo/chainelect/election"
)

// DefaultBuffer is the per-subscriber channel capacity
const DefaultBuffer = 64

type subscriber struct {
	electionID string
	ch         chan election.Event
}

// Hub fans committed election events out to live subscribers.
// Publish never blocks; a subscriber whose buffer is full misses the event
// and must catch up from the journal.
type Hub struct {
	mu     sync.RWMutex
	subs   map[int]*subscriber
	nextID int
	buffer int
}

var _ election.Publisher = (*Hub)(nil)

func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Hub{
		subs:   make(map[int]*subscriber),
		buffer: buffer,
	}
}

// Publish delivers ev to every subscriber of its election
func (h *Hub) Publish(ev election.Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for id, s := range h.subs {
		if s.electionID != ev.ElectionID {
			continue
		}
		select {
		case s.ch <- ev:
		default:
			slog.Warn("dropping event for slow subscriber",
				"subscriber", id,
				"election_id", ev.ElectionID,
				"seq", ev.Seq,
			)
		}
	}
}

// Subscribe registers interest in one election. The returned cancel func
// unregisters and closes the channel; it is safe to call more than once.
func (h *Hub) Subscribe(electionID string) (<-chan election.Event, func()) {
	s := &subscriber{
		electionID: electionID,
		ch:         make(chan election.Event, h.buffer),
	}

	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.subs[id] = s
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, id)
			h.mu.Unlock()
			close(s.ch)
		})
	}
	return s.ch, cancel
}

// Subscribers returns the number of live subscriptions
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

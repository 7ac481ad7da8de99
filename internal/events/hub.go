// Package events fans out messages to subscribers of a named topic. It stands
// in for the extension's tab messaging: a topic with no subscriber behaves like
// a tab whose UI has not loaded yet.
package events

import (
	"errors"
	"sync"
)

// ErrNoSubscribers is returned by Publish when nothing listens on the topic.
var ErrNoSubscribers = errors.New("no subscribers for topic")

// Event is one message on a topic. Data is marshalled to JSON by SSE consumers.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

const subscriberBuffer = 16

type subscriber struct {
	ch chan Event
}

// Hub is safe for concurrent use.
type Hub struct {
	mu     sync.RWMutex
	topics map[string]map[*subscriber]struct{}
}

func NewHub() *Hub {
	return &Hub{topics: make(map[string]map[*subscriber]struct{})}
}

// Subscribe registers a listener on topic. The returned cancel func removes the
// listener and closes its channel; it is safe to call more than once.
func (h *Hub) Subscribe(topic string) (<-chan Event, func()) {
	sub := &subscriber{ch: make(chan Event, subscriberBuffer)}

	h.mu.Lock()
	subs, ok := h.topics[topic]
	if !ok {
		subs = make(map[*subscriber]struct{})
		h.topics[topic] = subs
	}
	subs[sub] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if subs, ok := h.topics[topic]; ok {
				delete(subs, sub)
				if len(subs) == 0 {
					delete(h.topics, topic)
				}
			}
			close(sub.ch)
		})
	}
	return sub.ch, cancel
}

// Publish delivers ev to every current subscriber of topic without blocking.
// A subscriber whose buffer is full misses the event.
func (h *Hub) Publish(topic string, ev Event) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	subs := h.topics[topic]
	if len(subs) == 0 {
		return ErrNoSubscribers
	}
	for sub := range subs {
		select {
		case sub.ch <- ev:
		default:
		}
	}
	return nil
}

// Subscribers reports how many listeners topic currently has.
func (h *Hub) Subscribers(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[topic])
}

// Package realtime fans change events out to WebSocket subscribers.
package realtime

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/RehanEggSupplierdev/batchboard/internal/models"
)

// Broker delivers payloads published on a topic to every subscriber of that topic.
// Handlers run on the publishing goroutine and must not block.
type Broker interface {
	Publish(ctx context.Context, topic string, payload []byte) error
	Subscribe(topic string, handler func([]byte)) (unsubscribe func())
}

func CommentTopic(targetType models.TargetType, targetID string) string {
	return "comments:" + string(targetType) + ":" + targetID
}

func ProfileTopic(profileID string) string {
	return "profiles:" + profileID
}

// Hub is the in-process Broker.
type Hub struct {
	mu     sync.RWMutex
	nextID atomic.Uint64
	topics map[string]map[uint64]func([]byte)
}

func NewHub() *Hub {
	return &Hub{topics: make(map[string]map[uint64]func([]byte))}
}

func (h *Hub) Publish(ctx context.Context, topic string, payload []byte) error {
	h.Deliver(topic, payload)
	return nil
}

// Deliver hands payload to the local subscribers of topic.
func (h *Hub) Deliver(topic string, payload []byte) int {
	h.mu.RLock()
	handlers := make([]func([]byte), 0, len(h.topics[topic]))
	for _, fn := range h.topics[topic] {
		handlers = append(handlers, fn)
	}
	h.mu.RUnlock()

	for _, fn := range handlers {
		fn(payload)
	}
	return len(handlers)
}

func (h *Hub) Subscribe(topic string, handler func([]byte)) func() {
	id := h.nextID.Add(1)

	h.mu.Lock()
	if h.topics[topic] == nil {
		h.topics[topic] = make(map[uint64]func([]byte))
	}
	h.topics[topic][id] = handler
	h.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if subs, ok := h.topics[topic]; ok {
				delete(subs, id)
				if len(subs) == 0 {
					delete(h.topics, topic)
				}
			}
		})
	}
}

// Subscribers reports how many local handlers are attached to topic.
func (h *Hub) Subscribers(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[topic])
}

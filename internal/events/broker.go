// Path: internal/events/broker.go
package events

import (
	"sync"
	"time"
)

// Topics published by the refresh loop.
const (
	TopicRefreshed     = "catalog:refreshed"
	TopicRefreshFailed = "catalog:refresh_failed"
)

// Event represents a message passed through the broker.
type Event struct {
	Topic string
	Data  any
}

// RefreshEvent is the payload of both refresh topics.
type RefreshEvent struct {
	Resource string
	Records  int
	Err      error
	At       time.Time
}

// Broker implements a simple in-memory pub/sub system.
type Broker struct {
	mu          sync.RWMutex
	subscribers map[string][]chan Event
}

// NewBroker creates a new event broker.
func NewBroker() *Broker {
	return &Broker{
		subscribers: make(map[string][]chan Event),
	}
}

// Subscribe creates a new subscription to a topic.
// It returns a read-only channel where events for that topic will be sent.
func (b *Broker) Subscribe(topic string) <-chan Event {
	return b.SubscribeBuffered(topic, 1)
}

// SubscribeBuffered is Subscribe with a caller-chosen buffer size.
func (b *Broker) SubscribeBuffered(topic string, size int) <-chan Event {
	if size < 1 {
		size = 1
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Event, size) // Buffered channel to prevent blocking publishers
	b.subscribers[topic] = append(b.subscribers[topic], ch)
	return ch
}

// Unsubscribe removes the subscription and closes its channel.
func (b *Broker) Unsubscribe(topic string, sub <-chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.subscribers[topic]
	for i, ch := range subs {
		if ch == sub {
			close(ch)
			b.subscribers[topic] = append(subs[:i], subs[i+1:]...)
			return
		}
	}
}

// Publish sends an event to all subscribers of a topic. It never blocks:
// a subscriber whose buffer is full misses the event.
func (b *Broker) Publish(topic string, data any) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	event := Event{Topic: topic, Data: data}
	for _, ch := range b.subscribers[topic] {
		select {
		case ch <- event:
		default:
		}
	}
}

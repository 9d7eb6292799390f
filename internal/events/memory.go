package events

import (
	"context"
	"sync"
)

// subscriberBuffer is the per-subscriber channel capacity. A full
// buffer drops events instead of blocking the publisher.
const subscriberBuffer = 100

type memorySubscriber struct {
	ch chan *Event
}

// MemoryPubSub implements PubSub with an in-process topic registry.
type MemoryPubSub struct {
	mu     sync.RWMutex
	topics map[string]map[*memorySubscriber]struct{}
	closed bool
}

// NewMemoryPubSub creates an in-process pub/sub registry.
func NewMemoryPubSub() *MemoryPubSub {
	return &MemoryPubSub{
		topics: make(map[string]map[*memorySubscriber]struct{}),
	}
}

// Publish delivers the event to every current subscriber of the topic.
// Subscribers with full buffers miss the event.
func (m *MemoryPubSub) Publish(ctx context.Context, topic string, event *Event) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for sub := range m.topics[topic] {
		select {
		case sub.ch <- event:
		default:
			// Subscriber is not keeping up, drop.
		}
	}
	return nil
}

// Subscribe opens a feed on the topic. Only events published after the
// call are delivered.
func (m *MemoryPubSub) Subscribe(ctx context.Context, topic string) (*Subscription, error) {
	sub := &memorySubscriber{ch: make(chan *Event, subscriberBuffer)}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		close(sub.ch)
		return &Subscription{C: sub.ch, cancel: func() {}}, nil
	}
	subs, ok := m.topics[topic]
	if !ok {
		subs = make(map[*memorySubscriber]struct{})
		m.topics[topic] = subs
	}
	subs[sub] = struct{}{}
	m.mu.Unlock()

	cancel := func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if subs, ok := m.topics[topic]; ok {
			if _, present := subs[sub]; present {
				delete(subs, sub)
				close(sub.ch)
				if len(subs) == 0 {
					delete(m.topics, topic)
				}
			}
		}
	}

	return &Subscription{C: sub.ch, cancel: cancel}, nil
}

// Close drops every subscription.
func (m *MemoryPubSub) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}
	m.closed = true
	for _, subs := range m.topics {
		for sub := range subs {
			close(sub.ch)
		}
	}
	m.topics = make(map[string]map[*memorySubscriber]struct{})
	return nil
}

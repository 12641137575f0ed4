// Package broker holds the shared pub/sub implementations used to bridge bus instances.
package broker

import (
	"civic-stream/contract"
	"civic-stream/errors"
	"context"
	"sync"
)

var _ contract.Broker = (*Memory)(nil)

// Memory is an in-process broker. Several buses sharing one Memory behave like
// instances sharing a real broker, which is what the multi-instance tests rely on.
// Payloads are copied so a subscriber never sees a buffer mutated by the publisher.
type Memory struct {
	mu     sync.RWMutex
	topics map[string]map[int]func([]byte)
	nextID int
	closed bool
	done   chan struct{}
}

func NewMemory() *Memory {
	return &Memory{topics: make(map[string]map[int]func([]byte)), done: make(chan struct{})}
}

func (m *Memory) Publish(ctx context.Context, topic string, payload []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.RLock()
	if m.closed {
		m.mu.RUnlock()
		return errors.ErrBrokerClosed
	}
	handlers := make([]func([]byte), 0, len(m.topics[topic]))
	for _, h := range m.topics[topic] {
		handlers = append(handlers, h)
	}
	m.mu.RUnlock()

	for _, h := range handlers {
		h(append([]byte(nil), payload...))
	}
	return nil
}

// Subscribe blocks until ctx is done or the broker is closed.
func (m *Memory) Subscribe(ctx context.Context, topic string, handler func([]byte)) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return errors.ErrBrokerClosed
	}
	subs, ok := m.topics[topic]
	if !ok {
		subs = make(map[int]func([]byte))
		m.topics[topic] = subs
	}
	m.nextID++
	id := m.nextID
	subs[id] = handler
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		delete(m.topics[topic], id)
		if len(m.topics[topic]) == 0 {
			delete(m.topics, topic)
		}
		m.mu.Unlock()
	}()

	select {
	case <-ctx.Done():
		return nil
	case <-m.done:
		return errors.ErrBrokerClosed
	}
}

// Subscribers returns the number of active subscriptions on a topic.
func (m *Memory) Subscribers(topic string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.topics[topic])
}

func (m *Memory) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.closed = true
	close(m.done)
}

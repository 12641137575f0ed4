// Package runtime handles event propagation across sessions and instances.
// It orchestrates delivery without containing business logic or domain rules.
package runtime

import (
	"civic-stream/contract"
	"civic-stream/domain"
	"civic-stream/domain/event"
	"civic-stream/errors"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// DefaultMaxListeners is the per-channel ceiling when none is configured.
// One report can easily have dozens of simultaneous viewers.
const DefaultMaxListeners = 512

var _ contract.IBus = (*Bus)(nil)

// Bus is the realtime bus: an in-process fan-out keyed by channel, bridged to other
// instances through a shared broker topic when a broker is configured.
//
// Publish delivers synchronously to local subscribers first, then forwards a
// BridgeEnvelope to the broker. Envelopes coming back from the broker are re-emitted
// locally only when they originate from another instance.
type Bus struct {
	mu           sync.RWMutex
	log          *slog.Logger
	instanceID   string
	channels     map[string]map[uint64]contract.Handler
	nextID       uint64
	maxListeners int
	broker       contract.Broker
	topic        string
}

// NewBus builds the process-wide bus. It is created once at bootstrap and shared by reference.
// broker may be nil for a single-instance deployment.
func NewBus(log *slog.Logger, instanceID string, maxListeners int, broker contract.Broker, topic string) *Bus {
	if maxListeners <= 0 {
		maxListeners = DefaultMaxListeners
	}
	return &Bus{
		log:          log,
		instanceID:   instanceID,
		channels:     make(map[string]map[uint64]contract.Handler),
		maxListeners: maxListeners,
		broker:       broker,
		topic:        topic,
	}
}

func (b *Bus) InstanceID() string { return b.instanceID }

// Subscribe registers a handler on a channel and returns its unsubscribe function.
// Unsubscribe is idempotent and removes empty channels to prevent leaks over time.
func (b *Bus) Subscribe(channel domain.Channel, handler contract.Handler) (func(), error) {
	if !channel.Kind.Valid() || channel.ID == "" {
		return nil, fmt.Errorf("%w: %q", errors.ErrInvalidChannel, channel.Key())
	}
	key := channel.Key()

	b.mu.Lock()
	defer b.mu.Unlock()

	subs, ok := b.channels[key]
	if !ok {
		subs = make(map[uint64]contract.Handler)
		b.channels[key] = subs
	}
	if len(subs) >= b.maxListeners {
		return nil, fmt.Errorf("%w: %s (%d)", errors.ErrTooManyListeners, key, b.maxListeners)
	}
	b.nextID++
	id := b.nextID
	subs[id] = handler

	var once sync.Once
	return func() {
		once.Do(func() { b.unsubscribe(key, id) })
	}, nil
}

func (b *Bus) unsubscribe(key string, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	subs, ok := b.channels[key]
	if !ok {
		return
	}
	delete(subs, id)
	if len(subs) == 0 {
		delete(b.channels, key)
	}
}

func (b *Bus) SubscriberCount(channel domain.Channel) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.channels[channel.Key()])
}

// ChannelCount returns the number of channels with at least one subscriber.
func (b *Bus) ChannelCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.channels)
}

// Publish delivers locally, then bridges to the other instances.
// A broker failure is returned after local delivery already happened.
func (b *Bus) Publish(ctx context.Context, n event.Notification) error {
	b.DeliverLocal(ctx, n)
	if b.broker == nil {
		return nil
	}
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}
	envelope, err := json.Marshal(event.BridgeEnvelope{
		EventID:          n.EventID,
		OriginInstanceID: b.instanceID,
		Channel:          n.Channel,
		Payload:          payload,
		Timestamp:        time.Now().UnixMilli(),
	})
	if err != nil {
		return fmt.Errorf("encode bridge envelope: %w", err)
	}
	if err := b.broker.Publish(ctx, b.topic, envelope); err != nil {
		b.log.Error("Bridge publish failed, event delivered locally only",
			"event_id", n.EventID, "channel", n.Channel, "error", err)
		return fmt.Errorf("bridge publish: %w", err)
	}
	return nil
}

// DeliverLocal fans the notification out to local subscribers and returns how many received it.
// Handlers are called outside the lock so they may unsubscribe while being called.
func (b *Bus) DeliverLocal(ctx context.Context, n event.Notification) int {
	b.mu.RLock()
	subs := b.channels[n.Channel]
	handlers := make([]contract.Handler, 0, len(subs))
	for _, h := range subs {
		handlers = append(handlers, h)
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		b.call(ctx, h, n)
	}
	return len(handlers)
}

func (b *Bus) call(ctx context.Context, h contract.Handler, n event.Notification) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error("Bus handler panicked", "channel", n.Channel, "event_id", n.EventID, "panic", r)
		}
	}()
	h(ctx, n)
}

// Receive handles a raw envelope coming from the broker topic.
// Envelopes published by this instance are ignored: they were already delivered locally.
func (b *Bus) Receive(ctx context.Context, raw []byte) error {
	var envelope event.BridgeEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrContractViolation, err)
	}
	if err := envelope.Validate(); err != nil {
		return err
	}
	if envelope.OriginInstanceID == b.instanceID {
		return nil
	}
	var n event.Notification
	if err := json.Unmarshal(envelope.Payload, &n); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrContractViolation, err)
	}
	b.DeliverLocal(ctx, n)
	return nil
}

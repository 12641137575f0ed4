package client

import (
	"civic-stream/projection"
	"context"
	"sync"
)

const DefaultBroadcastBuffer = 64

// BroadcastMessage is an optimistic change shared between tabs of one device.
type BroadcastMessage struct {
	Resource string
	Entity   projection.Entity
	Removed  bool
}

// BroadcastHub fans messages out to every other member of a named channel, in process.
// Delivery is best effort: a member whose buffer is full misses the message and
// converges later through the stream or catchup.
type BroadcastHub struct {
	mu       sync.RWMutex
	channels map[string]map[*BroadcastChannel]struct{}
	buffer   int
}

func NewBroadcastHub(buffer int) *BroadcastHub {
	if buffer <= 0 {
		buffer = DefaultBroadcastBuffer
	}
	return &BroadcastHub{channels: make(map[string]map[*BroadcastChannel]struct{}), buffer: buffer}
}

func (h *BroadcastHub) Join(name string) *BroadcastChannel {
	ch := &BroadcastChannel{hub: h, name: name, messages: make(chan BroadcastMessage, h.buffer)}
	h.mu.Lock()
	defer h.mu.Unlock()
	members, ok := h.channels[name]
	if !ok {
		members = make(map[*BroadcastChannel]struct{})
		h.channels[name] = members
	}
	members[ch] = struct{}{}
	return ch
}

func (h *BroadcastHub) leave(ch *BroadcastChannel) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.channels[ch.name], ch)
	if len(h.channels[ch.name]) == 0 {
		delete(h.channels, ch.name)
	}
	close(ch.messages)
}

type BroadcastChannel struct {
	hub       *BroadcastHub
	name      string
	messages  chan BroadcastMessage
	closeOnce sync.Once
}

// Post sends msg to the other members and returns how many received it. The sender never gets its own message.
func (c *BroadcastChannel) Post(msg BroadcastMessage) int {
	c.hub.mu.RLock()
	defer c.hub.mu.RUnlock()
	delivered := 0
	for member := range c.hub.channels[c.name] {
		if member == c {
			continue
		}
		select {
		case member.messages <- msg:
			delivered++
		default:
		}
	}
	return delivered
}

func (c *BroadcastChannel) Messages() <-chan BroadcastMessage { return c.messages }

func (c *BroadcastChannel) Close() {
	c.closeOnce.Do(func() { c.hub.leave(c) })
}

// Pump applies received messages to cache until ctx is done or the channel is closed.
func (c *BroadcastChannel) Pump(ctx context.Context, cache *projection.Cache) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-c.messages:
			if !ok {
				return
			}
			if msg.Removed {
				cache.Remove(ctx, msg.Resource, msg.Entity.ID)
				continue
			}
			cache.Upsert(ctx, msg.Resource, msg.Entity)
		}
	}
}

package projection

import (
	"civic-stream/domain/event"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func message(channel, eventID, id, author string, ts int64) event.Frame {
	return event.Frame{
		Type: event.MessageCreated, ID: id, EventID: eventID, ServerTimestamp: ts, Channel: channel,
		Extra: map[string]any{"authorId": author},
	}
}

func TestInbox_UnreadAndOrdering(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	cache := NewCache(slog.Default(), nil)
	inbox := NewInbox("alice")
	cache.AddObserver(inbox)

	// Given activity on two conversations
	cache.ApplyFrame(ctx, message("conversation:c-1", "e-1", "m-1", "bob", 100))
	cache.ApplyFrame(ctx, message("conversation:c-2", "e-2", "m-2", "carol", 200))
	cache.ApplyFrame(ctx, message("conversation:c-1", "e-3", "m-3", "alice", 300))

	// Then the latest active comes first and own messages are not unread
	items := inbox.Items()
	req.Len(items, 2)
	req.Equal("conversation:c-1", items[0].Resource)
	req.Equal(1, items[0].Unread)
	req.Equal(1, inbox.Unread("conversation:c-2"))

	// When an entity is updated it is not counted again
	cache.ApplyFrame(ctx, event.Frame{Type: event.MessageUpdated, ID: "m-2", EventID: "e-4", ServerTimestamp: 250,
		Channel: "conversation:c-2", Extra: map[string]any{"authorId": "carol"}})
	req.Equal(1, inbox.Unread("conversation:c-2"))
}

func TestInbox_FocusedResourceStaysRead(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	cache := NewCache(slog.Default(), nil)
	inbox := NewInbox("alice")
	cache.AddObserver(inbox)
	cache.ApplyFrame(ctx, message("conversation:c-1", "e-1", "m-1", "bob", 100))
	req.Equal(1, inbox.Unread("conversation:c-1"))

	inbox.Focus("conversation:c-1")
	cache.ApplyFrame(ctx, message("conversation:c-1", "e-2", "m-2", "bob", 200))
	req.Equal(0, inbox.Unread("conversation:c-1"))

	inbox.Blur()
	cache.ApplyFrame(ctx, message("conversation:c-1", "e-3", "m-3", "bob", 300))
	req.Equal(1, inbox.Unread("conversation:c-1"))
}

package event

import (
	"civic-stream/domain"
	"encoding/json"
	"strings"
	"time"
)

// Type is the tagged discriminator of events and wire frames.
type Type string

const (
	MessageCreated   Type = "message.created"
	MessageUpdated   Type = "message.updated"
	MessageDeleted   Type = "message.deleted"
	MessageDelivered Type = "message.delivered"
	MessageRead      Type = "message.read"

	ReportCreated Type = "report.created"
	ReportUpdated Type = "report.updated"
	ReportDeleted Type = "report.deleted"

	CommentCreated Type = "comment.created"
	CommentUpdated Type = "comment.updated"
	CommentDeleted Type = "comment.deleted"

	NotificationCreated Type = "notification.created"

	MemberJoined Type = "conversation.member_joined"
	MemberLeft   Type = "conversation.member_left"

	ConnectionConfirmed Type = "connection.confirmed"

	TypingStarted   Type = "typing.started"
	TypingStopped   Type = "typing.stopped"
	PresenceOnline  Type = "presence.online"
	PresenceOffline Type = "presence.offline"
	UIHint          Type = "ui.hint"
)

var ephemeral = map[Type]struct{}{
	TypingStarted:       {},
	TypingStopped:       {},
	PresenceOnline:      {},
	PresenceOffline:     {},
	UIHint:              {},
	ConnectionConfirmed: {},
}

// IsEphemeral reports whether the type is transport-only and must never reach the log.
func (t Type) IsEphemeral() bool {
	_, ok := ephemeral[t]
	return ok
}

// IsDeletion reports whether the type removes an entity.
func (t Type) IsDeletion() bool {
	return strings.HasSuffix(string(t), ".deleted")
}

// IsDeliveryTransition reports whether the type is a delivered/read transition.
func (t Type) IsDeliveryTransition() bool {
	return t == MessageDelivered || t == MessageRead
}

// Metadata keys understood by the engine.
const (
	MetaEntityID       = "entity_id"
	MetaOriginClientID = "origin_client_id"
	MetaTempID         = "temp_id"
	MetaAuthorID       = "author_id"
	MetaMemberID       = "member_id"
)

// DomainEvent is an immutable, sequence-ordered record of something that happened.
// The aggregate is the scoping resource: AggregateType is a channel kind and
// AggregateID the resource id.
type DomainEvent struct {
	EventID       string            `json:"event_id" validate:"required"`
	SequenceID    uint64            `json:"sequence_id"`
	AggregateType string            `json:"aggregate_type" validate:"required"`
	AggregateID   string            `json:"aggregate_id" validate:"required"`
	EventType     Type              `json:"event_type" validate:"required"`
	Payload       json.RawMessage   `json:"payload,omitempty"`
	Metadata      map[string]string `json:"metadata,omitempty"`
	CreatedAt     time.Time         `json:"created_at" validate:"required"`
}

// Channel returns the channel the event is routed to.
func (e DomainEvent) Channel() domain.Channel {
	return domain.Channel{Kind: domain.ChannelKind(e.AggregateType), ID: e.AggregateID}
}

// EntityID returns the id of the changed entity, the aggregate id by default.
func (e DomainEvent) EntityID() string {
	if id := e.Metadata[MetaEntityID]; id != "" {
		return id
	}
	return e.AggregateID
}

func (e DomainEvent) meta(key string) string {
	return e.Metadata[key]
}

// Notification maps the event to what travels on the realtime bus.
func (e DomainEvent) Notification() Notification {
	return Notification{
		EventID:         e.EventID,
		Channel:         e.Channel().Key(),
		Type:            e.EventType,
		EntityID:        e.EntityID(),
		Partial:         e.Payload,
		OriginClientID:  e.meta(MetaOriginClientID),
		TempID:          e.meta(MetaTempID),
		AuthorID:        e.meta(MetaAuthorID),
		SequenceID:      e.SequenceID,
		ServerTimestamp: e.CreatedAt.UnixMilli(),
	}
}

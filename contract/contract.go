//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"civic-stream/domain"
	"civic-stream/domain/event"
	"context"
	"reflect"
	"time"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker initialization
// or lifecycle events, avoiding the need for manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// IEventLog is the append-only, sequence-ordered source of truth for gap recovery.
// Every delivery instance must share the same log, otherwise watermarks are meaningless.
type IEventLog interface {
	// Append returns the event as stored, with its sequence id and server timestamp.
	Append(ctx context.Context, evt event.DomainEvent) (event.DomainEvent, error)
	Get(ctx context.Context, eventID string) (event.DomainEvent, error)
	GetSince(ctx context.Context, sequenceID uint64, limit int) ([]event.DomainEvent, error)
	GetSinceForAggregate(ctx context.Context, aggregateType string, sequenceID uint64, limit int) ([]event.DomainEvent, error)
	GetSinceForIndex(ctx context.Context, index LogIndex, sequenceID uint64, limit int) ([]event.DomainEvent, error)
	SequenceAt(ctx context.Context, at time.Time) (uint64, error)
}

type IndexKind string

const (
	// IndexAggregate holds every event of an aggregate type.
	IndexAggregate IndexKind = "agg"
	// IndexChannel holds every event of one channel.
	IndexChannel IndexKind = "ch"
	// IndexDeletion holds the deletions of an aggregate type.
	IndexDeletion IndexKind = "del"
	// IndexChannelDeletion holds the deletions of one channel.
	IndexChannelDeletion IndexKind = "chdel"
	// IndexReceipt holds delivered/read transitions keyed by the author of the message.
	IndexReceipt IndexKind = "rcpt"
)

// LogIndex names one secondary index of the event log, such as the channel "inbox:alice".
type LogIndex struct {
	Kind IndexKind `json:"kind"`
	Key  string    `json:"key"`
}

func AggregateIndex(aggregateType string) LogIndex {
	return LogIndex{Kind: IndexAggregate, Key: aggregateType}
}

func ChannelIndex(channel domain.Channel) LogIndex {
	return LogIndex{Kind: IndexChannel, Key: channel.Key()}
}

func DeletionIndex(kind domain.ChannelKind) LogIndex {
	return LogIndex{Kind: IndexDeletion, Key: string(kind)}
}

func ChannelDeletionIndex(channel domain.Channel) LogIndex {
	return LogIndex{Kind: IndexChannelDeletion, Key: channel.Key()}
}

func ReceiptIndex(authorID string) LogIndex {
	return LogIndex{Kind: IndexReceipt, Key: authorID}
}

// IDedupLedger records technical receipt of frames. It carries no business meaning.
type IDedupLedger interface {
	MarkProcessed(ctx context.Context, eventID string) error
	GetStatus(ctx context.Context, eventID string) (ProcessedStatus, time.Time, error)
}

type ProcessedStatus string

const (
	StatusProcessed ProcessedStatus = "processed"
	StatusNotFound  ProcessedStatus = "not_found"
)

// Handler receives bus notifications. It runs on the publisher's goroutine and must not block.
type Handler func(ctx context.Context, n event.Notification)

// IBus is the realtime publish/subscribe bus, local and cross-instance.
type IBus interface {
	Publish(ctx context.Context, n event.Notification) error
	Subscribe(channel domain.Channel, handler Handler) (func(), error)
	SubscriberCount(channel domain.Channel) int
}

// Broker is the shared pub/sub used for cross-instance fan-out.
// Subscribe blocks until ctx is done or the subscription fails.
type Broker interface {
	Publish(ctx context.Context, topic string, payload []byte) error
	Subscribe(ctx context.Context, topic string, handler func(payload []byte)) error
}

// IPresenceTracker maintains online state with multi-tab session counting.
type IPresenceTracker interface {
	MarkOnline(ctx context.Context, subjectID string)
	TrackConnect(ctx context.Context, subjectID string)
	TrackDisconnect(ctx context.Context, subjectID string)
	IsOnline(subjectID string) bool
	GetOnlineCount() int
}

// Authorizer decides whether a subject may read a channel.
type Authorizer interface {
	Authorize(ctx context.Context, subject domain.Subject, channel domain.Channel) error
}

// MembershipChecker is owned by the messaging domain.
type MembershipChecker interface {
	IsMember(ctx context.Context, conversationID, userID string) (bool, error)
}

// MembershipLister scopes catchup to the conversations a user belongs to.
type MembershipLister interface {
	ConversationsOf(ctx context.Context, userID string) ([]string, error)
}

// SnapshotSource provides full snapshots of what a recipient missed while offline,
// flushed once when a stream opens.
type SnapshotSource interface {
	Snapshots(ctx context.Context, subject domain.Subject, channel domain.Channel) ([]event.Frame, error)
}

// CatchupQuery is one scope-filtered query answering "what happened after the watermark".
type CatchupQuery struct {
	Subject    domain.Subject
	SequenceID uint64
	Since      time.Time
	Limit      int
}

// CatchupRow is a single result row of a catchup source.
// Rows without EventID get a synthetic id derived from RowID and OccurredAt.
type CatchupRow struct {
	EventID        string
	RowID          string
	Type           event.Type
	Channel        string
	OccurredAt     time.Time
	SequenceID     uint64
	Payload        []byte
	OriginClientID string
	TempID         string
	AuthorID       string
}

// CatchupSource answers a CatchupQuery for one aggregate kind.
type CatchupSource interface {
	Name() string
	Query(ctx context.Context, q CatchupQuery) ([]CatchupRow, error)
}

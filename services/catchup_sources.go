package services

import (
	"civic-stream/contract"
	"civic-stream/domain"
	"civic-stream/domain/event"
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/samber/lo"
)

// Scope lists the log indexes a subject may read for one source.
type Scope func(ctx context.Context, subject domain.Subject) ([]contract.LogIndex, error)

// EventLogSource answers catchup queries from the secondary indexes of the event log.
// It only reads the indexes its scope grants the subject, so the cost follows what the
// subject can see instead of the size of the log.
type EventLogSource struct {
	name     string
	eventLog contract.IEventLog
	scope    Scope
	keep     func(evt event.DomainEvent) bool
}

var _ contract.CatchupSource = (*EventLogSource)(nil)

func (s *EventLogSource) Name() string { return s.name }

// Query merges the scoped indexes in log order and returns at most q.Limit rows.
func (s *EventLogSource) Query(ctx context.Context, q contract.CatchupQuery) ([]contract.CatchupRow, error) {
	indexes, err := s.scope(ctx, q.Subject)
	if err != nil {
		return nil, err
	}
	var events []event.DomainEvent
	for _, index := range indexes {
		found, err := s.scan(ctx, index, q.SequenceID, q.Limit)
		if err != nil {
			return nil, fmt.Errorf("index %s:%s: %w", index.Kind, index.Key, err)
		}
		events = append(events, found...)
	}
	events = lo.UniqBy(events, func(evt event.DomainEvent) string { return evt.EventID })
	slices.SortFunc(events, func(a, b event.DomainEvent) int { return cmp.Compare(a.SequenceID, b.SequenceID) })
	if len(events) > q.Limit {
		events = events[:q.Limit]
	}
	return lo.Map(events, func(evt event.DomainEvent, _ int) contract.CatchupRow { return toRow(evt) }), nil
}

// scan pages through one index after the watermark until limit events were kept or the index is exhausted.
func (s *EventLogSource) scan(ctx context.Context, index contract.LogIndex, watermark uint64, limit int) ([]event.DomainEvent, error) {
	var kept []event.DomainEvent
	for len(kept) < limit {
		page, err := s.eventLog.GetSinceForIndex(ctx, index, watermark, limit)
		if err != nil {
			return nil, err
		}
		for _, evt := range page {
			watermark = evt.SequenceID
			if s.keep(evt) {
				kept = append(kept, evt)
				if len(kept) == limit {
					break
				}
			}
		}
		if len(page) < limit {
			break
		}
	}
	return kept, nil
}

func toRow(evt event.DomainEvent) contract.CatchupRow {
	return contract.CatchupRow{
		EventID:        evt.EventID,
		RowID:          evt.EntityID(),
		Type:           evt.EventType,
		Channel:        evt.Channel().Key(),
		OccurredAt:     evt.CreatedAt,
		SequenceID:     evt.SequenceID,
		Payload:        evt.Payload,
		OriginClientID: evt.Metadata[event.MetaOriginClientID],
		TempID:         evt.Metadata[event.MetaTempID],
		AuthorID:       evt.Metadata[event.MetaAuthorID],
	}
}

func live(evt event.DomainEvent) bool {
	return !evt.EventType.IsDeletion()
}

func every(event.DomainEvent) bool { return true }

func fixed(indexes ...contract.LogIndex) Scope {
	return func(context.Context, domain.Subject) ([]contract.LogIndex, error) { return indexes, nil }
}

// conversations maps the conversations of the subject onto one index each.
func conversations(members contract.MembershipLister, index func(domain.Channel) contract.LogIndex) Scope {
	return func(ctx context.Context, subject domain.Subject) ([]contract.LogIndex, error) {
		if members == nil {
			return nil, nil
		}
		ids, err := members.ConversationsOf(ctx, subject.ID)
		if err != nil {
			return nil, fmt.Errorf("conversations of %s: %w", subject.ID, err)
		}
		return lo.Map(ids, func(id string, _ int) contract.LogIndex { return index(domain.ConversationChannel(id)) }), nil
	}
}

// NewMessageSource returns conversation activity of the conversations the subject belongs to.
func NewMessageSource(eventLog contract.IEventLog, members contract.MembershipLister) *EventLogSource {
	return &EventLogSource{
		name: "messages", eventLog: eventLog, scope: conversations(members, contract.ChannelIndex),
		keep: func(evt event.DomainEvent) bool {
			return !evt.EventType.IsDeletion() && !evt.EventType.IsDeliveryTransition()
		},
	}
}

// NewInboxSource returns the subject's own notifications.
func NewInboxSource(eventLog contract.IEventLog) *EventLogSource {
	return &EventLogSource{
		name: "inbox", eventLog: eventLog, keep: live,
		scope: func(_ context.Context, subject domain.Subject) ([]contract.LogIndex, error) {
			return []contract.LogIndex{contract.ChannelIndex(domain.InboxChannel(subject.ID))}, nil
		},
	}
}

func NewReportSource(eventLog contract.IEventLog) *EventLogSource {
	return &EventLogSource{name: "reports", eventLog: eventLog, scope: fixed(contract.AggregateIndex(string(domain.KindReport))), keep: live}
}

func NewCommentSource(eventLog contract.IEventLog) *EventLogSource {
	return &EventLogSource{name: "comments", eventLog: eventLog, scope: fixed(contract.AggregateIndex(string(domain.KindComments))), keep: live}
}

// NewDeletionSource returns public deletions, those of the subject's inbox and those of
// the conversations the subject belongs to.
func NewDeletionSource(eventLog contract.IEventLog, members contract.MembershipLister) *EventLogSource {
	inConversations := conversations(members, contract.ChannelDeletionIndex)
	return &EventLogSource{
		name: "deletions", eventLog: eventLog, keep: every,
		scope: func(ctx context.Context, subject domain.Subject) ([]contract.LogIndex, error) {
			indexes, err := inConversations(ctx, subject)
			if err != nil {
				return nil, err
			}
			return append(indexes,
				contract.DeletionIndex(domain.KindReport),
				contract.DeletionIndex(domain.KindComments),
				contract.DeletionIndex(domain.KindFeed),
				contract.ChannelDeletionIndex(domain.InboxChannel(subject.ID)),
			), nil
		},
	}
}

// NewDeliverySource returns delivered/read transitions of messages the subject authored.
// The author owns those receipts, membership is not rechecked.
func NewDeliverySource(eventLog contract.IEventLog) *EventLogSource {
	return &EventLogSource{
		name: "deliveries", eventLog: eventLog, keep: every,
		scope: func(_ context.Context, subject domain.Subject) ([]contract.LogIndex, error) {
			return []contract.LogIndex{contract.ReceiptIndex(subject.ID)}, nil
		},
	}
}

// RowQuery is a scope-filtered query against an external relational store.
type RowQuery func(ctx context.Context, q contract.CatchupQuery) ([]contract.CatchupRow, error)

// RowSource adapts a RowQuery to a catchup source. Rows may omit EventID,
// the service then derives one from RowID and OccurredAt.
type RowSource struct {
	name  string
	query RowQuery
}

var _ contract.CatchupSource = RowSource{}

func NewRowSource(name string, query RowQuery) RowSource {
	return RowSource{name: name, query: query}
}

func (s RowSource) Name() string { return s.name }

func (s RowSource) Query(ctx context.Context, q contract.CatchupQuery) ([]contract.CatchupRow, error) {
	return s.query(ctx, q)
}

// DefaultSources wires every log-backed source.
func DefaultSources(eventLog contract.IEventLog, members contract.MembershipLister) []contract.CatchupSource {
	return []contract.CatchupSource{
		NewMessageSource(eventLog, members),
		NewInboxSource(eventLog),
		NewReportSource(eventLog),
		NewCommentSource(eventLog),
		NewDeletionSource(eventLog, members),
		NewDeliverySource(eventLog),
	}
}

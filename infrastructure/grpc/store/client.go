package store

import (
	"civic-stream/contract"
	"civic-stream/domain/event"
	"civic-stream/repositories"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// presenceTimeout bounds the presence calls, whose interface carries no context.
const presenceTimeout = 2 * time.Second

var (
	_ contract.IEventLog               = (*EventLog)(nil)
	_ contract.IDedupLedger            = (*Ledger)(nil)
	_ repositories.IPresenceRepository = (*PresenceRepository)(nil)
)

type caller struct {
	conn grpc.ClientConnInterface
}

// call sends req as JSON and decodes the JSON answer into out, when out is not nil.
func (c caller) call(ctx context.Context, method string, req, out any) error {
	data, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("encode %s request: %w", method, err)
	}
	resp := new(wrapperspb.BytesValue)
	if err := c.conn.Invoke(ctx, fullMethod(method), &wrapperspb.BytesValue{Value: data}, resp); err != nil {
		return fromStatus(method, err)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.GetValue(), out); err != nil {
		return fmt.Errorf("decode %s response: %w", method, err)
	}
	return nil
}

// EventLog is the shared event log seen from a delivery instance.
type EventLog struct {
	caller
}

func NewEventLog(conn grpc.ClientConnInterface) *EventLog {
	return &EventLog{caller{conn: conn}}
}

func (l *EventLog) Append(ctx context.Context, evt event.DomainEvent) (event.DomainEvent, error) {
	if evt.EventType.IsEphemeral() {
		return evt, nil
	}
	var stored event.DomainEvent
	if err := l.call(ctx, methodAppend, evt, &stored); err != nil {
		return evt, err
	}
	return stored, nil
}

func (l *EventLog) Get(ctx context.Context, eventID string) (event.DomainEvent, error) {
	var evt event.DomainEvent
	err := l.call(ctx, methodGet, eventIDRequest{EventID: eventID}, &evt)
	return evt, err
}

func (l *EventLog) GetSince(ctx context.Context, sequenceID uint64, limit int) ([]event.DomainEvent, error) {
	return l.since(ctx, sinceRequest{SequenceID: sequenceID, Limit: limit})
}

func (l *EventLog) GetSinceForAggregate(ctx context.Context, aggregateType string, sequenceID uint64, limit int) ([]event.DomainEvent, error) {
	return l.GetSinceForIndex(ctx, contract.AggregateIndex(aggregateType), sequenceID, limit)
}

func (l *EventLog) GetSinceForIndex(ctx context.Context, index contract.LogIndex, sequenceID uint64, limit int) ([]event.DomainEvent, error) {
	return l.since(ctx, sinceRequest{Index: &index, SequenceID: sequenceID, Limit: limit})
}

func (l *EventLog) since(ctx context.Context, req sinceRequest) ([]event.DomainEvent, error) {
	var events []event.DomainEvent
	if err := l.call(ctx, methodGetSince, req, &events); err != nil {
		return nil, err
	}
	return events, nil
}

func (l *EventLog) SequenceAt(ctx context.Context, at time.Time) (uint64, error) {
	var resp sequenceResponse
	err := l.call(ctx, methodSequenceAt, sequenceAtRequest{At: at}, &resp)
	return resp.SequenceID, err
}

// Ledger is the shared dedup ledger seen from a delivery instance.
type Ledger struct {
	caller
}

func NewLedger(conn grpc.ClientConnInterface) *Ledger {
	return &Ledger{caller{conn: conn}}
}

func (l *Ledger) MarkProcessed(ctx context.Context, eventID string) error {
	return l.call(ctx, methodMarkProcessed, eventIDRequest{EventID: eventID}, nil)
}

func (l *Ledger) GetStatus(ctx context.Context, eventID string) (contract.ProcessedStatus, time.Time, error) {
	var resp statusResponse
	if err := l.call(ctx, methodGetStatus, eventIDRequest{EventID: eventID}, &resp); err != nil {
		return "", time.Time{}, err
	}
	return resp.Status, resp.ProcessedAt, nil
}

// PresenceRepository is the shared presence table seen from a delivery instance.
type PresenceRepository struct {
	caller
}

func NewPresenceRepository(conn grpc.ClientConnInterface) *PresenceRepository {
	return &PresenceRepository{caller{conn: conn}}
}

func (p *PresenceRepository) do(method string, req, out any) error {
	ctx, cancel := context.WithTimeout(context.Background(), presenceTimeout)
	defer cancel()
	return p.call(ctx, method, req, out)
}

func (p *PresenceRepository) Save(entry repositories.PresenceEntry) error {
	return p.do(methodSavePresence, entry, nil)
}

func (p *PresenceRepository) Delete(subjectID, instanceID string) error {
	return p.do(methodDeletePresence, presenceKey{SubjectID: subjectID, InstanceID: instanceID}, nil)
}

func (p *PresenceRepository) LoadAll() ([]repositories.PresenceEntry, error) {
	var entries []repositories.PresenceEntry
	err := p.do(methodLoadPresence, struct{}{}, &entries)
	return entries, err
}

func (p *PresenceRepository) ForSubject(subjectID string) ([]repositories.PresenceEntry, error) {
	var entries []repositories.PresenceEntry
	err := p.do(methodPresenceOf, presenceKey{SubjectID: subjectID}, &entries)
	return entries, err
}

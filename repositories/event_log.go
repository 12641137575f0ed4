package repositories

import (
	"civic-stream/contract"
	"civic-stream/domain/event"
	"civic-stream/errors"
	"context"
	"encoding/json"
	stdErrors "errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// MaxPageSize bounds every GetSince response.
const MaxPageSize = 500

const (
	eventPrefix   = "evt:"
	eventIDPrefix = "idx:id:"
	indexPrefix   = "idx:"
	timePrefix    = "idx:ts:"
	sequenceKey   = "seq:events"
	sequenceLease = 100
	seqDigits     = 20
)

// EventReader is the read side of the event log.
// It does not need write access and is used by the inspection tool.
type EventReader struct {
	db *badger.DB
}

func NewEventReader(db *badger.DB) EventReader {
	return EventReader{db: db}
}

// EventLog persists domain events in BadgerDB.
// Keys:
//
//	evt:{seq}                  -> JSON event
//	idx:id:{event_id}          -> seq
//	idx:agg:{type}:{seq}       -> empty
//	idx:ch:{channel}:{seq}     -> empty
//	idx:del:{type}:{seq}       -> empty, deletions only
//	idx:chdel:{channel}:{seq}  -> empty, deletions only
//	idx:rcpt:{author}:{seq}    -> empty, delivered/read transitions only
//	idx:ts:{created_ms}:{seq}  -> empty
//
// Every number is zero padded to 20 digits so lexicographical order is numeric order.
type EventLog struct {
	EventReader
	log *slog.Logger
	seq *badger.Sequence
	now func() time.Time
	// Appends are serialized so that commit order equals sequence order.
	// Otherwise a reader could observe seq N+1 before N and move its watermark past N.
	mu sync.Mutex
	// last is the CreatedAt of the latest append. Timestamps never go backwards
	// so that a timestamp watermark maps onto exactly one sequence id.
	last time.Time
}

func NewEventLog(db *badger.DB, log *slog.Logger) (*EventLog, error) {
	seq, err := db.GetSequence([]byte(sequenceKey), sequenceLease)
	if err != nil {
		return nil, errors.NewStoreError("open_sequence", err)
	}
	l := &EventLog{EventReader: NewEventReader(db), log: log, seq: seq, now: time.Now}
	if err := l.loadLast(); err != nil {
		_ = seq.Release()
		return nil, errors.NewStoreError("open_last", err)
	}
	return l, nil
}

func (l *EventLog) loadLast() error {
	ctx := context.Background()
	seq, err := l.LastSequence(ctx)
	if err != nil || seq == 0 {
		return err
	}
	return l.db.View(func(txn *badger.Txn) error {
		evt, err := getEvent(txn, seq)
		l.last = evt.CreatedAt
		return err
	})
}

// Close releases the leased sequence range. Unused ids of the lease are never handed out again.
func (l *EventLog) Close() error {
	return l.seq.Release()
}

func eventKey(seq uint64) []byte {
	return []byte(fmt.Sprintf("%s%020d", eventPrefix, seq))
}

func indexScope(index contract.LogIndex) []byte {
	return []byte(indexPrefix + string(index.Kind) + ":" + index.Key + ":")
}

func indexKey(index contract.LogIndex, seq uint64) []byte {
	return fmt.Appendf(indexScope(index), "%020d", seq)
}

func timeKey(at time.Time, seq uint64) []byte {
	return []byte(fmt.Sprintf("%s%020d:%020d", timePrefix, at.UnixMilli(), seq))
}

// seqFromIndexKey returns false for keys of another index sharing the prefix,
// e.g. channel "conversation:c-1:2" under the scope of "conversation:c-1".
func seqFromIndexKey(key, scope []byte) (uint64, bool) {
	rest := key[len(scope):]
	if len(rest) != seqDigits {
		return 0, false
	}
	seq, err := strconv.ParseUint(string(rest), 10, 64)
	return seq, err == nil
}

// indexesOf lists every secondary index an event belongs to.
func indexesOf(evt event.DomainEvent) []contract.LogIndex {
	ch := evt.Channel()
	indexes := []contract.LogIndex{contract.AggregateIndex(evt.AggregateType), contract.ChannelIndex(ch)}
	if evt.EventType.IsDeletion() {
		indexes = append(indexes, contract.DeletionIndex(ch.Kind), contract.ChannelDeletionIndex(ch))
	}
	if author := evt.Metadata[event.MetaAuthorID]; author != "" && evt.EventType.IsDeliveryTransition() {
		indexes = append(indexes, contract.ReceiptIndex(author))
	}
	return indexes
}

// stamp must be called with the lock held.
func (l *EventLog) stamp(at time.Time) time.Time {
	if at.IsZero() {
		at = l.now()
	}
	at = at.UTC()
	if at.Before(l.last) {
		at = l.last
	}
	l.last = at
	return at
}

// Append writes the event and returns it as stored.
// Ephemeral events are filtered out before any write and come back unchanged, with sequence id 0.
// Appending an event id that is already logged returns the original event.
// CreatedAt is kept when set, but never earlier than the previous append.
func (l *EventLog) Append(ctx context.Context, evt event.DomainEvent) (event.DomainEvent, error) {
	if evt.EventType.IsEphemeral() {
		return evt, nil
	}
	if evt.CreatedAt.IsZero() {
		evt.CreatedAt = l.now().UTC()
	}
	if err := evt.Validate(); err != nil {
		return evt, err
	}
	if err := ctx.Err(); err != nil {
		return evt, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	existing, err := l.lookupEventID(evt.EventID)
	if err != nil {
		return evt, errors.NewStoreError("append", err)
	}
	if existing > 0 {
		l.log.Debug("Event already appended", "event_id", evt.EventID, "sequence_id", existing)
		var stored event.DomainEvent
		err := l.db.View(func(txn *badger.Txn) error {
			stored, err = getEvent(txn, existing)
			return err
		})
		if err != nil {
			return evt, errors.NewStoreError("append", err)
		}
		return stored, nil
	}

	next, err := l.seq.Next()
	if err != nil {
		return evt, errors.NewStoreError("append", err)
	}
	// Badger sequences start at 0, which is reserved for "from the beginning".
	seq := next + 1
	evt.SequenceID = seq
	evt.CreatedAt = l.stamp(evt.CreatedAt)

	data, err := json.Marshal(evt)
	if err != nil {
		return evt, fmt.Errorf("%w: %v", errors.ErrInvalidEvent, err)
	}

	err = l.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(eventKey(seq), data); err != nil {
			return err
		}
		if err := txn.Set([]byte(eventIDPrefix+evt.EventID), []byte(strconv.FormatUint(seq, 10))); err != nil {
			return err
		}
		for _, index := range indexesOf(evt) {
			if err := txn.Set(indexKey(index, seq), nil); err != nil {
				return err
			}
		}
		return txn.Set(timeKey(evt.CreatedAt, seq), nil)
	})
	if err != nil {
		return evt, errors.NewStoreError("append", err)
	}
	return evt, nil
}

func (r EventReader) lookupEventID(eventID string) (uint64, error) {
	var seq uint64
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(eventIDPrefix + eventID))
		if stdErrors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			seq, err = strconv.ParseUint(string(val), 10, 64)
			return err
		})
	})
	return seq, err
}

func capLimit(limit int) int {
	if limit <= 0 || limit > MaxPageSize {
		return MaxPageSize
	}
	return limit
}

// GetSince returns events with a sequence id strictly greater than sequenceID, ascending.
// A page of exactly limit events means the caller should ask again from the last sequence id.
func (r EventReader) GetSince(ctx context.Context, sequenceID uint64, limit int) ([]event.DomainEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	limit = capLimit(limit)
	events := make([]event.DomainEvent, 0, min(limit, 64))
	err := r.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchSize = limit
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(eventPrefix)
		for it.Seek(eventKey(sequenceID + 1)); it.ValidForPrefix(prefix); it.Next() {
			if len(events) == limit {
				break
			}
			var evt event.DomainEvent
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &evt)
			}); err != nil {
				return err
			}
			events = append(events, evt)
		}
		return nil
	})
	if err != nil {
		return nil, errors.NewStoreError("get_since", err)
	}
	return events, nil
}

// GetSinceForAggregate is GetSince restricted to one aggregate type through the aggregate index.
func (r EventReader) GetSinceForAggregate(ctx context.Context, aggregateType string, sequenceID uint64, limit int) ([]event.DomainEvent, error) {
	return r.GetSinceForIndex(ctx, contract.AggregateIndex(aggregateType), sequenceID, limit)
}

// GetSinceForIndex is GetSince restricted to one secondary index.
// Only the index keys of the scope are walked, never the whole log.
func (r EventReader) GetSinceForIndex(ctx context.Context, index contract.LogIndex, sequenceID uint64, limit int) ([]event.DomainEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	limit = capLimit(limit)
	var events []event.DomainEvent
	err := r.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		scope := indexScope(index)
		for it.Seek(indexKey(index, sequenceID+1)); it.ValidForPrefix(scope); it.Next() {
			if len(events) == limit {
				break
			}
			seq, ok := seqFromIndexKey(it.Item().Key(), scope)
			if !ok || seq <= sequenceID {
				continue
			}
			evt, err := getEvent(txn, seq)
			if err != nil {
				return err
			}
			events = append(events, evt)
		}
		return nil
	})
	if err != nil {
		return nil, errors.NewStoreError("get_since_"+string(index.Kind), err)
	}
	return events, nil
}

func getEvent(txn *badger.Txn, seq uint64) (event.DomainEvent, error) {
	var evt event.DomainEvent
	item, err := txn.Get(eventKey(seq))
	if err != nil {
		return evt, err
	}
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &evt)
	})
	return evt, err
}

// Get returns a single event by its id.
func (r EventReader) Get(ctx context.Context, eventID string) (event.DomainEvent, error) {
	if err := ctx.Err(); err != nil {
		return event.DomainEvent{}, err
	}
	seq, err := r.lookupEventID(eventID)
	if err != nil {
		return event.DomainEvent{}, errors.NewStoreError("get", err)
	}
	if seq == 0 {
		return event.DomainEvent{}, errors.ErrEventNotFound
	}
	var evt event.DomainEvent
	err = r.db.View(func(txn *badger.Txn) error {
		evt, err = getEvent(txn, seq)
		return err
	})
	if err != nil {
		return event.DomainEvent{}, errors.NewStoreError("get", err)
	}
	return evt, nil
}

// SequenceAt resolves a timestamp watermark to a sequence id: every event with a greater
// sequence id was created strictly after at (millisecond precision). Append keeps CreatedAt
// monotonic, so the first time index entry after at is also the lowest sequence id after it.
func (r EventReader) SequenceAt(ctx context.Context, at time.Time) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	var (
		seq   uint64
		found bool
	)
	err := r.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(timePrefix)
		it.Seek([]byte(fmt.Sprintf("%s%020d:", timePrefix, at.UnixMilli()+1)))
		if !it.ValidForPrefix(prefix) {
			return nil
		}
		key := string(it.Item().Key())
		_, raw, ok := strings.Cut(key[len(prefix):], ":")
		if !ok {
			return fmt.Errorf("malformed time index key %q", key)
		}
		first, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return err
		}
		seq, found = first-1, true
		return nil
	})
	if err != nil {
		return 0, errors.NewStoreError("sequence_at", err)
	}
	if !found {
		// Nothing was created after at: the whole log is covered.
		return r.LastSequence(ctx)
	}
	return seq, nil
}

// LastSequence returns the highest appended sequence id, 0 when the log is empty.
func (r EventReader) LastSequence(ctx context.Context) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	var seq uint64
	err := r.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(eventPrefix)
		it.Seek(append(prefix, []byte(strings.Repeat("9", 20))...))
		if !it.ValidForPrefix(prefix) {
			return nil
		}
		var err error
		seq, err = strconv.ParseUint(string(it.Item().Key()[len(prefix):]), 10, 64)
		return err
	})
	if err != nil {
		return 0, errors.NewStoreError("last_sequence", err)
	}
	return seq, nil
}

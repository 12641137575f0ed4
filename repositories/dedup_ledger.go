package repositories

import (
	"civic-stream/contract"
	"civic-stream/errors"
	"context"
	stdErrors "errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/dgraph-io/badger/v4"
)

const ackPrefix = "ack:"

// DedupLedger marks technical event ids as processed.
// It only answers "was this frame acknowledged", never "was this message delivered/read".
type DedupLedger struct {
	db        *badger.DB
	log       *slog.Logger
	retention time.Duration
	now       func() time.Time
}

// NewDedupLedger returns a ledger whose markers expire after retention, or never when retention is 0.
func NewDedupLedger(db *badger.DB, log *slog.Logger, retention time.Duration) *DedupLedger {
	return &DedupLedger{db: db, log: log, retention: retention, now: time.Now}
}

// MarkProcessed is idempotent: the first processed_at is kept.
func (d *DedupLedger) MarkProcessed(ctx context.Context, eventID string) error {
	if eventID == "" {
		return errors.ErrMissingEventID
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	key := []byte(ackPrefix + eventID)
	err := d.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(key)
		if err == nil {
			return nil
		}
		if !stdErrors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		entry := badger.NewEntry(key, []byte(strconv.FormatInt(d.now().UnixNano(), 10)))
		if d.retention > 0 {
			entry = entry.WithTTL(d.retention)
		}
		return txn.SetEntry(entry)
	})
	if stdErrors.Is(err, badger.ErrConflict) {
		// A concurrent ack of the same id committed first, its processed_at is the one kept.
		d.log.Debug("Concurrent ack already recorded", "event_id", eventID)
		return nil
	}
	if err != nil {
		return errors.NewStoreError("mark_processed", err)
	}
	return nil
}

func (d *DedupLedger) GetStatus(ctx context.Context, eventID string) (contract.ProcessedStatus, time.Time, error) {
	if eventID == "" {
		return contract.StatusNotFound, time.Time{}, errors.ErrMissingEventID
	}
	if err := ctx.Err(); err != nil {
		return contract.StatusNotFound, time.Time{}, err
	}
	var processedAt time.Time
	found := false
	err := d.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(ackPrefix + eventID))
		if stdErrors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return item.Value(func(val []byte) error {
			nanos, err := strconv.ParseInt(string(val), 10, 64)
			if err != nil {
				return err
			}
			processedAt = time.Unix(0, nanos).UTC()
			return nil
		})
	})
	if err != nil {
		return contract.StatusNotFound, time.Time{}, errors.NewStoreError("get_status", err)
	}
	if !found {
		return contract.StatusNotFound, time.Time{}, nil
	}
	return contract.StatusProcessed, processedAt, nil
}

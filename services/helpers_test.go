package services

import (
	"civic-stream/domain"
	"civic-stream/domain/event"
	"civic-stream/repositories"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func openDB(t *testing.T) *badger.DB {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func newEventLog(t *testing.T) *repositories.EventLog {
	t.Helper()
	eventLog, err := repositories.NewEventLog(openDB(t), slog.Default())
	require.NoError(t, err)
	t.Cleanup(func() { _ = eventLog.Close() })
	return eventLog
}

type appendOpt func(*event.DomainEvent)

func withMeta(key, value string) appendOpt {
	return func(e *event.DomainEvent) {
		if e.Metadata == nil {
			e.Metadata = map[string]string{}
		}
		e.Metadata[key] = value
	}
}

func at(t time.Time) appendOpt {
	return func(e *event.DomainEvent) { e.CreatedAt = t }
}

func appendEvent(t *testing.T, eventLog *repositories.EventLog, ch domain.Channel, typ event.Type, opts ...appendOpt) event.DomainEvent {
	t.Helper()
	evt := event.DomainEvent{
		EventID:       uuid.NewString(),
		AggregateType: string(ch.Kind),
		AggregateID:   ch.ID,
		EventType:     typ,
		CreatedAt:     time.Now().UTC(),
	}
	for _, opt := range opts {
		opt(&evt)
	}
	stored, err := eventLog.Append(context.Background(), evt)
	require.NoError(t, err)
	return stored
}

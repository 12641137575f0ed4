package repositories

import (
	"civic-stream/contract"
	"civic-stream/errors"
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDedupLedger_MarkProcessed(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	ledger := NewDedupLedger(openInMemory(t), slog.Default(), time.Hour)
	first := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	ledger.now = func() time.Time { return first }

	status, _, err := ledger.GetStatus(ctx, "evt-1")
	req.NoError(err)
	req.Equal(contract.StatusNotFound, status)

	req.NoError(ledger.MarkProcessed(ctx, "evt-1"))

	// When the same id is marked again later
	ledger.now = func() time.Time { return first.Add(time.Minute) }
	req.NoError(ledger.MarkProcessed(ctx, "evt-1"))

	// Then the first processed_at wins
	status, processedAt, err := ledger.GetStatus(ctx, "evt-1")
	req.NoError(err)
	req.Equal(contract.StatusProcessed, status)
	req.True(first.Equal(processedAt))
}

func TestDedupLedger_MissingID(t *testing.T) {
	req := require.New(t)
	ledger := NewDedupLedger(openInMemory(t), slog.Default(), 0)
	req.ErrorIs(ledger.MarkProcessed(context.Background(), ""), errors.ErrMissingEventID)
	_, _, err := ledger.GetStatus(context.Background(), "")
	req.ErrorIs(err, errors.ErrMissingEventID)
}

func TestDedupLedger_ConcurrentDuplicateAcks(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	ledger := NewDedupLedger(openInMemory(t), slog.Default(), time.Hour)

	// When many tabs acknowledge the same frame at once
	errs := make([]error, 16)
	var wg sync.WaitGroup
	for i := range errs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = ledger.MarkProcessed(ctx, "evt-1")
		}()
	}
	wg.Wait()

	// Then none of them fails and the frame is processed
	for _, err := range errs {
		req.NoError(err)
	}
	status, _, err := ledger.GetStatus(ctx, "evt-1")
	req.NoError(err)
	req.Equal(contract.StatusProcessed, status)
}

func TestPresenceRepository_RoundTrip(t *testing.T) {
	req := require.New(t)
	repo := NewPresenceRepository(openInMemory(t))
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	req.NoError(repo.Save(PresenceEntry{SubjectID: "alice", InstanceID: "i-1", SessionCount: 2, LastHeartbeatAt: now}))
	req.NoError(repo.Save(PresenceEntry{SubjectID: "bob", InstanceID: "i-1", SessionCount: 0, LastHeartbeatAt: now}))
	req.NoError(repo.Delete("bob", "i-1"))

	entries, err := repo.LoadAll()
	req.NoError(err)
	req.Len(entries, 1)
	req.Equal("alice", entries[0].SubjectID)
	req.True(entries[0].IsOnline(now.Add(time.Second), time.Minute))
	req.False(entries[0].IsOnline(now.Add(2*time.Minute), time.Minute))
}

func TestPresenceRepository_OneRowPerInstance(t *testing.T) {
	req := require.New(t)
	repo := NewPresenceRepository(openInMemory(t))
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	// Given alice is connected through two instances and a subject whose id extends hers
	req.NoError(repo.Save(PresenceEntry{SubjectID: "alice", InstanceID: "i-1", SessionCount: 1, LastHeartbeatAt: now}))
	req.NoError(repo.Save(PresenceEntry{SubjectID: "alice", InstanceID: "i-2", SessionCount: 3, LastHeartbeatAt: now}))
	req.NoError(repo.Save(PresenceEntry{SubjectID: "alice/bot", InstanceID: "i-1", SessionCount: 1, LastHeartbeatAt: now}))

	rows, err := repo.ForSubject("alice")
	req.NoError(err)
	req.Len(rows, 2)

	// When one instance drops its row, the other one is kept
	req.NoError(repo.Delete("alice", "i-1"))
	rows, err = repo.ForSubject("alice")
	req.NoError(err)
	req.Len(rows, 1)
	req.Equal("i-2", rows[0].InstanceID)
	req.Equal(3, rows[0].SessionCount)
}

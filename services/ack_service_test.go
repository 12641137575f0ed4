package services

import (
	"civic-stream/auth"
	"civic-stream/contract"
	"civic-stream/domain"
	"civic-stream/domain/event"
	"civic-stream/errors"
	"civic-stream/mocks"
	"civic-stream/repositories"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestAckService_RequiresSubject(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	ledger := mocks.NewMockIDedupLedger(ctrl)
	service := NewAckService(slog.Default(), ledger, nil, nil)

	// Then the ledger is never touched
	ledger.EXPECT().MarkProcessed(gomock.Any(), gomock.Any()).Times(0)

	req.ErrorIs(service.Ack(context.Background(), domain.Subject{}, "evt-1"), errors.ErrUnauthenticated)
	req.ErrorIs(service.Ack(context.Background(), domain.Subject{ID: "alice"}, ""), errors.ErrMissingEventID)
}

func TestAckService_IsIdempotent(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	service := NewAckService(slog.Default(), repositories.NewDedupLedger(openDB(t), slog.Default(), time.Hour), nil, nil)
	alice := domain.Subject{ID: "alice"}

	status, _, err := service.Status(ctx, "evt-1")
	req.NoError(err)
	req.Equal(contract.StatusNotFound, status)

	// When the same frame is acknowledged twice
	req.NoError(service.Ack(ctx, alice, "evt-1"))
	_, first, err := service.Status(ctx, "evt-1")
	req.NoError(err)
	req.NoError(service.Ack(ctx, alice, "evt-1"))

	// Then the first receipt time is kept
	status, second, err := service.Status(ctx, "evt-1")
	req.NoError(err)
	req.Equal(contract.StatusProcessed, status)
	req.Equal(first, second)
}

func TestInboxSnapshots_SkipsAcknowledged(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	db := openDB(t)
	eventLog, err := repositories.NewEventLog(db, slog.Default())
	req.NoError(err)
	ledger := repositories.NewDedupLedger(db, slog.Default(), 0)
	alice := domain.Subject{ID: "alice"}

	acked := appendEvent(t, eventLog, domain.InboxChannel("alice"), event.NotificationCreated)
	pending := appendEvent(t, eventLog, domain.InboxChannel("alice"), event.NotificationCreated)
	appendEvent(t, eventLog, domain.InboxChannel("bob"), event.NotificationCreated)
	req.NoError(ledger.MarkProcessed(ctx, acked.EventID))

	snapshots := NewInboxSnapshots(slog.Default(), eventLog, ledger, time.Hour, 10)

	frames, err := snapshots.Snapshots(ctx, alice, domain.InboxChannel("alice"))
	req.NoError(err)
	req.Len(frames, 1)
	req.Equal(pending.EventID, frames[0].EventID)

	// Other kinds have no snapshot
	frames, err = snapshots.Snapshots(ctx, alice, domain.ReportChannel("r-1"))
	req.NoError(err)
	req.Empty(frames)
}

func TestAckService_OnlyReadersMayAck(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	db := openDB(t)
	eventLog, err := repositories.NewEventLog(db, slog.Default())
	req.NoError(err)
	ledger := repositories.NewDedupLedger(db, slog.Default(), time.Hour)
	service := NewAckService(slog.Default(), ledger, eventLog, auth.NewChannelAuthorizer(auth.NewMembershipRegistry()))
	snapshots := NewInboxSnapshots(slog.Default(), eventLog, ledger, time.Hour, 10)
	alice, bob := domain.Subject{ID: "alice"}, domain.Subject{ID: "bob"}

	// Given a notification in alice's inbox
	notification := appendEvent(t, eventLog, domain.InboxChannel("alice"), event.NotificationCreated)

	// When bob acknowledges it
	err = service.Ack(ctx, bob, notification.EventID)

	// Then he is refused and alice still gets it on her next stream
	req.ErrorIs(err, errors.ErrForbidden)
	status, _, err := service.Status(ctx, notification.EventID)
	req.NoError(err)
	req.Equal(contract.StatusNotFound, status)
	frames, err := snapshots.Snapshots(ctx, alice, domain.InboxChannel("alice"))
	req.NoError(err)
	req.Len(frames, 1)

	// And her own ack still works, as do ids the log never saw
	req.NoError(service.Ack(ctx, alice, notification.EventID))
	req.NoError(service.Ack(ctx, bob, "live-only"))
	frames, err = snapshots.Snapshots(ctx, alice, domain.InboxChannel("alice"))
	req.NoError(err)
	req.Empty(frames)
}

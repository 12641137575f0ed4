package runtime

import (
	"civic-stream/domain"
	"civic-stream/domain/event"
	"civic-stream/errors"
	"civic-stream/mocks"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestPublisher_EmitAppendsThenPublishes(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	eventLog := mocks.NewMockIEventLog(ctrl)
	bus := NewBus(slog.Default(), "i-1", 0, nil, "")
	publisher := NewPublisher(slog.Default(), eventLog, bus)
	channel := domain.ReportChannel("r-1")

	var got []event.Notification
	_, err := bus.Subscribe(channel, func(_ context.Context, n event.Notification) { got = append(got, n) })
	req.NoError(err)

	eventLog.EXPECT().Append(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, evt event.DomainEvent) (event.DomainEvent, error) {
		evt.SequenceID = 42
		return evt, nil
	})

	n, err := publisher.Emit(context.Background(), event.DomainEvent{
		AggregateType: "report", AggregateID: "r-1", EventType: event.ReportUpdated,
		Metadata: map[string]string{event.MetaOriginClientID: "tab-1"},
	})
	req.NoError(err)
	req.NotEmpty(n.EventID)
	req.Equal(uint64(42), n.SequenceID)
	req.Positive(n.ServerTimestamp)
	req.Equal("tab-1", n.OriginClientID)
	req.Equal([]event.Notification{n}, got)
}

func TestPublisher_EmitDoesNotPublishOnAppendFailure(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	eventLog := mocks.NewMockIEventLog(ctrl)
	bus := NewBus(slog.Default(), "i-1", 0, nil, "")
	publisher := NewPublisher(slog.Default(), eventLog, bus)
	channel := domain.ReportChannel("r-1")
	delivered := 0
	_, err := bus.Subscribe(channel, func(context.Context, event.Notification) { delivered++ })
	req.NoError(err)

	eventLog.EXPECT().Append(gomock.Any(), gomock.Any()).Return(event.DomainEvent{}, errors.NewStoreError("append", context.DeadlineExceeded)).Times(2)

	_, err = publisher.Emit(context.Background(), event.DomainEvent{AggregateType: "report", AggregateID: "r-1", EventType: event.ReportUpdated})
	req.ErrorIs(err, errors.ErrStore)
	req.Equal(0, delivered)

	// Degraded mode still goes live
	n := publisher.EmitDegraded(context.Background(), event.DomainEvent{AggregateType: "report", AggregateID: "r-1", EventType: event.ReportUpdated})
	req.Zero(n.SequenceID)
	req.Equal(1, delivered)
}

func TestPublisher_EphemeralSkipsLog(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	eventLog := mocks.NewMockIEventLog(ctrl)
	bus := NewBus(slog.Default(), "i-1", 0, nil, "")
	publisher := NewPublisher(slog.Default(), eventLog, bus)

	eventLog.EXPECT().Append(gomock.Any(), gomock.Any()).Times(0)

	n, err := publisher.Emit(context.Background(), event.DomainEvent{
		AggregateType: "conversation", AggregateID: "c-1", EventType: event.TypingStarted,
	})
	req.NoError(err)
	req.Equal(event.TypingStarted, n.Type)
}

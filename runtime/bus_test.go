package runtime

import (
	"civic-stream/domain"
	"civic-stream/domain/event"
	"civic-stream/errors"
	"civic-stream/mocks"
	"context"
	"encoding/json"
	stdErrors "errors"
	"log/slog"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func note(channel domain.Channel, eventID string) event.Notification {
	return event.Notification{
		EventID:         eventID,
		Channel:         channel.Key(),
		Type:            event.CommentCreated,
		EntityID:        "cm-1",
		ServerTimestamp: time.Now().UnixMilli(),
	}
}

func TestBus_SubscribeAndUnsubscribe(t *testing.T) {
	req := require.New(t)
	bus := NewBus(logs.GetLoggerFromLevel(slog.LevelDebug), "i-1", 0, nil, "")
	channel := domain.CommentsChannel("r-1")

	var got []string
	unsubscribe, err := bus.Subscribe(channel, func(_ context.Context, n event.Notification) {
		got = append(got, n.EventID)
	})
	req.NoError(err)
	req.Equal(1, bus.SubscriberCount(channel))

	req.NoError(bus.Publish(context.Background(), note(channel, "e-1")))
	// Another channel is never delivered
	req.NoError(bus.Publish(context.Background(), note(domain.CommentsChannel("r-2"), "e-2")))
	req.Equal([]string{"e-1"}, got)

	// When unsubscribing twice
	unsubscribe()
	unsubscribe()

	// Then the channel is gone
	req.Equal(0, bus.SubscriberCount(channel))
	req.Equal(0, bus.ChannelCount())
}

func TestBus_ListenerCeiling(t *testing.T) {
	req := require.New(t)
	bus := NewBus(slog.Default(), "i-1", 2, nil, "")
	channel := domain.ReportChannel("r-1")
	noop := func(context.Context, event.Notification) {}

	_, err := bus.Subscribe(channel, noop)
	req.NoError(err)
	_, err = bus.Subscribe(channel, noop)
	req.NoError(err)
	_, err = bus.Subscribe(channel, noop)
	req.ErrorIs(err, errors.ErrTooManyListeners)

	_, err = bus.Subscribe(domain.Channel{Kind: "planet", ID: "x"}, noop)
	req.ErrorIs(err, errors.ErrInvalidChannel)
}

func TestBus_HandlerPanicDoesNotStopFanout(t *testing.T) {
	req := require.New(t)
	bus := NewBus(slog.Default(), "i-1", 0, nil, "")
	channel := domain.ReportChannel("r-1")
	_, err := bus.Subscribe(channel, func(context.Context, event.Notification) { panic("boom") })
	req.NoError(err)
	delivered := false
	_, err = bus.Subscribe(channel, func(context.Context, event.Notification) { delivered = true })
	req.NoError(err)

	req.Equal(2, bus.DeliverLocal(context.Background(), note(channel, "e-1")))
	req.True(delivered)
}

func TestBus_HandlerMayUnsubscribeItself(t *testing.T) {
	req := require.New(t)
	bus := NewBus(slog.Default(), "i-1", 0, nil, "")
	channel := domain.ReportChannel("r-1")
	var unsubscribe func()
	calls := 0
	unsubscribe, err := bus.Subscribe(channel, func(context.Context, event.Notification) {
		calls++
		unsubscribe()
	})
	req.NoError(err)

	bus.DeliverLocal(context.Background(), note(channel, "e-1"))
	bus.DeliverLocal(context.Background(), note(channel, "e-2"))
	req.Equal(1, calls)
}

func TestBus_BridgesThroughBroker(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	broker := mocks.NewMockBroker(ctrl)
	bus := NewBus(slog.Default(), "i-1", 0, broker, "realtime:bridge")
	channel := domain.ReportChannel("r-1")

	// Then the envelope carries the instance id and the original notification
	broker.EXPECT().Publish(gomock.Any(), "realtime:bridge", gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, raw []byte) error {
			var envelope event.BridgeEnvelope
			req.NoError(json.Unmarshal(raw, &envelope))
			req.Equal("i-1", envelope.OriginInstanceID)
			req.Equal("e-1", envelope.EventID)
			req.Equal(channel.Key(), envelope.Channel)
			var n event.Notification
			req.NoError(json.Unmarshal(envelope.Payload, &n))
			req.Equal(event.CommentCreated, n.Type)
			return nil
		})

	req.NoError(bus.Publish(context.Background(), note(channel, "e-1")))
}

func TestBus_BrokerFailureStillDeliversLocally(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	broker := mocks.NewMockBroker(ctrl)
	bus := NewBus(slog.Default(), "i-1", 0, broker, "realtime:bridge")
	channel := domain.ReportChannel("r-1")
	delivered := 0
	_, err := bus.Subscribe(channel, func(context.Context, event.Notification) { delivered++ })
	req.NoError(err)

	broker.EXPECT().Publish(gomock.Any(), gomock.Any(), gomock.Any()).Return(stdErrors.New("unreachable"))

	err = bus.Publish(context.Background(), note(channel, "e-1"))
	req.Error(err)
	req.Equal(1, delivered)
}

func TestBus_ReceiveSkipsOwnEnvelopes(t *testing.T) {
	req := require.New(t)
	bus := NewBus(slog.Default(), "i-1", 0, nil, "")
	channel := domain.ReportChannel("r-1")
	delivered := 0
	_, err := bus.Subscribe(channel, func(context.Context, event.Notification) { delivered++ })
	req.NoError(err)

	envelope := func(origin string) []byte {
		payload, err := json.Marshal(note(channel, "e-1"))
		req.NoError(err)
		raw, err := json.Marshal(event.BridgeEnvelope{EventID: "e-1", OriginInstanceID: origin, Channel: channel.Key(), Payload: payload})
		req.NoError(err)
		return raw
	}

	req.NoError(bus.Receive(context.Background(), envelope("i-1")))
	req.Equal(0, delivered)
	req.NoError(bus.Receive(context.Background(), envelope("i-2")))
	req.Equal(1, delivered)

	req.ErrorIs(bus.Receive(context.Background(), []byte(`{"event_id":"e-1"}`)), errors.ErrContractViolation)
}

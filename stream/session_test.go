package stream

import (
	"civic-stream/auth"
	"civic-stream/domain"
	"civic-stream/domain/event"
	"civic-stream/errors"
	"civic-stream/mocks"
	"civic-stream/observability"
	"civic-stream/runtime"
	"context"
	stdErrors "errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type recordingWriter struct {
	mu       sync.Mutex
	frames   []event.Frame
	comments int
	err      error
}

func (w *recordingWriter) WriteFrame(f event.Frame) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.frames = append(w.frames, f)
	return nil
}

func (w *recordingWriter) WriteComment(string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.comments++
	return nil
}

func (w *recordingWriter) Frames() []event.Frame {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]event.Frame(nil), w.frames...)
}

func (w *recordingWriter) Comments() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.comments
}

func (w *recordingWriter) Fail(err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.err = err
}

func newDeps(t *testing.T, bus *runtime.Bus, members *auth.MembershipRegistry) Deps {
	t.Helper()
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	return Deps{
		Log:        log,
		Bus:        bus,
		Authorizer: auth.NewChannelAuthorizer(members),
		Monitor:    observability.NewMonitor(log, "test"),
		Heartbeats: domain.HeartbeatPolicy{Interactive: 20 * time.Millisecond, Personal: time.Second, LowFrequency: time.Second},
	}
}

func notification(channel domain.Channel, eventID string) event.Notification {
	return event.Notification{
		EventID:         eventID,
		Channel:         channel.Key(),
		Type:            event.MessageCreated,
		EntityID:        "msg-" + eventID,
		ServerTimestamp: time.Now().UnixMilli(),
	}
}

func TestSession_UnauthorizedWritesNothing(t *testing.T) {
	req := require.New(t)
	bus := runtime.NewBus(slog.Default(), "i-1", 0, nil, "")
	deps := newDeps(t, bus, auth.NewMembershipRegistry())
	writer := &recordingWriter{}
	channel := domain.ConversationChannel("c-1")

	// Given alice is not a member of c-1
	session := NewSession(deps, writer, Options{
		Subject:  domain.Subject{ID: "alice"},
		Channels: []domain.Channel{channel},
	})

	// When she opens a stream on it
	err := session.Open(context.Background())

	// Then nothing is written and no subscription leaks
	req.ErrorIs(err, errors.ErrForbidden)
	req.Empty(writer.Frames())
	req.Equal(0, bus.SubscriberCount(channel))
	req.Equal(StateClosed, session.State())
	req.Equal(uint64(1), deps.Monitor.Snapshot(0, 0).AuthorizationDenied)
}

func TestSession_AnonymousIsUnauthenticated(t *testing.T) {
	req := require.New(t)
	bus := runtime.NewBus(slog.Default(), "i-1", 0, nil, "")
	writer := &recordingWriter{}
	session := NewSession(newDeps(t, bus, auth.NewMembershipRegistry()), writer, Options{
		Channels: []domain.Channel{domain.ReportChannel("r-1")},
	})

	req.ErrorIs(session.Open(context.Background()), errors.ErrUnauthenticated)
	req.Empty(writer.Frames())
}

func TestSession_DeliversAndClosesSynchronously(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	presence := mocks.NewMockIPresenceTracker(ctrl)

	bus := runtime.NewBus(slog.Default(), "i-1", 0, nil, "")
	members := auth.NewMembershipRegistry()
	members.Add("c-1", "alice")
	deps := newDeps(t, bus, members)
	deps.Presence = presence
	writer := &recordingWriter{}
	channel := domain.ConversationChannel("c-1")

	// Given presence is tracked once on open and once on close
	presence.EXPECT().TrackConnect(gomock.Any(), "alice").Times(1)
	presence.EXPECT().MarkOnline(gomock.Any(), "alice").AnyTimes()
	presence.EXPECT().TrackDisconnect(gomock.Any(), "alice").Times(1)

	session := NewSession(deps, writer, Options{
		Subject:  domain.Subject{ID: "alice"},
		Channels: []domain.Channel{channel},
	})
	req.NoError(session.Open(context.Background()))
	req.Equal(StateOpen, session.State())
	req.Equal(1, bus.SubscriberCount(channel))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- session.Serve(ctx) }()

	// When a message is published on the conversation
	req.NoError(bus.Publish(context.Background(), notification(channel, "evt-1")))

	// Then the confirmation frame is followed by the message frame
	req.Eventually(func() bool { return len(writer.Frames()) == 2 }, time.Second, 5*time.Millisecond)
	frames := writer.Frames()
	req.Equal(event.ConnectionConfirmed, frames[0].Type)
	req.Equal("evt-1", frames[1].EventID)
	req.Equal(channel.Key(), frames[1].Channel)

	// And heartbeats are written as comments
	req.Eventually(func() bool { return writer.Comments() > 0 }, time.Second, 5*time.Millisecond)

	// When the socket goes away
	cancel()
	req.NoError(<-done)

	// Then the subscription is already released
	req.Equal(0, bus.SubscriberCount(channel))
	req.Equal(StateClosed, session.State())
	session.Close(context.Background())
}

func TestSession_DropsContractViolations(t *testing.T) {
	req := require.New(t)
	bus := runtime.NewBus(slog.Default(), "i-1", 0, nil, "")
	deps := newDeps(t, bus, auth.NewMembershipRegistry())
	writer := &recordingWriter{}
	channel := domain.ReportChannel("r-1")
	session := NewSession(deps, writer, Options{Subject: domain.Subject{ID: "alice"}, Channels: []domain.Channel{channel}})
	req.NoError(session.Open(context.Background()))
	defer session.Close(context.Background())

	// Given a notification without eventId nor serverTimestamp
	bad := event.Notification{Channel: channel.Key(), Type: event.ReportUpdated, EntityID: "r-1"}

	// When it reaches the session
	bus.DeliverLocal(context.Background(), bad)

	// Then it is never queued
	req.Len(session.queue, 0)
	req.Equal(uint64(1), deps.Monitor.Snapshot(0, 0).ContractViolations)
}

func TestSession_SlowConsumerIsClosed(t *testing.T) {
	req := require.New(t)
	bus := runtime.NewBus(slog.Default(), "i-1", 0, nil, "")
	deps := newDeps(t, bus, auth.NewMembershipRegistry())
	writer := &recordingWriter{}
	channel := domain.ReportChannel("r-1")
	session := NewSession(deps, writer, Options{
		Subject:   domain.Subject{ID: "alice"},
		Channels:  []domain.Channel{channel},
		QueueSize: 1,
	})
	req.NoError(session.Open(context.Background()))

	// Given more notifications than the queue holds before Serve drains it
	for _, id := range []string{"e-1", "e-2", "e-3"} {
		bus.DeliverLocal(context.Background(), notification(channel, id))
	}

	// Then serving terminates the session instead of buffering
	err := session.Serve(context.Background())
	req.ErrorIs(err, errors.ErrSlowConsumer)
	req.Equal(0, bus.SubscriberCount(channel))
}

func TestSession_WriteFailureTerminates(t *testing.T) {
	req := require.New(t)
	bus := runtime.NewBus(slog.Default(), "i-1", 0, nil, "")
	deps := newDeps(t, bus, auth.NewMembershipRegistry())
	writer := &recordingWriter{}
	channel := domain.ReportChannel("r-1")
	session := NewSession(deps, writer, Options{Subject: domain.Subject{ID: "alice"}, Channels: []domain.Channel{channel}})
	req.NoError(session.Open(context.Background()))

	// Given the socket is broken
	writer.Fail(stdErrors.New("broken pipe"))
	bus.DeliverLocal(context.Background(), notification(channel, "e-1"))

	err := session.Serve(context.Background())
	req.ErrorIs(err, errors.ErrSessionClosed)
	req.Equal(0, bus.SubscriberCount(channel))
}

func TestSession_SuppressEcho(t *testing.T) {
	req := require.New(t)
	bus := runtime.NewBus(slog.Default(), "i-1", 0, nil, "")
	deps := newDeps(t, bus, auth.NewMembershipRegistry())
	channel := domain.InboxChannel("alice")
	session := NewSession(deps, &recordingWriter{}, Options{
		Subject:      domain.Subject{ID: "alice"},
		Channels:     []domain.Channel{channel},
		ClientID:     "tab-1",
		SuppressEcho: true,
	})
	req.NoError(session.Open(context.Background()))
	defer session.Close(context.Background())

	own := notification(channel, "e-1")
	own.OriginClientID = "tab-1"
	other := notification(channel, "e-2")
	other.OriginClientID = "tab-2"

	bus.DeliverLocal(context.Background(), own)
	bus.DeliverLocal(context.Background(), other)

	req.Len(session.queue, 1)
	req.Equal("e-2", (<-session.queue).EventID)
}

func TestSession_SnapshotsAreFlushedOnOpen(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	snapshots := mocks.NewMockSnapshotSource(ctrl)
	bus := runtime.NewBus(slog.Default(), "i-1", 0, nil, "")
	deps := newDeps(t, bus, auth.NewMembershipRegistry())
	deps.Snapshots = snapshots
	writer := &recordingWriter{}
	channel := domain.InboxChannel("alice")

	// Given one missed notification is waiting in the inbox
	snapshots.EXPECT().Snapshots(gomock.Any(), domain.Subject{ID: "alice"}, channel).
		Return([]event.Frame{{Type: event.NotificationCreated, ID: "n-1", EventID: "e-9", ServerTimestamp: 1}}, nil)

	session := NewSession(deps, writer, Options{Subject: domain.Subject{ID: "alice"}, Channels: []domain.Channel{channel}})
	req.NoError(session.Open(context.Background()))
	defer session.Close(context.Background())

	frames := writer.Frames()
	req.Len(frames, 2)
	req.True(frames[1].Snapshot)
	req.Equal(channel.Key(), frames[1].Channel)
}

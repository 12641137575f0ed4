package services

import (
	"civic-stream/domain"
	"civic-stream/domain/event"
	"civic-stream/mocks"
	"civic-stream/repositories"
	"civic-stream/runtime"
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type transitions struct {
	mu   sync.Mutex
	seen []event.Notification
}

func (r *transitions) handle(_ context.Context, n event.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen = append(r.seen, n)
}

func (r *transitions) types() []event.Type {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]event.Type, 0, len(r.seen))
	for _, n := range r.seen {
		out = append(out, n.Type)
	}
	return out
}

func newPresence(t *testing.T, ttl time.Duration) (*PresenceTracker, *clock, *transitions, *repositories.PresenceRepository) {
	t.Helper()
	bus := runtime.NewBus(slog.Default(), "i-1", 0, nil, "")
	rec := &transitions{}
	_, err := bus.Subscribe(domain.PresenceFeed, rec.handle)
	require.NoError(t, err)
	repo := repositories.NewPresenceRepository(openDB(t))
	c := &clock{now: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)}
	tracker := NewPresenceTracker(slog.Default(), repo, bus, ttl)
	tracker.now = c.Now
	return tracker, c, rec, repo
}

func TestPresence_MultiTabGoesOfflineOnce(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	tracker, c, rec, _ := newPresence(t, 30*time.Second)

	// Given alice opens three tabs
	for range 3 {
		tracker.TrackConnect(ctx, "alice")
	}
	req.True(tracker.IsOnline("alice"))
	req.Equal([]event.Type{event.PresenceOnline}, rec.types())

	// When she closes them all
	for range 3 {
		tracker.TrackDisconnect(ctx, "alice")
	}

	// Then nothing happens before the TTL
	c.Advance(10 * time.Second)
	req.Empty(tracker.Sweep(ctx))
	req.Equal([]event.Type{event.PresenceOnline}, rec.types())

	// And exactly one offline transition once it elapsed
	c.Advance(30 * time.Second)
	req.Equal([]string{"alice"}, tracker.Sweep(ctx))
	req.Empty(tracker.Sweep(ctx))
	req.Equal([]event.Type{event.PresenceOnline, event.PresenceOffline}, rec.types())
	req.False(tracker.IsOnline("alice"))
	req.Equal(0, tracker.GetOnlineCount())
}

func TestPresence_RefreshDoesNotFlicker(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	tracker, c, rec, _ := newPresence(t, 30*time.Second)

	tracker.TrackConnect(ctx, "alice")
	// A page refresh: disconnect then reconnect within the TTL
	tracker.TrackDisconnect(ctx, "alice")
	c.Advance(time.Second)
	tracker.TrackConnect(ctx, "alice")
	c.Advance(time.Minute)
	tracker.Sweep(ctx)

	req.Equal([]event.Type{event.PresenceOnline}, rec.types())
}

func TestPresence_OpenSessionStaysOnlineWithHeartbeats(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	tracker, c, _, _ := newPresence(t, 30*time.Second)

	tracker.TrackConnect(ctx, "alice")
	c.Advance(20 * time.Second)
	tracker.MarkOnline(ctx, "alice")
	c.Advance(20 * time.Second)

	req.True(tracker.IsOnline("alice"))
	req.Equal(1, tracker.GetOnlineCount())
	req.Empty(tracker.Sweep(ctx))
}

func TestPresence_MarkOnlineIgnoresUnknownSubjects(t *testing.T) {
	req := require.New(t)
	tracker, _, rec, _ := newPresence(t, 30*time.Second)
	tracker.MarkOnline(context.Background(), "ghost")
	req.False(tracker.IsOnline("ghost"))
	req.Empty(rec.types())
}

func TestPresence_RestoreResetsCounts(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	tracker, c, _, repo := newPresence(t, 30*time.Second)
	tracker.TrackConnect(ctx, "alice")

	// Given the process restarts with the same store
	bus := runtime.NewBus(slog.Default(), "i-2", 0, nil, "")
	rec := &transitions{}
	_, err := bus.Subscribe(domain.PresenceFeed, rec.handle)
	req.NoError(err)
	restarted := NewPresenceTracker(slog.Default(), repo, bus, 30*time.Second)
	restarted.now = c.Now
	req.NoError(restarted.Restore())

	// Then alice is offline after one TTL unless she reconnects
	req.False(restarted.IsOnline("alice"))
	c.Advance(time.Minute)
	req.Equal([]string{"alice"}, restarted.Sweep(ctx))
	req.Equal([]event.Type{event.PresenceOffline}, rec.types())
}

func TestPresence_StoreFailureNeverBlocksConnections(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	repo := mocks.NewMockIPresenceRepository(ctrl)
	bus := runtime.NewBus(slog.Default(), "i-1", 0, nil, "")

	// Given the presence store is down
	repo.EXPECT().Save(gomock.Any()).Return(context.DeadlineExceeded).AnyTimes()
	repo.EXPECT().ForSubject(gomock.Any()).Return(nil, context.DeadlineExceeded).AnyTimes()

	tracker := NewPresenceTracker(slog.Default(), repo, bus, 30*time.Second)
	tracker.TrackConnect(context.Background(), "alice")

	req.True(tracker.IsOnline("alice"))
}

func TestPresence_SubjectOnlineThroughAnotherInstance(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	first, c, rec, repo := newPresence(t, 30*time.Second)
	first.WithInstanceID("i-1")

	second := NewPresenceTracker(slog.Default(), repo, runtime.NewBus(slog.Default(), "i-2", 0, nil, ""), 30*time.Second).
		WithInstanceID("i-2")
	second.now = c.Now

	// Given alice holds a session on both instances
	first.TrackConnect(ctx, "alice")
	second.TrackConnect(ctx, "alice")
	req.True(second.IsOnline("alice"))

	// When she leaves the first one and it sweeps after the TTL
	first.TrackDisconnect(ctx, "alice")
	c.Advance(20 * time.Second)
	second.MarkOnline(ctx, "alice")
	c.Advance(20 * time.Second)

	// Then the first instance still sees her online and stays quiet
	req.Empty(first.Sweep(ctx))
	req.True(first.IsOnline("alice"))
	req.Equal(0, first.GetOnlineCount())
	req.Equal([]event.Type{event.PresenceOnline}, rec.types())

	// And once the second instance dies its stale row is taken over
	c.Advance(2 * time.Minute)
	req.Equal([]string{"alice"}, first.Sweep(ctx))
	req.False(first.IsOnline("alice"))
	req.Equal([]event.Type{event.PresenceOnline, event.PresenceOffline}, rec.types())
	rows, err := repo.ForSubject("alice")
	req.NoError(err)
	req.Empty(rows)
}

func TestPresence_RestoreKeepsOtherInstancesRows(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	tracker, c, _, repo := newPresence(t, 30*time.Second)
	tracker.WithInstanceID("i-1").TrackConnect(ctx, "alice")

	// Given another instance restarts on the same table
	restarted := NewPresenceTracker(slog.Default(), repo, runtime.NewBus(slog.Default(), "i-2", 0, nil, ""), 30*time.Second).
		WithInstanceID("i-2")
	restarted.now = c.Now
	req.NoError(restarted.Restore())

	// Then it claims nothing and still sees alice through the first instance
	req.Equal(0, restarted.GetOnlineCount())
	req.True(restarted.IsOnline("alice"))
	rows, err := repo.ForSubject("alice")
	req.NoError(err)
	req.Len(rows, 1)
	req.Equal(1, rows[0].SessionCount)
}

// Package stream serves the realtime push of a single client over Server-Sent Events.
package stream

import (
	"civic-stream/contract"
	"civic-stream/domain"
	"civic-stream/domain/event"
	"civic-stream/errors"
	"civic-stream/observability"
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

const DefaultQueueSize = 256

type State int32

const (
	StateConnecting State = iota
	StateOpen
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "CONNECTING"
	case StateOpen:
		return "OPEN"
	default:
		return "CLOSED"
	}
}

// Deps are shared by every session of the instance.
// Presence and Snapshots are optional.
type Deps struct {
	Log        *slog.Logger
	Bus        contract.IBus
	Authorizer contract.Authorizer
	Presence   contract.IPresenceTracker
	Snapshots  contract.SnapshotSource
	Monitor    *observability.Monitor
	Heartbeats domain.HeartbeatPolicy
}

type Options struct {
	Subject   domain.Subject
	Channels  []domain.Channel
	ClientID  string
	QueueSize int
	// SuppressEcho drops frames whose originClientId is this session's ClientID.
	SuppressEcho bool
}

// Session is one open push connection: a subject, its authorized channels and a socket.
// Bus handlers only enqueue; Serve owns the socket. A full queue or a failed write ends
// the session, the client recovers through catchup.
type Session struct {
	id       string
	deps     Deps
	opts     Options
	log      *slog.Logger
	writer   FrameWriter
	state    atomic.Int32
	queue    chan event.Notification
	overflow chan struct{}

	mu           sync.Mutex
	unsubscribes []func()
	ticker       *time.Ticker
	tracked      bool
	closeOnce    sync.Once
}

func NewSession(deps Deps, writer FrameWriter, opts Options) *Session {
	if opts.QueueSize <= 0 {
		opts.QueueSize = DefaultQueueSize
	}
	id := uuid.NewString()
	return &Session{
		id:       id,
		deps:     deps,
		opts:     opts,
		log:      deps.Log.With("session_id", id, "subject_id", opts.Subject.ID),
		writer:   writer,
		queue:    make(chan event.Notification, opts.QueueSize),
		overflow: make(chan struct{}, 1),
	}
}

func (s *Session) ID() string { return s.id }

func (s *Session) State() State { return State(s.state.Load()) }

func (s *Session) Channels() []domain.Channel { return s.opts.Channels }

// Open authorizes every channel before anything is written. On success it subscribes,
// writes the confirmation and snapshot frames, starts the heartbeat and tracks presence.
// Subscribing before the confirmation frame leaves no window where a publish is missed.
func (s *Session) Open(ctx context.Context) error {
	if len(s.opts.Channels) == 0 {
		s.state.Store(int32(StateClosed))
		return errors.ErrNoChannel
	}
	for _, ch := range s.opts.Channels {
		if err := s.deps.Authorizer.Authorize(ctx, s.opts.Subject, ch); err != nil {
			s.state.Store(int32(StateClosed))
			if errors.IsAuthorizationDenial(err) {
				s.deps.Monitor.AuthorizationDenied()
				s.log.Warn("Authorization denied", "channel", ch.Key(), "error", err)
			}
			return err
		}
	}

	for _, ch := range s.opts.Channels {
		unsubscribe, err := s.deps.Bus.Subscribe(ch, s.deliver)
		if err != nil {
			s.state.Store(int32(StateClosed))
			s.unsubscribeAll()
			return fmt.Errorf("subscribe %s: %w", ch.Key(), err)
		}
		s.mu.Lock()
		s.unsubscribes = append(s.unsubscribes, unsubscribe)
		s.mu.Unlock()
	}

	interval := s.deps.Heartbeats.IntervalFor(s.opts.Channels)
	if interval <= 0 {
		interval = domain.DefaultHeartbeatPolicy.IntervalFor(s.opts.Channels)
	}
	if err := s.writer.WriteFrame(s.confirmation(interval)); err != nil {
		s.state.Store(int32(StateClosed))
		s.unsubscribeAll()
		return fmt.Errorf("%w: %v", errors.ErrSessionClosed, err)
	}
	if err := s.flushSnapshots(ctx); err != nil {
		s.state.Store(int32(StateClosed))
		s.unsubscribeAll()
		return err
	}

	s.mu.Lock()
	s.ticker = time.NewTicker(interval)
	if s.deps.Presence != nil {
		s.deps.Presence.TrackConnect(ctx, s.opts.Subject.ID)
		s.tracked = true
	}
	s.mu.Unlock()

	s.state.Store(int32(StateOpen))
	s.deps.Monitor.SessionOpened()
	s.log.Info("Stream opened",
		"channels", lo.Map(s.opts.Channels, func(c domain.Channel, _ int) string { return c.Key() }),
		"heartbeat", interval)
	return nil
}

func (s *Session) confirmation(interval time.Duration) event.Frame {
	return event.Frame{
		Type:            event.ConnectionConfirmed,
		ID:              s.id,
		EventID:         uuid.NewString(),
		ServerTimestamp: time.Now().UnixMilli(),
		Extra: map[string]any{
			"channels":    lo.Map(s.opts.Channels, func(c domain.Channel, _ int) string { return c.Key() }),
			"heartbeatMs": interval.Milliseconds(),
		},
	}
}

func (s *Session) flushSnapshots(ctx context.Context) error {
	if s.deps.Snapshots == nil {
		return nil
	}
	for _, ch := range s.opts.Channels {
		frames, err := s.deps.Snapshots.Snapshots(ctx, s.opts.Subject, ch)
		if err != nil {
			s.log.Warn("Snapshot unavailable, client will rely on catchup", "channel", ch.Key(), "error", err)
			continue
		}
		for _, f := range frames {
			f.Snapshot = true
			if f.Channel == "" {
				f.Channel = ch.Key()
			}
			if err := s.writer.WriteFrame(f); err != nil {
				s.deps.Monitor.WriteFailed()
				return fmt.Errorf("%w: %v", errors.ErrSessionClosed, err)
			}
			s.deps.Monitor.FrameSent()
		}
	}
	return nil
}

// deliver runs on the publisher goroutine and must never block.
func (s *Session) deliver(_ context.Context, n event.Notification) {
	if s.State() == StateClosed {
		return
	}
	if err := n.Validate(); err != nil {
		s.deps.Monitor.ContractViolation()
		s.log.Error("Invariant violation, notification dropped", "channel", n.Channel, "type", n.Type, "error", err)
		return
	}
	if s.opts.SuppressEcho && n.OriginClientID != "" && n.OriginClientID == s.opts.ClientID {
		return
	}
	select {
	case s.queue <- n:
	default:
		select {
		case s.overflow <- struct{}{}:
		default:
		}
	}
}

// Serve writes queued frames and heartbeats until the request context is done or a
// write fails. The session is closed when Serve returns.
func (s *Session) Serve(ctx context.Context) error {
	defer s.Close(context.WithoutCancel(ctx))
	if s.State() != StateOpen {
		return errors.ErrSessionClosed
	}
	s.mu.Lock()
	ticks := s.ticker.C
	s.mu.Unlock()

	for {
		select {
		case <-ctx.Done():
			s.log.Debug("Client disconnected")
			return nil
		case <-s.overflow:
			s.deps.Monitor.SlowConsumer()
			s.log.Warn("Slow consumer, closing stream", "queue_size", s.opts.QueueSize)
			return errors.ErrSlowConsumer
		case n := <-s.queue:
			if err := s.writer.WriteFrame(n.Frame()); err != nil {
				s.deps.Monitor.WriteFailed()
				s.log.Debug("Write failed, closing stream", "event_id", n.EventID, "error", err)
				return fmt.Errorf("%w: %v", errors.ErrSessionClosed, err)
			}
			s.deps.Monitor.FrameSent()
		case <-ticks:
			if err := s.writer.WriteComment("heartbeat"); err != nil {
				s.deps.Monitor.WriteFailed()
				return fmt.Errorf("%w: %v", errors.ErrSessionClosed, err)
			}
			if s.deps.Presence != nil {
				s.deps.Presence.MarkOnline(ctx, s.opts.Subject.ID)
			}
		}
	}
}

// Close releases every bus subscription before returning. It is idempotent.
func (s *Session) Close(ctx context.Context) {
	s.closeOnce.Do(func() {
		wasOpen := s.State() == StateOpen
		s.state.Store(int32(StateClosed))
		s.unsubscribeAll()

		s.mu.Lock()
		if s.ticker != nil {
			s.ticker.Stop()
		}
		tracked := s.tracked
		s.tracked = false
		s.mu.Unlock()

		if tracked {
			s.deps.Presence.TrackDisconnect(ctx, s.opts.Subject.ID)
		}
		if wasOpen {
			s.deps.Monitor.SessionClosed()
			s.log.Info("Stream closed")
		}
	})
}

func (s *Session) unsubscribeAll() {
	s.mu.Lock()
	unsubscribes := s.unsubscribes
	s.unsubscribes = nil
	s.mu.Unlock()
	for _, unsubscribe := range unsubscribes {
		unsubscribe()
	}
}

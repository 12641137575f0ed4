package client

import (
	"civic-stream/domain"
	"civic-stream/domain/event"
	"civic-stream/projection"
	"context"
	stdErrors "errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	DefaultInitialRetry = 500 * time.Millisecond
	DefaultMaxRetry     = 30 * time.Second
)

type SyncerOptions struct {
	Channels  []domain.Channel
	ClientID  string
	AckFrames bool
	// Watermark resumes from a sequence id persisted by a previous run.
	Watermark       uint64
	InitialInterval time.Duration
	MaxInterval     time.Duration
	// MaxElapsedTime gives up after that long without a confirmed connection, 0 retries forever.
	MaxElapsedTime time.Duration
}

// Syncer owns the connection lifecycle on the client side. Reconnection is never driven by the server.
// On every confirmed connection it pages catchup from its watermark, so events emitted while it
// was disconnected are recovered; the overlap with live frames is removed by the cache.
type Syncer struct {
	log       *slog.Logger
	client    *Client
	cache     *projection.Cache
	opts      SyncerOptions
	watermark atomic.Uint64
	connects  atomic.Int64
}

func NewSyncer(log *slog.Logger, client *Client, cache *projection.Cache, opts SyncerOptions) *Syncer {
	if opts.InitialInterval <= 0 {
		opts.InitialInterval = DefaultInitialRetry
	}
	if opts.MaxInterval <= 0 {
		opts.MaxInterval = DefaultMaxRetry
	}
	s := &Syncer{log: log, client: client, cache: cache, opts: opts}
	s.watermark.Store(opts.Watermark)
	return s
}

// Watermark is the highest sequence id covered by a completed catchup.
func (s *Syncer) Watermark() uint64 { return s.watermark.Load() }

// Connects counts confirmed connections.
func (s *Syncer) Connects() int64 { return s.connects.Load() }

func (s *Syncer) newBackOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = s.opts.InitialInterval
	b.MaxInterval = s.opts.MaxInterval
	b.MaxElapsedTime = s.opts.MaxElapsedTime
	b.Reset()
	return b
}

// Run streams until ctx is done. It returns nil on cancellation and an error when the server
// refuses the subject or the retry budget is exhausted.
func (s *Syncer) Run(ctx context.Context) error {
	b := s.newBackOff()
	for {
		err := s.session(ctx, b)
		if ctx.Err() != nil {
			return nil
		}
		var status *StatusError
		if stdErrors.As(err, &status) && status.Permanent() {
			return err
		}
		wait := b.NextBackOff()
		if wait == backoff.Stop {
			return fmt.Errorf("giving up reconnecting: %w", err)
		}
		s.log.Warn("Stream lost, reconnecting", "in", wait, "watermark", s.Watermark(), "error", err)
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(wait):
		}
	}
}

func (s *Syncer) session(ctx context.Context, b backoff.BackOff) error {
	return s.client.Stream(ctx, s.opts.Channels, s.opts.ClientID, func(f event.Frame) error {
		if f.Type == event.ConnectionConfirmed {
			// Subscriptions are live once confirmed, catchup now leaves no gap.
			s.connects.Add(1)
			b.Reset()
			return s.catchup(ctx)
		}
		s.apply(ctx, f)
		return nil
	})
}

func (s *Syncer) catchup(ctx context.Context) error {
	for {
		from := s.Watermark()
		page, err := s.client.Catchup(ctx, from)
		if err != nil {
			return fmt.Errorf("catchup from %d: %w", from, err)
		}
		applied := s.cache.ApplyReplay(ctx, page.Events)
		if page.Watermark > from {
			s.watermark.Store(page.Watermark)
		}
		s.log.Debug("Catchup page applied", "from", from, "events", len(page.Events), "applied", applied)
		if !page.HasMore || page.Watermark <= from {
			return nil
		}
	}
}

func (s *Syncer) apply(ctx context.Context, f event.Frame) {
	s.cache.ApplyFrame(ctx, f)
	if !s.opts.AckFrames || f.EventID == "" || f.Type.IsEphemeral() {
		return
	}
	if err := s.client.Ack(ctx, f.EventID); err != nil {
		s.log.Warn("Ack failed", "event_id", f.EventID, "error", err)
	}
}

package services

import (
	"civic-stream/contract"
	"civic-stream/domain"
	"civic-stream/domain/event"
	"civic-stream/errors"
	"civic-stream/observability"
	"civic-stream/repositories"
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultCatchupLimit   = 200
	DefaultCatchupTimeout = 5 * time.Second
)

// Watermark is the client's last seen point. SequenceID wins over Since when both are set.
type Watermark struct {
	SequenceID uint64
	Since      time.Time
}

func (w Watermark) IsZero() bool { return w.SequenceID == 0 && w.Since.IsZero() }

type CatchupResult struct {
	Events  []event.ReplayFrame
	HasMore bool
	// Watermark is the highest sequence id covered, to be sent back on the next call.
	Watermark uint64
}

// CatchupService answers "what changed since my watermark" across every source the
// subject may read. Sources overlap on purpose (a deletion is both a message and a
// deletion); results are deduplicated by event id.
type CatchupService struct {
	log      *slog.Logger
	eventLog contract.IEventLog
	sources  []contract.CatchupSource
	monitor  *observability.Monitor
	limit    int
	timeout  time.Duration
}

func NewCatchupService(log *slog.Logger, eventLog contract.IEventLog, sources []contract.CatchupSource,
	monitor *observability.Monitor, limit int, timeout time.Duration) *CatchupService {
	if limit <= 0 || limit > repositories.MaxPageSize {
		limit = DefaultCatchupLimit
	}
	if timeout <= 0 {
		timeout = DefaultCatchupTimeout
	}
	return &CatchupService{log: log, eventLog: eventLog, sources: sources, monitor: monitor, limit: limit, timeout: timeout}
}

func (s *CatchupService) Catchup(ctx context.Context, subject domain.Subject, wm Watermark) (CatchupResult, error) {
	if subject.IsZero() {
		return CatchupResult{}, errors.ErrUnauthenticated
	}
	s.monitor.CatchupRequested()

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	seq, err := s.resolve(ctx, wm)
	if err != nil {
		return CatchupResult{}, err
	}
	q := contract.CatchupQuery{Subject: subject, SequenceID: seq, Since: wm.Since, Limit: s.limit}

	var (
		mu          sync.Mutex
		rows        []contract.CatchupRow
		hasMore     bool
		truncatedAt uint64
	)
	g, gctx := errgroup.WithContext(ctx)
	for _, source := range s.sources {
		g.Go(func() error {
			found, err := source.Query(gctx, q)
			if err != nil {
				return fmt.Errorf("catchup source %s: %w", source.Name(), err)
			}
			mu.Lock()
			defer mu.Unlock()
			rows = append(rows, found...)
			if len(found) >= q.Limit {
				hasMore = true
				last := lo.MaxBy(found, func(a, b contract.CatchupRow) bool { return a.SequenceID > b.SequenceID }).SequenceID
				if truncatedAt == 0 || last < truncatedAt {
					truncatedAt = last
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.log.Error("Catchup failed", "subject_id", subject.ID, "error", err)
		return CatchupResult{}, err
	}

	frames := lo.UniqBy(lo.Map(rows, func(r contract.CatchupRow, _ int) event.ReplayFrame {
		return toReplayFrame(r)
	}), func(f event.ReplayFrame) string { return f.EventID })
	sortReplay(frames)

	// A truncated source caps the watermark so its remaining rows are not skipped next time.
	watermark := seq
	for _, f := range frames {
		watermark = max(watermark, f.SequenceID)
	}
	if hasMore && truncatedAt > 0 {
		watermark = max(seq, min(watermark, truncatedAt))
	}
	s.log.Debug("Catchup served", "subject_id", subject.ID, "from", seq, "events", len(frames), "has_more", hasMore)
	return CatchupResult{Events: frames, HasMore: hasMore, Watermark: watermark}, nil
}

// resolve maps a timestamp watermark onto the log sequence.
func (s *CatchupService) resolve(ctx context.Context, wm Watermark) (uint64, error) {
	if wm.SequenceID > 0 || wm.Since.IsZero() {
		return wm.SequenceID, nil
	}
	seq, err := s.eventLog.SequenceAt(ctx, wm.Since)
	if err != nil {
		return 0, fmt.Errorf("resolve watermark %s: %w", wm.Since.Format(time.RFC3339Nano), err)
	}
	return seq, nil
}

// SyntheticEventID identifies a row that has no event id of its own.
func SyntheticEventID(rowID string, at time.Time) string {
	return fmt.Sprintf("%s:%d", rowID, at.UnixMilli())
}

func toReplayFrame(r contract.CatchupRow) event.ReplayFrame {
	eventID := r.EventID
	if eventID == "" {
		eventID = SyntheticEventID(r.RowID, r.OccurredAt)
	}
	f := event.Frame{
		Type:            r.Type,
		ID:              r.RowID,
		OriginClientID:  r.OriginClientID,
		EventID:         eventID,
		ServerTimestamp: r.OccurredAt.UnixMilli(),
		TempID:          r.TempID,
		SequenceID:      r.SequenceID,
		Channel:         r.Channel,
	}
	if r.AuthorID != "" {
		f.Extra = map[string]any{"authorId": r.AuthorID}
	}
	return event.ReplayFrame{Frame: f, Payload: r.Payload, IsReplay: true}
}

func sortReplay(frames []event.ReplayFrame) {
	sort.SliceStable(frames, func(i, j int) bool {
		a, b := frames[i], frames[j]
		if a.ServerTimestamp != b.ServerTimestamp {
			return a.ServerTimestamp < b.ServerTimestamp
		}
		if a.SequenceID != b.SequenceID {
			return a.SequenceID < b.SequenceID
		}
		return a.EventID < b.EventID
	})
}

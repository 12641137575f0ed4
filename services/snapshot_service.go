package services

import (
	"civic-stream/contract"
	"civic-stream/domain"
	"civic-stream/domain/event"
	"context"
	"log/slog"
	"time"
)

const DefaultSnapshotLookback = 24 * time.Hour

// InboxSnapshots flushes the inbox notifications a subject never acknowledged when a
// stream opens on its inbox. Other channel kinds have no snapshot, catchup covers them.
type InboxSnapshots struct {
	log      *slog.Logger
	eventLog contract.IEventLog
	ledger   contract.IDedupLedger
	lookback time.Duration
	limit    int
	now      func() time.Time
}

var _ contract.SnapshotSource = (*InboxSnapshots)(nil)

func NewInboxSnapshots(log *slog.Logger, eventLog contract.IEventLog, ledger contract.IDedupLedger,
	lookback time.Duration, limit int) *InboxSnapshots {
	if lookback <= 0 {
		lookback = DefaultSnapshotLookback
	}
	if limit <= 0 {
		limit = DefaultCatchupLimit
	}
	return &InboxSnapshots{log: log, eventLog: eventLog, ledger: ledger, lookback: lookback, limit: limit, now: time.Now}
}

func (s *InboxSnapshots) Snapshots(ctx context.Context, subject domain.Subject, channel domain.Channel) ([]event.Frame, error) {
	if channel.Kind != domain.KindInbox || channel.ID != subject.ID {
		return nil, nil
	}
	watermark, err := s.eventLog.SequenceAt(ctx, s.now().Add(-s.lookback))
	if err != nil {
		return nil, err
	}
	var frames []event.Frame
	for len(frames) < s.limit {
		events, err := s.eventLog.GetSinceForIndex(ctx, contract.ChannelIndex(channel), watermark, s.limit)
		if err != nil {
			return nil, err
		}
		for _, evt := range events {
			watermark = evt.SequenceID
			if evt.EventType.IsDeletion() {
				continue
			}
			status, _, err := s.ledger.GetStatus(ctx, evt.EventID)
			if err != nil {
				return nil, err
			}
			if status == contract.StatusProcessed {
				continue
			}
			frames = append(frames, evt.Notification().Frame())
			if len(frames) == s.limit {
				break
			}
		}
		if len(events) < s.limit {
			break
		}
	}
	s.log.Debug("Inbox snapshot", "subject_id", subject.ID, "frames", len(frames))
	return frames, nil
}

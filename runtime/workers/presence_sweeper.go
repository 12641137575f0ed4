package workers

import (
	"context"
	"log/slog"
	"time"
)

type Sweeper interface {
	Sweep(ctx context.Context) []string
}

// PresenceSweeperWorker periodically fires the debounced offline transitions.
type PresenceSweeperWorker struct {
	log      *slog.Logger
	sweeper  Sweeper
	interval time.Duration
}

func NewPresenceSweeperWorker(log *slog.Logger, sweeper Sweeper, interval time.Duration) *PresenceSweeperWorker {
	return &PresenceSweeperWorker{log: log, sweeper: sweeper, interval: interval}
}

func (w *PresenceSweeperWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Context done, stopping presence sweeper")
			return nil
		case <-ticker.C:
			if gone := w.sweeper.Sweep(ctx); len(gone) > 0 {
				w.log.Debug("Subjects went offline", "count", len(gone))
			}
		}
	}
}

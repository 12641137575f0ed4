package workers

import (
	"civic-stream/observability"
	"context"
	"log/slog"
	"time"
)

// StatsProvider gives the live gauges the monitor does not own.
type StatsProvider interface {
	GetOnlineCount() int
}

type ChannelCounter interface {
	ChannelCount() int
}

// HealthReportWorker logs an instance health snapshot at a fixed interval.
type HealthReportWorker struct {
	log      *slog.Logger
	monitor  *observability.Monitor
	presence StatsProvider
	bus      ChannelCounter
	interval time.Duration
}

func NewHealthReportWorker(log *slog.Logger, monitor *observability.Monitor,
	presence StatsProvider, bus ChannelCounter, interval time.Duration) *HealthReportWorker {
	return &HealthReportWorker{log: log, monitor: monitor, presence: presence, bus: bus, interval: interval}
}

func (w *HealthReportWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Context done, stopping health report")
			return nil
		case <-ticker.C:
			s := w.monitor.Snapshot(w.presence.GetOnlineCount(), w.bus.ChannelCount())
			w.log.Info("Health",
				"open_sessions", s.OpenSessions,
				"online_subjects", s.OnlineSubjects,
				"active_channels", s.ActiveChannels,
				"frames_sent", s.FramesSent,
				"slow_consumers", s.SlowConsumers,
				"contract_violations", s.ContractViolations,
				"goroutines", s.Goroutines,
				"rss_bytes", s.RSSBytes,
				"cpu_percent", s.CPUPercent)
		}
	}
}

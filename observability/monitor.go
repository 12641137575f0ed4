package observability

import (
	"log/slog"
	"os"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/shirou/gopsutil/process"
)

// Stats is the aggregate health snapshot served on /healthz.
type Stats struct {
	InstanceID          string  `json:"instance_id"`
	UptimeSeconds       int64   `json:"uptime_seconds"`
	OnlineSubjects      int     `json:"online_subjects"`
	ActiveChannels      int     `json:"active_channels"`
	OpenSessions        int64   `json:"open_sessions"`
	SessionsOpened      uint64  `json:"sessions_opened"`
	SessionsClosed      uint64  `json:"sessions_closed"`
	FramesSent          uint64  `json:"frames_sent"`
	WriteFailures       uint64  `json:"write_failures"`
	SlowConsumers       uint64  `json:"slow_consumers"`
	ContractViolations  uint64  `json:"contract_violations"`
	AuthorizationDenied uint64  `json:"authorization_denied"`
	CatchupRequests     uint64  `json:"catchup_requests"`
	Goroutines          int     `json:"goroutines"`
	RSSBytes            uint64  `json:"rss_bytes"`
	CPUPercent          float64 `json:"cpu_percent"`
}

// Monitor keeps the engine counters. Every method is safe for concurrent use.
type Monitor struct {
	log        *slog.Logger
	instanceID string
	startedAt  time.Time
	proc       *process.Process

	openSessions        int64
	sessionsOpened      uint64
	sessionsClosed      uint64
	framesSent          uint64
	writeFailures       uint64
	slowConsumers       uint64
	contractViolations  uint64
	authorizationDenied uint64
	catchupRequests     uint64
}

func NewMonitor(log *slog.Logger, instanceID string) *Monitor {
	m := &Monitor{log: log, instanceID: instanceID, startedAt: time.Now()}
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		log.Warn("Process stats unavailable", "error", err)
	} else {
		m.proc = p
	}
	return m
}

func (m *Monitor) SessionOpened() {
	atomic.AddInt64(&m.openSessions, 1)
	atomic.AddUint64(&m.sessionsOpened, 1)
}

func (m *Monitor) SessionClosed() {
	atomic.AddInt64(&m.openSessions, -1)
	atomic.AddUint64(&m.sessionsClosed, 1)
}

func (m *Monitor) FrameSent()           { atomic.AddUint64(&m.framesSent, 1) }
func (m *Monitor) WriteFailed()         { atomic.AddUint64(&m.writeFailures, 1) }
func (m *Monitor) SlowConsumer()        { atomic.AddUint64(&m.slowConsumers, 1) }
func (m *Monitor) ContractViolation()   { atomic.AddUint64(&m.contractViolations, 1) }
func (m *Monitor) AuthorizationDenied() { atomic.AddUint64(&m.authorizationDenied, 1) }
func (m *Monitor) CatchupRequested()    { atomic.AddUint64(&m.catchupRequests, 1) }

// Snapshot collects counters and process stats. online and channels come from the
// presence tracker and the bus, which the monitor does not own.
func (m *Monitor) Snapshot(online, channels int) Stats {
	stats := Stats{
		InstanceID:          m.instanceID,
		UptimeSeconds:       int64(time.Since(m.startedAt).Seconds()),
		OnlineSubjects:      online,
		ActiveChannels:      channels,
		OpenSessions:        atomic.LoadInt64(&m.openSessions),
		SessionsOpened:      atomic.LoadUint64(&m.sessionsOpened),
		SessionsClosed:      atomic.LoadUint64(&m.sessionsClosed),
		FramesSent:          atomic.LoadUint64(&m.framesSent),
		WriteFailures:       atomic.LoadUint64(&m.writeFailures),
		SlowConsumers:       atomic.LoadUint64(&m.slowConsumers),
		ContractViolations:  atomic.LoadUint64(&m.contractViolations),
		AuthorizationDenied: atomic.LoadUint64(&m.authorizationDenied),
		CatchupRequests:     atomic.LoadUint64(&m.catchupRequests),
		Goroutines:          runtime.NumGoroutine(),
	}
	if m.proc == nil {
		return stats
	}
	if mem, err := m.proc.MemoryInfo(); err == nil {
		stats.RSSBytes = mem.RSS
	}
	if cpu, err := m.proc.CPUPercent(); err == nil {
		stats.CPUPercent = cpu
	}
	return stats
}

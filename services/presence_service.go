package services

import (
	"civic-stream/contract"
	"civic-stream/domain"
	"civic-stream/domain/event"
	"civic-stream/repositories"
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

var _ contract.IPresenceTracker = (*PresenceTracker)(nil)

// orphanGrace is how many TTLs a row of another instance may stay stale before this
// instance takes it over. A live instance refreshes or sweeps its rows well before.
const orphanGrace = 3

type presenceState struct {
	entry     repositories.PresenceEntry
	announced bool
}

// PresenceTracker counts live sessions per subject (tabs, devices) and debounces
// the offline transition: it only fires from Sweep once the count is zero and the
// TTL since the last heartbeat has elapsed, so a refresh never flickers presence.
//
// Counts are kept per instance. The shared table holds one row per instance and
// subject, so a subject connected through another instance is still online here.
type PresenceTracker struct {
	mu         sync.Mutex
	log        *slog.Logger
	repo       repositories.IPresenceRepository
	bus        contract.IBus
	ttl        time.Duration
	instanceID string
	now        func() time.Time
	entries    map[string]*presenceState
}

func NewPresenceTracker(log *slog.Logger, repo repositories.IPresenceRepository, bus contract.IBus, ttl time.Duration) *PresenceTracker {
	return &PresenceTracker{
		log:     log,
		repo:    repo,
		bus:     bus,
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]*presenceState),
	}
}

// WithInstanceID sets the owner of the rows this tracker writes.
func (p *PresenceTracker) WithInstanceID(instanceID string) *PresenceTracker {
	p.instanceID = instanceID
	return p
}

// Restore reloads the rows of this instance after a restart. Sessions of the previous process are gone,
// so counts are reset to zero and those subjects go offline after one TTL unless they reconnect.
func (p *PresenceTracker) Restore() error {
	entries, err := p.repo.LoadAll()
	if err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	restored := 0
	for _, e := range entries {
		if e.InstanceID != p.instanceID {
			continue
		}
		e.SessionCount = 0
		p.entries[e.SubjectID] = &presenceState{entry: e, announced: true}
		p.persist(e)
		restored++
	}
	p.log.Info("Presence restored", "subjects", restored)
	return nil
}

// persist must be called with the lock held; presence is best effort and never fails a connection.
func (p *PresenceTracker) persist(e repositories.PresenceEntry) {
	e.InstanceID = p.instanceID
	if err := p.repo.Save(e); err != nil {
		p.log.Warn("Presence not persisted", "subject_id", e.SubjectID, "error", err)
	}
}

// onlineElsewhere reports whether another instance holds a live row for the subject.
func (p *PresenceTracker) onlineElsewhere(subjectID string, now time.Time) bool {
	rows, err := p.repo.ForSubject(subjectID)
	if err != nil {
		p.log.Warn("Presence lookup failed", "subject_id", subjectID, "error", err)
		return false
	}
	for _, row := range rows {
		if row.InstanceID != p.instanceID && row.IsOnline(now, p.ttl) {
			return true
		}
	}
	return false
}

func (p *PresenceTracker) TrackConnect(ctx context.Context, subjectID string) {
	p.mu.Lock()
	st, ok := p.entries[subjectID]
	if !ok {
		st = &presenceState{entry: repositories.PresenceEntry{SubjectID: subjectID}}
		p.entries[subjectID] = st
	}
	st.entry.SessionCount++
	st.entry.LastHeartbeatAt = p.now()
	p.persist(st.entry)
	first := !st.announced
	st.announced = true
	now := p.now()
	p.mu.Unlock()

	if first && !p.onlineElsewhere(subjectID, now) {
		p.broadcast(ctx, subjectID, event.PresenceOnline)
	}
}

func (p *PresenceTracker) TrackDisconnect(_ context.Context, subjectID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	st, ok := p.entries[subjectID]
	if !ok {
		return
	}
	if st.entry.SessionCount > 0 {
		st.entry.SessionCount--
	}
	p.persist(st.entry)
}

// MarkOnline refreshes the TTL of a known subject.
func (p *PresenceTracker) MarkOnline(_ context.Context, subjectID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	st, ok := p.entries[subjectID]
	if !ok {
		return
	}
	st.entry.LastHeartbeatAt = p.now()
	p.persist(st.entry)
}

// IsOnline answers for every instance: local sessions first, then the shared table.
func (p *PresenceTracker) IsOnline(subjectID string) bool {
	p.mu.Lock()
	st, ok := p.entries[subjectID]
	now := p.now()
	local := ok && st.entry.IsOnline(now, p.ttl)
	p.mu.Unlock()
	return local || p.onlineElsewhere(subjectID, now)
}

// GetOnlineCount counts the subjects online through this instance.
func (p *PresenceTracker) GetOnlineCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	now := p.now()
	count := 0
	for _, st := range p.entries {
		if st.entry.IsOnline(now, p.ttl) {
			count++
		}
	}
	return count
}

// Sweep expires subjects whose count reached zero and whose TTL lapsed, and rows left
// behind by instances that died. It broadcasts the offline transition of those no
// instance still holds online and returns them.
func (p *PresenceTracker) Sweep(ctx context.Context) []string {
	p.mu.Lock()
	now := p.now()
	var candidates []string
	for id, st := range p.entries {
		if st.entry.SessionCount > 0 || now.Sub(st.entry.LastHeartbeatAt) < p.ttl {
			continue
		}
		delete(p.entries, id)
		if err := p.repo.Delete(id, p.instanceID); err != nil {
			p.log.Warn("Presence entry not deleted", "subject_id", id, "error", err)
		}
		if st.announced {
			candidates = append(candidates, id)
		}
	}
	p.mu.Unlock()

	candidates = append(candidates, p.sweepOrphans(now)...)

	var expired []string
	for _, id := range candidates {
		if p.IsOnline(id) {
			continue
		}
		expired = append(expired, id)
		p.broadcast(ctx, id, event.PresenceOffline)
	}
	return expired
}

// sweepOrphans deletes stale rows of other instances and returns their subjects.
func (p *PresenceTracker) sweepOrphans(now time.Time) []string {
	rows, err := p.repo.LoadAll()
	if err != nil {
		p.log.Warn("Presence table not swept", "error", err)
		return nil
	}
	var orphaned []string
	for _, row := range rows {
		if row.InstanceID == p.instanceID || now.Sub(row.LastHeartbeatAt) < orphanGrace*p.ttl {
			continue
		}
		if err := p.repo.Delete(row.SubjectID, row.InstanceID); err != nil {
			p.log.Warn("Orphaned presence row not deleted", "subject_id", row.SubjectID, "instance_id", row.InstanceID, "error", err)
			continue
		}
		p.log.Debug("Orphaned presence row taken over", "subject_id", row.SubjectID, "instance_id", row.InstanceID)
		orphaned = append(orphaned, row.SubjectID)
	}
	return orphaned
}

func (p *PresenceTracker) broadcast(ctx context.Context, subjectID string, t event.Type) {
	n := event.Notification{
		EventID:         uuid.NewString(),
		Channel:         domain.PresenceFeed.Key(),
		Type:            t,
		EntityID:        subjectID,
		ServerTimestamp: p.now().UnixMilli(),
	}
	if err := p.bus.Publish(ctx, n); err != nil {
		p.log.Warn("Presence transition not bridged", "subject_id", subjectID, "type", t, "error", err)
	}
}

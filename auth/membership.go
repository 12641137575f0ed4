package auth

import (
	"civic-stream/contract"
	"civic-stream/domain"
	"civic-stream/domain/event"
	"context"
	"slices"
	"sync"

	"github.com/samber/lo"
)

var (
	_ contract.MembershipChecker = (*MembershipRegistry)(nil)
	_ contract.MembershipLister  = (*MembershipRegistry)(nil)
)

// MembershipRegistry is a MembershipChecker fed by the membership events of the log.
// Production deployments plug the messaging domain's membership store instead.
//
// Once Rebuild gave it a log, every read first catches up with the membership events
// appended since, so a join recorded through another instance is seen here too.
type MembershipRegistry struct {
	mu      sync.RWMutex
	members map[string]map[string]struct{}
	byUser  map[string]map[string]struct{}

	syncMu    sync.Mutex
	source    contract.IEventLog
	watermark uint64
}

func NewMembershipRegistry() *MembershipRegistry {
	return &MembershipRegistry{
		members: make(map[string]map[string]struct{}),
		byUser:  make(map[string]map[string]struct{}),
	}
}

func link(index map[string]map[string]struct{}, from, to string) {
	set, ok := index[from]
	if !ok {
		set = make(map[string]struct{})
		index[from] = set
	}
	set[to] = struct{}{}
}

func unlink(index map[string]map[string]struct{}, from, to string) {
	if set, ok := index[from]; ok {
		delete(set, to)
		if len(set) == 0 {
			delete(index, from)
		}
	}
}

func (m *MembershipRegistry) Add(conversationID string, userIDs ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range userIDs {
		link(m.members, conversationID, id)
		link(m.byUser, id, conversationID)
	}
}

func (m *MembershipRegistry) Remove(conversationID, userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	unlink(m.members, conversationID, userID)
	unlink(m.byUser, userID, conversationID)
}

func (m *MembershipRegistry) IsMember(ctx context.Context, conversationID, userID string) (bool, error) {
	if err := m.Sync(ctx); err != nil {
		return false, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.members[conversationID][userID]
	return ok, nil
}

// ConversationsOf lists the conversations of a user in a stable order.
func (m *MembershipRegistry) ConversationsOf(ctx context.Context, userID string) ([]string, error) {
	if err := m.Sync(ctx); err != nil {
		return nil, err
	}
	m.mu.RLock()
	ids := lo.Keys(m.byUser[userID])
	m.mu.RUnlock()
	slices.Sort(ids)
	return ids, nil
}

// Apply keeps the registry in sync with membership events of the conversation aggregate.
func (m *MembershipRegistry) Apply(evt event.DomainEvent) {
	if evt.AggregateType != string(domain.KindConversation) {
		return
	}
	memberID := evt.Metadata[event.MetaMemberID]
	if memberID == "" {
		return
	}
	switch evt.EventType {
	case event.MemberJoined:
		m.Add(evt.AggregateID, memberID)
	case event.MemberLeft:
		m.Remove(evt.AggregateID, memberID)
	}
}

// Rebuild replays the membership events of the log and keeps following it.
func (m *MembershipRegistry) Rebuild(ctx context.Context, eventLog contract.IEventLog) (int, error) {
	m.syncMu.Lock()
	m.source = eventLog
	m.watermark = 0
	m.syncMu.Unlock()
	return m.catchUp(ctx)
}

// Sync applies the membership events appended since the last read. Without a log it is a no-op.
func (m *MembershipRegistry) Sync(ctx context.Context) error {
	_, err := m.catchUp(ctx)
	return err
}

func (m *MembershipRegistry) catchUp(ctx context.Context) (int, error) {
	m.syncMu.Lock()
	defer m.syncMu.Unlock()
	if m.source == nil {
		return 0, nil
	}
	applied := 0
	for {
		events, err := m.source.GetSinceForAggregate(ctx, string(domain.KindConversation), m.watermark, 0)
		if err != nil {
			return applied, err
		}
		if len(events) == 0 {
			return applied, nil
		}
		for _, evt := range events {
			if evt.EventType == event.MemberJoined || evt.EventType == event.MemberLeft {
				m.Apply(evt)
				applied++
			}
			m.watermark = evt.SequenceID
		}
	}
}

// Package projection merges server frames, same-device broadcasts and catchup batches
// into one ordered client cache.
// The three paths race each other, so every merge is idempotent and lists are re-sorted
// by ordering key after each mutation.
package projection

import (
	"civic-stream/domain/event"
	"cmp"
	"context"
	"log/slog"
	"slices"
	"sync"

	"github.com/samber/lo"
)

// DefaultSeenCapacity bounds the event ids remembered for duplicate detection,
// and per list the deleted ids and confirmed temp ids.
const DefaultSeenCapacity = 10_000

// bounded is a map that forgets its oldest keys beyond capacity.
type bounded[V any] struct {
	m        map[string]V
	order    []string
	capacity int
}

func newBounded[V any](capacity int) *bounded[V] {
	return &bounded[V]{m: make(map[string]V), capacity: capacity}
}

func (b *bounded[V]) get(key string) (V, bool) {
	v, ok := b.m[key]
	return v, ok
}

func (b *bounded[V]) put(key string, v V) {
	if _, ok := b.m[key]; !ok {
		b.order = append(b.order, key)
		if len(b.order) > b.capacity {
			delete(b.m, b.order[0])
			b.order = b.order[1:]
		}
	}
	b.m[key] = v
}

// Observer is told about every entity an upsert changed, with its merged state.
type Observer interface {
	Observe(resource string, e Entity)
}

// PendingPersister keeps unconfirmed local mutations across reloads.
type PendingPersister interface {
	Save(ctx context.Context, resource string, e Entity) error
	Delete(ctx context.Context, resource string, ids ...string) error
	LoadAll(ctx context.Context) (map[string][]Entity, error)
}

type list struct {
	byID   map[string]Entity
	sorted []Entity
	// replaced maps a temp id to the server id that confirmed it.
	replaced *bounded[string]
	// tombstones holds the deletion timestamp of removed ids.
	tombstones *bounded[int64]
}

func newList() *list {
	return &list{
		byID:       make(map[string]Entity),
		replaced:   newBounded[string](DefaultSeenCapacity),
		tombstones: newBounded[int64](DefaultSeenCapacity),
	}
}

// buried reports whether a deletion at least as recent as updatedAt was applied to id.
func (l *list) buried(id string, updatedAt int64) bool {
	at, ok := l.tombstones.get(id)
	return ok && updatedAt <= at
}

func (l *list) resort() {
	l.sorted = lo.Values(l.byID)
	slices.SortFunc(l.sorted, func(a, b Entity) int {
		if c := cmp.Compare(a.OrderingKey, b.OrderingKey); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}

type keyed struct {
	resource string
	entity   Entity
}

// effects are collected under the lock and applied after it is released.
type effects struct {
	save    []keyed
	drop    map[string][]string
	changed []keyed
}

func (f *effects) dropID(resource string, ids ...string) {
	if f.drop == nil {
		f.drop = make(map[string][]string)
	}
	f.drop[resource] = append(f.drop[resource], ids...)
}

type Cache struct {
	mu        sync.Mutex
	log       *slog.Logger
	lists     map[string]*list
	seen      *bounded[struct{}]
	store     PendingPersister
	observers []Observer
}

// NewCache returns an empty cache. store may be nil, pending mutations then live in memory only.
func NewCache(log *slog.Logger, store PendingPersister) *Cache {
	return &Cache{
		log:   log,
		lists: make(map[string]*list),
		seen:  newBounded[struct{}](DefaultSeenCapacity),
		store: store,
	}
}

func (c *Cache) AddObserver(o Observer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observers = append(c.observers, o)
}

func (c *Cache) list(resource string) *list {
	l, ok := c.lists[resource]
	if !ok {
		l = newList()
		c.lists[resource] = l
	}
	return l
}

// markSeen returns false when the event id was already applied.
func (c *Cache) markSeen(eventID string) bool {
	if _, ok := c.seen.get(eventID); ok {
		return false
	}
	c.seen.put(eventID, struct{}{})
	return true
}

// merge applies one entity to l without sorting. It reports whether l changed.
func merge(l *list, resource string, in Entity, fx *effects) bool {
	if in.ID == "" {
		return false
	}
	if !in.IsConfirmed() {
		// The confirmation of this optimistic entity already arrived.
		if _, ok := l.replaced.get(in.ID); ok {
			fx.dropID(resource, in.ID)
			return false
		}
	}
	buried := l.buried(in.ID, in.UpdatedAt)
	changed := false
	if in.IsConfirmed() && in.TempID != "" && in.TempID != in.ID {
		l.replaced.put(in.TempID, in.ID)
		if tmp, ok := l.byID[in.TempID]; ok && !tmp.IsConfirmed() {
			delete(l.byID, in.TempID)
			fx.dropID(resource, in.TempID)
			changed = true
			if _, exists := l.byID[in.ID]; !exists && !buried {
				tmp.ID = in.ID
				l.byID[in.ID] = tmp
			}
		}
	}
	if buried {
		return changed
	}

	cur, ok := l.byID[in.ID]
	var next Entity
	switch {
	case !ok:
		next = in.clone()
		if next.OrderingKey == 0 {
			next.OrderingKey = next.UpdatedAt
		}
	case !in.IsConfirmed() && cur.IsConfirmed():
		return changed
	case in.IsConfirmed() && cur.IsConfirmed() && in.UpdatedAt < cur.UpdatedAt:
		return changed
	default:
		if in.IsConfirmed() && !cur.IsConfirmed() && in.Fields != nil {
			cur.Fields = nil
		}
		next = cur.merge(in)
	}
	l.byID[in.ID] = next

	if next.IsConfirmed() {
		fx.dropID(resource, next.ID)
	} else {
		fx.save = append(fx.save, keyed{resource: resource, entity: next})
	}
	fx.changed = append(fx.changed, keyed{resource: resource, entity: next.clone()})
	return true
}

// bury removes id from l and records its tombstone, so an older create or update
// replayed later cannot bring it back. It reports whether l changed.
func bury(l *list, resource, id string, at int64, fx *effects) bool {
	if prev, ok := l.tombstones.get(id); !ok || at > prev {
		l.tombstones.put(id, at)
	}
	if _, ok := l.byID[id]; !ok {
		return false
	}
	delete(l.byID, id)
	fx.dropID(resource, id)
	return true
}

func (c *Cache) apply(ctx context.Context, fx effects) {
	if c.store != nil {
		for _, k := range fx.save {
			if err := c.store.Save(ctx, k.resource, k.entity); err != nil {
				c.log.Warn("Pending mutation not persisted", "resource", k.resource, "id", k.entity.ID, "error", err)
			}
		}
		for resource, ids := range fx.drop {
			if err := c.store.Delete(ctx, resource, lo.Uniq(ids)...); err != nil {
				c.log.Warn("Pending mutation not cleared", "resource", resource, "error", err)
			}
		}
	}
	c.mu.Lock()
	observers := slices.Clone(c.observers)
	c.mu.Unlock()
	for _, k := range fx.changed {
		for _, o := range observers {
			o.Observe(k.resource, k.entity)
		}
	}
}

// Upsert merges one entity into the resource list and reports whether the list changed.
func (c *Cache) Upsert(ctx context.Context, resource string, e Entity) bool {
	return c.UpsertBatch(ctx, resource, []Entity{e}) > 0
}

// UpsertBatch merges through the keyed map and sorts once. It returns the number of entities that changed the list.
func (c *Cache) UpsertBatch(ctx context.Context, resource string, entities []Entity) int {
	var fx effects
	c.mu.Lock()
	l := c.list(resource)
	n := 0
	for _, e := range entities {
		if merge(l, resource, e, &fx) {
			n++
		}
	}
	if n > 0 {
		l.resort()
	}
	c.mu.Unlock()
	c.apply(ctx, fx)
	return n
}

func (c *Cache) Remove(ctx context.Context, resource, id string) bool {
	var fx effects
	c.mu.Lock()
	l := c.list(resource)
	_, ok := l.byID[id]
	if ok {
		delete(l.byID, id)
		l.resort()
		fx.dropID(resource, id)
	}
	c.mu.Unlock()
	c.apply(ctx, fx)
	return ok
}

// List returns a copy of the resource list sorted by (OrderingKey, ID).
func (c *Cache) List(resource string) []Entity {
	c.mu.Lock()
	defer c.mu.Unlock()
	l, ok := c.lists[resource]
	if !ok {
		return nil
	}
	return lo.Map(l.sorted, func(e Entity, _ int) Entity { return e.clone() })
}

func (c *Cache) Get(resource, id string) (Entity, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	l, ok := c.lists[resource]
	if !ok {
		return Entity{}, false
	}
	e, ok := l.byID[id]
	return e.clone(), ok
}

func applicable(f event.Frame) bool {
	return f.EventID != "" && f.Channel != "" && f.ID != "" &&
		!f.Type.IsEphemeral() && f.Type != event.ConnectionConfirmed
}

// ApplyFrame merges a live or snapshot frame. A frame whose event id was already applied is ignored.
func (c *Cache) ApplyFrame(ctx context.Context, f event.Frame) bool {
	if !applicable(f) {
		return false
	}
	var fx effects
	c.mu.Lock()
	if !c.markSeen(f.EventID) {
		c.mu.Unlock()
		return false
	}
	l := c.list(f.Channel)
	var changed bool
	if f.Type.IsDeletion() {
		changed = bury(l, f.Channel, f.ID, f.ServerTimestamp, &fx)
	} else {
		changed = merge(l, f.Channel, FromFrame(f), &fx)
	}
	if changed {
		l.resort()
	}
	c.mu.Unlock()
	c.apply(ctx, fx)
	return changed
}

// ApplyReplay merges a catchup batch, one sort per touched resource.
func (c *Cache) ApplyReplay(ctx context.Context, frames []event.ReplayFrame) int {
	var fx effects
	touched := make(map[string]*list)
	n := 0
	c.mu.Lock()
	for _, r := range frames {
		if !applicable(r.Frame) || !c.markSeen(r.EventID) {
			continue
		}
		l := c.list(r.Channel)
		if r.Type.IsDeletion() {
			if bury(l, r.Channel, r.ID, r.ServerTimestamp, &fx) {
				touched[r.Channel] = l
				n++
			}
			continue
		}
		if merge(l, r.Channel, fromReplay(r), &fx) {
			touched[r.Channel] = l
			n++
		}
	}
	for _, l := range touched {
		l.resort()
	}
	c.mu.Unlock()
	c.apply(ctx, fx)
	return n
}

// Rehydrate restores the persisted pending mutations, typically once at startup.
func (c *Cache) Rehydrate(ctx context.Context) (int, error) {
	if c.store == nil {
		return 0, nil
	}
	byResource, err := c.store.LoadAll(ctx)
	if err != nil {
		return 0, err
	}
	n := 0
	for resource, entities := range byResource {
		n += c.UpsertBatch(ctx, resource, entities)
	}
	c.log.Debug("Pending mutations restored", "count", n)
	return n, nil
}

package projection

import (
	"cmp"
	"slices"
	"sync"
)

type InboxItem struct {
	Resource     string `json:"resource"`
	LastActivity int64  `json:"lastActivity"`
	Unread       int    `json:"unread"`
}

type inboxEntry struct {
	InboxItem
	counted map[string]struct{}
}

// Inbox orders resources by their latest activity and keeps the viewer's unread counters.
// It observes a Cache.
type Inbox struct {
	mu       sync.Mutex
	viewerID string
	focused  string
	entries  map[string]*inboxEntry
}

func NewInbox(viewerID string) *Inbox {
	return &Inbox{viewerID: viewerID, entries: make(map[string]*inboxEntry)}
}

func (i *Inbox) entry(resource string) *inboxEntry {
	e, ok := i.entries[resource]
	if !ok {
		e = &inboxEntry{InboxItem: InboxItem{Resource: resource}, counted: make(map[string]struct{})}
		i.entries[resource] = e
	}
	return e
}

// Observe bumps the resource activity. An entity counts as unread once, only when someone
// else authored it and the viewer is not focused on the resource.
func (i *Inbox) Observe(resource string, e Entity) {
	i.mu.Lock()
	defer i.mu.Unlock()
	entry := i.entry(resource)
	entry.LastActivity = max(entry.LastActivity, e.OrderingKey)
	if !e.IsConfirmed() || e.AuthorID == "" || e.AuthorID == i.viewerID || resource == i.focused {
		return
	}
	if _, ok := entry.counted[e.ID]; ok {
		return
	}
	entry.counted[e.ID] = struct{}{}
	entry.Unread++
}

// Focus marks the resource as being read: its counter resets and stays at zero while focused.
func (i *Inbox) Focus(resource string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.focused = resource
	i.entry(resource).Unread = 0
}

func (i *Inbox) Blur() {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.focused = ""
}

func (i *Inbox) Unread(resource string) int {
	i.mu.Lock()
	defer i.mu.Unlock()
	if e, ok := i.entries[resource]; ok {
		return e.Unread
	}
	return 0
}

// Items returns the most recently active resource first.
func (i *Inbox) Items() []InboxItem {
	i.mu.Lock()
	defer i.mu.Unlock()
	items := make([]InboxItem, 0, len(i.entries))
	for _, e := range i.entries {
		items = append(items, e.InboxItem)
	}
	slices.SortFunc(items, func(a, b InboxItem) int {
		if c := cmp.Compare(b.LastActivity, a.LastActivity); c != 0 {
			return c
		}
		return cmp.Compare(a.Resource, b.Resource)
	})
	return items
}

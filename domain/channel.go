// Package domain contains core concepts of the realtime engine.
// This file defines stream channels, the routing keys of the bus.
// No runtime, network, or storage logic should be added here.
package domain

import (
	"civic-stream/errors"
	"fmt"
	"strings"
	"time"
)

// ChannelKind is the resource kind part of a channel key.
type ChannelKind string

const (
	// KindInbox is the personal notification channel of a single user.
	KindInbox ChannelKind = "inbox"
	// KindConversation is a chat room, readable by its members only.
	KindConversation ChannelKind = "conversation"
	// KindReport carries updates of a single public report.
	KindReport ChannelKind = "report"
	// KindComments carries the comment thread of a public report.
	KindComments ChannelKind = "comments"
	// KindFeed is a low-frequency public feed (reports list, leaderboard, presence).
	KindFeed ChannelKind = "feed"
)

var kinds = map[ChannelKind]ChannelClass{
	KindInbox:        ClassPersonal,
	KindConversation: ClassInteractive,
	KindReport:       ClassLowFrequency,
	KindComments:     ClassInteractive,
	KindFeed:         ClassLowFrequency,
}

// Valid reports whether the kind is one of the declared kinds.
func (k ChannelKind) Valid() bool {
	_, ok := kinds[k]
	return ok
}

// Class returns the traffic class of the kind.
func (k ChannelKind) Class() ChannelClass {
	return kinds[k]
}

// ChannelClass groups kinds with the same traffic profile.
type ChannelClass int

const (
	ClassLowFrequency ChannelClass = iota
	ClassPersonal
	ClassInteractive
)

// HeartbeatPolicy holds the heartbeat interval of each class.
type HeartbeatPolicy struct {
	Interactive  time.Duration
	Personal     time.Duration
	LowFrequency time.Duration
}

// DefaultHeartbeatPolicy keeps chat and comments under common proxy idle timeouts.
var DefaultHeartbeatPolicy = HeartbeatPolicy{
	Interactive:  2 * time.Second,
	Personal:     10 * time.Second,
	LowFrequency: 15 * time.Second,
}

// Interval returns the heartbeat interval for a class.
func (p HeartbeatPolicy) Interval(class ChannelClass) time.Duration {
	switch class {
	case ClassInteractive:
		return p.Interactive
	case ClassPersonal:
		return p.Personal
	default:
		return p.LowFrequency
	}
}

// IntervalFor returns the shortest interval among the given channels.
// A session listening to a chat and a feed must satisfy the chat's constraint.
func (p HeartbeatPolicy) IntervalFor(channels []Channel) time.Duration {
	var shortest time.Duration
	for _, ch := range channels {
		d := p.Interval(ch.Kind.Class())
		if shortest == 0 || d < shortest {
			shortest = d
		}
	}
	if shortest == 0 {
		return p.LowFrequency
	}
	return shortest
}

// Channel is an opaque scoping key: resource kind + resource id.
type Channel struct {
	Kind ChannelKind
	ID   string
}

func NewChannel(kind ChannelKind, id string) (Channel, error) {
	if !kind.Valid() {
		return Channel{}, fmt.Errorf("%w: unknown kind %q", errors.ErrInvalidChannel, kind)
	}
	if strings.TrimSpace(id) == "" {
		return Channel{}, fmt.Errorf("%w: empty id for kind %q", errors.ErrInvalidChannel, kind)
	}
	return Channel{Kind: kind, ID: id}, nil
}

func InboxChannel(userID string) Channel      { return Channel{Kind: KindInbox, ID: userID} }
func ConversationChannel(id string) Channel   { return Channel{Kind: KindConversation, ID: id} }
func ReportChannel(id string) Channel         { return Channel{Kind: KindReport, ID: id} }
func CommentsChannel(reportID string) Channel { return Channel{Kind: KindComments, ID: reportID} }
func FeedChannel(name string) Channel         { return Channel{Kind: KindFeed, ID: name} }

// PresenceFeed is where presence transitions are broadcast.
var PresenceFeed = FeedChannel("presence")

// Key returns the "kind:id" form used on the wire and on the bus.
func (c Channel) Key() string {
	return string(c.Kind) + ":" + c.ID
}

func (c Channel) String() string { return c.Key() }

func (c Channel) IsZero() bool { return c.Kind == "" && c.ID == "" }

// ParseChannel parses a "kind:id" key. The id may itself contain colons.
func ParseChannel(key string) (Channel, error) {
	kind, id, ok := strings.Cut(key, ":")
	if !ok {
		return Channel{}, fmt.Errorf("%w: malformed key %q", errors.ErrInvalidChannel, key)
	}
	return NewChannel(ChannelKind(kind), id)
}

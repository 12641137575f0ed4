package runtime

import (
	"civic-stream/contract"
	"civic-stream/domain/event"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Publisher turns a mutation into a durable, broadcast event:
// EventLog append first, then bus publish.
type Publisher struct {
	log      *slog.Logger
	eventLog contract.IEventLog
	bus      contract.IBus
	now      func() time.Time
}

func NewPublisher(log *slog.Logger, eventLog contract.IEventLog, bus contract.IBus) *Publisher {
	return &Publisher{log: log, eventLog: eventLog, bus: bus, now: time.Now}
}

// prepare stamps the server timestamp and an event id when the producer did not provide one.
func (p *Publisher) prepare(evt event.DomainEvent) event.DomainEvent {
	if evt.EventID == "" {
		evt.EventID = uuid.NewString()
	}
	evt.CreatedAt = p.now().UTC()
	return evt
}

// Emit appends and publishes. An append failure is returned without publishing:
// the caller decides whether the originating mutation aborts.
// Ephemeral events skip the log and are only published.
func (p *Publisher) Emit(ctx context.Context, evt event.DomainEvent) (event.Notification, error) {
	evt = p.prepare(evt)
	if !evt.EventType.IsEphemeral() {
		stored, err := p.eventLog.Append(ctx, evt)
		if err != nil {
			return event.Notification{}, fmt.Errorf("append %s: %w", evt.EventID, err)
		}
		// The log owns the sequence id and the final timestamp.
		evt = stored
	}
	n := evt.Notification()
	if err := p.bus.Publish(ctx, n); err != nil {
		// Local subscribers already received it; other instances will recover through catchup.
		p.log.Warn("Event published locally only", "event_id", n.EventID, "error", err)
	}
	return n, nil
}

// EmitDegraded is the fire-and-forget choice: an append failure is logged
// and the live publish still happens.
func (p *Publisher) EmitDegraded(ctx context.Context, evt event.DomainEvent) event.Notification {
	evt = p.prepare(evt)
	if !evt.EventType.IsEphemeral() {
		stored, err := p.eventLog.Append(ctx, evt)
		if err != nil {
			p.log.Error("Event not persisted, publishing in degraded mode",
				"event_id", evt.EventID, "event_type", evt.EventType, "error", err)
		} else {
			evt = stored
		}
	}
	n := evt.Notification()
	if err := p.bus.Publish(ctx, n); err != nil {
		p.log.Warn("Event published locally only", "event_id", n.EventID, "error", err)
	}
	return n
}

package event

import "encoding/json"

// Notification is the tagged envelope carried by the realtime bus.
// Sessions refuse to forward a Notification that fails Validate.
type Notification struct {
	EventID         string          `json:"eventId" validate:"required"`
	Channel         string          `json:"channel" validate:"required"`
	Type            Type            `json:"type" validate:"required"`
	EntityID        string          `json:"id"`
	Partial         json.RawMessage `json:"partial,omitempty"`
	OriginClientID  string          `json:"originClientId,omitempty"`
	TempID          string          `json:"tempId,omitempty"`
	AuthorID        string          `json:"authorId,omitempty"`
	SequenceID      uint64          `json:"sequenceId,omitempty"`
	ServerTimestamp int64           `json:"serverTimestamp" validate:"gt=0"`
	Extra           map[string]any  `json:"extra,omitempty"`
}

// Frame maps the notification to the SSE wire frame.
func (n Notification) Frame() Frame {
	f := Frame{
		Type:            n.Type,
		ID:              n.EntityID,
		Partial:         n.Partial,
		OriginClientID:  n.OriginClientID,
		EventID:         n.EventID,
		ServerTimestamp: n.ServerTimestamp,
		TempID:          n.TempID,
		SequenceID:      n.SequenceID,
		Channel:         n.Channel,
		Extra:           n.Extra,
	}
	if n.AuthorID != "" {
		if f.Extra == nil {
			f.Extra = make(map[string]any, 1)
		} else {
			f.Extra = cloneExtra(f.Extra)
		}
		f.Extra["authorId"] = n.AuthorID
	}
	return f
}

func cloneExtra(in map[string]any) map[string]any {
	out := make(map[string]any, len(in)+1)
	for k, v := range in {
		out[k] = v
	}
	return out
}

// BridgeEnvelope is the canonical cross-instance message published on the broker topic.
type BridgeEnvelope struct {
	EventID          string          `json:"event_id" validate:"required"`
	OriginInstanceID string          `json:"origin_instance_id" validate:"required"`
	Channel          string          `json:"channel" validate:"required"`
	Payload          json.RawMessage `json:"payload" validate:"required"`
	Timestamp        int64           `json:"timestamp"`
}

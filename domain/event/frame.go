package event

import "encoding/json"

// Frame is the JSON object written on each SSE data line.
// Extra keys are flattened next to the contract keys and never override them.
type Frame struct {
	Type            Type            `json:"type"`
	ID              string          `json:"id"`
	Partial         json.RawMessage `json:"partial,omitempty"`
	OriginClientID  string          `json:"originClientId,omitempty"`
	EventID         string          `json:"eventId"`
	ServerTimestamp int64           `json:"serverTimestamp"`
	TempID          string          `json:"tempId,omitempty"`
	SequenceID      uint64          `json:"sequenceId,omitempty"`
	Channel         string          `json:"channel,omitempty"`
	Snapshot        bool            `json:"snapshot,omitempty"`
	Extra           map[string]any  `json:"-"`
}

var frameKeys = []string{
	"type", "id", "partial", "originClientId", "eventId",
	"serverTimestamp", "tempId", "sequenceId", "channel", "snapshot",
}

func (f Frame) object() map[string]any {
	m := make(map[string]any, len(f.Extra)+len(frameKeys))
	for k, v := range f.Extra {
		m[k] = v
	}
	m["type"] = f.Type
	m["id"] = f.ID
	m["eventId"] = f.EventID
	m["serverTimestamp"] = f.ServerTimestamp
	if len(f.Partial) > 0 {
		m["partial"] = f.Partial
	} else {
		delete(m, "partial")
	}
	setOrDrop(m, "originClientId", f.OriginClientID)
	setOrDrop(m, "tempId", f.TempID)
	setOrDrop(m, "channel", f.Channel)
	if f.SequenceID > 0 {
		m["sequenceId"] = f.SequenceID
	} else {
		delete(m, "sequenceId")
	}
	if f.Snapshot {
		m["snapshot"] = true
	} else {
		delete(m, "snapshot")
	}
	return m
}

func setOrDrop(m map[string]any, key, value string) {
	if value == "" {
		delete(m, key)
		return
	}
	m[key] = value
}

func (f Frame) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.object())
}

func (f *Frame) UnmarshalJSON(data []byte) error {
	type plain Frame
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	extra, err := extraKeys(data, frameKeys...)
	if err != nil {
		return err
	}
	*f = Frame(p)
	f.Extra = extra
	return nil
}

func extraKeys(data []byte, known ...string) (map[string]any, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	for _, k := range known {
		delete(raw, k)
	}
	if len(raw) == 0 {
		return nil, nil
	}
	extra := make(map[string]any, len(raw))
	for k, v := range raw {
		var value any
		if err := json.Unmarshal(v, &value); err != nil {
			return nil, err
		}
		extra[k] = value
	}
	return extra, nil
}

// ReplayFrame is a catchup result: the live frame shape plus the payload, tagged isReplay.
type ReplayFrame struct {
	Frame
	Payload  json.RawMessage
	IsReplay bool
}

func (r ReplayFrame) MarshalJSON() ([]byte, error) {
	m := r.Frame.object()
	if len(r.Payload) > 0 {
		m["payload"] = r.Payload
	} else {
		m["payload"] = nil
	}
	m["isReplay"] = r.IsReplay
	return json.Marshal(m)
}

func (r *ReplayFrame) UnmarshalJSON(data []byte) error {
	var aux struct {
		Payload  json.RawMessage `json:"payload"`
		IsReplay bool            `json:"isReplay"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if err := r.Frame.UnmarshalJSON(data); err != nil {
		return err
	}
	delete(r.Frame.Extra, "payload")
	delete(r.Frame.Extra, "isReplay")
	if len(r.Frame.Extra) == 0 {
		r.Frame.Extra = nil
	}
	r.Payload = aux.Payload
	r.IsReplay = aux.IsReplay
	return nil
}

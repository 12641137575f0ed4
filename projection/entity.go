package projection

import (
	"civic-stream/domain/event"
	"encoding/json"
	"maps"
	"strings"
)

type LocalStatus string

const (
	StatusConfirmed LocalStatus = ""
	StatusPending   LocalStatus = "pending"
	StatusFailed    LocalStatus = "failed"
)

// Entity is the client-side projection of a message, comment or report.
// OrderingKey and UpdatedAt are unix milliseconds.
type Entity struct {
	ID          string         `json:"id"`
	TempID      string         `json:"tempId,omitempty"`
	AuthorID    string         `json:"authorId,omitempty"`
	Fields      map[string]any `json:"fields,omitempty"`
	OrderingKey int64          `json:"orderingKey"`
	UpdatedAt   int64          `json:"updatedAt"`
	LocalStatus LocalStatus    `json:"localStatus,omitempty"`
	// PreviewURL is a local handle such as a blob URL; it does not survive a reload.
	PreviewURL string `json:"-"`
}

func (e Entity) IsConfirmed() bool { return e.LocalStatus == StatusConfirmed }

func (e Entity) clone() Entity {
	e.Fields = maps.Clone(e.Fields)
	return e
}

// merge overlays the incoming entity on the current one. Empty incoming values keep the current ones,
// so a partial update only touches the fields it carries.
func (e Entity) merge(in Entity) Entity {
	out := e.clone()
	if out.Fields == nil && len(in.Fields) > 0 {
		out.Fields = make(map[string]any, len(in.Fields))
	}
	maps.Copy(out.Fields, in.Fields)
	if in.TempID != "" {
		out.TempID = in.TempID
	}
	if in.AuthorID != "" {
		out.AuthorID = in.AuthorID
	}
	if in.OrderingKey != 0 {
		out.OrderingKey = in.OrderingKey
	}
	if in.UpdatedAt > out.UpdatedAt {
		out.UpdatedAt = in.UpdatedAt
	}
	if in.PreviewURL != "" {
		out.PreviewURL = in.PreviewURL
	}
	out.LocalStatus = in.LocalStatus
	return out
}

func decodeFields(raw json.RawMessage) map[string]any {
	if len(raw) == 0 {
		return nil
	}
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil
	}
	return fields
}

// FromFrame maps a server frame to a confirmed entity.
// Creations are ordered by their server timestamp; updates leave the ordering key untouched.
func FromFrame(f event.Frame) Entity {
	e := Entity{
		ID:        f.ID,
		TempID:    f.TempID,
		Fields:    decodeFields(f.Partial),
		UpdatedAt: f.ServerTimestamp,
	}
	if author, ok := f.Extra["authorId"].(string); ok {
		e.AuthorID = author
	}
	if strings.HasSuffix(string(f.Type), ".created") {
		e.OrderingKey = f.ServerTimestamp
	}
	return e
}

func fromReplay(r event.ReplayFrame) Entity {
	e := FromFrame(r.Frame)
	if fields := decodeFields(r.Payload); fields != nil {
		e.Fields = fields
	}
	return e
}

package event

import (
	"civic-stream/errors"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFrame_ExtraIsFlattenedAndCannotOverrideContract(t *testing.T) {
	req := require.New(t)
	f := Frame{
		Type:            MessageCreated,
		ID:              "msg-42",
		EventID:         "evt-1",
		ServerTimestamp: 1772359200000,
		TempID:          "tmp-1",
		Extra:           map[string]any{"heartbeatMs": 25000, "eventId": "forged", "type": "forged"},
	}

	raw, err := json.Marshal(f)
	req.NoError(err)

	var m map[string]any
	req.NoError(json.Unmarshal(raw, &m))
	req.Equal("evt-1", m["eventId"])
	req.Equal(string(MessageCreated), m["type"])
	req.EqualValues(25000, m["heartbeatMs"])
	req.Equal("tmp-1", m["tempId"])
	req.NotContains(m, "partial")
	req.NotContains(m, "sequenceId")
	req.NotContains(m, "snapshot")
}

func TestFrame_UnmarshalKeepsUnknownKeysInExtra(t *testing.T) {
	req := require.New(t)
	var f Frame
	err := json.Unmarshal([]byte(`{"type":"connection.confirmed","id":"s-1","eventId":"e","serverTimestamp":5,"channels":["inbox:alice"]}`), &f)
	req.NoError(err)
	req.Equal(ConnectionConfirmed, f.Type)
	req.Equal([]any{"inbox:alice"}, f.Extra["channels"])
	req.NotContains(f.Extra, "eventId")
}

func TestReplayFrame_RoundTrip(t *testing.T) {
	req := require.New(t)
	in := ReplayFrame{
		Frame:    Frame{Type: ReportUpdated, ID: "r-1", EventID: "evt-9", ServerTimestamp: 10, SequenceID: 9},
		Payload:  json.RawMessage(`{"status":"resolved"}`),
		IsReplay: true,
	}
	raw, err := json.Marshal(in)
	req.NoError(err)

	var out ReplayFrame
	req.NoError(json.Unmarshal(raw, &out))
	req.True(out.IsReplay)
	req.JSONEq(`{"status":"resolved"}`, string(out.Payload))
	req.Nil(out.Extra)
	req.Equal(in.Frame.SequenceID, out.Frame.SequenceID)
}

func TestNotification_FrameCarriesAuthorWithoutMutatingExtra(t *testing.T) {
	req := require.New(t)
	shared := map[string]any{"k": "v"}
	n := Notification{EventID: "e", Channel: "conversation:c-1", Type: MessageDelivered, EntityID: "msg-1",
		AuthorID: "bob", ServerTimestamp: 1, Extra: shared}

	f := n.Frame()

	req.Equal("bob", f.Extra["authorId"])
	req.NotContains(shared, "authorId")
}

func TestNotification_Validate(t *testing.T) {
	req := require.New(t)
	valid := Notification{EventID: "e", Channel: "report:r-1", Type: ReportCreated, ServerTimestamp: 1}
	req.NoError(valid.Validate())

	missing := valid
	missing.ServerTimestamp = 0
	req.ErrorIs(missing.Validate(), errors.ErrContractViolation)

	missing = valid
	missing.EventID = ""
	req.ErrorIs(missing.Validate(), errors.ErrContractViolation)
}

func TestDomainEvent_Notification(t *testing.T) {
	req := require.New(t)
	at := time.UnixMilli(1772359200000).UTC()
	evt := DomainEvent{
		EventID: "evt-1", SequenceID: 3, AggregateType: "conversation", AggregateID: "c-1",
		EventType: MessageCreated, CreatedAt: at,
		Metadata: map[string]string{MetaEntityID: "msg-42", MetaTempID: "tmp-1", MetaOriginClientID: "tab-1"},
	}
	req.NoError(evt.Validate())

	n := evt.Notification()
	req.Equal("conversation:c-1", n.Channel)
	req.Equal("msg-42", n.EntityID)
	req.Equal("tmp-1", n.TempID)
	req.Equal("tab-1", n.OriginClientID)
	req.Equal(at.UnixMilli(), n.ServerTimestamp)

	evt.AggregateType = "planet"
	req.ErrorIs(evt.Validate(), errors.ErrInvalidEvent)
}

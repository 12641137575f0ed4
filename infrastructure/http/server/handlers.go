package server

import (
	"civic-stream/auth"
	"civic-stream/domain"
	"civic-stream/domain/event"
	"civic-stream/errors"
	"civic-stream/services"
	"civic-stream/stream"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/samber/lo"
)

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := errors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		s.log.Error("Request failed", "path", r.URL.Path, "error", err)
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func parseChannels(keys []string) ([]domain.Channel, error) {
	if len(keys) == 0 {
		return nil, errors.ErrNoChannel
	}
	channels := make([]domain.Channel, 0, len(keys))
	for _, key := range lo.Uniq(keys) {
		ch, err := domain.ParseChannel(key)
		if err != nil {
			return nil, err
		}
		channels = append(channels, ch)
	}
	return channels, nil
}

// handleStream authorizes before the first byte: a refused stream gets a plain
// 401/403 JSON response and no SSE headers are flushed.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	channels, err := parseChannels(query["channel"])
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writer, err := stream.NewSSEWriter(w, s.stream.WriteTimeout)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	session := stream.NewSession(stream.Deps{
		Log:        s.log,
		Bus:        s.deps.Bus,
		Authorizer: s.deps.Authorizer,
		Presence:   s.deps.Presence,
		Snapshots:  s.deps.Snapshots,
		Monitor:    s.deps.Monitor,
		Heartbeats: s.stream.Heartbeats,
	}, writer, stream.Options{
		Subject:      auth.SubjectFrom(r.Context()),
		Channels:     channels,
		ClientID:     query.Get("clientId"),
		QueueSize:    s.stream.QueueSize,
		SuppressEcho: s.stream.SuppressEcho,
	})
	if err := session.Open(r.Context()); err != nil {
		w.Header().Del("Cache-Control")
		w.Header().Del("Connection")
		w.Header().Del("X-Accel-Buffering")
		s.writeError(w, r, err)
		return
	}
	if err := session.Serve(r.Context()); err != nil {
		s.log.Debug("Stream ended", "session_id", session.ID(), "reason", err)
	}
}

type catchupResponse struct {
	Events    []event.ReplayFrame `json:"events"`
	HasMore   bool                `json:"hasMore"`
	Watermark uint64              `json:"watermark,omitempty"`
	Error     string              `json:"error,omitempty"`
}

func parseWatermark(r *http.Request) (services.Watermark, error) {
	var wm services.Watermark
	query := r.URL.Query()
	if raw := query.Get("seq"); raw != "" {
		seq, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return wm, fmt.Errorf("%w: seq=%q", errors.ErrInvalidWatermark, raw)
		}
		wm.SequenceID = seq
	}
	if raw := query.Get("since"); raw != "" {
		ms, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || ms < 0 {
			return wm, fmt.Errorf("%w: since=%q", errors.ErrInvalidWatermark, raw)
		}
		wm.Since = time.UnixMilli(ms).UTC()
	}
	return wm, nil
}

// handleCatchup always answers with an events array, empty on any failure.
func (s *Server) handleCatchup(w http.ResponseWriter, r *http.Request) {
	subject := auth.SubjectFrom(r.Context())
	if subject.IsZero() {
		s.deps.Monitor.AuthorizationDenied()
		writeJSON(w, http.StatusUnauthorized, catchupResponse{Events: []event.ReplayFrame{}, Error: errors.ErrUnauthenticated.Error()})
		return
	}
	wm, err := parseWatermark(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, catchupResponse{Events: []event.ReplayFrame{}, Error: err.Error()})
		return
	}
	result, err := s.deps.Catchup.Catchup(r.Context(), subject, wm)
	if err != nil {
		status := errors.HTTPStatus(err)
		if status >= http.StatusInternalServerError {
			s.log.Error("Catchup failed", "subject_id", subject.ID, "error", err)
		}
		writeJSON(w, status, catchupResponse{Events: []event.ReplayFrame{}, Error: err.Error()})
		return
	}
	if result.Events == nil {
		result.Events = []event.ReplayFrame{}
	}
	writeJSON(w, http.StatusOK, catchupResponse{Events: result.Events, HasMore: result.HasMore, Watermark: result.Watermark})
}

type ackRequest struct {
	EventID string `json:"eventId"`
}

type ackStatusResponse struct {
	EventID     string     `json:"eventId"`
	Status      string     `json:"status"`
	ProcessedAt *time.Time `json:"processedAt,omitempty"`
}

func (s *Server) handleAck(w http.ResponseWriter, r *http.Request) {
	var body ackRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 4<<10)).Decode(&body); err != nil {
		s.writeError(w, r, fmt.Errorf("%w: %v", errors.ErrMissingEventID, err))
		return
	}
	if err := s.deps.Ack.Ack(r.Context(), auth.SubjectFrom(r.Context()), body.EventID); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAckStatus(w http.ResponseWriter, r *http.Request) {
	if auth.SubjectFrom(r.Context()).IsZero() {
		s.writeError(w, r, errors.ErrUnauthenticated)
		return
	}
	eventID := r.PathValue("eventId")
	status, processedAt, err := s.deps.Ack.Status(r.Context(), eventID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	res := ackStatusResponse{EventID: eventID, Status: string(status)}
	if !processedAt.IsZero() {
		res.ProcessedAt = &processedAt
	}
	writeJSON(w, http.StatusOK, res)
}

type ingestResponse struct {
	EventID    string `json:"eventId"`
	SequenceID uint64 `json:"sequenceId"`
}

// handleIngest receives domain events from the CRUD services once their mutation committed.
// Only service and admin callers may emit.
func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	subject := auth.SubjectFrom(r.Context())
	if subject.IsZero() {
		s.writeError(w, r, errors.ErrUnauthenticated)
		return
	}
	if subject.Role != domain.RoleService && subject.Role != domain.RoleAdmin {
		s.deps.Monitor.AuthorizationDenied()
		s.writeError(w, r, fmt.Errorf("%w: role %s may not emit events", errors.ErrForbidden, subject.Role))
		return
	}
	var evt event.DomainEvent
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&evt); err != nil {
		s.writeError(w, r, fmt.Errorf("%w: %v", errors.ErrInvalidEvent, err))
		return
	}
	if !evt.Channel().Kind.Valid() {
		s.writeError(w, r, fmt.Errorf("%w: unknown aggregate type %q", errors.ErrInvalidEvent, evt.AggregateType))
		return
	}
	n, err := s.deps.Publisher.Emit(r.Context(), evt)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if s.deps.Membership != nil && (evt.EventType == event.MemberJoined || evt.EventType == event.MemberLeft) {
		evt.EventID = n.EventID
		s.deps.Membership.Apply(evt)
	}
	writeJSON(w, http.StatusAccepted, ingestResponse{EventID: n.EventID, SequenceID: n.SequenceID})
}

type presenceResponse struct {
	SubjectID string `json:"subjectId"`
	Online    bool   `json:"online"`
}

func (s *Server) handlePresence(w http.ResponseWriter, r *http.Request) {
	if auth.SubjectFrom(r.Context()).IsZero() {
		s.writeError(w, r, errors.ErrUnauthenticated)
		return
	}
	id := r.PathValue("subjectId")
	writeJSON(w, http.StatusOK, presenceResponse{SubjectID: id, Online: s.deps.Presence.IsOnline(id)})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.Monitor.Snapshot(s.deps.Presence.GetOnlineCount(), s.deps.Bus.ChannelCount()))
}

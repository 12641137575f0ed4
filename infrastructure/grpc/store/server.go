package store

import (
	"civic-stream/contract"
	"civic-stream/domain/event"
	"civic-stream/repositories"
	"context"
	"encoding/json"
	"log/slog"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// Server exposes the local stores of the relay process to the delivery instances.
type Server struct {
	log      *slog.Logger
	eventLog contract.IEventLog
	ledger   contract.IDedupLedger
	presence repositories.IPresenceRepository
}

var _ StoreServiceServer = (*Server)(nil)

func NewServer(log *slog.Logger, eventLog contract.IEventLog, ledger contract.IDedupLedger, presence repositories.IPresenceRepository) *Server {
	return &Server{log: log, eventLog: eventLog, ledger: ledger, presence: presence}
}

func decode[T any](in *wrapperspb.BytesValue) (T, error) {
	var v T
	if err := json.Unmarshal(in.GetValue(), &v); err != nil {
		return v, status.Errorf(codes.InvalidArgument, "malformed request: %v", err)
	}
	return v, nil
}

func encode(v any, err error) (*wrapperspb.BytesValue, error) {
	if err != nil {
		return nil, toStatus(err)
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	return &wrapperspb.BytesValue{Value: data}, nil
}

func (s *Server) Append(ctx context.Context, in *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error) {
	evt, err := decode[event.DomainEvent](in)
	if err != nil {
		return nil, err
	}
	stored, err := s.eventLog.Append(ctx, evt)
	if err != nil {
		s.log.Warn("Remote append failed", "event_id", evt.EventID, "error", err)
	}
	return encode(stored, err)
}

func (s *Server) Get(ctx context.Context, in *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error) {
	req, err := decode[eventIDRequest](in)
	if err != nil {
		return nil, err
	}
	return encode(s.eventLog.Get(ctx, req.EventID))
}

func (s *Server) GetSince(ctx context.Context, in *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error) {
	req, err := decode[sinceRequest](in)
	if err != nil {
		return nil, err
	}
	if req.Index == nil {
		return encode(s.eventLog.GetSince(ctx, req.SequenceID, req.Limit))
	}
	return encode(s.eventLog.GetSinceForIndex(ctx, *req.Index, req.SequenceID, req.Limit))
}

func (s *Server) SequenceAt(ctx context.Context, in *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error) {
	req, err := decode[sequenceAtRequest](in)
	if err != nil {
		return nil, err
	}
	seq, err := s.eventLog.SequenceAt(ctx, req.At)
	return encode(sequenceResponse{SequenceID: seq}, err)
}

func (s *Server) MarkProcessed(ctx context.Context, in *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error) {
	req, err := decode[eventIDRequest](in)
	if err != nil {
		return nil, err
	}
	return encode(struct{}{}, s.ledger.MarkProcessed(ctx, req.EventID))
}

func (s *Server) GetStatus(ctx context.Context, in *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error) {
	req, err := decode[eventIDRequest](in)
	if err != nil {
		return nil, err
	}
	st, at, err := s.ledger.GetStatus(ctx, req.EventID)
	return encode(statusResponse{Status: st, ProcessedAt: at}, err)
}

func (s *Server) SavePresence(_ context.Context, in *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error) {
	entry, err := decode[repositories.PresenceEntry](in)
	if err != nil {
		return nil, err
	}
	return encode(struct{}{}, s.presence.Save(entry))
}

func (s *Server) DeletePresence(_ context.Context, in *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error) {
	key, err := decode[presenceKey](in)
	if err != nil {
		return nil, err
	}
	return encode(struct{}{}, s.presence.Delete(key.SubjectID, key.InstanceID))
}

func (s *Server) LoadPresence(context.Context, *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error) {
	return encode(s.presence.LoadAll())
}

func (s *Server) PresenceOf(_ context.Context, in *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error) {
	key, err := decode[presenceKey](in)
	if err != nil {
		return nil, err
	}
	return encode(s.presence.ForSubject(key.SubjectID))
}

package store

import (
	"civic-stream/contract"
	"civic-stream/errors"
	"context"
	stdErrors "errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type eventIDRequest struct {
	EventID string `json:"event_id"`
}

type sinceRequest struct {
	Index      *contract.LogIndex `json:"index,omitempty"`
	SequenceID uint64             `json:"sequence_id"`
	Limit      int                `json:"limit"`
}

type sequenceAtRequest struct {
	At time.Time `json:"at"`
}

type sequenceResponse struct {
	SequenceID uint64 `json:"sequence_id"`
}

type statusResponse struct {
	Status      contract.ProcessedStatus `json:"status"`
	ProcessedAt time.Time                `json:"processed_at"`
}

type presenceKey struct {
	SubjectID  string `json:"subject_id"`
	InstanceID string `json:"instance_id,omitempty"`
}

// sentinels survive the wire: the status message starts with their text.
var sentinels = map[codes.Code][]error{
	codes.NotFound:        {errors.ErrEventNotFound},
	codes.InvalidArgument: {errors.ErrMissingEventID, errors.ErrInvalidEvent},
}

// toStatus maps a store error onto a gRPC status.
func toStatus(err error) error {
	switch {
	case err == nil:
		return nil
	case stdErrors.Is(err, context.Canceled), stdErrors.Is(err, context.DeadlineExceeded):
		return status.FromContextError(err).Err()
	case stdErrors.Is(err, errors.ErrEventNotFound):
		return status.Error(codes.NotFound, err.Error())
	case stdErrors.Is(err, errors.ErrInvalidEvent), stdErrors.Is(err, errors.ErrMissingEventID):
		return status.Error(codes.InvalidArgument, err.Error())
	case stdErrors.Is(err, errors.ErrStore):
		return status.Error(codes.Unavailable, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

// fromStatus restores the domain error of a failed call.
func fromStatus(op string, err error) error {
	st, ok := status.FromError(err)
	if !ok {
		return errors.NewStoreError(op, err)
	}
	switch st.Code() {
	case codes.Canceled:
		return context.Canceled
	case codes.DeadlineExceeded:
		return context.DeadlineExceeded
	}
	for _, sentinel := range sentinels[st.Code()] {
		if strings.HasPrefix(st.Message(), sentinel.Error()) {
			return fmt.Errorf("%w%s", sentinel, strings.TrimPrefix(st.Message(), sentinel.Error()))
		}
	}
	return errors.NewStoreError(op, err)
}

package services

import (
	"civic-stream/contract"
	"civic-stream/domain"
	"civic-stream/domain/event"
	"civic-stream/errors"
	"context"
	stdErrors "errors"
	"fmt"
	"log/slog"
	"time"
)

type IAckService interface {
	Ack(ctx context.Context, subject domain.Subject, eventID string) error
	Status(ctx context.Context, eventID string) (contract.ProcessedStatus, time.Time, error)
}

// EventLookup finds a logged event by id.
type EventLookup interface {
	Get(ctx context.Context, eventID string) (event.DomainEvent, error)
}

// AckService records the technical receipt of a frame in the dedup ledger.
// It does not mean delivered or read: those are business transitions sent as events.
//
// A subject may only ack events of channels it may read. Ids unknown to the log
// (live-only frames, rows of external sources) are recorded as is.
type AckService struct {
	log        *slog.Logger
	ledger     contract.IDedupLedger
	events     EventLookup
	authorizer contract.Authorizer
}

func NewAckService(log *slog.Logger, ledger contract.IDedupLedger, events EventLookup, authorizer contract.Authorizer) *AckService {
	return &AckService{log: log, ledger: ledger, events: events, authorizer: authorizer}
}

func (s *AckService) Ack(ctx context.Context, subject domain.Subject, eventID string) error {
	if subject.IsZero() {
		return errors.ErrUnauthenticated
	}
	if eventID == "" {
		return errors.ErrMissingEventID
	}
	if err := s.authorize(ctx, subject, eventID); err != nil {
		if errors.IsAuthorizationDenial(err) {
			s.log.Warn("Ack denied", "subject_id", subject.ID, "event_id", eventID, "error", err)
		}
		return err
	}
	if err := s.ledger.MarkProcessed(ctx, eventID); err != nil {
		s.log.Error("Ack not recorded", "subject_id", subject.ID, "event_id", eventID, "error", err)
		return err
	}
	return nil
}

func (s *AckService) Status(ctx context.Context, eventID string) (contract.ProcessedStatus, time.Time, error) {
	return s.ledger.GetStatus(ctx, eventID)
}

func (s *AckService) authorize(ctx context.Context, subject domain.Subject, eventID string) error {
	if s.events == nil || s.authorizer == nil {
		return nil
	}
	evt, err := s.events.Get(ctx, eventID)
	if stdErrors.Is(err, errors.ErrEventNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("ack lookup %s: %w", eventID, err)
	}
	return s.authorizer.Authorize(ctx, subject, evt.Channel())
}

package event

import (
	"civic-stream/errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Validate checks the fields required before an event may be appended.
func (e DomainEvent) Validate() error {
	if err := validate.Struct(e); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrInvalidEvent, err)
	}
	if !e.Channel().Kind.Valid() {
		return fmt.Errorf("%w: unknown aggregate type %q", errors.ErrInvalidEvent, e.AggregateType)
	}
	return nil
}

// Validate enforces the wire contract at the edge: eventId, serverTimestamp, type and channel.
func (n Notification) Validate() error {
	if err := validate.Struct(n); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrContractViolation, err)
	}
	return nil
}

func (b BridgeEnvelope) Validate() error {
	if err := validate.Struct(b); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrContractViolation, err)
	}
	return nil
}

package workers

import (
	"civic-stream/contract"
	"context"
	"log/slog"
)

// BridgeReceiver is the part of the bus fed by the broker.
type BridgeReceiver interface {
	Receive(ctx context.Context, raw []byte) error
}

// BridgeWorker subscribes the instance to the shared broker topic and feeds
// every envelope to the local bus. Malformed envelopes are logged and dropped.
// When the subscription breaks the worker returns the error and the supervisor
// resubscribes.
type BridgeWorker struct {
	log      *slog.Logger
	broker   contract.Broker
	topic    string
	receiver BridgeReceiver
}

func NewBridgeWorker(log *slog.Logger, broker contract.Broker, topic string, receiver BridgeReceiver) *BridgeWorker {
	return &BridgeWorker{log: log, broker: broker, topic: topic, receiver: receiver}
}

func (w *BridgeWorker) Run(ctx context.Context) error {
	w.log.Info("Subscribing to bridge topic", "topic", w.topic)
	err := w.broker.Subscribe(ctx, w.topic, func(payload []byte) {
		if err := w.receiver.Receive(ctx, payload); err != nil {
			w.log.Warn("Bridge envelope dropped", "topic", w.topic, "error", err)
		}
	})
	if ctx.Err() != nil {
		return nil
	}
	return err
}

package kafka

import (
	"context"
	"log/slog"

	"github.com/dejobratic/confirmdialog/internal/confirmation/ports"
)

// Topics carrying confirmation lifecycle events.
const (
	TopicConfirmationRequested = "confirmation.requested"
	TopicConfirmationConfirmed = "confirmation.confirmed"
	TopicConfirmationCancelled = "confirmation.cancelled"
	TopicConfirmationFailed    = "confirmation.failed"
)

// NoopEventBus logs events without sending them to Kafka. Useful until a broker is wired.
type NoopEventBus struct {
	logger *slog.Logger
}

// NewNoopEventBus returns a no-op publisher logging at debug level. A nil logger uses slog.Default.
func NewNoopEventBus(logger *slog.Logger) *NoopEventBus {
	if logger == nil {
		logger = slog.Default()
	}
	return &NoopEventBus{logger: logger}
}

func (n *NoopEventBus) PublishConfirmationRequested(ctx context.Context, event ports.ConfirmationEvent) error {
	n.log(ctx, TopicConfirmationRequested, event)
	return nil
}

func (n *NoopEventBus) PublishConfirmationConfirmed(ctx context.Context, event ports.ConfirmationEvent) error {
	n.log(ctx, TopicConfirmationConfirmed, event)
	return nil
}

func (n *NoopEventBus) PublishConfirmationCancelled(ctx context.Context, event ports.ConfirmationEvent) error {
	n.log(ctx, TopicConfirmationCancelled, event)
	return nil
}

func (n *NoopEventBus) PublishConfirmationFailed(ctx context.Context, event ports.ConfirmationEvent) error {
	n.log(ctx, TopicConfirmationFailed, event)
	return nil
}

func (n *NoopEventBus) log(ctx context.Context, topic string, event ports.ConfirmationEvent) {
	n.logger.DebugContext(ctx, "event::"+topic,
		"confirmation_key", event.Key,
		"action", event.Action,
		"reason", event.Reason,
	)
}

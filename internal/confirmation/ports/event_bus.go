package ports

import "context"

// ConfirmationEvent describes a lifecycle change of a pending confirmation.
type ConfirmationEvent struct {
	Key    string
	Action string
	Reason string
}

// EventBus defines the contract for publishing confirmation lifecycle events.
type EventBus interface {
	PublishConfirmationRequested(ctx context.Context, event ConfirmationEvent) error
	PublishConfirmationConfirmed(ctx context.Context, event ConfirmationEvent) error
	PublishConfirmationCancelled(ctx context.Context, event ConfirmationEvent) error
	PublishConfirmationFailed(ctx context.Context, event ConfirmationEvent) error
}

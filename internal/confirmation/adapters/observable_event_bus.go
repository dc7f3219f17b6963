package adapters

import (
	"context"
	"time"

	"github.com/dejobratic/confirmdialog/internal/confirmation/ports"
	"github.com/dejobratic/confirmdialog/internal/kafka"
	"github.com/dejobratic/confirmdialog/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
)

type ObservableEventBus struct {
	bus     ports.EventBus
	metrics *kafka.Metrics
}

func NewObservableEventBus(bus ports.EventBus, metrics *kafka.Metrics) *ObservableEventBus {
	return &ObservableEventBus{
		bus:     bus,
		metrics: metrics,
	}
}

func (e *ObservableEventBus) PublishConfirmationRequested(ctx context.Context, event ports.ConfirmationEvent) error {
	return e.publish(ctx, "EventBus.PublishConfirmationRequested", kafka.TopicConfirmationRequested, event, e.bus.PublishConfirmationRequested)
}

func (e *ObservableEventBus) PublishConfirmationConfirmed(ctx context.Context, event ports.ConfirmationEvent) error {
	return e.publish(ctx, "EventBus.PublishConfirmationConfirmed", kafka.TopicConfirmationConfirmed, event, e.bus.PublishConfirmationConfirmed)
}

func (e *ObservableEventBus) PublishConfirmationCancelled(ctx context.Context, event ports.ConfirmationEvent) error {
	return e.publish(ctx, "EventBus.PublishConfirmationCancelled", kafka.TopicConfirmationCancelled, event, e.bus.PublishConfirmationCancelled)
}

func (e *ObservableEventBus) PublishConfirmationFailed(ctx context.Context, event ports.ConfirmationEvent) error {
	return e.publish(ctx, "EventBus.PublishConfirmationFailed", kafka.TopicConfirmationFailed, event, e.bus.PublishConfirmationFailed)
}

func (e *ObservableEventBus) publish(
	ctx context.Context,
	spanName, topic string,
	event ports.ConfirmationEvent,
	fn func(context.Context, ports.ConfirmationEvent) error,
) error {
	ctx, span := telemetry.StartSpan(ctx, spanName,
		attribute.String("confirmation.key", event.Key),
		attribute.String("event.type", topic),
		attribute.String("topic", topic),
	)
	if event.Action != "" {
		telemetry.AddSpanAttributes(span, attribute.String("confirmation.action", event.Action))
	}
	if event.Reason != "" {
		telemetry.AddSpanAttributes(span, attribute.String("failure.reason", event.Reason))
	}

	start := time.Now()
	err := fn(ctx, event)
	duration := time.Since(start).Seconds()

	if e.metrics != nil {
		e.metrics.RecordPublish(ctx, topic, duration, err == nil)
	}

	telemetry.EndSpan(span, err)
	return err
}

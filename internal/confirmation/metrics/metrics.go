package metrics

import (
	"context"
	"fmt"

	"github.com/dejobratic/confirmdialog/internal/confirmation/domain"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

type Metrics struct {
	requestedTotal metric.Int64Counter
	resolvedTotal  metric.Int64Counter
	actionDuration metric.Float64Histogram
}

func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}

	var err error

	m.requestedTotal, err = meter.Int64Counter(
		"confirmations_requested_total",
		metric.WithDescription("Total number of confirmation requests registered"),
		metric.WithUnit("{confirmation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create confirmations_requested_total counter: %w", err)
	}

	m.resolvedTotal, err = meter.Int64Counter(
		"confirmations_resolved_total",
		metric.WithDescription("Total number of confirmation signals by outcome"),
		metric.WithUnit("{confirmation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create confirmations_resolved_total counter: %w", err)
	}

	m.actionDuration, err = meter.Float64Histogram(
		"confirmation_action_duration_seconds",
		metric.WithDescription("Duration of confirmed action execution"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("create confirmation_action_duration histogram: %w", err)
	}

	return m, nil
}

func (m *Metrics) RecordRequested(ctx context.Context, action string) {
	if m == nil {
		return
	}
	m.requestedTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("action", action),
	))
}

func (m *Metrics) RecordOutcome(ctx context.Context, state domain.RenderState) {
	if m == nil {
		return
	}
	m.resolvedTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("outcome", string(state)),
	))
}

func (m *Metrics) RecordActionDuration(ctx context.Context, action string, durationSeconds float64, success bool) {
	if m == nil {
		return
	}
	status := "success"
	if !success {
		status = "error"
	}
	m.actionDuration.Record(ctx, durationSeconds, metric.WithAttributes(
		attribute.String("action", action),
		attribute.String("status", status),
	))
}

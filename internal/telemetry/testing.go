package telemetry

import (
	"context"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// discardExporter drops every span and metric batch. It lets Initialize run
// without a collector.
type discardExporter struct{}

func (discardExporter) ExportSpans(context.Context, []sdktrace.ReadOnlySpan) error { return nil }

func (discardExporter) Temporality(sdkmetric.InstrumentKind) metricdata.Temporality {
	return metricdata.CumulativeTemporality
}

func (discardExporter) Aggregation(sdkmetric.InstrumentKind) sdkmetric.Aggregation {
	return sdkmetric.AggregationDefault{}
}

func (discardExporter) Export(context.Context, *metricdata.ResourceMetrics) error { return nil }

func (discardExporter) ForceFlush(context.Context) error { return nil }

func (discardExporter) Shutdown(context.Context) error { return nil }

func NewNoopTraceExporter() sdktrace.SpanExporter {
	return discardExporter{}
}

func NewNoopMetricExporter() sdkmetric.Exporter {
	return discardExporter{}
}

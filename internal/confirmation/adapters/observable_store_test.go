package adapters

import (
	"context"
	"errors"
	"testing"

	"github.com/dejobratic/confirmdialog/internal/confirmation/adapters/memory"
	"github.com/dejobratic/confirmdialog/internal/confirmation/ports"
	"github.com/dejobratic/confirmdialog/internal/database"
	"github.com/dejobratic/confirmdialog/internal/kafka"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

var testScope = ports.Scope{SessionID: "s1", Partition: "ConfirmationDialog"}

func setupTracing(t *testing.T) *tracetest.InMemoryExporter {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
		otel.SetTracerProvider(previous)
	})
	return exporter
}

func collectMetricNames(t *testing.T, reader *sdkmetric.ManualReader) map[string]bool {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Failed to collect metrics: %v", err)
	}
	names := map[string]bool{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			names[m.Name] = true
		}
	}
	return names
}

func TestObservableStore(t *testing.T) {
	t.Run("delegates to the wrapped store and records spans and metrics", func(t *testing.T) {
		exporter := setupTracing(t)
		reader := sdkmetric.NewManualReader()
		meter := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)).Meter("test")
		dbMetrics, err := database.NewMetrics(meter)
		if err != nil {
			t.Fatalf("NewMetrics() failed: %v", err)
		}

		store := NewObservableStore(memory.NewStore(), "memory", dbMetrics)
		ctx := context.Background()

		if err := store.Set(ctx, testScope, "k1", []byte("v1")); err != nil {
			t.Fatalf("Set() failed: %v", err)
		}
		value, found, err := store.Take(ctx, testScope, "k1")
		if err != nil || !found || string(value) != "v1" {
			t.Fatalf("Take() = %q, %v, %v", value, found, err)
		}

		spans := exporter.GetSpans()
		if len(spans) != 2 {
			t.Fatalf("expected 2 spans, got %d", len(spans))
		}
		if spans[0].Name != "SessionStore.Set" || spans[1].Name != "SessionStore.Take" {
			t.Errorf("unexpected span names %q, %q", spans[0].Name, spans[1].Name)
		}
		for _, span := range spans {
			if span.Status.Code != codes.Ok {
				t.Errorf("span %s status = %v, want Ok", span.Name, span.Status.Code)
			}
		}

		names := collectMetricNames(t, reader)
		if !names["db_query_duration_seconds"] {
			t.Error("expected db_query_duration_seconds to be recorded")
		}
	})

	t.Run("marks span as error when the store fails", func(t *testing.T) {
		exporter := setupTracing(t)
		store := NewObservableStore(failingStore{err: errors.New("boom")}, "memory", nil)

		if err := store.Clear(context.Background(), testScope, "k1"); err == nil {
			t.Fatal("expected error")
		}

		spans := exporter.GetSpans()
		if len(spans) != 1 || spans[0].Status.Code != codes.Error {
			t.Fatalf("expected one error span, got %+v", spans)
		}
	})

	t.Run("ping is a no-op for stores without health checks", func(t *testing.T) {
		store := NewObservableStore(memory.NewStore(), "memory", nil)
		if err := store.Ping(context.Background()); err != nil {
			t.Errorf("Ping() = %v, want nil", err)
		}
	})
}

func TestObservableEventBus(t *testing.T) {
	exporter := setupTracing(t)
	reader := sdkmetric.NewManualReader()
	meter := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)).Meter("test")
	kafkaMetrics, err := kafka.NewMetrics(meter)
	if err != nil {
		t.Fatalf("NewMetrics() failed: %v", err)
	}

	bus := NewObservableEventBus(kafka.NewNoopEventBus(nil), kafkaMetrics)
	event := ports.ConfirmationEvent{Key: "k1", Action: "deleteRecord"}

	if err := bus.PublishConfirmationRequested(context.Background(), event); err != nil {
		t.Fatalf("PublishConfirmationRequested() failed: %v", err)
	}

	spans := exporter.GetSpans()
	if len(spans) != 1 || spans[0].Name != "EventBus.PublishConfirmationRequested" {
		t.Fatalf("unexpected spans %+v", spans)
	}

	names := collectMetricNames(t, reader)
	if !names["kafka_producer_latency_seconds"] || !names["kafka_events_published_total"] {
		t.Errorf("expected kafka metrics to be recorded, got %v", names)
	}
}

type failingStore struct {
	err error
}

func (f failingStore) Set(context.Context, ports.Scope, string, []byte) error { return f.err }
func (f failingStore) Get(context.Context, ports.Scope, string) ([]byte, bool, error) {
	return nil, false, f.err
}
func (f failingStore) Clear(context.Context, ports.Scope, string) error { return f.err }
func (f failingStore) ClearAll(context.Context, ports.Scope) error      { return f.err }
func (f failingStore) Take(context.Context, ports.Scope, string) ([]byte, bool, error) {
	return nil, false, f.err
}

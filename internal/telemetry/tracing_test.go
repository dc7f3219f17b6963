package telemetry

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

func TestStartSpan(t *testing.T) {
	t.Run("creates span with name and attributes", func(t *testing.T) {
		exp := setupTracerProvider(t)

		_, span := StartSpan(context.Background(), "test-operation", attribute.String("confirmation.key", "k1"))
		span.End()

		spans := exp.GetSpans()
		if len(spans) != 1 {
			t.Fatalf("expected 1 span, got %d", len(spans))
		}
		if spans[0].Name != "test-operation" {
			t.Errorf("expected span name 'test-operation', got %s", spans[0].Name)
		}

		found := false
		for _, attr := range spans[0].Attributes {
			if attr.Key == "confirmation.key" && attr.Value.AsString() == "k1" {
				found = true
			}
		}
		if !found {
			t.Error("expected confirmation.key attribute on span")
		}
	})

	t.Run("nests child spans under parent", func(t *testing.T) {
		exp := setupTracerProvider(t)

		ctx, parent := StartSpan(context.Background(), "parent")
		_, child := StartSpan(ctx, "child")
		child.End()
		parent.End()

		spans := exp.GetSpans()
		if len(spans) != 2 {
			t.Fatalf("expected 2 spans, got %d", len(spans))
		}
		if spans[0].Parent.SpanID() != spans[1].SpanContext.SpanID() {
			t.Error("expected child span to reference parent span ID")
		}
	})
}

func TestEndSpan(t *testing.T) {
	t.Run("marks success when err is nil", func(t *testing.T) {
		exp := setupTracerProvider(t)

		_, span := StartSpan(context.Background(), "ok")
		EndSpan(span, nil)

		spans := exp.GetSpans()
		if spans[0].Status.Code != codes.Ok {
			t.Errorf("expected status Ok, got %v", spans[0].Status.Code)
		}
	})

	t.Run("records error", func(t *testing.T) {
		exp := setupTracerProvider(t)

		_, span := StartSpan(context.Background(), "failing")
		EndSpan(span, errors.New("boom"))

		spans := exp.GetSpans()
		if spans[0].Status.Code != codes.Error {
			t.Errorf("expected status Error, got %v", spans[0].Status.Code)
		}
		if spans[0].Status.Description != "boom" {
			t.Errorf("expected description 'boom', got %q", spans[0].Status.Description)
		}
		if len(spans[0].Events) != 1 {
			t.Errorf("expected 1 exception event, got %d", len(spans[0].Events))
		}
	})

	t.Run("ignores nil span", func(t *testing.T) {
		EndSpan(nil, errors.New("boom"))
	})
}

func TestAddSpanEvent(t *testing.T) {
	exp := setupTracerProvider(t)

	_, span := StartSpan(context.Background(), "with-event")
	AddSpanEvent(span, "confirmation.resolved", attribute.String("outcome", "confirmed"))
	AddSpanAttributes(span, attribute.Int("attempt", 1))
	span.End()

	spans := exp.GetSpans()
	if len(spans[0].Events) != 1 || spans[0].Events[0].Name != "confirmation.resolved" {
		t.Errorf("expected confirmation.resolved event, got %+v", spans[0].Events)
	}
}

func TestTraceAndSpanIDWithoutSpan(t *testing.T) {
	ctx := context.Background()
	if TraceID(ctx) != "" {
		t.Error("expected empty trace ID")
	}
	if SpanID(ctx) != "" {
		t.Error("expected empty span ID")
	}
}

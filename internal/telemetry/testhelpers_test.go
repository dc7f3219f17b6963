package telemetry

import (
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func testConfig() Config {
	return Config{
		ServiceName:    "test-service",
		ServiceVersion: "1.0.0",
		Environment:    "test",
		SampleRate:     1.0,
	}
}

// setupTracerProvider installs an in-memory tracer provider for the test.
func setupTracerProvider(t *testing.T) *tracetest.InMemoryExporter {
	t.Helper()

	previous := otel.GetTracerProvider()
	exp := tracetest.NewInMemoryExporter()
	otel.SetTracerProvider(trace.NewTracerProvider(trace.WithSyncer(exp)))
	t.Cleanup(func() {
		otel.SetTracerProvider(previous)
	})

	return exp
}

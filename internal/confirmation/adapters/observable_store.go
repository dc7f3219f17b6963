package adapters

import (
	"context"
	"time"

	"github.com/dejobratic/confirmdialog/internal/confirmation/ports"
	"github.com/dejobratic/confirmdialog/internal/database"
	"github.com/dejobratic/confirmdialog/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
)

// ObservableStore wraps a SessionStore with spans and query metrics.
type ObservableStore struct {
	store   ports.SessionStore
	backend string
	metrics *database.Metrics
}

func NewObservableStore(store ports.SessionStore, backend string, metrics *database.Metrics) *ObservableStore {
	return &ObservableStore{
		store:   store,
		backend: backend,
		metrics: metrics,
	}
}

func (s *ObservableStore) Set(ctx context.Context, scope ports.Scope, key string, value []byte) error {
	ctx, span := telemetry.StartSpan(ctx, "SessionStore.Set", s.attrs(scope, key, "set")...)
	telemetry.AddSpanAttributes(span, attribute.Int("value.size", len(value)))

	start := time.Now()
	err := s.store.Set(ctx, scope, key, value)
	s.record(ctx, "set", start, err)

	telemetry.EndSpan(span, err)
	return err
}

func (s *ObservableStore) Get(ctx context.Context, scope ports.Scope, key string) ([]byte, bool, error) {
	ctx, span := telemetry.StartSpan(ctx, "SessionStore.Get", s.attrs(scope, key, "get")...)

	start := time.Now()
	value, found, err := s.store.Get(ctx, scope, key)
	s.record(ctx, "get", start, err)

	telemetry.AddSpanAttributes(span, attribute.Bool("result.found", found))
	telemetry.EndSpan(span, err)
	return value, found, err
}

func (s *ObservableStore) Clear(ctx context.Context, scope ports.Scope, key string) error {
	ctx, span := telemetry.StartSpan(ctx, "SessionStore.Clear", s.attrs(scope, key, "clear")...)

	start := time.Now()
	err := s.store.Clear(ctx, scope, key)
	s.record(ctx, "clear", start, err)

	telemetry.EndSpan(span, err)
	return err
}

func (s *ObservableStore) ClearAll(ctx context.Context, scope ports.Scope) error {
	ctx, span := telemetry.StartSpan(ctx, "SessionStore.ClearAll", s.attrs(scope, "", "clear_all")...)

	start := time.Now()
	err := s.store.ClearAll(ctx, scope)
	s.record(ctx, "clear_all", start, err)

	telemetry.EndSpan(span, err)
	return err
}

func (s *ObservableStore) Take(ctx context.Context, scope ports.Scope, key string) ([]byte, bool, error) {
	ctx, span := telemetry.StartSpan(ctx, "SessionStore.Take", s.attrs(scope, key, "take")...)

	start := time.Now()
	value, found, err := s.store.Take(ctx, scope, key)
	s.record(ctx, "take", start, err)

	telemetry.AddSpanAttributes(span, attribute.Bool("result.found", found))
	telemetry.EndSpan(span, err)
	return value, found, err
}

// Ping forwards to the wrapped store when it supports health checks.
func (s *ObservableStore) Ping(ctx context.Context) error {
	checker, ok := s.store.(ports.HealthChecker)
	if !ok {
		return nil
	}
	return checker.Ping(ctx)
}

func (s *ObservableStore) attrs(scope ports.Scope, key, operation string) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String("db.system", s.backend),
		attribute.String("session.partition", scope.Partition),
		attribute.String("operation", operation),
	}
	if key != "" {
		attrs = append(attrs, attribute.String("confirmation.key", key))
	}
	return attrs
}

func (s *ObservableStore) record(ctx context.Context, operation string, start time.Time, err error) {
	if s.metrics == nil {
		return
	}
	s.metrics.RecordQuery(ctx, s.backend, operation, time.Since(start).Seconds(), err)
}

package main

import (
	"context"
	"log/slog"
	"testing"

	"github.com/dejobratic/confirmdialog/internal/confirmation/app"
	"github.com/dejobratic/confirmdialog/internal/confirmation/domain"
)

func TestRegisterActions(t *testing.T) {
	registry := app.NewActionRegistry()
	if err := registerActions(registry, slog.New(slog.DiscardHandler)); err != nil {
		t.Fatalf("registerActions() failed: %v", err)
	}

	action, ok := registry.Lookup("deleteRecord")
	if !ok {
		t.Fatal("expected deleteRecord to be registered")
	}

	t.Run("deleteRecord requires an id", func(t *testing.T) {
		if err := action.Handler.Execute(context.Background(), domain.Params{}); err == nil {
			t.Error("expected error without id")
		}
	})

	t.Run("deleteRecord succeeds with an id", func(t *testing.T) {
		if err := action.Handler.Execute(context.Background(), domain.Params{"id": int64(42)}); err != nil {
			t.Errorf("expected no error, got %v", err)
		}
	})

	if _, ok := registry.Lookup("clearCache"); !ok {
		t.Error("expected clearCache to be registered")
	}
}

package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dejobratic/confirmdialog/internal/confirmation/app"
	"github.com/dejobratic/confirmdialog/internal/confirmation/domain"
)

// registerActions installs the actions this service can guard. Real deployments
// replace these with handlers that call their own domain services.
func registerActions(registry *app.ActionRegistry, logger *slog.Logger) error {
	if err := registry.RegisterFunc("deleteRecord", []string{"id"}, func(ctx context.Context, params domain.Params) error {
		id, ok := params["id"]
		if !ok {
			return fmt.Errorf("deleteRecord: id is required")
		}
		logger.InfoContext(ctx, "record deleted", "id", id)
		return nil
	}); err != nil {
		return err
	}

	return registry.RegisterFunc("clearCache", []string{"region"}, func(ctx context.Context, params domain.Params) error {
		logger.InfoContext(ctx, "cache cleared", "region", params["region"])
		return nil
	})
}

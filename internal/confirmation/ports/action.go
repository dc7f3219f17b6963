package ports

import (
	"context"

	"github.com/dejobratic/confirmdialog/internal/confirmation/domain"
)

// ActionHandler performs the effect guarded by a confirmation.
type ActionHandler interface {
	Execute(ctx context.Context, params domain.Params) error
}

// ActionFunc adapts a function to ActionHandler.
type ActionFunc func(ctx context.Context, params domain.Params) error

func (f ActionFunc) Execute(ctx context.Context, params domain.Params) error {
	return f(ctx, params)
}

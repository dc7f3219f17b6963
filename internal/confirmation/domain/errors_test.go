package domain_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/dejobratic/confirmdialog/internal/confirmation/domain"
)

func TestErrorKinds(t *testing.T) {
	cause := errors.New("boom")

	tests := []struct {
		name     string
		err      error
		sentinel error
		kind     domain.ErrorKind
		message  string
	}{
		{
			name:     "invalid state",
			err:      domain.InvalidState("confirm", cause),
			sentinel: domain.ErrInvalidState,
			kind:     domain.KindInvalidState,
			message:  "invalid_state: confirm: boom",
		},
		{
			name:     "handler failure",
			err:      domain.HandlerFailure("execute", cause),
			sentinel: domain.ErrHandlerFailure,
			kind:     domain.KindHandlerFailure,
			message:  "handler_failure: execute: boom",
		},
		{
			name:     "not found",
			err:      domain.NotFound("resolve"),
			sentinel: domain.ErrNotFound,
			kind:     domain.KindNotFound,
			message:  "not_found: resolve",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !errors.Is(tt.err, tt.sentinel) {
				t.Errorf("expected errors.Is to match the %s sentinel", tt.kind)
			}
			if got := domain.KindOf(tt.err); got != tt.kind {
				t.Errorf("KindOf() = %s, want %s", got, tt.kind)
			}
			if tt.err.Error() != tt.message {
				t.Errorf("Error() = %q, want %q", tt.err.Error(), tt.message)
			}
		})
	}
}

func TestErrorWrapping(t *testing.T) {
	cause := errors.New("disk full")
	err := fmt.Errorf("confirm: %w", domain.HandlerFailure("execute", cause))

	if !errors.Is(err, cause) {
		t.Error("expected the cause to be reachable")
	}
	if errors.Is(err, domain.ErrInvalidState) {
		t.Error("expected kinds not to cross-match")
	}
	if domain.KindOf(errors.New("plain")) != domain.KindUnknown {
		t.Error("expected plain errors to have unknown kind")
	}
}

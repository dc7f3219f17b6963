package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dejobratic/confirmdialog/internal/confirmation/domain"
	"github.com/dejobratic/confirmdialog/internal/confirmation/metrics"
	"github.com/dejobratic/confirmdialog/internal/confirmation/ports"
	"github.com/dejobratic/confirmdialog/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
)

var errDialogNotInitialized = errors.New("confirmation dialog is not initialized")

type eventKind int

const (
	eventRequested eventKind = iota
	eventConfirmed
	eventCancelled
	eventFailed
)

// View is the render directive handed to the renderer.
type View struct {
	State     domain.RenderState `json:"state"`
	Key       string             `json:"key,omitempty"`
	Action    string             `json:"action,omitempty"`
	Params    domain.Params      `json:"params,omitempty"`
	CreatedAt time.Time          `json:"created_at,omitzero"`
	// Err is set for StateError views.
	Err error `json:"-"`

	LayoutFile   string `json:"-"`
	TemplateFile string `json:"-"`
}

// Dialog turns user signals into state manager calls and a View.
// One Dialog serves one session; create it per request through DialogFactory.
type Dialog struct {
	manager *StateManager
	actions *ActionRegistry
	events  ports.EventBus
	logger  *slog.Logger
	metrics *metrics.Metrics

	layoutFile   string
	templateFile string
}

type DialogOption func(*Dialog)

// WithLayoutFile overrides the wrapping markup for this dialog.
func WithLayoutFile(path string) DialogOption {
	return func(d *Dialog) {
		if path != "" {
			d.layoutFile = path
		}
	}
}

// WithTemplateFile overrides the dialog body markup for this dialog.
func WithTemplateFile(path string) DialogOption {
	return func(d *Dialog) {
		if path != "" {
			d.templateFile = path
		}
	}
}

func (d *Dialog) LayoutFile() string {
	if d == nil {
		return ""
	}
	return d.layoutFile
}

func (d *Dialog) TemplateFile() string {
	if d == nil {
		return ""
	}
	return d.templateFile
}

// RequestConfirmation registers a pending confirmation for action and returns the prompt.
// Requesting the same logical action twice yields the same key.
func (d *Dialog) RequestConfirmation(ctx context.Context, action string, params domain.Params) (View, error) {
	if err := d.ready("request confirmation"); err != nil {
		return View{}, err
	}

	ctx, span := telemetry.StartSpan(ctx, "ConfirmationDialog.RequestConfirmation",
		attribute.String("confirmation.action", action),
	)

	registered, ok := d.actions.Lookup(action)
	if !ok {
		err := domain.InvalidState("request confirmation", fmt.Errorf("unknown action %q", action))
		telemetry.EndSpan(span, err)
		return View{}, err
	}

	key := domain.DeriveKey(registered.Name, params, registered.KeyParams)
	telemetry.AddSpanAttributes(span, attribute.String("confirmation.key", key))

	pending, err := d.manager.Register(ctx, key, registered.Name, params)
	if err != nil {
		d.logger.ErrorContext(ctx, "failed to register confirmation",
			"error", err,
			"action", action,
		)
		telemetry.EndSpan(span, err)
		return View{}, err
	}

	d.metrics.RecordRequested(ctx, registered.Name)
	d.publish(ctx, ports.ConfirmationEvent{Key: key, Action: registered.Name}, eventRequested)

	d.logger.InfoContext(ctx, "confirmation requested",
		"confirmation_key", key,
		"action", registered.Name,
	)

	telemetry.EndSpan(span, nil)
	return d.view(domain.StatePrompt, pending), nil
}

// Show re-renders a pending confirmation, e.g. after a redirect.
func (d *Dialog) Show(ctx context.Context, key string) (View, error) {
	if err := d.ready("show"); err != nil {
		return View{}, err
	}

	ctx, span := telemetry.StartSpan(ctx, "ConfirmationDialog.Show",
		attribute.String("confirmation.key", key),
	)

	pending, err := d.manager.Lookup(ctx, key)
	if err != nil {
		telemetry.EndSpan(span, err)
		return View{}, err
	}

	telemetry.EndSpan(span, nil)
	if pending == nil {
		return d.view(domain.StateNotFound, &domain.PendingConfirmation{Key: key}), nil
	}
	return d.view(domain.StatePrompt, pending), nil
}

// Confirm resolves key and runs its action. The entry is cleared before the
// action runs, so a repeated or concurrent Confirm renders not-found and the
// action executes at most once. A failing action yields StateError with a
// HandlerFailure error on the view.
func (d *Dialog) Confirm(ctx context.Context, key string) (View, error) {
	if err := d.ready("confirm"); err != nil {
		return View{}, err
	}

	ctx, span := telemetry.StartSpan(ctx, "ConfirmationDialog.Confirm",
		attribute.String("confirmation.key", key),
	)

	pending, err := d.manager.Resolve(ctx, key)
	if err != nil {
		d.logger.ErrorContext(ctx, "failed to resolve confirmation",
			"error", err,
			"confirmation_key", key,
		)
		telemetry.EndSpan(span, err)
		return View{}, err
	}

	if pending == nil {
		d.logger.InfoContext(ctx, "nothing to confirm", "confirmation_key", key)
		d.metrics.RecordOutcome(ctx, domain.StateNotFound)
		telemetry.AddSpanAttributes(span, attribute.String("confirmation.outcome", string(domain.StateNotFound)))
		telemetry.EndSpan(span, nil)
		return d.view(domain.StateNotFound, &domain.PendingConfirmation{Key: key}), nil
	}

	telemetry.AddSpanAttributes(span, attribute.String("confirmation.action", pending.Action))

	if err := d.execute(ctx, pending); err != nil {
		d.logger.ErrorContext(ctx, "confirmed action failed",
			"error", err,
			"confirmation_key", key,
			"action", pending.Action,
		)
		d.metrics.RecordOutcome(ctx, domain.StateError)
		d.publish(ctx, ports.ConfirmationEvent{Key: key, Action: pending.Action, Reason: err.Error()}, eventFailed)
		telemetry.EndSpan(span, err)

		view := d.view(domain.StateError, pending)
		view.Err = err
		return view, nil
	}

	d.logger.InfoContext(ctx, "confirmed action executed",
		"confirmation_key", key,
		"action", pending.Action,
	)
	d.metrics.RecordOutcome(ctx, domain.StateConfirmed)
	d.publish(ctx, ports.ConfirmationEvent{Key: key, Action: pending.Action}, eventConfirmed)

	telemetry.EndSpan(span, nil)
	return d.view(domain.StateConfirmed, pending), nil
}

// Cancel discards key. The result is cancelled whether or not anything was pending.
func (d *Dialog) Cancel(ctx context.Context, key string) (View, error) {
	if err := d.ready("cancel"); err != nil {
		return View{}, err
	}

	ctx, span := telemetry.StartSpan(ctx, "ConfirmationDialog.Cancel",
		attribute.String("confirmation.key", key),
	)

	if err := d.manager.Discard(ctx, key); err != nil {
		d.logger.ErrorContext(ctx, "failed to discard confirmation",
			"error", err,
			"confirmation_key", key,
		)
		telemetry.EndSpan(span, err)
		return View{}, err
	}

	d.logger.InfoContext(ctx, "confirmation cancelled", "confirmation_key", key)
	d.metrics.RecordOutcome(ctx, domain.StateCancelled)
	d.publish(ctx, ports.ConfirmationEvent{Key: key}, eventCancelled)

	telemetry.EndSpan(span, nil)
	return d.view(domain.StateCancelled, &domain.PendingConfirmation{Key: key}), nil
}

// ClearAll drops every pending confirmation of the session, e.g. on logout.
func (d *Dialog) ClearAll(ctx context.Context) error {
	if err := d.ready("clear all"); err != nil {
		return err
	}

	ctx, span := telemetry.StartSpan(ctx, "ConfirmationDialog.ClearAll")
	err := d.manager.ClearAll(ctx)
	if err != nil {
		d.logger.ErrorContext(ctx, "failed to clear confirmations", "error", err)
	} else {
		d.logger.InfoContext(ctx, "confirmations cleared")
	}
	telemetry.EndSpan(span, err)
	return err
}

func (d *Dialog) execute(ctx context.Context, pending *domain.PendingConfirmation) (err error) {
	action, ok := d.actions.Lookup(pending.Action)
	if !ok {
		return domain.HandlerFailure("execute", fmt.Errorf("action %q is not registered", pending.Action))
	}

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = domain.HandlerFailure("execute", fmt.Errorf("action %q panicked: %v", pending.Action, r))
		}
		d.metrics.RecordActionDuration(ctx, pending.Action, time.Since(start).Seconds(), err == nil)
	}()

	if err := action.Handler.Execute(ctx, pending.Params); err != nil {
		return domain.HandlerFailure("execute", err)
	}
	return nil
}

func (d *Dialog) publish(ctx context.Context, event ports.ConfirmationEvent, kind eventKind) {
	if d.events == nil {
		return
	}

	var err error
	switch kind {
	case eventRequested:
		err = d.events.PublishConfirmationRequested(ctx, event)
	case eventConfirmed:
		err = d.events.PublishConfirmationConfirmed(ctx, event)
	case eventCancelled:
		err = d.events.PublishConfirmationCancelled(ctx, event)
	case eventFailed:
		err = d.events.PublishConfirmationFailed(ctx, event)
	}

	if err != nil {
		d.logger.WarnContext(ctx, "failed to publish confirmation event",
			"error", err,
			"confirmation_key", event.Key,
		)
	}
}

func (d *Dialog) view(state domain.RenderState, pending *domain.PendingConfirmation) View {
	view := View{
		State:        state,
		LayoutFile:   d.layoutFile,
		TemplateFile: d.templateFile,
	}
	if pending != nil {
		view.Key = pending.Key
		view.Action = pending.Action
		view.Params = pending.Params
		view.CreatedAt = pending.CreatedAt
	}
	return view
}

func (d *Dialog) ready(op string) error {
	if d == nil || d.manager == nil || d.actions == nil || d.logger == nil {
		return domain.InvalidState(op, errDialogNotInitialized)
	}
	return nil
}

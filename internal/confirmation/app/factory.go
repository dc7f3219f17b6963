package app

import (
	"log/slog"

	"github.com/dejobratic/confirmdialog/internal/confirmation/domain"
	"github.com/dejobratic/confirmdialog/internal/confirmation/metrics"
	"github.com/dejobratic/confirmdialog/internal/confirmation/ports"
)

// DialogFactory builds per-request Dialogs that share one store and action registry.
type DialogFactory struct {
	store   ports.SessionStore
	actions *ActionRegistry
	events  ports.EventBus
	logger  *slog.Logger
	metrics *metrics.Metrics

	layoutFile   string
	templateFile string
	managerOpts  []ManagerOption
}

type FactoryOption func(*DialogFactory)

func WithEventBus(events ports.EventBus) FactoryOption {
	return func(f *DialogFactory) {
		f.events = events
	}
}

func WithLogger(logger *slog.Logger) FactoryOption {
	return func(f *DialogFactory) {
		if logger != nil {
			f.logger = logger
		}
	}
}

func WithMetrics(m *metrics.Metrics) FactoryOption {
	return func(f *DialogFactory) {
		f.metrics = m
	}
}

// WithDefaultLayoutFile sets the layout used by dialogs that do not override it.
func WithDefaultLayoutFile(path string) FactoryOption {
	return func(f *DialogFactory) {
		f.layoutFile = path
	}
}

// WithDefaultTemplateFile sets the template used by dialogs that do not override it.
func WithDefaultTemplateFile(path string) FactoryOption {
	return func(f *DialogFactory) {
		f.templateFile = path
	}
}

func WithManagerOptions(opts ...ManagerOption) FactoryOption {
	return func(f *DialogFactory) {
		f.managerOpts = append(f.managerOpts, opts...)
	}
}

func NewDialogFactory(store ports.SessionStore, actions *ActionRegistry, opts ...FactoryOption) *DialogFactory {
	f := &DialogFactory{
		store:   store,
		actions: actions,
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Create returns a Dialog bound to the session's confirmation partition.
func (f *DialogFactory) Create(sessionID string, opts ...DialogOption) (*Dialog, error) {
	if f == nil {
		return nil, domain.InvalidState("create dialog", errDialogNotInitialized)
	}

	partition, err := NewPartition(f.store, sessionID)
	if err != nil {
		return nil, err
	}

	d := &Dialog{
		manager:      NewStateManager(partition, f.managerOpts...),
		actions:      f.actions,
		events:       f.events,
		logger:       f.logger.With("component", "confirmation_dialog"),
		metrics:      f.metrics,
		layoutFile:   f.layoutFile,
		templateFile: f.templateFile,
	}
	for _, opt := range opts {
		opt(d)
	}

	if err := d.ready("create dialog"); err != nil {
		return nil, err
	}
	return d, nil
}

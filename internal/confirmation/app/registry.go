package app

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/dejobratic/confirmdialog/internal/confirmation/ports"
)

// Action binds a guarded effect to its name.
type Action struct {
	Name string
	// KeyParams lists the params that tell two requests for the same action apart,
	// e.g. the id of the record being deleted.
	KeyParams []string
	Handler   ports.ActionHandler
}

// ActionRegistry maps action names to their handlers.
type ActionRegistry struct {
	mu      sync.RWMutex
	actions map[string]Action
}

func NewActionRegistry() *ActionRegistry {
	return &ActionRegistry{actions: make(map[string]Action)}
}

// Register adds an action. Names must be unique.
func (r *ActionRegistry) Register(action Action) error {
	name := strings.TrimSpace(action.Name)
	if name == "" {
		return errors.New("action name is required")
	}
	if action.Handler == nil {
		return fmt.Errorf("action %q: handler is required", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.actions[name]; exists {
		return fmt.Errorf("action %q is already registered", name)
	}
	action.Name = name
	action.KeyParams = append([]string(nil), action.KeyParams...)
	r.actions[name] = action
	return nil
}

// RegisterFunc is a shorthand for Register with an ActionFunc handler.
func (r *ActionRegistry) RegisterFunc(name string, keyParams []string, fn ports.ActionFunc) error {
	if fn == nil {
		return fmt.Errorf("action %q: handler is required", name)
	}
	return r.Register(Action{Name: name, KeyParams: keyParams, Handler: fn})
}

func (r *ActionRegistry) Lookup(name string) (Action, bool) {
	if r == nil {
		return Action{}, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	action, ok := r.actions[name]
	return action, ok
}

// Names returns the registered action names in sorted order.
func (r *ActionRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.actions))
	for name := range r.actions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

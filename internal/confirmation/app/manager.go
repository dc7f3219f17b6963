package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dejobratic/confirmdialog/internal/confirmation/domain"
)

var errManagerNotInitialized = errors.New("state manager is not initialized")

// StateManager owns the lifecycle of pending confirmations in one partition.
// Each key moves ABSENT -> PENDING on Register and back to ABSENT on Resolve or
// Discard; re-registering a pending key overwrites it.
type StateManager struct {
	partition *Partition
	ttl       time.Duration
	now       func() time.Time
}

type ManagerOption func(*StateManager)

// WithTTL bounds how long a pending confirmation stays resolvable. Zero disables expiry.
func WithTTL(ttl time.Duration) ManagerOption {
	return func(m *StateManager) {
		m.ttl = ttl
	}
}

func WithClock(now func() time.Time) ManagerOption {
	return func(m *StateManager) {
		if now != nil {
			m.now = now
		}
	}
}

func NewStateManager(partition *Partition, opts ...ManagerOption) *StateManager {
	m := &StateManager{
		partition: partition,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Register stores a pending confirmation under key, replacing any previous one.
func (m *StateManager) Register(ctx context.Context, key, action string, params domain.Params) (*domain.PendingConfirmation, error) {
	if err := m.ready("register"); err != nil {
		return nil, err
	}

	normalized, err := domain.NormalizeParams(params)
	if err != nil {
		return nil, err
	}

	pending := domain.PendingConfirmation{
		Key:       key,
		Action:    action,
		Params:    normalized,
		CreatedAt: m.now().UTC(),
	}
	if err := pending.Validate(); err != nil {
		return nil, err
	}

	raw, err := json.Marshal(pending)
	if err != nil {
		return nil, fmt.Errorf("encode confirmation: %w", err)
	}

	if err := m.partition.Set(ctx, key, raw); err != nil {
		return nil, fmt.Errorf("store confirmation: %w", err)
	}

	return &pending, nil
}

// Lookup returns the pending confirmation for key without consuming it.
// It returns nil when there is none.
func (m *StateManager) Lookup(ctx context.Context, key string) (*domain.PendingConfirmation, error) {
	if err := m.ready("lookup"); err != nil {
		return nil, err
	}

	raw, err := m.partition.Get(ctx, key, nil)
	if err != nil {
		return nil, fmt.Errorf("load confirmation: %w", err)
	}
	if raw == nil {
		return nil, nil
	}

	pending, err := decodePending(key, raw)
	if err != nil {
		return nil, err
	}

	if pending.Expired(m.now(), m.ttl) {
		if err := m.partition.Clear(ctx, key); err != nil {
			return nil, fmt.Errorf("clear expired confirmation: %w", err)
		}
		return nil, nil
	}

	return pending, nil
}

// Resolve consumes the pending confirmation for key. Only the first call after
// Register returns it; later calls return nil.
func (m *StateManager) Resolve(ctx context.Context, key string) (*domain.PendingConfirmation, error) {
	if err := m.ready("resolve"); err != nil {
		return nil, err
	}

	raw, found, err := m.partition.Take(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("take confirmation: %w", err)
	}
	if !found {
		return nil, nil
	}

	pending, err := decodePending(key, raw)
	if err != nil {
		return nil, err
	}

	if pending.Expired(m.now(), m.ttl) {
		return nil, nil
	}

	return pending, nil
}

// Discard drops the pending confirmation for key, if any.
func (m *StateManager) Discard(ctx context.Context, key string) error {
	if err := m.ready("discard"); err != nil {
		return err
	}
	if err := m.partition.Clear(ctx, key); err != nil {
		return fmt.Errorf("clear confirmation: %w", err)
	}
	return nil
}

// ClearAll drops every pending confirmation of the session.
func (m *StateManager) ClearAll(ctx context.Context) error {
	if err := m.ready("clear all"); err != nil {
		return err
	}
	if err := m.partition.ClearAll(ctx); err != nil {
		return fmt.Errorf("clear confirmations: %w", err)
	}
	return nil
}

func (m *StateManager) ready(op string) error {
	if m == nil || m.partition == nil {
		return domain.InvalidState(op, errManagerNotInitialized)
	}
	return nil
}

func decodePending(key string, raw []byte) (*domain.PendingConfirmation, error) {
	var pending domain.PendingConfirmation
	if err := json.Unmarshal(raw, &pending); err != nil {
		return nil, fmt.Errorf("decode confirmation %q: %w", key, err)
	}
	return &pending, nil
}

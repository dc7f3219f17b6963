package app

import (
	"context"
	"errors"
	"strings"

	"github.com/dejobratic/confirmdialog/internal/confirmation/domain"
	"github.com/dejobratic/confirmdialog/internal/confirmation/ports"
)

// Partition is a session store bound to one session's confirmation section.
type Partition struct {
	store ports.SessionStore
	scope ports.Scope
}

// NewPartition binds store to the confirmation partition of sessionID.
func NewPartition(store ports.SessionStore, sessionID string) (*Partition, error) {
	if store == nil {
		return nil, domain.InvalidState("open partition", errors.New("session store is required"))
	}
	if strings.TrimSpace(sessionID) == "" {
		return nil, domain.InvalidState("open partition", errors.New("session id is required"))
	}
	return &Partition{
		store: store,
		scope: ports.Scope{SessionID: sessionID, Partition: domain.Partition},
	}, nil
}

func (p *Partition) Scope() ports.Scope {
	return p.scope
}

// Set stores value under key so that a later request can read it.
func (p *Partition) Set(ctx context.Context, key string, value []byte) error {
	return p.store.Set(ctx, p.scope, key, value)
}

// Get returns the value stored under key, or def when there is none.
func (p *Partition) Get(ctx context.Context, key string, def []byte) ([]byte, error) {
	value, found, err := p.store.Get(ctx, p.scope, key)
	if err != nil {
		return nil, err
	}
	if !found {
		return def, nil
	}
	return value, nil
}

func (p *Partition) Has(ctx context.Context, key string) (bool, error) {
	_, found, err := p.store.Get(ctx, p.scope, key)
	return found, err
}

func (p *Partition) Clear(ctx context.Context, key string) error {
	return p.store.Clear(ctx, p.scope, key)
}

func (p *Partition) ClearAll(ctx context.Context) error {
	return p.store.ClearAll(ctx, p.scope)
}

func (p *Partition) Take(ctx context.Context, key string) ([]byte, bool, error) {
	return p.store.Take(ctx, p.scope, key)
}

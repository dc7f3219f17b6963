// Package sqlite provides a SQLite-backed session store.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dejobratic/confirmdialog/internal/confirmation/ports"
	"github.com/dejobratic/confirmdialog/internal/database"
)

// Store persists session partitions in SQLite.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// NewStore wraps an open database whose schema is already migrated.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// Open opens the SQLite file at path and applies the embedded migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := database.OpenSQLite(ctx, path)
	if err != nil {
		return nil, err
	}
	if err := database.RunSQLiteMigrations(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return NewStore(db), nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) Set(ctx context.Context, scope ports.Scope, key string, value []byte) error {
	if value == nil {
		value = []byte{}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO confirmation_entries (session_id, partition, key, value, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (session_id, partition, key)
		DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, scope.SessionID, scope.Partition, key, value, s.now().UTC().UnixMilli())
	if err != nil {
		return fmt.Errorf("upsert confirmation entry: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, scope ports.Scope, key string) ([]byte, bool, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT value FROM confirmation_entries
		WHERE session_id = ? AND partition = ? AND key = ?
	`, scope.SessionID, scope.Partition, key)
	return scanValue(row, "select confirmation entry")
}

func (s *Store) Clear(ctx context.Context, scope ports.Scope, key string) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM confirmation_entries
		WHERE session_id = ? AND partition = ? AND key = ?
	`, scope.SessionID, scope.Partition, key)
	if err != nil {
		return fmt.Errorf("delete confirmation entry: %w", err)
	}
	return nil
}

func (s *Store) ClearAll(ctx context.Context, scope ports.Scope) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM confirmation_entries
		WHERE session_id = ? AND partition = ?
	`, scope.SessionID, scope.Partition)
	if err != nil {
		return fmt.Errorf("delete confirmation partition: %w", err)
	}
	return nil
}

// Take relies on DELETE ... RETURNING, which SQLite runs under its write lock.
func (s *Store) Take(ctx context.Context, scope ports.Scope, key string) ([]byte, bool, error) {
	row := s.db.QueryRowContext(ctx, `
		DELETE FROM confirmation_entries
		WHERE session_id = ? AND partition = ? AND key = ?
		RETURNING value
	`, scope.SessionID, scope.Partition, key)
	return scanValue(row, "take confirmation entry")
}

func (s *Store) Ping(ctx context.Context) error {
	return database.CheckSQLHealth(ctx, s.db)
}

func scanValue(row *sql.Row, op string) ([]byte, bool, error) {
	var value []byte
	if err := row.Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}
	return value, true, nil
}

package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/dejobratic/confirmdialog/internal/confirmation/ports"
	"github.com/dejobratic/confirmdialog/internal/database"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) Set(ctx context.Context, scope ports.Scope, key string, value []byte) error {
	query := `
		INSERT INTO confirmation_entries (session_id, partition, key, value, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (session_id, partition, key)
		DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at
	`

	if _, err := s.pool.Exec(ctx, query, scope.SessionID, scope.Partition, key, value); err != nil {
		return fmt.Errorf("upsert confirmation entry: %w", err)
	}

	return nil
}

func (s *Store) Get(ctx context.Context, scope ports.Scope, key string) ([]byte, bool, error) {
	query := `
		SELECT value
		FROM confirmation_entries
		WHERE session_id = $1 AND partition = $2 AND key = $3
	`

	return s.scanValue(s.pool.QueryRow(ctx, query, scope.SessionID, scope.Partition, key), "select confirmation entry")
}

func (s *Store) Clear(ctx context.Context, scope ports.Scope, key string) error {
	query := `
		DELETE FROM confirmation_entries
		WHERE session_id = $1 AND partition = $2 AND key = $3
	`

	if _, err := s.pool.Exec(ctx, query, scope.SessionID, scope.Partition, key); err != nil {
		return fmt.Errorf("delete confirmation entry: %w", err)
	}

	return nil
}

func (s *Store) ClearAll(ctx context.Context, scope ports.Scope) error {
	query := `
		DELETE FROM confirmation_entries
		WHERE session_id = $1 AND partition = $2
	`

	if _, err := s.pool.Exec(ctx, query, scope.SessionID, scope.Partition); err != nil {
		return fmt.Errorf("delete confirmation partition: %w", err)
	}

	return nil
}

// Take deletes the row and returns its value in one statement, so concurrent
// callers cannot both observe it.
func (s *Store) Take(ctx context.Context, scope ports.Scope, key string) ([]byte, bool, error) {
	query := `
		DELETE FROM confirmation_entries
		WHERE session_id = $1 AND partition = $2 AND key = $3
		RETURNING value
	`

	return s.scanValue(s.pool.QueryRow(ctx, query, scope.SessionID, scope.Partition, key), "take confirmation entry")
}

func (s *Store) Ping(ctx context.Context) error {
	return database.CheckHealth(ctx, s.pool)
}

func (s *Store) scanValue(row pgx.Row, op string) ([]byte, bool, error) {
	var value []byte
	if err := row.Scan(&value); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}
	return value, true, nil
}
